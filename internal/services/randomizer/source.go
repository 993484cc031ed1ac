// Package randomizer holds the injectable random source and the recent
// timestamp generator shared by the template registry and both transforms.
package randomizer

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is the subset of *rand.Rand the engine draws from. Tests pass a
// seeded *rand.Rand; production uses Default.
type Source interface {
	IntN(n int) int
	Float64() float64
}

type globalSource struct{}

func (globalSource) IntN(n int) int   { return rand.IntN(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

// Default returns the process-wide, non-seedable source.
func Default() Source {
	return globalSource{}
}

// NewSeeded returns a deterministic source.
func NewSeeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// Synchronized makes src safe to share between goroutines. Draw order across
// goroutines is then scheduling dependent.
func Synchronized(src Source) Source {
	if src == nil {
		return Default()
	}
	if _, ok := src.(globalSource); ok {
		return src
	}
	return &lockedSource{src: src}
}

// Clock returns the current instant.
type Clock func() time.Time
