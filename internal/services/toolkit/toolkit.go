// Package toolkit provides the lazily loaded codec toolkit used by the video
// path. Loading is single-flight and every session serializes its runs.
package toolkit

import (
	"context"
	"sync"

	"github.com/phambaophuc/meta-shift/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Session executes one argument list against a named input and returns the
// bytes of the named output.
type Session interface {
	Run(ctx context.Context, inputName string, input []byte, args []string, outputName string) ([]byte, error)
	Version() string
}

// Toolkit hands out a ready session, loading it on first use.
type Toolkit interface {
	EnsureLoaded(ctx context.Context) (Session, error)
}

// LoadFunc performs the one-time initialization.
type LoadFunc func(ctx context.Context) (Session, error)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "uninitialized"
}

const loadKey = "toolkit"

// Loader implements Toolkit. A failed load is sticky: later callers get the
// same ToolkitLoadError without another attempt.
type Loader struct {
	load   LoadFunc
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.Mutex
	state   State
	session Session
	err     error
}

func NewLoader(load LoadFunc, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{load: load, logger: logger}
}

// EnsureLoaded returns the shared session. Concurrent callers during the
// first load wait on the same in-flight attempt.
func (l *Loader) EnsureLoaded(ctx context.Context) (Session, error) {
	if s, err, done := l.settled(); done {
		return s, err
	}

	ch := l.group.DoChan(loadKey, func() (interface{}, error) {
		if s, err, done := l.settled(); done {
			return s, err
		}
		return l.doLoad(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		s, _ := res.Val.(Session)
		return s, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) doLoad(ctx context.Context) (Session, error) {
	l.mu.Lock()
	l.state = StateLoading
	l.mu.Unlock()

	s, err := l.load(ctx)
	if err == nil && s == nil {
		err = errNilSession
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = StateFailed
		l.err = &models.ToolkitLoadError{Err: err}
		l.logger.Error("Codec toolkit failed to load", zap.Error(err))
		return nil, l.err
	}

	l.state = StateReady
	l.session = &serialSession{inner: s}
	l.logger.Info("Codec toolkit loaded", zap.String("version", s.Version()))
	return l.session, nil
}

func (l *Loader) settled() (Session, error, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateReady:
		return l.session, nil, true
	case StateFailed:
		return nil, l.err, true
	}
	return nil, nil, false
}

// State reports the current initialization state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// HealthCheck describes the loader for health endpoints.
func (l *Loader) HealthCheck() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateReady:
		return "healthy: " + l.session.Version()
	case StateFailed:
		return "unhealthy: " + l.err.Error()
	}
	return "not loaded"
}

// serialSession allows at most one Run at a time on the wrapped session.
type serialSession struct {
	mu    sync.Mutex
	inner Session
}

func (s *serialSession) Run(ctx context.Context, inputName string, input []byte, args []string, outputName string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Run(ctx, inputName, input, args, outputName)
}

func (s *serialSession) Version() string {
	return s.inner.Version()
}
