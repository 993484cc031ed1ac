package randomizer

import "time"

const (
	DefaultMaxDaysBack = 30

	exifLayout = "2006:01:02 15:04:05"
	isoLayout  = "2006-01-02T15:04:05.000Z"
)

// Generator draws recent timestamps from an injected source and clock.
type Generator struct {
	rng Source
	now Clock
}

func NewGenerator(rng Source, now Clock) *Generator {
	if rng == nil {
		rng = Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rng, now: now}
}

// RecentTimestamp returns an instant up to maxDaysBack days in the past.
// The day, hour, minute and second offsets are drawn in that order and
// subtracted from now, so the result is never in the future. A zero or
// negative range returns now unchanged.
func (g *Generator) RecentTimestamp(maxDaysBack int) time.Time {
	now := g.now()
	if maxDaysBack <= 0 {
		return now
	}

	days := g.rng.IntN(maxDaysBack)
	hours := g.rng.IntN(24)
	minutes := g.rng.IntN(60)
	seconds := g.rng.IntN(60)

	offset := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second

	return now.AddDate(0, 0, -days).Add(-offset)
}

// FormatExif renders t as "YYYY:MM:DD HH:MM:SS" in t's location.
func FormatExif(t time.Time) string {
	return t.Format(exifLayout)
}

// FormatISO renders t as a UTC instant with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
