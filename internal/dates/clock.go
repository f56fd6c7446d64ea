package dates

import "time"

// Clock supplies the current instant. Business logic never reads the wall
// clock directly; callers resolve Now once per operation and pass the result
// down so every computation is deterministic and replayable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time { return c.Instant }
