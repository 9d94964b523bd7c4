package recurrence

import (
	"fmt"
	"time"

	"github.com/cyp0633/librrule/clock"
)

// progressGuard counts steps within a wall-clock window and reports an
// error once more than threshold steps happen before the window resets.
// A Calendar keeps two: one ticked per HasNext computation, and one
// ticked per rejected candidate and reset whenever a date is produced,
// which bounds the work spent on filter combinations that never match.
type progressGuard struct {
	clock     clock.Clock
	threshold int
	window    time.Duration

	windowStart time.Time
	steps       int
}

func newProgressGuard(c clock.Clock, threshold int, window time.Duration) *progressGuard {
	return &progressGuard{clock: c, threshold: threshold, window: window}
}

// tick records one step. The window restarts when more than window has
// elapsed since it began.
func (g *progressGuard) tick() error {
	now := g.clock.Now()
	if g.windowStart.IsZero() || now.Sub(g.windowStart) > g.window {
		g.windowStart = now
		g.steps = 0
	}
	g.steps++
	if g.steps > g.threshold {
		return fmt.Errorf("%w: %d steps within %s", ErrInfiniteLoop, g.steps, g.window)
	}
	return nil
}

func (g *progressGuard) reset() {
	g.windowStart = time.Time{}
	g.steps = 0
}
