package recurrence

import (
	"io"
	"log/slog"
	"time"

	"github.com/cyp0633/librrule/clock"
)

// Config controls a Calendar.
type Config struct {
	// Logger receives iteration events. If nil, logging is disabled.
	Logger *slog.Logger

	// Clock times the progress guard window. If nil, the real clock is used.
	Clock clock.Clock

	// GuardThreshold is the number of steps allowed within GuardWindow
	// before iteration fails with ErrInfiniteLoop. It bounds two counts
	// separately: HasNext calls, and rejected candidates between two
	// produced dates.
	//
	// The HasNext count also limits throughput. Draining more than
	// GuardThreshold dates of an unbounded rule within one window fails
	// even for a plain FREQ=DAILY. Callers that take large batches should
	// raise the threshold.
	GuardThreshold int

	// GuardWindow is the length of the window steps are counted in.
	GuardWindow time.Duration
}

// DefaultConfig allows 10000 steps per second.
var DefaultConfig = Config{
	GuardThreshold: 10000,
	GuardWindow:    1000 * time.Millisecond,
}

// Option is a function that modifies Config
type Option func(*Config)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithClock sets the clock used by the progress guard
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		c.Clock = clk
	}
}

// WithGuard sets the progress guard limits
func WithGuard(threshold int, window time.Duration) Option {
	return func(c *Config) {
		c.GuardThreshold = threshold
		c.GuardWindow = window
	}
}

func newConfig(opts []Option) Config {
	config := DefaultConfig
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.GuardThreshold <= 0 {
		config.GuardThreshold = DefaultConfig.GuardThreshold
	}
	if config.GuardWindow <= 0 {
		config.GuardWindow = DefaultConfig.GuardWindow
	}
	return config
}
