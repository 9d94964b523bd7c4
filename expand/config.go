package expand

import (
	"io"
	"log/slog"
	"time"

	"github.com/cyp0633/librrule/clock"
)

// EngineConfig holds configuration options for the expansion engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	Expansion ExpansionOptions

	// Progress guard applied to every rule walk. The engine reads rules
	// from the event start up to the queried range, so it allows more
	// steps than a single Calendar does by default.
	GuardThreshold int
	GuardWindow    time.Duration

	Logger *slog.Logger
	Clock  clock.Clock
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	Expansion: DefaultExpansionOptions,

	GuardThreshold: 200000,
	GuardWindow:    time.Second,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute, // Shorter cache TTL
		MaxEntries:      100,             // Fewer cache entries
		CleanupInterval: 2 * time.Minute, // More frequent cleanup
	},

	Expansion: ExpansionOptions{
		MaxOccurrences: 200,
		MaxTimeSpan:    180 * 24 * time.Hour,
	},

	GuardThreshold: 200000,
	GuardWindow:    time.Second,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,
	CacheConfig:  CacheConfig{}, // Not used

	Expansion: DefaultExpansionOptions,

	GuardThreshold: 200000,
	GuardWindow:    time.Second,
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.GuardThreshold <= 0 {
		c.GuardThreshold = DefaultEngineConfig.GuardThreshold
	}
	if c.GuardWindow <= 0 {
		c.GuardWindow = DefaultEngineConfig.GuardWindow
	}
	return c
}
