package expand

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/librrule/clock"
	"github.com/cyp0633/librrule/recurrence"
)

// cacheEntry holds a parse outcome; failed parses are cached too.
type cacheEntry struct {
	result     mo.Result[*recurrence.Rule]
	expiresAt  time.Time
	accessedAt time.Time
}

// RuleCache caches parsed rules by rule text. It is safe for concurrent use.
type RuleCache struct {
	entries         map[string]*cacheEntry
	mutex           sync.Mutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	clock           clock.Clock

	hits   int
	misses int

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// CacheConfig holds configuration for the rule cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup, 0 disables the cleanup goroutine
}

// DefaultCacheConfig provides sensible defaults for rule caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute, // Cache results for 15 minutes
	MaxEntries:      1000,             // Keep up to 1000 cached results
	CleanupInterval: 5 * time.Minute,  // Cleanup every 5 minutes
}

// NewRuleCache creates a new rule cache. A nil clock means the real clock.
func NewRuleCache(config CacheConfig, clk clock.Clock) *RuleCache {
	if clk == nil {
		clk = clock.Real()
	}
	cache := &RuleCache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		clock:           clk,
		stopCleanup:     make(chan struct{}),
	}

	if cache.cleanupInterval > 0 {
		go cache.cleanupLoop()
	}

	return cache
}

func cacheKey(text string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
}

// Get retrieves a cached parse result if it exists and hasn't expired
func (c *RuleCache) Get(text string) (mo.Result[*recurrence.Rule], bool) {
	key := cacheKey(text)
	now := c.clock.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return mo.Result[*recurrence.Rule]{}, false
	}
	if now.After(entry.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return mo.Result[*recurrence.Rule]{}, false
	}

	entry.accessedAt = now
	c.hits++
	return entry.result, true
}

// Set stores a parse result in the cache
func (c *RuleCache) Set(text string, result mo.Result[*recurrence.Rule]) {
	now := c.clock.Now()
	entry := &cacheEntry{
		result:     result,
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[cacheKey(text)] = entry

	// If we're over the limit, trigger cleanup
	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// Parse returns the cached rule for text, parsing and caching it on a miss.
func (c *RuleCache) Parse(text string) (*recurrence.Rule, error) {
	if result, ok := c.Get(text); ok {
		return result.Get()
	}
	result := mo.TupleToResult(recurrence.ParseRule(text))
	c.Set(text, result)
	return result.Get()
}

// cleanup removes expired entries and least recently used entries if over
// limit. The caller holds the mutex.
func (c *RuleCache) cleanup() {
	now := c.clock.Now()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        string
		accessedAt time.Time
	}
	keyAccessList := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		keyAccessList = append(keyAccessList, keyAccess{key: key, accessedAt: entry.accessedAt})
	}
	slices.SortFunc(keyAccessList, func(a, b keyAccess) int {
		return a.accessedAt.Compare(b.accessedAt)
	})

	entriesToRemove := len(c.entries) - c.maxEntries
	for i := 0; i < entriesToRemove; i++ {
		delete(c.entries, keyAccessList[i].key)
	}
}

// cleanupLoop runs periodic cleanup
func (c *RuleCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache. It may be
// called more than once.
func (c *RuleCache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
	c.mutex.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *RuleCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.clock.Now()
	expiredCount := 0
	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   len(c.entries),
		ExpiredEntries: expiredCount,
		ActiveEntries:  len(c.entries) - expiredCount,
		Hits:           c.hits,
		Misses:         c.misses,
	}
}

// CacheStats provides information about cache performance
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
	Hits           int
	Misses         int
}
