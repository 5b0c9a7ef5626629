// ABOUTME: Two-tier (memory + durable) cache for suggestion results.
// ABOUTME: Write-through on Put, read-through with promotion on Get.

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/travelist/suggest-gateway/internal/kv"
	"github.com/travelist/suggest-gateway/internal/provider"
)

// durablePrefix namespaces suggestion entries in the shared kv store.
const durablePrefix = "suggestions:"

// Entry is one cached suggestion result. Entries carry no TTL; staleness
// is decided by the orchestrator comparing content keys.
type Entry struct {
	Key       string          `json:"key"`
	Result    provider.Result `json:"result"`
	WrittenAt time.Time       `json:"written_at"`
}

// SuggestionCache is the two-tier cache. After a successful read-through
// the memory tier mirrors the durable tier for that key; a Put is visible
// to any subsequent Get in the same process with no staleness window.
type SuggestionCache struct {
	mu      sync.RWMutex
	mem     map[string]*Entry
	durable kv.Store
	logger  *slog.Logger
}

// New creates a cache over the given durable store. Pass nil logger for
// the default.
func New(durable kv.Store, logger *slog.Logger) *SuggestionCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SuggestionCache{
		mem:     make(map[string]*Entry),
		durable: durable,
		logger:  logger.With("component", "cache"),
	}
}

// Get returns the entry for key, consulting memory first and falling back
// to the durable tier. Durable hits are promoted into memory. Durable
// read or decode failures are treated as a miss.
func (c *SuggestionCache) Get(ctx context.Context, key string) (*Entry, bool) {
	c.mu.RLock()
	e, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return e, true
	}

	raw, ok, err := c.durable.Get(ctx, durablePrefix+key)
	if err != nil {
		c.logger.Debug("durable read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Debug("durable entry undecodable, treating as miss", "key", key, "error", err)
		return nil, false
	}

	c.mu.Lock()
	c.mem[key] = &entry
	c.mu.Unlock()

	return &entry, true
}

// Put writes the result to both tiers before returning. A durable write
// failure is logged and ignored; the memory tier still serves the value
// for the life of the process.
func (c *SuggestionCache) Put(ctx context.Context, key string, result *provider.Result) {
	entry := &Entry{
		Key:       key,
		Result:    *result,
		WrittenAt: time.Now().UTC(),
	}

	c.mu.Lock()
	c.mem[key] = entry
	c.mu.Unlock()

	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Debug("entry marshal failed, skipping durable write", "key", key, "error", err)
		return
	}
	if err := c.durable.Put(ctx, durablePrefix+key, raw); err != nil {
		c.logger.Debug("durable write failed", "key", key, "error", err)
	}
}

// Invalidate removes the entry from both tiers.
func (c *SuggestionCache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.mem, key)
	c.mu.Unlock()

	if err := c.durable.Delete(ctx, durablePrefix+key); err != nil {
		c.logger.Debug("durable delete failed", "key", key, "error", err)
	}
}
