// ABOUTME: Suggestion orchestrator: cache, coalescing, fallback, events.
// ABOUTME: Primary provider failures degrade to the fallback, never to errors.

package suggest

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/travelist/suggest-gateway/internal/cache"
	"github.com/travelist/suggest-gateway/internal/contentkey"
	"github.com/travelist/suggest-gateway/internal/events"
	"github.com/travelist/suggest-gateway/internal/provider"
)

// Config holds orchestrator tunables.
type Config struct {
	// MinPlaces is the minimum saved-place count before the provider is
	// consulted. Below it, requests resolve to an empty result without
	// touching cache or provider.
	MinPlaces int

	// MaxSuggestions is passed through to the provider.
	MaxSuggestions int

	// Timeout bounds each provider call. The call runs on a context
	// detached from the caller: abandoning callers do not cancel it and
	// its result still populates the cache.
	Timeout time.Duration
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		MinPlaces:      3,
		MaxSuggestions: 5,
		Timeout:        15 * time.Second,
	}
}

// Options modifies a single request.
type Options struct {
	// ForceRefresh bypasses the cache lookup. The fresh result still
	// joins any in-flight call for the same key and repopulates the cache.
	ForceRefresh bool
}

// Orchestrator coordinates cache, providers, and advisory events.
type Orchestrator struct {
	cache    *cache.SuggestionCache
	primary  provider.Provider
	fallback provider.Provider
	events   *events.Broadcaster
	logger   *slog.Logger
	cfg      Config

	flights singleflight.Group
	loading atomic.Int32

	mu      sync.Mutex
	lastErr error
}

// New creates an orchestrator. The fallback provider must be local and
// must not fail; events may be nil to disable advisory notifications.
func New(c *cache.SuggestionCache, primary, fallback provider.Provider, ev *events.Broadcaster, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultConfig().MaxSuggestions
	}
	return &Orchestrator{
		cache:    c,
		primary:  primary,
		fallback: fallback,
		events:   ev,
		logger:   logger.With("component", "suggest"),
		cfg:      cfg,
	}
}

// Request returns suggestions for the scope and saved-place set.
//
// Steady state is the cache-hit fast path. On a miss (or ForceRefresh)
// the provider is called once per content key regardless of how many
// callers are waiting; all waiters receive the same result. A caller
// whose ctx is cancelled stops waiting, but the underlying call runs to
// completion and populates the cache for future callers.
func (o *Orchestrator) Request(ctx context.Context, scope contentkey.Scope, places []provider.Place, opts Options) (*provider.Result, error) {
	if len(places) < o.cfg.MinPlaces {
		return emptyResult(), nil
	}

	key := contentkey.Compute(scope, keyItems(places))

	if !opts.ForceRefresh {
		if e, ok := o.cache.Get(ctx, key); ok {
			return &e.Result, nil
		}
	}

	ch := o.flights.DoChan(key, func() (interface{}, error) {
		return o.fetch(key, scope, places)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*provider.Result), nil
	}
}

// Invalidate drops any cached entry for the scope and saved-place set.
func (o *Orchestrator) Invalidate(ctx context.Context, scope contentkey.Scope, places []provider.Place) {
	o.cache.Invalidate(ctx, contentkey.Compute(scope, keyItems(places)))
}

// Loading reports whether any provider call is currently in flight.
func (o *Orchestrator) Loading() bool {
	return o.loading.Load() > 0
}

// LastErr returns the error from the most recent orchestration cycle.
// Fallback successes leave it nil; only a failure of the fallback itself
// (which should not happen) sets it.
func (o *Orchestrator) LastErr() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// fetch runs one generation cycle. It executes on its own context so the
// call outlives abandoning callers; cache population and singleflight
// handle removal happen together when this returns.
func (o *Orchestrator) fetch(key string, scope contentkey.Scope, places []provider.Place) (*provider.Result, error) {
	o.loading.Add(1)
	defer o.loading.Add(-1)

	req := &provider.Request{
		CityName:       scope.CityName,
		CountryName:    scope.CountryName,
		SavedPlaces:    places,
		MaxSuggestions: o.cfg.MaxSuggestions,
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.Timeout)
	defer cancel()

	res, err := o.primary.Generate(ctx, req)
	if err != nil {
		o.logger.Warn("primary provider failed, using fallback",
			"provider", o.primary.Name(),
			"city", scope.CityName,
			"error", err)

		res, err = o.fallback.Generate(context.Background(), req)
		if err != nil {
			o.setLastErr(err)
			return nil, err
		}
	}
	o.setLastErr(nil)

	// The fetch context may already be expired (primary timeout), so the
	// durable write gets its own deadline.
	putCtx, putCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer putCancel()
	o.cache.Put(putCtx, key, res)

	if o.events != nil {
		o.events.Publish(events.Event{
			Topic: events.TopicSuggestionsUpdated,
			Data:  map[string]string{"city": scope.CityName, "country": scope.CountryName},
		})
	}

	return res, nil
}

func (o *Orchestrator) setLastErr(err error) {
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
}

func keyItems(places []provider.Place) []contentkey.Item {
	items := make([]contentkey.Item, len(places))
	for i, p := range places {
		items[i] = contentkey.Item{Name: p.Name, Category: p.Category, Visited: p.Visited}
	}
	return items
}

func emptyResult() *provider.Result {
	return &provider.Result{
		Suggestions:   []provider.Suggestion{},
		BasedOnPlaces: []string{},
		GeneratedAt:   time.Now().UTC(),
	}
}
