package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/news-aggregator-api/internal/clock"
	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/provider/headlines"
	"github.com/rs/zerolog"
)

// errNoProvider is returned by Refresh when no headline provider is configured
var errNoProvider = errors.New("no headline provider configured")

// feedCache is the concrete implementation of FeedCache.
//
// Items are served without a provider call while the last successful fetch
// is younger than the freshness window. A failed fetch keeps the previous
// items and marks the cache stale; items are only replaced by a successful
// fetch. Two concurrent misses may both call the provider; the later result
// wins. A failure that finishes after a concurrent success leaves the cache
// fresh.
type feedCache struct {
	provider headlines.Provider
	window   time.Duration
	timeout  time.Duration
	clock    clock.Clock
	log      zerolog.Logger

	mu          sync.RWMutex
	items       []models.FeedItem
	index       map[string]int
	fetchedAt   time.Time
	lastError   string
	isStale     bool
	invalidated bool
	// generation counts successful fetches
	generation uint64

	refreshing atomic.Bool
}

func newFeedCache(provider headlines.Provider, window, timeout time.Duration, clk clock.Clock, log zerolog.Logger) *feedCache {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &feedCache{
		provider: provider,
		window:   window,
		timeout:  timeout,
		clock:    clk,
		log:      log.With().Str("service", "feed_cache").Logger(),
		index:    make(map[string]int),
	}
}

// GetItems returns the cached items, fetching when they are missing or old.
// The returned slice is shared and must not be modified.
func (c *feedCache) GetItems(ctx context.Context) []models.FeedItem {
	if c.provider == nil {
		return nil
	}

	c.mu.RLock()
	items := c.items
	fresh := len(items) > 0 && !c.invalidated && c.clock.Now().Sub(c.fetchedAt) < c.window
	c.mu.RUnlock()

	if fresh {
		return items
	}

	items, _ = c.fetch(ctx)
	return items
}

// ForceInvalidate makes the next GetItems call fetch regardless of age
func (c *feedCache) ForceInvalidate() {
	c.mu.Lock()
	c.invalidated = true
	c.mu.Unlock()
}

// Refresh invalidates and fetches immediately. It returns the number of
// items now served and the time of the last successful fetch.
func (c *feedCache) Refresh(ctx context.Context) (int, time.Time, error) {
	if c.provider == nil {
		return 0, time.Time{}, errNoProvider
	}
	c.ForceInvalidate()
	items, err := c.fetch(ctx)

	c.mu.RLock()
	fetchedAt := c.fetchedAt
	c.mu.RUnlock()

	if err != nil {
		return len(items), fetchedAt, errors.Join(ErrUpstreamUnavailable, err)
	}
	return len(items), fetchedAt, nil
}

// Lookup finds a cached item by id without contacting the provider
func (c *feedCache) Lookup(id string) (*models.FeedItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	item := c.items[i]
	return &item, true
}

// State returns a snapshot of the cache bookkeeping
func (c *feedCache) State() models.FeedCacheState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return models.FeedCacheState{
		FetchedAt: c.fetchedAt,
		LastError: c.lastError,
		IsStale:   c.isStale,
		ItemCount: len(c.items),
	}
}

// FreshnessWindow returns how long fetched items are served without refetching
func (c *feedCache) FreshnessWindow() time.Duration {
	return c.window
}

// Run refreshes the cache on every interval until ctx is cancelled. A tick
// that arrives while a refresh is still running is skipped.
func (c *feedCache) Run(ctx context.Context, interval time.Duration) {
	if c.provider == nil || interval <= 0 {
		return
	}

	c.log.Info().Dur("interval", interval).Msg("Feed refresher started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Feed refresher stopped")
			return
		case <-ticker.C:
			c.refreshInBackground(ctx)
		}
	}
}

func (c *feedCache) refreshInBackground(ctx context.Context) {
	if !c.refreshing.CompareAndSwap(false, true) {
		c.log.Debug().Msg("Previous refresh still running, skipping")
		return
	}
	defer c.refreshing.Store(false)

	if _, err := c.fetch(ctx); err != nil {
		c.log.Warn().Err(err).Msg("Background feed refresh failed")
	}
}

// fetch calls the provider and updates the cache. On failure the previous
// items are returned along with the error.
func (c *feedCache) fetch(ctx context.Context) ([]models.FeedItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.mu.RLock()
	startGen := c.generation
	c.mu.RUnlock()

	records, err := c.provider.FetchHeadlines(fetchCtx)
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if c.generation != startGen {
			c.log.Debug().Err(err).Msg("Headline fetch failed after a newer fetch succeeded")
			return c.items, err
		}
		c.lastError = err.Error()
		c.isStale = true
		c.log.Warn().
			Err(err).
			Str("provider", c.provider.Name()).
			Int("stale_items", len(c.items)).
			Msg("Headline fetch failed, serving cached items")
		return c.items, err
	}

	items := headlines.Normalize(records, now)
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.ID] = i
	}

	c.items = items
	c.index = index
	c.fetchedAt = now
	c.lastError = ""
	c.isStale = false
	c.invalidated = false
	c.generation++

	c.log.Info().
		Str("provider", c.provider.Name()).
		Int("items", len(items)).
		Msg("Headlines fetched")
	return items, nil
}
