package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/news-aggregator-api/internal/clock"
	"github.com/news-aggregator-api/internal/models"
	"github.com/rs/zerolog"
)

// DefaultFeedSize is the number of entries returned when no limit is configured
const DefaultFeedSize = 30

// aggregator is the concrete implementation of Aggregator
type aggregator struct {
	articles ArticleService
	cache    FeedCache
	maxItems int
	clock    clock.Clock
	log      zerolog.Logger
}

func newAggregator(articles ArticleService, cache FeedCache, maxItems int, clk clock.Clock, log zerolog.Logger) *aggregator {
	if maxItems <= 0 {
		maxItems = DefaultFeedSize
	}
	return &aggregator{
		articles: articles,
		cache:    cache,
		maxItems: maxItems,
		clock:    clk,
		log:      log.With().Str("service", "aggregator").Logger(),
	}
}

// GetFeed merges published manual articles with cached external items.
// Entries are ordered newest first; at equal timestamps manual entries come
// before external ones.
func (a *aggregator) GetFeed(ctx context.Context) (*models.Feed, error) {
	manual, err := a.articles.ListPublished(ctx, a.maxItems)
	if err != nil {
		return nil, fmt.Errorf("aggregate feed: %w", err)
	}
	external := a.cache.GetItems(ctx)

	entries := make([]models.FeedEntry, 0, len(manual)+len(external))
	for _, article := range manual {
		entries = append(entries, models.EntryFromArticle(article))
	}
	for i := range external {
		entries = append(entries, models.EntryFromItem(&external[i]))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > a.maxItems {
		entries = entries[:a.maxItems]
	}

	return &models.Feed{
		Articles: entries,
		Meta:     a.meta(entries),
	}, nil
}

func (a *aggregator) meta(entries []models.FeedEntry) models.FeedMeta {
	meta := models.FeedMeta{Total: len(entries)}
	for _, e := range entries {
		if e.IsManual {
			meta.ManualCount++
		} else {
			meta.ExternalCount++
		}
	}
	meta.GNewsCount = meta.ExternalCount

	state := a.cache.State()
	meta.IsStale = state.IsStale
	if state.FetchedAt.IsZero() {
		return meta
	}

	fetchedAt := state.FetchedAt
	meta.LastUpdated = &fetchedAt
	age := a.clock.Now().Sub(fetchedAt)
	if age < 0 {
		age = 0
	}
	meta.CacheAgeMinutes = int(age.Minutes())
	meta.IsCached = meta.CacheAgeMinutes < int(a.cache.FreshnessWindow().Minutes())
	return meta
}

// GetOne returns a single entry. External ids are resolved against the
// cache only. Manual articles that are not visible are returned only to
// their author.
func (a *aggregator) GetOne(ctx context.Context, id, viewerID string) (*models.FeedEntry, error) {
	if strings.HasPrefix(id, models.ExternalIDPrefix) {
		item, ok := a.cache.Lookup(id)
		if !ok {
			return nil, ErrNotFound
		}
		entry := models.EntryFromItem(item)
		return &entry, nil
	}

	article, err := a.articles.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Error().Err(err).Str("article_id", id).Msg("Failed to load article")
		}
		return nil, err
	}
	if !readableBy(article, viewerID, a.clock.Now()) {
		return nil, ErrNotFound
	}

	entry := models.EntryFromArticle(article)
	return &entry, nil
}
