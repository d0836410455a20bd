// Package headlines fetches third-party news and normalizes it into feed items.
package headlines

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/models"
	"github.com/rs/zerolog"
)

// MaxContentRunes bounds the normalized content of an external item
const MaxContentRunes = 1000

// Headline is a provider record before normalization
type Headline struct {
	// ID is the provider's stable identifier, empty when it has none
	ID          string
	Title       string
	Description string
	Content     string
	Image       string
	Source      string
	URL         string
	PublishedAt *time.Time
}

// Provider fetches the current headlines
type Provider interface {
	Name() string
	FetchHeadlines(ctx context.Context) ([]Headline, error)
}

// New builds the provider selected by cfg.Provider. "none" yields nil.
func New(cfg *config.HeadlinesConfig, log zerolog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "gnews":
		return NewGNews(GNewsOptions{
			APIKey:  cfg.GNewsAPIKey,
			BaseURL: cfg.GNewsBaseURL,
			Query:   cfg.GNewsQuery,
			Lang:    cfg.GNewsLang,
			Country: cfg.GNewsCountry,
			Max:     cfg.GNewsMax,
		}, nil), nil
	case "rss":
		return NewRSS(cfg.RSSURLs, log), nil
	case "static":
		return NewStatic(DemoHeadlines()), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown headlines provider %q", cfg.Provider)
	}
}

// Normalize converts provider records into feed items. Records without a
// title are dropped. Items get a "feed_" id: the provider id when present,
// otherwise one derived from fetchedAt and the record's position.
func Normalize(records []Headline, fetchedAt time.Time) []models.FeedItem {
	items := make([]models.FeedItem, 0, len(records))
	seen := make(map[string]bool, len(records))

	for i, r := range records {
		title := PlainText(r.Title)
		if title == "" {
			continue
		}

		id := r.ID
		if id == "" {
			id = fmt.Sprintf("%d_%d", fetchedAt.UnixMilli(), i)
		}
		id = models.ExternalIDPrefix + id
		if seen[id] {
			continue
		}
		seen[id] = true

		content := r.Description
		if strings.TrimSpace(content) == "" {
			content = r.Content
		}

		source := strings.TrimSpace(r.Source)
		if source == "" {
			source = models.DefaultSource
		}

		publishedAt := fetchedAt
		if r.PublishedAt != nil && !r.PublishedAt.IsZero() {
			publishedAt = *r.PublishedAt
		}

		items = append(items, models.FeedItem{
			ID:           id,
			Title:        title,
			Content:      Truncate(PlainText(content), MaxContentRunes),
			Image:        strings.TrimSpace(r.Image),
			Source:       source,
			Category:     models.DefaultCategory,
			OriginalLink: strings.TrimSpace(r.URL),
			PublishedAt:  publishedAt,
		})
	}
	return items
}

// PlainText strips markup and collapses whitespace
func PlainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return strings.Join(strings.Fields(html), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Truncate shortens s to at most max runes, marking the cut with "..."
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
