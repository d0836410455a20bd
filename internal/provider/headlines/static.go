package headlines

import (
	"context"
	"time"
)

// Static serves a fixed list of headlines
type Static struct {
	items []Headline
}

// NewStatic creates a static provider
func NewStatic(items []Headline) *Static {
	return &Static{items: items}
}

// Name implements Provider
func (s *Static) Name() string { return "static" }

// FetchHeadlines returns a copy of the configured items
func (s *Static) FetchHeadlines(ctx context.Context) ([]Headline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Headline, len(s.items))
	copy(out, s.items)
	return out, nil
}

// DemoHeadlines returns sample items for local runs without an API key
func DemoHeadlines() []Headline {
	now := time.Now().UTC()
	at := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}
	return []Headline{
		{
			ID:          "demo-1",
			Title:       "City council approves new bike lanes",
			Description: "The plan adds 40 km of protected lanes over the next two years.",
			Source:      "Demo Daily",
			URL:         "https://example.com/news/bike-lanes",
			PublishedAt: at(20 * time.Minute),
		},
		{
			ID:          "demo-2",
			Title:       "Local library extends weekend hours",
			Description: "Branches will stay open until 8pm on Saturdays starting next month.",
			Source:      "Demo Daily",
			URL:         "https://example.com/news/library-hours",
			PublishedAt: at(2 * time.Hour),
		},
		{
			ID:          "demo-3",
			Title:       "Researchers publish open dataset on air quality",
			Description: "<p>The dataset covers <b>120 sensors</b> across the region.</p>",
			Source:      "Science Wire",
			URL:         "https://example.com/news/air-quality",
			PublishedAt: at(5 * time.Hour),
		},
	}
}
