package headlines

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// RSS reads headlines from a list of RSS/Atom feeds
type RSS struct {
	urls   []string
	parser *gofeed.Parser
	log    zerolog.Logger
}

// NewRSS creates an RSS provider
func NewRSS(urls []string, log zerolog.Logger) *RSS {
	return &RSS{
		urls:   urls,
		parser: gofeed.NewParser(),
		log:    log.With().Str("provider", "rss").Logger(),
	}
}

// Name implements Provider
func (p *RSS) Name() string { return "rss" }

// FetchHeadlines fetches every feed concurrently. It fails only when every
// feed fails; otherwise the items of the feeds that succeeded are returned
// in configuration order.
func (p *RSS) FetchHeadlines(ctx context.Context) ([]Headline, error) {
	if len(p.urls) == 0 {
		return nil, errors.New("rss: no feeds configured")
	}

	results := make([][]Headline, len(p.urls))
	errs := make([]error, len(p.urls))

	var wg sync.WaitGroup
	for i, u := range p.urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i], errs[i] = p.fetchOne(ctx, u)
		}(i, u)
	}
	wg.Wait()

	var (
		out    []Headline
		failed int
	)
	for i := range p.urls {
		if errs[i] != nil {
			failed++
			p.log.Warn().Err(errs[i]).Str("url", p.urls[i]).Msg("Feed fetch failed")
			continue
		}
		out = append(out, results[i]...)
	}

	if failed == len(p.urls) {
		return nil, fmt.Errorf("rss: all %d feeds failed: %w", failed, errors.Join(errs...))
	}
	return out, nil
}

func (p *RSS) fetchOne(ctx context.Context, url string) ([]Headline, error) {
	feed, err := p.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return FromFeed(feed), nil
}

// FromFeed converts a parsed feed into headlines
func FromFeed(feed *gofeed.Feed) []Headline {
	out := make([]Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		h := Headline{
			ID:          ItemID(cmp.Or(item.GUID, item.Link, item.Title)),
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			Image:       itemImage(item),
			Source:      feed.Title,
			URL:         item.Link,
			PublishedAt: cmp.Or(item.PublishedParsed, item.UpdatedParsed),
		}
		out = append(out, h)
	}
	return out
}

// ItemID derives a short stable id from a feed item key
func ItemID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
