package headlines

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GNewsOptions configures the GNews client
type GNewsOptions struct {
	APIKey  string
	BaseURL string
	Query   string // empty selects top headlines
	Lang    string
	Country string
	Max     int
}

// GNews fetches headlines from the GNews v4 API
type GNews struct {
	opts   GNewsOptions
	client *http.Client
}

type gnewsResponse struct {
	TotalArticles int            `json:"totalArticles"`
	Articles      []gnewsArticle `json:"articles"`
	Errors        []string       `json:"errors"`
}

type gnewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

// NewGNews creates a GNews client. A nil client selects http.DefaultClient.
func NewGNews(opts GNewsOptions, client *http.Client) *GNews {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://gnews.io/api/v4"
	}
	if opts.Max <= 0 {
		opts.Max = 10
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GNews{opts: opts, client: client}
}

// Name implements Provider
func (g *GNews) Name() string { return "gnews" }

func (g *GNews) endpoint() string {
	params := url.Values{}
	params.Set("apikey", g.opts.APIKey)
	params.Set("max", strconv.Itoa(g.opts.Max))
	if g.opts.Lang != "" {
		params.Set("lang", g.opts.Lang)
	}
	if g.opts.Country != "" {
		params.Set("country", g.opts.Country)
	}

	path := "/top-headlines"
	if g.opts.Query != "" {
		path = "/search"
		params.Set("q", g.opts.Query)
	}
	return strings.TrimSuffix(g.opts.BaseURL, "/") + path + "?" + params.Encode()
}

// FetchHeadlines implements Provider
func (g *GNews) FetchHeadlines(ctx context.Context) ([]Headline, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("gnews: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gnews: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("gnews: read body: %w", err)
	}

	var payload gnewsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gnews: unexpected status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("gnews: malformed payload: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(payload.Errors) > 0 {
			return nil, fmt.Errorf("gnews: status %d: %s", resp.StatusCode, strings.Join(payload.Errors, "; "))
		}
		return nil, fmt.Errorf("gnews: unexpected status %d", resp.StatusCode)
	}
	if payload.Articles == nil {
		return nil, fmt.Errorf("gnews: malformed payload: missing articles")
	}

	out := make([]Headline, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		h := Headline{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			Image:       a.Image,
			Source:      a.Source.Name,
			URL:         a.URL,
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			h.PublishedAt = &t
		}
		out = append(out, h)
	}
	return out, nil
}
