package models

import (
	"time"
)

// ExternalIDPrefix marks ids of items that come from the headline provider
const ExternalIDPrefix = "feed_"

// FeedItem is a normalized headline from the external provider. It lives
// only in the feed cache and is never persisted.
type FeedItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Image        string    `json:"image,omitempty"`
	Source       string    `json:"source"`
	Category     string    `json:"category"`
	OriginalLink string    `json:"originalLink,omitempty"`
	PublishedAt  time.Time `json:"publishedAt"`
}

// FeedEntry is one element of the aggregated feed, manual or external
type FeedEntry struct {
	ID           string     `json:"id"`
	IsManual     bool       `json:"isManual"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Image        string     `json:"image,omitempty"`
	Source       string     `json:"source"`
	Category     string     `json:"category"`
	OriginalLink string     `json:"originalLink,omitempty"`
	AuthorName   string     `json:"authorName,omitempty"`
	Status       string     `json:"status,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// FeedMeta describes an aggregated feed response
type FeedMeta struct {
	Total           int        `json:"total"`
	ManualCount     int        `json:"manualCount"`
	ExternalCount   int        `json:"externalCount"`
	GNewsCount      int        `json:"gnewsCount"`
	LastUpdated     *time.Time `json:"lastUpdated"`
	CacheAgeMinutes int        `json:"cacheAgeMinutes"`
	IsCached        bool       `json:"isCached"`
	IsStale         bool       `json:"isStale"`
}

// Feed is the aggregated feed
type Feed struct {
	Articles []FeedEntry `json:"articles"`
	Meta     FeedMeta    `json:"meta"`
}

// FeedCacheState is a snapshot of the external feed cache
type FeedCacheState struct {
	FetchedAt time.Time `json:"fetchedAt"`
	LastError string    `json:"lastError,omitempty"`
	IsStale   bool      `json:"isStale"`
	ItemCount int       `json:"itemCount"`
}

// EntryFromArticle converts a manual article into a feed entry
func EntryFromArticle(a *Article) FeedEntry {
	return FeedEntry{
		ID:           a.ID,
		IsManual:     true,
		Title:        a.Title,
		Content:      a.Content,
		Image:        a.Image,
		Source:       a.Source,
		Category:     a.Category,
		OriginalLink: a.OriginalLink,
		AuthorName:   a.AuthorName,
		Status:       a.Status,
		ExpiresAt:    a.ExpiresAt,
		CreatedAt:    a.CreatedAt,
	}
}

// EntryFromItem converts an external item into a feed entry
func EntryFromItem(it *FeedItem) FeedEntry {
	return FeedEntry{
		ID:           it.ID,
		IsManual:     false,
		Title:        it.Title,
		Content:      it.Content,
		Image:        it.Image,
		Source:       it.Source,
		Category:     it.Category,
		OriginalLink: it.OriginalLink,
		CreatedAt:    it.PublishedAt,
	}
}
