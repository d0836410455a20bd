package models

import (
	"time"
)

// Article statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Field defaults applied on create
const (
	DefaultSource   = "Unknown"
	DefaultCategory = "General"
)

// ValidStatuses defines allowed article statuses
var ValidStatuses = map[string]bool{
	StatusDraft:     true,
	StatusPublished: true,
}

// Article represents a manually authored, persisted article
type Article struct {
	ID           string     `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Content      string     `json:"content" db:"content"`
	Image        string     `json:"image,omitempty" db:"image"`
	Source       string     `json:"source" db:"source"`
	Category     string     `json:"category" db:"category"`
	OriginalLink string     `json:"originalLink,omitempty" db:"original_link"`
	AuthorID     string     `json:"authorId" db:"author_id"`
	AuthorName   string     `json:"authorName" db:"author_name"`
	Status       string     `json:"status" db:"status"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsVisible reports whether the article is published and not expired at now
func (a *Article) IsVisible(now time.Time) bool {
	if a.Status != StatusPublished {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}

// ArticleInput carries the fields of a new article. String values are raw
// form input; validation parses them.
type ArticleInput struct {
	Title        string
	Content      string
	Source       string
	Category     string
	OriginalLink string
	Status       string
	ExpiresAt    string
	Image        *Upload
}

// ArticlePatch carries a partial update; nil fields are left unchanged.
// An empty ExpiresAt clears the expiry.
type ArticlePatch struct {
	Title        *string
	Content      *string
	Source       *string
	Category     *string
	OriginalLink *string
	Status       *string
	ExpiresAt    *string
	Image        *Upload
}

// IsEmpty reports whether the patch changes nothing
func (p *ArticlePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Source == nil && p.Category == nil &&
		p.OriginalLink == nil && p.Status == nil && p.ExpiresAt == nil && p.Image == nil
}
