package models

import (
	"time"
)

// Bookmark links a user to a saved manual article
type Bookmark struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	ArticleID string    `json:"articleId" db:"article_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// BookmarkWithArticle is a bookmark with its article populated
type BookmarkWithArticle struct {
	Bookmark
	Article *Article `json:"article"`
}
