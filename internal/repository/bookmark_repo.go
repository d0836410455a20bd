package repository

import (
	"context"

	"github.com/news-aggregator-api/internal/database"
	"github.com/news-aggregator-api/internal/models"
)

// bookmarkRepo is the concrete implementation of BookmarkRepository
type bookmarkRepo struct {
	db *database.DB
}

// NewBookmarkRepo creates a new bookmark repository
func NewBookmarkRepo(db *database.DB) BookmarkRepository {
	return &bookmarkRepo{db: db}
}

// Create inserts a bookmark. An existing (user, article) pair yields ErrDuplicate.
func (r *bookmarkRepo) Create(ctx context.Context, b *models.Bookmark) error {
	query := `
		INSERT INTO bookmarks (id, user_id, article_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.UserID, b.ArticleID, b.CreatedAt)
	return translateError(err)
}

// ListByUser returns a user's bookmarks, newest first
func (r *bookmarkRepo) ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error) {
	query := `
		SELECT id, user_id, article_id, created_at FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []*models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.ArticleID, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, &b)
	}
	return bookmarks, rows.Err()
}

// Delete removes one bookmark and reports whether it existed
func (r *bookmarkRepo) Delete(ctx context.Context, userID, articleID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND article_id = $2`, userID, articleID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
