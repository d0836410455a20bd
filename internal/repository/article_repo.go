package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/news-aggregator-api/internal/database"
	"github.com/news-aggregator-api/internal/models"
)

const articleColumns = `id, title, content, image, source, category, original_link,
	author_id, author_name, status, expires_at, created_at, updated_at`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, a *models.Article) error {
	query := `
		INSERT INTO articles (` + articleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Content, a.Image, a.Source, a.Category, a.OriginalLink,
		a.AuthorID, a.AuthorName, a.Status, nullTime(a.ExpiresAt), a.CreatedAt, a.UpdatedAt,
	)
	return translateError(err)
}

// Update rewrites the mutable fields of an article
func (r *articleRepo) Update(ctx context.Context, a *models.Article) error {
	query := `
		UPDATE articles SET
			title = $1, content = $2, image = $3, source = $4, category = $5,
			original_link = $6, status = $7, expires_at = $8, updated_at = $9
		WHERE id = $10
	`
	_, err := r.db.ExecContext(ctx, query,
		a.Title, a.Content, a.Image, a.Source, a.Category,
		a.OriginalLink, a.Status, nullTime(a.ExpiresAt), a.UpdatedAt, a.ID,
	)
	return translateError(err)
}

// Delete removes an article; bookmarks follow through ON DELETE CASCADE
func (r *articleRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByIDs retrieves the articles that exist among ids, in no particular order
func (r *articleRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ANY($1)`, pq.Array(ids))
}

// ListPublished returns published, unexpired articles, newest first
func (r *articleRepo) ListPublished(ctx context.Context, now time.Time, limit int) ([]*models.Article, error) {
	query := `
		SELECT ` + articleColumns + ` FROM articles
		WHERE status = 'published' AND (expires_at IS NULL OR expires_at > $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.query(ctx, query, now, limit)
}

// ListByAuthor returns every article of an author, drafts included
func (r *articleRepo) ListByAuthor(ctx context.Context, authorID string) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE author_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, authorID)
}

func (r *articleRepo) query(ctx context.Context, query string, args ...interface{}) ([]*models.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var (
		a         models.Article
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.Image, &a.Source, &a.Category, &a.OriginalLink,
		&a.AuthorID, &a.AuthorName, &a.Status, &expiresAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ExpiresAt = timePtr(expiresAt)
	return &a, nil
}
