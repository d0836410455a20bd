package repository

import (
	"context"
	"time"

	"github.com/news-aggregator-api/internal/database"
	"github.com/news-aggregator-api/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserEmailRepository records which device last logged in with an email
type UserEmailRepository interface {
	Upsert(ctx context.Context, entry *models.UserEmail) error
	List(ctx context.Context) ([]*models.UserEmail, error)
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Article, error)
	ListPublished(ctx context.Context, now time.Time, limit int) ([]*models.Article, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Article, error)
}

// BookmarkRepository defines the interface for bookmark data operations
type BookmarkRepository interface {
	Create(ctx context.Context, bookmark *models.Bookmark) error
	ListByUser(ctx context.Context, userID string) ([]*models.Bookmark, error)
	Delete(ctx context.Context, userID, articleID string) (bool, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User      UserRepository
	UserEmail UserEmailRepository
	Article   ArticleRepository
	Bookmark  BookmarkRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:      NewUserRepo(db),
		UserEmail: NewUserEmailRepo(db),
		Article:   NewArticleRepo(db),
		Bookmark:  NewBookmarkRepo(db),
	}
}
