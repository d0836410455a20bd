package service

import (
	"context"
	"time"

	"github.com/news-aggregator-api/internal/clock"
	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/otp"
	"github.com/news-aggregator-api/internal/provider/blob"
	"github.com/news-aggregator-api/internal/provider/email"
	"github.com/news-aggregator-api/internal/provider/headlines"
	"github.com/news-aggregator-api/internal/ratelimit"
	"github.com/news-aggregator-api/internal/repository"
	"github.com/news-aggregator-api/internal/token"
	"github.com/news-aggregator-api/internal/validation"
	"github.com/rs/zerolog"
)

// IdentityService handles login, registration and token checks
type IdentityService interface {
	RequestLogin(ctx context.Context, email string) (*LoginChallenge, error)
	CompleteLogin(ctx context.Context, email, code, device string) (*LoginResult, error)
	Register(ctx context.Context, name, email, password string) (*LoginResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Authenticate(rawToken string) (*token.Claims, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
	ListUserEmails(ctx context.Context) ([]*models.UserEmail, error)
}

// ArticleService manages manually authored articles
type ArticleService interface {
	Create(ctx context.Context, author Author, in *models.ArticleInput) (*models.Article, error)
	Update(ctx context.Context, id, authorID string, patch *models.ArticlePatch) (*models.Article, error)
	Delete(ctx context.Context, id, authorID string) error
	Get(ctx context.Context, id string) (*models.Article, error)
	ListPublished(ctx context.Context, limit int) ([]*models.Article, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Article, error)
}

// FeedCache caches normalized items from the headline provider
type FeedCache interface {
	GetItems(ctx context.Context) []models.FeedItem
	ForceInvalidate()
	Refresh(ctx context.Context) (int, time.Time, error)
	Lookup(id string) (*models.FeedItem, bool)
	State() models.FeedCacheState
	FreshnessWindow() time.Duration
	Run(ctx context.Context, interval time.Duration)
}

// Aggregator merges manual articles with external items
type Aggregator interface {
	GetFeed(ctx context.Context) (*models.Feed, error)
	GetOne(ctx context.Context, id, viewerID string) (*models.FeedEntry, error)
}

// BookmarkService manages a user's saved articles
type BookmarkService interface {
	Add(ctx context.Context, userID, articleID string) (*models.Bookmark, error)
	List(ctx context.Context, userID string) ([]models.BookmarkWithArticle, error)
	Remove(ctx context.Context, userID, articleID string) error
}

// HealthService reports backing store health
type HealthService interface {
	Check(ctx context.Context) error
}

// Pinger is implemented by *database.DB
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Services holds all service interfaces
type Services struct {
	Identity   IdentityService
	Articles   ArticleService
	Feed       FeedCache
	Aggregator Aggregator
	Bookmarks  BookmarkService
	Health     HealthService
}

// Dependencies are the collaborators services are built from. Nil Clock,
// OTP, Tokens or Limiter fields are filled from cfg; a nil Headlines
// provider disables the external feed.
type Dependencies struct {
	Clock     clock.Clock
	OTP       *otp.Store
	Tokens    *token.Manager
	Limiter   *ratelimit.Limiter
	Email     email.Sender
	Blob      blob.Store
	Headlines headlines.Provider
	DB        Pinger
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, deps Dependencies, cfg *config.Config, log zerolog.Logger) *Services {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.OTP == nil {
		deps.OTP = otp.NewStore(cfg.Auth.OTPTTL, deps.Clock, log)
	}
	if deps.Tokens == nil {
		deps.Tokens = token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, deps.Clock)
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(deps.Clock)
	}
	if deps.Email == nil {
		deps.Email = email.NewLogSender(log)
	}

	validator := validation.NewValidator(cfg.Blob.MaxUploadSize)

	identitySvc := newIdentityService(repos, deps, validator, cfg, log)
	articleSvc := newArticleService(repos.Article, deps.Blob, validator, deps.Clock, log)
	feedCache := newFeedCache(deps.Headlines, cfg.Headlines.FreshnessWindow, cfg.Headlines.Timeout, deps.Clock, log)
	aggregator := newAggregator(articleSvc, feedCache, cfg.Feed.MaxItems, deps.Clock, log)
	bookmarkSvc := newBookmarkService(repos.Bookmark, repos.Article, deps.Clock, log)

	return &Services{
		Identity:   identitySvc,
		Articles:   articleSvc,
		Feed:       feedCache,
		Aggregator: aggregator,
		Bookmarks:  bookmarkSvc,
		Health:     &healthService{db: deps.DB},
	}
}

type healthService struct {
	db Pinger
}

func (h *healthService) Check(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.HealthCheck(ctx)
}
