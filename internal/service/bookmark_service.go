package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/news-aggregator-api/internal/clock"
	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/repository"
	"github.com/news-aggregator-api/internal/validation"
	"github.com/rs/zerolog"
)

// bookmarkService is the concrete implementation of BookmarkService
type bookmarkService struct {
	bookmarks repository.BookmarkRepository
	articles  repository.ArticleRepository
	clock     clock.Clock
	log       zerolog.Logger
}

func newBookmarkService(bookmarks repository.BookmarkRepository, articles repository.ArticleRepository, clk clock.Clock, log zerolog.Logger) *bookmarkService {
	return &bookmarkService{
		bookmarks: bookmarks,
		articles:  articles,
		clock:     clk,
		log:       log.With().Str("service", "bookmarks").Logger(),
	}
}

// Add saves a manual article for the user
func (s *bookmarkService) Add(ctx context.Context, userID, articleID string) (*models.Bookmark, error) {
	if !validation.IsValidUUID(articleID) {
		return nil, ErrNotFound
	}
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("lookup article: %w", err)
	}
	if article == nil || !readableBy(article, userID, s.clock.Now()) {
		return nil, ErrNotFound
	}

	bookmark := &models.Bookmark{
		ID:        uuid.New().String(),
		UserID:    userID,
		ArticleID: articleID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrConflict
		case errors.Is(err, repository.ErrMissingReference):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create bookmark: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("article_id", articleID).Msg("Bookmark added")
	return bookmark, nil
}

// List returns the user's bookmarks, newest first, with articles populated.
// Bookmarks whose article no longer exists, or is a draft or expired
// article of another author, are skipped.
func (s *bookmarkService) List(ctx context.Context, userID string) ([]models.BookmarkWithArticle, error) {
	bookmarks, err := s.bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	if len(bookmarks) == 0 {
		return []models.BookmarkWithArticle{}, nil
	}

	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.ArticleID)
	}
	articles, err := s.articles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load bookmarked articles: %w", err)
	}
	byID := make(map[string]*models.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	now := s.clock.Now()
	result := make([]models.BookmarkWithArticle, 0, len(bookmarks))
	dangling, hidden := 0, 0
	for _, b := range bookmarks {
		article, ok := byID[b.ArticleID]
		if !ok {
			dangling++
			continue
		}
		if !readableBy(article, userID, now) {
			hidden++
			continue
		}
		result = append(result, models.BookmarkWithArticle{Bookmark: *b, Article: article})
	}
	if dangling > 0 || hidden > 0 {
		s.log.Debug().Str("user_id", userID).Int("dangling", dangling).Int("hidden", hidden).Msg("Skipped unreadable bookmarks")
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Remove deletes a bookmark
func (s *bookmarkService) Remove(ctx context.Context, userID, articleID string) error {
	if !validation.IsValidUUID(articleID) {
		return ErrNotFound
	}
	deleted, err := s.bookmarks.Delete(ctx, userID, articleID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.log.Info().Str("user_id", userID).Str("article_id", articleID).Msg("Bookmark removed")
	return nil
}

// readableBy reports whether userID may see the article: published and
// unexpired articles are public, everything else belongs to its author.
func readableBy(article *models.Article, userID string, now time.Time) bool {
	return article.IsVisible(now) || (userID != "" && article.AuthorID == userID)
}
