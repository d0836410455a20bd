package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/news-aggregator-api/internal/clock"
	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/provider/blob"
	"github.com/news-aggregator-api/internal/repository"
	"github.com/news-aggregator-api/internal/validation"
	"github.com/rs/zerolog"
)

// Author identifies the user writing an article
type Author struct {
	ID   string
	Name string
}

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repo      repository.ArticleRepository
	blobs     blob.Store
	validator *validation.Validator
	clock     clock.Clock
	log       zerolog.Logger
}

func newArticleService(repo repository.ArticleRepository, blobs blob.Store, validator *validation.Validator, clk clock.Clock, log zerolog.Logger) *articleService {
	return &articleService{
		repo:      repo,
		blobs:     blobs,
		validator: validator,
		clock:     clk,
		log:       log.With().Str("service", "articles").Logger(),
	}
}

// Create validates and stores a new article
func (s *articleService) Create(ctx context.Context, author Author, in *models.ArticleInput) (*models.Article, error) {
	if err := invalid(s.validator.ValidateArticleInput(in)); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	article := &models.Article{
		ID:           uuid.New().String(),
		Title:        strings.TrimSpace(in.Title),
		Content:      strings.TrimSpace(in.Content),
		Source:       orDefault(in.Source, models.DefaultSource),
		Category:     orDefault(in.Category, models.DefaultCategory),
		OriginalLink: strings.TrimSpace(in.OriginalLink),
		AuthorID:     author.ID,
		AuthorName:   orDefault(author.Name, "Anonymous"),
		Status:       orDefault(in.Status, models.StatusPublished),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if exp := strings.TrimSpace(in.ExpiresAt); exp != "" {
		t, _ := validation.ParseTimestamp(exp)
		article.ExpiresAt = &t
	}

	if in.Image != nil {
		url, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		article.Image = url
	}

	if err := s.repo.Create(ctx, article); err != nil {
		if article.Image != "" {
			s.releaseImage(ctx, article.Image)
		}
		return nil, fmt.Errorf("create article: %w", err)
	}

	s.log.Info().Str("article_id", article.ID).Str("author_id", author.ID).Msg("Article created")
	return article, nil
}

// Update applies a partial update on behalf of the article's author
func (s *articleService) Update(ctx context.Context, id, authorID string, patch *models.ArticlePatch) (*models.Article, error) {
	article, err := s.owned(ctx, id, authorID)
	if err != nil {
		return nil, err
	}
	if err := invalid(s.validator.ValidateArticlePatch(patch)); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		article.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		article.Content = strings.TrimSpace(*patch.Content)
	}
	if patch.Source != nil {
		article.Source = orDefault(*patch.Source, models.DefaultSource)
	}
	if patch.Category != nil {
		article.Category = orDefault(*patch.Category, models.DefaultCategory)
	}
	if patch.OriginalLink != nil {
		article.OriginalLink = strings.TrimSpace(*patch.OriginalLink)
	}
	if patch.Status != nil {
		article.Status = orDefault(*patch.Status, models.StatusPublished)
	}
	if patch.ExpiresAt != nil {
		if exp := strings.TrimSpace(*patch.ExpiresAt); exp == "" {
			article.ExpiresAt = nil
		} else {
			t, _ := validation.ParseTimestamp(exp)
			article.ExpiresAt = &t
		}
	}

	previousImage := article.Image
	if patch.Image != nil {
		url, err := s.storeImage(ctx, patch.Image)
		if err != nil {
			return nil, err
		}
		article.Image = url
	}

	article.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, article); err != nil {
		if article.Image != previousImage {
			s.releaseImage(ctx, article.Image)
		}
		return nil, fmt.Errorf("update article: %w", err)
	}

	if previousImage != "" && article.Image != previousImage {
		s.releaseImage(ctx, previousImage)
	}

	s.log.Info().Str("article_id", article.ID).Msg("Article updated")
	return article, nil
}

// Delete removes an article on behalf of its author and releases its image
func (s *articleService) Delete(ctx context.Context, id, authorID string) error {
	article, err := s.owned(ctx, id, authorID)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	if article.Image != "" {
		s.releaseImage(ctx, article.Image)
	}

	s.log.Info().Str("article_id", id).Msg("Article deleted")
	return nil
}

// Get returns one article or ErrNotFound
func (s *articleService) Get(ctx context.Context, id string) (*models.Article, error) {
	if !validation.IsValidUUID(id) {
		return nil, ErrNotFound
	}
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil {
		return nil, ErrNotFound
	}
	return article, nil
}

// ListPublished returns visible articles, newest first
func (s *articleService) ListPublished(ctx context.Context, limit int) ([]*models.Article, error) {
	articles, err := s.repo.ListPublished(ctx, s.clock.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// ListByAuthor returns every article of an author
func (s *articleService) ListByAuthor(ctx context.Context, authorID string) ([]*models.Article, error) {
	articles, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list author articles: %w", err)
	}
	return articles, nil
}

// owned loads an article and checks it belongs to authorID
func (s *articleService) owned(ctx context.Context, id, authorID string) (*models.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != authorID {
		s.log.Warn().Str("article_id", id).Str("user_id", authorID).Msg("Non-author attempted to modify article")
		return nil, ErrForbidden
	}
	return article, nil
}

func (s *articleService) storeImage(ctx context.Context, upload *models.Upload) (string, error) {
	if s.blobs == nil {
		return "", invalid([]validation.ValidationError{{Field: "image", Message: "image uploads are disabled"}})
	}
	url, err := s.blobs.Put(ctx, upload)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return url, nil
}

// releaseImage deletes a stored image, logging failures
func (s *articleService) releaseImage(ctx context.Context, url string) {
	if s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, url); err != nil {
		s.log.Warn().Err(err).Str("image", url).Msg("Failed to release image")
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
