package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/service"
	"github.com/rs/zerolog"
)

var (
	errBadBody      = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
)

// ArticleHandler handles feed and article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "articles").Logger(),
	}
}

// articlePayload carries article fields from a multipart form or a JSON
// body. Absent fields stay nil.
type articlePayload struct {
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	Source       *string `json:"source"`
	Category     *string `json:"category"`
	OriginalLink *string `json:"originalLink"`
	Status       *string `json:"status"`
	ExpiresAt    *string `json:"expiresAt"`

	Image *models.Upload `json:"-"`
}

func (p *articlePayload) input() *models.ArticleInput {
	return &models.ArticleInput{
		Title:        deref(p.Title),
		Content:      deref(p.Content),
		Source:       deref(p.Source),
		Category:     deref(p.Category),
		OriginalLink: deref(p.OriginalLink),
		Status:       deref(p.Status),
		ExpiresAt:    deref(p.ExpiresAt),
		Image:        p.Image,
	}
}

func (p *articlePayload) patch() *models.ArticlePatch {
	return &models.ArticlePatch{
		Title:        p.Title,
		Content:      p.Content,
		Source:       p.Source,
		Category:     p.Category,
		OriginalLink: p.OriginalLink,
		Status:       p.Status,
		ExpiresAt:    p.ExpiresAt,
		Image:        p.Image,
	}
}

// readPayload parses the request body. The returned func closes the
// uploaded file, if any, and must always be called.
func readPayload(c *gin.Context) (*articlePayload, func(), error) {
	p := &articlePayload{}
	cleanup := func() {}

	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(p); err != nil {
			return nil, cleanup, bodyError(err)
		}
		return p, cleanup, nil
	}

	header, err := c.FormFile("image")
	switch {
	case err == nil:
		file, err := header.Open()
		if err != nil {
			return nil, cleanup, errBadBody
		}
		cleanup = func() { file.Close() }
		p.Image = &models.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      file,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return nil, cleanup, bodyError(err)
	}

	field := func(key string) *string {
		if v, ok := c.GetPostForm(key); ok {
			return &v
		}
		return nil
	}
	p.Title = field("title")
	p.Content = field("content")
	p.Source = field("source")
	p.Category = field("category")
	p.OriginalLink = field("originalLink")
	p.Status = field("status")
	p.ExpiresAt = field("expiresAt")

	return p, cleanup, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return errBadBody
}

// respondPayloadError writes the response for a body readPayload rejected
func respondPayloadError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, errBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	c.JSON(status, errorBody(err.Error()))
}

// ListFeed handles GET /api/articles
func (h *ArticleHandler) ListFeed(c *gin.Context) {
	feed, err := h.services.Aggregator.GetFeed(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"articles": feed.Articles,
		"meta":     feed.Meta,
	})
}

// ListMine handles GET /api/articles/mine
func (h *ArticleHandler) ListMine(c *gin.Context) {
	articles, err := h.services.Articles.ListByAuthor(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"articles": articles,
		"count":    len(articles),
	})
}

// GetArticle handles GET /api/articles/:id
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	entry, err := h.services.Aggregator.GetOne(c.Request.Context(), c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, h.log, err, "Article")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// CreateArticle handles POST /api/articles
// Accepts multipart form data with an optional "image" file, or JSON
func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	payload, cleanup, err := readPayload(c)
	defer cleanup()
	if err != nil {
		respondPayloadError(c, err)
		return
	}

	author := service.Author{ID: c.GetString(ctxUserID), Name: c.GetString(ctxUserName)}
	article, err := h.services.Articles.Create(c.Request.Context(), author, payload.input())
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"articleId": article.ID,
		"article":   article,
		"image":     article.Image,
	})
}

// UpdateArticle handles PUT /api/articles/:id
func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	payload, cleanup, err := readPayload(c)
	defer cleanup()
	if err != nil {
		respondPayloadError(c, err)
		return
	}

	patch := payload.patch()
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, errorBody("no fields to update"))
		return
	}

	article, err := h.services.Articles.Update(c.Request.Context(), c.Param("id"), c.GetString(ctxUserID), patch)
	if err != nil {
		respondError(c, h.log, err, "Article")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"article": article,
	})
}

// DeleteArticle handles DELETE /api/articles/:id
func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	if err := h.services.Articles.Delete(c.Request.Context(), c.Param("id"), c.GetString(ctxUserID)); err != nil {
		respondError(c, h.log, err, "Article")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Article deleted",
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
