package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/news-aggregator-api/internal/service"
	"github.com/rs/zerolog"
)

// BookmarkHandler handles bookmark endpoints
type BookmarkHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewBookmarkHandler creates a new BookmarkHandler
func NewBookmarkHandler(services *service.Services, log zerolog.Logger) *BookmarkHandler {
	return &BookmarkHandler{
		services: services,
		log:      log.With().Str("handler", "bookmarks").Logger(),
	}
}

type addBookmarkRequest struct {
	ArticleID string `json:"articleId" binding:"required"`
}

// AddBookmark handles POST /api/bookmarks
func (h *BookmarkHandler) AddBookmark(c *gin.Context) {
	var req addBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("articleId is required"))
		return
	}

	bookmark, err := h.services.Bookmarks.Add(c.Request.Context(), c.GetString(ctxUserID), req.ArticleID)
	if err != nil {
		if statusFor(err) == http.StatusConflict {
			c.JSON(http.StatusConflict, errorBody("Already bookmarked"))
			return
		}
		respondError(c, h.log, err, "Article")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Bookmark added",
		"bookmark": bookmark,
	})
}

// ListBookmarks handles GET /api/bookmarks
func (h *BookmarkHandler) ListBookmarks(c *gin.Context) {
	bookmarks, err := h.services.Bookmarks.List(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	c.JSON(http.StatusOK, bookmarks)
}

// RemoveBookmark handles DELETE /api/bookmarks/:articleId
func (h *BookmarkHandler) RemoveBookmark(c *gin.Context) {
	if err := h.services.Bookmarks.Remove(c.Request.Context(), c.GetString(ctxUserID), c.Param("articleId")); err != nil {
		respondError(c, h.log, err, "Bookmark")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Bookmark removed",
	})
}
