package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/news-aggregator-api/internal/service"
	"github.com/rs/zerolog"
)

// AdminHandler handles feed administration endpoints
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// RefreshFeed handles POST /api/admin/refresh-gnews
func (h *AdminHandler) RefreshFeed(c *gin.Context) {
	count, fetchedAt, err := h.services.Feed.Refresh(c.Request.Context())

	var lastUpdated *time.Time
	if !fetchedAt.IsZero() {
		lastUpdated = &fetchedAt
	}

	if err != nil {
		h.log.Warn().Err(err).Str("user_id", c.GetString(ctxUserID)).Msg("Manual feed refresh failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"success":     false,
			"error":       "Feed refresh failed",
			"count":       count,
			"lastUpdated": lastUpdated,
		})
		return
	}

	h.log.Info().Str("user_id", c.GetString(ctxUserID)).Int("count", count).Msg("Feed refreshed manually")
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       count,
		"lastUpdated": lastUpdated,
	})
}

// FeedStatus handles GET /api/admin/feed-status
func (h *AdminHandler) FeedStatus(c *gin.Context) {
	state := h.services.Feed.State()

	var lastUpdated *time.Time
	if !state.FetchedAt.IsZero() {
		lastUpdated = &state.FetchedAt
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                true,
		"itemCount":              state.ItemCount,
		"lastUpdated":            lastUpdated,
		"lastError":              state.LastError,
		"isStale":                state.IsStale,
		"freshnessWindowMinutes": int(h.services.Feed.FreshnessWindow().Minutes()),
	})
}

// ListUserEmails handles GET /api/admin/user-emails
func (h *AdminHandler) ListUserEmails(c *gin.Context) {
	entries, err := h.services.Identity.ListUserEmails(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(entries),
		"emails":  entries,
	})
}
