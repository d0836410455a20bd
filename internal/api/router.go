package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/service"
	"github.com/news-aggregator-api/pkg/logger"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Form fields ride along with the image, so allow some headroom.
	maxBody := cfg.Blob.MaxUploadSize + 1<<20

	router := gin.New()
	router.MaxMultipartMemory = maxBody

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	authHandler := NewAuthHandler(services, cfg, log)
	articleHandler := NewArticleHandler(services, log)
	bookmarkHandler := NewBookmarkHandler(services, log)
	adminHandler := NewAdminHandler(services, log)

	auth := requireAuth(services.Identity)

	// Health check
	health := healthCheck(services)
	router.GET("/health", health)

	if cfg.Blob.Provider == "disk" && strings.HasPrefix(cfg.Blob.PublicBaseURL, "/") && cfg.Blob.UploadDir != "" {
		router.Static(cfg.Blob.PublicBaseURL, cfg.Blob.UploadDir)
	}

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", health)

		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/send-otp", authHandler.SendOTP)
			authGroup.POST("/verify-otp", authHandler.VerifyOTP)
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", auth, authHandler.Me)
		}

		articles := apiGroup.Group("/articles")
		{
			articles.GET("", articleHandler.ListFeed)
			articles.GET("/mine", auth, articleHandler.ListMine)
			articles.GET("/:id", optionalAuth(services.Identity), articleHandler.GetArticle)
			articles.POST("", auth, limitBody(maxBody), articleHandler.CreateArticle)
			articles.PUT("/:id", auth, limitBody(maxBody), articleHandler.UpdateArticle)
			articles.DELETE("/:id", auth, articleHandler.DeleteArticle)
		}

		bookmarks := apiGroup.Group("/bookmarks", auth)
		{
			bookmarks.POST("", bookmarkHandler.AddBookmark)
			bookmarks.GET("", bookmarkHandler.ListBookmarks)
			bookmarks.DELETE("/:articleId", bookmarkHandler.RemoveBookmark)
		}

		admin := apiGroup.Group("/admin", auth, requireAdmin(services.Identity, log))
		{
			admin.POST("/refresh-gnews", adminHandler.RefreshFeed)
			admin.GET("/feed-status", adminHandler.FeedStatus)
			admin.GET("/user-emails", adminHandler.ListUserEmails)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || path == "/api" {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "API endpoint not found", "path": path})
			return
		}
		c.JSON(http.StatusNotFound, errorBody("Not found"))
	})

	return router
}

// healthCheck returns the health status
func healthCheck(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := contextWithTimeout(c, 2*time.Second)
		defer cancel()

		status, database, code := "healthy", "connected", http.StatusOK
		if err := services.Health.Check(ctx); err != nil {
			status, database, code = "unhealthy", "unreachable", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"database":  database,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   logger.ServiceName,
		})
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
