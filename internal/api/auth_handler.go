package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/service"
	"github.com/rs/zerolog"
)

// AuthHandler handles login and account endpoints
type AuthHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SendOTP handles POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(service.ErrInvalidEmail.Error()))
		return
	}

	challenge, err := h.services.Identity.RequestLogin(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	body := gin.H{
		"success":   true,
		"message":   "OTP sent successfully",
		"expiresAt": challenge.ExpiresAt,
	}
	if challenge.DevCode != "" {
		body["message"] = "Email delivery failed, use the code below"
		body["devOtp"] = challenge.DevCode
	}
	c.JSON(http.StatusOK, body)
}

// VerifyOTP handles POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Email and OTP required"))
		return
	}

	result, err := h.services.Identity.CompleteLogin(c.Request.Context(), req.Email, req.OTP, c.Request.UserAgent())
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Login successful",
		"token":     result.Token,
		"user":      result.User.Public(),
		"isNewUser": result.IsNewUser,
	})
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("All fields required"))
		return
	}

	result, err := h.services.Identity.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User.Public(),
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Email and password required"))
		return
	}

	result, err := h.services.Identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User.Public(),
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(ctxUserID)

	user, err := h.services.Identity.GetUser(ctx, userID)
	if err != nil {
		respondError(c, h.log, err, "User")
		return
	}
	isAdmin, err := h.services.Identity.IsAdmin(ctx, userID)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user.Public(),
		"isAdmin": isAdmin,
	})
}
