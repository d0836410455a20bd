package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/news-aggregator-api/internal/clock"
	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/models"
	"github.com/news-aggregator-api/internal/otp"
	"github.com/news-aggregator-api/internal/provider/email"
	"github.com/news-aggregator-api/internal/ratelimit"
	"github.com/news-aggregator-api/internal/repository"
	"github.com/news-aggregator-api/internal/token"
	"github.com/news-aggregator-api/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes
const BcryptCost = 10

// LoginChallenge describes an issued OTP. DevCode is set only when email
// dispatch failed and the code may be surfaced directly.
type LoginChallenge struct {
	Email     string
	ExpiresAt time.Time
	DevCode   string
}

// LoginResult is returned by every successful authentication path
type LoginResult struct {
	User      *models.User
	Token     string
	IsNewUser bool
}

// identityService is the concrete implementation of IdentityService
type identityService struct {
	users      repository.UserRepository
	userEmails repository.UserEmailRepository
	otp        *otp.Store
	tokens     *token.Manager
	limiter    *ratelimit.Limiter
	sender     email.Sender
	validator  *validation.Validator
	clock      clock.Clock
	auth       config.AuthConfig
	emailCfg   config.EmailConfig
	production bool
	log        zerolog.Logger
}

func newIdentityService(repos *repository.Repositories, deps Dependencies, validator *validation.Validator, cfg *config.Config, log zerolog.Logger) *identityService {
	return &identityService{
		users:      repos.User,
		userEmails: repos.UserEmail,
		otp:        deps.OTP,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		sender:     deps.Email,
		validator:  validator,
		clock:      deps.Clock,
		auth:       cfg.Auth,
		emailCfg:   cfg.Email,
		production: cfg.IsProduction(),
		log:        log.With().Str("service", "identity").Logger(),
	}
}

// RequestLogin issues a code for email and dispatches it
func (s *identityService) RequestLogin(ctx context.Context, rawEmail string) (*LoginChallenge, error) {
	addr := otp.Normalize(rawEmail)
	if len(s.validator.ValidateEmail(addr)) > 0 {
		return nil, ErrInvalidEmail
	}

	if !s.limiter.Allow("otp:"+addr, s.auth.RateLimitAttempts, s.auth.RateLimitWindow) {
		s.log.Warn().Str("email", addr).Msg("OTP request rate limited")
		return nil, ErrRateLimited
	}

	code, expiresAt, err := s.otp.Issue(addr)
	if err != nil {
		return nil, fmt.Errorf("issue code: %w", err)
	}

	challenge := &LoginChallenge{Email: addr, ExpiresAt: expiresAt}

	sendCtx, cancel := context.WithTimeout(ctx, s.emailTimeout())
	defer cancel()

	if err := s.sender.SendCode(sendCtx, addr, code, s.auth.OTPTTL); err != nil {
		s.log.Error().Err(err).Str("email", addr).Msg("Failed to dispatch login code")
		if s.auth.ExposeCodeOnDispatchFailure && !s.production {
			challenge.DevCode = code
			return challenge, nil
		}
		return nil, ErrDispatchFailed
	}

	s.log.Info().Str("email", addr).Msg("Login code issued")
	return challenge, nil
}

// CompleteLogin verifies a code and resolves the user
func (s *identityService) CompleteLogin(ctx context.Context, rawEmail, code, device string) (*LoginResult, error) {
	addr := otp.Normalize(rawEmail)
	if len(s.validator.ValidateEmail(addr)) > 0 {
		return nil, ErrInvalidEmail
	}

	verifyKey := "verify:" + addr
	if !s.limiter.Allow(verifyKey, s.auth.RateLimitAttempts, s.auth.RateLimitWindow) {
		s.log.Warn().Str("email", addr).Msg("OTP verification rate limited")
		return nil, ErrRateLimited
	}

	switch s.otp.Verify(addr, code) {
	case otp.ResultAbsent:
		return nil, ErrOTPNotRequested
	case otp.ResultExpired:
		return nil, ErrOTPExpired
	case otp.ResultMismatch:
		return nil, ErrOTPMismatch
	}
	s.limiter.Reset(verifyKey)

	user, created, err := s.findOrCreateUser(ctx, addr)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.userEmails.Upsert(ctx, &models.UserEmail{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Email:     addr,
		Device:    truncateDevice(device),
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		s.log.Error().Err(err).Str("email", addr).Msg("Failed to record login device")
	}

	tok, err := s.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Bool("new_user", created).Msg("OTP login completed")
	return &LoginResult{User: user, Token: tok, IsNewUser: created}, nil
}

// findOrCreateUser resolves the user for addr, creating one on first login.
// A lost insert race resolves to the winner's row.
func (s *identityService) findOrCreateUser(ctx context.Context, addr string) (*models.User, bool, error) {
	user, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}
	if user != nil {
		return user, false, nil
	}

	hash, err := randomPasswordHash()
	if err != nil {
		return nil, false, err
	}

	now := s.clock.Now()
	user = &models.User{
		ID:           uuid.New().String(),
		Email:        addr,
		Name:         nameFromEmail(addr),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, false, fmt.Errorf("create user: %w", err)
		}
		existing, err := s.users.GetByEmail(ctx, addr)
		if err != nil {
			return nil, false, fmt.Errorf("lookup user: %w", err)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
		return existing, false, nil
	}

	return user, true, nil
}

// Register creates a password account
func (s *identityService) Register(ctx context.Context, name, rawEmail, password string) (*LoginResult, error) {
	if errs := s.validator.ValidateRegistration(name, rawEmail, password); len(errs) > 0 {
		return nil, invalid(errs)
	}
	addr := otp.Normalize(rawEmail)

	existing, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        addr,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	tok, err := s.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("User registered")
	return &LoginResult{User: user, Token: tok, IsNewUser: true}, nil
}

// Login checks a password
func (s *identityService) Login(ctx context.Context, rawEmail, password string) (*LoginResult, error) {
	addr := otp.Normalize(rawEmail)
	if addr == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if !s.limiter.Allow("login:"+addr, s.auth.RateLimitAttempts, s.auth.RateLimitWindow) {
		return nil, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.limiter.Reset("login:" + addr)

	tok, err := s.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: tok}, nil
}

// Authenticate verifies a bearer token
func (s *identityService) Authenticate(rawToken string) (*token.Claims, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// GetUser returns a user or ErrNotFound
func (s *identityService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if !validation.IsValidUUID(id) {
		return nil, ErrNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// IsAdmin reports whether the user's email is in the admin list
func (s *identityService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.auth.IsAdminEmail(user.Email), nil
}

// ListUserEmails returns the device audit records, newest first
func (s *identityService) ListUserEmails(ctx context.Context) ([]*models.UserEmail, error) {
	entries, err := s.userEmails.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user emails: %w", err)
	}
	return entries, nil
}

func (s *identityService) emailTimeout() time.Duration {
	if s.emailCfg.Timeout > 0 {
		return s.emailCfg.Timeout
	}
	return 15 * time.Second
}

// nameFromEmail derives a display name from the local part
func nameFromEmail(addr string) string {
	local, _, _ := strings.Cut(addr, "@")
	if local == "" {
		return "user"
	}
	return local
}

// randomPasswordHash hashes a random secret nobody knows
func randomPasswordHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(buf)), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func truncateDevice(device string) string {
	device = strings.TrimSpace(device)
	if len(device) > 512 {
		return device[:512]
	}
	return device
}
