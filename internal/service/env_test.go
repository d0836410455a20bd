package service_test

import (
	"testing"
	"time"

	"github.com/news-aggregator-api/internal/clock"
	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/mocks"
	"github.com/news-aggregator-api/internal/otp"
	"github.com/news-aggregator-api/internal/service"
	"github.com/rs/zerolog"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	cfg       *config.Config
	clock     *clock.FakeClock
	otp       *otp.Store
	users     *mocks.MockUserRepository
	emails    *mocks.MockUserEmailRepository
	articles  *mocks.MockArticleRepository
	bookmarks *mocks.MockBookmarkRepository
	sender    *mocks.MockSender
	blobs     *mocks.MockBlobStore
	headlines *mocks.MockHeadlines
	svc       *service.Services
}

type envOption func(*testEnv)

// withHeadlines wires a headline provider into the feed cache
func withHeadlines(h *mocks.MockHeadlines) envOption {
	return func(e *testEnv) { e.headlines = h }
}

func withConfig(fn func(*config.Config)) envOption {
	return func(e *testEnv) { fn(e.cfg) }
}

func testConfig() *config.Config {
	return &config.Config{
		Env: "test",
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret",
			TokenTTL:          7 * 24 * time.Hour,
			OTPTTL:            5 * time.Minute,
			SweepInterval:     5 * time.Minute,
			AdminEmails:       []string{"admin@example.com"},
			RateLimitAttempts: 5,
			RateLimitWindow:   15 * time.Minute,
		},
		Email:     config.EmailConfig{Provider: "log", Timeout: time.Second},
		Blob:      config.BlobConfig{Provider: "disk", MaxUploadSize: 1 << 20},
		Headlines: config.HeadlinesConfig{Provider: "static", FreshnessWindow: 30 * time.Minute, Timeout: time.Second},
		Feed:      config.FeedConfig{MaxItems: 30},
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	repos, users, emails, articles, bookmarks := mocks.NewRepositories()
	env := &testEnv{
		cfg:       testConfig(),
		clock:     clock.Fake(baseTime),
		users:     users,
		emails:    emails,
		articles:  articles,
		bookmarks: bookmarks,
		sender:    mocks.NewMockSender(),
		blobs:     mocks.NewMockBlobStore(),
	}
	for _, opt := range opts {
		opt(env)
	}

	log := zerolog.Nop()
	env.otp = otp.NewStore(env.cfg.Auth.OTPTTL, env.clock, log)

	deps := service.Dependencies{
		Clock: env.clock,
		OTP:   env.otp,
		Email: env.sender,
		Blob:  env.blobs,
	}
	if env.headlines != nil {
		deps.Headlines = env.headlines
	}

	env.svc = service.NewServices(repos, deps, env.cfg, log)
	return env
}

func strPtr(s string) *string { return &s }
