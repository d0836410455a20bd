package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/news-aggregator-api/internal/api"
	"github.com/news-aggregator-api/internal/clock"
	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/database"
	"github.com/news-aggregator-api/internal/otp"
	"github.com/news-aggregator-api/internal/provider/blob"
	"github.com/news-aggregator-api/internal/provider/email"
	"github.com/news-aggregator-api/internal/provider/headlines"
	"github.com/news-aggregator-api/internal/ratelimit"
	"github.com/news-aggregator-api/internal/repository"
	"github.com/news-aggregator-api/internal/service"
	"github.com/news-aggregator-api/pkg/logger"
)

// options are command-line flags. Everything else comes from the environment.
type options struct {
	EnvFile        string `long:"env-file" env:"ENV_FILE" default:".env" description:"dotenv file to load before reading the environment"`
	MigrationsPath string `long:"migrations" env:"MIGRATIONS_PATH" description:"read migrations from this directory instead of the embedded set"`
	SkipMigrations bool   `long:"skip-migrations" description:"do not run migrations on startup"`
	Rollback       bool   `long:"rollback" description:"roll back the last migration and exit"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.NewWithWriter(os.Stdout, cfg.Log.Level, cfg.Log.Format, cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("Starting News Aggregator API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if opts.Rollback {
		if err := db.MigrateDown(opts.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migration")
		}
		return
	}

	// Run migrations
	if !opts.SkipMigrations {
		if err := db.RunMigrations(opts.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	// Initialize providers
	sender, err := email.New(&cfg.Email, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email sender")
	}
	store, err := blob.New(&cfg.Blob, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize image storage")
	}
	provider, err := headlines.New(&cfg.Headlines, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize headline provider")
	}

	clk := clock.Real()
	otpStore := otp.NewStore(cfg.Auth.OTPTTL, clk, log)
	limiter := ratelimit.NewLimiter(clk)

	// Initialize repositories and services
	repos := repository.New(db)
	services := service.NewServices(repos, service.Dependencies{
		Clock:     clk,
		OTP:       otpStore,
		Limiter:   limiter,
		Email:     sender,
		Blob:      store,
		Headlines: provider,
		DB:        db,
	}, cfg, log)

	// Start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go otpStore.Run(ctx, cfg.Auth.SweepInterval)
	go limiter.Run(ctx, cfg.Auth.SweepInterval, cfg.Auth.RateLimitWindow)
	if provider != nil && cfg.Headlines.RefreshInterval > 0 {
		go services.Feed.Run(ctx, cfg.Headlines.RefreshInterval)
		log.Info().Dur("interval", cfg.Headlines.RefreshInterval).Msg("Background feed refresher started")
	}

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
