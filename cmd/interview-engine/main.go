package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/interview-engine/internal/ai/gemini"
	"github.com/terra-clan/interview-engine/internal/api"
	"github.com/terra-clan/interview-engine/internal/candidates"
	"github.com/terra-clan/interview-engine/internal/catalog"
	"github.com/terra-clan/interview-engine/internal/cleanup"
	"github.com/terra-clan/interview-engine/internal/config"
	"github.com/terra-clan/interview-engine/internal/drafts"
	"github.com/terra-clan/interview-engine/internal/gateway"
	"github.com/terra-clan/interview-engine/internal/health"
	"github.com/terra-clan/interview-engine/internal/mailer"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/orchestrator"
	"github.com/terra-clan/interview-engine/internal/provisioning"
	"github.com/terra-clan/interview-engine/internal/sessions"
	"github.com/terra-clan/interview-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("interview-engine failed", "error", err)
		os.Exit(1)
	}

	slog.Info("interview-engine stopped")
}

func run(cfg *config.Config) error {
	slog.Info("starting interview-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	checks := health.NewRegistry()
	defer func() {
		if err := checks.Close(); err != nil {
			slog.Warn("failed to close health checkers", "error", err)
		}
	}()

	repo, err := openRepository(initCtx, cfg, checks)
	if err != nil {
		return err
	}
	defer repo.Close()

	draftStore, err := openDraftStore(initCtx, cfg, checks)
	if err != nil {
		return err
	}
	if closer, ok := draftStore.(io.Closer); ok {
		defer closer.Close()
	}

	cat, err := catalog.LoadOrDefault(cfg.Catalog.File)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	llm, err := gemini.NewGenerator(initCtx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	slog.Info("question generator ready", "model", llm.Model())

	sender, err := newSender(cfg.SMTP)
	if err != nil {
		return err
	}

	ledger := storage.NewLedger(repo)
	sessionService := sessions.NewService(repo)

	service := provisioning.NewService(provisioning.Deps{
		Catalog:      cat,
		Drafts:       draftStore,
		Orchestrator: orchestrator.New(ledger, gemini.NewQuestionGenerator(llm)),
		Gateway:      gateway.New(repo),
		Candidates:   candidates.NewPool(repo, cfg.Candidates.CacheTTL),
		Issuer:       sessions.NewIssuer(repo, sender, cfg.Server.PublicOrigin),
		Sessions:     sessionService,
		Interviews:   repo,
		Credits:      ledger,
	})

	server := api.NewServer(cfg.Server, service, sessionService, checks, repo)
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		// Question generation responses and progress streams can run for minutes
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cleanup.NewCleaner(repo, cfg.Cleanup.Interval).Run(gCtx)
		return nil
	})

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

// openRepository connects to PostgreSQL and migrates it, or falls back to memory when no DSN is set
func openRepository(ctx context.Context, cfg *config.Config, checks *health.Registry) (storage.Repository, error) {
	if cfg.Database.DSN == "" {
		slog.Warn("DATABASE_DSN not set, using in-memory repository")
		repo := storage.NewMemoryRepository()
		checks.Register("database", health.NewCheckFunc("memory", repo.Ping))

		if cfg.Dev.APIKey != "" {
			repo.AddClient(&models.ApiClient{
				Name:        "dev",
				OwnerID:     cfg.Dev.OwnerID,
				ApiKey:      cfg.Dev.APIKey,
				IsActive:    true,
				CreatedAt:   time.Now().UTC(),
				Permissions: []string{"*"},
			})
			if _, err := storage.NewLedger(repo).Grant(ctx, cfg.Dev.OwnerID, cfg.Dev.Credits, "development credits"); err != nil {
				return nil, fmt.Errorf("failed to seed development credits: %w", err)
			}
			slog.Info("development operator seeded", "owner", cfg.Dev.OwnerID, "credits", cfg.Dev.Credits)
		}
		return repo, nil
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database repository: %w", err)
	}
	slog.Info("database connected successfully")

	slog.Info("running database migrations")
	if err := storage.RunMigrations(ctx, repo.Pool()); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dbCheck, err := health.NewPostgresChecker(cfg.Database.DSN)
	if err != nil {
		repo.Close()
		return nil, err
	}
	checks.Register("database", dbCheck)

	return repo, nil
}

// openDraftStore connects to Redis, or keeps drafts in memory when no address is set
func openDraftStore(ctx context.Context, cfg *config.Config, checks *health.Registry) (drafts.Store, error) {
	if cfg.Redis.Address == "" {
		slog.Warn("REDIS_ADDRESS not set, drafts are kept in memory")
		store := drafts.NewMemoryStore()
		checks.Register("drafts", health.NewCheckFunc("memory", store.Ping))
		return store, nil
	}

	store, err := drafts.NewRedisStore(ctx, drafts.RedisConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.DraftTTL,
	})
	if err != nil {
		return nil, err
	}
	checks.Register("drafts", health.NewRedisChecker(store.Client()))
	slog.Info("draft cache connected", "address", cfg.Redis.Address)

	return store, nil
}

func newSender(cfg config.SMTPConfig) (mailer.Sender, error) {
	if cfg.Host == "" {
		slog.Warn("SMTP_HOST not set, invitations will only be logged")
		return mailer.LogSender{}, nil
	}

	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp sender: %w", err)
	}
	return sender, nil
}
