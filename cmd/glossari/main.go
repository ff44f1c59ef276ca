package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glossari/internal/api"
	"glossari/internal/config"
	"glossari/internal/extractor"
	"glossari/internal/handler"
	"glossari/internal/page"
	"glossari/internal/repository/postgres"
	"glossari/internal/service"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Glossari")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully",
		zap.Bool("bot", cfg.BotEnabled()),
		zap.Bool("api", cfg.APIEnabled()),
	)

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Database migrations completed")

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	deckRepo := postgres.NewDeckRepo(db)
	cardRepo := postgres.NewCardRepo(db, cfg.Timezone)

	// Initialize services
	ex := extractor.New(extractor.Options{
		ContextWindow:      cfg.Capture.ContextWindow,
		MaxSelectionLength: cfg.Capture.MaxSelectionLength,
	}, logger)
	extractionService := service.NewExtractionService(ex, logger)

	// No translation or explanation backend is bundled; the bot falls back
	// to manual translation entry.
	translationService, err := service.NewTranslationService(nil, nil, cfg.Capture.TranslationCacheSize, logger)
	if err != nil {
		logger.Fatal("Failed to create translation service", zap.Error(err))
	}

	authService := service.NewAuthService(userRepo, cfg.BotPassword, cfg.API.Token)
	cardService := service.NewCardService(deckRepo, cardRepo, service.CardSettings{
		SentenceDeck: cfg.Cards.SentenceDeck,
		VocabDeck:    cfg.Cards.VocabDeck,
		LanguageTag:  cfg.Cards.LanguageTag,
	}, logger)
	statsService := service.NewStatsService(deckRepo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telegram front-end
	var bot *tele.Bot
	if cfg.BotEnabled() {
		bot, err = tele.NewBot(tele.Settings{
			Token:  cfg.BotToken,
			Poller: &tele.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c tele.Context) {
				logger.Error("Bot handler failed", zap.Error(err))
			},
		})
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}

		logger.Info("Telegram bot initialized")

		h := handler.NewHandler(
			bot,
			authService,
			extractionService,
			translationService,
			cardService,
			statsService,
			page.NewFetcher(logger),
			logger,
		)
		h.RegisterHandlers()

		logger.Info("Handlers registered")

		// Start session cleanup job in background
		go runCleanupJob(ctx, h, cfg.Capture.SessionIdleTimeout, logger)

		// Start bot in background
		go func() {
			logger.Info("Bot started successfully")
			bot.Start()
		}()
	}

	// HTTP front-end
	var srv *http.Server
	if cfg.APIEnabled() {
		if err := authService.EnsureUserExists(cfg.API.UserID); err != nil {
			logger.Fatal("Failed to register API user", zap.Error(err))
		}

		apiServer := api.NewServer(
			extractionService,
			translationService,
			cardService,
			authService,
			cfg.API.UserID,
			logger,
		)
		srv = &http.Server{
			Addr:         cfg.API.Addr,
			Handler:      apiServer.Routes(),
			ReadTimeout:  cfg.API.ReadTimeout,
			WriteTimeout: cfg.API.WriteTimeout,
		}

		go func() {
			logger.Info("HTTP server started", zap.String("addr", cfg.API.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("HTTP server failed", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping...")

	// Graceful shutdown
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown failed", zap.Error(err))
		}
		shutdownCancel()
	}
	if bot != nil {
		bot.Stop()
	}
	cancel()

	logger.Info("Stopped gracefully")
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// runCleanupJob periodically drops idle bot sessions
func runCleanupJob(ctx context.Context, h *handler.Handler, maxIdle time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup job stopped")
			return
		case <-ticker.C:
			h.PruneSessions(maxIdle)
		}
	}
}
