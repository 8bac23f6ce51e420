package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flashquiz/internal/audio"
	"flashquiz/internal/config"
	"flashquiz/internal/handler"
	"flashquiz/internal/repository"
	"flashquiz/internal/repository/postgres"
	"flashquiz/internal/repository/redis"
	"flashquiz/internal/service"

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

	logger.Info("Starting FlashQuiz Bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully", zap.String("session_store", cfg.SessionStore))

	audioDir, err := audio.PrepareDir(cfg.AudioDir)
	if err != nil {
		logger.Fatal("Failed to prepare audio directory", zap.Error(err))
	}

	// Initialize session storage
	sessionRepo, closeStore := openSessionStore(cfg, logger)
	defer closeStore()

	// Initialize services
	options := service.NewOptionGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))
	quizService := service.NewQuizService(sessionRepo, options, logger)
	cleanupService := service.NewCleanupService(sessionRepo, cfg.SessionRetention, logger)
	narrator := audio.NewNarrator(newSynthesizer(cfg.Speech, logger), audioDir, logger)

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized")

	// Initialize handler
	h := handler.NewHandler(bot, quizService, narrator, logger, cfg.MaxUploadBytes, cfg.Speech.Language)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	// Start cleanup job in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runCleanupJob(ctx, cleanupService, logger)

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()
	cancel()

	logger.Info("Bot stopped gracefully")
}

// openSessionStore connects the configured session backend and returns
// the repository with its close func
func openSessionStore(cfg *config.Config, logger *zap.Logger) (repository.SessionRepository, func()) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rdb, err := redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}

		logger.Info("Redis connection established", zap.String("addr", cfg.Redis.Addr))

		return redis.NewSessionRepo(rdb, cfg.SessionRetention), func() { rdb.Close() }

	default:
		// Connect to database with retries
		db, err := connectDatabase(cfg.DSN(), logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}

		logger.Info("Database connection established")

		// Run migrations
		if err := runMigrations(db, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		logger.Info("Database migrations completed")

		return postgres.NewSessionRepo(db), func() { db.Close() }
	}
}

// newSynthesizer builds the speech backend, or nil when narration is off
func newSynthesizer(cfg config.SpeechConfig, logger *zap.Logger) audio.Synthesizer {
	if cfg.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, audio narration disabled")
		return nil
	}

	speechCfg := audio.DefaultConfig()
	speechCfg.APIKey = cfg.APIKey
	speechCfg.Model = cfg.Model
	speechCfg.Voice = cfg.Voice
	speechCfg.Speed = cfg.Speed

	synth, err := audio.NewOpenAISynthesizer(speechCfg)
	if err != nil {
		logger.Fatal("Failed to create speech synthesizer", zap.Error(err))
	}

	logger.Info("Audio narration enabled",
		zap.String("provider", synth.Name()),
		zap.String("model", speechCfg.Model),
		zap.String("voice", speechCfg.Voice),
	)

	return audio.NewBreakerSynthesizer(synth, speechCfg, logger)
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

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations creates the session table
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
	case err == migrate.ErrNoChange:
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// runCleanupJob drops idle sessions at startup and every 24 hours
func runCleanupJob(ctx context.Context, cleanupService *service.CleanupService, logger *zap.Logger) {
	if err := cleanupService.CleanupStaleSessions(ctx); err != nil {
		logger.Error("Failed to run initial cleanup", zap.Error(err))
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup job stopped")
			return
		case <-ticker.C:
			logger.Info("Running scheduled cleanup")
			if err := cleanupService.CleanupStaleSessions(ctx); err != nil {
				logger.Error("Failed to run scheduled cleanup", zap.Error(err))
			}
		}
	}
}
