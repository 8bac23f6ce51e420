package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	BotToken     string
	SessionStore string
	Database     DatabaseConfig
	Redis        RedisConfig
	Speech       SpeechConfig

	// AudioDir is the scratch directory for narration files, empty means OS temp dir
	AudioDir         string
	MaxUploadBytes   int64
	SessionRetention time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SpeechConfig holds text-to-speech settings
type SpeechConfig struct {
	APIKey   string
	Model    string
	Voice    string
	Speed    float64
	Language string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	speed, err := getEnvFloat("TTS_SPEED", 1.0)
	if err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", 1<<20)
	if err != nil {
		return nil, err
	}
	retentionDays, err := getEnvInt("SESSION_RETENTION_DAYS", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		SessionStore: getEnv("SESSION_STORE", StorePostgres),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "flashquiz"),
			User:     getEnv("DB_USER", "flashquiz"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Speech: SpeechConfig{
			APIKey:   os.Getenv("OPENAI_API_KEY"),
			Model:    getEnv("TTS_MODEL", "gpt-4o-mini-tts"),
			Voice:    getEnv("TTS_VOICE", "alloy"),
			Speed:    speed,
			Language: getEnv("TTS_LANGUAGE", "en"),
		},
		AudioDir:         os.Getenv("AUDIO_TEMP_DIR"),
		MaxUploadBytes:   int64(maxUpload),
		SessionRetention: time.Duration(retentionDays) * 24 * time.Hour,
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	switch cfg.SessionStore {
	case StorePostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required")
		}
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required")
		}
	default:
		return nil, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", StorePostgres, StoreRedis, cfg.SessionStore)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if retentionDays <= 0 {
		return nil, fmt.Errorf("SESSION_RETENTION_DAYS must be positive")
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
