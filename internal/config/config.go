package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	BotToken    string
	BotPassword string
	API         APIConfig
	Database    DatabaseConfig
	Capture     CaptureConfig
	Cards       CardsConfig
	Timezone    string
}

// APIConfig holds HTTP front-end settings
type APIConfig struct {
	Token        string
	UserID       int64
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// CaptureConfig holds selection extraction settings
type CaptureConfig struct {
	ContextWindow        int
	MaxSelectionLength   int
	TranslationCacheSize int
	// Bot sessions idle for longer are dropped with their page snapshot
	SessionIdleTimeout time.Duration
}

// CardsConfig holds defaults for created flashcards
type CardsConfig struct {
	SentenceDeck string
	VocabDeck    string
	LanguageTag  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		BotPassword: os.Getenv("BOT_PASSWORD"),
		API: APIConfig{
			Token: os.Getenv("API_TOKEN"),
			Addr:  getEnv("HTTP_ADDR", ":8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "glossari"),
			User:     getEnv("DB_USER", "glossari"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Cards: CardsConfig{
			SentenceDeck: getEnv("SENTENCE_DECK", "Languages::French::n+1"),
			VocabDeck:    getEnv("VOCAB_DECK", "Languages::French::n+1"),
			LanguageTag:  getEnv("LANGUAGE_TAG", "français"),
		},
		Timezone: getEnv("TIMEZONE", "UTC"),
	}

	var err error
	if cfg.Capture.ContextWindow, err = getEnvInt("CONTEXT_WINDOW", 1); err != nil {
		return nil, err
	}
	if cfg.Capture.MaxSelectionLength, err = getEnvInt("MAX_SELECTION_LENGTH", 1000); err != nil {
		return nil, err
	}
	if cfg.Capture.TranslationCacheSize, err = getEnvInt("TRANSLATION_CACHE_SIZE", 1); err != nil {
		return nil, err
	}
	if cfg.Capture.SessionIdleTimeout, err = getEnvDuration("SESSION_IDLE_TIMEOUT", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.API.ReadTimeout, err = getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.API.WriteTimeout, err = getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if v := os.Getenv("API_USER_ID"); v != "" {
		if cfg.API.UserID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("API_USER_ID must be an integer: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sessions are pruned every quarter of the idle timeout
const minSessionIdleTimeout = time.Minute

func (c *Config) validate() error {
	if c.BotToken == "" && c.API.Token == "" {
		return errors.New("BOT_TOKEN or API_TOKEN is required")
	}
	if c.BotToken != "" && c.BotPassword == "" {
		return errors.New("BOT_PASSWORD is required when BOT_TOKEN is set")
	}
	if c.API.Token != "" && c.API.UserID == 0 {
		return errors.New("API_USER_ID is required when API_TOKEN is set")
	}
	if c.Database.Password == "" {
		return errors.New("DB_PASSWORD is required")
	}
	if c.Capture.MaxSelectionLength <= 0 {
		return errors.New("MAX_SELECTION_LENGTH must be positive")
	}
	if c.Capture.ContextWindow < 0 {
		return errors.New("CONTEXT_WINDOW must not be negative")
	}
	if c.Capture.SessionIdleTimeout < minSessionIdleTimeout {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be at least %s", minSessionIdleTimeout)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// BotEnabled reports whether the Telegram front-end is configured
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}

// APIEnabled reports whether the HTTP front-end is configured
func (c *Config) APIEnabled() bool {
	return c.API.Token != ""
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

// getEnvInt reads a non-negative integer
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
