package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Market data sources understood by the snapshot provider factory.
const (
	SourceFile     = "file"
	SourceRolimons = "rolimons"
	SourcePostgres = "postgres"
)

// Config holds all configuration for the application
// SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig
	Redis    RedisConfig
	Market   MarketConfig
	Discord  DiscordConfig

	// Strategy YAML (profile, combination search, forecaster, alerts)
	StrategyFile string

	// Cron expression with seconds field, empty disables the scheduler
	ScanSchedule string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	ScanTTL  time.Duration
}

// MarketConfig selects where item snapshots come from
type MarketConfig struct {
	Source          string
	File            string
	RolimonsBaseURL string
	RolimonsRPS     float64
}

// DiscordConfig holds the alert webhook settings
type DiscordConfig struct {
	WebhookURL string
	RoleID     string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			ScanTTL:  getEnvAsDuration("REDIS_SCAN_TTL", "24h"),
		},

		Market: MarketConfig{
			Source:          getEnv("MARKET_SOURCE", SourceFile),
			File:            getEnv("MARKET_FILE", "data/items.json"),
			RolimonsBaseURL: getEnv("ROLIMONS_BASE_URL", "https://api.rolimons.com"),
			RolimonsRPS:     getEnvAsFloat("ROLIMONS_RPS", 1.0),
		},

		Discord: DiscordConfig{
			WebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
			RoleID:     getEnv("DISCORD_ROLE_ID", ""),
		},

		StrategyFile: getEnv("STRATEGY_FILE", ""),
		ScanSchedule: getEnv("SCAN_SCHEDULE", "0 */5 * * * *"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Market.Source {
	case SourceFile:
		if c.Market.File == "" {
			return fmt.Errorf("MARKET_FILE is required when MARKET_SOURCE=file")
		}
	case SourceRolimons:
		if c.Market.RolimonsRPS <= 0 {
			return fmt.Errorf("ROLIMONS_RPS must be > 0")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when MARKET_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("MARKET_SOURCE must be one of: file, rolimons, postgres")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
