package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	MetricsPort string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env       string
	JWTSecret string
}

// RedisConfig holds the event fan-out settings. An empty Addr disables
// publishing entirely.
type RedisConfig struct {
	Addr         string
	EventChannel string
}

// LedgerConfig holds ledger tuning knobs
type LedgerConfig struct {
	// LockTimeout bounds how long a workflow waits on a session row lock,
	// as a Postgres duration string.
	LockTimeout string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "bankroll_terminal"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			MetricsPort: getEnv("METRICS_PORT", "9095"),
		},
		App: AppConfig{
			Env:       getEnv("ENV", "local"),
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", ""),
			EventChannel: getEnv("REDIS_EVENT_CHANNEL", "ledger_events"),
		},
		Ledger: LedgerConfig{
			LockTimeout: getEnv("LEDGER_LOCK_TIMEOUT", "3s"),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string. lock_timeout bounds every
// row-lock wait so a contended session surfaces a retryable error instead of
// blocking indefinitely.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable options='-c lock_timeout=%s'",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Ledger.LockTimeout,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
