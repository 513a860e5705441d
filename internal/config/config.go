package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gateway  GatewayConfig
	Events   EventsConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// GatewayConfig holds IPG terminal configuration
type GatewayConfig struct {
	BaseURL         string // Gateway base URL (e.g. https://ipg.bank.example/txn)
	TerminalID      string // Tranportal id assigned by the bank
	Password        string // Tranportal password
	Secret          string // Terminal resource key used for message verifiers
	Timeout         time.Duration
	DefaultLanguage string
	ThreeDSEnabled  bool
	// StaleAfter bounds how long an order waits for a gateway result
	// before the expiry sweep cancels it.
	StaleAfter time.Duration
}

// EventsConfig holds RabbitMQ configuration; URL empty disables publishing
type EventsConfig struct {
	URL string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "ipg_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Gateway: GatewayConfig{
			BaseURL:         getEnv("IPG_BASE_URL", ""),
			TerminalID:      getEnv("IPG_TERMINAL_ID", ""),
			Password:        getEnv("IPG_PASSWORD", ""),
			Secret:          getEnv("IPG_SECRET", ""),
			Timeout:         getEnvAsDuration("IPG_TIMEOUT", 30*time.Second),
			DefaultLanguage: getEnv("IPG_DEFAULT_LANGUAGE", "en"),
			ThreeDSEnabled:  getEnvAsBool("IPG_3DS_ENABLED", true),
			StaleAfter:      getEnvAsDuration("IPG_STALE_AFTER", 30*time.Minute),
		},
		Events: EventsConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Gateway.BaseURL == "" {
		return nil, fmt.Errorf("IPG_BASE_URL is required")
	}
	if cfg.Gateway.TerminalID == "" {
		return nil, fmt.Errorf("IPG_TERMINAL_ID is required")
	}
	if cfg.Gateway.Password == "" {
		return nil, fmt.Errorf("IPG_PASSWORD is required")
	}
	if cfg.Gateway.Secret == "" {
		return nil, fmt.Errorf("IPG_SECRET is required")
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
