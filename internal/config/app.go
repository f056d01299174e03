package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"wellmind/internal/logger"

	"github.com/sirupsen/logrus"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Keystore  KeystoreConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection configuration.
// The user repository falls back to the in-memory store when Enabled is false.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// LLMConfig holds the OpenRouter completion endpoint configuration
type LLMConfig struct {
	APIKey      string
	Referer     string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// AuthConfig holds authentication configuration for the HTTP API
type AuthConfig struct {
	JWTSecret       []byte
	TokenExpiration time.Duration
}

// RateLimitConfig bounds outbound AI calls per rolling window
type RateLimitConfig struct {
	MaxCalls int
	Window   time.Duration
}

// KeystoreConfig holds credential store configuration.
// An empty Path selects the in-memory store.
type KeystoreConfig struct {
	Path string
}

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	config := &AppConfig{}

	config.Server = ServerConfig{
		Port: getEnvOrDefault("SERVER_PORT", "8080"),
	}

	config.Database = DatabaseConfig{
		Enabled:  getEnvAsBool("DB_ENABLED", false),
		Host:     getEnvOrDefault("DB_HOST", "postgres"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:     getEnvOrDefault("DB_NAME", "wellmind"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	// Missing AI credentials are not fatal: every AI call fails with a
	// credentials error while the rest of the app keeps working.
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		logger.Log.Warn("OPENROUTER_API_KEY environment variable not set")
	}

	config.LLM = LLMConfig{
		APIKey:      apiKey,
		Referer:     getEnvOrDefault("APP_REFERER", ""),
		BaseURL:     getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:       getEnvOrDefault("OPENROUTER_MODEL", "openai/gpt-3.5-turbo"),
		Temperature: getEnvAsFloat("OPENROUTER_TEMPERATURE", 0.7),
		MaxTokens:   getEnvAsInt("OPENROUTER_MAX_TOKENS", 300),
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be set")
	}
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters (current length: %d)", len(jwtSecret))
	}

	config.Auth = AuthConfig{
		JWTSecret:       []byte(jwtSecret),
		TokenExpiration: getEnvAsDuration("JWT_TOKEN_EXPIRATION", 24*time.Hour),
	}

	config.RateLimit = RateLimitConfig{
		MaxCalls: getEnvAsInt("RATE_LIMIT_MAX_CALLS", 5),
		Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour),
	}

	config.Keystore = KeystoreConfig{
		Path: getEnvOrDefault("KEYSTORE_PATH", ""),
	}

	return config, nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
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
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid float value, using default")
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
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid boolean value, using default")
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
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid duration value, using default")
		return defaultValue
	}
	return value
}
