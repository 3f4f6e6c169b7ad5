package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Firebase    FirebaseConfig
	OAuth       OAuthConfig
	MCP         MCPConfig
	Maintenance MaintenanceConfig
	App         AppConfig
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	DSN      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	CredentialsPath string
}

type OAuthConfig struct {
	// Issuer is the public base URL of this service, e.g. https://api.example.com.
	Issuer         string
	SigningKey     string
	ConsentURL     string
	AccessTokenTTL time.Duration
	RefreshTTL     time.Duration
	CodeTTL        time.Duration
}

type MCPConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

type MaintenanceConfig struct {
	RetentionDays int
	// Schedule is a six-field cron spec; empty disables the in-process scheduler.
	Schedule string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		OAuth: OAuthConfig{
			Issuer:         strings.TrimRight(getEnv("OAUTH_ISSUER", "http://localhost:8080"), "/"),
			SigningKey:     getEnv("OAUTH_SIGNING_KEY", ""),
			ConsentURL:     getEnv("OAUTH_CONSENT_URL", "http://localhost:3000/oauth/consent"),
			AccessTokenTTL: getEnvAsDuration("OAUTH_ACCESS_TOKEN_TTL", time.Hour),
			RefreshTTL:     getEnvAsDuration("OAUTH_REFRESH_TOKEN_TTL", 30*24*time.Hour),
			CodeTTL:        getEnvAsDuration("OAUTH_CODE_TTL", 2*time.Minute),
		},
		MCP: MCPConfig{
			RateLimit:  getEnvAsInt("MCP_RATE_LIMIT", 60),
			RateWindow: getEnvAsDuration("MCP_RATE_WINDOW", time.Minute),
		},
		Maintenance: MaintenanceConfig{
			RetentionDays: getEnvAsInt("PURGE_RETENTION_DAYS", 30),
			Schedule:      getEnv("PURGE_SCHEDULE", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if _, err := url.ParseRequestURI(c.OAuth.Issuer); err != nil {
		return fmt.Errorf("OAUTH_ISSUER is invalid: %w", err)
	}

	if len(c.OAuth.SigningKey) < 32 {
		if c.App.Environment == "production" {
			return fmt.Errorf("OAUTH_SIGNING_KEY must be at least 32 bytes")
		}
		log.Println("Warning: OAUTH_SIGNING_KEY is short or unset, using a development key")
		c.OAuth.SigningKey = "folio-development-signing-key-do-not-use"
	}

	if c.MCP.RateLimit <= 0 {
		return fmt.Errorf("MCP_RATE_LIMIT must be positive")
	}

	if c.MCP.RateWindow <= 0 {
		return fmt.Errorf("MCP_RATE_WINDOW must be positive")
	}

	if c.Maintenance.RetentionDays < 1 {
		return fmt.Errorf("PURGE_RETENTION_DAYS must be at least 1")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

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
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
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
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	out := make([]string, 0, 4)
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
