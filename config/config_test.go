package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://folio@localhost/folio?sslmode=disable")
	t.Setenv("APP_ENV", "development")
	t.Setenv("OAUTH_SIGNING_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 60, cfg.MCP.RateLimit)
	assert.Equal(t, time.Minute, cfg.MCP.RateWindow)
	assert.Equal(t, 2*time.Minute, cfg.OAuth.CodeTTL)
	assert.Equal(t, 30, cfg.Maintenance.RetentionDays)
	assert.NotEmpty(t, cfg.OAuth.SigningKey, "development falls back to a built-in key")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://folio@localhost/folio")
	t.Setenv("PORT", "9090")
	t.Setenv("MCP_RATE_LIMIT", "5")
	t.Setenv("MCP_RATE_WINDOW", "10s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("OAUTH_ISSUER", "https://api.example.com/")
	t.Setenv("OAUTH_SIGNING_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5, cfg.MCP.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.MCP.RateWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "https://api.example.com", cfg.OAuth.Issuer)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:      ServerConfig{Port: "8080"},
			Database:    DatabaseConfig{DSN: "postgres://x"},
			Redis:       RedisConfig{Addr: "localhost:6379"},
			OAuth:       OAuthConfig{Issuer: "https://api.example.com", SigningKey: "0123456789abcdef0123456789abcdef"},
			MCP:         MCPConfig{RateLimit: 60, RateWindow: time.Minute},
			Maintenance: MaintenanceConfig{RetentionDays: 30},
			App:         AppConfig{Environment: "production"},
		}
	}

	require.NoError(t, valid().Validate())

	t.Run("requires DSN", func(t *testing.T) {
		c := valid()
		c.Database.DSN = ""
		assert.Error(t, c.Validate())
	})

	t.Run("requires signing key in production", func(t *testing.T) {
		c := valid()
		c.OAuth.SigningKey = "short"
		assert.Error(t, c.Validate())
	})

	t.Run("rejects non-positive rate limit", func(t *testing.T) {
		c := valid()
		c.MCP.RateLimit = 0
		assert.Error(t, c.Validate())
	})

	t.Run("rejects invalid issuer", func(t *testing.T) {
		c := valid()
		c.OAuth.Issuer = "not a url"
		assert.Error(t, c.Validate())
	})
}
