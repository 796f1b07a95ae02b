package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("ELIGIBLE_LENDERS", "")

	cfg := New()

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.EnableRateLimit)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"SoFi", "Earnest", "Laurel Road"}, cfg.GetEligibleLenders())
	assert.False(t, cfg.UsesHostedIdentity())
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("ENABLE_RATE_LIMIT", "false")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ELIGIBLE_LENDERS", " ELFI ,Splash Financial,")
	t.Setenv("IDENTITY_API_KEY", "key")

	cfg := New()

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.EnableRateLimit)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetAllowedOrigins())
	assert.Equal(t, []string{"ELFI", "Splash Financial"}, cfg.GetEligibleLenders())
	assert.True(t, cfg.UsesHostedIdentity())
}

func TestValidate(t *testing.T) {
	t.Run("development gets a default secret", func(t *testing.T) {
		cfg := &Config{Environment: "development", DatabaseURL: "postgres://x"}
		require.NoError(t, cfg.Validate())
		assert.NotEmpty(t, cfg.JWTSecret)
	})

	t.Run("production requires a secret", func(t *testing.T) {
		cfg := &Config{Environment: "production", DatabaseURL: "postgres://x"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("needs an account backend", func(t *testing.T) {
		cfg := &Config{Environment: "production", JWTSecret: "s"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("hosted backends need no database", func(t *testing.T) {
		cfg := &Config{
			Environment:      "production",
			JWTSecret:        "s",
			IdentityAPIKey:   "k",
			DocumentStoreURL: "https://docs.example",
		}
		assert.NoError(t, cfg.Validate())
	})
}
