package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHECKOUT_CURRENCY", "gbp")
	t.Setenv("SITE_BASE_URL", "https://shop.example.com/")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "GBP", cfg.Payment.Currency)
	assert.Equal(t, "https://shop.example.com", cfg.Frontend.SiteBaseURL)
	assert.Equal(t, "/v1/auth/login", cfg.Frontend.LoginURL)
	assert.Equal(t, "./protected_media", cfg.Storage.ProtectedRoot)
	assert.Equal(t, 336, cfg.Redis.CartTTL)
	assert.False(t, cfg.Server.RateLimit)
	assert.False(t, cfg.S3Enabled())
}

func TestValidateProduction(t *testing.T) {
	cfg := &Config{
		Environment: "production",
		JWT:         JWTConfig{SecretKey: "your-secret-key-change-in-production"},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.SecretKey = "rotated"
	assert.Error(t, cfg.Validate())

	cfg.Database.Password = "pw"
	assert.Error(t, cfg.Validate())

	cfg.Payment.StripeSecretKey = "sk_live_x"
	assert.NoError(t, cfg.Validate())

	assert.NoError(t, (&Config{Environment: "development"}).Validate())
}

func TestAddresses(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "store", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=store sslmode=disable", db.DSN())

	redis := RedisConfig{Host: "cache", Port: "6379"}
	assert.Equal(t, "cache:6379", redis.Addr())
}
