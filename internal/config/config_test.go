package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/escrow?sslmode=disable")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, "postgres://u:p@db:5432/escrow?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, int64(200), cfg.MinWithdrawalCoins)
	assert.Equal(t, int64(20), cfg.CoinsPerCurrencyUnit)
	assert.Equal(t, int64(50), cfg.BuyerSignupBonus)
	assert.Equal(t, int64(10), cfg.WorkerSignupBonus)
	assert.Equal(t, time.Minute, cfg.RateLimitPeriod)
	assert.Equal(t, "0 */5 * * * *", cfg.AuditSchedule)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.CheckoutSecret)
	assert.Len(t, cfg.AllowedOrigins, 2)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_PlatformDatabaseVariables(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "pg")
	t.Setenv("POSTGRESQL_USER", "escrow")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "coins")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://escrow:p%40ss@pg:5432/coins?sslmode=disable", cfg.DatabaseURL)
}

func TestFromEnv_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("CHECKOUT_SECRET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://tasks.example.com")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "CHECKOUT_SECRET")

	t.Setenv("CHECKOUT_SECRET", "fedcba9876543210fedcba9876543210")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://tasks.example.com"}, cfg.AllowedOrigins)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "STORAGE_DRIVER")

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("MIN_WITHDRAWAL_COINS", "two hundred")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "MIN_WITHDRAWAL_COINS")

	t.Setenv("MIN_WITHDRAWAL_COINS", "200")
	t.Setenv("RATE_LIMIT_PERIOD", "soon")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "RATE_LIMIT_PERIOD")
}
