package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DYNAMODB_TABLE_NAME", "vendo-test")
	t.Setenv("GATEWAY_TOKEN_SECRET", "test-secret")
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := LoadFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "vendo-test", cfg.DynamoDBTableName)
		assert.Equal(t, "test-secret", cfg.GatewayTokenSecret)
		assert.Equal(t, "dev", cfg.Environment)
		assert.Equal(t, "0.5", cfg.RatePerMinute.String())
		assert.Equal(t, int64(300), cfg.GracePeriodSeconds)
		assert.Equal(t, "Asia/Manila", cfg.VendorLocation.String())
		assert.Equal(t, 5, cfg.CASMaxRetries)
	})

	t.Run("explicit overrides", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ENVIRONMENT", "prod")
		t.Setenv("RATE_PER_MINUTE", "1.25")
		t.Setenv("GRACE_PERIOD_SECONDS", "0")
		t.Setenv("VENDOR_TIMEZONE", "Asia/Jakarta")
		t.Setenv("CAS_MAX_RETRIES", "10")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "prod", cfg.Environment)
		assert.Equal(t, "1.25", cfg.RatePerMinute.String())
		assert.Zero(t, cfg.GracePeriodSeconds)
		assert.Equal(t, "Asia/Jakarta", cfg.VendorLocation.String())
		assert.Equal(t, 10, cfg.CASMaxRetries)
	})

	t.Run("missing table name", func(t *testing.T) {
		t.Setenv("DYNAMODB_TABLE_NAME", "")
		t.Setenv("GATEWAY_TOKEN_SECRET", "test-secret")

		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "DYNAMODB_TABLE_NAME")
	})

	t.Run("missing gateway secret", func(t *testing.T) {
		t.Setenv("DYNAMODB_TABLE_NAME", "vendo-test")
		t.Setenv("GATEWAY_TOKEN_SECRET", "")

		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "GATEWAY_TOKEN_SECRET")
	})

	t.Run("invalid rate", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("RATE_PER_MINUTE", "free")

		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "RATE_PER_MINUTE")
	})

	t.Run("negative rate", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("RATE_PER_MINUTE", "-0.50")

		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "RATE_PER_MINUTE")
	})

	t.Run("invalid timezone", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("VENDOR_TIMEZONE", "Mars/Olympus")

		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "VENDOR_TIMEZONE")
	})

	t.Run("invalid retry count", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CAS_MAX_RETRIES", "0")

		_, err := LoadFromEnv()
		assert.ErrorContains(t, err, "CAS_MAX_RETRIES")
	})
}
