package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenConfigDefaults(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")

	cfg, err := NewTokenConfig()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
}

func TestTokenConfigRequiresSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")

	_, err := NewTokenConfig()
	assert.Error(t, err)
}

func TestOTPConfigOverrides(t *testing.T) {
	t.Setenv("OTP_TTL", "3m")
	t.Setenv("OTP_MAX_ATTEMPTS", "2")

	cfg, err := NewOTPConfig()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, cfg.TTL)
	assert.Equal(t, 2, cfg.MaxAttempts)
}

func TestServerConfigCORSList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://app.example.com,https://staging.example.com")

	cfg, err := NewServerConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORSOrigins)
}
