package config_test

import (
	"net/netip"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-auth/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := config.NewFromMap(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.True(t, c.IsDev())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenTTL())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenTTL())
	require.Equal(t, 5*time.Second, c.GetOperationTimeout())
	require.Equal(t, "go-token-auth", c.GetIssuer())
	require.Equal(t, config.StoreMemory, c.GetUserStore())
	require.Equal(t, config.StoreMemory, c.GetRegistryBackend())
	require.Equal(t, "refresh", c.GetRedisKeyPrefix())
	require.Equal(t, 5.0, c.GetSignInRateLimit())
	require.Equal(t, 10, c.GetSignInRateBurst())
	require.True(t, c.GetEnforcePasswordStrength())
	require.Empty(t, c.GetAllowedOrigins())
	require.Empty(t, c.GetTrustedProxies())
}

func TestOverrides(t *testing.T) {
	c, err := config.NewFromMap(map[string]string{
		"ENV":                  "production",
		"PORT":                 ":9000",
		"ACCESS_TOKEN_TTL":     "5m",
		"REFRESH_TOKEN_TTL":    "24h",
		"SIGNING_SECRET":       "0123456789abcdef0123456789abcdef",
		"REGISTRY_BACKEND":     "redis",
		"REDIS_ADDR":           "redis:6379",
		"REDIS_DB":             "2",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com",
		"TRUSTED_PROXIES":      "10.0.0.0/8, 192.0.2.1",
	})
	require.NoError(t, err)

	require.False(t, c.IsDev())
	require.Equal(t, "PRODUCTION", c.GetEnv())
	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, 5*time.Minute, c.GetAccessTokenTTL())
	require.Equal(t, 24*time.Hour, c.GetRefreshTokenTTL())
	require.Equal(t, config.StoreRedis, c.GetRegistryBackend())
	require.Equal(t, "redis:6379", c.GetRedisAddr())
	require.Equal(t, 2, c.GetRedisDB())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://c.example.com"))
	require.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("192.0.2.1/32")}, c.GetTrustedProxies())
}

func TestValidation(t *testing.T) {
	tests := map[string]map[string]string{
		"bad duration":           {"ACCESS_TOKEN_TTL": "soon"},
		"refresh shorter":        {"ACCESS_TOKEN_TTL": "1h", "REFRESH_TOKEN_TTL": "30m"},
		"missing secret in prod": {"ENV": "PROD"},
		"unknown backend":        {"REGISTRY_BACKEND": "etcd"},
		"unknown user store":     {"USER_STORE": "ldap"},
		"postgres without dsn":   {"REGISTRY_BACKEND": "postgres"},
		"zero timeout":           {"OPERATION_TIMEOUT": "0s"},
		"negative rate":          {"SIGNIN_RATE_LIMIT": "-1"},
		"bad trusted proxy":      {"TRUSTED_PROXIES": "10.0.0.0/33"},
		"trusted proxy hostname": {"TRUSTED_PROXIES": "proxy.internal"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.NewFromMap(vars)
			require.Error(t, err)
		})
	}
}
