package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestFromMapDefaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{"SECRET_KEY": testSecret})
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, "/astrellect/v1", cfg.HTTP.APIPrefix)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Bootstrap.Enabled())
	assert.False(t, cfg.IsDev())
}

func TestFromMapOverrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"SECRET_KEY":                  testSecret,
		"APP_ENV":                     "development",
		"HTTP_API_PREFIX":             "api/v2/",
		"HTTP_ALLOWED_ORIGINS":        "http://a.test,http://b.test",
		"JWT_ALGORITHM":               "HS512",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "5",
		"REDIS_ADDR":                  "localhost:6379",
		"DB_HOST":                     "db",
		"DB_NAME":                     "people",
		"BOOTSTRAP_ADMIN_EMAIL":       "root@example.com",
		"BOOTSTRAP_ADMIN_PASSWORD":    "changeme",
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "/api/v2", cfg.HTTP.APIPrefix)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "HS512", cfg.Auth.Algorithm)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Bootstrap.Enabled())
	assert.Contains(t, cfg.DB.DSN(), "host=db")
	assert.Contains(t, cfg.DB.DSN(), "dbname=people")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	_, err := FromMap(map[string]string{
		"SECRET_KEY":            "short",
		"JWT_ALGORITHM":         "none",
		"LOG_LEVEL":             "verbose",
		"BOOTSTRAP_ADMIN_EMAIL": "root@example.com",
	})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "SECRET_KEY")
	assert.Contains(t, msg, "JWT_ALGORITHM")
	assert.Contains(t, msg, "LOG_LEVEL")
	assert.Contains(t, msg, "BOOTSTRAP_ADMIN_PASSWORD")
}

func TestRejectsNonPositiveTTL(t *testing.T) {
	_, err := FromMap(map[string]string{
		"SECRET_KEY":                  testSecret,
		"ACCESS_TOKEN_EXPIRE_MINUTES": "0",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_EXPIRE_MINUTES")
}
