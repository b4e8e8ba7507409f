package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.False(t, cfg.ReadRequiresAuth)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	// devなら固定シークレット
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=menu sslmode=disable", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/menu")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "3600")
	t.Setenv("READ_REQUIRES_AUTH", "true")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/menu", cfg.DSN())
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, time.Hour, cfg.RefreshTokenTTL)
	assert.True(t, cfg.ReadRequiresAuth)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port", "PORT", "http"},
		{"pg port", "POSTGRES_PORT", "five"},
		{"ttl", "ACCESS_TOKEN_TTL", "soon"},
		{"bool", "READ_REQUIRES_AUTH", "maybe"},
		{"env", "GO_ENV", "staging"},
		{"log level", "LOG_LEVEL", "trace"},
		{"admin half set", "ADMIN_USERNAME", "root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// prodではJWT_SECRET必須
func TestLoad_ProdRequiresSecret(t *testing.T) {
	t.Setenv("GO_ENV", "prod")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MENU_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MENU_TEST_VALUE") })

	require.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("MENU_TEST_VALUE"))
}
