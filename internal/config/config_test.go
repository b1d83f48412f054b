package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "localhost", cfg.Database.Host)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.AccessTokenTTL)
	require.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	require.False(t, cfg.IsStorageConfigured())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("DB_MAX_CONNS", "12")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 30*time.Minute, cfg.JWT.AccessTokenTTL)
	require.Equal(t, int32(12), cfg.Database.MaxConns)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestValidateRequiresDBPassword(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.Validate())
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:        "db.example",
			Port:        "5432",
			User:        "app",
			Password:    "pw",
			Name:        "carspace",
			SSLMode:     "require",
			ConnTimeout: 10 * time.Second,
		},
	}
	require.Equal(t,
		"postgres://app:pw@db.example:5432/carspace?sslmode=require&connect_timeout=10",
		cfg.GetDSN())
}
