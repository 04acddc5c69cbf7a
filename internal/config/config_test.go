package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", nil, envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, defaultAppName, cfg.AppName)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, "bcrypt", cfg.PasswordHasher)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadEnvironment(t *testing.T) {
	cfg, err := load("", nil, envFrom(map[string]string{
		"PORT":                     "9090",
		"LOG_LEVEL":                "DEBUG",
		"JWT_SECRET":               "s3cret",
		"JWT_EXPIRATION":           "30m",
		"SHUTDOWN_TIMEOUT_SECONDS": "3",
		"SHUTDOWN_TIMEOUT":         "1m",
		"IDEMPOTENCY_TTL":          "2h",
		"BCRYPT_COST":              "12",
		"SMTP_HOST":                "smtp.example.com",
		"SMTP_PORT":                "2525",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiration)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
}

func TestLoadFileThenEnvThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\njwt-issuer: from-file\nsmtp:\n  from: noreply@example.com\n"), 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--port", "7100"}))

	cfg, err := load(path, fs, envFrom(map[string]string{"JWT_ISSUER": "from-env"}))
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.Address())
	assert.Equal(t, "from-env", cfg.JWTIssuer)
	assert.Equal(t, "noreply@example.com", cfg.SMTP.From)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad seconds", env: map[string]string{"IDEMPOTENCY_TTL_SECONDS": "abc"}, wantErr: "IDEMPOTENCY_TTL_SECONDS"},
		{name: "production needs secret", env: map[string]string{"APP_ENV": "production"}, wantErr: "JWT_SECRET"},
		{name: "production needs database", env: map[string]string{"APP_ENV": "production", "JWT_SECRET": "x"}, wantErr: "DATABASE_URL"},
		{name: "production needs redis", env: map[string]string{"APP_ENV": "production", "JWT_SECRET": "x", "DATABASE_URL": "postgres://db"}, wantErr: "REDIS_URL"},
		{name: "non-positive expiration", env: map[string]string{"JWT_EXPIRATION": "0s"}, wantErr: "JWT_EXPIRATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load("", nil, envFrom(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), nil, envFrom(nil))
	assert.Error(t, err)
}
