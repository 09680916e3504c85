package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfigFrom("")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.AdminBootstrapEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfigFrom("")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	t.Run("bad int", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "eighty")
		_, err := LoadConfigFrom("")
		assert.ErrorContains(t, err, "HTTP_PORT")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("ACCESS_TOKEN_TTL", "15 minutes")
		_, err := LoadConfigFrom("")
		assert.ErrorContains(t, err, "ACCESS_TOKEN_TTL")
	})
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test ")
	t.Setenv("CACHE_TTL", "60")

	cfg, err := LoadConfigFrom("")
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, time.Minute, cfg.CacheDuration())
	assert.True(t, cfg.RedisEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=from-file\n"), 0o600))

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("APP_NAME", "")
	// godotenv never overrides variables that are already present
	require.NoError(t, os.Unsetenv("APP_NAME"))
	t.Cleanup(func() { os.Unsetenv("APP_NAME") })

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.AppName)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:        8080,
			LogLevel:        "info",
			LogFormat:       "text",
			DBDriver:        "postgres",
			DatabaseURL:     "postgres://localhost/db",
			DBMaxConns:      5,
			JWTSecret:       testSecret,
			BcryptCost:      10,
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
			AuthRateLimit:   10,
			AuthRateBurst:   5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port", func(c *Config) { c.HTTPPort = 0 }, "HTTP_PORT"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"bcrypt cost", func(c *Config) { c.BcryptCost = 3 }, "BCRYPT_COST"},
		{"admin incomplete", func(c *Config) { c.AdminUsername = "root" }, "ADMIN_EMAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "; ")
}
