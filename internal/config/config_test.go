package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		cleanup func()
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "load with defaults (no config file)",
			setup: func() {
				viper.Reset()
				viper.Set("auth.jwtsecret", "secret")
			},
			cleanup: func() {},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, int64(5*1024*1024), cfg.Server.MaxThumbnailBytes)
				assert.Equal(t, "wellness_videos", cfg.Database.Name)
				assert.Equal(t, "wellness2024", cfg.Site.DefaultPassword)
				assert.Equal(t, 12, cfg.Site.BcryptCost)
				assert.Equal(t, 3, cfg.Catalog.RetryAttempts)
				assert.Equal(t, time.Second, cfg.Catalog.RetryBaseDelay)
				assert.Equal(t, 10, cfg.Catalog.LeaderboardLimit)
				assert.False(t, cfg.Catalog.StrictContentID)
				assert.Equal(t, "video.viewed", cfg.RabbitMQ.RoutingKey)
				assert.False(t, cfg.Redis.Enabled)
			},
		},
		{
			name: "load with environment variables",
			setup: func() {
				viper.Reset()
				viper.SetEnvPrefix("APP")
				viper.AutomaticEnv()
				os.Setenv("APP_SERVER_PORT", "9090")
				os.Setenv("APP_AUTH_JWTSECRET", "from-env")
				os.Setenv("APP_CATALOG_STRICTCONTENTID", "true")
				os.Setenv("APP_REDIS_ENABLED", "true")
				// Manually bind env vars since AutomaticEnv doesn't work with nested keys
				viper.BindEnv("server.port", "APP_SERVER_PORT")
				viper.BindEnv("auth.jwtsecret", "APP_AUTH_JWTSECRET")
				viper.BindEnv("catalog.strictcontentid", "APP_CATALOG_STRICTCONTENTID")
				viper.BindEnv("redis.enabled", "APP_REDIS_ENABLED")
			},
			cleanup: func() {
				os.Unsetenv("APP_SERVER_PORT")
				os.Unsetenv("APP_AUTH_JWTSECRET")
				os.Unsetenv("APP_CATALOG_STRICTCONTENTID")
				os.Unsetenv("APP_REDIS_ENABLED")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
				assert.True(t, cfg.Catalog.StrictContentID)
				assert.True(t, cfg.Redis.Enabled)
			},
		},
		{
			name: "missing jwt secret",
			setup: func() {
				viper.Reset()
			},
			cleanup: func() {},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.cleanup()

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{MaxThumbnailBytes: 1},
			Auth:    AuthConfig{JWTSecret: "s"},
			Site:    SiteConfig{BcryptCost: 12},
			Catalog: CatalogConfig{RetryAttempts: 3},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no thumbnail limit", func(c *Config) { c.Server.MaxThumbnailBytes = 0 }},
		{"bcrypt cost too low", func(c *Config) { c.Site.BcryptCost = 3 }},
		{"bcrypt cost too high", func(c *Config) { c.Site.BcryptCost = 32 }},
		{"no retry attempts", func(c *Config) { c.Catalog.RetryAttempts = 0 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantAddr string
		wantDB   int
		wantPass string
		wantTLS  bool
		wantErr  bool
	}{
		{name: "legacy host:port", url: "localhost:6379", wantAddr: "localhost:6379"},
		{name: "redis url with db", url: "redis://localhost:6380/2", wantAddr: "localhost:6380", wantDB: 2},
		{name: "password", url: "redis://:s3cret@cache:6379/0", wantAddr: "cache:6379", wantPass: "s3cret"},
		{name: "tls", url: "rediss://cache:6380", wantAddr: "cache:6380", wantTLS: true},
		{name: "bad scheme", url: "http://cache:6379", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := RedisConfig{URL: tt.url}.Options()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, opt.Addr)
			assert.Equal(t, tt.wantDB, opt.DB)
			assert.Equal(t, tt.wantPass, opt.Password)
			assert.Equal(t, tt.wantTLS, opt.TLSConfig != nil)
		})
	}
}

func TestRabbitMQURL(t *testing.T) {
	cfg := RabbitMQConfig{User: "guest", Password: "guest", Host: "mq", Port: 5672}
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.URL())
}

func TestLoadDatabase_IgnoresServerSettings(t *testing.T) {
	viper.Reset()
	t.Setenv("APP_DATABASE_HOST", "db.internal")
	t.Setenv("APP_DATABASE_PORT", "6543")

	cfg, err := LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "wellness_videos", cfg.Name)

	_, err = Load()
	assert.Error(t, err, "server settings still require a jwt secret")
}
