// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Site     SiteConfig
	Catalog  CatalogConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig contains HTTP server configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ServerConfig struct {
	Port              int
	ShutdownTimeout   time.Duration
	UploadDir         string
	UploadURLPrefix   string
	MaxThumbnailBytes int64
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RedisConfig contains the leaderboard cache connection.
type RedisConfig struct {
	Enabled        bool
	URL            string
	LeaderboardKey string
	LeaderboardTTL time.Duration
}

// RabbitMQConfig contains RabbitMQ connection and queue configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Enabled    bool
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// URL returns the AMQP connection URL.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

// CacheConfig sizes the in-process catalog list cache.
type CacheConfig struct {
	Enabled bool
	SizeMB  int
	TTL     time.Duration
}

// AuthConfig contains bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// SiteConfig contains the site password gate settings.
type SiteConfig struct {
	DefaultPassword string
	BcryptCost      int
}

// CatalogConfig contains catalog read and edit behaviour.
type CatalogConfig struct {
	StrictContentID  bool
	RetryAttempts    int
	RetryBaseDelay   time.Duration
	LeaderboardLimit int
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase loads only the database section, skipping the checks that
// concern the API server.
func LoadDatabase() (*DatabaseConfig, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	return &cfg.Database, nil
}

func read() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read environment variables
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtsecret must be set")
	}
	if c.Server.MaxThumbnailBytes <= 0 {
		return fmt.Errorf("server.maxthumbnailbytes must be positive")
	}
	if c.Site.BcryptCost < 4 || c.Site.BcryptCost > 31 {
		return fmt.Errorf("site.bcryptcost must be between 4 and 31, got %d", c.Site.BcryptCost)
	}
	if c.Catalog.RetryAttempts < 1 {
		return fmt.Errorf("catalog.retryattempts must be at least 1")
	}
	return nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.uploaddir", "./uploads/thumbnails")
	viper.SetDefault("server.uploadurlprefix", "/uploads/thumbnails")
	viper.SetDefault("server.maxthumbnailbytes", 5*1024*1024)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "wellness_videos")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.leaderboardkey", "leaderboard:top")
	viper.SetDefault("redis.leaderboardttl", 10*time.Minute)

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "wellness.videos")
	viper.SetDefault("rabbitmq.queue", "wellness.videos.viewed")
	viper.SetDefault("rabbitmq.routingkey", "video.viewed")

	// Cache
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.sizemb", 16)
	viper.SetDefault("cache.ttl", 30*time.Second)

	// Auth
	viper.SetDefault("auth.jwtsecret", "")

	// Site gate
	viper.SetDefault("site.defaultpassword", "wellness2024")
	viper.SetDefault("site.bcryptcost", 12)

	// Catalog
	viper.SetDefault("catalog.strictcontentid", false)
	viper.SetDefault("catalog.retryattempts", 3)
	viper.SetDefault("catalog.retrybasedelay", 1*time.Second)
	viper.SetDefault("catalog.leaderboardlimit", 10)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")

	// Metrics
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}
