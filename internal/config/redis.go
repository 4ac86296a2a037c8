package config

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Options turns the configured URL into go-redis client options.
// Supports formats:
//   - redis://[:password@]host:port[/db]
//   - rediss://[:password@]host:port[/db] (TLS)
//   - host:port (legacy format, no password)
func (c RedisConfig) Options() (*redis.Options, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}

	// Handle legacy format (simple host:port)
	if !strings.Contains(c.URL, "://") {
		return &redis.Options{Addr: c.URL}, nil
	}

	opt, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return opt, nil
}
