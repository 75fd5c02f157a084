package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"portfolio/pkg/config"
)

const defaultTimeout = 5 * time.Second

// Config configures a topology-agnostic Redis connection. go-redis picks the
// topology itself: MasterName set means Sentinel, several Addrs mean Cluster,
// a single Addr is a standalone node.
type Config struct {
	Addrs      []string
	MasterName string
	Username   string
	Password   string
	DB         int
	Timeout    time.Duration
}

// LoadConfig reads REDIS_* variables. Addrs is empty when Redis is not used.
func LoadConfig() Config {
	return Config{
		Addrs:      config.GetEnvList("REDIS_ADDRS", nil),
		MasterName: config.GetEnv("REDIS_MASTER_NAME", ""),
		Username:   config.GetEnv("REDIS_USERNAME", ""),
		Password:   config.GetEnv("REDIS_PASSWORD", ""),
		DB:         config.GetEnvInt("REDIS_DB", 0),
	}
}

// Enabled reports whether any address is configured.
func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

// NewUniversalClient connects and pings. The caller owns Close.
func NewUniversalClient(ctx context.Context, cfg Config) (goredis.UniversalClient, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("at least one redis address is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        cfg.Addrs,
		MasterName:   cfg.MasterName,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
