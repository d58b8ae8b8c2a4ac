package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/marketplace/internal/port"
)

const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

type CacheConfig struct {
	Driver   string        `mapstructure:"driver" default:"redis"`
	Addr     string        `mapstructure:"addr" default:"localhost:6379"`
	Password string        `mapstructure:"password" default:""`
	DB       int           `mapstructure:"db" default:"0"`
	PoolSize int           `mapstructure:"pool_size" default:"100"`
	Timeout  time.Duration `mapstructure:"timeout" default:"200ms"`
}

// Cache is a cache backend that can report its health.
type Cache interface {
	port.CacheRepository
	Ping(ctx context.Context) error
}

// OpenCache builds the cache named by cfg.Driver. The returned close func
// releases any connections.
func OpenCache(ctx context.Context, cfg CacheConfig) (Cache, func() error, error) {
	switch cfg.Driver {
	case CacheDriverMemory:
		return NewMemoryAdapter(), func() error { return nil }, nil
	case CacheDriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
		}
		return NewRedisAdapter(rdb), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

var (
	_ Cache                   = (*RedisAdapter)(nil)
	_ Cache                   = (*MemoryAdapter)(nil)
	_ port.DatabaseRepository = (*MySQLAdapter)(nil)
)
