package cache

import (
	"context"
	"time"
)

// Cache fronts the aggregate-stats queries so dashboard polling does not
// hammer the store.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
	Clear(ctx context.Context) error
	Close() error
}

type Config struct {
	// "local" or "redis"
	Type string `json:"type" env:"CACHE_TYPE"`

	Redis RedisConfig `json:"redis"`
	Local LocalConfig `json:"local"`
}

type RedisConfig struct {
	Addr     string `json:"addr" env:"REDIS_ADDR"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env:"REDIS_DB"`
	PoolSize int    `json:"pool_size" env:"REDIS_POOL_SIZE"`
}

type LocalConfig struct {
	DefaultExpiration time.Duration `json:"default_expiration" env:"LOCAL_CACHE_DEFAULT_EXPIRATION"`
	CleanupInterval   time.Duration `json:"cleanup_interval" env:"LOCAL_CACHE_CLEANUP_INTERVAL"`
}
