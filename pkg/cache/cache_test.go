package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalCache(t *testing.T) {
	cache := NewLocalCache(LocalConfig{
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	})
	defer cache.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		if err := cache.Set(ctx, "stats", "payload", time.Minute); err != nil {
			t.Errorf("Failed to set cache: %v", err)
		}
		if retrieved, exists := cache.Get(ctx, "stats"); !exists {
			t.Error("Cache value not found")
		} else if retrieved != "payload" {
			t.Errorf("Expected %v, got %v", "payload", retrieved)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = cache.Set(ctx, "gone", 1, time.Minute)
		if err := cache.Delete(ctx, "gone"); err != nil {
			t.Errorf("Failed to delete: %v", err)
		}
		if cache.Exists(ctx, "gone") {
			t.Error("key should be gone after delete")
		}
	})

	t.Run("Expiration", func(t *testing.T) {
		_ = cache.Set(ctx, "short", 1, 10*time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		if cache.Exists(ctx, "short") {
			t.Error("key should have expired")
		}
	})
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	if _, err := NewCache(Config{Type: "memcached"}); err == nil {
		t.Error("expected error for unsupported cache type")
	}
}
