package cache

import (
	"testing"
	"time"

	"usage-dashboard/config"
)

func TestCacheBasicOperations(t *testing.T) {
	cfg := config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   10,
		TTLSeconds:  2, // 2 seconds for testing
		CounterSize: 1000,
	}

	cache, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	t.Run("Set_and_Get", func(t *testing.T) {
		ok := cache.Set("test_key", "test_value", 1)
		if !ok {
			t.Error("Failed to set value in cache")
		}

		// Wait for async admission
		time.Sleep(10 * time.Millisecond)

		retrieved, found := cache.Get("test_key")
		if !found {
			t.Error("Value not found in cache")
		}
		if retrieved != "test_value" {
			t.Errorf("Expected test_value, got %v", retrieved)
		}
	})

	t.Run("Get_NonExistent", func(t *testing.T) {
		if _, found := cache.Get("nonexistent_key"); found {
			t.Error("Expected key not to be found")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		cache.Set("delete_key", "delete_value", 1)
		time.Sleep(10 * time.Millisecond)

		cache.Delete("delete_key")
		time.Sleep(10 * time.Millisecond)

		if _, found := cache.Get("delete_key"); found {
			t.Error("Deleted key should not be found")
		}
	})
}

func TestCache_NilIsSafe(t *testing.T) {
	var cache *Cache

	if _, found := cache.Get("key"); found {
		t.Error("Nil cache should never report a hit")
	}
	if cache.Set("key", "value", 1) {
		t.Error("Nil cache should reject sets")
	}
	cache.Delete("key")
	cache.Close()
}
