package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	c := NewTTLCache().WithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := c.SetBytes(ctx, "status.json", []byte("{}"), 2*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if b, err := c.GetBytes(ctx, "status.json"); err != nil || string(b) != "{}" {
		t.Fatalf("expected hit, got %q %v", b, err)
	}

	now = now.Add(2 * time.Second)
	if _, err := c.GetBytes(ctx, "status.json"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after ttl, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted, len=%d", c.Len())
	}
}

func TestTTLCacheNoExpiry(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()
	_ = c.SetBytes(ctx, "k", []byte("v"), 0)
	if _, err := c.GetBytes(ctx, "k"); err != nil {
		t.Fatalf("expected hit, got %v", err)
	}
	c.Delete("k")
	if _, err := c.GetBytes(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
