package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("full_analysis", "slack", "some content")
	b := Key("full_analysis", "slack", "some content")
	if a != b {
		t.Errorf("same inputs must produce the same key: %s vs %s", a, b)
	}

	if Key("full_analysis", "github", "some content") == a {
		t.Errorf("source must be part of the key")
	}
	if Key("full_analysis", "slack", "other content") == a {
		t.Errorf("content must be part of the key")
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(10)
	defer c.Close()
	ctx := context.Background()

	key := Key("full_analysis", "manual", "hello")
	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss on empty cache, ok=%v err=%v", ok, err)
	}

	payload := []byte(`{"total_violations": 2}`)
	if err := c.Set(ctx, key, payload, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %s, want %s", got, payload)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Errorf("expected expired entry to miss")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(10)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Errorf("deleted entry still present")
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	c := NewMemoryCache(3)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
	}
	if got := c.Len(); got > 3 {
		t.Errorf("cache grew past its cap: %d entries", got)
	}
}
