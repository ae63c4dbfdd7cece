package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestKey_StableAndPrefixed(t *testing.T) {
	a := Key("map", "gen-1", 18.0, true)
	b := Key("map", "gen-1", 18.0, true)
	if a != b {
		t.Fatalf("expected stable key, got %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "map:") || len(a) != len("map:")+64 {
		t.Fatalf("unexpected key shape %q", a)
	}
	if Key("map", "gen-2", 18.0, true) == a {
		t.Fatalf("expected different generation to change key")
	}
}

func TestNullCache_AlwaysMisses(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("expected hit v, got %q ok=%v err=%v", got, ok, err)
	}

	got[0] = 'x'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "v" {
		t.Fatalf("expected stored bytes to be isolated from callers, got %q", again)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatalf("expected hit before expiry")
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", c.Len())
	}
}

func TestMemoryCache_SetSweepsExpiredEntries(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_ = c.Set(ctx, Key("orphan", i), []byte("map"), time.Minute)
	}
	_ = c.Set(ctx, "pinned", []byte("gen"), 0)
	if c.Len() != 101 {
		t.Fatalf("expected 101 entries, got %d", c.Len())
	}

	now = now.Add(2 * time.Minute)
	_ = c.Set(ctx, "fresh", []byte("map"), time.Minute)
	if c.Len() != 2 {
		t.Fatalf("expected expired entries reclaimed on write, got %d", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "pinned"); !ok {
		t.Fatalf("expected entry without ttl to survive the sweep")
	}
}

func TestMemoryCache_EvictsOldestAtCapacity(t *testing.T) {
	c := NewMemoryCache(WithMaxEntries(3))
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	_ = c.Set(ctx, "a", []byte("a2"), 0)
	_ = c.Set(ctx, "d", []byte("d"), 0)

	if c.Len() != 3 {
		t.Fatalf("expected capacity to hold at 3, got %d", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Fatalf("expected oldest write b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Fatalf("expected %s to remain", k)
		}
	}
}

func TestWithMaxEntries_IgnoresNonPositive(t *testing.T) {
	if c := NewMemoryCache(WithMaxEntries(0)); c.maxEntries != DefaultMemoryEntries {
		t.Fatalf("expected default capacity, got %d", c.maxEntries)
	}
}

func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "linkmap-test"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	key := Key("roundtrip", time.Now().UnixNano())
	if err := c.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok || string(got) != "payload" {
		t.Fatalf("expected hit, got %q ok=%v err=%v", got, ok, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestNewRedisCache_RequiresAddr(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
