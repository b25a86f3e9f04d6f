package cache

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/casewatch/internal/model"
)

func TestCacheKey(t *testing.T) {
	k1 := OpinionKey(42)
	k2 := OpinionKey(42)
	k3 := OpinionKey(43)

	if k1 != k2 {
		t.Error("expected stable key for same opinion")
	}
	if k1 == k3 {
		t.Error("expected different keys for different opinions")
	}
	if !strings.HasPrefix(k1, "casewatch:v1:") {
		t.Errorf("unexpected key prefix: %s", k1)
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := OpinionKey(1)

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := c.Set(key, []byte("opinion text"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != "opinion text" {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}

	if err := c.Set(key, []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of missing entry should not fail: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := OpinionKey(7)

	if err := NewDiskCache(dir, time.Hour).Set(key, []byte("from disk"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := layered.Get(key)
	if !ok || string(got) != "from disk" {
		t.Fatalf("expected disk hit, got %q %v", got, ok)
	}

	if _, ok := layered.memory.Get(key); !ok {
		t.Error("expected disk hit to be promoted to memory")
	}

	if err := layered.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := layered.Get(key); ok {
		t.Error("expected miss after Clear")
	}
}

func TestMemoryCache_Memoize(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	calls := 0
	load := func() (any, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	for i := 0; i < 3; i++ {
		val, err := c.Memoize("dataset", 0, load)
		if err != nil {
			t.Fatalf("Memoize failed: %v", err)
		}
		if got := val.([]string); len(got) != 2 {
			t.Fatalf("unexpected value: %v", got)
		}
	}
	if calls != 1 {
		t.Errorf("expected a single load, got %d", calls)
	}
}

func TestMemoryCache_MemoizeDoesNotCacheErrors(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	calls := 0
	failing := func() (any, error) {
		calls++
		return nil, errors.New("boom")
	}

	for i := 0; i < 2; i++ {
		if _, err := c.Memoize("k", 0, failing); err == nil {
			t.Fatal("expected error")
		}
	}
	if calls != 2 {
		t.Errorf("expected errors to be retried, got %d loads", calls)
	}
}

func TestNew_Disabled(t *testing.T) {
	c := New(model.CacheConfig{Enabled: false})
	if _, ok := c.(Noop); !ok {
		t.Fatalf("expected Noop, got %T", c)
	}
	_ = c.Set("k", []byte("v"), 0)
	if _, ok := c.Get("k"); ok {
		t.Error("Noop should never hit")
	}
}
