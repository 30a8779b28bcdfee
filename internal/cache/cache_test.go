package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key([]byte("ab"), []byte("c"))
	b := Key([]byte("a"), []byte("bc"))

	if a == b {
		t.Error("Expected length-prefixed parts to produce different keys")
	}
	if a != Key([]byte("ab"), []byte("c")) {
		t.Error("Expected keys to be stable")
	}
	if !strings.HasPrefix(a, "nrmlc:v1:") {
		t.Errorf("Expected versioned prefix, got %s", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("doc")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'X'

	got, ok := c.Get("k")
	if !ok || string(got) != "doc" {
		t.Errorf("Get() = %q, %v; want stored copy", got, ok)
	}
	got[0] = 'Y'
	if again, _ := c.Get("k"); string(again) != "doc" {
		t.Error("Expected Get to return a copy")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after Delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)
	key := Key([]byte("input"))

	if _, ok := c.Get(key); ok {
		t.Fatal("Expected miss on empty cache")
	}
	if err := c.Set(key, []byte("rendered"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != "rendered" {
		t.Errorf("Get() = %q, %v", got, ok)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("Expected exactly one cache file, got %d", len(entries))
	}
	if strings.ContainsAny(entries[0].Name(), ":") {
		t.Errorf("Expected key to be sanitized, got %s", entries[0].Name())
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set("k", []byte("v"), time.Minute)
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("Expected expired file to be removed")
	}
}

func TestDiskCache_Corrupt(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := os.WriteFile(c.path("k"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected corrupt entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	// write through disk only, as a previous process would have
	if err := NewDiskCache(dir, time.Hour).Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Get() = %q, %v", got, ok)
	}
	if _, ok := c.memory.Get("k"); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}

	_, _ = c.Get("missing")
	hits, misses := c.Counters()
	if hits != 1 || misses != 1 {
		t.Errorf("Counters() = %d, %d; want 1, 1", hits, misses)
	}

	if err := c.Clear(); err != nil {
		t.Errorf("Clear() error = %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after Clear")
	}
}
