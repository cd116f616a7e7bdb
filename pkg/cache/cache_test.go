package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/autorfp-ai/autorfp/pkg/store"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "cache_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func TestSaveAndLoad(t *testing.T) {
	c := newTestCache(t)

	if !c.Save("k1", "plans", map[string]any{"project": "alpha"}, time.Hour) {
		t.Fatal("save failed")
	}
	data, ok := c.Load("k1", "plans", false)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if data["project"] != "alpha" {
		t.Errorf("unexpected payload: %v", data)
	}
}

func TestLoadMissing(t *testing.T) {
	c := newTestCache(t)
	if _, ok := c.Load("nope", "plans", false); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestExpiry(t *testing.T) {
	c := newTestCache(t)

	c.Save("k1", "plans", map[string]any{"project": "alpha"}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Load("k1", "plans", false); ok {
		t.Error("expected expired entry to be reported absent")
	}
	// Expired rows stay in storage and remain readable on request.
	data, ok := c.Load("k1", "plans", true)
	if !ok {
		t.Fatal("allowExpired should return the original payload")
	}
	if data["project"] != "alpha" {
		t.Errorf("unexpected payload: %v", data)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := newTestCache(t)

	c.Save("k1", "plans", map[string]any{"project": "alpha"}, 0)
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Load("k1", "plans", false); !ok {
		t.Error("entry without TTL should never expire")
	}
}

func TestDelete(t *testing.T) {
	c := newTestCache(t)

	c.Save("k1", "plans", map[string]any{"project": "alpha"}, time.Hour)
	if !c.Delete("k1", "plans") {
		t.Error("delete of existing entry should succeed")
	}
	if c.Delete("k1", "plans") {
		t.Error("second delete should report failure")
	}
	if _, ok := c.Load("k1", "plans", true); ok {
		t.Error("deleted entry should be gone even with allowExpired")
	}
}

func TestQueryScopesFilterToPayload(t *testing.T) {
	c := newTestCache(t)

	c.Save("k1", "plans", map[string]any{"project": "alpha", "n": 1}, time.Hour)
	c.Save("k2", "plans", map[string]any{"project": "beta", "n": 1}, time.Hour)

	got := c.Query(map[string]any{"project": "alpha"}, "plans")
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0]["project"] != "alpha" {
		t.Errorf("unexpected payload: %v", got[0])
	}
	// Wrapper metadata is not addressable through the payload namespace.
	if got := c.Query(map[string]any{"expires_at": nil}, "plans"); len(got) != 0 {
		t.Errorf("filter should not match wrapper fields, got %d results", len(got))
	}
}

func TestStatsAndClear(t *testing.T) {
	c := newTestCache(t)

	c.Save("k1", "plans", map[string]any{"v": 1}, 10*time.Millisecond)
	c.Save("k2", "plans", map[string]any{"v": 2}, time.Hour)
	c.Load("k2", "plans", false) // hit
	c.Load("k3", "plans", false) // miss

	stats := c.Stats("plans")
	if stats.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", stats.Entries)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("unexpected counters: %+v", stats)
	}

	time.Sleep(30 * time.Millisecond)
	if removed := c.Clear("plans", true); removed != 1 {
		t.Errorf("expected 1 expired entry cleared, got %d", removed)
	}
	if removed := c.Clear("plans", false); removed != 1 {
		t.Errorf("expected 1 remaining entry cleared, got %d", removed)
	}
	if stats := c.Stats("plans"); stats.Entries != 0 {
		t.Errorf("expected empty collection, got %d", stats.Entries)
	}
}
