package cache

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/autorfp-ai/autorfp/pkg/store"
)

const (
	dataField      = "data"
	expiresAtField = "expires_at"

	// DefaultTTL is the expiry applied to generation results. Inputs are
	// expensive to regenerate and content addressing already guarantees
	// correctness under input change, so the window is long.
	DefaultTTL = 90 * 24 * time.Hour
)

// Cache maps a content fingerprint to a JSON-serializable payload with an
// expiry policy, on top of any store backend. Expiry is enforced lazily at
// read time; expired rows stay in storage until explicitly deleted.
type Cache struct {
	db      store.DB
	hits    atomic.Int64
	misses  atomic.Int64
	expired atomic.Int64
}

// Stats reports cache counters for the lifetime of this handle.
type Stats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Expired int64 `json:"expired"`
}

// New creates a Cache over the given document store.
func New(db store.DB) *Cache {
	return &Cache{db: db}
}

// Save wraps data with an expiry computed at write time and upserts it under
// key in collection. A ttl <= 0 means the entry never expires.
func (c *Cache) Save(key, collection string, data map[string]any, ttl time.Duration) bool {
	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().UTC().Add(ttl).Format(time.RFC3339)
	}
	wrapper := store.Document{
		dataField:      data,
		expiresAtField: expiresAt,
	}
	ok := c.db.Collection(collection).Upsert(wrapper, key)
	if !ok {
		log.Printf("cache: save %q in %q failed", key, collection)
		return false
	}
	if ttl > 0 {
		log.Printf("cache: saved %q in %q, expires in %s", key, collection, ttl)
	} else {
		log.Printf("cache: saved %q in %q, never expires", key, collection)
	}
	return true
}

// Load fetches the payload stored under key. An expired entry is reported as
// absent unless allowExpired is set; "expired" and "not found" are logged
// distinctly so callers can tell revalidation apart from a cold miss.
func (c *Cache) Load(key, collection string, allowExpired bool) (map[string]any, bool) {
	wrapper := c.db.Collection(collection).Get(key)
	if wrapper == nil {
		c.misses.Add(1)
		log.Printf("cache: miss for %q in %q", key, collection)
		return nil, false
	}
	data, ok := wrapper[dataField].(map[string]any)
	if !ok {
		c.misses.Add(1)
		log.Printf("cache: malformed entry for %q in %q", key, collection)
		return nil, false
	}
	if expiresAt, ok := wrapper[expiresAtField].(string); ok && !allowExpired {
		deadline, err := time.Parse(time.RFC3339, expiresAt)
		if err != nil || time.Now().After(deadline) {
			c.expired.Add(1)
			log.Printf("cache: entry for %q in %q expired", key, collection)
			return nil, false
		}
	}
	c.hits.Add(1)
	return data, true
}

// Delete hard-deletes the entry under key, reporting whether one existed.
func (c *Cache) Delete(key, collection string) bool {
	ok := c.db.Collection(collection).Delete(key)
	if ok {
		log.Printf("cache: deleted %q from %q", key, collection)
	} else {
		log.Printf("cache: nothing to delete for %q in %q", key, collection)
	}
	return ok
}

// Query returns the payloads matching a field-equality filter. Filter keys
// address logical payload fields, not wrapper metadata.
func (c *Cache) Query(filter map[string]any, collection string) []map[string]any {
	scoped := make(map[string]any, len(filter))
	for k, v := range filter {
		scoped[dataField+"."+k] = v
	}
	wrappers := c.db.Collection(collection).Query(scoped)
	out := make([]map[string]any, 0, len(wrappers))
	for _, w := range wrappers {
		if data, ok := w[dataField].(map[string]any); ok {
			out = append(out, data)
		}
	}
	return out
}

// Stats returns entry and counter totals for a collection.
func (c *Cache) Stats(collection string) Stats {
	return Stats{
		Entries: int64(len(c.db.Collection(collection).GetAll())),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Expired: c.expired.Load(),
	}
}

// Clear removes entries from a collection. With expiredOnly set, only
// entries past their deadline are removed.
func (c *Cache) Clear(collection string, expiredOnly bool) int {
	coll := c.db.Collection(collection)
	removed := 0
	for _, key := range coll.Keys() {
		if expiredOnly {
			wrapper := coll.Get(key)
			if wrapper == nil {
				continue
			}
			expiresAt, ok := wrapper[expiresAtField].(string)
			if !ok {
				continue
			}
			deadline, err := time.Parse(time.RFC3339, expiresAt)
			if err == nil && time.Now().Before(deadline) {
				continue
			}
		}
		if coll.Delete(key) {
			removed++
		}
	}
	return removed
}
