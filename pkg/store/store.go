package store

import (
	"strings"
	"time"
)

// Document is a schemaless record persisted by a Store.
type Document = map[string]any

const (
	// KeyField is the storage-internal field carrying the document key.
	// It is injected on every write and stripped from every read; callers
	// never see it.
	KeyField = "__key__"
	// TimestampField records the time of the last write, RFC 3339.
	TimestampField = "timestamp"
)

// Store is the per-collection persistence contract. Every backend (in-memory,
// file, SQLite) implements it; callers never branch on backend identity.
//
// Writes never propagate errors past the adapter boundary: a failed write is
// logged and reported as false, and callers must check the boolean. Reads
// return nil (or an empty slice) when the document is absent or the backend
// fails.
type Store interface {
	// Get returns the document stored under key, or nil if absent.
	Get(key string) Document
	// GetMany returns every document stored under key. Keys are unique per
	// collection, so the result holds at most one document.
	GetMany(key string) []Document
	// GetAll returns every document in the collection.
	GetAll() []Document
	// Keys lists the keys present in the collection. Reads strip the key
	// field from documents, so this is the only way to enumerate them.
	Keys() []string
	// Query returns the documents matching a field-equality filter. Filter
	// keys may use dotted paths to address nested fields.
	Query(filter map[string]any) []Document
	// Insert stores a new document under key. It fails if the key exists.
	Insert(value Document, key string) bool
	// Upsert stores a document under key, replacing any existing one.
	Upsert(value Document, key string) bool
	// Delete removes the document stored under key. It reports whether a
	// document was removed.
	Delete(key string) bool
	// DeleteMany removes the documents stored under keys, reporting success
	// per key.
	DeleteMany(keys []string) []bool
}

// DB hands out collection-scoped stores over a single backend.
type DB interface {
	Collection(name string) Store
	Close() error
}

// stamp returns a copy of value with the key field and a fresh write
// timestamp injected. The caller's map is left untouched.
func stamp(value Document, key string) Document {
	doc := cloneDocument(value)
	doc[KeyField] = key
	doc[TimestampField] = time.Now().UTC().Format(time.RFC3339Nano)
	return doc
}

// stripKey removes the storage-internal key field before a document is
// returned to the caller.
func stripKey(doc Document) Document {
	if doc == nil {
		return nil
	}
	delete(doc, KeyField)
	return doc
}

func cloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc)+2)
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return cloneDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// matches reports whether doc satisfies every field-equality condition in
// filter. Dotted filter keys traverse nested documents.
func matches(doc Document, filter map[string]any) bool {
	for path, want := range filter {
		got, ok := lookupPath(doc, path)
		if !ok || !looselyEqual(got, want) {
			return false
		}
	}
	return true
}

func lookupPath(doc Document, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		m, ok := cur.(Document)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// looselyEqual compares scalar values across the numeric types that JSON
// decoding produces, so a filter of int 3 matches a stored float64 3.
func looselyEqual(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	return aok && bok && af == bf
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}
