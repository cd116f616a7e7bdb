package artifact

import (
	"log"
	"reflect"
	"time"

	"github.com/autorfp-ai/autorfp/pkg/cache"
)

// Binding ties an artifact type to a cache collection. The zero collection
// name is the type's name, so each artifact type gets its own namespace
// unless configured otherwise.
type Binding[T any] struct {
	cache      *cache.Cache
	collection string
	ttl        time.Duration
	opts       Options
}

// BindingOption configures a Binding.
type BindingOption func(*bindingConfig)

type bindingConfig struct {
	collection string
	ttl        time.Duration
	opts       Options
}

// WithCollection overrides the default per-type collection name.
func WithCollection(name string) BindingOption {
	return func(c *bindingConfig) { c.collection = name }
}

// WithTTL overrides the cache's default entry lifetime.
func WithTTL(ttl time.Duration) BindingOption {
	return func(c *bindingConfig) { c.ttl = ttl }
}

// WithDecodeOptions sets the decode options used when loading entries.
func WithDecodeOptions(opts Options) BindingOption {
	return func(c *bindingConfig) { c.opts = opts }
}

// NewBinding creates a binding for T backed by c.
func NewBinding[T any](c *cache.Cache, options ...BindingOption) *Binding[T] {
	cfg := bindingConfig{
		collection: reflect.TypeOf((*T)(nil)).Elem().Name(),
		ttl:        cache.DefaultTTL,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	return &Binding[T]{
		cache:      c,
		collection: cfg.collection,
		ttl:        cfg.ttl,
		opts:       cfg.opts,
	}
}

// Collection returns the collection this binding persists into.
func (b *Binding[T]) Collection() string {
	return b.collection
}

// Save persists v under key.
func (b *Binding[T]) Save(key string, v *T) bool {
	doc, err := ToDocument(v)
	if err != nil {
		log.Printf("artifact: encode %s %s failed: %v", b.collection, key, err)
		return false
	}
	return b.cache.Save(key, b.collection, doc, b.ttl)
}

// Load retrieves the artifact stored under key. A stored payload that no
// longer decodes into T is treated as a miss.
func (b *Binding[T]) Load(key string, allowExpired bool) (*T, bool) {
	doc, ok := b.cache.Load(key, b.collection, allowExpired)
	if !ok {
		return nil, false
	}
	out, err := fromMap[T](doc, b.opts)
	if err != nil {
		log.Printf("artifact: decode %s %s failed: %v", b.collection, key, err)
		return nil, false
	}
	return out, true
}

// Delete removes the entry stored under key.
func (b *Binding[T]) Delete(key string) bool {
	return b.cache.Delete(key, b.collection)
}

// Query returns every stored artifact whose payload matches filter.
// Entries that no longer decode are skipped.
func (b *Binding[T]) Query(filter map[string]any) []*T {
	var out []*T
	for _, doc := range b.cache.Query(filter, b.collection) {
		v, err := fromMap[T](doc, b.opts)
		if err != nil {
			log.Printf("artifact: decode %s query result failed: %v", b.collection, err)
			continue
		}
		out = append(out, v)
	}
	return out
}
