package store

import "sync"

// MemoryDB is an in-process document store. It is safe for concurrent use
// and useful for tests and single-shot CLI runs where persistence across
// processes is not needed.
type MemoryDB struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemoryDB creates an empty in-memory document store.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{collections: make(map[string]map[string]Document)}
}

// Collection returns a Store scoped to the named collection, creating it on
// first use.
func (db *MemoryDB) Collection(name string) Store {
	return &memoryStore{db: db, name: name}
}

// Close releases nothing; it exists to satisfy the DB contract.
func (db *MemoryDB) Close() error { return nil }

func (db *MemoryDB) collection(name string) map[string]Document {
	if c, ok := db.collections[name]; ok {
		return c
	}
	c := make(map[string]Document)
	db.collections[name] = c
	return c
}

type memoryStore struct {
	db   *MemoryDB
	name string
}

func (s *memoryStore) Get(key string) Document {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	doc, ok := s.db.collections[s.name][key]
	if !ok {
		return nil
	}
	return stripKey(cloneDocument(doc))
}

func (s *memoryStore) GetMany(key string) []Document {
	if doc := s.Get(key); doc != nil {
		return []Document{doc}
	}
	return nil
}

func (s *memoryStore) GetAll() []Document {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	coll := s.db.collections[s.name]
	out := make([]Document, 0, len(coll))
	for _, doc := range coll {
		out = append(out, stripKey(cloneDocument(doc)))
	}
	return out
}

func (s *memoryStore) Keys() []string {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	coll := s.db.collections[s.name]
	out := make([]string, 0, len(coll))
	for key := range coll {
		out = append(out, key)
	}
	return out
}

func (s *memoryStore) Query(filter map[string]any) []Document {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []Document
	for _, doc := range s.db.collections[s.name] {
		if matches(doc, filter) {
			out = append(out, stripKey(cloneDocument(doc)))
		}
	}
	return out
}

func (s *memoryStore) Insert(value Document, key string) bool {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll := s.db.collection(s.name)
	if _, exists := coll[key]; exists {
		return false
	}
	coll[key] = stamp(value, key)
	return true
}

func (s *memoryStore) Upsert(value Document, key string) bool {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.collection(s.name)[key] = stamp(value, key)
	return true
}

func (s *memoryStore) Delete(key string) bool {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll := s.db.collection(s.name)
	if _, ok := coll[key]; !ok {
		return false
	}
	delete(coll, key)
	return true
}

func (s *memoryStore) DeleteMany(keys []string) []bool {
	out := make([]bool, len(keys))
	for i, key := range keys {
		out[i] = s.Delete(key)
	}
	return out
}
