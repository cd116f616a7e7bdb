package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileDB persists each collection as a JSON file under a data directory.
// It trades throughput for zero external dependencies and a format that can
// be inspected or fixed by hand.
type FileDB struct {
	dir string
	mu  sync.Mutex
}

// NewFileDB creates a file-backed document store rooted at dir.
func NewFileDB(dir string) (*FileDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileDB{dir: dir}, nil
}

// Collection returns a Store scoped to the named collection.
func (db *FileDB) Collection(name string) Store {
	return &fileStore{db: db, name: name}
}

// Close releases nothing; files are written synchronously on every mutation.
func (db *FileDB) Close() error { return nil }

func (db *FileDB) path(name string) string {
	return filepath.Join(db.dir, name+".json")
}

// read loads a collection file. A missing file is an empty collection.
func (db *FileDB) read(name string) (map[string]Document, bool) {
	data, err := os.ReadFile(db.path(name))
	if os.IsNotExist(err) {
		return make(map[string]Document), true
	}
	if err != nil {
		log.Printf("store: read collection %q: %v", name, err)
		return nil, false
	}
	coll := make(map[string]Document)
	if err := json.Unmarshal(data, &coll); err != nil {
		log.Printf("store: decode collection %q: %v", name, err)
		return nil, false
	}
	return coll, true
}

func (db *FileDB) write(name string, coll map[string]Document) bool {
	data, err := json.MarshalIndent(coll, "", "  ")
	if err != nil {
		log.Printf("store: encode collection %q: %v", name, err)
		return false
	}
	tmp := db.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("store: write collection %q: %v", name, err)
		return false
	}
	if err := os.Rename(tmp, db.path(name)); err != nil {
		log.Printf("store: rename collection %q: %v", name, err)
		return false
	}
	return true
}

type fileStore struct {
	db   *FileDB
	name string
}

func (s *fileStore) Get(key string) Document {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll, ok := s.db.read(s.name)
	if !ok {
		return nil
	}
	doc, ok := coll[key]
	if !ok {
		return nil
	}
	return stripKey(doc)
}

func (s *fileStore) GetMany(key string) []Document {
	if doc := s.Get(key); doc != nil {
		return []Document{doc}
	}
	return nil
}

func (s *fileStore) GetAll() []Document {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll, ok := s.db.read(s.name)
	if !ok {
		return nil
	}
	out := make([]Document, 0, len(coll))
	for _, doc := range coll {
		out = append(out, stripKey(doc))
	}
	return out
}

func (s *fileStore) Keys() []string {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll, ok := s.db.read(s.name)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(coll))
	for key := range coll {
		out = append(out, key)
	}
	return out
}

func (s *fileStore) Query(filter map[string]any) []Document {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll, ok := s.db.read(s.name)
	if !ok {
		return nil
	}
	var out []Document
	for _, doc := range coll {
		if matches(doc, filter) {
			out = append(out, stripKey(doc))
		}
	}
	return out
}

func (s *fileStore) Insert(value Document, key string) bool {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll, ok := s.db.read(s.name)
	if !ok {
		return false
	}
	if _, exists := coll[key]; exists {
		log.Printf("store: insert into %q: key %q exists", s.name, key)
		return false
	}
	coll[key] = stamp(value, key)
	return s.db.write(s.name, coll)
}

func (s *fileStore) Upsert(value Document, key string) bool {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll, ok := s.db.read(s.name)
	if !ok {
		return false
	}
	coll[key] = stamp(value, key)
	return s.db.write(s.name, coll)
}

func (s *fileStore) Delete(key string) bool {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll, ok := s.db.read(s.name)
	if !ok {
		return false
	}
	if _, exists := coll[key]; !exists {
		return false
	}
	delete(coll, key)
	return s.db.write(s.name, coll)
}

func (s *fileStore) DeleteMany(keys []string) []bool {
	out := make([]bool, len(keys))
	for i, key := range keys {
		out[i] = s.Delete(key)
	}
	return out
}
