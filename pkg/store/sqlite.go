package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	key TEXT NOT NULL,
	doc TEXT NOT NULL,
	PRIMARY KEY (collection, key)
);
`

// SQLiteDB is a document store backed by a single SQLite file. Documents are
// kept as JSON in one table keyed by (collection, key); the per-key upsert is
// atomic at the storage layer.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the database at dbPath.
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	if _, err := db.Exec(createDocumentsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store db: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

// Collection returns a Store scoped to the named collection.
func (db *SQLiteDB) Collection(name string) Store {
	return &sqliteStore{db: db.db, name: name}
}

// Close releases the database connection.
func (db *SQLiteDB) Close() error {
	return db.db.Close()
}

type sqliteStore struct {
	db   *sql.DB
	name string
}

func (s *sqliteStore) Get(key string) Document {
	var raw string
	err := s.db.QueryRow(
		`SELECT doc FROM documents WHERE collection = ? AND key = ?`, s.name, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		log.Printf("store: get %q from %q: %v", key, s.name, err)
		return nil
	}
	return s.decode(raw)
}

func (s *sqliteStore) GetMany(key string) []Document {
	if doc := s.Get(key); doc != nil {
		return []Document{doc}
	}
	return nil
}

func (s *sqliteStore) GetAll() []Document {
	return s.scan(`SELECT doc FROM documents WHERE collection = ?`, s.name)
}

func (s *sqliteStore) Keys() []string {
	rows, err := s.db.Query(`SELECT key FROM documents WHERE collection = ?`, s.name)
	if err != nil {
		log.Printf("store: list keys in %q: %v", s.name, err)
		return nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			log.Printf("store: scan key in %q: %v", s.name, err)
			return out
		}
		out = append(out, key)
	}
	return out
}

// Query loads the collection and filters in-process so dotted-path equality
// behaves identically across backends.
func (s *sqliteStore) Query(filter map[string]any) []Document {
	var out []Document
	rows, err := s.db.Query(`SELECT doc FROM documents WHERE collection = ?`, s.name)
	if err != nil {
		log.Printf("store: query %q: %v", s.name, err)
		return nil
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			log.Printf("store: scan %q: %v", s.name, err)
			return out
		}
		var doc Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			log.Printf("store: decode document in %q: %v", s.name, err)
			continue
		}
		if matches(doc, filter) {
			out = append(out, stripKey(doc))
		}
	}
	return out
}

func (s *sqliteStore) Insert(value Document, key string) bool {
	raw, ok := s.encode(stamp(value, key), key)
	if !ok {
		return false
	}
	_, err := s.db.Exec(
		`INSERT INTO documents (collection, key, doc) VALUES (?, ?, ?)`,
		s.name, key, raw,
	)
	if err != nil {
		log.Printf("store: insert %q into %q: %v", key, s.name, err)
		return false
	}
	return true
}

func (s *sqliteStore) Upsert(value Document, key string) bool {
	raw, ok := s.encode(stamp(value, key), key)
	if !ok {
		return false
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO documents (collection, key, doc) VALUES (?, ?, ?)`,
		s.name, key, raw,
	)
	if err != nil {
		log.Printf("store: upsert %q into %q: %v", key, s.name, err)
		return false
	}
	return true
}

func (s *sqliteStore) Delete(key string) bool {
	res, err := s.db.Exec(`DELETE FROM documents WHERE collection = ? AND key = ?`, s.name, key)
	if err != nil {
		log.Printf("store: delete %q from %q: %v", key, s.name, err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *sqliteStore) DeleteMany(keys []string) []bool {
	out := make([]bool, len(keys))
	for i, key := range keys {
		out[i] = s.Delete(key)
	}
	return out
}

func (s *sqliteStore) scan(query string, args ...any) []Document {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Printf("store: query %q: %v", s.name, err)
		return nil
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			log.Printf("store: scan %q: %v", s.name, err)
			return out
		}
		if doc := s.decode(raw); doc != nil {
			out = append(out, doc)
		}
	}
	return out
}

func (s *sqliteStore) decode(raw string) Document {
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		log.Printf("store: decode document in %q: %v", s.name, err)
		return nil
	}
	return stripKey(doc)
}

func (s *sqliteStore) encode(doc Document, key string) (string, bool) {
	raw, err := json.Marshal(doc)
	if err != nil {
		log.Printf("store: encode %q for %q: %v", key, s.name, err)
		return "", false
	}
	return string(raw), true
}
