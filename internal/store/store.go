// Package store provides durable SQLite storage for corpus documents
// and their chunks.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding document metadata and chunks.
// A Store holds one logical connection and is not safe for
// unsynchronized concurrent use; callers own its lifetime and must
// Close it on every exit path.
type Store struct {
	db *sql.DB
}

// Open opens or creates the corpus database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	// Cascading chunk deletion relies on foreign key enforcement.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Document metadata, one row per corpus document
		CREATE TABLE IF NOT EXISTS documents (
			doc_id TEXT PRIMARY KEY,
			filepath TEXT NOT NULL,
			filename TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			year INTEGER,
			language TEXT,
			doc_type TEXT,
			page_count INTEGER,
			token_count INTEGER,
			char_count INTEGER,
			word_count INTEGER,
			extraction_method TEXT,
			extraction_status TEXT,
			hash_binary TEXT,
			hash_textual TEXT,
			journal TEXT,
			volume TEXT,
			issue TEXT,
			pages_range TEXT,
			doi TEXT,
			publisher TEXT,
			apa_reference TEXT,
			grobid_status TEXT
		);

		-- Retrieval chunks, cascade-deleted with their document
		CREATE TABLE IF NOT EXISTS chunks (
			chunk_id TEXT PRIMARY KEY,
			doc_id TEXT NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
			chunk_index INTEGER NOT NULL,
			text TEXT NOT NULL,
			page_number INTEGER,
			section_title TEXT,
			UNIQUE(doc_id, chunk_index)
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id);

		-- Per-document vector index bookkeeping for staleness checks
		CREATE TABLE IF NOT EXISTS index_meta (
			doc_id TEXT PRIMARY KEY,
			model_name TEXT NOT NULL,
			indexed_at INTEGER NOT NULL,
			text_hash TEXT NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}
