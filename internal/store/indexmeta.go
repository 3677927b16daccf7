package store

import (
	"database/sql"
	"fmt"
)

// IndexMeta records when a document's chunks were last embedded, with
// which model, and over which text. Used to detect stale index entries
// after re-ingestion or a model change.
type IndexMeta struct {
	DocID     string
	ModelName string
	IndexedAt int64 // Unix timestamp
	TextHash  string
}

// SaveIndexMeta saves or updates index metadata for a document.
func (s *Store) SaveIndexMeta(meta IndexMeta) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO index_meta (doc_id, model_name, indexed_at, text_hash)
		VALUES (?, ?, ?, ?)
	`, meta.DocID, meta.ModelName, meta.IndexedAt, meta.TextHash)
	if err != nil {
		return fmt.Errorf("saving index metadata for %s: %w", meta.DocID, err)
	}
	return nil
}

// GetIndexMeta retrieves index metadata for a document. Returns
// (nil, nil) when the document has never been indexed.
func (s *Store) GetIndexMeta(docID string) (*IndexMeta, error) {
	var meta IndexMeta
	err := s.db.QueryRow(`
		SELECT doc_id, model_name, indexed_at, text_hash
		FROM index_meta WHERE doc_id = ?
	`, docID).Scan(&meta.DocID, &meta.ModelName, &meta.IndexedAt, &meta.TextHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &meta, nil
}

// ClearIndexMeta removes all index metadata.
func (s *Store) ClearIndexMeta() error {
	_, err := s.db.Exec(`DELETE FROM index_meta`)
	return err
}

// CountIndexMeta returns the number of indexed documents.
func (s *Store) CountIndexMeta() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM index_meta`).Scan(&count)
	return count, err
}
