package store

import (
	"database/sql"
	"fmt"

	"github.com/orchestria/corpus/internal/chunk"
)

// AddChunks bulk-inserts chunks inside one transaction, preserving
// their chunk_index ordering. The owning documents must already exist.
func (s *Store) AddChunks(chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO chunks (chunk_id, doc_id, chunk_index, text, page_number, section_title)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		_, err := stmt.Exec(c.ID(), c.DocID, c.ChunkIndex, c.Text, c.PageNumber, nullableString(c.SectionTitle))
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID(), err)
		}
	}

	return tx.Commit()
}

// GetChunk retrieves a chunk by its id. Returns (nil, nil) when no
// chunk with that id exists.
func (s *Store) GetChunk(chunkID string) (*chunk.Chunk, error) {
	row := s.db.QueryRow(`
		SELECT doc_id, chunk_index, text, page_number, section_title
		FROM chunks WHERE chunk_id = ?
	`, chunkID)
	return scanChunk(row)
}

// ChunksByDoc returns all chunks of a document ordered by chunk_index.
func (s *Store) ChunksByDoc(docID string) ([]chunk.Chunk, error) {
	rows, err := s.db.Query(`
		SELECT doc_id, chunk_index, text, page_number, section_title
		FROM chunks WHERE doc_id = ? ORDER BY chunk_index
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("listing chunks for %s: %w", docID, err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// ListChunks returns every chunk, ordered by doc_id then chunk_index.
func (s *Store) ListChunks() ([]chunk.Chunk, error) {
	rows, err := s.db.Query(`
		SELECT doc_id, chunk_index, text, page_number, section_title
		FROM chunks ORDER BY doc_id, chunk_index
	`)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// CountChunks returns the total number of stored chunks.
func (s *Store) CountChunks() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

func scanChunk(sc scanner) (*chunk.Chunk, error) {
	var c chunk.Chunk
	var pageNumber sql.NullInt64
	var sectionTitle sql.NullString

	err := sc.Scan(&c.DocID, &c.ChunkIndex, &c.Text, &pageNumber, &sectionTitle)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if pageNumber.Valid {
		c.PageNumber = int(pageNumber.Int64)
	}
	c.SectionTitle = sectionTitle.String
	return &c, nil
}

func scanChunks(rows *sql.Rows) ([]chunk.Chunk, error) {
	var chunks []chunk.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		if c != nil {
			chunks = append(chunks, *c)
		}
	}
	return chunks, rows.Err()
}
