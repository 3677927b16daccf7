// Package vectorindex provides nearest-neighbor search over chunk
// embeddings, persisted between runs.
package vectorindex

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Errors returned by index operations.
var (
	ErrIndexNotFound      = errors.New("vector index not found")
	ErrUnsupportedVersion = errors.New("unsupported index version")
)

// CurrentVersion is the format version for compatibility checking.
// Increment this when making breaking changes to the index format.
const CurrentVersion = 1

// ChunkMeta is the per-chunk metadata kept alongside each vector.
type ChunkMeta struct {
	DocID string
}

// Index holds embeddings for all indexed chunks.
type Index struct {
	// Version is checked against CurrentVersion when loading.
	Version int

	ModelName  string
	Dimensions int
	CreatedAt  time.Time

	Vectors map[string][]float32
	Meta    map[string]ChunkMeta
}

// New creates a new empty index for the given model.
func New(modelName string, dimensions int) *Index {
	return &Index{
		Version:    CurrentVersion,
		ModelName:  modelName,
		Dimensions: dimensions,
		CreatedAt:  time.Now(),
		Vectors:    make(map[string][]float32),
		Meta:       make(map[string]ChunkMeta),
	}
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.Vectors)
}

// Upsert adds or replaces vectors for the given chunk ids. All three
// slices must be parallel.
func (idx *Index) Upsert(ids []string, vectors [][]float32, meta []ChunkMeta) error {
	if len(ids) != len(vectors) || len(ids) != len(meta) {
		return fmt.Errorf("mismatched lengths: %d ids, %d vectors, %d meta", len(ids), len(vectors), len(meta))
	}

	for i, id := range ids {
		if len(vectors[i]) != idx.Dimensions {
			return fmt.Errorf("embedding dimension mismatch for %s: got %d, want %d", id, len(vectors[i]), idx.Dimensions)
		}
		idx.Vectors[id] = vectors[i]
		idx.Meta[id] = meta[i]
	}
	return nil
}

// RemoveDoc drops every vector belonging to the given document.
// Returns the number of removed chunks.
func (idx *Index) RemoveDoc(docID string) int {
	removed := 0
	for id, m := range idx.Meta {
		if m.DocID == docID {
			delete(idx.Vectors, id)
			delete(idx.Meta, id)
			removed++
		}
	}
	return removed
}

// Save persists the index using GOB encoding, writing to a temp file
// and renaming for atomicity.
func (idx *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	enc := gob.NewEncoder(f)
	if err := enc.Encode(idx); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// Load reads an index from disk. Returns ErrIndexNotFound if the file
// doesn't exist and ErrUnsupportedVersion on a format mismatch.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var idx Index
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&idx); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}

	if idx.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, idx.Version, CurrentVersion)
	}

	if idx.Vectors == nil {
		idx.Vectors = make(map[string][]float32)
	}
	if idx.Meta == nil {
		idx.Meta = make(map[string]ChunkMeta)
	}

	return &idx, nil
}
