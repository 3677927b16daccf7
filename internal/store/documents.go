package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// DocumentMetadata is the descriptive record for one corpus document.
// Fields unknown at creation time stay at their zero value.
type DocumentMetadata struct {
	DocID            string `json:"doc_id"`
	Filepath         string `json:"filepath"`
	Filename         string `json:"filename"`
	Title            string `json:"title,omitempty"`
	Authors          string `json:"authors,omitempty"`
	Year             int    `json:"year,omitempty"`
	Language         string `json:"language,omitempty"`
	DocType          string `json:"doc_type,omitempty"`
	PageCount        int    `json:"page_count,omitempty"`
	TokenCount       int    `json:"token_count,omitempty"`
	CharCount        int    `json:"char_count,omitempty"`
	WordCount        int    `json:"word_count,omitempty"`
	ExtractionMethod string `json:"extraction_method,omitempty"`
	ExtractionStatus string `json:"extraction_status,omitempty"`
	HashBinary       string `json:"hash_binary,omitempty"`
	HashTextual      string `json:"hash_textual,omitempty"`

	// Citation support
	Journal      string `json:"journal,omitempty"`
	Volume       string `json:"volume,omitempty"`
	Issue        string `json:"issue,omitempty"`
	PagesRange   string `json:"pages_range,omitempty"`
	DOI          string `json:"doi,omitempty"`
	Publisher    string `json:"publisher,omitempty"`
	APAReference string `json:"apa_reference,omitempty"`

	// Enrichment processing status (e.g. GROBID pass)
	GrobidStatus string `json:"grobid_status,omitempty"`
}

// selectDocFields is the standard field list for document SELECTs.
const selectDocFields = `doc_id, filepath, filename, title, authors, year,
	language, doc_type, page_count, token_count, char_count, word_count,
	extraction_method, extraction_status, hash_binary, hash_textual,
	journal, volume, issue, pages_range, doi, publisher, apa_reference,
	grobid_status`

// AddDocument inserts or updates a document record keyed by doc_id.
// Re-adding an existing id rewrites its fields in place; chunks the
// document owns survive, only DeleteDocument cascades onto them.
func (s *Store) AddDocument(doc DocumentMetadata) error {
	if doc.DocID == "" {
		return fmt.Errorf("doc_id is required")
	}

	_, err := s.db.Exec(`
		INSERT INTO documents (
			doc_id, filepath, filename, title, authors, year,
			language, doc_type, page_count, token_count, char_count, word_count,
			extraction_method, extraction_status, hash_binary, hash_textual,
			journal, volume, issue, pages_range, doi, publisher, apa_reference,
			grobid_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			filepath = excluded.filepath,
			filename = excluded.filename,
			title = excluded.title,
			authors = excluded.authors,
			year = excluded.year,
			language = excluded.language,
			doc_type = excluded.doc_type,
			page_count = excluded.page_count,
			token_count = excluded.token_count,
			char_count = excluded.char_count,
			word_count = excluded.word_count,
			extraction_method = excluded.extraction_method,
			extraction_status = excluded.extraction_status,
			hash_binary = excluded.hash_binary,
			hash_textual = excluded.hash_textual,
			journal = excluded.journal,
			volume = excluded.volume,
			issue = excluded.issue,
			pages_range = excluded.pages_range,
			doi = excluded.doi,
			publisher = excluded.publisher,
			apa_reference = excluded.apa_reference,
			grobid_status = excluded.grobid_status
	`,
		doc.DocID, doc.Filepath, doc.Filename,
		nullableString(doc.Title), nullableString(doc.Authors), nullableInt(doc.Year),
		nullableString(doc.Language), nullableString(doc.DocType),
		doc.PageCount, doc.TokenCount, doc.CharCount, doc.WordCount,
		nullableString(doc.ExtractionMethod), nullableString(doc.ExtractionStatus),
		nullableString(doc.HashBinary), nullableString(doc.HashTextual),
		nullableString(doc.Journal), nullableString(doc.Volume), nullableString(doc.Issue),
		nullableString(doc.PagesRange), nullableString(doc.DOI), nullableString(doc.Publisher),
		nullableString(doc.APAReference), nullableString(doc.GrobidStatus),
	)
	if err != nil {
		return fmt.Errorf("inserting document %s: %w", doc.DocID, err)
	}
	return nil
}

// GetDocument retrieves a document by id. Returns (nil, nil) when no
// document with that id exists.
func (s *Store) GetDocument(docID string) (*DocumentMetadata, error) {
	row := s.db.QueryRow(`SELECT `+selectDocFields+` FROM documents WHERE doc_id = ?`, docID)
	return scanDocument(row)
}

// ListDocuments returns all documents ordered by doc_id.
func (s *Store) ListDocuments() ([]DocumentMetadata, error) {
	rows, err := s.db.Query(`SELECT ` + selectDocFields + ` FROM documents ORDER BY doc_id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// DocumentUpdate carries partial field updates for UpdateDocument.
// Zero-valued fields are left unchanged.
type DocumentUpdate struct {
	Title        string
	Authors      string
	Year         int
	Language     string
	DocType      string
	Journal      string
	Volume       string
	Issue        string
	PagesRange   string
	DOI          string
	Publisher    string
	APAReference string
	GrobidStatus string
}

// UpdateDocument applies the non-zero fields of upd to the document.
// Updating an unknown id, or passing an empty update, is a no-op.
func (s *Store) UpdateDocument(docID string, upd DocumentUpdate) error {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if upd.Title != "" {
		add("title", upd.Title)
	}
	if upd.Authors != "" {
		add("authors", upd.Authors)
	}
	if upd.Year != 0 {
		add("year", upd.Year)
	}
	if upd.Language != "" {
		add("language", upd.Language)
	}
	if upd.DocType != "" {
		add("doc_type", upd.DocType)
	}
	if upd.Journal != "" {
		add("journal", upd.Journal)
	}
	if upd.Volume != "" {
		add("volume", upd.Volume)
	}
	if upd.Issue != "" {
		add("issue", upd.Issue)
	}
	if upd.PagesRange != "" {
		add("pages_range", upd.PagesRange)
	}
	if upd.DOI != "" {
		add("doi", upd.DOI)
	}
	if upd.Publisher != "" {
		add("publisher", upd.Publisher)
	}
	if upd.APAReference != "" {
		add("apa_reference", upd.APAReference)
	}
	if upd.GrobidStatus != "" {
		add("grobid_status", upd.GrobidStatus)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, docID)
	_, err := s.db.Exec(`UPDATE documents SET `+strings.Join(sets, ", ")+` WHERE doc_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating document %s: %w", docID, err)
	}
	return nil
}

// DeleteDocument removes a document and, through the foreign key
// cascade, all chunks it owns. Deleting an unknown id is a no-op.
func (s *Store) DeleteDocument(docID string) error {
	if _, err := s.db.Exec(`DELETE FROM index_meta WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("deleting index metadata for %s: %w", docID, err)
	}
	if _, err := s.db.Exec(`DELETE FROM documents WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("deleting document %s: %w", docID, err)
	}
	return nil
}

// DocumentFilter restricts document searches. Zero-valued fields
// impose no constraint; set fields combine with AND.
type DocumentFilter struct {
	Language string
	DocType  string
	YearMin  int
	YearMax  int
}

// IsZero reports whether the filter imposes no constraint at all.
func (f DocumentFilter) IsZero() bool {
	return f == DocumentFilter{}
}

// whereClause builds the WHERE fragment and arguments for the filter.
func (f DocumentFilter) whereClause() (string, []interface{}) {
	clauses := []string{"1=1"}
	var args []interface{}

	if f.Language != "" {
		clauses = append(clauses, "language = ?")
		args = append(args, f.Language)
	}
	if f.DocType != "" {
		clauses = append(clauses, "doc_type = ?")
		args = append(args, f.DocType)
	}
	if f.YearMin != 0 {
		clauses = append(clauses, "year >= ?")
		args = append(args, f.YearMin)
	}
	if f.YearMax != 0 {
		clauses = append(clauses, "year <= ?")
		args = append(args, f.YearMax)
	}

	return strings.Join(clauses, " AND "), args
}

// SearchDocuments returns documents matching every set filter field.
func (s *Store) SearchDocuments(filter DocumentFilter) ([]DocumentMetadata, error) {
	where, args := filter.whereClause()

	rows, err := s.db.Query(`SELECT `+selectDocFields+` FROM documents WHERE `+where+` ORDER BY doc_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// DocIDsByFilter returns only the ids of matching documents. Used as a
// cheap prefilter before vector search.
func (s *Store) DocIDsByFilter(filter DocumentFilter) ([]string, error) {
	where, args := filter.whereClause()

	rows, err := s.db.Query(`SELECT doc_id FROM documents WHERE `+where+` ORDER BY doc_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering doc ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountDocuments returns the total number of documents.
func (s *Store) CountDocuments() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(sc scanner) (*DocumentMetadata, error) {
	var doc DocumentMetadata
	var title, authors, language, docType sql.NullString
	var extractionMethod, extractionStatus, hashBinary, hashTextual sql.NullString
	var journal, volume, issue, pagesRange, doi, publisher, apaReference, grobidStatus sql.NullString
	var year sql.NullInt64

	err := sc.Scan(
		&doc.DocID, &doc.Filepath, &doc.Filename, &title, &authors, &year,
		&language, &docType, &doc.PageCount, &doc.TokenCount, &doc.CharCount, &doc.WordCount,
		&extractionMethod, &extractionStatus, &hashBinary, &hashTextual,
		&journal, &volume, &issue, &pagesRange, &doi, &publisher, &apaReference,
		&grobidStatus,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	doc.Title = title.String
	doc.Authors = authors.String
	doc.Language = language.String
	doc.DocType = docType.String
	doc.ExtractionMethod = extractionMethod.String
	doc.ExtractionStatus = extractionStatus.String
	doc.HashBinary = hashBinary.String
	doc.HashTextual = hashTextual.String
	doc.Journal = journal.String
	doc.Volume = volume.String
	doc.Issue = issue.String
	doc.PagesRange = pagesRange.String
	doc.DOI = doi.String
	doc.Publisher = publisher.String
	doc.APAReference = apaReference.String
	doc.GrobidStatus = grobidStatus.String
	if year.Valid {
		doc.Year = int(year.Int64)
	}

	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]DocumentMetadata, error) {
	var docs []DocumentMetadata
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			docs = append(docs, *doc)
		}
	}
	return docs, rows.Err()
}

// nullableString converts a string to sql.NullString, treating empty as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableInt converts an int to sql.NullInt64, treating zero as NULL.
func nullableInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
