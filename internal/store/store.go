package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/docforge/docextract/internal/extract"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("record not found")

// Record is one persisted extraction result, keyed by auto-increment id.
type Record struct {
	ID         int64            `json:"id"`
	Filename   string           `json:"filename"`
	UploadDate time.Time        `json:"upload_date"`
	Document   extract.Document `json:"extracted_data"`
}

// Store persists extracted documents in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	filename        TEXT NOT NULL,
	upload_date     TIMESTAMP NOT NULL,
	pages           INTEGER NOT NULL,
	tables_count    INTEGER NOT NULL,
	text_length     INTEGER NOT NULL,
	raw_text        TEXT NOT NULL,
	structured_data TEXT NOT NULL,
	metadata        TEXT NOT NULL,
	tables          TEXT NOT NULL
);`

// Open opens (creating if necessary) the database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite allows a single writer; serialize access through one
	// connection instead of surfacing SQLITE_BUSY to handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("database ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create persists one extracted document and returns the stored record with
// its assigned id.
func (s *Store) Create(ctx context.Context, filename string, doc extract.Document) (Record, error) {
	structured, err := json.Marshal(doc.StructuredData)
	if err != nil {
		return Record{}, fmt.Errorf("encode structured data: %w", err)
	}
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return Record{}, fmt.Errorf("encode metadata: %w", err)
	}
	tables, err := json.Marshal(doc.Tables)
	if err != nil {
		return Record{}, fmt.Errorf("encode tables: %w", err)
	}

	uploadDate := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents
			(filename, upload_date, pages, tables_count, text_length, raw_text, structured_data, metadata, tables)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		filename, uploadDate, doc.Pages, doc.TablesCount, doc.TextLength, doc.RawText, string(structured), string(meta), string(tables))
	if err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("read insert id: %w", err)
	}

	s.logger.Info("record stored", "id", id, "filename", filename, "pages", doc.Pages)
	return Record{ID: id, Filename: filename, UploadDate: uploadDate, Document: doc}, nil
}

// List returns stored records ordered by id, with offset/limit pagination.
func (s *Store) List(ctx context.Context, offset, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+` FROM documents ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get fetches one record by id.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM documents WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return rec, err
}

// Delete removes one record by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	s.logger.Info("record deleted", "id", id)
	return nil
}

const selectColumns = `SELECT id, filename, upload_date, pages, tables_count, text_length, raw_text, structured_data, metadata, tables`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec        Record
		structured string
		meta       string
		tables     string
	)
	err := row.Scan(
		&rec.ID, &rec.Filename, &rec.UploadDate,
		&rec.Document.Pages, &rec.Document.TablesCount, &rec.Document.TextLength,
		&rec.Document.RawText, &structured, &meta, &tables)
	if err != nil {
		return Record{}, err
	}

	if err := json.Unmarshal([]byte(structured), &rec.Document.StructuredData); err != nil {
		return Record{}, fmt.Errorf("decode structured data: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &rec.Document.Metadata); err != nil {
		return Record{}, fmt.Errorf("decode metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(tables), &rec.Document.Tables); err != nil {
		return Record{}, fmt.Errorf("decode tables: %w", err)
	}
	return rec, nil
}
