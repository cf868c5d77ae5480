package indexstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dgallion1/docqa/internal/document"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps indexes in a single SQLite table. Each save is one
// upsert statement, which SQLite commits atomically.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS document_indexes (
	document_id TEXT PRIMARY KEY,
	filename    TEXT NOT NULL DEFAULT '',
	mime_type   TEXT NOT NULL DEFAULT '',
	pages       TEXT NOT NULL,
	updated_at  DATETIME NOT NULL
)`

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, idx document.Index) error {
	if err := ValidateID(idx.DocumentID); err != nil {
		return err
	}
	if idx.Pages == nil {
		idx.Pages = []document.Page{}
	}
	pagesJSON, err := json.Marshal(idx.Pages)
	if err != nil {
		return fmt.Errorf("marshal pages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO document_indexes (document_id, filename, mime_type, pages, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			filename = excluded.filename,
			mime_type = excluded.mime_type,
			pages = excluded.pages,
			updated_at = excluded.updated_at
	`, idx.DocumentID, idx.Filename, idx.MIMEType, string(pagesJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (document.Index, error) {
	if err := ValidateID(id); err != nil {
		return document.Index{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT filename, mime_type, pages FROM document_indexes WHERE document_id = ?
	`, id)

	idx := document.Index{DocumentID: id}
	var pagesJSON string
	if err := row.Scan(&idx.Filename, &idx.MIMEType, &pagesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.Index{DocumentID: id}, nil
		}
		return document.Index{}, fmt.Errorf("scanning index: %w", err)
	}
	if err := json.Unmarshal([]byte(pagesJSON), &idx.Pages); err != nil {
		s.log.Warn("corrupt index record", "document_id", id, "error", err)
		return document.Index{DocumentID: id}, nil
	}
	return idx, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM document_indexes WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
