// Package indexstore persists one paginated index per document.
//
// Load never fails for a missing or unreadable record: it returns an empty
// Index so callers treat "not indexed" and "corrupt" the same way. Only I/O
// failures on the backing medium are reported as errors.
package indexstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/document"
)

// ErrInvalidDocumentID is returned for ids that cannot safely key a record.
var ErrInvalidDocumentID = errors.New("invalid document id")

// Store is the durable home of document indexes.
type Store interface {
	// Save fully replaces any prior record for idx.DocumentID.
	Save(ctx context.Context, idx document.Index) error
	Load(ctx context.Context, documentID string) (document.Index, error)
	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, documentID string) error
	Close() error
}

var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// ValidateID checks that a document id is usable as a storage key.
func ValidateID(id string) error {
	if !validID.MatchString(id) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentID, id)
	}
	return nil
}

// Open builds the backend named by cfg.IndexBackend.
func Open(cfg config.Config, log *slog.Logger) (Store, error) {
	switch cfg.IndexBackend {
	case "file", "":
		return NewFileStore(cfg.IndexDir, log)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath, log)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}
