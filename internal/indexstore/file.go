package indexstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgallion1/docqa/internal/document"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps one JSON file per document. Writes go to a temp file in
// the same directory and are renamed into place, so readers see either the
// old or the new record.
type FileStore struct {
	dir   string
	log   *slog.Logger
	locks keyedMutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Save(_ context.Context, idx document.Index) error {
	if err := ValidateID(idx.DocumentID); err != nil {
		return err
	}
	if idx.Pages == nil {
		idx.Pages = []document.Page{}
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	unlock := s.locks.lock(idx.DocumentID)
	defer unlock()

	tmp, err := os.CreateTemp(s.dir, "."+idx.DocumentID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(idx.DocumentID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename index: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, id string) (document.Index, error) {
	if err := ValidateID(id); err != nil {
		return document.Index{}, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return document.Index{DocumentID: id}, nil
	}
	if err != nil {
		return document.Index{}, fmt.Errorf("read index: %w", err)
	}

	var idx document.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		s.log.Warn("corrupt index record", "document_id", id, "error", err)
		return document.Index{DocumentID: id}, nil
	}
	idx.DocumentID = id
	return idx, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	unlock := s.locks.lock(id)
	defer unlock()

	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete index: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// keyedMutex serializes writers per key; different keys never contend.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
