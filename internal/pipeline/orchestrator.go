package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/indexstore"
	"github.com/dgallion1/docqa/internal/parser"
)

// Orchestrator turns uploaded bytes into a stored page index.
type Orchestrator struct {
	registry *parser.Registry
	store    indexstore.Store
	log      *slog.Logger
}

// NewOrchestrator creates an orchestrator over a registry and a store.
func NewOrchestrator(registry *parser.Registry, store indexstore.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{registry: registry, store: store, log: log}
}

// Index extracts the document, replaces any stored index for documentID and
// returns the page count. Zero pages means nothing usable was extracted;
// that is not an error. Only invalid ids and storage failures are errors.
func (o *Orchestrator) Index(ctx context.Context, documentID string, data []byte, filename, mimeType string) (int, error) {
	if err := indexstore.ValidateID(documentID); err != nil {
		return 0, err
	}
	log := o.log.With("document_id", documentID, "filename", filename, "mime_type", mimeType)

	start := time.Now()
	extractor, pages := o.extract(ctx, log, data, filename, mimeType)

	idx := document.Index{
		DocumentID: documentID,
		Filename:   filename,
		MIMEType:   mimeType,
		Pages:      pages,
	}
	if err := o.store.Save(ctx, idx); err != nil {
		log.Error("save index failed", "error", err)
		return 0, fmt.Errorf("save index: %w", err)
	}

	if len(pages) == 0 {
		log.Warn("no pages extracted", "extractor", extractor, "bytes", len(data))
	} else {
		log.Info("document indexed",
			"extractor", extractor,
			"pages", len(pages),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return len(pages), nil
}

// Delete removes the stored index for documentID.
func (o *Orchestrator) Delete(ctx context.Context, documentID string) error {
	if err := o.store.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	return nil
}

func (o *Orchestrator) extract(ctx context.Context, log *slog.Logger, data []byte, filename, mimeType string) (extractor string, pages []document.Page) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("extraction panic", "extractor", extractor, "panic", fmt.Sprint(rec))
			pages = nil
		}
	}()
	if len(data) == 0 {
		return "", nil
	}

	extractor, raw := o.registry.Extract(ctx, data, filename, mimeType)
	for _, p := range raw {
		if strings.TrimSpace(p.Text) != "" {
			p.Number = len(pages) + 1
			pages = append(pages, p)
		}
	}
	return extractor, pages
}
