// Package app wires the configured components together for the binaries.
package app

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/generate"
	"github.com/dgallion1/docqa/internal/indexstore"
	"github.com/dgallion1/docqa/internal/parser"
	"github.com/dgallion1/docqa/internal/pipeline"
	"github.com/dgallion1/docqa/internal/qa"
)

// App holds the long-lived components shared by the server and the CLI.
type App struct {
	Config       config.Config
	Store        indexstore.Store
	Client       *generate.Client
	Registry     *parser.Registry
	Orchestrator *pipeline.Orchestrator
	Synthesizer  *qa.Synthesizer
}

// New builds an App from a validated configuration.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	store, err := indexstore.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	return NewWithStore(cfg, store, generate.New(cfg, log), log), nil
}

// NewWithStore builds an App over an existing store and client. client may be nil.
func NewWithStore(cfg config.Config, store indexstore.Store, client *generate.Client, log *slog.Logger) *App {
	var gen generate.Generator
	if client != nil {
		gen = client
	}
	chunk := chunker.DefaultConfig()
	if cfg.ChunkSize > 0 {
		chunk.ChunkSize = cfg.ChunkSize
	}
	registry := parser.NewRegistry(parser.Options{
		Chunk:             chunk,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	}, gen, log)

	return &App{
		Config:       cfg,
		Store:        store,
		Client:       client,
		Registry:     registry,
		Orchestrator: pipeline.NewOrchestrator(registry, store, log),
		Synthesizer: qa.NewSynthesizer(store, gen, log, qa.Options{
			TopK:              cfg.TopK,
			SummaryInputChars: cfg.SummaryInputChars,
		}),
	}
}

// Close releases the store and the generation client.
func (a *App) Close() error {
	a.Client.Close()
	return a.Store.Close()
}
