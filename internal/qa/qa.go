// Package qa answers questions and builds summaries and previews from stored
// document indexes. The generation collaborator is optional; every path has
// an extractive fallback.
package qa

import (
	"log/slog"

	"github.com/dgallion1/docqa/internal/generate"
	"github.com/dgallion1/docqa/internal/indexstore"
)

// User-visible messages for terminal outcomes.
const (
	MsgNotIndexed       = "I could not find indexed content for this document yet. Please try re-uploading the document."
	MsgNoReadableBlocks = "I extracted this document, but could not find readable text blocks for your question."
	MsgCannotSummarize  = "I could not summarize this content yet."
	FallbackPrefix      = "Based on the document, here is the best available summary:"
	ClosestSectionsNote = " I used the closest available sections from the document."
)

// Options tunes a Synthesizer.
type Options struct {
	TopK              int
	SummaryInputChars int
}

// Synthesizer builds answers, summaries and previews for indexed documents.
type Synthesizer struct {
	store indexstore.Store
	gen   generate.Generator
	log   *slog.Logger
	opts  Options
}

// NewSynthesizer wires a synthesizer. gen may be nil.
func NewSynthesizer(store indexstore.Store, gen generate.Generator, log *slog.Logger, opts Options) *Synthesizer {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.SummaryInputChars <= 0 {
		opts.SummaryInputChars = 12000
	}
	return &Synthesizer{store: store, gen: gen, log: log, opts: opts}
}
