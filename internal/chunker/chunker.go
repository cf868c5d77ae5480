package chunker

import (
	"strings"
	"unicode"

	"github.com/dgallion1/docqa/internal/document"
)

// DefaultChunkSize is the page size, in characters, used for unpaginated text.
const DefaultChunkSize = 2500

// Config controls chunking behavior.
type Config struct {
	ChunkSize int // Characters per page.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{ChunkSize: DefaultChunkSize}
}

// Paginate splits a long cleaned string into contiguous, non-overlapping
// pages of cfg.ChunkSize characters. Pages that are blank after trimming are
// dropped and the survivors are numbered 1..N.
func Paginate(text string, cfg Config) []document.Page {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var pages []document.Page
	for start := 0; start < len(runes); start += cfg.ChunkSize {
		end := start + cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		part := string(runes[start:end])
		if strings.TrimSpace(part) == "" {
			continue
		}
		pages = append(pages, document.Page{
			Number: len(pages) + 1,
			Text:   part,
		})
	}
	return pages
}

// Sentences splits text after '.', '!' or '?' when followed by whitespace.
// The terminal punctuation stays with its sentence; empty pieces are dropped.
func Sentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
