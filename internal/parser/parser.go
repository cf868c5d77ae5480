// Package parser converts raw document bytes into ordered pages.
//
// Extractors never fail: any internal error, including a panic inside a
// third-party decoder, yields an empty page sequence.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/generate"
)

// Extractor converts one family of documents into pages.
type Extractor interface {
	Name() string
	Match(filename, mimeType string) bool
	Extract(ctx context.Context, data []byte, mimeType string) []document.Page
}

// Options configures the default extractors.
type Options struct {
	Chunk             chunker.Config
	FallbackPdftotext bool
}

// Registry dispatches documents to the first matching extractor.
type Registry struct {
	extractors []Extractor
	log        *slog.Logger
}

// NewRegistry returns a registry with the default extractors in dispatch
// order: PDF, DOCX, image, known text extensions, then a catch-all decoder.
func NewRegistry(opts Options, gen generate.Generator, log *slog.Logger) *Registry {
	r := &Registry{log: log}
	r.Register(&PDFExtractor{FallbackPdftotext: opts.FallbackPdftotext, Log: log})
	r.Register(&DOCXExtractor{Chunk: opts.Chunk})
	r.Register(&ImageExtractor{Gen: gen, Log: log})
	r.Register(&TextExtractor{Chunk: opts.Chunk, Extensions: TextExtensions})
	r.Register(&TextExtractor{Chunk: opts.Chunk})
	return r
}

// Register appends an extractor. Earlier registrations win.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// For returns the first extractor matching the filename or mime type, or nil.
func (r *Registry) For(filename, mimeType string) Extractor {
	for _, e := range r.extractors {
		if e.Match(filename, mimeType) {
			return e
		}
	}
	return nil
}

// Extract dispatches and runs the matching extractor. It returns the
// extractor name alongside the pages.
func (r *Registry) Extract(ctx context.Context, data []byte, filename, mimeType string) (string, []document.Page) {
	e := r.For(filename, mimeType)
	if e == nil {
		return "", nil
	}
	return e.Name(), r.safeExtract(ctx, e, data, mimeType)
}

func (r *Registry) safeExtract(ctx context.Context, e Extractor, data []byte, mimeType string) (pages []document.Page) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger().Error("extractor panic", "extractor", e.Name(), "panic", fmt.Sprint(rec))
			pages = nil
		}
	}()
	return e.Extract(ctx, data, mimeType)
}

func (r *Registry) logger() *slog.Logger {
	if r.log == nil {
		return slog.Default()
	}
	return r.log
}

// TextExtensions are the extensions treated as plain text.
var TextExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
	".py":   true,
	".js":   true,
	".ts":   true,
	".html": true,
	".css":  true,
	".xml":  true,
	".yaml": true,
	".yml":  true,
	".log":  true,
}

// ImageExtensions are the extensions treated as raster images.
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
}

// Ext returns the lowercased filename extension including the dot.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func normalizeMIME(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// IsPDF reports whether the document belongs to the PDF family.
func IsPDF(filename, mimeType string) bool {
	return Ext(filename) == ".pdf" || strings.Contains(normalizeMIME(mimeType), "pdf")
}

// IsDOCX reports whether the document belongs to the DOCX family.
func IsDOCX(filename, mimeType string) bool {
	return Ext(filename) == ".docx" || strings.Contains(normalizeMIME(mimeType), "wordprocessingml")
}

// IsImage reports whether the document is a raster image.
func IsImage(filename, mimeType string) bool {
	return strings.HasPrefix(normalizeMIME(mimeType), "image/") || ImageExtensions[Ext(filename)]
}

// IsText reports whether the document is plain text by mime type or extension.
func IsText(filename, mimeType string) bool {
	return strings.HasPrefix(normalizeMIME(mimeType), "text/") || TextExtensions[Ext(filename)]
}
