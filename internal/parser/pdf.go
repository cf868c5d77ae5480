package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/docqa/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor reads PDFs page by page. Each page is tried against an
// ordered list of strategies and the first non-empty result is kept.
// Pages with no text are skipped and the rest are numbered from 1.
type PDFExtractor struct {
	FallbackPdftotext bool
	Log               *slog.Logger
}

func (p *PDFExtractor) Name() string { return "pdf" }

func (p *PDFExtractor) Match(filename, mimeType string) bool {
	return IsPDF(filename, mimeType)
}

// pageStrategy extracts the text of one 1-based page.
type pageStrategy interface {
	Name() string
	PageText(ctx context.Context, n int) (string, error)
}

func (p *PDFExtractor) Extract(ctx context.Context, data []byte, mimeType string) []document.Page {
	if len(data) == 0 {
		return nil
	}
	reader, err := openPDF(data)
	if err != nil {
		p.logger().Warn("open pdf failed", "error", err)
		return nil
	}

	strategies := []pageStrategy{
		&plainTextStrategy{reader: reader},
		&rowTextStrategy{reader: reader},
	}
	if p.FallbackPdftotext {
		layout := &pdftotextStrategy{data: data}
		defer layout.cleanup()
		strategies = append(strategies, layout)
	}

	var pages []document.Page
	for n := 1; n <= reader.NumPage(); n++ {
		if ctx.Err() != nil {
			break
		}
		text := p.pageText(ctx, strategies, n)
		if text == "" {
			continue
		}
		pages = append(pages, document.Page{Number: len(pages) + 1, Text: text})
	}
	return pages
}

func (p *PDFExtractor) pageText(ctx context.Context, strategies []pageStrategy, n int) string {
	for _, s := range strategies {
		text, err := safePageText(ctx, s, n)
		if err != nil {
			p.logger().Warn("pdf page strategy failed", "strategy", s.Name(), "page", n, "error", err)
			continue
		}
		if text = document.Clean(text); text != "" {
			return text
		}
	}
	return ""
}

func (p *PDFExtractor) logger() *slog.Logger {
	if p.Log == nil {
		return slog.Default()
	}
	return p.Log
}

func openPDF(data []byte) (reader *pdflib.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reader, err = nil, fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()
	return pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
}

func safePageText(ctx context.Context, s pageStrategy, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("panic: %v", rec)
		}
	}()
	return s.PageText(ctx, n)
}

// plainTextStrategy uses the content-stream text of the page.
type plainTextStrategy struct {
	reader *pdflib.Reader
}

func (s *plainTextStrategy) Name() string { return "plain" }

func (s *plainTextStrategy) PageText(_ context.Context, n int) (string, error) {
	page := s.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// rowTextStrategy rebuilds the page from positioned text grouped into rows.
type rowTextStrategy struct {
	reader *pdflib.Reader
}

func (s *rowTextStrategy) Name() string { return "rows" }

func (s *rowTextStrategy) PageText(_ context.Context, n int) (string, error) {
	page := s.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			buf.WriteString(word.S)
		}
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// pdftotextStrategy shells out to poppler's pdftotext in layout mode.
type pdftotextStrategy struct {
	data    []byte
	path    string
	missing bool
}

func (s *pdftotextStrategy) Name() string { return "pdftotext" }

func (s *pdftotextStrategy) PageText(ctx context.Context, n int) (string, error) {
	if s.missing {
		return "", nil
	}
	if _, err := exec.LookPath("pdftotext"); err != nil {
		s.missing = true
		return "", nil
	}
	if s.path == "" {
		tmp, err := os.CreateTemp("", "docqa-pdf-*.pdf")
		if err != nil {
			return "", fmt.Errorf("create temp file: %w", err)
		}
		s.path = tmp.Name()
		if _, err := tmp.Write(s.data); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write temp file: %w", err)
		}
		tmp.Close()
	}

	page := fmt.Sprint(n)
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", page, "-l", page, s.path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func (s *pdftotextStrategy) cleanup() {
	if s.path != "" {
		os.Remove(s.path)
	}
}
