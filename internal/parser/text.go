package parser

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/document"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// TextExtractor decodes bytes as text and paginates the cleaned result. With
// no Extensions it matches every document.
type TextExtractor struct {
	Chunk      chunker.Config
	Extensions map[string]bool
}

func (p *TextExtractor) Name() string {
	if p.Extensions == nil {
		return "generic"
	}
	return "text"
}

func (p *TextExtractor) Match(filename, _ string) bool {
	if p.Extensions == nil {
		return true
	}
	return p.Extensions[Ext(filename)]
}

func (p *TextExtractor) Extract(_ context.Context, data []byte, _ string) []document.Page {
	return chunker.Paginate(document.Clean(DecodeText(data)), p.Chunk)
}

// DecodeText decodes data trying UTF-8, then UTF-16 (BOM-aware, little
// endian otherwise), then Latin-1, which always succeeds.
func DecodeText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff")
	}
	if s, ok := decodeUTF16(data); ok {
		return s
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return ""
	}
	return string(s)
}

func decodeUTF16(data []byte) (string, bool) {
	if len(data)%2 != 0 {
		return "", false
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return "", false
	}
	s := string(out)
	if strings.ContainsRune(s, utf8.RuneError) {
		return "", false
	}
	return s, true
}
