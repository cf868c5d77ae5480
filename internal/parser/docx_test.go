package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/fixture"
)

func TestDOCXText_GeneratedDocument(t *testing.T) {
	data := fixture.DOCX("Quarterly report", "Revenue grew  by 12%.")
	if got := DOCXText(data); got != "Quarterly report Revenue grew by 12%." {
		t.Errorf("unexpected text %q", got)
	}
}

func TestDOCXText_RunsInOrder(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">wor</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell &amp; value</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:tab/><w:t></w:t></w:r></w:p>
</w:body>
</w:document>`
	data := fixture.Zip(map[string]string{"word/document.xml": body, "[Content_Types].xml": "<Types/>"})
	if got := DOCXText(data); got != "Hello wor cell & value" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestDOCXText_Failures(t *testing.T) {
	tests := map[string][]byte{
		"empty":       nil,
		"not a zip":   []byte("plain bytes"),
		"no body":     fixture.Zip(map[string]string{"word/other.xml": "<a/>"}),
		"invalid xml": fixture.Zip(map[string]string{"word/document.xml": "<w:t>unterminated"}),
	}
	for name, data := range tests {
		if got := DOCXText(data); got != "" {
			t.Errorf("%s: expected empty text, got %q", name, got)
		}
	}
}

func TestDOCXExtractor_Paginates(t *testing.T) {
	p := &DOCXExtractor{Chunk: chunker.Config{ChunkSize: 100}}
	data := fixture.DOCX(strings.Repeat("a", 150), strings.Repeat("b", 30))
	pages := p.Extract(context.Background(), data, "")
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("unexpected numbering %d, %d", pages[0].Number, pages[1].Number)
	}
}
