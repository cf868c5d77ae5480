package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/parser"
)

// Preview types.
const (
	PreviewImage       = "image"
	PreviewPDF         = "pdf"
	PreviewDOCX        = "docx"
	PreviewText        = "text"
	PreviewUnsupported = "unsupported"
)

const (
	previewPages = 8
	previewChars = 12000
)

// Preview describes how a client should render a document.
type Preview struct {
	DocumentID  string  `json:"document_id"`
	Filename    string  `json:"filename"`
	MIMEType    string  `json:"mime_type"`
	PreviewType string  `json:"preview_type"`
	Content     *string `json:"content"`
}

// PreviewType classifies a document for rendering.
func PreviewType(mimeType, filename string) string {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	ext := parser.Ext(filename)
	switch {
	case strings.HasPrefix(mime, "image/") || parser.ImageExtensions[ext]:
		return PreviewImage
	case mime == "application/pdf" || ext == ".pdf":
		return PreviewPDF
	case ext == ".docx" || strings.Contains(mime, "wordprocessingml.document"):
		return PreviewDOCX
	case strings.HasPrefix(mime, "text/") || parser.TextExtensions[ext]:
		return PreviewText
	default:
		return PreviewUnsupported
	}
}

// Preview returns the preview record of a stored document. Text documents
// carry the opening pages as content.
func (s *Synthesizer) Preview(ctx context.Context, documentID string) (Preview, error) {
	idx, err := s.store.Load(ctx, documentID)
	if err != nil {
		return Preview{}, fmt.Errorf("load index: %w", err)
	}

	mime := idx.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	p := Preview{
		DocumentID:  documentID,
		Filename:    idx.Filename,
		MIMEType:    mime,
		PreviewType: PreviewType(idx.MIMEType, idx.Filename),
	}
	if p.PreviewType == PreviewText {
		var snippets []string
		for i, page := range idx.Pages {
			if i >= previewPages {
				break
			}
			if strings.TrimSpace(page.Text) != "" {
				snippets = append(snippets, page.Text)
			}
		}
		if len(snippets) > 0 {
			content := document.Truncate(strings.Join(snippets, "\n\n"), previewChars)
			p.Content = &content
		}
	}
	return p, nil
}
