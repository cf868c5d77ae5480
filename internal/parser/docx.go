package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/document"
)

const docxBodyPart = "word/document.xml"

// DOCXExtractor reads the text runs of word/document.xml and paginates them.
type DOCXExtractor struct {
	Chunk chunker.Config
}

func (p *DOCXExtractor) Name() string { return "docx" }

func (p *DOCXExtractor) Match(filename, mimeType string) bool {
	return IsDOCX(filename, mimeType)
}

func (p *DOCXExtractor) Extract(_ context.Context, data []byte, _ string) []document.Page {
	return chunker.Paginate(DOCXText(data), p.Chunk)
}

// DOCXText returns the cleaned text of every <w:t> run in document order,
// joined by single spaces. Archive or XML failures yield "".
func DOCXText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return ""
	}

	rc, err := part.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	var runs []string
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ""
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "t" {
			continue
		}
		var run string
		if err := dec.DecodeElement(&run, &start); err != nil {
			return ""
		}
		if run != "" {
			runs = append(runs, run)
		}
	}
	return document.Clean(strings.Join(runs, " "))
}
