package qa

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/generate"
)

// FallbackSummaryMarker identifies summaries built without the collaborator.
const FallbackSummaryMarker = "This summary was generated from extracted text because AI summary was unavailable."

const fallbackSummaryChars = 1600

// Summary is a document summary and where it came from.
type Summary struct {
	Text      string
	Generated bool
}

// Summarize summarizes an indexed document. It reports false when the
// document has no usable text.
func (s *Synthesizer) Summarize(ctx context.Context, documentID, label string) (Summary, bool, error) {
	idx, err := s.store.Load(ctx, documentID)
	if err != nil {
		return Summary{}, false, fmt.Errorf("load index: %w", err)
	}

	var chunks []string
	for _, p := range idx.Pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			chunks = append(chunks, t)
		}
	}
	if len(chunks) == 0 {
		return Summary{}, false, nil
	}
	if label == "" {
		label = idx.Filename
	}

	if s.gen != nil {
		req := generate.SummaryRequest{DocumentLabel: label, Chunks: capChunks(chunks, s.opts.SummaryInputChars)}
		if reply, ok := s.gen.Summarize(ctx, req); ok {
			if normalized, ok := NormalizeSummary(reply); ok {
				return Summary{Text: normalized, Generated: true}, true, nil
			}
			s.log.Warn("summary reply missing required sections", "document_id", documentID)
		}
	}

	text, ok := FallbackSummary(chunks, label)
	if !ok {
		return Summary{}, false, nil
	}
	return Summary{Text: text}, true, nil
}

// FallbackSummary formats the opening of the document text as a summary.
func FallbackSummary(chunks []string, label string) (string, bool) {
	var cleaned []string
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	preview := strings.TrimSpace(document.Truncate(strings.Join(cleaned, " "), fallbackSummaryChars))
	if preview == "" {
		return "", false
	}
	if label == "" {
		label = "Document"
	}
	return "Main Topic:\n" + label + "\n\n" +
		"Key Points:\n" +
		"- " + preview + "\n\n" +
		"Important Details:\n" +
		"- " + FallbackSummaryMarker, true
}

// IsFallbackSummary reports whether a stored summary was built without the
// collaborator and should be refreshed.
func IsFallbackSummary(summary string) bool {
	return summary == "" || strings.Contains(summary, FallbackSummaryMarker)
}

func capChunks(chunks []string, limit int) []string {
	var out []string
	used := 0
	for _, c := range chunks {
		remaining := limit - used
		if remaining <= 0 {
			break
		}
		c = document.Truncate(c, remaining)
		out = append(out, c)
		used += len([]rune(c))
	}
	return out
}

type summaryLine struct {
	text    string
	heading bool
}

// NormalizeSummary checks that a collaborator reply carries the three
// section headings, as Markdown headings or "Heading:" lines, and rewrites
// it into "Heading:" blocks in canonical order.
func NormalizeSummary(reply string) (string, bool) {
	sections := make(map[string][]string, len(generate.SummaryHeadings))
	current := ""
	for _, line := range summaryLines([]byte(reply)) {
		if heading, rest, ok := matchHeading(line); ok {
			current = heading
			if _, exists := sections[current]; !exists {
				sections[current] = nil
			}
			if rest != "" {
				sections[current] = append(sections[current], rest)
			}
			continue
		}
		if current != "" && strings.TrimSpace(line.text) != "" {
			sections[current] = append(sections[current], strings.TrimSpace(line.text))
		}
	}

	hasContent := false
	for _, h := range generate.SummaryHeadings {
		lines, ok := sections[h]
		if !ok {
			return "", false
		}
		if len(lines) > 0 {
			hasContent = true
		}
	}
	if !hasContent {
		return "", false
	}

	blocks := make([]string, 0, len(generate.SummaryHeadings))
	for _, h := range generate.SummaryHeadings {
		blocks = append(blocks, h+":\n"+strings.Join(sections[h], "\n"))
	}
	return strings.Join(blocks, "\n\n"), true
}

func matchHeading(line summaryLine) (heading, rest string, ok bool) {
	t := strings.TrimSpace(line.text)
	for _, h := range generate.SummaryHeadings {
		if line.heading {
			if strings.EqualFold(strings.TrimSuffix(t, ":"), h) {
				return h, "", true
			}
			continue
		}
		if len(t) > len(h) && strings.EqualFold(t[:len(h)], h) && t[len(h)] == ':' {
			return h, strings.TrimSpace(t[len(h)+1:]), true
		}
	}
	return "", "", false
}

// summaryLines flattens a Markdown document into plain text lines, marking
// headings and rendering list items as "- item".
func summaryLines(src []byte) []summaryLine {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var lines []summaryLine
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Heading:
			lines = append(lines, summaryLine{text: plainText(node, src), heading: true})
		case *ast.Paragraph, *ast.TextBlock:
			for _, l := range strings.Split(plainText(node, src), "\n") {
				lines = append(lines, summaryLine{text: l})
			}
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				var parts []string
				for c := item.FirstChild(); c != nil; c = c.NextSibling() {
					if _, nested := c.(*ast.List); nested {
						continue
					}
					parts = append(parts, plainText(c, src))
				}
				if t := document.Clean(strings.Join(parts, " ")); t != "" {
					lines = append(lines, summaryLine{text: "- " + t})
				}
				for c := item.FirstChild(); c != nil; c = c.NextSibling() {
					if _, nested := c.(*ast.List); nested {
						walk(c)
					}
				}
			}
		case *ast.ThematicBreak:
		default:
			if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
				segs := n.Lines()
				for i := 0; i < segs.Len(); i++ {
					seg := segs.At(i)
					lines = append(lines, summaryLine{text: strings.TrimRight(string(seg.Value(src)), "\n")})
				}
				return
			}
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				walk(c)
			}
		}
	}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		walk(n)
	}
	return lines
}

// plainText gets the inline text content of a node with markup removed.
func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(plainText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
