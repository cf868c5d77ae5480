package document

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Page is a unit of extracted text with a stable 1-based position in its document.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Index is the persisted, paginated text representation of one document.
type Index struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	MIMEType   string `json:"mime_type"`
	Pages      []Page `json:"pages"`
}

// Usable reports whether the index has any content worth retrieving from.
func (idx Index) Usable() bool {
	return len(idx.Pages) > 0
}

// ScoredPage is a ranked page. It is never persisted.
type ScoredPage struct {
	Score float64
	Page  Page
}

// Source is the externally visible projection of a ScoredPage.
type Source struct {
	Page    int     `json:"page"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// SnippetLimit is the maximum snippet length in characters.
const SnippetLimit = 1200

// Clean collapses every whitespace run to a single space and trims the ends.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns the first n characters (runes) of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ToSources projects ranked pages into sources, dropping pages whose
// truncated snippet is empty.
func ToSources(ranked []ScoredPage) []Source {
	sources := make([]Source, 0, len(ranked))
	for _, sp := range ranked {
		snippet := Clean(Truncate(sp.Page.Text, SnippetLimit))
		if snippet == "" {
			continue
		}
		sources = append(sources, Source{
			Page:    sp.Page.Number,
			Snippet: snippet,
			Score:   math.Round(sp.Score*100) / 100,
		})
	}
	return sources
}
