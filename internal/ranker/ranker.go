// Package ranker scores pages against a question with lexical and fuzzy
// signals and selects either the best matches or a length-based fallback.
package ranker

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dgallion1/docqa/internal/document"
)

// Scoring weights. These are tuned empirically and are not load-bearing for
// correctness.
const (
	UniqueTermWeight = 0.5
	PhraseBonus      = 4.0
	PartialHitWeight = 0.2
	FuzzyWeight      = 2.0
	MatchThreshold   = 0.6

	// FuzzyWindow is how many leading characters of a page are compared
	// against the question.
	FuzzyWindow = 1200
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "was": true, "were": true, "will": true,
	"with": true,
}

var tokenRE = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Tokens returns the lowercased alphanumeric runs of s with stop words and
// single-character tokens removed. Duplicates are kept.
func Tokens(s string) []string {
	raw := tokenRE.FindAllString(strings.ToLower(s), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if len(tok) > 1 && !stopWords[tok] {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Query is a question prepared for scoring many pages.
type Query struct {
	Tokens []string
	// Normalized is the space-joined tokens, or the trimmed lowercased
	// question when it has no tokens.
	Normalized string

	normRunes []string
}

// NewQuery tokenizes a question.
func NewQuery(question string) Query {
	tokens := Tokens(question)
	normalized := strings.Join(tokens, " ")
	if normalized == "" {
		normalized = strings.ToLower(strings.TrimSpace(question))
	}
	return Query{Tokens: tokens, Normalized: normalized, normRunes: runeStrings(normalized)}
}

// Score computes the relevance of one page's text to the query.
func (q Query) Score(pageText string) float64 {
	var score float64

	pageTokens := Tokens(pageText)
	if len(pageTokens) > 0 {
		counts := make(map[string]int, len(pageTokens))
		for _, tok := range pageTokens {
			counts[tok]++
		}
		seen := make(map[string]bool, len(q.Tokens))
		unique := 0
		for _, tok := range q.Tokens {
			score += float64(counts[tok])
			if counts[tok] > 0 && !seen[tok] {
				unique++
			}
			seen[tok] = true
		}
		score += float64(unique) * UniqueTermWeight
	}

	lower := strings.ToLower(pageText)
	if q.Normalized != "" && strings.Contains(lower, q.Normalized) {
		score += PhraseBonus
	}
	for _, tok := range q.Tokens {
		if strings.Contains(lower, tok) {
			score += PartialHitWeight
		}
	}
	if q.Normalized != "" {
		window := runeStrings(document.Truncate(lower, FuzzyWindow))
		score += difflib.NewMatcher(q.normRunes, window).Ratio() * FuzzyWeight
	}
	return score
}

// Rank scores every non-blank page and returns at most max(topK, 1) pages.
// When some page scores above MatchThreshold the best such pages are
// returned with usedFallback false. Otherwise the longest pages are returned
// with a zero score and usedFallback true.
func Rank(question string, pages []document.Page, topK int) (ranked []document.ScoredPage, usedFallback bool) {
	if topK < 1 {
		topK = 1
	}
	q := NewQuery(question)

	var candidates []document.ScoredPage
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		candidates = append(candidates, document.ScoredPage{Score: q.Score(page.Text), Page: page})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return textLen(candidates[i].Page) > textLen(candidates[j].Page)
	})

	var matches []document.ScoredPage
	for _, c := range candidates {
		if c.Score > MatchThreshold {
			matches = append(matches, c)
		}
	}
	if len(matches) > 0 {
		return head(matches, topK), false
	}

	fallback := make([]document.ScoredPage, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.Text) != "" {
			fallback = append(fallback, document.ScoredPage{Score: 0, Page: page})
		}
	}
	sort.SliceStable(fallback, func(i, j int) bool {
		return textLen(fallback[i].Page) > textLen(fallback[j].Page)
	})
	return head(fallback, topK), true
}

func head(s []document.ScoredPage, n int) []document.ScoredPage {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func textLen(p document.Page) int {
	return utf8.RuneCountInString(p.Text)
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
