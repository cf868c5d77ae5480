package qa

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/generate"
	"github.com/dgallion1/docqa/internal/ranker"
)

const (
	fallbackSentences     = 3
	fallbackSentenceChars = 220
	fallbackRawChars      = 420
)

// Answer returns an answer grounded in the document's best pages together
// with the sources used. Only storage failures are returned as errors.
func (s *Synthesizer) Answer(ctx context.Context, question, documentID, documentName string) (string, []document.Source, error) {
	idx, err := s.store.Load(ctx, documentID)
	if err != nil {
		return "", nil, fmt.Errorf("load index: %w", err)
	}
	if !idx.Usable() {
		return MsgNotIndexed, []document.Source{}, nil
	}

	ranked, usedFallback := ranker.Rank(question, idx.Pages, s.opts.TopK)
	sources := document.ToSources(ranked)
	if len(sources) == 0 {
		return MsgNoReadableBlocks, []document.Source{}, nil
	}

	label := documentName
	if label == "" {
		label = idx.Filename
	}
	if s.gen != nil {
		req := generate.AnswerRequest{Question: question, DocumentLabel: label}
		for _, src := range sources {
			req.Sources = append(req.Sources, generate.AnswerSource{Page: src.Page, Snippet: src.Snippet})
		}
		if text, ok := s.gen.Answer(ctx, req); ok {
			return text, sources, nil
		}
	}

	s.log.Debug("using extractive answer", "document_id", documentID, "closest_sections", usedFallback)
	answer := FallbackAnswer(question, sources)
	if usedFallback {
		answer += ClosestSectionsNote
	}
	return answer, sources, nil
}

// FallbackAnswer builds a short bulleted answer from the source snippets by
// picking the sentences that share the most terms with the question.
func FallbackAnswer(question string, sources []document.Source) string {
	var parts []string
	for _, src := range sources {
		if t := strings.TrimSpace(src.Snippet); t != "" {
			parts = append(parts, t)
		}
	}
	combined := strings.Join(parts, " ")
	if combined == "" {
		return MsgCannotSummarize
	}

	sentences := chunker.Sentences(combined)
	questionTokens := make(map[string]bool)
	for _, tok := range ranker.Tokens(question) {
		questionTokens[tok] = true
	}

	var picked []string
	if len(questionTokens) > 0 {
		type scoredSentence struct {
			overlap int
			noise   float64
			length  int
			text    string
		}
		scored := make([]scoredSentence, 0, len(sentences))
		for _, sentence := range sentences {
			cleaned := document.Clean(sentence)
			seen := make(map[string]bool)
			overlap := 0
			for _, tok := range ranker.Tokens(cleaned) {
				if questionTokens[tok] && !seen[tok] {
					overlap++
				}
				seen[tok] = true
			}
			scored = append(scored, scoredSentence{
				overlap: overlap,
				noise:   noiseRatio(cleaned),
				length:  utf8.RuneCountInString(cleaned),
				text:    cleaned,
			})
		}
		sort.SliceStable(scored, func(i, j int) bool {
			a, b := scored[i], scored[j]
			if a.overlap != b.overlap {
				return a.overlap > b.overlap
			}
			if a.noise != b.noise {
				return a.noise < b.noise
			}
			return a.length > b.length
		})
		for i := 0; i < len(scored) && i < fallbackSentences; i++ {
			if line := bulletText(scored[i].text); line != "" {
				picked = append(picked, line)
			}
		}
	} else {
		for i := 0; i < len(sentences) && i < fallbackSentences; i++ {
			if line := bulletText(sentences[i]); line != "" {
				picked = append(picked, line)
			}
		}
	}

	if len(picked) == 0 {
		picked = []string{strings.TrimSpace(document.Truncate(combined, fallbackRawChars))}
	}

	var sb strings.Builder
	sb.WriteString(FallbackPrefix)
	for _, line := range picked {
		sb.WriteString("\n- ")
		sb.WriteString(line)
	}
	return sb.String()
}

// bulletText cleans and shortens a sentence and makes sure it ends with
// terminal punctuation.
func bulletText(sentence string) string {
	s := document.Truncate(document.Clean(sentence), fallbackSentenceChars)
	s = strings.TrimRight(s, " ,;:")
	if s == "" {
		return ""
	}
	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
		s += "."
	}
	return s
}

// noiseRatio is the share of characters that are neither alphanumeric nor
// whitespace.
func noiseRatio(s string) float64 {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	noisy := 0
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsSpace(r) {
			noisy++
		}
	}
	return float64(noisy) / float64(n)
}
