package generate

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildAnswerPrompt(t *testing.T) {
	prompt, ok := BuildAnswerPrompt(AnswerRequest{
		Question:      "what is the total",
		DocumentLabel: "invoice.pdf",
		Sources: []AnswerSource{
			{Page: 1, Snippet: "invoice total $450"},
			{Page: 2, Snippet: "   "},
			{Page: 3, Snippet: "shipping address"},
		},
	}, 0)
	if !ok {
		t.Fatal("expected prompt")
	}
	for _, want := range []string{
		"You are answering questions from invoice.pdf.",
		"Do not include page numbers or citations",
		"Question: what is the total",
		"[Page 1] invoice total $450\n[Page 3] shipping address",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "[Page 2]") {
		t.Error("blank snippet should be skipped")
	}
}

func TestBuildAnswerPromptCapsContext(t *testing.T) {
	req := AnswerRequest{
		Question: "q",
		Sources: []AnswerSource{
			{Page: 1, Snippet: strings.Repeat("é", 80)},
			{Page: 2, Snippet: strings.Repeat("b", 80)},
		},
	}
	prompt, ok := BuildAnswerPrompt(req, 50)
	if !ok {
		t.Fatal("expected prompt")
	}
	context := prompt[strings.Index(prompt, "Context:\n")+len("Context:\n"):]
	if n := utf8.RuneCountInString(context); n != 50 {
		t.Errorf("expected 50 context chars, got %d", n)
	}
	if !utf8.ValidString(prompt) {
		t.Error("prompt is not valid UTF-8")
	}
	if strings.Contains(prompt, "[Page 2]") {
		t.Error("second source should not fit")
	}
}

func TestBuildAnswerPromptNoSources(t *testing.T) {
	if _, ok := BuildAnswerPrompt(AnswerRequest{Question: "q"}, 100); ok {
		t.Fatal("expected no prompt without sources")
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt, ok := BuildSummaryPrompt(SummaryRequest{DocumentLabel: "report.docx", Chunks: []string{"one", "", "two"}})
	if !ok {
		t.Fatal("expected prompt")
	}
	for _, h := range SummaryHeadings {
		if !strings.Contains(prompt, "## "+h) {
			t.Errorf("prompt missing heading %q", h)
		}
	}
	if !strings.HasSuffix(prompt, "one\n\ntwo") {
		t.Errorf("unexpected chunk layout:\n%s", prompt)
	}
	if _, ok := BuildSummaryPrompt(SummaryRequest{Chunks: []string{" "}}); ok {
		t.Error("expected no prompt for blank chunks")
	}
}
