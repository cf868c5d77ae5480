package qa

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/generate"
	"github.com/dgallion1/docqa/internal/indexstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGenerator struct {
	answer    string
	answerOK  bool
	summary   string
	summaryOK bool

	answerReq  generate.AnswerRequest
	summaryReq generate.SummaryRequest
}

func (f *fakeGenerator) Answer(_ context.Context, req generate.AnswerRequest) (string, bool) {
	f.answerReq = req
	return f.answer, f.answerOK
}

func (f *fakeGenerator) Summarize(_ context.Context, req generate.SummaryRequest) (string, bool) {
	f.summaryReq = req
	return f.summary, f.summaryOK
}

func (f *fakeGenerator) ExtractImageText(context.Context, []byte, string) (string, bool) {
	return "", false
}

func (f *fakeGenerator) DescribeImage(context.Context, []byte, string) (string, bool) {
	return "", false
}

type failingStore struct{}

var errDisk = errors.New("disk on fire")

func (failingStore) Save(context.Context, document.Index) error { return errDisk }
func (failingStore) Load(context.Context, string) (document.Index, error) {
	return document.Index{}, errDisk
}
func (failingStore) Delete(context.Context, string) error { return errDisk }
func (failingStore) Close() error                         { return nil }

func newSynth(t *testing.T, gen generate.Generator, idx ...document.Index) *Synthesizer {
	t.Helper()
	store := indexstore.NewMemoryStore()
	for _, i := range idx {
		require.NoError(t, store.Save(context.Background(), i))
	}
	return NewSynthesizer(store, gen, testLogger(), Options{})
}

func invoiceIndex() document.Index {
	return document.Index{
		DocumentID: "inv",
		Filename:   "invoice.pdf",
		MIMEType:   "application/pdf",
		Pages: []document.Page{
			{Number: 1, Text: "invoice total $450"},
			{Number: 2, Text: "shipping address"},
		},
	}
}

func TestAnswerNotIndexed(t *testing.T) {
	s := newSynth(t, nil)
	answer, sources, err := s.Answer(context.Background(), "anything", "missing", "")
	require.NoError(t, err)
	assert.Equal(t, MsgNotIndexed, answer)
	assert.Empty(t, sources)
	assert.NotNil(t, sources)
}

func TestAnswerStorageFailure(t *testing.T) {
	s := NewSynthesizer(failingStore{}, nil, testLogger(), Options{})
	_, _, err := s.Answer(context.Background(), "q", "doc", "")
	assert.ErrorIs(t, err, errDisk)
}

func TestAnswerFallbackWithoutCollaborator(t *testing.T) {
	s := newSynth(t, nil, invoiceIndex())
	answer, sources, err := s.Answer(context.Background(), "what is the total", "inv", "")
	require.NoError(t, err)

	require.NotEmpty(t, sources)
	assert.Equal(t, 1, sources[0].Page)
	assert.Contains(t, sources[0].Snippet, "450")
	assert.True(t, strings.HasPrefix(answer, FallbackPrefix), answer)
	assert.NotContains(t, answer, ClosestSectionsNote)
}

func TestAnswerUsesCollaborator(t *testing.T) {
	gen := &fakeGenerator{answer: "The total is $450.", answerOK: true}
	s := newSynth(t, gen, invoiceIndex())

	answer, sources, err := s.Answer(context.Background(), "what is the total", "inv", "")
	require.NoError(t, err)
	assert.Equal(t, "The total is $450.", answer)
	require.NotEmpty(t, sources)

	assert.Equal(t, "invoice.pdf", gen.answerReq.DocumentLabel, "label defaults to the stored filename")
	require.Len(t, gen.answerReq.Sources, len(sources))
	assert.Equal(t, sources[0].Snippet, gen.answerReq.Sources[0].Snippet)
}

func TestAnswerCollaboratorUnavailableFallsBack(t *testing.T) {
	gen := &fakeGenerator{}
	s := newSynth(t, gen, invoiceIndex())
	answer, _, err := s.Answer(context.Background(), "what is the total", "inv", "Invoice")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer, FallbackPrefix))
	assert.Equal(t, "Invoice", gen.answerReq.DocumentLabel)
}

func TestAnswerClosestSectionsNote(t *testing.T) {
	s := newSynth(t, nil, invoiceIndex())
	answer, sources, err := s.Answer(context.Background(), "zebra migration", "inv", "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(answer, ClosestSectionsNote), answer)
	for _, src := range sources {
		assert.Zero(t, src.Score)
	}
}

func TestFallbackAnswer(t *testing.T) {
	sources := []document.Source{
		{Page: 1, Snippet: "The budget was approved in March. Weather was mild!"},
		{Page: 2, Snippet: "Budget totals: $1,200; $3,400; $5,600. The final budget report is attached"},
	}
	got := FallbackAnswer("budget report", sources)
	lines := strings.Split(got, "\n")
	require.Equal(t, FallbackPrefix, lines[0])
	require.Len(t, lines, 4)
	assert.Equal(t, "- The final budget report is attached.", lines[1])
	assert.Equal(t, "- The budget was approved in March.", lines[2], "ties on overlap prefer the cleaner sentence")
	assert.Equal(t, "- Budget totals: $1,200; $3,400; $5,600.", lines[3])
}

func TestFallbackAnswerNoQuestionTokens(t *testing.T) {
	sources := []document.Source{{Snippet: "One. Two! Three? Four."}}
	got := FallbackAnswer("is it?", sources)
	assert.Equal(t, FallbackPrefix+"\n- One.\n- Two!\n- Three?", got)
}

func TestFallbackAnswerTruncatesSentences(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := FallbackAnswer("word", []document.Source{{Snippet: long}})
	line := strings.Split(got, "\n")[1]
	assert.LessOrEqual(t, len(line), len("- ")+220+1)
	assert.True(t, strings.HasSuffix(line, "."))
}

func TestBulletTextPunctuation(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"the report is final", "the report is final."},
		{"the report is final!", "the report is final!"},
		{"is the report final?", "is the report final?"},
		{"ends with a period.", "ends with a period."},
		{"trailing list;: ", "trailing list."},
		{" ,;: ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bulletText(tt.in), tt.in)
	}
}

func TestFallbackAnswerEmpty(t *testing.T) {
	assert.Equal(t, MsgCannotSummarize, FallbackAnswer("q", nil))
	assert.Equal(t, MsgCannotSummarize, FallbackAnswer("q", []document.Source{{Snippet: "  "}}))
}
