package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docqa/internal/app"
	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/fixture"
	"github.com/dgallion1/docqa/internal/indexstore"
	"github.com/dgallion1/docqa/internal/qa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, store indexstore.Store, args ...string) (string, error) {
	t.Helper()
	out, _, err := runWithStderr(t, store, args...)
	return out, err
}

func runWithStderr(t *testing.T, store indexstore.Store, args ...string) (string, string, error) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := newRootCmd(func(bool) (*app.App, error) {
		return app.NewWithStore(config.Defaults(), store, nil, log), nil
	})
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestIndexAndAsk(t *testing.T) {
	store := indexstore.NewMemoryStore()
	path := writeFile(t, "invoice.pdf", fixture.PDF("invoice total $450", "shipping address"))

	out, err := run(t, store, "index", path, "--id", "inv")
	require.NoError(t, err)
	assert.Contains(t, out, "inv\tinvoice.pdf\t2 pages\tindexed")

	out, err = run(t, store, "ask", "inv", "what", "is", "the", "total", "--sources")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, qa.FallbackPrefix), out)
	assert.Contains(t, out, "[page 1,")

	out, stderr, err := runWithStderr(t, store, "summary", "inv")
	require.NoError(t, err)
	assert.True(t, qa.IsFallbackSummary(out))
	assert.Contains(t, out, "Main Topic:\ninvoice.pdf")
	assert.Contains(t, stderr, "built from extracted text")
}

func TestIndexGeneratesIDAndDetectsMIME(t *testing.T) {
	store := indexstore.NewMemoryStore()
	path := writeFile(t, "notes.txt", []byte("plain notes"))

	out, err := run(t, store, "index", path)
	require.NoError(t, err)
	id := strings.SplitN(out, "\t", 2)[0]
	assert.Len(t, id, 36)

	out, err = run(t, store, "preview", id)
	require.NoError(t, err)
	var p qa.Preview
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, qa.PreviewText, p.PreviewType)
	assert.True(t, strings.HasPrefix(p.MIMEType, "text/plain"))
	require.NotNil(t, p.Content)
	assert.Equal(t, "plain notes", *p.Content)
}

func TestIndexErrors(t *testing.T) {
	store := indexstore.NewMemoryStore()

	_, err := run(t, store, "index", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	_, err = run(t, store, "index", writeFile(t, "empty.txt", nil))
	assert.EqualError(t, err, "file is empty")

	_, err = run(t, store, "index", writeFile(t, "a.txt", []byte("x")), "--id", "../escape")
	assert.ErrorIs(t, err, indexstore.ErrInvalidDocumentID)
}

func TestPagesAndDelete(t *testing.T) {
	store := indexstore.NewMemoryStore()
	_, err := run(t, store, "index", writeFile(t, "a.md", []byte("# Title\n\nbody")), "--id", "md")
	require.NoError(t, err)

	out, err := run(t, store, "pages", "md")
	require.NoError(t, err)
	var idx document.Index
	require.NoError(t, json.Unmarshal([]byte(out), &idx))
	require.Len(t, idx.Pages, 1)
	assert.Equal(t, 1, idx.Pages[0].Number)

	out, err = run(t, store, "delete", "md")
	require.NoError(t, err)
	assert.Equal(t, "deleted md\n", out)

	out, err = run(t, store, "ask", "md", "anything")
	require.NoError(t, err)
	assert.Equal(t, qa.MsgNotIndexed+"\n", out)

	_, err = run(t, store, "summary", "md")
	assert.Error(t, err)
}

func TestArgsValidation(t *testing.T) {
	store := indexstore.NewMemoryStore()
	_, err := run(t, store, "ask", "only-id")
	assert.Error(t, err)
	_, err = run(t, store, "pages")
	assert.Error(t, err)
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "application/pdf", detectMIME("a.pdf", nil))
	assert.True(t, strings.HasPrefix(detectMIME("noext", []byte("hello world")), "text/plain"))
}
