package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowkit/burrow/core"
)

func TestWebsiteReaderStripsScriptsAndStyles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><style>body { color: red }</style></head>
<body><script>alert("nope")</script><h1>Heading</h1><p>First paragraph.</p></body></html>`)
	}))
	defer srv.Close()

	reader := NewWebsiteReader()
	out, err := reader.Run(context.Background(), core.ExecContext{}, json.RawMessage(fmt.Sprintf(`{"url": %q}`, srv.URL)))
	require.NoError(t, err)

	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "First paragraph.")
	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "color: red")
}

func TestWebsiteReaderTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", strings.Repeat("a", 6000))
	}))
	defer srv.Close()

	reader := NewWebsiteReader()
	out, err := reader.Run(context.Background(), core.ExecContext{}, json.RawMessage(fmt.Sprintf(`{"url": %q}`, srv.URL)))
	require.NoError(t, err)

	assert.Len(t, []rune(out), maxPageRunes+3)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestWebsiteReaderUnreachable(t *testing.T) {
	reader := NewWebsiteReader()
	out, err := reader.Run(context.Background(), core.ExecContext{}, json.RawMessage(`{"url": "http://127.0.0.1:1/nothing"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Error reading website:")
}

func TestFileReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello from disk"), 0o644))

	reader := NewFileReader(dir)
	ctx := context.Background()

	out, err := reader.Run(ctx, core.ExecContext{}, json.RawMessage(fmt.Sprintf(`{"file_path": %q}`, path)))
	require.NoError(t, err)
	assert.Equal(t, "hello from disk", out)

	t.Run("missing file", func(t *testing.T) {
		out, err := reader.Run(ctx, core.ExecContext{}, json.RawMessage(fmt.Sprintf(`{"file_path": %q}`, filepath.Join(dir, "gone.txt"))))
		require.NoError(t, err)
		assert.Equal(t, "Error: File not found.", out)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		bin := filepath.Join(dir, "blob.pdf")
		require.NoError(t, os.WriteFile(bin, []byte{0x25, 0x50}, 0o644))
		out, err := reader.Run(ctx, core.ExecContext{}, json.RawMessage(fmt.Sprintf(`{"file_path": %q}`, bin)))
		require.NoError(t, err)
		assert.Contains(t, out, "Unsupported file extension")
	})

	t.Run("escape attempt denied", func(t *testing.T) {
		outside := filepath.Join(dir, "..", "secret.txt")
		_, err := reader.Run(ctx, core.ExecContext{}, json.RawMessage(fmt.Sprintf(`{"file_path": %q}`, outside)))
		assert.True(t, core.IsKind(err, core.KindPermissionDenied))
	})
}

func TestWebSearchFormatsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go language", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{
			"Heading": "Go",
			"AbstractText": "Go is a statically typed language.",
			"AbstractURL": "https://example.org/go",
			"RelatedTopics": [
				{"Text": "Goroutines are lightweight threads.", "FirstURL": "https://example.org/goroutines"}
			]
		}`)
	}))
	defer srv.Close()

	ws := NewWebSearchWithEndpoint(srv.URL)
	out, err := ws.Run(context.Background(), core.ExecContext{}, json.RawMessage(`{"query": "go language"}`))
	require.NoError(t, err)

	assert.Contains(t, out, "Title: Go\nLink: https://example.org/go\nSnippet: Go is a statically typed language.")
	assert.Contains(t, out, "Link: https://example.org/goroutines")
}

func TestWebSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"RelatedTopics": []}`)
	}))
	defer srv.Close()

	ws := NewWebSearchWithEndpoint(srv.URL)
	out, err := ws.Run(context.Background(), core.ExecContext{}, json.RawMessage(`{"query": "xyzzy"}`))
	require.NoError(t, err)
	assert.Equal(t, "No results found.", out)
}
