package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowkit/burrow/memory"
)

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		fmt.Fprint(w, `{"embedding": [0.1, 0.2, 0.3]}`)
	}))
	defer srv.Close()

	e := New(Config{BaseURL: srv.URL, Model: "nomic-embed-text", Dimensions: 3})
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedFailureReturnsZeroVector(t *testing.T) {
	cases := map[string]string{
		"unreachable": "http://127.0.0.1:1",
	}

	srvErr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model missing", http.StatusNotFound)
	}))
	defer srvErr.Close()
	cases["backend error"] = srvErr.URL

	srvBad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srvBad.Close()
	cases["malformed response"] = srvBad.URL

	for name, url := range cases {
		t.Run(name, func(t *testing.T) {
			e := New(Config{BaseURL: url, Dimensions: 8})
			vec, err := e.Embed(context.Background(), "anything")
			require.NoError(t, err, "embedding failures must not propagate")
			require.Len(t, vec, 8)
			assert.True(t, memory.IsZeroVector(vec))
		})
	}
}

func TestDefaults(t *testing.T) {
	e := New(Config{})
	assert.Equal(t, DefaultConfig().Dimensions, e.Dimensions())
}
