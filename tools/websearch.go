package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/burrowkit/burrow/core"
)

const defaultSearchEndpoint = "https://api.duckduckgo.com/"

// WebSearch queries the DuckDuckGo Instant Answer API and renders the
// abstract plus related topics as Title/Link/Snippet blocks.
type WebSearch struct {
	endpoint   string
	maxResults int
	client     *http.Client
}

// NewWebSearch creates the web search tool against the public endpoint.
func NewWebSearch() *WebSearch {
	return &WebSearch{
		endpoint:   defaultSearchEndpoint,
		maxResults: 5,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWebSearchWithEndpoint creates the tool against a custom endpoint,
// used in tests.
func NewWebSearchWithEndpoint(endpoint string) *WebSearch {
	ws := NewWebSearch()
	ws.endpoint = endpoint
	return ws
}

func (w *WebSearch) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "web_search",
		Description: "Search the web for information using DuckDuckGo.",
		InputSchema: ObjectSchema(map[string]any{
			"query": StringProperty("The query to search for on the web."),
		}, "query"),
	}
}

func (w *WebSearch) Validate(raw json.RawMessage) error {
	return ValidateArgs(w.Definition().InputSchema, raw)
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (w *WebSearch) Run(ctx context.Context, ec core.ExecContext, raw json.RawMessage) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", core.WrapErr(core.KindValidation, err, "decode web_search arguments")
	}

	u := w.endpoint + "?" + url.Values{
		"q":           {args.Query},
		"format":      {"json"},
		"no_redirect": {"1"},
		"no_html":     {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", core.WrapErr(core.KindProvider, err, "build search request")
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error searching web: %v", err), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error searching web: unexpected status %d", resp.StatusCode), nil
	}

	var body ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Sprintf("Error searching web: %v", err), nil
	}

	results := collectResults(body, w.maxResults)
	if len(results) == 0 {
		return "No results found.", nil
	}
	return strings.Join(results, "\n\n"), nil
}

func collectResults(body ddgResponse, max int) []string {
	var out []string
	if body.AbstractText != "" {
		out = append(out, fmt.Sprintf("Title: %s\nLink: %s\nSnippet: %s",
			body.Heading, body.AbstractURL, body.AbstractText))
	}
	var walk func(topics []ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, t := range topics {
			if len(out) >= max {
				return
			}
			if len(t.Topics) > 0 {
				walk(t.Topics)
				continue
			}
			if t.Text == "" {
				continue
			}
			out = append(out, fmt.Sprintf("Title: %s\nLink: %s\nSnippet: %s",
				firstSentence(t.Text), t.FirstURL, t.Text))
		}
	}
	walk(body.RelatedTopics)
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?"); i > 0 && i < 80 {
		return s[:i]
	}
	if len(s) > 80 {
		return s[:80]
	}
	return s
}

var _ core.Tool = (*WebSearch)(nil)
