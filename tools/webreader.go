package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/burrowkit/burrow/core"
)

// maxPageRunes caps how much extracted page text is returned.
const maxPageRunes = 5000

// WebsiteReader fetches a URL and returns its visible text, with script
// and style content stripped and whitespace collapsed.
type WebsiteReader struct {
	client *http.Client
}

// NewWebsiteReader creates the website reader tool.
func NewWebsiteReader() *WebsiteReader {
	return &WebsiteReader{client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *WebsiteReader) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "website_reader",
		Description: "Read the content of a website.",
		InputSchema: ObjectSchema(map[string]any{
			"url": StringProperty("The URL of the website to read."),
		}, "url"),
	}
}

func (w *WebsiteReader) Validate(raw json.RawMessage) error {
	return ValidateArgs(w.Definition().InputSchema, raw)
}

func (w *WebsiteReader) Run(ctx context.Context, ec core.ExecContext, raw json.RawMessage) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", core.WrapErr(core.KindValidation, err, "decode website_reader arguments")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return fmt.Sprintf("Error reading website: %v", err), nil
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error reading website: %v", err), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error reading website: unexpected status %d", resp.StatusCode), nil
	}

	text, err := extractText(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error reading website: %v", err), nil
	}
	return truncateRunes(text, maxPageRunes), nil
}

// extractText walks the HTML tree collecting text nodes, skipping script
// and style subtrees, and joins non-empty trimmed lines.
func extractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

var _ core.Tool = (*WebsiteReader)(nil)
