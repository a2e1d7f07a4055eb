package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/burrowkit/burrow/core"
)

// maxFileBytes caps how much of a local file the reader will load.
const maxFileBytes = 1 << 20

// FileReader reads local plain-text files. Only .txt and .md are
// accepted; binary document formats are reported as unsupported rather
// than parsed.
type FileReader struct {
	// Root, when set, confines reads to the subtree under it.
	Root string
}

// NewFileReader creates a file reader confined to root. An empty root
// allows any path.
func NewFileReader(root string) *FileReader {
	return &FileReader{Root: root}
}

func (f *FileReader) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "file_reader",
		Description: "Read the content of a local text file.",
		InputSchema: ObjectSchema(map[string]any{
			"file_path": StringProperty("The absolute path to the file to read (.txt or .md)."),
		}, "file_path"),
	}
}

func (f *FileReader) Validate(raw json.RawMessage) error {
	return ValidateArgs(f.Definition().InputSchema, raw)
}

func (f *FileReader) Run(ctx context.Context, ec core.ExecContext, raw json.RawMessage) (string, error) {
	var args struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", core.WrapErr(core.KindValidation, err, "decode file_reader arguments")
	}

	path := filepath.Clean(args.FilePath)
	if f.Root != "" {
		rel, err := filepath.Rel(f.Root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", core.Errorf(core.KindPermissionDenied, "path %s is outside the allowed directory", path)
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".txt" && ext != ".md" {
		return fmt.Sprintf("Error: Unsupported file extension %s", ext), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "Error: File not found.", nil
	}
	if info.Size() > maxFileBytes {
		return fmt.Sprintf("Error: File too large (%d bytes, limit %d).", info.Size(), maxFileBytes), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err), nil
	}
	return string(data), nil
}

var _ core.Tool = (*FileReader)(nil)
