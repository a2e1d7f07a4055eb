package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/burrowkit/burrow/core"
	"github.com/burrowkit/burrow/storage"
)

// Notes manages owner-scoped notes through a single action-dispatching
// tool. The acting owner comes from the execution context, never from
// the model's arguments.
type Notes struct {
	store storage.NoteStore
}

// NewNotes creates the notes tool backed by store.
func NewNotes(store storage.NoteStore) *Notes {
	return &Notes{store: store}
}

func (n *Notes) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "notes",
		Description: "Manage notes. Actions: create, list, read, delete.",
		InputSchema: ObjectSchema(map[string]any{
			"action":  StringEnumProperty("Action to perform.", "create", "list", "read", "delete"),
			"title":   StringProperty("Title of the note (for create)."),
			"content": StringProperty("Content of the note (for create)."),
			"note_id": StringProperty("ID of the note (for read/delete)."),
		}, "action"),
	}
}

func (n *Notes) Validate(raw json.RawMessage) error {
	return ValidateArgs(n.Definition().InputSchema, raw)
}

func (n *Notes) Run(ctx context.Context, ec core.ExecContext, raw json.RawMessage) (string, error) {
	var args struct {
		Action  string `json:"action"`
		Title   string `json:"title"`
		Content string `json:"content"`
		NoteID  string `json:"note_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", core.WrapErr(core.KindValidation, err, "decode notes arguments")
	}
	if ec.OwnerID == "" {
		return "", core.Errorf(core.KindPermissionDenied, "notes tool requires an owner")
	}

	switch args.Action {
	case "create":
		title := args.Title
		if title == "" {
			title = "Untitled"
		}
		note, err := n.store.CreateNote(ctx, ec.OwnerID, title, args.Content)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Note created with ID: %s", note.ID), nil

	case "list":
		notes, err := n.store.ListNotes(ctx, ec.OwnerID)
		if err != nil {
			return "", err
		}
		if len(notes) == 0 {
			return "No notes found.", nil
		}
		lines := make([]string, len(notes))
		for i, note := range notes {
			lines[i] = fmt.Sprintf("%s: %s", note.ID, note.Title)
		}
		return strings.Join(lines, "\n"), nil

	case "read":
		if args.NoteID == "" {
			return "", core.Errorf(core.KindValidation, "note_id required for read")
		}
		note, err := n.store.GetNote(ctx, args.NoteID, ec.OwnerID)
		if core.IsKind(err, core.KindNotFound) {
			return "Note not found.", nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Title: %s\nContent: %s", note.Title, note.Content), nil

	case "delete":
		if args.NoteID == "" {
			return "", core.Errorf(core.KindValidation, "note_id required for delete")
		}
		err := n.store.DeleteNote(ctx, args.NoteID, ec.OwnerID)
		if core.IsKind(err, core.KindNotFound) {
			return "Note not found.", nil
		}
		if err != nil {
			return "", err
		}
		return "Note deleted.", nil

	default:
		return "", core.Errorf(core.KindValidation, "unknown action %q", args.Action)
	}
}

var _ core.Tool = (*Notes)(nil)
