package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/burrowkit/burrow/core"
	"github.com/burrowkit/burrow/storage"
)

// Reminder manages owner-scoped reminders. Like the notes tool, the
// acting owner comes from the execution context.
type Reminder struct {
	store storage.ReminderStore
}

// NewReminder creates the reminder tool backed by store.
func NewReminder(store storage.ReminderStore) *Reminder {
	return &Reminder{store: store}
}

func (r *Reminder) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "reminder",
		Description: "Manage reminders. Actions: set, list, delete.",
		InputSchema: ObjectSchema(map[string]any{
			"action":      StringEnumProperty("Action to perform.", "set", "list", "delete"),
			"text":        StringProperty("Reminder text (for set)."),
			"due_date":    StringProperty("Optional RFC 3339 due date (for set)."),
			"reminder_id": StringProperty("ID of the reminder (for delete)."),
		}, "action"),
	}
}

func (r *Reminder) Validate(raw json.RawMessage) error {
	return ValidateArgs(r.Definition().InputSchema, raw)
}

func (r *Reminder) Run(ctx context.Context, ec core.ExecContext, raw json.RawMessage) (string, error) {
	var args struct {
		Action     string `json:"action"`
		Text       string `json:"text"`
		DueDate    string `json:"due_date"`
		ReminderID string `json:"reminder_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", core.WrapErr(core.KindValidation, err, "decode reminder arguments")
	}
	if ec.OwnerID == "" {
		return "", core.Errorf(core.KindPermissionDenied, "reminder tool requires an owner")
	}

	switch args.Action {
	case "set":
		if args.Text == "" {
			return "", core.Errorf(core.KindValidation, "text required for set")
		}
		var due *time.Time
		if args.DueDate != "" {
			t, err := time.Parse(time.RFC3339, args.DueDate)
			if err != nil {
				return "", core.Errorf(core.KindValidation, "due_date must be RFC 3339: %v", err)
			}
			due = &t
		}
		rem, err := r.store.CreateReminder(ctx, ec.OwnerID, args.Text, due)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Reminder set with ID: %s", rem.ID), nil

	case "list":
		reminders, err := r.store.ListReminders(ctx, ec.OwnerID)
		if err != nil {
			return "", err
		}
		if len(reminders) == 0 {
			return "No reminders.", nil
		}
		lines := make([]string, len(reminders))
		for i, rem := range reminders {
			line := fmt.Sprintf("%s: %s (Completed: %t)", rem.ID, rem.Text, rem.Completed)
			if rem.DueDate != nil {
				line += " due " + rem.DueDate.Format(time.RFC3339)
			}
			lines[i] = line
		}
		return strings.Join(lines, "\n"), nil

	case "delete":
		if args.ReminderID == "" {
			return "", core.Errorf(core.KindValidation, "reminder_id required for delete")
		}
		err := r.store.DeleteReminder(ctx, args.ReminderID, ec.OwnerID)
		if core.IsKind(err, core.KindNotFound) {
			return "Reminder not found.", nil
		}
		if err != nil {
			return "", err
		}
		return "Reminder deleted.", nil

	default:
		return "", core.Errorf(core.KindValidation, "unknown action %q", args.Action)
	}
}

var _ core.Tool = (*Reminder)(nil)
