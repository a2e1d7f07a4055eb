package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowkit/burrow/core"
	"github.com/burrowkit/burrow/storage"
)

func TestNotesLifecycle(t *testing.T) {
	store := storage.NewMemStore()
	notes := NewNotes(store)
	ctx := context.Background()
	ec := core.ExecContext{OwnerID: "u1"}

	run := func(args string) (string, error) {
		return notes.Run(ctx, ec, json.RawMessage(args))
	}

	out, err := run(`{"action": "list"}`)
	require.NoError(t, err)
	assert.Equal(t, "No notes found.", out)

	out, err = run(`{"action": "create", "title": "groceries", "content": "milk, eggs"}`)
	require.NoError(t, err)
	id := strings.TrimPrefix(out, "Note created with ID: ")
	require.NotEqual(t, out, id)

	out, err = run(fmt.Sprintf(`{"action": "read", "note_id": %q}`, id))
	require.NoError(t, err)
	assert.Equal(t, "Title: groceries\nContent: milk, eggs", out)

	out, err = run(`{"action": "list"}`)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s: groceries", id), out)

	out, err = run(fmt.Sprintf(`{"action": "delete", "note_id": %q}`, id))
	require.NoError(t, err)
	assert.Equal(t, "Note deleted.", out)

	out, err = run(fmt.Sprintf(`{"action": "read", "note_id": %q}`, id))
	require.NoError(t, err)
	assert.Equal(t, "Note not found.", out)
}

func TestNotesOwnerScoping(t *testing.T) {
	store := storage.NewMemStore()
	notes := NewNotes(store)
	ctx := context.Background()

	out, err := notes.Run(ctx, core.ExecContext{OwnerID: "u1"}, json.RawMessage(`{"action": "create", "title": "private"}`))
	require.NoError(t, err)
	id := strings.TrimPrefix(out, "Note created with ID: ")

	// Another owner cannot read or delete it.
	out, err = notes.Run(ctx, core.ExecContext{OwnerID: "u2"}, json.RawMessage(fmt.Sprintf(`{"action": "read", "note_id": %q}`, id)))
	require.NoError(t, err)
	assert.Equal(t, "Note not found.", out)

	_, err = notes.Run(ctx, core.ExecContext{}, json.RawMessage(`{"action": "list"}`))
	assert.True(t, core.IsKind(err, core.KindPermissionDenied))
}

func TestNotesUnknownAction(t *testing.T) {
	notes := NewNotes(storage.NewMemStore())
	_, err := notes.Run(context.Background(), core.ExecContext{OwnerID: "u1"}, json.RawMessage(`{"action": "destroy"}`))
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestReminderLifecycle(t *testing.T) {
	store := storage.NewMemStore()
	rem := NewReminder(store)
	ctx := context.Background()
	ec := core.ExecContext{OwnerID: "u1"}

	out, err := rem.Run(ctx, ec, json.RawMessage(`{"action": "list"}`))
	require.NoError(t, err)
	assert.Equal(t, "No reminders.", out)

	out, err = rem.Run(ctx, ec, json.RawMessage(`{"action": "set", "text": "water plants", "due_date": "2026-09-01T09:00:00Z"}`))
	require.NoError(t, err)
	id := strings.TrimPrefix(out, "Reminder set with ID: ")

	out, err = rem.Run(ctx, ec, json.RawMessage(`{"action": "list"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "water plants (Completed: false)")
	assert.Contains(t, out, "due 2026-09-01T09:00:00Z")

	out, err = rem.Run(ctx, ec, json.RawMessage(fmt.Sprintf(`{"action": "delete", "reminder_id": %q}`, id)))
	require.NoError(t, err)
	assert.Equal(t, "Reminder deleted.", out)
}

func TestReminderValidation(t *testing.T) {
	rem := NewReminder(storage.NewMemStore())
	ctx := context.Background()
	ec := core.ExecContext{OwnerID: "u1"}

	_, err := rem.Run(ctx, ec, json.RawMessage(`{"action": "set"}`))
	assert.True(t, core.IsKind(err, core.KindValidation))

	_, err = rem.Run(ctx, ec, json.RawMessage(`{"action": "set", "text": "x", "due_date": "tomorrow"}`))
	assert.True(t, core.IsKind(err, core.KindValidation))
}
