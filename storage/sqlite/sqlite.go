// Package sqlite implements the storage collaborators on SQLite via the
// pure-Go modernc.org driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/burrowkit/burrow/core"
	"github.com/burrowkit/burrow/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	title      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_owner ON conversations(owner_id);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);

CREATE TABLE IF NOT EXISTS security_log (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	action     TEXT NOT NULL,
	content    TEXT NOT NULL,
	reason     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_security_log_owner ON security_log(owner_id);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(owner_id);

CREATE TABLE IF NOT EXISTS reminders (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	text       TEXT NOT NULL,
	due_date   TEXT,
	completed  INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reminders_owner ON reminders(owner_id);
`

// Store is the SQLite-backed storage.Store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "open database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, core.WrapErr(core.KindStorage, err, "apply schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreateConversation(ctx context.Context, ownerID, title string) (*core.Conversation, error) {
	now := time.Now().UTC()
	conv := &core.Conversation{
		ID:        storage.NewID(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, owner_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.OwnerID, conv.Title, formatTime(conv.CreatedAt), formatTime(conv.UpdatedAt))
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "insert conversation")
	}
	return conv, nil
}

func (s *Store) GetConversation(ctx context.Context, id, ownerID string) (*core.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, created_at, updated_at FROM conversations WHERE id = ? AND owner_id = ?`,
		id, ownerID)

	var conv core.Conversation
	var created, updated string
	err := row.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.Errorf(core.KindNotFound, "conversation %s not found", id)
	}
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "select conversation")
	}
	conv.CreatedAt = parseTime(created)
	conv.UpdatedAt = parseTime(updated)
	return &conv, nil
}

func (s *Store) AppendMessage(ctx context.Context, msg *core.Message) error {
	if msg.ID == "" {
		msg.ID = storage.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WrapErr(core.KindStorage, err, "begin append")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, formatTime(msg.CreatedAt))
	if err != nil {
		return core.WrapErr(core.KindStorage, err, "insert message")
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), msg.ConversationID)
	if err != nil {
		return core.WrapErr(core.KindStorage, err, "touch conversation")
	}
	if err := tx.Commit(); err != nil {
		return core.WrapErr(core.KindStorage, err, "commit append")
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY id`,
		conversationID)
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "select messages")
	}
	defer rows.Close()

	var out []core.Message
	for rows.Next() {
		var m core.Message
		var role, created string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &created); err != nil {
			return nil, core.WrapErr(core.KindStorage, err, "scan message")
		}
		m.Role = core.Role(role)
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "iterate messages")
	}
	return out, nil
}

func (s *Store) AppendSecurityLog(ctx context.Context, entry *core.SecurityLogEntry) error {
	if entry.ID == "" {
		entry.ID = storage.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO security_log (id, owner_id, action, content, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OwnerID, entry.Action, entry.Content, entry.Reason, formatTime(entry.CreatedAt))
	if err != nil {
		return core.WrapErr(core.KindStorage, err, "insert security log entry")
	}
	return nil
}

func (s *Store) CreateNote(ctx context.Context, ownerID, title, content string) (*storage.Note, error) {
	now := time.Now().UTC()
	note := &storage.Note{
		ID:        storage.NewID(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, owner_id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID, note.OwnerID, note.Title, note.Content, formatTime(now), formatTime(now))
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "insert note")
	}
	return note, nil
}

func (s *Store) ListNotes(ctx context.Context, ownerID string) ([]storage.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, content, created_at, updated_at FROM notes WHERE owner_id = ? ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "select notes")
	}
	defer rows.Close()

	var out []storage.Note
	for rows.Next() {
		var n storage.Note
		var created, updated string
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &created, &updated); err != nil {
			return nil, core.WrapErr(core.KindStorage, err, "scan note")
		}
		n.CreatedAt = parseTime(created)
		n.UpdatedAt = parseTime(updated)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "iterate notes")
	}
	return out, nil
}

func (s *Store) GetNote(ctx context.Context, id, ownerID string) (*storage.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, content, created_at, updated_at FROM notes WHERE id = ? AND owner_id = ?`,
		id, ownerID)

	var n storage.Note
	var created, updated string
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.Errorf(core.KindNotFound, "note %s not found", id)
	}
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "select note")
	}
	n.CreatedAt = parseTime(created)
	n.UpdatedAt = parseTime(updated)
	return &n, nil
}

func (s *Store) DeleteNote(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return core.WrapErr(core.KindStorage, err, "delete note")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Errorf(core.KindNotFound, "note %s not found", id)
	}
	return nil
}

func (s *Store) CreateReminder(ctx context.Context, ownerID, text string, due *time.Time) (*storage.Reminder, error) {
	rem := &storage.Reminder{
		ID:        storage.NewID(),
		OwnerID:   ownerID,
		Text:      text,
		DueDate:   due,
		CreatedAt: time.Now().UTC(),
	}
	var dueStr any
	if due != nil {
		dueStr = formatTime(due.UTC())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (id, owner_id, text, due_date, completed, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		rem.ID, rem.OwnerID, rem.Text, dueStr, formatTime(rem.CreatedAt))
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "insert reminder")
	}
	return rem, nil
}

func (s *Store) ListReminders(ctx context.Context, ownerID string) ([]storage.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, text, due_date, completed, created_at FROM reminders WHERE owner_id = ? ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "select reminders")
	}
	defer rows.Close()

	var out []storage.Reminder
	for rows.Next() {
		var r storage.Reminder
		var due sql.NullString
		var completed int
		var created string
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Text, &due, &completed, &created); err != nil {
			return nil, core.WrapErr(core.KindStorage, err, "scan reminder")
		}
		if due.Valid {
			t := parseTime(due.String)
			r.DueDate = &t
		}
		r.Completed = completed != 0
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapErr(core.KindStorage, err, "iterate reminders")
	}
	return out, nil
}

func (s *Store) DeleteReminder(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return core.WrapErr(core.KindStorage, err, "delete reminder")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Errorf(core.KindNotFound, "reminder %s not found", id)
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ storage.Store = (*Store)(nil)
