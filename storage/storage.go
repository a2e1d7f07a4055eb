// Package storage defines the persistence collaborators the pipeline
// writes through: conversation history, the security audit log, and the
// note/reminder records the built-in tools manage. Implementations are
// transactional at the granularity of a single call.
package storage

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/burrowkit/burrow/core"
)

// Note is a user note managed through the notes tool.
type Note struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reminder is a user reminder managed through the reminder tool.
type Reminder struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Text      string     `json:"text"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
}

// ConversationStore persists conversations and their append-only message
// sequences.
type ConversationStore interface {
	// CreateConversation creates a conversation owned by ownerID.
	CreateConversation(ctx context.Context, ownerID, title string) (*core.Conversation, error)

	// GetConversation fetches the conversation only when it exists and
	// belongs to ownerID; otherwise a KindNotFound error.
	GetConversation(ctx context.Context, id, ownerID string) (*core.Conversation, error)

	// AppendMessage appends msg to its conversation. Messages are never
	// updated or reordered afterwards.
	AppendMessage(ctx context.Context, msg *core.Message) error

	// ListMessages returns the conversation's messages in append order.
	ListMessages(ctx context.Context, conversationID string) ([]core.Message, error)
}

// SecurityLogStore appends audit entries for denied inputs and tool calls.
type SecurityLogStore interface {
	AppendSecurityLog(ctx context.Context, entry *core.SecurityLogEntry) error
}

// NoteStore persists owner-scoped notes.
type NoteStore interface {
	CreateNote(ctx context.Context, ownerID, title, content string) (*Note, error)
	ListNotes(ctx context.Context, ownerID string) ([]Note, error)
	GetNote(ctx context.Context, id, ownerID string) (*Note, error)
	DeleteNote(ctx context.Context, id, ownerID string) error
}

// ReminderStore persists owner-scoped reminders.
type ReminderStore interface {
	CreateReminder(ctx context.Context, ownerID, text string, due *time.Time) (*Reminder, error)
	ListReminders(ctx context.Context, ownerID string) ([]Reminder, error)
	DeleteReminder(ctx context.Context, id, ownerID string) error
}

// Store is the full persistence surface.
type Store interface {
	ConversationStore
	SecurityLogStore
	NoteStore
	ReminderStore
	Close() error
}

// NewID returns a sortable unique id for persisted rows.
func NewID() string {
	return ulid.Make().String()
}
