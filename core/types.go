package core

import (
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the three known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one persisted chat message. Messages are immutable once
// appended to a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation owns an ordered, append-only sequence of messages.
type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SecurityLogEntry is an append-only audit record written when the
// safety guardian denies an input or a tool execution.
type SecurityLogEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Action    string    `json:"action"` // "message" or "tool_execution"
	Content   string    `json:"content"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Security log actions.
const (
	ActionMessage       = "message"
	ActionToolExecution = "tool_execution"
)

// ExecContext carries the identity of the caller into tool execution.
// Tools must never reach into storage for a default user; the owner is
// always supplied explicitly by the orchestrator.
type ExecContext struct {
	OwnerID        string
	ConversationID string
}
