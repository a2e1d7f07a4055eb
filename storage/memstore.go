package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/burrowkit/burrow/core"
)

// MemStore is the in-memory Store used by tests and ephemeral CLI runs.
// Safe for concurrent use.
type MemStore struct {
	mu            sync.RWMutex
	conversations map[string]*core.Conversation
	messages      map[string][]core.Message // conversation id -> append order
	securityLog   []core.SecurityLogEntry
	notes         map[string]*Note
	reminders     map[string]*Reminder
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		conversations: make(map[string]*core.Conversation),
		messages:      make(map[string][]core.Message),
		notes:         make(map[string]*Note),
		reminders:     make(map[string]*Reminder),
	}
}

// CreateConversation creates a conversation owned by ownerID.
func (s *MemStore) CreateConversation(ctx context.Context, ownerID, title string) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv := &core.Conversation{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv
	out := *conv
	return &out, nil
}

// GetConversation fetches an owned conversation or reports KindNotFound.
func (s *MemStore) GetConversation(ctx context.Context, id, ownerID string) (*core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok || conv.OwnerID != ownerID {
		return nil, core.Errorf(core.KindNotFound, "conversation %s not found", id)
	}
	out := *conv
	return &out, nil
}

// AppendMessage appends msg to its conversation's sequence.
func (s *MemStore) AppendMessage(ctx context.Context, msg *core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	if conv, ok := s.conversations[msg.ConversationID]; ok {
		conv.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// ListMessages returns the conversation's messages in append order.
func (s *MemStore) ListMessages(ctx context.Context, conversationID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	out := make([]core.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// AppendSecurityLog appends an audit entry.
func (s *MemStore) AppendSecurityLog(ctx context.Context, entry *core.SecurityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.securityLog = append(s.securityLog, *entry)
	return nil
}

// SecurityLog returns a copy of the audit log, newest last. Test helper.
func (s *MemStore) SecurityLog() []core.SecurityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.SecurityLogEntry, len(s.securityLog))
	copy(out, s.securityLog)
	return out
}

// CreateNote creates an owner-scoped note.
func (s *MemStore) CreateNote(ctx context.Context, ownerID, title, content string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	note := &Note{
		ID:        NewID(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.notes[note.ID] = note
	out := *note
	return &out, nil
}

// ListNotes returns the owner's notes in creation order.
func (s *MemStore) ListNotes(ctx context.Context, ownerID string) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Note
	for _, n := range s.notes {
		if n.OwnerID == ownerID {
			out = append(out, *n)
		}
	}
	sortNotesByID(out)
	return out, nil
}

// GetNote fetches an owned note or reports KindNotFound.
func (s *MemStore) GetNote(ctx context.Context, id, ownerID string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, core.Errorf(core.KindNotFound, "note %s not found", id)
	}
	out := *n
	return &out, nil
}

// DeleteNote removes an owned note or reports KindNotFound.
func (s *MemStore) DeleteNote(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return core.Errorf(core.KindNotFound, "note %s not found", id)
	}
	delete(s.notes, id)
	return nil
}

// CreateReminder creates an owner-scoped reminder.
func (s *MemStore) CreateReminder(ctx context.Context, ownerID, text string, due *time.Time) (*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rem := &Reminder{
		ID:        NewID(),
		OwnerID:   ownerID,
		Text:      text,
		DueDate:   due,
		CreatedAt: time.Now().UTC(),
	}
	s.reminders[rem.ID] = rem
	out := *rem
	return &out, nil
}

// ListReminders returns the owner's reminders in creation order.
func (s *MemStore) ListReminders(ctx context.Context, ownerID string) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Reminder
	for _, r := range s.reminders {
		if r.OwnerID == ownerID {
			out = append(out, *r)
		}
	}
	sortRemindersByID(out)
	return out, nil
}

// DeleteReminder removes an owned reminder or reports KindNotFound.
func (s *MemStore) DeleteReminder(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok || r.OwnerID != ownerID {
		return core.Errorf(core.KindNotFound, "reminder %s not found", id)
	}
	delete(s.reminders, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }

var _ Store = (*MemStore)(nil)
