// Package memory keeps the bounded per-conversation message windows that give
// the chat endpoint its short-term context.
//
// Each conversation id owns an independent window of at most maxMessages
// (role, text) pairs. Appending beyond the cap evicts from the front (FIFO),
// so the window always holds the most recent turns in insertion order.
// Windows live in a sync.Map with a per-window mutex; conversations never
// contend with each other.
//
// State is process-local and not persisted; a restart forgets every
// conversation.
package memory

import (
	"sync"
	"time"
)

// Message is one conversation turn.
type Message struct {
	Role string
	Text string
}

const (
	// RoleUser marks a message authored by the end user.
	RoleUser = "user"
	// RoleAssistant marks a generated answer.
	RoleAssistant = "assistant"
)

// ConversationMemory stores bounded message windows keyed by conversation id.
type ConversationMemory struct {
	maxMessages int
	windows     sync.Map // conversation id → *window
	now         func() time.Time
}

type window struct {
	mu       sync.Mutex
	messages []Message
	lastUsed time.Time
}

// New creates a ConversationMemory holding at most maxMessages per
// conversation. Non-positive values fall back to the default of 20.
func New(maxMessages int) *ConversationMemory {
	if maxMessages <= 0 {
		maxMessages = 20
	}
	return &ConversationMemory{maxMessages: maxMessages, now: time.Now}
}

// Append adds a message to the end of the conversation's window, creating
// the window on first use and evicting the oldest entries beyond the cap.
func (m *ConversationMemory) Append(conversationID, role, text string) {
	w := m.getOrCreateWindow(conversationID)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.messages = append(w.messages, Message{Role: role, Text: text})
	if excess := len(w.messages) - m.maxMessages; excess > 0 {
		w.messages = append([]Message(nil), w.messages[excess:]...)
	}
	w.lastUsed = m.now()
}

// Window returns the conversation's messages in insertion order. Unknown ids
// yield an empty slice, never an error. The returned slice is a copy.
func (m *ConversationMemory) Window(conversationID string) []Message {
	v, ok := m.windows.Load(conversationID)
	if !ok {
		return nil
	}
	w := v.(*window)

	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Message, len(w.messages))
	copy(out, w.messages)
	w.lastUsed = m.now()
	return out
}

// Sweep drops windows untouched for longer than maxIdle and reports how many
// were removed. Active conversations are unaffected.
func (m *ConversationMemory) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	removed := 0
	m.windows.Range(func(key, value interface{}) bool {
		w := value.(*window)
		w.mu.Lock()
		idle := w.lastUsed.Before(cutoff)
		w.mu.Unlock()
		if idle {
			m.windows.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (m *ConversationMemory) getOrCreateWindow(conversationID string) *window {
	if v, ok := m.windows.Load(conversationID); ok {
		return v.(*window)
	}
	w := &window{lastUsed: m.now()}
	actual, _ := m.windows.LoadOrStore(conversationID, w)
	return actual.(*window)
}
