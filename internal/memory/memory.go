// Package memory keeps a short in-process history window per conversation so
// the engine can answer questions about earlier turns.
package memory

import (
	"strings"
	"sync"
)

const DefaultWindow = 10

// Turn is one remembered exchange entry.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Memory is a bounded FIFO of turns per conversation. When the window is
// full the oldest turn is evicted. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	window int
	turns  map[string][]Turn
}

func New(window int) *Memory {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{window: window, turns: make(map[string][]Turn)}
}

// Add records a turn for the conversation, evicting the oldest once the
// window is exceeded.
func (m *Memory) Add(conversationID, role, text string) {
	if conversationID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := append(m.turns[conversationID], Turn{Role: role, Text: text})
	if len(turns) > m.window {
		turns = turns[len(turns)-m.window:]
	}
	m.turns[conversationID] = turns
}

// History returns a copy of the remembered turns, oldest first.
func (m *Memory) History(conversationID string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.turns[conversationID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Clear forgets the conversation.
func (m *Memory) Clear(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, conversationID)
}

// Summary renders the history as a plain transcript, one line per turn.
func (m *Memory) Summary(conversationID string) string {
	turns := m.History(conversationID)
	if len(turns) == 0 {
		return "No previous conversation history."
	}
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var historyTriggers = []string{
	"what did i ask",
	"previous",
	"earlier",
	"first question",
	"remember",
	"summarize",
	"conversation",
	"chat history",
}

// IsHistoryQuery reports whether the message is asking about the
// conversation itself rather than the food domain.
func IsHistoryQuery(message string) bool {
	lower := strings.ToLower(message)
	for _, trigger := range historyTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// Annotate prefixes history queries with a marker the engine prompt keys on;
// other messages pass through untouched.
func Annotate(message string) string {
	if IsHistoryQuery(message) {
		return "[CONVERSATION HISTORY QUERY] " + message
	}
	return message
}
