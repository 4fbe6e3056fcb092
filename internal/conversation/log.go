package conversation

import (
	"strings"
	"sync"

	"docent.chat/docent/internal/model"
)

// Log is the ordered record of messages exchanged in a session. Entries are
// only ever appended or wiped, never reordered or rewritten. System prompts
// assembled for individual turns are not recorded here.
//
// A Log is safe for concurrent use; reads may happen while a turn is in
// flight.
type Log struct {
	mu   sync.RWMutex
	msgs []model.Message
}

func NewLog() *Log {
	return &Log{}
}

// Append adds a message to the end of the log.
func (l *Log) Append(msg model.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

// SeedIfEmpty appends msg only when the log holds no messages, as one
// atomic check-and-append. Returns true when the seed was written.
func (l *Log) SeedIfEmpty(msg model.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.msgs) > 0 {
		return false
	}
	l.msgs = append(l.msgs, msg)
	return true
}

// Clear removes all messages.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = nil
}

// Messages returns a copy of the log in insertion order.
func (l *Log) Messages() []model.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.msgs)
}

// Transcript serializes the log for export. Each message renders as the
// capitalized role on its own line followed by the content, with messages
// separated by blank lines:
//
//	User:
//	<content>
//
//	Assistant:
//	<content>
func (l *Log) Transcript() string {
	msgs := l.Messages()
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Role.Title() + ":\n" + m.Content
	}
	return strings.Join(parts, "\n\n")
}
