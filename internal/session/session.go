package session

import (
	"sync"
	"time"

	"docent.chat/docent/internal/conversation"
	"docent.chat/docent/internal/model"
)

// State reports what a session is currently doing.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
)

// Session is one client's private chat context: its conversation log, the
// document currently attached, and a turn lock. Turns within a session
// never interleave; reads of the log, state, and document remain safe
// while a turn is in flight.
type Session struct {
	ID        int64
	CreatedAt time.Time

	turnMu sync.Mutex // held for the full duration of a turn
	mu     sync.RWMutex
	state  State
	doc    *model.DocumentContext
	log    *conversation.Log
}

func New(id int64) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		state:     StateIdle,
		log:       conversation.NewLog(),
	}
}

// BeginTurn blocks until no other turn is running on this session, then
// marks it processing. Every BeginTurn must be paired with EndTurn.
func (s *Session) BeginTurn() {
	s.turnMu.Lock()
	s.setState(StateProcessing)
}

// EndTurn returns the session to idle and releases the turn lock.
func (s *Session) EndTurn() {
	s.setState(StateIdle)
	s.turnMu.Unlock()
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// State returns the session's current processing state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Log returns the session's conversation log.
func (s *Session) Log() *conversation.Log {
	return s.log
}

// SetDocument replaces the session's document context wholesale.
func (s *Session) SetDocument(doc *model.DocumentContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
}

// Document returns the attached document context, or nil when none is set.
func (s *Session) Document() *model.DocumentContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// ClearDocument detaches the current document context, if any.
func (s *Session) ClearDocument() {
	s.SetDocument(nil)
}
