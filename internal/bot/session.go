package bot

import "sync"

// Mode is the pending conversation state for one user: what the next
// message means. It encodes no financial data, so losing it on restart
// only resets everyone to Idle.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAwaitingExpense
	ModeAwaitingIncome
	ModeAwaitingBudget
	ModeAwaitingDeletion
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAwaitingExpense:
		return "awaiting-expense"
	case ModeAwaitingIncome:
		return "awaiting-income"
	case ModeAwaitingBudget:
		return "awaiting-budget"
	case ModeAwaitingDeletion:
		return "awaiting-deletion"
	}
	return "unknown"
}

// Session holds one user's conversation state. Handling locks the session
// for the whole message, so same-user messages are serialized: the state
// machine's read-modify-write on mode, and the scan-then-delete sequence
// of the deletion flow, never interleave for one user. Different users
// proceed concurrently.
type Session struct {
	mu   sync.Mutex
	mode Mode
}

// SessionStore creates sessions on first contact and keeps them for the
// life of the process. Never persisted.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

func (s *SessionStore) session(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{} // defaults to ModeIdle
		s.sessions[userID] = sess
	}
	return sess
}

// Mode reports a user's current mode, for tests and diagnostics.
func (s *SessionStore) Mode(userID string) Mode {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.mode
}
