package session

import (
	"sync"

	"admitcrm/internal/crm"
)

// State is the in-memory session snapshot mirrored by every view.
type State struct {
	User            *crm.User
	IsAuthenticated bool
	Loading         bool
	Err             string
}

// Action is the closed set of session transitions.
type Action interface {
	isAction()
}

type LoginStart struct{}

type LoginSuccess struct {
	User crm.User
}

type LoginFailure struct {
	Message string
}

type Logout struct{}

type UpdateUser struct {
	User crm.User
}

type ClearError struct{}

func (LoginStart) isAction()   {}
func (LoginSuccess) isAction() {}
func (LoginFailure) isAction() {}
func (Logout) isAction()       {}
func (UpdateUser) isAction()   {}
func (ClearError) isAction()   {}

// Reduce applies one action to a session state and returns the next state.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case LoginStart:
		s.Loading = true
		s.Err = ""
	case LoginSuccess:
		user := act.User
		s.Loading = false
		s.IsAuthenticated = true
		s.User = &user
		s.Err = ""
	case LoginFailure:
		s.Loading = false
		s.IsAuthenticated = false
		s.User = nil
		s.Err = act.Message
	case Logout:
		s = State{}
	case UpdateUser:
		user := act.User
		s.User = &user
	case ClearError:
		s.Err = ""
	}
	return s
}

// Session owns the session state. Cold start seeds the user and the
// authenticated flag from the persisted keyring; teardown goes through the
// Logout action after the keyring is cleared.
type Session struct {
	mu    sync.Mutex
	state State
}

// New builds a session seeded from the keyring.
func New(keyring Keyring) *Session {
	return &Session{
		state: State{
			User:            keyring.User(),
			IsAuthenticated: keyring.IsAuthenticated(),
		},
	}
}

// Dispatch applies one action.
func (s *Session) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	if s.state.User != nil {
		user := *s.state.User
		snap.User = &user
	}
	return snap
}

// CurrentUser returns the authenticated user, or nil when logged out.
func (s *Session) CurrentUser() *crm.User {
	return s.Snapshot().User
}
