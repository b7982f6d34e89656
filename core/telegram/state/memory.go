package state

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.Mutex
	sessions map[int64]Session
	handlers map[State]Handler
}

// NewManager returns an in-memory Manager. Sessions do not survive
// restarts; an interrupted dialogue simply starts over.
func NewManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]Session),
		handlers: make(map[State]Handler),
	}
}

func (m *memoryManager) Get(userID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

func (m *memoryManager) Set(userID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.State == Zero && s.Flow == nil {
		delete(m.sessions, userID)
		return
	}
	m.sessions[userID] = s
}

func (m *memoryManager) Transition(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[userID]
	s.State = st
	if s.State == Zero && s.Flow == nil {
		delete(m.sessions, userID)
		return
	}
	m.sessions[userID] = s
}

func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *memoryManager) Bind(st State, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

func (m *memoryManager) Dispatch(c tele.Context, userID int64) (bool, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	var h Handler
	if ok && s.State != Zero {
		h = m.handlers[s.State]
	}
	m.mu.Unlock()

	if h == nil {
		return false, nil
	}
	return true, h(c, s)
}
