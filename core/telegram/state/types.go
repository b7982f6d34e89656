package state

import tele "gopkg.in/telebot.v4"

// State names a step of a dialogue flow.
type State string

// Zero means "no active dialogue".
const Zero State = ""

// Session is the per-user FSM snapshot. Flow holds flow-specific data
// set by the handler that entered the state.
type Session struct {
	State State
	Flow  any
}

// Handler consumes one text message while the user is in the bound state.
type Handler func(c tele.Context, s Session) error

// Manager owns all user sessions and the state→handler bindings.
type Manager interface {
	// Get returns the current session for the user, with State == Zero
	// when no dialogue is active.
	Get(userID int64) Session

	// Set replaces the user's session.
	Set(userID int64, s Session)

	// Transition sets the state and keeps the existing Flow value.
	Transition(userID int64, st State)

	// Clear drops the user's session entirely.
	Clear(userID int64)

	// Bind registers the handler invoked for text messages while the user
	// is in st. Binding the same state twice replaces the handler.
	Bind(st State, h Handler)

	// Dispatch routes a text update to the handler bound to the user's
	// current state. It reports whether a handler consumed the update.
	Dispatch(c tele.Context, userID int64) (bool, error)
}

// FlowAs extracts the typed flow value from a session. The second result
// is false when the session carries no flow or a different type.
func FlowAs[T any](s Session) (T, bool) {
	v, ok := s.Flow.(T)
	return v, ok
}
