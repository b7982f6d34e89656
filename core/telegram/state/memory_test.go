package state

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

const testState State = "awaiting_input"

func TestSessionLifecycle(t *testing.T) {
	m := NewManager()

	if s := m.Get(1); s.State != Zero {
		t.Fatalf("fresh user must have zero state, got %q", s.State)
	}

	m.Set(1, Session{State: testState, Flow: "payload"})
	s := m.Get(1)
	if s.State != testState {
		t.Fatalf("State = %q; want %q", s.State, testState)
	}
	if v, ok := FlowAs[string](s); !ok || v != "payload" {
		t.Fatalf("FlowAs = %q, %v; want payload, true", v, ok)
	}

	m.Clear(1)
	if s := m.Get(1); s.State != Zero || s.Flow != nil {
		t.Fatalf("Clear left session behind: %+v", s)
	}
}

func TestTransitionKeepsFlow(t *testing.T) {
	m := NewManager()
	m.Set(7, Session{State: testState, Flow: int64(42)})
	m.Transition(7, "next_step")

	s := m.Get(7)
	if s.State != "next_step" {
		t.Fatalf("State = %q; want next_step", s.State)
	}
	if v, ok := FlowAs[int64](s); !ok || v != 42 {
		t.Fatalf("flow lost across transition: %v, %v", v, ok)
	}
}

func TestDispatch(t *testing.T) {
	m := NewManager()
	var got Session
	m.Bind(testState, func(c tele.Context, s Session) error {
		got = s
		return nil
	})

	if handled, err := m.Dispatch(nil, 5); handled || err != nil {
		t.Fatalf("dispatch without session = %v, %v; want false, nil", handled, err)
	}

	m.Set(5, Session{State: testState, Flow: "x"})
	handled, err := m.Dispatch(nil, 5)
	if !handled || err != nil {
		t.Fatalf("Dispatch = %v, %v; want true, nil", handled, err)
	}
	if got.State != testState {
		t.Fatalf("handler received session %+v", got)
	}

	m.Set(5, Session{State: "unbound"})
	if handled, _ := m.Dispatch(nil, 5); handled {
		t.Fatalf("unbound state must not report handled")
	}
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	m := NewManager()
	m.Set(1, Session{State: testState})
	if s := m.Get(2); s.State != Zero {
		t.Fatalf("user 2 inherited user 1 state: %q", s.State)
	}
}
