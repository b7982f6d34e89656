// Package state implements a minimal in-memory finite state machine for
// multi-step dialogues. Each user has at most one session: the state name
// selects which registered handler consumes the next plain-text message,
// and the Flow slot carries typed data collected across steps.
package state
