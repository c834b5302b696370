// Package game is the boundary between BlockyTK and the running game client.
// A Source delivers key events and answers screen queries; the overlay never
// talks to the game any other way.
package game

import "errors"

// Event types.
const (
	TypeKey    = "key"
	TypeScreen = "screen"
)

// Key actions, as reported by the game's input layer.
const (
	ActionRelease = 0
	ActionPress   = 1
	ActionRepeat  = 2
)

// ErrClosed is returned by Poll once a source can no longer produce events.
var ErrClosed = errors.New("game: event source closed")

// Event is one queued game event.
type Event struct {
	Type   string `json:"type"`
	Action int    `json:"action"`
	Key    int    `json:"key"`
}

// IsKeyPress reports whether e is the initial press of a key.
func (e Event) IsKeyPress() bool {
	return e.Type == TypeKey && e.Action == ActionPress
}

// Source is a polled game connection.
type Source interface {
	// Poll returns the next queued event without blocking. ok is false when
	// the queue is empty.
	Poll() (ev Event, ok bool, err error)
	// Screen returns the name of the open game menu, if any.
	Screen() (name string, open bool)
	// Echo shows msg in the game's chat.
	Echo(msg string)
	// Execute runs a game chat command.
	Execute(cmd string)
	// Close releases the connection. Poll returns ErrClosed afterwards.
	Close() error
}
