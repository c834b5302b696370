package game

import (
	"log/slog"
	"sync"
)

// Offline is an in-process Source. Events are injected with Push, chat output
// goes to the logger. It backs headless use and tests.
type Offline struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   []Event
	screen  string
	open    bool
	closed  bool
	echoed  []string
	execs   []string
	pollErr error
}

// NewOffline creates an Offline source. A nil logger uses slog.Default.
func NewOffline(logger *slog.Logger) *Offline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Offline{logger: logger}
}

// Push queues events.
func (o *Offline) Push(events ...Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.queue = append(o.queue, events...)
}

// PressKey queues a key press.
func (o *Offline) PressKey(key int) {
	o.Push(Event{Type: TypeKey, Action: ActionPress, Key: key})
}

// SetScreen sets the open screen. An empty name means no screen is open.
func (o *Offline) SetScreen(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.screen, o.open = name, name != ""
}

// FailNextPoll makes the next Poll return err once.
func (o *Offline) FailNextPoll(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pollErr = err
}

// Poll implements Source.
func (o *Offline) Poll() (Event, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.pollErr; err != nil {
		o.pollErr = nil
		return Event{}, false, err
	}
	if len(o.queue) == 0 {
		if o.closed {
			return Event{}, false, ErrClosed
		}
		return Event{}, false, nil
	}
	ev := o.queue[0]
	o.queue = o.queue[1:]
	return ev, true, nil
}

// Pending returns the number of queued events.
func (o *Offline) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Screen implements Source.
func (o *Offline) Screen() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.screen, o.open
}

// Echo implements Source.
func (o *Offline) Echo(msg string) {
	o.mu.Lock()
	o.echoed = append(o.echoed, msg)
	o.mu.Unlock()
	o.logger.Info(msg, "source", "echo")
}

// Execute implements Source.
func (o *Offline) Execute(cmd string) {
	o.mu.Lock()
	o.execs = append(o.execs, cmd)
	o.mu.Unlock()
	o.logger.Info("execute", "command", cmd)
}

// Echoed returns every message passed to Echo.
func (o *Offline) Echoed() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.echoed...)
}

// Executed returns every command passed to Execute.
func (o *Offline) Executed() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.execs...)
}

// Close implements Source. Queued events are still delivered.
func (o *Offline) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

var _ Source = (*Offline)(nil)
