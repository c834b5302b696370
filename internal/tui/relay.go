package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blockytk/blockytk/internal/engine"
	"github.com/blockytk/blockytk/internal/scripting"
)

// FinishedMsg reports a completed script run.
type FinishedMsg engine.Finished

// ToggleMsg flips overlay visibility.
type ToggleMsg struct{}

// CatalogMsg carries a catalog loaded outside the UI loop.
type CatalogMsg struct{ Catalog *scripting.Catalog }

// Relay forwards events from other goroutines into a running program.
// Events sent while no program is attached are dropped.
type Relay struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *Relay) attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *Relay) detach() {
	r.attach(nil)
}

func (r *Relay) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p == nil {
		return
	}
	// Send blocks until the program reads it, and callers may be running
	// inside Update
	go p.Send(msg)
}

// Finished is an engine listener.
func (r *Relay) Finished(f engine.Finished) { r.send(FinishedMsg(f)) }

// Toggle is a bridge toggle handler.
func (r *Relay) Toggle() { r.send(ToggleMsg{}) }

// Reloaded is a watcher callback.
func (r *Relay) Reloaded(c *scripting.Catalog) { r.send(CatalogMsg{Catalog: c}) }
