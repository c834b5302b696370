// Package bridge turns game key presses into overlay actions.
package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/blockytk/blockytk/internal/game"
	"github.com/blockytk/blockytk/internal/keymap"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 20 * time.Millisecond

// Keys supplies the current runtime config.
type Keys interface {
	Current() keymap.RuntimeConfig
}

// Options configures a Bridge.
type Options struct {
	Source game.Source
	Keys   Keys
	// OnToggle is called when the toggle key is pressed.
	OnToggle func()
	// OnShortcut is called with the script id bound to a pressed key.
	OnShortcut func(id string)
	Logger     *slog.Logger
}

// Bridge drains the game event queue on each tick.
type Bridge struct {
	source     game.Source
	keys       Keys
	onToggle   func()
	onShortcut func(string)
	logger     *slog.Logger
}

// New returns a bridge. Nil handlers are ignored.
func New(opts Options) *Bridge {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.OnToggle == nil {
		opts.OnToggle = func() {}
	}
	if opts.OnShortcut == nil {
		opts.OnShortcut = func(string) {}
	}
	return &Bridge{
		source:     opts.Source,
		keys:       opts.Keys,
		onToggle:   opts.OnToggle,
		onShortcut: opts.OnShortcut,
		logger:     opts.Logger,
	}
}

// Tick handles every queued event and returns how many it consumed. A poll
// error ends the drain; the next tick polls again.
func (b *Bridge) Tick() int {
	n := 0
	for {
		ev, ok, err := b.source.Poll()
		if err != nil {
			b.logger.Debug("event poll failed", "error", err)
			return n
		}
		if !ok {
			return n
		}
		n++
		b.handle(ev)
	}
}

func (b *Bridge) handle(ev game.Event) {
	if !ev.IsKeyPress() {
		return
	}
	// keys typed into a game menu belong to the menu
	if _, open := b.source.Screen(); open {
		return
	}
	cfg := b.keys.Current()
	if ev.Key == cfg.ToggleKey {
		b.onToggle()
		return
	}
	if id, ok := cfg.Lookup(ev.Key); ok {
		b.logger.Debug("shortcut pressed", "key", keymap.KeyName(ev.Key), "script", id)
		b.onShortcut(id)
	}
}

// Run ticks every interval until ctx is done.
func (b *Bridge) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			b.Tick()
		}
	}
}
