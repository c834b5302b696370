// Package app is the application context shared by the overlay and the
// command line. It owns the catalog, key bindings, engine and game source
// and applies the rules for starting and stopping scripts.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blockytk/blockytk/internal/bridge"
	"github.com/blockytk/blockytk/internal/engine"
	"github.com/blockytk/blockytk/internal/game"
	"github.com/blockytk/blockytk/internal/keymap"
	"github.com/blockytk/blockytk/internal/scripting"
)

// Chat messages shown in the game.
const (
	msgOtherRunning = "Another script is already running. Stop it first."
	msgBusy         = "Busy."
)

var (
	// ErrUnknownScript is returned for ids missing from the catalog.
	ErrUnknownScript = errors.New("unknown script")
	// ErrToggleKey is returned when binding the overlay toggle key.
	ErrToggleKey = errors.New("key is the overlay toggle key")
)

// Options configures an App.
type Options struct {
	ScriptsDir string
	KeymapPath string
	// Source is the game connection. Nil uses an offline source.
	Source      game.Source
	Logger      *slog.Logger
	LoadTimeout time.Duration
	// Builtins are Go scripts listed alongside the directory's.
	Builtins []scripting.Plugin
	// OnFinished is called on the worker goroutine after every run.
	OnFinished func(engine.Finished)
	// OnToggle is called when the toggle key is pressed in game.
	OnToggle func()
}

// App is the application context.
type App struct {
	logger   *slog.Logger
	source   game.Source
	store    *keymap.Store
	registry *scripting.Registry
	engine   *engine.Engine
	bridge   *bridge.Bridge
	watcher  *scripting.Watcher

	onFinished func(engine.Finished)
	onToggle   func()
}

// New wires the components together and loads the key bindings. Scripts
// are not loaded until Reload.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	source := opts.Source
	if source == nil {
		source = game.NewOffline(logger.With("component", "game"))
	}
	a := &App{
		logger:     logger,
		source:     source,
		store:      keymap.NewStore(opts.KeymapPath, logger.With("component", "keymap")),
		onFinished: opts.OnFinished,
		onToggle:   opts.OnToggle,
	}
	a.registry = scripting.NewRegistry(scripting.Options{
		Dir:         opts.ScriptsDir,
		Host:        source,
		Logger:      logger.With("component", "scripts"),
		LoadTimeout: opts.LoadTimeout,
		Builtins:    opts.Builtins,
	})
	a.engine = engine.New(engine.Options{
		Logger:   logger.With("component", "engine"),
		Listener: a.finished,
	})
	a.bridge = bridge.New(bridge.Options{
		Source:     source,
		Keys:       a.store,
		OnToggle:   a.toggleOverlay,
		OnShortcut: a.RunShortcut,
		Logger:     logger.With("component", "bridge"),
	})
	a.store.Load()
	return a
}

// Start prepares the runtime config file, loads scripts and greets the
// player.
func (a *App) Start() (*scripting.Catalog, error) {
	if err := a.store.EnsureExists(); err != nil {
		a.logger.Warn("could not create keymap file", "path", a.store.Path(), "error", err)
	}
	c, err := a.Reload()
	a.source.Echo(fmt.Sprintf("BlockyTK loaded. Press %s to toggle.", keymap.KeyName(a.Keys().ToggleKey)))
	return c, err
}

// Reload reloads the scripts directory.
func (a *App) Reload() (*scripting.Catalog, error) {
	return a.registry.Reload()
}

// Catalog returns the loaded scripts.
func (a *App) Catalog() *scripting.Catalog {
	return a.registry.Catalog()
}

// ScriptsDir returns the scripts directory.
func (a *App) ScriptsDir() string {
	return a.registry.Dir()
}

// Keys returns the current key bindings.
func (a *App) Keys() keymap.RuntimeConfig {
	return a.store.Current()
}

// Source returns the game connection.
func (a *App) Source() game.Source {
	return a.source
}

// Bridge returns the game event bridge.
func (a *App) Bridge() *bridge.Bridge {
	return a.bridge
}

// Active returns the id of the running script.
func (a *App) Active() (string, bool) {
	return a.engine.Active()
}

// IsRunning reports whether id is the running script.
func (a *App) IsRunning(id string) bool {
	return a.engine.IsRunning(id)
}

// Toggle is the Run/Stop action of the script browser.
func (a *App) Toggle(id string) {
	p, ok := a.Catalog().Lookup(id)
	if !ok {
		return
	}
	if a.engine.IsRunning(id) {
		a.engine.Stop(id)
		return
	}
	if _, busy := a.engine.Active(); busy {
		a.source.Echo(msgOtherRunning)
		return
	}
	a.start(p, p.Descriptor().Defaults())
}

// Run starts id with params from the configuration view. It does nothing
// while any script is running.
func (a *App) Run(id string, params map[string]any) (engine.Result, error) {
	p, ok := a.Catalog().Lookup(id)
	if !ok {
		return engine.Busy, fmt.Errorf("%w: %s", ErrUnknownScript, id)
	}
	if active, busy := a.engine.Active(); busy {
		if active == id {
			return engine.AlreadyRunning, nil
		}
		return engine.Busy, nil
	}
	if params == nil {
		params = p.Descriptor().Defaults()
	}
	return a.start(p, params), nil
}

// RunShortcut handles a shortcut key press for id.
func (a *App) RunShortcut(id string) {
	p, ok := a.Catalog().Lookup(id)
	if !ok {
		return
	}
	if active, busy := a.engine.Active(); busy {
		if active == id {
			a.source.Echo(fmt.Sprintf("Stopping %s...", id))
			a.engine.Stop(id)
		} else {
			a.source.Echo(msgBusy)
		}
		return
	}
	a.source.Echo(fmt.Sprintf("Starting %s...", id))
	a.start(p, p.Descriptor().Defaults())
}

func (a *App) start(p scripting.Plugin, params map[string]any) engine.Result {
	fn := p.Run
	if !p.Runnable() {
		fn = func(context.Context, map[string]any) error { return nil }
	}
	return a.engine.Start(p.Descriptor().ID, fn, params)
}

// Stop asks the running script to stop.
func (a *App) Stop() (string, bool) {
	return a.engine.StopAny()
}

// Wait blocks until the running script, if any, has finished.
func (a *App) Wait(ctx context.Context) error {
	return a.engine.Wait(ctx)
}

func (a *App) finished(f engine.Finished) {
	if f.Err != nil {
		a.source.Echo(fmt.Sprintf("Error: %v", f.Err))
	}
	if a.onFinished != nil {
		a.onFinished(f)
	}
}

func (a *App) toggleOverlay() {
	if a.onToggle != nil {
		a.onToggle()
	}
}

func (a *App) saved(cfg keymap.RuntimeConfig, err error) (keymap.RuntimeConfig, error) {
	if err != nil {
		a.source.Echo(fmt.Sprintf("Error saving config: %v", err))
	}
	return cfg, err
}

// Bind binds key to id, replacing any other key bound to id. The toggle
// key is refused with ErrToggleKey and nothing is saved.
func (a *App) Bind(key int, id string) (keymap.RuntimeConfig, error) {
	if cfg := a.Keys(); key == cfg.ToggleKey {
		return cfg, fmt.Errorf("%w: %s", ErrToggleKey, keymap.KeyName(key))
	}
	return a.saved(a.store.Bind(key, id))
}

// Unbind removes the binding of id.
func (a *App) Unbind(id string) (keymap.RuntimeConfig, error) {
	return a.saved(a.store.Unbind(id))
}

// SetToggleKey changes the overlay toggle key.
func (a *App) SetToggleKey(key int) (keymap.RuntimeConfig, error) {
	return a.saved(a.store.SetToggleKey(key))
}

// ShortcutFor returns the key bound to id.
func (a *App) ShortcutFor(id string) (int, bool) {
	return a.Keys().KeyFor(id)
}

// BindDefaults binds every script's suggested shortcut whose key is free
// and which has no binding yet. It returns the ids it bound.
func (a *App) BindDefaults() ([]string, error) {
	var bound []string
	_, err := a.store.Update(func(cfg keymap.RuntimeConfig) keymap.RuntimeConfig {
		for _, p := range a.Catalog().All() {
			d := p.Descriptor()
			if d.ShortcutKey == 0 || d.ShortcutKey == cfg.ToggleKey {
				continue
			}
			if _, has := cfg.KeyFor(d.ID); has {
				continue
			}
			if _, taken := cfg.Lookup(d.ShortcutKey); taken {
				continue
			}
			cfg = cfg.Bind(d.ShortcutKey, d.ID)
			bound = append(bound, d.ID)
		}
		return cfg
	})
	if err != nil {
		a.saved(keymap.RuntimeConfig{}, err)
		return nil, err
	}
	return bound, nil
}

// Watch reloads the scripts directory whenever a script changes and passes
// the new catalog to onReload.
func (a *App) Watch(debounce time.Duration, onReload func(*scripting.Catalog)) error {
	if a.watcher != nil {
		return nil
	}
	w, err := scripting.Watch(a.registry.Dir(), debounce, a.logger.With("component", "watcher"), func() {
		c, err := a.Reload()
		if err != nil {
			a.logger.Error("reload failed", "error", err)
			return
		}
		if onReload != nil {
			onReload(c)
		}
	})
	if err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// Close stops watching, stops the running script and waits for it, then
// closes the game connection.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	errs = append(errs, a.engine.Close(ctx))
	errs = append(errs, a.source.Close())
	return errors.Join(errs...)
}
