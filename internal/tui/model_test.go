package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockytk/blockytk/internal/app"
	"github.com/blockytk/blockytk/internal/engine"
	"github.com/blockytk/blockytk/internal/game"
	"github.com/blockytk/blockytk/internal/logging"
	"github.com/blockytk/blockytk/internal/scripting"
)

type fixture struct {
	model   *Model
	app     *app.App
	src     *game.Offline
	dir     string
	started chan map[string]any
}

func newFixture(t *testing.T, visible bool) *fixture {
	t.Helper()
	f := &fixture{
		src:     game.NewOffline(nil),
		dir:     t.TempDir(),
		started: make(chan map[string]any, 8),
	}
	waiter := func(ctx context.Context, params map[string]any) error {
		f.started <- params
		<-ctx.Done()
		return nil
	}
	miner := scripting.NewFuncPlugin("miner",
		scripting.NewBuilder("Strip Miner").Category("Mining").Description("Digs a tunnel").
			AddInt("length", "Length", 32, 1, 256).
			AddBool("torches", "Place torches", true).
			Build(),
		waiter)
	farm := scripting.NewFuncPlugin("farm", scripting.NewBuilder("Farm").Category("Farming").Build(), waiter)

	log := logging.New(logging.Options{BufferSize: 50})
	f.app = app.New(app.Options{
		ScriptsDir: filepath.Join(f.dir, "scripts"),
		KeymapPath: filepath.Join(f.dir, "keys.json"),
		Source:     f.src,
		Logger:     log.Logger,
		Builtins:   []scripting.Plugin{miner, farm},
	})
	_, err := f.app.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = f.app.Close(ctx)
	})
	f.model = New(Options{App: f.app, Log: log, StartVisible: visible})
	return f
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "f5":
		return tea.KeyMsg{Type: tea.KeyF5}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (f *fixture) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = f.model.Update(key(k))
	}
	return cmd
}

func (f *fixture) waitStarted(t *testing.T) map[string]any {
	t.Helper()
	select {
	case p := <-f.started:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("script did not start")
		return nil
	}
}

func (f *fixture) waitIdle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.app.Wait(ctx))
}

func TestHiddenBanner(t *testing.T) {
	f := newFixture(t, false)
	assert.Contains(t, f.model.View(), "BlockyTK hidden. Press R-Shift or enter to show")

	f.press("g")
	assert.False(t, f.model.Visible())
	f.press("enter")
	assert.True(t, f.model.Visible())
	assert.Contains(t, f.model.View(), "Welcome to BlockyTK")

	f.model.Update(ToggleMsg{})
	assert.False(t, f.model.Visible())
	f.press("h")
	assert.True(t, f.model.Visible())
	f.press("h")
	assert.False(t, f.model.Visible())
}

func TestQuit(t *testing.T) {
	f := newFixture(t, true)
	cmd := f.press("q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestHomeView(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.app.Bind('G', "miner")
	require.NoError(t, err)

	v := f.model.View()
	assert.Contains(t, v, "2 scripts loaded in 2 categories.")
	assert.Contains(t, v, "Strip Miner")
	assert.Contains(t, v, "⛏ Mining")
	assert.Contains(t, v, "🌾 Farming")
	assert.Contains(t, v, "Ready")
}

func TestBrowserRunStop(t *testing.T) {
	f := newFixture(t, true)

	// Farming sorts before Mining
	f.press("down", "down")
	assert.Equal(t, pageBrowser, f.model.page)
	assert.Equal(t, "Mining", f.model.category)

	f.press("tab", "enter")
	assert.Equal(t, map[string]any{"length": int64(32), "torches": true}, f.waitStarted(t))
	assert.Equal(t, "Started Strip Miner", f.model.status)
	assert.Contains(t, f.model.View(), "Running: Strip Miner")
	assert.Contains(t, f.model.View(), "Stop")

	f.press("enter")
	f.waitIdle(t)
	_, busy := f.app.Active()
	assert.False(t, busy)
}

func TestBrowserOtherRunning(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.app.Run("farm", nil)
	require.NoError(t, err)
	f.waitStarted(t)

	f.press("down", "down", "tab", "enter")
	assert.True(t, f.model.statusErr)
	assert.Contains(t, f.src.Echoed(), "Another script is already running. Stop it first.")
	f.press("s")
	f.waitIdle(t)
}

func TestConfigRunWithEditedValues(t *testing.T) {
	f := newFixture(t, true)
	f.press("down", "down", "tab", "right", "enter")
	require.Equal(t, pageConfig, f.model.page)
	assert.Contains(t, f.model.View(), "Digs a tunnel")

	f.press("right", "right", "down", "enter")
	assert.Equal(t, map[string]any{"length": int64(44), "torches": false}, f.model.values)

	f.press("down", "down", "enter")
	assert.Equal(t, map[string]any{"length": int64(44), "torches": false}, f.waitStarted(t))

	f.press("enter")
	f.waitIdle(t)

	f.press("esc")
	assert.Equal(t, pageBrowser, f.model.page)
	f.press("esc")
	assert.Equal(t, pageHome, f.model.page)
}

func TestConfigBindShortcut(t *testing.T) {
	f := newFixture(t, true)
	f.press("down", "down", "tab", "c")
	require.Equal(t, pageConfig, f.model.page)

	f.press("b")
	assert.True(t, f.model.binding)
	assert.Contains(t, f.model.View(), "press a key...")

	f.press("g")
	assert.False(t, f.model.binding)
	assert.Equal(t, "Bound G to Strip Miner", f.model.status)
	assert.Equal(t, map[int]string{'G': "miner"}, f.app.Keys().Shortcuts)

	f.press("b", "enter")
	assert.Equal(t, map[int]string{257: "miner"}, f.app.Keys().Shortcuts)

	f.press("down", "down", "backspace")
	assert.Empty(t, f.app.Keys().Shortcuts)
}

func TestConfigBindRefusesToggleKey(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.app.SetToggleKey('G')
	require.NoError(t, err)
	f.press("down", "down", "tab", "c")
	require.Equal(t, pageConfig, f.model.page)

	f.press("b", "g")
	assert.True(t, f.model.binding)
	assert.True(t, f.model.statusErr)
	assert.Equal(t, "G is the overlay toggle key, press another", f.model.status)
	assert.Empty(t, f.app.Keys().Shortcuts)

	f.press("h")
	assert.False(t, f.model.binding)
	assert.Equal(t, "Bound H to Strip Miner", f.model.status)
	assert.Equal(t, map[int]string{'H': "miner"}, f.app.Keys().Shortcuts)
}

func TestTickDrainsBridge(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.app.Bind('G', "miner")
	require.NoError(t, err)

	f.src.PressKey('G')
	_, cmd := f.model.Update(tickMsg{})
	assert.NotNil(t, cmd)
	f.waitStarted(t)
	assert.Contains(t, f.src.Echoed(), "Starting miner...")
	f.app.Stop()
	f.waitIdle(t)
}

func TestFinishedStatus(t *testing.T) {
	f := newFixture(t, true)
	f.model.Update(FinishedMsg(engine.Finished{ID: "miner", Err: errors.New("no pickaxe")}))
	assert.True(t, f.model.statusErr)
	assert.Contains(t, f.model.View(), "Strip Miner failed: no pickaxe")

	f.model.Update(FinishedMsg(engine.Finished{ID: "miner", Cancelled: true}))
	assert.Equal(t, "Stopped Strip Miner", f.model.status)
}

func TestReloadDropsMissingScript(t *testing.T) {
	f := newFixture(t, true)
	path := filepath.Join(f.app.ScriptsDir(), "rail.js")
	require.NoError(t, os.WriteFile(path, []byte(`exports.ui = {title: 'Rail', category: 'Travel', controls: {n: {type: 'text', default: 'a'}}};`), 0o644))
	f.press("r")
	assert.Equal(t, "Reloaded 3 scripts", f.model.status)

	f.press("down", "down", "down", "tab", "c")
	require.Equal(t, pageConfig, f.model.page)
	require.Equal(t, "rail", f.model.script)

	f.press("x", "y", "backspace", "q")
	assert.Equal(t, "axq", f.model.values["n"])

	require.NoError(t, os.Remove(path))
	f.model.Update(CatalogMsg{Catalog: mustReload(t, f.app)})
	assert.Equal(t, pageHome, f.model.page)
	assert.Equal(t, 0, f.model.sidebar)
}

func mustReload(t *testing.T, a *app.App) *scripting.Catalog {
	t.Helper()
	c, err := a.Reload()
	require.NoError(t, err)
	return c
}

func TestLogPane(t *testing.T) {
	f := newFixture(t, true)
	f.press("l")
	assert.Contains(t, f.model.View(), "scripts loaded")
	f.press("l")
	assert.NotContains(t, f.model.View(), "scripts loaded")
}

func TestGameKey(t *testing.T) {
	assert.Equal(t, int('G'), gameKey(key("g")))
	assert.Equal(t, int('7'), gameKey(key("7")))
	assert.Equal(t, 257, gameKey(key("enter")))
	assert.Equal(t, 256, gameKey(key("esc")))
	assert.Equal(t, 265, gameKey(key("up")))
	assert.Equal(t, 116, gameKey(key("f5")))
	assert.Equal(t, 0, gameKey(key("!")))
}
