// Package tui is the terminal overlay: a category sidebar, a script browser
// and a per-script configuration page, with a status bar and log pane.
package tui

import (
	"fmt"
	"maps"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blockytk/blockytk/internal/app"
	"github.com/blockytk/blockytk/internal/bridge"
	"github.com/blockytk/blockytk/internal/engine"
	"github.com/blockytk/blockytk/internal/keymap"
	"github.com/blockytk/blockytk/internal/logging"
	"github.com/blockytk/blockytk/internal/scripting"
)

type page int

const (
	pageHome page = iota
	pageBrowser
	pageConfig
)

type pane int

const (
	paneSidebar pane = iota
	paneContent
)

// Browser card buttons.
const (
	buttonRun = iota
	buttonConfigure
)

const logLines = 8

type tickMsg struct{}

// Options configures a Model.
type Options struct {
	App *app.App
	// Log backs the log pane. Nil hides it.
	Log *logging.Logger
	// Interval is the game event poll period.
	Interval     time.Duration
	StartVisible bool
}

// Model is the overlay's bubbletea model.
type Model struct {
	app      *app.App
	log      *logging.Logger
	interval time.Duration

	visible bool
	page    page
	pane    pane
	width   int
	height  int

	// sidebar selection; 0 is Home, i is categories[i-1]
	sidebar  int
	category string
	card     int
	button   int

	script  string
	values  map[string]any
	field   int
	binding bool

	showLog   bool
	logOffset int

	status    string
	statusErr bool
}

// New returns a model over a started App.
func New(opts Options) *Model {
	if opts.Interval <= 0 {
		opts.Interval = bridge.DefaultInterval
	}
	return &Model{
		app:      opts.App,
		log:      opts.Log,
		interval: opts.Interval,
		visible:  opts.StartVisible,
		width:    100,
		height:   30,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Visible reports whether the overlay is shown.
func (m *Model) Visible() bool {
	return m.visible
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tickMsg:
		m.app.Bridge().Tick()
		return m, m.tick()
	case ToggleMsg:
		m.visible = !m.visible
	case FinishedMsg:
		m.finished(engine.Finished(msg))
	case CatalogMsg:
		m.catalogChanged(msg.Catalog)
		m.setStatus(fmt.Sprintf("Reloaded %d scripts", msg.Catalog.Count()), false)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m *Model) finished(f engine.Finished) {
	title := m.title(f.ID)
	switch {
	case f.Err != nil:
		m.setStatus(fmt.Sprintf("%s failed: %v", title, f.Err), true)
	case f.Cancelled:
		m.setStatus("Stopped "+title, false)
	default:
		m.setStatus("Finished "+title, false)
	}
}

func (m *Model) title(id string) string {
	if p, ok := m.app.Catalog().Lookup(id); ok {
		return p.Descriptor().Title
	}
	return id
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.binding {
		m.captureBinding(msg)
		return m, nil
	}
	if key := gameKey(msg); key != 0 && key == m.app.Keys().ToggleKey {
		m.visible = !m.visible
		return m, nil
	}
	if !m.visible {
		switch msg.String() {
		case "enter", " ", "h":
			m.visible = true
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}
	if m.page == pageConfig && m.pane == paneContent && m.editText(msg) {
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "h":
		m.visible = false
		return m, nil
	case "r":
		m.reload()
		return m, nil
	case "l":
		m.showLog = !m.showLog
		m.logOffset = 0
		return m, nil
	case "s":
		if id, ok := m.app.Stop(); ok {
			m.setStatus("Stopping "+m.title(id)+"...", false)
		}
		return m, nil
	case "pgup":
		m.logOffset++
		return m, nil
	case "pgdown":
		m.logOffset = max(m.logOffset-1, 0)
		return m, nil
	case "esc":
		m.back()
		return m, nil
	case "tab":
		if m.pane == paneSidebar {
			m.pane = paneContent
		} else {
			m.pane = paneSidebar
		}
		return m, nil
	}

	if m.pane == paneSidebar {
		m.sidebarKey(msg)
		return m, nil
	}
	switch m.page {
	case pageBrowser:
		m.browserKey(msg)
	case pageConfig:
		m.configKey(msg)
	}
	return m, nil
}

func (m *Model) back() {
	switch m.page {
	case pageConfig:
		m.page = pageBrowser
		m.binding = false
	case pageBrowser:
		m.goHome()
	default:
		m.pane = paneSidebar
	}
}

func (m *Model) goHome() {
	m.page, m.sidebar, m.category = pageHome, 0, ""
	m.pane = paneSidebar
}

func (m *Model) reload() {
	c, err := m.app.Reload()
	m.catalogChanged(c)
	switch {
	case err != nil:
		m.setStatus("Reload failed: "+err.Error(), true)
	case len(c.Failures()) > 0:
		m.setStatus(fmt.Sprintf("Reloaded %d scripts, %d failed (see log)", c.Count(), len(c.Failures())), true)
	default:
		m.setStatus(fmt.Sprintf("Reloaded %d scripts", c.Count()), false)
	}
}

// catalogChanged keeps the selection valid after a reload.
func (m *Model) catalogChanged(c *scripting.Catalog) {
	categories := c.Categories()
	if m.page == pageConfig {
		if p, ok := c.Lookup(m.script); ok {
			m.category = p.Descriptor().Category
			m.field = min(m.field, p.Descriptor().Controls.Len()+1)
			m.values = m.mergeValues(p.Descriptor(), m.values)
		} else {
			m.page = pageBrowser
		}
	}
	if m.page == pageHome {
		m.sidebar = 0
		return
	}
	for i, cat := range categories {
		if cat == m.category {
			m.sidebar = i + 1
			m.card = min(m.card, max(len(c.Scripts(cat))-1, 0))
			return
		}
	}
	m.goHome()
}

func (m *Model) sidebarKey(msg tea.KeyMsg) {
	categories := m.app.Catalog().Categories()
	switch msg.String() {
	case "up", "k":
		m.selectSidebar(max(m.sidebar-1, 0), categories)
	case "down", "j":
		m.selectSidebar(min(m.sidebar+1, len(categories)), categories)
	case "enter", "right":
		m.pane = paneContent
	}
}

func (m *Model) selectSidebar(i int, categories []string) {
	m.sidebar = i
	if i == 0 {
		m.page, m.category = pageHome, ""
		return
	}
	m.page, m.category, m.card, m.button = pageBrowser, categories[i-1], 0, buttonRun
}

func (m *Model) browserKey(msg tea.KeyMsg) {
	scripts := m.app.Catalog().Scripts(m.category)
	if len(scripts) == 0 {
		return
	}
	switch msg.String() {
	case "up", "k":
		m.card = max(m.card-1, 0)
	case "down", "j":
		m.card = min(m.card+1, len(scripts)-1)
	case "left":
		m.button = buttonRun
	case "right":
		m.button = buttonConfigure
	case "c":
		m.openConfig(scripts[m.card].Descriptor())
	case "enter", " ":
		d := scripts[m.card].Descriptor()
		if m.button == buttonConfigure {
			m.openConfig(d)
			return
		}
		running := m.app.IsRunning(d.ID)
		m.app.Toggle(d.ID)
		switch {
		case running:
			m.setStatus("Stopping "+d.Title+"...", false)
		case m.app.IsRunning(d.ID):
			m.setStatus("Started "+d.Title, false)
		default:
			m.setStatus("Another script is already running. Stop it first.", true)
		}
	}
}

func (m *Model) openConfig(d *scripting.Descriptor) {
	m.page = pageConfig
	m.pane = paneContent
	m.script = d.ID
	m.field = 0
	m.binding = false
	m.values = d.Defaults()
}

// mergeValues keeps edited values that are still valid for d.
func (m *Model) mergeValues(d *scripting.Descriptor, old map[string]any) map[string]any {
	out := d.Defaults()
	for id, v := range old {
		spec, ok := d.Controls.Get(id)
		if !ok {
			continue
		}
		if cv, err := spec.Coerce(v); err == nil {
			out[id] = cv
		}
	}
	return out
}

func (m *Model) configDescriptor() (*scripting.Descriptor, bool) {
	p, ok := m.app.Catalog().Lookup(m.script)
	if !ok {
		return nil, false
	}
	return p.Descriptor(), true
}

// Config page rows after the controls.
func shortcutRow(d *scripting.Descriptor) int { return d.Controls.Len() }
func runRow(d *scripting.Descriptor) int      { return d.Controls.Len() + 1 }

func (m *Model) currentControl() (scripting.ControlSpec, bool) {
	d, ok := m.configDescriptor()
	if !ok || m.field >= d.Controls.Len() {
		return scripting.ControlSpec{}, false
	}
	return d.Controls.All()[m.field], true
}

// editText applies typing to a selected text control. It reports whether
// the key was consumed.
func (m *Model) editText(msg tea.KeyMsg) bool {
	spec, ok := m.currentControl()
	if !ok || spec.Kind != scripting.KindText {
		return false
	}
	cur, _ := m.values[spec.ID].(string)
	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace:
		m.values[spec.ID] = cur + string(msg.Runes)
		return true
	case tea.KeyBackspace:
		if r := []rune(cur); len(r) > 0 {
			m.values[spec.ID] = string(r[:len(r)-1])
		}
		return true
	}
	return false
}

func (m *Model) configKey(msg tea.KeyMsg) {
	d, ok := m.configDescriptor()
	if !ok {
		m.back()
		return
	}
	switch msg.String() {
	case "up", "k":
		m.field = max(m.field-1, 0)
	case "down", "j":
		m.field = min(m.field+1, runRow(d))
	case "left", "right":
		if spec, ok := m.currentControl(); ok {
			dir := 1
			if msg.String() == "left" {
				dir = -1
			}
			m.values[spec.ID] = spec.Step(m.values[spec.ID], dir)
		}
	case "b":
		m.startBinding()
	case "backspace", "delete":
		if m.field == shortcutRow(d) {
			if _, err := m.app.Unbind(d.ID); err == nil {
				m.setStatus("Shortcut cleared", false)
			}
		}
	case "enter", " ":
		switch m.field {
		case shortcutRow(d):
			m.startBinding()
		case runRow(d):
			m.runOrStop(d)
		default:
			if spec, ok := m.currentControl(); ok && (spec.Kind == scripting.KindBool || spec.Kind == scripting.KindDropdown) {
				m.values[spec.ID] = spec.Step(m.values[spec.ID], 1)
			}
		}
	}
}

func (m *Model) runOrStop(d *scripting.Descriptor) {
	if m.app.IsRunning(d.ID) {
		m.app.Stop()
		m.setStatus("Stopping "+d.Title+"...", false)
		return
	}
	res, err := m.app.Run(d.ID, maps.Clone(m.values))
	switch {
	case err != nil:
		m.setStatus(err.Error(), true)
	case res == engine.Started:
		m.setStatus("Started "+d.Title, false)
	default:
		m.setStatus("Busy.", true)
	}
}

func (m *Model) startBinding() {
	m.binding = true
	m.setStatus("Press a key to bind...", false)
}

func (m *Model) captureBinding(msg tea.KeyMsg) {
	key := gameKey(msg)
	if key == 0 {
		m.setStatus("That key cannot be bound, press another", true)
		return
	}
	if key == m.app.Keys().ToggleKey {
		m.setStatus(fmt.Sprintf("%s is the overlay toggle key, press another", keymap.KeyName(key)), true)
		return
	}
	m.binding = false
	if _, err := m.app.Bind(key, m.script); err != nil {
		m.setStatus("Error saving config: "+err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("Bound %s to %s", keymap.KeyName(key), m.title(m.script)), false)
}
