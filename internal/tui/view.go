package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/blockytk/blockytk/internal/keymap"
	"github.com/blockytk/blockytk/internal/scripting"
)

func (m *Model) View() string {
	toggle := keymap.KeyName(m.app.Keys().ToggleKey)
	if !m.visible {
		return bannerStyle.Render(fmt.Sprintf("BlockyTK hidden. Press %s or enter to show, q to quit.", toggle))
	}

	logHeight := 0
	if m.showLog && m.log != nil {
		logHeight = logLines + 1
	}
	bodyHeight := max(m.height-1-logHeight, 5)
	contentWidth := max(m.width-sidebarWidth, 20)

	var content string
	switch m.page {
	case pageBrowser:
		content = m.browserView(contentWidth, bodyHeight)
	case pageConfig:
		content = m.configView(contentWidth)
	default:
		content = m.homeView()
	}
	content = lipgloss.NewStyle().
		Width(contentWidth).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Padding(1, 2).
		Render(content)

	sections := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(bodyHeight), content),
		m.statusView(toggle),
	}
	if logHeight > 0 {
		sections = append(sections, m.logView())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) sidebarView(height int) string {
	var b strings.Builder
	b.WriteString(logoStyle.Render("BlockyTK"))
	b.WriteString("\n\n")

	items := []string{"🏠 Home"}
	for _, cat := range m.app.Catalog().Categories() {
		items = append(items, categoryIcon(cat)+" "+cat)
	}
	inner := sidebarWidth - 2
	for i, item := range items {
		line := padRight(truncate(item, inner), inner)
		switch {
		case i == m.sidebar && m.pane == paneSidebar:
			line = sidebarSelectedStyle.Render(line)
		case i == m.sidebar:
			line = logoStyle.Render(line)
		default:
			line = sidebarItemStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return sidebarStyle.Height(height).MaxHeight(height).Render(b.String())
}

func (m *Model) homeView() string {
	c := m.app.Catalog()
	keys := m.app.Keys()

	var b strings.Builder
	b.WriteString(headerStyle.Render("Welcome to BlockyTK"))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%d scripts loaded in %d categories.\n", c.Count(), len(c.Categories()))
	fmt.Fprintf(&b, "Toggle the overlay with %s.\n\n", keyStyle.Render(keymap.KeyName(keys.ToggleKey)))

	b.WriteString(headerStyle.Render("Active shortcuts"))
	b.WriteByte('\n')
	if len(keys.Shortcuts) == 0 {
		b.WriteString(dimStyle.Render("None yet. Bind one from a script's configuration page."))
		b.WriteByte('\n')
	}
	for _, key := range keys.Keys() {
		fmt.Fprintf(&b, "  %s  %s\n", keyStyle.Render(padRight(keymap.KeyName(key), 8)), m.title(keys.Shortcuts[key]))
	}
	if n := len(c.Failures()); n > 0 {
		b.WriteByte('\n')
		b.WriteString(statusErrorStyle.UnsetBackground().Render(fmt.Sprintf("%d scripts failed to load, press l for the log.", n)))
	}
	return b.String()
}

func (m *Model) cardView(d *scripting.Descriptor, selected bool, width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(truncate(d.Title, width)))
	if d.Description != "" {
		b.WriteByte('\n')
		b.WriteString(dimStyle.Render(truncate(d.Description, width)))
	}
	if key, ok := m.app.ShortcutFor(d.ID); ok {
		b.WriteByte('\n')
		b.WriteString(dimStyle.Render("Shortcut: ") + keyStyle.Render(keymap.KeyName(key)))
	}

	run := buttonStyle.Render("Run")
	if m.app.IsRunning(d.ID) {
		run = buttonDangerStyle.Render("Stop")
	}
	configure := buttonIdleStyle.Render("Configure")
	if selected && m.pane == paneContent {
		if m.button == buttonRun {
			run = buttonFocusedStyle.Render(run)
		} else {
			configure = buttonFocusedStyle.Render(buttonStyle.Render("Configure"))
		}
	}
	b.WriteByte('\n')
	b.WriteString(run + " " + configure)

	style := cardStyle
	if selected {
		style = cardSelectedStyle
	}
	return style.Width(width).Render(b.String())
}

func (m *Model) browserView(width, height int) string {
	scripts := m.app.Catalog().Scripts(m.category)
	header := headerStyle.Render(categoryIcon(m.category) + " " + m.category)
	if len(scripts) == 0 {
		return header + "\n" + dimStyle.Render("No scripts in this category.")
	}

	cardWidth := max(width-8, 10)
	var lines []string
	selectedTop, selectedBottom := 0, 0
	for i, p := range scripts {
		card := strings.Split(m.cardView(p.Descriptor(), i == m.card, cardWidth), "\n")
		if i == m.card {
			selectedTop, selectedBottom = len(lines), len(lines)+len(card)
		}
		lines = append(lines, card...)
	}

	// header, its margin and the outer padding
	view := max(height-4, 3)
	offset := 0
	if selectedBottom > view {
		offset = selectedBottom - view
	}
	offset = min(offset, selectedTop)
	end := min(offset+view, len(lines))
	body := strings.Join(lines[offset:end], "\n")
	if len(lines) > view {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", newScrollbar(len(lines), view, offset).View())
	}
	return header + "\n" + body
}

func (m *Model) configView(width int) string {
	d, ok := m.configDescriptor()
	if !ok {
		return dimStyle.Render("Script no longer loaded.")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(d.Title))
	b.WriteByte('\n')
	if d.Description != "" {
		b.WriteString(dimStyle.Render(truncate(d.Description, width-4)))
		b.WriteString("\n\n")
	}

	row := func(i int, text string) {
		prefix := "  "
		if i == m.field && m.pane == paneContent {
			prefix = "› "
			text = rowSelectedStyle.Render(text)
		}
		b.WriteString(prefix + text + "\n")
	}

	for i, spec := range d.Controls.All() {
		label := padRight(truncate(spec.Label, 22), 22)
		row(i, label+" "+m.controlValue(spec, i == m.field))
	}

	b.WriteByte('\n')
	shortcut := "none"
	if key, ok := m.app.ShortcutFor(d.ID); ok {
		shortcut = keymap.KeyName(key)
	} else if d.ShortcutKey != 0 {
		shortcut = "none (suggested " + keymap.KeyName(d.ShortcutKey) + ")"
	}
	if m.binding {
		shortcut = "press a key..."
	}
	row(shortcutRow(d), padRight("Shortcut", 22)+" "+shortcut)

	button := buttonStyle.Render("Run Script")
	if m.app.IsRunning(d.ID) {
		button = buttonDangerStyle.Render("Stop Script")
	}
	row(runRow(d), button)

	b.WriteByte('\n')
	b.WriteString(dimStyle.Render("←/→ adjust  enter select  b bind  del clear shortcut  esc back"))
	return b.String()
}

func (m *Model) controlValue(spec scripting.ControlSpec, selected bool) string {
	v := m.values[spec.ID]
	switch spec.Kind {
	case scripting.KindInt, scripting.KindFloat:
		return sliderBar(spec, v, 20) + " " + spec.Format(v)
	case scripting.KindBool:
		if on, _ := v.(bool); on {
			return "[x] on"
		}
		return "[ ] off"
	case scripting.KindDropdown:
		return "‹ " + spec.Format(v) + " ›"
	default:
		text := spec.Format(v)
		if selected {
			text += "_"
		}
		return "[" + text + "]"
	}
}

func sliderBar(spec scripting.ControlSpec, v any, width int) string {
	var f float64
	switch x := v.(type) {
	case int64:
		f = float64(x)
	case float64:
		f = x
	}
	filled := 0
	if span := spec.Max - spec.Min; span > 0 {
		filled = int((f - spec.Min) / span * float64(width))
	}
	filled = min(max(filled, 0), width)
	return lipgloss.NewStyle().Foreground(colorAccent).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

func (m *Model) statusView(toggle string) string {
	left := "Ready"
	style := statusStyle
	if id, ok := m.app.Active(); ok {
		left = "Running: " + m.title(id)
		style = statusRunningStyle
	}
	if m.status != "" {
		left += "  ·  " + m.status
		if m.statusErr {
			style = statusErrorStyle
		}
	}
	right := fmt.Sprintf("%s toggle  r reload  l log  q quit", toggle)
	width := max(m.width, 20)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		left = truncate(left, max(width-lipgloss.Width(right)-3, 1))
		gap = 1
	}
	return style.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) logView() string {
	entries := m.log.Recent(0)
	m.logOffset = min(m.logOffset, max(len(entries)-logLines, 0))
	end := len(entries) - m.logOffset
	start := max(end-logLines, 0)

	width := max(m.width-2, 10)
	lines := make([]string, logLines)
	for i, e := range entries[start:end] {
		lines[i] = truncate(e.String(), width)
	}
	for i := range lines {
		lines[i] = padRight(lines[i], width)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		strings.Join(lines, "\n"), " ",
		newScrollbar(len(entries), logLines, start).View())
	return logPaneStyle.Render(body)
}
