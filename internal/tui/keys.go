package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/blockytk/blockytk/internal/keymap"
)

// Toolkit key codes for the non-character keys a terminal reports.
var uiKeyCodes = map[tea.KeyType]int{
	tea.KeyEnter:     13,
	tea.KeyEsc:       27,
	tea.KeyBackspace: 8,
	tea.KeyDelete:    46,
	tea.KeyRight:     39,
	tea.KeyLeft:      37,
	tea.KeyDown:      40,
	tea.KeyUp:        38,
	tea.KeySpace:     32,
	tea.KeyTab:       9,
	tea.KeyF1:        112,
	tea.KeyF2:        113,
	tea.KeyF3:        114,
	tea.KeyF4:        115,
	tea.KeyF5:        116,
	tea.KeyF6:        117,
	tea.KeyF7:        118,
	tea.KeyF8:        119,
	tea.KeyF9:        120,
	tea.KeyF10:       121,
	tea.KeyF11:       122,
	tea.KeyF12:       123,
}

// uiKeyCode maps a terminal key to the toolkit code the binding table
// expects. Letters map to their upper case code. It returns 0 for keys with
// no code.
func uiKeyCode(msg tea.KeyMsg) int {
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		r := msg.Runes[0]
		switch {
		case r >= 'a' && r <= 'z':
			return int(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return int(r)
		case r == ' ':
			return 32
		}
		return 0
	}
	return uiKeyCodes[msg.Type]
}

// gameKey returns the game key code for a terminal key, or 0.
func gameKey(msg tea.KeyMsg) int {
	code := uiKeyCode(msg)
	if code == 0 {
		return 0
	}
	return keymap.FromUIKey(code)
}
