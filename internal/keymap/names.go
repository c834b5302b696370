package keymap

import (
	"fmt"
	"strconv"
	"strings"
)

// Game key codes (GLFW numbering).
const (
	KeySpace        = 32
	KeyEscape       = 256
	KeyEnter        = 257
	KeyTab          = 258
	KeyBackspace    = 259
	KeyInsert       = 260
	KeyDelete       = 261
	KeyRight        = 262
	KeyLeft         = 263
	KeyDown         = 264
	KeyUp           = 265
	KeyPageUp       = 266
	KeyPageDown     = 267
	KeyHome         = 268
	KeyEnd          = 269
	KeyF1           = 290
	KeyF12          = 301
	KeyLeftShift    = 340
	KeyLeftControl  = 341
	KeyLeftAlt      = 342
	KeyRightShift   = 344
	KeyRightControl = 345
	KeyRightAlt     = 346
)

var keyNames = map[int]string{
	KeySpace:        "Space",
	KeyEscape:       "Escape",
	KeyEnter:        "Enter",
	KeyTab:          "Tab",
	KeyBackspace:    "Backspace",
	KeyInsert:       "Insert",
	KeyDelete:       "Delete",
	KeyRight:        "Right",
	KeyLeft:         "Left",
	KeyDown:         "Down",
	KeyUp:           "Up",
	KeyPageUp:       "PageUp",
	KeyPageDown:     "PageDown",
	KeyHome:         "Home",
	KeyEnd:          "End",
	KeyLeftShift:    "L-Shift",
	KeyLeftControl:  "L-Ctrl",
	KeyLeftAlt:      "L-Alt",
	KeyRightShift:   "R-Shift",
	KeyRightControl: "R-Ctrl",
	KeyRightAlt:     "R-Alt",
}

// KeyName returns a short human readable name for a game key code.
func KeyName(code int) string {
	switch {
	case code >= 'A' && code <= 'Z', code >= '0' && code <= '9':
		return string(rune(code))
	case code >= KeyF1 && code <= KeyF12:
		return "F" + strconv.Itoa(code-KeyF1+1)
	}
	if n, ok := keyNames[code]; ok {
		return n
	}
	return "Key " + strconv.Itoa(code)
}

// ParseKey accepts a key code ("71"), a single letter or digit ("g"), a
// function key ("F5") or a name as produced by KeyName ("r-shift").
func ParseKey(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty key")
	}
	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			return int(c), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("invalid key code %d", n)
		}
		return n, nil
	}
	if rest, ok := strings.CutPrefix(strings.ToUpper(s), "F"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 12 {
			return KeyF1 + n - 1, nil
		}
	}
	for code, name := range keyNames {
		if strings.EqualFold(name, s) {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", s)
}
