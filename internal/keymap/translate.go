package keymap

// uiToGame maps toolkit key codes (Windows virtual-key numbering) that differ
// from the game's GLFW key codes.
var uiToGame = map[int]int{
	13: KeyEnter,
	27: KeyEscape,
	8:  KeyBackspace,
	46: KeyDelete,
	39: KeyRight,
	37: KeyLeft,
	40: KeyDown,
	38: KeyUp,
	16: KeyLeftShift,
	17: KeyLeftControl,
	18: KeyLeftAlt,
	32: KeySpace,
	9:  KeyTab,
}

// FromUIKey translates a key code observed by the overlay UI into the game's
// key code. Digits (48-57) and letters (65-90) are shared by both numberings;
// anything without a mapping passes through unchanged.
func FromUIKey(code int) int {
	if code >= '0' && code <= '9' || code >= 'A' && code <= 'Z' {
		return code
	}
	if k, ok := uiToGame[code]; ok {
		return k
	}
	return code
}
