// Package keymap stores the overlay toggle key and the shortcut bindings
// that map game key codes to script ids.
package keymap

import (
	"maps"
	"slices"
)

// DefaultToggleKey is the right shift key.
const DefaultToggleKey = 344

// RuntimeConfig is the persisted key configuration. Values are treated as
// immutable; Bind and Unbind return modified copies.
type RuntimeConfig struct {
	ToggleKey int
	Shortcuts map[int]string
}

// Default returns the configuration used when nothing has been saved.
func Default() RuntimeConfig {
	return RuntimeConfig{ToggleKey: DefaultToggleKey, Shortcuts: map[int]string{}}
}

// Clone returns a deep copy.
func (c RuntimeConfig) Clone() RuntimeConfig {
	out := RuntimeConfig{ToggleKey: c.ToggleKey, Shortcuts: maps.Clone(c.Shortcuts)}
	if out.Shortcuts == nil {
		out.Shortcuts = map[int]string{}
	}
	return out
}

// Lookup returns the script bound to key.
func (c RuntimeConfig) Lookup(key int) (string, bool) {
	id, ok := c.Shortcuts[key]
	return id, ok
}

// KeyFor returns the key bound to id. When several keys are bound (possible
// only in hand-edited files) the lowest wins.
func (c RuntimeConfig) KeyFor(id string) (int, bool) {
	found, best := false, 0
	for k, v := range c.Shortcuts {
		if v == id && (!found || k < best) {
			found, best = true, k
		}
	}
	return best, found
}

// Bind returns a copy with key bound to id. Any other key bound to id is
// released and whatever key was previously bound to is replaced.
func (c RuntimeConfig) Bind(key int, id string) RuntimeConfig {
	out := c.Unbind(id)
	out.Shortcuts[key] = id
	return out
}

// Unbind returns a copy without any binding for id.
func (c RuntimeConfig) Unbind(id string) RuntimeConfig {
	out := c.Clone()
	maps.DeleteFunc(out.Shortcuts, func(_ int, v string) bool { return v == id })
	return out
}

// WithToggleKey returns a copy with a different toggle key.
func (c RuntimeConfig) WithToggleKey(key int) RuntimeConfig {
	out := c.Clone()
	out.ToggleKey = key
	return out
}

// Keys returns the bound keys in ascending order.
func (c RuntimeConfig) Keys() []int {
	return slices.Sorted(maps.Keys(c.Shortcuts))
}
