package scripting

import (
	"maps"
	"slices"
	"strings"
)

// Uncategorized is the category of scripts that do not name one. It always
// sorts last.
const Uncategorized = "Uncategorized"

// Controls is an immutable, insertion-ordered set of ControlSpec keyed by id.
type Controls struct {
	specs []ControlSpec
	index map[string]int
}

// Len returns the number of controls.
func (c Controls) Len() int {
	return len(c.specs)
}

// Get returns the control with the given id.
func (c Controls) Get(id string) (ControlSpec, bool) {
	i, ok := c.index[id]
	if !ok {
		return ControlSpec{}, false
	}
	return c.specs[i], true
}

// All returns the controls in declaration order.
func (c Controls) All() []ControlSpec {
	out := make([]ControlSpec, len(c.specs))
	for i, s := range c.specs {
		s.Options = slices.Clone(s.Options)
		out[i] = s
	}
	return out
}

// IDs returns the control ids in declaration order.
func (c Controls) IDs() []string {
	out := make([]string, len(c.specs))
	for i, s := range c.specs {
		out[i] = s.ID
	}
	return out
}

// Defaults returns {id: default} for every control.
func (c Controls) Defaults() map[string]any {
	out := make(map[string]any, len(c.specs))
	for _, s := range c.specs {
		out[s.ID] = s.Default
	}
	return out
}

// Descriptor is the declarative description a script gives of itself. It is
// built once per load and never modified.
type Descriptor struct {
	// ID is the script file name without its extension.
	ID          string
	Title       string
	Description string
	Category    string
	Controls    Controls
	// ShortcutKey is the key the script suggests binding, 0 for none.
	ShortcutKey int
	// Source is the file the script was loaded from, "" for built-in plugins.
	Source string
}

// Defaults returns the parameters a script receives when started without
// any user input.
func (d *Descriptor) Defaults() map[string]any {
	return d.Controls.Defaults()
}

// Builder assembles a Descriptor. Adding a control with an id that already
// exists replaces it but keeps its original position.
type Builder struct {
	title       string
	category    string
	description string
	shortcut    int
	specs       []ControlSpec
	index       map[string]int
}

// NewBuilder starts a descriptor with the given title.
func NewBuilder(title string) *Builder {
	return &Builder{title: title, index: make(map[string]int)}
}

// Category sets the category. Blank means Uncategorized.
func (b *Builder) Category(category string) *Builder {
	b.category = category
	return b
}

// Description sets the description.
func (b *Builder) Description(description string) *Builder {
	b.description = description
	return b
}

// Shortcut sets the suggested shortcut key.
func (b *Builder) Shortcut(key int) *Builder {
	b.shortcut = key
	return b
}

func (b *Builder) put(spec ControlSpec) *Builder {
	if i, ok := b.index[spec.ID]; ok {
		b.specs[i] = spec
		return b
	}
	b.index[spec.ID] = len(b.specs)
	b.specs = append(b.specs, spec)
	return b
}

// normalizeBounds swaps inverted bounds and clamps def into them.
func normalizeBounds(def, lo, hi float64) (float64, float64, float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	return clamp(def, lo, hi), lo, hi
}

// AddInt adds an integer slider.
func (b *Builder) AddInt(id, label string, def, lo, hi int64) *Builder {
	d, l, h := normalizeBounds(float64(def), float64(lo), float64(hi))
	return b.put(ControlSpec{ID: id, Label: label, Kind: KindInt, Default: int64(d), Min: l, Max: h})
}

// AddFloat adds a float slider.
func (b *Builder) AddFloat(id, label string, def, lo, hi float64) *Builder {
	d, l, h := normalizeBounds(def, lo, hi)
	return b.put(ControlSpec{ID: id, Label: label, Kind: KindFloat, Default: d, Min: l, Max: h})
}

// AddBool adds an on/off toggle.
func (b *Builder) AddBool(id, label string, def bool) *Builder {
	return b.put(ControlSpec{ID: id, Label: label, Kind: KindBool, Default: def})
}

// AddDropdown adds a choice between options. The default is def[0] when
// given, otherwise the first option ("" when there are none).
func (b *Builder) AddDropdown(id, label string, options []string, def ...string) *Builder {
	options = slices.Clone(options)
	value := ""
	switch {
	case len(def) > 0:
		value = def[0]
	case len(options) > 0:
		value = options[0]
	}
	return b.put(ControlSpec{ID: id, Label: label, Kind: KindDropdown, Default: value, Options: options})
}

// AddText adds a free-form text input.
func (b *Builder) AddText(id, label, def string) *Builder {
	return b.put(ControlSpec{ID: id, Label: label, Kind: KindText, Default: def})
}

// Build returns the finished descriptor. The builder may keep being used;
// later changes do not affect descriptors already built.
func (b *Builder) Build() *Descriptor {
	specs := make([]ControlSpec, len(b.specs))
	for i, s := range b.specs {
		s.Options = slices.Clone(s.Options)
		specs[i] = s
	}
	category := strings.TrimSpace(b.category)
	if category == "" {
		category = Uncategorized
	}
	return &Descriptor{
		Title:       b.title,
		Description: b.description,
		Category:    category,
		Controls:    Controls{specs: specs, index: maps.Clone(b.index)},
		ShortcutKey: b.shortcut,
	}
}

// withIdentity returns a copy of d bound to a script id and source file,
// defaulting the title to the id.
func (d *Descriptor) withIdentity(id, source string) *Descriptor {
	c := *d
	c.ID = id
	c.Source = source
	if strings.TrimSpace(c.Title) == "" {
		c.Title = id
	}
	if c.Category == "" {
		c.Category = Uncategorized
	}
	return &c
}
