package scripting

import (
	"slices"
	"strings"
)

// LoadFailure records a script file that could not be loaded.
type LoadFailure struct {
	Path string
	Err  error
}

// Catalog is an immutable snapshot of the loaded scripts, grouped by
// category. A new Catalog is built on every reload.
type Catalog struct {
	byCategory map[string][]Plugin
	categories []string
	byID       map[string]Plugin
	order      []Plugin
	failures   []LoadFailure
}

// NewCatalog groups plugins by category, keeping their order within each
// category. A plugin whose id was already seen is dropped, so earlier
// plugins take precedence.
func NewCatalog(plugins []Plugin, failures []LoadFailure) *Catalog {
	c := &Catalog{
		byCategory: make(map[string][]Plugin),
		byID:       make(map[string]Plugin, len(plugins)),
		failures:   slices.Clone(failures),
	}
	var seen []string
	for _, p := range plugins {
		d := p.Descriptor()
		if _, dup := c.byID[d.ID]; dup {
			continue
		}
		c.byID[d.ID] = p
		c.order = append(c.order, p)
		if _, ok := c.byCategory[d.Category]; !ok {
			seen = append(seen, d.Category)
		}
		c.byCategory[d.Category] = append(c.byCategory[d.Category], p)
	}
	c.categories = SortCategories(seen)
	return c
}

// SortCategories returns the categories in byte order (so "Zeta" sorts
// before "beta") with Uncategorized moved to the end.
func SortCategories(categories []string) []string {
	out := slices.Clone(categories)
	slices.SortStableFunc(out, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == Uncategorized:
			return 1
		case b == Uncategorized:
			return -1
		}
		return strings.Compare(a, b)
	})
	return out
}

// Categories returns the display order of categories.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.categories)
}

// Scripts returns the plugins of a category in discovery order.
func (c *Catalog) Scripts(category string) []Plugin {
	if c == nil {
		return nil
	}
	return slices.Clone(c.byCategory[category])
}

// Lookup finds a plugin by script id.
func (c *Catalog) Lookup(id string) (Plugin, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.byID[id]
	return p, ok
}

// All returns every plugin in discovery order.
func (c *Catalog) All() []Plugin {
	if c == nil {
		return nil
	}
	return slices.Clone(c.order)
}

// Count returns the number of loaded scripts.
func (c *Catalog) Count() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Failures returns the files that failed to load.
func (c *Catalog) Failures() []LoadFailure {
	if c == nil {
		return nil
	}
	return slices.Clone(c.failures)
}
