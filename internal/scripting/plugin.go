package scripting

import (
	"context"
)

// RunFunc is a script body. It should return promptly once ctx is done.
type RunFunc func(ctx context.Context, params map[string]any) error

// Plugin is a loaded script: its descriptor plus an optional body.
type Plugin interface {
	Descriptor() *Descriptor
	// Runnable reports whether the script has a body. Scripts without one
	// are listed but cannot be started.
	Runnable() bool
	Run(ctx context.Context, params map[string]any) error
}

// FuncPlugin adapts a Go function into a Plugin.
type FuncPlugin struct {
	desc *Descriptor
	fn   RunFunc
}

// NewFuncPlugin returns a plugin with the given id backed by fn. fn may be
// nil for a script that only declares controls.
func NewFuncPlugin(id string, desc *Descriptor, fn RunFunc) *FuncPlugin {
	return &FuncPlugin{desc: desc.withIdentity(id, ""), fn: fn}
}

func (p *FuncPlugin) Descriptor() *Descriptor { return p.desc }

func (p *FuncPlugin) Runnable() bool { return p.fn != nil }

func (p *FuncPlugin) Run(ctx context.Context, params map[string]any) error {
	if p.fn == nil {
		return ErrNotRunnable
	}
	return p.fn(ctx, params)
}
