package scripting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

// Native module names scripts can require.
const (
	ModuleUI   = "blockytk:ui"
	ModuleGame = "blockytk:game"
	ModuleTime = "blockytk:time"
)

// Host is the game side a script talks to through blockytk:game.
type Host interface {
	Echo(msg string)
	Execute(cmd string)
	// Screen reports the open game menu, if any.
	Screen() (string, bool)
}

type nopHost struct{}

func (nopHost) Echo(string)            {}
func (nopHost) Execute(string)         {}
func (nopHost) Screen() (string, bool) { return "", false }

func registerModules(reg *require.Registry, host Host) {
	reg.RegisterNativeModule(ModuleUI, uiModule)
	reg.RegisterNativeModule(ModuleGame, gameModule(host))
	reg.RegisterNativeModule(ModuleTime, timeModule)
}

func timeModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)

	// sleep(ms: number): void
	_ = exports.Set("sleep", func(call goja.FunctionCall) goja.Value {
		time.Sleep(time.Duration(call.Argument(0).ToFloat() * float64(time.Millisecond)))
		return goja.Undefined()
	})
}

func gameModule(host Host) require.ModuleLoader {
	return func(vm *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)
		_ = exports.Set("echo", func(call goja.FunctionCall) goja.Value {
			host.Echo(call.Argument(0).String())
			return goja.Undefined()
		})
		_ = exports.Set("execute", func(call goja.FunctionCall) goja.Value {
			host.Execute(call.Argument(0).String())
			return goja.Undefined()
		})
		_ = exports.Set("screen", func(goja.FunctionCall) goja.Value {
			name, ok := host.Screen()
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(name)
		})
	}
}

func uiModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)
	// script(title, category?, description?): builder
	_ = exports.Set("script", func(call goja.FunctionCall) goja.Value {
		b := NewBuilder(optString(call.Argument(0), ""))
		b.Category(optString(call.Argument(1), ""))
		b.Description(optString(call.Argument(2), ""))
		return newJSBuilder(vm, b)
	})
}

// newJSBuilder wraps b in a chainable JS object.
func newJSBuilder(vm *goja.Runtime, b *Builder) *goja.Object {
	obj := vm.NewObject()
	chain := func(fn func(call goja.FunctionCall)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			fn(call)
			return obj
		}
	}
	methods := map[string]func(goja.FunctionCall) goja.Value{
		"int": chain(func(call goja.FunctionCall) {
			b.AddInt(controlID(vm, call), call.Argument(1).String(),
				optInt(call.Argument(2), 0), optInt(call.Argument(3), 0), optInt(call.Argument(4), 100))
		}),
		"float": chain(func(call goja.FunctionCall) {
			b.AddFloat(controlID(vm, call), call.Argument(1).String(),
				optFloat(call.Argument(2), 0), optFloat(call.Argument(3), 0), optFloat(call.Argument(4), 1))
		}),
		"bool": chain(func(call goja.FunctionCall) {
			b.AddBool(controlID(vm, call), call.Argument(1).String(), call.Argument(2).ToBoolean())
		}),
		"dropdown": chain(func(call goja.FunctionCall) {
			var def []string
			if v := call.Argument(3); !goja.IsUndefined(v) && !goja.IsNull(v) {
				def = append(def, v.String())
			}
			b.AddDropdown(controlID(vm, call), call.Argument(1).String(), stringList(vm, call.Argument(2)), def...)
		}),
		"text": chain(func(call goja.FunctionCall) {
			b.AddText(controlID(vm, call), call.Argument(1).String(), optString(call.Argument(2), ""))
		}),
		"shortcut": chain(func(call goja.FunctionCall) {
			b.Shortcut(int(call.Argument(0).ToInteger()))
		}),
		"category": chain(func(call goja.FunctionCall) {
			b.Category(call.Argument(0).String())
		}),
		"description": chain(func(call goja.FunctionCall) {
			b.Description(call.Argument(0).String())
		}),
	}
	for name, fn := range methods {
		_ = obj.Set(name, fn)
		if name != "category" && name != "description" && name != "shortcut" {
			_ = obj.Set("add"+strings.ToUpper(name[:1])+name[1:], fn)
		}
	}
	export := func(goja.FunctionCall) goja.Value {
		return vm.ToValue(b.Build())
	}
	_ = obj.Set("export", export)
	_ = obj.Set("build", export)
	return obj
}

func controlID(vm *goja.Runtime, call goja.FunctionCall) string {
	id := call.Argument(0)
	if goja.IsUndefined(id) || goja.IsNull(id) || id.String() == "" {
		panic(vm.NewTypeError("control id is required"))
	}
	return id.String()
}

func optString(v goja.Value, def string) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return def
	}
	return v.String()
}

func optInt(v goja.Value, def int64) int64 {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return def
	}
	return v.ToInteger()
}

func optFloat(v goja.Value, def float64) float64 {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return def
	}
	return v.ToFloat()
}

func stringList(vm *goja.Runtime, v goja.Value) []string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	var out []string
	if err := vm.ExportTo(v, &out); err != nil {
		panic(vm.NewTypeError("options must be an array of strings"))
	}
	return out
}

// setConsole installs a console global that writes to logger.
func setConsole(vm *goja.Runtime, logger *slog.Logger) {
	console := vm.NewObject()
	logAt := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			logger.Log(context.Background(), level, strings.Join(parts, " "))
			return goja.Undefined()
		}
	}
	_ = console.Set("log", logAt(slog.LevelInfo))
	_ = console.Set("info", logAt(slog.LevelInfo))
	_ = console.Set("warn", logAt(slog.LevelWarn))
	_ = console.Set("error", logAt(slog.LevelError))
	_ = console.Set("debug", logAt(slog.LevelDebug))
	_ = vm.Set("console", console)
}

// parseDescriptor converts an exports.ui value into a Descriptor. It accepts
// a built descriptor, an unbuilt JS builder or a plain object.
func parseDescriptor(vm *goja.Runtime, v goja.Value) (*Descriptor, error) {
	if d, ok := v.Export().(*Descriptor); ok {
		return d, nil
	}
	obj := v.ToObject(vm)
	if build, ok := goja.AssertFunction(obj.Get("export")); ok {
		res, err := build(obj)
		if err != nil {
			return nil, err
		}
		if d, ok := res.Export().(*Descriptor); ok {
			return d, nil
		}
	}

	b := NewBuilder(optString(obj.Get("title"), ""))
	b.Category(optString(obj.Get("category"), ""))
	b.Description(optString(obj.Get("description"), ""))
	if key := obj.Get("shortcut_key"); key != nil && !goja.IsUndefined(key) && !goja.IsNull(key) {
		b.Shortcut(int(key.ToInteger()))
	}

	controls := obj.Get("controls")
	if controls == nil || goja.IsUndefined(controls) || goja.IsNull(controls) {
		return b.Build(), nil
	}
	cobj, ok := controls.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("controls must be an object, got %s", controls.String())
	}
	for _, id := range cobj.Keys() {
		spec, ok := cobj.Get(id).(*goja.Object)
		if !ok {
			return nil, fmt.Errorf("control %q must be an object", id)
		}
		if err := addPlainControl(vm, b, id, spec); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func addPlainControl(vm *goja.Runtime, b *Builder, id string, spec *goja.Object) error {
	label := optString(spec.Get("label"), id)
	def := spec.Get("default")
	kind, _ := ParseKind(optString(spec.Get("type"), "text"))
	switch kind {
	case KindInt:
		b.AddInt(id, label, optInt(def, 0), optInt(spec.Get("min"), 0), optInt(spec.Get("max"), 100))
	case KindFloat:
		b.AddFloat(id, label, optFloat(def, 0), optFloat(spec.Get("min"), 0), optFloat(spec.Get("max"), 1))
	case KindBool:
		b.AddBool(id, label, def != nil && def.ToBoolean())
	case KindDropdown:
		var defs []string
		if def != nil && !goja.IsUndefined(def) && !goja.IsNull(def) {
			defs = append(defs, def.String())
		}
		var options []string
		if v := spec.Get("options"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
			if err := vm.ExportTo(v, &options); err != nil {
				return fmt.Errorf("control %q: options must be an array of strings", id)
			}
		}
		b.AddDropdown(id, label, options, defs...)
	default:
		b.AddText(id, label, optString(def, ""))
	}
	return nil
}
