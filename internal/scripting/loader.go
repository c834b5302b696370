package scripting

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
)

var (
	// ErrNotScript marks a module without a ui export. Such files are
	// helpers for other scripts and are skipped without complaint.
	ErrNotScript = errors.New("module has no ui export")
	// ErrNotRunnable is returned when starting a script without a run export.
	ErrNotRunnable = errors.New("script has no run export")
)

// DefaultLoadTimeout bounds evaluation of a module's top level.
const DefaultLoadTimeout = 5 * time.Second

// loadGrace is how long an interrupted top level gets to unwind before the
// module is abandoned.
const loadGrace = time.Second

// IsCandidate reports whether a directory entry name is a script module.
// index.js and names starting with "_" or "." are excluded.
func IsCandidate(name string) bool {
	if !strings.HasSuffix(name, ".js") {
		return false
	}
	if name == "index.js" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
		return false
	}
	return true
}

// FindScripts lists the candidate modules directly inside dir in lexical
// order.
func FindScripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsCandidate(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// rootedLoader resolves require paths against dir. Module paths are
// absolute within a virtual root, so "/lib/x.js" is dir/lib/x.js.
func rootedLoader(dir string) require.SourceLoader {
	return func(p string) ([]byte, error) {
		rel := strings.TrimPrefix(path.Clean("/"+p), "/")
		full := filepath.Join(dir, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, require.ModuleFileDoesNotExistError
			}
			return nil, err
		}
		if info.IsDir() {
			return nil, require.ModuleFileDoesNotExistError
		}
		return os.ReadFile(full)
	}
}

// jsPlugin is a script module evaluated in its own runtime. The runtime is
// only entered through its event loop, one load or run at a time.
type jsPlugin struct {
	desc   *Descriptor
	loop   *eventloop.EventLoop
	run    goja.Callable
	logger *slog.Logger
	mu     sync.Mutex
}

// loadFile evaluates the module at file in a fresh runtime and extracts its
// descriptor. It returns ErrNotScript for modules without a ui export.
func loadFile(file string, host Host, logger *slog.Logger, timeout time.Duration) (*jsPlugin, error) {
	if host == nil {
		host = nopHost{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	id := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	logger = logger.With("script", id)

	reg := require.NewRegistry(require.WithLoader(rootedLoader(filepath.Dir(file))))
	registerModules(reg, host)
	loop := eventloop.NewEventLoop(eventloop.WithRegistry(reg), eventloop.EnableConsole(false))

	p := &jsPlugin{loop: loop, logger: logger}
	var (
		loadErr error
		vmRef   atomic.Pointer[goja.Runtime]
	)
	done := make(chan struct{})
	// The top level runs on a started loop so that timers it leaves behind
	// cannot hold the load open; they are discarded once it returns.
	loop.Start()
	loop.RunOnLoop(func(vm *goja.Runtime) {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				loadErr = fmt.Errorf("panic: %v", r)
			}
		}()
		vmRef.Store(vm)
		setConsole(vm, logger)

		req, ok := goja.AssertFunction(vm.Get("require"))
		if !ok {
			loadErr = errors.New("require is not available")
			return
		}
		exports, err := req(goja.Undefined(), vm.ToValue("/"+filepath.Base(file)))
		if err != nil {
			loadErr = err
			return
		}
		obj := exports.ToObject(vm)
		ui := obj.Get("ui")
		if ui == nil || goja.IsUndefined(ui) || goja.IsNull(ui) {
			loadErr = ErrNotScript
			return
		}
		desc, err := parseDescriptor(vm, ui)
		if err != nil {
			loadErr = fmt.Errorf("ui export: %w", err)
			return
		}
		p.desc = desc.withIdentity(id, file)
		if run, ok := goja.AssertFunction(obj.Get("run")); ok {
			p.run = run
		}
	})

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case <-done:
	case <-deadline.C:
		if vm := vmRef.Load(); vm != nil {
			vm.Interrupt(fmt.Sprintf("load timed out after %s", timeout))
		}
		// native calls such as sleep do not see the interrupt
		select {
		case <-done:
		case <-time.After(loadGrace):
			loop.StopNoWait()
			return nil, fmt.Errorf("load timed out after %s", timeout)
		}
	}
	if n := loop.Stop(); n > 0 {
		logger.Debug("discarding timers left by module top level", "pending", n)
	}
	loop.Terminate()

	if loadErr != nil {
		return nil, loadErr
	}
	return p, nil
}

func (p *jsPlugin) Descriptor() *Descriptor { return p.desc }

func (p *jsPlugin) Runnable() bool { return p.run != nil }

// Run calls the module's run(params, signal) on the plugin's loop. A
// returned promise is awaited until it settles or ctx is done. Timers the
// script leaves pending when it finishes are discarded.
func (p *jsPlugin) Run(ctx context.Context, params map[string]any) (err error) {
	if p.run == nil {
		return ErrNotRunnable
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var promise *goja.Promise
	called := make(chan struct{})
	settled := make(chan struct{})
	var once sync.Once
	markSettled := func() { once.Do(func() { close(settled) }) }

	p.loop.Start()
	defer p.loop.Terminate()
	p.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer close(called)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		vm.ClearInterrupt()
		args := vm.NewObject()
		for k, v := range params {
			_ = args.Set(k, v)
		}
		result, runErr := p.run(goja.Undefined(), args, newSignal(vm, ctx))
		if runErr != nil {
			err = runErr
			return
		}
		if result == nil {
			return
		}
		pr, ok := result.Export().(*goja.Promise)
		if !ok {
			return
		}
		promise = pr
		if pr.State() != goja.PromiseStatePending {
			markSettled()
			return
		}
		then, ok := goja.AssertFunction(result.ToObject(vm).Get("then"))
		if !ok {
			err = errors.New("returned promise has no then")
			return
		}
		onSettled := vm.ToValue(func(goja.FunctionCall) goja.Value {
			markSettled()
			return goja.Undefined()
		})
		_, err = then(result, onSettled, onSettled)
	})
	<-called
	if err != nil {
		return scriptError(err)
	}
	if promise == nil {
		return nil
	}

	select {
	case <-settled:
	case <-ctx.Done():
	}
	// the loop must be idle before the promise is inspected
	p.loop.Stop()
	switch promise.State() {
	case goja.PromiseStateFulfilled:
		return nil
	case goja.PromiseStateRejected:
		return fmt.Errorf("rejected: %s", describe(promise.Result()))
	default:
		// stopped while still pending
		return nil
	}
}

// scriptError reduces a thrown JS value to its message.
func scriptError(err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return errors.New(describe(ex.Value()))
	}
	return err
}

func describe(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	return v.String()
}
