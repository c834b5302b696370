package scripting

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures a Registry.
type Options struct {
	// Dir is the scripts directory. It is created on first reload.
	Dir string
	// Host backs the blockytk:game module. Nil discards game calls.
	Host Host
	// Logger receives load failures and script console output.
	Logger *slog.Logger
	// LoadTimeout bounds top-level evaluation of each module.
	LoadTimeout time.Duration
	// Builtins are Go plugins listed after the directory's scripts. A
	// directory script with the same id replaces the builtin.
	Builtins []Plugin
}

// Registry discovers script modules and publishes them as a Catalog.
type Registry struct {
	opts    Options
	logger  *slog.Logger
	catalog atomic.Pointer[Catalog]
	// serializes Reload
	mu sync.Mutex
}

// NewRegistry returns a registry with an empty catalog. Call Reload to
// populate it.
func NewRegistry(opts Options) *Registry {
	if opts.Host == nil {
		opts.Host = nopHost{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	r := &Registry{opts: opts, logger: opts.Logger}
	r.catalog.Store(NewCatalog(opts.Builtins, nil))
	return r
}

// Dir returns the scripts directory.
func (r *Registry) Dir() string {
	return r.opts.Dir
}

// Catalog returns the most recently loaded catalog.
func (r *Registry) Catalog() *Catalog {
	return r.catalog.Load()
}

// Reload evaluates every candidate module afresh and replaces the catalog.
// A module that fails to load is logged and skipped. The returned error is
// only set when the directory itself cannot be read, in which case the
// previous catalog is kept. Concurrent calls run one after another.
func (r *Registry) Reload() (*Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.MkdirAll(r.opts.Dir, 0o755); err != nil {
		return r.Catalog(), fmt.Errorf("create scripts directory: %w", err)
	}
	files, err := FindScripts(r.opts.Dir)
	if err != nil {
		return r.Catalog(), fmt.Errorf("read scripts directory: %w", err)
	}

	var (
		plugins  []Plugin
		failures []LoadFailure
	)
	for _, file := range files {
		p, err := loadFile(file, r.opts.Host, r.logger, r.opts.LoadTimeout)
		switch {
		case errors.Is(err, ErrNotScript):
			r.logger.Debug("skipping module without ui export", "path", file)
		case err != nil:
			r.logger.Error("failed to load script", "path", file, "error", err)
			failures = append(failures, LoadFailure{Path: file, Err: fmt.Errorf("%s: %w", file, err)})
		default:
			plugins = append(plugins, p)
		}
	}

	// directory scripts come first so they shadow builtins of the same id
	plugins = append(plugins, r.opts.Builtins...)
	c := NewCatalog(plugins, failures)
	r.catalog.Store(c)
	r.logger.Info("scripts loaded", "dir", r.opts.Dir, "count", c.Count(), "failed", len(failures))
	return c, nil
}
