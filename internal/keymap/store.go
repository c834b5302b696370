package keymap

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/blockytk/blockytk/internal/storage"
)

// fileFormat is the on-disk shape: {"key_toggle": 344, "shortcuts": {"71": "miner"}}.
type fileFormat struct {
	ToggleKey *int              `json:"key_toggle,omitempty"`
	Shortcuts map[string]string `json:"shortcuts,omitempty"`
}

// Store loads and saves a RuntimeConfig at a single path and holds the
// current in-memory value.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current RuntimeConfig
}

// NewStore creates a Store for path holding the defaults until Load.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger, current: Default()}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the file into memory. A missing or unreadable file yields the
// defaults, and fields missing from the file keep their default values.
func (s *Store) Load() RuntimeConfig {
	cfg, err := readFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = Default()
	case err != nil:
		s.logger.Warn("keymap unreadable, using defaults", "path", s.path, "error", err)
		cfg = Default()
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return cfg.Clone()
}

func readFile(path string) (RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeConfig{}, err
	}
	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return RuntimeConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg := Default()
	if ff.ToggleKey != nil {
		cfg.ToggleKey = *ff.ToggleKey
	}
	for k, id := range ff.Shortcuts {
		key, err := strconv.Atoi(k)
		if err != nil {
			return RuntimeConfig{}, fmt.Errorf("parse %s: shortcut key %q is not a key code", path, k)
		}
		cfg.Shortcuts[key] = id
	}
	return cfg, nil
}

// Current returns a copy of the in-memory configuration.
func (s *Store) Current() RuntimeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Save writes cfg atomically and, on success, makes it current. On failure
// the error is logged and returned and the in-memory value is unchanged.
func (s *Store) Save(cfg RuntimeConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(cfg)
}

func (s *Store) saveLocked(cfg RuntimeConfig) error {
	toggle := cfg.ToggleKey
	ff := fileFormat{ToggleKey: &toggle, Shortcuts: make(map[string]string, len(cfg.Shortcuts))}
	for k, id := range cfg.Shortcuts {
		ff.Shortcuts[strconv.Itoa(k)] = id
	}
	if err := storage.AtomicWriteJSON(s.path, ff, 0644); err != nil {
		s.logger.Error("failed to save keymap", "path", s.path, "error", err)
		return fmt.Errorf("save keymap: %w", err)
	}
	s.current = cfg.Clone()
	return nil
}

// Update applies fn to the current configuration and saves the result.
func (s *Store) Update(fn func(RuntimeConfig) RuntimeConfig) (RuntimeConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.current.Clone())
	if err := s.saveLocked(next); err != nil {
		return s.current.Clone(), err
	}
	return next.Clone(), nil
}

// Bind binds key to id and saves.
func (s *Store) Bind(key int, id string) (RuntimeConfig, error) {
	return s.Update(func(c RuntimeConfig) RuntimeConfig { return c.Bind(key, id) })
}

// Unbind removes any binding for id and saves.
func (s *Store) Unbind(id string) (RuntimeConfig, error) {
	return s.Update(func(c RuntimeConfig) RuntimeConfig { return c.Unbind(id) })
}

// SetToggleKey changes the toggle key and saves.
func (s *Store) SetToggleKey(key int) (RuntimeConfig, error) {
	return s.Update(func(c RuntimeConfig) RuntimeConfig { return c.WithToggleKey(key) })
}

// EnsureExists writes the current configuration when the file is missing.
func (s *Store) EnsureExists() error {
	if _, err := os.Stat(s.path); err == nil || !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return s.Save(s.Current())
}
