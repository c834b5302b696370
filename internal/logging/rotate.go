package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// RotatingFile is an io.WriteCloser that rolls the log over once it would
// grow past a size limit. The live file is path; older generations are
// path.1 (newest) through path.N.
type RotatingFile struct {
	mu    sync.Mutex
	path  string
	limit int64
	keep  int
	size  int64
	file  *os.File
}

// OpenRotatingFile opens (appending to) path. maxSizeMB is clamped to at
// least 1; maxFiles below zero is treated as zero, meaning the live file is
// simply truncated on rollover.
func OpenRotatingFile(path string, maxSizeMB, maxFiles int) (*RotatingFile, error) {
	maxSizeMB = max(maxSizeMB, 1)
	maxFiles = max(maxFiles, 0)

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("logging: mkdir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("logging: stat %s: %w", path, err)
	}
	return &RotatingFile{
		path:  path,
		limit: int64(maxSizeMB) << 20,
		keep:  maxFiles,
		size:  info.Size(),
		file:  f,
	}, nil
}

// Write implements io.Writer. A write never straddles two files: when p
// would overflow the live file it is rolled first.
func (w *RotatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.roll(); err != nil {
			return 0, fmt.Errorf("logging: rotate: %w", err)
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close implements io.Closer.
func (w *RotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// roll must be called with mu held.
func (w *RotatingFile) roll() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	gens := w.generations()
	// highest first so nothing is overwritten
	for i := len(gens) - 1; i >= 0; i-- {
		n := gens[i]
		if n+1 > w.keep {
			_ = os.Remove(w.generation(n))
			continue
		}
		_ = os.Rename(w.generation(n), w.generation(n+1))
	}
	if w.keep > 0 {
		_ = os.Rename(w.path, w.generation(1))
	} else {
		_ = os.Remove(w.path)
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		w.file = nil
		return err
	}
	w.file = f
	w.size = 0
	return nil
}

func (w *RotatingFile) generation(n int) string {
	return w.path + "." + strconv.Itoa(n)
}

// generations lists the existing backup numbers in ascending order.
func (w *RotatingFile) generations() []int {
	entries, err := os.ReadDir(filepath.Dir(w.path))
	if err != nil {
		return nil
	}
	prefix := filepath.Base(w.path) + "."
	var out []int
	for _, e := range entries {
		suffix, ok := strings.CutPrefix(e.Name(), prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n >= 1 {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}

var _ io.WriteCloser = (*RotatingFile)(nil)
