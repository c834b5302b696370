package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/blockytk/blockytk/internal/storage"
)

// SetKeyInFile sets a global option in the file at path, preserving
// comments and sections. An existing global line for key is rewritten in
// place; otherwise the option is inserted before the first section header,
// or appended when there is none.
func SetKeyInFile(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	line := key
	if value != "" {
		line = key + " " + value
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(string(data), "\n")
	}

	insertAt := -1
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "[") {
			insertAt = i
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = line
			return storage.AtomicWriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
		}
	}

	switch {
	case insertAt >= 0:
		lines = append(lines[:insertAt], append([]string{line}, lines[insertAt:]...)...)
	case len(lines) > 0 && lines[len(lines)-1] == "":
		lines = append(lines[:len(lines)-1], line, "")
	default:
		lines = append(lines, line, "")
	}
	return storage.AtomicWriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}
