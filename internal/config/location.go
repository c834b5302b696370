package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "BLOCKYTK_CONFIG"

// GetConfigPath returns $BLOCKYTK_CONFIG if set, else ~/.blockytk/config.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".blockytk", "config"), nil
}

// EnsureConfigDir creates the directory holding the configuration file.
func EnsureConfigDir() error {
	p, err := GetConfigPath()
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(p), 0755)
}

// BaseDir is the directory relative paths in the configuration resolve
// against: the directory of the loaded file, or of GetConfigPath when the
// config was not read from disk.
func (c *Config) BaseDir() string {
	if c.path != "" {
		return filepath.Dir(c.path)
	}
	if p, err := GetConfigPath(); err == nil {
		return filepath.Dir(p)
	}
	return "."
}

// ResolvePath resolves the schema value of key and anchors it to BaseDir
// when relative. It returns "" when the key has no value.
func (c *Config) ResolvePath(key string) string {
	v := DefaultSchema().Resolve(c, key)
	if v == "" {
		return ""
	}
	if len(v) > 1 && v[0] == '~' && (v[1] == '/' || v[1] == filepath.Separator) {
		if home, err := os.UserHomeDir(); err == nil {
			v = filepath.Join(home, v[2:])
		}
	}
	if filepath.IsAbs(v) {
		return filepath.Clean(v)
	}
	return filepath.Join(c.BaseDir(), v)
}
