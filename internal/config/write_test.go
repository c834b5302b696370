package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetKeyInFile_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config")

	require.NoError(t, SetKeyInFile(path, KeyGameURL, "ws://localhost:8787"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "game.url ws://localhost:8787\n", string(data))
}

func TestSetKeyInFile_ReplacesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nlog.level info\nscripts.watch true\n"), 0644))

	require.NoError(t, SetKeyInFile(path, KeyLogLevel, "debug"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# comment\nlog.level debug\nscripts.watch true\n", string(data))
}

func TestSetKeyInFile_InsertsBeforeSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("log.level info\n[overlay]\nlog.level debug\n"), 0644))

	require.NoError(t, SetKeyInFile(path, KeyLogLevel+"x", "1"))
	require.NoError(t, SetKeyInFile(path, KeyScriptsWatch, "false"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "log.level info\nlog.levelx 1\nscripts.watch false\n[overlay]\nlog.level debug\n", string(data))
}

func TestSetKeyInFile_IgnoresSectionKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("[overlay]\nlog.level debug\n"), 0644))

	require.NoError(t, SetKeyInFile(path, KeyLogLevel, "warn"))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	v, _ := cfg.GetGlobalOption(KeyLogLevel)
	assert.Equal(t, "warn", v)
	assert.Equal(t, "debug", cfg.Sections["overlay"][KeyLogLevel])
}

func TestSetKeyInFile_EmptyValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, SetKeyInFile(path, KeyGameURL, ""))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	v, ok := cfg.GetGlobalOption(KeyGameURL)
	assert.True(t, ok)
	assert.Equal(t, "", v)
}
