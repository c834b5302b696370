package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blockytk/blockytk/internal/config"
)

const counterScript = `const ui = require('blockytk:ui');
const game = require('blockytk:game');

exports.ui = ui.script('Counter', 'Testing', 'Counts to n')
    .int('n', 'Count', 2, 1, 10)
    .bool('loud', 'Loud', false)
    .dropdown('mode', 'Mode', ['up', 'down'])
    .shortcut(74)
    .export();

exports.run = function (params, signal) {
    for (let i = 0; i < params.n; i++) {
        game.echo('tick ' + i + ' ' + params.mode);
    }
    if (params.loud) {
        game.execute('/say done');
    }
};
`

const failingScript = `exports.ui = { title: 'Broken Tool', category: 'Testing' };
exports.run = function () { throw new Error('no pickaxe'); };
`

const sleeperScript = `const ui = require('blockytk:ui');
exports.ui = ui.script('Sleeper', 'Testing').export();
exports.run = function (params, signal) { signal.wait(); };
`

// testConfig returns a config whose scripts directory holds the given
// scripts and whose key map lives in a temp dir.
func testConfig(t *testing.T, scripts map[string]string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	scriptsDir := filepath.Join(dir, "scripts")
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, src := range scripts {
		if err := os.WriteFile(filepath.Join(scriptsDir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyScriptsDir, scriptsDir)
	cfg.SetGlobalOption(config.KeyKeymapFile, filepath.Join(dir, "keys.json"))
	cfg.SetGlobalOption(config.KeyLogLevel, "error")
	return cfg, dir
}
