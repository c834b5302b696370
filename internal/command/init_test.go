package command

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blockytk/blockytk/internal/config"
)

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config")
	t.Setenv(config.EnvConfigPath, configPath)
	ctx := context.Background()

	stdout, _, err := execute(t, ctx, NewInitCommand())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stdout, "Wrote configuration to "+configPath) {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	for _, rel := range []string{"scripts/strip_miner.js", "scripts/auto_farm.js", "scripts/lib/blocks.js", "keys.json"} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}

	// user edits survive a second init
	miner := filepath.Join(dir, "scripts", "strip_miner.js")
	if err := os.WriteFile(miner, []byte("// mine"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err = execute(t, ctx, NewInitCommand())
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(stdout, "Configuration already exists") || !strings.Contains(stdout, "Wrote 0 sample scripts") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	if data, _ := os.ReadFile(miner); string(data) != "// mine" {
		t.Errorf("sample overwritten without -force")
	}

	if _, _, err := execute(t, ctx, NewInitCommand(), "-force"); err != nil {
		t.Fatalf("init -force: %v", err)
	}
	if data, _ := os.ReadFile(miner); string(data) == "// mine" {
		t.Errorf("-force did not restore the sample")
	}
}

func TestInitSamplesLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfigPath, filepath.Join(dir, "config"))
	ctx := context.Background()
	if _, _, err := execute(t, ctx, NewInitCommand()); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	stdout, stderr, err := execute(t, ctx, NewListCommand(cfg))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if stderr != "" {
		t.Errorf("samples failed to load: %s", stderr)
	}
	for _, id := range []string{"strip_miner", "auto_farm", "rail_travel"} {
		if !strings.Contains(stdout, id) {
			t.Errorf("list missing %s:\n%s", id, stdout)
		}
	}
	if strings.Contains(stdout, "blocks") {
		t.Errorf("library module listed as a script:\n%s", stdout)
	}
}
