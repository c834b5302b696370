package command

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blockytk/blockytk/internal/app"
	"github.com/blockytk/blockytk/internal/config"
	"github.com/blockytk/blockytk/internal/keymap"
)

// execute parses args with cmd's flags and runs it, like main does.
func execute(t *testing.T, ctx context.Context, cmd Command, args ...string) (string, string, error) {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.SetupFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	var stdout, stderr bytes.Buffer
	err := cmd.Execute(ctx, fs.Args(), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestListCommand(t *testing.T) {
	cfg, _ := testConfig(t, map[string]string{
		"counter.js": counterScript,
		"broken.js":  failingScript,
		"bad.js":     "exports.ui = ;",
	})

	stdout, stderr, err := execute(t, context.Background(), NewListCommand(cfg), "-v")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Testing", "counter", "Counter", "(J)", "broken", "Broken Tool", "n", "2 in [1, 10]", "up of up|down"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("list output missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "bad.js") {
		t.Errorf("expected load failure for bad.js on stderr, got %q", stderr)
	}
}

func TestListCommandEmpty(t *testing.T) {
	cfg, _ := testConfig(t, nil)
	stdout, _, err := execute(t, context.Background(), NewListCommand(cfg))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(stdout, "No scripts in") {
		t.Errorf("unexpected output: %s", stdout)
	}
}

func TestRunCommand(t *testing.T) {
	cfg, _ := testConfig(t, map[string]string{
		"counter.js": counterScript,
		"broken.js":  failingScript,
		"sleeper.js": sleeperScript,
		"stubborn.js": `const ui = require('blockytk:ui');
exports.ui = ui.script('Stubborn', 'Testing').export();
exports.run = function () { require('blockytk:time').sleep(3000); };
`,
	})
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		stdout, _, err := execute(t, ctx, NewRunCommand(cfg), "counter")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if !strings.Contains(stdout, "tick 1 up") || strings.Contains(stdout, "tick 2") {
			t.Errorf("expected two ticks:\n%s", stdout)
		}
		if !strings.Contains(stdout, "counter finished in") {
			t.Errorf("missing completion line:\n%s", stdout)
		}
	})

	t.Run("settings", func(t *testing.T) {
		stdout, _, err := execute(t, ctx, NewRunCommand(cfg), "-set", "n=3", "-set", "loud=yes", "-set", "mode=down", "counter")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		for _, want := range []string{"tick 2 down", "> /say done"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("missing %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("out of range setting", func(t *testing.T) {
		_, _, err := execute(t, ctx, NewRunCommand(cfg), "-set", "n=99", "counter")
		if err == nil {
			t.Fatal("expected error for n=99")
		}
	})

	t.Run("unknown control", func(t *testing.T) {
		_, _, err := execute(t, ctx, NewRunCommand(cfg), "-set", "speed=2", "counter")
		if err == nil || !strings.Contains(err.Error(), `no control "speed"`) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown script", func(t *testing.T) {
		_, _, err := execute(t, ctx, NewRunCommand(cfg), "nothing")
		if !errors.Is(err, app.ErrUnknownScript) {
			t.Fatalf("expected ErrUnknownScript, got %v", err)
		}
	})

	t.Run("script error", func(t *testing.T) {
		stdout, _, err := execute(t, ctx, NewRunCommand(cfg), "broken")
		if err == nil || err.Error() != "no pickaxe" {
			t.Fatalf("expected script error, got %v", err)
		}
		if !strings.Contains(stdout, "Error: no pickaxe") {
			t.Errorf("expected error echo:\n%s", stdout)
		}
	})

	t.Run("interrupted", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		stdout, stderr, err := execute(t, cctx, NewRunCommand(cfg), "sleeper")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if !strings.Contains(stderr, "stopping sleeper") || !strings.Contains(stdout, "sleeper stopped after") {
			t.Errorf("unexpected output:\nstdout: %s\nstderr: %s", stdout, stderr)
		}
	})

	t.Run("ignores stop", func(t *testing.T) {
		cfg.SetGlobalOption(config.KeyRunStopTimeout, "500ms")
		defer cfg.SetGlobalOption(config.KeyRunStopTimeout, "5s")
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		start := time.Now()
		_, _, err := execute(t, cctx, NewRunCommand(cfg), "stubborn")
		elapsed := time.Since(start)
		if err == nil || !strings.Contains(err.Error(), "script did not stop within 500ms") {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(err.Error(), "did not stop") != 1 {
			t.Errorf("timeout reported more than once: %v", err)
		}
		if elapsed >= 900*time.Millisecond {
			t.Errorf("waited %s for a script that ignored its stop", elapsed)
		}
	})

	t.Run("needs an id", func(t *testing.T) {
		if _, _, err := execute(t, ctx, NewRunCommand(cfg)); err == nil {
			t.Fatal("expected error without script id")
		}
	})
}

func TestSettingsFlag(t *testing.T) {
	var s settings
	if err := s.Set("a=1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("b"); err == nil {
		t.Fatal("expected error for missing '='")
	}
	if s.String() != "a=1" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestBindCommand(t *testing.T) {
	cfg, dir := testConfig(t, map[string]string{
		"counter.js": counterScript,
		"broken.js":  failingScript,
	})
	keysPath := filepath.Join(dir, "keys.json")
	ctx := context.Background()
	saved := func() keymap.RuntimeConfig {
		return keymap.NewStore(keysPath, nil).Load()
	}

	t.Run("bind", func(t *testing.T) {
		stdout, _, err := execute(t, ctx, NewBindCommand(cfg), "g", "broken")
		if err != nil {
			t.Fatalf("bind: %v", err)
		}
		if id, ok := saved().Lookup('G'); !ok || id != "broken" {
			t.Fatalf("G bound to %q, %v", id, ok)
		}
		if !strings.Contains(stdout, "saved "+keysPath) || !strings.Contains(stdout, "G") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		stdout, _, err := execute(t, ctx, NewBindCommand(cfg), "-defaults")
		if err != nil {
			t.Fatalf("bind -defaults: %v", err)
		}
		if id, ok := saved().Lookup('J'); !ok || id != "counter" {
			t.Fatalf("J bound to %q, %v", id, ok)
		}
		if !strings.Contains(stdout, "bound J to counter") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("toggle", func(t *testing.T) {
		if _, _, err := execute(t, ctx, NewBindCommand(cfg), "-toggle", "F6"); err != nil {
			t.Fatalf("bind -toggle: %v", err)
		}
		if got := saved().ToggleKey; got != keymap.KeyF1+5 {
			t.Fatalf("toggle key = %d", got)
		}
		if _, _, err := execute(t, ctx, NewBindCommand(cfg), "F6", "counter"); err == nil {
			t.Fatal("expected error binding the toggle key")
		}
		if _, _, err := execute(t, ctx, NewBindCommand(cfg), "-toggle", "g"); err == nil {
			t.Fatal("expected error using a bound key as toggle")
		}
	})

	t.Run("clear", func(t *testing.T) {
		if _, _, err := execute(t, ctx, NewBindCommand(cfg), "-clear", "broken"); err != nil {
			t.Fatalf("bind -clear: %v", err)
		}
		if _, ok := saved().KeyFor("broken"); ok {
			t.Fatal("broken still bound")
		}
	})

	t.Run("unknown script", func(t *testing.T) {
		_, _, err := execute(t, ctx, NewBindCommand(cfg), "k", "ghost")
		if !errors.Is(err, app.ErrUnknownScript) {
			t.Fatalf("expected ErrUnknownScript, got %v", err)
		}
	})

	t.Run("show", func(t *testing.T) {
		stdout, _, err := execute(t, ctx, NewBindCommand(cfg))
		if err != nil {
			t.Fatalf("bind: %v", err)
		}
		if !strings.Contains(stdout, "toggle") || !strings.Contains(stdout, "F6") || !strings.Contains(stdout, "counter") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})
}

func TestServeRequiresGameURL(t *testing.T) {
	cfg, _ := testConfig(t, nil)
	_, _, err := execute(t, context.Background(), NewServeCommand(cfg))
	if err == nil || !strings.Contains(err.Error(), config.KeyGameURL) {
		t.Fatalf("expected game.url error, got %v", err)
	}
}
