package command

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/blockytk/blockytk/internal/config"
	"github.com/blockytk/blockytk/internal/keymap"
	"github.com/blockytk/blockytk/internal/storage"
)

//go:embed samples
var samples embed.FS

const defaultConfig = `# BlockyTK configuration file
# Format: optionName value
# Relative paths are resolved against this file's directory.
# Run 'blockytk config schema' to list every option.

scripts.dir scripts
scripts.watch true
keymap.file keys.json
poll.interval 20ms

# Websocket URL of the game bridge mod. Leave unset to run offline.
# game.url ws://127.0.0.1:8765/blockytk

log.level info
# log.file blockytk.log
`

// InitCommand writes a starter configuration, key map and sample scripts.
type InitCommand struct {
	*BaseCommand
	force bool
}

// NewInitCommand creates the init command.
func NewInitCommand() *InitCommand {
	return &InitCommand{
		BaseCommand: NewBaseCommand(
			"init",
			"Create the configuration file and sample scripts",
			"init [options]",
		),
	}
}

func (c *InitCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Overwrite the configuration file and sample scripts")
}

func (c *InitCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil && !c.force {
		_, _ = fmt.Fprintf(stdout, "Configuration already exists at: %s\n", configPath)
	} else {
		if err := storage.AtomicWriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		_, _ = fmt.Fprintf(stdout, "Wrote configuration to %s\n", configPath)
	}

	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return fmt.Errorf("failed to load created config: %w", err)
	}
	scriptsDir := cfg.ResolvePath(config.KeyScriptsDir)
	written, err := writeSamples(scriptsDir, c.force)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Wrote %d sample scripts to %s\n", written, scriptsDir)

	store := keymap.NewStore(cfg.ResolvePath(config.KeyKeymapFile), nil)
	store.Load()
	if err := store.EnsureExists(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Key bindings are stored in %s\n", store.Path())
	return nil
}

// writeSamples copies the embedded sample scripts into dir, keeping files
// that already exist unless force is set.
func writeSamples(dir string, force bool) (int, error) {
	written := 0
	err := fs.WalkDir(samples, "samples", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("samples", filepath.FromSlash(p))
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if _, err := os.Stat(target); err == nil && !force {
			return nil
		}
		data, err := samples.ReadFile(p)
		if err != nil {
			return err
		}
		if err := storage.AtomicWriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("write sample %s: %w", target, err)
		}
		written++
		return nil
	})
	return written, err
}
