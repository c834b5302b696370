package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/blockytk/blockytk/internal/app"
	"github.com/blockytk/blockytk/internal/config"
	"github.com/blockytk/blockytk/internal/keymap"
)

// BindCommand edits the shortcut bindings without opening the overlay.
type BindCommand struct {
	*BaseCommand
	config   *config.Config
	logs     logFlags
	clear    string
	toggle   string
	defaults bool
}

// NewBindCommand creates the bind command.
func NewBindCommand(cfg *config.Config) *BindCommand {
	return &BindCommand{
		BaseCommand: NewBaseCommand(
			"bind",
			"Show or change shortcut keys",
			"bind [<key> <script-id>] [-clear <script-id>] [-toggle <key>] [-defaults]",
		),
		config: cfg,
	}
}

func (c *BindCommand) SetupFlags(fs *flag.FlagSet) {
	c.logs.register(fs)
	fs.StringVar(&c.clear, "clear", "", "Remove the shortcut of a script")
	fs.StringVar(&c.toggle, "toggle", "", "Set the overlay toggle key")
	fs.BoolVar(&c.defaults, "defaults", false, "Bind each script's suggested shortcut where the key is free")
}

func (c *BindCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) != 0 && len(args) != 2 {
		_, _ = fmt.Fprintln(stderr, "usage: blockytk "+c.Usage())
		return errors.New("expected a key and a script id")
	}
	env, err := newEnvironment(ctx, c.config, c.logs, false)
	if err != nil {
		return err
	}
	defer env.close()
	a := app.New(env.appOptions())
	defer env.shutdown(a)

	catalog, err := a.Reload()
	if err != nil {
		return err
	}
	known := func(id string) error {
		if _, ok := catalog.Lookup(id); !ok {
			return fmt.Errorf("%w: %s", app.ErrUnknownScript, id)
		}
		return nil
	}

	changed := false
	if c.toggle != "" {
		key, err := keymap.ParseKey(c.toggle)
		if err != nil {
			return err
		}
		if id, taken := a.Keys().Lookup(key); taken {
			return fmt.Errorf("%s is bound to %s; clear it first", keymap.KeyName(key), id)
		}
		if _, err := a.SetToggleKey(key); err != nil {
			return err
		}
		changed = true
	}
	if c.clear != "" {
		// stale bindings for deleted scripts may be cleared
		if _, ok := a.ShortcutFor(c.clear); !ok {
			if err := known(c.clear); err != nil {
				return err
			}
		}
		if _, err := a.Unbind(c.clear); err != nil {
			return err
		}
		changed = true
	}
	if len(args) == 2 {
		key, err := keymap.ParseKey(args[0])
		if err != nil {
			return err
		}
		id := args[1]
		if err := known(id); err != nil {
			return err
		}
		if _, err := a.Bind(key, id); err != nil {
			return err
		}
		changed = true
	}
	if c.defaults {
		bound, err := a.BindDefaults()
		if err != nil {
			return err
		}
		for _, id := range bound {
			key, _ := a.ShortcutFor(id)
			_, _ = fmt.Fprintf(stdout, "bound %s to %s\n", keymap.KeyName(key), id)
		}
		changed = true
	}

	if changed {
		_, _ = fmt.Fprintf(stdout, "saved %s\n", env.keymapPath)
	}
	return printBindings(stdout, a.Keys(), func(id string) bool { return known(id) == nil })
}

func printBindings(w io.Writer, cfg keymap.RuntimeConfig, known func(string) bool) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "toggle\t%s\n", keymap.KeyName(cfg.ToggleKey))
	for _, key := range cfg.Keys() {
		id := cfg.Shortcuts[key]
		note := ""
		if !known(id) {
			note = "\t(not loaded)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s%s\n", keymap.KeyName(key), id, note)
	}
	return tw.Flush()
}
