package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/blockytk/blockytk/internal/app"
	"github.com/blockytk/blockytk/internal/config"
	"github.com/blockytk/blockytk/internal/keymap"
	"github.com/blockytk/blockytk/internal/scripting"
)

// ListCommand prints the script catalog.
type ListCommand struct {
	*BaseCommand
	config  *config.Config
	logs    logFlags
	verbose bool
}

// NewListCommand creates the list command.
func NewListCommand(cfg *config.Config) *ListCommand {
	return &ListCommand{
		BaseCommand: NewBaseCommand(
			"list",
			"List scripts by category",
			"list [options]",
		),
		config: cfg,
	}
}

func (c *ListCommand) SetupFlags(fs *flag.FlagSet) {
	c.logs.register(fs)
	fs.BoolVar(&c.verbose, "v", false, "Show each script's controls")
}

func (c *ListCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
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
	keys := a.Keys()

	if catalog.Count() == 0 {
		_, _ = fmt.Fprintf(stdout, "No scripts in %s\n", a.ScriptsDir())
	}
	w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	for _, category := range catalog.Categories() {
		_, _ = fmt.Fprintf(w, "%s\n", category)
		for _, p := range catalog.Scripts(category) {
			d := p.Descriptor()
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", d.ID, d.Title, shortcutLabel(keys, d), d.Description)
			if c.verbose {
				for _, spec := range d.Controls.All() {
					_, _ = fmt.Fprintf(w, "      %s\t%s\t%s\t%s\n", spec.ID, spec.Kind, describeControl(spec), spec.Label)
				}
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, f := range catalog.Failures() {
		_, _ = fmt.Fprintf(stderr, "failed to load %v\n", f.Err)
	}
	return nil
}

func shortcutLabel(keys keymap.RuntimeConfig, d *scripting.Descriptor) string {
	if key, ok := keys.KeyFor(d.ID); ok {
		return "[" + keymap.KeyName(key) + "]"
	}
	if d.ShortcutKey != 0 {
		return "(" + keymap.KeyName(d.ShortcutKey) + ")"
	}
	return "-"
}

func describeControl(spec scripting.ControlSpec) string {
	def := spec.Format(spec.Default)
	switch spec.Kind {
	case scripting.KindInt, scripting.KindFloat:
		return fmt.Sprintf("%s in [%s, %s]", def, spec.Format(spec.Min), spec.Format(spec.Max))
	case scripting.KindDropdown:
		return def + " of " + strings.Join(spec.Options, "|")
	}
	return def
}
