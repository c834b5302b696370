package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/blockytk/blockytk/internal/app"
	"github.com/blockytk/blockytk/internal/config"
	"github.com/blockytk/blockytk/internal/scripting"
	"github.com/blockytk/blockytk/internal/storage"
	"github.com/blockytk/blockytk/internal/tui"
)

// OverlayCommand runs the interactive overlay.
type OverlayCommand struct {
	*BaseCommand
	config  *config.Config
	logs    logFlags
	visible bool
	noWatch bool
}

// NewOverlayCommand creates the overlay command.
func NewOverlayCommand(cfg *config.Config) *OverlayCommand {
	return &OverlayCommand{
		BaseCommand: NewBaseCommand(
			"overlay",
			"Open the script launcher overlay",
			"overlay [options]",
		),
		config: cfg,
	}
}

func (c *OverlayCommand) SetupFlags(fs *flag.FlagSet) {
	c.logs.register(fs)
	fs.BoolVar(&c.visible, "visible", c.config.GetBool(config.KeyStartVisible), "Show the overlay immediately")
	fs.BoolVar(&c.noWatch, "no-watch", false, "Do not reload scripts when they change")
}

func (c *OverlayCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("the overlay needs an interactive terminal; use 'blockytk serve' or 'blockytk run' instead")
	}

	env, err := newEnvironment(ctx, c.config, c.logs, true)
	if err != nil {
		return err
	}
	defer env.close()

	lock, err := storage.TryLock(env.keymapPath + ".lock")
	if errors.Is(err, storage.ErrLocked) {
		return errors.New("another overlay is already running")
	}
	if err != nil {
		return err
	}
	defer lock.Release()

	relay := &tui.Relay{}
	opts := env.appOptions()
	opts.OnFinished = relay.Finished
	opts.OnToggle = relay.Toggle
	a := app.New(opts)
	defer func() {
		err = errors.Join(err, env.shutdown(a))
	}()

	if _, err := a.Start(); err != nil {
		return err
	}
	if !c.noWatch && c.config.GetBool(config.KeyScriptsWatch) {
		if err := a.Watch(scripting.DefaultDebounce, relay.Reloaded); err != nil {
			env.log.Warn("script watching disabled", "error", err)
		}
	}

	model := tui.New(tui.Options{
		App:          a,
		Log:          env.log,
		Interval:     c.config.GetDuration(config.KeyPollInterval),
		StartVisible: c.visible,
	})
	return tui.Run(ctx, model, relay)
}
