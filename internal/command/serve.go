package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/blockytk/blockytk/internal/app"
	"github.com/blockytk/blockytk/internal/bridge"
	"github.com/blockytk/blockytk/internal/config"
	"github.com/blockytk/blockytk/internal/engine"
	"github.com/blockytk/blockytk/internal/game"
	"github.com/blockytk/blockytk/internal/scripting"
)

// ServeCommand runs the event bridge without a terminal UI: shortcuts
// pressed in game start and stop scripts, and nothing else.
type ServeCommand struct {
	*BaseCommand
	config  *config.Config
	logs    logFlags
	noWatch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(cfg *config.Config) *ServeCommand {
	return &ServeCommand{
		BaseCommand: NewBaseCommand(
			"serve",
			"Handle in-game shortcuts without the overlay",
			"serve [options]",
		),
		config: cfg,
	}
}

func (c *ServeCommand) SetupFlags(fs *flag.FlagSet) {
	c.logs.register(fs)
	fs.BoolVar(&c.noWatch, "no-watch", false, "Do not reload scripts when they change")
}

func (c *ServeCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	if c.config.GetString(config.KeyGameURL) == "" {
		return fmt.Errorf("serve needs a game connection; set %s", config.KeyGameURL)
	}
	env, err := newEnvironment(ctx, c.config, c.logs, true)
	if err != nil {
		return err
	}
	defer env.close()

	opts := env.appOptions()
	opts.OnFinished = func(f engine.Finished) {
		if f.Err != nil && !f.Cancelled {
			_, _ = fmt.Fprintf(stderr, "%s: %v\n", f.ID, f.Err)
			return
		}
		_, _ = fmt.Fprintf(stdout, "%s done\n", f.ID)
	}
	opts.OnToggle = func() {
		env.log.Info("toggle key pressed; no overlay attached")
	}
	a := app.New(opts)
	defer func() {
		err = errors.Join(err, env.shutdown(a))
	}()

	catalog, err := a.Start()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "serving %d scripts from %s\n", catalog.Count(), a.ScriptsDir())
	if !c.noWatch && c.config.GetBool(config.KeyScriptsWatch) {
		err := a.Watch(scripting.DefaultDebounce, func(reloaded *scripting.Catalog) {
			_, _ = fmt.Fprintf(stdout, "reloaded %d scripts\n", reloaded.Count())
		})
		if err != nil {
			env.log.Warn("script watching disabled", "error", err)
		}
	}

	interval := c.config.GetDuration(config.KeyPollInterval)
	if interval <= 0 {
		interval = bridge.DefaultInterval
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if ws, ok := env.source.(*game.WebSocket); ok {
		go func() {
			select {
			case <-ws.Done():
				cancel(errGameClosed)
			case <-runCtx.Done():
			}
		}()
	}
	_ = a.Bridge().Run(runCtx, interval)
	if cause := context.Cause(runCtx); errors.Is(cause, errGameClosed) {
		return cause
	}
	return nil
}

var errGameClosed = errors.New("game connection closed")
