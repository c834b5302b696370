package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/blockytk/blockytk/internal/app"
	"github.com/blockytk/blockytk/internal/config"
	"github.com/blockytk/blockytk/internal/engine"
	"github.com/blockytk/blockytk/internal/game"
	"github.com/blockytk/blockytk/internal/scripting"
)

// settings collects repeated -set key=value flags.
type settings []string

func (s *settings) String() string { return strings.Join(*s, ",") }

func (s *settings) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	*s = append(*s, v)
	return nil
}

// RunCommand runs one script in the foreground.
type RunCommand struct {
	*BaseCommand
	config *config.Config
	logs   logFlags
	set    settings
}

// NewRunCommand creates the run command.
func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Run a script until it finishes or is interrupted",
			"run [options] <script-id>",
		),
		config: cfg,
	}
}

func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	c.logs.register(fs)
	fs.Var(&c.set, "set", "Set a control value as key=value (repeatable)")
}

func (c *RunCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	if len(args) != 1 {
		_, _ = fmt.Fprintln(stderr, "usage: blockytk run [options] <script-id>")
		return errors.New("expected exactly one script id")
	}
	id := args[0]

	env, err := newEnvironment(ctx, c.config, c.logs, true)
	if err != nil {
		return err
	}
	defer env.close()

	done := make(chan engine.Finished, 1)
	opts := env.appOptions()
	opts.Source = &echoingSource{Source: env.source, out: stdout}
	opts.OnFinished = func(f engine.Finished) { done <- f }
	a := app.New(opts)
	abandoned := false
	defer func() {
		if abandoned {
			err = errors.Join(err, env.abandon(a))
			return
		}
		err = errors.Join(err, env.shutdown(a))
	}()

	catalog, err := a.Reload()
	if err != nil {
		return err
	}
	p, ok := catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", app.ErrUnknownScript, id)
	}
	params, err := applySettings(p.Descriptor(), c.set)
	if err != nil {
		return err
	}

	result, err := a.Run(id, params)
	if err != nil {
		return err
	}
	if result != engine.Started {
		return fmt.Errorf("could not start %s: %s", id, result)
	}

	var f engine.Finished
	select {
	case f = <-done:
	case <-ctx.Done():
		_, _ = fmt.Fprintf(stderr, "stopping %s...\n", id)
		a.Stop()
		timeout := env.stopTimeout()
		select {
		case f = <-done:
		case <-time.After(timeout):
			abandoned = true
			return fmt.Errorf("script did not stop within %s", timeout)
		}
	}

	if f.Cancelled {
		_, _ = fmt.Fprintf(stdout, "%s stopped after %s\n", id, f.Elapsed.Round(time.Millisecond))
		return nil
	}
	if f.Err != nil {
		return f.Err
	}
	_, _ = fmt.Fprintf(stdout, "%s finished in %s\n", id, f.Elapsed.Round(time.Millisecond))
	return nil
}

// applySettings overlays key=value settings on d's defaults.
func applySettings(d *scripting.Descriptor, set []string) (map[string]any, error) {
	params := d.Defaults()
	for _, kv := range set {
		key, value, _ := strings.Cut(kv, "=")
		spec, ok := d.Controls.Get(key)
		if !ok {
			return nil, fmt.Errorf("%s has no control %q (have: %s)", d.ID, key, strings.Join(d.Controls.IDs(), ", "))
		}
		v, err := spec.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		params[key] = v
	}
	return params, nil
}

// echoingSource mirrors chat output to a writer so headless runs can see
// what the script tells the player.
type echoingSource struct {
	game.Source
	mu  sync.Mutex
	out io.Writer
}

func (s *echoingSource) Echo(msg string) {
	s.mu.Lock()
	_, _ = fmt.Fprintln(s.out, msg)
	s.mu.Unlock()
	s.Source.Echo(msg)
}

func (s *echoingSource) Execute(cmd string) {
	s.mu.Lock()
	_, _ = fmt.Fprintln(s.out, "> "+cmd)
	s.mu.Unlock()
	s.Source.Execute(cmd)
}
