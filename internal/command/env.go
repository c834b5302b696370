package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/blockytk/blockytk/internal/app"
	"github.com/blockytk/blockytk/internal/config"
	"github.com/blockytk/blockytk/internal/game"
	"github.com/blockytk/blockytk/internal/logging"
)

// environment is what script-loading commands need: resolved paths, a
// logger and a game connection.
type environment struct {
	cfg     *config.Config
	log     *logging.Logger
	logFile io.Closer
	source  game.Source

	scriptsDir string
	keymapPath string
}

// newEnvironment resolves configuration. With connect set and a game URL
// configured it dials the game, otherwise it uses an offline source.
func newEnvironment(ctx context.Context, cfg *config.Config, flags logFlags, connect bool) (*environment, error) {
	lc, err := resolveLogConfig(flags, cfg)
	if err != nil {
		return nil, err
	}
	env := &environment{
		cfg:        cfg,
		log:        lc.newLogger(),
		scriptsDir: cfg.ResolvePath(config.KeyScriptsDir),
		keymapPath: cfg.ResolvePath(config.KeyKeymapFile),
	}
	if lc.logFile != nil {
		env.logFile = lc.logFile
	}
	for _, w := range cfg.Warnings {
		env.log.Warn("config", "warning", w)
	}

	if url := cfg.GetString(config.KeyGameURL); connect && url != "" {
		ws, err := game.DialWebSocket(ctx, url, game.WebSocketOptions{
			Buffer: cfg.GetInt(config.KeyGameBuffer),
			Logger: env.log.With("component", "game"),
		})
		if err != nil {
			env.close()
			return nil, fmt.Errorf("connect to game at %s: %w", url, err)
		}
		env.source = ws
	} else {
		env.source = game.NewOffline(env.log.With("component", "game"))
	}
	return env, nil
}

func (e *environment) appOptions() app.Options {
	return app.Options{
		ScriptsDir: e.scriptsDir,
		KeymapPath: e.keymapPath,
		Source:     e.source,
		Logger:     e.log.Logger,
	}
}

// close releases the log file. The game source is owned by the App.
func (e *environment) close() error {
	if e.logFile == nil {
		return nil
	}
	return e.logFile.Close()
}

// stopTimeout is how long a running script gets to honour a stop.
func (e *environment) stopTimeout() time.Duration {
	if timeout := e.cfg.GetDuration(config.KeyRunStopTimeout); timeout > 0 {
		return timeout
	}
	return 5 * time.Second
}

// shutdown closes a, giving a running script the configured time to stop.
func (e *environment) shutdown(a *app.App) error {
	timeout := e.stopTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := a.Close(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("script did not stop within %s", timeout)
	}
	return err
}

// abandon closes a without waiting for a script that has already outlived
// its stop timeout.
func (e *environment) abandon(a *app.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
