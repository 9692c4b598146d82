package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/events"
	"git.home.luguber.info/inful/texbuilder/internal/history"
	"git.home.luguber.info/inful/texbuilder/internal/pipeline"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"texbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Scan, generate missing templates and compile the document"`
	Check   CheckCmd   `cmd:"" help:"Resolve references without generating or compiling"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild continuously on document changes"`
	History HistoryCmd `cmd:"" help:"Show recent run history"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ExitError carries a specific process exit code through kong's Run chain.
// Build runs signal their verdict this way: 0 all resolved, 1 build failed,
// 2 templates generated.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// loadConfig loads the configuration and re-installs logging with the
// configured level and format layered under the --verbose flag.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg.Log, root.Verbose)
	return cfg, nil
}

// pipelineOptions assembles the optional history store and event publisher
// from configuration. The returned cleanup closes whatever was opened.
func pipelineOptions(cfg *config.Config) ([]pipeline.Option, func(), error) {
	var opts []pipeline.Option
	var cleanups []func()

	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open history store: %w", err)
		}
		opts = append(opts, pipeline.WithHistory(store))
		cleanups = append(cleanups, func() {
			if err := store.Close(); err != nil {
				slog.Warn("Cannot close history store", "error", err)
			}
		})
	}

	if cfg.Events.Enabled {
		publisher, err := events.NewPublisher(cfg.Events)
		if err != nil {
			// Event publishing is a notification concern, never a build gate.
			slog.Warn("Event publishing unavailable", "error", err)
		} else {
			opts = append(opts, pipeline.WithPublisher(publisher))
			cleanups = append(cleanups, publisher.Close)
		}
	}

	cleanup := func() {
		for _, c := range cleanups {
			c()
		}
	}
	return opts, cleanup, nil
}
