package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/texbuilder/internal/pipeline"
)

// BuildCmd implements the 'build' command: one full pipeline run.
type BuildCmd struct{}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	opts, cleanup, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, runErr := pipeline.New(cfg, opts...).Run(ctx)
	fmt.Println(rep.Summary())
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", runErr)
	}

	if code := rep.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
