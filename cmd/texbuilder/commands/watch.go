package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/texbuilder/internal/metrics"
	"git.home.luguber.info/inful/texbuilder/internal/pipeline"
	"git.home.luguber.info/inful/texbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command: continuous rebuilds on change.
type WatchCmd struct{}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	opts, cleanup, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	opts = append(opts, pipeline.WithRecorder(recorder))
	p := pipeline.New(cfg, opts...)

	build := func(ctx context.Context) {
		if _, err := p.Run(ctx); err != nil {
			slog.Error("Build aborted", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := watch.New(cfg, build, watch.WithMetricsHandler(recorder.Handler()))
	return watcher.Run(ctx)
}
