// Package watch rebuilds the document on file changes. It combines an
// fsnotify tree watcher with quiet-window debouncing so editor save bursts
// collapse into one run, plus an optional periodic rebuild schedule and an
// optional metrics listener.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/texbuilder/internal/config"
)

// BuildFunc executes one rebuild. Errors are the build's to report; watch
// mode keeps running regardless of individual run outcomes.
type BuildFunc func(ctx context.Context)

// Watcher drives rebuilds of a document tree.
type Watcher struct {
	cfg      *config.Config
	build    BuildFunc
	metrics  http.Handler
	debounce time.Duration
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithMetricsHandler serves the given handler on the configured metrics
// listen address while watching.
func WithMetricsHandler(h http.Handler) Option {
	return func(w *Watcher) { w.metrics = h }
}

// New creates a watcher rebuilding via build.
func New(cfg *config.Config, build BuildFunc, opts ...Option) *Watcher {
	w := &Watcher{cfg: cfg, build: build, debounce: cfg.Watch.Debounce}
	if w.debounce <= 0 {
		w.debounce = 2 * time.Second
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run builds once immediately, then blocks rebuilding on changes until ctx
// is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer notifier.Close()

	if err := w.addTree(notifier, w.cfg.BaseDir()); err != nil {
		return err
	}

	if w.metrics != nil && w.cfg.Watch.MetricsListen != "" {
		go w.serveMetrics(ctx)
	}

	// Periodic rebuilds catch changes the watcher misses (network mounts,
	// touched includes outside the tree).
	trigger := make(chan string, 1)
	if w.cfg.Watch.ScheduleInterval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(w.cfg.Watch.ScheduleInterval),
			gocron.NewTask(func() {
				select {
				case trigger <- "schedule":
				default:
				}
			}),
			gocron.WithName("scheduled-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("schedule periodic rebuild: %w", err)
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown failed", "error", err)
			}
		}()
		slog.Info("Scheduled periodic rebuilds", "interval", w.cfg.Watch.ScheduleInterval)
	}

	slog.Info("Watching document tree", "dir", w.cfg.BaseDir(), "debounce", w.debounce)
	w.build(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories must be watched too.
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() && w.watchable(event.Name) {
					_ = notifier.Add(event.Name)
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			slog.Debug("Change detected", "file", event.Name, "op", event.Op.String())
			if pending {
				if !timer.Stop() {
					<-timer.C
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", "error", err)

		case <-timer.C:
			pending = false
			slog.Info("Rebuilding after change burst")
			w.build(ctx)

		case reason := <-trigger:
			slog.Info("Rebuilding on schedule", "reason", reason)
			w.build(ctx)
		}
	}
}

// addTree registers every watchable directory under root.
func (w *Watcher) addTree(notifier *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && !w.watchable(path) {
			return filepath.SkipDir
		}
		if err := notifier.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// watchable reports whether a directory belongs to the source tree as
// opposed to build output or VCS internals.
func (w *Watcher) watchable(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	outputDir := w.cfg.Output.Directory
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(w.cfg.BaseDir(), outputDir)
	}
	rel, err := filepath.Rel(outputDir, path)
	if err == nil && rel == "." {
		return false
	}
	if err == nil && !strings.HasPrefix(rel, "..") {
		return false
	}
	return true
}

// relevant reports whether a changed file should trigger a rebuild. Build
// artifacts are excluded, in particular the scratch basic variant the runner
// itself writes next to the root document.
func (w *Watcher) relevant(path string) bool {
	switch filepath.Ext(path) {
	case ".tex", ".sty", ".cls":
	default:
		return false
	}
	base := filepath.Base(path)
	if strings.HasSuffix(base, "-basic"+filepath.Ext(base)) {
		return false
	}
	return w.watchable(filepath.Dir(path))
}

func (w *Watcher) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", w.metrics)
	server := &http.Server{Addr: w.cfg.Watch.MetricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", w.cfg.Watch.MetricsListen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Warn("Metrics listener stopped", "error", err)
	}
}
