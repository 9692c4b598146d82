package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/history"
)

// HistoryCmd implements the 'history' command: list recent run summaries.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"20"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled in the configuration")
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %-8s  %-32s missing=%d generated=%d findings=%d  %s\n",
			e.Start.Format("2006-01-02 15:04:05"),
			shortID(e.RunID),
			e.Verdict,
			e.Missing, e.Generated, e.Findings,
			e.Duration.Round(time.Millisecond))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
