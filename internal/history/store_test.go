package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for i, verdict := range []string{"build_failed", "generated_templates", "all_resolved"} {
		require.NoError(t, store.Append(ctx, Entry{
			RunID:        "run-" + verdict,
			RootDocument: "main.tex",
			Verdict:      verdict,
			Missing:      i,
			Generated:    i,
			Findings:     i * 2,
			Start:        time.Now(),
			Duration:     time.Duration(i) * time.Second,
		}))
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "run-all_resolved", entries[0].RunID, "most recent first")
	assert.Equal(t, "run-generated_templates", entries[1].RunID)
	assert.Equal(t, 2, entries[1].Findings)
}

func TestPersistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texbuilder.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, Entry{RunID: "r1", RootDocument: "main.tex", Verdict: "all_resolved", Start: time.Now()}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	entries, err := reopened.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "r1", entries[0].RunID)
}
