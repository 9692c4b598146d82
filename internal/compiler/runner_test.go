package compiler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texbuilder/internal/config"
)

// writeFakeCompiler installs a shell script standing in for pdflatex. It
// receives the same flags as the real compiler and can write a jobname log.
func writeFakeCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fakelatex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func newTestRunner(t *testing.T, command string, timeout time.Duration) (*Runner, string, string) {
	t.Helper()
	outputDir := filepath.Join(t.TempDir(), "out")
	reportsDir := filepath.Join(t.TempDir(), "reports")
	cfg := config.CompilerConfig{
		Command:                  command,
		Args:                     []string{"-interaction=nonstopmode"},
		Timeout:                  timeout,
		AcceptableBasicExitCodes: []int{0, 1},
	}
	return NewRunner(cfg, outputDir, reportsDir), outputDir, reportsDir
}

func writeTarget(t *testing.T) string {
	t.Helper()
	target := filepath.Join(t.TempDir(), "main.tex")
	require.NoError(t, os.WriteFile(target, []byte("\\documentclass{article}\n"), 0o644))
	return target
}

func TestRunSucceeded(t *testing.T) {
	// The fake compiler writes its own jobname log into -output-directory.
	script := `
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-output-directory" ]; then out="$a"; fi
  prev="$a"
  target="$a"
done
base=$(basename "$target" .tex)
echo "This is fakeTeX" > "$out/$base.log"
exit 0
`
	cmd := writeFakeCompiler(t, script)
	r, outputDir, _ := newTestRunner(t, cmd, time.Minute)
	target := writeTarget(t)

	attempt := r.Run(context.Background(), StageFull, target)

	assert.Equal(t, OutcomeSucceeded, attempt.Outcome)
	assert.True(t, attempt.Succeeded)
	assert.Zero(t, attempt.ExitCode)
	assert.Contains(t, attempt.Command, "-output-directory "+outputDir)
	require.NotEmpty(t, attempt.LogPath)

	data, err := os.ReadFile(attempt.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "This is fakeTeX")
}

func TestRunFailedWithLog(t *testing.T) {
	script := `
echo "! Undefined control sequence."
exit 1
`
	cmd := writeFakeCompiler(t, script)
	r, _, reportsDir := newTestRunner(t, cmd, time.Minute)

	attempt := r.Run(context.Background(), StageBasic, writeTarget(t))

	assert.Equal(t, OutcomeFailed, attempt.Outcome)
	assert.False(t, attempt.Succeeded)
	assert.Equal(t, 1, attempt.ExitCode)
	assert.Equal(t, filepath.Join(reportsDir, "basic.log"), attempt.LogPath)
	assert.True(t, r.AcceptableBasicExit(attempt.ExitCode))
}

func TestRunCrashWithoutLog(t *testing.T) {
	cmd := writeFakeCompiler(t, "exit 3\n")
	r, _, _ := newTestRunner(t, cmd, time.Minute)

	attempt := r.Run(context.Background(), StageBasic, writeTarget(t))

	assert.Equal(t, OutcomeCrash, attempt.Outcome)
	assert.Equal(t, 3, attempt.ExitCode)
	assert.False(t, r.AcceptableBasicExit(attempt.ExitCode))
}

func TestRunTimeout(t *testing.T) {
	cmd := writeFakeCompiler(t, "sleep 10\n")
	r, _, _ := newTestRunner(t, cmd, 150*time.Millisecond)

	start := time.Now()
	attempt := r.Run(context.Background(), StageFull, writeTarget(t))

	assert.Equal(t, OutcomeTimeout, attempt.Outcome)
	assert.False(t, attempt.Succeeded)
	assert.Less(t, time.Since(start), 5*time.Second, "timeout must bound the invocation")
}

func TestRunMissingBinaryIsCrash(t *testing.T) {
	r, _, _ := newTestRunner(t, "/nonexistent/texc", time.Minute)

	attempt := r.Run(context.Background(), StageFull, writeTarget(t))

	assert.Equal(t, OutcomeCrash, attempt.Outcome)
	assert.Equal(t, -1, attempt.ExitCode)
}
