package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/config"
)

// Runner invokes the configured compiler and captures per-stage logs.
type Runner struct {
	cfg        config.CompilerConfig
	outputDir  string
	reportsDir string
}

// NewRunner creates a runner writing compiler artifacts to outputDir and
// stage logs to reportsDir.
func NewRunner(cfg config.CompilerConfig, outputDir, reportsDir string) *Runner {
	return &Runner{cfg: cfg, outputDir: outputDir, reportsDir: reportsDir}
}

// Run compiles target for the given stage. The invocation is bounded by the
// configured wall-clock timeout; a hung compiler cannot hang the pipeline.
// The returned attempt is always usable, whatever went wrong.
func (r *Runner) Run(ctx context.Context, stage Stage, target string) BuildAttempt {
	args := append(append([]string{}, r.cfg.Args...), "-output-directory", r.outputDir, target)
	attempt := BuildAttempt{
		Stage:   stage,
		Command: r.cfg.Command + " " + strings.Join(args, " "),
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		slog.Error("Cannot create compiler output directory", "dir", r.outputDir, "error", err)
		attempt.Outcome = OutcomeCrash
		attempt.ExitCode = -1
		return attempt
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.cfg.Command, args...)
	cmd.Dir = filepath.Dir(target)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.Stdin = nil // bounded non-interactive mode; never wait for a prompt

	slog.Info("Running compiler", "stage", stage, "command", attempt.Command)
	start := time.Now()
	err := cmd.Run()
	attempt.Duration = time.Since(start)

	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)
	attempt.ExitCode = exitCode(err)

	// Merge captured stdout/stderr with the compiler's own log artifact into
	// one stage log so the analyzer sees everything in one place.
	toolLog, toolLogOK := r.readToolLog(target)
	attempt.LogPath = r.writeStageLog(stage, output.Bytes(), toolLog)

	switch {
	case timedOut:
		attempt.Outcome = OutcomeTimeout
		slog.Warn("Compiler timed out", "stage", stage, "timeout", r.cfg.Timeout)
	case err == nil:
		attempt.Outcome = OutcomeSucceeded
		attempt.Succeeded = true
	case toolLogOK || output.Len() > 0:
		attempt.Outcome = OutcomeFailed
		slog.Warn("Compiler exited non-zero", "stage", stage, "exit_code", attempt.ExitCode)
	default:
		attempt.Outcome = OutcomeCrash
		slog.Error("Compiler crashed without producing a log", "stage", stage, "exit_code", attempt.ExitCode, "error", err)
	}

	return attempt
}

// AcceptableBasicExit reports whether a basic-stage exit code is within the
// recognized partial-failure set that still permits the full stage.
func (r *Runner) AcceptableBasicExit(code int) bool {
	for _, ok := range r.cfg.AcceptableBasicExitCodes {
		if code == ok {
			return true
		}
	}
	return false
}

// readToolLog reads the compiler's own <jobname>.log artifact. Its path is
// deterministic from the target's base name.
func (r *Runner) readToolLog(target string) ([]byte, bool) {
	base := strings.TrimSuffix(filepath.Base(target), filepath.Ext(target))
	data, err := os.ReadFile(filepath.Join(r.outputDir, base+".log"))
	if err != nil {
		return nil, false
	}
	return data, true
}

// writeStageLog persists the merged stage log and returns its path, or ""
// when even that failed (logged, not fatal).
func (r *Runner) writeStageLog(stage Stage, captured, toolLog []byte) string {
	if err := os.MkdirAll(r.reportsDir, 0o755); err != nil {
		slog.Warn("Cannot create reports directory", "dir", r.reportsDir, "error", err)
		return ""
	}
	path := filepath.Join(r.reportsDir, fmt.Sprintf("%s.log", stage))
	var merged bytes.Buffer
	merged.Write(captured)
	if len(toolLog) > 0 {
		merged.WriteString("\n")
		merged.Write(toolLog)
	}
	if err := os.WriteFile(path, merged.Bytes(), 0o644); err != nil {
		slog.Warn("Cannot write stage log", "path", path, "error", err)
		return ""
	}
	return path
}

// exitCode extracts the process exit code, -1 when the process did not run
// or was killed.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
