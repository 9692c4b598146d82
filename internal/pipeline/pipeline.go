// Package pipeline wires the run stages together: scan the root document,
// resolve references, generate placeholders, compile in two stages, analyze
// the logs and assemble the final report. Stages run strictly in order and
// exchange values, never shared state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/assembly"
	"git.home.luguber.info/inful/texbuilder/internal/compiler"
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/events"
	"git.home.luguber.info/inful/texbuilder/internal/gitinfo"
	"git.home.luguber.info/inful/texbuilder/internal/history"
	"git.home.luguber.info/inful/texbuilder/internal/loganalysis"
	"git.home.luguber.info/inful/texbuilder/internal/metrics"
	"git.home.luguber.info/inful/texbuilder/internal/report"
	"git.home.luguber.info/inful/texbuilder/internal/texgen"
)

// Pipeline executes one build run for a configured document tree.
type Pipeline struct {
	cfg       *config.Config
	recorder  metrics.Recorder
	history   history.Store
	publisher *events.Publisher
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRecorder injects a metrics recorder. Default is a no-op.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithHistory injects a run-history store. Default is none.
func WithHistory(s history.Store) Option {
	return func(p *Pipeline) { p.history = s }
}

// WithPublisher injects a run-event publisher. Default is none.
func WithPublisher(pub *events.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// New creates a pipeline for the given configuration.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check scans the root document and resolves every reference without
// generating files or invoking the compiler. Used by the check command for
// fast feedback in editors and pre-commit hooks.
func (p *Pipeline) Check(ctx context.Context) (assembly.ScanResult, error) {
	_ = ctx
	scanner := assembly.NewScanner(p.cfg.StylesRoot, p.cfg.ContentRoot)
	result, err := scanner.ScanFile(p.cfg.RootDocument)
	if err != nil {
		return assembly.ScanResult{}, fmt.Errorf("scan root document: %w", err)
	}
	checker := assembly.NewChecker(p.cfg.BaseDir())
	return checker.ResolveAll(result), nil
}

// Run executes the full pipeline and returns the finished report. The report
// is always persisted, including on the one fatal path (an unreadable root
// document); the returned error is non-nil only for that fatal path.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	rep := report.New(p.cfg.RootDocument)
	if snap, ok := gitinfo.Resolve(p.cfg.BaseDir()); ok {
		rep.Git = report.GitSnapshot{Commit: snap.Commit, Branch: snap.Branch, Dirty: snap.Dirty}
	}

	scanStart := time.Now()
	scanner := assembly.NewScanner(p.cfg.StylesRoot, p.cfg.ContentRoot)
	scanned, err := scanner.ScanFile(p.cfg.RootDocument)
	p.recorder.ObserveStageDuration("scan", time.Since(scanStart))
	if err != nil {
		slog.Error("Root document is not readable", "path", p.cfg.RootDocument, "error", err)
		rep.AddFindings("scan", []loganalysis.Finding{{
			Category: loganalysis.CategoryOther,
			Severity: loganalysis.SeverityCritical,
			Message:  fmt.Sprintf("root document %s could not be read: %v", p.cfg.RootDocument, err),
			Hint:     "check root_document in the configuration and file permissions",
		}})
		p.finalize(rep)
		return rep, fmt.Errorf("read root document: %w", err)
	}

	checker := assembly.NewChecker(p.cfg.BaseDir())
	resolved := checker.ResolveAll(scanned)
	rep.References = resolved.References
	rep.Duplicates = resolved.Duplicates
	missing := resolved.Missing()
	p.recorder.SetMissingReferences(len(missing))
	slog.Info("Scanned root document",
		"references", len(resolved.References),
		"missing", len(missing),
		"duplicates", len(resolved.Duplicates))

	generateStart := time.Now()
	generator := texgen.NewGenerator(p.cfg.BaseDir())
	results := generator.Generate(resolved.References)
	rep.AddGeneration(results)
	p.recorder.ObserveStageDuration("generate", time.Since(generateStart))

	var genFindings []loganalysis.Finding
	for _, res := range results {
		if res.Err != nil {
			genFindings = append(genFindings, loganalysis.Finding{
				Category: loganalysis.CategoryOther,
				Severity: loganalysis.SeverityHigh,
				Message:  res.Err.Error(),
				Hint:     "the reference stays unresolved; create the file manually",
			})
		}
	}
	if len(genFindings) > 0 {
		rep.AddFindings("generate", genFindings)
	}

	outputDir := p.resolveDir(p.cfg.Output.Directory)
	reportsDir := p.resolveDir(p.cfg.Output.Reports)
	if p.cfg.Output.Clean {
		if err := os.RemoveAll(outputDir); err != nil {
			slog.Warn("Cannot clean output directory", "dir", outputDir, "error", err)
		}
	}

	runner := compiler.NewRunner(p.cfg.Compiler, outputDir, reportsDir)
	basic := p.runBasic(ctx, runner, rep)
	p.runFull(ctx, runner, rep, basic)

	p.finalize(rep)
	return rep, nil
}

// runBasic writes the structure-only variant and compiles it. A variant
// that cannot be written skips the stage but never stops the run.
func (p *Pipeline) runBasic(ctx context.Context, runner *compiler.Runner, rep *report.Report) compiler.BuildAttempt {
	variant, err := compiler.WriteBasicVariant(p.cfg.RootDocument, p.cfg.ContentRoot)
	if err != nil {
		slog.Warn("Cannot write basic variant, skipping basic stage", "error", err)
		rep.AddFindings(string(compiler.StageBasic), []loganalysis.Finding{{
			Category: loganalysis.CategoryOther,
			Severity: loganalysis.SeverityHigh,
			Message:  fmt.Sprintf("basic variant could not be written: %v", err),
		}})
		attempt := compiler.BuildAttempt{Stage: compiler.StageBasic, Outcome: compiler.OutcomeSkipped, ExitCode: -1}
		rep.Attempts = append(rep.Attempts, attempt)
		p.recorder.IncAttemptOutcome(string(compiler.StageBasic), string(attempt.Outcome))
		return attempt
	}
	// The variant is a derived artifact; keep the source tree clean.
	defer os.Remove(variant)

	attempt := runner.Run(ctx, compiler.StageBasic, variant)
	rep.Attempts = append(rep.Attempts, attempt)
	p.recorder.IncAttemptOutcome(string(attempt.Stage), string(attempt.Outcome))
	p.recorder.ObserveStageDuration(string(attempt.Stage), attempt.Duration)
	p.analyzeAttempt(rep, attempt)
	return attempt
}

// runFull compiles the complete document unless the basic stage ended in an
// unrecognized way. A basic timeout tells us nothing about the document
// structure and never gates the full stage.
func (p *Pipeline) runFull(ctx context.Context, runner *compiler.Runner, rep *report.Report, basic compiler.BuildAttempt) {
	gated := basic.Ran() &&
		basic.Outcome != compiler.OutcomeTimeout &&
		!basic.Succeeded &&
		!runner.AcceptableBasicExit(basic.ExitCode)
	if gated {
		slog.Warn("Basic stage failed with unrecognized exit code, skipping full stage",
			"exit_code", basic.ExitCode)
		attempt := compiler.BuildAttempt{Stage: compiler.StageFull, Outcome: compiler.OutcomeSkipped, ExitCode: -1}
		rep.Attempts = append(rep.Attempts, attempt)
		p.recorder.IncAttemptOutcome(string(attempt.Stage), string(attempt.Outcome))
		return
	}

	attempt := runner.Run(ctx, compiler.StageFull, p.cfg.RootDocument)
	rep.Attempts = append(rep.Attempts, attempt)
	p.recorder.IncAttemptOutcome(string(attempt.Stage), string(attempt.Outcome))
	p.recorder.ObserveStageDuration(string(attempt.Stage), attempt.Duration)
	p.analyzeAttempt(rep, attempt)
}

// analyzeAttempt classifies one stage log into findings on the report. A
// timeout carries no useful log tail, so it maps directly to one Critical
// finding.
func (p *Pipeline) analyzeAttempt(rep *report.Report, attempt compiler.BuildAttempt) {
	if attempt.Outcome == compiler.OutcomeTimeout {
		rep.AddFindings(string(attempt.Stage), []loganalysis.Finding{{
			Category: loganalysis.CategoryOther,
			Severity: loganalysis.SeverityCritical,
			Message:  fmt.Sprintf("compiler exceeded the %s wall-clock limit", p.cfg.Compiler.Timeout),
			Hint:     "raise compiler.timeout or investigate a hanging compilation",
		}})
		return
	}
	if attempt.LogPath == "" {
		return
	}
	findings, err := loganalysis.NewAnalyzer().AnalyzeFile(attempt.LogPath)
	if err != nil {
		slog.Warn("Cannot analyze stage log", "stage", attempt.Stage, "log", attempt.LogPath, "error", err)
		return
	}
	if len(findings) > 0 {
		rep.AddFindings(string(attempt.Stage), findings)
	}
}

// finalize derives the verdict, records run-level metrics, persists report
// artifacts and notifies the optional history store and event publisher.
// Persistence failures degrade to log output; the verdict already stands.
func (p *Pipeline) finalize(rep *report.Report) {
	rep.Finish()
	p.recorder.ObserveRunDuration(rep.End.Sub(rep.Start))
	p.recorder.IncVerdict(rep.Verdict())

	type key struct{ category, severity string }
	counts := map[key]int{}
	total := 0
	for _, sf := range rep.Findings {
		for _, f := range sf.Findings {
			counts[key{string(f.Category), string(f.Severity)}]++
			total++
		}
	}
	for k, n := range counts {
		p.recorder.AddFindings(k.category, k.severity, n)
	}

	reportsDir := p.resolveDir(p.cfg.Output.Reports)
	if err := rep.Persist(reportsDir); err != nil {
		slog.Error("Cannot persist report artifacts", "dir", reportsDir, "error", err)
	}

	if p.history != nil {
		entry := history.Entry{
			RunID:        rep.RunID,
			RootDocument: rep.RootDocument,
			Verdict:      rep.Verdict(),
			Missing:      len(assembly.ScanResult{References: rep.References}.Missing()),
			Generated:    len(rep.Generated),
			Findings:     total,
			Start:        rep.Start,
			Duration:     rep.End.Sub(rep.Start),
		}
		if err := p.history.Append(context.Background(), entry); err != nil {
			slog.Warn("Cannot append run history", "error", err)
		}
	}

	if p.publisher != nil {
		event := events.RunCompleted{
			RunID:              rep.RunID,
			RootDocument:       rep.RootDocument,
			Verdict:            rep.Verdict(),
			GeneratedTemplates: rep.GeneratedTemplates,
			BuildFailed:        rep.BuildFailed,
			FinishedAt:         rep.End,
		}
		if err := p.publisher.Publish(event); err != nil {
			slog.Warn("Cannot publish run event", "error", err)
		}
	}

	slog.Info("Run finished", "verdict", rep.Verdict(), "summary", rep.Summary())
}

// resolveDir resolves a configured output path against the root document's
// directory so runs behave the same from any working directory.
func (p *Pipeline) resolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.cfg.BaseDir(), dir)
}
