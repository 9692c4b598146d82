package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texbuilder/internal/compiler"
	"git.home.luguber.info/inful/texbuilder/internal/config"
)

// writeFakeCompiler installs a shell script standing in for pdflatex.
func writeFakeCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fakelatex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// okCompiler accepts every invocation.
const okCompiler = "exit 0\n"

// lastArgPrelude stores the target path in $target for stage-sensitive
// fakes; the runner passes the document as the final argument.
const lastArgPrelude = `for a in "$@"; do target="$a"; done
`

// writeTree lays out a document tree with one resolved style, one resolved
// module and optionally a missing module reference.
func writeTree(t *testing.T, withMissing bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "styles"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles", "common.sty"), []byte("\\endinput\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "modules", "intro.tex"), []byte("\\section{Intro}\n"), 0o644))

	root := `\documentclass{article}
\usepackage{styles/common}
\begin{document}
\input{modules/intro}
`
	if withMissing {
		root += "\\input{modules/chapter-two}\n"
	}
	root += "\\end{document}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.tex"), []byte(root), 0o644))
	return dir
}

func testConfig(t *testing.T, dir, command string) *config.Config {
	t.Helper()
	return &config.Config{
		RootDocument: filepath.Join(dir, "main.tex"),
		StylesRoot:   "styles",
		ContentRoot:  "modules",
		Compiler: config.CompilerConfig{
			Command:                  command,
			Args:                     []string{"-interaction=nonstopmode"},
			Timeout:                  time.Minute,
			AcceptableBasicExitCodes: []int{0, 1},
		},
		Output: config.OutputConfig{Directory: "build", Reports: filepath.Join("build", "reports")},
	}
}

func TestRunGeneratesTemplates(t *testing.T) {
	dir := writeTree(t, true)
	cfg := testConfig(t, dir, writeFakeCompiler(t, okCompiler))

	rep, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, rep.GeneratedTemplates)
	assert.False(t, rep.BuildFailed)
	assert.Equal(t, 2, rep.ExitCode())
	assert.Equal(t, "generated_templates", rep.Verdict())

	// The skeleton and its TODO note landed in the tree.
	assert.FileExists(t, filepath.Join(dir, "modules", "chapter-two.tex"))
	assert.FileExists(t, filepath.Join(dir, "modules", "chapter-two.todo.md"))

	// The basic variant is a scratch artifact and must not linger.
	assert.NoFileExists(t, filepath.Join(dir, "main-basic.tex"))
}

func TestSecondRunAllResolved(t *testing.T) {
	dir := writeTree(t, true)
	cfg := testConfig(t, dir, writeFakeCompiler(t, okCompiler))
	p := New(cfg)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.ExitCode())

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, second.GeneratedTemplates)
	assert.True(t, second.AllResolved)
	assert.Equal(t, 0, second.ExitCode())
	assert.Equal(t, "all_resolved", second.Verdict())
}

func TestBasicCrashGatesFullStage(t *testing.T) {
	script := lastArgPrelude + `case "$(basename "$target")" in
  *-basic.tex) exit 3 ;;
esac
exit 0
`
	dir := writeTree(t, false)
	cfg := testConfig(t, dir, writeFakeCompiler(t, script))

	rep, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Attempts, 2)
	assert.Equal(t, compiler.StageBasic, rep.Attempts[0].Stage)
	assert.Equal(t, 3, rep.Attempts[0].ExitCode)
	assert.Equal(t, compiler.StageFull, rep.Attempts[1].Stage)
	assert.Equal(t, compiler.OutcomeSkipped, rep.Attempts[1].Outcome)
	assert.True(t, rep.BuildFailed)
	assert.Equal(t, 1, rep.ExitCode())
}

func TestBasicFailureWithAcceptableExitRunsFull(t *testing.T) {
	script := lastArgPrelude + `case "$(basename "$target")" in
  *-basic.tex) echo "! LaTeX Error: something minor."; exit 1 ;;
esac
exit 0
`
	dir := writeTree(t, false)
	cfg := testConfig(t, dir, writeFakeCompiler(t, script))

	rep, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Attempts, 2)
	assert.Equal(t, compiler.OutcomeFailed, rep.Attempts[0].Outcome)
	assert.Equal(t, compiler.OutcomeSucceeded, rep.Attempts[1].Outcome)
}

func TestBasicTimeoutDoesNotGateFullStage(t *testing.T) {
	script := lastArgPrelude + `case "$(basename "$target")" in
  *-basic.tex) sleep 10 ;;
esac
exit 0
`
	dir := writeTree(t, false)
	cfg := testConfig(t, dir, writeFakeCompiler(t, script))
	cfg.Compiler.Timeout = 200 * time.Millisecond

	rep, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Attempts, 2)
	assert.Equal(t, compiler.OutcomeTimeout, rep.Attempts[0].Outcome)
	assert.Equal(t, compiler.OutcomeSucceeded, rep.Attempts[1].Outcome, "timeout must not gate the full stage")

	// The timeout itself is a Critical finding, so the run still fails.
	var timeoutFindings int
	for _, sf := range rep.Findings {
		if sf.Stage == "basic" {
			timeoutFindings += len(sf.Findings)
		}
	}
	assert.Equal(t, 1, timeoutFindings)
	assert.True(t, rep.BuildFailed)
	assert.Equal(t, 1, rep.ExitCode())
}

func TestFullFailureYieldsFindings(t *testing.T) {
	script := lastArgPrelude + `case "$(basename "$target")" in
  *-basic.tex) exit 0 ;;
esac
echo "! Undefined control sequence."
echo "l.12 \\badmacro"
exit 1
`
	dir := writeTree(t, false)
	cfg := testConfig(t, dir, writeFakeCompiler(t, script))

	rep, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, rep.BuildFailed)
	assert.Equal(t, 1, rep.ExitCode())

	var fullFindings int
	for _, sf := range rep.Findings {
		if sf.Stage == "full" {
			fullFindings += len(sf.Findings)
		}
	}
	assert.Positive(t, fullFindings, "full-stage log must be classified")
}

func TestUnreadableRootDocumentIsFatal(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, writeFakeCompiler(t, okCompiler))
	cfg.RootDocument = filepath.Join(dir, "absent.tex")

	rep, err := New(cfg).Run(context.Background())
	require.Error(t, err)

	assert.True(t, rep.BuildFailed)
	assert.Equal(t, 1, rep.ExitCode())
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "scan", rep.Findings[0].Stage)

	// The report is persisted even on the fatal path.
	assert.FileExists(t, filepath.Join(dir, "build", "reports", "report.json"))
}

func TestRunPersistsReportArtifacts(t *testing.T) {
	dir := writeTree(t, false)
	cfg := testConfig(t, dir, writeFakeCompiler(t, okCompiler))

	_, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	reports := filepath.Join(dir, "build", "reports")
	for _, name := range []string{"report.json", "report.txt", "report.md", "report.html"} {
		assert.FileExists(t, filepath.Join(reports, name))
	}
}

func TestCheckResolvesWithoutSideEffects(t *testing.T) {
	dir := writeTree(t, true)
	cfg := testConfig(t, dir, writeFakeCompiler(t, okCompiler))

	result, err := New(cfg).Check(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Missing(), 1)
	assert.Equal(t, "modules/chapter-two", result.Missing()[0].DeclaredPath)

	assert.NoFileExists(t, filepath.Join(dir, "modules", "chapter-two.tex"))
	assert.NoDirExists(t, filepath.Join(dir, "build"))
}
