package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "texbuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "root_document: doc/main.tex\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "doc/main.tex", cfg.RootDocument)
	assert.Equal(t, "styles", cfg.StylesRoot)
	assert.Equal(t, "modules", cfg.ContentRoot)
	assert.Equal(t, "pdflatex", cfg.Compiler.Command)
	assert.Equal(t, []int{0, 1}, cfg.Compiler.AcceptableBasicExitCodes)
	assert.Equal(t, 2*time.Minute, cfg.Compiler.Timeout)
	assert.Equal(t, "build", cfg.Output.Directory)
	assert.Equal(t, filepath.Join("build", "reports"), cfg.Output.Reports)
	assert.Equal(t, filepath.Join("doc", "styles"), cfg.StylesDir())
	assert.Equal(t, filepath.Join("doc", "modules"), cfg.ContentDir())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEXBUILDER_TEST_ROOT", "thesis.tex")
	path := writeConfig(t, "root_document: ${TEXBUILDER_TEST_ROOT}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "thesis.tex", cfg.RootDocument)
}

func TestLoadRejectsAbsoluteRoots(t *testing.T) {
	path := writeConfig(t, "root_document: main.tex\nstyles_root: /etc/styles\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relative")
}

func TestLoadRejectsEventsWithoutURL(t *testing.T) {
	path := writeConfig(t, "root_document: main.tex\nevents:\n  enabled: true\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats_url")
}

func TestHistoryDefaultPath(t *testing.T) {
	path := writeConfig(t, "root_document: main.tex\nhistory:\n  enabled: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("build", "texbuilder.db"), cfg.History.Path)
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texbuilder.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)

	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main.tex", cfg.RootDocument)
}

func TestNormalizeLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, NormalizeLogLevel(" DEBUG "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("bogus"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat(""))
}
