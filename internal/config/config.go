// Package config loads and validates texbuilder configuration from YAML,
// layering .env files and environment variable expansion on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	RootDocument string         `yaml:"root_document"`
	StylesRoot   string         `yaml:"styles_root"`
	ContentRoot  string         `yaml:"content_root"`
	Compiler     CompilerConfig `yaml:"compiler"`
	Output       OutputConfig   `yaml:"output"`
	History      HistoryConfig  `yaml:"history"`
	Events       EventsConfig   `yaml:"events"`
	Watch        WatchConfig    `yaml:"watch"`
	Log          LogConfig      `yaml:"log"`
}

// CompilerConfig describes how the external LaTeX compiler is invoked.
type CompilerConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
	// AcceptableBasicExitCodes are exit codes of the basic (structure-only)
	// stage that still allow the full stage to run. The basic pass is expected
	// to fail in recognized ways; anything outside this set is treated as a
	// compiler crash and gates the full stage.
	AcceptableBasicExitCodes []int `yaml:"acceptable_basic_exit_codes,omitempty"`
}

// OutputConfig represents build output locations.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Reports   string `yaml:"reports"`
	Clean     bool   `yaml:"clean"`
}

// HistoryConfig controls the SQLite run-history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// EventsConfig controls run-completion event publishing over NATS.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce         time.Duration `yaml:"debounce"`
	ScheduleInterval time.Duration `yaml:"schedule_interval,omitempty"`
	MetricsListen    string        `yaml:"metrics_listen,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env files if present; missing files are fine.
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				fmt.Fprintf(os.Stderr, "Note: %s could not be loaded: %v\n", envPath, err)
			}
			break
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills zero-valued fields with conventional defaults.
func (c *Config) applyDefaults() {
	if c.RootDocument == "" {
		c.RootDocument = "main.tex"
	}
	if c.StylesRoot == "" {
		c.StylesRoot = "styles"
	}
	if c.ContentRoot == "" {
		c.ContentRoot = "modules"
	}
	if c.Compiler.Command == "" {
		c.Compiler.Command = "pdflatex"
	}
	if len(c.Compiler.Args) == 0 {
		c.Compiler.Args = []string{"-interaction=nonstopmode", "-file-line-error"}
	}
	if c.Compiler.Timeout <= 0 {
		c.Compiler.Timeout = 2 * time.Minute
	}
	if len(c.Compiler.AcceptableBasicExitCodes) == 0 {
		// pdflatex exits 1 on recoverable errors while still writing a log.
		c.Compiler.AcceptableBasicExitCodes = []int{0, 1}
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "build"
	}
	if c.Output.Reports == "" {
		c.Output.Reports = filepath.Join(c.Output.Directory, "reports")
	}
	if c.History.Enabled && c.History.Path == "" {
		c.History.Path = filepath.Join(c.Output.Directory, "texbuilder.db")
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "texbuilder.runs"
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 2 * time.Second
	}
	c.Log.Level = string(NormalizeLogLevel(c.Log.Level))
	c.Log.Format = string(NormalizeLogFormat(c.Log.Format))
}

// Validate checks presence of required fields and basic consistency.
func (c *Config) Validate() error {
	if c.RootDocument == "" {
		return fmt.Errorf("root_document is required")
	}
	if filepath.IsAbs(c.StylesRoot) || filepath.IsAbs(c.ContentRoot) {
		return fmt.Errorf("styles_root and content_root must be relative to the repository root")
	}
	if c.Events.Enabled && c.Events.NATSURL == "" {
		return fmt.Errorf("events.nats_url is required when events are enabled")
	}
	return nil
}

// BaseDir returns the directory containing the root document. Styles and
// content roots are resolved against it.
func (c *Config) BaseDir() string {
	return filepath.Dir(c.RootDocument)
}

// StylesDir returns the styles root resolved against BaseDir.
func (c *Config) StylesDir() string { return filepath.Join(c.BaseDir(), c.StylesRoot) }

// ContentDir returns the content root resolved against BaseDir.
func (c *Config) ContentDir() string { return filepath.Join(c.BaseDir(), c.ContentRoot) }

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		RootDocument: "main.tex",
		StylesRoot:   "styles",
		ContentRoot:  "modules",
		Compiler: CompilerConfig{
			Command: "pdflatex",
			Args:    []string{"-interaction=nonstopmode", "-file-line-error"},
			Timeout: 2 * time.Minute,
		},
		Output: OutputConfig{
			Directory: "build",
			Reports:   "build/reports",
			Clean:     true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "build/texbuilder.db",
		},
		Events: EventsConfig{
			Enabled: false,
			NATSURL: "nats://localhost:4222",
			Subject: "texbuilder.runs",
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
