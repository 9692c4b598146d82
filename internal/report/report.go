// Package report aggregates scanner, generator, and build results into a
// single verdict and persists machine- and human-readable artifacts.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/texbuilder/internal/assembly"
	"git.home.luguber.info/inful/texbuilder/internal/compiler"
	"git.home.luguber.info/inful/texbuilder/internal/loganalysis"
	"git.home.luguber.info/inful/texbuilder/internal/texgen"
)

// StageFindings groups the analyzer output of one pipeline stage. Stage is
// a free-form name ("scan", "basic", "full") so scanner-level findings fit
// alongside compiler attempts.
type StageFindings struct {
	Stage    string                `json:"stage"`
	Findings []loganalysis.Finding `json:"findings"`
}

// GeneratedEntry is the JSON-friendly record of one template generation.
type GeneratedEntry struct {
	Reference assembly.Reference `json:"reference"`
	Status    texgen.Status      `json:"status"`
	Target    string             `json:"target,omitempty"`
	Note      string             `json:"note,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// GitSnapshot captures the document tree's version-control state, when the
// tree is a git repository. Best effort; zero value means "not a repo".
type GitSnapshot struct {
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
	Dirty  bool   `json:"dirty,omitempty"`
}

// Report captures everything a run produced. It is the single source of
// truth; the process exit code is only a coarse mirror of its flags.
type Report struct {
	SchemaVersion int       `json:"schema_version"`
	RunID         string    `json:"run_id"`
	RootDocument  string    `json:"root_document"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`

	Git GitSnapshot `json:"git,omitempty"`

	References []assembly.Reference    `json:"references"`
	Duplicates []assembly.Duplicate    `json:"duplicates,omitempty"`
	Generated  []GeneratedEntry        `json:"generated,omitempty"`
	Attempts   []compiler.BuildAttempt `json:"attempts"`
	Findings   []StageFindings         `json:"findings"`

	// GeneratedTemplates and BuildFailed are deliberately independent flags,
	// not one enum: both can be true at once and collapsing them would lose
	// information.
	GeneratedTemplates bool `json:"generated_templates"`
	BuildFailed        bool `json:"build_failed"`
	AllResolved        bool `json:"all_resolved"`
}

// New creates an empty report for a run against the given root document.
func New(rootDocument string) *Report {
	return &Report{
		SchemaVersion: 1,
		RunID:         uuid.NewString(),
		RootDocument:  rootDocument,
		Start:         time.Now(),
	}
}

// Finish stamps the end time and derives the verdict flags from the
// accumulated data. Call exactly once, after all stages contributed.
func (r *Report) Finish() {
	r.End = time.Now()

	for _, g := range r.Generated {
		if g.Status == texgen.StatusCreated {
			r.GeneratedTemplates = true
		}
	}

	missing := false
	for _, ref := range r.References {
		if !ref.Exists {
			missing = true
			break
		}
	}

	fullSucceeded := false
	for _, a := range r.Attempts {
		if a.Stage == compiler.StageFull && a.Succeeded {
			fullSucceeded = true
		}
	}

	critical, high := 0, 0
	for _, sf := range r.Findings {
		for _, f := range sf.Findings {
			switch f.Severity {
			case loganalysis.SeverityCritical:
				critical++
			case loganalysis.SeverityHigh:
				high++
			}
		}
	}

	r.BuildFailed = !fullSucceeded || critical > 0
	r.AllResolved = !missing && fullSucceeded && critical == 0 && high == 0
}

// AddFindings appends one stage's analyzer output.
func (r *Report) AddFindings(stage string, findings []loganalysis.Finding) {
	r.Findings = append(r.Findings, StageFindings{Stage: stage, Findings: findings})
}

// AddGeneration converts generator results into report entries.
func (r *Report) AddGeneration(results []texgen.Result) {
	for _, res := range results {
		entry := GeneratedEntry{Reference: res.Reference, Status: res.Status}
		if res.Template != nil {
			entry.Target = res.Template.TargetPath
			entry.Note = res.Template.NotePath
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		r.Generated = append(r.Generated, entry)
	}
}

// ExitCode maps the verdict flags onto the process exit code contract:
// 0 all resolved, 1 build failed, 2 templates generated but nothing broken.
func (r *Report) ExitCode() int {
	switch {
	case r.BuildFailed:
		return 1
	case r.GeneratedTemplates:
		return 2
	case r.AllResolved:
		return 0
	default:
		return 1
	}
}

// Verdict renders the flag combination as a short stable string.
func (r *Report) Verdict() string {
	switch {
	case r.BuildFailed && r.GeneratedTemplates:
		return "generated_templates+build_failed"
	case r.BuildFailed:
		return "build_failed"
	case r.GeneratedTemplates:
		return "generated_templates"
	case r.AllResolved:
		return "all_resolved"
	default:
		return "unresolved"
	}
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	dur := r.End.Sub(r.Start)
	missing := 0
	for _, ref := range r.References {
		if !ref.Exists {
			missing++
		}
	}
	findings := 0
	for _, sf := range r.Findings {
		findings += len(sf.Findings)
	}
	return fmt.Sprintf("run=%s refs=%d missing=%d generated=%d attempts=%d findings=%d duration=%s verdict=%s",
		r.RunID, len(r.References), missing, len(r.Generated), len(r.Attempts), findings,
		dur.Truncate(time.Millisecond), r.Verdict())
}
