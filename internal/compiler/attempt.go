// Package compiler invokes the external LaTeX compiler in two stages and
// captures its output for analysis: a structure-only "basic" pass with
// content modules neutralized, and a full pass with all directives active.
package compiler

import "time"

// Stage identifies which compilation pass an attempt belongs to.
type Stage string

const (
	StageBasic Stage = "basic"
	StageFull  Stage = "full"
)

// Outcome normalizes how an attempt ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"  // non-zero exit, log available
	OutcomeTimeout   Outcome = "timeout" // wall-clock limit exceeded
	OutcomeCrash     Outcome = "crash"   // non-zero exit with no parseable log
	OutcomeSkipped   Outcome = "skipped" // stage not run (gated by basic result)
)

// BuildAttempt records one compiler invocation. One instance per stage per
// run; never persisted beyond the current report.
type BuildAttempt struct {
	Stage     Stage         `json:"stage"`
	Command   string        `json:"command"`
	ExitCode  int           `json:"exit_code"`
	LogPath   string        `json:"log_path,omitempty"`
	Duration  time.Duration `json:"duration"`
	Outcome   Outcome       `json:"outcome"`
	Succeeded bool          `json:"succeeded"`
}

// Ran reports whether the compiler was actually invoked for this attempt.
func (a BuildAttempt) Ran() bool { return a.Outcome != OutcomeSkipped }
