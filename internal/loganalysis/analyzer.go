package loganalysis

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Analyzer turns raw compiler log text into classified findings.
type Analyzer struct{}

// NewAnalyzer creates a log analyzer.
func NewAnalyzer() *Analyzer { return &Analyzer{} }

// AnalyzeFile reads a log file and analyzes it. A missing or unreadable log
// is an error for the caller to classify (compiler crash vs. expected).
func (a *Analyzer) AnalyzeFile(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compiler log: %w", err)
	}
	return a.Analyze(string(data)), nil
}

// Analyze scans log text line by line. Each diagnostic line is bucketed into
// the first matching category (Other if none) and independently assigned a
// severity. Output preserves log order, which also preserves first-seen
// order within each category. Bare l.<N> context lines attach a line number
// to the finding they follow instead of producing a finding of their own.
func (a *Analyzer) Analyze(text string) []Finding {
	var findings []Finding

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}

		// TeX prints "l.<N> <context>" after an error banner; fold it into
		// the preceding finding.
		if m := texLineRe.FindStringSubmatch(line); m != nil {
			if n := len(findings); n > 0 && findings[n-1].Line == 0 {
				findings[n-1].Line, _ = strconv.Atoi(m[1])
			}
			continue
		}

		if !anyMatch(diagnosticRes, line) {
			continue
		}

		f := Finding{
			Category: classify(line),
			Severity: severityFor(line),
			Message:  line,
		}
		f.Hint = hintFor(f.Category)
		if m := fileLineRe.FindStringSubmatch(line); m != nil {
			f.File = m[2]
			f.Line, _ = strconv.Atoi(m[3])
		}
		findings = append(findings, f)
	}

	return findings
}

// classify returns the first matching category, Other when none match.
func classify(line string) Category {
	for _, cp := range categoryPatterns {
		if anyMatch(cp.res, line) {
			return cp.category
		}
	}
	return CategoryOther
}

// severityFor assigns severity from keyword patterns. Checked worst-first;
// layout-only patterns are checked before the generic Warning match so font
// and box complaints stay Low.
func severityFor(line string) Severity {
	switch {
	case anyMatch(criticalRes, line):
		return SeverityCritical
	case anyMatch(highRes, line):
		return SeverityHigh
	case anyMatch(lowRes, line):
		return SeverityLow
	case anyMatch(mediumRes, line):
		return SeverityMedium
	case strings.HasPrefix(line, "!"):
		// Unrecognized hard error banner.
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

func hintFor(c Category) string {
	for _, cp := range categoryPatterns {
		if cp.category == c {
			return cp.hint
		}
	}
	return ""
}

// CountAtLeast returns how many findings are at or above the given severity.
func CountAtLeast(findings []Finding, s Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity.AtLeast(s) {
			n++
		}
	}
	return n
}
