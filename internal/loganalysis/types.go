// Package loganalysis classifies LaTeX compiler log output into
// severity-ranked findings with remediation hints.
package loganalysis

// Category buckets a finding by failure class. A line lands in exactly one
// category: patterns are tested in a fixed order and the first match wins
// (deliberate tie-break, since several patterns can match the same line).
type Category string

const (
	CategorySyntax               Category = "syntax"
	CategoryMissingPackage       Category = "missing_package"
	CategoryReference            Category = "reference"
	CategoryIncompatiblePackages Category = "incompatible_packages"
	CategoryEncoding             Category = "encoding"
	CategoryFonts                Category = "fonts"
	CategoryOther                Category = "other"
)

// Severity ranks a finding. Assigned per line, independently of category.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// rank orders severities for comparisons (higher is worse).
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool { return s.rank() >= other.rank() }

// Finding is one classified diagnostic extracted from a compiler log.
// File/Line are populated when the log carried a recognizable location and
// are zero-valued otherwise.
type Finding struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Hint     string   `json:"hint,omitempty"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
}
