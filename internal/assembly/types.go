// Package assembly models the declared dependencies of a modular LaTeX root
// document and resolves whether they exist on disk.
package assembly

// RefKind distinguishes style packages from content modules.
type RefKind string

const (
	KindPackage RefKind = "package" // \usepackage{<styles_root>/...} -> .sty
	KindModule  RefKind = "module"  // \input{<content_root>/...} / \include{...} -> .tex
)

// Extension returns the conventional file extension for the kind.
func (k RefKind) Extension() string {
	if k == KindPackage {
		return ".sty"
	}
	return ".tex"
}

// Reference is a declared dependency of the root document. DeclaredPath is
// the path as written in the directive (without extension) and serves as the
// natural key. Immutable once scanned; Exists is resolved exactly once by the
// Checker before the slice is handed to later stages.
type Reference struct {
	Kind         RefKind `json:"kind"`
	DeclaredPath string  `json:"declared_path"`
	Line         int     `json:"line"`
	Exists       bool    `json:"exists"`
}

// Duplicate records a repeated declaration of an already-seen path. Kept as
// informative data rather than collapsed silently.
type Duplicate struct {
	DeclaredPath string `json:"declared_path"`
	Line         int    `json:"line"`
	FirstLine    int    `json:"first_line"`
}

// ScanResult is the ordered outcome of scanning the root document.
type ScanResult struct {
	References []Reference `json:"references"`
	Duplicates []Duplicate `json:"duplicates,omitempty"`
}

// Missing returns the references whose targets did not exist at scan time.
func (r ScanResult) Missing() []Reference {
	var missing []Reference
	for _, ref := range r.References {
		if !ref.Exists {
			missing = append(missing, ref)
		}
	}
	return missing
}
