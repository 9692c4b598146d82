package assembly

import (
	"path/filepath"
	"strings"

	"os"
)

// Checker resolves declared references against the filesystem.
type Checker struct {
	baseDir string
}

// NewChecker creates a checker resolving references relative to baseDir (the
// directory containing the root document).
func NewChecker(baseDir string) *Checker {
	return &Checker{baseDir: baseDir}
}

// TargetPath returns the on-disk path a reference resolves to (declared path
// plus conventional extension, relative to the base directory).
func (c *Checker) TargetPath(ref Reference) string {
	return filepath.Join(c.baseDir, filepath.FromSlash(ref.DeclaredPath)+ref.Kind.Extension())
}

// Exists reports whether the reference's target is present as a regular file
// under the base directory. Directories do not count, and paths escaping the
// base directory (parent segments, absolute paths, symlinks pointing outside)
// resolve to false.
func (c *Checker) Exists(ref Reference) bool {
	if escapes(ref.DeclaredPath) {
		return false
	}

	target := c.TargetPath(ref)
	info, err := os.Lstat(target)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		// Follow the link but require it to land inside the base directory.
		resolved, err := filepath.EvalSymlinks(target)
		if err != nil {
			return false
		}
		base, err := filepath.Abs(c.baseDir)
		if err != nil {
			return false
		}
		abs, err := filepath.Abs(resolved)
		if err != nil {
			return false
		}
		rel, err := filepath.Rel(base, abs)
		if err != nil || escapes(filepath.ToSlash(rel)) {
			return false
		}
		info, err = os.Stat(target)
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// ResolveAll returns a copy of the scan result with Exists populated for
// every reference. The input is not mutated.
func (c *Checker) ResolveAll(result ScanResult) ScanResult {
	resolved := ScanResult{
		References: make([]Reference, len(result.References)),
		Duplicates: result.Duplicates,
	}
	for i, ref := range result.References {
		ref.Exists = c.Exists(ref)
		resolved.References[i] = ref
	}
	return resolved
}

// escapes reports whether a declared path (slash-separated) tries to leave
// its root via absolute or parent-directory segments.
func escapes(declared string) bool {
	if declared == "" || strings.HasPrefix(declared, "/") {
		return true
	}
	clean := filepath.ToSlash(filepath.Clean(declared))
	return clean == ".." || strings.HasPrefix(clean, "../")
}
