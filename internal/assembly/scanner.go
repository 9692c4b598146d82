package assembly

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Directive shapes recognized by the scanner. Options in square brackets are
// tolerated on \usepackage; surrounding whitespace is ignored.
var (
	usepackageRe = regexp.MustCompile(`\\usepackage(?:\[[^\]]*\])?\{([^}]+)\}`)
	inputRe      = regexp.MustCompile(`\\(?:input|include)\{([^}]+)\}`)
)

// Scanner extracts declared style and module references from a root document.
type Scanner struct {
	stylesRoot  string
	contentRoot string
}

// NewScanner creates a scanner for the given styles and content root prefixes
// (as they appear inside directives, e.g. "styles" and "modules").
func NewScanner(stylesRoot, contentRoot string) *Scanner {
	return &Scanner{stylesRoot: stylesRoot, contentRoot: contentRoot}
}

// ScanFile reads and scans the root document at path.
func (s *Scanner) ScanFile(path string) (ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScanResult{}, fmt.Errorf("read root document: %w", err)
	}
	return s.Scan(string(data)), nil
}

// Scan produces the ordered sequence of references declared in the document
// text. Directives inside comments are excluded. Repeated declarations of the
// same path are recorded as duplicates, first occurrence wins.
func (s *Scanner) Scan(text string) ScanResult {
	result := ScanResult{}
	firstSeen := make(map[string]int)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if strings.TrimSpace(line) == "" {
			continue
		}

		for _, m := range usepackageRe.FindAllStringSubmatch(line, -1) {
			s.record(&result, firstSeen, KindPackage, m[1], s.stylesRoot, lineNo)
		}
		for _, m := range inputRe.FindAllStringSubmatch(line, -1) {
			s.record(&result, firstSeen, KindModule, m[1], s.contentRoot, lineNo)
		}
	}

	return result
}

// record appends a reference when the declared path lives under the expected
// root prefix. Paths outside the prefix (core LaTeX packages, absolute
// includes) are not texbuilder's responsibility and are ignored.
func (s *Scanner) record(result *ScanResult, firstSeen map[string]int, kind RefKind, raw, root string, line int) {
	declared := strings.TrimSpace(raw)
	if declared == "" || root == "" {
		return
	}
	if declared != root && !strings.HasPrefix(declared, root+"/") {
		return
	}

	if first, seen := firstSeen[declared]; seen {
		result.Duplicates = append(result.Duplicates, Duplicate{
			DeclaredPath: declared,
			Line:         line,
			FirstLine:    first,
		})
		return
	}
	firstSeen[declared] = line
	result.References = append(result.References, Reference{
		Kind:         kind,
		DeclaredPath: declared,
		Line:         line,
	})
}

// stripComment removes the commented tail of a line. A % escaped as \% does
// not start a comment.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '%' {
			continue
		}
		if i > 0 && line[i-1] == '\\' {
			continue
		}
		return line[:i]
	}
	return line
}
