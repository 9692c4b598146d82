package compiler

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// WriteBasicVariant writes a copy of the root document next to the original
// with all content-module inclusion lines commented out, and returns its
// path. Compiling the variant exercises preamble and package wiring alone,
// so a basic-stage failure localizes to structure rather than content.
func WriteBasicVariant(rootPath, contentRoot string) (string, error) {
	data, err := os.ReadFile(rootPath)
	if err != nil {
		return "", fmt.Errorf("read root document: %w", err)
	}

	inclusionRe := regexp.MustCompile(`\\(?:input|include)\{` + regexp.QuoteMeta(contentRoot) + `/`)

	var out strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if inclusionRe.MatchString(line) && !strings.HasPrefix(trimmed, "%") {
			out.WriteString("% texbuilder basic variant: ")
		}
		out.WriteString(line)
		out.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan root document: %w", err)
	}

	ext := filepath.Ext(rootPath)
	variantPath := strings.TrimSuffix(rootPath, ext) + "-basic" + ext
	if err := os.WriteFile(variantPath, []byte(out.String()), 0o644); err != nil {
		return "", fmt.Errorf("write basic variant: %w", err)
	}
	return variantPath, nil
}
