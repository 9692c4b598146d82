// Package texgen synthesizes placeholder skeletons for missing style and
// module references, together with companion TODO notes, without ever
// touching files that already exist.
package texgen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// writeGeneratedFile writes content to a file under baseDir.
//
// The function ensures:
//   - The output path is relative to baseDir (no path traversal)
//   - Parent directories are created if needed
//   - Existing files are never overwritten (ErrExists if the file exists)
//   - File permissions are set to 0o644
var errExists = errors.New("file already exists")

func writeGeneratedFile(baseDir, relativePath, content string) (string, error) {
	if baseDir == "" {
		return "", errors.New("base directory is required")
	}
	if relativePath == "" {
		return "", errors.New("output path is required")
	}

	cleanRel := filepath.Clean(relativePath)
	if filepath.IsAbs(cleanRel) || strings.HasPrefix(cleanRel, "..") {
		return "", errors.New("output path must be relative to the base directory")
	}

	fullPath := filepath.Join(baseDir, cleanRel)
	rel, err := filepath.Rel(baseDir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.New("output path escapes the base directory")
	}

	if err = os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	// O_EXCL makes the existence check and create a single atomic step, so a
	// hand-authored file that appeared since the scan cannot be clobbered.
	// #nosec G304 -- fullPath is validated to stay under baseDir.
	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) || errors.Is(err, syscall.EEXIST) {
			return fullPath, errExists
		}
		return "", fmt.Errorf("write output file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if _, err := file.WriteString(content); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}

	return fullPath, nil
}
