package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/texbuilder/internal/loganalysis"
)

// Persist writes the report artifacts into the reports directory:
//
//	report.json  (machine readable)
//	report.txt   (one-line human summary)
//	report.md    (detailed human report)
//	report.html  (report.md rendered to HTML)
//
// Each file is written atomically via tmp + rename. Best effort; an error is
// returned for caller logging but does not change the verdict.
func (r *Report) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure reports directory: %w", err)
	}

	jb, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, "report.json"), jb); err != nil {
		return err
	}

	if err := writeAtomic(filepath.Join(dir, "report.txt"), []byte(r.Summary()+"\n")); err != nil {
		return err
	}

	md := r.Markdown()
	if err := writeAtomic(filepath.Join(dir, "report.md"), []byte(md)); err != nil {
		return err
	}

	var html bytes.Buffer
	html.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>texbuilder report</title></head><body>\n")
	if err := goldmark.New().Convert([]byte(md), &html); err != nil {
		return fmt.Errorf("render report html: %w", err)
	}
	html.WriteString("</body></html>\n")
	return writeAtomic(filepath.Join(dir, "report.html"), html.Bytes())
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Markdown renders the detailed human-readable report.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# texbuilder report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Root document: `%s`\n", r.RootDocument)
	fmt.Fprintf(&b, "- Verdict: **%s**\n", r.Verdict())
	fmt.Fprintf(&b, "- Duration: %s\n", r.End.Sub(r.Start).Truncate(1e6))
	if r.Git.Commit != "" {
		dirty := ""
		if r.Git.Dirty {
			dirty = " (dirty)"
		}
		fmt.Fprintf(&b, "- Source: %s @ %.12s%s\n", r.Git.Branch, r.Git.Commit, dirty)
	}

	b.WriteString("\n## References\n\n")
	if len(r.References) == 0 {
		b.WriteString("No style or module references declared.\n")
	}
	for _, ref := range r.References {
		state := "ok"
		if !ref.Exists {
			state = "missing"
		}
		fmt.Fprintf(&b, "- `%s` (%s, line %d): %s\n", ref.DeclaredPath, ref.Kind, ref.Line, state)
	}
	for _, dup := range r.Duplicates {
		fmt.Fprintf(&b, "- `%s`: duplicate declaration on line %d (first on line %d)\n",
			dup.DeclaredPath, dup.Line, dup.FirstLine)
	}

	if len(r.Generated) > 0 {
		b.WriteString("\n## Generated templates\n\n")
		for _, g := range r.Generated {
			switch {
			case g.Error != "":
				fmt.Fprintf(&b, "- `%s`: generation failed: %s\n", g.Reference.DeclaredPath, g.Error)
			case g.Status == "already_exists":
				fmt.Fprintf(&b, "- `%s`: target already exists, left untouched\n", g.Reference.DeclaredPath)
			default:
				fmt.Fprintf(&b, "- `%s`: created `%s` (note: `%s`)\n", g.Reference.DeclaredPath, g.Target, g.Note)
			}
		}
	}

	b.WriteString("\n## Build attempts\n\n")
	for _, a := range r.Attempts {
		fmt.Fprintf(&b, "- %s: %s (exit %d, %s)", a.Stage, a.Outcome, a.ExitCode, a.Duration.Truncate(1e6))
		if a.LogPath != "" {
			fmt.Fprintf(&b, " — log: `%s`", a.LogPath)
		}
		b.WriteString("\n")
	}

	for _, sf := range r.Findings {
		if len(sf.Findings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## Findings (%s stage)\n", sf.Stage)
		for _, cat := range []loganalysis.Category{
			loganalysis.CategorySyntax,
			loganalysis.CategoryMissingPackage,
			loganalysis.CategoryReference,
			loganalysis.CategoryIncompatiblePackages,
			loganalysis.CategoryEncoding,
			loganalysis.CategoryFonts,
			loganalysis.CategoryOther,
		} {
			first := true
			for _, f := range sf.Findings {
				if f.Category != cat {
					continue
				}
				if first {
					fmt.Fprintf(&b, "\n### %s\n\n", cat)
					first = false
				}
				loc := ""
				switch {
				case f.File != "" && f.Line > 0:
					loc = fmt.Sprintf(" [%s:%d]", f.File, f.Line)
				case f.Line > 0:
					loc = fmt.Sprintf(" [line %d]", f.Line)
				}
				fmt.Fprintf(&b, "- **%s**%s %s\n", f.Severity, loc, f.Message)
				if f.Hint != "" {
					fmt.Fprintf(&b, "  - hint: %s\n", f.Hint)
				}
			}
		}
	}

	return b.String()
}
