package texgen

import (
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/texbuilder/internal/assembly"
)

var titleCaser = cases.Title(language.English)

// placeholderTitle derives a human-readable title from the declared path
// basename, e.g. "modules/related_work" -> "Related Work".
func placeholderTitle(declaredPath string) string {
	base := path.Base(declaredPath)
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return titleCaser.String(base)
}

// packageSkeleton renders a minimal .sty placeholder. The skeleton defines no
// macros, so layering real \usepackage directives or macro redefinitions on
// top cannot clash with it.
func packageSkeleton(declaredPath string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%%%% Placeholder style package generated by texbuilder.\n")
	fmt.Fprintf(&b, "%%%% Replace with real content, then delete the companion .todo.md note.\n")
	b.WriteString("\\NeedsTeXFormat{LaTeX2e}\n")
	fmt.Fprintf(&b, "\\ProvidesPackage{%s}[%s texbuilder placeholder]\n", declaredPath, now.Format("2006/01/02"))
	b.WriteString("% Intentionally empty: no macro definitions yet.\n")
	b.WriteString("\\endinput\n")
	return b.String()
}

// moduleSkeleton renders a minimal .tex content placeholder with a title and
// a pending-content marker.
func moduleSkeleton(declaredPath string) string {
	var b strings.Builder
	b.WriteString("% Placeholder content module generated by texbuilder.\n")
	b.WriteString("% Replace with real content, then delete the companion .todo.md note.\n")
	fmt.Fprintf(&b, "\\section{%s}\n\n", placeholderTitle(declaredPath))
	b.WriteString("\\textit{Content pending.}\n")
	return b.String()
}

// todoNote renders the companion note describing what the placeholder is for
// and what a complete replacement needs.
func todoNote(ref assembly.Reference, targetPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# TODO: %s\n\n", ref.DeclaredPath)
	fmt.Fprintf(&b, "`%s` was generated automatically because the root document declares it on line %d but the file did not exist.\n\n", targetPath, ref.Line)
	b.WriteString("## Purpose\n\n")
	if ref.Kind == assembly.KindPackage {
		b.WriteString("Style package providing macros or settings for the document. The placeholder defines nothing.\n\n")
		b.WriteString("## Minimal structure\n\n")
		b.WriteString("- `\\NeedsTeXFormat{LaTeX2e}`\n")
		fmt.Fprintf(&b, "- `\\ProvidesPackage{%s}[...]`\n", ref.DeclaredPath)
		b.WriteString("- macro definitions, ending with `\\endinput`\n\n")
	} else {
		fmt.Fprintf(&b, "Content module for the \"%s\" part of the document. The placeholder contains only a section title.\n\n", placeholderTitle(ref.DeclaredPath))
		b.WriteString("## Minimal structure\n\n")
		b.WriteString("- a `\\section{...}` (or matching heading level for its position)\n")
		b.WriteString("- the actual content\n\n")
	}
	b.WriteString("Delete this note once the content is complete.\n")
	return b.String()
}
