package texgen

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/assembly"
)

// Status classifies the outcome of generating one template.
type Status string

const (
	StatusCreated       Status = "created"
	StatusAlreadyExists Status = "already_exists"
	StatusFailed        Status = "failed"
)

// Template describes a generated placeholder and its companion note.
type Template struct {
	TargetPath string           `json:"target_path"`
	Kind       assembly.RefKind `json:"kind"`
	Body       string           `json:"-"`
	NotePath   string           `json:"note_path,omitempty"`
}

// Result pairs a reference with its generation outcome. Failed results carry
// the error; the run continues with remaining references.
type Result struct {
	Reference assembly.Reference `json:"reference"`
	Status    Status             `json:"status"`
	Template  *Template          `json:"template,omitempty"`
	Err       error              `json:"-"`
}

// Generator materializes skeleton files for unresolved references.
type Generator struct {
	baseDir string
	now     func() time.Time
}

// NewGenerator creates a generator writing under baseDir (the directory
// containing the root document).
func NewGenerator(baseDir string) *Generator {
	return &Generator{baseDir: baseDir, now: time.Now}
}

// Generate synthesizes a skeleton plus TODO note for every reference that
// did not resolve. References that resolved are skipped. One result is
// returned per missing reference, in input order.
func (g *Generator) Generate(refs []assembly.Reference) []Result {
	var results []Result
	for _, ref := range refs {
		if ref.Exists {
			continue
		}
		results = append(results, g.generateOne(ref))
	}
	return results
}

func (g *Generator) generateOne(ref assembly.Reference) Result {
	relTarget := ref.DeclaredPath + ref.Kind.Extension()
	relNote := ref.DeclaredPath + ".todo.md"

	var body string
	if ref.Kind == assembly.KindPackage {
		body = packageSkeleton(ref.DeclaredPath, g.now())
	} else {
		body = moduleSkeleton(ref.DeclaredPath)
	}

	targetPath, err := writeGeneratedFile(g.baseDir, relTarget, body)
	if errors.Is(err, errExists) {
		slog.Info("Template target already exists, leaving untouched", "path", targetPath)
		return Result{Reference: ref, Status: StatusAlreadyExists}
	}
	if err != nil {
		slog.Warn("Template generation failed", "path", relTarget, "error", err)
		return Result{Reference: ref, Status: StatusFailed, Err: fmt.Errorf("generate %s: %w", ref.DeclaredPath, err)}
	}

	tpl := &Template{TargetPath: targetPath, Kind: ref.Kind, Body: body}

	notePath, err := writeGeneratedFile(g.baseDir, relNote, todoNote(ref, targetPath))
	switch {
	case errors.Is(err, errExists):
		// Note left over from a previous run; keep it rather than duplicate.
		tpl.NotePath = notePath
	case err != nil:
		slog.Warn("Companion note generation failed", "path", relNote, "error", err)
		return Result{Reference: ref, Status: StatusFailed, Template: tpl,
			Err: fmt.Errorf("generate note for %s: %w", ref.DeclaredPath, err)}
	default:
		tpl.NotePath = notePath
	}

	slog.Info("Generated placeholder template", "path", targetPath, "kind", ref.Kind)
	return Result{Reference: ref, Status: StatusCreated, Template: tpl}
}
