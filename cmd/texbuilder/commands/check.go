package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/texbuilder/internal/pipeline"
)

// CheckCmd implements the 'check' command: resolve every reference and
// report the missing ones, without touching the tree or the compiler.
type CheckCmd struct{}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	result, err := pipeline.New(cfg).Check(context.Background())
	if err != nil {
		return err
	}

	for _, dup := range result.Duplicates {
		fmt.Printf("duplicate  %s (line %d, first seen line %d)\n", dup.DeclaredPath, dup.Line, dup.FirstLine)
	}

	missing := result.Missing()
	for _, ref := range missing {
		fmt.Printf("missing    %s%s (line %d)\n", ref.DeclaredPath, ref.Kind.Extension(), ref.Line)
	}

	fmt.Printf("%d references, %d missing\n", len(result.References), len(missing))
	if len(missing) > 0 {
		// Same code build uses for "needs content, nothing broken".
		return &ExitError{Code: 2}
	}
	return nil
}
