// Package gitinfo snapshots the version-control state of the document tree
// for inclusion in run reports.
package gitinfo

import (
	"github.com/go-git/go-git/v5"
)

// Snapshot describes the repository state at run time.
type Snapshot struct {
	Commit string
	Branch string
	Dirty  bool
}

// Resolve returns the HEAD snapshot for the repository containing dir.
// A tree that is not a git repository yields ok=false; this is not an error,
// the report simply omits source information.
func Resolve(dir string) (Snapshot, bool) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Snapshot{}, false
	}

	head, err := repo.Head()
	if err != nil {
		return Snapshot{}, false
	}

	snap := Snapshot{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		snap.Branch = head.Name().Short()
	}

	// Dirty detection is best effort; a worktree status failure leaves the
	// flag false rather than failing the snapshot.
	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			snap.Dirty = !status.IsClean()
		}
	}

	return snap, true
}
