package vcs

import (
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Git state of the directory a submission is made from
type Revision struct {
	Commit string
	// Uncommitted changes present in the work tree
	Dirty bool
}

// Describe the git revision checked out at or above dir.
//
// Returns nil without an error when dir is not inside a repository or the repository has no commits.
func Describe(dir string) (*Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rev := &Revision{Commit: head.Hash().String()}

	worktree, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return rev, nil
	}
	if err != nil {
		return nil, err
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, err
	}
	rev.Dirty = !status.IsClean()

	return rev, nil
}
