// Package browse provides a read-only view over git repositories.
// This file contains the minimal staging/commit surface used to build
// repositories worth browsing (fixtures, scratch repos, tooling).
package browse

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrEmptyCommit is returned when a commit would record no changes and
// CommitOpts.AllowEmpty was not set.
var ErrEmptyCommit = errors.New("empty commit")

// CommitOpts configures commit creation behavior.
type CommitOpts struct {
	// AllowEmpty allows creating commits with no changes.
	AllowEmpty bool

	// All adds all modified and untracked files to the index before
	// committing, like 'git add .' followed by commit.
	All bool
}

// Add stages files in the worktree for the next commit.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if r.worktree == nil {
		return fmt.Errorf("cannot add files in bare repository")
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := r.worktree.Add(path); err != nil {
			return WrapErrorf(err, "failed to add path %q", path)
		}
	}

	return nil
}

// Commit creates a new commit with the specified message and author/committer
// and returns its hash.
func (r *Repo) Commit(ctx context.Context, msg string, who Signature, opts CommitOpts) (plumbing.Hash, error) {
	if r.worktree == nil {
		return plumbing.ZeroHash, fmt.Errorf("cannot commit in bare repository")
	}

	if msg == "" {
		return plumbing.ZeroHash, fmt.Errorf("commit message cannot be empty")
	}

	if who.Name == "" || who.Email == "" {
		return plumbing.ZeroHash, fmt.Errorf("committer name and email are required")
	}

	sig := &object.Signature{Name: who.Name, Email: who.Email, When: who.When}
	hash, err := r.worktree.Commit(msg, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		All:               opts.All,
		AllowEmptyCommits: opts.AllowEmpty,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return plumbing.ZeroHash, ErrEmptyCommit
		}
		return plumbing.ZeroHash, WrapError(err, "failed to create commit")
	}

	return hash, nil
}
