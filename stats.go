// Package browse provides a read-only view over git repositories.
// This file contains repository-level statistics derived from the history.
package browse

import (
	"context"
)

// Stats summarizes a repository as seen from one head.
type Stats struct {
	// Branches is the number of local branch references.
	Branches int

	// Commits is the number of commits reachable from the head.
	Commits int

	// Contributors is the number of distinct commit authors, keyed by
	// name plus email.
	Contributors int
}

// Stats walks the full history of rev and counts commits and distinct
// authors, along with the repository's local branches.
func (r *Repo) Stats(ctx context.Context, rev string) (Stats, error) {
	branches, err := r.Branches(ctx)
	if err != nil {
		return Stats{}, err
	}

	history, err := r.History(ctx, rev)
	if err != nil {
		return Stats{}, err
	}

	var commits int
	authors := make(map[string]struct{})
	err = history.Commits().ForEach(func(c *Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits++
		authors[c.Author.Name+" <"+c.Author.Email+">"] = struct{}{}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Branches:     len(branches),
		Commits:      commits,
		Contributors: len(authors),
	}, nil
}
