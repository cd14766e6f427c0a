// Package browse provides a read-only view over git repositories.
// This file contains reference listing: branches, tags, and glob matching.
package browse

import (
	"context"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// RefKind represents the type of git reference.
// This is used to classify references when listing them.
type RefKind int

const (
	// RefAny matches every reference kind.
	RefAny RefKind = iota

	// RefBranch indicates a local branch reference (refs/heads/*).
	RefBranch

	// RefRemoteBranch indicates a remote branch reference (refs/remotes/*).
	RefRemoteBranch

	// RefTag indicates a tag reference (refs/tags/*).
	RefTag

	// RefOther indicates any other type of reference.
	RefOther
)

// String returns a human-readable string representation of the RefKind.
func (k RefKind) String() string {
	switch k {
	case RefAny:
		return "any"
	case RefBranch:
		return "branch"
	case RefRemoteBranch:
		return "remote-branch"
	case RefTag:
		return "tag"
	case RefOther:
		return "other"
	default:
		return "unknown"
	}
}

// Glob is a validated reference name pattern supporting the * and ?
// wildcards. The zero Glob matches everything.
type Glob struct {
	pattern string
}

// NewGlob validates a reference pattern. It fails with ErrInvalidRevision
// when the pattern contains characters a reference name can never hold.
func NewGlob(pattern string) (Glob, error) {
	for _, c := range pattern {
		if c < 0x20 || c == 0x7f {
			return Glob{}, WrapErrorf(ErrInvalidRevision, "control character in pattern %q", pattern)
		}
		switch c {
		case ' ', '~', '^', ':', '[', '\\':
			return Glob{}, WrapErrorf(ErrInvalidRevision, "character %q in pattern %q", string(c), pattern)
		}
	}
	if strings.Contains(pattern, "..") || strings.Contains(pattern, "@{") {
		return Glob{}, WrapErrorf(ErrInvalidRevision, "malformed pattern %q", pattern)
	}
	return Glob{pattern: pattern}, nil
}

// Match reports whether the pattern matches a reference name. Both the full
// name ("refs/heads/main") and the short name ("main") are tried.
func (g Glob) Match(name string) bool {
	if g.pattern == "" {
		return true
	}
	if matchesRefPattern(name, g.pattern) {
		return true
	}
	return matchesRefPattern(shortRefName(name), g.pattern)
}

// Refs returns the references that match the specified kind and pattern,
// sorted by name. Targets are fully resolved hashes; symbolic references such
// as HEAD are not listed.
func (r *Repo) Refs(ctx context.Context, kind RefKind, pattern Glob) ([]Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := r.store.Refs()
	if err != nil {
		return nil, WrapError(err, "failed to get references")
	}

	var matching []Ref
	for _, ref := range all {
		if !matchesRefKind(ref.Name, kind) {
			continue
		}
		if !pattern.Match(ref.Name) {
			continue
		}
		matching = append(matching, ref)
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].Name < matching[j].Name
	})
	return matching, nil
}

// Branches returns all local branch references, sorted by name.
func (r *Repo) Branches(ctx context.Context) ([]Ref, error) {
	return r.Refs(ctx, RefBranch, Glob{})
}

// Tags returns all tag references, sorted by name. Both lightweight and
// annotated tags are listed; an annotated tag's target is the tag object, not
// the commit it points at.
func (r *Repo) Tags(ctx context.Context) ([]Ref, error) {
	return r.Refs(ctx, RefTag, Glob{})
}

// TagObject returns the annotated tag object behind a tag name. It fails with
// ErrNotFound for lightweight tags, which have no tag object.
func (r *Repo) TagObject(ctx context.Context, name string) (*Tag, error) {
	id, err := r.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return r.store.Tag(id)
}

// matchesRefKind checks if a full reference name matches the specified RefKind.
func matchesRefKind(name string, kind RefKind) bool {
	refName := plumbing.ReferenceName(name)
	switch kind {
	case RefAny:
		return true
	case RefBranch:
		return refName.IsBranch()
	case RefRemoteBranch:
		return refName.IsRemote()
	case RefTag:
		return refName.IsTag()
	case RefOther:
		return !refName.IsBranch() && !refName.IsTag() && !refName.IsRemote()
	default:
		return false
	}
}

// shortRefName strips the standard reference namespaces the way git displays
// reference names.
func shortRefName(name string) string {
	for _, prefix := range []string{"refs/heads/", "refs/tags/", "refs/remotes/", "refs/"} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	return name
}

// matchesRefPattern checks if a reference name matches the given pattern.
func matchesRefPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if strings.Contains(pattern, "*") {
		return matchesStarPattern(name, pattern)
	}

	if strings.Contains(pattern, "?") {
		return matchesQuestionPattern(name, pattern)
	}

	return name == pattern
}

// matchesStarPattern matches names with * wildcards. A star matches any run
// of characters, path separators included.
func matchesStarPattern(name, pattern string) bool {
	parts := strings.Split(pattern, "*")

	if !strings.HasPrefix(name, parts[0]) {
		return false
	}
	pos := len(parts[0])

	for i, part := range parts[1:] {
		if part == "" {
			continue
		}
		if i == len(parts)-2 {
			// Last part must sit at the end.
			return len(name)-pos >= len(part) && strings.HasSuffix(name, part)
		}
		idx := strings.Index(name[pos:], part)
		if idx == -1 {
			return false
		}
		pos += idx + len(part)
	}
	return true
}

// matchesQuestionPattern matches names with ? wildcards, each standing for
// exactly one character.
func matchesQuestionPattern(name, pattern string) bool {
	if len(name) != len(pattern) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '?' {
			continue
		}
		if pattern[i] != name[i] {
			return false
		}
	}
	return true
}
