// Package browse provides a read-only view over git repositories.
// This file contains revision resolution: turning revision expressions into
// object identifiers and commits.
package browse

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// shortHashMinLen is the minimum number of hex digits accepted as a partial
// object identifier, matching git's core.abbrev floor.
const shortHashMinLen = 4

// maxTagChainLen bounds tag-to-tag peeling so a cyclic chain in a corrupt
// store cannot loop forever.
const maxTagChainLen = 16

// revOp is one parent-traversal step parsed from a revision suffix:
// "^" / "^N" select the N-th parent, "~N" walks N first-parents.
type revOp struct {
	op byte
	n  int
}

// Resolve turns a revision expression into an object identifier.
//
// The supported input shapes are a fixed set: a full hash, a partial hash of
// at least four hex digits, a reference name (full like "refs/heads/main" or
// short like "main", tried in git's rev-parse lookup order), "HEAD", and any
// of those followed by "^", "^N", or "~N" suffixes.
//
// It fails with ErrNotFound when nothing matches, ErrAmbiguousRevision when a
// partial hash matches more than one object, and ErrInvalidRevision when the
// expression is malformed.
func (r *Repo) Resolve(ctx context.Context, rev string) (plumbing.Hash, error) {
	base, ops, err := parseRevision(rev)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	id, err := r.resolveBase(base)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	return r.applyRevOps(id, ops)
}

// PeelToCommit resolves a revision and follows annotated-tag targets until it
// reaches a commit. It fails with ErrNotCommit when the final object has no
// associated commit (for example a tag pointing at a tree).
func (r *Repo) PeelToCommit(ctx context.Context, rev string) (*Commit, error) {
	id, err := r.Resolve(ctx, rev)
	if err != nil {
		return nil, err
	}

	commitID, err := r.peelCommitID(id)
	if err != nil {
		return nil, err
	}

	return r.store.Commit(commitID)
}

// parseRevision splits a revision expression into its base and the ordered
// list of parent-traversal suffixes.
func parseRevision(rev string) (string, []revOp, error) {
	if rev == "" {
		return "", nil, WrapError(ErrInvalidRevision, "revision cannot be empty")
	}

	cut := strings.IndexAny(rev, "^~")
	if cut < 0 {
		return rev, nil, nil
	}
	if cut == 0 {
		return "", nil, WrapErrorf(ErrInvalidRevision, "revision %q has no base", rev)
	}

	base, suffix := rev[:cut], rev[cut:]
	var ops []revOp
	for i := 0; i < len(suffix); {
		op := suffix[i]
		if op != '^' && op != '~' {
			return "", nil, WrapErrorf(ErrInvalidRevision, "unexpected %q in revision %q", string(op), rev)
		}
		i++
		j := i
		for j < len(suffix) && suffix[j] >= '0' && suffix[j] <= '9' {
			j++
		}
		n := 1
		if j > i {
			parsed, err := strconv.Atoi(suffix[i:j])
			if err != nil {
				return "", nil, WrapErrorf(ErrInvalidRevision, "bad count in revision %q", rev)
			}
			n = parsed
		}
		ops = append(ops, revOp{op: op, n: n})
		i = j
	}
	return base, ops, nil
}

// refSearchPaths is git's rev-parse lookup order for short reference names.
var refSearchPaths = []string{
	"refs/%s",
	"refs/tags/%s",
	"refs/heads/%s",
	"refs/remotes/%s",
	"refs/remotes/%s/HEAD",
}

// resolveBase resolves the base of a revision expression: HEAD, a reference
// name, a full hash, or a partial hash, in that precedence order.
func (r *Repo) resolveBase(base string) (plumbing.Hash, error) {
	if base == "HEAD" {
		return r.store.ResolveRef("HEAD")
	}

	if strings.HasPrefix(base, "refs/") {
		return r.store.ResolveRef(base)
	}

	if len(base) == len(plumbing.ZeroHash)*2 && isHex(base) {
		id := plumbing.NewHash(base)
		if _, err := r.store.ObjectType(id); err != nil {
			return plumbing.ZeroHash, err
		}
		return id, nil
	}

	if !validRefComponent(base) {
		if isHex(base) && len(base) >= shortHashMinLen {
			return r.resolveShortHash(base)
		}
		return plumbing.ZeroHash, WrapErrorf(ErrInvalidRevision, "malformed revision %q", base)
	}

	// References shadow hash prefixes, matching git's precedence.
	for _, format := range refSearchPaths {
		name := strings.Replace(format, "%s", base, 1)
		id, err := r.store.ResolveRef(name)
		if err == nil {
			return id, nil
		}
		if !isNotFound(err) {
			return plumbing.ZeroHash, err
		}
	}

	if isHex(base) && len(base) >= shortHashMinLen {
		return r.resolveShortHash(base)
	}

	return plumbing.ZeroHash, WrapErrorf(ErrNotFound, "revision %q", base)
}

// resolveShortHash expands a partial object identifier, failing with
// ErrAmbiguousRevision when the prefix is shared by several objects.
func (r *Repo) resolveShortHash(prefix string) (plumbing.Hash, error) {
	hashes, err := r.store.HashesWithPrefix(strings.ToLower(prefix))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	switch len(hashes) {
	case 0:
		return plumbing.ZeroHash, WrapErrorf(ErrNotFound, "revision %q", prefix)
	case 1:
		return hashes[0], nil
	default:
		return plumbing.ZeroHash, WrapErrorf(ErrAmbiguousRevision, "prefix %q matches %d objects", prefix, len(hashes))
	}
}

// applyRevOps walks parent links for each parsed "^"/"~" suffix.
func (r *Repo) applyRevOps(id plumbing.Hash, ops []revOp) (plumbing.Hash, error) {
	if len(ops) == 0 {
		return id, nil
	}

	for _, op := range ops {
		commitID, err := r.peelCommitID(id)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		commit, err := r.store.Commit(commitID)
		if err != nil {
			return plumbing.ZeroHash, err
		}

		switch op.op {
		case '^':
			if op.n == 0 {
				id = commit.ID
				continue
			}
			if op.n > len(commit.Parents) {
				return plumbing.ZeroHash, WrapErrorf(ErrNotFound, "commit %s has no parent %d", commit.ID, op.n)
			}
			id = commit.Parents[op.n-1]
		case '~':
			current := commit
			for step := 0; step < op.n; step++ {
				if len(current.Parents) == 0 {
					return plumbing.ZeroHash, WrapErrorf(ErrNotFound, "commit %s has no parent", current.ID)
				}
				current, err = r.store.Commit(current.Parents[0])
				if err != nil {
					return plumbing.ZeroHash, err
				}
			}
			id = current.ID
		}
	}
	return id, nil
}

// peelCommitID follows annotated-tag targets until it reaches a commit id.
func (r *Repo) peelCommitID(id plumbing.Hash) (plumbing.Hash, error) {
	for i := 0; i < maxTagChainLen; i++ {
		typ, err := r.store.ObjectType(id)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		switch typ {
		case plumbing.CommitObject:
			return id, nil
		case plumbing.TagObject:
			tag, err := r.store.Tag(id)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			id = tag.Target
		default:
			return plumbing.ZeroHash, WrapErrorf(ErrNotCommit, "object %s is a %s", id, typ)
		}
	}
	return plumbing.ZeroHash, WrapErrorf(ErrNotCommit, "tag chain longer than %d", maxTagChainLen)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// validRefComponent applies the parts of git's check-ref-format rules that
// matter for dispatch; the full grammar belongs to the reference layer.
func validRefComponent(name string) bool {
	if name == "" || name == "@" {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return false
	}
	if strings.HasSuffix(name, ".") || strings.HasSuffix(name, ".lock") {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "//") || strings.Contains(name, "@{") {
		return false
	}
	for _, c := range name {
		if c < 0x20 || c == 0x7f {
			return false
		}
		switch c {
		case ' ', '~', '^', ':', '?', '*', '[', '\\':
			return false
		}
	}
	return true
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
