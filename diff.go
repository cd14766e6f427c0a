// Package browse provides a read-only view over git repositories.
// This file contains the structural diff engine comparing two snapshots.
package browse

import (
	"context"

	"github.com/go-enry/go-enry/v2"
	"github.com/go-git/go-git/v5/plumbing"
)

// DefaultRenameThreshold is the minimum content similarity for a
// Deleted/Added pair to be coalesced into a Moved or Copied change.
const DefaultRenameThreshold = 0.5

// ChangeKind classifies a single entry of a Diff.
type ChangeKind int

const (
	// Added is a path present only in the new tree.
	Added ChangeKind = iota

	// Deleted is a path present only in the old tree.
	Deleted

	// Modified is a path whose content differs between the trees.
	Modified

	// Moved is a Deleted/Added pair coalesced by rename detection.
	Moved

	// Copied is an Added whose content came from a path that persists
	// elsewhere.
	Copied
)

// String returns a human-readable string representation of the ChangeKind.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Modified:
		return "modified"
	case Moved:
		return "moved"
	case Copied:
		return "copied"
	default:
		return "unknown"
	}
}

// Change is one entry of a Diff.
type Change struct {
	// Kind classifies the change.
	Kind ChangeKind

	// Path is the changed path. For Moved and Copied it is the
	// destination; for Deleted it is the removed path.
	Path string

	// OldPath is the source path of a Moved or Copied change; empty
	// otherwise.
	OldPath string

	// OldID is the pre-change object identifier; zero for Added.
	OldID plumbing.Hash

	// NewID is the post-change object identifier; zero for Deleted.
	NewID plumbing.Hash

	// Binary marks a modification whose content is not text; such
	// changes carry no hunks.
	Binary bool

	// Hunks holds the line-level changes of a text modification.
	Hunks []Hunk

	// Similarity is the content similarity score of a Moved or Copied
	// change, in [0,1]; 1 means identical content.
	Similarity float64

	// entryKind remembers what kind of tree entry produced the change,
	// so rename detection can restrict itself to blobs.
	entryKind EntryKind
}

// Diff is the ordered list of changes between two trees. Order follows the
// merge-walk of the trees in git tree order.
type Diff struct {
	Changes []Change
}

// IsEmpty reports whether the diff contains no changes.
func (d *Diff) IsEmpty() bool {
	return len(d.Changes) == 0
}

// DiffStats summarizes a diff.
type DiffStats struct {
	// FilesChanged is the number of changes in the diff.
	FilesChanged int

	// Insertions is the total number of added lines across text hunks.
	Insertions int

	// Deletions is the total number of removed lines across text hunks.
	Deletions int
}

// Stats computes summary counts over the diff's hunks.
func (d *Diff) Stats() DiffStats {
	stats := DiffStats{FilesChanged: len(d.Changes)}
	for _, change := range d.Changes {
		for _, hunk := range change.Hunks {
			for _, line := range hunk.Lines {
				switch line.Op {
				case LineAdded:
					stats.Insertions++
				case LineDeleted:
					stats.Deletions++
				}
			}
		}
	}
	return stats
}

// ChangeFilter is a predicate for filtering changes in diffs.
// It returns true if the change should be included in the diff output.
// Filters are applied progressively - if any filter returns false, the change
// is excluded.
type ChangeFilter func(*Change) bool

// DiffOptions configures diff computation.
type DiffOptions struct {
	// DetectRenames pairs Deleted and Added blobs by content similarity,
	// reporting the winners as Moved.
	DetectRenames bool

	// DetectCopies additionally considers unchanged blobs as copy
	// sources, reporting matches as Copied. Implies rename scoring.
	DetectCopies bool

	// RenameThreshold is the minimum similarity score for coalescing,
	// in (0,1]. Defaults to DefaultRenameThreshold.
	RenameThreshold float64

	// ContextLines is the number of context lines around text hunks.
	// Defaults to 3.
	ContextLines int
}

func (o *DiffOptions) applyDefaults() {
	if o.RenameThreshold <= 0 || o.RenameThreshold > 1 {
		o.RenameThreshold = DefaultRenameThreshold
	}
	if o.ContextLines <= 0 {
		o.ContextLines = 3
	}
}

// Diff computes the changes between the snapshots of two revisions, oldest
// first: a is the base, b the target. Filters are applied progressively - a
// change must pass ALL filters to be included.
func (r *Repo) Diff(ctx context.Context, a, b string, filters ...ChangeFilter) (*Diff, error) {
	return r.DiffWithOptions(ctx, a, b, DiffOptions{}, filters...)
}

// DiffWithOptions computes the changes between the snapshots of two
// revisions with explicit diff options.
func (r *Repo) DiffWithOptions(
	ctx context.Context,
	a, b string,
	opts DiffOptions,
	filters ...ChangeFilter,
) (*Diff, error) {
	oldCommit, err := r.PeelToCommit(ctx, a)
	if err != nil {
		return nil, WrapErrorf(err, "failed to resolve revision %q", a)
	}
	newCommit, err := r.PeelToCommit(ctx, b)
	if err != nil {
		return nil, WrapErrorf(err, "failed to resolve revision %q", b)
	}

	diff, err := r.DiffTrees(ctx, oldCommit.TreeID, newCommit.TreeID, opts)
	if err != nil {
		return nil, err
	}
	diff.Changes = applyChangeFilters(diff.Changes, filters)
	return diff, nil
}

// InitialDiff computes the diff a parentless commit introduces: its tree
// against the empty tree.
func (r *Repo) InitialDiff(ctx context.Context, rev string) (*Diff, error) {
	commit, err := r.PeelToCommit(ctx, rev)
	if err != nil {
		return nil, err
	}
	return r.DiffTrees(ctx, plumbing.ZeroHash, commit.TreeID, DiffOptions{})
}

// DiffFromParent computes the diff a commit introduces relative to its first
// parent, falling back to InitialDiff for root commits.
func (r *Repo) DiffFromParent(ctx context.Context, rev string) (*Diff, error) {
	commit, err := r.PeelToCommit(ctx, rev)
	if err != nil {
		return nil, err
	}
	if len(commit.Parents) == 0 {
		return r.DiffTrees(ctx, plumbing.ZeroHash, commit.TreeID, DiffOptions{})
	}
	parent, err := r.store.Commit(commit.Parents[0])
	if err != nil {
		return nil, err
	}
	return r.DiffTrees(ctx, parent.TreeID, commit.TreeID, DiffOptions{})
}

// DiffTrees computes the changes between two trees identified by hash. The
// zero hash stands for the empty tree, so a whole tree can be diffed against
// nothing.
func (r *Repo) DiffTrees(ctx context.Context, oldID, newID plumbing.Hash, opts DiffOptions) (*Diff, error) {
	opts.applyDefaults()

	d := &differ{store: r.store, opts: opts}
	if err := d.walk(ctx, "", oldID, newID); err != nil {
		return nil, err
	}
	if opts.DetectRenames || opts.DetectCopies {
		if err := d.detectRenames(); err != nil {
			return nil, err
		}
	}
	return &Diff{Changes: d.changes}, nil
}

// pathBlob is an unchanged blob recorded during the walk, kept as a copy
// source candidate.
type pathBlob struct {
	path string
	id   plumbing.Hash
}

// differ carries the state of one structural diff computation.
type differ struct {
	store     ObjectStore
	opts      DiffOptions
	changes   []Change
	unchanged []pathBlob
}

// walk merge-walks two trees in git tree order, recording changes. Either
// side may be the zero hash, which stands for the empty tree.
func (d *differ) walk(ctx context.Context, prefix string, oldID, newID plumbing.Hash) error {
	if oldID == newID {
		// Identical tree hashes imply identical contents transitively.
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	oldEntries, err := d.treeEntries(oldID)
	if err != nil {
		return err
	}
	newEntries, err := d.treeEntries(newID)
	if err != nil {
		return err
	}

	i, j := 0, 0
	for i < len(oldEntries) || j < len(newEntries) {
		switch {
		case j >= len(newEntries):
			if err := d.deleteEntry(ctx, prefix, oldEntries[i]); err != nil {
				return err
			}
			i++
		case i >= len(oldEntries):
			if err := d.addEntry(ctx, prefix, newEntries[j]); err != nil {
				return err
			}
			j++
		default:
			oldKey := treeEntrySortKey(oldEntries[i])
			newKey := treeEntrySortKey(newEntries[j])
			switch {
			case oldKey < newKey:
				if err := d.deleteEntry(ctx, prefix, oldEntries[i]); err != nil {
					return err
				}
				i++
			case oldKey > newKey:
				if err := d.addEntry(ctx, prefix, newEntries[j]); err != nil {
					return err
				}
				j++
			default:
				if err := d.matchEntry(ctx, prefix, oldEntries[i], newEntries[j]); err != nil {
					return err
				}
				i++
				j++
			}
		}
	}
	return nil
}

// matchEntry handles a name present in both trees. Kind flips (blob vs tree
// vs submodule) are modeled as Deleted plus Added, never Modified; they only
// reach here for blob/submodule flips, since tree keys carry the trailing
// separator.
func (d *differ) matchEntry(ctx context.Context, prefix string, oldEntry, newEntry TreeEntry) error {
	path := joinPath(prefix, oldEntry.Name)

	if oldEntry.Kind != newEntry.Kind {
		if err := d.deleteEntry(ctx, prefix, oldEntry); err != nil {
			return err
		}
		return d.addEntry(ctx, prefix, newEntry)
	}

	if oldEntry.ID == newEntry.ID {
		if d.opts.DetectCopies && oldEntry.Kind == KindBlob {
			d.unchanged = append(d.unchanged, pathBlob{path: path, id: oldEntry.ID})
		}
		return nil
	}

	switch oldEntry.Kind {
	case KindTree:
		return d.walk(ctx, path, oldEntry.ID, newEntry.ID)
	case KindSubmodule:
		d.changes = append(d.changes, Change{
			Kind:      Modified,
			Path:      path,
			OldID:     oldEntry.ID,
			NewID:     newEntry.ID,
			entryKind: KindSubmodule,
		})
		return nil
	default:
		change, err := d.blobModification(path, oldEntry.ID, newEntry.ID)
		if err != nil {
			return err
		}
		d.changes = append(d.changes, change)
		return nil
	}
}

// deleteEntry records the removal of an entry, expanding removed subtrees
// into per-file deletions.
func (d *differ) deleteEntry(ctx context.Context, prefix string, e TreeEntry) error {
	path := joinPath(prefix, e.Name)
	if e.Kind == KindTree {
		return d.walk(ctx, path, e.ID, plumbing.ZeroHash)
	}
	d.changes = append(d.changes, Change{
		Kind:      Deleted,
		Path:      path,
		OldID:     e.ID,
		entryKind: e.Kind,
	})
	return nil
}

// addEntry records the addition of an entry, expanding added subtrees into
// per-file additions.
func (d *differ) addEntry(ctx context.Context, prefix string, e TreeEntry) error {
	path := joinPath(prefix, e.Name)
	if e.Kind == KindTree {
		return d.walk(ctx, path, plumbing.ZeroHash, e.ID)
	}
	d.changes = append(d.changes, Change{
		Kind:      Added,
		Path:      path,
		NewID:     e.ID,
		entryKind: e.Kind,
	})
	return nil
}

// blobModification builds the Modified change for a blob whose content
// changed, computing text hunks unless either side is binary.
func (d *differ) blobModification(path string, oldID, newID plumbing.Hash) (Change, error) {
	oldData, err := d.fetchBlob(oldID, path)
	if err != nil {
		return Change{}, err
	}
	newData, err := d.fetchBlob(newID, path)
	if err != nil {
		return Change{}, err
	}

	change := Change{
		Kind:      Modified,
		Path:      path,
		OldID:     oldID,
		NewID:     newID,
		entryKind: KindBlob,
	}
	if enry.IsBinary(oldData) || enry.IsBinary(newData) {
		change.Binary = true
		return change, nil
	}
	change.Hunks = computeHunks(oldData, newData, d.opts.ContextLines)
	return change, nil
}

// treeEntries loads the entries of a tree, with the zero hash standing for
// the empty tree. Trees reached here are referenced by a commit or a parent
// tree, so a miss is a store failure.
func (d *differ) treeEntries(id plumbing.Hash) ([]TreeEntry, error) {
	if id == plumbing.ZeroHash {
		return nil, nil
	}
	tree, err := d.store.Tree(id)
	if err != nil {
		if isNotFound(err) {
			return nil, WrapErrorf(ErrBackend, "tree %s referenced but missing", id)
		}
		return nil, err
	}
	return tree.Entries, nil
}

func (d *differ) fetchBlob(id plumbing.Hash, path string) ([]byte, error) {
	data, err := d.store.Blob(id)
	if err != nil {
		return nil, referencedObjectErr(err, "blob", id, path)
	}
	return data, nil
}

// applyChangeFilters applies all filters to changes and returns the filtered
// results.
func applyChangeFilters(changes []Change, filters []ChangeFilter) []Change {
	if len(filters) == 0 {
		return changes
	}
	var filtered []Change
	for i := range changes {
		if shouldIncludeChange(&changes[i], filters) {
			filtered = append(filtered, changes[i])
		}
	}
	return filtered
}

// shouldIncludeChange checks if a change passes all filters.
func shouldIncludeChange(change *Change, filters []ChangeFilter) bool {
	for _, filter := range filters {
		if filter != nil && !filter(change) {
			return false
		}
	}
	return true
}
