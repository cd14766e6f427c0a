// Package browse provides a read-only view over git repositories.
// This file contains the snapshot view: lazy Directory/File trees
// materialized from a commit's root tree.
package browse

import (
	"context"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// Entry is a single named member of a Directory: a *File, a nested
// *Directory, or a *Submodule.
type Entry interface {
	// Name is the entry name within its parent directory.
	Name() string

	// Path is the full path of the entry relative to the snapshot root.
	Path() string

	// ID is the object identifier backing the entry.
	ID() plumbing.Hash

	// Kind classifies the entry.
	Kind() EntryKind
}

// File is a blob entry in a snapshot. The representation is lightweight: it
// holds the blob identifier and fetches content only on demand.
type File struct {
	name   string
	prefix string
	id     plumbing.Hash
	mode   filemode.FileMode
	store  ObjectStore
}

// Name returns the file name.
func (f *File) Name() string { return f.name }

// Path returns the file path relative to the snapshot root.
func (f *File) Path() string { return joinPath(f.prefix, f.name) }

// ID returns the identifier of the blob holding the file content.
func (f *File) ID() plumbing.Hash { return f.id }

// Kind returns KindBlob.
func (f *File) Kind() EntryKind { return KindBlob }

// Executable reports whether the file carries the executable mode bit.
func (f *File) Executable() bool { return f.mode == filemode.Executable }

// Content fetches the raw file content from the store.
func (f *File) Content(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := f.store.Blob(f.id)
	if err != nil {
		return nil, referencedObjectErr(err, "blob", f.id, f.Path())
	}
	return data, nil
}

// Size returns the file size in bytes without loading the content.
func (f *File) Size(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size, err := f.store.BlobSize(f.id)
	if err != nil {
		return 0, referencedObjectErr(err, "blob", f.id, f.Path())
	}
	return size, nil
}

// Submodule is a gitlink entry: a pointer to a commit in another repository.
// The commit does not exist in this repository's store.
type Submodule struct {
	name   string
	prefix string
	id     plumbing.Hash
}

// Name returns the submodule name.
func (s *Submodule) Name() string { return s.name }

// Path returns the submodule path relative to the snapshot root.
func (s *Submodule) Path() string { return joinPath(s.prefix, s.name) }

// ID returns the commit identifier the submodule pins.
func (s *Submodule) ID() plumbing.Hash { return s.id }

// Kind returns KindSubmodule.
func (s *Submodule) Kind() EntryKind { return KindSubmodule }

// Directory is a lazily expanded view of one git tree. Listing a Directory
// fetches only that level's entries; nested directories are handles that
// fetch their own tree when traversed, which bounds memory on large
// repositories.
type Directory struct {
	name   string
	prefix string
	id     plumbing.Hash
	store  ObjectStore
}

// Name returns the directory name; the snapshot root has an empty name.
func (d *Directory) Name() string { return d.name }

// Path returns the directory path relative to the snapshot root.
func (d *Directory) Path() string { return joinPath(d.prefix, d.name) }

// ID returns the identifier of the tree backing this directory.
func (d *Directory) ID() plumbing.Hash { return d.id }

// Kind returns KindTree.
func (d *Directory) Kind() EntryKind { return KindTree }

// Snapshot materializes the root directory of the tree the revision's commit
// points at. Expansion is lazy; only the directories the caller lists are
// fetched.
func (r *Repo) Snapshot(ctx context.Context, rev string) (*Directory, error) {
	commit, err := r.PeelToCommit(ctx, rev)
	if err != nil {
		return nil, err
	}
	return r.SnapshotCommit(commit), nil
}

// SnapshotCommit materializes the root directory for an already-loaded
// commit.
func (r *Repo) SnapshotCommit(commit *Commit) *Directory {
	return &Directory{id: commit.TreeID, store: r.store}
}

// Entries lists the directory's entries in git tree order.
func (d *Directory) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := d.fetchTree()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(tree.Entries))
	prefix := d.Path()
	for _, e := range tree.Entries {
		entries = append(entries, d.newEntry(prefix, e))
	}
	return entries, nil
}

// Find descends the snapshot label by label and returns the entry at path.
// The empty path names the directory itself. It fails with ErrPathNotFound
// when any label is absent; a tree object that is referenced but missing from
// the store surfaces as ErrBackend instead.
func (d *Directory) Find(ctx context.Context, path string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaned := strings.Trim(path, "/")
	if cleaned == "" {
		return d, nil
	}

	labels := strings.Split(cleaned, "/")
	current := d
	for i, label := range labels {
		if label == "" {
			return nil, WrapErrorf(ErrPathNotFound, "path %q has an empty label", path)
		}

		tree, err := current.fetchTree()
		if err != nil {
			return nil, err
		}

		entry, ok := tree.Entry(label)
		if !ok {
			return nil, WrapErrorf(ErrPathNotFound, "path %q", path)
		}

		if i == len(labels)-1 {
			return current.newEntry(current.Path(), entry), nil
		}

		if entry.Kind != KindTree {
			return nil, WrapErrorf(ErrPathNotFound, "path %q descends into a %s", path, entry.Kind)
		}
		current = &Directory{name: entry.Name, prefix: current.Path(), id: entry.ID, store: current.store}
	}

	return nil, WrapErrorf(ErrPathNotFound, "path %q", path)
}

// FindFile returns the file at path, failing with ErrPathNotFound when the
// entry exists but is not a file.
func (d *Directory) FindFile(ctx context.Context, path string) (*File, error) {
	entry, err := d.Find(ctx, path)
	if err != nil {
		return nil, err
	}
	file, ok := entry.(*File)
	if !ok {
		return nil, WrapErrorf(ErrPathNotFound, "path %q is a %s, not a file", path, entry.Kind())
	}
	return file, nil
}

// FindDirectory returns the directory at path, failing with ErrPathNotFound
// when the entry exists but is not a directory.
func (d *Directory) FindDirectory(ctx context.Context, path string) (*Directory, error) {
	entry, err := d.Find(ctx, path)
	if err != nil {
		return nil, err
	}
	dir, ok := entry.(*Directory)
	if !ok {
		return nil, WrapErrorf(ErrPathNotFound, "path %q is a %s, not a directory", path, entry.Kind())
	}
	return dir, nil
}

// Traverse walks the directory depth-first in git tree order, calling fn for
// every entry. Directories are visited before their contents.
func (d *Directory) Traverse(ctx context.Context, fn func(Entry) error) error {
	entries, err := d.Entries(ctx)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := fn(entry); err != nil {
			return err
		}
		if sub, ok := entry.(*Directory); ok {
			if err := sub.Traverse(ctx, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Size returns the total size in bytes of all files reachable from this
// directory.
func (d *Directory) Size(ctx context.Context) (int64, error) {
	var total int64
	err := d.Traverse(ctx, func(entry Entry) error {
		file, ok := entry.(*File)
		if !ok {
			return nil
		}
		size, err := file.Size(ctx)
		if err != nil {
			return err
		}
		total += size
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// fetchTree loads the tree backing this directory. The directory handle was
// built from a live reference, so a miss here means the store lost an object.
func (d *Directory) fetchTree() (*Tree, error) {
	tree, err := d.store.Tree(d.id)
	if err != nil {
		return nil, referencedObjectErr(err, "tree", d.id, d.Path())
	}
	return tree, nil
}

// newEntry builds the public Entry for a raw tree entry under prefix.
func (d *Directory) newEntry(prefix string, e TreeEntry) Entry {
	switch e.Kind {
	case KindTree:
		return &Directory{name: e.Name, prefix: prefix, id: e.ID, store: d.store}
	case KindSubmodule:
		return &Submodule{name: e.Name, prefix: prefix, id: e.ID}
	default:
		return &File{name: e.Name, prefix: prefix, id: e.ID, mode: e.Mode, store: d.store}
	}
}

// referencedObjectErr reclassifies a miss on an object we hold a live
// reference to: that is store corruption, not a logical ErrNotFound.
func referencedObjectErr(err error, kind string, id plumbing.Hash, path string) error {
	if isNotFound(err) {
		return WrapErrorf(ErrBackend, "%s %s for %q referenced but missing", kind, id, path)
	}
	return err
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "/" + name
}

// treeEntrySortKey returns the byte string git compares tree entries by:
// the raw name, with directories compared as if they carried a trailing
// separator.
func treeEntrySortKey(e TreeEntry) string {
	if e.Kind == KindTree {
		return e.Name + "/"
	}
	return e.Name
}

// sortTreeEntries orders entries by git's tree ordering rule. The rule must
// hold byte-for-byte: a file named like the prefix of a directory can sort
// differently than plain lexical order suggests.
func sortTreeEntries(entries []TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return treeEntrySortKey(entries[i]) < treeEntrySortKey(entries[j])
	})
}
