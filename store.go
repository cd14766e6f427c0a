// Package browse provides a read-only view over git repositories.
// This file contains the object model and the store adapter that retrieves
// commits, trees, blobs, tags, and references from go-git storage.
package browse

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature identifies the author or committer of a commit, or the tagger of
// an annotated tag.
type Signature struct {
	// Name is the author's or committer's name.
	Name string

	// Email is the author's or committer's email address.
	Email string

	// When is the timestamp for the signature.
	When time.Time
}

// Commit is an immutable snapshot record: a root tree, the parent commits,
// and the usual metadata. Root commits have no parents.
type Commit struct {
	// ID is the object identifier of the commit.
	ID plumbing.Hash

	// Author is the person who wrote the change.
	Author Signature

	// Committer is the person who recorded the change.
	Committer Signature

	// Message is the full commit message.
	Message string

	// Parents are the identifiers of the parent commits, in recorded order.
	Parents []plumbing.Hash

	// TreeID is the identifier of the root tree of this commit.
	TreeID plumbing.Hash
}

// Summary returns the first line of the commit message.
func (c *Commit) Summary() string {
	if i := strings.IndexByte(c.Message, '\n'); i >= 0 {
		return strings.TrimRight(c.Message[:i], "\r")
	}
	return c.Message
}

// EntryKind classifies a tree entry.
type EntryKind int

const (
	// KindBlob is a file entry.
	KindBlob EntryKind = iota

	// KindTree is a sub-directory entry.
	KindTree

	// KindSubmodule is a gitlink entry pointing at a commit in another
	// repository.
	KindSubmodule
)

// String returns a human-readable string representation of the EntryKind.
func (k EntryKind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	case KindSubmodule:
		return "submodule"
	default:
		return "unknown"
	}
}

// TreeEntry is a single named entry of a Tree.
type TreeEntry struct {
	// Name is the entry name, unique within its tree.
	Name string

	// ID is the identifier of the blob, subtree, or submodule commit.
	ID plumbing.Hash

	// Kind classifies the entry.
	Kind EntryKind

	// Mode is the raw git file mode of the entry.
	Mode filemode.FileMode
}

// Tree is one directory level of a snapshot: an ordered list of named
// entries. Entries follow git's tree ordering, where a directory name
// compares as if it carried a trailing slash.
type Tree struct {
	// ID is the object identifier of the tree.
	ID plumbing.Hash

	// Entries are the tree's entries in git tree order.
	Entries []TreeEntry
}

// Entry returns the entry with the given name, if present.
func (t *Tree) Entry(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// Tag is an annotated tag object.
type Tag struct {
	// ID is the object identifier of the tag object itself.
	ID plumbing.Hash

	// Name is the tag name, without the refs/tags/ prefix.
	Name string

	// Target is the identifier of the tagged object.
	Target plumbing.Hash

	// TargetType is the object type of the tagged object.
	TargetType plumbing.ObjectType

	// Tagger identifies who created the tag.
	Tagger Signature

	// Message is the tag annotation message.
	Message string
}

// Ref is a named reference resolved to its target hash.
type Ref struct {
	// Name is the canonical reference name, e.g. "refs/heads/main".
	Name string

	// Target is the hash the reference points at.
	Target plumbing.Hash
}

// ObjectStore is the content-addressed retrieval surface the browsing engine
// is built on. Objects are immutable: the content for a given hash never
// changes, so independent reads need no coordination.
//
// A miss is reported as ErrNotFound; a request for the wrong object kind as
// ErrNotCommit/ErrNotTree/ErrNotBlob; anything else as ErrBackend.
type ObjectStore interface {
	// Commit retrieves a commit object.
	Commit(id plumbing.Hash) (*Commit, error)

	// Tree retrieves a tree object with its entries in git tree order.
	Tree(id plumbing.Hash) (*Tree, error)

	// Blob retrieves the raw content of a blob object.
	Blob(id plumbing.Hash) ([]byte, error)

	// BlobSize returns the size in bytes of a blob without loading it.
	BlobSize(id plumbing.Hash) (int64, error)

	// Tag retrieves an annotated tag object.
	Tag(id plumbing.Hash) (*Tag, error)

	// ObjectType reports the type of the object with the given id.
	ObjectType(id plumbing.Hash) (plumbing.ObjectType, error)

	// ResolveRef resolves a full reference name (or HEAD) to a hash,
	// following symbolic references.
	ResolveRef(name string) (plumbing.Hash, error)

	// Refs lists all hash references in the repository.
	Refs() ([]Ref, error)

	// HashesWithPrefix returns the hashes of all objects whose hex form
	// starts with the given prefix.
	HashesWithPrefix(prefix string) ([]plumbing.Hash, error)
}

// gitStore adapts a go-git repository to the ObjectStore interface.
type gitStore struct {
	repo *git.Repository
}

func newGitStore(repo *git.Repository) *gitStore {
	return &gitStore{repo: repo}
}

// encoded fetches the raw encoded object for id, mapping a miss to
// ErrNotFound and any other storage failure to ErrBackend.
func (s *gitStore) encoded(id plumbing.Hash) (plumbing.EncodedObject, error) {
	obj, err := s.repo.Storer.EncodedObject(plumbing.AnyObject, id)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, WrapErrorf(ErrNotFound, "object %s", id)
		}
		return nil, backendError(err, "read object "+id.String())
	}
	return obj, nil
}

func (s *gitStore) Commit(id plumbing.Hash) (*Commit, error) {
	obj, err := s.encoded(id)
	if err != nil {
		return nil, err
	}
	if obj.Type() != plumbing.CommitObject {
		return nil, WrapErrorf(ErrNotCommit, "object %s is a %s", id, obj.Type())
	}
	commit, err := object.DecodeCommit(s.repo.Storer, obj)
	if err != nil {
		return nil, backendError(err, "decode commit "+id.String())
	}
	return convertCommit(commit), nil
}

func (s *gitStore) Tree(id plumbing.Hash) (*Tree, error) {
	obj, err := s.encoded(id)
	if err != nil {
		return nil, err
	}
	if obj.Type() != plumbing.TreeObject {
		return nil, WrapErrorf(ErrNotTree, "object %s is a %s", id, obj.Type())
	}
	tree, err := object.DecodeTree(s.repo.Storer, obj)
	if err != nil {
		return nil, backendError(err, "decode tree "+id.String())
	}
	return convertTree(tree), nil
}

func (s *gitStore) Blob(id plumbing.Hash) ([]byte, error) {
	obj, err := s.encoded(id)
	if err != nil {
		return nil, err
	}
	if obj.Type() != plumbing.BlobObject {
		return nil, WrapErrorf(ErrNotBlob, "object %s is a %s", id, obj.Type())
	}
	blob, err := object.DecodeBlob(obj)
	if err != nil {
		return nil, backendError(err, "decode blob "+id.String())
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, backendError(err, "open blob "+id.String())
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, backendError(err, "read blob "+id.String())
	}
	return data, nil
}

func (s *gitStore) BlobSize(id plumbing.Hash) (int64, error) {
	obj, err := s.encoded(id)
	if err != nil {
		return 0, err
	}
	if obj.Type() != plumbing.BlobObject {
		return 0, WrapErrorf(ErrNotBlob, "object %s is a %s", id, obj.Type())
	}
	return obj.Size(), nil
}

func (s *gitStore) Tag(id plumbing.Hash) (*Tag, error) {
	obj, err := s.encoded(id)
	if err != nil {
		return nil, err
	}
	if obj.Type() != plumbing.TagObject {
		return nil, WrapErrorf(ErrNotFound, "object %s is a %s, not a tag", id, obj.Type())
	}
	tag, err := object.DecodeTag(s.repo.Storer, obj)
	if err != nil {
		return nil, backendError(err, "decode tag "+id.String())
	}
	return &Tag{
		ID:         tag.Hash,
		Name:       tag.Name,
		Target:     tag.Target,
		TargetType: tag.TargetType,
		Tagger:     convertSignature(tag.Tagger),
		Message:    tag.Message,
	}, nil
}

func (s *gitStore) ObjectType(id plumbing.Hash) (plumbing.ObjectType, error) {
	obj, err := s.encoded(id)
	if err != nil {
		return plumbing.InvalidObject, err
	}
	return obj.Type(), nil
}

func (s *gitStore) ResolveRef(name string) (plumbing.Hash, error) {
	ref, err := s.repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, WrapErrorf(ErrNotFound, "reference %q", name)
		}
		return plumbing.ZeroHash, backendError(err, "resolve reference "+name)
	}
	return ref.Hash(), nil
}

func (s *gitStore) Refs() ([]Ref, error) {
	iter, err := s.repo.References()
	if err != nil {
		return nil, backendError(err, "list references")
	}
	defer iter.Close()

	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		refs = append(refs, Ref{Name: ref.Name().String(), Target: ref.Hash()})
		return nil
	})
	if err != nil {
		return nil, backendError(err, "iterate references")
	}
	return refs, nil
}

func (s *gitStore) HashesWithPrefix(prefix string) ([]plumbing.Hash, error) {
	iter, err := s.repo.Storer.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return nil, backendError(err, "iterate objects")
	}
	defer iter.Close()

	var hashes []plumbing.Hash
	err = iter.ForEach(func(obj plumbing.EncodedObject) error {
		if strings.HasPrefix(obj.Hash().String(), prefix) {
			hashes = append(hashes, obj.Hash())
		}
		return nil
	})
	if err != nil {
		return nil, backendError(err, "iterate objects")
	}
	return hashes, nil
}

func convertSignature(sig object.Signature) Signature {
	return Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
}

func convertCommit(c *object.Commit) *Commit {
	parents := make([]plumbing.Hash, len(c.ParentHashes))
	copy(parents, c.ParentHashes)
	return &Commit{
		ID:        c.Hash,
		Author:    convertSignature(c.Author),
		Committer: convertSignature(c.Committer),
		Message:   c.Message,
		Parents:   parents,
		TreeID:    c.TreeHash,
	}
}

func convertTree(t *object.Tree) *Tree {
	entries := make([]TreeEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		entries = append(entries, TreeEntry{
			Name: e.Name,
			ID:   e.Hash,
			Kind: entryKindForMode(e.Mode),
			Mode: e.Mode,
		})
	}
	sortTreeEntries(entries)
	return &Tree{ID: t.Hash, Entries: entries}
}

func entryKindForMode(mode filemode.FileMode) EntryKind {
	switch mode {
	case filemode.Dir:
		return KindTree
	case filemode.Submodule:
		return KindSubmodule
	default:
		return KindBlob
	}
}
