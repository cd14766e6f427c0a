package browse

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"
	"github.com/stretchr/testify/require"
)

// testRepo is a helper struct that contains a test repository built on an
// in-memory filesystem, plus direct access to its object storage for
// constructing precise commit graphs.
type testRepo struct {
	repo *Repo
	ctx  context.Context
}

// setupTestRepo creates a new bare test repository with an in-memory
// filesystem. Objects and references are written directly to the storer, so
// the graph shape, tree contents, and timestamps are fully controlled.
func setupTestRepo(t *testing.T) *testRepo {
	t.Helper()

	ctx := context.Background()
	opts := Options{
		FS:   memfs.New(),
		Bare: true,
	}

	repo, err := Init(ctx, &opts)
	require.NoError(t, err, "failed to initialize test repository")
	require.NotNil(t, repo, "repository should not be nil")

	return &testRepo{repo: repo, ctx: ctx}
}

// setupWorktreeRepo creates a non-bare test repository whose worktree lives
// on an in-memory filesystem, for tests that go through Add and Commit.
func setupWorktreeRepo(t *testing.T) *testRepo {
	t.Helper()

	ctx := context.Background()
	opts := Options{FS: memfs.New()}

	repo, err := Init(ctx, &opts)
	require.NoError(t, err, "failed to initialize test repository")

	return &testRepo{repo: repo, ctx: ctx}
}

func (tr *testRepo) storer() storage.Storer {
	return tr.repo.repo.Storer
}

// writeBlob stores a blob and returns its hash.
func (tr *testRepo) writeBlob(t *testing.T, content string) plumbing.Hash {
	t.Helper()

	obj := tr.storer().NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	require.NoError(t, err, "failed to open blob writer")
	_, err = w.Write([]byte(content))
	require.NoError(t, err, "failed to write blob content")
	require.NoError(t, w.Close(), "failed to close blob writer")

	id, err := tr.storer().SetEncodedObject(obj)
	require.NoError(t, err, "failed to store blob")
	return id
}

// treeEnt is a shorthand tree entry spec for writeTree.
type treeEnt struct {
	name string
	id   plumbing.Hash
	mode filemode.FileMode
}

func blobEnt(name string, id plumbing.Hash) treeEnt {
	return treeEnt{name: name, id: id, mode: filemode.Regular}
}

func execEnt(name string, id plumbing.Hash) treeEnt {
	return treeEnt{name: name, id: id, mode: filemode.Executable}
}

func dirEnt(name string, id plumbing.Hash) treeEnt {
	return treeEnt{name: name, id: id, mode: filemode.Dir}
}

func gitlinkEnt(name string, id plumbing.Hash) treeEnt {
	return treeEnt{name: name, id: id, mode: filemode.Submodule}
}

// writeTree stores a tree built from the given entries and returns its hash.
// Entry order does not matter; the browsing layer re-sorts on read.
func (tr *testRepo) writeTree(t *testing.T, entries ...treeEnt) plumbing.Hash {
	t.Helper()

	tree := &object.Tree{}
	for _, e := range entries {
		tree.Entries = append(tree.Entries, object.TreeEntry{
			Name: e.name,
			Mode: e.mode,
			Hash: e.id,
		})
	}
	// go-git refuses to encode trees whose entries are not in git order.
	sort.Sort(object.TreeEntrySorter(tree.Entries))

	obj := tr.storer().NewEncodedObject()
	require.NoError(t, tree.Encode(obj), "failed to encode tree")
	id, err := tr.storer().SetEncodedObject(obj)
	require.NoError(t, err, "failed to store tree")
	return id
}

// testEpoch anchors the synthetic commit timestamps used by the tests.
var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// writeCommit stores a commit with an explicit committer timestamp, given as
// minutes after testEpoch, and returns its hash.
func (tr *testRepo) writeCommit(
	t *testing.T,
	treeID plumbing.Hash,
	parents []plumbing.Hash,
	msg string,
	minutes int,
) plumbing.Hash {
	t.Helper()
	return tr.writeCommitBy(t, treeID, parents, msg, minutes, "Test Author", "author@example.com")
}

// writeCommitBy is writeCommit with an explicit author identity.
func (tr *testRepo) writeCommitBy(
	t *testing.T,
	treeID plumbing.Hash,
	parents []plumbing.Hash,
	msg string,
	minutes int,
	authorName, authorEmail string,
) plumbing.Hash {
	t.Helper()

	when := testEpoch.Add(time.Duration(minutes) * time.Minute)
	commit := &object.Commit{
		Author:       object.Signature{Name: authorName, Email: authorEmail, When: when},
		Committer:    object.Signature{Name: "Test Committer", Email: "committer@example.com", When: when},
		Message:      msg,
		TreeHash:     treeID,
		ParentHashes: parents,
	}

	obj := tr.storer().NewEncodedObject()
	require.NoError(t, commit.Encode(obj), "failed to encode commit")
	id, err := tr.storer().SetEncodedObject(obj)
	require.NoError(t, err, "failed to store commit")
	return id
}

// writeTag stores an annotated tag object pointing at target.
func (tr *testRepo) writeTag(
	t *testing.T,
	name string,
	target plumbing.Hash,
	targetType plumbing.ObjectType,
	msg string,
) plumbing.Hash {
	t.Helper()

	tag := &object.Tag{
		Name:       name,
		Message:    msg,
		Tagger:     object.Signature{Name: "Test Tagger", Email: "tagger@example.com", When: testEpoch},
		TargetType: targetType,
		Target:     target,
	}

	obj := tr.storer().NewEncodedObject()
	require.NoError(t, tag.Encode(obj), "failed to encode tag")
	id, err := tr.storer().SetEncodedObject(obj)
	require.NoError(t, err, "failed to store tag")
	return id
}

// setRef writes a hash reference.
func (tr *testRepo) setRef(t *testing.T, name string, id plumbing.Hash) {
	t.Helper()

	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), id)
	require.NoError(t, tr.storer().SetReference(ref), "failed to set reference %s", name)
}

// setHead points HEAD at the given branch symbolically.
func (tr *testRepo) setHead(t *testing.T, branch string) {
	t.Helper()

	ref := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.ReferenceName(branch))
	require.NoError(t, tr.storer().SetReference(ref), "failed to set HEAD")
}

// singleFileCommit stores one commit whose tree holds a single file, chained
// onto the given parents.
func (tr *testRepo) singleFileCommit(
	t *testing.T,
	name, content, msg string,
	minutes int,
	parents ...plumbing.Hash,
) plumbing.Hash {
	t.Helper()

	blobID := tr.writeBlob(t, content)
	treeID := tr.writeTree(t, blobEnt(name, blobID))
	return tr.writeCommit(t, treeID, parents, msg, minutes)
}

// linearHistory builds a three-commit chain on refs/heads/main with HEAD
// attached, returning the commit hashes oldest first.
func (tr *testRepo) linearHistory(t *testing.T) []plumbing.Hash {
	t.Helper()

	c1 := tr.singleFileCommit(t, "file.txt", "one\n", "first commit\n", 0)
	c2 := tr.singleFileCommit(t, "file.txt", "two\n", "second commit\n", 1, c1)
	c3 := tr.singleFileCommit(t, "file.txt", "three\n", "third commit\n", 2, c2)
	tr.setRef(t, "refs/heads/main", c3)
	tr.setHead(t, "refs/heads/main")
	return []plumbing.Hash{c1, c2, c3}
}

// findAmbiguousPrefix writes blobs until two object hashes share a four-digit
// hex prefix and returns that prefix.
func (tr *testRepo) findAmbiguousPrefix(t *testing.T) string {
	t.Helper()

	seen := make(map[string]plumbing.Hash)
	for i := 0; i < 2000; i++ {
		id := tr.writeBlob(t, fmt.Sprintf("filler %d\n", i))
		prefix := id.String()[:shortHashMinLen]
		if other, ok := seen[prefix]; ok && other != id {
			return prefix
		}
		seen[prefix] = id
	}
	t.Fatal("no ambiguous prefix found")
	return ""
}

// collectCommits drains an iterator into a slice of commit hashes.
func collectCommits(t *testing.T, iter *CommitIter) []plumbing.Hash {
	t.Helper()

	var out []plumbing.Hash
	err := iter.ForEach(func(c *Commit) error {
		out = append(out, c.ID)
		return nil
	})
	require.NoError(t, err, "iteration failed")
	return out
}
