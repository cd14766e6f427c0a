// Package browse provides a read-only view over git repositories.
// This file contains history traversal: the lazy, deduplicated sequence of
// commits reachable from a head, optionally filtered by path.
package browse

import (
	"bytes"
	"container/heap"
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// History is a restartable descriptor of the commits reachable from a head.
// It holds no live traversal state: every call to Commits starts an
// independent walk, so a History can be stored and reused freely.
type History struct {
	store ObjectStore
	head  *Commit
	path  string
}

// History returns the history descriptor whose head is the commit rev
// resolves to.
func (r *Repo) History(ctx context.Context, rev string) (*History, error) {
	head, err := r.PeelToCommit(ctx, rev)
	if err != nil {
		return nil, err
	}
	return &History{store: r.store, head: head}, nil
}

// Head returns the first commit of the history. A path-filtered history may
// be empty even though Head still returns the original head.
func (h *History) Head() *Commit {
	return h.head
}

// ByPath returns a copy of the history that only emits commits changing the
// tree entry at path relative to every parent. Commits that do not touch the
// path are skipped but the walk still continues through their parents.
func (h *History) ByPath(path string) *History {
	return &History{store: h.store, head: h.head, path: strings.Trim(path, "/")}
}

// Commits starts a fresh traversal. Commits are produced most-recent-first by
// committer timestamp (ties broken by hash for determinism), and each commit
// is emitted at most once even when merge parents share ancestors.
func (h *History) Commits() *CommitIter {
	iter := &CommitIter{
		store: h.store,
		path:  h.path,
		seen:  make(map[plumbing.Hash]struct{}),
		trees: map[plumbing.Hash]plumbing.Hash{h.head.ID: h.head.TreeID},
	}
	if h.path != "" {
		iter.pathEntry = make(map[plumbing.Hash]plumbing.Hash)
	}
	iter.seen[h.head.ID] = struct{}{}
	heap.Push(&iter.queue, h.head)
	return iter
}

// CommitIter walks a commit graph most-recent-first. The queue and seen-set
// are local to the iterator and discarded with it; dropping an iterator
// mid-walk releases everything.
type CommitIter struct {
	store ObjectStore
	path  string

	queue commitQueue
	seen  map[plumbing.Hash]struct{}

	// trees records the root tree of every commit fetched so far, so the
	// path filter can compare a commit against already-seen parents
	// without refetching them.
	trees     map[plumbing.Hash]plumbing.Hash
	pathEntry map[plumbing.Hash]plumbing.Hash
}

// Next returns the next commit in the traversal, or (nil, nil) once the
// reachable graph is exhausted.
func (it *CommitIter) Next() (*Commit, error) {
	for it.queue.Len() > 0 {
		commit := heap.Pop(&it.queue).(*Commit)

		// Parents are enqueued even when the popped commit is filtered
		// out, so the walk continues past non-matching commits.
		for _, parentID := range commit.Parents {
			if _, ok := it.seen[parentID]; ok {
				continue
			}
			it.seen[parentID] = struct{}{}
			parent, err := it.store.Commit(parentID)
			if err != nil {
				if isNotFound(err) {
					return nil, WrapErrorf(ErrBackend, "parent commit %s referenced but missing", parentID)
				}
				return nil, err
			}
			it.trees[parent.ID] = parent.TreeID
			heap.Push(&it.queue, parent)
		}

		if it.path == "" {
			return commit, nil
		}
		touches, err := it.commitTouchesPath(commit)
		if err != nil {
			return nil, err
		}
		if touches {
			return commit, nil
		}
	}
	return nil, nil
}

// ForEach executes fn for every remaining commit in the traversal.
// Iteration stops at the first error, which is returned.
func (it *CommitIter) ForEach(fn func(*Commit) error) error {
	for {
		commit, err := it.Next()
		if err != nil {
			return err
		}
		if commit == nil {
			return nil
		}
		if err := fn(commit); err != nil {
			return err
		}
	}
}

// Close releases the iterator's queue and memoization state. A closed
// iterator behaves as exhausted; start over with History.Commits.
func (it *CommitIter) Close() {
	it.queue = nil
	it.seen = nil
	it.trees = nil
	it.pathEntry = nil
}

// commitTouchesPath reports whether the tree entry at the filter path differs
// between the commit and every one of its parents. Root commits count as
// touching the path when the entry exists at all.
func (it *CommitIter) commitTouchesPath(commit *Commit) (bool, error) {
	entryID, err := it.entryIDAt(commit.ID)
	if err != nil {
		return false, err
	}

	if len(commit.Parents) == 0 {
		return entryID != plumbing.ZeroHash, nil
	}

	for _, parentID := range commit.Parents {
		parentEntryID, err := it.entryIDAt(parentID)
		if err != nil {
			return false, err
		}
		if parentEntryID == entryID {
			return false, nil
		}
	}
	return true, nil
}

// entryIDAt resolves the tree entry hash at the filter path for a fetched
// commit. The zero hash stands for "absent". Results are memoized per
// commit.
func (it *CommitIter) entryIDAt(commitID plumbing.Hash) (plumbing.Hash, error) {
	if id, ok := it.pathEntry[commitID]; ok {
		return id, nil
	}

	labels := strings.Split(it.path, "/")
	currentTree := it.trees[commitID]
	entryID := plumbing.ZeroHash
	for i, label := range labels {
		tree, err := it.store.Tree(currentTree)
		if err != nil {
			if isNotFound(err) {
				return plumbing.ZeroHash, WrapErrorf(ErrBackend, "tree %s referenced but missing", currentTree)
			}
			return plumbing.ZeroHash, err
		}
		entry, ok := tree.Entry(label)
		if !ok {
			entryID = plumbing.ZeroHash
			break
		}
		if i == len(labels)-1 {
			entryID = entry.ID
			break
		}
		if entry.Kind != KindTree {
			entryID = plumbing.ZeroHash
			break
		}
		currentTree = entry.ID
	}

	it.pathEntry[commitID] = entryID
	return entryID, nil
}

// LastCommit returns the most recent commit in rev's history that changed
// path, or nil when no commit touches it.
func (r *Repo) LastCommit(ctx context.Context, rev, path string) (*Commit, error) {
	history, err := r.History(ctx, rev)
	if err != nil {
		return nil, err
	}
	return history.ByPath(path).Commits().Next()
}

// commitQueue is a priority queue ordered by committer timestamp, most
// recent first, with the hash as a deterministic tie-break.
type commitQueue []*Commit

func (q commitQueue) Len() int { return len(q) }

func (q commitQueue) Less(i, j int) bool {
	ti, tj := q[i].Committer.When, q[j].Committer.When
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return bytes.Compare(q[i].ID[:], q[j].ID[:]) < 0
}

func (q commitQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *commitQueue) Push(x any) { *q = append(*q, x.(*Commit)) }

func (q *commitQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
