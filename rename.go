// Package browse provides a read-only view over git repositories.
// This file contains rename and copy detection over a computed diff.
package browse

import (
	"sort"

	"github.com/go-enry/go-enry/v2"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pmezard/go-difflib/difflib"
)

// renameCandidate is one scored source/destination pairing. delIdx indexes
// the Deleted change acting as the source, or is -1 when the source is an
// unchanged blob (copy detection only).
type renameCandidate struct {
	score   float64
	srcPath string
	srcID   plumbing.Hash
	delIdx  int
	addIdx  int
}

// detectRenames pairs Deleted and Added blobs by content similarity and
// rewrites the winners as Moved. With copy detection, unchanged blobs also
// compete as sources; their matches, and any further match of an already
// consumed source, become Copied. Pairing is greedy: best score first, ties
// broken by path edit distance and then lexically, so the result is
// deterministic.
func (d *differ) detectRenames() error {
	var adds, dels []int
	for i := range d.changes {
		if d.changes[i].entryKind != KindBlob {
			continue
		}
		switch d.changes[i].Kind {
		case Added:
			adds = append(adds, i)
		case Deleted:
			dels = append(dels, i)
		}
	}

	sources := make([]pathBlob, 0, len(dels)+len(d.unchanged))
	srcChangeIdx := make([]int, 0, len(dels)+len(d.unchanged))
	for _, i := range dels {
		sources = append(sources, pathBlob{path: d.changes[i].Path, id: d.changes[i].OldID})
		srcChangeIdx = append(srcChangeIdx, i)
	}
	if d.opts.DetectCopies {
		for _, u := range d.unchanged {
			sources = append(sources, u)
			srcChangeIdx = append(srcChangeIdx, -1)
		}
	}
	if len(adds) == 0 || len(sources) == 0 {
		return nil
	}

	cache := newBlobCache(d.store)
	var candidates []renameCandidate
	for s, src := range sources {
		for _, addIdx := range adds {
			add := &d.changes[addIdx]
			if src.path == add.Path {
				// Same-path pairs come from kind flips; they stay
				// Deleted plus Added.
				continue
			}
			score, err := cache.similarity(src.id, add.NewID)
			if err != nil {
				return err
			}
			if score < d.opts.RenameThreshold {
				continue
			}
			candidates = append(candidates, renameCandidate{
				score:   score,
				srcPath: src.path,
				srcID:   src.id,
				delIdx:  srcChangeIdx[s],
				addIdx:  addIdx,
			})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		da := editDistance(a.srcPath, d.changes[a.addIdx].Path)
		db := editDistance(b.srcPath, d.changes[b.addIdx].Path)
		if da != db {
			return da < db
		}
		if a.srcPath != b.srcPath {
			return a.srcPath < b.srcPath
		}
		return d.changes[a.addIdx].Path < d.changes[b.addIdx].Path
	})

	usedAdd := make(map[int]bool)
	usedDel := make(map[int]bool)
	removedDel := make(map[int]bool)
	rewritten := make(map[int]Change)
	for _, c := range candidates {
		if usedAdd[c.addIdx] {
			continue
		}
		kind := Copied
		if c.delIdx >= 0 && !usedDel[c.delIdx] {
			kind = Moved
			usedDel[c.delIdx] = true
			removedDel[c.delIdx] = true
		}
		usedAdd[c.addIdx] = true
		rewritten[c.addIdx] = Change{
			Kind:       kind,
			Path:       d.changes[c.addIdx].Path,
			OldPath:    c.srcPath,
			OldID:      c.srcID,
			NewID:      d.changes[c.addIdx].NewID,
			Similarity: c.score,
			entryKind:  KindBlob,
		}
	}

	result := make([]Change, 0, len(d.changes))
	for i := range d.changes {
		if removedDel[i] {
			continue
		}
		if change, ok := rewritten[i]; ok {
			result = append(result, change)
			continue
		}
		result = append(result, d.changes[i])
	}
	d.changes = result
	return nil
}

// blobCache memoizes blob content, split lines, and binary classification
// across the quadratic candidate scoring pass.
type blobCache struct {
	store  ObjectStore
	lines  map[plumbing.Hash][]string
	binary map[plumbing.Hash]bool
}

func newBlobCache(store ObjectStore) *blobCache {
	return &blobCache{
		store:  store,
		lines:  make(map[plumbing.Hash][]string),
		binary: make(map[plumbing.Hash]bool),
	}
}

// similarity scores two blobs in [0,1]. Identical identifiers score 1 without
// a fetch; binary content never pairs and scores 0; text is scored by
// line-based sequence matching.
func (c *blobCache) similarity(a, b plumbing.Hash) (float64, error) {
	if a == b {
		return 1, nil
	}
	if err := c.load(a); err != nil {
		return 0, err
	}
	if err := c.load(b); err != nil {
		return 0, err
	}
	if c.binary[a] || c.binary[b] {
		return 0, nil
	}
	return difflib.NewMatcher(c.lines[a], c.lines[b]).Ratio(), nil
}

func (c *blobCache) load(id plumbing.Hash) error {
	if _, ok := c.binary[id]; ok {
		return nil
	}
	data, err := c.store.Blob(id)
	if err != nil {
		if isNotFound(err) {
			return WrapErrorf(ErrBackend, "blob %s referenced but missing", id)
		}
		return err
	}
	if enry.IsBinary(data) {
		c.binary[id] = true
		return nil
	}
	c.binary[id] = false
	c.lines[id] = splitLines(data)
	return nil
}

// editDistance is the Levenshtein distance between two paths, used only as a
// tie-break when candidate scores are equal.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
