// Package browse provides a read-only, high-level view of git repositories.
//
// The package treats a repository's commit graph as a versioned, browsable
// file system on top of go-git: given a revision it materializes a lazy
// directory snapshot, enumerates commit history (optionally filtered by
// path), and computes structural and textual diffs between any two
// snapshots. It is intended for tools that build repository browsing UIs or
// automation that needs programmatic access to repository content without
// talking to the object database directly.
//
// # Design Principles
//
// The package follows these core principles:
//   - Minimal surface area - easy to learn and extend
//   - Testability by construction - in-memory FS, controlled side effects
//   - Go idioms - accepts interfaces, returns concrete types
//
// # Basic Usage
//
// Open a repository and take a snapshot:
//
//	repo, err := browse.Open(context.Background(), &browse.Options{
//	    Path: "/path/to/repo",
//	})
//
//	root, err := repo.Snapshot(ctx, "main")
//	entries, err := root.Entries(ctx)
//
//	entry, err := root.Find(ctx, "src/lib.go")
//	if file, ok := entry.(*browse.File); ok {
//	    data, err := file.Content(ctx)
//	    _ = data
//	}
//
// # History
//
// History is a restartable descriptor; every call to Commits starts an
// independent traversal:
//
//	history, err := repo.History(ctx, "main")
//	iter := history.Commits()
//	err = iter.ForEach(func(c *browse.Commit) error {
//	    fmt.Printf("%s %s\n", c.ID, c.Summary())
//	    return nil
//	})
//
//	// Only commits that touched a path:
//	iter = history.ByPath("docs/README.md").Commits()
//
// # Diffs
//
// Diffs are computed between the snapshots of two revisions:
//
//	diff, err := repo.Diff(ctx, "v1.0.0", "main")
//	for _, change := range diff.Changes {
//	    fmt.Println(change.Kind, change.Path)
//	}
//
// Rename and copy detection is opt-in via DiffOptions:
//
//	diff, err = repo.DiffWithOptions(ctx, "v1.0.0", "main", browse.DiffOptions{
//	    DetectRenames: true,
//	})
//
// # Error Handling
//
// The package provides sentinel errors for common conditions:
//
//	_, err := repo.Resolve(ctx, "no-such-branch")
//	if errors.Is(err, browse.ErrNotFound) {
//	    // expected: nothing matched the revision
//	}
//	if errors.Is(err, browse.ErrBackend) {
//	    // store I/O or corruption; not a logical miss
//	}
//
// # Thread Safety
//
// All browsing operations are read-only. Independent reads (Snapshot, History, Diff,
// Resolve) may run concurrently against the same opened Repo; traversal
// state is local to each iterator and discarded when it is dropped.
package browse
