// Package browse provides a read-only view over git repositories.
// This file contains repository discovery/creation and the Repo facade.
package browse

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/forgekit/browse/internal/gitstorage"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000
)

// Options configures repository discovery/creation and performance.
type Options struct {
	// FS is the filesystem holding the repository (OS or in-memory).
	// Either FS or Path must be set; FS wins when both are given.
	FS billy.Filesystem

	// Path is the on-disk location of the repository root, used when FS
	// is nil.
	Path string

	// Bare indicates a bare repository (.git layout at the root, no
	// worktree).
	Bare bool

	// StorerCacheSize sets the LRU objects cache entries.
	// Higher values improve performance but use more memory.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int
}

// Validate checks that the Options are properly configured.
// It returns an error if required fields are missing or invalid.
func (o *Options) Validate() error {
	if o.FS == nil && o.Path == "" {
		return fmt.Errorf("invalid options: either FS or Path is required")
	}

	if o.StorerCacheSize < 0 {
		return fmt.Errorf("invalid options: StorerCacheSize cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}
}

// Repo is a read-only browsing facade over a git repository. It exposes
// snapshot, history, diff, and revision resolution on top of an ObjectStore.
//
// All browsing operations are read-only and safe for concurrent use.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	store    ObjectStore
	options  Options
}

// openStorage builds the object storage and worktree filesystem for opts.
func openStorage(opts *Options) (*filesystem.Storage, billy.Filesystem, error) {
	fs := opts.FS
	if fs == nil {
		fs = osfs.New(opts.Path)
	}

	if opts.Bare {
		return gitstorage.NewStorage(fs, opts.StorerCacheSize), nil, nil
	}

	dotGitFS, err := fs.Chroot(git.GitDirName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access .git directory: %w", err)
	}
	return gitstorage.NewStorage(dotGitFS, opts.StorerCacheSize), fs, nil
}

// Open opens an existing git repository.
// For non-bare repositories, both the .git directory and worktree must be
// present. For bare repositories, only the .git directory structure is
// expected.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	storage, worktreeFS, err := openStorage(opts)
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(storage, worktreeFS)
	if err != nil {
		return nil, WrapError(err, "failed to open repository")
	}

	return newRepo(repo, opts)
}

// Init creates a new git repository at the specified location. It exists
// mainly so callers (and tests) can build repositories to browse without
// reaching for a second library.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	storage, worktreeFS, err := openStorage(opts)
	if err != nil {
		return nil, err
	}

	repo, err := git.Init(storage, worktreeFS)
	if err != nil {
		return nil, WrapError(err, "failed to initialize repository")
	}

	return newRepo(repo, opts)
}

func newRepo(repo *git.Repository, opts *Options) (*Repo, error) {
	r := &Repo{
		repo:    repo,
		store:   newGitStore(repo),
		options: *opts,
	}

	if !opts.Bare {
		worktree, err := repo.Worktree()
		if err != nil {
			return nil, WrapError(err, "failed to get worktree")
		}
		r.worktree = worktree
	}

	return r, nil
}

// Store exposes the underlying object store. It is useful for callers that
// want raw object access alongside the browsing API.
func (r *Repo) Store() ObjectStore {
	return r.store
}

// Head returns the commit the repository HEAD currently points at.
func (r *Repo) Head(ctx context.Context) (*Commit, error) {
	id, err := r.store.ResolveRef("HEAD")
	if err != nil {
		return nil, WrapError(err, "failed to resolve HEAD")
	}
	return r.store.Commit(id)
}
