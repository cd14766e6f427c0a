package browse

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"with FS", Options{FS: memfs.New()}, false},
		{"with Path", Options{Path: "/tmp/repo"}, false},
		{"neither FS nor Path", Options{}, true},
		{"negative cache size", Options{FS: memfs.New(), StorerCacheSize: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptions_ApplyDefaults(t *testing.T) {
	opts := Options{FS: memfs.New()}
	opts.applyDefaults()
	assert.Equal(t, DefaultStorerCacheSize, opts.StorerCacheSize)

	opts = Options{FS: memfs.New(), StorerCacheSize: 42}
	opts.applyDefaults()
	assert.Equal(t, 42, opts.StorerCacheSize)
}

func TestInitAndOpen(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()

	repo, err := Init(ctx, &Options{FS: fs})
	require.NoError(t, err)
	require.NotNil(t, repo)

	// The same filesystem opens again as an existing repository.
	reopened, err := Open(ctx, &Options{FS: fs})
	require.NoError(t, err)
	require.NotNil(t, reopened)
}

func TestOpen_MissingRepository(t *testing.T) {
	_, err := Open(context.Background(), &Options{FS: memfs.New()})
	assert.Error(t, err)
}

func TestOpen_InvalidOptions(t *testing.T) {
	_, err := Open(context.Background(), &Options{})
	assert.Error(t, err)

	_, err = Init(context.Background(), &Options{})
	assert.Error(t, err)
}

func TestWorktreeCommitFlow(t *testing.T) {
	tr := setupWorktreeRepo(t)
	fs := tr.repo.options.FS

	require.NoError(t, util.WriteFile(fs, "hello.txt", []byte("hello world\n"), 0o644))
	require.NoError(t, tr.repo.Add(tr.ctx, "hello.txt"))

	who := Signature{Name: "Test Author", Email: "author@example.com", When: testEpoch}
	hash, err := tr.repo.Commit(tr.ctx, "add hello\n", who, CommitOpts{})
	require.NoError(t, err)

	head, err := tr.repo.Head(tr.ctx)
	require.NoError(t, err)
	assert.Equal(t, hash, head.ID)
	assert.Equal(t, "add hello\n", head.Message)
	assert.Equal(t, "add hello", head.Summary())

	snap, err := tr.repo.Snapshot(tr.ctx, "HEAD")
	require.NoError(t, err)
	content, err := snap.FindFile(tr.ctx, "hello.txt")
	require.NoError(t, err)
	data, err := content.Content(tr.ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))
}

func TestCommit_Validation(t *testing.T) {
	tr := setupWorktreeRepo(t)
	who := Signature{Name: "Test Author", Email: "author@example.com", When: testEpoch}

	_, err := tr.repo.Commit(tr.ctx, "", who, CommitOpts{})
	assert.Error(t, err, "message required")

	_, err = tr.repo.Commit(tr.ctx, "msg\n", Signature{}, CommitOpts{})
	assert.Error(t, err, "identity required")
}

func TestCommit_Empty(t *testing.T) {
	tr := setupWorktreeRepo(t)
	fs := tr.repo.options.FS
	who := Signature{Name: "Test Author", Email: "author@example.com", When: testEpoch}

	require.NoError(t, util.WriteFile(fs, "f.txt", []byte("x\n"), 0o644))
	require.NoError(t, tr.repo.Add(tr.ctx, "f.txt"))
	_, err := tr.repo.Commit(tr.ctx, "initial\n", who, CommitOpts{})
	require.NoError(t, err)

	_, err = tr.repo.Commit(tr.ctx, "nothing staged\n", who, CommitOpts{})
	assert.ErrorIs(t, err, ErrEmptyCommit)

	hash, err := tr.repo.Commit(tr.ctx, "deliberately empty\n", who, CommitOpts{AllowEmpty: true})
	require.NoError(t, err)
	assert.NotEqual(t, "", hash.String())
}

func TestBareRepoHasNoWorktree(t *testing.T) {
	tr := setupTestRepo(t)

	err := tr.repo.Add(tr.ctx, "f.txt")
	assert.Error(t, err)

	who := Signature{Name: "Test Author", Email: "author@example.com", When: testEpoch}
	_, err = tr.repo.Commit(tr.ctx, "msg\n", who, CommitOpts{})
	assert.Error(t, err)
}

func TestHead_Unborn(t *testing.T) {
	tr := setupTestRepo(t)

	_, err := tr.repo.Head(tr.ctx)
	assert.Error(t, err, "HEAD points at an unborn branch")
}
