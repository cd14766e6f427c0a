// Package gitstorage constructs go-git object storage backed by a billy
// filesystem with an LRU object cache.
package gitstorage

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// NewStorage creates a new git storage with LRU cache for object storage.
//
// The LRU cache improves performance by keeping frequently accessed objects in
// memory. The cache size is configurable; a non-positive value falls back to a
// minimal cache.
func NewStorage(fs billy.Filesystem, cacheSize int) *filesystem.Storage {
	if cacheSize <= 0 {
		cacheSize = 100
	}

	objCache := cache.NewObjectLRU(cache.FileSize(cacheSize))
	return filesystem.NewStorage(fs, objCache)
}
