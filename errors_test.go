package browse

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   error
		expected bool
	}{
		// Direct sentinel errors
		{"ErrBackend direct", ErrBackend, ErrBackend, true},
		{"ErrNotFound direct", ErrNotFound, ErrNotFound, true},
		{"ErrAmbiguousRevision direct", ErrAmbiguousRevision, ErrAmbiguousRevision, true},
		{"ErrInvalidRevision direct", ErrInvalidRevision, ErrInvalidRevision, true},
		{"ErrNotCommit direct", ErrNotCommit, ErrNotCommit, true},
		{"ErrNotTree direct", ErrNotTree, ErrNotTree, true},
		{"ErrNotBlob direct", ErrNotBlob, ErrNotBlob, true},
		{"ErrPathNotFound direct", ErrPathNotFound, ErrPathNotFound, true},

		// Wrapped errors
		{"ErrNotFound wrapped", WrapError(ErrNotFound, "context"), ErrNotFound, true},
		{"ErrBackend wrapped", WrapErrorf(ErrBackend, "context %s", "arg"), ErrBackend, true},
		{"ErrPathNotFound wrapped twice", WrapError(WrapError(ErrPathNotFound, "inner"), "outer"), ErrPathNotFound, true},

		// Non-matching errors
		{"ErrNotFound vs ErrBackend", ErrNotFound, ErrBackend, false},
		{"ErrNotCommit vs ErrNotTree", ErrNotCommit, ErrNotTree, false},
		{"ErrAmbiguousRevision vs ErrInvalidRevision", ErrAmbiguousRevision, ErrInvalidRevision, false},

		// Nil handling
		{"WrapError with nil", WrapError(nil, "context"), ErrNotFound, false},
		{"WrapErrorf with nil", WrapErrorf(nil, "context"), ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errors.Is(tt.err, tt.target)
			assert.Equal(t, tt.expected, result,
				"errors.Is(%v, %v) should be %v", tt.err, tt.target, tt.expected)
		})
	}
}

func TestWrapError(t *testing.T) {
	base := errors.New("base failure")

	wrapped := WrapError(base, "while doing work")
	require.Error(t, wrapped)
	assert.Equal(t, "while doing work: base failure", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)

	assert.NoError(t, WrapError(nil, "ignored"))
}

func TestWrapErrorf(t *testing.T) {
	base := errors.New("base failure")

	wrapped := WrapErrorf(base, "processing %q attempt %d", "item", 2)
	require.Error(t, wrapped)
	assert.Equal(t, `processing "item" attempt 2: base failure`, wrapped.Error())
	assert.ErrorIs(t, wrapped, base)

	assert.NoError(t, WrapErrorf(nil, "ignored %d", 1))
}

func TestBackendError(t *testing.T) {
	cause := fmt.Errorf("disk exploded")

	err := backendError(cause, "read object")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend, "classified as a backend failure")
	assert.ErrorIs(t, err, cause, "original cause preserved")
	assert.Contains(t, err.Error(), "read object")

	assert.NoError(t, backendError(nil, "read object"))
}
