package browse

import (
	"path/filepath"
	"strings"
)

// Common ChangeFilter functions for filtering diffs

// PathFilter creates a filter that includes changes matching the given path pattern.
// The pattern can include wildcards (* and ?) and is matched against both
// the old and new paths (to handle moves and copies).
func PathFilter(pattern string) ChangeFilter {
	return func(change *Change) bool {
		if matched, _ := filepath.Match(pattern, change.Path); matched {
			return true
		}
		if change.OldPath != "" {
			if matched, _ := filepath.Match(pattern, change.OldPath); matched {
				return true
			}
		}
		return false
	}
}

// PathPrefixFilter creates a filter that includes changes with paths starting with the given prefix.
// This is useful for filtering by directory.
func PathPrefixFilter(prefix string) ChangeFilter {
	return func(change *Change) bool {
		if strings.HasPrefix(change.Path, prefix) {
			return true
		}
		return change.OldPath != "" && strings.HasPrefix(change.OldPath, prefix)
	}
}

// ExtensionFilter creates a filter that includes changes for files with the given extensions.
// Extensions should include the dot (e.g., ".go", ".js").
func ExtensionFilter(extensions ...string) ChangeFilter {
	// Build a set for O(1) lookup
	extSet := make(map[string]bool)
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}

	return func(change *Change) bool {
		if extSet[strings.ToLower(filepath.Ext(change.Path))] {
			return true
		}
		if change.OldPath != "" && extSet[strings.ToLower(filepath.Ext(change.OldPath))] {
			return true
		}
		return false
	}
}

// KindFilter creates a filter that only includes changes of the given kinds.
func KindFilter(kinds ...ChangeKind) ChangeFilter {
	kindSet := make(map[ChangeKind]bool)
	for _, kind := range kinds {
		kindSet[kind] = true
	}

	return func(change *Change) bool {
		return kindSet[change.Kind]
	}
}

// NonBinaryFilter creates a filter that excludes binary modifications.
func NonBinaryFilter() ChangeFilter {
	return func(change *Change) bool {
		return !change.Binary
	}
}

// AndFilter combines multiple filters with AND logic - all must pass.
func AndFilter(filters ...ChangeFilter) ChangeFilter {
	return func(change *Change) bool {
		for _, filter := range filters {
			if filter != nil && !filter(change) {
				return false
			}
		}
		return true
	}
}

// OrFilter combines multiple filters with OR logic - at least one must pass.
func OrFilter(filters ...ChangeFilter) ChangeFilter {
	return func(change *Change) bool {
		for _, filter := range filters {
			if filter != nil && filter(change) {
				return true
			}
		}
		return false
	}
}

// NotFilter creates a filter that inverts the result of another filter.
func NotFilter(filter ChangeFilter) ChangeFilter {
	return func(change *Change) bool {
		return filter == nil || !filter(change)
	}
}
