// Package browse provides a read-only view over git repositories.
// This file contains line-level hunk computation for text modifications.
package browse

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// LineOp classifies one line of a Hunk.
type LineOp int

const (
	// LineContext is an unchanged line shown for context.
	LineContext LineOp = iota

	// LineAdded is a line present only in the new content.
	LineAdded

	// LineDeleted is a line present only in the old content.
	LineDeleted
)

// String returns a human-readable string representation of the LineOp.
func (op LineOp) String() string {
	switch op {
	case LineContext:
		return "context"
	case LineAdded:
		return "added"
	case LineDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// HunkLine is one line of a hunk. Line numbers are 1-based; a number is zero
// on the side the line does not exist on.
type HunkLine struct {
	Op      LineOp
	Text    string
	OldLine int
	NewLine int
}

// Hunk is one contiguous group of line changes, with surrounding context.
type Hunk struct {
	// OldStart is the 1-based first line of the hunk in the old content;
	// OldCount the number of old lines it spans.
	OldStart int
	OldCount int

	// NewStart and NewCount are the same for the new content.
	NewStart int
	NewCount int

	Lines []HunkLine
}

// Header renders the hunk range in unified diff notation.
func (h *Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

// computeHunks diffs two text blobs line-wise and groups the changes into
// hunks with the given number of context lines.
func computeHunks(oldData, newData []byte, contextLines int) []Hunk {
	oldLines := splitLines(oldData)
	newLines := splitLines(newData)

	matcher := difflib.NewMatcher(oldLines, newLines)
	groups := matcher.GetGroupedOpCodes(contextLines)

	hunks := make([]Hunk, 0, len(groups))
	for _, group := range groups {
		first, last := group[0], group[len(group)-1]
		hunk := Hunk{
			OldStart: first.I1 + 1,
			OldCount: last.I2 - first.I1,
			NewStart: first.J1 + 1,
			NewCount: last.J2 - first.J1,
		}
		for _, op := range group {
			switch op.Tag {
			case 'e':
				for k := 0; k < op.I2-op.I1; k++ {
					hunk.Lines = append(hunk.Lines, HunkLine{
						Op:      LineContext,
						Text:    lineText(oldLines[op.I1+k]),
						OldLine: op.I1 + k + 1,
						NewLine: op.J1 + k + 1,
					})
				}
			case 'r', 'd':
				for k := op.I1; k < op.I2; k++ {
					hunk.Lines = append(hunk.Lines, HunkLine{
						Op:      LineDeleted,
						Text:    lineText(oldLines[k]),
						OldLine: k + 1,
					})
				}
				if op.Tag == 'r' {
					for k := op.J1; k < op.J2; k++ {
						hunk.Lines = append(hunk.Lines, HunkLine{
							Op:      LineAdded,
							Text:    lineText(newLines[k]),
							NewLine: k + 1,
						})
					}
				}
			case 'i':
				for k := op.J1; k < op.J2; k++ {
					hunk.Lines = append(hunk.Lines, HunkLine{
						Op:      LineAdded,
						Text:    lineText(newLines[k]),
						NewLine: k + 1,
					})
				}
			}
		}
		hunks = append(hunks, hunk)
	}
	return hunks
}

// splitLines splits content into lines keeping the terminators, so a final
// line that gains or loses its newline still registers as a change. Unlike
// difflib.SplitLines it adds no phantom trailing line.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func lineText(line string) string {
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
}
