// Package index holds the in-memory term-count index and the builder that
// fills it from a directory of text files.
package index

import (
	"maps"
	"slices"
)

// TermCounts maps each term of one document to its number of occurrences.
// It is never modified after the document has been added to an Index.
type TermCounts map[string]int

// Total is the number of term occurrences in the document.
func (tc TermCounts) Total() int {
	total := 0
	for _, n := range tc {
		total += n
	}
	return total
}

// Index maps a document identifier (the file path) to its TermCounts.
// Once built it is read-only and may be shared between goroutines.
type Index map[string]TermCounts

// DocFreq reports how many documents contain term.
func (idx Index) DocFreq(term string) int {
	n := 0
	for _, tc := range idx {
		if _, ok := tc[term]; ok {
			n++
		}
	}
	return n
}

// DocIDs returns the document identifiers in ascending order.
func (idx Index) DocIDs() []string {
	return slices.Sorted(maps.Keys(idx))
}

// Equal reports whether both indexes hold the same documents with the same
// term counts.
func (idx Index) Equal(other Index) bool {
	return maps.EqualFunc(idx, other, func(a, b TermCounts) bool {
		return maps.Equal(a, b)
	})
}
