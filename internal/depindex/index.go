// Package depindex folds per-file dependency lists into a reverse index from library
// name to the files that need it.
//
// An Index accepts records until it is finalized. Finalize produces a Report sorted
// ascending by number of dependents; libraries with the same count are ordered by name.
// The transition is one-way.
package depindex

import (
	"cmp"
	"errors"
	"slices"
)

// ErrFinalized is returned when a record is added after Finalize.
var ErrFinalized = errors.New("dependency index is finalized")

// Record is the dependency list of one successfully parsed file.
type Record struct {
	File string
	// Libraries is in DT_NEEDED order. Duplicates are folded as duplicates.
	Libraries []string
}

// Index maps library names to their dependent files in insertion order.
// It is not safe for concurrent use; callers serialize the fold.
type Index struct {
	dependents map[string][]string
	report     *Report
}

// New returns an empty Index in the accumulating state.
func New() *Index {
	return &Index{dependents: make(map[string][]string)}
}

// Add appends rec.File to the dependent list of each library in rec.Libraries.
func (ix *Index) Add(rec Record) error {
	if ix.report != nil {
		return ErrFinalized
	}
	for _, lib := range rec.Libraries {
		ix.dependents[lib] = append(ix.dependents[lib], rec.File)
	}
	return nil
}

// Finalize freezes the index and returns the sorted report. Calling it again returns
// the same report.
func (ix *Index) Finalize() *Report {
	if ix.report != nil {
		return ix.report
	}

	entries := make([]Entry, 0, len(ix.dependents))
	for lib, files := range ix.dependents {
		entries = append(entries, Entry{Library: lib, Dependents: files})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(len(a.Dependents), len(b.Dependents)); c != 0 {
			return c
		}
		return cmp.Compare(a.Library, b.Library)
	})

	ix.report = &Report{Entries: entries}
	ix.dependents = nil
	return ix.report
}

// Entry is one library and the files that depend on it.
type Entry struct {
	Library    string
	Dependents []string
}

// Count returns the number of dependents, duplicates included.
func (e Entry) Count() int {
	return len(e.Dependents)
}

// Report is the finalized, read-only view of an Index.
type Report struct {
	Entries []Entry
}

// Lookup returns the entry for lib.
func (r *Report) Lookup(lib string) (Entry, bool) {
	i := slices.IndexFunc(r.Entries, func(e Entry) bool { return e.Library == lib })
	if i < 0 {
		return Entry{}, false
	}
	return r.Entries[i], true
}

// Build folds records in order and finalizes the result.
func Build(records []Record) *Report {
	ix := New()
	for _, rec := range records {
		// A fresh index cannot be finalized yet.
		_ = ix.Add(rec)
	}
	return ix.Finalize()
}
