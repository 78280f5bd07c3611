// Package library reconciles book records coming from the CSV export, the RSS
// feed and the previously persisted document into one ordered collection.
//
// Precedence, lowest to highest: persisted records, CSV records, feed records.
// A higher source replaces the whole record; the only field carried over is a
// persisted imageUrl donated to a CSV record that has none.
package library

import (
	"slices"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
)

// MergeStats describes what a merge did.
type MergeStats struct {
	Seeded        int
	FromCSV       int
	FromFeed      int
	DonatedImages int
	Total         int
}

// Merge combines the three record sets and returns them newest first. The
// input slices are not modified.
func Merge(csvRecords, feedRecords, existing []entities.BookRecord) []entities.BookRecord {
	merged, _ := MergeWithStats(csvRecords, feedRecords, existing)
	return merged
}

// MergeWithStats is Merge that also reports counts for diagnostics.
func MergeWithStats(csvRecords, feedRecords, existing []entities.BookRecord) ([]entities.BookRecord, MergeStats) {
	set := newKeyedSet(len(existing) + len(csvRecords) + len(feedRecords))
	stats := MergeStats{
		Seeded:   len(existing),
		FromCSV:  len(csvRecords),
		FromFeed: len(feedRecords),
	}

	for _, book := range existing {
		set.put(book.Key(), book)
	}

	for _, book := range csvRecords {
		key := book.Key()
		if prior, ok := set.get(key); ok && prior.ImageURL != "" && book.ImageURL == "" {
			// book is a copy, the caller's slice keeps its empty imageUrl.
			book.ImageURL = prior.ImageURL
			stats.DonatedImages++
		}
		set.put(key, book)
	}

	for _, book := range feedRecords {
		set.put(book.Key(), book)
	}

	merged := set.values()
	SortByReadAt(merged)
	stats.Total = set.len()

	return merged, stats
}

// SortByReadAt orders records by readAt, newest first. Records without a
// parseable readAt go last. The sort is stable, so ties keep their order.
func SortByReadAt(books []entities.BookRecord) {
	type dated struct {
		at    time.Time
		known bool
	}
	keys := make([]dated, len(books))
	idx := make([]int, len(books))
	for i := range books {
		t, ok := importers.ParseReadAt(books[i].ReadAt)
		keys[i] = dated{at: t, known: ok}
		idx[i] = i
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		return compareDates(keys[a].at, keys[a].known, keys[b].at, keys[b].known)
	})

	sorted := make([]entities.BookRecord, len(books))
	for i, j := range idx {
		sorted[i] = books[j]
	}
	copy(books, sorted)
}

// compareDates orders a before b when a is newer. Unknown dates are older than
// every known date and equal to each other.
func compareDates(a time.Time, aKnown bool, b time.Time, bKnown bool) int {
	switch {
	case aKnown && !bKnown:
		return -1
	case !aKnown && bKnown:
		return 1
	case !aKnown && !bKnown:
		return 0
	}
	return b.Compare(a)
}
