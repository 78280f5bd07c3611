package library

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func rec(title, author, readAt string, src entities.RecordSource) entities.BookRecord {
	return entities.BookRecord{Title: title, Author: author, ReadAt: readAt, Source: src}
}

func titles(books []entities.BookRecord) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestMerge_FeedWinsOverCSVAndPrior(t *testing.T) {
	prior := entities.BookRecord{Title: "Dune", Author: "Frank Herbert", Rating: 3, ImageURL: "https://img/prior.jpg", NumPages: 100, Source: entities.RecordSourceCSV}
	csv := entities.BookRecord{Title: "Dune", Author: "Frank Herbert", Rating: 4, NumPages: 412, Source: entities.RecordSourceCSV}
	feed := entities.BookRecord{Title: "DUNE", Author: "frank herbert", Rating: 5, Source: entities.RecordSourceRSS}

	got := Merge([]entities.BookRecord{csv}, []entities.BookRecord{feed}, []entities.BookRecord{prior})

	require.Len(t, got, 1)
	if diff := cmp.Diff(feed, got[0]); diff != "" {
		t.Errorf("feed record should win unchanged (-want +got):\n%s", diff)
	}
}

func TestMerge_DonatesPriorImageToCSV(t *testing.T) {
	prior := entities.BookRecord{Title: "Dune", Author: "Frank Herbert", ImageURL: "X", Rating: 1}
	csv := entities.BookRecord{Title: "dune", Author: "FRANK HERBERT", Rating: 4, Source: entities.RecordSourceCSV}

	got, stats := MergeWithStats([]entities.BookRecord{csv}, nil, []entities.BookRecord{prior})

	require.Len(t, got, 1)
	assert.Equal(t, "X", got[0].ImageURL)
	assert.Equal(t, 4, got[0].Rating, "rest of the record comes from CSV")
	assert.Equal(t, "dune", got[0].Title)
	assert.Equal(t, 1, stats.DonatedImages)
}

func TestMerge_DoesNotOverrideCSVImage(t *testing.T) {
	prior := entities.BookRecord{Title: "Dune", Author: "Frank Herbert", ImageURL: "old"}
	csv := entities.BookRecord{Title: "Dune", Author: "Frank Herbert", ImageURL: "new"}

	got, stats := MergeWithStats([]entities.BookRecord{csv}, nil, []entities.BookRecord{prior})
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ImageURL)
	assert.Zero(t, stats.DonatedImages)
}

func TestMerge_NoDonationIntoFeedRecords(t *testing.T) {
	prior := entities.BookRecord{Title: "Dune", Author: "Frank Herbert", ImageURL: "X"}
	feed := entities.BookRecord{Title: "Dune", Author: "Frank Herbert", Source: entities.RecordSourceRSS}

	got := Merge(nil, []entities.BookRecord{feed}, []entities.BookRecord{prior})
	require.Len(t, got, 1)
	assert.Empty(t, got[0].ImageURL)
}

func TestMerge_KeepsPriorRecordsAbsentFromSources(t *testing.T) {
	prior := []entities.BookRecord{
		rec("Gone From Feed", "A", "Mon, 01 Jan 2001 00:00:00 GMT", entities.RecordSourceRSS),
	}
	csv := []entities.BookRecord{rec("Fresh", "B", "Mon, 01 Jan 2024 00:00:00 GMT", entities.RecordSourceCSV)}

	got, stats := MergeWithStats(csv, nil, prior)
	assert.Equal(t, []string{"Fresh", "Gone From Feed"}, titles(got))
	assert.Equal(t, MergeStats{Seeded: 1, FromCSV: 1, Total: 2}, stats)
}

func TestMerge_DeduplicatesCaseInsensitively(t *testing.T) {
	csv := []entities.BookRecord{
		rec("Dune", "Frank Herbert", "", entities.RecordSourceCSV),
		rec("Solaris", "Stanisław Lem", "", entities.RecordSourceCSV),
	}
	feed := []entities.BookRecord{
		rec("dune", "FRANK HERBERT", "", entities.RecordSourceRSS),
		rec("SOLARIS", "STANISŁAW LEM", "", entities.RecordSourceRSS),
	}

	got := Merge(csv, feed, nil)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"dune", "SOLARIS"}, titles(got))
}

func TestMerge_PriorDuplicatesLastWins(t *testing.T) {
	prior := []entities.BookRecord{
		{Title: "Dune", Author: "Frank Herbert", Rating: 1},
		{Title: "dune", Author: "frank herbert", Rating: 2},
	}

	got := Merge(nil, nil, prior)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Rating)
}

func TestMerge_OrdersNewestFirstUnknownLast(t *testing.T) {
	csv := []entities.BookRecord{
		rec("No Date", "A", "", entities.RecordSourceCSV),
		rec("Old", "B", "Mon, 12 Jan 1987 00:00:00 GMT", entities.RecordSourceCSV),
		rec("Garbage Date", "C", "Invalid Date", entities.RecordSourceCSV),
		rec("Newest", "D", "Sat, 10 Feb 2024 00:00:00 -0800", entities.RecordSourceCSV),
		rec("Middle", "E", "Thu, 03 May 2001 00:00:00 GMT", entities.RecordSourceCSV),
	}

	got := Merge(csv, nil, nil)
	assert.Equal(t, []string{"Newest", "Middle", "Old", "No Date", "Garbage Date"}, titles(got))
}

func TestMerge_StableForEqualDates(t *testing.T) {
	same := "Mon, 01 Jan 2024 00:00:00 GMT"
	csv := []entities.BookRecord{
		rec("First", "A", same, entities.RecordSourceCSV),
		rec("Second", "B", same, entities.RecordSourceCSV),
		rec("Third", "C", same, entities.RecordSourceCSV),
	}

	got := Merge(csv, nil, nil)
	assert.Equal(t, []string{"First", "Second", "Third"}, titles(got))
}

func TestMerge_ComparesInstantsAcrossZones(t *testing.T) {
	csv := []entities.BookRecord{
		rec("UTC Evening", "A", "Sat, 10 Feb 2024 07:00:00 GMT", entities.RecordSourceCSV),
		rec("Pacific Midnight", "B", "Sat, 10 Feb 2024 00:00:00 -0800", entities.RecordSourceCSV),
	}

	got := Merge(csv, nil, nil)
	assert.Equal(t, []string{"Pacific Midnight", "UTC Evening"}, titles(got))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	prior := []entities.BookRecord{{Title: "Dune", Author: "Frank Herbert", ImageURL: "X"}}
	csv := []entities.BookRecord{
		rec("Later", "A", "", entities.RecordSourceCSV),
		{Title: "Dune", Author: "Frank Herbert", ReadAt: "Mon, 01 Jan 2024 00:00:00 GMT"},
	}
	csvCopy := append([]entities.BookRecord(nil), csv...)
	priorCopy := append([]entities.BookRecord(nil), prior...)

	_ = Merge(csv, nil, prior)

	assert.Equal(t, csvCopy, csv)
	assert.Equal(t, priorCopy, prior)
	assert.Empty(t, csv[1].ImageURL)
}

func TestMerge_Idempotent(t *testing.T) {
	csv := []entities.BookRecord{
		rec("A", "X", "Mon, 01 Jan 2024 00:00:00 GMT", entities.RecordSourceCSV),
		rec("B", "Y", "", entities.RecordSourceCSV),
	}
	feed := []entities.BookRecord{rec("C", "Z", "Thu, 03 May 2001 00:00:00 GMT", entities.RecordSourceRSS)}

	first := Merge(csv, feed, nil)
	second := Merge(csv, feed, nil)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("merge is not deterministic (-first +second):\n%s", diff)
	}

	again := Merge(csv, feed, first)
	if diff := cmp.Diff(first, again); diff != "" {
		t.Errorf("re-merging onto own output changed it (-first +again):\n%s", diff)
	}
}

func TestMerge_Empty(t *testing.T) {
	got, stats := MergeWithStats(nil, nil, nil)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Zero(t, stats.Total)
}

func TestSortByReadAt_InPlace(t *testing.T) {
	books := []entities.BookRecord{
		rec("Old", "A", "2001-01-01", entities.RecordSourceCSV),
		rec("New", "B", "2020-01-01", entities.RecordSourceCSV),
	}
	SortByReadAt(books)
	assert.Equal(t, []string{"New", "Old"}, titles(books))
}
