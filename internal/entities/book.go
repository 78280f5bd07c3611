package entities

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type RecordSource string

const (
	RecordSourceCSV RecordSource = "csv"
	RecordSourceRSS RecordSource = "rss"
)

// BookRecord is the common shape every reading-log source is normalized into.
// JSON field names are consumed by the site renderer and must stay stable.
type BookRecord struct {
	Title         string       `json:"title"`
	Author        string       `json:"author"`
	Rating        int          `json:"rating"`
	ReadAt        string       `json:"readAt"`
	BookID        string       `json:"bookId"`
	ISBN          string       `json:"isbn"`
	ImageURL      string       `json:"imageUrl"`
	AverageRating float64      `json:"averageRating"`
	BookPublished string       `json:"bookPublished"`
	NumPages      int          `json:"numPages"`
	Source        RecordSource `json:"source"`
}

// Key returns the identity key shared by every record describing the same book.
func (b BookRecord) Key() string {
	return IdentityKey(b.Title, b.Author)
}

// IdentityKey lower-cases title and author with full Unicode case mapping and
// joins them with an underscore.
func IdentityKey(title, author string) string {
	// Casers are stateful, so each call gets its own.
	lower := cases.Lower(language.Und)
	return lower.String(title) + "_" + lower.String(author)
}

// LibraryDocument is the persisted output of a pipeline run.
type LibraryDocument struct {
	Books       []BookRecord `json:"books"`
	LastUpdated string       `json:"lastUpdated"`
	NextUpdate  string       `json:"nextUpdate,omitempty"`
}

// TimestampLayout is used for lastUpdated and nextUpdate.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
