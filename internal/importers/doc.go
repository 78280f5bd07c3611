// Package importers turns raw Goodreads exports into entities.BookRecord values.
//
// Two sources are supported:
//
//   - ParseGoodreadsCSV reads the library export CSV and keeps only rows on the
//     "read" shelf.
//   - ParseGoodreadsFeed reads the shelf RSS feed item by item, tolerating
//     broken markup inside a single item.
//
// Both parsers are lenient: malformed numbers become zero and rows or items
// that cannot be used are reported as ParseWarning values instead of errors.
// The normalize helpers (ParseReadAt, ParseLeadingInt, ParseLeadingFloat) are
// shared with the rest of the module so dates and numbers are interpreted the
// same way everywhere.
package importers
