package importers

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Column positions in the Goodreads library export.
const (
	csvColBookID        = 0
	csvColTitle         = 1
	csvColAuthor        = 2
	csvColMyRating      = 7
	csvColAverageRating = 8
	csvColNumPages      = 11
	csvColYearPublished = 12
	csvColDateRead      = 14
	csvColShelf         = 18

	// MinCSVFields is the number of fields a row needs to reach the shelf column.
	MinCSVFields = 19

	shelfRead = "read"
)

// ParseWarning describes a row or block that was skipped during parsing.
type ParseWarning struct {
	Line   int
	Reason string
}

func (w ParseWarning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
	}
	return w.Reason
}

// ParseGoodreadsCSV parses a Goodreads library export and returns the books on
// the "read" shelf in file order. The header row is discarded. Rows that are
// malformed or too short are skipped and reported as warnings; rows on other
// shelves are dropped silently. A quoted field may span several lines, but a
// quote that is never closed only costs its own row. The returned error is
// reserved for read failures of r itself.
func ParseGoodreadsCSV(r io.Reader) ([]entities.BookRecord, []ParseWarning, error) {
	// Exports saved by spreadsheet tools may carry a UTF-8 or UTF-16 BOM.
	decoded := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))

	var rows csvRows
	lineNo := 0
	for {
		line, err := decoded.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, rows.warnings, fmt.Errorf("read csv: %w", err)
		}
		if line != "" {
			lineNo++
			rows.addLine(lineNo, strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"))
		}
		if err != nil {
			break
		}
	}
	rows.finish()

	return rows.books, rows.warnings, nil
}

// csvRows assembles physical lines into records. A line that leaves a quoted
// field open is held as pending until the field closes.
type csvRows struct {
	headerSeen  bool
	pending     string
	pendingLine int

	books    []entities.BookRecord
	warnings []ParseWarning
}

func (p *csvRows) addLine(n int, line string) {
	if p.pendingLine > 0 {
		// A continuation that is a complete row on its own means the pending
		// quote was never closed.
		if !openQuotedField(line) && csvFieldCount(line) >= MinCSVFields {
			p.dropPending()
		} else {
			p.pending += "\n" + line
			if !openQuotedField(p.pending) {
				p.record(p.pendingLine, p.pending)
				p.pending, p.pendingLine = "", 0
			}
			return
		}
	}

	if strings.TrimSpace(line) == "" {
		return
	}
	if openQuotedField(line) {
		p.pending, p.pendingLine = line, n
		return
	}
	p.record(n, line)
}

func (p *csvRows) finish() {
	if p.pendingLine > 0 {
		p.dropPending()
	}
}

func (p *csvRows) dropPending() {
	if p.headerSeen {
		p.warn(p.pendingLine, "unterminated quoted field")
	} else {
		p.headerSeen = true
	}
	p.pending, p.pendingLine = "", 0
}

func (p *csvRows) warn(line int, reason string) {
	p.warnings = append(p.warnings, ParseWarning{Line: line, Reason: reason})
}

func (p *csvRows) record(line int, text string) {
	record, err := readCSVRecord(text)
	if !p.headerSeen {
		p.headerSeen = true
		return
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			err = parseErr.Err
		}
		p.warn(line, err.Error())
		return
	}

	if len(record) < MinCSVFields {
		p.warn(line, fmt.Sprintf("expected at least %d fields, got %d", MinCSVFields, len(record)))
		return
	}
	if strings.TrimSpace(record[csvColShelf]) != shelfRead {
		return
	}
	p.books = append(p.books, csvRowToRecord(record))
}

func readCSVRecord(text string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.Read()
}

func csvFieldCount(line string) int {
	record, err := readCSVRecord(line)
	if err != nil {
		return 0
	}
	return len(record)
}

// openQuotedField reports whether text ends inside a quoted field, following
// the lazy-quote rules of encoding/csv: a quote opens a field only at its
// start, "" is an escaped quote, and a closing quote must be followed by a
// comma or the end of a line.
func openQuotedField(text string) bool {
	inQuotes := false
	fieldStart := true
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			if c != '"' {
				continue
			}
			if i+1 == len(text) {
				return false
			}
			switch text[i+1] {
			case '"':
				i++
			case ',', '\n':
				inQuotes = false
			}
			continue
		}
		switch c {
		case '"':
			inQuotes = fieldStart
			fieldStart = false
		case ',', '\n':
			fieldStart = true
		default:
			fieldStart = false
		}
	}
	return inQuotes
}

func csvRowToRecord(record []string) entities.BookRecord {
	return entities.BookRecord{
		Title:         CleanField(record[csvColTitle]),
		Author:        CleanField(record[csvColAuthor]),
		Rating:        clampRating(ParseLeadingInt(record[csvColMyRating])),
		ReadAt:        csvReadAt(record[csvColDateRead]),
		BookID:        CleanField(record[csvColBookID]),
		AverageRating: nonNegative(ParseLeadingFloat(record[csvColAverageRating])),
		BookPublished: CleanField(record[csvColYearPublished]),
		NumPages:      nonNegative(ParseLeadingInt(record[csvColNumPages])),
		Source:        entities.RecordSourceCSV,
	}
}

// csvReadAt converts the export's YYYY/MM/DD date into the readAt format.
func csvReadAt(dateRead string) string {
	dateRead = strings.TrimSpace(dateRead)
	if dateRead == "" {
		return ""
	}
	parts := strings.Split(dateRead, "/")
	if len(parts) != 3 {
		return ""
	}
	return BuildDate(parts[0], parts[1], parts[2])
}
