// Package covers fills in missing cover images by scraping book detail pages.
package covers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// DefaultDelay is the minimum pause between two page requests.
const DefaultDelay = time.Second

// ErrNoCover is recorded for pages that were fetched but had no cover image.
var ErrNoCover = errors.New("no cover found")

// PageFetcher downloads a book detail page.
type PageFetcher interface {
	FetchBookPage(ctx context.Context, bookID string) (string, error)
}

// Progress is reported after every processed book.
type Progress struct {
	Done   int
	Found  int
	Missed int
	Book   entities.BookRecord
	// Err is why Book got no cover, nil when one was found.
	Err error
}

// ProgressReporter follows one enrichment batch, e.g. to persist it.
type ProgressReporter interface {
	BatchStarted(candidates int) error
	BookProcessed(p Progress) error
	BatchFinished(cancelled bool, missed int) error
}

// BookError records why a single book could not be enriched.
type BookError struct {
	BookID string
	Title  string
	Err    error
}

func (e BookError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Title, e.BookID, e.Err)
}

func (e BookError) Unwrap() error {
	return e.Err
}

// Result summarizes an enrichment batch.
type Result struct {
	Books     []entities.BookRecord
	Total     int
	Updated   int
	Failed    int
	Cancelled bool
	Errors    []BookError
}

// Enricher scrapes covers for books that have a catalog id but no image.
type Enricher struct {
	fetcher  PageFetcher
	limiter  *rateLimiter
	logger   *zap.Logger
	progress ProgressReporter
	onStep   func(done, total int, book entities.BookRecord)
}

// NewEnricher creates an Enricher that waits at least delay between requests.
func NewEnricher(fetcher PageFetcher, delay time.Duration, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		fetcher: fetcher,
		limiter: newRateLimiter(delay),
		logger:  logger,
	}
}

// SetProgressReporter sets the progress reporter for the batch (optional).
func (e *Enricher) SetProgressReporter(reporter ProgressReporter) {
	e.progress = reporter
}

// OnStep registers a callback invoked after every processed book (optional).
func (e *Enricher) OnStep(fn func(done, total int, book entities.BookRecord)) {
	e.onStep = fn
}

// NeedsCover reports whether a record is a candidate for enrichment.
func NeedsCover(b entities.BookRecord) bool {
	return b.ImageURL == "" && b.BookID != ""
}

// CountMissing returns how many records are candidates for enrichment.
func CountMissing(books []entities.BookRecord) int {
	n := 0
	for _, b := range books {
		if NeedsCover(b) {
			n++
		}
	}
	return n
}

// EnrichMissing looks up covers for every candidate record, at most limit of
// them when limit > 0. The input slice is left untouched; Result.Books holds a
// copy with the covers that were found. Individual failures are counted and
// never stop the batch. Cancelling ctx ends the batch early and returns what
// was obtained so far together with ctx.Err().
func (e *Enricher) EnrichMissing(ctx context.Context, books []entities.BookRecord, limit int) (*Result, error) {
	updated := make([]entities.BookRecord, len(books))
	copy(updated, books)

	var targets []int
	for i, b := range updated {
		if !NeedsCover(b) {
			continue
		}
		if limit > 0 && len(targets) >= limit {
			break
		}
		targets = append(targets, i)
	}

	result := &Result{Books: updated, Total: len(targets)}
	if len(targets) == 0 {
		return result, nil
	}

	if e.progress != nil {
		if err := e.progress.BatchStarted(len(targets)); err != nil {
			e.logger.Warn("failed to record cover batch start", zap.Error(err))
		}
	}

	for n, i := range targets {
		book := updated[i]

		if err := e.limiter.wait(ctx); err != nil {
			return e.cancel(result, err)
		}

		imageURL, err := e.lookup(ctx, book.BookID)
		var miss error
		if err != nil {
			if ctx.Err() != nil {
				return e.cancel(result, ctx.Err())
			}
			miss = err
			result.Failed++
			result.Errors = append(result.Errors, BookError{BookID: book.BookID, Title: book.Title, Err: err})
			e.logger.Info("cover lookup failed",
				zap.String("title", book.Title),
				zap.String("book_id", book.BookID),
				zap.Error(err))
		} else {
			updated[i].ImageURL = imageURL
			result.Updated++
			e.logger.Debug("cover found",
				zap.String("title", book.Title),
				zap.String("image_url", imageURL))
		}

		if e.progress != nil {
			if err := e.progress.BookProcessed(Progress{
				Done:   n + 1,
				Found:  result.Updated,
				Missed: result.Failed,
				Book:   updated[i],
				Err:    miss,
			}); err != nil {
				e.logger.Warn("failed to record cover progress", zap.Error(err))
			}
		}
		if e.onStep != nil {
			e.onStep(n+1, len(targets), updated[i])
		}
	}

	if e.progress != nil {
		_ = e.progress.BatchFinished(false, result.Failed)
	}

	return result, nil
}

func (e *Enricher) lookup(ctx context.Context, bookID string) (string, error) {
	page, err := e.fetcher.FetchBookPage(ctx, bookID)
	if err != nil {
		return "", err
	}
	imageURL, ok := ExtractCoverURL(page)
	if !ok {
		return "", ErrNoCover
	}
	return imageURL, nil
}

func (e *Enricher) cancel(result *Result, err error) (*Result, error) {
	result.Cancelled = true
	if e.progress != nil {
		_ = e.progress.BatchFinished(true, result.Failed)
	}
	return result, err
}
