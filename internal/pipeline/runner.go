// Package pipeline runs one refresh of the reading log:
// load prior document → parse CSV export → fetch and parse feed → merge →
// persist → mirror.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/schedule"
	"github.com/mrlokans/bookshelf/internal/store"
)

// FeedFetcher downloads the raw RSS feed body.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, feedURL string) (string, error)
}

// BookMirror replaces the mirrored book list with the merged result.
type BookMirror interface {
	ReplaceAll(runID string, records []entities.BookRecord) (int64, error)
}

// RunRecorder persists the history of runs.
type RunRecorder interface {
	Start(runID string, startedAt time.Time) (*entities.PipelineRun, error)
	Finish(run *entities.PipelineRun, runErr error) error
}

// Options configures a Runner.
type Options struct {
	CSVPath         string
	FeedURL         string
	OutputPath      string
	RefreshSchedule string
	DryRun          bool
}

// Summary describes the outcome of a run.
type Summary struct {
	RunID        string
	PriorBooks   int
	CSVBooks     int
	FeedBooks    int
	CSVMissing   bool
	Stats        library.MergeStats
	CSVWarnings  []importers.ParseWarning
	FeedWarnings []importers.ParseWarning
	Books        []entities.BookRecord
	LastUpdated  string
	NextUpdate   string
	Written      bool
	Removed      int64
	MirrorErr    error
}

// Newest returns the first record of the merged order.
func (s *Summary) Newest() (entities.BookRecord, bool) {
	if len(s.Books) == 0 {
		return entities.BookRecord{}, false
	}
	return s.Books[0], true
}

// Oldest returns the last record of the merged order, which may be undated.
func (s *Summary) Oldest() (entities.BookRecord, bool) {
	if len(s.Books) == 0 {
		return entities.BookRecord{}, false
	}
	return s.Books[len(s.Books)-1], true
}

// WarningCount is the total number of skipped rows and items.
func (s *Summary) WarningCount() int {
	return len(s.CSVWarnings) + len(s.FeedWarnings)
}

// Runner executes the pipeline.
type Runner struct {
	opts   Options
	store  *store.Store
	feed   FeedFetcher
	books  BookMirror
	runs   RunRecorder
	logger *zap.Logger
	now    func() time.Time
}

// NewRunner creates a Runner that reads and writes through st and downloads
// the feed with feed.
func NewRunner(opts Options, st *store.Store, feed FeedFetcher, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		opts:   opts,
		store:  st,
		feed:   feed,
		logger: logger,
		now:    time.Now,
	}
}

// WithHistory enables the database mirror and run history.
func (r *Runner) WithHistory(books BookMirror, runs RunRecorder) *Runner {
	r.books = books
	r.runs = runs
	return r
}

// Run performs a full refresh. Feed failures, configuration errors and
// write failures are returned; mirror failures are logged and reported in
// the summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if strings.TrimSpace(r.opts.FeedURL) == "" {
		return nil, ErrFeedURLRequired
	}
	if r.opts.RefreshSchedule != "" {
		if err := schedule.Validate(r.opts.RefreshSchedule); err != nil {
			return nil, err
		}
	}

	summary := &Summary{RunID: uuid.NewString()}
	log := r.logger.With(zap.String("run_id", summary.RunID))

	var run *entities.PipelineRun
	if r.runs != nil && !r.opts.DryRun {
		started, err := r.runs.Start(summary.RunID, r.now())
		if err != nil {
			log.Warn("failed to record run start", zap.Error(err))
		} else {
			run = started
		}
	}

	err := r.execute(ctx, summary, log)

	if run != nil {
		run.PriorBooks = summary.PriorBooks
		run.CSVBooks = summary.CSVBooks
		run.FeedBooks = summary.FeedBooks
		run.MergedBooks = len(summary.Books)
		run.Warnings = summary.WarningCount()
		finishErr := err
		if finishErr == nil && summary.MirrorErr != nil {
			finishErr = summary.MirrorErr
		}
		if ferr := r.runs.Finish(run, finishErr); ferr != nil {
			log.Warn("failed to record run result", zap.Error(ferr))
		}
	}

	return summary, err
}

func (r *Runner) execute(ctx context.Context, summary *Summary, log *zap.Logger) error {
	log.Debug("loading existing document", zap.String("path", r.opts.OutputPath))
	prior, err := r.store.Load(r.opts.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to load existing books: %w", err)
	}
	summary.PriorBooks = len(prior.Books)

	csvRecords, err := r.readCSV(summary, log)
	if err != nil {
		return err
	}

	log.Debug("fetching feed", zap.String("url", r.opts.FeedURL))
	body, err := r.feed.FetchFeed(ctx, r.opts.FeedURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFeedFetch, err)
	}

	feedRecords, warnings, err := importers.ParseGoodreadsFeed(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}
	summary.FeedBooks = len(feedRecords)
	summary.FeedWarnings = warnings
	for _, w := range warnings {
		log.Warn("skipped feed item", zap.String("reason", w.String()))
	}

	merged, stats := library.MergeWithStats(csvRecords, feedRecords, prior.Books)
	summary.Stats = stats
	summary.Books = merged

	now := r.now()
	summary.LastUpdated = entities.FormatTimestamp(now)
	if next, ok, err := schedule.Next(r.opts.RefreshSchedule, now); err != nil {
		return err
	} else if ok {
		summary.NextUpdate = entities.FormatTimestamp(next)
	}

	if r.opts.DryRun {
		log.Info("dry run, not writing output", zap.Int("books", len(merged)))
		return nil
	}

	doc := &entities.LibraryDocument{
		Books:       merged,
		LastUpdated: summary.LastUpdated,
		NextUpdate:  summary.NextUpdate,
	}
	if err := r.store.Save(r.opts.OutputPath, doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.opts.OutputPath, err)
	}
	summary.Written = true
	log.Info("wrote library document",
		zap.String("path", r.opts.OutputPath),
		zap.Int("books", len(merged)))

	if r.books != nil {
		removed, err := r.books.ReplaceAll(summary.RunID, merged)
		if err != nil {
			summary.MirrorErr = fmt.Errorf("failed to mirror books: %w", err)
			log.Error("database mirror failed", zap.Error(err))
		} else {
			summary.Removed = removed
		}
	}

	return nil
}

func (r *Runner) readCSV(summary *Summary, log *zap.Logger) ([]entities.BookRecord, error) {
	if r.opts.CSVPath == "" {
		summary.CSVMissing = true
		return nil, nil
	}

	f, err := r.store.Open(r.opts.CSVPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			log.Info("CSV file not found, skipping CSV import", zap.String("path", r.opts.CSVPath))
			summary.CSVMissing = true
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open CSV %s: %w", r.opts.CSVPath, err)
	}
	defer f.Close()

	records, warnings, err := importers.ParseGoodreadsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV %s: %w", r.opts.CSVPath, err)
	}
	summary.CSVBooks = len(records)
	summary.CSVWarnings = warnings
	for _, w := range warnings {
		log.Warn("skipped CSV row", zap.String("reason", w.String()))
	}
	log.Debug("parsed CSV export", zap.Int("books", len(records)))
	return records, nil
}
