package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/runs"
	"github.com/mrlokans/bookshelf/internal/goodreads"
	"github.com/mrlokans/bookshelf/internal/logging"
	"github.com/mrlokans/bookshelf/internal/pipeline"
	"github.com/mrlokans/bookshelf/internal/schedule"
	"github.com/mrlokans/bookshelf/internal/store"
)

// FetchCommand rebuilds the library document from the CSV export, the shelf
// feed and the previous output.
type FetchCommand struct {
	Config  *config.Config
	DryRun  bool
	Verbose bool

	Logger *zap.Logger
	Out    io.Writer
	Store  *store.Store
	Feed   pipeline.FeedFetcher
}

func NewFetchCommand(cfg *config.Config, logger *zap.Logger) *FetchCommand {
	return &FetchCommand{Config: cfg, Logger: logger}
}

func (cmd *FetchCommand) Run(ctx context.Context) error {
	out := cmd.Out
	if out == nil {
		out = os.Stdout
	}
	logger := logging.OrNop(cmd.Logger)
	cfg := cmd.Config

	fmt.Fprintln(out, "Book Data Collection")
	fmt.Fprintln(out, "====================")
	if cmd.DryRun {
		fmt.Fprintln(out, "DRY RUN MODE - No changes will be made")
	}
	fmt.Fprintln(out)

	st := cmd.Store
	if st == nil {
		st = store.NewOS()
	}
	feed := cmd.Feed
	if feed == nil {
		feed = goodreads.NewClient(goodreads.Options{
			UserAgent:  cfg.HTTP.UserAgent,
			Timeout:    cfg.HTTP.Timeout,
			MaxRetries: cfg.HTTP.FeedMaxRetries,
			Logger:     logger,
		})
	}

	runner := pipeline.NewRunner(pipeline.Options{
		CSVPath:         cfg.Sources.CSVPath,
		FeedURL:         cfg.Sources.FeedURL,
		OutputPath:      cfg.Output.Path,
		RefreshSchedule: cfg.RefreshSchedule,
		DryRun:          cmd.DryRun,
	}, st, feed, logger)

	if cfg.Database.Path != "" && !cmd.DryRun {
		db, err := database.NewDatabase(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		runner.WithHistory(books.NewRepository(db.DB), runs.NewRepository(db.DB))
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	printFetchSummary(out, cfg, summary, cmd.Verbose)
	return nil
}

func printFetchSummary(out io.Writer, cfg *config.Config, s *pipeline.Summary, verbose bool) {
	if s.CSVMissing {
		fmt.Fprintf(out, "CSV file not found, skipped CSV import (%s)\n", cfg.Sources.CSVPath)
	}
	fmt.Fprintf(out, "Total unique books: %s\n", humanize.Comma(int64(len(s.Books))))
	fmt.Fprintf(out, "  - Existing:      %d\n", s.PriorBooks)
	fmt.Fprintf(out, "  - From CSV:      %d\n", s.CSVBooks)
	fmt.Fprintf(out, "  - From RSS:      %d\n", s.FeedBooks)
	fmt.Fprintf(out, "  - Covers reused: %d\n", s.Stats.DonatedImages)

	if n := s.WarningCount(); n > 0 {
		fmt.Fprintf(out, "\nSkipped %d malformed %s\n", n, pluralize(n, "entry", "entries"))
		if verbose {
			for _, w := range s.CSVWarnings {
				fmt.Fprintf(out, "  csv: %s\n", w)
			}
			for _, w := range s.FeedWarnings {
				fmt.Fprintf(out, "  rss: %s\n", w)
			}
		}
	}

	if s.Written {
		fmt.Fprintf(out, "\nSuccessfully wrote %d books to %s\n", len(s.Books), cfg.Output.Path)
	} else {
		fmt.Fprintf(out, "\nWould write %d books to %s\n", len(s.Books), cfg.Output.Path)
	}
	if s.NextUpdate != "" {
		fmt.Fprintf(out, "Next update: %s (%s)\n", s.NextUpdate, schedule.Describe(cfg.RefreshSchedule))
	}
	if s.MirrorErr != nil {
		fmt.Fprintf(out, "WARNING: %v\n", s.MirrorErr)
	} else if s.Written && cfg.Database.Path != "" {
		fmt.Fprintf(out, "Mirrored to %s (%d stale removed)\n", cfg.Database.Path, s.Removed)
	}

	newest, ok := s.Newest()
	if !ok {
		return
	}
	oldest, _ := s.Oldest()
	fmt.Fprintln(out, "\nDate range:")
	fmt.Fprintf(out, "  Oldest: %s - %s\n", orNoDate(oldest.ReadAt), oldest.Title)
	fmt.Fprintf(out, "  Newest: %s - %s\n", orNoDate(newest.ReadAt), newest.Title)
}

func orNoDate(s string) string {
	if s == "" {
		return "No date"
	}
	return s
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
