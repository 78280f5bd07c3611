package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/coversync"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/goodreads"
	"github.com/mrlokans/bookshelf/internal/logging"
	"github.com/mrlokans/bookshelf/internal/store"
)

// ErrSyncInProgress is returned when another cover sync recorded in the
// database is still running.
var ErrSyncInProgress = errors.New("a cover sync is already running")

// CoversCommand fills in missing cover images by scraping book detail pages.
type CoversCommand struct {
	Config  *config.Config
	Limit   int
	Verbose bool

	Logger  *zap.Logger
	Out     io.Writer
	Store   *store.Store
	Fetcher covers.PageFetcher
	Now     func() time.Time
}

func NewCoversCommand(cfg *config.Config, logger *zap.Logger) *CoversCommand {
	return &CoversCommand{Config: cfg, Logger: logger}
}

func (cmd *CoversCommand) Run(ctx context.Context) error {
	out := cmd.Out
	if out == nil {
		out = os.Stdout
	}
	logger := logging.OrNop(cmd.Logger)
	cfg := cmd.Config
	now := cmd.Now
	if now == nil {
		now = time.Now
	}

	st := cmd.Store
	if st == nil {
		st = store.NewOS()
	}

	fmt.Fprintf(out, "Loading %s...\n", cfg.Output.Path)
	doc, err := st.LoadExisting(cfg.Output.Path)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			return fmt.Errorf("%s not found, run fetch first", cfg.Output.Path)
		}
		return err
	}

	missing := covers.CountMissing(doc.Books)
	fmt.Fprintf(out, "\nFound %d books without covers\n", missing)
	if missing == 0 {
		fmt.Fprintln(out, "All books have covers! Nothing to do.")
		return nil
	}

	todo := missing
	if cmd.Limit > 0 && cmd.Limit < todo {
		todo = cmd.Limit
	}
	estimate := time.Duration(todo-1) * cfg.Covers.Delay
	fmt.Fprintf(out, "Fetching %d covers, at least %s at one request per %s\n\n",
		todo, estimate.Round(time.Second), cfg.Covers.Delay)

	fetcher := cmd.Fetcher
	if fetcher == nil {
		fetcher = goodreads.NewClient(goodreads.Options{
			BaseURL:   cfg.Covers.BaseURL,
			UserAgent: cfg.HTTP.UserAgent,
			Timeout:   cfg.HTTP.Timeout,
			Logger:    logger,
		})
	}
	enricher := covers.NewEnricher(fetcher, cfg.Covers.Delay, logger)

	if cfg.Database.Path != "" {
		db, err := database.NewDatabase(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		progress := coversync.NewRepository(db.DB)
		running, err := progress.IsRunning()
		if err != nil {
			return fmt.Errorf("failed to check sync status: %w", err)
		}
		if running {
			return ErrSyncInProgress
		}
		enricher.SetProgressReporter(progress)
	}

	var bar *progressbar.ProgressBar
	if out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd())) {
		bar = progressbar.NewOptions(todo,
			progressbar.OptionSetDescription("Covers"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	enricher.OnStep(func(done, total int, book entities.BookRecord) {
		if bar != nil {
			bar.Describe(truncate(book.Title, 30))
			_ = bar.Set(done)
			return
		}
		status := "✗ No cover found"
		if book.ImageURL != "" {
			status = "✓ Found cover: " + truncate(book.ImageURL, 80)
		}
		fmt.Fprintf(out, "[%d/%d] %s\n  %s\n", done, total, book.Title, status)
	})

	result, runErr := enricher.EnrichMissing(ctx, doc.Books, cmd.Limit)
	if bar != nil {
		_ = bar.Finish()
	}
	if result == nil {
		return runErr
	}

	fmt.Fprintln(out, "\n=== Summary ===")
	fmt.Fprintf(out, "Total processed: %d\n", result.Updated+result.Failed)
	fmt.Fprintf(out, "Successfully updated: %d\n", result.Updated)
	fmt.Fprintf(out, "Failed: %d\n", result.Failed)
	if cmd.Verbose {
		for _, be := range result.Errors {
			fmt.Fprintf(out, "  - %s\n", be.Error())
		}
	}
	if result.Cancelled {
		fmt.Fprintln(out, "Interrupted, saving covers found so far")
	}

	doc.Books = result.Books
	doc.LastUpdated = entities.FormatTimestamp(now())
	fmt.Fprintf(out, "\nSaving updated %s...\n", cfg.Output.Path)
	if err := st.Save(cfg.Output.Path, doc); err != nil {
		return fmt.Errorf("failed to save %s: %w", cfg.Output.Path, err)
	}
	if runErr != nil {
		return runErr
	}
	fmt.Fprintln(out, "✓ Done!")
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
