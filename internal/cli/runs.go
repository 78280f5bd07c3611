package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/runs"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/coversync"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// ErrDatabaseRequired is returned by commands that only work with the SQLite mirror.
var ErrDatabaseRequired = errors.New("database path is not configured (set --db or BOOKSHELF_DATABASE_PATH)")

// RunsCommand lists recent pipeline runs recorded in the database.
type RunsCommand struct {
	Config *config.Config
	Limit  int

	Out io.Writer
	Now func() time.Time
}

func NewRunsCommand(cfg *config.Config) *RunsCommand {
	return &RunsCommand{Config: cfg, Limit: runs.DefaultLimit}
}

func (cmd *RunsCommand) Run(ctx context.Context) error {
	out := cmd.Out
	if out == nil {
		out = os.Stdout
	}
	now := cmd.Now
	if now == nil {
		now = time.Now
	}
	if cmd.Config.Database.Path == "" {
		return ErrDatabaseRequired
	}

	db, err := database.NewDatabase(cmd.Config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := runs.NewRepository(db.DB)
	recent, err := repo.Recent(cmd.Limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(recent) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STARTED\tSTATUS\tCSV\tRSS\tBOOKS\tWARNINGS\tDURATION\tERROR")
		for _, run := range recent {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
				humanize.RelTime(run.StartedAt, now(), "ago", "from now"),
				run.Status,
				run.CSVBooks,
				run.FeedBooks,
				run.MergedBooks,
				run.Warnings,
				runDuration(run),
				run.Error,
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	last, err := repo.LastSucceeded()
	if err != nil {
		return fmt.Errorf("failed to find last successful run: %w", err)
	}
	if last != nil {
		fmt.Fprintf(out, "\nLast successful run: %s (%d books)\n",
			humanize.RelTime(last.StartedAt, now(), "ago", "from now"), last.MergedBooks)
	}

	mirrored, err := books.NewRepository(db.DB).Count()
	if err != nil {
		return fmt.Errorf("failed to count mirrored books: %w", err)
	}
	fmt.Fprintf(out, "Mirrored books: %s\n", humanize.Comma(mirrored))

	latest, err := coversync.NewRepository(db.DB).Latest()
	if err != nil {
		return fmt.Errorf("failed to read cover sync: %w", err)
	}
	if latest != nil {
		fmt.Fprintf(out, "\nLast cover sync: %s, %d/%d checked, %d found, %d missed\n",
			latest.Status, latest.Processed, latest.Candidates, latest.Found, latest.Missed)
		if latest.LastMissedBookID != "" {
			fmt.Fprintf(out, "  last miss: book %s (%s)\n", latest.LastMissedBookID, latest.LastMissReason)
		}
	}
	return nil
}

func runDuration(run entities.PipelineRun) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
