package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/cli"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database/runs"
	"github.com/mrlokans/bookshelf/internal/logging"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
}

func newApp() *app {
	return &app{v: config.NewViper()}
}

func newRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bookshelf",
		Short: "Build the reading-log data file from Goodreads exports",
		Long: `bookshelf merges a Goodreads library CSV export, the "read" shelf RSS feed
and the previously generated books.json into one deduplicated, date-ordered
reading log for the portfolio site.`,
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML, optional)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().String("output", config.DefaultOutputPath, "path of the generated books.json")
	root.PersistentFlags().String("db", "", "SQLite database for the run history and book mirror (disabled when empty)")
	_ = a.v.BindPFlag(config.KeyOutputPath, root.PersistentFlags().Lookup("output"))
	_ = a.v.BindPFlag(config.KeyDatabasePath, root.PersistentFlags().Lookup("db"))

	root.AddCommand(a.fetchCmd(), a.coversCmd(), a.runsCmd())
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(a.verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) fetchCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Merge the CSV export, the RSS feed and the existing output into books.json",
		Example: `  bookshelf fetch --feed-url "https://www.goodreads.com/review/list_rss/1?shelf=read"
  bookshelf fetch --csv ./data/goodreads_library_export.csv --dry-run -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cli.NewFetchCommand(a.cfg, a.logger)
			c.DryRun = dryRun
			c.Verbose = a.verbose
			return c.Run(cmd.Context())
		},
	}
	cmd.Flags().String("csv", config.DefaultCSVPath, "Goodreads library CSV export")
	cmd.Flags().String("feed-url", "", "Goodreads read-shelf RSS feed URL")
	cmd.Flags().String("schedule", "", "cron expression used to stamp nextUpdate")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be written without making changes")
	_ = a.v.BindPFlag(config.KeyCSVPath, cmd.Flags().Lookup("csv"))
	_ = a.v.BindPFlag(config.KeyFeedURL, cmd.Flags().Lookup("feed-url"))
	_ = a.v.BindPFlag(config.KeyRefreshSchedule, cmd.Flags().Lookup("schedule"))
	return cmd
}

func (a *app) coversCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "covers",
		Short: "Scrape Goodreads book pages for records without a cover image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cli.NewCoversCommand(a.cfg, a.logger)
			c.Limit = limit
			c.Verbose = a.verbose
			return c.Run(cmd.Context())
		},
	}
	cmd.Flags().Duration("delay", 0, "minimum delay between page requests (default 1s)")
	cmd.Flags().IntVar(&limit, "limit", 0, "process at most this many books (0 = all)")
	_ = a.v.BindPFlag(config.KeyCoverDelay, cmd.Flags().Lookup("delay"))
	return cmd
}

func (a *app) runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent fetch runs recorded in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cli.NewRunsCommand(a.cfg)
			c.Limit = limit
			return c.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&limit, "limit", runs.DefaultLimit, "number of runs to show")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
