package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"book-pipeline/config"
	"book-pipeline/models"
	"book-pipeline/services"
	"book-pipeline/storage"
	"book-pipeline/utils"
)

type bookOptions struct {
	input  string
	db     string
	dryRun bool
}

func newRootCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	var opts bookOptions

	root := &cobra.Command{
		Use:   "book-pipeline",
		Short: "Load the book catalogue into a relational store and summarize it per year",
		Long: `book-pipeline repairs the symbol-keyed book file (:key=> syntax), loads every
record into books_raw and rebuilds books_summary (book count and average USD
price per publication year).

Run without a subcommand to execute the books load.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBooks(cmd.Context(), cfg, opts, logger, cmd.OutOrStdout())
		},
	}
	addBookFlags(root, &opts, cfg)

	root.AddCommand(newBooksCmd(cfg, logger), newHashKeysCmd(cfg, logger))
	return root
}

func newBooksCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	var opts bookOptions

	cmd := &cobra.Command{
		Use:   "books",
		Short: "Load books_raw and rebuild books_summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBooks(cmd.Context(), cfg, opts, logger, cmd.OutOrStdout())
		},
	}
	addBookFlags(cmd, &opts, cfg)
	return cmd
}

func addBookFlags(cmd *cobra.Command, opts *bookOptions, cfg *config.Config) {
	cmd.Flags().StringVar(&opts.input, "input", cfg.InputPath, "path to the book file")
	cmd.Flags().StringVar(&opts.db, "db", cfg.DBPath, "SQLite database file (sqlite driver only)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "summarize in memory and print the table without touching the store")
}

// runBooks loads the input, replaces the store contents and reports the
// resulting row counts on out.
func runBooks(ctx context.Context, cfg *config.Config, opts bookOptions, logger *utils.Logger, out io.Writer) (err error) {
	logger.Info("[books] Loading %s", opts.input)

	books, err := services.NewLoader(logger).LoadFile(opts.input)
	if err != nil {
		return err
	}

	if cfg.RawCSVPath != "" {
		if err := dumpRaw(cfg.RawCSVPath, books); err != nil {
			return err
		}
		logger.Info("[books] Normalized records saved to %s", cfg.RawCSVPath)
	}

	if opts.dryRun {
		services.PrintSummary(out, services.Summarize(books, eurToUSD))
		return nil
	}

	store, err := openStore(ctx, cfg, opts.db, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	if err := store.Replace(ctx, books, eurToUSD); err != nil {
		return err
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "books_raw rows: %d\n", counts.Raw)
	fmt.Fprintf(out, "books_summary rows: %d\n", counts.Summary)
	return nil
}

func dumpRaw(path string, books []models.Book) (err error) {
	var w storage.RawBookWriter
	w, err = storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, w.Close())
	}()
	return w.WriteRaw(books)
}

func openStore(ctx context.Context, cfg *config.Config, dbPath string, logger *utils.Logger) (storage.BookStore, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return storage.NewSQLiteStore(dbPath, logger)
	case config.DriverPostgres:
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.PostgresRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		}
		return storage.NewPostgresStore(ctx, cfg.DSN(), retry, logger)
	default:
		return nil, fmt.Errorf("unknown BOOKS_DB_DRIVER %q (want %q or %q)",
			cfg.DBDriver, config.DriverSQLite, config.DriverPostgres)
	}
}

func newHashKeysCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	var (
		sortByKey   bool
		workers     int
		rateLimitMs int
	)

	cmd := &cobra.Command{
		Use:   "hashkeys [dir]",
		Short: "Print the SHA3-256 digest and digest-derived sort key of every file in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cfg.HashInputDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runHashKeys(dir, workers, rateLimitMs, sortByKey, logger, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&sortByKey, "sort", false, "order output by ascending sort key")
	cmd.Flags().IntVar(&workers, "workers", cfg.HashWorkers, "files hashed concurrently")
	cmd.Flags().IntVar(&rateLimitMs, "rate-limit-ms", cfg.HashRateLimitMs, "minimum milliseconds between file reads (0 disables)")
	return cmd
}

func runHashKeys(dir string, workers, rateLimitMs int, sortByKey bool, logger *utils.Logger, out io.Writer) error {
	digests, err := services.DigestDir(dir, workers, rateLimitMs, logger)
	if err != nil {
		return err
	}
	if sortByKey {
		services.SortDigests(digests)
	}
	for _, d := range digests {
		fmt.Fprintf(out, "%s %s %s\n", d.SortKey, d.Digest, d.Name)
	}
	return nil
}
