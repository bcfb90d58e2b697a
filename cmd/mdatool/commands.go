package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/coolbeans/mdatool/pkg/aggregate"
	"github.com/coolbeans/mdatool/pkg/config"
	"github.com/coolbeans/mdatool/pkg/edgar"
	"github.com/coolbeans/mdatool/pkg/store"
)

type countCommand struct {
	use     string
	aliases []string
	short   string
	mode    aggregate.Mode
}

var (
	modeSectionCommand = countCommand{
		use:   "mda",
		short: "Extract MD&A sections and count keywords in them",
		mode:  aggregate.ModeSection,
	}
	modeDocumentCommand = countCommand{
		use:     "tenk",
		aliases: []string{"10k"},
		short:   "Count keywords across whole 10-K filings",
		mode:    aggregate.ModeDocument,
	}
)

func addDirectoryFlags(cmd *cobra.Command) {
	cmd.Flags().String("10k-dir", "", "Directory of filing text files")
	cmd.Flags().String("encoding", "", "Encoding of stored filings: utf-8, iso-8859-1, windows-1252")
}

func addCountFlags(cmd *cobra.Command) {
	addDirectoryFlags(cmd)
	cmd.Flags().String("keywords", "", "Comma-separated keywords; underscores stand for spaces")
	cmd.Flags().Int("workers", 0, "Concurrent documents (0 = one per CPU)")
	cmd.Flags().String("mda-dir", "", "Directory for extracted MD&A sections")
	cmd.Flags().String("headings", "", "YAML file overriding the section heading markers")
	cmd.Flags().Int("min-bytes", 0, "Section length below which the locator retries")
	cmd.Flags().Bool("discard-short", false, "Drop a short section when the retry finds nothing")
	cmd.Flags().String("db", "", "SQLite database receiving count records")
}

func downloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download 10-K form indexes and filings from EDGAR",
		Long: `Download quarterly form indexes for a year range, build the 10-K index
table, and store every listed filing as plain text. Existing files are
skipped, so an interrupted download can be resumed.`,
		Example: `  mdatool download --year-start 2001 --year-end 2003
  mdatool download --config mdatool.yaml --user-agent "Jane Doe jane@example.com"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, logger, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			edgarConfig := settings.EdgarConfig()
			edgarConfig.Logger = logger
			fetcher := edgar.NewFetcher(edgarConfig)

			startTime := time.Now()
			results, err := fetcher.Run(cmd.Context(), settings.YearStart, settings.YearEnd)
			printDownloadSummary(cmd, results, time.Since(startTime))
			return err
		},
	}

	cmd.Flags().Int("year-start", 0, "First year to download")
	cmd.Flags().Int("year-end", 0, "Last year to download")
	cmd.Flags().String("index-dir", "", "Directory for quarterly form indexes")
	cmd.Flags().String("index-10k-path", "", "CSV of 10-K index rows")
	cmd.Flags().String("user-agent", "", "User-Agent sent to EDGAR")
	addDirectoryFlags(cmd)

	return cmd
}

func printDownloadSummary(cmd *cobra.Command, results []edgar.DownloadResult, elapsed time.Duration) {
	var downloaded, skipped, failed int
	var totalBytes int64
	for _, result := range results {
		switch {
		case result.Error != "":
			failed++
		case result.Skipped:
			skipped++
		default:
			downloaded++
			totalBytes += result.BytesWritten
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Filings:    %d\n", len(results))
	fmt.Fprintf(out, "Downloaded: %d (%d bytes)\n", downloaded, totalBytes)
	fmt.Fprintf(out, "Skipped:    %d\n", skipped)
	fmt.Fprintf(out, "Failed:     %d\n", failed)
	fmt.Fprintf(out, "Elapsed:    %s\n", elapsed.Round(time.Millisecond))
}

func countCmd(command countCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:     command.use,
		Aliases: command.aliases,
		Short:   command.short,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, logger, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			report, err := runCount(cmd.Context(), settings, command.mode, logger)
			if err != nil {
				return err
			}

			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), aggregate.FormatReportJSON(report))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), aggregate.FormatReport(report))
			}
			return nil
		},
	}

	addCountFlags(cmd)
	if command.mode == aggregate.ModeDocument {
		cmd.Flags().String("10k-keyword-path", "", "Output CSV of whole-filing counts")
	} else {
		cmd.Flags().String("mda-keyword-path", "", "Output CSV of MD&A counts")
	}
	cmd.Flags().String("metrics-file", "", "Write prometheus metrics to this file")
	cmd.Flags().Bool("json", false, "Print the run report as JSON")

	return cmd
}

// runCount processes the whole filing directory in mode and writes the
// keyword table, plus the database and metrics outputs when configured.
func runCount(ctx context.Context, settings config.Config, mode aggregate.Mode, logger *slog.Logger) (*aggregate.Report, error) {
	aggregator, err := settings.Aggregator(mode, logger)
	if err != nil {
		return nil, err
	}

	corpus := store.NewCorpus(settings.FilingDir, settings.SourceEncoding())
	identifiers, err := corpus.List()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	batchConfig := aggregate.BatchConfig{
		Workers: settings.Workers,
		Metrics: aggregate.NewMetrics(registry),
		Logger:  logger,
	}
	if mode == aggregate.ModeSection {
		batchConfig.Sink = store.NewSectionDir(settings.SectionDir)
	}

	logger.Info("counting keywords",
		"mode", mode,
		"documents", len(identifiers),
		"keywords", len(aggregator.Keywords()),
	)

	report, err := aggregate.NewBatch(aggregator, corpus, batchConfig).Run(ctx, identifiers)
	if err != nil {
		return nil, err
	}

	tablePath := settings.TablePath(mode)
	if err := store.WriteTableFile(tablePath, report.Rows()); err != nil {
		return nil, err
	}
	logger.Info("wrote keyword table", "path", tablePath, "rows", len(report.Records))

	if settings.DatabasePath != "" {
		recordDB, err := store.OpenRecordDB(settings.DatabasePath)
		if err != nil {
			return nil, err
		}
		defer recordDB.Close()

		runID, err := recordDB.SaveReport(ctx, aggregator.Keywords(), report)
		if err != nil {
			return nil, err
		}
		logger.Info("stored run", "run_id", runID, "database", settings.DatabasePath)
	}

	if settings.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(settings.MetricsFile, registry); err != nil {
			return nil, fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return report, nil
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Extract and count MD&A sections of filings as they arrive",
		Long: `Watch the filing directory and process each new filing in section mode
once it stops changing. Records are stored in the SQLite database under a
single run that is closed when the command exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, logger, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			settle, _ := cmd.Flags().GetDuration("settle")
			if settings.DatabasePath == "" {
				settings.DatabasePath = filepath.Join(filepath.Dir(settings.FilingDir), "records.sqlite")
			}

			return runWatch(cmd.Context(), settings, settle, logger)
		},
	}

	addCountFlags(cmd)
	cmd.Flags().Duration("settle", 500*time.Millisecond, "Quiet period before a changed file is processed")

	return cmd
}

// runWatch processes filings appearing in the filing directory until ctx
// is cancelled.
func runWatch(ctx context.Context, settings config.Config, settle time.Duration, logger *slog.Logger) error {
	aggregator, err := settings.Aggregator(aggregate.ModeSection, logger)
	if err != nil {
		return err
	}
	spec := aggregator.Keywords()

	recordDB, err := store.OpenRecordDB(settings.DatabasePath)
	if err != nil {
		return err
	}
	defer recordDB.Close()

	runID, err := recordDB.BeginRun(ctx, aggregate.ModeSection, spec)
	if err != nil {
		return err
	}

	corpus := store.NewCorpus(settings.FilingDir, settings.SourceEncoding())
	batch := aggregate.NewBatch(aggregator, corpus, aggregate.BatchConfig{
		Workers: 1,
		Sink:    store.NewSectionDir(settings.SectionDir),
		Logger:  logger,
	})

	if err := os.MkdirAll(settings.FilingDir, 0755); err != nil {
		return fmt.Errorf("failed to create filing directory: %w", err)
	}

	tally := &aggregate.Report{Mode: aggregate.ModeSection}
	stored := make(map[string]bool)
	handle := func(identifier string) {
		if stored[identifier] {
			logger.Debug("filing already stored in this run", "identifier", identifier)
			return
		}
		entry, record := batch.ProcessOne(ctx, identifier)
		tally.Attempted++
		switch entry.Status {
		case aggregate.StatusProcessed:
			tally.Processed++
		case aggregate.StatusSkipped:
			tally.Skipped++
		default:
			tally.Failed++
		}
		if record == nil {
			return
		}
		if err := recordDB.InsertRecord(ctx, runID, identifier, spec, *record); err != nil {
			logger.Error("failed to store record", "identifier", identifier, "error", err)
			return
		}
		stored[identifier] = true
	}

	logger.Info("watching filings", "dir", settings.FilingDir, "run_id", runID, "database", settings.DatabasePath)
	watcher := store.NewWatcher(settings.FilingDir, store.WatcherConfig{Settle: settle, Logger: logger})
	watchErr := watcher.Watch(ctx, handle)

	// The run is closed even after ctx is cancelled.
	if err := recordDB.FinishRun(context.WithoutCancel(ctx), runID, tally); err != nil {
		return err
	}
	logger.Info("watch stopped",
		"attempted", tally.Attempted,
		"processed", tally.Processed,
		"skipped", tally.Skipped,
		"failed", tally.Failed,
	)
	return watchErr
}

func headingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "headings",
		Short: "Print the section heading markers in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			headings, err := settings.Headings()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), headings.Format())
			return nil
		},
	}

	cmd.Flags().String("headings", "", "YAML file overriding the section heading markers")

	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			output, err := settings.Format()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		},
	}
}

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List count runs stored in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if settings.DatabasePath == "" {
				return fmt.Errorf("no database configured (use --db or database_path)")
			}

			recordDB, err := store.OpenRecordDB(settings.DatabasePath)
			if err != nil {
				return err
			}
			defer recordDB.Close()

			runs, err := recordDB.Runs(cmd.Context())
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "RUN\tMODE\tSTARTED\tATTEMPTED\tPROCESSED\tSKIPPED\tFAILED\tKEYWORDS")
			for _, run := range runs {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					run.ID, run.Mode, run.StartedAt.Format(time.RFC3339),
					run.Attempted, run.Processed, run.Skipped, run.Failed,
					strings.Join(run.Keywords.Strings(), ","),
				)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().String("db", "", "SQLite database with count records")

	return cmd
}
