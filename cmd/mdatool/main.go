package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coolbeans/mdatool/pkg/config"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mdatool",
		Short: "EDGAR 10-K MD&A extractor and keyword counter",
		Long: `mdatool downloads 10-K filings from SEC EDGAR, extracts the
Management's Discussion and Analysis section, and counts keywords.

It produces:
  - Quarterly form indexes and a CSV of 10-K filings
  - Plain-text filings named NAME_CIK_YEAR_FILEDDATE.txt
  - Extracted MD&A sections (.mda)
  - Keyword count tables for MD&A sections or whole filings`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(downloadCmd())
	rootCmd.AddCommand(countCmd(modeSectionCommand))
	rootCmd.AddCommand(countCmd(modeDocumentCommand))
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(headingsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(runsCmd())

	return rootCmd
}

// newLogger builds the slog logger selected by the global flags.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	formatName, _ := cmd.Flags().GetString("log-format")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", levelName, err)
	}

	options := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(formatName) {
	case "text":
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), options)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (available: text, json)", formatName)
	}
}

// loadSettings reads --config and applies the command's changed flags.
func loadSettings(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}

	configPath, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	applyFlagOverrides(cmd, &settings)
	if err := settings.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	return settings, logger, nil
}

// applyFlagOverrides copies explicitly set flags over file settings.
func applyFlagOverrides(cmd *cobra.Command, settings *config.Config) {
	flags := cmd.Flags()

	stringFlags := map[string]*string{
		"index-dir":        &settings.IndexDir,
		"index-10k-path":   &settings.IndexTablePath,
		"10k-dir":          &settings.FilingDir,
		"10k-keyword-path": &settings.FilingTablePath,
		"mda-dir":          &settings.SectionDir,
		"mda-keyword-path": &settings.SectionTablePath,
		"keywords":         &settings.Keywords,
		"encoding":         &settings.Encoding,
		"headings":         &settings.HeadingsFile,
		"db":               &settings.DatabasePath,
		"metrics-file":     &settings.MetricsFile,
		"user-agent":       &settings.Download.UserAgent,
	}
	for name, target := range stringFlags {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*target, _ = flags.GetString(name)
		}
	}

	intFlags := map[string]*int{
		"year-start": &settings.YearStart,
		"year-end":   &settings.YearEnd,
		"workers":    &settings.Workers,
		"min-bytes":  &settings.Retry.MinBytes,
	}
	for name, target := range intFlags {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*target, _ = flags.GetInt(name)
		}
	}

	if flags.Lookup("discard-short") != nil && flags.Changed("discard-short") {
		settings.Retry.DiscardShortOnRetryMiss, _ = flags.GetBool("discard-short")
	}
}
