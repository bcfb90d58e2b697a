// Package config loads mdatool settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/mdatool/pkg/aggregate"
	"github.com/coolbeans/mdatool/pkg/edgar"
	"github.com/coolbeans/mdatool/pkg/filing"
	"github.com/coolbeans/mdatool/pkg/keyword"
	"github.com/coolbeans/mdatool/pkg/section"
)

// DownloadSettings configure the EDGAR client.
type DownloadSettings struct {
	BaseURL    string        `yaml:"base_url"`
	UserAgent  string        `yaml:"user_agent"`
	RateLimit  time.Duration `yaml:"rate_limit"`
	Jitter     time.Duration `yaml:"jitter"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// Config holds every setting of the tool. Zero values in a loaded file keep
// the defaults.
type Config struct {
	// IndexDir stores quarterly form indexes.
	IndexDir string `yaml:"index_dir"`

	// IndexTablePath is the CSV of 10-K index rows.
	IndexTablePath string `yaml:"index_10k_path"`

	// FilingDir stores filing text files.
	FilingDir string `yaml:"filing_dir"`

	// FilingTablePath is the whole-document keyword count CSV.
	FilingTablePath string `yaml:"filing_keyword_path"`

	// SectionDir stores extracted MD&A sections.
	SectionDir string `yaml:"mda_dir"`

	// SectionTablePath is the MD&A keyword count CSV.
	SectionTablePath string `yaml:"mda_keyword_path"`

	YearStart int `yaml:"year_start"`
	YearEnd   int `yaml:"year_end"`

	// Keywords is the raw comma-separated keyword list.
	Keywords string `yaml:"keywords"`

	// Workers bounds concurrent documents; 0 means one per CPU.
	Workers int `yaml:"workers"`

	// Encoding of stored filing text.
	Encoding string `yaml:"encoding"`

	// HeadingsFile overrides the section heading markers.
	HeadingsFile string `yaml:"headings_file"`

	Retry section.RetryPolicy `yaml:"retry"`

	Download DownloadSettings `yaml:"download"`

	// DatabasePath enables the SQLite record store when set.
	DatabasePath string `yaml:"database_path"`

	// MetricsFile receives prometheus metrics in text format when set.
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the built-in settings.
func Default() Config {
	downloadDefaults := edgar.DefaultConfig()
	return Config{
		IndexDir:         "./Edgar/Index",
		IndexTablePath:   "./Edgar/Index/index.10k.csv",
		FilingDir:        "./Edgar/10K",
		FilingTablePath:  "./Edgar/10k_keywords.csv",
		SectionDir:       "./Edgar/MDA",
		SectionTablePath: "./Edgar/keywords.csv",
		YearStart:        1994,
		YearEnd:          1994,
		Keywords:         "profit",
		Encoding:         string(filing.EncodingUTF8),
		Retry:            section.DefaultRetryPolicy(),
		Download: DownloadSettings{
			BaseURL:    downloadDefaults.BaseURL,
			UserAgent:  downloadDefaults.UserAgent,
			RateLimit:  downloadDefaults.RateLimit,
			Jitter:     downloadDefaults.Jitter,
			Timeout:    downloadDefaults.Timeout,
			MaxRetries: downloadDefaults.MaxRetries,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// Validate checks ranges and names.
func (config Config) Validate() error {
	var problems []error

	if config.YearStart < 1993 {
		problems = append(problems, fmt.Errorf("year_start %d precedes EDGAR full-index coverage (1993)", config.YearStart))
	}
	if config.YearEnd < config.YearStart {
		problems = append(problems, fmt.Errorf("year_end %d is before year_start %d", config.YearEnd, config.YearStart))
	}
	if config.Workers < 0 {
		problems = append(problems, fmt.Errorf("workers must not be negative"))
	}
	if config.Retry.MinBytes < 0 {
		problems = append(problems, fmt.Errorf("retry.min_bytes must not be negative"))
	}
	if config.Download.MaxRetries < 0 {
		problems = append(problems, fmt.Errorf("download.max_retries must not be negative"))
	}
	if _, err := filing.ParseEncoding(config.Encoding); err != nil {
		problems = append(problems, err)
	}
	if config.FilingDir == "" {
		problems = append(problems, fmt.Errorf("filing_dir is required"))
	}

	return errors.Join(problems...)
}

// KeywordSpec parses the configured keywords.
func (config Config) KeywordSpec() keyword.Spec {
	return keyword.ParseSpec(config.Keywords)
}

// SourceEncoding returns the parsed filing encoding.
func (config Config) SourceEncoding() filing.Encoding {
	sourceEncoding, err := filing.ParseEncoding(config.Encoding)
	if err != nil {
		return filing.EncodingUTF8
	}
	return sourceEncoding
}

// Headings returns the effective section heading markers.
func (config Config) Headings() (section.Headings, error) {
	if config.HeadingsFile == "" {
		return section.DefaultHeadings(), nil
	}
	return section.LoadHeadings(config.HeadingsFile)
}

// Extractor builds the section extractor from the heading markers and retry
// policy.
func (config Config) Extractor() (*section.Extractor, error) {
	headings, err := config.Headings()
	if err != nil {
		return nil, err
	}
	return section.NewExtractor(section.NewLocator(headings), config.Retry), nil
}

// Aggregator builds an aggregator for mode.
func (config Config) Aggregator(mode aggregate.Mode, logger *slog.Logger) (*aggregate.Aggregator, error) {
	extractor, err := config.Extractor()
	if err != nil {
		return nil, err
	}
	return aggregate.New(aggregate.Config{
		Mode:      mode,
		Keywords:  config.KeywordSpec(),
		Extractor: extractor,
		Logger:    logger,
	}), nil
}

// TablePath returns the output CSV for mode.
func (config Config) TablePath(mode aggregate.Mode) string {
	if mode == aggregate.ModeDocument {
		return config.FilingTablePath
	}
	return config.SectionTablePath
}

// EdgarConfig converts the download settings.
func (config Config) EdgarConfig() edgar.Config {
	return edgar.Config{
		BaseURL:         config.Download.BaseURL,
		IndexDirectory:  config.IndexDir,
		IndexTablePath:  config.IndexTablePath,
		FilingDirectory: config.FilingDir,
		UserAgent:       config.Download.UserAgent,
		RateLimit:       config.Download.RateLimit,
		Jitter:          config.Download.Jitter,
		Timeout:         config.Download.Timeout,
		MaxRetries:      config.Download.MaxRetries,
		RetryBaseDelay:  5 * time.Second,
	}
}

// Format renders the configuration as YAML.
func (config Config) Format() (string, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}
