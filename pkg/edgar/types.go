// Package edgar downloads EDGAR quarterly form indexes and 10-K filings and
// stores the filings as plain text named by filing identifier.
package edgar

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultBaseURL is the root of the EDGAR archive.
const DefaultBaseURL = "https://www.sec.gov/Archives"

// TenKFormType is the form type whose index rows are collected.
const TenKFormType = "10-K"

// IndexRecord is one 10-K row from a quarterly form index.
type IndexRecord struct {
	FormType    string `json:"form_type"`
	CompanyName string `json:"company_name"`
	CIK         string `json:"cik"`
	Year        string `json:"year"`
	FileName    string `json:"file_name"`
	DateFiled   string `json:"date_filed"`
}

// Quarter identifies one quarterly index.
type Quarter struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// DownloadResult captures the outcome of one download.
type DownloadResult struct {
	Identifier   string    `json:"identifier"`
	URL          string    `json:"url"`
	LocalPath    string    `json:"local_path"`
	BytesWritten int64     `json:"bytes_written"`
	Skipped      bool      `json:"skipped"`
	DownloadedAt time.Time `json:"downloaded_at"`
	Error        string    `json:"error,omitempty"`
}

// Config holds configuration for the EDGAR client and fetcher.
type Config struct {
	// BaseURL is the archive root (default: DefaultBaseURL).
	BaseURL string

	// IndexDirectory stores the downloaded quarterly form indexes.
	IndexDirectory string

	// IndexTablePath is the CSV of collected 10-K index rows.
	IndexTablePath string

	// FilingDirectory stores the converted filing text files.
	FilingDirectory string

	// UserAgent is sent with every request. SEC requires a contact address.
	UserAgent string

	// RateLimit is the minimum interval between requests to one host.
	RateLimit time.Duration

	// Jitter adds a random delay in [0, Jitter) on top of RateLimit.
	Jitter time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxRetries bounds attempts for transient failures.
	MaxRetries int

	// RetryBaseDelay is the first backoff delay; later ones double.
	RetryBaseDelay time.Duration

	// HTTPClient allows injection of a custom HTTP client (for testing).
	HTTPClient *http.Client

	// Logger for download progress.
	Logger *slog.Logger
}

// DefaultConfig returns settings that pace requests between 0.5s and 2s.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		IndexDirectory:  "./Edgar/Index",
		IndexTablePath:  "./Edgar/Index/index.10k.csv",
		FilingDirectory: "./Edgar/10K",
		UserAgent:       "mdatool/1.0 (admin@example.com)",
		RateLimit:       500 * time.Millisecond,
		Jitter:          1500 * time.Millisecond,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		RetryBaseDelay:  5 * time.Second,
	}
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultConfig().UserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
