package edgar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher runs the download workflow: quarterly indexes, the 10-K index
// table, then the filings themselves.
type Fetcher struct {
	config Config
	client *Client
}

// NewFetcher creates a Fetcher.
func NewFetcher(config Config) *Fetcher {
	config.defaults()
	return &Fetcher{config: config, client: NewClient(config)}
}

// DownloadIndexes fetches the form index of every quarter in the year range.
// Stored indexes are not fetched again. A quarter that cannot be fetched is
// logged and reported; it does not stop the others.
func (fetcher *Fetcher) DownloadIndexes(ctx context.Context, yearStart int, yearEnd int) ([]DownloadResult, error) {
	if yearEnd < yearStart {
		return nil, fmt.Errorf("year range %d-%d is empty", yearStart, yearEnd)
	}
	if err := os.MkdirAll(fetcher.config.IndexDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	logger := fetcher.config.Logger
	var results []DownloadResult

	for _, quarter := range Quarters(yearStart, yearEnd) {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		indexURL := FormIndexURL(fetcher.config.BaseURL, quarter)
		localPath := filepath.Join(fetcher.config.IndexDirectory, IndexFileName(quarter))

		result := DownloadResult{
			Identifier: IndexFileName(quarter),
			URL:        indexURL,
			LocalPath:  localPath,
		}

		bytesWritten, skipped, err := fetcher.client.DownloadFile(ctx, indexURL, localPath, nil)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return results, err
			}
			result.Error = err.Error()
			logger.Warn("index download failed", "url", indexURL, "error", err)
		} else {
			result.BytesWritten = bytesWritten
			result.Skipped = skipped
			result.DownloadedAt = time.Now()
			logger.Info("index ready", "file", localPath, "skipped", skipped)
		}
		results = append(results, result)
	}

	return results, nil
}

// BuildIndexTable collects the 10-K rows of every stored index and writes
// them to the index table.
func (fetcher *Fetcher) BuildIndexTable() ([]IndexRecord, error) {
	records, err := ExtractIndexDirectory(fetcher.config.IndexDirectory)
	if err != nil {
		return nil, err
	}
	if err := WriteIndexTable(fetcher.config.IndexTablePath, records); err != nil {
		return nil, err
	}
	fetcher.config.Logger.Info("index table written", "path", fetcher.config.IndexTablePath, "filings", len(records))
	return records, nil
}

// DownloadFilings fetches every filing in records that is not already
// stored, converting HTML to filtered text. Failures are recorded in the
// manifest and do not stop the run.
func (fetcher *Fetcher) DownloadFilings(ctx context.Context, records []IndexRecord) ([]DownloadResult, error) {
	if err := os.MkdirAll(fetcher.config.FilingDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create filing directory: %w", err)
	}

	manifestPath := filepath.Join(fetcher.config.FilingDirectory, ManifestFileName)
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	logger := fetcher.config.Logger
	var results []DownloadResult
	var runErr error

	for _, record := range records {
		if runErr = ctx.Err(); runErr != nil {
			break
		}

		identifier := record.Identifier()
		filingURL := strings.TrimSuffix(fetcher.config.BaseURL, "/") + "/" + strings.TrimPrefix(strings.ReplaceAll(record.FileName, "\\", "/"), "/")
		result := DownloadResult{
			Identifier: identifier,
			URL:        filingURL,
			LocalPath:  filepath.Join(fetcher.config.FilingDirectory, identifier),
		}

		bytesWritten, skipped, err := fetcher.client.DownloadFile(ctx, filingURL, result.LocalPath, ConvertFiling)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				runErr = err
				break
			}
			result.Error = err.Error()
			logger.Warn("filing download failed", "url", filingURL, "error", err)
		} else {
			result.BytesWritten = bytesWritten
			result.Skipped = skipped
			result.DownloadedAt = time.Now()
			logger.Debug("filing ready", "identifier", identifier, "skipped", skipped)
		}

		manifest.Record(&result)
		results = append(results, result)
	}

	if err := manifest.Save(manifestPath); err != nil {
		return results, err
	}
	return results, runErr
}

// Run performs the whole workflow for a year range.
func (fetcher *Fetcher) Run(ctx context.Context, yearStart int, yearEnd int) ([]DownloadResult, error) {
	if _, err := fetcher.DownloadIndexes(ctx, yearStart, yearEnd); err != nil {
		return nil, err
	}

	records, err := fetcher.BuildIndexTable()
	if err != nil {
		return nil, err
	}

	return fetcher.DownloadFilings(ctx, records)
}
