package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/mdatool/pkg/filing"
)

// Loader reads and decodes one filing by identifier.
type Loader interface {
	Load(ctx context.Context, identifier string) (filing.Document, error)
}

// SectionSink persists section text under an artifact name. Implementations
// must not overwrite an existing artifact; written is false when one exists.
type SectionSink interface {
	WriteSection(ctx context.Context, name string, text string) (written bool, err error)
}

// BatchConfig configures a Batch.
type BatchConfig struct {
	// Workers is the number of documents processed concurrently
	// (default: runtime.NumCPU()).
	Workers int

	// Sink receives located sections in section mode. Nil disables persistence.
	Sink SectionSink

	// Metrics is updated per document when set.
	Metrics *Metrics

	// Logger for per-document reports.
	Logger *slog.Logger
}

func (c *BatchConfig) defaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Batch processes many documents with per-document failure isolation.
type Batch struct {
	aggregator *Aggregator
	loader     Loader
	cfg        BatchConfig
}

// NewBatch creates a Batch.
func NewBatch(aggregator *Aggregator, loader Loader, cfg BatchConfig) *Batch {
	cfg.defaults()
	return &Batch{
		aggregator: aggregator,
		loader:     loader,
		cfg:        cfg,
	}
}

// Run processes identifiers and returns a report whose entries and records
// follow the order of identifiers, whatever order workers finish in.
// Per-document failures are recorded in the report; only context
// cancellation aborts the run.
func (batch *Batch) Run(ctx context.Context, identifiers []string) (*Report, error) {
	entries := make([]Entry, len(identifiers))
	records := make([]*Record, len(identifiers))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(batch.cfg.Workers)

	for index, identifier := range identifiers {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			entries[index], records[index] = batch.processOne(groupCtx, identifier)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	return newReport(batch.aggregator, entries, records), nil
}

// ProcessOne runs a single identifier through the same path as Run.
func (batch *Batch) ProcessOne(ctx context.Context, identifier string) (Entry, *Record) {
	return batch.processOne(ctx, identifier)
}

func (batch *Batch) processOne(ctx context.Context, identifier string) (Entry, *Record) {
	startTime := time.Now()
	entry, record := batch.process(ctx, identifier)
	entry.Duration = time.Since(startTime)

	logger := batch.cfg.Logger.With("identifier", identifier, "status", entry.Status)
	switch entry.Status {
	case StatusFailed:
		logger.Warn("filing failed", "error", entry.Error)
	case StatusSkipped:
		logger.Info("filing skipped", "reason", entry.Error)
	default:
		logger.Debug("filing processed", "total_words", entry.TotalWords, "retried", entry.Retried)
	}

	if batch.cfg.Metrics != nil {
		batch.cfg.Metrics.Observe(entry, record, batch.aggregator.Keywords())
	}
	return entry, record
}

func (batch *Batch) process(ctx context.Context, identifier string) (Entry, *Record) {
	document, err := batch.loader.Load(ctx, identifier)
	if err != nil {
		return Entry{Identifier: identifier, Status: StatusFailed, Error: err.Error(), Cause: failureCause(err)}, nil
	}

	result, err := batch.aggregator.Process(document)
	if err != nil {
		status := StatusFailed
		if errors.Is(err, ErrSectionNotFound) {
			status = StatusSkipped
		}
		return Entry{Identifier: identifier, Status: status, Error: err.Error(), Cause: failureCause(err), Retried: result.Retried}, nil
	}

	entry := Entry{
		Identifier: identifier,
		Status:     StatusProcessed,
		Retried:    result.Retried,
		TotalWords: result.Record.TotalWords,
	}

	if result.Section != nil {
		entry.SectionBytes = len(result.Section.Text)
		entry.Artifact = result.ArtifactName

		if batch.cfg.Sink != nil {
			written, err := batch.cfg.Sink.WriteSection(ctx, result.ArtifactName, result.Section.Text)
			if err != nil {
				return Entry{
					Identifier: identifier,
					Status:     StatusFailed,
					Error:      fmt.Sprintf("persisting section %s: %v", result.ArtifactName, err),
					Cause:      CausePersist,
					Retried:    result.Retried,
				}, nil
			}
			entry.ArtifactWritten = written
		}
	}

	return entry, result.Record
}

// failureCause classifies an error into the reported taxonomy.
func failureCause(err error) Cause {
	switch {
	case errors.Is(err, ErrSectionNotFound):
		return CauseSectionNotFound
	case errors.Is(err, filing.ErrMalformedIdentifier):
		return CauseMalformedIdentifier
	case errors.Is(err, filing.ErrDecoding):
		return CauseDecoding
	default:
		return CauseLoad
	}
}
