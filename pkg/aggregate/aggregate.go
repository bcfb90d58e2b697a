// Package aggregate turns filings into keyword count records.
//
// Process is a pure per-document transform; Batch fans documents out over a
// worker pool and merges the results back into input order.
package aggregate

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coolbeans/mdatool/pkg/filing"
	"github.com/coolbeans/mdatool/pkg/keyword"
	"github.com/coolbeans/mdatool/pkg/normalize"
	"github.com/coolbeans/mdatool/pkg/section"
)

// ErrSectionNotFound is returned in section mode when no MD&A section was
// found after the retry policy ran. The document contributes no record.
var ErrSectionNotFound = errors.New("MD&A section not found")

// SectionArtifactExtension replaces the filing extension for persisted sections.
const SectionArtifactExtension = ".mda"

// Mode selects what text keywords are counted in.
type Mode int

const (
	// ModeSection counts inside the located MD&A section.
	ModeSection Mode = iota

	// ModeDocument counts across the whole normalized filing.
	ModeDocument
)

// String returns the mode name.
func (mode Mode) String() string {
	switch mode {
	case ModeSection:
		return "section"
	case ModeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// ParseMode resolves a mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "section", "mda":
		return ModeSection, nil
	case "document", "10k", "tenk":
		return ModeDocument, nil
	default:
		return 0, fmt.Errorf("unknown mode: %q (available: section, document)", name)
	}
}

// Record is one output row: metadata, total words, and counts aligned with
// the keyword spec.
type Record struct {
	Metadata   filing.Metadata `json:"metadata"`
	TotalWords int             `json:"total_words"`
	Counts     []int           `json:"counts"`
}

// Row renders the record in Header order.
func (record Record) Row() []string {
	row := make([]string, 0, len(fixedColumns)+len(record.Counts))
	row = append(row,
		record.Metadata.Name,
		record.Metadata.RegistrantID,
		record.Metadata.Year,
		record.Metadata.FiledDate,
		strconv.Itoa(record.TotalWords),
	)
	for _, count := range record.Counts {
		row = append(row, strconv.Itoa(count))
	}
	return row
}

var fixedColumns = []string{"NAME", "CIK", "YEAR", "FILEDASOFDATE", "TOTALWORDS"}

// Header returns the table header for a keyword spec.
func Header(spec keyword.Spec) []string {
	header := make([]string, 0, len(fixedColumns)+len(spec))
	header = append(header, fixedColumns...)
	return append(header, spec.Headers()...)
}

// ArtifactName derives the section artifact name from a filing identifier.
func ArtifactName(identifier string) string {
	base := filepath.Base(identifier)
	return strings.TrimSuffix(base, filepath.Ext(base)) + SectionArtifactExtension
}

// Result is the outcome of processing one document.
type Result struct {
	Identifier string

	// Record is nil when the document was skipped.
	Record *Record

	// Section is the located section in section mode.
	Section *section.Section

	// ArtifactName is where Section should be persisted, empty in document mode.
	ArtifactName string

	// Retried reports whether the section search was re-entered.
	Retried bool
}

// Config configures an Aggregator.
type Config struct {
	// Mode selects section or whole-document counting.
	Mode Mode

	// Keywords are counted in spec order. An empty spec is valid.
	Keywords keyword.Spec

	// Extractor locates sections. Defaults to the 10-K headings and retry policy.
	Extractor *section.Extractor

	// Logger for debug messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Extractor == nil {
		c.Extractor = section.NewExtractor(section.NewLocator(section.DefaultHeadings()), section.DefaultRetryPolicy())
	}
	if c.Keywords == nil {
		c.Keywords = keyword.Spec{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Aggregator processes single documents. It holds no per-document state and
// is safe for concurrent use.
type Aggregator struct {
	cfg Config
}

// New creates an Aggregator.
func New(cfg Config) *Aggregator {
	cfg.defaults()
	return &Aggregator{cfg: cfg}
}

// Mode returns the configured mode.
func (aggregator *Aggregator) Mode() Mode {
	return aggregator.cfg.Mode
}

// Keywords returns the configured keyword spec.
func (aggregator *Aggregator) Keywords() keyword.Spec {
	return aggregator.cfg.Keywords
}

// Header returns the table header for the configured keywords.
func (aggregator *Aggregator) Header() []string {
	return Header(aggregator.cfg.Keywords)
}

// Process normalizes a document and counts keywords in the section or the
// whole text. In section mode a missing section yields ErrSectionNotFound.
func (aggregator *Aggregator) Process(document filing.Document) (Result, error) {
	text := normalize.Text(document.Text)
	result := Result{Identifier: document.Identifier}

	body := text
	if aggregator.cfg.Mode == ModeSection {
		extraction := aggregator.cfg.Extractor.Extract(text)
		result.Retried = extraction.Retried
		if extraction.Section == nil {
			return result, fmt.Errorf("%s: %w", document.Identifier, ErrSectionNotFound)
		}
		result.Section = extraction.Section
		result.ArtifactName = ArtifactName(document.Identifier)
		body = extraction.Section.Text
	}

	result.Record = &Record{
		Metadata:   document.Metadata,
		TotalWords: keyword.TotalWords(body),
		Counts:     keyword.CountAll(body, aggregator.cfg.Keywords),
	}

	aggregator.cfg.Logger.Debug("processed filing",
		"identifier", document.Identifier,
		"mode", aggregator.cfg.Mode,
		"total_words", result.Record.TotalWords,
		"retried", result.Retried,
	)

	return result, nil
}
