package aggregate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the outcome of one document.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Cause classifies why a document was skipped or failed.
type Cause string

const (
	CauseSectionNotFound     Cause = "section_not_found"
	CauseMalformedIdentifier Cause = "malformed_identifier"
	CauseDecoding            Cause = "decoding_failure"
	CauseLoad                Cause = "load_error"
	CausePersist             Cause = "persist_error"
)

// Entry records the outcome of one document.
type Entry struct {
	Identifier      string        `json:"identifier"`
	Status          Status        `json:"status"`
	Cause           Cause         `json:"cause,omitempty"`
	Error           string        `json:"error,omitempty"`
	Retried         bool          `json:"retried,omitempty"`
	TotalWords      int           `json:"total_words,omitempty"`
	SectionBytes    int           `json:"section_bytes,omitempty"`
	Artifact        string        `json:"artifact,omitempty"`
	ArtifactWritten bool          `json:"artifact_written,omitempty"`
	Duration        time.Duration `json:"duration,omitempty"`
}

// Report summarizes a batch run. Entries and Records are in input order.
type Report struct {
	Mode      Mode     `json:"-"`
	ModeName  string   `json:"mode"`
	Header    []string `json:"header"`
	Attempted int      `json:"attempted"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Retried   int      `json:"retried"`
	Entries   []Entry  `json:"entries"`
	Records   []Record `json:"records"`
}

func newReport(aggregator *Aggregator, entries []Entry, records []*Record) *Report {
	report := &Report{
		Mode:     aggregator.Mode(),
		ModeName: aggregator.Mode().String(),
		Header:   aggregator.Header(),
		Entries:  entries,
		Records:  make([]Record, 0, len(records)),
	}

	for index, entry := range entries {
		report.Attempted++
		if entry.Retried {
			report.Retried++
		}
		switch entry.Status {
		case StatusProcessed:
			report.Processed++
			if records[index] != nil {
				report.Records = append(report.Records, *records[index])
			}
		case StatusSkipped:
			report.Skipped++
		case StatusFailed:
			report.Failed++
		}
	}

	return report
}

// Rows returns the header followed by one row per record.
func (report *Report) Rows() [][]string {
	rows := make([][]string, 0, len(report.Records)+1)
	rows = append(rows, report.Header)
	for _, record := range report.Records {
		rows = append(rows, record.Row())
	}
	return rows
}

// FormatReport formats a Report for terminal output.
func FormatReport(report *Report) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("\nKeyword Count Report (%s mode)\n", report.ModeName))
	builder.WriteString(strings.Repeat("═", 60) + "\n")
	builder.WriteString(fmt.Sprintf("Attempted: %d | Processed: %d | Skipped: %d | Failed: %d | Retried: %d\n",
		report.Attempted, report.Processed, report.Skipped, report.Failed, report.Retried))
	builder.WriteString(strings.Repeat("─", 60) + "\n")

	for _, entry := range report.Entries {
		status := string(entry.Status)
		switch entry.Status {
		case StatusProcessed:
			status = "[OK]"
		case StatusSkipped:
			status = "[SKIP]"
		case StatusFailed:
			status = "[FAIL]"
		}

		line := fmt.Sprintf("  %-8s %-40s", status, entry.Identifier)
		if entry.Status == StatusProcessed {
			line += fmt.Sprintf(" (%d words)", entry.TotalWords)
		}
		if entry.Retried {
			line += " retried"
		}
		if entry.Error != "" {
			line += fmt.Sprintf(" error: %s", entry.Error)
		}
		builder.WriteString(line + "\n")
	}

	return builder.String()
}

// FormatReportJSON formats a Report as JSON.
func FormatReportJSON(report *Report) string {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
