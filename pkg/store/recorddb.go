package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/coolbeans/mdatool/pkg/aggregate"
	"github.com/coolbeans/mdatool/pkg/filing"
	"github.com/coolbeans/mdatool/pkg/keyword"
)

const recordSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	keywords    TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	attempted   INTEGER NOT NULL DEFAULT 0,
	processed   INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS count_records (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	identifier  TEXT NOT NULL,
	name        TEXT NOT NULL,
	cik         TEXT NOT NULL,
	year        TEXT NOT NULL,
	filed_date  TEXT NOT NULL,
	total_words INTEGER NOT NULL,
	PRIMARY KEY (run_id, identifier)
);

CREATE TABLE IF NOT EXISTS keyword_counts (
	run_id     TEXT NOT NULL,
	identifier TEXT NOT NULL,
	position   INTEGER NOT NULL,
	keyword    TEXT NOT NULL,
	hits       INTEGER NOT NULL,
	PRIMARY KEY (run_id, identifier, position),
	FOREIGN KEY (run_id, identifier) REFERENCES count_records(run_id, identifier) ON DELETE CASCADE
);
`

// recordPragmas go in the DSN so every pooled connection gets them.
var recordPragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"busy_timeout(10000)",
	"synchronous(NORMAL)",
}

func recordDSN(path string) string {
	params := make([]string, len(recordPragmas))
	for index, pragma := range recordPragmas {
		params[index] = "_pragma=" + pragma
	}
	return path + "?" + strings.Join(params, "&")
}

// Run describes one stored batch run.
type Run struct {
	ID         string
	Mode       string
	Keywords   keyword.Spec
	StartedAt  time.Time
	FinishedAt time.Time
	Attempted  int
	Processed  int
	Skipped    int
	Failed     int
}

// RecordDB stores count records in SQLite, grouped by run.
type RecordDB struct {
	db *sql.DB
}

// OpenRecordDB opens or creates the database at path. Use ":memory:" for a
// private in-memory database.
func OpenRecordDB(path string) (*RecordDB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", recordDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(recordSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &RecordDB{db: db}, nil
}

// Close closes the database.
func (recordDB *RecordDB) Close() error {
	return recordDB.db.Close()
}

// BeginRun registers a new run and returns its ID.
func (recordDB *RecordDB) BeginRun(ctx context.Context, mode aggregate.Mode, spec keyword.Spec) (string, error) {
	runID := uuid.NewString()
	_, err := recordDB.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, keywords, started_at) VALUES (?, ?, ?, ?)`,
		runID, mode.String(), strings.Join(spec.Strings(), ","), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// InsertRecord stores one record and its keyword counts under runID.
func (recordDB *RecordDB) InsertRecord(ctx context.Context, runID string, identifier string, spec keyword.Spec, record aggregate.Record) error {
	if len(record.Counts) != len(spec) {
		return fmt.Errorf("record %s has %d counts for %d keywords", identifier, len(record.Counts), len(spec))
	}

	tx, err := recordDB.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO count_records (run_id, identifier, name, cik, year, filed_date, total_words)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, identifier,
		record.Metadata.Name, record.Metadata.RegistrantID, record.Metadata.Year, record.Metadata.FiledDate,
		record.TotalWords,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record %s: %w", identifier, err)
	}

	for position, count := range record.Counts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO keyword_counts (run_id, identifier, position, keyword, hits) VALUES (?, ?, ?, ?, ?)`,
			runID, identifier, position, spec[position].Text, count,
		)
		if err != nil {
			return fmt.Errorf("failed to insert keyword count for %s: %w", identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record %s: %w", identifier, err)
	}
	return nil
}

// FinishRun stores the run tallies from a report.
func (recordDB *RecordDB) FinishRun(ctx context.Context, runID string, report *aggregate.Report) error {
	result, err := recordDB.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, attempted = ?, processed = ?, skipped = ?, failed = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		report.Attempted, report.Processed, report.Skipped, report.Failed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// SaveReport stores a complete batch run and returns its ID.
func (recordDB *RecordDB) SaveReport(ctx context.Context, spec keyword.Spec, report *aggregate.Report) (string, error) {
	runID, err := recordDB.BeginRun(ctx, report.Mode, spec)
	if err != nil {
		return "", err
	}

	recordIndex := 0
	for _, entry := range report.Entries {
		if entry.Status != aggregate.StatusProcessed {
			continue
		}
		if recordIndex >= len(report.Records) {
			break
		}
		if err := recordDB.InsertRecord(ctx, runID, entry.Identifier, spec, report.Records[recordIndex]); err != nil {
			return runID, err
		}
		recordIndex++
	}

	return runID, recordDB.FinishRun(ctx, runID, report)
}

// Records returns the records of a run in insertion order.
func (recordDB *RecordDB) Records(ctx context.Context, runID string) ([]aggregate.Record, error) {
	rows, err := recordDB.db.QueryContext(ctx,
		`SELECT identifier, name, cik, year, filed_date, total_words
		 FROM count_records WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	var identifiers []string
	var records []aggregate.Record
	for rows.Next() {
		var identifier string
		var record aggregate.Record
		if err := rows.Scan(
			&identifier,
			&record.Metadata.Name,
			&record.Metadata.RegistrantID,
			&record.Metadata.Year,
			&record.Metadata.FiledDate,
			&record.TotalWords,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		identifiers = append(identifiers, identifier)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	rows.Close()

	for index, identifier := range identifiers {
		counts, err := recordDB.keywordCounts(ctx, runID, identifier)
		if err != nil {
			return nil, err
		}
		records[index].Counts = counts
	}

	return records, nil
}

func (recordDB *RecordDB) keywordCounts(ctx context.Context, runID string, identifier string) ([]int, error) {
	rows, err := recordDB.db.QueryContext(ctx,
		`SELECT hits FROM keyword_counts WHERE run_id = ? AND identifier = ? ORDER BY position`,
		runID, identifier,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword counts: %w", err)
	}
	defer rows.Close()

	counts := []int{}
	for rows.Next() {
		var hits int
		if err := rows.Scan(&hits); err != nil {
			return nil, fmt.Errorf("failed to scan keyword count: %w", err)
		}
		counts = append(counts, hits)
	}
	return counts, rows.Err()
}

// Runs returns all stored runs, oldest first.
func (recordDB *RecordDB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := recordDB.db.QueryContext(ctx,
		`SELECT id, mode, keywords, started_at, COALESCE(finished_at, ''), attempted, processed, skipped, failed
		 FROM runs ORDER BY started_at, rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var keywords, startedAt, finishedAt string
		if err := rows.Scan(&run.ID, &run.Mode, &keywords, &startedAt, &finishedAt,
			&run.Attempted, &run.Processed, &run.Skipped, &run.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Keywords = keyword.NewSpec(splitKeywords(keywords)...)
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if finishedAt != "" {
			run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordCount returns the number of records stored for a filing across runs.
func (recordDB *RecordDB) RecordCount(ctx context.Context, metadata filing.Metadata) (int, error) {
	var count int
	err := recordDB.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM count_records WHERE name = ? AND cik = ? AND year = ? AND filed_date = ?`,
		metadata.Name, metadata.RegistrantID, metadata.Year, metadata.FiledDate,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func splitKeywords(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
