package store

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TableWriter writes comma-delimited rows with every field quoted,
// regardless of content. Output stays readable by csv.Reader.
type TableWriter struct {
	// UseCRLF terminates rows with \r\n instead of \n.
	UseCRLF bool

	w   *bufio.Writer
	err error
}

// NewTableWriter returns a TableWriter writing to w.
func NewTableWriter(w io.Writer) *TableWriter {
	return &TableWriter{w: bufio.NewWriter(w)}
}

// Write writes one row.
func (writer *TableWriter) Write(row []string) error {
	if writer.err != nil {
		return writer.err
	}

	for index, field := range row {
		if index > 0 {
			writer.w.WriteByte(',')
		}
		writer.w.WriteByte('"')
		writer.w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		writer.w.WriteByte('"')
	}

	if writer.UseCRLF {
		_, writer.err = writer.w.WriteString("\r\n")
	} else {
		writer.err = writer.w.WriteByte('\n')
	}
	return writer.err
}

// WriteAll writes rows and flushes.
func (writer *TableWriter) WriteAll(rows [][]string) error {
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Flush writes buffered data to the underlying writer.
func (writer *TableWriter) Flush() {
	if err := writer.w.Flush(); err != nil && writer.err == nil {
		writer.err = err
	}
}

// Error reports any error from a previous Write or Flush.
func (writer *TableWriter) Error() error {
	return writer.err
}

// WriteTableFile writes rows to path, replacing any existing file.
func WriteTableFile(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create table directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := NewTableWriter(file).WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// ReadTableFile reads every row of a comma-delimited file.
func ReadTableFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rows, nil
}
