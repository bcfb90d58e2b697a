package edgar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/coolbeans/mdatool/pkg/filing"
	"github.com/coolbeans/mdatool/pkg/store"
)

// IndexFileExtension is the extension of stored quarterly indexes.
const IndexFileExtension = ".index"

var indexFilePattern = regexp.MustCompile(`^(\d{4})_qtr([1-4])\.index$`)

// indexColumns are the form.idx header labels, in column order.
var indexColumns = []string{"Form Type", "Company Name", "CIK", "Date Filed", "File Name"}

// FormIndexURL returns the URL of a quarterly form index.
func FormIndexURL(baseURL string, quarter Quarter) string {
	return fmt.Sprintf("%s/edgar/full-index/%d/QTR%d/form.idx", strings.TrimSuffix(baseURL, "/"), quarter.Year, quarter.Quarter)
}

// IndexFileName returns the local file name of a quarterly index.
func IndexFileName(quarter Quarter) string {
	return fmt.Sprintf("%d_qtr%d%s", quarter.Year, quarter.Quarter, IndexFileExtension)
}

// ParseIndexFileName recovers the quarter from an index file name.
func ParseIndexFileName(name string) (Quarter, bool) {
	match := indexFilePattern.FindStringSubmatch(filepath.Base(name))
	if match == nil {
		return Quarter{}, false
	}
	var quarter Quarter
	fmt.Sscanf(match[1], "%d", &quarter.Year)
	fmt.Sscanf(match[2], "%d", &quarter.Quarter)
	return quarter, true
}

// Quarters lists every quarter from yearStart through yearEnd.
func Quarters(yearStart int, yearEnd int) []Quarter {
	var quarters []Quarter
	for year := yearStart; year <= yearEnd; year++ {
		for quarter := 1; quarter <= 4; quarter++ {
			quarters = append(quarters, Quarter{Year: year, Quarter: quarter})
		}
	}
	return quarters
}

// ParseFormIndex extracts the 10-K rows of an ISO-8859-1 encoded form.idx.
// Column offsets come from the "Form Type" header line; index rows are
// sorted by form type, so parsing stops at the first row after the 10-K
// block. year is recorded on every row.
func ParseFormIndex(reader io.Reader, year string) ([]IndexRecord, error) {
	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(reader))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var records []IndexRecord
	var offsets []int
	arrived := false

	for scanner.Scan() {
		row := scanner.Text()

		switch {
		case strings.HasPrefix(row, "Form Type"):
			offsets = columnOffsets(row)

		case strings.HasPrefix(row, TenKFormType+" "):
			if offsets == nil {
				return nil, fmt.Errorf("10-K row before the index header")
			}
			arrived = true
			records = append(records, parseIndexRow(row, offsets, year))

		case arrived:
			return records, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading form index: %w", err)
	}

	return records, nil
}

func columnOffsets(header string) []int {
	offsets := make([]int, len(indexColumns))
	for index, label := range indexColumns {
		offsets[index] = -1
		if position := strings.Index(header, label); position != -1 {
			offsets[index] = utf8.RuneCountInString(header[:position])
		}
	}
	return offsets
}

// parseIndexRow slices a fixed-width row at the header offsets, counted in
// characters.
func parseIndexRow(row string, offsets []int, year string) IndexRecord {
	characters := []rune(row)
	fields := make([]string, len(offsets))
	for index, begin := range offsets {
		end := len(characters)
		if index+1 < len(offsets) {
			end = offsets[index+1]
		}
		if begin < 0 || begin > len(characters) {
			continue
		}
		if end > len(characters) || end < begin {
			end = len(characters)
		}
		fields[index] = strings.Trim(strings.TrimRight(string(characters[begin:end]), " \t\r"), `"`)
	}

	return IndexRecord{
		FormType:    fields[0],
		CompanyName: fields[1],
		CIK:         fields[2],
		Year:        year,
		FileName:    fields[4],
		DateFiled:   fields[3],
	}
}

// Identifier returns the filing identifier used to store the record's text.
func (record IndexRecord) Identifier() string {
	metadata := filing.Metadata{
		Name:         filing.SanitizeName(record.CompanyName),
		RegistrantID: record.CIK,
		Year:         record.Year,
		FiledDate:    strings.ReplaceAll(record.DateFiled, "-", ""),
	}
	return metadata.Identifier(store.FilingExtension)
}

// Row renders the record as an index table row.
func (record IndexRecord) Row() []string {
	return []string{record.FormType, record.CompanyName, record.CIK, record.Year, record.FileName, record.DateFiled}
}

// WriteIndexTable writes records to a quote-all CSV without a header.
func WriteIndexTable(path string, records []IndexRecord) error {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.Row())
	}
	return store.WriteTableFile(path, rows)
}

// ReadIndexTable reads records written by WriteIndexTable. Blank and short
// rows are skipped.
func ReadIndexTable(path string) ([]IndexRecord, error) {
	rows, err := store.ReadTableFile(path)
	if err != nil {
		return nil, err
	}

	records := make([]IndexRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		records = append(records, IndexRecord{
			FormType:    row[0],
			CompanyName: row[1],
			CIK:         row[2],
			Year:        row[3],
			FileName:    row[4],
			DateFiled:   row[5],
		})
	}
	return records, nil
}

// ExtractIndexDirectory parses every stored quarterly index in dir, in file
// name order, and returns their 10-K rows.
func ExtractIndexDirectory(dir string) ([]IndexRecord, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+IndexFileExtension))
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	sort.Strings(matches)

	var records []IndexRecord
	for _, indexPath := range matches {
		quarter, ok := ParseIndexFileName(indexPath)
		if !ok {
			continue
		}

		file, err := os.Open(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", indexPath, err)
		}
		indexRecords, err := ParseFormIndex(file, fmt.Sprintf("%d", quarter.Year))
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", indexPath, err)
		}
		records = append(records, indexRecords...)
	}

	return records, nil
}
