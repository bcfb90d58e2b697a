package edgar

import (
	"bytes"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
)

// formIndex builds a fixed-width form.idx body. '#' in a company name is
// replaced by the ISO-8859-1 byte for 'É'.
func formIndex(rows ...[4]string) []byte {
	var buffer bytes.Buffer
	buffer.WriteString("Description:           Master Index of EDGAR Dissemination Feed by Form Type\n")
	buffer.WriteString("Last Data Received:    March 31, 2001\n\n")
	buffer.WriteString(fmt.Sprintf("%-12s%-62s%-12s%-12s%s\n", "Form Type", "Company Name", "CIK", "Date Filed", "File Name"))
	buffer.WriteString("-------------------------------------------------------------------------------------------------------------\n")
	for _, row := range rows {
		buffer.WriteString(fmt.Sprintf("%-12s%-62s%-12s%-12s%s\n", row[0], row[1], row[2], row[3], "edgar/data/"+row[2]+"/"+row[2]+"-01.txt"))
	}
	return bytes.ReplaceAll(buffer.Bytes(), []byte("#"), []byte{0xC9})
}

func sampleIndex() []byte {
	return formIndex(
		[4]string{"10-C", "EARLY CO", "100", "2001-01-02"},
		[4]string{"10-K", "ACME CORP", "1234", "2001-03-15"},
		[4]string{"10-K", "CAF# HOLDINGS/DE", "5678", "2001-03-30"},
		[4]string{"10-K/A", "AMENDED INC", "9999", "2001-03-31"},
		[4]string{"10-K", "AFTER THE BLOCK", "4242", "2001-04-01"},
	)
}

func TestParseFormIndex(t *testing.T) {
	records, err := ParseFormIndex(bytes.NewReader(sampleIndex()), "2001")
	if err != nil {
		t.Fatalf("ParseFormIndex failed: %v", err)
	}

	expected := []IndexRecord{
		{FormType: "10-K", CompanyName: "ACME CORP", CIK: "1234", Year: "2001", FileName: "edgar/data/1234/1234-01.txt", DateFiled: "2001-03-15"},
		{FormType: "10-K", CompanyName: "CAFÉ HOLDINGS/DE", CIK: "5678", Year: "2001", FileName: "edgar/data/5678/5678-01.txt", DateFiled: "2001-03-30"},
	}
	if !reflect.DeepEqual(records, expected) {
		t.Errorf("records = %+v\nwant %+v", records, expected)
	}
}

func TestParseFormIndex_NoTenK(t *testing.T) {
	records, err := ParseFormIndex(bytes.NewReader(formIndex([4]string{"8-K", "ACME CORP", "1234", "2001-03-15"})), "2001")
	if err != nil {
		t.Fatalf("ParseFormIndex failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %+v", records)
	}
}

func TestParseFormIndex_RowBeforeHeader(t *testing.T) {
	if _, err := ParseFormIndex(bytes.NewReader([]byte("10-K        ACME\n")), "2001"); err == nil {
		t.Error("expected an error for a row before the header")
	}
}

func TestIndexRecord_Identifier(t *testing.T) {
	testCases := []struct {
		record   IndexRecord
		expected string
	}{
		{
			record:   IndexRecord{CompanyName: "ACME CORP", CIK: "1234", Year: "2001", DateFiled: "2001-03-15"},
			expected: "ACMECORP_1234_2001_20010315.txt",
		},
		{
			record:   IndexRecord{CompanyName: "CAFÉ HOLDINGS/DE", CIK: "5678", Year: "2001", DateFiled: "2001-03-30"},
			expected: "CAFÉHOLDINGSDE_5678_2001_20010330.txt",
		},
		{
			record:   IndexRecord{CompanyName: "UNDER_SCORE LLC", CIK: "1", Year: "1994", DateFiled: "1994-12-01"},
			expected: "UNDERSCORELLC_1_1994_19941201.txt",
		},
	}

	for _, testCase := range testCases {
		if result := testCase.record.Identifier(); result != testCase.expected {
			t.Errorf("Identifier() = %q, want %q", result, testCase.expected)
		}
	}
}

func TestIndexTable_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.10k.csv")
	records, err := ParseFormIndex(bytes.NewReader(sampleIndex()), "2001")
	if err != nil {
		t.Fatalf("ParseFormIndex failed: %v", err)
	}

	if err := WriteIndexTable(path, records); err != nil {
		t.Fatalf("WriteIndexTable failed: %v", err)
	}
	readBack, err := ReadIndexTable(path)
	if err != nil {
		t.Fatalf("ReadIndexTable failed: %v", err)
	}
	if !reflect.DeepEqual(readBack, records) {
		t.Errorf("read back %+v, want %+v", readBack, records)
	}
}

func TestIndexFileNames(t *testing.T) {
	quarter := Quarter{Year: 2001, Quarter: 3}
	if name := IndexFileName(quarter); name != "2001_qtr3.index" {
		t.Errorf("IndexFileName = %q", name)
	}
	if url := FormIndexURL("https://www.sec.gov/Archives/", quarter); url != "https://www.sec.gov/Archives/edgar/full-index/2001/QTR3/form.idx" {
		t.Errorf("FormIndexURL = %q", url)
	}

	parsed, ok := ParseIndexFileName("/data/Index/2001_qtr3.index")
	if !ok || parsed != quarter {
		t.Errorf("ParseIndexFileName = %+v, %v", parsed, ok)
	}
	if _, ok := ParseIndexFileName("notes.index"); ok {
		t.Error("expected no match for an unrelated file")
	}
}

func TestQuarters(t *testing.T) {
	quarters := Quarters(1994, 1995)
	if len(quarters) != 8 || quarters[0] != (Quarter{Year: 1994, Quarter: 1}) || quarters[7] != (Quarter{Year: 1995, Quarter: 4}) {
		t.Errorf("unexpected quarters %+v", quarters)
	}
	if len(Quarters(1995, 1994)) != 0 {
		t.Error("inverted range should be empty")
	}
}
