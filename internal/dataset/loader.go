package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupportedFormat is returned for files that are neither delimited text nor xlsx
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Supported data file extensions, lower case
var (
	TextExtensions  = []string{".csv", ".tsv", ".txt"}
	ExcelExtensions = []string{".xlsx", ".xlsm"}
)

// IsDataFile reports whether path has a loadable extension
func IsDataFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range append(append([]string{}, TextExtensions...), ExcelExtensions...) {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads a table from path, choosing the reader by extension
func Load(path string) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return LoadDelimited(path, ',')
	case ".tsv":
		return LoadDelimited(path, '\t')
	case ".xlsx", ".xlsm":
		return LoadExcel(path, "")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadDelimited reads a delimited text file. UTF-8 and UTF-16 with a BOM are
// decoded; bytes that are not valid UTF-8 are read as Latin-1.
func LoadDelimited(path string, comma rune) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return fromRecords(records), nil
}

func decodeText(raw []byte) ([]byte, error) {
	// BOMOverride switches to UTF-16 when a UTF-16 BOM is present and strips a UTF-8 BOM
	data, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return nil, err
	}
	if utf8.Valid(data) {
		return data, nil
	}
	return charmap.ISO8859_1.NewDecoder().Bytes(data)
}

// LoadExcel reads one sheet of a workbook; an empty sheet name selects the first sheet
func LoadExcel(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return fromRecords(rows), nil
}

// SheetNames lists the sheets of a workbook in order
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// fromRecords treats the first record as the header and drops trailing blank rows
func fromRecords(records [][]string) *Table {
	if len(records) == 0 {
		return New(nil, nil)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = NormalizeHeader(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		header[i] = h
	}

	rows := records[1:]
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}

	// widen the header when data rows are longer than it
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i := len(header); i < width; i++ {
		header = append(header, fmt.Sprintf("Unnamed: %d", i))
	}

	return New(header, rows)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
