package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a workbook report
type Sheet struct {
	Name    string
	Headers []string
	Records [][]string
}

// WriteExcel writes the sheets, in order, to a new workbook at filePath
func WriteExcel(filePath string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		name := sheetName(sheet.Name, i)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}

		row := 1
		if len(sheet.Headers) > 0 {
			if err := writeRow(f, name, row, sheet.Headers); err != nil {
				return err
			}
			row++
		}
		for _, record := range sheet.Records {
			if err := writeRow(f, name, row, record); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d of %q: %w", row, sheet, err)
	}
	return nil
}

// sheetName applies Excel's 31 character limit and forbidden characters
func sheetName(name string, index int) string {
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}
	return name
}

// IsExcelPath reports whether the path should be written as a workbook
func IsExcelPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xlsx" || ext == ".xlsm"
}

// WriteReport writes headers and records as CSV or xlsx depending on the extension
func WriteReport(filePath string, headers []string, records [][]string) error {
	if IsExcelPath(filePath) {
		return WriteExcel(filePath, []Sheet{{Name: "Report", Headers: headers, Records: records}})
	}
	return NewCSVWriter(nil).WriteSimpleCSV(filePath, headers, records)
}
