// Package exporter writes tool reports to disk.
//
// CSVWriter handles delimited output with optional UTF-8 BOM for Excel and
// append mode for accumulating reports. ExcelWriter produces single or
// multi-sheet workbooks. WriteReport picks the writer from the file
// extension so tools can let the configured output filename decide.
//
// Example usage:
//
//	err := exporter.WriteReport("qc_output/value_mismatches.csv",
//	    []string{"Med_ID", "Visit_ID", "Column", "Value", "Method"}, rows)
package exporter
