// Package files locates and validates the input files the QC tools read.
//
// Discovery finds data files (CSV, TSV, TXT, XLSX) inside domain
// directories: the first file, the newest file, or the first file matching
// a glob such as "*cleaned*". FileValidator checks that inputs exist and
// are readable and that output directories can be written, logging each
// failure with slog.
//
// Example usage:
//
//	discovery := files.NewDiscovery(cfg.Paths.ProjectRoot)
//	path, err := discovery.FindFirstDataFile(paths.Get(config.KeyRawData))
package files
