// Package compare aligns two releases of a dataset on their identifier
// columns and reports added and removed columns and rows, per-cell value
// changes, duplicate keys and inferred type drift.
package compare
