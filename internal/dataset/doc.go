// Package dataset holds the in-memory table used by every tool and the
// loaders that read delimited text and Excel workbooks into it.
//
// Cells are kept as raw strings; callers parse numbers and dates as needed.
// Headers are normalized on load so that names declared in a dictionary
// match dataset columns despite stray whitespace or Unicode variants.
package dataset
