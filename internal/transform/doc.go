// Package transform rewrites dictionaries and datasets into their
// standard form: the dictionary cleaner and the date format standardizer.
package transform
