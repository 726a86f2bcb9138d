// Package checkers holds the quality checks run against a domain's data:
// the dictionary-driven value checker, score totals, longitudinal feature
// changes, release consistency, dictionary column coverage and Med/Visit
// ID integrity.
//
// Checkers work on loaded tables and return report rows. Locating inputs
// and writing reports is left to the caller.
package checkers
