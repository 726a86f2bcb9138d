// Package validators implements the per-column rule checkers used by the
// dictionary-driven checker: numeric outlier and range detection, text
// rarity detection and date format conformance.
//
// Validators are stateless once constructed. Validate never logs and never
// fails for an absent column; it returns an empty result instead. Cells that
// are missing-like (blank, NA-style tokens or sentinel codes such as -9999)
// are skipped by every validator.
package validators
