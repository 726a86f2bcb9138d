// Package dictionary loads data dictionaries: the per-domain schema that
// names each variable, its declared type and its expected values.
//
// Dictionaries are CSV or Excel files. Header names vary between releases,
// so the loader accepts aliases ("Main Variable", "Variable", "Variable
// Name" for the variable column, and so on). Columns beyond the four known
// ones are carried through untouched so a cleaned or supplemented
// dictionary can be written back without losing data.
package dictionary
