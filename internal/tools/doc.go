// Package tools is the catalog of step functions a pipeline can name. Each
// tool resolves its inputs from the step's path map, runs one checker,
// transformer or enhancement and writes its report.
package tools
