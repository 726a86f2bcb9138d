package exporter

import (
	"math"
	"strconv"
)

// FormatFloat renders a float in its shortest exact form, "" for NaN
func FormatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatFixed renders a float with the given number of decimals
func FormatFixed(f float64, decimals int) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// FormatInt formats an int for report output
func FormatInt(i int) string {
	return strconv.Itoa(i)
}
