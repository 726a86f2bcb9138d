package validators

import (
	"math"
	"strconv"
	"strings"
)

// MissingValueCodes are numeric sentinels meaning "not collected"
var MissingValueCodes = []float64{-9999, -8888, -7777}

// MissingValueStrings are textual tokens meaning "no value", compared upper case
var MissingValueStrings = map[string]bool{
	"":        true,
	"NA":      true,
	"N/A":     true,
	"NAN":     true,
	"NULL":    true,
	"NONE":    true,
	"MISSING": true,
	"<NA>":    true,
	"-9999":   true,
	"-8888":   true,
	"-7777":   true,
}

// IsMissingLike reports whether a cell is blank, a missing token or a sentinel code
func IsMissingLike(s string) bool {
	s = strings.TrimSpace(s)
	if MissingValueStrings[strings.ToUpper(s)] {
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	if math.IsNaN(f) {
		return true
	}
	for _, code := range MissingValueCodes {
		if f == code {
			return true
		}
	}
	return false
}

// parseNumber parses a trimmed numeric cell, rejecting NaN and infinities
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
