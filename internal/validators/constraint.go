package validators

import (
	"regexp"
	"strconv"
	"strings"
)

// Range is an inclusive numeric interval
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Constraint is the optional rule derived from a dictionary Value field
type Constraint struct {
	Ranges     []Range
	DateFormat string
	Raw        string
}

// IsZero reports whether the constraint carries no rule
func (c Constraint) IsZero() bool {
	return len(c.Ranges) == 0 && c.DateFormat == ""
}

const number = `(-?\d+(?:\.\d+)?)`

var (
	bracketedRange = regexp.MustCompile(`[{(\[]\s*` + number + `\s*(?:-|,|to)\s*` + number + `\s*[})\]]`)
	bareRange      = regexp.MustCompile(`^\s*` + number + `\s*-\s*` + number + `\s*$`)
)

// ParseRanges extracts every numeric interval from raw. Accepted forms are
// {a-b}, (a,b), [a, b] repeated any number of times, or a bare a-b.
func ParseRanges(raw string) []Range {
	matches := bracketedRange.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		if m := bareRange.FindStringSubmatch(raw); m != nil {
			matches = [][]string{m}
		}
	}

	ranges := make([]Range, 0, len(matches))
	for _, m := range matches {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		ranges = append(ranges, Range{Min: lo, Max: hi})
	}
	return ranges
}

// ParseConstraint derives the constraint for a column of the given kind.
// Anything that is not a numeric range or a strftime pattern is free-form
// and yields an empty constraint.
func ParseConstraint(kind Kind, raw string) Constraint {
	c := Constraint{Raw: raw}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return c
	}
	switch kind {
	case KindNumeric:
		c.Ranges = ParseRanges(raw)
	case KindDate:
		if strings.Contains(raw, "%") {
			c.DateFormat = raw
		}
	}
	return c
}
