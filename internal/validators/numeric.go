package validators

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"qcsuite/internal/dataset"
)

// OutlierMethod selects the statistical rule for numeric columns
type OutlierMethod string

const (
	MethodIQR OutlierMethod = "IQR"
	MethodSTD OutlierMethod = "STD"
)

// Method strings written to reports
const (
	ReasonOutsideRange = "Outside defined range"
	ReasonIQR          = "IQR Outlier"
	ReasonSTD          = "STD Outlier"
)

// Numeric defaults
const (
	DefaultSTDThreshold = 3.0
	DefaultMinRange     = 1.0
	iqrMultiplier       = 1.5
)

// NumericValidator flags out-of-range values, or statistical outliers when
// no range is declared.
type NumericValidator struct {
	Method       OutlierMethod
	STDThreshold float64
	// MinRange skips outlier detection when max-min is at most this value
	MinRange float64

	ids idReader
}

// NewNumericValidator builds a validator from options: outlier_method,
// std_threshold, min_range and id_columns.
func NewNumericValidator(opts Options) (*NumericValidator, error) {
	method := OutlierMethod(strings.ToUpper(opts.String("outlier_method", string(MethodIQR))))
	if method != MethodIQR && method != MethodSTD {
		return nil, fmt.Errorf("unknown outlier method %q", method)
	}
	k, err := opts.Float("std_threshold", DefaultSTDThreshold)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("std_threshold must be positive, got %v", k)
	}
	minRange, err := opts.Float("min_range", DefaultMinRange)
	if err != nil {
		return nil, err
	}
	return &NumericValidator{
		Method:       method,
		STDThreshold: k,
		MinRange:     minRange,
		ids:          newIDReader(opts),
	}, nil
}

type numericPoint struct {
	row   int
	raw   string
	value float64
}

// Validate implements Validator
func (v *NumericValidator) Validate(table *dataset.Table, column string, c Constraint) ([]FlaggedValue, error) {
	col := table.Column(column)
	if col < 0 {
		return nil, nil
	}

	points := make([]numericPoint, 0, table.Len())
	for row := 0; row < table.Len(); row++ {
		raw := table.Value(row, col)
		if IsMissingLike(raw) {
			continue
		}
		f, ok := parseNumber(raw)
		if !ok {
			continue
		}
		points = append(points, numericPoint{row: row, raw: strings.TrimSpace(raw), value: f})
	}

	name := table.Columns[col]
	if len(c.Ranges) > 0 {
		return v.checkRanges(table, name, points, c.Ranges), nil
	}
	if len(points) == 0 || v.excluded(points) {
		return nil, nil
	}

	switch v.Method {
	case MethodSTD:
		return v.checkSTD(table, name, points), nil
	default:
		return v.checkIQR(table, name, points), nil
	}
}

func (v *NumericValidator) checkRanges(table *dataset.Table, column string, points []numericPoint, ranges []Range) []FlaggedValue {
	var flags []FlaggedValue
	for _, p := range points {
		inside := false
		for _, r := range ranges {
			if r.Contains(p.value) {
				inside = true
				break
			}
		}
		if !inside {
			flags = append(flags, v.ids.flag(table, p.row, column, p.raw, ReasonOutsideRange))
		}
	}
	return flags
}

// excluded applies the binary, constant and small-range heuristics
func (v *NumericValidator) excluded(points []numericPoint) bool {
	distinct := make(map[float64]struct{}, 3)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if len(distinct) <= 2 {
			distinct[p.value] = struct{}{}
		}
		lo = math.Min(lo, p.value)
		hi = math.Max(hi, p.value)
	}
	if len(distinct) <= 2 {
		return true
	}
	return hi-lo <= v.MinRange
}

func (v *NumericValidator) checkIQR(table *dataset.Table, column string, points []numericPoint) []FlaggedValue {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.value
	}
	sort.Float64s(values)

	q1 := quantile(values, 0.25)
	q3 := quantile(values, 0.75)
	iqr := q3 - q1
	lower := q1 - iqrMultiplier*iqr
	upper := q3 + iqrMultiplier*iqr
	method := fmt.Sprintf("%s (bounds: [%.2f, %.2f])", ReasonIQR, lower, upper)

	var flags []FlaggedValue
	for _, p := range points {
		if p.value < lower || p.value > upper {
			flags = append(flags, v.ids.flag(table, p.row, column, p.raw, method))
		}
	}
	return flags
}

func (v *NumericValidator) checkSTD(table *dataset.Table, column string, points []numericPoint) []FlaggedValue {
	if len(points) < 2 {
		return nil
	}
	var sum float64
	for _, p := range points {
		sum += p.value
	}
	mean := sum / float64(len(points))

	var ss float64
	for _, p := range points {
		d := p.value - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(points)-1))
	if std == 0 {
		return nil
	}

	method := fmt.Sprintf("%s (mean %.2f ± %.1fσ)", ReasonSTD, mean, v.STDThreshold)
	var flags []FlaggedValue
	for _, p := range points {
		if math.Abs(p.value-mean) > v.STDThreshold*std {
			flags = append(flags, v.ids.flag(table, p.row, column, p.raw, method))
		}
	}
	return flags
}

// quantile interpolates linearly between closest ranks of sorted values
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
