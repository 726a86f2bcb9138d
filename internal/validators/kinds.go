package validators

import "strings"

// Kind selects the validator applied to a dictionary column type
type Kind int

const (
	KindUnknown Kind = iota
	KindNumeric
	KindText
	KindDate
)

// String returns the registry name of the kind
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Canonical dictionary type names
const (
	TypeNumeric     = "numeric"
	TypeCategorical = "categorical"
	TypeText        = "text"
	TypeDate        = "date"
)

var typeAliases = map[string]string{
	"numeric":     TypeNumeric,
	"number":      TypeNumeric,
	"float":       TypeNumeric,
	"int":         TypeNumeric,
	"integer":     TypeNumeric,
	"categorical": TypeCategorical,
	"category":    TypeCategorical,
	"text":        TypeText,
	"string":      TypeText,
	"date":        TypeDate,
	"datetime":    TypeDate,
	"timestamp":   TypeDate,
}

// CanonicalType maps a declared dictionary type to its canonical name.
// The second result is false for unrecognized types.
func CanonicalType(declared string) (string, bool) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(declared))]
	return t, ok
}

// ParseKind resolves a declared dictionary type to a validator kind
func ParseKind(declared string) (Kind, bool) {
	t, ok := CanonicalType(declared)
	if !ok {
		return KindUnknown, false
	}
	switch t {
	case TypeNumeric:
		return KindNumeric, true
	case TypeDate:
		return KindDate, true
	default:
		return KindText, true
	}
}
