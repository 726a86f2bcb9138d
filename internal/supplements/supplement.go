package supplements

import (
	"strings"

	"qcsuite/internal/dataset"
	"qcsuite/internal/dictionary"
)

// ValueUpdate records an expected-values change applied to an existing variable
type ValueUpdate struct {
	Variable string
	Old      string
	New      string
}

// Result describes what Supplement changed
type Result struct {
	Added   []string
	Updated []ValueUpdate
}

// Supplement returns a copy of dict with the supplement's variables that it
// lacks appended. With updateExisting, variables present in both take the
// supplement's Value when it differs; values are compared after trimming,
// with numeric text canonicalized so 5.0 equals 5.
func Supplement(dict, supplement *dictionary.Dictionary, updateExisting bool) (*dictionary.Dictionary, Result) {
	out := &dictionary.Dictionary{
		Entries:      append([]dictionary.Entry{}, dict.Entries...),
		ExtraColumns: append([]string{}, dict.ExtraColumns...),
		Source:       dict.Source,
	}
	index := make(map[string]int, len(out.Entries))
	for i, e := range out.Entries {
		name := strings.TrimSpace(e.Variable)
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}

	var res Result
	for _, e := range supplement.Entries {
		name := strings.TrimSpace(e.Variable)
		if name == "" {
			continue
		}
		i, exists := index[name]
		if !exists {
			out.Append(e)
			index[name] = len(out.Entries) - 1
			res.Added = append(res.Added, name)
			continue
		}
		if !updateExisting {
			continue
		}
		old := out.Entries[i].Value
		if dataset.CanonicalValue(old) == dataset.CanonicalValue(e.Value) {
			continue
		}
		out.Entries[i].Value = e.Value
		res.Updated = append(res.Updated, ValueUpdate{Variable: name, Old: old, New: e.Value})
	}
	return out, res
}
