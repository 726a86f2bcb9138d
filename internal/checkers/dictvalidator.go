package checkers

import (
	"sort"
	"strings"
)

// ColumnComparison describes how dataset columns line up with dictionary variables
type ColumnComparison struct {
	InBoth           []string
	OnlyInDataset    []string
	OnlyInDictionary []string
	// CaseMismatches holds dataset/dictionary name pairs equal only when case is ignored
	CaseMismatches [][2]string
}

// Consistent reports whether every column is accounted for on both sides
func (c ColumnComparison) Consistent() bool {
	return len(c.OnlyInDataset) == 0 && len(c.OnlyInDictionary) == 0
}

// CompareColumns matches names exactly after trimming; case-only
// differences are listed separately as well as on each side.
func CompareColumns(datasetColumns, dictionaryVariables []string) ColumnComparison {
	ds := nameSet(datasetColumns)
	dict := nameSet(dictionaryVariables)

	var cmp ColumnComparison
	for name := range ds {
		if dict[name] {
			cmp.InBoth = append(cmp.InBoth, name)
		} else {
			cmp.OnlyInDataset = append(cmp.OnlyInDataset, name)
		}
	}
	for name := range dict {
		if !ds[name] {
			cmp.OnlyInDictionary = append(cmp.OnlyInDictionary, name)
		}
	}
	sort.Strings(cmp.InBoth)
	sort.Strings(cmp.OnlyInDataset)
	sort.Strings(cmp.OnlyInDictionary)

	lowerDict := make(map[string]string, len(dict))
	for name := range dict {
		lowerDict[strings.ToLower(name)] = name
	}
	for _, name := range cmp.OnlyInDataset {
		if other, ok := lowerDict[strings.ToLower(name)]; ok && other != name {
			cmp.CaseMismatches = append(cmp.CaseMismatches, [2]string{name, other})
		}
	}
	return cmp
}

// Records renders the comparison as Category, Dataset Column, Dictionary Variable rows
func (c ColumnComparison) Records() [][]string {
	var records [][]string
	for _, n := range c.InBoth {
		records = append(records, []string{"In Both", n, n})
	}
	for _, n := range c.OnlyInDataset {
		records = append(records, []string{"Only In Dataset", n, ""})
	}
	for _, n := range c.OnlyInDictionary {
		records = append(records, []string{"Only In Dictionary", "", n})
	}
	for _, m := range c.CaseMismatches {
		records = append(records, []string{"Case Mismatch", m[0], m[1]})
	}
	return records
}

// ColumnComparisonHeaders is the dictionary validator report header
var ColumnComparisonHeaders = []string{"Category", "Dataset Column", "Dictionary Variable"}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			set[n] = true
		}
	}
	return set
}
