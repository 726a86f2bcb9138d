package supplements

import (
	"strings"

	"qcsuite/internal/dictionary"
)

// DefaultLeftoverName names the bucket for variables no domain declares
const DefaultLeftoverName = "Leftover"

// Split is a partition of a supplement across domains
type Split struct {
	// Order lists the domains that had a dictionary, in the order given
	Order    []string
	Domains  map[string]*dictionary.Dictionary
	Leftover *dictionary.Dictionary
}

// Len returns the total number of entries across all buckets
func (s *Split) Len() int {
	n := s.Leftover.Len()
	for _, d := range s.Domains {
		n += d.Len()
	}
	return n
}

// SplitByDomain assigns every supplement entry to exactly one bucket: the
// first domain, in the given order, whose dictionary declares the variable,
// or the leftover bucket. Domains without a dictionary are skipped.
func SplitByDomain(supplement *dictionary.Dictionary, domains []string, dictionaries map[string]*dictionary.Dictionary) *Split {
	split := &Split{
		Domains:  make(map[string]*dictionary.Dictionary),
		Leftover: emptyLike(supplement),
	}

	declared := make(map[string]map[string]bool, len(domains))
	for _, domain := range domains {
		dict := dictionaries[domain]
		if dict == nil {
			continue
		}
		vars := make(map[string]bool, dict.Len())
		for _, v := range dict.Variables() {
			vars[strings.TrimSpace(v)] = true
		}
		declared[domain] = vars
		split.Order = append(split.Order, domain)
		split.Domains[domain] = emptyLike(supplement)
	}

	for _, e := range supplement.Entries {
		target := split.Leftover
		for _, domain := range split.Order {
			if declared[domain][strings.TrimSpace(e.Variable)] {
				target = split.Domains[domain]
				break
			}
		}
		target.Entries = append(target.Entries, e)
	}
	return split
}

func emptyLike(d *dictionary.Dictionary) *dictionary.Dictionary {
	return &dictionary.Dictionary{
		ExtraColumns: append([]string{}, d.ExtraColumns...),
		Source:       d.Source,
	}
}
