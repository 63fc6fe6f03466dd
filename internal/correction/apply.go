package correction

import (
	"sort"
	"strings"
)

// Apply performs every replacement as a global literal substitution. Longer
// originals run first so "closed guard pass" wins over "closed guard"; the
// sort is stable so equal-length replacements keep their reply order.
func Apply(text string, replacements []Replacement) string {
	if len(replacements) == 0 {
		return text
	}
	sorted := append([]Replacement(nil), replacements...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Original) > len(sorted[j].Original)
	})
	for _, rep := range sorted {
		text = strings.ReplaceAll(text, rep.Original, rep.Replacement)
	}
	return text
}
