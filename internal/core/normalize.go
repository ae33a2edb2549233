package core

import (
	"sort"
	"strings"

	"retreatcore/pkg/domain"
)

// normalizeDocument rewrites the otherwise unsorted arrays into canonical
// order: reservation slot ids lexicographically (deduplicated), adjustments
// by case-insensitive reason. Runs after validation succeeds so callers can
// never rely on insertion order.
func normalizeDocument(doc *domain.Document) {
	for id, reg := range doc.Registrations {
		reg.Reservations = sortedUnique(reg.Reservations)
		sort.SliceStable(reg.Adjustments, func(i, j int) bool {
			return strings.ToLower(reg.Adjustments[i].Reason) < strings.ToLower(reg.Adjustments[j].Reason)
		})
		doc.Registrations[id] = reg
	}
}

func sortedUnique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
