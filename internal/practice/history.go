package practice

import (
	"strings"

	"github.com/MikeSquared-Agency/lingo/internal/store"
)

// FallbackCategory labels entries saved without a category.
const FallbackCategory = "general"

type CategoryGroup struct {
	Category string
	Entries  []store.HistoryEntry
}

// GroupByCategory buckets entries by category. Groups keep the order in
// which their category first appears, entries keep their input order.
func GroupByCategory(entries []store.HistoryEntry) []CategoryGroup {
	var groups []CategoryGroup
	index := map[string]int{}
	for _, e := range entries {
		cat := strings.TrimSpace(e.Category)
		if cat == "" {
			cat = FallbackCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, CategoryGroup{Category: cat})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}
