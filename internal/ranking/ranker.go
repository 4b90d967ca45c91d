package ranking

import (
	"sort"

	"stride-coach/internal/models"
)

// MaxSuggestions is the size of the ranked list.
const MaxSuggestions = 5

// Rank merges suggestion groups in the given order, drops repeated texts
// (first occurrence wins), orders by priority descending keeping merge order
// among equals, and truncates to MaxSuggestions.
func Rank(groups ...[]models.Suggestion) []models.Suggestion {
	seen := make(map[string]struct{})
	merged := make([]models.Suggestion, 0)
	for _, group := range groups {
		for _, s := range group {
			if _, dup := seen[s.Text]; dup {
				continue
			}
			seen[s.Text] = struct{}{}
			merged = append(merged, s)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Priority > merged[j].Priority
	})

	if len(merged) > MaxSuggestions {
		merged = merged[:MaxSuggestions]
	}
	return merged
}
