package score

import (
	"sort"

	"github.com/trustlens/trustlens/internal/models"
)

// Rank orders entries by trust score descending; ties keep ascending
// original position. The tie-break is part of the comparator rather than a
// reliance on sort stability, because ranked entries are physically
// reordered downstream. Unscored entries (score -1) sink below every scored
// entry through the same comparison. The input slice is not modified.
func Rank(entries []models.RankedEntry) []models.RankedEntry {
	ranked := make([]models.RankedEntry, len(entries))
	copy(ranked, entries)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].OriginalPosition < ranked[j].OriginalPosition
	})

	return ranked
}
