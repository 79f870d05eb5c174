package stats

import (
	"sort"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

// MostPracticed returns the top n words by attempt count.
func MostPracticed(words []analytics.WordAnalysis, n int) []analytics.WordAnalysis {
	if n <= 0 || len(words) == 0 {
		return nil
	}
	items := make([]analytics.WordAnalysis, len(words))
	copy(items, words)
	sort.Slice(items, func(i, j int) bool {
		if items[i].TotalAttempts == items[j].TotalAttempts {
			return items[i].WordID < items[j].WordID
		}
		return items[i].TotalAttempts > items[j].TotalAttempts
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
