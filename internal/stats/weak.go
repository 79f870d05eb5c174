package stats

import (
	"sort"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

// WeakestWords selects the tested words with the lowest accuracy. Ties go to
// the word with more attempts, then to the lower id.
func WeakestWords(words []analytics.WordAnalysis, top int) []analytics.WordAnalysis {
	candidates := make([]analytics.WordAnalysis, 0, len(words))
	for _, w := range words {
		if w.TotalAttempts > 0 {
			candidates = append(candidates, w)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Accuracy != b.Accuracy {
			return a.Accuracy < b.Accuracy
		}
		if a.TotalAttempts != b.TotalAttempts {
			return a.TotalAttempts > b.TotalAttempts
		}
		return a.WordID < b.WordID
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}
