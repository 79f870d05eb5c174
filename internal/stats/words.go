package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

// RenderWord prints the classification of a single word.
func RenderWord(w io.Writer, word analytics.WordAnalysis) error {
	last := "never"
	if !word.LastAttempt.IsZero() {
		last = word.LastAttempt.Format(time.RFC3339)
	}
	flags := ""
	if word.Learned {
		flags += " learned"
	}
	if word.Difficult {
		flags += " difficult"
	}
	return writeLines(w,
		fmt.Sprintf("%s / %s (%s)", word.English, word.Italian, word.WordID),
		fmt.Sprintf("Chapter: %s", analytics.ChapterLabel(word.Chapter)),
		fmt.Sprintf("Status: %s  Trend: %s%s", word.Status, word.Trend, flags),
		fmt.Sprintf("Attempts: %d (correct %d)", word.TotalAttempts, word.CorrectAttempts),
		fmt.Sprintf("Accuracy: %d%%  Recent: %d%%  Hints: %d%%", word.Accuracy, word.RecentAccuracy, word.HintsPercentage),
		fmt.Sprintf("Streak: %d (best %d)", word.CurrentStreak, word.BestStreak),
		fmt.Sprintf("Avg Time: %d ms", word.AverageTimeMs),
		fmt.Sprintf("Last Attempt: %s", last),
	)
}

// RenderWordTable prints one row per word.
func RenderWordTable(w io.Writer, title string, words []analytics.WordAnalysis) error {
	if len(words) == 0 {
		return nil
	}
	if err := writeLines(w, title); err != nil {
		return err
	}
	headers := []string{"Word", "Translation", "Chapter", "Status", "Attempts", "Accuracy", "Recent", "Hints"}
	rows := make([][]string, 0, len(words))
	for _, word := range words {
		rows = append(rows, []string{
			truncateCell(word.English, maxLabelWidth),
			truncateCell(word.Italian, maxLabelWidth),
			analytics.ChapterLabel(word.Chapter),
			string(word.Status),
			strconv.Itoa(word.TotalAttempts),
			fmt.Sprintf("%d%%", word.Accuracy),
			fmt.Sprintf("%d%%", word.RecentAccuracy),
			fmt.Sprintf("%d%%", word.HintsPercentage),
		})
	}
	if err := writeTable(w, headers, rows, map[int]bool{4: true, 5: true, 6: true, 7: true}); err != nil {
		return err
	}
	return writeLines(w, "")
}

// RenderStatusCounts prints the number of words in each status.
func RenderStatusCounts(w io.Writer, words []analytics.WordAnalysis) error {
	counts := analytics.StatusCounts(words)
	rows := make([][]string, 0, len(analytics.AllStatuses))
	for _, s := range analytics.AllStatuses {
		rows = append(rows, []string{string(s), strconv.Itoa(counts[s])})
	}
	if err := writeTable(w, []string{"Status", "Words"}, rows, map[int]bool{1: true}); err != nil {
		return err
	}
	return writeLines(w, "")
}
