package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

const maxLabelWidth = 24

// RenderChapters prints the chapter overview, per-chapter table and the
// top and struggling chapter lists.
func RenderChapters(w io.Writer, res analytics.ChapterAnalysisResult) error {
	chapters := res.Analysis.ProcessedData
	if len(chapters) == 0 {
		_, err := fmt.Fprintln(w, "No chapters found.")
		return err
	}
	o := res.OverviewStats
	if err := writeLines(w,
		"Chapters",
		fmt.Sprintf("Chapters: %d (tested %d)", o.TotalChapters, o.TestedChapters),
		fmt.Sprintf("Words: %d (tested %d)", o.TotalWords, o.TestedWords),
		fmt.Sprintf("Avg Accuracy: %s", pct(o.AverageAccuracy)),
		fmt.Sprintf("Avg Completion: %s", pct(o.AverageCompletion)),
		fmt.Sprintf("Best Efficiency: %s", pct(o.BestEfficiency)),
		"",
	); err != nil {
		return err
	}

	headers := []string{"Chapter", "Words", "Tested", "Accuracy", "Hints", "Efficiency", "Completion", "Tests", "History"}
	rows := make([][]string, 0, len(chapters))
	for _, c := range chapters {
		rows = append(rows, []string{
			truncateCell(c.Label, maxLabelWidth),
			strconv.Itoa(c.TotalWords),
			strconv.Itoa(c.TestedWords),
			pct(c.Accuracy),
			pct(c.HintsPercentage),
			pct(c.Efficiency),
			pct(c.CompletionRate),
			strconv.Itoa(c.TestCount),
			HistorySparkline(c.History),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	if err := writeTable(w, headers, rows, rightAlign); err != nil {
		return err
	}
	if err := writeLines(w, ""); err != nil {
		return err
	}
	if err := renderChapterList(w, "Top Chapters", res.TopChapters); err != nil {
		return err
	}
	if err := renderChapterList(w, "Struggling Chapters", res.StrugglingChapters); err != nil {
		return err
	}
	return renderQuality(w, res.DataQuality)
}

func renderChapterList(w io.Writer, title string, list []analytics.ChapterSummary) error {
	if len(list) == 0 {
		return nil
	}
	if err := writeLines(w, title); err != nil {
		return err
	}
	for i, c := range list {
		if _, err := fmt.Fprintf(w, "%d. %s  accuracy %s  efficiency %s  completion %s\n",
			i+1, c.Label, pct(c.Accuracy), pct(c.Efficiency), pct(c.CompletionRate)); err != nil {
			return err
		}
	}
	return writeLines(w, "")
}

func renderQuality(w io.Writer, q analytics.DataQuality) error {
	if !q.Degraded() {
		return nil
	}
	_, err := fmt.Fprintf(w, "Data quality: %d of %d sessions usable, %d excluded, %d unparsable timestamps, %d inconsistent\n\n",
		q.UsableSessions, q.TotalSessions, q.ExcludedSessions, q.UnparsableTimestamps, q.InconsistentSessions)
	return err
}
