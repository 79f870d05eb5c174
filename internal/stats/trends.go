package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

// RenderTrends prints velocity, projections, milestones, patterns and
// recommendations of a trends report.
func RenderTrends(w io.Writer, res analytics.TrendsAnalysisResult) error {
	steps := []func(io.Writer, analytics.TrendsAnalysisResult) error{
		renderVelocity,
		renderProjections,
		renderMilestones,
		renderPatterns,
		renderRecommendations,
		renderMetadata,
	}
	for _, step := range steps {
		if err := step(w, res); err != nil {
			return err
		}
	}
	return nil
}

func renderVelocity(w io.Writer, res analytics.TrendsAnalysisResult) error {
	v := res.LearningVelocity
	if v.SessionCount == 0 {
		return writeLines(w, "Learning Velocity", "No dated sessions found.", "")
	}
	return writeLines(w,
		"Learning Velocity",
		fmt.Sprintf("Sessions: %d (window %d)", v.SessionCount, v.WindowSize),
		fmt.Sprintf("Velocity: %+.2f pts (%+.2f/test)", v.CurrentVelocity, v.VelocityPerTest),
		fmt.Sprintf("Acceleration: %+.2f (%s)", v.Acceleration, v.Direction),
		fmt.Sprintf("Recent Mean: %s  Previous: %s  Early: %s", pct(v.RecentMean), pct(v.PreviousMean), pct(v.EarlyMean)),
		fmt.Sprintf("Total Improvement: %+.1f pts", v.TotalImprovement),
		fmt.Sprintf("Stability: %.2f  Confidence: %s", v.StabilityFactor, pct(v.Confidence)),
		fmt.Sprintf("Cadence: %.1f days/test", v.CadenceDays),
		"",
	)
}

func renderProjections(w io.Writer, res analytics.TrendsAnalysisResult) error {
	if len(res.FutureProjections) == 0 {
		return nil
	}
	if err := writeLines(w, "Projections"); err != nil {
		return err
	}
	headers := []string{"Horizon", "Tests", "Expected", "Optimistic", "Pessimistic", "Hints", "Confidence"}
	rows := make([][]string, 0, len(res.FutureProjections))
	for _, p := range res.FutureProjections {
		rows = append(rows, []string{
			p.Timeframe,
			fmt.Sprintf("%.1f", p.Expected.Tests),
			pct(p.Expected.Accuracy),
			pct(p.Optimistic.Accuracy),
			pct(p.Pessimistic.Accuracy),
			pct(p.Expected.HintsPercentage),
			pct(p.Confidence),
		})
	}
	if err := writeTable(w, headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}); err != nil {
		return err
	}
	return writeLines(w, "")
}

func renderMilestones(w io.Writer, res analytics.TrendsAnalysisResult) error {
	if len(res.Milestones) == 0 {
		return nil
	}
	if err := writeLines(w, "Milestones"); err != nil {
		return err
	}
	for _, m := range res.Milestones {
		var state string
		switch {
		case m.Achieved:
			state = "achieved"
		case !m.Reachable:
			state = "out of reach at current velocity"
		default:
			state = fmt.Sprintf("in %.0f tests (~%.0f days), probability %s", m.EstimatedTests, m.EstimatedDays, pct(m.Probability))
		}
		if _, err := fmt.Fprintf(w, "%s %.0f%%: %s\n", m.Metric, m.Target, state); err != nil {
			return err
		}
	}
	return writeLines(w, "")
}

func renderPatterns(w io.Writer, res analytics.TrendsAnalysisResult) error {
	p := res.PatternAnalysis
	if err := writeLines(w, "Patterns"); err != nil {
		return err
	}
	if tp, ok := p.StrongestTemporal(); ok && tp.Best != nil {
		line := fmt.Sprintf("Best %s: %s (%s over %d sessions)", tp.Kind, tp.Best.Label, pct(tp.Best.MeanAccuracy), tp.Best.Sessions)
		if tp.Worst != nil {
			line += fmt.Sprintf(", worst %s (%s)", tp.Worst.Label, pct(tp.Worst.MeanAccuracy))
		}
		if err := writeLines(w, line); err != nil {
			return err
		}
	}
	if len(p.Correlations) > 0 {
		rows := make([][]string, 0, len(p.Correlations))
		for _, c := range p.Correlations {
			rows = append(rows, []string{
				c.MetricA + " / " + c.MetricB,
				fmt.Sprintf("%+.2f", c.Coefficient),
				string(c.Significance),
				strconv.Itoa(c.SampleSize),
				c.Relationship,
			})
		}
		if err := writeTable(w, []string{"Correlation", "r", "Significance", "Samples", "Relationship"}, rows, map[int]bool{1: true, 3: true}); err != nil {
			return err
		}
	}
	for _, in := range p.Insights {
		if _, err := fmt.Fprintf(w, "[%s %d] %s\n", in.Type, in.Importance, in.Title); err != nil {
			return err
		}
	}
	return writeLines(w, "")
}

func renderRecommendations(w io.Writer, res analytics.TrendsAnalysisResult) error {
	r := res.RecommendationSystem
	if len(r.GoalBased)+len(r.WeaknessBased)+len(r.Timing)+len(r.Strategic) == 0 {
		return nil
	}
	if err := writeLines(w, "Recommendations"); err != nil {
		return err
	}
	for _, g := range r.GoalBased {
		var state string
		switch {
		case g.Achieved:
			state = "achieved"
		case !g.Reachable:
			state = "not reachable at current velocity"
		default:
			state = fmt.Sprintf("~%.0f days", g.EstimatedTimeToGoal)
			if g.DeadlineDays > 0 {
				track := "behind"
				if g.OnTrack {
					track = "on track"
				}
				state += fmt.Sprintf(", %s for %d days", track, g.DeadlineDays)
			}
		}
		if _, err := fmt.Fprintf(w, "Goal %s %.0f%% (now %s): %s\n", g.Metric, g.Target, pct(g.Current), state); err != nil {
			return err
		}
		if err := writeActions(w, g.Actions); err != nil {
			return err
		}
	}
	for _, wr := range r.WeaknessBased {
		if _, err := fmt.Fprintf(w, "P%d %s\n", wr.Priority, wr.Title); err != nil {
			return err
		}
		for _, s := range wr.Solutions {
			if _, err := fmt.Fprintf(w, "  - %s (score %.1f): %s\n", s.Name, s.Score, s.Description); err != nil {
				return err
			}
		}
	}
	for _, t := range r.Timing {
		line := fmt.Sprintf("Study %s: %s (%s)", t.Kind, t.OptimalStudyTime, pct(t.MeanAccuracy))
		if t.Avoid != "" {
			line += ", avoid " + t.Avoid
		}
		if err := writeLines(w, line); err != nil {
			return err
		}
	}
	for _, s := range r.Strategic {
		if _, err := fmt.Fprintf(w, "P%d %s\n", s.Priority, s.Title); err != nil {
			return err
		}
		if err := writeActions(w, s.Actions); err != nil {
			return err
		}
	}
	return writeLines(w, "")
}

func writeActions(w io.Writer, actions []string) error {
	for _, a := range actions {
		if _, err := fmt.Fprintf(w, "  - %s\n", a); err != nil {
			return err
		}
	}
	return nil
}

func renderMetadata(w io.Writer, res analytics.TrendsAnalysisResult) error {
	m := res.AnalysisMetadata
	span := "no dated sessions"
	if m.FirstSession != nil && m.LastSession != nil {
		span = m.FirstSession.Format(time.DateOnly) + " .. " + m.LastSession.Format(time.DateOnly)
	}
	lines := []string{
		fmt.Sprintf("Data: %d words, %d sessions, %s (confidence %s)", m.WordCount, m.SessionCount, span, pct(m.Confidence)),
	}
	if len(m.Limitations) > 0 {
		lines = append(lines, "Limitations: "+strings.Join(m.Limitations, "; "))
	}
	lines = append(lines, "")
	return writeLines(w, lines...)
}
