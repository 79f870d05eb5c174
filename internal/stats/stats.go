// Package stats renders analysis results as text: tables, sparklines and
// braille plots.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline scaled to the values' range.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// HistorySparkline renders the accuracy of a chapter history.
func HistorySparkline(history []analytics.TrendPoint) string {
	values := make([]float64, len(history))
	for i, p := range history {
		values[i] = p.Accuracy
	}
	return Sparkline(values)
}

// RenderCurves plots per-session accuracy and hint rate on the percentage axis,
// smoothed over window sessions.
func RenderCurves(w io.Writer, history []analytics.TrendPoint, window int, opts PlotOptions) error {
	if len(history) == 0 {
		return nil
	}
	acc := make([]float64, len(history))
	hints := make([]float64, len(history))
	for i, p := range history {
		acc[i] = p.Accuracy
		if answered := p.Correct + p.Incorrect; answered > 0 {
			hints[i] = math.Min(100, p.EstimatedHints/float64(answered)*100)
		}
	}
	return PlotSeries(w, "Learning Curves", []Series{
		{Name: "Accuracy", Values: MovingAverage(acc, window)},
		{Name: "Hints", Values: MovingAverage(hints, window)},
	}, opts)
}

func writeTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeLines(w io.Writer, lines ...string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
