package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

// PlotOptions controls plot layout.
//
// With Scaled unset every series shares the 0..100 percentage axis. With
// Scaled set each series is stretched to its own min/max range.
type PlotOptions struct {
	Width  int
	Height int
	Color  bool
	Scaled bool
}

type valueRange struct {
	min float64
	max float64
}

// dashPattern draws a dot on column x when x%period < on.
type dashPattern struct {
	name   string
	period int
	on     int
}

func (d dashPattern) keep(x int) bool {
	if d.period <= 1 {
		return true
	}
	return absInt(x)%d.period < d.on
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelTop        = "100%"
	axisLabelMid        = "50%"
	axisLabelBottom     = "0%"
	axisSeparator       = " │ "
	scaleNote           = "Scaled per series; see min/max below."
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var percentRange = valueRange{min: 0, max: 100}

var dashPatterns = []dashPattern{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

// ANSI colors: cyan, magenta, yellow, green, blue.
var seriesColors = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m", "\x1b[34m"}

// PlotSeries renders a braille line plot for the provided series.
func PlotSeries(w io.Writer, title string, series []Series, opts PlotOptions) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := opts.Width
	if width <= 0 {
		width = autoPlotWidth()
	}
	width = max(width, minPlotWidth)

	layers := make([]*canvas, len(series))
	ranges := make([]valueRange, len(series))
	for i := range series {
		series[i].Values = resampleSeries(series[i].Values, width)
		ranges[i] = plotRange(series[i].Values, opts.Scaled)
		layers[i] = drawSeries(series[i].Values, ranges[i], dashPatterns[i%len(dashPatterns)], width, height)
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	if opts.Scaled {
		b.WriteString(scaleNote + "\n")
		for i, s := range series {
			fmt.Fprintf(&b, "%s: min=%.2f max=%.2f\n", s.Name, ranges[i].min, ranges[i].max)
		}
	}
	useColor := shouldUseColor(w, opts.Color)
	labelWidth := runewidth.StringWidth(axisLabelTop)
	for y, label := range makeAxisLabels(height) {
		fmt.Fprintf(&b, "%*s%s", labelWidth, label, axisSeparator)
		for x := 0; x < width; x++ {
			writeCell(&b, layers, x, y, useColor)
		}
		b.WriteString("\n")
	}
	b.WriteString(renderLegend(series, useColor) + "\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// plotRange returns the shared percentage axis, or the series' own range when
// scaled. A flat series is widened by one unit on each side.
func plotRange(values []float64, scaled bool) valueRange {
	if !scaled {
		return percentRange
	}
	lo, hi := seriesMinMax(values)
	if math.Abs(hi-lo) < 1e-9 {
		lo, hi = lo-1, hi+1
	}
	return valueRange{min: lo, max: hi}
}

// drawSeries plots one value per cell column, joining neighbours with lines.
func drawSeries(values []float64, r valueRange, dash dashPattern, width, height int) *canvas {
	c := newCanvas(width, height)
	for x, v := range values {
		px, py := x*2, valueToRow(v, r.min, r.max, height*4)
		if x == 0 {
			if dash.keep(px) {
				c.dot(px, py)
			}
			continue
		}
		prevY := valueToRow(values[x-1], r.min, r.max, height*4)
		c.line(px-2, prevY, px, py, dash.keep)
	}
	return c
}

// writeCell merges every layer's dots for one cell. The first layer with a dot
// there picks the color.
func writeCell(b *strings.Builder, layers []*canvas, x, y int, useColor bool) {
	var mask uint8
	owner := -1
	for i, c := range layers {
		m := c.cells[y][x]
		if m != 0 && owner < 0 {
			owner = i
		}
		mask |= m
	}
	ch := brailleFromMask(mask)
	if !useColor || owner < 0 {
		b.WriteRune(ch)
		return
	}
	b.WriteString(seriesColors[owner%len(seriesColors)])
	b.WriteRune(ch)
	b.WriteString(colorReset)
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func autoPlotWidth() int {
	return PlotWidthFor(TerminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := runewidth.StringWidth(axisLabelTop) + runewidth.StringWidth(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

// TerminalWidth returns the width of stdout, or 80 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

// resampleSeries fits values to width columns: bucket means when there are
// more values than columns, linear interpolation when there are fewer.
func resampleSeries(values []float64, width int) []float64 {
	n := len(values)
	switch {
	case n == 0 || width <= 0:
		return nil
	case n == width:
		return append([]float64(nil), values...)
	case n > width:
		return bucketMeans(values, width)
	default:
		return interpolate(values, width)
	}
}

func bucketMeans(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	for i := range out {
		lo := i * n / width
		hi := min(max((i+1)*n/width, lo+1), n)
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func interpolate(values []float64, width int) []float64 {
	out := make([]float64, width)
	last := len(values) - 1
	if width == 1 || last == 0 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := range out {
		pos := float64(i*last) / float64(width-1)
		idx := int(pos)
		if idx >= last {
			out[i] = values[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx] + (values[idx+1]-values[idx])*frac
	}
	return out
}

func seriesMinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}

// valueToRow maps v onto dot rows, top row first. Values outside the range
// are clamped to the nearest edge.
func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 || maxVal <= minVal {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, dashPatterns[i%len(dashPatterns)].name)
		if useColor {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
