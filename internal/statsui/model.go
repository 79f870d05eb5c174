// Package statsui provides the Bubble Tea analytics browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vocabstats/internal/analytics"
	"github.com/verte-zerg/vocabstats/internal/model"
	"github.com/verte-zerg/vocabstats/internal/stats"
)

const (
	tabOverview = iota
	tabChapters
	tabWords
	tabTrends
)

const (
	plotHeight    = 10
	defaultWindow = 3
)

const (
	filterChapter = iota
	filterSince
	filterLast
	filterWindow
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Builder produces reports for the browser.
type Builder interface {
	Build(ctx context.Context, cfg model.ReportConfig, goals []model.Goal) (stats.Report, error)
}

// ChapterLister lists the chapters a filter can select.
type ChapterLister interface {
	ListChapters(ctx context.Context) ([]string, error)
}

// Model implements the Bubble Tea analytics browser.
type Model struct {
	builder  Builder
	chapters ChapterLister
	cfg      model.ReportConfig
	goals    []model.Goal
	window   int

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model

	chapterTable  table.Model
	chapterLayout tableLayout
	wordTable     table.Model
	wordLayout    tableLayout
	wordRows      []analytics.WordAnalysis
	sortPracticed bool

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	detailMode bool
	detail     string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs a browser over the reports of b.
func NewModel(b Builder, chapters ChapterLister, cfg model.ReportConfig, goals []model.Goal) *Model {
	m := &Model{
		builder:  b,
		chapters: chapters,
		cfg:      cfg,
		goals:    goals,
		window:   defaultWindow,
		tabs:     []string{"Overview", "Chapters", "Words", "Trends"},
	}
	m.initInputs()
	m.chapterTable = newTable(chapterColumns())
	m.wordTable = newTable(wordColumns())
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (msg.String() == "q" && !m.filterMode) {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.detailMode {
			if msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter {
				m.detailMode = false
			}
			return m, nil
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.window = nextWindow(m.window)
			m.renderTabContents()
			return m, nil
		case "-":
			m.window = prevWindow(m.window)
			m.renderTabContents()
			return m, nil
		case "c":
			m.cycleChapter()
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "s":
			if m.activeTab == tabWords {
				m.sortPracticed = !m.sortPracticed
				m.applyTables(true)
			}
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabWords {
				m.openDetail()
			}
			return m, nil
		case "g", "home":
			if t := m.activeTable(); t != nil {
				t.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if t := m.activeTable(); t != nil {
				t.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if t := m.activeTable(); t != nil {
				*t, cmd = t.Update(msg)
				return m, cmd
			}
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.detailMode {
		return fitLines(m.renderDetailModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Chapter: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.filterInputs[filterChapter].Placeholder = "all"
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[filterChapter].SetValue(m.cfg.Chapter)
	if m.cfg.Since != nil {
		m.filterInputs[filterSince].SetValue(m.cfg.Since.Format(time.DateOnly))
	} else {
		m.filterInputs[filterSince].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[filterLast].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[filterLast].SetValue("")
	}
	m.filterInputs[filterWindow].SetValue(strconv.Itoa(m.window))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := maxInt(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	setTableSize(&m.chapterTable, &m.chapterLayout, m.width, bodyHeight)
	setTableSize(&m.wordTable, &m.wordLayout, m.width, bodyHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) activeTable() *table.Model {
	switch m.activeTab {
	case tabChapters:
		return &m.chapterTable
	case tabWords:
		return &m.wordTable
	default:
		return nil
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	m.chapterTable.Blur()
	m.wordTable.Blur()
	if t := m.activeTable(); t != nil {
		t.Focus()
	}
}

// cycleChapter steps the chapter filter through all, then each stored chapter.
func (m *Model) cycleChapter() {
	if m.chapters == nil {
		return
	}
	list, err := m.chapters.ListChapters(context.Background())
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	options := []string{""}
	for _, ch := range list {
		options = append(options, analytics.ChapterLabel(ch))
	}
	next := 0
	for i, opt := range options {
		if opt == m.cfg.Chapter {
			next = (i + 1) % len(options)
			break
		}
	}
	m.cfg.Chapter = options[next]
	m.refreshReport()
}

func (m *Model) refreshReport() {
	report, err := m.builder.Build(context.Background(), m.cfg, m.goals)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.applyTables(true)
	m.renderTabContents()
}

func (m *Model) applyTables(force bool) {
	if m.report.Analysis == nil {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()

	chapterRows := buildChapterRows(m.report.Analysis.Chapters.Analysis.ProcessedData)
	applyTable(&m.chapterTable, &m.chapterLayout, chapterRows, width, bodyHeight, force)

	if m.sortPracticed {
		m.wordRows = stats.MostPracticed(m.report.Analysis.Words, len(m.report.Analysis.Words))
	} else {
		m.wordRows = stats.WeakestWords(m.report.Analysis.Words, 0)
	}
	applyTable(&m.wordTable, &m.wordLayout, buildWordRows(m.wordRows), width, bodyHeight, force)
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" || m.report.Analysis == nil {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.window, width))
	m.viewports[tabTrends].SetContent(renderTrends(m.report.Analysis.Trends))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	chapter := m.cfg.Chapter
	if chapter == "" {
		chapter = "all"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(time.DateOnly)
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Filters: chapter=%s  since=%s  last=%s  window=%d", chapter, since, last, m.window)
	if m.report.Source != "" {
		summary += "  source=" + m.report.Source
	}
	if m.activeTab == tabWords {
		order := "weakest"
		if m.sortPracticed {
			order = "most practiced"
		}
		summary += "  sort=" + order
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down  Chapter: c  Filters: /  Window: -/=  Reload: r  Quit: q"
	if m.activeTab == tabWords {
		help = "Nav: left/right  Details: enter  Sort: s  Chapter: c  Filters: /  Reload: r  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.errMsg != "" || m.report.Analysis == nil {
		return fitLines("Failed to load stats.", m.width, height)
	}
	switch m.activeTab {
	case tabChapters:
		if len(m.report.Analysis.Chapters.Analysis.ProcessedData) == 0 {
			return fitLines("No chapters found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.chapterTable.View()), m.width, height)
	case tabWords:
		if len(m.wordRows) == 0 {
			return fitLines("No tested words found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.wordTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func renderOverview(report stats.Report, window, width int) string {
	a := report.Analysis
	if len(a.Words) == 0 && len(report.Dataset.TestHistory) == 0 {
		return "No data found. Import a vocabulary file first."
	}
	o := a.Chapters.OverviewStats
	v := a.Trends.LearningVelocity
	cards := []string{
		metricCard("Words", fmt.Sprintf("%d / %d tested", o.TestedWords, o.TotalWords)),
		metricCard("Chapters", fmt.Sprintf("%d / %d tested", o.TestedChapters, o.TotalChapters)),
		metricCard("Avg Accuracy", fmt.Sprintf("%.1f%%", o.AverageAccuracy)),
		metricCard("Sessions", strconv.Itoa(a.Trends.AnalysisMetadata.SessionCount)),
		metricCard("Velocity", fmt.Sprintf("%+.2f %s", v.CurrentVelocity, v.Direction)),
		metricCard("Confidence", fmt.Sprintf("%.0f%%", v.Confidence)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	counts := analytics.StatusCounts(a.Words)
	parts := make([]string, 0, len(analytics.AllStatuses))
	for _, s := range analytics.AllStatuses {
		parts = append(parts, fmt.Sprintf("%s %d", s, counts[s]))
	}
	out := summary + "\n" + headerStyle.Render(strings.Join(parts, "  "))
	if q := a.Chapters.DataQuality; q.Degraded() {
		out += "\n" + warnStyle.Render(fmt.Sprintf("%d of %d sessions usable", q.UsableSessions, q.TotalSessions))
	}

	var buf bytes.Buffer
	opts := stats.PlotOptions{Width: stats.PlotWidthFor(width), Height: plotHeight, Color: true}
	if err := stats.RenderCurves(&buf, report.History, window, opts); err != nil {
		return out + "\n" + fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(out+"\n\n"+buf.String(), "\n")
}

func renderTrends(res analytics.TrendsAnalysisResult) string {
	var buf bytes.Buffer
	if err := stats.RenderTrends(&buf, res); err != nil {
		return fmt.Sprintf("Failed to render trends: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) openDetail() {
	idx := m.wordTable.Cursor()
	if idx < 0 || idx >= len(m.wordRows) {
		return
	}
	var buf bytes.Buffer
	if err := stats.RenderWord(&buf, m.wordRows[idx]); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.detail = strings.TrimRight(buf.String(), "\n")
	m.detailMode = true
}

func (m *Model) renderDetailModal() string {
	body := []string{
		cardValueStyle.Render("Word Details"),
		m.detail,
		headerStyle.Render("Enter / Esc to close"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	idx = (idx + count) % count
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	chapter := strings.TrimSpace(m.filterInputs[filterChapter].Value())
	if chapter == "all" {
		chapter = ""
	}

	var since *time.Time
	if raw := strings.TrimSpace(m.filterInputs[filterSince].Value()); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	last := 0
	if raw := strings.TrimSpace(m.filterInputs[filterLast].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	window := m.window
	if raw := strings.TrimSpace(m.filterInputs[filterWindow].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		window = parsed
	}

	m.cfg = model.ReportConfig{Chapter: chapter, Since: since, Last: last}
	m.window = window
	return nil
}

func chapterColumns() []table.Column {
	return []table.Column{
		{Title: "Chapter", Width: 14},
		{Title: "Words", Width: 6},
		{Title: "Tested", Width: 7},
		{Title: "Accuracy", Width: 9},
		{Title: "Hints", Width: 7},
		{Title: "Efficiency", Width: 10},
		{Title: "Completion", Width: 10},
		{Title: "Tests", Width: 6},
		{Title: "History", Width: 16},
	}
}

func wordColumns() []table.Column {
	return []table.Column{
		{Title: "Word", Width: 16},
		{Title: "Translation", Width: 16},
		{Title: "Chapter", Width: 10},
		{Title: "Status", Width: 13},
		{Title: "Attempts", Width: 8},
		{Title: "Accuracy", Width: 9},
		{Title: "Recent", Width: 7},
		{Title: "Hints", Width: 6},
	}
}

func buildChapterRows(chapters []analytics.ChapterMetrics) []table.Row {
	rows := make([]table.Row, 0, len(chapters))
	for _, c := range chapters {
		rows = append(rows, table.Row{
			c.Label,
			strconv.Itoa(c.TotalWords),
			strconv.Itoa(c.TestedWords),
			fmt.Sprintf("%.1f%%", c.Accuracy),
			fmt.Sprintf("%.1f%%", c.HintsPercentage),
			fmt.Sprintf("%.1f%%", c.Efficiency),
			fmt.Sprintf("%.1f%%", c.CompletionRate),
			strconv.Itoa(c.TestCount),
			stats.HistorySparkline(c.History),
		})
	}
	return rows
}

func buildWordRows(words []analytics.WordAnalysis) []table.Row {
	rows := make([]table.Row, 0, len(words))
	for _, w := range words {
		rows = append(rows, table.Row{
			w.English,
			w.Italian,
			analytics.ChapterLabel(w.Chapter),
			string(w.Status),
			strconv.Itoa(w.TotalAttempts),
			fmt.Sprintf("%d%%", w.Accuracy),
			fmt.Sprintf("%d%%", w.RecentAccuracy),
			fmt.Sprintf("%d%%", w.HintsPercentage),
		})
	}
	return rows
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func applyTable(t *table.Model, layout *tableLayout, rows []table.Row, width, height int, force bool) {
	if !force && layout.rowCount == len(rows) {
		return
	}
	t.SetRows(rows)
	if t.Cursor() >= len(rows) {
		t.SetCursor(maxInt(0, len(rows)-1))
	}
	layout.rowCount = len(rows)
	layout.width, layout.height = 0, 0
	setTableSize(t, layout, width, height)
}

func setTableSize(t *table.Model, layout *tableLayout, width, height int) {
	viewportHeight := maxInt(1, height-1)
	if layout.width == width && layout.height == viewportHeight {
		return
	}
	layout.width = width
	layout.height = viewportHeight
	t.SetWidth(width)
	t.SetHeight(viewportHeight)
	if adjusted := adjustTableHeight(t, height); adjusted != viewportHeight {
		layout.height = adjusted
		t.SetHeight(adjusted)
	}
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// adjustTableHeight converges the table height so the rendered view fills
// exactly bodyHeight lines, header included.
func adjustTableHeight(t *table.Model, bodyHeight int) int {
	target := maxInt(1, bodyHeight)
	height := t.Height()
	for i := 0; i < 2; i++ {
		viewHeight := lipgloss.Height(t.View())
		if viewHeight == target {
			return height
		}
		height = maxInt(1, height+target-viewHeight)
		t.SetHeight(height)
	}
	return height
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func nextWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 80))
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
