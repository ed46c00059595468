package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hexward/hexward/internal/engine"
	"github.com/hexward/hexward/internal/report"
	"github.com/hexward/hexward/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	infectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	cleanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(1, 4)
)

const (
	tickInterval   = 100 * time.Millisecond
	resultsHelp    = "q: quit | ?: help | j/k: navigate | x: excise | r: rescan | c: copy infected"
	scanningHelp   = "q: cancel | ctrl+c: cancel and quit"
	statusLifetime = 3 * time.Second
)

// ScanFunc runs one scan with the given options.
type ScanFunc func(ctx context.Context, opts engine.Options) (*report.Report, error)

// FixFunc excises one fixable infection and reports whether it worked.
type FixFunc func(f report.Fixable) bool

type tickMsg time.Time

type reportMsg struct {
	rep *report.Report
	err error
}

type statusMsg string

// row is one infected file in the results table.
type row struct {
	path    string
	name    string
	fixable bool
	rg      types.Range
	digest  string
}

// Model is a scan window: progress bars while the scan runs, then a table of
// infected files.
type Model struct {
	ctx      context.Context
	scan     ScanFunc
	fix      FixFunc
	progress *engine.Progress
	prefs    Prefs

	coarseBar progress.Model
	fineBar   progress.Model
	spinner   spinner.Model
	table     table.Model

	report *report.Report
	rows   []row
	fixed  map[string]bool
	err    error

	scanning      bool
	quitAfterScan bool
	quitting      bool
	showHelp      bool
	width         int
	height        int
	statusMessage string
	statusTimeout *time.Time
}

// NewModel builds a model that starts scanning as soon as the program runs.
func NewModel(ctx context.Context, scan ScanFunc, fix FixFunc, prefs Prefs) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	t := table.New(
		table.WithColumns(columnsFor(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true)
	s.Cell = lipgloss.NewStyle().Padding(0, 1)
	t.SetStyles(s)

	// Line spinner avoids Braille characters that render poorly on some terminals
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	return Model{
		ctx:           ctx,
		scan:          scan,
		fix:           fix,
		progress:      &engine.Progress{},
		prefs:         prefs,
		coarseBar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		fineBar:       progress.New(progress.WithGradient("#5A56E0", "#EE6FF8"), progress.WithWidth(50)),
		spinner:       sp,
		table:         t,
		fixed:         map[string]bool{},
		scanning:      true,
		statusMessage: scanningHelp,
	}
}

func columnsFor(width int) []table.Column {
	path := width - 12 - 28 - 10
	if path < 20 {
		path = 20
	}
	return []table.Column{
		{Title: "Status", Width: 12},
		{Title: "Malware", Width: 28},
		{Title: "Path", Width: path},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runScan(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// runScan resets the shared progress and starts the scan on the program's
// command goroutine.
func (m Model) runScan() tea.Cmd {
	m.progress.Reset()
	scan, ctx, opts := m.scan, m.ctx, m.progress.Options(m.prefs.Fast)
	return func() tea.Msg {
		if scan == nil {
			return reportMsg{err: fmt.Errorf("scanning not available")}
		}
		rep, err := scan(ctx, opts)
		return reportMsg{rep: rep, err: err}
	}
}

// Report returns the last report the model received.
func (m Model) Report() *report.Report { return m.report }

// Err returns the error of the last scan, if any.
func (m Model) Err() error { return m.err }

func (m *Model) setStatus(s string) {
	timeout := time.Now().Add(statusLifetime)
	m.statusTimeout = &timeout
	m.statusMessage = s
}

func (m *Model) setReport(rep *report.Report) {
	m.report = rep
	m.rows = m.rows[:0]
	m.fixed = map[string]bool{}
	if rep != nil {
		for _, u := range rep.Unfixable {
			m.rows = append(m.rows, row{path: u.Path, name: u.Name})
		}
		for _, f := range rep.Fixable {
			m.rows = append(m.rows, row{path: f.Path, name: f.Name, fixable: true, rg: f.Range, digest: f.Digest})
		}
	}
	m.refreshTable()
	m.table.SetCursor(0)
}

func (m *Model) refreshTable() {
	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		status := "UNFIXABLE"
		switch {
		case m.fixed[r.path]:
			status = "EXCISED"
		case r.fixable:
			status = "FIXABLE"
		}
		rows[i] = table.Row{status, r.name, r.path}
	}
	m.table.SetRows(rows)
}

func (m *Model) selected() (row, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return row{}, false
	}
	return m.rows[i], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columnsFor(msg.Width))
		m.table.SetWidth(msg.Width)
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		barWidth := msg.Width - 20
		if barWidth > 80 {
			barWidth = 80
		}
		if barWidth > 10 {
			m.coarseBar.Width = barWidth
			m.fineBar.Width = barWidth
		}
		return m, nil

	case tickMsg:
		if m.scanning {
			return m, tick()
		}
		return m, nil

	case reportMsg:
		m.scanning = false
		m.err = msg.err
		if msg.rep != nil {
			m.setReport(msg.rep)
		}
		if m.quitAfterScan {
			m.quitting = true
			return m, tea.Quit
		}
		switch {
		case msg.err != nil && msg.rep == nil:
			m.setStatus(fmt.Sprintf("Scan error: %v", msg.err))
		case msg.err != nil:
			m.setStatus(fmt.Sprintf("Scan finished with error: %v", msg.err))
		case msg.rep.Aborted:
			m.setStatus("Scan cancelled - results are partial")
		default:
			m.setStatus(fmt.Sprintf("Scan complete - %d infected", msg.rep.Infected()))
		}
		return m, nil

	case statusMsg:
		m.setStatus(string(msg))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
			m.statusTimeout = nil
			m.statusMessage = resultsHelp
			if m.scanning {
				m.statusMessage = scanningHelp
			}
		}
		return m, cmd

	case tea.KeyMsg:
		if m.scanning {
			return m.updateScanning(msg)
		}
		return m.updateResults(msg)
	}
	return m, nil
}

func (m Model) updateScanning(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitAfterScan = true
		m.progress.Cancel()
		m.statusMessage = "Cancelling..."
	case "q", "esc":
		m.progress.Cancel()
		m.statusMessage = "Cancelling..."
	}
	return m, nil
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "?", "h", "q", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "?", "h":
		m.showHelp = true
		return m, nil
	case "r":
		m.scanning = true
		m.statusMessage = scanningHelp
		return m, tea.Batch(m.runScan(), tick())
	case "s":
		m.prefs.Fast = !m.prefs.Fast
		_ = SavePrefs(m.prefs)
		mode := "fast"
		if !m.prefs.Fast {
			mode = "slow"
		}
		m.setStatus("Next scan runs in " + mode + " mode")
		return m, nil
	case "d":
		m.prefs.ShowDenied = !m.prefs.ShowDenied
		_ = SavePrefs(m.prefs)
		return m, nil
	case "c":
		return m, m.copyInfected()
	case "y":
		return m, m.copySelectedPath()
	case "x":
		m.setStatus(m.exciseSelected())
		return m, nil
	case "X":
		m.setStatus(m.exciseAll())
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.scanning {
		return m.scanningView()
	}
	if m.showHelp {
		return m.helpView()
	}
	return m.resultsView()
}

func (m Model) scanningView() string {
	snap := m.progress.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render("hexward") + "\n\n")
	fmt.Fprintf(&b, "%s Scanning %s\n\n", m.spinner.View(), dimStyle.Render(truncateLeft(snap.Path, 60)))
	fmt.Fprintf(&b, "files      %s\n", m.coarseBar.ViewAs(float64(snap.Coarse)/100))
	fmt.Fprintf(&b, "signatures %s\n\n", m.fineBar.ViewAs(float64(snap.Fine)/100))
	b.WriteString(statusStyle.Render(m.statusMessage))
	return b.String()
}

func (m Model) resultsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("hexward") + " " + m.summary() + "\n")
	if m.report != nil && m.report.Aborted {
		b.WriteString(warnStyle.Render("Scan aborted; results are partial.") + "\n")
	}
	b.WriteString("\n")
	if len(m.rows) == 0 {
		msg := cleanStyle.Render("No infected files found.")
		if m.err != nil && m.report == nil {
			msg = infectedStyle.Render(m.err.Error())
		}
		b.WriteString(msg + "\n")
	} else {
		b.WriteString(m.table.View() + "\n")
	}
	if m.prefs.ShowDenied && m.report != nil && len(m.report.Denied) > 0 {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("Access denied (%d):", len(m.report.Denied))) + "\n")
		for _, p := range m.report.Denied {
			b.WriteString(dimStyle.Render("  "+p) + "\n")
		}
	}
	b.WriteString("\n" + statusStyle.Render(m.statusMessage))
	return b.String()
}

func (m Model) summary() string {
	if m.report == nil {
		return ""
	}
	r := m.report
	infected := fmt.Sprintf("%d infected", r.Infected())
	if r.Infected() > 0 {
		infected = infectedStyle.Render(infected)
	} else {
		infected = cleanStyle.Render(infected)
	}
	return fmt.Sprintf("%s | %d fixable | %d scanned (%d cached) | %d denied",
		infected, len(r.Fixable), r.Stats.FilesScanned, r.Stats.CacheHits, len(r.Denied))
}

func (m Model) helpView() string {
	keys := [][2]string{
		{"j/k, up/down", "move"},
		{"x", "excise the selected fixable infection"},
		{"X", "excise every fixable infection"},
		{"y", "copy selected path"},
		{"c", "copy all infected paths"},
		{"r", "rescan"},
		{"s", "toggle fast/slow mode"},
		{"d", "toggle denied paths"},
		{"q", "quit"},
	}
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%-14s %s\n", k[0], k[1])
	}
	box := popupStyle.Render(strings.TrimRight(b.String(), "\n"))
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func truncateLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-n+3:])
}
