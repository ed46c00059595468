package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hexward/hexward/internal/report"
)

var writeClipboard = clipboard.WriteAll

// copyInfected copies every infected path, one per line.
func (m Model) copyInfected() tea.Cmd {
	if len(m.rows) == 0 {
		return func() tea.Msg { return statusMsg("Nothing to copy") }
	}
	paths := make([]string, len(m.rows))
	for i, r := range m.rows {
		paths[i] = r.path
	}
	if err := writeClipboard(strings.Join(paths, "\n")); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg(fmt.Sprintf("Copied %d paths", len(paths))) }
}

// copySelectedPath copies the selected row's path.
func (m Model) copySelectedPath() tea.Cmd {
	r, ok := m.selected()
	if !ok {
		return func() tea.Msg { return statusMsg("No file selected") }
	}
	if err := writeClipboard(r.path); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg(fmt.Sprintf("Copied: %s", r.path)) }
}

func (m *Model) exciseSelected() string {
	r, ok := m.selected()
	switch {
	case !ok:
		return "No file selected"
	case !r.fixable:
		return "Only pattern matches can be excised"
	case m.fixed[r.path]:
		return "Already excised"
	case m.fix == nil:
		return "Excision not available"
	}
	if !m.fix(r.entry()) {
		return "Failed to excise " + r.path
	}
	m.fixed[r.path] = true
	m.refreshTable()
	return "Excised " + r.name + " from " + r.path
}

func (m *Model) exciseAll() string {
	if m.fix == nil {
		return "Excision not available"
	}
	var ok, failed int
	for _, r := range m.rows {
		if !r.fixable || m.fixed[r.path] {
			continue
		}
		if m.fix(r.entry()) {
			m.fixed[r.path] = true
			ok++
		} else {
			failed++
		}
	}
	m.refreshTable()
	if ok == 0 && failed == 0 {
		return "No fixable infections"
	}
	if failed > 0 {
		return fmt.Sprintf("Excised %d files, %d failed", ok, failed)
	}
	return fmt.Sprintf("Excised %d files", ok)
}

// Fixed returns the paths excised during the session.
func (m Model) Fixed() []string {
	var out []string
	for _, r := range m.rows {
		if m.fixed[r.path] {
			out = append(out, r.path)
		}
	}
	return out
}

func (r row) entry() report.Fixable {
	return report.Fixable{Path: r.path, Name: r.name, Range: r.rg, Digest: r.digest}
}
