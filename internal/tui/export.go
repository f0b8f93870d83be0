package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/export"
)

type exportFormat struct {
	label string
	ext   string
}

var exportFormats = []exportFormat{
	{label: "CSV", ext: "csv"},
	{label: "JSON", ext: "json"},
}

// exportMenu asks for a format and writes the whole history to a dated
// file in the home directory.
type exportMenu struct {
	engine *engine.Engine
	open   bool
	cursor int
}

func (m exportMenu) update(msg tea.KeyMsg) (exportMenu, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, keys.Down):
		m.cursor = min(m.cursor+1, len(exportFormats)-1)
	case key.Matches(msg, keys.Enter):
		m.open = false
		return m, writeExport(m.engine, exportFormats[m.cursor])
	case key.Matches(msg, keys.Back):
		m.open = false
	}
	return m, nil
}

func (m exportMenu) view(w int) string {
	rows := []string{titleStyle.Render("Export Format"), ""}
	for i, f := range exportFormats {
		if i == m.cursor {
			rows = append(rows, selectedItemStyle.Render("> "+f.label))
			continue
		}
		rows = append(rows, normalItemStyle.Render("  "+f.label))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func exportPath(dir string, f exportFormat, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("binto-export-%s.%s", now.Format(engine.DateLayout), f.ext))
}

func writeExport(e *engine.Engine, f exportFormat) tea.Cmd {
	return func() tea.Msg {
		loc := e.Store().Location()
		now := e.Now()
		intervals, err := e.Entries(time.Time{}, now.AddDate(0, 0, 1))
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		projects, err := e.Projects()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		data := export.NewData(intervals, projects, loc)

		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		path := exportPath(home, f, now.In(loc))

		switch f.ext {
		case "csv":
			err = export.ToCSV(data, path)
		default:
			err = export.ToJSON(data, path, now)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("%s export error: %v", f.label, err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
