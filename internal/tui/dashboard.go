package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/report"
	"github.com/sadopc/binto/internal/store"
)

const recentLimit = 5

type dashboardModel struct {
	engine *engine.Engine
	timer  timerModel
	width  int
	height int

	todaySummary  []report.Row
	recentEntries []store.TimeInterval
	projects      []store.Project

	// Project picker state
	picking      bool
	pickerCursor int
}

func newDashboardModel(e *engine.Engine) dashboardModel {
	return dashboardModel{
		engine: e,
		timer:  newTimerModel(e.Now()),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	active        *store.TimeInterval
	todaySummary  []report.Row
	recentEntries []store.TimeInterval
	projects      []store.Project
	err           error
}

func (d dashboardModel) loadData() tea.Cmd {
	e := d.engine
	return func() tea.Msg {
		var msg dashboardDataMsg
		var err error
		if msg.active, err = e.ActiveEntry(); err != nil {
			return dashboardDataMsg{err: err}
		}
		today := e.Today()
		if msg.todaySummary, err = e.DailySummary(today); err != nil {
			return dashboardDataMsg{err: err}
		}
		entries, err := e.EntriesForDate(today)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		// Newest first.
		for i := len(entries) - 1; i >= 0 && len(msg.recentEntries) < recentLimit; i-- {
			msg.recentEntries = append(msg.recentEntries, entries[i])
		}
		if msg.projects, err = e.Projects(); err != nil {
			return dashboardDataMsg{err: err}
		}
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.err != nil {
			return d, errorCmd(msg.err)
		}
		d.todaySummary = msg.todaySummary
		d.recentEntries = msg.recentEntries
		d.projects = msg.projects
		d.timer.set(msg.active, d.nameOf(msg.active))
		return d, nil

	case trackingMsg:
		d.timer.set(msg.active, msg.projectName)
		return d, d.loadData()

	case tickMsg:
		d.timer.tick(time.Time(msg))
		return d, nil

	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if len(d.projects) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "No projects yet. Press 2 to go to Projects and create one.", isError: true}
				}
			}
			if len(d.projects) == 1 {
				return d, startTracking(d.engine, d.projects[0])
			}
			d.picking = true
			d.pickerCursor = 0
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d, stopTracking(d.engine)

		case key.Matches(msg, keys.Continue):
			if !d.timer.running() {
				return d, nil
			}
			return d, continueTracking(d.engine)
		}
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.projects)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		d.picking = false
		if d.pickerCursor < len(d.projects) {
			return d, startTracking(d.engine, d.projects[d.pickerCursor])
		}
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

func (d dashboardModel) nameOf(iv *store.TimeInterval) string {
	if iv == nil {
		return ""
	}
	return nameOf(projectNames(d.projects), iv.ProjectID)
}

// startTracking switches tracking to p. The engine resets the reminder
// cadence.
func startTracking(e *engine.Engine, p store.Project) tea.Cmd {
	return func() tea.Msg {
		iv, err := e.StartTracking(p.ID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return trackingMsg{active: iv, projectName: p.Name}
	}
}

// stopTracking ends the active interval and restarts the reminder cadence.
func stopTracking(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		iv, err := e.StopTracking()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		e.ResetTimer()
		if iv == nil {
			return statusMsg{text: "Nothing is being tracked"}
		}
		return trackingMsg{}
	}
}

// reloadTracking re-reads the active interval after an edit that may have
// changed or removed it.
func reloadTracking(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		active, err := e.ActiveEntry()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		if active == nil {
			return trackingMsg{}
		}
		name := fmt.Sprintf("project %d", active.ProjectID)
		if p, err := e.Store().GetProject(active.ProjectID); err == nil {
			name = p.Name
		}
		return trackingMsg{active: active, projectName: name}
	}
}

// continueTracking confirms the active interval and restarts the reminder
// cadence from now.
func continueTracking(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		if err := e.ContinueTracking(); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		e.ResetTimer()
		return statusMsg{text: "Confirmed"}
	}
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	timerPanel := d.renderTimerPanel(contentWidth)
	summaryPanel := d.renderSummaryPanel(contentWidth)

	var bottomPanel string
	if d.picking {
		bottomPanel = renderProjectPicker(d.projects, d.pickerCursor, contentWidth)
	} else {
		bottomPanel = d.renderRecentPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, summaryPanel, bottomPanel)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(d.timer.currentElapsed()))
		indicator := successStyle.Render("●  TRACKING")
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(projectColor(d.timer.projectID()))).Render("●")
		projectLine := dot + " " + highlightStyle.Render(d.timer.projectName)
		since := mutedStyle.Render("since " + d.timer.active.StartedAt.In(d.engine.Store().Location()).Format("15:04"))

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			projectLine,
			since,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  STOPPED")
	hint := mutedStyle.Render("Press s to start tracking")

	content := lipgloss.JoinVertical(lipgloss.Center,
		timeDisplay,
		indicator,
		hint,
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatSeconds(report.Total(d.todaySummary)))
	header := fmt.Sprintf("%s  %s", title, total)

	if len(d.todaySummary) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No completed entries today"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, header)
	for _, s := range d.todaySummary {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(projectColor(s.ProjectID))).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-20s %s  (%d entries)",
			colorDot,
			s.ProjectName,
			formatSeconds(s.TotalSeconds),
			s.EntryCount,
		))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.recentEntries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	names := projectNames(d.projects)
	var rows []string
	rows = append(rows, title)
	for _, e := range d.recentEntries {
		dur := formatSeconds(e.DurationSeconds)
		status := "✓"
		if e.Active() {
			status = "●"
			dur = "running"
		}
		rows = append(rows, fmt.Sprintf("  %s %s  %-16s %s",
			status, e.StartedAt.In(d.engine.Store().Location()).Format("15:04"), nameOf(names, e.ProjectID), dur))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// renderProjectPicker lists projects with a cursor. It is shared by the
// dashboard and the reminder overlay.
func renderProjectPicker(projects []store.Project, cursor, w int) string {
	title := titleStyle.Render("Select Project")

	var rows []string
	rows = append(rows, title)
	for i, p := range projects {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(projectColor(p.ID))).Render("●")
		prefix := "  "
		style := normalItemStyle
		if i == cursor {
			prefix = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", prefix, colorDot, p.Name)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
