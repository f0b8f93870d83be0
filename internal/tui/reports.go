package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/report"
	"github.com/sadopc/binto/internal/store"
	"github.com/sadopc/binto/internal/timeparse"
)

// reviewModel shows one calendar day: its per-project totals, the week
// ending on it as a chart, and its entries, which can be corrected.
type reviewModel struct {
	engine *engine.Engine
	width  int
	height int

	day      time.Time
	rows     []report.Row
	week     []report.Day
	entries  []store.TimeInterval
	projects []store.Project
	cursor   int

	chart barchart.Model

	formActive bool
	form       *huh.Form
	formType   string // "add", "edit", "delete"
	editing    store.TimeInterval

	// Form field pointers (survive value copies)
	formProject *int64
	formStart   *string
	formEnd     *string
	formConfirm *bool
}

func newReviewModel(e *engine.Engine) reviewModel {
	var project int64
	start, end, confirm := "", "", false
	r := reviewModel{
		engine:      e,
		chart:       barchart.New(60, 12),
		formProject: &project,
		formStart:   &start,
		formEnd:     &end,
		formConfirm: &confirm,
	}
	r.day = r.today()
	return r
}

func (r *reviewModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

func (r reviewModel) today() time.Time {
	d, err := r.engine.ParseDate(r.engine.Today())
	if err != nil {
		return r.engine.Now()
	}
	return d
}

func (r reviewModel) date() string {
	return r.day.Format(engine.DateLayout)
}

type reviewDataMsg struct {
	day      time.Time
	rows     []report.Row
	week     []report.Day
	entries  []store.TimeInterval
	projects []store.Project
	err      error
}

func (r reviewModel) refresh() tea.Cmd {
	e, day, date := r.engine, r.day, r.date()
	return func() tea.Msg {
		msg := reviewDataMsg{day: day}
		var err error
		if msg.rows, err = e.DailySummary(date); err != nil {
			return reviewDataMsg{day: day, err: err}
		}
		if msg.week, err = e.WeekSummary(date); err != nil {
			return reviewDataMsg{day: day, err: err}
		}
		if msg.entries, err = e.EntriesForDate(date); err != nil {
			return reviewDataMsg{day: day, err: err}
		}
		if msg.projects, err = e.Projects(); err != nil {
			return reviewDataMsg{day: day, err: err}
		}
		return msg
	}
}

func (r reviewModel) update(msg tea.Msg) (reviewModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	switch msg := msg.(type) {
	case reviewDataMsg:
		if msg.err != nil {
			return r, errorCmd(msg.err)
		}
		if !msg.day.Equal(r.day) {
			// Stale load for a day we already navigated away from.
			return r, nil
		}
		r.rows = msg.rows
		r.week = msg.week
		r.entries = msg.entries
		r.projects = msg.projects
		if r.cursor >= len(r.entries) {
			r.cursor = max(0, len(r.entries)-1)
		}
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.day = r.day.AddDate(0, 0, -1)
			r.cursor = 0
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if next := r.day.AddDate(0, 0, 1); !next.After(r.today()) {
				r.day = next
				r.cursor = 0
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Today):
			r.day = r.today()
			r.cursor = 0
			return r, r.refresh()
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < len(r.entries)-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.New):
			if len(r.projects) == 0 {
				return r, statusCmd("Create a project first")
			}
			return r.showAddForm()
		case key.Matches(msg, keys.Edit):
			if iv, ok := r.selected(); ok {
				return r.showEditForm(iv)
			}
		case key.Matches(msg, keys.Delete):
			if iv, ok := r.selected(); ok {
				return r.showDeleteForm(iv)
			}
		}
	}
	return r, nil
}

func (r reviewModel) selected() (store.TimeInterval, bool) {
	if r.cursor < 0 || r.cursor >= len(r.entries) {
		return store.TimeInterval{}, false
	}
	return r.entries[r.cursor], true
}

// parseClock validates a start or end field against the reviewed day.
func (r reviewModel) parseClock(s string) (time.Time, error) {
	loc := r.engine.Store().Location()
	return timeparse.At(s, r.day, r.engine.Now().In(loc))
}

func (r reviewModel) validateClock(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	if _, err := r.parseClock(s); err != nil {
		return errors.New("use 15:04, 2006-01-02 15:04 or -30m")
	}
	return nil
}

func (r reviewModel) showAddForm() (reviewModel, tea.Cmd) {
	r.formType = "add"
	*r.formProject = r.projects[0].ID
	*r.formStart = ""
	*r.formEnd = ""

	options := make([]huh.Option[int64], len(r.projects))
	for i, p := range r.projects {
		options[i] = huh.NewOption(p.Name, p.ID)
	}

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().Title("Project").Options(options...).Value(r.formProject),
			huh.NewInput().Title("Start").Placeholder("09:00").Value(r.formStart).Validate(r.validateClock),
			huh.NewInput().Title("End").Placeholder("10:30").Value(r.formEnd).Validate(r.validateClock),
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r reviewModel) showEditForm(iv store.TimeInterval) (reviewModel, tea.Cmd) {
	loc := r.engine.Store().Location()
	r.formType = "edit"
	r.editing = iv
	*r.formStart = iv.StartedAt.In(loc).Format("15:04:05")
	*r.formEnd = ""
	if iv.EndedAt != nil {
		*r.formEnd = iv.EndedAt.In(loc).Format("15:04:05")
	}

	endInput := huh.NewInput().Title("End").Value(r.formEnd).Validate(r.validateClock)
	if iv.Active() {
		endInput = huh.NewInput().
			Title("End").
			Description("Leave empty to keep it running.").
			Value(r.formEnd).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return nil
				}
				return r.validateClock(s)
			})
	}

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Start").Value(r.formStart).Validate(r.validateClock),
			endInput,
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r reviewModel) showDeleteForm(iv store.TimeInterval) (reviewModel, tea.Cmd) {
	r.formType = "delete"
	r.editing = iv
	*r.formConfirm = false

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete this entry?").
				Description(fmt.Sprintf("%s, %s", nameOf(projectNames(r.projects), iv.ProjectID), r.clockRange(iv))).
				Affirmative("Delete").
				Negative("Keep").
				Value(r.formConfirm),
		),
	).WithShowHelp(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r reviewModel) updateForm(msg tea.Msg) (reviewModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.formActive = false
			r.form = nil
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State != huh.StateCompleted {
		return r, cmd
	}
	r.formActive = false

	var save tea.Cmd
	switch r.formType {
	case "add":
		save = r.addEntry(*r.formProject, *r.formStart, *r.formEnd)
	case "edit":
		save = r.editEntry(r.editing, *r.formStart, *r.formEnd)
	case "delete":
		if !*r.formConfirm {
			return r, nil
		}
		save = r.deleteEntry(r.editing)
	}
	return r, tea.Sequence(save, r.refresh(), reloadTracking(r.engine))
}

func (r reviewModel) addEntry(projectID int64, startText, endText string) tea.Cmd {
	return func() tea.Msg {
		start, err := r.parseClock(startText)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		end, err := r.parseClock(endText)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		iv, err := r.engine.CreateManualEntry(projectID, start, end)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return statusMsg{text: "Added " + formatSeconds(iv.DurationSeconds)}
	}
}

func (r reviewModel) editEntry(iv store.TimeInterval, startText, endText string) tea.Cmd {
	return func() tea.Msg {
		start, err := r.parseClock(startText)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		var end *time.Time
		if strings.TrimSpace(endText) != "" {
			t, err := r.parseClock(endText)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
			end = &t
		}
		if _, err := r.engine.UpdateEntry(iv.ID, start, end); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return statusMsg{text: "Entry updated"}
	}
}

func (r reviewModel) deleteEntry(iv store.TimeInterval) tea.Cmd {
	e := r.engine
	return func() tea.Msg {
		if err := e.DeleteEntry(iv.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return statusMsg{text: "Entry deleted"}
	}
}

func (r reviewModel) clockRange(iv store.TimeInterval) string {
	loc := r.engine.Store().Location()
	end := "now"
	if iv.EndedAt != nil {
		end = iv.EndedAt.In(loc).Format("15:04")
	}
	return iv.StartedAt.In(loc).Format("15:04") + "-" + end
}

func (r *reviewModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if r.height > 36 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, d := range r.week {
		var values []barchart.BarValue
		for _, row := range d.Rows {
			values = append(values, barchart.BarValue{
				Name:  row.ProjectName,
				Value: float64(row.TotalSeconds) / 3600.0,
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(projectColor(row.ProjectID))),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{
			Label:  d.Date.Format("Mon 02"),
			Values: values,
		})
	}
	if len(bars) == 0 {
		return
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reviewModel) view() string {
	w := r.width - 4

	if r.formActive && r.form != nil {
		titles := map[string]string{"add": "Add Entry", "edit": "Edit Entry", "delete": "Delete Entry"}
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(titles[r.formType]),
			mutedStyle.Render(r.day.Format("Monday, Jan 02 2006")),
			"",
			r.form.View(),
		)
		return panelStyle.Width(w).Render(content)
	}

	dateLabel := highlightStyle.Render(r.day.Format("Monday, Jan 02 2006"))
	total := lipgloss.NewStyle().Foreground(colorSecondary).Render(formatHours(report.Total(r.rows)))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Review"), "  ", dateLabel, "  ", total,
	)

	nav := mutedStyle.Render("  ←/→: day  t: today  n: add  e: edit  d: delete")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "",
			r.chart.View(), "",
			r.renderLegend(), "",
			r.renderSummaryTable(w), "",
			r.renderEntries(), "",
			nav,
		),
	)
}

func (r reviewModel) renderSummaryTable(w int) string {
	if len(r.rows) == 0 {
		return mutedStyle.Render("  No completed entries this day")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-22s %10s %8s", "Project", "Duration", "Entries")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 42))))

	for _, s := range r.rows {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(projectColor(s.ProjectID))).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-20s %10s %8d",
			colorDot, s.ProjectName, formatSeconds(s.TotalSeconds), s.EntryCount,
		))
	}

	return strings.Join(rows, "\n")
}

func (r reviewModel) renderEntries() string {
	if len(r.entries) == 0 {
		return mutedStyle.Render("  No entries")
	}
	names := projectNames(r.projects)
	now := r.engine.Now()

	var rows []string
	rows = append(rows, titleStyle.Render("Entries"))
	for i, iv := range r.entries {
		cursor := "  "
		style := normalItemStyle
		if i == r.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dur := formatDuration(iv.Elapsed(now))
		if iv.Active() {
			dur = successStyle.Render(dur + " ●")
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-11s %-20s", cursor, r.clockRange(iv), nameOf(names, iv.ProjectID)))+" "+dur)
	}
	return strings.Join(rows, "\n")
}

func (r reviewModel) renderLegend() string {
	seen := make(map[int64]bool)
	var items []string
	for _, d := range r.week {
		for _, s := range d.Rows {
			if seen[s.ProjectID] {
				continue
			}
			seen[s.ProjectID] = true
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(projectColor(s.ProjectID))).Render("●")
			items = append(items, fmt.Sprintf("%s %s", dot, s.ProjectName))
		}
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
