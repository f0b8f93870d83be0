package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/store"
)

type projectsModel struct {
	engine *engine.Engine
	width  int
	height int

	projects       []store.Project
	entries        []store.TimeInterval
	cursor         int
	viewingEntries bool // true = today's entries of the selected project

	formActive bool
	form       *huh.Form
	formType   string // "project", "delete"

	// Form field pointers (survive value copies)
	formName    *string
	formConfirm *bool
}

func newProjectsModel(e *engine.Engine) projectsModel {
	name, confirm := "", false
	return projectsModel{
		engine:      e,
		formName:    &name,
		formConfirm: &confirm,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type projectsDataMsg struct {
	projects []store.Project
	err      error
}

type projectEntriesMsg struct {
	entries []store.TimeInterval
	err     error
}

func (p projectsModel) refresh() tea.Cmd {
	e := p.engine
	return func() tea.Msg {
		projects, err := e.Projects()
		return projectsDataMsg{projects: projects, err: err}
	}
}

func (p projectsModel) refreshEntries() tea.Cmd {
	proj, ok := p.selected()
	if !ok {
		return nil
	}
	e := p.engine
	return func() tea.Msg {
		entries, err := e.EntriesByProject(proj.ID, e.Today())
		return projectEntriesMsg{entries: entries, err: err}
	}
}

func (p projectsModel) selected() (store.Project, bool) {
	if p.cursor < 0 || p.cursor >= len(p.projects) {
		return store.Project{}, false
	}
	return p.projects[p.cursor], true
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case projectsDataMsg:
		if msg.err != nil {
			return p, errorCmd(msg.err)
		}
		p.projects = msg.projects
		if p.cursor >= len(p.projects) {
			p.cursor = max(0, len(p.projects)-1)
		}
		return p, nil

	case projectEntriesMsg:
		if msg.err != nil {
			return p, errorCmd(msg.err)
		}
		p.entries = msg.entries
		return p, nil

	case tea.KeyMsg:
		if p.viewingEntries {
			if key.Matches(msg, keys.Back) {
				p.viewingEntries = false
			}
			return p, nil
		}
		return p.updateProjectList(msg)
	}
	return p, nil
}

func (p projectsModel) updateProjectList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.projects)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.projects) > 0 {
			p.viewingEntries = true
			return p, p.refreshEntries()
		}
	case key.Matches(msg, keys.Start):
		if proj, ok := p.selected(); ok {
			return p, startTracking(p.engine, proj)
		}
	case key.Matches(msg, keys.New):
		return p.showNewProjectForm()
	case key.Matches(msg, keys.Delete):
		if _, ok := p.selected(); ok {
			return p.showDeleteForm()
		}
	}
	return p, nil
}

func (p projectsModel) showNewProjectForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	p.formType = "project"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project Name").
				Value(p.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showDeleteForm() (projectsModel, tea.Cmd) {
	proj, _ := p.selected()
	*p.formConfirm = false
	p.formType = "delete"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", proj.Name)).
				Description("All of its time entries are deleted too.").
				Affirmative("Delete").
				Negative("Keep").
				Value(p.formConfirm),
		),
	).WithShowHelp(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		switch p.formType {
		case "project":
			return p, tea.Sequence(p.createProject(*p.formName), p.refresh())
		case "delete":
			proj, ok := p.selected()
			if !ok || !*p.formConfirm {
				return p, nil
			}
			return p, tea.Sequence(p.deleteProject(proj), p.refresh(), reloadTracking(p.engine))
		}
	}

	return p, cmd
}

func (p projectsModel) createProject(name string) tea.Cmd {
	e := p.engine
	return func() tea.Msg {
		proj, err := e.CreateProject(name)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return statusMsg{text: "Created " + proj.Name}
	}
}

func (p projectsModel) deleteProject(proj store.Project) tea.Cmd {
	e := p.engine
	return func() tea.Msg {
		if err := e.DeleteProject(proj.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return statusMsg{text: "Deleted " + proj.Name}
	}
}

func (p projectsModel) view() string {
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		if p.formType == "delete" {
			title = titleStyle.Render("Delete Project")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View())
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingEntries {
		return p.renderEntries()
	}
	return p.renderProjectList()
}

func (p projectsModel) renderProjectList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")

	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-24s %s", "", "Name", "Last used")))

	now := p.engine.Now()
	for i, proj := range p.projects {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(projectColor(proj.ID))).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		used := humanize.RelTime(proj.LastUsedAt, now, "ago", "from now")
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-24s", cursor, colorDot, proj.Name))+mutedStyle.Render(used))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  s: start  d: delete  enter: today's entries"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p projectsModel) renderEntries() string {
	w := p.width - 4
	proj, ok := p.selected()
	if !ok {
		return panelStyle.Width(w).Render(mutedStyle.Render("No project selected"))
	}
	colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(projectColor(proj.ID))).Render("●")
	title := titleStyle.Render(fmt.Sprintf("%s %s, today", colorDot, proj.Name))

	if len(p.entries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No entries today."),
		)
		return panelStyle.Width(w).Render(content)
	}

	loc := p.engine.Store().Location()
	now := p.engine.Now()
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	var total int64
	for _, iv := range p.entries {
		end := "now"
		if iv.EndedAt != nil {
			end = iv.EndedAt.In(loc).Format("15:04")
			total += iv.DurationSeconds
		}
		rows = append(rows, fmt.Sprintf("  %s-%-5s  %s",
			iv.StartedAt.In(loc).Format("15:04"), end, formatDuration(iv.Elapsed(now))))
	}
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %s %s", mutedStyle.Render("completed:"), highlightStyle.Render(formatSeconds(total))))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
