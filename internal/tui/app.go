package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/scheduler"
)

// tabKeys maps the number keys onto views, in viewNames order.
var tabKeys = []key.Binding{keys.Tab1, keys.Tab2, keys.Tab3, keys.Tab4}

// App is the root Bubble Tea model.
type App struct {
	engine *engine.Engine
	width  int
	height int

	activeView viewState
	dashboard  dashboardModel
	projects   projectsModel
	review     reviewModel
	settings   settingsModel
	prompt     promptModel
	export     exportMenu

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(e *engine.Engine) App {
	return App{
		engine:     e,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(e),
		projects:   newProjectsModel(e),
		review:     newReviewModel(e),
		settings:   newSettingsModel(e),
		prompt:     newPromptModel(e),
		export:     exportMenu{engine: e},
		help:       help.New(),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		tickCmd(),
		waitForPrompt(a.engine.Subscribe()),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tickMsg:
		// Ticks carry the engine clock so elapsed times agree with the store.
		now := tickMsg(a.engine.Now())
		var dashCmd, promptCmd tea.Cmd
		a.dashboard, dashCmd = a.dashboard.update(now)
		a.prompt, promptCmd = a.prompt.update(now)
		return a, tea.Batch(tickCmd(), dashCmd, promptCmd)

	case promptMsg:
		// Keep listening: the scheduler sends at most one prompt per fire.
		return a, tea.Batch(
			a.prompt.load(scheduler.Prompt(msg)),
			waitForPrompt(a.engine.Subscribe()),
		)

	case promptDataMsg:
		var cmd tea.Cmd
		a.prompt, cmd = a.prompt.update(msg)
		return a, cmd

	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case trackingMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		if msg.active != nil {
			a.setStatus("Tracking "+msg.projectName, false)
		} else {
			a.setStatus("Stopped", false)
		}
		if a.activeView == viewDashboard {
			return a, cmd
		}
		return a, tea.Batch(cmd, a.refreshCurrentView())

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	a.help.Width = w
	contentHeight := h - 4 // header + footer
	a.dashboard.setSize(w, contentHeight)
	a.projects.setSize(w, contentHeight)
	a.review.setSize(w, contentHeight)
	a.settings.setSize(w, contentHeight)
	a.prompt.setSize(w)
}

func (a *App) setStatus(text string, isErr bool) {
	a.status, a.statusErr = text, isErr
}

// handleKey routes a key press. Overlays come first, then any form the
// active view has open, then global bindings.
func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case a.prompt.visible():
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		a.prompt, cmd = a.prompt.update(msg)
		return a, cmd
	case a.export.open:
		a.export, cmd = a.export.update(msg)
		return a, cmd
	case a.isFormActive():
		return a.updateActiveView(msg)
	}

	for i, b := range tabKeys {
		if key.Matches(msg, b) {
			return a.switchTo(viewState(i))
		}
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Tab):
		return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
	case key.Matches(msg, keys.Export):
		a.export.open = true
		a.export.cursor = 0
		return a, nil
	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	}
	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewReview:
		a.review, cmd = a.review.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

// isFormActive reports whether the active view is capturing text or list
// input, in which case global bindings are suspended.
func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.picking
	case viewProjects:
		return a.projects.formActive
	case viewReview:
		return a.review.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewProjects:
		return a.projects.refresh()
	case viewReview:
		return a.review.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()
	height := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	var content string
	switch {
	case a.prompt.visible():
		content = lipgloss.Place(a.width, height, lipgloss.Center, lipgloss.Center, a.prompt.view())
	case a.export.open:
		content = a.export.view(a.width - 4)
	default:
		content = a.activeContent()
	}

	content = lipgloss.NewStyle().Width(a.width).Height(height).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) activeContent() string {
	switch a.activeView {
	case viewProjects:
		return a.projects.view()
	case viewReview:
		return a.review.view()
	case viewSettings:
		return a.settings.view()
	}
	return a.dashboard.view()
}

func (a App) renderHeader() string {
	tabs := make([]string, len(viewNames))
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = inactiveTabStyle.Render(label)
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("binto")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, lipgloss.NewStyle().Width(gap).Render(""), tabRow),
	)
}

func (a App) renderFooter() string {
	var right string
	if a.prompt.visible() {
		right += warningStyle.Render(" ? ")
	}
	if a.dashboard.isRunning() {
		right += successStyle.Render(" ● " + formatDuration(a.dashboard.elapsed()))
	}
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		right += style.Render(" " + a.status)
	}

	left := footerStyle.Render(a.help.View(keys))
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, lipgloss.NewStyle().Width(gap).Render(""), right)
}
