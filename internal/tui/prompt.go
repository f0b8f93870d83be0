package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/scheduler"
	"github.com/sadopc/binto/internal/store"
)

// promptModel is the reminder overlay. It opens when the scheduler
// publishes a prompt and closes once the user continues, stops, switches
// project or dismisses it.
type promptModel struct {
	engine *engine.Engine
	width  int

	prompt      *scheduler.Prompt
	projectName string
	interval    *store.TimeInterval
	now         time.Time

	projects     []store.Project
	picking      bool
	pickerCursor int
}

func newPromptModel(e *engine.Engine) promptModel {
	return promptModel{engine: e, now: e.Now()}
}

func (m *promptModel) setSize(w int) {
	m.width = w
}

func (m promptModel) visible() bool {
	return m.prompt != nil
}

// waitForPrompt blocks on the scheduler's prompt channel. It has to be
// re-issued after every prompt. A nil channel yields no command.
func waitForPrompt(ch <-chan scheduler.Prompt) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return promptMsg(p)
	}
}

type promptDataMsg struct {
	prompt   scheduler.Prompt
	interval *store.TimeInterval
	name     string
	projects []store.Project
	err      error
}

// load checks the prompt against the store: a prompt whose interval has
// already ended or been replaced is dropped.
func (m promptModel) load(p scheduler.Prompt) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		msg := promptDataMsg{prompt: p}
		active, err := e.ActiveEntry()
		if err != nil {
			msg.err = err
			return msg
		}
		if active == nil || active.ID != p.IntervalID {
			return msg
		}
		msg.interval = active
		if msg.projects, err = e.Projects(); err != nil {
			msg.err = err
			return msg
		}
		msg.name = nameOf(projectNames(msg.projects), p.ProjectID)
		return msg
	}
}

func (m promptModel) update(msg tea.Msg) (promptModel, tea.Cmd) {
	switch msg := msg.(type) {
	case promptDataMsg:
		if msg.err != nil {
			return m, errorCmd(msg.err)
		}
		if msg.interval == nil {
			return m, nil
		}
		p := msg.prompt
		m.prompt = &p
		m.interval = msg.interval
		m.projectName = msg.name
		m.projects = msg.projects
		m.picking = false
		m.pickerCursor = 0
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, nil

	case tea.KeyMsg:
		if !m.visible() {
			return m, nil
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		switch {
		case key.Matches(msg, keys.Continue), key.Matches(msg, keys.Enter):
			m.close()
			return m, continueTracking(m.engine)
		case key.Matches(msg, keys.Stop):
			m.close()
			return m, stopTracking(m.engine)
		case key.Matches(msg, keys.Start):
			m.picking = true
			m.pickerCursor = 0
			for i, p := range m.projects {
				if p.ID == m.prompt.ProjectID {
					m.pickerCursor = i
				}
			}
			return m, nil
		case key.Matches(msg, keys.Back):
			m.close()
			return m, nil
		}
	}
	return m, nil
}

func (m promptModel) updatePicker(msg tea.KeyMsg) (promptModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.pickerCursor < len(m.projects)-1 {
			m.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		if m.pickerCursor >= len(m.projects) {
			return m, nil
		}
		p := m.projects[m.pickerCursor]
		m.close()
		if p.ID == m.interval.ProjectID {
			return m, continueTracking(m.engine)
		}
		return m, startTracking(m.engine, p)
	case key.Matches(msg, keys.Back):
		m.picking = false
	}
	return m, nil
}

func (m *promptModel) close() {
	m.prompt = nil
	m.picking = false
}

func (m promptModel) view() string {
	if !m.visible() {
		return ""
	}
	w := min(m.width-4, 60)

	if m.picking {
		return renderProjectPicker(m.projects, m.pickerCursor, w)
	}

	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(projectColor(m.prompt.ProjectID))).Render("●")
	question := titleStyle.Render("Still working on ") + dot + " " + highlightStyle.Render(m.projectName) + titleStyle.Render("?")
	elapsed := mutedStyle.Render(fmt.Sprintf("Tracking for %s, since %s",
		formatDuration(m.interval.Elapsed(m.now)),
		m.interval.StartedAt.In(m.engine.Store().Location()).Format("15:04"),
	))
	actions := lipgloss.JoinHorizontal(lipgloss.Top,
		successStyle.Render("c/enter: continue"), "   ",
		accentStyle.Render("x: stop"), "   ",
		highlightStyle.Render("s: switch project"), "   ",
		mutedStyle.Render("esc: later"),
	)

	return promptPanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, question, "", elapsed, "", actions),
	)
}
