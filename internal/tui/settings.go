package tui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/store"
)

type settingsModel struct {
	engine *engine.Engine
	width  int
	height int

	settings   map[string]string
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	promptInterval *string
	idleThreshold  *string
}

func newSettingsModel(e *engine.Engine) settingsModel {
	pi, it := "", ""
	return settingsModel{
		engine:         e,
		promptInterval: &pi,
		idleThreshold:  &it,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings map[string]string
	err      error
}

func (s settingsModel) refresh() tea.Cmd {
	e := s.engine
	return func() tea.Msg {
		settings, err := e.Settings()
		return settingsDataMsg{settings: settings, err: err}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		if msg.err != nil {
			return s, errorCmd(msg.err)
		}
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func positiveMinutes(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return errors.New("enter a whole number of minutes greater than zero")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	defaults := store.DefaultSettings()
	*s.promptInterval = s.getVal(store.KeyPromptIntervalMinutes, strconv.Itoa(defaults.PromptIntervalMinutes))
	*s.idleThreshold = s.getVal(store.KeyIdleThresholdMinutes, strconv.Itoa(defaults.IdleThresholdMinutes))

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reminder interval (min)").
				Description("How often to ask whether you are still on the same project.").
				Value(s.promptInterval).
				Validate(positiveMinutes),
			huh.NewInput().
				Title("Idle threshold (min)").
				Value(s.idleThreshold).
				Validate(positiveMinutes),
		).Title("Reminders"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, tea.Sequence(s.saveSettings(), s.refresh())
	}

	return s, cmd
}

// saveSettings writes only the values that changed, so an unchanged
// interval does not reset the reminder timer.
func (s settingsModel) saveSettings() tea.Cmd {
	e := s.engine
	changes := map[string]string{}
	for k, v := range map[string]string{
		store.KeyPromptIntervalMinutes: strings.TrimSpace(*s.promptInterval),
		store.KeyIdleThresholdMinutes:  strings.TrimSpace(*s.idleThreshold),
	} {
		if s.settings[k] != v {
			changes[k] = v
		}
	}
	return func() tea.Msg {
		for k, v := range changes {
			if err := e.SetSetting(k, v); err != nil {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		if len(changes) == 0 {
			return statusMsg{text: "No changes"}
		}
		return statusMsg{text: "Settings saved"}
	}
}

func (s settingsModel) getVal(k, fallback string) string {
	if v, ok := s.settings[k]; ok {
		return v
	}
	return fallback
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	names := make([]string, 0, len(s.settings))
	for k := range s.settings {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		label := lipgloss.NewStyle().Width(24).Render(k)
		value := highlightStyle.Render(formatSettingValue(k, s.settings[k], s.engine.Now()))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string, now time.Time) string {
	switch k {
	case store.KeyPromptIntervalMinutes, store.KeyIdleThresholdMinutes:
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", n)
		}
	case store.KeyLastPromptAt:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return humanize.RelTime(t, now, "ago", "from now")
		}
	}
	return v
}
