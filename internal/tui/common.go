package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/binto/internal/scheduler"
	"github.com/sadopc/binto/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewProjects
	viewReview
	viewSettings
)

var viewNames = []string{"Dashboard", "Projects", "Review", "Settings"}

// --- Messages ---

// trackingMsg reports the active interval after anything that may have
// changed it.
type trackingMsg struct {
	active      *store.TimeInterval
	projectName string
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type promptMsg scheduler.Prompt

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func statusCmd(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
	}
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

// projectColor picks a stable palette color for a project.
func projectColor(id int64) string {
	if id < 0 {
		id = -id
	}
	return projectColors[id%int64(len(projectColors))]
}

func projectNames(projects []store.Project) map[int64]string {
	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names
}

func nameOf(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("project %d", id)
}
