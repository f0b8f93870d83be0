package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sadopc/binto/internal/store"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatDuration renders d as "1h 05m", "12m 30s" or "45s".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int64(d / time.Hour)
	m := int64(d/time.Minute) % 60
	s := int64(d/time.Second) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

// clockRange renders an interval as "09:00-10:30", or "09:00-now" while
// it is still running.
func (a *app) clockRange(iv store.TimeInterval) string {
	loc := a.store.Location()
	end := "now"
	if iv.EndedAt != nil {
		end = iv.EndedAt.In(loc).Format("15:04")
	}
	return iv.StartedAt.In(loc).Format("15:04") + "-" + end
}

func relative(t time.Time, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
