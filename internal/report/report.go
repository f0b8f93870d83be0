// Package report computes per-day, per-project totals from the store.
// Nothing is cached; every call reads the current contents.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/binto/internal/store"
)

// Row is one project's total for a day.
type Row struct {
	ProjectID    int64  `json:"project_id"`
	ProjectName  string `json:"project_name"`
	TotalSeconds int64  `json:"total_seconds"`
	EntryCount   int    `json:"entry_count"`
}

// Day pairs a calendar day with its summary rows.
type Day struct {
	Date time.Time `json:"date"`
	Rows []Row     `json:"rows"`
}

// Source is the read side of the store the aggregator needs.
type Source interface {
	GetIntervalsForDate(day time.Time) ([]store.TimeInterval, error)
	ListProjects() ([]store.Project, error)
	Location() *time.Location
}

type Aggregator struct {
	src Source
}

func New(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// DailySummary totals the ended intervals that started on day, in the
// store's location.
func (a *Aggregator) DailySummary(day time.Time) ([]Row, error) {
	intervals, err := a.src.GetIntervalsForDate(day)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	projects, err := a.src.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	return Summarize(intervals, projects), nil
}

// Week returns the summaries of the seven days ending on day, oldest first.
func (a *Aggregator) Week(day time.Time) ([]Day, error) {
	loc := a.src.Location()
	local := day.In(loc)
	last := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)

	days := make([]Day, 0, 7)
	for i := 6; i >= 0; i-- {
		d := last.AddDate(0, 0, -i)
		rows, err := a.DailySummary(d)
		if err != nil {
			return nil, err
		}
		days = append(days, Day{
			Date: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc),
			Rows: rows,
		})
	}
	return days, nil
}

// Summarize groups ended intervals by project. Rows are ordered by total
// descending, then project id ascending. Active intervals are skipped.
func Summarize(intervals []store.TimeInterval, projects []store.Project) []Row {
	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	byProject := make(map[int64]*Row)
	for _, iv := range intervals {
		if iv.Active() {
			continue
		}
		r, ok := byProject[iv.ProjectID]
		if !ok {
			name, known := names[iv.ProjectID]
			if !known {
				name = fmt.Sprintf("project %d", iv.ProjectID)
			}
			r = &Row{ProjectID: iv.ProjectID, ProjectName: name}
			byProject[iv.ProjectID] = r
		}
		r.TotalSeconds += iv.DurationSeconds
		r.EntryCount++
	}

	if len(byProject) == 0 {
		return nil
	}
	rows := make([]Row, 0, len(byProject))
	for _, r := range byProject {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalSeconds != rows[j].TotalSeconds {
			return rows[i].TotalSeconds > rows[j].TotalSeconds
		}
		return rows[i].ProjectID < rows[j].ProjectID
	})
	return rows
}

// Total sums TotalSeconds across rows.
func Total(rows []Row) int64 {
	var total int64
	for _, r := range rows {
		total += r.TotalSeconds
	}
	return total
}
