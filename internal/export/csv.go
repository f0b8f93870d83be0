package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/binto/internal/store"
)

// Data is an export: intervals plus the names of their projects. Times are
// written in Loc.
type Data struct {
	Intervals []store.TimeInterval
	Projects  map[int64]string
	Loc       *time.Location
}

// NewData indexes projects by id. A nil loc means UTC.
func NewData(intervals []store.TimeInterval, projects []store.Project, loc *time.Location) Data {
	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	if loc == nil {
		loc = time.UTC
	}
	return Data{Intervals: intervals, Projects: names, Loc: loc}
}

func (d Data) projectName(id int64) string {
	if name, ok := d.Projects[id]; ok {
		return name
	}
	return "Unknown"
}

func (d Data) format(t time.Time) string {
	return t.In(d.Loc).Format(time.RFC3339)
}

var csvHeader = []string{"ID", "Project", "Started", "Ended", "Duration (s)", "Duration"}

func WriteCSV(w io.Writer, d Data) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, iv := range d.Intervals {
		ended := ""
		if iv.EndedAt != nil {
			ended = d.format(*iv.EndedAt)
		}
		row := []string{
			strconv.FormatInt(iv.ID, 10),
			d.projectName(iv.ProjectID),
			d.format(iv.StartedAt),
			ended,
			strconv.FormatInt(iv.DurationSeconds, 10),
			formatDuration(iv.DurationSeconds),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ToCSV(d Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, d); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
