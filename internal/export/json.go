package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          int64  `json:"id"`
	Project     string `json:"project"`
	ProjectID   int64  `json:"project_id"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at,omitempty"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
}

// WriteJSON writes d as an indented document stamped with exportedAt.
func WriteJSON(w io.Writer, d Data, exportedAt time.Time) error {
	doc := jsonExport{
		ExportedAt: exportedAt.UTC().Format(time.RFC3339),
		Count:      len(d.Intervals),
		Entries:    make([]jsonEntry, 0, len(d.Intervals)),
	}

	for _, iv := range d.Intervals {
		ended := ""
		if iv.EndedAt != nil {
			ended = d.format(*iv.EndedAt)
		}
		doc.Entries = append(doc.Entries, jsonEntry{
			ID:          iv.ID,
			Project:     d.projectName(iv.ProjectID),
			ProjectID:   iv.ProjectID,
			StartedAt:   d.format(iv.StartedAt),
			EndedAt:     ended,
			DurationSec: iv.DurationSeconds,
			Duration:    formatDuration(iv.DurationSeconds),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

func ToJSON(d Data, path string, exportedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, d, exportedAt); err != nil {
		return err
	}
	return f.Close()
}
