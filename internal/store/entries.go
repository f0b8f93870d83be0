package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const intervalColumns = `id, project_id, started_at, ended_at, duration_seconds`

// StartInterval ends whatever interval is active (for any project) at now
// and opens a new one for projectID, in a single transaction: either both
// steps commit or neither does.
func (s *Store) StartInterval(projectID int64) (*TimeInterval, error) {
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		if err := projectExists(tx, projectID); err != nil {
			return fmt.Errorf("start interval: %w", err)
		}

		now := s.now()
		if err := endActive(tx, now); err != nil {
			return err
		}

		res, err := tx.Exec(
			`INSERT INTO time_entries (project_id, started_at, duration_seconds) VALUES (?, ?, 0)`,
			projectID, formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("insert interval: %w", classify(err))
		}
		id, _ = res.LastInsertId()

		if _, err := tx.Exec(`UPDATE projects SET last_used_at = ? WHERE id = ?`, formatTime(now), projectID); err != nil {
			return fmt.Errorf("touch project %d: %w", projectID, classify(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInterval(id)
}

// endActive closes every open interval at now. Normally there is at most
// one; more would only exist in a database written by something else.
func endActive(tx *sql.Tx, now time.Time) error {
	rows, err := tx.Query(`SELECT id, started_at FROM time_entries WHERE ended_at IS NULL`)
	if err != nil {
		return fmt.Errorf("find active interval: %w", classify(err))
	}
	type open struct {
		id    int64
		start time.Time
	}
	var active []open
	for rows.Next() {
		var o open
		var startStr string
		if err := rows.Scan(&o.id, &startStr); err != nil {
			rows.Close()
			return err
		}
		if o.start, err = parseTime(startStr); err != nil {
			rows.Close()
			return err
		}
		active = append(active, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, o := range active {
		dur, err := durationSeconds(o.start, now)
		if err != nil {
			return fmt.Errorf("end active interval %d: %w", o.id, err)
		}
		if _, err := tx.Exec(
			`UPDATE time_entries SET ended_at = ?, duration_seconds = ? WHERE id = ?`,
			formatTime(now), dur, o.id,
		); err != nil {
			return fmt.Errorf("end active interval %d: %w", o.id, classify(err))
		}
	}
	return nil
}

// EndInterval closes the interval at endedAt, or at now when endedAt is
// nil. Ending an already ended interval moves its end.
func (s *Store) EndInterval(id int64, endedAt *time.Time) (*TimeInterval, error) {
	err := s.withTx(func(tx *sql.Tx) error {
		iv, err := scanInterval(tx.QueryRow(`SELECT `+intervalColumns+` FROM time_entries WHERE id = ?`, id))
		if err != nil {
			return fmt.Errorf("end interval %d: %w", id, err)
		}

		end := s.now()
		if endedAt != nil {
			end = endedAt.UTC().Truncate(time.Second)
		}
		dur, err := durationSeconds(iv.StartedAt, end)
		if err != nil {
			return fmt.Errorf("end interval %d: %w", id, err)
		}

		_, err = tx.Exec(
			`UPDATE time_entries SET ended_at = ?, duration_seconds = ? WHERE id = ?`,
			formatTime(end), dur, id,
		)
		if err != nil {
			return fmt.Errorf("end interval %d: %w", id, classify(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInterval(id)
}

func (s *Store) GetInterval(id int64) (*TimeInterval, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	iv, err := scanInterval(s.db.QueryRow(`SELECT `+intervalColumns+` FROM time_entries WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get interval %d: %w", id, err)
	}
	return iv, nil
}

// GetActiveInterval returns the open interval, or nil if nothing is being
// tracked. Should several be open, the most recently started one wins.
func (s *Store) GetActiveInterval() (*TimeInterval, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	iv, err := scanInterval(s.db.QueryRow(
		`SELECT ` + intervalColumns + ` FROM time_entries
		 WHERE ended_at IS NULL ORDER BY started_at DESC, id DESC LIMIT 1`,
	))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active interval: %w", err)
	}
	return iv, nil
}

// UpdateInterval corrects an interval's endpoints and recomputes its
// duration. A nil endedAt is only accepted for the active interval, where
// it moves the start and leaves the interval open.
func (s *Store) UpdateInterval(id int64, startedAt time.Time, endedAt *time.Time) (*TimeInterval, error) {
	start := startedAt.UTC().Truncate(time.Second)
	err := s.withTx(func(tx *sql.Tx) error {
		iv, err := scanInterval(tx.QueryRow(`SELECT `+intervalColumns+` FROM time_entries WHERE id = ?`, id))
		if err != nil {
			return fmt.Errorf("update interval %d: %w", id, err)
		}

		if endedAt == nil {
			if !iv.Active() {
				return fmt.Errorf("update interval %d: cannot reopen an ended interval: %w", id, ErrInvalidInput)
			}
			if start.After(s.now()) {
				return fmt.Errorf("update interval %d: start is in the future: %w", id, ErrInvalidRange)
			}
			_, err = tx.Exec(`UPDATE time_entries SET started_at = ? WHERE id = ?`, formatTime(start), id)
			if err != nil {
				return fmt.Errorf("update interval %d: %w", id, classify(err))
			}
			return nil
		}

		end := endedAt.UTC().Truncate(time.Second)
		dur, err := durationSeconds(start, end)
		if err != nil {
			return fmt.Errorf("update interval %d: %w", id, err)
		}
		_, err = tx.Exec(
			`UPDATE time_entries SET started_at = ?, ended_at = ?, duration_seconds = ? WHERE id = ?`,
			formatTime(start), formatTime(end), dur, id,
		)
		if err != nil {
			return fmt.Errorf("update interval %d: %w", id, classify(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInterval(id)
}

// DeleteInterval removes an interval. Deleting a missing id is a no-op.
func (s *Store) DeleteInterval(id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete interval %d: %w", id, classify(err))
	}
	return nil
}

// CreateManualInterval records a finished interval with both endpoints
// given. It never touches the active interval.
func (s *Store) CreateManualInterval(projectID int64, startedAt, endedAt time.Time) (*TimeInterval, error) {
	start := startedAt.UTC().Truncate(time.Second)
	end := endedAt.UTC().Truncate(time.Second)
	dur, err := durationSeconds(start, end)
	if err != nil {
		return nil, fmt.Errorf("create manual interval: %w", err)
	}

	var id int64
	err = s.withTx(func(tx *sql.Tx) error {
		if err := projectExists(tx, projectID); err != nil {
			return fmt.Errorf("create manual interval: %w", err)
		}
		res, err := tx.Exec(
			`INSERT INTO time_entries (project_id, started_at, ended_at, duration_seconds) VALUES (?, ?, ?, ?)`,
			projectID, formatTime(start), formatTime(end), dur,
		)
		if err != nil {
			return fmt.Errorf("insert manual interval: %w", classify(err))
		}
		id, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInterval(id)
}

// GetIntervalsForDate returns every interval that started on day (in the
// store's location), oldest first.
func (s *Store) GetIntervalsForDate(day time.Time) ([]TimeInterval, error) {
	from, to := s.dayBounds(day)
	return s.queryIntervals(
		`SELECT `+intervalColumns+` FROM time_entries
		 WHERE started_at >= ? AND started_at < ?
		 ORDER BY started_at ASC, id ASC`,
		formatTime(from), formatTime(to),
	)
}

// GetIntervalsForProjectAndDate is GetIntervalsForDate limited to one project.
func (s *Store) GetIntervalsForProjectAndDate(projectID int64, day time.Time) ([]TimeInterval, error) {
	from, to := s.dayBounds(day)
	return s.queryIntervals(
		`SELECT `+intervalColumns+` FROM time_entries
		 WHERE project_id = ? AND started_at >= ? AND started_at < ?
		 ORDER BY started_at ASC, id ASC`,
		projectID, formatTime(from), formatTime(to),
	)
}

// ListIntervals returns intervals that started in [from, to), oldest first.
func (s *Store) ListIntervals(from, to time.Time) ([]TimeInterval, error) {
	return s.queryIntervals(
		`SELECT `+intervalColumns+` FROM time_entries
		 WHERE started_at >= ? AND started_at < ?
		 ORDER BY started_at ASC, id ASC`,
		formatTime(from), formatTime(to),
	)
}

func (s *Store) queryIntervals(query string, args ...any) ([]TimeInterval, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list intervals: %w", classify(err))
	}
	defer rows.Close()

	var intervals []TimeInterval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, *iv)
	}
	return intervals, rows.Err()
}

func scanInterval(r rowScanner) (*TimeInterval, error) {
	iv := &TimeInterval{}
	var startedAt string
	var endedAt sql.NullString
	var duration sql.NullInt64
	if err := r.Scan(&iv.ID, &iv.ProjectID, &startedAt, &endedAt, &duration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify(err)
	}
	var err error
	if iv.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t, err := parseTime(endedAt.String)
		if err != nil {
			return nil, err
		}
		iv.EndedAt = &t
		iv.DurationSeconds = duration.Int64
	}
	return iv, nil
}

func projectExists(tx *sql.Tx, projectID int64) error {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM projects WHERE id = ?`, projectID).Scan(&n); err != nil {
		return classify(err)
	}
	if n == 0 {
		return fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}
	return nil
}
