package store

import "time"

type Project struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// TimeInterval is one tracked span of work. EndedAt is nil while the
// interval is active; DurationSeconds is only meaningful once it has ended.
type TimeInterval struct {
	ID              int64      `json:"id"`
	ProjectID       int64      `json:"project_id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationSeconds int64      `json:"duration_seconds"`
}

// Active reports whether the interval is still open.
func (t TimeInterval) Active() bool { return t.EndedAt == nil }

// Elapsed returns the tracked time: the stored duration once ended, or the
// time since StartedAt while active.
func (t TimeInterval) Elapsed(now time.Time) time.Duration {
	if t.EndedAt != nil {
		return time.Duration(t.DurationSeconds) * time.Second
	}
	d := now.Sub(t.StartedAt)
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Second)
}

// durationSeconds is floor((end-start)/1s), rejecting negative spans.
func durationSeconds(start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return int64(end.Sub(start) / time.Second), nil
}
