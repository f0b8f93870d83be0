package tui

import (
	"time"

	"github.com/sadopc/binto/internal/store"
)

// timerModel mirrors the store's active interval for display. The store is
// the source of truth; this only remembers what was last loaded and the
// time of the last tick.
type timerModel struct {
	active      *store.TimeInterval
	projectName string
	now         time.Time
}

func newTimerModel(now time.Time) timerModel {
	return timerModel{now: now}
}

// set replaces the mirrored interval. A nil interval means stopped.
func (t *timerModel) set(active *store.TimeInterval, projectName string) {
	t.active = active
	t.projectName = projectName
	if active == nil {
		t.projectName = ""
	}
}

func (t *timerModel) tick(now time.Time) {
	t.now = now
}

func (t timerModel) running() bool {
	return t.active != nil
}

func (t timerModel) projectID() int64 {
	if t.active == nil {
		return 0
	}
	return t.active.ProjectID
}

func (t timerModel) currentElapsed() time.Duration {
	if t.active == nil {
		return 0
	}
	return t.active.Elapsed(t.now)
}
