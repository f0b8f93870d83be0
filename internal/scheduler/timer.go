package scheduler

import (
	"time"

	"github.com/sadopc/binto/internal/clock"
)

// armedTimer holds at most one pending timer. Arming always cancels the
// previous one first, and every fire carries the generation it was armed
// with so a fire that was already in flight when the timer was replaced
// can be recognized and dropped.
type armedTimer struct {
	clock clock.Clock
	fires chan<- uint64
	done  <-chan struct{}

	gen      uint64
	timer    *clock.Timer
	deadline time.Time
}

func (a *armedTimer) arm(d time.Duration) {
	a.cancel()
	if d < 0 {
		d = 0
	}
	gen := a.gen
	a.deadline = a.clock.Now().Add(d)
	a.timer = a.clock.AfterFunc(d, func() {
		select {
		case a.fires <- gen:
		case <-a.done:
		}
	})
}

func (a *armedTimer) cancel() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
	a.deadline = time.Time{}
}

// current reports whether gen belongs to the timer that is armed now.
func (a *armedTimer) current(gen uint64) bool {
	return a.timer != nil && gen == a.gen
}

func (a *armedTimer) armed() bool { return a.timer != nil }
