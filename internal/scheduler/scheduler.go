// Package scheduler decides when to remind the user to confirm what is
// being tracked.
//
// A Scheduler is driven by a single goroutine (Run) that owns all of its
// state: the armed timer, the cached prompt interval and the cached
// checkpoint. Every other method sends a request to that goroutine and
// waits for it to be handled, so there is never more than one timer
// outstanding and no two transitions interleave.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sadopc/binto/internal/clock"
	"github.com/sadopc/binto/internal/power"
	"github.com/sadopc/binto/internal/store"
)

// ErrPersistence marks a failed checkpoint or settings read/write. It is
// logged by the run loop and returned from the request methods.
var ErrPersistence = errors.New("scheduler persistence failure")

// ErrStopped is returned by request methods once Run has returned.
var ErrStopped = errors.New("scheduler stopped")

// DefaultGrace is the delay before an overdue prompt fires at startup, so
// the UI has a moment to come up first.
const DefaultGrace = 5 * time.Second

type State int

const (
	Idle State = iota
	Armed
	Firing
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Firing:
		return "firing"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Prompt asks the UI to confirm that the active interval is still right.
type Prompt struct {
	ProjectID  int64     `json:"project_id"`
	IntervalID int64     `json:"interval_id"`
	At         time.Time `json:"at"`
}

// Store is the part of the entity store the scheduler reads and writes.
type Store interface {
	GetActiveInterval() (*store.TimeInterval, error)
	LoadSettings() (store.Settings, error)
	SetLastPromptAt(t time.Time) error
	SetSetting(key, value string) error
}

type Scheduler struct {
	store  Store
	clock  clock.Clock
	logger *slog.Logger
	grace  time.Duration
	power  <-chan power.Event

	prompts  chan Prompt
	requests chan func()
	fires    chan uint64
	done     chan struct{}
	running  atomic.Bool

	// Owned by the Run goroutine.
	state        State
	interval     time.Duration
	lastPromptAt *time.Time
	timer        armedTimer
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGrace sets the startup delay for a prompt that is already overdue.
func WithGrace(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.grace = d
		}
	}
}

// WithPower subscribes the scheduler to suspend/resume notifications.
func WithPower(events <-chan power.Event) Option {
	return func(s *Scheduler) { s.power = events }
}

func New(st Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		clock:    clock.Real(),
		logger:   slog.New(slog.DiscardHandler),
		grace:    DefaultGrace,
		prompts:  make(chan Prompt, 1),
		requests: make(chan func()),
		fires:    make(chan uint64),
		done:     make(chan struct{}),
		interval: store.DefaultSettings().PromptInterval(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timer = armedTimer{clock: s.clock, fires: s.fires, done: s.done}
	return s
}

// Prompts delivers reminders. It holds at most one unread prompt; while
// one is waiting, later fires still checkpoint but are not queued again.
func (s *Scheduler) Prompts() <-chan Prompt { return s.prompts }

// Run loads the schedule from the store, arms the first timer and serves
// fires, power events and requests until ctx is cancelled. It may only be
// called once.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("scheduler: already running")
	}
	defer func() {
		s.timer.cancel()
		s.state = Stopped
		close(s.done)
		s.logger.Info("scheduler stopped")
	}()

	s.load()
	s.start()

	for {
		select {
		case <-ctx.Done():
			return nil
		case gen := <-s.fires:
			if !s.timer.current(gen) {
				s.logger.Debug("dropping stale timer fire")
				continue
			}
			s.fire()
		case ev, ok := <-s.power:
			if !ok {
				s.power = nil
				continue
			}
			s.handlePower(ev)
		case req := <-s.requests:
			req()
		}
	}
}

// Reset cancels the pending timer and arms a full interval. The checkpoint
// is left alone.
func (s *Scheduler) Reset() error {
	return s.do(func() {
		s.arm(s.interval, "reset")
	})
}

// SetInterval persists a new prompt interval and resets the timer. If the
// write fails the old interval stays in effect.
func (s *Scheduler) SetInterval(minutes int) error {
	var err error
	doErr := s.do(func() {
		if minutes <= 0 {
			err = fmt.Errorf("set interval: %d minutes: %w", minutes, store.ErrInvalidInput)
			return
		}
		if werr := s.store.SetSetting(store.KeyPromptIntervalMinutes, strconv.Itoa(minutes)); werr != nil {
			s.logger.Warn("persisting prompt interval failed", "error", werr)
			err = fmt.Errorf("set interval: %w: %w", ErrPersistence, werr)
			return
		}
		s.interval = time.Duration(minutes) * time.Minute
		s.arm(s.interval, "interval changed")
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// Continue moves the checkpoint to now without prompting. Callers that
// also want a fresh cadence follow it with Reset.
func (s *Scheduler) Continue() error {
	var err error
	doErr := s.do(func() {
		now := s.clock.Now().UTC().Truncate(time.Second)
		if werr := s.store.SetLastPromptAt(now); werr != nil {
			s.logger.Warn("persisting checkpoint failed", "error", werr)
			err = fmt.Errorf("continue: %w: %w", ErrPersistence, werr)
			return
		}
		s.lastPromptAt = &now
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (s *Scheduler) State() State {
	st := Stopped
	if err := s.do(func() { st = s.state }); err != nil {
		return Stopped
	}
	return st
}

// NextFire returns when the armed timer is due, or the zero time when no
// timer is armed.
func (s *Scheduler) NextFire() time.Time {
	var next time.Time
	s.do(func() { next = s.timer.deadline })
	return next
}

// do runs fn on the Run goroutine and waits for it to finish. It blocks
// until Run is serving requests.
func (s *Scheduler) do(fn func()) error {
	finished := make(chan struct{})
	select {
	case s.requests <- func() { fn(); close(finished) }:
	case <-s.done:
		return ErrStopped
	}
	<-finished
	return nil
}

// load refreshes the cached interval and checkpoint. On failure the cached
// values stay in effect.
func (s *Scheduler) load() {
	st, err := s.store.LoadSettings()
	if err != nil {
		s.logger.Warn("loading scheduler settings failed, keeping cached values",
			"error", fmt.Errorf("%w: %w", ErrPersistence, err),
			"interval", s.interval,
		)
		return
	}
	s.interval = st.PromptInterval()
	s.lastPromptAt = st.LastPromptAt
}

func (s *Scheduler) start() {
	if s.lastPromptAt == nil {
		s.arm(s.interval, "start, no checkpoint")
		return
	}
	d, reason := Delay(*s.lastPromptAt, s.interval, s.grace, s.clock.Now())
	s.arm(d, "start, "+reason)
}

// Delay is how long a scheduler starting at now waits before its next
// prompt, given the last checkpoint. An overdue checkpoint waits only the
// grace delay; one ahead of the clock waits a full interval.
func Delay(lastPromptAt time.Time, interval, grace time.Duration, now time.Time) (time.Duration, string) {
	elapsed := now.Sub(lastPromptAt)
	switch {
	case elapsed < 0:
		return interval, "checkpoint ahead of clock"
	case elapsed >= interval:
		return grace, "overdue"
	default:
		return interval - elapsed, "remainder"
	}
}

func (s *Scheduler) arm(d time.Duration, reason string) {
	s.timer.arm(d)
	s.state = Armed
	s.logger.Debug("timer armed",
		"reason", reason,
		"delay", d,
		"period", s.interval,
	)
}

// fire checks for an active interval, writes the checkpoint, publishes a
// prompt and re-arms for the next period. Any failure skips the prompt but
// keeps the cadence. A checkpoint written by another process since the
// last load postpones the prompt to a full interval after it.
func (s *Scheduler) fire() {
	s.state = Firing
	next, reason := s.interval, "period"
	defer func() { s.arm(next, reason) }()

	prev := s.lastPromptAt
	s.load()
	if cp := s.lastPromptAt; cp != nil && (prev == nil || cp.After(*prev)) {
		if since := s.clock.Now().Sub(*cp); since < s.interval {
			next, reason = min(s.interval-since, s.interval), "checkpoint moved"
			s.logger.Info("checkpoint moved since last load, postponing prompt",
				"checkpoint", *cp, "delay", next)
			return
		}
	}

	active, err := s.store.GetActiveInterval()
	if err != nil {
		s.logger.Warn("reading active interval failed, skipping prompt",
			"error", fmt.Errorf("%w: %w", ErrPersistence, err))
		return
	}
	if active == nil {
		s.logger.Debug("nothing is being tracked, skipping prompt")
		return
	}

	now := s.clock.Now().UTC().Truncate(time.Second)
	if err := s.store.SetLastPromptAt(now); err != nil {
		s.logger.Warn("writing checkpoint failed, skipping prompt",
			"error", fmt.Errorf("%w: %w", ErrPersistence, err))
		return
	}
	s.lastPromptAt = &now

	p := Prompt{ProjectID: active.ProjectID, IntervalID: active.ID, At: now}
	select {
	case s.prompts <- p:
		s.logger.Info("prompt dispatched", "project_id", p.ProjectID, "interval_id", p.IntervalID)
	default:
		s.logger.Debug("previous prompt still unread", "project_id", p.ProjectID)
	}
}

func (s *Scheduler) handlePower(ev power.Event) {
	switch ev {
	case power.Suspend:
		s.logger.Info("system suspended")
	case power.Resume:
		s.reconcile()
	}
}

// reconcile runs after a resume. The armed timer did not count the time
// spent suspended, so it is replaced based on real elapsed time.
func (s *Scheduler) reconcile() {
	s.load()
	if s.lastPromptAt == nil {
		s.logger.Info("resumed without a checkpoint, rearming full interval")
		s.arm(s.interval, "resume, no checkpoint")
		return
	}

	elapsed := s.clock.Now().Sub(*s.lastPromptAt)
	switch {
	case elapsed < 0:
		s.logger.Info("resumed with checkpoint ahead of clock, rearming full interval")
		s.arm(s.interval, "resume, checkpoint ahead of clock")
	case elapsed >= s.interval:
		s.logger.Info("resumed past due, prompting now", "elapsed", elapsed.Round(time.Second))
		s.timer.cancel()
		s.fire()
	default:
		s.logger.Info("resumed early, rearming for remainder", "elapsed", elapsed.Round(time.Second))
		s.arm(s.interval-elapsed, "resume")
	}
}
