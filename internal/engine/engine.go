// Package engine is the command surface the CLI and TUI call. Each method
// maps to one user-level command and returns typed store errors unchanged
// so callers can test them with errors.Is.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/binto/internal/clock"
	"github.com/sadopc/binto/internal/report"
	"github.com/sadopc/binto/internal/scheduler"
	"github.com/sadopc/binto/internal/store"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Scheduler is the part of the prompt scheduler the engine drives.
type Scheduler interface {
	Reset() error
	SetInterval(minutes int) error
	Continue() error
	Prompts() <-chan scheduler.Prompt
}

type Engine struct {
	store  *store.Store
	agg    *report.Aggregator
	sched  Scheduler
	clock  clock.Clock
	logger *slog.Logger
}

type Option func(*Engine)

// WithScheduler attaches a running scheduler. Without one, tracking
// changes do not reset any timer and the checkpoint is written directly.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		agg:    report.New(st),
		clock:  clock.Real(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the underlying store for read-only helpers like export.
func (e *Engine) Store() *store.Store { return e.store }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// Subscribe returns the prompt channel, or nil when no scheduler is
// attached. Receiving from a nil channel blocks forever, which is what a
// select loop wants.
func (e *Engine) Subscribe() <-chan scheduler.Prompt {
	if e.sched == nil {
		return nil
	}
	return e.sched.Prompts()
}

// ============================================================
// Projects
// ============================================================

func (e *Engine) Projects() ([]store.Project, error) {
	return e.store.ListProjects()
}

func (e *Engine) CreateProject(name string) (*store.Project, error) {
	return e.store.CreateProject(strings.TrimSpace(name))
}

func (e *Engine) DeleteProject(id int64) error {
	return e.store.DeleteProject(id)
}

// ResolveProject finds a project by exact name, falling back to a numeric
// id.
func (e *Engine) ResolveProject(ref string) (*store.Project, error) {
	p, err := e.store.GetProjectByName(ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	id, perr := strconv.ParseInt(ref, 10, 64)
	if perr != nil {
		return nil, err
	}
	return e.store.GetProject(id)
}

// ============================================================
// Tracking
// ============================================================

// StartTracking switches tracking to projectID and restarts the prompt
// cadence.
func (e *Engine) StartTracking(projectID int64) (*store.TimeInterval, error) {
	iv, err := e.store.StartInterval(projectID)
	if err != nil {
		return nil, err
	}
	e.logger.Info("tracking started", "project_id", projectID, "interval_id", iv.ID)
	e.ResetTimer()
	return iv, nil
}

// StopTracking ends the active interval. It returns nil, nil when nothing
// was being tracked.
func (e *Engine) StopTracking() (*store.TimeInterval, error) {
	active, err := e.store.GetActiveInterval()
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, nil
	}
	iv, err := e.store.EndInterval(active.ID, nil)
	if err != nil {
		return nil, err
	}
	e.logger.Info("tracking stopped", "project_id", iv.ProjectID, "duration_seconds", iv.DurationSeconds)
	return iv, nil
}

func (e *Engine) ActiveEntry() (*store.TimeInterval, error) {
	return e.store.GetActiveInterval()
}

// ContinueTracking records that the user confirmed the active interval:
// the checkpoint moves to now and nothing else changes.
func (e *Engine) ContinueTracking() error {
	if e.sched != nil {
		return e.sched.Continue()
	}
	return e.store.SetLastPromptAt(e.clock.Now())
}

// ResetTimer restarts the prompt cadence. Failures are logged only.
func (e *Engine) ResetTimer() {
	if e.sched == nil {
		return
	}
	if err := e.sched.Reset(); err != nil {
		e.logger.Warn("scheduler reset failed", "error", err)
	}
}

// ============================================================
// Summaries and entries
// ============================================================

func (e *Engine) DailySummary(date string) ([]report.Row, error) {
	day, err := e.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return e.agg.DailySummary(day)
}

// WeekSummary returns the seven days ending on date.
func (e *Engine) WeekSummary(date string) ([]report.Day, error) {
	day, err := e.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return e.agg.Week(day)
}

func (e *Engine) EntriesByProject(projectID int64, date string) ([]store.TimeInterval, error) {
	day, err := e.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return e.store.GetIntervalsForProjectAndDate(projectID, day)
}

func (e *Engine) EntriesForDate(date string) ([]store.TimeInterval, error) {
	day, err := e.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return e.store.GetIntervalsForDate(day)
}

// Entries returns intervals that started in [from, to).
func (e *Engine) Entries(from, to time.Time) ([]store.TimeInterval, error) {
	return e.store.ListIntervals(from, to)
}

func (e *Engine) UpdateEntry(id int64, startedAt time.Time, endedAt *time.Time) (*store.TimeInterval, error) {
	return e.store.UpdateInterval(id, startedAt, endedAt)
}

func (e *Engine) DeleteEntry(id int64) error {
	return e.store.DeleteInterval(id)
}

func (e *Engine) CreateManualEntry(projectID int64, startedAt, endedAt time.Time) (*store.TimeInterval, error) {
	return e.store.CreateManualInterval(projectID, startedAt, endedAt)
}

// ============================================================
// Settings
// ============================================================

func (e *Engine) Settings() (map[string]string, error) {
	return e.store.GetAllSettings()
}

// SetSetting stores a setting. A prompt interval change goes through the
// scheduler so the new period takes effect immediately.
func (e *Engine) SetSetting(key, value string) error {
	if key == store.KeyPromptIntervalMinutes && e.sched != nil {
		minutes, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("set setting: %s must be a positive integer, got %q: %w",
				key, value, store.ErrInvalidInput)
		}
		return e.sched.SetInterval(minutes)
	}
	return e.store.SetSetting(key, value)
}

// ParseDate parses a YYYY-MM-DD date in the store's location.
func (e *Engine) ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, e.store.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, store.ErrInvalidInput)
	}
	return d, nil
}

// Today returns the current date in DateLayout.
func (e *Engine) Today() string {
	return e.clock.Now().In(e.store.Location()).Format(DateLayout)
}
