package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/binto/internal/clock"
	"github.com/sadopc/binto/internal/report"
	"github.com/sadopc/binto/internal/scheduler"
	"github.com/sadopc/binto/internal/store"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeScheduler struct {
	resets    int
	intervals []int
	continues int
	err       error
	prompts   chan scheduler.Prompt
}

func (f *fakeScheduler) Reset() error { f.resets++; return f.err }

func (f *fakeScheduler) SetInterval(minutes int) error {
	f.intervals = append(f.intervals, minutes)
	return f.err
}

func (f *fakeScheduler) Continue() error { f.continues++; return f.err }

func (f *fakeScheduler) Prompts() <-chan scheduler.Prompt { return f.prompts }

func newEngine(t *testing.T, opts ...Option) (*Engine, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(t0)
	st, err := store.NewMemory(store.WithClock(clk), store.WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, append([]Option{WithClock(clk)}, opts...)...), clk
}

func TestWritingScenario(t *testing.T) {
	e, clk := newEngine(t)

	p, err := e.CreateProject("Writing")
	require.NoError(t, err)

	iv, err := e.StartTracking(p.ID)
	require.NoError(t, err)
	assert.True(t, iv.Active())

	clk.Advance(125 * time.Second)
	ended, err := e.StopTracking()
	require.NoError(t, err)
	require.NotNil(t, ended)
	assert.Equal(t, int64(125), ended.DurationSeconds)

	rows, err := e.DailySummary(t0.Format(DateLayout))
	require.NoError(t, err)
	assert.Equal(t, []report.Row{{ProjectID: p.ID, ProjectName: "Writing", TotalSeconds: 125, EntryCount: 1}}, rows)
}

func TestStopTrackingNothingActive(t *testing.T) {
	e, _ := newEngine(t)
	iv, err := e.StopTracking()
	require.NoError(t, err)
	assert.Nil(t, iv)
}

func TestStartTrackingResetsScheduler(t *testing.T) {
	fs := &fakeScheduler{}
	e, _ := newEngine(t, WithScheduler(fs))
	p, err := e.CreateProject("A")
	require.NoError(t, err)

	_, err = e.StartTracking(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fs.resets)

	_, err = e.StartTracking(999)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, fs.resets, "failed start does not reset")
}

func TestStartTrackingResetFailureIsNotFatal(t *testing.T) {
	fs := &fakeScheduler{err: scheduler.ErrStopped}
	e, _ := newEngine(t, WithScheduler(fs))
	p, _ := e.CreateProject("A")

	iv, err := e.StartTracking(p.ID)
	require.NoError(t, err)
	assert.NotNil(t, iv)
}

func TestContinueTracking(t *testing.T) {
	t.Run("with scheduler", func(t *testing.T) {
		fs := &fakeScheduler{}
		e, _ := newEngine(t, WithScheduler(fs))
		require.NoError(t, e.ContinueTracking())
		assert.Equal(t, 1, fs.continues)
	})

	t.Run("without scheduler", func(t *testing.T) {
		e, clk := newEngine(t)
		clk.Advance(time.Minute)
		require.NoError(t, e.ContinueTracking())

		st, err := e.Store().LoadSettings()
		require.NoError(t, err)
		require.NotNil(t, st.LastPromptAt)
		assert.Equal(t, t0.Add(time.Minute), *st.LastPromptAt)
	})
}

func TestContinueDoesNotTouchIntervals(t *testing.T) {
	e, clk := newEngine(t)
	p, _ := e.CreateProject("A")
	live, _ := e.StartTracking(p.ID)
	clk.Advance(time.Hour)

	require.NoError(t, e.ContinueTracking())

	active, err := e.ActiveEntry()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, live.ID, active.ID)
	assert.True(t, active.Active())
}

func TestSetSettingRoutesIntervalToScheduler(t *testing.T) {
	fs := &fakeScheduler{}
	e, _ := newEngine(t, WithScheduler(fs))

	require.NoError(t, e.SetSetting(store.KeyPromptIntervalMinutes, "30"))
	assert.Equal(t, []int{30}, fs.intervals)

	err := e.SetSetting(store.KeyPromptIntervalMinutes, "soon")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	require.NoError(t, e.SetSetting(store.KeyIdleThresholdMinutes, "7"))
	all, err := e.Settings()
	require.NoError(t, err)
	assert.Equal(t, "7", all[store.KeyIdleThresholdMinutes])
}

func TestSetSettingWithoutScheduler(t *testing.T) {
	e, _ := newEngine(t)
	require.NoError(t, e.SetSetting(store.KeyPromptIntervalMinutes, "45"))

	all, err := e.Settings()
	require.NoError(t, err)
	assert.Equal(t, "45", all[store.KeyPromptIntervalMinutes])

	assert.ErrorIs(t, e.SetSetting(store.KeyPromptIntervalMinutes, "0"), store.ErrInvalidInput)
}

func TestDateValidation(t *testing.T) {
	e, _ := newEngine(t)
	for _, bad := range []string{"", "2026-13-01", "10/03/2026", "yesterday"} {
		_, err := e.DailySummary(bad)
		assert.ErrorIs(t, err, store.ErrInvalidInput, "date %q", bad)
		_, err = e.EntriesByProject(1, bad)
		assert.ErrorIs(t, err, store.ErrInvalidInput, "date %q", bad)
	}
	assert.Equal(t, "2026-03-10", e.Today())
}

func TestEntries(t *testing.T) {
	e, _ := newEngine(t)
	p, _ := e.CreateProject("A")
	q, _ := e.CreateProject("B")

	iv, err := e.CreateManualEntry(p.ID, t0.Add(-2*time.Hour), t0.Add(-time.Hour))
	require.NoError(t, err)
	_, err = e.CreateManualEntry(q.ID, t0.Add(-3*time.Hour), t0.Add(-150*time.Minute))
	require.NoError(t, err)

	got, err := e.EntriesByProject(p.ID, "2026-03-10")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, iv.ID, got[0].ID)

	all, err := e.EntriesForDate("2026-03-10")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	end := t0.Add(-30 * time.Minute)
	updated, err := e.UpdateEntry(iv.ID, t0.Add(-time.Hour), &end)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), updated.DurationSeconds)

	bad := t0.Add(-2 * time.Hour)
	_, err = e.UpdateEntry(iv.ID, t0.Add(-time.Hour), &bad)
	assert.ErrorIs(t, err, store.ErrInvalidRange)

	require.NoError(t, e.DeleteEntry(iv.ID))
	got, err = e.EntriesByProject(p.ID, "2026-03-10")
	require.NoError(t, err)
	assert.Empty(t, got)

	ranged, err := e.Entries(t0.AddDate(0, 0, -1), t0.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, ranged, 1)
}

func TestProjectsAndResolve(t *testing.T) {
	e, _ := newEngine(t)
	p, err := e.CreateProject("  Spaced  ")
	require.NoError(t, err)
	assert.Equal(t, "Spaced", p.Name)

	_, err = e.CreateProject("Spaced")
	assert.ErrorIs(t, err, store.ErrDuplicateName)

	byName, err := e.ResolveProject("Spaced")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	byID, err := e.ResolveProject("1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byID.ID)

	_, err = e.ResolveProject("ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, e.DeleteProject(p.ID))
	projects, err := e.Projects()
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestSubscribe(t *testing.T) {
	e, _ := newEngine(t)
	assert.Nil(t, e.Subscribe())

	fs := &fakeScheduler{prompts: make(chan scheduler.Prompt, 1)}
	e2, _ := newEngine(t, WithScheduler(fs))
	assert.NotNil(t, e2.Subscribe())
}

func TestEngineWithRunningScheduler(t *testing.T) {
	clk := clock.Fake(t0)
	st, err := store.NewMemory(store.WithClock(clk), store.WithLocation(time.UTC))
	require.NoError(t, err)
	defer st.Close()

	sched := scheduler.New(st, scheduler.WithClock(clk))
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- sched.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-errc)
	}()

	e := New(st, WithClock(clk), WithScheduler(sched))
	p, err := e.CreateProject("Writing")
	require.NoError(t, err)

	clk.Advance(10 * time.Minute) // nothing armed yet is due; scheduler armed at t0+20m
	sched.NextFire()
	_, err = e.StartTracking(p.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(30*time.Minute), sched.NextFire(), "start resets to a full interval")

	clk.Advance(20 * time.Minute)
	select {
	case prompt := <-e.Subscribe():
		assert.Equal(t, p.ID, prompt.ProjectID)
	case <-time.After(2 * time.Second):
		t.Fatal("no prompt")
	}

	require.NoError(t, e.SetSetting(store.KeyPromptIntervalMinutes, "5"))
	assert.Equal(t, t0.Add(35*time.Minute), sched.NextFire())

	err = e.SetSetting(store.KeyPromptIntervalMinutes, "-1")
	assert.True(t, errors.Is(err, store.ErrInvalidInput))
}
