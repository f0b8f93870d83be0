package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/binto/internal/clock"
	"github.com/sadopc/binto/internal/store"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*store.Store, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(day.Add(18 * time.Hour))
	s, err := store.NewMemory(store.WithClock(clk), store.WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clk
}

func manual(t *testing.T, s *store.Store, projectID int64, start time.Time, d time.Duration) {
	t.Helper()
	_, err := s.CreateManualInterval(projectID, start, start.Add(d))
	require.NoError(t, err)
}

func TestSummarizeOrdering(t *testing.T) {
	end := day.Add(time.Hour)
	iv := func(project, secs int64) store.TimeInterval {
		return store.TimeInterval{ProjectID: project, StartedAt: day, EndedAt: &end, DurationSeconds: secs}
	}
	projects := []store.Project{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}, {ID: 3, Name: "three"}}

	rows := Summarize([]store.TimeInterval{
		iv(3, 100), iv(1, 50), iv(2, 100), iv(1, 10),
		{ProjectID: 1, StartedAt: day}, // active, ignored
	}, projects)

	require.Len(t, rows, 3)
	assert.Equal(t, int64(2), rows[0].ProjectID, "ties break on project id")
	assert.Equal(t, int64(3), rows[1].ProjectID)
	assert.Equal(t, Row{ProjectID: 1, ProjectName: "one", TotalSeconds: 60, EntryCount: 2}, rows[2])
	assert.Equal(t, int64(260), Total(rows))
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Nil(t, Summarize(nil, nil))
	assert.Zero(t, Total(nil))
}

func TestSummarizeUnknownProject(t *testing.T) {
	end := day.Add(time.Minute)
	rows := Summarize([]store.TimeInterval{{ProjectID: 9, StartedAt: day, EndedAt: &end, DurationSeconds: 60}}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "project 9", rows[0].ProjectName)
}

func TestDailySummary(t *testing.T) {
	s, _ := newStore(t)
	a, err := s.CreateProject("A")
	require.NoError(t, err)
	b, err := s.CreateProject("B")
	require.NoError(t, err)

	manual(t, s, a.ID, day.Add(9*time.Hour), 30*time.Minute)
	manual(t, s, b.ID, day.Add(10*time.Hour), 2*time.Hour)
	manual(t, s, a.ID, day.Add(13*time.Hour), 45*time.Minute)
	manual(t, s, a.ID, day.Add(-2*time.Hour), 5*time.Hour) // started the day before
	manual(t, s, b.ID, day.Add(24*time.Hour), time.Hour)   // next day

	// Active interval on the same day is not counted.
	_, err = s.StartInterval(a.ID)
	require.NoError(t, err)

	rows, err := New(s).DailySummary(day.Add(12 * time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].ProjectName)
	assert.Equal(t, int64(7200), rows[0].TotalSeconds)
	assert.Equal(t, "A", rows[1].ProjectName)
	assert.Equal(t, int64(75*60), rows[1].TotalSeconds)
	assert.Equal(t, 2, rows[1].EntryCount)
}

func TestDailySummaryWritingScenario(t *testing.T) {
	s, clk := newStore(t)
	p, err := s.CreateProject("Writing")
	require.NoError(t, err)

	t0 := clk.Now()
	live, err := s.StartInterval(p.ID)
	require.NoError(t, err)
	clk.Advance(125 * time.Second)
	ended, err := s.EndInterval(live.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(125), ended.DurationSeconds)

	rows, err := New(s).DailySummary(t0)
	require.NoError(t, err)
	assert.Equal(t, []Row{{ProjectID: p.ID, ProjectName: "Writing", TotalSeconds: 125, EntryCount: 1}}, rows)
}

func TestWeek(t *testing.T) {
	s, _ := newStore(t)
	p, err := s.CreateProject("A")
	require.NoError(t, err)
	manual(t, s, p.ID, day.Add(9*time.Hour), time.Hour)
	manual(t, s, p.ID, day.AddDate(0, 0, -6).Add(9*time.Hour), 30*time.Minute)
	manual(t, s, p.ID, day.AddDate(0, 0, -7).Add(9*time.Hour), 30*time.Minute)

	days, err := New(s).Week(day.Add(20 * time.Hour))
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.True(t, days[0].Date.Equal(day.AddDate(0, 0, -6)))
	assert.True(t, days[6].Date.Equal(day))
	assert.Equal(t, int64(1800), Total(days[0].Rows))
	assert.Equal(t, int64(3600), Total(days[6].Rows))
	for _, d := range days[1:6] {
		assert.Empty(t, d.Rows)
	}
}
