package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/binto/internal/clock"
	"github.com/sadopc/binto/internal/engine"
	"github.com/sadopc/binto/internal/logging"
	"github.com/sadopc/binto/internal/report"
	"github.com/sadopc/binto/internal/scheduler"
	"github.com/sadopc/binto/internal/store"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// runner executes the command tree against a database in a temp dir.
type runner struct {
	t   *testing.T
	dir string
}

func newRunner(t *testing.T) *runner {
	t.Setenv("BINTO_LOG_LEVEL", "debug")
	return &runner{t: t, dir: t.TempDir()}
}

func (r *runner) run(args ...string) (string, error) {
	r.t.Helper()
	cmd, a := newRootCommand()
	r.t.Cleanup(func() { a.teardown() })

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--db", filepath.Join(r.dir, "binto.db"),
		"--config", filepath.Join(r.dir, "config.yaml"),
		"--log-file", filepath.Join(r.dir, "binto.log"),
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (r *runner) mustRun(args ...string) string {
	r.t.Helper()
	out, err := r.run(args...)
	require.NoError(r.t, err, "binto %s", strings.Join(args, " "))
	return out
}

func (r *runner) runJSON(v any, args ...string) {
	r.t.Helper()
	out := r.mustRun(append([]string{"--json"}, args...)...)
	require.NoError(r.t, json.Unmarshal([]byte(out), v), out)
}

func TestProjectCommands(t *testing.T) {
	r := newRunner(t)

	out := r.mustRun("projects")
	assert.Contains(t, out, "no projects yet")

	out = r.mustRun("project", "add", "Writing")
	assert.Contains(t, out, "created project Writing (#1)")
	r.mustRun("project", "add", "Reading")

	_, err := r.run("project", "add", "Writing")
	assert.ErrorIs(t, err, store.ErrDuplicateName)

	var projects []store.Project
	r.runJSON(&projects, "projects")
	require.Len(t, projects, 2)

	out = r.mustRun("project", "rm", "Reading")
	assert.Contains(t, out, "deleted project Reading")

	_, err = r.run("project", "rm", "Reading")
	assert.ErrorIs(t, err, store.ErrNotFound)

	r.runJSON(&projects, "projects")
	require.Len(t, projects, 1)
	assert.Equal(t, "Writing", projects[0].Name)
}

func TestTrackingCommands(t *testing.T) {
	r := newRunner(t)

	_, err := r.run("start", "Writing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	out := r.mustRun("start", "--create", "Writing")
	assert.Contains(t, out, "tracking Writing")

	var st statusView
	r.runJSON(&st, "status")
	require.NotNil(t, st.Active)
	assert.True(t, st.Active.Active())
	require.NotNil(t, st.Project)
	assert.Equal(t, "Writing", st.Project.Name)

	r.mustRun("project", "add", "Reading")
	r.mustRun("start", "Reading")

	var entries []store.TimeInterval
	r.runJSON(&entries, "entries")
	require.Len(t, entries, 2)
	active := 0
	for _, iv := range entries {
		if iv.Active() {
			active++
		}
	}
	assert.Equal(t, 1, active, "starting a second project ends the first")

	out = r.mustRun("stop")
	assert.Contains(t, out, "stopped Reading")

	out = r.mustRun("stop")
	assert.Contains(t, out, "nothing is being tracked")

	out = r.mustRun("status")
	assert.Contains(t, out, "nothing is being tracked")
}

func TestContinueCommandWritesCheckpoint(t *testing.T) {
	r := newRunner(t)
	r.mustRun("start", "-c", "Writing")

	var before statusView
	r.runJSON(&before, "status")
	assert.Nil(t, before.LastPromptAt)
	assert.Nil(t, before.NextPromptAt)

	assert.Contains(t, r.mustRun("continue"), "confirmed")

	var after statusView
	r.runJSON(&after, "status")
	require.NotNil(t, after.LastPromptAt)
	require.NotNil(t, after.NextPromptAt)
	assert.Equal(t, 20*time.Minute, after.NextPromptAt.Sub(*after.LastPromptAt))
	assert.True(t, after.Active.Active(), "continue leaves the interval running")
}

func TestStatusOverdueCheckpoint(t *testing.T) {
	r := newRunner(t)
	r.mustRun("start", "-c", "Writing")

	old := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	r.mustRun("settings", "set", store.KeyLastPromptAt, old.Format(time.RFC3339))

	before := time.Now().Add(-time.Second)
	var st statusView
	r.runJSON(&st, "status")
	require.NotNil(t, st.LastPromptAt)
	assert.True(t, st.LastPromptAt.Equal(old))
	require.NotNil(t, st.NextPromptAt)
	assert.False(t, st.NextPromptAt.Before(before), "next reminder %s is in the past", st.NextPromptAt)
	assert.Less(t, st.NextPromptAt.Sub(before), time.Minute, "overdue reminder waits only the grace delay")

	out := r.mustRun("status")
	assert.NotContains(t, out, "ago")
}

func TestManualEntryAndSummary(t *testing.T) {
	r := newRunner(t)
	r.mustRun("project", "add", "Writing")

	out := r.mustRun("entry", "add", "Writing", "09:00", "10:30", "--date", "2026-03-10")
	assert.Contains(t, out, "added entry #1")
	assert.Contains(t, out, "09:00-10:30")

	var rows []report.Row
	r.runJSON(&rows, "summary", "2026-03-10")
	require.Len(t, rows, 1)
	assert.Equal(t, "Writing", rows[0].ProjectName)
	assert.Equal(t, int64(5400), rows[0].TotalSeconds)
	assert.Equal(t, 1, rows[0].EntryCount)

	out = r.mustRun("summary", "2026-03-10")
	assert.Contains(t, out, "1h 30m")

	var updated store.TimeInterval
	r.runJSON(&updated, "entry", "edit", "1", "--end", "11:00")
	assert.Equal(t, int64(7200), updated.DurationSeconds)

	_, err := r.run("entry", "edit", "1", "--end", "08:00")
	assert.ErrorIs(t, err, store.ErrInvalidRange)

	_, err = r.run("entry", "edit", "1")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = r.run("entry", "add", "Writing", "11:00", "10:00", "--date", "2026-03-10")
	assert.ErrorIs(t, err, store.ErrInvalidRange)

	var days []report.Day
	r.runJSON(&days, "summary", "--week", "2026-03-12")
	require.Len(t, days, 7)
	assert.Equal(t, int64(7200), report.Total(days[4].Rows))

	r.mustRun("entry", "rm", "1")
	r.runJSON(&rows, "summary", "2026-03-10")
	assert.Empty(t, rows)

	_, err = r.run("entry", "rm", "abc")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestEntriesFilterByProject(t *testing.T) {
	r := newRunner(t)
	r.mustRun("project", "add", "A")
	r.mustRun("project", "add", "B")
	r.mustRun("entry", "add", "A", "09:00", "10:00", "-d", "2026-03-10")
	r.mustRun("entry", "add", "B", "10:00", "10:30", "-d", "2026-03-10")

	var entries []store.TimeInterval
	r.runJSON(&entries, "entries", "2026-03-10", "--project", "B")
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1800), entries[0].DurationSeconds)

	out := r.mustRun("entries", "2026-03-10")
	assert.Contains(t, out, "09:00-10:00")
	assert.Contains(t, out, "10:00-10:30")

	_, err := r.run("entries", "not a date at all")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestSettingsCommands(t *testing.T) {
	r := newRunner(t)

	var all map[string]string
	r.runJSON(&all, "settings")
	assert.Equal(t, "20", all[store.KeyPromptIntervalMinutes])
	assert.Equal(t, "5", all[store.KeyIdleThresholdMinutes])

	r.mustRun("settings", "set", store.KeyPromptIntervalMinutes, "30")
	r.runJSON(&all, "settings")
	assert.Equal(t, "30", all[store.KeyPromptIntervalMinutes])

	_, err := r.run("settings", "set", store.KeyPromptIntervalMinutes, "0")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestExportCommand(t *testing.T) {
	r := newRunner(t)
	r.mustRun("project", "add", "Writing")
	r.mustRun("entry", "add", "Writing", "09:00", "10:00", "-d", "2026-03-10")
	r.mustRun("entry", "add", "Writing", "09:00", "09:30", "-d", "2026-03-12")

	out := r.mustRun("export", "--from", "2026-03-10", "--to", "2026-03-10")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Project,Started,Ended,Duration (s),Duration", lines[0])
	assert.Contains(t, lines[1], "Writing")
	assert.Contains(t, lines[1], "3600")

	path := filepath.Join(r.dir, "out.json")
	r.mustRun("export", "--from", "2026-03-09", "--to", "2026-03-12", "-f", "json", "-o", path)
	assert.FileExists(t, path)

	_, err := r.run("export", "-f", "xml")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = r.run("export", "--from", "2026-03-12", "--to", "2026-03-10")
	assert.ErrorIs(t, err, store.ErrInvalidRange)
}

func TestBadLogLevelFailsSetup(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("--log-level", "loud", "projects")
	assert.Error(t, err)
}

func TestPrintPrompt(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clk := clock.Fake(t0)
	st, err := store.NewMemory(store.WithClock(clk), store.WithLocation(time.UTC))
	require.NoError(t, err)
	defer st.Close()

	p, err := st.CreateProject("Writing")
	require.NoError(t, err)
	iv, err := st.StartInterval(p.ID)
	require.NoError(t, err)

	var out bytes.Buffer
	a := &app{out: &out, store: st, log: logging.Discard(), engine: engine.New(st, engine.WithClock(clk))}
	require.NoError(t, a.printPrompt(scheduler.Prompt{ProjectID: p.ID, IntervalID: iv.ID, At: t0.Add(20 * time.Minute)}))
	assert.Equal(t, "09:20 still working on Writing (20m 00s)?\n", out.String())

	out.Reset()
	require.NoError(t, a.printPrompt(scheduler.Prompt{ProjectID: 99, IntervalID: 99, At: t0}))
	assert.Equal(t, "09:00 still working on project 99?\n", out.String())
}

func TestIsBusy(t *testing.T) {
	assert.True(t, isBusy(errors.New("migrate: database is locked (5) (SQLITE_BUSY)")))
	assert.True(t, isBusy(errors.New("SQLITE_BUSY")))
	assert.False(t, isBusy(errors.New("unable to open database file")))
}

func TestOpenStorePermanentFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory where the database file should be cannot be opened as
	// one, and that is not worth retrying.
	path := filepath.Join(dir, "db")
	require.NoError(t, os.Mkdir(path, 0o755))

	start := time.Now()
	_, err := openStore(context.Background(), path, logging.Discard().Logger)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), storeOpenTimeout)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{12*time.Minute + 30*time.Second, "12m 30s"},
		{time.Hour + 5*time.Minute, "1h 05m"},
		{26 * time.Hour, "26h 00m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d), "%s", tt.d)
	}
}
