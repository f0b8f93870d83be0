package power

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/binto/internal/clock"
)

func startDetector(t *testing.T, clk *clock.FakeClock) *Detector {
	t.Helper()
	d := NewDetector(WithClock(clk), WithInterval(30*time.Second), WithTolerance(15*time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	clk.WaitForTimers(1)
	return d
}

func receive(t *testing.T, d *Detector) Event {
	t.Helper()
	select {
	case ev := <-d.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for power event")
		return 0
	}
}

func assertQuiet(t *testing.T, d *Detector) {
	t.Helper()
	select {
	case ev := <-d.Events():
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDetectorEmitsOnGap(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	d := startDetector(t, clk)

	clk.Advance(30 * time.Minute)

	assert.Equal(t, Suspend, receive(t, d))
	assert.Equal(t, Resume, receive(t, d))
}

func TestDetectorQuietOnRegularTicks(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	d := startDetector(t, clk)

	for i := 0; i < 5; i++ {
		clk.Advance(30 * time.Second)
		assertQuiet(t, d)
	}
}

func TestDetectorWithinTolerance(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	d := startDetector(t, clk)

	clk.Advance(44 * time.Second)
	assertQuiet(t, d)
}

func TestEventString(t *testing.T) {
	require.Equal(t, "suspend", Suspend.String())
	require.Equal(t, "resume", Resume.String())
	require.Equal(t, "unknown", Event(0).String())
}
