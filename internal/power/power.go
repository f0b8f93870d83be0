// Package power reports system suspend and resume.
//
// There is no portable OS notification for sleep, so Detector infers it:
// a ticker does not advance while the machine is suspended but the wall
// clock does, so a tick that arrives much later than its period is taken
// as a suspend followed by a resume.
package power

import (
	"context"
	"log/slog"
	"time"

	"github.com/sadopc/binto/internal/clock"
)

// Event is a suspend or resume notification. It carries no payload.
type Event int

const (
	Suspend Event = iota + 1
	Resume
)

func (e Event) String() string {
	switch e {
	case Suspend:
		return "suspend"
	case Resume:
		return "resume"
	default:
		return "unknown"
	}
}

const (
	DefaultCheckInterval = 30 * time.Second
	DefaultTolerance     = 15 * time.Second
)

// Detector emits Suspend then Resume whenever the wall clock jumps further
// than interval+tolerance between two ticks.
type Detector struct {
	clock     clock.Clock
	logger    *slog.Logger
	interval  time.Duration
	tolerance time.Duration
	events    chan Event
}

type Option func(*Detector)

func WithClock(c clock.Clock) Option {
	return func(d *Detector) { d.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithInterval sets how often the wall clock is sampled. Non-positive
// values are ignored.
func WithInterval(interval time.Duration) Option {
	return func(d *Detector) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithTolerance sets how late a tick may be before it counts as a suspend.
func WithTolerance(tolerance time.Duration) Option {
	return func(d *Detector) {
		if tolerance >= 0 {
			d.tolerance = tolerance
		}
	}
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		clock:     clock.Real(),
		logger:    slog.New(slog.DiscardHandler),
		interval:  DefaultCheckInterval,
		tolerance: DefaultTolerance,
		events:    make(chan Event, 2),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Events returns the notification channel. It is never closed.
func (d *Detector) Events() <-chan Event { return d.events }

// Run samples the clock until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) error {
	// Round(0) strips the monotonic reading so Sub measures wall time.
	last := d.clock.Now().Round(0)
	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		now := d.clock.Now().Round(0)
		gap := now.Sub(last)
		last = now
		if gap <= d.interval+d.tolerance {
			continue
		}

		d.logger.Info("wall clock jumped, assuming suspend",
			"gap", gap.Round(time.Second),
			"interval", d.interval,
		)
		for _, ev := range []Event{Suspend, Resume} {
			select {
			case d.events <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
