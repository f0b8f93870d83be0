package timeparse

import (
	"errors"
	"testing"
	"time"
)

// Tuesday.
var now = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func TestDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"today", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"2026-02-01", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"-1d", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"-1w", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"yesterday", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"3 days ago", time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Date(tt.input, now)
			if err != nil {
				t.Fatalf("Date(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Date(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateUnrecognized(t *testing.T) {
	for _, input := range []string{"not a date at all", "blah blah"} {
		if _, err := Date(input, now); !errors.Is(err, ErrUnrecognized) {
			t.Errorf("Date(%q) error = %v, want ErrUnrecognized", input, err)
		}
	}
}

func TestAt(t *testing.T) {
	day := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		input string
		want  time.Time
	}{
		{"now", now},
		{"2026-03-01T08:15:00Z", time.Date(2026, 3, 1, 8, 15, 0, 0, time.UTC)},
		{"2026-03-01 08:15", time.Date(2026, 3, 1, 8, 15, 0, 0, time.UTC)},
		{"09:45", time.Date(2026, 3, 8, 9, 45, 0, 0, time.UTC)},
		{"09:45:30", time.Date(2026, 3, 8, 9, 45, 30, 0, time.UTC)},
		{"-90m", now.Add(-90 * time.Minute)},
		{"-1h30m", now.Add(-90 * time.Minute)},
		{"-1d", now.AddDate(0, 0, -1)},
		{"2 hours ago", now.Add(-2 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := At(tt.input, day, now)
			if err != nil {
				t.Fatalf("At(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("At(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAtUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-4", -4*3600)
	localNow := now.In(loc)
	got, err := At("09:00", localNow, localNow)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("At = %v, want %v", got.UTC(), want)
	}
}

func TestAtUnrecognized(t *testing.T) {
	if _, err := At("blah blah", now, now); !errors.Is(err, ErrUnrecognized) {
		t.Errorf("error = %v, want ErrUnrecognized", err)
	}
}
