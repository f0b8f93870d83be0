// Package timeparse turns user input into dates and instants.
//
// Input is tried in layers, most specific first:
//  1. Exact layouts (2006-01-02, 15:04, RFC3339)
//  2. Signed offsets from now (-90m, -2h, -1d)
//  3. Natural language (yesterday, last monday, 2 hours ago)
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrUnrecognized is returned when no layer understands the input.
var ErrUnrecognized = errors.New("unrecognized date or time")

var nlp = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// dayOffsetRe matches whole-day offsets such as -1d or +2w.
var dayOffsetRe = regexp.MustCompile(`^([+-])(\d+)([dw])$`)

// Date returns midnight of the calendar day s names, in now's location.
func Date(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	loc := now.Location()

	switch strings.ToLower(s) {
	case "", "today":
		return midnight(now), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, ok := dayOffset(s, now); ok {
		return midnight(t), nil
	}
	t, err := natural(s, now)
	if err != nil {
		return time.Time{}, err
	}
	return midnight(t), nil
}

// At returns the instant s names. Bare times of day (15:04) are placed on
// day; relative input is measured from now.
func At(s string, day, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	loc := now.Location()

	if strings.EqualFold(s, "now") {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			d := day.In(loc)
			return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		if d, err := time.ParseDuration(s); err == nil {
			return now.Add(d), nil
		}
		if t, ok := dayOffset(s, now); ok {
			return t, nil
		}
	}
	return natural(s, now)
}

func dayOffset(s string, now time.Time) (time.Time, bool) {
	m := dayOffsetRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	if m[1] == "-" {
		n = -n
	}
	if m[3] == "w" {
		n *= 7
	}
	return now.AddDate(0, 0, n), true
}

func natural(s string, now time.Time) (time.Time, error) {
	r, err := nlp.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrUnrecognized)
	}
	return r.Time, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
