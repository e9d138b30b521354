// Package timeparse converts the human clock strings found in generated
// schedules ("7:00 AM") into comparable instants, and formats instants for
// calendar export.
//
// Every function here is total: a string that does not match the expected
// shape yields ok=false, never an error or a panic. Callers treat a failed
// parse as "time unknown" and degrade (skip progress, skip the reminder,
// refuse calendar export) rather than crash.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(AM|PM)$`)

// Clock parses "H:MM AM" / "HH:MM PM" (case-insensitive meridiem) into an
// instant anchored to today's date in loc. Returns ok=false on any
// non-match. 12 AM maps to hour 0, 12 PM stays 12, other PM hours add 12.
func Clock(s string, now time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	m := clockRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return time.Time{}, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 12 {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return time.Time{}, false
	}

	if m[3] == "PM" && hour != 12 {
		hour += 12
	}
	if m[3] == "AM" && hour == 12 {
		hour = 0
	}

	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc), true
}

// Range splits a block time string of the shape "<start> - <end>" and
// parses both sides with Clock. ok is false when either side fails.
func Range(s string, now time.Time, loc *time.Location) (start, end time.Time, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, false
	}
	start, okStart := Clock(parts[0], now, loc)
	end, okEnd := Clock(parts[1], now, loc)
	if !okStart || !okEnd {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// Stamp formats an instant as the fixed-width UTC calendar timestamp
// YYYYMMDDTHHMMSSZ.
func Stamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// Progress reports how far now has advanced through [start, end] as a
// fraction in [0, 1]. Only the clock component matters; the date parts of
// the three instants are normalized away before comparing. ok is false
// when the range is empty or inverted.
func Progress(start, end, now time.Time) (float64, bool) {
	s := minuteOfDay(start)
	e := minuteOfDay(end)
	n := minuteOfDay(now)
	if e <= s {
		return 0, false
	}
	if n <= s {
		return 0, true
	}
	if n >= e {
		return 1, true
	}
	return float64(n-s) / float64(e-s), true
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
