// Package ics serializes one schedule block into an iCalendar event
// document for download into the user's calendar.
//
// This is the one place a time-parse failure surfaces to the user instead
// of degrading silently: a calendar event without valid times is
// meaningless, so export refuses rather than guessing.
package ics

import (
	"fmt"
	"regexp"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"dayflow/internal/model"
	"dayflow/internal/timeparse"
)

// ErrTimeUnparseable reports that a block's time range could not be
// parsed into concrete start and end instants.
var ErrTimeUnparseable = fmt.Errorf("block time range is not parseable")

// Options controls event generation.
type Options struct {
	// RepeatDays, when above 1, adds a daily RRULE so the event recurs
	// that many days. Useful for blocks the user keeps every day.
	RepeatDays int
}

// Event renders the block as a VCALENDAR document with a single VEVENT.
// now anchors the day the clock times fall on and stamps the document.
// Output uses CRLF line endings as required by RFC 5545.
func Event(block model.Block, now time.Time, loc *time.Location, opts Options) (string, error) {
	start, end, ok := timeparse.Range(block.Time, now, loc)
	if !ok {
		return "", fmt.Errorf("export %q: %w", block.Title, ErrTimeUnparseable)
	}

	cal := ical.NewCalendar()
	cal.SetProductId("-//Dayflow//Schedule Export//EN")
	cal.SetMethod(ical.MethodPublish)

	uid := fmt.Sprintf("block-%d-%s@dayflow", block.ID, timeparse.Stamp(now))
	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(now)
	ev.SetCreatedTime(now)
	ev.SetStartAt(start)
	ev.SetEndAt(end)
	// The library applies RFC 5545 TEXT escaping on serialization, so
	// summary and description are passed raw.
	ev.SetSummary(block.Title)
	if desc := description(block); desc != "" {
		ev.SetDescription(desc)
	}

	if opts.RepeatDays > 1 {
		r, err := rrule.NewRRule(rrule.ROption{Freq: rrule.DAILY, Count: opts.RepeatDays})
		if err != nil {
			return "", fmt.Errorf("export %q: repeat rule: %w", block.Title, err)
		}
		ev.SetProperty(ical.ComponentPropertyRrule, r.String())
	}

	return cal.Serialize(), nil
}

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename derives a download filename from the block title: every
// non-alphanumeric character becomes an underscore.
func Filename(title string) string {
	name := nonAlnumRe.ReplaceAllString(title, "_")
	if name == "" {
		name = "event"
	}
	return name + ".ics"
}

// description joins all task texts with newlines.
func description(block model.Block) string {
	out := ""
	for i, t := range block.Tasks {
		if i > 0 {
			out += "\n"
		}
		out += t.Text
	}
	return out
}
