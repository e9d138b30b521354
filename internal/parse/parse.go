// Package parse turns the markdown returned by the schedule generator into
// structured blocks.
//
// The generator's output format is only loosely guaranteed, so the parser
// is deliberately lenient: it never fails. A malformed document yields an
// empty schedule, or blocks with partially-empty time/title fields, rather
// than an error. Fragments that do not look like schedule blocks (leading
// or trailing prose) are dropped silently.
package parse

import (
	"regexp"
	"strings"

	"dayflow/internal/model"
)

// timeTitleRe anchors the time component on the trailing AM/PM token so
// that titles containing colons ("Work: Deep Focus") split correctly.
var timeTitleRe = regexp.MustCompile(`(?i)^(.*?[AP]M)\s*:\s*(.*)$`)

// bulletRe matches a leading "*" or "-" bullet marker.
var bulletRe = regexp.MustCompile(`^[*-]\s*`)

// Schedule parses a markdown-like document into an ordered block sequence.
//
// Each block is introduced by a "**" bold marker immediately preceding a
// "<time range>: <title>" line, followed by zero or more "*"/"-" bullet
// lines, one task each. The document is split on the "**" delimiter:
//
//   - A fragment containing a colon starts a new block. Its first line is
//     the time-and-title line; any further lines are task candidates.
//   - A colon-less fragment after an open block carries that block's task
//     bullets (the closing "**" of the header separates them). Only bullet
//     lines count there, so trailing prose never turns into tasks.
//   - Anything else is non-block prose and is dropped.
//
// Block ids are assigned sequentially over the surviving blocks, so they
// are gapless and unique for the lifetime of one generated schedule.
func Schedule(text string) model.Schedule {
	sched := model.Schedule{}

	for _, fragment := range strings.Split(text, "**") {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}

		lines := strings.Split(fragment, "\n")

		if !strings.Contains(fragment, ":") {
			if len(sched) == 0 {
				continue
			}
			cur := &sched[len(sched)-1]
			for _, line := range lines {
				if task, ok := bulletTask(line); ok {
					cur.Tasks = append(cur.Tasks, model.NewTask(task))
				}
			}
			continue
		}

		timeStr, title, anchored := splitTimeTitle(lines[0])
		block := model.Block{
			ID:        len(sched),
			Time:      timeStr,
			Title:     title,
			Tasks:     []model.Task{},
			Uncertain: !anchored,
		}
		for _, line := range lines[1:] {
			task := strings.TrimSpace(bulletRe.ReplaceAllString(strings.TrimSpace(line), ""))
			if task == "" {
				continue
			}
			block.Tasks = append(block.Tasks, model.NewTask(task))
		}

		sched = append(sched, block)
	}

	return sched
}

// bulletTask strips the bullet marker from a task line. ok is false for
// lines that are not bullets or are empty once stripped.
func bulletTask(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !bulletRe.MatchString(line) {
		return "", false
	}
	task := strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
	if task == "" {
		return "", false
	}
	return task, true
}

// splitTimeTitle extracts the time range and title from the first line of
// a block fragment. The primary strategy matches everything up to and
// including the AM/PM token as the time; when no such anchor exists it
// degrades to a split on the first colon, which is unsafe for titles
// containing colons and therefore reported as not anchored.
func splitTimeTitle(line string) (timeStr, title string, anchored bool) {
	line = strings.TrimSpace(line)

	if m := timeTitleRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}

	parts := strings.SplitN(line, ":", 2)
	timeStr = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		title = strings.TrimSpace(parts[1])
	}
	return timeStr, title, false
}
