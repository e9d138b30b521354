package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleTwoBlocks(t *testing.T) {
	input := "**7:00 AM - 8:00 AM: Morning**\n* Eat breakfast\n* Brush teeth\n\n" +
		"**8:00 AM - 9:00 AM: Work: Deep Focus**\n* Write report"

	sched := Schedule(input)
	require.Len(t, sched, 2)

	assert.Equal(t, 0, sched[0].ID)
	assert.Equal(t, "7:00 AM - 8:00 AM", sched[0].Time)
	assert.Equal(t, "Morning", sched[0].Title)
	assert.False(t, sched[0].Uncertain)
	require.Len(t, sched[0].Tasks, 2)
	assert.Equal(t, "Eat breakfast", sched[0].Tasks[0].Text)
	assert.Equal(t, "Brush teeth", sched[0].Tasks[1].Text)
	assert.Empty(t, sched[0].Tasks[0].Notes)

	// The colon inside the title must not break the AM/PM-anchored split.
	assert.Equal(t, 1, sched[1].ID)
	assert.Equal(t, "8:00 AM - 9:00 AM", sched[1].Time)
	assert.Equal(t, "Work: Deep Focus", sched[1].Title)
	require.Len(t, sched[1].Tasks, 1)
	assert.Equal(t, "Write report", sched[1].Tasks[0].Text)
}

func TestScheduleDropsProse(t *testing.T) {
	input := "Here is your plan for the day!\n\n" +
		"**9:00 AM - 10:00 AM: Standup**\n- Prep notes\n\n" +
		"Have a great day"

	sched := Schedule(input)
	require.Len(t, sched, 1)
	assert.Equal(t, "Standup", sched[0].Title)
	require.Len(t, sched[0].Tasks, 1)
	assert.Equal(t, "Prep notes", sched[0].Tasks[0].Text)
}

func TestScheduleBlockCountMatchesColonSegments(t *testing.T) {
	input := "intro prose\n**7:00 AM - 8:00 AM: One**\n* a\n**noon: Two**\n**Three no colon here missing**\ntrailing"

	want := 0
	for _, frag := range strings.Split(input, "**") {
		frag = strings.TrimSpace(frag)
		if frag != "" && strings.Contains(frag, ":") {
			want++
		}
	}
	sched := Schedule(input)
	assert.Len(t, sched, want)

	// Ids stay sequential and gapless over surviving fragments.
	for i, b := range sched {
		assert.Equal(t, i, b.ID)
	}
}

func TestScheduleFallbackFlagsUncertain(t *testing.T) {
	sched := Schedule("**morning: Loose plans**\n* wander around")
	require.Len(t, sched, 1)
	assert.Equal(t, "morning", sched[0].Time)
	assert.Equal(t, "Loose plans", sched[0].Title)
	assert.True(t, sched[0].Uncertain)
}

func TestScheduleMalformedNeverFails(t *testing.T) {
	for _, input := range []string{
		"",
		"no blocks at all",
		"****",
		"** : **",
		"**::::**",
		"**7:00 AM - 8:00 AM: Ok**\n* \n*\n-",
	} {
		assert.NotPanics(t, func() { Schedule(input) }, "input %q", input)
	}

	// Blank or bare-bullet task lines are discarded.
	sched := Schedule("**7:00 AM - 8:00 AM: Ok**\n* \n*\n-\n* real task")
	require.Len(t, sched, 1)
	require.Len(t, sched[0].Tasks, 1)
	assert.Equal(t, "real task", sched[0].Tasks[0].Text)
}

func TestScheduleAssignsStableTaskIDs(t *testing.T) {
	sched := Schedule("**7:00 AM - 8:00 AM: Morning**\n* one\n* two")
	require.Len(t, sched, 1)
	require.Len(t, sched[0].Tasks, 2)
	assert.NotEmpty(t, sched[0].Tasks[0].ID)
	assert.NotEmpty(t, sched[0].Tasks[1].ID)
	assert.NotEqual(t, sched[0].Tasks[0].ID, sched[0].Tasks[1].ID)
}
