package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayflow/internal/model"
)

func testSchedule() model.Schedule {
	return model.Schedule{
		{
			ID:    1,
			Time:  "7:00 AM - 8:00 AM",
			Title: "Morning",
			Tasks: []model.Task{
				{ID: "a", Text: "Eat breakfast"},
				{ID: "b", Text: "Brush teeth"},
				{ID: "c", Text: "Pack bag"},
			},
		},
		{
			ID:    2,
			Time:  "8:00 AM - 9:00 AM",
			Title: "Work",
			Tasks: []model.Task{
				{ID: "d", Text: "Write report"},
				{ID: "e", Text: "Email team"},
			},
		},
	}
}

func TestUpdateTaskText(t *testing.T) {
	s := testSchedule()
	out := UpdateTaskText(s, 1, 1, "Floss")

	assert.Equal(t, "Floss", out[0].Tasks[1].Text)
	assert.Equal(t, "b", out[0].Tasks[1].ID, "stable id survives the edit")
	assert.Equal(t, "Brush teeth", s[0].Tasks[1].Text, "input untouched")

	// Unknown block id and out-of-range index are no-ops.
	assert.Equal(t, s, UpdateTaskText(s, 99, 0, "x"))
	assert.Equal(t, s, UpdateTaskText(s, 1, 5, "x"))
	assert.Equal(t, s, UpdateTaskText(s, 1, -1, "x"))
}

func TestUpdateTaskNotes(t *testing.T) {
	s := testSchedule()
	out := UpdateTaskNotes(s, 2, 0, "use the Q3 template")
	assert.Equal(t, "use the Q3 template", out[1].Tasks[0].Notes)
	assert.Equal(t, "Write report", out[1].Tasks[0].Text)
	assert.Empty(t, s[1].Tasks[0].Notes)
}

func TestDeleteTaskShiftsIndices(t *testing.T) {
	s := testSchedule()
	out := DeleteTask(s, 1, 0)

	require.Len(t, out[0].Tasks, 2)
	assert.Equal(t, "Brush teeth", out[0].Tasks[0].Text)
	assert.Equal(t, "Pack bag", out[0].Tasks[1].Text)
	// Other block untouched.
	assert.Equal(t, s[1].Tasks, out[1].Tasks)

	// Index semantics, not identity semantics: editing index 0 after the
	// delete must hit the task that slid into that slot.
	out = UpdateTaskText(out, 1, 0, "Shower")
	assert.Equal(t, "Shower", out[0].Tasks[0].Text)
	assert.Equal(t, "b", out[0].Tasks[0].ID)
}

func TestDeleteTaskNoOp(t *testing.T) {
	s := testSchedule()
	assert.Equal(t, s, DeleteTask(s, 7, 0))
	assert.Equal(t, s, DeleteTask(s, 1, 3))
}

func TestReorderAcrossBlocks(t *testing.T) {
	s := testSchedule()
	out := Reorder(s, Position{BlockID: 1, TaskIndex: 0}, Position{BlockID: 2, TaskIndex: 1})

	require.Len(t, out[0].Tasks, 2)
	require.Len(t, out[1].Tasks, 3)
	assert.Equal(t, s.TaskCount(), out.TaskCount(), "total task count conserved")

	assert.Equal(t, "Eat breakfast", out[1].Tasks[1].Text)
	assert.Equal(t, "a", out[1].Tasks[1].ID)
	assert.Equal(t, []string{"Write report", "Eat breakfast", "Email team"},
		taskTexts(out[1].Tasks))

	// Block ids are untouched by the move.
	assert.Equal(t, 1, out[0].ID)
	assert.Equal(t, 2, out[1].ID)
}

func TestReorderWithinBlock(t *testing.T) {
	s := testSchedule()
	// Remove-then-insert splice: moving index 0 to index 2 lands it last.
	out := Reorder(s, Position{BlockID: 1, TaskIndex: 0}, Position{BlockID: 1, TaskIndex: 2})
	assert.Equal(t, []string{"Brush teeth", "Pack bag", "Eat breakfast"}, taskTexts(out[0].Tasks))

	out = Reorder(s, Position{BlockID: 1, TaskIndex: 2}, Position{BlockID: 1, TaskIndex: 0})
	assert.Equal(t, []string{"Pack bag", "Eat breakfast", "Brush teeth"}, taskTexts(out[0].Tasks))
}

func TestReorderNoOp(t *testing.T) {
	s := testSchedule()
	assert.Equal(t, s, Reorder(s, Position{BlockID: 9, TaskIndex: 0}, Position{BlockID: 1, TaskIndex: 0}))
	assert.Equal(t, s, Reorder(s, Position{BlockID: 1, TaskIndex: 0}, Position{BlockID: 9, TaskIndex: 0}))
	assert.Equal(t, s, Reorder(s, Position{BlockID: 1, TaskIndex: 9}, Position{BlockID: 2, TaskIndex: 0}))
}

func TestReorderClampsDestination(t *testing.T) {
	s := testSchedule()
	out := Reorder(s, Position{BlockID: 1, TaskIndex: 0}, Position{BlockID: 2, TaskIndex: 99})
	assert.Equal(t, "Eat breakfast", out[1].Tasks[len(out[1].Tasks)-1].Text)
}

func TestClearCompleted(t *testing.T) {
	s := testSchedule()
	done := model.Completion{
		"a": true,
		"d": true,
		"e": false, // explicitly false: must survive
	}

	out := ClearCompleted(s, done)
	assert.Equal(t, []string{"Brush teeth", "Pack bag"}, taskTexts(out[0].Tasks))
	assert.Equal(t, []string{"Email team"}, taskTexts(out[1].Tasks))

	// Absent keys survive too.
	out = ClearCompleted(s, model.Completion{})
	assert.Equal(t, s.TaskCount(), out.TaskCount())
}

func taskTexts(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}
