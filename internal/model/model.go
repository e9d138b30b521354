package model

import "github.com/google/uuid"

// Task is a single action inside a schedule block.
type Task struct {
	// ID is a stable identifier assigned at parse time. Completion and
	// notes ride on it, so reordering or deleting neighbors cannot strand
	// per-task state.
	ID string `json:"id"`

	// Text is the action to perform.
	Text string `json:"text"`

	// Notes is a free-form annotation, possibly empty.
	Notes string `json:"notes"`
}

// NewTask creates a task with a fresh identifier and empty notes.
func NewTask(text string) Task {
	return Task{ID: uuid.NewString(), Text: text}
}

// Block is a contiguous time range of the day with a title and an
// ordered list of tasks.
type Block struct {
	// ID is unique within one generated schedule, assigned sequentially
	// (0, 1, 2, ...) in document order and never reassigned by later edits.
	ID int `json:"id"`

	// Time is the raw range string, expected shape "<start> - <end>"
	// with each side like "7:00 AM". Not guaranteed parseable.
	Time string `json:"time"`

	// Title is the display title of the block.
	Title string `json:"title"`

	// Tasks is the ordered task list.
	Tasks []Task `json:"tasks"`

	// Uncertain is set when the parser could not anchor the time-and-title
	// line on an AM/PM token and had to fall back to a plain colon split.
	// The rendering layer can flag such blocks instead of silently showing
	// a possibly wrong time.
	Uncertain bool `json:"uncertain,omitempty"`
}

// Schedule is an ordered sequence of blocks. Order is significant
// (chronological by construction) and is never re-sorted.
type Schedule []Block

// Completion maps task IDs to done flags. Cleared wholesale whenever a
// new schedule is generated.
type Completion map[string]bool

// Clone returns a deep copy of the schedule. Mutation operations work on
// copies so state transitions stay observable.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	for i, b := range s {
		tasks := make([]Task, len(b.Tasks))
		copy(tasks, b.Tasks)
		b.Tasks = tasks
		out[i] = b
	}
	return out
}

// TaskCount returns the total number of tasks across all blocks.
func (s Schedule) TaskCount() int {
	n := 0
	for _, b := range s {
		n += len(b.Tasks)
	}
	return n
}

// Find returns the index of the block with the given id, or -1.
func (s Schedule) Find(blockID int) int {
	for i, b := range s {
		if b.ID == blockID {
			return i
		}
	}
	return -1
}
