package store

import "dayflow/internal/model"

// Position addresses one task by its containing block id and its index
// within that block. Task addressing is positional because that is the
// contract the drag-and-drop UI speaks; per-task state (completion, notes)
// rides on the task's stable ID instead.
type Position struct {
	BlockID   int `json:"blockId"`
	TaskIndex int `json:"taskIndex"`
}

// The operations below are pure: each returns a new schedule and leaves
// its input untouched. Lookups that miss (unknown block id, out-of-range
// index) return the schedule unchanged rather than erroring.

// UpdateTaskText replaces the text of the task at the given position.
func UpdateTaskText(s model.Schedule, blockID, taskIndex int, text string) model.Schedule {
	return withTask(s, blockID, taskIndex, func(t *model.Task) {
		t.Text = text
	})
}

// UpdateTaskNotes replaces the notes of the task at the given position.
func UpdateTaskNotes(s model.Schedule, blockID, taskIndex int, notes string) model.Schedule {
	return withTask(s, blockID, taskIndex, func(t *model.Task) {
		t.Notes = notes
	})
}

// DeleteTask removes exactly the task at the given position; tasks after
// it shift left by one. Other blocks are untouched.
func DeleteTask(s model.Schedule, blockID, taskIndex int) model.Schedule {
	bi := s.Find(blockID)
	if bi < 0 || taskIndex < 0 || taskIndex >= len(s[bi].Tasks) {
		return s
	}
	out := s.Clone()
	out[bi].Tasks = append(out[bi].Tasks[:taskIndex], out[bi].Tasks[taskIndex+1:]...)
	return out
}

// Reorder removes the task at src and inserts it at dst. Insertion
// semantics: the task occupies dst.TaskIndex post-insertion, shifting
// later tasks right. Within one block the removal is applied before the
// insertion position is interpreted (standard remove-then-insert splice).
// No-op when either block id is unknown or src is out of range.
func Reorder(s model.Schedule, src, dst Position) model.Schedule {
	si := s.Find(src.BlockID)
	di := s.Find(dst.BlockID)
	if si < 0 || di < 0 {
		return s
	}
	if src.TaskIndex < 0 || src.TaskIndex >= len(s[si].Tasks) {
		return s
	}

	out := s.Clone()
	task := out[si].Tasks[src.TaskIndex]
	out[si].Tasks = append(out[si].Tasks[:src.TaskIndex], out[si].Tasks[src.TaskIndex+1:]...)

	tasks := out[di].Tasks
	at := dst.TaskIndex
	if at < 0 {
		at = 0
	}
	if at > len(tasks) {
		at = len(tasks)
	}
	tasks = append(tasks, model.Task{})
	copy(tasks[at+1:], tasks[at:])
	tasks[at] = task
	out[di].Tasks = tasks
	return out
}

// ClearCompleted retains, in every block, only the tasks whose id is
// absent or false in done. Because completion is keyed by stable task id,
// the surviving tasks keep their state and no map reset is needed.
func ClearCompleted(s model.Schedule, done model.Completion) model.Schedule {
	out := s.Clone()
	for bi := range out {
		kept := out[bi].Tasks[:0]
		for _, t := range out[bi].Tasks {
			if !done[t.ID] {
				kept = append(kept, t)
			}
		}
		out[bi].Tasks = kept
	}
	return out
}

func withTask(s model.Schedule, blockID, taskIndex int, fn func(*model.Task)) model.Schedule {
	bi := s.Find(blockID)
	if bi < 0 || taskIndex < 0 || taskIndex >= len(s[bi].Tasks) {
		return s
	}
	out := s.Clone()
	fn(&out[bi].Tasks[taskIndex])
	return out
}
