// Package store holds the current schedule and its per-task state, and
// exposes the mutation operations the browser UI drives. All edits are
// pure transformations of the previous schedule; the store persists every
// change through an injected Records capability so state survives reloads.
package store

import (
	"encoding/json"
	"sync"

	"dayflow/internal/model"

	appLog "dayflow/internal/log"
)

// Record names in durable storage. Each is an independent JSON document,
// read once at startup and rewritten on every change.
const (
	RecordSchedule   = "schedule"
	RecordCompletion = "completion"
	RecordMuted      = "muted"
)

// Records is the durable-storage capability injected into the store.
// Get returns ok=false when a record is absent.
type Records interface {
	Get(name string) (body []byte, ok bool, err error)
	Put(name string, body []byte) error
	Delete(name string) error
}

// Store owns the current schedule, completion flags and the muted flag.
// Handlers run on whatever goroutine the HTTP server or the reminder tick
// provides, so access is serialized with a mutex.
type Store struct {
	mu      sync.Mutex
	records Records

	schedule   model.Schedule
	completion model.Completion
	muted      bool
}

// Open loads persisted state through records. A record whose JSON does not
// decode is purged and replaced by its default; corruption is never fatal.
func Open(records Records) *Store {
	s := &Store{
		records:    records,
		schedule:   model.Schedule{},
		completion: model.Completion{},
	}
	s.loadRecord(RecordSchedule, &s.schedule)
	s.loadRecord(RecordCompletion, &s.completion)
	s.loadRecord(RecordMuted, &s.muted)
	if s.schedule == nil {
		s.schedule = model.Schedule{}
	}
	if s.completion == nil {
		s.completion = model.Completion{}
	}
	return s
}

func (s *Store) loadRecord(name string, into any) {
	body, ok, err := s.records.Get(name)
	if err != nil {
		appLog.Error("record read failed; using default", err, "record", name)
		return
	}
	if !ok {
		appLog.Debug("record absent; using default", "record", name)
		return
	}
	if err := json.Unmarshal(body, into); err != nil {
		appLog.Error("record corrupt; purging", err, "record", name)
		if derr := s.records.Delete(name); derr != nil {
			appLog.Error("record purge failed", derr, "record", name)
		}
	}
}

// Schedule returns a copy of the current schedule.
func (s *Store) Schedule() model.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule.Clone()
}

// Completion returns a copy of the current completion map.
func (s *Store) Completion() model.Completion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(model.Completion, len(s.completion))
	for k, v := range s.completion {
		out[k] = v
	}
	return out
}

// Muted reports whether audio cues are muted.
func (s *Store) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// SetMuted sets and persists the muted flag.
func (s *Store) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	s.persist(RecordMuted, s.muted)
}

// Replace installs a freshly generated schedule and resets completion.
// The two happen under one lock so no reader ever observes the new
// schedule paired with stale completion state.
func (s *Store) Replace(sched model.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = sched.Clone()
	s.completion = model.Completion{}
	s.persist(RecordSchedule, s.schedule)
	s.persist(RecordCompletion, s.completion)
}

// UpdateTaskText edits one task's text in place.
func (s *Store) UpdateTaskText(blockID, taskIndex int, text string) {
	s.apply(func(sched model.Schedule) model.Schedule {
		return UpdateTaskText(sched, blockID, taskIndex, text)
	})
}

// UpdateTaskNotes edits one task's notes in place.
func (s *Store) UpdateTaskNotes(blockID, taskIndex int, notes string) {
	s.apply(func(sched model.Schedule) model.Schedule {
		return UpdateTaskNotes(sched, blockID, taskIndex, notes)
	})
}

// DeleteTask removes one task.
func (s *Store) DeleteTask(blockID, taskIndex int) {
	s.apply(func(sched model.Schedule) model.Schedule {
		return DeleteTask(sched, blockID, taskIndex)
	})
}

// Reorder moves one task between positions, possibly across blocks.
func (s *Store) Reorder(src, dst Position) {
	s.apply(func(sched model.Schedule) model.Schedule {
		return Reorder(sched, src, dst)
	})
}

// SetDone sets and persists one task's completion flag.
func (s *Store) SetDone(taskID string, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if done {
		s.completion[taskID] = true
	} else {
		delete(s.completion, taskID)
	}
	s.persist(RecordCompletion, s.completion)
}

// ClearCompleted drops every task whose completion flag is set, then
// prunes the dropped ids from the completion map.
func (s *Store) ClearCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = ClearCompleted(s.schedule, s.completion)

	remaining := make(map[string]struct{}, s.schedule.TaskCount())
	for _, b := range s.schedule {
		for _, t := range b.Tasks {
			remaining[t.ID] = struct{}{}
		}
	}
	for id := range s.completion {
		if _, ok := remaining[id]; !ok {
			delete(s.completion, id)
		}
	}

	s.persist(RecordSchedule, s.schedule)
	s.persist(RecordCompletion, s.completion)
}

func (s *Store) apply(fn func(model.Schedule) model.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = fn(s.schedule)
	s.persist(RecordSchedule, s.schedule)
}

func (s *Store) persist(name string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		appLog.Error("record encode failed", err, "record", name)
		return
	}
	if err := s.records.Put(name, body); err != nil {
		appLog.Error("record write failed", err, "record", name)
	}
}
