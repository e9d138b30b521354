package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayflow/internal/model"
)

// memRecords is an in-memory Records implementation for tests.
type memRecords struct {
	data map[string][]byte
	puts int
}

func newMemRecords() *memRecords {
	return &memRecords{data: map[string][]byte{}}
}

func (m *memRecords) Get(name string) ([]byte, bool, error) {
	body, ok := m.data[name]
	return body, ok, nil
}

func (m *memRecords) Put(name string, body []byte) error {
	m.data[name] = body
	m.puts++
	return nil
}

func (m *memRecords) Delete(name string) error {
	delete(m.data, name)
	return nil
}

func TestOpenDefaults(t *testing.T) {
	s := Open(newMemRecords())
	assert.Empty(t, s.Schedule())
	assert.Empty(t, s.Completion())
	assert.False(t, s.Muted())
}

func TestOpenRestoresState(t *testing.T) {
	rec := newMemRecords()
	sched := testSchedule()
	body, err := json.Marshal(sched)
	require.NoError(t, err)
	rec.data[RecordSchedule] = body
	rec.data[RecordCompletion] = []byte(`{"a":true}`)
	rec.data[RecordMuted] = []byte(`true`)

	s := Open(rec)
	assert.Equal(t, sched, s.Schedule())
	assert.True(t, s.Completion()["a"])
	assert.True(t, s.Muted())
}

func TestOpenPurgesCorruptRecords(t *testing.T) {
	rec := newMemRecords()
	rec.data[RecordSchedule] = []byte(`{not json`)
	rec.data[RecordCompletion] = []byte(`also not json`)

	s := Open(rec)
	assert.Empty(t, s.Schedule(), "corrupt schedule falls back to empty")
	assert.Empty(t, s.Completion())

	_, ok := rec.data[RecordSchedule]
	assert.False(t, ok, "corrupt record purged")
	_, ok = rec.data[RecordCompletion]
	assert.False(t, ok)
}

func TestReplaceResetsCompletionAtomically(t *testing.T) {
	rec := newMemRecords()
	s := Open(rec)

	s.Replace(testSchedule())
	s.SetDone("a", true)
	require.True(t, s.Completion()["a"])

	s.Replace(model.Schedule{{ID: 0, Title: "Fresh"}})
	assert.Empty(t, s.Completion(), "new generation clears completion")
	assert.Equal(t, "Fresh", s.Schedule()[0].Title)

	// Both records were rewritten.
	var persisted model.Completion
	require.NoError(t, json.Unmarshal(rec.data[RecordCompletion], &persisted))
	assert.Empty(t, persisted)
}

func TestMutationsPersist(t *testing.T) {
	rec := newMemRecords()
	s := Open(rec)
	s.Replace(testSchedule())

	before := rec.puts
	s.UpdateTaskText(1, 0, "new text")
	s.DeleteTask(2, 0)
	s.Reorder(Position{BlockID: 1, TaskIndex: 0}, Position{BlockID: 1, TaskIndex: 1})
	assert.Equal(t, before+3, rec.puts, "every mutation rewrites the schedule record")

	var persisted model.Schedule
	require.NoError(t, json.Unmarshal(rec.data[RecordSchedule], &persisted))
	assert.Equal(t, s.Schedule(), persisted)
}

func TestSetDone(t *testing.T) {
	s := Open(newMemRecords())
	s.SetDone("x", true)
	assert.True(t, s.Completion()["x"])
	s.SetDone("x", false)
	_, ok := s.Completion()["x"]
	assert.False(t, ok, "unsetting removes the key")
}

func TestClearCompletedPrunesMap(t *testing.T) {
	s := Open(newMemRecords())
	s.Replace(testSchedule())
	s.SetDone("a", true)
	s.SetDone("d", true)

	s.ClearCompleted()

	assert.Equal(t, 3, s.Schedule().TaskCount())
	assert.Empty(t, s.Completion(), "cleared ids pruned from completion map")
}

func TestSetMuted(t *testing.T) {
	rec := newMemRecords()
	s := Open(rec)
	s.SetMuted(true)
	assert.True(t, s.Muted())
	assert.Equal(t, []byte(`true`), rec.data[RecordMuted])
}
