package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutAndGetAll(t *testing.T) {
	s := NewObjectStore()
	s.Put("user", map[string]any{"id": "1", "name": "Ada"})
	s.Put("user", map[string]any{"id": "2", "name": "Grace"})

	got := s.GetAll("user")
	assert.Len(t, got, 2)
	assert.Equal(t, "Ada", got[0].Data["name"])
}

func TestGetAllUnknownTypeIsEmpty(t *testing.T) {
	s := NewObjectStore()
	assert.Empty(t, s.GetAll("nothing"))
}

func TestGetFieldAcrossFillsMissingWithNil(t *testing.T) {
	s := NewObjectStore()
	s.Put("user", map[string]any{"id": "1", "name": "Ada"})
	s.Put("user", map[string]any{"id": "2"})

	fields := s.GetFieldAcross("user", "name")
	assert.Equal(t, []any{"Ada", nil}, fields)
}

func TestGetByIDReturnsMostRecent(t *testing.T) {
	s := NewObjectStore()
	s.Put("user", map[string]any{"id": "1", "name": "Ada"})
	s.Put("user", map[string]any{"id": "1", "name": "Ada Lovelace"})

	data, ok := s.GetByID("user", "1")
	assert.True(t, ok)
	assert.Equal(t, "Ada Lovelace", data["name"])
}

func TestGetByIDNotFound(t *testing.T) {
	s := NewObjectStore()
	_, ok := s.GetByID("user", "missing")
	assert.False(t, ok)
}

func TestGetFieldOfMissingFieldIsNotFound(t *testing.T) {
	s := NewObjectStore()
	s.Put("user", map[string]any{"id": "1"})

	_, ok := s.GetFieldOf("user", "1", "name")
	assert.False(t, ok)
}

func TestClearEmptiesBothIndices(t *testing.T) {
	s := NewObjectStore()
	s.Put("user", map[string]any{"id": "1"})
	s.Clear()

	assert.Empty(t, s.GetAll("user"))
	_, ok := s.GetByID("user", "1")
	assert.False(t, ok)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewObjectStore()
	s.Put("user", map[string]any{"id": "1"})

	snap := s.Snapshot()
	s.Put("user", map[string]any{"id": "2"})

	assert.Len(t, snap["user"], 1, "snapshot must not observe later mutations")
}

func TestConcurrentWritesNeverLoseAnObject(t *testing.T) {
	s := NewObjectStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Put("event", map[string]any{"n": n})
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.GetAll("event"), 100)
}
