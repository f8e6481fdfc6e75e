// Package store implements Nugget's two process-wide singletons: the typed
// object store and the script state store. Both are plain Go maps behind a
// single sync.RWMutex each.
package store

import "sync"

// Object is a JSON object captured from a rendered response body.
// When Data has a string "id" field, its value is also kept in ID for
// lookup; otherwise ID is empty.
type Object struct {
	ID   string
	Data map[string]any
}

// ObjectStore holds every stored object, indexed both by type (insertion
// order preserved) and by id across all types. Lookups read only the
// by-type index; the by-id index is maintained by Put and Clear.
type ObjectStore struct {
	mu     sync.RWMutex
	byType map[string][]*Object
	byID   map[string]*Object
}

// NewObjectStore creates an empty ObjectStore.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		byType: make(map[string][]*Object),
		byID:   make(map[string]*Object),
	}
}

// Put appends obj to the list for typeName and, if obj carries a string
// "id" field, indexes it in byID too (last writer wins on collision).
func (s *ObjectStore) Put(typeName string, data map[string]any) {
	obj := &Object{Data: data}
	if idVal, ok := data["id"]; ok {
		if idStr, ok := idVal.(string); ok {
			obj.ID = idStr
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType[typeName] = append(s.byType[typeName], obj)
	if obj.ID != "" {
		s.byID[obj.ID] = obj
	}
}

// GetAll returns every object stored under typeName, in insertion order.
// The returned slice is a copy of the index, not of the objects themselves.
func (s *ObjectStore) GetAll(typeName string) []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objs := s.byType[typeName]
	out := make([]*Object, len(objs))
	copy(out, objs)
	return out
}

// GetFieldAcross returns, for every object of typeName in insertion order,
// the value of field (nil when absent on a given object).
func (s *ObjectStore) GetFieldAcross(typeName, field string) []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objs := s.byType[typeName]
	out := make([]any, len(objs))
	for i, obj := range objs {
		out[i] = obj.Data[field]
	}
	return out
}

// GetByID finds the most recently stored object of typeName with the given
// id. A linear scan over by-type is used; byID is not consulted, since it
// does not constrain by type.
func (s *ObjectStore) GetByID(typeName, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objs := s.byType[typeName]
	for i := len(objs) - 1; i >= 0; i-- {
		if objs[i].ID == id {
			return objs[i].Data, true
		}
	}
	return nil, false
}

// GetFieldOf returns the named field of the object identified by
// (typeName, id). Not-found if either the object or the field is missing.
func (s *ObjectStore) GetFieldOf(typeName, id, field string) (any, bool) {
	data, ok := s.GetByID(typeName, id)
	if !ok {
		return nil, false
	}
	val, ok := data[field]
	return val, ok
}

// Count returns the number of objects stored under typeName.
func (s *ObjectStore) Count(typeName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byType[typeName])
}

// Snapshot returns a point-in-time copy of every type's object list, keyed
// by type name, for handing to a script invocation that must not observe
// mutations made by other requests mid-execution.
func (s *ObjectStore) Snapshot() map[string][]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]map[string]any, len(s.byType))
	for typeName, objs := range s.byType {
		list := make([]map[string]any, len(objs))
		for i, obj := range objs {
			list[i] = obj.Data
		}
		out[typeName] = list
	}
	return out
}

// Clear empties both indices atomically.
func (s *ObjectStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType = make(map[string][]*Object)
	s.byID = make(map[string]*Object)
}
