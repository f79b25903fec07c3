package stores

import (
	"maps"
	"slices"
)

// Indexed holds entities by ID plus a secondary index from a group ID (the
// workspace of a project, the project of an experiment) to the sorted IDs
// in that group. Every indexed ID is present in ByID and listed under its
// own group only. Values are replaced, never mutated.
type Indexed[T any] struct {
	ByID    map[int]T
	ByGroup map[int][]int
}

// Group returns the members of group in ID order.
func (s Indexed[T]) Group(group int) []T {
	ids := s.ByGroup[group]
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.ByID[id])
	}
	return out
}

// Lookup returns the entity with id, or nil.
func (s Indexed[T]) Lookup(id int) *T {
	v, ok := s.ByID[id]
	if !ok {
		return nil
	}
	return &v
}

// keys extracts the identity and group of an entity.
type keys[T any] struct {
	id    func(T) int
	group func(T) int
}

func (k keys[T]) with(s Indexed[T], v T) Indexed[T] {
	next := k.without(s, k.id(v))
	id, group := k.id(v), k.group(v)
	next.ByID[id] = v
	ids := append(slices.Clone(next.ByGroup[group]), id)
	slices.Sort(ids)
	next.ByGroup[group] = ids
	return next
}

// clone copies the top-level maps. Group slices are shared and must be
// cloned before being changed.
func (s Indexed[T]) clone() Indexed[T] {
	next := Indexed[T]{ByID: maps.Clone(s.ByID), ByGroup: maps.Clone(s.ByGroup)}
	if next.ByID == nil {
		next.ByID = make(map[int]T)
	}
	if next.ByGroup == nil {
		next.ByGroup = make(map[int][]int)
	}
	return next
}

// without always returns fresh maps, so callers may write to the result.
func (k keys[T]) without(s Indexed[T], id int) Indexed[T] {
	next := s.clone()
	old, ok := next.ByID[id]
	if !ok {
		return next
	}
	delete(next.ByID, id)
	group := k.group(old)
	ids := slices.DeleteFunc(slices.Clone(next.ByGroup[group]), func(v int) bool { return v == id })
	if len(ids) == 0 {
		delete(next.ByGroup, group)
	} else {
		next.ByGroup[group] = ids
	}
	return next
}

// replaceGroup drops every member of group and inserts list.
func (k keys[T]) replaceGroup(s Indexed[T], group int, list []T) Indexed[T] {
	next := s.clone()
	for _, id := range s.ByGroup[group] {
		next = k.without(next, id)
	}
	for _, v := range list {
		next = k.with(next, v)
	}
	return next
}
