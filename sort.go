package datagrid

import (
	"fmt"
	"sort"
)

// Virtual sort engine. Sorting never reorders row storage: it maintains a
// permutation of storage indexes, rebuilt in O(n log n) over the index
// array. The permutation is derived state; structural changes invalidate
// it and the next sort-dependent access rebuilds it. Insertions are not
// patched into an existing order incrementally; a full recompute is
// simpler and the comparator only touches indexes.

// Sort installs a sort state and computes the permutation synchronously.
// An empty (or nil) state discards the permutation, restoring identity
// order.
func (s *Store) Sort(state SortState) {
	s.mu.Lock()
	s.sortState = state.clone()
	if len(s.sortState) == 0 {
		s.perm = nil
		s.permStale = false
	} else {
		s.rebuildPermutation()
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventSortChanged})
}

// SortState returns the active sort state, nil when unsorted.
func (s *Store) SortState() SortState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortState.clone()
}

// Permutation returns the mapping from external position to storage index.
// With no active sort this is the identity mapping. A stale permutation is
// rebuilt before returning.
func (s *Store) Permutation() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshPermutation()
	out := make([]int, len(s.rows))
	if s.perm == nil {
		for i := range out {
			out[i] = i
		}
		return out
	}
	copy(out, s.perm)
	return out
}

// storageIndex converts an external row position into a storage index.
// This is the single boundary between the two coordinate systems; internal
// code never reasons in positions. Callers hold s.mu.
func (s *Store) storageIndex(pos int) (int, error) {
	if pos < 0 || pos >= len(s.rows) {
		return 0, fmt.Errorf("position %d of %d rows: %w", pos, len(s.rows), ErrPositionOutOfRange)
	}
	s.refreshPermutation()
	if s.perm == nil {
		return pos, nil
	}
	return s.perm[pos], nil
}

// invalidatePermutation marks the permutation stale after a structural
// change. Callers hold s.mu.
func (s *Store) invalidatePermutation() {
	if len(s.sortState) == 0 {
		s.perm = nil
		s.permStale = false
		return
	}
	s.permStale = true
}

// refreshPermutation lazily rebuilds a stale permutation. Callers hold
// s.mu.
func (s *Store) refreshPermutation() {
	if s.permStale || (s.perm != nil && len(s.perm) != len(s.rows)) {
		s.rebuildPermutation()
	}
}

// rebuildPermutation materializes the index array and sorts it with the
// multi-key comparator. The sort is stable so equal rows keep their
// storage order. Callers hold s.mu.
func (s *Store) rebuildPermutation() {
	s.permStale = false
	if len(s.sortState) == 0 {
		s.perm = nil
		return
	}
	perm := make([]int, len(s.rows))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return s.compareRows(s.rows[perm[a]], s.rows[perm[b]]) < 0
	})
	s.perm = perm
}

// compareRows applies the sort state keys in precedence order and returns
// the first discriminating result. Missing values (no cell entry or an
// explicit null) order last regardless of direction; the direction only
// negates present-vs-present comparisons. Callers hold s.mu.
func (s *Store) compareRows(a, b *Row) int {
	for _, key := range s.sortState {
		col := s.findColumn(key.ColumnID)
		if col == nil {
			continue
		}
		av := a.Cells[key.ColumnID]
		bv := b.Cells[key.ColumnID]
		aMissing, bMissing := av.IsNull(), bv.IsNull()
		switch {
		case aMissing && bMissing:
			continue
		case aMissing:
			return 1
		case bMissing:
			return -1
		}
		c := s.types.Compare(col.Type, av, bv, col.Options)
		if c == 0 {
			continue
		}
		if key.Direction == Descending {
			return -c
		}
		return c
	}
	return 0
}

// sortedBy reports whether the active sort state references the column.
// Callers hold s.mu.
func (s *Store) sortedBy(columnID string) bool {
	for _, k := range s.sortState {
		if k.ColumnID == columnID {
			return true
		}
	}
	return false
}
