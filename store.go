// Package datagrid implements the data and synchronization core of a
// high-density tabular widget: a sparse in-memory grid store, an
// index-based virtual sort engine, a storage-adapter contract with
// in-memory, fault-simulating and remote implementations, and an
// optimistic update coordinator that applies edits locally and rolls them
// back when the backing store rejects them.
package datagrid

import (
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/tablekit/go-datagrid/celltype"
)

// Store is the authoritative in-memory holder of columns and rows. All
// mutators are synchronous; background synchronization is layered on top
// by the Coordinator. Rows are addressed internally by identifier; the
// position-based entry points resolve positions through the current
// virtual permutation at the boundary.
type Store struct {
	mu        sync.RWMutex
	types     *celltype.Registry
	columns   []*Column
	rows      []*Row
	rowIndex  map[string]int // id -> storage index
	sortState SortState
	perm      []int // external position -> storage index, nil = identity
	permStale bool

	lmu       sync.RWMutex
	listeners []Listener
}

// NewStore creates an empty store resolving column types through types.
// A nil registry gets a default one with the built-in descriptors.
func NewStore(types *celltype.Registry) *Store {
	if types == nil {
		types = celltype.NewRegistry(nil)
	}
	return &Store{
		types:    types,
		rowIndex: make(map[string]int),
	}
}

// Types returns the registry the store resolves column types through.
func (s *Store) Types() *celltype.Registry { return s.types }

// OnChange registers a data-change listener.
func (s *Store) OnChange(fn Listener) {
	s.lmu.Lock()
	s.listeners = append(s.listeners, fn)
	s.lmu.Unlock()
}

func (s *Store) emit(events ...Event) {
	s.lmu.RLock()
	listeners := s.listeners
	s.lmu.RUnlock()
	for _, fn := range listeners {
		for _, e := range events {
			fn(e)
		}
	}
}

// Columns returns the column set in display order.
func (s *Store) Columns() []*Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Column, len(s.columns))
	for i, c := range s.columns {
		cc := *c
		out[i] = &cc
	}
	return out
}

// Column returns the column with the given identifier.
func (s *Store) Column(id string) (*Column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.findColumn(id)
	if c == nil {
		return nil, fmt.Errorf("column %s: %w", id, ErrColumnNotFound)
	}
	cc := *c
	return &cc, nil
}

// RowCount returns the number of stored rows.
func (s *Store) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Rows returns copies of all rows in storage order.
func (s *Store) Rows() []*Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Row, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.clone()
	}
	return out
}

// RowByID returns a copy of the row with the given identifier.
func (s *Store) RowByID(id string) (*Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.rowIndex[id]
	if !ok {
		return nil, fmt.Errorf("row %s: %w", id, ErrRowNotFound)
	}
	return s.rows[i].clone(), nil
}

// RowAt returns a copy of the row at an external position, resolved
// through the virtual permutation.
func (s *Store) RowAt(pos int) (*Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.storageIndex(pos)
	if err != nil {
		return nil, err
	}
	return s.rows[i].clone(), nil
}

// AddColumn appends a column to the display order, assigning an identifier
// when absent. Columns without a declared type default to text.
func (s *Store) AddColumn(col Column) (*Column, error) {
	s.mu.Lock()
	if col.ID == "" {
		col.ID = ulid.Make().String()
	}
	if col.Type == "" {
		col.Type = celltype.TypeText
	}
	if s.findColumn(col.ID) != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("column %s: %w", col.ID, ErrDuplicateID)
	}
	stored := col
	s.columns = append(s.columns, &stored)
	s.mu.Unlock()

	s.emit(Event{Kind: EventColumnsChanged, ColumnID: col.ID})
	return &col, nil
}

// UpdateColumn applies a partial update to a column.
func (s *Store) UpdateColumn(id string, patch ColumnPatch) (*Column, error) {
	s.mu.Lock()
	c := s.findColumn(id)
	if c == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("column %s: %w", id, ErrColumnNotFound)
	}
	c.apply(patch)
	if (patch.Type != nil || patch.Options != nil) && s.sortedBy(id) {
		s.permStale = true
	}
	out := *c
	s.mu.Unlock()

	s.emit(Event{Kind: EventColumnsChanged, ColumnID: id})
	return &out, nil
}

// DeleteColumn removes a column and purges its entry from every row's cell
// mapping. Sort keys referring to the column are dropped.
func (s *Store) DeleteColumn(id string) error {
	s.mu.Lock()
	idx := -1
	for i, c := range s.columns {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("column %s: %w", id, ErrColumnNotFound)
	}
	s.columns = append(s.columns[:idx], s.columns[idx+1:]...)
	for _, r := range s.rows {
		delete(r.Cells, id)
	}
	trimmed := s.sortState[:0:0]
	for _, k := range s.sortState {
		if k.ColumnID != id {
			trimmed = append(trimmed, k)
		}
	}
	if len(trimmed) != len(s.sortState) {
		s.sortState = trimmed
		s.invalidatePermutation()
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventColumnsChanged, ColumnID: id})
	return nil
}

// ReorderColumns rearranges the display order. ids must contain exactly
// the current column identifiers.
func (s *Store) ReorderColumns(ids []string) error {
	s.mu.Lock()
	if len(ids) != len(s.columns) {
		s.mu.Unlock()
		return fmt.Errorf("reorder lists %d of %d columns", len(ids), len(s.columns))
	}
	byID := make(map[string]*Column, len(s.columns))
	for _, c := range s.columns {
		byID[c.ID] = c
	}
	next := make([]*Column, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("column %s: %w", id, ErrColumnNotFound)
		}
		delete(byID, id)
		next = append(next, c)
	}
	s.columns = next
	s.mu.Unlock()

	s.emit(Event{Kind: EventColumnsChanged})
	return nil
}

// AddRow appends a row, assigning an identifier when absent. The
// permutation is invalidated; an active sort reapplies on next access.
func (s *Store) AddRow(row Row) (*Row, error) {
	s.mu.Lock()
	if row.ID == "" {
		row.ID = ulid.Make().String()
	}
	if _, exists := s.rowIndex[row.ID]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("row %s: %w", row.ID, ErrDuplicateID)
	}
	if row.Cells == nil {
		row.Cells = make(map[string]celltype.Value)
	}
	stored := row.clone()
	s.rowIndex[stored.ID] = len(s.rows)
	s.rows = append(s.rows, stored)
	s.invalidatePermutation()
	s.mu.Unlock()

	s.emit(Event{Kind: EventRowsChanged, RowID: row.ID})
	return row.clone(), nil
}

// UpdateRow applies a partial update to the row with the given identifier.
func (s *Store) UpdateRow(id string, patch RowPatch) (*Row, error) {
	s.mu.Lock()
	i, ok := s.rowIndex[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("row %s: %w", id, ErrRowNotFound)
	}
	s.rows[i].apply(patch)
	out := s.rows[i].clone()
	s.mu.Unlock()

	s.emit(Event{Kind: EventRowsChanged, RowID: id})
	return out, nil
}

// DeleteRow removes the row with the given identifier and invalidates the
// permutation.
func (s *Store) DeleteRow(id string) error {
	s.mu.Lock()
	i, ok := s.rowIndex[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("row %s: %w", id, ErrRowNotFound)
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	delete(s.rowIndex, id)
	for j := i; j < len(s.rows); j++ {
		s.rowIndex[s.rows[j].ID] = j
	}
	s.invalidatePermutation()
	s.mu.Unlock()

	s.emit(Event{Kind: EventRowsChanged, RowID: id})
	return nil
}

// CellValue returns the value at (position, column) and whether the cell
// entry exists.
func (s *Store) CellValue(pos int, columnID string) (celltype.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.storageIndex(pos)
	if err != nil {
		return celltype.Null(), false, err
	}
	if s.findColumn(columnID) == nil {
		return celltype.Null(), false, fmt.Errorf("column %s: %w", columnID, ErrColumnNotFound)
	}
	v, ok := s.rows[i].Cells[columnID]
	return v, ok, nil
}

// SetCellValue writes a cell addressed by external position. The value is
// stored even when the column's descriptor rejects it, so user input is
// never lost; the rejection is reported as a *ValidationError.
func (s *Store) SetCellValue(pos int, columnID string, v celltype.Value) error {
	s.mu.Lock()
	i, err := s.storageIndex(pos)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	rowID, err := s.setCellLocked(i, columnID, v)
	s.mu.Unlock()
	if err != nil {
		if _, ok := err.(*ValidationError); !ok {
			return err
		}
	}
	s.emit(Event{Kind: EventCellChanged, RowID: rowID, ColumnID: columnID})
	return err
}

// CellUpdate addresses one cell write by external row position.
type CellUpdate struct {
	RowPosition int            `json:"rowPosition"`
	ColumnID    string         `json:"columnId"`
	Value       celltype.Value `json:"value"`
}

// CellUpdateFailure pairs a failed update with its cause.
type CellUpdateFailure struct {
	Update CellUpdate
	Err    error
}

// BulkSetCellValues applies many cell writes best-effort: a failing update
// does not block the others. Updates are grouped by resolved row to keep
// row lookups off the per-cell path. Failures are collected and returned,
// never raised.
func (s *Store) BulkSetCellValues(updates []CellUpdate) []CellUpdateFailure {
	var failures []CellUpdateFailure
	var events []Event

	s.mu.Lock()
	byRow := make(map[int][]CellUpdate)
	order := make([]int, 0, len(updates))
	for _, u := range updates {
		i, err := s.storageIndex(u.RowPosition)
		if err != nil {
			failures = append(failures, CellUpdateFailure{Update: u, Err: err})
			continue
		}
		if _, seen := byRow[i]; !seen {
			order = append(order, i)
		}
		byRow[i] = append(byRow[i], u)
	}
	for _, i := range order {
		for _, u := range byRow[i] {
			rowID, err := s.setCellLocked(i, u.ColumnID, u.Value)
			if err != nil {
				failures = append(failures, CellUpdateFailure{Update: u, Err: err})
				if _, ok := err.(*ValidationError); !ok {
					continue
				}
			}
			events = append(events, Event{Kind: EventCellChanged, RowID: rowID, ColumnID: u.ColumnID})
		}
	}
	s.mu.Unlock()

	s.emit(events...)
	return failures
}

// FilterRows returns copies of the rows whose value in columnID satisfies
// the column type's filter predicate, in virtual order.
func (s *Store) FilterRows(columnID, filter string) ([]*Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.findColumn(columnID)
	if col == nil {
		return nil, fmt.Errorf("column %s: %w", columnID, ErrColumnNotFound)
	}
	desc := s.types.Resolve(col.Type)
	var out []*Row
	for pos := 0; pos < len(s.rows); pos++ {
		i, err := s.storageIndex(pos)
		if err != nil {
			return nil, err
		}
		r := s.rows[i]
		v := r.Cells[columnID]
		if desc.Matches(v, filter, col.Options) {
			out = append(out, r.clone())
		}
	}
	return out, nil
}

// setCellLocked writes one cell by storage index and returns the row ID.
// Invalid values are stored anyway and reported as *ValidationError.
func (s *Store) setCellLocked(i int, columnID string, v celltype.Value) (string, error) {
	col := s.findColumn(columnID)
	if col == nil {
		return "", fmt.Errorf("column %s: %w", columnID, ErrColumnNotFound)
	}
	row := s.rows[i]
	if row.Cells == nil {
		row.Cells = make(map[string]celltype.Value)
	}
	row.Cells[columnID] = v
	if err := s.types.Validate(col.Type, v, col.Options); err != nil {
		return row.ID, &ValidationError{ColumnID: columnID, Reason: err.Error(), Raw: v}
	}
	return row.ID, nil
}

func (s *Store) findColumn(id string) *Column {
	for _, c := range s.columns {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// setCellByID is the identifier-addressed write used by the coordinator's
// rollback path; it bypasses validation because it only ever restores
// previously observed state.
func (s *Store) setCellByID(rowID, columnID string, v celltype.Value, present bool) error {
	s.mu.Lock()
	i, ok := s.rowIndex[rowID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("row %s: %w", rowID, ErrRowNotFound)
	}
	row := s.rows[i]
	if present {
		if row.Cells == nil {
			row.Cells = make(map[string]celltype.Value)
		}
		row.Cells[columnID] = v
	} else {
		delete(row.Cells, columnID)
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventCellChanged, RowID: rowID, ColumnID: columnID})
	return nil
}

// replaceRowID swaps a provisional row identifier for the authoritative
// one assigned by an adapter.
func (s *Store) replaceRowID(oldID, newID string) error {
	s.mu.Lock()
	i, ok := s.rowIndex[oldID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("row %s: %w", oldID, ErrRowNotFound)
	}
	if _, taken := s.rowIndex[newID]; taken && newID != oldID {
		s.mu.Unlock()
		return fmt.Errorf("row %s: %w", newID, ErrDuplicateID)
	}
	delete(s.rowIndex, oldID)
	s.rows[i].ID = newID
	s.rowIndex[newID] = i
	s.mu.Unlock()

	s.emit(Event{Kind: EventRowsChanged, RowID: newID})
	return nil
}

// rowPosition returns the storage index of a row by identifier.
func (s *Store) rowPosition(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.rowIndex[id]
	return i, ok
}

// insertRowAt restores a previously deleted row at its old storage index.
// Used only by the coordinator's rollback path.
func (s *Store) insertRowAt(row *Row, i int) {
	s.mu.Lock()
	if i < 0 {
		i = 0
	}
	if i > len(s.rows) {
		i = len(s.rows)
	}
	s.rows = append(s.rows, nil)
	copy(s.rows[i+1:], s.rows[i:])
	s.rows[i] = row.clone()
	for j := i; j < len(s.rows); j++ {
		s.rowIndex[s.rows[j].ID] = j
	}
	s.invalidatePermutation()
	s.mu.Unlock()

	s.emit(Event{Kind: EventRowsChanged, RowID: row.ID})
}

// restoreRow overwrites a row's contents with a previously captured copy.
func (s *Store) restoreRow(prior *Row) error {
	s.mu.Lock()
	i, ok := s.rowIndex[prior.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("row %s: %w", prior.ID, ErrRowNotFound)
	}
	s.rows[i] = prior.clone()
	s.mu.Unlock()

	s.emit(Event{Kind: EventRowsChanged, RowID: prior.ID})
	return nil
}

// restoreColumn reinstates a deleted column at its old display index along
// with the cell values that were purged with it.
func (s *Store) restoreColumn(col Column, at int, cells map[string]celltype.Value) {
	s.mu.Lock()
	if at < 0 {
		at = 0
	}
	if at > len(s.columns) {
		at = len(s.columns)
	}
	stored := col
	s.columns = append(s.columns, nil)
	copy(s.columns[at+1:], s.columns[at:])
	s.columns[at] = &stored
	for rowID, v := range cells {
		if i, ok := s.rowIndex[rowID]; ok {
			if s.rows[i].Cells == nil {
				s.rows[i].Cells = make(map[string]celltype.Value)
			}
			s.rows[i].Cells[col.ID] = v
		}
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventColumnsChanged, ColumnID: col.ID})
}

// columnCells captures every stored value of one column keyed by row ID,
// together with the column's display index.
func (s *Store) columnCells(id string) (Column, int, map[string]celltype.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at := -1
	for i, c := range s.columns {
		if c.ID == id {
			at = i
			break
		}
	}
	if at < 0 {
		return Column{}, 0, nil, fmt.Errorf("column %s: %w", id, ErrColumnNotFound)
	}
	cells := make(map[string]celltype.Value)
	for _, r := range s.rows {
		if v, ok := r.Cells[id]; ok {
			cells[r.ID] = v
		}
	}
	return *s.columns[at], at, cells, nil
}

// replaceColumnID is the column counterpart of replaceRowID; cell entries
// keyed by the provisional identifier move to the authoritative one.
func (s *Store) replaceColumnID(oldID, newID string) error {
	s.mu.Lock()
	c := s.findColumn(oldID)
	if c == nil {
		s.mu.Unlock()
		return fmt.Errorf("column %s: %w", oldID, ErrColumnNotFound)
	}
	if newID != oldID && s.findColumn(newID) != nil {
		s.mu.Unlock()
		return fmt.Errorf("column %s: %w", newID, ErrDuplicateID)
	}
	c.ID = newID
	for _, r := range s.rows {
		if v, ok := r.Cells[oldID]; ok {
			delete(r.Cells, oldID)
			r.Cells[newID] = v
		}
	}
	for i := range s.sortState {
		if s.sortState[i].ColumnID == oldID {
			s.sortState[i].ColumnID = newID
		}
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventColumnsChanged, ColumnID: newID})
	return nil
}
