package datagrid

import "github.com/tablekit/go-datagrid/celltype"

// Row is one record of the grid. Cells is sparse: a column absent from the
// map has no value, which is distinct from an explicit null cell.
type Row struct {
	ID     string                    `json:"id"`
	Height int                       `json:"height,omitempty"`
	Cells  map[string]celltype.Value `json:"cells"`
}

// Cell returns the value stored for columnID and whether an entry exists.
func (r *Row) Cell(columnID string) (celltype.Value, bool) {
	v, ok := r.Cells[columnID]
	return v, ok
}

// clone deep-copies the row. Cell payloads are immutable by convention so
// only the map itself is duplicated.
func (r *Row) clone() *Row {
	out := &Row{ID: r.ID, Height: r.Height, Cells: make(map[string]celltype.Value, len(r.Cells))}
	for k, v := range r.Cells {
		out.Cells[k] = v
	}
	return out
}

// RowPatch is a partial row update. Cells entries overwrite (or create)
// cell values; column identifiers listed in Remove have their entries
// deleted, reverting those cells to "no value".
type RowPatch struct {
	Height *int                      `json:"height,omitempty"`
	Cells  map[string]celltype.Value `json:"cells,omitempty"`
	Remove []string                  `json:"remove,omitempty"`
}

func (r *Row) apply(patch RowPatch) {
	if patch.Height != nil {
		r.Height = *patch.Height
	}
	if r.Cells == nil && len(patch.Cells) > 0 {
		r.Cells = make(map[string]celltype.Value, len(patch.Cells))
	}
	for k, v := range patch.Cells {
		r.Cells[k] = v
	}
	for _, k := range patch.Remove {
		delete(r.Cells, k)
	}
}

// EventKind classifies a data-change notification.
type EventKind int

const (
	// EventRowsChanged fires on row add, update or delete.
	EventRowsChanged EventKind = iota
	// EventColumnsChanged fires on any column-set or column-order change.
	EventColumnsChanged
	// EventCellChanged fires on a single-cell write.
	EventCellChanged
	// EventSortChanged fires when the sort state changes.
	EventSortChanged
)

// Event is a data-change notification emitted by the store after a
// mutation has been applied. RowID and ColumnID are set when the change is
// scoped to one row or cell.
type Event struct {
	Kind     EventKind
	RowID    string
	ColumnID string
}

// Listener receives data-change notifications. Listeners run synchronously
// on the mutating goroutine after the store lock is released and must not
// block.
type Listener func(Event)
