package datagrid

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tablekit/go-datagrid/celltype"
)

// EditState is the lifecycle of one optimistic edit.
type EditState int

const (
	// EditApplied: the change is visible in the store, no adapter call yet.
	EditApplied EditState = iota
	// EditSyncing: the adapter call is in flight.
	EditSyncing
	// EditConfirmed: the adapter accepted the change.
	EditConfirmed
	// EditRolledBack: the adapter rejected the change and the store was
	// reverted to the captured prior state.
	EditRolledBack
	// EditOrphaned: a structural add failed. There is no prior state to
	// revert to, so the provisional row or column is left in the store and
	// the caller must remove or retry it explicitly.
	EditOrphaned
)

// Edit is the per-edit token tracking one optimistic change through the
// adapter. Independent edits run concurrently; each edit only ever reverts
// its own captured prior state, so edits to different cells cannot corrupt
// each other. Concurrent edits to the same cell are unordered at the
// adapter: the last response wins.
type Edit struct {
	op   string
	done chan struct{}

	mu    sync.Mutex
	state EditState
	err   error
	rowID string
	colID string
}

func newEdit(op string) *Edit {
	return &Edit{op: op, done: make(chan struct{})}
}

// Op names the operation the edit performs.
func (e *Edit) Op() string { return e.op }

// State returns the current lifecycle state.
func (e *Edit) State() EditState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the edit's failure, nil while in flight or on success.
func (e *Edit) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// RowID returns the row the edit touched. For structural adds this is the
// provisional identifier until the adapter confirms, then the
// authoritative one; for an orphaned add it stays provisional so the
// caller can clean up.
func (e *Edit) RowID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rowID
}

// ColumnID returns the column the edit touched, if any.
func (e *Edit) ColumnID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.colID
}

// Done is closed when the edit reaches a terminal state.
func (e *Edit) Done() <-chan struct{} { return e.done }

// Wait blocks until the edit settles or ctx is cancelled, returning the
// edit's failure if any.
func (e *Edit) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Edit) setState(st EditState) {
	e.mu.Lock()
	e.state = st
	e.mu.Unlock()
}

func (e *Edit) settle(st EditState, err error) {
	e.mu.Lock()
	e.state = st
	e.err = err
	e.mu.Unlock()
	close(e.done)
}

// Coordinator applies edits to the grid store immediately, issues the
// corresponding adapter call in the background, and reverts the store when
// the call fails. Adapter failures are caught exactly once, here: the
// store is rolled back, the failure is wrapped in *AdapterError and
// surfaced through the returned Edit, never swallowed and never rolled
// back twice.
type Coordinator struct {
	store   *Store
	adapter Adapter
	logger  *slog.Logger
}

// NewCoordinator wires a store to the active adapter. A nil logger falls
// back to slog.Default.
func NewCoordinator(store *Store, adapter Adapter, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, adapter: adapter, logger: logger}
}

// Store returns the coordinated grid store.
func (c *Coordinator) Store() *Store { return c.store }

// UpdateCell applies a cell edit locally and syncs it in the background.
// A value rejected by the column's type descriptor is still applied (the
// raw input stays visible with the reason attached) but is not sent to the
// adapter; the *ValidationError is returned immediately.
func (c *Coordinator) UpdateCell(ctx context.Context, pos int, columnID string, v celltype.Value) (*Edit, error) {
	prior, present, err := c.store.CellValue(pos, columnID)
	if err != nil {
		return nil, err
	}
	row, err := c.store.RowAt(pos)
	if err != nil {
		return nil, err
	}
	if err := c.store.SetCellValue(pos, columnID, v); err != nil {
		return nil, err
	}

	edit := newEdit("updateCell")
	edit.rowID = row.ID
	edit.colID = columnID
	edit.setState(EditSyncing)

	go func() {
		ctx := context.WithoutCancel(ctx)
		if err := c.adapter.UpdateCell(ctx, pos, columnID, v); err != nil {
			c.rollbackCell(edit, row.ID, columnID, prior, present)
			edit.settle(EditRolledBack, &AdapterError{Op: "updateCell", Err: err})
			return
		}
		edit.settle(EditConfirmed, nil)
	}()
	return edit, nil
}

// BulkUpdateCells applies a coalesced multi-cell edit (drag fill, paste)
// as a single unit: all cells are written to the store up front, one
// adapter call covers all of them, and a failure rolls every cell back.
// Cells that fail locally (bad position, unknown column) are excluded from
// the adapter call and reported in the returned failures. As with
// UpdateCell, a value the column's type rejects keeps the raw input in the
// store but is withheld from the adapter call and from the rollback unit.
func (c *Coordinator) BulkUpdateCells(ctx context.Context, updates []CellUpdate) (*Edit, []CellUpdateFailure, error) {
	type captured struct {
		update  CellUpdate
		rowID   string
		prior   celltype.Value
		present bool
	}

	capture := make([]captured, 0, len(updates))
	accepted := make([]CellUpdate, 0, len(updates))
	var failures []CellUpdateFailure
	for _, u := range updates {
		prior, present, err := c.store.CellValue(u.RowPosition, u.ColumnID)
		if err != nil {
			failures = append(failures, CellUpdateFailure{Update: u, Err: err})
			continue
		}
		row, err := c.store.RowAt(u.RowPosition)
		if err != nil {
			failures = append(failures, CellUpdateFailure{Update: u, Err: err})
			continue
		}
		capture = append(capture, captured{update: u, rowID: row.ID, prior: prior, present: present})
		accepted = append(accepted, u)
	}

	// Validation rejections stay visible locally but never reach the
	// adapter; anything else was captured above and cannot fail here.
	type cellKey struct {
		pos int
		col string
	}
	rejected := make(map[cellKey]bool)
	for _, f := range c.store.BulkSetCellValues(accepted) {
		if _, ok := f.Err.(*ValidationError); ok {
			failures = append(failures, f)
			rejected[cellKey{f.Update.RowPosition, f.Update.ColumnID}] = true
		}
	}
	if len(rejected) > 0 {
		kept := capture[:0]
		synced := accepted[:0]
		for i, u := range accepted {
			if rejected[cellKey{u.RowPosition, u.ColumnID}] {
				continue
			}
			kept = append(kept, capture[i])
			synced = append(synced, u)
		}
		capture, accepted = kept, synced
	}

	edit := newEdit("bulkUpdateCells")
	if len(accepted) == 0 {
		edit.settle(EditConfirmed, nil)
		return edit, failures, nil
	}
	edit.setState(EditSyncing)

	go func() {
		ctx := context.WithoutCancel(ctx)
		if err := c.adapter.BulkUpdateCells(ctx, accepted); err != nil {
			// Single-unit rollback: every captured cell reverts, never a mix.
			for i := len(capture) - 1; i >= 0; i-- {
				prev := capture[i]
				c.rollbackCell(edit, prev.rowID, prev.update.ColumnID, prev.prior, prev.present)
			}
			edit.settle(EditRolledBack, &AdapterError{Op: "bulkUpdateCells", Err: err})
			return
		}
		edit.settle(EditConfirmed, nil)
	}()
	return edit, failures, nil
}

// AddRow appends a row locally under a provisional identifier and asks the
// adapter for the authoritative one. A failed add is not rolled back:
// there is no prior value for a row that never existed remotely, so the
// provisional row stays in the store and the edit settles as EditOrphaned
// for the caller to remove or retry.
func (c *Coordinator) AddRow(ctx context.Context, row Row) (*Edit, error) {
	local, err := c.store.AddRow(row)
	if err != nil {
		return nil, err
	}

	edit := newEdit("addRow")
	edit.rowID = local.ID
	edit.setState(EditSyncing)

	go func() {
		ctx := context.WithoutCancel(ctx)
		remote, err := c.adapter.AddRow(ctx, *local)
		if err != nil {
			edit.settle(EditOrphaned, &AdapterError{Op: "addRow", Err: err})
			return
		}
		if remote.ID != local.ID {
			if err := c.store.replaceRowID(local.ID, remote.ID); err != nil {
				c.logger.Warn("failed to adopt remote row id", "provisional", local.ID, "remote", remote.ID, "error", err)
			} else {
				edit.mu.Lock()
				edit.rowID = remote.ID
				edit.mu.Unlock()
			}
		}
		edit.settle(EditConfirmed, nil)
	}()
	return edit, nil
}

// UpdateRow applies a partial row update locally and syncs it, restoring
// the captured prior row on adapter failure.
func (c *Coordinator) UpdateRow(ctx context.Context, id string, patch RowPatch) (*Edit, error) {
	prior, err := c.store.RowByID(id)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.UpdateRow(id, patch); err != nil {
		return nil, err
	}

	edit := newEdit("updateRow")
	edit.rowID = id
	edit.setState(EditSyncing)

	go func() {
		ctx := context.WithoutCancel(ctx)
		if _, err := c.adapter.UpdateRow(ctx, id, patch); err != nil {
			if rerr := c.store.restoreRow(prior); rerr != nil {
				c.logger.Error("rollback failed", "op", "updateRow", "row", id, "error", rerr)
			}
			edit.settle(EditRolledBack, &AdapterError{Op: "updateRow", Err: err})
			return
		}
		edit.settle(EditConfirmed, nil)
	}()
	return edit, nil
}

// DeleteRow removes a row locally and syncs the deletion, reinserting the
// captured row at its old storage index on adapter failure.
func (c *Coordinator) DeleteRow(ctx context.Context, id string) (*Edit, error) {
	prior, err := c.store.RowByID(id)
	if err != nil {
		return nil, err
	}
	at, _ := c.store.rowPosition(id)
	if err := c.store.DeleteRow(id); err != nil {
		return nil, err
	}

	edit := newEdit("deleteRow")
	edit.rowID = id
	edit.setState(EditSyncing)

	go func() {
		ctx := context.WithoutCancel(ctx)
		if err := c.adapter.DeleteRow(ctx, id); err != nil {
			c.store.insertRowAt(prior, at)
			edit.settle(EditRolledBack, &AdapterError{Op: "deleteRow", Err: err})
			return
		}
		edit.settle(EditConfirmed, nil)
	}()
	return edit, nil
}

// AddColumn mirrors AddRow's asymmetric failure handling for columns: a
// failed add settles as EditOrphaned with the provisional column left in
// place.
func (c *Coordinator) AddColumn(ctx context.Context, col Column) (*Edit, error) {
	local, err := c.store.AddColumn(col)
	if err != nil {
		return nil, err
	}

	edit := newEdit("addColumn")
	edit.colID = local.ID
	edit.setState(EditSyncing)

	go func() {
		ctx := context.WithoutCancel(ctx)
		remote, err := c.adapter.AddColumn(ctx, *local)
		if err != nil {
			edit.settle(EditOrphaned, &AdapterError{Op: "addColumn", Err: err})
			return
		}
		if remote.ID != local.ID {
			if err := c.store.replaceColumnID(local.ID, remote.ID); err != nil {
				c.logger.Warn("failed to adopt remote column id", "provisional", local.ID, "remote", remote.ID, "error", err)
			} else {
				edit.mu.Lock()
				edit.colID = remote.ID
				edit.mu.Unlock()
			}
		}
		edit.settle(EditConfirmed, nil)
	}()
	return edit, nil
}

// DeleteColumn removes a column (purging its cells) locally and syncs the
// deletion; on adapter failure the column and every purged cell value are
// reinstated.
func (c *Coordinator) DeleteColumn(ctx context.Context, id string) (*Edit, error) {
	col, at, cells, err := c.store.columnCells(id)
	if err != nil {
		return nil, err
	}
	if err := c.store.DeleteColumn(id); err != nil {
		return nil, err
	}

	edit := newEdit("deleteColumn")
	edit.colID = id
	edit.setState(EditSyncing)

	go func() {
		ctx := context.WithoutCancel(ctx)
		if err := c.adapter.DeleteColumn(ctx, id); err != nil {
			c.store.restoreColumn(col, at, cells)
			edit.settle(EditRolledBack, &AdapterError{Op: "deleteColumn", Err: err})
			return
		}
		edit.settle(EditConfirmed, nil)
	}()
	return edit, nil
}

func (c *Coordinator) rollbackCell(edit *Edit, rowID, columnID string, prior celltype.Value, present bool) {
	if err := c.store.setCellByID(rowID, columnID, prior, present); err != nil {
		// The row is gone (deleted by a later edit); nothing to revert.
		c.logger.Warn("rollback skipped", "op", edit.op, "row", rowID, "column", columnID, "error", err)
	}
}
