// Package snapshot bridges whole-table backends (spreadsheet files,
// sheet services) to the storage adapter contract. Such backends cannot
// address single rows or cells; instead the adapter keeps the full table
// in a grid store, loads it lazily on first use, and writes the whole
// table back after every mutation.
package snapshot

import (
	"context"
	"fmt"
	"sync"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/adapters/memory"
	"github.com/tablekit/go-datagrid/celltype"
)

// Backend loads and replaces the complete table.
type Backend interface {
	// Load retrieves the full column set and all rows.
	Load(ctx context.Context) ([]*datagrid.Column, []*datagrid.Row, error)
	// Save replaces the stored table with the given columns and rows.
	Save(ctx context.Context, columns []*datagrid.Column, rows []*datagrid.Row) error
}

// Adapter implements datagrid.Adapter over a Backend.
type Adapter struct {
	mu      sync.Mutex
	backend Backend
	store   *datagrid.Store
	mem     *memory.Adapter
	loaded  bool
}

// New creates a snapshot adapter resolving cell types through types.
func New(backend Backend, types *celltype.Registry) *Adapter {
	store := datagrid.NewStore(types)
	return &Adapter{
		backend: backend,
		store:   store,
		mem:     memory.New(store),
	}
}

// ensureLoaded populates the store from the backend once.
func (a *Adapter) ensureLoaded(ctx context.Context) error {
	if a.loaded {
		return nil
	}
	columns, rows, err := a.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	for _, c := range columns {
		if _, err := a.store.AddColumn(*c); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if _, err := a.store.AddRow(*r); err != nil {
			return err
		}
	}
	a.loaded = true
	return nil
}

// flush writes the whole table back to the backend.
func (a *Adapter) flush(ctx context.Context) error {
	if err := a.backend.Save(ctx, a.store.Columns(), a.store.Rows()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (a *Adapter) read(ctx context.Context, fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureLoaded(ctx); err != nil {
		return err
	}
	return fn()
}

func (a *Adapter) write(ctx context.Context, fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureLoaded(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return a.flush(ctx)
}

func (a *Adapter) Fetch(ctx context.Context, page, pageSize int, sort datagrid.SortState) (*datagrid.Page, error) {
	var out *datagrid.Page
	err := a.read(ctx, func() (err error) {
		out, err = a.mem.Fetch(ctx, page, pageSize, sort)
		return
	})
	return out, err
}

func (a *Adapter) AddRow(ctx context.Context, row datagrid.Row) (*datagrid.Row, error) {
	var out *datagrid.Row
	err := a.write(ctx, func() (err error) {
		out, err = a.mem.AddRow(ctx, row)
		return
	})
	return out, err
}

func (a *Adapter) UpdateRow(ctx context.Context, id string, patch datagrid.RowPatch) (*datagrid.Row, error) {
	var out *datagrid.Row
	err := a.write(ctx, func() (err error) {
		out, err = a.mem.UpdateRow(ctx, id, patch)
		return
	})
	return out, err
}

func (a *Adapter) DeleteRow(ctx context.Context, id string) error {
	return a.write(ctx, func() error { return a.mem.DeleteRow(ctx, id) })
}

func (a *Adapter) BulkUpdateRows(ctx context.Context, updates []datagrid.RowUpdate) ([]*datagrid.Row, error) {
	var out []*datagrid.Row
	err := a.write(ctx, func() (err error) {
		out, err = a.mem.BulkUpdateRows(ctx, updates)
		return
	})
	return out, err
}

func (a *Adapter) BulkDeleteRows(ctx context.Context, ids []string) error {
	return a.write(ctx, func() error { return a.mem.BulkDeleteRows(ctx, ids) })
}

func (a *Adapter) AddColumn(ctx context.Context, col datagrid.Column) (*datagrid.Column, error) {
	var out *datagrid.Column
	err := a.write(ctx, func() (err error) {
		out, err = a.mem.AddColumn(ctx, col)
		return
	})
	return out, err
}

func (a *Adapter) UpdateColumn(ctx context.Context, id string, patch datagrid.ColumnPatch) (*datagrid.Column, error) {
	var out *datagrid.Column
	err := a.write(ctx, func() (err error) {
		out, err = a.mem.UpdateColumn(ctx, id, patch)
		return
	})
	return out, err
}

func (a *Adapter) DeleteColumn(ctx context.Context, id string) error {
	return a.write(ctx, func() error { return a.mem.DeleteColumn(ctx, id) })
}

func (a *Adapter) ReorderColumns(ctx context.Context, ids []string) error {
	return a.write(ctx, func() error { return a.mem.ReorderColumns(ctx, ids) })
}

func (a *Adapter) ResizeColumn(ctx context.Context, id string, width int) error {
	return a.write(ctx, func() error { return a.mem.ResizeColumn(ctx, id, width) })
}

func (a *Adapter) HideColumn(ctx context.Context, id string, hidden bool) error {
	return a.write(ctx, func() error { return a.mem.HideColumn(ctx, id, hidden) })
}

func (a *Adapter) PinColumn(ctx context.Context, id string, side datagrid.PinSide) error {
	return a.write(ctx, func() error { return a.mem.PinColumn(ctx, id, side) })
}

func (a *Adapter) UpdateCell(ctx context.Context, rowPos int, columnID string, v celltype.Value) error {
	return a.write(ctx, func() error { return a.mem.UpdateCell(ctx, rowPos, columnID, v) })
}

func (a *Adapter) BulkUpdateCells(ctx context.Context, updates []datagrid.CellUpdate) error {
	return a.write(ctx, func() error { return a.mem.BulkUpdateCells(ctx, updates) })
}

// Sort is satisfied locally; the stored order on the backend is storage
// order, so no flush is needed.
func (a *Adapter) Sort(ctx context.Context, state datagrid.SortState) error {
	return a.read(ctx, func() error { return a.mem.Sort(ctx, state) })
}

func (a *Adapter) ColumnSchema(ctx context.Context) ([]*datagrid.Column, error) {
	var out []*datagrid.Column
	err := a.read(ctx, func() (err error) {
		out, err = a.mem.ColumnSchema(ctx)
		return
	})
	return out, err
}

func (a *Adapter) RowCount(ctx context.Context) (int, error) {
	var out int
	err := a.read(ctx, func() (err error) {
		out, err = a.mem.RowCount(ctx)
		return
	})
	return out, err
}
