// Package memory provides the in-process storage adapter: every contract
// operation delegates directly to a grid store and its sort engine, and
// all operations complete without suspension.
package memory

import (
	"context"
	"fmt"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/celltype"
)

// Adapter implements datagrid.Adapter over a datagrid.Store.
type Adapter struct {
	store *datagrid.Store
}

// New wraps a store. A nil store gets a fresh one with the built-in type
// registry.
func New(store *datagrid.Store) *Adapter {
	if store == nil {
		store = datagrid.NewStore(nil)
	}
	return &Adapter{store: store}
}

// Store exposes the backing store, mainly for tests and local setups.
func (a *Adapter) Store() *datagrid.Store { return a.store }

// Fetch returns one page of rows in virtual order. A non-empty sort is
// installed on the store before paging.
func (a *Adapter) Fetch(_ context.Context, page, pageSize int, sort datagrid.SortState) (*datagrid.Page, error) {
	if len(sort) > 0 && !a.store.SortState().Equal(sort) {
		a.store.Sort(sort)
	}
	total := a.store.RowCount()
	if pageSize <= 0 {
		pageSize = total
	}
	start := page * pageSize
	rows := make([]*datagrid.Row, 0, pageSize)
	for pos := start; pos < total && len(rows) < pageSize; pos++ {
		r, err := a.store.RowAt(pos)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return &datagrid.Page{
		Columns:   a.store.Columns(),
		Rows:      rows,
		TotalRows: total,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

func (a *Adapter) AddRow(_ context.Context, row datagrid.Row) (*datagrid.Row, error) {
	r, err := a.store.AddRow(row)
	if err == nil {
		return r, nil
	}
	// The optimistic layer applies rows to this same store before calling
	// the adapter, so re-adding an existing identifier is a confirmation,
	// not a conflict.
	if existing, gerr := a.store.RowByID(row.ID); gerr == nil {
		return existing, nil
	}
	return nil, err
}

func (a *Adapter) UpdateRow(_ context.Context, id string, patch datagrid.RowPatch) (*datagrid.Row, error) {
	return a.store.UpdateRow(id, patch)
}

func (a *Adapter) DeleteRow(_ context.Context, id string) error {
	err := a.store.DeleteRow(id)
	if err != nil && a.alreadyGone(id) {
		return nil
	}
	return err
}

func (a *Adapter) BulkUpdateRows(_ context.Context, updates []datagrid.RowUpdate) ([]*datagrid.Row, error) {
	out := make([]*datagrid.Row, 0, len(updates))
	for _, u := range updates {
		r, err := a.store.UpdateRow(u.RowID, u.Patch)
		if err != nil {
			return nil, fmt.Errorf("bulk update row %s: %w", u.RowID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (a *Adapter) BulkDeleteRows(_ context.Context, ids []string) error {
	for _, id := range ids {
		if err := a.store.DeleteRow(id); err != nil && !a.alreadyGone(id) {
			return fmt.Errorf("bulk delete row %s: %w", id, err)
		}
	}
	return nil
}

func (a *Adapter) AddColumn(_ context.Context, col datagrid.Column) (*datagrid.Column, error) {
	c, err := a.store.AddColumn(col)
	if err == nil {
		return c, nil
	}
	if existing, gerr := a.store.Column(col.ID); gerr == nil {
		return existing, nil
	}
	return nil, err
}

func (a *Adapter) UpdateColumn(_ context.Context, id string, patch datagrid.ColumnPatch) (*datagrid.Column, error) {
	return a.store.UpdateColumn(id, patch)
}

func (a *Adapter) DeleteColumn(_ context.Context, id string) error {
	err := a.store.DeleteColumn(id)
	if err != nil {
		if _, gerr := a.store.Column(id); gerr != nil {
			return nil // already gone
		}
	}
	return err
}

func (a *Adapter) ReorderColumns(_ context.Context, ids []string) error {
	return a.store.ReorderColumns(ids)
}

func (a *Adapter) ResizeColumn(_ context.Context, id string, width int) error {
	_, err := a.store.UpdateColumn(id, datagrid.ColumnPatch{Width: &width})
	return err
}

func (a *Adapter) HideColumn(_ context.Context, id string, hidden bool) error {
	_, err := a.store.UpdateColumn(id, datagrid.ColumnPatch{Hidden: &hidden})
	return err
}

func (a *Adapter) PinColumn(_ context.Context, id string, side datagrid.PinSide) error {
	_, err := a.store.UpdateColumn(id, datagrid.ColumnPatch{Pinned: &side})
	return err
}

func (a *Adapter) UpdateCell(_ context.Context, rowPos int, columnID string, v celltype.Value) error {
	return a.store.SetCellValue(rowPos, columnID, v)
}

func (a *Adapter) BulkUpdateCells(_ context.Context, updates []datagrid.CellUpdate) error {
	failures := a.store.BulkSetCellValues(updates)
	for _, f := range failures {
		if _, ok := f.Err.(*datagrid.ValidationError); !ok {
			return fmt.Errorf("bulk cell update at position %d: %w", f.Update.RowPosition, f.Err)
		}
	}
	return nil
}

func (a *Adapter) Sort(_ context.Context, state datagrid.SortState) error {
	a.store.Sort(state)
	return nil
}

func (a *Adapter) ColumnSchema(_ context.Context) ([]*datagrid.Column, error) {
	return a.store.Columns(), nil
}

func (a *Adapter) RowCount(_ context.Context) (int, error) {
	return a.store.RowCount(), nil
}

func (a *Adapter) alreadyGone(id string) bool {
	_, err := a.store.RowByID(id)
	return err != nil
}
