package memory_test

import (
	"context"
	"testing"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/adapters/adaptertest"
	"github.com/tablekit/go-datagrid/adapters/memory"
	"github.com/tablekit/go-datagrid/celltype"
)

func TestAdapter_Contract(t *testing.T) {
	adaptertest.Run(t, func(t *testing.T) datagrid.Adapter {
		return memory.New(nil)
	})
}

func TestAdapter_SharedStoreConfirmation(t *testing.T) {
	// The optimistic layer applies changes to the same store before the
	// adapter call arrives; replays must read as confirmations.
	store := datagrid.NewStore(nil)
	adapter := memory.New(store)
	ctx := context.Background()

	if _, err := store.AddColumn(datagrid.Column{ID: "name", Type: celltype.TypeText}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	row, err := store.AddRow(datagrid.Row{ID: "r1"})
	if err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}

	t.Run("re-add of existing row", func(t *testing.T) {
		got, err := adapter.AddRow(ctx, *row)
		if err != nil {
			t.Fatalf("AddRow() error = %v", err)
		}
		if got.ID != "r1" {
			t.Errorf("AddRow() ID = %v, want r1", got.ID)
		}
		if store.RowCount() != 1 {
			t.Errorf("RowCount() = %v, want 1", store.RowCount())
		}
	})

	t.Run("delete of already-deleted row", func(t *testing.T) {
		if err := store.DeleteRow("r1"); err != nil {
			t.Fatalf("DeleteRow() error = %v", err)
		}
		if err := adapter.DeleteRow(ctx, "r1"); err != nil {
			t.Errorf("DeleteRow(gone) error = %v, want nil", err)
		}
	})
}

func TestAdapter_FetchInstallsSort(t *testing.T) {
	adapter := memory.New(nil)
	ctx := context.Background()

	if _, err := adapter.AddColumn(ctx, datagrid.Column{ID: "n", Type: celltype.TypeNumber}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	for _, f := range []float64{3, 1, 2} {
		if _, err := adapter.AddRow(ctx, datagrid.Row{Cells: map[string]celltype.Value{"n": celltype.Scalar(f)}}); err != nil {
			t.Fatalf("AddRow() error = %v", err)
		}
	}

	page, err := adapter.Fetch(ctx, 0, 0, datagrid.SortState{{ColumnID: "n", Direction: datagrid.Ascending}})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := []float64{1, 2, 3}
	for i, w := range want {
		v, _ := page.Rows[i].Cell("n")
		if !v.Equal(celltype.Scalar(w)) {
			t.Errorf("row %d = %v, want %v", i, v, w)
		}
	}

	// The sort state sticks on the backing store.
	if !adapter.Store().SortState().Equal(datagrid.SortState{{ColumnID: "n", Direction: datagrid.Ascending}}) {
		t.Errorf("SortState() = %v, want the fetched sort", adapter.Store().SortState())
	}
}

func TestAdapter_BulkUpdateCellsToleratesValidation(t *testing.T) {
	adapter := memory.New(nil)
	ctx := context.Background()

	if _, err := adapter.AddColumn(ctx, datagrid.Column{ID: "n", Type: celltype.TypeNumber}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if _, err := adapter.AddRow(ctx, datagrid.Row{}); err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}

	// A validation rejection keeps the raw value and is not an adapter
	// failure; a positional miss is.
	if err := adapter.BulkUpdateCells(ctx, []datagrid.CellUpdate{
		{RowPosition: 0, ColumnID: "n", Value: celltype.Scalar("oops")},
	}); err != nil {
		t.Errorf("BulkUpdateCells(validation) error = %v, want nil", err)
	}
	if err := adapter.BulkUpdateCells(ctx, []datagrid.CellUpdate{
		{RowPosition: 7, ColumnID: "n", Value: celltype.Scalar(1.0)},
	}); err == nil {
		t.Error("BulkUpdateCells(out of range) error = nil, want error")
	}
}
