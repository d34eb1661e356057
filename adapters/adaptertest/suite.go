// Package adaptertest exercises the storage adapter contract against any
// implementation. Adapter packages run the suite from their own tests with
// a factory producing a fresh, empty adapter per case.
package adaptertest

import (
	"context"
	"errors"
	"testing"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/celltype"
)

// Factory produces a fresh, empty adapter for one test case.
type Factory func(t *testing.T) datagrid.Adapter

// Run exercises the full adapter contract: column and row lifecycle, cell
// writes by position, bulk operations, sorting and paging.
func Run(t *testing.T, factory Factory) {
	t.Run("ColumnLifecycle", func(t *testing.T) { testColumnLifecycle(t, factory(t)) })
	t.Run("RowLifecycle", func(t *testing.T) { testRowLifecycle(t, factory(t)) })
	t.Run("CellUpdates", func(t *testing.T) { testCellUpdates(t, factory(t)) })
	t.Run("BulkOperations", func(t *testing.T) { testBulkOperations(t, factory(t)) })
	t.Run("SortAndFetch", func(t *testing.T) { testSortAndFetch(t, factory(t)) })
	t.Run("Paging", func(t *testing.T) { testPaging(t, factory(t)) })
}

// seed installs a name/score schema and n rows with ascending scores.
func seed(t *testing.T, a datagrid.Adapter, n int) []string {
	t.Helper()
	ctx := context.Background()

	cols := []datagrid.Column{
		{ID: "name", Title: "Name", Type: celltype.TypeText},
		{ID: "score", Title: "Score", Type: celltype.TypeNumber},
	}
	for _, c := range cols {
		if _, err := a.AddColumn(ctx, c); err != nil {
			t.Fatalf("AddColumn(%s) error = %v", c.ID, err)
		}
	}

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		r, err := a.AddRow(ctx, datagrid.Row{Cells: map[string]celltype.Value{
			"name":  celltype.Scalar(string(rune('a' + i))),
			"score": celltype.Scalar(float64(i * 10)),
		}})
		if err != nil {
			t.Fatalf("AddRow(%d) error = %v", i, err)
		}
		if r.ID == "" {
			t.Fatal("AddRow() returned a row without an identifier")
		}
		ids = append(ids, r.ID)
	}
	return ids
}

func testColumnLifecycle(t *testing.T, a datagrid.Adapter) {
	ctx := context.Background()

	col, err := a.AddColumn(ctx, datagrid.Column{ID: "title", Title: "Title", Type: celltype.TypeText})
	if err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if col.ID != "title" {
		t.Errorf("AddColumn() ID = %v, want %v", col.ID, "title")
	}
	if _, err := a.AddColumn(ctx, datagrid.Column{ID: "status", Title: "Status", Type: celltype.TypeSelect}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}

	newTitle := "Headline"
	updated, err := a.UpdateColumn(ctx, "title", datagrid.ColumnPatch{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateColumn() error = %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("UpdateColumn() Title = %v, want %v", updated.Title, newTitle)
	}

	if err := a.ResizeColumn(ctx, "title", 240); err != nil {
		t.Errorf("ResizeColumn() error = %v", err)
	}
	if err := a.HideColumn(ctx, "status", true); err != nil {
		t.Errorf("HideColumn() error = %v", err)
	}
	if err := a.PinColumn(ctx, "title", datagrid.PinLeft); err != nil {
		t.Errorf("PinColumn() error = %v", err)
	}

	cols, err := a.ColumnSchema(ctx)
	if err != nil {
		t.Fatalf("ColumnSchema() error = %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("ColumnSchema() returned %d columns, want 2", len(cols))
	}
	if cols[0].Width != 240 {
		t.Errorf("ColumnSchema() width = %v, want 240", cols[0].Width)
	}
	if !cols[1].Hidden {
		t.Error("ColumnSchema() status column not hidden")
	}
	if cols[0].Pinned != datagrid.PinLeft {
		t.Errorf("ColumnSchema() pinned = %v, want %v", cols[0].Pinned, datagrid.PinLeft)
	}

	if err := a.ReorderColumns(ctx, []string{"status", "title"}); err != nil {
		t.Fatalf("ReorderColumns() error = %v", err)
	}
	cols, err = a.ColumnSchema(ctx)
	if err != nil {
		t.Fatalf("ColumnSchema() error = %v", err)
	}
	if cols[0].ID != "status" || cols[1].ID != "title" {
		t.Errorf("ReorderColumns() order = [%v %v], want [status title]", cols[0].ID, cols[1].ID)
	}

	if err := a.DeleteColumn(ctx, "status"); err != nil {
		t.Fatalf("DeleteColumn() error = %v", err)
	}
	cols, err = a.ColumnSchema(ctx)
	if err != nil {
		t.Fatalf("ColumnSchema() error = %v", err)
	}
	if len(cols) != 1 || cols[0].ID != "title" {
		t.Errorf("ColumnSchema() after delete = %v columns, want only title", len(cols))
	}
}

func testRowLifecycle(t *testing.T, a datagrid.Adapter) {
	ctx := context.Background()
	ids := seed(t, a, 3)

	count, err := a.RowCount(ctx)
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("RowCount() = %v, want 3", count)
	}

	updated, err := a.UpdateRow(ctx, ids[1], datagrid.RowPatch{
		Cells: map[string]celltype.Value{"name": celltype.Scalar("renamed")},
	})
	if err != nil {
		t.Fatalf("UpdateRow() error = %v", err)
	}
	if v, _ := updated.Cell("name"); !v.Equal(celltype.Scalar("renamed")) {
		t.Errorf("UpdateRow() name = %v, want renamed", v)
	}

	if _, err := a.UpdateRow(ctx, "missing", datagrid.RowPatch{}); !errors.Is(err, datagrid.ErrRowNotFound) {
		t.Errorf("UpdateRow(missing) error = %v, want ErrRowNotFound", err)
	}

	if err := a.DeleteRow(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}
	count, err = a.RowCount(ctx)
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("RowCount() after delete = %v, want 2", count)
	}
}

func testCellUpdates(t *testing.T, a datagrid.Adapter) {
	ctx := context.Background()
	seed(t, a, 2)

	if err := a.UpdateCell(ctx, 0, "score", celltype.Scalar(99.0)); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}

	page, err := a.Fetch(ctx, 0, 0, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if v, _ := page.Rows[0].Cell("score"); !v.Equal(celltype.Scalar(99.0)) {
		t.Errorf("Fetch() score = %v, want 99", v)
	}

	if err := a.UpdateCell(ctx, 10, "score", celltype.Scalar(1.0)); err == nil {
		t.Error("UpdateCell(out of range) error = nil, want error")
	}
}

func testBulkOperations(t *testing.T, a datagrid.Adapter) {
	ctx := context.Background()
	ids := seed(t, a, 4)

	if err := a.BulkUpdateCells(ctx, []datagrid.CellUpdate{
		{RowPosition: 0, ColumnID: "score", Value: celltype.Scalar(100.0)},
		{RowPosition: 1, ColumnID: "score", Value: celltype.Scalar(200.0)},
	}); err != nil {
		t.Fatalf("BulkUpdateCells() error = %v", err)
	}

	rows, err := a.BulkUpdateRows(ctx, []datagrid.RowUpdate{
		{RowID: ids[2], Patch: datagrid.RowPatch{Cells: map[string]celltype.Value{"name": celltype.Scalar("bulk")}}},
	})
	if err != nil {
		t.Fatalf("BulkUpdateRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("BulkUpdateRows() returned %d rows, want 1", len(rows))
	}

	if err := a.BulkDeleteRows(ctx, ids[:2]); err != nil {
		t.Fatalf("BulkDeleteRows() error = %v", err)
	}
	count, err := a.RowCount(ctx)
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("RowCount() after bulk delete = %v, want 2", count)
	}
}

func testSortAndFetch(t *testing.T, a datagrid.Adapter) {
	ctx := context.Background()
	seed(t, a, 3)

	state := datagrid.SortState{{ColumnID: "score", Direction: datagrid.Descending}}
	if err := a.Sort(ctx, state); err != nil {
		t.Fatalf("Sort() error = %v", err)
	}

	page, err := a.Fetch(ctx, 0, 0, state)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(page.Rows) != 3 {
		t.Fatalf("Fetch() returned %d rows, want 3", len(page.Rows))
	}
	prev := 1e18
	for i, r := range page.Rows {
		v, _ := r.Cell("score")
		f, ok := v.AsFloat()
		if !ok {
			t.Fatalf("row %d score is not numeric: %v", i, v)
		}
		if f > prev {
			t.Errorf("Fetch() row %d score %v out of descending order", i, f)
		}
		prev = f
	}
}

func testPaging(t *testing.T, a datagrid.Adapter) {
	ctx := context.Background()
	seed(t, a, 5)

	page, err := a.Fetch(ctx, 1, 2, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if page.TotalRows != 5 {
		t.Errorf("Fetch() TotalRows = %v, want 5", page.TotalRows)
	}
	if len(page.Rows) != 2 {
		t.Errorf("Fetch() returned %d rows, want 2", len(page.Rows))
	}

	last, err := a.Fetch(ctx, 2, 2, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(last.Rows) != 1 {
		t.Errorf("Fetch() last page returned %d rows, want 1", len(last.Rows))
	}
}
