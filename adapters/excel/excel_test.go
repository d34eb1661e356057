package excel_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/adapters/excel"
	"github.com/tablekit/go-datagrid/celltype"
)

func testConfig(t *testing.T) *excel.Config {
	t.Helper()
	return &excel.Config{
		FilePath:  filepath.Join(t.TempDir(), "grid.xlsx"),
		SheetName: "data",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  excel.Config
		wantErr error
	}{
		{"valid", excel.Config{FilePath: "a.xlsx", SheetName: "data"}, nil},
		{"missing file path", excel.Config{SheetName: "data"}, excel.ErrMissingFilePath},
		{"missing sheet name", excel.Config{FilePath: "a.xlsx"}, excel.ErrMissingSheetName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAdapter_MissingFileIsEmptyGrid(t *testing.T) {
	adapter, err := excel.New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	count, err := adapter.RowCount(context.Background())
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("RowCount() = %v, want 0 for missing file", count)
	}
}

func TestAdapter_InvalidSheetNameSurfacesError(t *testing.T) {
	config := testConfig(t)
	ctx := context.Background()

	first, err := excel.New(config, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := first.AddColumn(ctx, datagrid.Column{ID: "n", Type: celltype.TypeNumber}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}

	// Reopening the workbook under a sheet name excelize rejects must fail
	// loudly, not read as an empty grid.
	bad, err := excel.New(&excel.Config{FilePath: config.FilePath, SheetName: "bad[data]"}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := bad.RowCount(ctx); err == nil {
		t.Error("RowCount() error = nil, want sheet name error")
	}
}

func TestAdapter_RoundTrip(t *testing.T) {
	config := testConfig(t)
	ctx := context.Background()

	first, err := excel.New(config, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	min := 0.0
	columns := []datagrid.Column{
		{ID: "title", Title: "Title", Type: celltype.TypeText, Width: 200},
		{ID: "amount", Title: "Amount", Type: celltype.TypeCurrency, Options: celltype.Options{Min: &min, Currency: "€"}},
		{ID: "due", Title: "Due", Type: celltype.TypeDate, Hidden: true},
		{ID: "done", Title: "Done", Type: celltype.TypeCheckbox, Pinned: datagrid.PinRight},
	}
	for _, c := range columns {
		if _, err := first.AddColumn(ctx, c); err != nil {
			t.Fatalf("AddColumn(%s) error = %v", c.ID, err)
		}
	}

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	row, err := first.AddRow(ctx, datagrid.Row{Cells: map[string]celltype.Value{
		"title":  celltype.Scalar("Invoice"),
		"amount": celltype.Scalar(1250.0),
		"due":    celltype.Scalar(due),
		"done":   celltype.Scalar(true),
	}})
	if err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}

	// A fresh adapter over the same workbook must see the identical
	// table, with identifiers, typed values and column metadata intact.
	second, err := excel.New(config, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	page, err := second.Fetch(ctx, 0, 0, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(page.Columns) != len(columns) {
		t.Fatalf("Fetch() columns = %d, want %d", len(page.Columns), len(columns))
	}
	byID := map[string]*datagrid.Column{}
	for _, c := range page.Columns {
		byID[c.ID] = c
	}
	if c := byID["title"]; c.Width != 200 || c.Title != "Title" {
		t.Errorf("title column = %+v, want width 200", c)
	}
	if c := byID["amount"]; c.Type != celltype.TypeCurrency || c.Options.Currency != "€" || c.Options.Min == nil {
		t.Errorf("amount column lost metadata: %+v", c)
	}
	if c := byID["due"]; !c.Hidden {
		t.Error("due column lost hidden flag")
	}
	if c := byID["done"]; c.Pinned != datagrid.PinRight {
		t.Errorf("done column pinned = %v, want right", c.Pinned)
	}

	if len(page.Rows) != 1 {
		t.Fatalf("Fetch() rows = %d, want 1", len(page.Rows))
	}
	got := page.Rows[0]
	if got.ID != row.ID {
		t.Errorf("row identifier = %v, want %v", got.ID, row.ID)
	}
	if v, _ := got.Cell("title"); !v.Equal(celltype.Scalar("Invoice")) {
		t.Errorf("title = %v, want Invoice", v)
	}
	if v, _ := got.Cell("amount"); !v.Equal(celltype.Scalar(1250.0)) {
		t.Errorf("amount = %v, want 1250", v)
	}
	if v, _ := got.Cell("due"); !v.Equal(celltype.Scalar(due)) {
		t.Errorf("due = %v, want %v", v, due)
	}
	if v, _ := got.Cell("done"); !v.Equal(celltype.Scalar(true)) {
		t.Errorf("done = %v, want true", v)
	}
}

func TestAdapter_MutationsPersist(t *testing.T) {
	config := testConfig(t)
	ctx := context.Background()

	first, err := excel.New(config, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := first.AddColumn(ctx, datagrid.Column{ID: "n", Type: celltype.TypeNumber}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	row, err := first.AddRow(ctx, datagrid.Row{Cells: map[string]celltype.Value{"n": celltype.Scalar(1.0)}})
	if err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}
	if err := first.UpdateCell(ctx, 0, "n", celltype.Scalar(7.0)); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	if err := first.DeleteRow(ctx, row.ID); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}

	second, err := excel.New(config, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	count, err := second.RowCount(ctx)
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("RowCount() after reopen = %v, want 0", count)
	}
}
