package datagrid_test

import (
	"errors"
	"testing"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/celltype"
)

func newTestStore(t *testing.T) *datagrid.Store {
	t.Helper()
	s := datagrid.NewStore(nil)
	cols := []datagrid.Column{
		{ID: "name", Title: "Name", Type: celltype.TypeText},
		{ID: "score", Title: "Score", Type: celltype.TypeNumber},
		{ID: "done", Title: "Done", Type: celltype.TypeCheckbox},
	}
	for _, c := range cols {
		if _, err := s.AddColumn(c); err != nil {
			t.Fatalf("AddColumn(%s) error = %v", c.ID, err)
		}
	}
	return s
}

func addRow(t *testing.T, s *datagrid.Store, cells map[string]celltype.Value) string {
	t.Helper()
	r, err := s.AddRow(datagrid.Row{Cells: cells})
	if err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}
	return r.ID
}

func TestStore_Columns(t *testing.T) {
	s := newTestStore(t)

	t.Run("assigns identifier and default type", func(t *testing.T) {
		c, err := s.AddColumn(datagrid.Column{Title: "Notes"})
		if err != nil {
			t.Fatalf("AddColumn() error = %v", err)
		}
		if c.ID == "" {
			t.Error("AddColumn() did not assign an identifier")
		}
		if c.Type != celltype.TypeText {
			t.Errorf("AddColumn() type = %v, want text", c.Type)
		}
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		if _, err := s.AddColumn(datagrid.Column{ID: "name"}); !errors.Is(err, datagrid.ErrDuplicateID) {
			t.Errorf("AddColumn(name) error = %v, want ErrDuplicateID", err)
		}
	})

	t.Run("update patch", func(t *testing.T) {
		width := 180
		c, err := s.UpdateColumn("score", datagrid.ColumnPatch{Width: &width})
		if err != nil {
			t.Fatalf("UpdateColumn() error = %v", err)
		}
		if c.Width != 180 {
			t.Errorf("UpdateColumn() width = %v, want 180", c.Width)
		}
		if c.Title != "Score" {
			t.Errorf("UpdateColumn() clobbered title: %v", c.Title)
		}
	})

	t.Run("reorder", func(t *testing.T) {
		cols := s.Columns()
		ids := make([]string, len(cols))
		for i, c := range cols {
			ids[len(cols)-1-i] = c.ID
		}
		if err := s.ReorderColumns(ids); err != nil {
			t.Fatalf("ReorderColumns() error = %v", err)
		}
		if got := s.Columns()[0].ID; got != ids[0] {
			t.Errorf("ReorderColumns() first = %v, want %v", got, ids[0])
		}
	})

	t.Run("reorder with wrong set", func(t *testing.T) {
		if err := s.ReorderColumns([]string{"name"}); err == nil {
			t.Error("ReorderColumns(partial) error = nil, want error")
		}
	})
}

func TestStore_DeleteColumnPurgesCells(t *testing.T) {
	s := newTestStore(t)
	id := addRow(t, s, map[string]celltype.Value{
		"name":  celltype.Scalar("a"),
		"score": celltype.Scalar(1.0),
	})

	if err := s.DeleteColumn("score"); err != nil {
		t.Fatalf("DeleteColumn() error = %v", err)
	}

	r, err := s.RowByID(id)
	if err != nil {
		t.Fatalf("RowByID() error = %v", err)
	}
	if _, ok := r.Cell("score"); ok {
		t.Error("deleted column still has a cell entry")
	}
	if _, ok := r.Cell("name"); !ok {
		t.Error("unrelated cell was purged")
	}
}

func TestStore_DeleteColumnDropsSortKey(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(2.0)})
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(1.0)})

	s.Sort(datagrid.SortState{
		{ColumnID: "score", Direction: datagrid.Ascending},
		{ColumnID: "name", Direction: datagrid.Ascending},
	})
	if err := s.DeleteColumn("score"); err != nil {
		t.Fatalf("DeleteColumn() error = %v", err)
	}

	state := s.SortState()
	if len(state) != 1 || state[0].ColumnID != "name" {
		t.Errorf("SortState() after delete = %v, want only name key", state)
	}
}

func TestStore_Rows(t *testing.T) {
	s := newTestStore(t)
	id := addRow(t, s, map[string]celltype.Value{"name": celltype.Scalar("first")})

	t.Run("duplicate identifier", func(t *testing.T) {
		if _, err := s.AddRow(datagrid.Row{ID: id}); !errors.Is(err, datagrid.ErrDuplicateID) {
			t.Errorf("AddRow(dup) error = %v, want ErrDuplicateID", err)
		}
	})

	t.Run("update patch with removal", func(t *testing.T) {
		height := 44
		r, err := s.UpdateRow(id, datagrid.RowPatch{
			Height: &height,
			Cells:  map[string]celltype.Value{"score": celltype.Scalar(7.0)},
			Remove: []string{"name"},
		})
		if err != nil {
			t.Fatalf("UpdateRow() error = %v", err)
		}
		if r.Height != 44 {
			t.Errorf("UpdateRow() height = %v, want 44", r.Height)
		}
		if _, ok := r.Cell("name"); ok {
			t.Error("UpdateRow() did not remove the name cell")
		}
		if v, _ := r.Cell("score"); !v.Equal(celltype.Scalar(7.0)) {
			t.Errorf("UpdateRow() score = %v, want 7", v)
		}
	})

	t.Run("delete reindexes", func(t *testing.T) {
		second := addRow(t, s, nil)
		if err := s.DeleteRow(id); err != nil {
			t.Fatalf("DeleteRow() error = %v", err)
		}
		r, err := s.RowAt(0)
		if err != nil {
			t.Fatalf("RowAt(0) error = %v", err)
		}
		if r.ID != second {
			t.Errorf("RowAt(0) = %v, want %v", r.ID, second)
		}
		if _, err := s.RowByID(id); !errors.Is(err, datagrid.ErrRowNotFound) {
			t.Errorf("RowByID(deleted) error = %v, want ErrRowNotFound", err)
		}
	})

	t.Run("position out of range", func(t *testing.T) {
		if _, err := s.RowAt(99); !errors.Is(err, datagrid.ErrPositionOutOfRange) {
			t.Errorf("RowAt(99) error = %v, want ErrPositionOutOfRange", err)
		}
	})
}

func TestStore_SetCellValue(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, nil)

	t.Run("valid value", func(t *testing.T) {
		if err := s.SetCellValue(0, "score", celltype.Scalar(12.5)); err != nil {
			t.Fatalf("SetCellValue() error = %v", err)
		}
		v, ok, err := s.CellValue(0, "score")
		if err != nil || !ok {
			t.Fatalf("CellValue() = %v, %v, %v", v, ok, err)
		}
		if !v.Equal(celltype.Scalar(12.5)) {
			t.Errorf("CellValue() = %v, want 12.5", v)
		}
	})

	t.Run("invalid value is stored anyway", func(t *testing.T) {
		err := s.SetCellValue(0, "score", celltype.Scalar("not a number"))
		var verr *datagrid.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("SetCellValue() error = %v, want *ValidationError", err)
		}
		if verr.ColumnID != "score" {
			t.Errorf("ValidationError column = %v, want score", verr.ColumnID)
		}
		// The raw input must remain visible.
		v, ok, _ := s.CellValue(0, "score")
		if !ok || !v.Equal(celltype.Scalar("not a number")) {
			t.Errorf("CellValue() after invalid write = %v, want raw input", v)
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		err := s.SetCellValue(0, "ghost", celltype.Scalar(1.0))
		if !errors.Is(err, datagrid.ErrColumnNotFound) {
			t.Errorf("SetCellValue(ghost) error = %v, want ErrColumnNotFound", err)
		}
	})
}

func TestStore_BulkSetCellValues(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, nil)
	addRow(t, s, nil)

	failures := s.BulkSetCellValues([]datagrid.CellUpdate{
		{RowPosition: 0, ColumnID: "score", Value: celltype.Scalar(1.0)},
		{RowPosition: 1, ColumnID: "score", Value: celltype.Scalar("bad")},
		{RowPosition: 5, ColumnID: "score", Value: celltype.Scalar(3.0)},
		{RowPosition: 0, ColumnID: "ghost", Value: celltype.Scalar(4.0)},
	})

	if len(failures) != 3 {
		t.Fatalf("BulkSetCellValues() failures = %d, want 3", len(failures))
	}

	// The valid update and the validation-rejected one both landed.
	if v, ok, _ := s.CellValue(0, "score"); !ok || !v.Equal(celltype.Scalar(1.0)) {
		t.Errorf("row 0 score = %v, want 1", v)
	}
	if v, ok, _ := s.CellValue(1, "score"); !ok || !v.Equal(celltype.Scalar("bad")) {
		t.Errorf("row 1 score = %v, want raw bad input", v)
	}

	var validation, positional, column int
	for _, f := range failures {
		var verr *datagrid.ValidationError
		switch {
		case errors.As(f.Err, &verr):
			validation++
		case errors.Is(f.Err, datagrid.ErrPositionOutOfRange):
			positional++
		case errors.Is(f.Err, datagrid.ErrColumnNotFound):
			column++
		}
	}
	if validation != 1 || positional != 1 || column != 1 {
		t.Errorf("failure kinds = %d/%d/%d, want 1/1/1", validation, positional, column)
	}
}

func TestStore_FilterRows(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, map[string]celltype.Value{"name": celltype.Scalar("Alpha Report")})
	addRow(t, s, map[string]celltype.Value{"name": celltype.Scalar("beta summary")})
	addRow(t, s, map[string]celltype.Value{"name": celltype.Scalar("ALPHA draft")})

	rows, err := s.FilterRows("name", "alpha")
	if err != nil {
		t.Fatalf("FilterRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("FilterRows(alpha) = %d rows, want 2", len(rows))
	}

	if _, err := s.FilterRows("ghost", "x"); !errors.Is(err, datagrid.ErrColumnNotFound) {
		t.Errorf("FilterRows(ghost) error = %v, want ErrColumnNotFound", err)
	}
}

func TestStore_ChangeEvents(t *testing.T) {
	s := newTestStore(t)

	var events []datagrid.Event
	s.OnChange(func(e datagrid.Event) { events = append(events, e) })

	id := addRow(t, s, nil)
	if err := s.SetCellValue(0, "name", celltype.Scalar("x")); err != nil {
		t.Fatalf("SetCellValue() error = %v", err)
	}
	s.Sort(datagrid.SortState{{ColumnID: "name"}})
	if err := s.DeleteRow(id); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}

	want := []datagrid.EventKind{
		datagrid.EventRowsChanged,
		datagrid.EventCellChanged,
		datagrid.EventSortChanged,
		datagrid.EventRowsChanged,
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Kind != want[i] {
			t.Errorf("event %d kind = %v, want %v", i, e.Kind, want[i])
		}
	}
	if events[1].RowID != id || events[1].ColumnID != "name" {
		t.Errorf("cell event scope = %v/%v, want %v/name", events[1].RowID, events[1].ColumnID, id)
	}
}
