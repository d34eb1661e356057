package datagrid_test

import (
	"testing"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/celltype"
)

// scoreAt reads the score cell at an external position, returning the raw
// value so missing cells surface as null.
func scoreAt(t *testing.T, s *datagrid.Store, pos int) celltype.Value {
	t.Helper()
	v, _, err := s.CellValue(pos, "score")
	if err != nil {
		t.Fatalf("CellValue(%d) error = %v", pos, err)
	}
	return v
}

func TestSort_IdentityWhenUnsorted(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(3.0)})
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(1.0)})

	perm := s.Permutation()
	for i, p := range perm {
		if p != i {
			t.Errorf("Permutation()[%d] = %v, want identity", i, p)
		}
	}
	if got := scoreAt(t, s, 0); !got.Equal(celltype.Scalar(3.0)) {
		t.Errorf("position 0 = %v, want storage order", got)
	}
}

func TestSort_Ascending(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(5.0)})
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(1.0)})
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(9.0)})

	s.Sort(datagrid.SortState{{ColumnID: "score", Direction: datagrid.Ascending}})

	want := []float64{1, 5, 9}
	for i, w := range want {
		if got := scoreAt(t, s, i); !got.Equal(celltype.Scalar(w)) {
			t.Errorf("position %d = %v, want %v", i, got, w)
		}
	}
}

func TestSort_MissingValuesLastBothDirections(t *testing.T) {
	build := func(t *testing.T) *datagrid.Store {
		s := newTestStore(t)
		addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(5.0)})
		addRow(t, s, nil) // no score cell
		addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(9.0)})
		return s
	}

	t.Run("ascending", func(t *testing.T) {
		s := build(t)
		s.Sort(datagrid.SortState{{ColumnID: "score", Direction: datagrid.Ascending}})
		if got := scoreAt(t, s, 0); !got.Equal(celltype.Scalar(5.0)) {
			t.Errorf("position 0 = %v, want 5", got)
		}
		if got := scoreAt(t, s, 2); !got.IsNull() {
			t.Errorf("position 2 = %v, want missing last", got)
		}
	})

	t.Run("descending", func(t *testing.T) {
		s := build(t)
		s.Sort(datagrid.SortState{{ColumnID: "score", Direction: datagrid.Descending}})
		if got := scoreAt(t, s, 0); !got.Equal(celltype.Scalar(9.0)) {
			t.Errorf("position 0 = %v, want 9", got)
		}
		if got := scoreAt(t, s, 1); !got.Equal(celltype.Scalar(5.0)) {
			t.Errorf("position 1 = %v, want 5", got)
		}
		// Direction never pulls missing values to the front.
		if got := scoreAt(t, s, 2); !got.IsNull() {
			t.Errorf("position 2 = %v, want missing last", got)
		}
	})
}

func TestSort_MultiKey(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, map[string]celltype.Value{"name": celltype.Scalar("b"), "score": celltype.Scalar(1.0)})
	addRow(t, s, map[string]celltype.Value{"name": celltype.Scalar("a"), "score": celltype.Scalar(2.0)})
	addRow(t, s, map[string]celltype.Value{"name": celltype.Scalar("a"), "score": celltype.Scalar(1.0)})

	s.Sort(datagrid.SortState{
		{ColumnID: "name", Direction: datagrid.Ascending},
		{ColumnID: "score", Direction: datagrid.Descending},
	})

	wantScores := []float64{2, 1, 1}
	for i, w := range wantScores {
		if got := scoreAt(t, s, i); !got.Equal(celltype.Scalar(w)) {
			t.Errorf("position %d score = %v, want %v", i, got, w)
		}
	}
	r, err := s.RowAt(2)
	if err != nil {
		t.Fatalf("RowAt(2) error = %v", err)
	}
	if v, _ := r.Cell("name"); !v.Equal(celltype.Scalar("b")) {
		t.Errorf("position 2 name = %v, want b", v)
	}
}

func TestSort_StableForEqualKeys(t *testing.T) {
	s := newTestStore(t)
	first := addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(1.0), "name": celltype.Scalar("x")})
	second := addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(1.0), "name": celltype.Scalar("y")})

	s.Sort(datagrid.SortState{{ColumnID: "score", Direction: datagrid.Ascending}})

	r0, _ := s.RowAt(0)
	r1, _ := s.RowAt(1)
	if r0.ID != first || r1.ID != second {
		t.Errorf("equal keys reordered: [%v %v], want [%v %v]", r0.ID, r1.ID, first, second)
	}
}

func TestSort_ReappliesAfterRowAdd(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(5.0)})
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(9.0)})

	s.Sort(datagrid.SortState{{ColumnID: "score", Direction: datagrid.Ascending}})

	// A structural change invalidates the permutation; the next access
	// must see the new row in sorted position without an explicit re-sort.
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(7.0)})

	want := []float64{5, 7, 9}
	for i, w := range want {
		if got := scoreAt(t, s, i); !got.Equal(celltype.Scalar(w)) {
			t.Errorf("position %d = %v, want %v", i, got, w)
		}
	}
}

func TestSort_ClearRestoresIdentity(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(5.0)})
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(1.0)})

	s.Sort(datagrid.SortState{{ColumnID: "score", Direction: datagrid.Ascending}})
	s.Sort(nil)

	if state := s.SortState(); len(state) != 0 {
		t.Errorf("SortState() = %v, want empty", state)
	}
	if got := scoreAt(t, s, 0); !got.Equal(celltype.Scalar(5.0)) {
		t.Errorf("position 0 = %v, want storage order restored", got)
	}
}

func TestSort_Idempotent(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(5.0)})
	addRow(t, s, map[string]celltype.Value{"score": celltype.Scalar(1.0)})

	state := datagrid.SortState{{ColumnID: "score", Direction: datagrid.Ascending}}
	s.Sort(state)
	first := s.Permutation()
	s.Sort(state)
	second := s.Permutation()

	if len(first) != len(second) {
		t.Fatalf("permutation length changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Permutation()[%d] changed on re-sort: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestSort_TypeChangeInvalidates(t *testing.T) {
	s := newTestStore(t)
	addRow(t, s, map[string]celltype.Value{"name": celltype.Scalar(10.0)})
	addRow(t, s, map[string]celltype.Value{"name": celltype.Scalar(9.0)})

	s.Sort(datagrid.SortState{{ColumnID: "name", Direction: datagrid.Ascending}})

	// Text order compares renderings: "10" < "9". After retyping the
	// column to number the same sort must re-rank numerically.
	r0, _ := s.RowAt(0)
	if v, _ := r0.Cell("name"); !v.Equal(celltype.Scalar(10.0)) {
		t.Fatalf("text order position 0 = %v, want 10", v)
	}

	numeric := celltype.TypeNumber
	if _, err := s.UpdateColumn("name", datagrid.ColumnPatch{Type: &numeric}); err != nil {
		t.Fatalf("UpdateColumn() error = %v", err)
	}

	r0, _ = s.RowAt(0)
	if v, _ := r0.Cell("name"); !v.Equal(celltype.Scalar(9.0)) {
		t.Errorf("numeric order position 0 = %v, want 9", v)
	}
}
