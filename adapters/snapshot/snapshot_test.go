package snapshot_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/adapters/adaptertest"
	"github.com/tablekit/go-datagrid/adapters/snapshot"
	"github.com/tablekit/go-datagrid/celltype"
)

// fakeBackend keeps the table in memory and counts Load/Save calls.
type fakeBackend struct {
	mu      sync.Mutex
	columns []*datagrid.Column
	rows    []*datagrid.Row
	loads   int
	saves   int
	loadErr error
}

func (b *fakeBackend) Load(context.Context) ([]*datagrid.Column, []*datagrid.Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	if b.loadErr != nil {
		return nil, nil, b.loadErr
	}
	return b.columns, b.rows, nil
}

func (b *fakeBackend) Save(_ context.Context, columns []*datagrid.Column, rows []*datagrid.Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves++
	b.columns = columns
	b.rows = rows
	return nil
}

func (b *fakeBackend) counts() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads, b.saves
}

func TestAdapter_Contract(t *testing.T) {
	adaptertest.Run(t, func(t *testing.T) datagrid.Adapter {
		return snapshot.New(&fakeBackend{}, nil)
	})
}

func TestAdapter_LazyLoadOnce(t *testing.T) {
	backend := &fakeBackend{
		columns: []*datagrid.Column{{ID: "name", Type: celltype.TypeText}},
		rows: []*datagrid.Row{
			{ID: "r1", Cells: map[string]celltype.Value{"name": celltype.Scalar("a")}},
		},
	}
	adapter := snapshot.New(backend, nil)
	ctx := context.Background()

	if loads, _ := backend.counts(); loads != 0 {
		t.Fatalf("Load called %d times before first use, want 0", loads)
	}

	count, err := adapter.RowCount(ctx)
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("RowCount() = %v, want 1", count)
	}

	if _, err := adapter.Fetch(ctx, 0, 0, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if loads, _ := backend.counts(); loads != 1 {
		t.Errorf("Load called %d times, want exactly 1", loads)
	}
}

func TestAdapter_FlushAfterMutation(t *testing.T) {
	backend := &fakeBackend{}
	adapter := snapshot.New(backend, nil)
	ctx := context.Background()

	if _, err := adapter.AddColumn(ctx, datagrid.Column{ID: "n", Type: celltype.TypeNumber}); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if _, err := adapter.AddRow(ctx, datagrid.Row{Cells: map[string]celltype.Value{"n": celltype.Scalar(1.0)}}); err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}
	if err := adapter.UpdateCell(ctx, 0, "n", celltype.Scalar(2.0)); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}

	if _, saves := backend.counts(); saves != 3 {
		t.Errorf("Save called %d times, want one per mutation (3)", saves)
	}

	// The backend holds the current table, not the pre-mutation one.
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.rows) != 1 {
		t.Fatalf("backend rows = %d, want 1", len(backend.rows))
	}
	if v, _ := backend.rows[0].Cell("n"); !v.Equal(celltype.Scalar(2.0)) {
		t.Errorf("backend cell = %v, want 2", v)
	}
}

func TestAdapter_ReadsDoNotFlush(t *testing.T) {
	backend := &fakeBackend{
		columns: []*datagrid.Column{{ID: "n", Type: celltype.TypeNumber}},
		rows: []*datagrid.Row{
			{ID: "r1", Cells: map[string]celltype.Value{"n": celltype.Scalar(2.0)}},
			{ID: "r2", Cells: map[string]celltype.Value{"n": celltype.Scalar(1.0)}},
		},
	}
	adapter := snapshot.New(backend, nil)
	ctx := context.Background()

	if _, err := adapter.Fetch(ctx, 0, 0, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// Sorting is a view concern; the stored table keeps storage order.
	if err := adapter.Sort(ctx, datagrid.SortState{{ColumnID: "n", Direction: datagrid.Ascending}}); err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	if _, err := adapter.ColumnSchema(ctx); err != nil {
		t.Fatalf("ColumnSchema() error = %v", err)
	}

	if _, saves := backend.counts(); saves != 0 {
		t.Errorf("Save called %d times by read-only operations, want 0", saves)
	}
}

func TestAdapter_LoadFailurePropagates(t *testing.T) {
	backendErr := errors.New("storage unreachable")
	adapter := snapshot.New(&fakeBackend{loadErr: backendErr}, nil)

	if _, err := adapter.RowCount(context.Background()); !errors.Is(err, backendErr) {
		t.Errorf("RowCount() error = %v, want wrapped backend failure", err)
	}
}
