package simulated_test

import (
	"context"
	"errors"
	"testing"
	"time"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/adapters/adaptertest"
	"github.com/tablekit/go-datagrid/adapters/memory"
	"github.com/tablekit/go-datagrid/adapters/simulated"
)

func TestAdapter_Contract(t *testing.T) {
	// With no faults configured the wrapper must be transparent.
	adaptertest.Run(t, func(t *testing.T) datagrid.Adapter {
		return simulated.New(memory.New(nil), nil)
	})
}

func TestAdapter_InjectedFailure(t *testing.T) {
	adapter := simulated.New(memory.New(nil), &simulated.Config{FailureRate: 1, Seed: 1})
	ctx := context.Background()

	if _, err := adapter.Fetch(ctx, 0, 0, nil); !errors.Is(err, simulated.ErrInjected) {
		t.Errorf("Fetch() error = %v, want ErrInjected", err)
	}
	if _, err := adapter.AddRow(ctx, datagrid.Row{}); !errors.Is(err, simulated.ErrInjected) {
		t.Errorf("AddRow() error = %v, want ErrInjected", err)
	}
}

func TestAdapter_Outage(t *testing.T) {
	adapter := simulated.New(memory.New(nil), &simulated.Config{Seed: 1})
	ctx := context.Background()

	if _, err := adapter.RowCount(ctx); err != nil {
		t.Fatalf("RowCount() before outage error = %v", err)
	}

	adapter.FailFor(time.Hour)
	if _, err := adapter.RowCount(ctx); !errors.Is(err, simulated.ErrInjected) {
		t.Errorf("RowCount() during outage error = %v, want ErrInjected", err)
	}

	adapter.FailFor(0)
	if _, err := adapter.RowCount(ctx); err != nil {
		t.Errorf("RowCount() after outage error = %v, want nil", err)
	}
}

func TestAdapter_LatencyHonorsContext(t *testing.T) {
	adapter := simulated.New(memory.New(nil), &simulated.Config{Latency: time.Minute, Seed: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := adapter.RowCount(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RowCount() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled call took %v, want immediate return", elapsed)
	}
}

func TestAdapter_ReproducibleFailures(t *testing.T) {
	pattern := func() []bool {
		adapter := simulated.New(memory.New(nil), &simulated.Config{FailureRate: 0.5, Seed: 42})
		ctx := context.Background()
		out := make([]bool, 20)
		for i := range out {
			_, err := adapter.RowCount(ctx)
			out[i] = err != nil
		}
		return out
	}

	a, b := pattern(), pattern()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("failure pattern diverged at call %d with identical seeds", i)
		}
	}
}
