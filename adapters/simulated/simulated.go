// Package simulated wraps another adapter with configurable latency and
// fault injection. It stands in for a remote store in demos and exercises
// the optimistic rollback path under controlled failure conditions.
package simulated

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/celltype"
)

// ErrInjected is the failure returned by injected faults and outages.
var ErrInjected = errors.New("simulated backend failure")

// Config controls the injected behavior.
type Config struct {
	// Latency is awaited before every operation delegates.
	Latency time.Duration `yaml:"latency"`
	// FailureRate is the fraction of calls that fail, in [0, 1].
	FailureRate float64 `yaml:"failure_rate"`
	// Seed makes the failure pattern reproducible; 0 uses the clock.
	Seed int64 `yaml:"seed"`
}

// Adapter delays, sometimes fails, and otherwise delegates to the wrapped
// adapter.
type Adapter struct {
	inner datagrid.Adapter

	mu          sync.Mutex
	latency     time.Duration
	failureRate float64
	outageUntil time.Time
	rng         *rand.Rand
}

// New wraps inner with the given simulation config.
func New(inner datagrid.Adapter, cfg *Config) *Adapter {
	if cfg == nil {
		cfg = &Config{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Adapter{
		inner:       inner,
		latency:     cfg.Latency,
		failureRate: cfg.FailureRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// SetLatency changes the per-operation delay.
func (a *Adapter) SetLatency(d time.Duration) {
	a.mu.Lock()
	a.latency = d
	a.mu.Unlock()
}

// SetFailureRate changes the fraction of failing calls.
func (a *Adapter) SetFailureRate(rate float64) {
	a.mu.Lock()
	a.failureRate = rate
	a.mu.Unlock()
}

// FailFor simulates a total outage: every call fails until d elapses.
func (a *Adapter) FailFor(d time.Duration) {
	a.mu.Lock()
	a.outageUntil = time.Now().Add(d)
	a.mu.Unlock()
}

// before awaits the configured latency and rolls for an injected fault.
func (a *Adapter) before(ctx context.Context) error {
	a.mu.Lock()
	latency := a.latency
	outage := time.Now().Before(a.outageUntil)
	fail := outage || (a.failureRate > 0 && a.rng.Float64() < a.failureRate)
	a.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return ErrInjected
	}
	return nil
}

func (a *Adapter) Fetch(ctx context.Context, page, pageSize int, sort datagrid.SortState) (*datagrid.Page, error) {
	if err := a.before(ctx); err != nil {
		return nil, err
	}
	return a.inner.Fetch(ctx, page, pageSize, sort)
}

func (a *Adapter) AddRow(ctx context.Context, row datagrid.Row) (*datagrid.Row, error) {
	if err := a.before(ctx); err != nil {
		return nil, err
	}
	return a.inner.AddRow(ctx, row)
}

func (a *Adapter) UpdateRow(ctx context.Context, id string, patch datagrid.RowPatch) (*datagrid.Row, error) {
	if err := a.before(ctx); err != nil {
		return nil, err
	}
	return a.inner.UpdateRow(ctx, id, patch)
}

func (a *Adapter) DeleteRow(ctx context.Context, id string) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.DeleteRow(ctx, id)
}

func (a *Adapter) BulkUpdateRows(ctx context.Context, updates []datagrid.RowUpdate) ([]*datagrid.Row, error) {
	if err := a.before(ctx); err != nil {
		return nil, err
	}
	return a.inner.BulkUpdateRows(ctx, updates)
}

func (a *Adapter) BulkDeleteRows(ctx context.Context, ids []string) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.BulkDeleteRows(ctx, ids)
}

func (a *Adapter) AddColumn(ctx context.Context, col datagrid.Column) (*datagrid.Column, error) {
	if err := a.before(ctx); err != nil {
		return nil, err
	}
	return a.inner.AddColumn(ctx, col)
}

func (a *Adapter) UpdateColumn(ctx context.Context, id string, patch datagrid.ColumnPatch) (*datagrid.Column, error) {
	if err := a.before(ctx); err != nil {
		return nil, err
	}
	return a.inner.UpdateColumn(ctx, id, patch)
}

func (a *Adapter) DeleteColumn(ctx context.Context, id string) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.DeleteColumn(ctx, id)
}

func (a *Adapter) ReorderColumns(ctx context.Context, ids []string) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.ReorderColumns(ctx, ids)
}

func (a *Adapter) ResizeColumn(ctx context.Context, id string, width int) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.ResizeColumn(ctx, id, width)
}

func (a *Adapter) HideColumn(ctx context.Context, id string, hidden bool) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.HideColumn(ctx, id, hidden)
}

func (a *Adapter) PinColumn(ctx context.Context, id string, side datagrid.PinSide) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.PinColumn(ctx, id, side)
}

func (a *Adapter) UpdateCell(ctx context.Context, rowPos int, columnID string, v celltype.Value) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.UpdateCell(ctx, rowPos, columnID, v)
}

func (a *Adapter) BulkUpdateCells(ctx context.Context, updates []datagrid.CellUpdate) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.BulkUpdateCells(ctx, updates)
}

func (a *Adapter) Sort(ctx context.Context, state datagrid.SortState) error {
	if err := a.before(ctx); err != nil {
		return err
	}
	return a.inner.Sort(ctx, state)
}

func (a *Adapter) ColumnSchema(ctx context.Context) ([]*datagrid.Column, error) {
	if err := a.before(ctx); err != nil {
		return nil, err
	}
	return a.inner.ColumnSchema(ctx)
}

func (a *Adapter) RowCount(ctx context.Context) (int, error) {
	if err := a.before(ctx); err != nil {
		return 0, err
	}
	return a.inner.RowCount(ctx)
}
