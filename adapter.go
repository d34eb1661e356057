package datagrid

import (
	"context"

	"github.com/tablekit/go-datagrid/celltype"
)

// Page is one window of fetched grid data.
type Page struct {
	Columns   []*Column `json:"columns"`
	Rows      []*Row    `json:"rows"`
	TotalRows int       `json:"totalRows"`
	Page      int       `json:"page"`
	PageSize  int       `json:"pageSize"`
}

// RowUpdate addresses one row of a bulk update by identifier.
type RowUpdate struct {
	RowID string   `json:"rowId"`
	Patch RowPatch `json:"patch"`
}

// Adapter is the storage contract every backing store implements. The
// layers above are adapter-agnostic: an in-memory grid, a fault-injecting
// simulator, a spreadsheet file and a remote row/column/cell service all
// expose exactly this surface.
//
// All operations honor ctx for cancellation where the backend suspends;
// in-memory implementations complete synchronously and may ignore it.
type Adapter interface {
	// Fetch returns one page of data. page is zero-based; a pageSize of 0
	// selects the adapter's default. A non-empty sort is applied (locally
	// or by the backend) before paging.
	Fetch(ctx context.Context, page, pageSize int, sort SortState) (*Page, error)

	AddRow(ctx context.Context, row Row) (*Row, error)
	UpdateRow(ctx context.Context, id string, patch RowPatch) (*Row, error)
	DeleteRow(ctx context.Context, id string) error
	BulkUpdateRows(ctx context.Context, updates []RowUpdate) ([]*Row, error)
	BulkDeleteRows(ctx context.Context, ids []string) error

	AddColumn(ctx context.Context, col Column) (*Column, error)
	UpdateColumn(ctx context.Context, id string, patch ColumnPatch) (*Column, error)
	DeleteColumn(ctx context.Context, id string) error
	ReorderColumns(ctx context.Context, ids []string) error
	ResizeColumn(ctx context.Context, id string, width int) error
	HideColumn(ctx context.Context, id string, hidden bool) error
	PinColumn(ctx context.Context, id string, side PinSide) error

	// UpdateCell writes one cell addressed by external row position.
	UpdateCell(ctx context.Context, rowPos int, columnID string, v celltype.Value) error
	// BulkUpdateCells writes many cells in one backend call.
	BulkUpdateCells(ctx context.Context, updates []CellUpdate) error

	// Sort installs a sort state on the backend. Adapters backed by local
	// data satisfy it immediately; remote adapters may re-fetch instead.
	Sort(ctx context.Context, state SortState) error

	// ColumnSchema returns the column set in display order.
	ColumnSchema(ctx context.Context) ([]*Column, error)
	// RowCount returns the total number of rows.
	RowCount(ctx context.Context) (int, error)
}
