// Package excel persists a grid to an .xlsx workbook. The data sheet
// holds one row per record with a reserved identifier column; a companion
// schema sheet carries the column metadata (type, width, visibility,
// options) that a plain header row cannot express. The adapter itself is
// a snapshot.Adapter: the workbook is rewritten whole on every mutation.
package excel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/adapters/snapshot"
	"github.com/tablekit/go-datagrid/celltype"
)

// idHeader is the reserved first column of the data sheet.
const idHeader = "_id"

// New creates an adapter backed by the workbook in config. Cell text is
// parsed and serialized through types using each column's declared type.
func New(config *Config, types *celltype.Registry) (*snapshot.Adapter, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if types == nil {
		types = celltype.NewRegistry(nil)
	}
	cfg := *config
	return snapshot.New(&backend{cfg: cfg, types: types}, types), nil
}

type backend struct {
	cfg   Config
	types *celltype.Registry
}

// Load reads the full table. A missing file or sheet yields an empty grid.
func (b *backend) Load(ctx context.Context) ([]*datagrid.Column, []*datagrid.Row, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	f, err := excelize.OpenFile(b.cfg.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	columns, err := b.loadSchema(f)
	if err != nil {
		return nil, nil, err
	}

	idx, err := f.GetSheetIndex(b.cfg.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("find sheet %s: %w", b.cfg.SheetName, err)
	}
	if idx == -1 {
		return columns, nil, nil
	}
	cells, err := f.GetRows(b.cfg.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", b.cfg.SheetName, err)
	}
	if len(cells) == 0 {
		return columns, nil, nil
	}

	// Without a schema sheet, derive text columns from the header row,
	// skipping the identifier column.
	header := cells[0]
	if columns == nil {
		for _, name := range header {
			if name == "" || name == idHeader {
				continue
			}
			columns = append(columns, &datagrid.Column{ID: name, Title: name, Type: celltype.TypeText})
		}
	}
	byHeader := make(map[string]*datagrid.Column, len(columns))
	for _, c := range columns {
		byHeader[c.ID] = c
	}

	var rows []*datagrid.Row
	for i := 1; i < len(cells); i++ {
		line := cells[i]
		if len(line) == 0 {
			continue
		}
		row := &datagrid.Row{Cells: make(map[string]celltype.Value)}
		for j, text := range line {
			if j >= len(header) || text == "" {
				continue
			}
			if header[j] == idHeader {
				row.ID = text
				continue
			}
			col, ok := byHeader[header[j]]
			if !ok {
				continue
			}
			v := b.types.Parse(col.Type, text, col.Options)
			if !v.IsNull() {
				row.Cells[col.ID] = v
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// Save rewrites both sheets with the given table.
func (b *backend) Save(ctx context.Context, columns []*datagrid.Column, rows []*datagrid.Row) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.MkdirAll(filepath.Dir(b.cfg.FilePath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(b.cfg.SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if def := f.GetSheetName(0); def != b.cfg.SheetName {
		_ = f.DeleteSheet(def)
	}

	header := make([]interface{}, 0, len(columns)+1)
	header = append(header, idHeader)
	for _, c := range columns {
		header = append(header, c.ID)
	}
	if err := f.SetSheetRow(b.cfg.SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		line := make([]interface{}, 0, len(columns)+1)
		line = append(line, r.ID)
		for _, c := range columns {
			if v, ok := r.Cells[c.ID]; ok {
				line = append(line, b.types.Serialize(c.Type, v))
			} else {
				line = append(line, "")
			}
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(b.cfg.SheetName, cell, &line); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := b.saveSchema(f, columns); err != nil {
		return err
	}
	if err := f.SaveAs(b.cfg.FilePath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

var schemaHeader = []interface{}{"id", "title", "type", "width", "hidden", "pinned", "options"}

func (b *backend) loadSchema(f *excelize.File) ([]*datagrid.Column, error) {
	idx, err := f.GetSheetIndex(b.cfg.schemaSheet())
	if err != nil {
		return nil, fmt.Errorf("find schema sheet: %w", err)
	}
	if idx == -1 {
		return nil, nil
	}
	cells, err := f.GetRows(b.cfg.schemaSheet())
	if err != nil {
		return nil, fmt.Errorf("read schema sheet: %w", err)
	}

	var columns []*datagrid.Column
	for i := 1; i < len(cells); i++ {
		line := cells[i]
		if len(line) == 0 || line[0] == "" {
			continue
		}
		col := &datagrid.Column{ID: line[0]}
		if len(line) > 1 {
			col.Title = line[1]
		}
		if len(line) > 2 {
			col.Type = line[2]
		}
		if len(line) > 3 {
			col.Width, _ = strconv.Atoi(line[3])
		}
		if len(line) > 4 {
			col.Hidden = line[4] == "true"
		}
		if len(line) > 5 {
			col.Pinned = datagrid.PinSide(line[5])
		}
		if len(line) > 6 && line[6] != "" {
			if err := json.Unmarshal([]byte(line[6]), &col.Options); err != nil {
				return nil, fmt.Errorf("column %s options: %w", col.ID, err)
			}
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (b *backend) saveSchema(f *excelize.File, columns []*datagrid.Column) error {
	name := b.cfg.schemaSheet()
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create schema sheet: %w", err)
	}
	if err := f.SetSheetRow(name, "A1", &schemaHeader); err != nil {
		return fmt.Errorf("write schema header: %w", err)
	}
	for i, c := range columns {
		opts, err := json.Marshal(c.Options)
		if err != nil {
			return fmt.Errorf("column %s options: %w", c.ID, err)
		}
		line := []interface{}{
			c.ID, c.Title, c.Type, strconv.Itoa(c.Width),
			strconv.FormatBool(c.Hidden), string(c.Pinned), string(opts),
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(name, cell, &line); err != nil {
			return fmt.Errorf("write schema row %d: %w", i+2, err)
		}
	}
	return nil
}
