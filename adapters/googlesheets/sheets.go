// Package googlesheets persists a grid to a Google Sheets document, using
// the same sheet layout as the Excel adapter: a data sheet with a reserved
// identifier column and a companion schema sheet for column metadata. The
// adapter is a snapshot.Adapter; every mutation clears and rewrites both
// sheets.
package googlesheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/adapters/snapshot"
	"github.com/tablekit/go-datagrid/celltype"
)

const idHeader = "_id"

// New creates an adapter over the Sheets API with the provided client
// options (credentials, endpoints).
func New(ctx context.Context, config *Config, types *celltype.Registry, opts ...option.ClientOption) (*snapshot.Adapter, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	if types == nil {
		types = celltype.NewRegistry(nil)
	}
	cfg := *config
	return snapshot.New(&backend{service: service, cfg: cfg, types: types}, types), nil
}

type backend struct {
	service *sheets.Service
	cfg     Config
	types   *celltype.Registry
}

// Load reads the full table from both sheets.
func (b *backend) Load(ctx context.Context) ([]*datagrid.Column, []*datagrid.Row, error) {
	columns, err := b.loadSchema(ctx)
	if err != nil {
		return nil, nil, err
	}

	readRange := fmt.Sprintf("%s!A:ZZ", b.cfg.SheetName)
	resp, err := b.service.Spreadsheets.Values.Get(b.cfg.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("get sheet data: %w", err)
	}
	if len(resp.Values) == 0 {
		return columns, nil, nil
	}

	header := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		header[i], _ = v.(string)
	}
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
	for i := 1; i < len(resp.Values); i++ {
		line := resp.Values[i]
		if len(line) == 0 {
			continue
		}
		row := &datagrid.Row{Cells: make(map[string]celltype.Value)}
		for j := 0; j < len(line) && j < len(header); j++ {
			text := fmt.Sprintf("%v", line[j])
			if text == "" {
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

// Save clears both sheets and rewrites them with the given table.
func (b *backend) Save(ctx context.Context, columns []*datagrid.Column, rows []*datagrid.Row) error {
	values := make([][]interface{}, 0, len(rows)+1)

	header := make([]interface{}, 0, len(columns)+1)
	header = append(header, idHeader)
	for _, c := range columns {
		header = append(header, c.ID)
	}
	values = append(values, header)

	for _, r := range rows {
		line := make([]interface{}, 0, len(columns)+1)
		line = append(line, r.ID)
		for _, c := range columns {
			if v, ok := r.Cells[c.ID]; ok {
				line = append(line, b.types.Serialize(c.Type, v))
			} else {
				line = append(line, "")
			}
		}
		values = append(values, line)
	}

	if err := b.rewriteSheet(ctx, b.cfg.SheetName, values); err != nil {
		return err
	}
	return b.saveSchema(ctx, columns)
}

func (b *backend) rewriteSheet(ctx context.Context, sheet string, values [][]interface{}) error {
	clearRange := fmt.Sprintf("%s!A:ZZ", sheet)
	_, err := b.service.Spreadsheets.Values.Clear(b.cfg.SpreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}
	vr := &sheets.ValueRange{Values: values}
	_, err = b.service.Spreadsheets.Values.Update(b.cfg.SpreadsheetID, fmt.Sprintf("%s!A1", sheet), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}
	return nil
}

func (b *backend) loadSchema(ctx context.Context) ([]*datagrid.Column, error) {
	readRange := fmt.Sprintf("%s!A:G", b.cfg.schemaSheet())
	resp, err := b.service.Spreadsheets.Values.Get(b.cfg.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		// A document without the schema sheet degrades to text columns
		// derived from the data header.
		return nil, nil
	}

	var columns []*datagrid.Column
	for i := 1; i < len(resp.Values); i++ {
		line := make([]string, len(resp.Values[i]))
		for j, v := range resp.Values[i] {
			line[j] = fmt.Sprintf("%v", v)
		}
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

func (b *backend) saveSchema(ctx context.Context, columns []*datagrid.Column) error {
	values := [][]interface{}{{"id", "title", "type", "width", "hidden", "pinned", "options"}}
	for _, c := range columns {
		opts, err := json.Marshal(c.Options)
		if err != nil {
			return fmt.Errorf("column %s options: %w", c.ID, err)
		}
		values = append(values, []interface{}{
			c.ID, c.Title, c.Type, strconv.Itoa(c.Width),
			strconv.FormatBool(c.Hidden), string(c.Pinned), string(opts),
		})
	}
	return b.rewriteSheet(ctx, b.cfg.schemaSheet(), values)
}
