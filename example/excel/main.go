package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	datagrid "github.com/tablekit/go-datagrid"
	"github.com/tablekit/go-datagrid/adapters/excel"
	"github.com/tablekit/go-datagrid/celltype"
)

// Persists a small grid to an .xlsx workbook and reads it back. Run it
// twice: the second run finds the rows written by the first.
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()
	logger := slog.New(tint.NewHandler(os.Stderr, nil))
	types := celltype.NewRegistry(logger)

	adapter, err := excel.New(&excel.Config{
		FilePath:  "./grid.xlsx",
		SheetName: "tasks",
	}, types)
	if err != nil {
		return fmt.Errorf("create adapter: %w", err)
	}

	columns, err := adapter.ColumnSchema(ctx)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if len(columns) == 0 {
		logger.Info("empty workbook, creating schema")
		for _, c := range []datagrid.Column{
			{ID: "task", Title: "Task", Type: celltype.TypeText, Width: 240},
			{ID: "due", Title: "Due", Type: celltype.TypeDate},
			{ID: "done", Title: "Done", Type: celltype.TypeCheckbox},
		} {
			if _, err := adapter.AddColumn(ctx, c); err != nil {
				return fmt.Errorf("add column %s: %w", c.ID, err)
			}
		}
	}

	row, err := adapter.AddRow(ctx, datagrid.Row{Cells: map[string]celltype.Value{
		"task": celltype.Scalar(fmt.Sprintf("created at %s", time.Now().Format(time.TimeOnly))),
		"due":  celltype.Scalar(time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour)),
		"done": celltype.Scalar(false),
	}})
	if err != nil {
		return fmt.Errorf("add row: %w", err)
	}
	logger.Info("row written", "id", row.ID)

	page, err := adapter.Fetch(ctx, 0, 0, datagrid.SortState{{ColumnID: "due", Direction: datagrid.Ascending}})
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	fmt.Printf("%d rows in workbook:\n", page.TotalRows)
	for _, r := range page.Rows {
		task, _ := r.Cell("task")
		due, _ := r.Cell("due")
		done, _ := r.Cell("done")
		fmt.Printf("  %-32s due %-12s %s\n",
			types.Format(celltype.TypeText, task, celltype.Options{}),
			types.Format(celltype.TypeDate, due, celltype.Options{}),
			types.Format(celltype.TypeCheckbox, done, celltype.Options{}))
	}
	return nil
}
