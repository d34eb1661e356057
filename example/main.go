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
	"github.com/tablekit/go-datagrid/adapters/memory"
	"github.com/tablekit/go-datagrid/adapters/simulated"
	"github.com/tablekit/go-datagrid/celltype"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug}))

	// The grid store holds the data; the simulated adapter stands in for
	// a slow, unreliable backend so the optimistic flow is visible.
	store := datagrid.NewStore(celltype.NewRegistry(logger))
	backend := simulated.New(memory.New(store), &simulated.Config{
		Latency: 150 * time.Millisecond,
	})
	coord := datagrid.NewCoordinator(store, backend, logger)

	store.OnChange(func(e datagrid.Event) {
		logger.Debug("grid changed", "kind", e.Kind, "row", e.RowID, "column", e.ColumnID)
	})

	// Define the schema.
	columns := []datagrid.Column{
		{ID: "task", Title: "Task", Type: celltype.TypeText, Width: 240},
		{ID: "owner", Title: "Owner", Type: celltype.TypeText},
		{ID: "status", Title: "Status", Type: celltype.TypeSelect, Options: celltype.Options{
			Choices: []celltype.Choice{
				{Value: "todo", Label: "To Do", Color: "#999999"},
				{Value: "doing", Label: "In Progress", Color: "#1f77b4"},
				{Value: "done", Label: "Done", Color: "#2ca02c"},
			},
		}},
		{ID: "effort", Title: "Effort (h)", Type: celltype.TypeNumber},
		{ID: "progress", Title: "Progress", Type: celltype.TypeProgress},
	}
	for _, c := range columns {
		edit, err := coord.AddColumn(ctx, c)
		if err != nil {
			return fmt.Errorf("add column %s: %w", c.ID, err)
		}
		if err := edit.Wait(ctx); err != nil {
			return fmt.Errorf("sync column %s: %w", c.ID, err)
		}
	}

	// Add a few rows through the optimistic layer.
	tasks := []map[string]celltype.Value{
		{"task": celltype.Scalar("Wire up pagination"), "owner": celltype.Scalar("ada"), "status": celltype.Scalar("doing"), "effort": celltype.Scalar(8.0), "progress": celltype.Scalar(0.6)},
		{"task": celltype.Scalar("Ship cell editors"), "owner": celltype.Scalar("lin"), "status": celltype.Scalar("todo"), "effort": celltype.Scalar(13.0)},
		{"task": celltype.Scalar("Fix header resize"), "owner": celltype.Scalar("ada"), "status": celltype.Scalar("done"), "effort": celltype.Scalar(3.0), "progress": celltype.Scalar(1.0)},
	}
	for _, cells := range tasks {
		edit, err := coord.AddRow(ctx, datagrid.Row{Cells: cells})
		if err != nil {
			return fmt.Errorf("add row: %w", err)
		}
		if err := edit.Wait(ctx); err != nil {
			return fmt.Errorf("sync row: %w", err)
		}
	}

	// Sort by status (choice order), then effort descending.
	store.Sort(datagrid.SortState{
		{ColumnID: "status", Direction: datagrid.Ascending},
		{ColumnID: "effort", Direction: datagrid.Descending},
	})
	printGrid(store)

	// An edit the backend rejects rolls back automatically.
	backend.FailFor(time.Second)
	edit, err := coord.UpdateCell(ctx, 0, "effort", celltype.Scalar(99.0))
	if err != nil {
		return fmt.Errorf("update cell: %w", err)
	}
	if werr := edit.Wait(ctx); werr != nil {
		logger.Warn("edit rejected and rolled back", "error", werr)
	}
	printGrid(store)

	return nil
}

func printGrid(store *datagrid.Store) {
	types := store.Types()
	columns := store.Columns()

	fmt.Println()
	for _, c := range columns {
		fmt.Printf("%-22s", c.Title)
	}
	fmt.Println()
	for pos := 0; pos < store.RowCount(); pos++ {
		row, err := store.RowAt(pos)
		if err != nil {
			continue
		}
		for _, c := range columns {
			v, _ := row.Cell(c.ID)
			fmt.Printf("%-22s", types.Format(c.Type, v, c.Options))
		}
		fmt.Println()
	}
	fmt.Println()
}
