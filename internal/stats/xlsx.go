package stats

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook.
const (
	SheetUsers      = "Users"
	SheetEngagement = "Engagement"
	SheetDashboard  = "Dashboard"
)

// WriteXLSX writes the snapshot as a workbook with one sheet per table.
func WriteXLSX(w io.Writer, snap *Snapshot, userIDs []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetUsers); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetEngagement, SheetDashboard} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	users := [][]any{{"User", "Completed Categories", "Total Categories", "Percentage"}}
	for _, r := range snap.Users {
		users = append(users, []any{r.Name, r.CompletedCategories, r.TotalCategories, round1(r.Percentage)})
	}
	users = append(users, []any{}, []any{"Average Progress", round1(snap.AverageProgress)})

	engagement := [][]any{{"Category", "Users Started", "Users Completed", "Total Users"}}
	for _, r := range snap.Engagement {
		engagement = append(engagement, []any{r.Category, r.Started, r.Completed, r.TotalUsers})
	}

	dashboard := [][]any{{"User", "Category", "Progress %", "Status"}}
	for _, id := range userIDs {
		for _, r := range snap.Dashboards[id] {
			dashboard = append(dashboard, []any{id, r.Category, round1(r.Percentage), string(r.Status)})
		}
	}

	for sheet, rows := range map[string][][]any{
		SheetUsers:      users,
		SheetEngagement: engagement,
		SheetDashboard:  dashboard,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
