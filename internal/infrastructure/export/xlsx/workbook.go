// Package xlsx renders the classification log as a spreadsheet.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

const (
	SheetName   = "Restaurants"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []string{"name", "address", "category", "map_url", "latency_seconds"}

// Write encodes rows in log order. Failed rows carry the error label in
// the category column and an empty latency cell.
func Write(w io.Writer, rows []domain.ClassificationResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, title := range header {
		if err := setCell(f, col+1, 1, title); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(SheetName, "A1", "E1", style)
	}

	for i, row := range rows {
		line := i + 2
		values := []any{row.Name, row.Address, row.Classification.Label(), row.MapURL}
		if latency := row.Classification.LatencySeconds(); latency != nil {
			values = append(values, *latency)
		}
		for col, v := range values {
			if err := setCell(f, col+1, line, v); err != nil {
				return err
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "B", 36)
	_ = f.SetColWidth(SheetName, "C", "C", 18)
	_ = f.SetColWidth(SheetName, "D", "D", 60)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
