package export

import (
	"fmt"
	"io"

	"subtrack/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	subscriptionsSheet = "Subscriptions"
	summarySheet       = "Summary"
)

// WriteXLSX renders the subscriptions and their aggregate view as an
// Excel workbook with a Subscriptions sheet and a Summary sheet.
func WriteXLSX(w io.Writer, subs []core.Subscription, stats core.AggregateStats) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), subscriptionsSheet)

	for col, header := range columnHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(subscriptionsSheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, s := range subs {
		row := subscriptionRow(s)
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(subscriptionsSheet, cell, value); err != nil {
				return fmt.Errorf("write row for %s: %w", s.ID, err)
			}
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]any{
		{"Active Subscriptions", stats.ActiveCount},
		{"Monthly Cost", stats.MonthlyCost},
		{"Yearly Cost", stats.YearlyCost},
		{"Expiring Soon", len(stats.ExpiringSoon)},
	}
	rowIdx := 1
	for _, row := range summary {
		if err := setRow(f, summarySheet, rowIdx, row); err != nil {
			return err
		}
		rowIdx++
	}

	rowIdx++
	if err := setRow(f, summarySheet, rowIdx, []any{"Category", "Count", "Monthly Cost"}); err != nil {
		return err
	}
	rowIdx++
	for category, total := range stats.ByCategory {
		if err := setRow(f, summarySheet, rowIdx, []any{category, total.Count, total.MonthlyCost}); err != nil {
			return err
		}
		rowIdx++
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("write summary row %d: %w", row, err)
		}
	}
	return nil
}
