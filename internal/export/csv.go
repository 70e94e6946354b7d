// Package export renders subscription snapshots to CSV, Excel workbooks
// and Google Sheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"subtrack/internal/core"
)

var columnHeaders = []string{
	"Name",
	"Category",
	"Cost",
	"Billing Cycle",
	"Duration",
	"Status",
	"First Payment",
	"Period Start",
	"Period End",
	"Monthly Cost",
}

func subscriptionRow(s core.Subscription) []string {
	return []string{
		s.Name,
		s.CategoryID,
		fmt.Sprintf("%.2f", s.Cost.Amount()),
		string(s.BillingCycle),
		string(s.Duration),
		string(s.Status),
		s.FirstPayment.String(),
		s.StartDate.String(),
		s.EndDate.String(),
		fmt.Sprintf("%.2f", s.MonthlyCost()),
	}
}

// WriteCSV streams the subscriptions as a CSV document with a header row.
func WriteCSV(w io.Writer, subs []core.Subscription) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columnHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range subs {
		if err := cw.Write(subscriptionRow(s)); err != nil {
			return fmt.Errorf("write row for %s: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
