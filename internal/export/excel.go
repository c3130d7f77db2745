// Package export renders booking listings as xlsx workbooks for back-office
// use. It reads through the same listing path viewers use; nothing here
// mutates data.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"bookline/internal/database"
	"bookline/internal/models"
	"bookline/internal/timeutil"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{
	"ID", "Date", "Start", "End", "Status",
	"Customer ID", "Provider ID", "Service ID", "Address", "Price",
}

// Lister is the read surface the exporter needs.
type Lister interface {
	ListBookings(ctx context.Context, partyID int64, role string, filter database.BookingFilter) ([]*models.Booking, error)
}

type Exporter struct {
	store Lister
}

func NewExporter(store Lister) *Exporter {
	return &Exporter{store: store}
}

// WriteProviderBookings writes the provider's bookings in [from, to] as an
// xlsx workbook to w.
func (e *Exporter) WriteProviderBookings(ctx context.Context, w io.Writer, providerID int64, from, to time.Time) error {
	bookings, err := e.store.ListBookings(ctx, providerID, models.RoleProvider, database.BookingFilter{
		From: from,
		To:   to,
	})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, b := range bookings {
		values := []any{
			b.ID,
			b.ScheduledDate.Format(timeutil.DateLayout),
			b.StartTime,
			b.EndTime,
			b.Status,
			b.CustomerID,
			b.ProviderID,
			b.ServiceID,
			b.ServiceAddress,
			b.TotalPrice,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write booking row: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
