package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"bookline/internal/database"
	"bookline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubLister struct {
	bookings []*models.Booking
	err      error

	gotPartyID int64
	gotRole    string
	gotFilter  database.BookingFilter
}

func (s *stubLister) ListBookings(_ context.Context, partyID int64, role string, filter database.BookingFilter) ([]*models.Booking, error) {
	s.gotPartyID = partyID
	s.gotRole = role
	s.gotFilter = filter
	return s.bookings, s.err
}

func TestWriteProviderBookings(t *testing.T) {
	date := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	lister := &stubLister{bookings: []*models.Booking{
		{
			ID: 11, CustomerID: 1, ProviderID: 2, ServiceID: 7,
			Status: models.StatusConfirmed, ScheduledDate: date,
			StartTime: "10:00", EndTime: "11:00",
			ServiceAddress: "12 Main St", TotalPrice: 50,
		},
		{
			ID: 12, CustomerID: 3, ProviderID: 2, ServiceID: 7,
			Status: models.StatusPending, ScheduledDate: date,
			StartTime: "14:00", EndTime: "15:00",
			ServiceAddress: "9 Oak Ave", TotalPrice: 75.5,
		},
	}}

	from := date
	to := date.AddDate(0, 0, 7)

	var buf bytes.Buffer
	exp := NewExporter(lister)
	require.NoError(t, exp.WriteProviderBookings(context.Background(), &buf, 2, from, to))

	assert.Equal(t, int64(2), lister.gotPartyID)
	assert.Equal(t, models.RoleProvider, lister.gotRole)
	assert.True(t, lister.gotFilter.From.Equal(from))
	assert.True(t, lister.gotFilter.To.Equal(to))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"ID", "Date", "Start", "End", "Status",
		"Customer ID", "Provider ID", "Service ID", "Address", "Price",
	}, rows[0])

	assert.Equal(t, "11", rows[1][0])
	assert.Equal(t, "2025-03-04", rows[1][1])
	assert.Equal(t, "10:00", rows[1][2])
	assert.Equal(t, "confirmed", rows[1][4])
	assert.Equal(t, "12 Main St", rows[1][8])

	assert.Equal(t, "pending", rows[2][4])
	assert.Equal(t, "75.5", rows[2][9])
}

func TestWriteProviderBookings_Empty(t *testing.T) {
	var buf bytes.Buffer
	exp := NewExporter(&stubLister{})
	require.NoError(t, exp.WriteProviderBookings(context.Background(), &buf, 2, time.Time{}, time.Time{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWriteProviderBookings_StoreError(t *testing.T) {
	wantErr := errors.New("db down")
	exp := NewExporter(&stubLister{err: wantErr})

	var buf bytes.Buffer
	err := exp.WriteProviderBookings(context.Background(), &buf, 2, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, wantErr)
	assert.Zero(t, buf.Len())
}
