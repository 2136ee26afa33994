package export

import (
	"bytes"
	"testing"
	"time"

	"traveler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookings(t *testing.T) {
	bookings := []*models.TravelBooking{
		{
			ID: 2, Destination: "Porto", DepartureLocation: "Madrid", CheckInDate: "01/07/2025",
			CheckOutDate: "03/07/2025", NumberOfGuests: 2, AccommodationType: "Villa", RoomType: "Suite",
			ContactName: "alice", ContactEmail: "a@x.com", ContactPhone: "0123456789",
			BookingStatus: models.StatusConfirmed, CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: 1, Destination: "Lisbon", DepartureLocation: "Berlin", CheckInDate: "10/06/2025",
			CheckOutDate: "15/06/2025", NumberOfGuests: 5, AccommodationType: "Hotel", RoomType: "Family Room",
			SpecialRequests: "Late check-in", ContactName: "alice", ContactEmail: "a@x.com",
			ContactPhone: "+351912345678", BookingStatus: models.StatusPending,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Created At", rows[0][len(headers)-1])

	assert.Equal(t, "2", rows[1][0])
	assert.Equal(t, "Porto", rows[1][1])
	assert.Equal(t, models.StatusConfirmed, rows[1][13])

	assert.Equal(t, "Lisbon", rows[2][1])
	assert.Equal(t, "Late check-in", rows[2][8])
	assert.Equal(t, "5", rows[2][5])
}

func TestWriteBookingsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "bookings_alice.xlsx", FileName("alice"))
}
