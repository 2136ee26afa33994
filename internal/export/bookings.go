// Package export renders bookings as spreadsheet files.
package export

import (
	"fmt"
	"io"

	"traveler/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Bookings"

// ContentType is the MIME type of the workbook written by WriteBookings.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{
	"ID", "Destination", "Departure", "Check-in", "Check-out", "Guests",
	"Accommodation", "Room", "Special Requests", "Contact Name", "Contact Email",
	"Contact Phone", "Total Amount", "Status", "Created At",
}

// FileName returns the download name for username's export.
func FileName(username string) string {
	return fmt.Sprintf("bookings_%s.xlsx", username)
}

// WriteBookings writes bookings as a single-sheet XLSX workbook to w, one row per
// booking in the given order.
func WriteBookings(w io.Writer, bookings []*models.TravelBooking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle)

	for i, b := range bookings {
		row := []interface{}{
			b.ID, b.Destination, b.DepartureLocation, b.CheckInDate, b.CheckOutDate, b.NumberOfGuests,
			b.AccommodationType, b.RoomType, b.SpecialRequests, b.ContactName, b.ContactEmail,
			b.ContactPhone, b.TotalAmount, b.BookingStatus, b.CreatedAtDisplay(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 8)
	_ = f.SetColWidth(SheetName, "B", "O", 18)
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	_ = f.DeleteSheet("Sheet1")

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
