package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"traveler/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	bookingsSheet   = "Bookings"
	lastColumn      = "Q"
	statusColumn    = "O"
	updatedAtColumn = "Q"
	sheetTimeLayout = "2006-01-02 15:04:05"
)

var ErrRowNotFound = errors.New("booking row not found")

var bookingHeaders = []interface{}{
	"ID", "User ID", "Destination", "Departure", "Check-in", "Check-out", "Guests",
	"Accommodation", "Room", "Special Requests", "Contact Name", "Contact Email",
	"Contact Phone", "Total Amount", "Status", "Created At", "Updated At",
}

var updatedRowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// SheetsService mirrors bookings into the Bookings sheet of one spreadsheet,
// one row per booking keyed by the ID in column A.
type SheetsService struct {
	service         *sheets.Service
	bookingsSheetID string
	logger          *zerolog.Logger
	rowCache        map[int64]int
	cacheMu         sync.RWMutex
}

func NewSheetsService(ctx context.Context, credentialsFile, bookingsSheetID string, logger *zerolog.Logger) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return newSheetsService(srv, bookingsSheetID, logger), nil
}

func newSheetsService(srv *sheets.Service, bookingsSheetID string, logger *zerolog.Logger) *SheetsService {
	return &SheetsService{
		service:         srv,
		bookingsSheetID: bookingsSheetID,
		logger:          logger,
		rowCache:        make(map[int64]int),
	}
}

// TestConnection reads the header cell of the bookings sheet.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.bookingsSheetID, bookingsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// GetServiceAccountEmail returns the address the spreadsheet must be shared with.
func GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// EnsureHeader writes the column titles into row 1.
func (s *SheetsService) EnsureHeader(ctx context.Context) error {
	rangeData := fmt.Sprintf("%s!A1:%s1", bookingsSheet, lastColumn)
	_, err := s.service.Spreadsheets.Values.Update(s.bookingsSheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{bookingHeaders},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.bookingsSheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	cache := make(map[int64]int)
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id := cellID(row[0]); id > 0 {
			cache[id] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

// StartCacheRefresh rebuilds the row cache every interval until ctx is done.
func (s *SheetsService) StartCacheRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := s.WarmUpCache(refreshCtx); err != nil {
				s.logger.Warn().Err(err).Msg("Sheets row cache refresh failed")
			}
			cancel()
		}
	}
}

// AppendBooking adds a row for booking at the end of the sheet.
func (s *SheetsService) AppendBooking(ctx context.Context, booking *models.TravelBooking) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking, time.Now())},
	}

	resp, err := s.service.Spreadsheets.Values.Append(s.bookingsSheetID, bookingsSheet+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}

	if resp.Updates != nil {
		if row := rowFromRange(resp.Updates.UpdatedRange); row > 0 {
			s.setCachedRow(booking.ID, row)
		}
	}
	return nil
}

// UpsertBooking updates an existing booking row or appends a new one if not found.
func (s *SheetsService) UpsertBooking(ctx context.Context, booking *models.TravelBooking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}

	rowIdx, err := s.FindBookingRow(ctx, booking.ID)
	if errors.Is(err, ErrRowNotFound) {
		return s.AppendBooking(ctx, booking)
	}
	if err != nil {
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:%s%d", bookingsSheet, rowIdx, lastColumn, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.bookingsSheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking, time.Now())},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// DeleteBookingRow blanks the row for bookingID. A missing row is not an error.
func (s *SheetsService) DeleteBookingRow(ctx context.Context, bookingID int64) error {
	rowIdx, err := s.FindBookingRow(ctx, bookingID)
	if errors.Is(err, ErrRowNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:%s%d", bookingsSheet, rowIdx, lastColumn, rowIdx)
	_, err = s.service.Spreadsheets.Values.Clear(s.bookingsSheetID, rangeData, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err == nil {
		s.deleteCachedRow(bookingID)
	}
	return err
}

// UpdateBookingStatus rewrites the status and Updated At cells of a booking row.
func (s *SheetsService) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error {
	rowIdx, err := s.FindBookingRow(ctx, bookingID)
	if err != nil {
		return err
	}

	data := []*sheets.ValueRange{
		{
			Range:  fmt.Sprintf("%s!%s%d", bookingsSheet, statusColumn, rowIdx),
			Values: [][]interface{}{{status}},
		},
		{
			Range:  fmt.Sprintf("%s!%s%d", bookingsSheet, updatedAtColumn, rowIdx),
			Values: [][]interface{}{{time.Now().Format(sheetTimeLayout)}},
		},
	}
	_, err = s.service.Spreadsheets.Values.BatchUpdate(s.bookingsSheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	return err
}

// FindBookingRow locates the 1-based row of bookingID in column A, using the cache first.
func (s *SheetsService) FindBookingRow(ctx context.Context, bookingID int64) (int, error) {
	if bookingID == 0 {
		return 0, fmt.Errorf("booking id is required")
	}

	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.bookingsSheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if cellID(row[0]) == bookingID {
			rowIdx := i + 1
			s.setCachedRow(bookingID, rowIdx)
			return rowIdx, nil
		}
	}

	return 0, ErrRowNotFound
}

func (s *SheetsService) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func (s *SheetsService) deleteCachedRow(id int64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, id)
}

// ClearCache clears the row index cache.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
}

func cellID(v interface{}) int64 {
	switch v := v.(type) {
	case float64:
		return int64(v)
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	}
	return 0
}

// rowFromRange extracts the first row number from an A1 range such as "Bookings!A10:Q10".
func rowFromRange(a1 string) int {
	m := updatedRowPattern.FindStringSubmatch(a1)
	if m == nil {
		return 0
	}
	row, _ := strconv.Atoi(m[1])
	return row
}

func bookingRowValues(b *models.TravelBooking, updatedAt time.Time) []interface{} {
	return []interface{}{
		b.ID,
		b.UserID,
		b.Destination,
		b.DepartureLocation,
		b.CheckInDate,
		b.CheckOutDate,
		b.NumberOfGuests,
		b.AccommodationType,
		b.RoomType,
		b.SpecialRequests,
		b.ContactName,
		b.ContactEmail,
		b.ContactPhone,
		b.TotalAmount,
		b.BookingStatus,
		b.CreatedAtDisplay(),
		updatedAt.Format(sheetTimeLayout),
	}
}
