package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"traveler/internal/models"
)

const bookingColumns = `id, user_id, destination, departure_location, check_in_date, check_out_date,
	number_of_guests, accommodation_type, room_type, special_requests, contact_name,
	contact_email, contact_phone, total_amount, booking_status, created_at`

type bookingRow struct {
	ID                int64           `db:"id"`
	UserID            int64           `db:"user_id"`
	Destination       string          `db:"destination"`
	DepartureLocation string          `db:"departure_location"`
	CheckInDate       string          `db:"check_in_date"`
	CheckOutDate      string          `db:"check_out_date"`
	NumberOfGuests    int             `db:"number_of_guests"`
	AccommodationType string          `db:"accommodation_type"`
	RoomType          string          `db:"room_type"`
	SpecialRequests   sql.NullString  `db:"special_requests"`
	ContactName       string          `db:"contact_name"`
	ContactEmail      string          `db:"contact_email"`
	ContactPhone      string          `db:"contact_phone"`
	TotalAmount       sql.NullFloat64 `db:"total_amount"`
	BookingStatus     sql.NullString  `db:"booking_status"`
	CreatedAt         string          `db:"created_at"`
}

func (r *bookingRow) toModel() *models.TravelBooking {
	status := r.BookingStatus.String
	if !r.BookingStatus.Valid {
		status = models.StatusPending
	}
	return &models.TravelBooking{
		ID:                r.ID,
		UserID:            r.UserID,
		Destination:       r.Destination,
		DepartureLocation: r.DepartureLocation,
		CheckInDate:       r.CheckInDate,
		CheckOutDate:      r.CheckOutDate,
		NumberOfGuests:    r.NumberOfGuests,
		AccommodationType: r.AccommodationType,
		RoomType:          r.RoomType,
		SpecialRequests:   r.SpecialRequests.String,
		ContactName:       r.ContactName,
		ContactEmail:      r.ContactEmail,
		ContactPhone:      r.ContactPhone,
		TotalAmount:       r.TotalAmount.Float64,
		BookingStatus:     status,
		CreatedAt:         parseCreatedAt(r.CreatedAt),
	}
}

// parseCreatedAt reads the stored layout and falls back to the dd/MM/yyyy HH:mm:ss
// form older files were written with.
func parseCreatedAt(raw string) time.Time {
	if t, err := time.Parse(models.StoredTimestampLayout, raw); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(models.DisplayTimestampLayout, raw, time.Local); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func nullableText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateBooking inserts b, defaulting status to Pending and the creation time to now.
func (db *DB) CreateBooking(ctx context.Context, b *models.TravelBooking) error {
	if b.UserID == 0 {
		return ErrMissingOwner
	}
	if b.BookingStatus == "" {
		b.BookingStatus = models.StatusPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = db.now()
	}
	b.CreatedAt = b.CreatedAt.UTC().Truncate(time.Microsecond)

	result, err := db.ExecContext(ctx, `INSERT INTO bookings (
			user_id, destination, departure_location, check_in_date, check_out_date,
			number_of_guests, accommodation_type, room_type, special_requests, contact_name,
			contact_email, contact_phone, total_amount, booking_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Destination, b.DepartureLocation, b.CheckInDate, b.CheckOutDate,
		b.NumberOfGuests, b.AccommodationType, b.RoomType, nullableText(b.SpecialRequests), b.ContactName,
		b.ContactEmail, b.ContactPhone, b.TotalAmount, b.BookingStatus,
		b.CreatedAt.Format(models.StoredTimestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	b.ID = id
	return nil
}

// GetUserBookings returns the user's bookings, most recent first.
func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.TravelBooking, error) {
	var rows []bookingRow
	err := db.SelectContext(ctx, &rows,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}

	bookings := make([]*models.TravelBooking, 0, len(rows))
	for i := range rows {
		bookings = append(bookings, rows[i].toModel())
	}
	return bookings, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.TravelBooking, error) {
	var row bookingRow
	err := db.GetContext(ctx, &row, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return row.toModel(), nil
}

// UpdateBooking replaces every mutable column of the row with b's values.
// id, user_id and created_at are never changed.
func (db *DB) UpdateBooking(ctx context.Context, b *models.TravelBooking) error {
	result, err := db.ExecContext(ctx, `UPDATE bookings SET
			destination = ?, departure_location = ?, check_in_date = ?, check_out_date = ?,
			number_of_guests = ?, accommodation_type = ?, room_type = ?, special_requests = ?,
			contact_name = ?, contact_email = ?, contact_phone = ?, total_amount = ?, booking_status = ?
		WHERE id = ?`,
		b.Destination, b.DepartureLocation, b.CheckInDate, b.CheckOutDate,
		b.NumberOfGuests, b.AccommodationType, b.RoomType, nullableText(b.SpecialRequests),
		b.ContactName, b.ContactEmail, b.ContactPhone, b.TotalAmount, b.BookingStatus,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return requireAffected(result)
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	result, err := db.ExecContext(ctx, `UPDATE bookings SET booking_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return requireAffected(result)
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return requireAffected(result)
}

func (db *DB) CountUserBookings(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bookings WHERE user_id = ?`, userID); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
