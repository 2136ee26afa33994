package models

import "time"

// TravelBooking is a single trip reservation owned by one user.
type TravelBooking struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	Destination       string    `json:"destination"`
	DepartureLocation string    `json:"departure_location"`
	CheckInDate       string    `json:"check_in_date"`
	CheckOutDate      string    `json:"check_out_date"`
	NumberOfGuests    int       `json:"number_of_guests"`
	AccommodationType string    `json:"accommodation_type"`
	RoomType          string    `json:"room_type"`
	SpecialRequests   string    `json:"special_requests,omitempty"`
	ContactName       string    `json:"contact_name"`
	ContactEmail      string    `json:"contact_email"`
	ContactPhone      string    `json:"contact_phone"`
	TotalAmount       float64   `json:"total_amount"`
	BookingStatus     string    `json:"booking_status"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreatedAtDisplay renders the creation time the way booking lists show it.
func (b *TravelBooking) CreatedAtDisplay() string {
	if b.CreatedAt.IsZero() {
		return ""
	}
	return b.CreatedAt.Local().Format(DisplayTimestampLayout)
}

// IsOwnedBy reports whether the booking belongs to the given user.
func (b *TravelBooking) IsOwnedBy(userID int64) bool {
	return b != nil && b.UserID == userID
}

// ContactPrefill holds the contact fields a new booking form starts with.
type ContactPrefill struct {
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
}
