package models

// Booking statuses
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
)

// Date and time layouts
const (
	// DateLayout is the dd/MM/yyyy form used for check-in and check-out dates.
	DateLayout = "02/01/2006"
	// DisplayTimestampLayout is the dd/MM/yyyy HH:mm:ss form shown to users.
	DisplayTimestampLayout = "02/01/2006 15:04:05"
	// StoredTimestampLayout is fixed width UTC so that string order equals time order.
	StoredTimestampLayout = "2006-01-02T15:04:05.000000Z"
)

// Guest limits
const (
	MinGuests = 1
	MaxGuests = 20
)

// KnownStatuses lists the statuses shown by booking lists. Other values are accepted as free text.
var KnownStatuses = []string{StatusPending, StatusConfirmed, StatusCancelled}

// IsKnownStatus reports whether status is one of KnownStatuses.
func IsKnownStatus(status string) bool {
	for _, s := range KnownStatuses {
		if s == status {
			return true
		}
	}
	return false
}
