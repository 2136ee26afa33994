package domain

import (
	"context"

	"traveler/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type CredentialStore interface {
	RegisterUser(ctx context.Context, user *models.User) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	LoginUser(ctx context.Context, username, password string) (bool, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.TravelBooking) error
	GetUserBookings(ctx context.Context, userID int64) ([]*models.TravelBooking, error)
	GetBooking(ctx context.Context, id int64) (*models.TravelBooking, error)
	UpdateBooking(ctx context.Context, booking *models.TravelBooking) error
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	DeleteBooking(ctx context.Context, id int64) error
	CountUserBookings(ctx context.Context, userID int64) (int, error)
}

// SessionRepository persists the session flag set. Get returns nil, nil when
// nothing has been stored yet.
type SessionRepository interface {
	Get(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Clear(ctx context.Context) error
}

// SessionState is the in-process view of the session flags.
type SessionState interface {
	Login(ctx context.Context, username, email string) error
	Logout(ctx context.Context) error
	IsLoggedIn() bool
	CurrentUsername() string
	CurrentEmail() string
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.TravelBooking) error
	DeleteBookingRow(ctx context.Context, bookingID int64) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.TravelBooking, status string) error
}
