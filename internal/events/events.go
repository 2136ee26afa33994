package events

import (
	"encoding/json"
	"sync"
	"time"

	"traveler/internal/models"

	"github.com/rs/zerolog"
)

const (
	EventUserRegistered       = "user_registered"
	EventBookingCreated       = "booking_created"
	EventBookingUpdated       = "booking_updated"
	EventBookingStatusChanged = "booking_status_changed"
	EventBookingDeleted       = "booking_deleted"
)

// BookingEventPayload describes the booking snapshot handed to event consumers.
type BookingEventPayload struct {
	BookingID         int64   `json:"booking_id"`
	UserID            int64   `json:"user_id"`
	Username          string  `json:"username"`
	Destination       string  `json:"destination"`
	DepartureLocation string  `json:"departure_location"`
	CheckInDate       string  `json:"check_in_date"`
	CheckOutDate      string  `json:"check_out_date"`
	NumberOfGuests    int     `json:"number_of_guests"`
	AccommodationType string  `json:"accommodation_type"`
	RoomType          string  `json:"room_type"`
	ContactName       string  `json:"contact_name"`
	ContactEmail      string  `json:"contact_email"`
	ContactPhone      string  `json:"contact_phone"`
	TotalAmount       float64 `json:"total_amount"`
	Status            string  `json:"status"`
	PreviousStatus    string  `json:"previous_status,omitempty"`
}

// UserEventPayload is published when an account is created.
type UserEventPayload struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewBookingPayload snapshots b on behalf of username.
func NewBookingPayload(b *models.TravelBooking, username string) BookingEventPayload {
	return BookingEventPayload{
		BookingID:         b.ID,
		UserID:            b.UserID,
		Username:          username,
		Destination:       b.Destination,
		DepartureLocation: b.DepartureLocation,
		CheckInDate:       b.CheckInDate,
		CheckOutDate:      b.CheckOutDate,
		NumberOfGuests:    b.NumberOfGuests,
		AccommodationType: b.AccommodationType,
		RoomType:          b.RoomType,
		ContactName:       b.ContactName,
		ContactEmail:      b.ContactEmail,
		ContactPhone:      b.ContactPhone,
		TotalAmount:       b.TotalAmount,
		Status:            b.BookingStatus,
	}
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the JSON payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. Handler errors are logged to logger when it is non-nil.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && b.logger != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("Event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
