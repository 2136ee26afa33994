package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"traveler/internal/domain"
	"traveler/internal/events"
	"traveler/internal/export"
	"traveler/internal/metrics"
	"traveler/internal/models"
	"traveler/internal/validation"

	"github.com/rs/zerolog"
)

// UserResolver resolves the user behind the current session.
type UserResolver interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// BookingService runs the booking screens' logic on behalf of the session user.
// Every operation fails with ErrNotLoggedIn without a session and with
// ErrForbidden when the target booking belongs to someone else.
type BookingService struct {
	users        UserResolver
	repo         domain.BookingStore
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	logger       *zerolog.Logger
}

func NewBookingService(
	users UserResolver,
	repo domain.BookingStore,
	eventBus domain.EventPublisher,
	sheetsWorker domain.SyncWorker,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		users:        users,
		repo:         repo,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		logger:       logger,
	}
}

// Prefill returns the contact fields a new booking form starts with.
func (s *BookingService) Prefill(ctx context.Context) (models.ContactPrefill, error) {
	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return models.ContactPrefill{}, err
	}
	return models.ContactPrefill{ContactName: user.Username, ContactEmail: user.Email}, nil
}

func (s *BookingService) CreateBooking(ctx context.Context, in validation.BookingInput) (*models.TravelBooking, validation.FieldErrors, error) {
	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, nil, err
	}

	if errs := validation.ValidateBooking(in); errs.HasErrors() {
		return nil, errs, nil
	}

	booking := &models.TravelBooking{UserID: user.ID, BookingStatus: models.StatusPending}
	in.ApplyTo(booking)

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, nil, fmt.Errorf("create booking: %w", err)
	}
	metrics.IncBookingOp("create")

	s.logger.Info().Int64("booking_id", booking.ID).Str("username", user.Username).Msg("Booking created")
	s.publishEvent(events.EventBookingCreated, booking, user.Username, "")
	s.enqueueSync(ctx, booking, models.SyncTaskUpsert)

	return booking, nil, nil
}

// ListBookings returns the session user's bookings, most recent first.
func (s *BookingService) ListBookings(ctx context.Context) ([]*models.TravelBooking, error) {
	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.GetUserBookings(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	metrics.IncBookingOp("list")
	return bookings, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.TravelBooking, error) {
	_, booking, err := s.ownedBooking(ctx, id)
	return booking, err
}

// UpdateBooking validates the edit form and replaces the booking's fields.
// Amount and status are kept from the stored row.
func (s *BookingService) UpdateBooking(ctx context.Context, id int64, in validation.BookingInput) (*models.TravelBooking, validation.FieldErrors, error) {
	user, booking, err := s.ownedBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if errs := validation.ValidateBooking(in); errs.HasErrors() {
		return nil, errs, nil
	}

	in.ApplyTo(booking)
	if err := s.repo.UpdateBooking(ctx, booking); err != nil {
		return nil, nil, fmt.Errorf("update booking: %w", err)
	}
	metrics.IncBookingOp("update")

	s.publishEvent(events.EventBookingUpdated, booking, user.Username, "")
	s.enqueueSync(ctx, booking, models.SyncTaskUpsert)

	return booking, nil, nil
}

// UpdateStatus patches only the status. Any non-empty text is accepted.
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, status string) (*models.TravelBooking, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, ErrInvalidStatus
	}

	user, booking, err := s.ownedBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := booking.BookingStatus
	if err := s.repo.UpdateBookingStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	booking.BookingStatus = status
	metrics.IncBookingOp("update_status")

	if !models.IsKnownStatus(status) {
		s.logger.Warn().Int64("booking_id", id).Str("status", status).Msg("Booking moved to unknown status")
	}

	s.publishEvent(events.EventBookingStatusChanged, booking, user.Username, previous)
	s.enqueueSync(ctx, booking, models.SyncTaskUpdateStatus)

	return booking, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, id int64) error {
	user, booking, err := s.ownedBooking(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	metrics.IncBookingOp("delete")

	s.logger.Info().Int64("booking_id", id).Str("username", user.Username).Msg("Booking deleted")
	s.publishEvent(events.EventBookingDeleted, booking, user.Username, "")
	s.enqueueSync(ctx, booking, models.SyncTaskDelete)

	return nil
}

func (s *BookingService) CountBookings(ctx context.Context) (int, error) {
	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUserBookings(ctx, user.ID)
}

// ExportBookings writes the session user's bookings to w as an XLSX workbook
// and returns the suggested file name.
func (s *BookingService) ExportBookings(ctx context.Context, w io.Writer) (string, error) {
	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	bookings, err := s.repo.GetUserBookings(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if err := export.WriteBookings(w, bookings); err != nil {
		return "", err
	}
	metrics.IncBookingOp("export")
	return export.FileName(user.Username), nil
}

func (s *BookingService) ownedBooking(ctx context.Context, id int64) (*models.User, *models.TravelBooking, error) {
	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !booking.IsOwnedBy(user.ID) {
		return nil, nil, ErrForbidden
	}
	return user, booking, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.TravelBooking, username, previousStatus string) {
	payload := events.NewBookingPayload(booking, username)
	payload.PreviousStatus = previousStatus
	publish(s.eventBus, s.logger, eventType, payload)
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.TravelBooking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	var status string
	if taskType == models.SyncTaskUpdateStatus {
		status = booking.BookingStatus
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, booking.ID, booking, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}

func publish(bus domain.EventPublisher, logger *zerolog.Logger, eventType string, payload interface{}) {
	if bus == nil {
		return
	}
	if err := bus.PublishJSON(eventType, payload); err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
