package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"traveler/internal/database"
	"traveler/internal/events"
	"traveler/internal/models"
	"traveler/internal/validation"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) CreateBooking(ctx context.Context, b *models.TravelBooking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookings) GetUserBookings(ctx context.Context, userID int64) ([]*models.TravelBooking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TravelBooking), args.Error(1)
}

func (m *mockBookings) GetBooking(ctx context.Context, id int64) (*models.TravelBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TravelBooking), args.Error(1)
}

func (m *mockBookings) UpdateBooking(ctx context.Context, b *models.TravelBooking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookings) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockBookings) DeleteBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBookings) CountUserBookings(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, b *models.TravelBooking, status string) error {
	return m.Called(ctx, taskType, bookingID, b, status).Error(0)
}

type fixedUser struct {
	user *models.User
	err  error
}

func (f fixedUser) CurrentUser(context.Context) (*models.User, error) {
	return f.user, f.err
}

var alice = &models.User{ID: 1, Username: "alice", Email: "a@x.com"}

func validBookingInput() validation.BookingInput {
	return validation.BookingInput{
		Destination:       "Lisbon",
		DepartureLocation: "Berlin",
		CheckInDate:       "10/06/2025",
		CheckOutDate:      "15/06/2025",
		NumberOfGuests:    "5",
		AccommodationType: "Hotel",
		RoomType:          "Family Room",
		ContactName:       "alice",
		ContactEmail:      "a@x.com",
		ContactPhone:      "+351912345678",
	}
}

func newBookingService(repo *mockBookings, worker *mockSyncWorker, bus *recordingBus, users UserResolver) *BookingService {
	logger := zerolog.New(io.Discard)
	return NewBookingService(users, repo, bus, worker, &logger)
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(mockBookings)
		worker := new(mockSyncWorker)
		bus := &recordingBus{}
		s := newBookingService(repo, worker, bus, fixedUser{user: alice})

		repo.On("CreateBooking", ctx, mock.MatchedBy(func(b *models.TravelBooking) bool {
			return b.UserID == 1 && b.NumberOfGuests == 5 && b.BookingStatus == models.StatusPending
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.TravelBooking).ID = 10
		}).Return(nil).Once()
		worker.On("EnqueueTask", ctx, models.SyncTaskUpsert, int64(10), mock.Anything, "").Return(nil).Once()

		booking, errs, err := s.CreateBooking(ctx, validBookingInput())
		require.NoError(t, err)
		assert.Empty(t, errs)
		assert.Equal(t, int64(10), booking.ID)
		repo.AssertExpectations(t)
		worker.AssertExpectations(t)

		require.Equal(t, []string{events.EventBookingCreated}, bus.types)
		payload := bus.payloads[0].(events.BookingEventPayload)
		assert.Equal(t, "alice", payload.Username)
		assert.Equal(t, "Lisbon", payload.Destination)
	})

	t.Run("GuestsOutOfRangeNeverReachStore", func(t *testing.T) {
		for _, guests := range []string{"0", "21", "abc"} {
			repo := new(mockBookings)
			s := newBookingService(repo, new(mockSyncWorker), &recordingBus{}, fixedUser{user: alice})

			in := validBookingInput()
			in.NumberOfGuests = validation.GuestCount(guests)
			booking, errs, err := s.CreateBooking(ctx, in)
			require.NoError(t, err)
			assert.Nil(t, booking)
			assert.Contains(t, errs, validation.FieldNumberOfGuests)
			repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
		}
	})

	t.Run("NotLoggedIn", func(t *testing.T) {
		repo := new(mockBookings)
		s := newBookingService(repo, new(mockSyncWorker), &recordingBus{}, fixedUser{err: ErrNotLoggedIn})

		_, _, err := s.CreateBooking(ctx, validBookingInput())
		assert.ErrorIs(t, err, ErrNotLoggedIn)
	})

	t.Run("EnqueueFailureDoesNotFailCreate", func(t *testing.T) {
		repo := new(mockBookings)
		worker := new(mockSyncWorker)
		s := newBookingService(repo, worker, &recordingBus{}, fixedUser{user: alice})
		repo.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
		worker.On("EnqueueTask", ctx, models.SyncTaskUpsert, mock.Anything, mock.Anything, "").Return(errors.New("queue full")).Once()

		_, _, err := s.CreateBooking(ctx, validBookingInput())
		assert.NoError(t, err)
	})
}

func TestBookingService_Ownership(t *testing.T) {
	ctx := context.Background()
	foreign := &models.TravelBooking{ID: 5, UserID: 2, BookingStatus: models.StatusPending}

	repo := new(mockBookings)
	s := newBookingService(repo, new(mockSyncWorker), &recordingBus{}, fixedUser{user: alice})
	repo.On("GetBooking", ctx, int64(5)).Return(foreign, nil)

	_, err := s.GetBooking(ctx, 5)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = s.UpdateBooking(ctx, 5, validBookingInput())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.UpdateStatus(ctx, 5, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, s.DeleteBooking(ctx, 5), ErrForbidden)

	repo.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "DeleteBooking", mock.Anything, mock.Anything)
}

func TestBookingService_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mockBookings)
	s := newBookingService(repo, new(mockSyncWorker), &recordingBus{}, fixedUser{user: alice})
	repo.On("GetBooking", ctx, int64(404)).Return(nil, database.ErrBookingNotFound)

	_, err := s.GetBooking(ctx, 404)
	assert.ErrorIs(t, err, database.ErrBookingNotFound)
}

func TestBookingService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := new(mockBookings)
	worker := new(mockSyncWorker)
	bus := &recordingBus{}
	s := newBookingService(repo, worker, bus, fixedUser{user: alice})

	stored := &models.TravelBooking{ID: 3, UserID: 1, BookingStatus: models.StatusPending}
	repo.On("GetBooking", ctx, int64(3)).Return(stored, nil).Once()
	repo.On("UpdateBookingStatus", ctx, int64(3), models.StatusConfirmed).Return(nil).Once()
	worker.On("EnqueueTask", ctx, models.SyncTaskUpdateStatus, int64(3), mock.Anything, models.StatusConfirmed).Return(nil).Once()

	booking, err := s.UpdateStatus(ctx, 3, " Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, booking.BookingStatus)
	worker.AssertExpectations(t)

	payload := bus.payloads[0].(events.BookingEventPayload)
	assert.Equal(t, models.StatusPending, payload.PreviousStatus)
	assert.Equal(t, models.StatusConfirmed, payload.Status)

	_, err = s.UpdateStatus(ctx, 3, "  ")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestBookingService_WithoutOptionalCollaborators(t *testing.T) {
	ctx := context.Background()
	repo := new(mockBookings)
	logger := zerolog.New(io.Discard)
	s := NewBookingService(fixedUser{user: alice}, repo, nil, nil, &logger)

	repo.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
	_, errs, err := s.CreateBooking(ctx, validBookingInput())
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestBookingService_PrefillAndExport(t *testing.T) {
	ctx := context.Background()
	repo := new(mockBookings)
	s := newBookingService(repo, new(mockSyncWorker), &recordingBus{}, fixedUser{user: alice})

	prefill, err := s.Prefill(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ContactPrefill{ContactName: "alice", ContactEmail: "a@x.com"}, prefill)

	repo.On("GetUserBookings", ctx, int64(1)).Return([]*models.TravelBooking{
		{ID: 1, UserID: 1, Destination: "Lisbon", NumberOfGuests: 2},
	}, nil).Once()

	var buf bytes.Buffer
	name, err := s.ExportBookings(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, "bookings_alice.xlsx", name)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
