package service

import (
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
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) RegisterUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) LoginUser(ctx context.Context, username, password string) (bool, error) {
	args := m.Called(ctx, username, password)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) GetUser(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockSession struct {
	mock.Mock
	loggedIn bool
	username string
	email    string
}

func (m *mockSession) Login(ctx context.Context, username, email string) error {
	if err := m.Called(ctx, username, email).Error(0); err != nil {
		return err
	}
	m.loggedIn, m.username, m.email = true, username, email
	return nil
}

func (m *mockSession) Logout(ctx context.Context) error {
	m.loggedIn, m.username, m.email = false, "", ""
	return m.Called(ctx).Error(0)
}

func (m *mockSession) IsLoggedIn() bool        { return m.loggedIn }
func (m *mockSession) CurrentUsername() string { return m.username }
func (m *mockSession) CurrentEmail() string    { return m.email }

type recordingBus struct {
	types    []string
	payloads []interface{}
}

func (b *recordingBus) PublishJSON(eventType string, payload interface{}) error {
	b.types = append(b.types, eventType)
	b.payloads = append(b.payloads, payload)
	return nil
}

func newAuthService(users *mockUsers, session *mockSession, bus *recordingBus) *AuthService {
	logger := zerolog.New(io.Discard)
	return NewAuthService(users, session, bus, &logger)
}

func validRegistration() validation.RegistrationInput {
	return validation.RegistrationInput{
		Username:        " alice ",
		Email:           "a@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		users := new(mockUsers)
		bus := &recordingBus{}
		s := newAuthService(users, new(mockSession), bus)

		users.On("UsernameExists", ctx, "alice").Return(false, nil).Once()
		users.On("EmailExists", ctx, "a@x.com").Return(false, nil).Once()
		users.On("RegisterUser", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "alice" && u.Email == "a@x.com" && u.Password == "secret1"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 42
		}).Return(nil).Once()

		errs, err := s.Register(ctx, validRegistration())
		require.NoError(t, err)
		assert.Empty(t, errs)
		users.AssertExpectations(t)

		require.Equal(t, []string{events.EventUserRegistered}, bus.types)
		assert.Equal(t, events.UserEventPayload{UserID: 42, Username: "alice", Email: "a@x.com"}, bus.payloads[0])
	})

	t.Run("ValidationStopsBeforeStore", func(t *testing.T) {
		users := new(mockUsers)
		s := newAuthService(users, new(mockSession), &recordingBus{})

		in := validRegistration()
		in.ConfirmPassword = "other12"
		errs, err := s.Register(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "Passwords do not match", errs[validation.FieldConfirmPassword])
		users.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything)
	})

	t.Run("UsernameExists", func(t *testing.T) {
		users := new(mockUsers)
		s := newAuthService(users, new(mockSession), &recordingBus{})
		users.On("UsernameExists", ctx, "alice").Return(true, nil).Once()

		errs, err := s.Register(ctx, validRegistration())
		require.NoError(t, err)
		assert.Equal(t, validation.FieldErrors{validation.FieldUsername: "Username already exists"}, errs)
		users.AssertNotCalled(t, "EmailExists", mock.Anything, mock.Anything)
	})

	t.Run("EmailExists", func(t *testing.T) {
		users := new(mockUsers)
		s := newAuthService(users, new(mockSession), &recordingBus{})
		users.On("UsernameExists", ctx, "alice").Return(false, nil).Once()
		users.On("EmailExists", ctx, "a@x.com").Return(true, nil).Once()

		errs, err := s.Register(ctx, validRegistration())
		require.NoError(t, err)
		assert.Equal(t, validation.FieldErrors{validation.FieldEmail: "Email already exists"}, errs)
	})

	t.Run("InsertRaceMapsToFieldError", func(t *testing.T) {
		users := new(mockUsers)
		s := newAuthService(users, new(mockSession), &recordingBus{})
		users.On("UsernameExists", ctx, "alice").Return(false, nil).Once()
		users.On("EmailExists", ctx, "a@x.com").Return(false, nil).Once()
		users.On("RegisterUser", ctx, mock.Anything).Return(database.ErrEmailTaken).Once()

		errs, err := s.Register(ctx, validRegistration())
		require.NoError(t, err)
		assert.Equal(t, "Email already exists", errs[validation.FieldEmail])
	})

	t.Run("StorageFailure", func(t *testing.T) {
		users := new(mockUsers)
		bus := &recordingBus{}
		s := newAuthService(users, new(mockSession), bus)
		users.On("UsernameExists", ctx, "alice").Return(false, nil).Once()
		users.On("EmailExists", ctx, "a@x.com").Return(false, nil).Once()
		users.On("RegisterUser", ctx, mock.Anything).Return(errors.New("disk I/O error")).Once()

		errs, err := s.Register(ctx, validRegistration())
		assert.Error(t, err)
		assert.Nil(t, errs)
		assert.Empty(t, bus.types)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		users := new(mockUsers)
		session := new(mockSession)
		s := newAuthService(users, session, &recordingBus{})

		users.On("LoginUser", ctx, "alice", "secret1").Return(true, nil).Once()
		users.On("GetUser", ctx, "alice").Return(&models.User{ID: 1, Username: "alice", Email: "a@x.com"}, nil).Once()
		session.On("Login", ctx, "alice", "a@x.com").Return(nil).Once()

		errs, err := s.Login(ctx, validation.LoginInput{Username: "alice ", Password: "secret1"})
		require.NoError(t, err)
		assert.Empty(t, errs)
		assert.True(t, session.IsLoggedIn())
		assert.Equal(t, "a@x.com", session.CurrentEmail())
		session.AssertExpectations(t)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		users := new(mockUsers)
		session := new(mockSession)
		s := newAuthService(users, session, &recordingBus{})
		users.On("LoginUser", ctx, "alice", "nope").Return(false, nil).Once()

		_, err := s.Login(ctx, validation.LoginInput{Username: "alice", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.False(t, session.IsLoggedIn())
	})

	t.Run("MissingFields", func(t *testing.T) {
		s := newAuthService(new(mockUsers), new(mockSession), &recordingBus{})
		errs, err := s.Login(ctx, validation.LoginInput{})
		require.NoError(t, err)
		assert.Equal(t, "Username is required", errs[validation.FieldUsername])
		assert.Equal(t, "Password is required", errs[validation.FieldPassword])
	})
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("NotLoggedIn", func(t *testing.T) {
		s := newAuthService(new(mockUsers), new(mockSession), &recordingBus{})
		_, err := s.CurrentUser(ctx)
		assert.ErrorIs(t, err, ErrNotLoggedIn)
	})

	t.Run("StaleSessionIsCleared", func(t *testing.T) {
		users := new(mockUsers)
		session := &mockSession{loggedIn: true, username: "ghost"}
		s := newAuthService(users, session, &recordingBus{})
		users.On("GetUser", ctx, "ghost").Return(nil, database.ErrUserNotFound).Once()
		session.On("Logout", ctx).Return(nil).Once()

		_, err := s.CurrentUser(ctx)
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.False(t, session.IsLoggedIn())
		session.AssertExpectations(t)
	})

	t.Run("Logout", func(t *testing.T) {
		session := &mockSession{loggedIn: true, username: "alice"}
		s := newAuthService(new(mockUsers), session, &recordingBus{})
		session.On("Logout", ctx).Return(nil).Once()

		require.NoError(t, s.Logout(ctx))
		assert.False(t, session.IsLoggedIn())
	})
}
