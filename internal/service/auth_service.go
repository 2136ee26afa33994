package service

import (
	"context"
	"errors"
	"fmt"

	"traveler/internal/database"
	"traveler/internal/domain"
	"traveler/internal/events"
	"traveler/internal/metrics"
	"traveler/internal/models"
	"traveler/internal/validation"

	"github.com/rs/zerolog"
)

type AuthService struct {
	users    domain.CredentialStore
	session  domain.SessionState
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewAuthService(users domain.CredentialStore, session domain.SessionState, eventBus domain.EventPublisher, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		session:  session,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Register validates the form, checks uniqueness and creates the account.
// Field problems come back as FieldErrors; err is reserved for storage failures.
func (s *AuthService) Register(ctx context.Context, in validation.RegistrationInput) (validation.FieldErrors, error) {
	errs := validation.ValidateRegistration(in)
	if errs.HasErrors() {
		metrics.IncAuth("register", "invalid")
		return errs, nil
	}
	in = in.Trimmed()

	taken, err := s.users.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		metrics.IncAuth("register", "duplicate")
		return validation.FieldErrors{validation.FieldUsername: "Username already exists"}, nil
	}

	taken, err = s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		metrics.IncAuth("register", "duplicate")
		return validation.FieldErrors{validation.FieldEmail: "Email already exists"}, nil
	}

	user := &models.User{Username: in.Username, Email: in.Email, Password: in.Password}
	err = s.users.RegisterUser(ctx, user)
	switch {
	case errors.Is(err, database.ErrUsernameTaken):
		metrics.IncAuth("register", "duplicate")
		return validation.FieldErrors{validation.FieldUsername: "Username already exists"}, nil
	case errors.Is(err, database.ErrEmailTaken):
		metrics.IncAuth("register", "duplicate")
		return validation.FieldErrors{validation.FieldEmail: "Email already exists"}, nil
	case err != nil:
		metrics.IncAuth("register", "error")
		return nil, fmt.Errorf("register user: %w", err)
	}

	metrics.IncAuth("register", "success")
	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")

	publish(s.eventBus, s.logger, events.EventUserRegistered,
		events.UserEventPayload{UserID: user.ID, Username: user.Username, Email: user.Email})
	return nil, nil
}

// Login verifies the credentials and opens the session with the stored email.
func (s *AuthService) Login(ctx context.Context, in validation.LoginInput) (validation.FieldErrors, error) {
	errs := validation.ValidateLogin(in)
	if errs.HasErrors() {
		metrics.IncAuth("login", "invalid")
		return errs, nil
	}
	in = in.Trimmed()

	ok, err := s.users.LoginUser(ctx, in.Username, in.Password)
	if err != nil {
		metrics.IncAuth("login", "error")
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		metrics.IncAuth("login", "rejected")
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUser(ctx, in.Username)
	if err != nil {
		metrics.IncAuth("login", "error")
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.session.Login(ctx, user.Username, user.Email); err != nil {
		metrics.IncAuth("login", "error")
		return nil, err
	}

	metrics.IncAuth("login", "success")
	s.logger.Info().Str("username", user.Username).Msg("User logged in")
	return nil, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	username := s.session.CurrentUsername()
	if err := s.session.Logout(ctx); err != nil {
		return err
	}
	if username != "" {
		s.logger.Info().Str("username", username).Msg("User logged out")
	}
	return nil
}

// CurrentUser resolves the session user. A session pointing at a user that no
// longer exists, for example after a schema reset, is cleared.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	if !s.session.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}

	user, err := s.users.GetUser(ctx, s.session.CurrentUsername())
	if errors.Is(err, database.ErrUserNotFound) {
		if logoutErr := s.session.Logout(ctx); logoutErr != nil {
			s.logger.Warn().Err(logoutErr).Msg("Failed to clear stale session")
		}
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return user, nil
}
