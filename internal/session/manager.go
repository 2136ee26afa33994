// Package session holds the process-wide login flags that gate access to bookings.
package session

import (
	"context"
	"fmt"
	"sync"

	"traveler/internal/domain"
	"traveler/internal/models"

	"github.com/rs/zerolog"
)

// Manager caches the session flag set in memory and writes every change through
// to its repository. Load must be called once before use; until then every
// reader sees the defaults.
type Manager struct {
	repo   domain.SessionRepository
	logger *zerolog.Logger

	mu      sync.RWMutex
	current models.Session
}

func NewManager(repo domain.SessionRepository, logger *zerolog.Logger) *Manager {
	return &Manager{repo: repo, logger: logger}
}

// Load reads the persisted flags, falling back to the defaults when nothing is stored.
func (m *Manager) Load(ctx context.Context) error {
	stored, err := m.repo.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if stored == nil {
		m.current = models.Session{}
		return nil
	}
	m.current = *stored
	m.logger.Debug().Bool("logged_in", stored.IsLoggedIn).Str("username", stored.Username).Msg("Session loaded")
	return nil
}

func (m *Manager) Login(ctx context.Context, username, email string) error {
	next := models.Session{IsLoggedIn: true, Username: username, Email: email}
	if err := m.repo.Save(ctx, &next); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()
	return nil
}

func (m *Manager) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.IsLoggedIn
}

func (m *Manager) CurrentUsername() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Username
}

func (m *Manager) CurrentEmail() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Email
}

// Snapshot returns a copy of the current flags.
func (m *Manager) Snapshot() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Logout clears every key. The in-memory flags are reset even when the
// repository fails so the process stops treating the user as logged in.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = models.Session{}
	m.mu.Unlock()

	if err := m.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
