package repository

import (
	"context"
	"sync"

	"traveler/internal/models"
)

type MemorySessionRepository struct {
	mu      sync.RWMutex
	session *models.Session
	pending bool
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{}
}

func (r *MemorySessionRepository) Get(_ context.Context) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.session == nil {
		return nil, nil
	}
	copied := *r.session
	return &copied, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, session *models.Session) error {
	copied := *session
	r.mu.Lock()
	r.session = &copied
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	r.session = nil
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) SetPending(_ context.Context, pending bool) error {
	r.mu.Lock()
	r.pending = pending
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Pending(_ context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending, nil
}
