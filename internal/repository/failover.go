package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"traveler/internal/domain"
	"traveler/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// pendingSync is implemented by fallback stores that remember, across
// restarts, that they hold writes the primary has not seen.
type pendingSync interface {
	SetPending(ctx context.Context, pending bool) error
	Pending(ctx context.Context) (bool, error)
}

// FailoverSessionRepository serves from the fallback while the primary is failing
// and retries the primary once per recoveryInterval. Writes that miss the
// primary are replayed onto it before it is read again.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	pending   atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary session repository failed, using fallback")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

// usePrimary reports whether the call should go to the primary, either
// because it is healthy or because a recovery attempt is due.
func (r *FailoverSessionRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverSessionRepository) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session repository recovered")
	}
}

func (r *FailoverSessionRepository) setPending(ctx context.Context, pending bool) {
	r.pending.Store(pending)
	if p, ok := r.fallback.(pendingSync); ok {
		if err := p.SetPending(ctx, pending); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to persist session sync marker")
		}
	}
}

func (r *FailoverSessionRepository) hasPending(ctx context.Context) bool {
	if r.pending.Load() {
		return true
	}
	p, ok := r.fallback.(pendingSync)
	if !ok {
		return false
	}
	pending, err := p.Pending(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to read session sync marker")
		return false
	}
	return pending
}

// syncPrimary copies the fallback state onto the primary. A missing fallback
// session clears the primary.
func (r *FailoverSessionRepository) syncPrimary(ctx context.Context) error {
	session, err := r.fallback.Get(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		err = r.primary.Clear(ctx)
	} else {
		err = r.primary.Save(ctx, session)
	}
	if err != nil {
		return err
	}
	r.setPending(ctx, false)
	r.logger.Info().Msg("Session state replayed onto primary repository")
	return nil
}

func (r *FailoverSessionRepository) Get(ctx context.Context) (*models.Session, error) {
	if r.usePrimary() {
		if r.hasPending(ctx) {
			if err := r.syncPrimary(ctx); err != nil {
				r.markDown(err)
				return r.fallback.Get(ctx)
			}
		}
		session, err := r.primary.Get(ctx)
		if err == nil {
			r.recovered()
			return session, nil
		}
		r.markDown(err)
	}

	return r.fallback.Get(ctx)
}

func (r *FailoverSessionRepository) Save(ctx context.Context, session *models.Session) error {
	// The fallback always holds the latest state.
	if err := r.fallback.Save(ctx, session); err != nil {
		return err
	}
	if r.usePrimary() {
		err := r.primary.Save(ctx, session)
		if err == nil {
			r.recovered()
			if r.hasPending(ctx) {
				r.setPending(ctx, false)
			}
			return nil
		}
		r.markDown(err)
	}
	r.setPending(ctx, true)
	return nil
}

func (r *FailoverSessionRepository) Clear(ctx context.Context) error {
	if err := r.fallback.Clear(ctx); err != nil {
		return err
	}
	if r.usePrimary() {
		err := r.primary.Clear(ctx)
		if err == nil {
			r.recovered()
			if r.hasPending(ctx) {
				r.setPending(ctx, false)
			}
			return nil
		}
		r.markDown(err)
	}
	r.setPending(ctx, true)
	return nil
}
