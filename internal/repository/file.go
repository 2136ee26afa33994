package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"traveler/internal/models"

	"gopkg.in/yaml.v3"
)

// FileSessionRepository stores the session flag set as a small YAML document.
// Writes go to a temp file that is renamed over the target.
type FileSessionRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileSessionRepository(path string) *FileSessionRepository {
	return &FileSessionRepository{path: path}
}

func (r *FileSessionRepository) Get(_ context.Context) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session models.Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *FileSessionRepository) Save(_ context.Context, session *models.Session) error {
	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (r *FileSessionRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (r *FileSessionRepository) pendingPath() string {
	return r.path + ".pending"
}

// SetPending creates or removes a marker file next to the session file.
func (r *FileSessionRepository) SetPending(_ context.Context, pending bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !pending {
		if err := os.Remove(r.pendingPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove sync marker: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(r.pendingPath(), nil, 0o600); err != nil {
		return fmt.Errorf("failed to write sync marker: %w", err)
	}
	return nil
}

func (r *FileSessionRepository) Pending(_ context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := os.Stat(r.pendingPath())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat sync marker: %w", err)
	}
	return true, nil
}
