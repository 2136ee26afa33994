package service

import (
	"fmt"
	"os"
	"sync"

	"traveler/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// CatalogService serves the accommodation and room type suggestions of the
// booking form. The lists are hints only and never restrict input.
type CatalogService struct {
	logger  *zerolog.Logger
	catalog models.Catalog
	mu      sync.RWMutex
}

func NewCatalogService(catalog models.Catalog, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{
		logger:  logger,
		catalog: catalog.WithDefaults(),
	}
}

// LoadCatalog reads a catalog file. Missing lists fall back to the built-in ones.
func LoadCatalog(path string) (models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var catalog models.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return models.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return catalog.WithDefaults(), nil
}

func (s *CatalogService) Catalog() models.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Catalog{
		AccommodationTypes: append([]string(nil), s.catalog.AccommodationTypes...),
		RoomTypes:          append([]string(nil), s.catalog.RoomTypes...),
	}
}

// Reload replaces the lists from path, keeping the current ones on failure.
func (s *CatalogService) Reload(path string) error {
	catalog, err := LoadCatalog(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()

	s.logger.Info().
		Int("accommodation_types", len(catalog.AccommodationTypes)).
		Int("room_types", len(catalog.RoomTypes)).
		Msg("Catalog reloaded")
	return nil
}
