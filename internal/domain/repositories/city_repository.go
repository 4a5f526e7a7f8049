package repositories

import (
	"context"

	"github.com/lawyerhours/backend/internal/domain/entities"
)

// CityRepository defines the interface for city persistence
type CityRepository interface {
	// GetBySlug retrieves a city by slug
	GetBySlug(ctx context.Context, slug string) (*entities.City, error)

	// Create inserts a city and sets its ID
	Create(ctx context.Context, city *entities.City) error

	// Upsert inserts or updates a city keyed by slug
	Upsert(ctx context.Context, city *entities.City) error

	// ListByState returns the cities of a state ordered by population descending
	ListByState(ctx context.Context, stateSlug string) ([]*entities.City, error)

	// List returns all cities ordered by population descending
	List(ctx context.Context) ([]*entities.City, error)
}
