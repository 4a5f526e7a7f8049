package repositories

import (
	"context"
	"time"

	"github.com/lawyerhours/backend/internal/domain/entities"
)

// BusinessRepository defines the interface for attorney office persistence
type BusinessRepository interface {
	// GetBySourceID retrieves a business by its provider id
	GetBySourceID(ctx context.Context, sourceID string) (*entities.Business, error)

	// Create inserts a business together with its hour windows
	Create(ctx context.Context, business *entities.Business) error

	// Update overwrites all fields and replaces the hour windows wholesale
	Update(ctx context.Context, business *entities.Business) error

	// ListByCity returns the businesses of a city with hours loaded
	ListByCity(ctx context.Context, cityID int64, filter BusinessFilter) ([]*entities.Business, error)

	// CountByCity counts businesses in a city
	CountByCity(ctx context.Context, cityID int64) (int, error)

	// LatestRefresh returns the newest LastAPIRefresh in a city, nil when none
	LatestRefresh(ctx context.Context, cityID int64) (*time.Time, error)

	// CountWithHours counts businesses having at least one hour window; cityID 0 means all cities
	CountWithHours(ctx context.Context, cityID int64) (int, error)

	// CountHourWindows counts stored hour windows across all cities
	CountHourWindows(ctx context.Context) (int, error)
}

// BusinessFilter narrows a city listing
type BusinessFilter struct {
	PracticeArea string
	Limit        int
	Offset       int
}
