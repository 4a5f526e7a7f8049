package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/repositories"
	"github.com/lawyerhours/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
)

const citySelect = `SELECT id, slug, name, state_code, state_name, state_slug,
	latitude, longitude, population, created_at FROM cities`

const cityInsert = `INSERT INTO cities
	(slug, name, state_code, state_name, state_slug, latitude, longitude, population, created_at)
	VALUES (:slug, :name, :state_code, :state_name, :state_slug, :latitude, :longitude, :population, :created_at)`

const cityUpsert = cityInsert + `
	ON CONFLICT (slug) DO UPDATE SET
		name = EXCLUDED.name,
		state_code = EXCLUDED.state_code,
		state_name = EXCLUDED.state_name,
		state_slug = EXCLUDED.state_slug,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		population = EXCLUDED.population`

// cityRow flattens the city location for column mapping.
type cityRow struct {
	ID         int64     `db:"id"`
	Slug       string    `db:"slug"`
	Name       string    `db:"name"`
	StateCode  string    `db:"state_code"`
	StateName  string    `db:"state_name"`
	StateSlug  string    `db:"state_slug"`
	Latitude   float64   `db:"latitude"`
	Longitude  float64   `db:"longitude"`
	Population int       `db:"population"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r cityRow) toEntity() *entities.City {
	return &entities.City{
		ID:         r.ID,
		Slug:       r.Slug,
		Name:       r.Name,
		StateCode:  r.StateCode,
		StateName:  r.StateName,
		StateSlug:  r.StateSlug,
		Location:   entities.Location{Latitude: r.Latitude, Longitude: r.Longitude},
		Population: r.Population,
		CreatedAt:  r.CreatedAt,
	}
}

func rowFromCity(c *entities.City) cityRow {
	return cityRow{
		ID:         c.ID,
		Slug:       c.Slug,
		Name:       c.Name,
		StateCode:  c.StateCode,
		StateName:  c.StateName,
		StateSlug:  c.StateSlug,
		Latitude:   c.Location.Latitude,
		Longitude:  c.Location.Longitude,
		Population: c.Population,
		CreatedAt:  c.CreatedAt,
	}
}

// CityAdapter implements CityRepository with sqlx
type CityAdapter struct {
	db *sqlx.DB
}

// NewCityAdapter creates a new city adapter
func NewCityAdapter(client *postgres.Client) repositories.CityRepository {
	return &CityAdapter{db: sqlx.NewDb(client.DB(), "postgres")}
}

// GetBySlug retrieves a city by slug
func (a *CityAdapter) GetBySlug(ctx context.Context, slug string) (*entities.City, error) {
	var row cityRow
	err := a.db.GetContext(ctx, &row, citySelect+` WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("city %s not found", slug))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get city", err)
	}
	return row.toEntity(), nil
}

// Create inserts a city and sets its ID
func (a *CityAdapter) Create(ctx context.Context, city *entities.City) error {
	return a.write(ctx, cityInsert, city)
}

// Upsert inserts a city or refreshes its reference fields, keyed by slug
func (a *CityAdapter) Upsert(ctx context.Context, city *entities.City) error {
	return a.write(ctx, cityUpsert, city)
}

func (a *CityAdapter) write(ctx context.Context, statement string, city *entities.City) error {
	if city.CreatedAt.IsZero() {
		city.CreatedAt = time.Now()
	}
	query, args, err := a.db.BindNamed(statement+` RETURNING id`, rowFromCity(city))
	if err != nil {
		return apperrors.NewInternalError("failed to bind city query", err)
	}
	if err := a.db.QueryRowxContext(ctx, query, args...).Scan(&city.ID); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to write city %s", city.Slug), err)
	}
	return nil
}

// ListByState returns a state's cities, most populous first
func (a *CityAdapter) ListByState(ctx context.Context, stateSlug string) ([]*entities.City, error) {
	return a.list(ctx, citySelect+` WHERE state_slug = $1 ORDER BY population DESC, slug`, stateSlug)
}

// List returns every city, most populous first
func (a *CityAdapter) List(ctx context.Context) ([]*entities.City, error) {
	return a.list(ctx, citySelect+` ORDER BY population DESC, slug`)
}

func (a *CityAdapter) list(ctx context.Context, query string, args ...interface{}) ([]*entities.City, error) {
	var rows []cityRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list cities", err)
	}
	cities := make([]*entities.City, 0, len(rows))
	for _, row := range rows {
		cities = append(cities, row.toEntity())
	}
	return cities, nil
}
