package entities

import (
	"fmt"
	"time"
)

// City represents a directory city; population and geography are static reference data.
type City struct {
	ID         int64     `json:"id" db:"id"`
	Slug       string    `json:"slug" db:"slug"`
	Name       string    `json:"name" db:"name"`
	StateCode  string    `json:"state_code" db:"state_code"`
	StateName  string    `json:"state_name" db:"state_name"`
	StateSlug  string    `json:"state_slug" db:"state_slug"`
	Location   Location  `json:"location" db:"-"`
	Population int       `json:"population" db:"population"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Label renders "Name, ST".
func (c *City) Label() string {
	return fmt.Sprintf("%s, %s", c.Name, c.StateCode)
}

// PracticeArea is one entry of the practice-area taxonomy.
type PracticeArea struct {
	Slug        string   `json:"slug"`
	DisplayName string   `json:"display_name"`
	Keywords    []string `json:"keywords"`
	Urgency     string   `json:"urgency"`
	Emergency   bool     `json:"emergency"`
}

// CityRefreshStatus classifies how recent a city's data is.
type CityRefreshStatus string

const (
	CityStatusNeverFetched CityRefreshStatus = "never_fetched"
	CityStatusFresh        CityRefreshStatus = "fresh"
	CityStatusStale        CityRefreshStatus = "stale"
	CityStatusVeryStale    CityRefreshStatus = "very_stale"
)

// CityStatus describes the stored data for one city.
type CityStatus struct {
	Name                string            `json:"name"`
	StateCode           string            `json:"state_code"`
	Slug                string            `json:"slug"`
	Population          int               `json:"population"`
	TotalBusinesses     int               `json:"total_businesses"`
	BusinessesWithHours int               `json:"businesses_with_hours"`
	LastRefresh         *time.Time        `json:"last_refresh"`
	HoursSinceRefresh   *float64          `json:"hours_since_refresh"`
	Status              CityRefreshStatus `json:"status"`
}

// RefreshStatusSummary aggregates city statuses across the catalog.
type RefreshStatusSummary struct {
	APIKeyConfigured    bool         `json:"api_key_configured"`
	TotalCities         int          `json:"total_cities"`
	CitiesFetched       int          `json:"cities_fetched"`
	CitiesNeverFetched  int          `json:"cities_never_fetched"`
	CitiesFresh         int          `json:"cities_fresh"`
	CitiesStale         int          `json:"cities_stale"`
	TotalBusinesses     int          `json:"total_businesses"`
	BusinessesWithHours int          `json:"businesses_with_hours"`
	TotalHourWindows    int          `json:"total_hour_windows"`
	Cities              []CityStatus `json:"cities"`
}
