package entities

import (
	"time"
)

// RefreshEventType identifies a bulk refresh progress event
type RefreshEventType string

const (
	RefreshEventStart        RefreshEventType = "start"
	RefreshEventCityStart    RefreshEventType = "city_start"
	RefreshEventCityComplete RefreshEventType = "city_complete"
	RefreshEventCitySkip     RefreshEventType = "city_skip"
	RefreshEventCityError    RefreshEventType = "city_error"
	RefreshEventComplete     RefreshEventType = "complete"
)

// RefreshPhase tracks a single city refresh.
type RefreshPhase string

const (
	PhaseNotStarted        RefreshPhase = "not_started"
	PhaseCheckingStaleness RefreshPhase = "checking_staleness"
	PhaseSkipped           RefreshPhase = "skipped"
	PhaseFetching          RefreshPhase = "fetching"
	PhaseParsing           RefreshPhase = "parsing"
	PhaseUpserting         RefreshPhase = "upserting"
	PhaseComplete          RefreshPhase = "complete"
	PhaseError             RefreshPhase = "error"
)

// FetchStrategy selects how a city is covered by nearby searches.
type FetchStrategy string

const (
	StrategyGrid        FetchStrategy = "grid"
	StrategyMultiRadius FetchStrategy = "multi-radius"
	StrategySingle      FetchStrategy = "single"
)

// Valid reports whether s is a known strategy.
func (s FetchStrategy) Valid() bool {
	switch s {
	case StrategyGrid, StrategyMultiRadius, StrategySingle:
		return true
	}
	return false
}

// RefreshEvent is one ordered progress record of a bulk refresh.
// Only the fields relevant to Type are populated.
type RefreshEvent struct {
	Type      RefreshEventType `json:"type"`
	RunID     string           `json:"run_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`

	TotalCities int    `json:"total_cities,omitempty"`
	Index       int    `json:"index,omitempty"`
	Total       int    `json:"total,omitempty"`
	City        string `json:"city,omitempty"`
	CitySlug    string `json:"city_slug,omitempty"`

	TotalFromAPI  int           `json:"total_from_api,omitempty"`
	Created       int           `json:"created,omitempty"`
	Updated       int           `json:"updated,omitempty"`
	Skipped       int           `json:"skipped,omitempty"`
	DurationMs    int64         `json:"duration_ms,omitempty"`
	Strategy      FetchStrategy `json:"strategy,omitempty"`
	APICalls      int           `json:"api_calls,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	ExistingCount int           `json:"existing_count,omitempty"`
	Error         string        `json:"error,omitempty"`

	Summary *BulkSummary `json:"summary,omitempty"`
}

// BulkSummary closes a bulk run.
type BulkSummary struct {
	CitiesComplete int   `json:"cities_complete"`
	CitiesSkipped  int   `json:"cities_skipped"`
	CitiesError    int   `json:"cities_error"`
	TotalCreated   int   `json:"total_created"`
	TotalUpdated   int   `json:"total_updated"`
	TotalSkipped   int   `json:"total_skipped"`
	TotalAPICalls  int   `json:"total_api_calls"`
	DurationMs     int64 `json:"duration_ms"`
}
