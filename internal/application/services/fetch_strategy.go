package services

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
)

// Population thresholds for strategy selection.
const (
	GridPopulationThreshold        = 1_000_000
	MultiRadiusPopulationThreshold = 300_000
)

const (
	earthRadiusMeters  = 6371000.0
	gridOffsetMeters   = 8000.0
	gridRadiusMeters   = 10000.0
	singleRadiusMeters = 25000.0
	defaultMaxResults  = 20
)

var multiRadiusMeters = []float64{5000, 10000, 25000, 40000}

// gridBearings are north, east, south and west in degrees.
var gridBearings = []float64{0, 90, 180, 270}

// SelectStrategy picks a coverage strategy from population.
func SelectStrategy(population int) entities.FetchStrategy {
	switch {
	case population > GridPopulationThreshold:
		return entities.StrategyGrid
	case population > MultiRadiusPopulationThreshold:
		return entities.StrategyMultiRadius
	default:
		return entities.StrategySingle
	}
}

// PlanQueries expands a strategy into the nearby searches to issue, in order.
func PlanQueries(strategy entities.FetchStrategy, center entities.Location, maxResults int) []providers.NearbyQuery {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	query := func(loc entities.Location, radius float64) providers.NearbyQuery {
		return providers.NearbyQuery{
			Latitude:     loc.Latitude,
			Longitude:    loc.Longitude,
			RadiusMeters: radius,
			MaxResults:   maxResults,
		}
	}

	switch strategy {
	case entities.StrategyGrid:
		queries := []providers.NearbyQuery{query(center, gridRadiusMeters)}
		for _, bearing := range gridBearings {
			queries = append(queries, query(destinationPoint(center, bearing, gridOffsetMeters), gridRadiusMeters))
		}
		return queries
	case entities.StrategyMultiRadius:
		queries := make([]providers.NearbyQuery, 0, len(multiRadiusMeters))
		for _, radius := range multiRadiusMeters {
			queries = append(queries, query(center, radius))
		}
		return queries
	default:
		return []providers.NearbyQuery{query(center, singleRadiusMeters)}
	}
}

// destinationPoint moves distance meters from origin along an initial bearing.
func destinationPoint(origin entities.Location, bearing, distance float64) entities.Location {
	p := s2.LatLngFromDegrees(origin.Latitude, origin.Longitude)
	bearingRad := bearing * math.Pi / 180
	angular := distance / earthRadiusMeters

	lat := p.Lat.Radians()
	lng := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(lat)*math.Cos(angular) +
		math.Cos(lat)*math.Sin(angular)*math.Cos(bearingRad))
	lng2 := lng + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angular)*math.Cos(lat),
		math.Cos(angular)-math.Sin(lat)*math.Sin(lat2))

	dest := s2.LatLng{Lat: s1.Angle(lat2), Lng: s1.Angle(lng2)}.Normalized()
	return entities.Location{Latitude: dest.Lat.Degrees(), Longitude: dest.Lng.Degrees()}
}
