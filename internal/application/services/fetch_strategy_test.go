package services_test

import (
	"testing"

	"github.com/golang/geo/s2"
	"github.com/lawyerhours/backend/internal/application/services"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectStrategy(t *testing.T) {
	assert.Equal(t, entities.StrategyGrid, services.SelectStrategy(1_304_379))
	assert.Equal(t, entities.StrategyMultiRadius, services.SelectStrategy(1_000_000))
	assert.Equal(t, entities.StrategyMultiRadius, services.SelectStrategy(300_001))
	assert.Equal(t, entities.StrategySingle, services.SelectStrategy(300_000))
	assert.Equal(t, entities.StrategySingle, services.SelectStrategy(0))
}

func TestPlanQueries_Single(t *testing.T) {
	queries := services.PlanQueries(entities.StrategySingle, boise.Location, 0)

	assert.Equal(t, []providers.NearbyQuery{{
		Latitude:     boise.Location.Latitude,
		Longitude:    boise.Location.Longitude,
		RadiusMeters: 25000,
		MaxResults:   20,
	}}, queries)
}

func TestPlanQueries_MultiRadius(t *testing.T) {
	queries := services.PlanQueries(entities.StrategyMultiRadius, austin.Location, 10)

	require.Len(t, queries, 4)
	for i, radius := range []float64{5000, 10000, 25000, 40000} {
		assert.Equal(t, radius, queries[i].RadiusMeters)
		assert.Equal(t, austin.Location.Latitude, queries[i].Latitude)
		assert.Equal(t, 10, queries[i].MaxResults)
	}
}

func TestPlanQueries_GridOffsets(t *testing.T) {
	const earthRadiusMeters = 6371000.0
	center := dallas.Location
	queries := services.PlanQueries(entities.StrategyGrid, center, 20)

	require.Len(t, queries, 5)
	assert.Equal(t, center.Latitude, queries[0].Latitude)
	assert.Equal(t, center.Longitude, queries[0].Longitude)

	origin := s2.LatLngFromDegrees(center.Latitude, center.Longitude)
	for _, q := range queries {
		assert.Equal(t, 10000.0, q.RadiusMeters)
	}
	for _, q := range queries[1:] {
		distance := origin.Distance(s2.LatLngFromDegrees(q.Latitude, q.Longitude)).Radians() * earthRadiusMeters
		assert.InDelta(t, 8000, distance, 1)
	}

	north, east, south, west := queries[1], queries[2], queries[3], queries[4]
	assert.Greater(t, north.Latitude, center.Latitude)
	assert.InDelta(t, center.Longitude, north.Longitude, 1e-9)
	assert.Greater(t, east.Longitude, center.Longitude)
	assert.Less(t, south.Latitude, center.Latitude)
	assert.Less(t, west.Longitude, center.Longitude)
}
