package services_test

import (
	"testing"
	"time"

	"github.com/lawyerhours/backend/internal/application/services"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailability_OpenNow(t *testing.T) {
	hours := []entities.HourWindow{window("CONSULTATION", entities.Monday, 17, 0, 20, 0)}

	a := services.CheckAvailability(hours, mondayAt(18, 0))

	assert.True(t, a.IsAvailableNow)
	require.NotNil(t, a.CurrentWindow)
	assert.Equal(t, "CONSULTATION", a.CurrentWindow.HoursType)
	assert.Equal(t, 20, a.CurrentWindow.CloseHour)
	assert.Equal(t, "8PM", a.CurrentWindow.ClosesAt)
	require.NotNil(t, a.MinutesUntilClose)
	assert.Equal(t, 120, *a.MinutesUntilClose)
	assert.True(t, a.HasEveningHours)
	assert.False(t, a.HasWeekendHours)
	assert.False(t, a.HasEmergencyHours)
}

func TestCheckAvailability_HalfOpenInterval(t *testing.T) {
	hours := []entities.HourWindow{window("CONSULTATION", entities.Monday, 17, 0, 20, 0)}

	assert.True(t, services.CheckAvailability(hours, mondayAt(17, 0)).IsAvailableNow)
	assert.True(t, services.CheckAvailability(hours, mondayAt(19, 59)).IsAvailableNow)

	atClose := services.CheckAvailability(hours, mondayAt(20, 0))
	assert.False(t, atClose.IsAvailableNow)
	assert.Nil(t, atClose.CurrentWindow)
	assert.Nil(t, atClose.MinutesUntilClose)
}

func TestCheckAvailability_OtherDayIsClosed(t *testing.T) {
	hours := []entities.HourWindow{window("CONSULTATION", 2, 17, 0, 20, 0)}

	a := services.CheckAvailability(hours, mondayAt(18, 0))

	assert.False(t, a.IsAvailableNow)
	assert.True(t, a.HasEveningHours)
}

func TestCheckAvailability_SoonestClosingWindowWins(t *testing.T) {
	hours := []entities.HourWindow{
		window("ONLINE", entities.Monday, 8, 0, 22, 0),
		window("CONSULTATION", entities.Monday, 17, 0, 19, 30),
	}

	a := services.CheckAvailability(hours, mondayAt(18, 0))

	require.NotNil(t, a.CurrentWindow)
	assert.Equal(t, "CONSULTATION", a.CurrentWindow.HoursType)
	assert.Equal(t, "7:30PM", a.CurrentWindow.ClosesAt)
	assert.Equal(t, 90, *a.MinutesUntilClose)
}

func TestCheckAvailability_Flags(t *testing.T) {
	tests := []struct {
		name      string
		hours     []entities.HourWindow
		evening   bool
		weekend   bool
		emergency bool
	}{
		{
			name:    "closes at six despite opening in the afternoon",
			hours:   []entities.HourWindow{window("X", 3, 16, 30, 18, 0)},
			evening: true,
		},
		{
			name:  "regular office hours",
			hours: []entities.HourWindow{window("X", 3, 9, 0, 17, 0)},
		},
		{
			name:    "opens at five",
			hours:   []entities.HourWindow{window("X", 2, 17, 0, 17, 45)},
			evening: true,
		},
		{
			name:    "Saturday window",
			hours:   []entities.HourWindow{window("X", entities.Saturday, 10, 0, 12, 0)},
			weekend: true,
		},
		{
			name:      "Friday late close is not weekend",
			hours:     []entities.HourWindow{window("X", entities.Friday, 9, 0, 23, 59)},
			evening:   true,
			emergency: true,
		},
		{
			name:      "late night Sunday is weekend and emergency but not evening",
			hours:     []entities.HourWindow{window("X", entities.Sunday, 18, 0, 22, 0)},
			weekend:   true,
			emergency: true,
		},
		{
			name:      "full day",
			hours:     []entities.HourWindow{window("X", 3, 0, 0, 23, 59)},
			evening:   true,
			emergency: true,
		},
		{
			name:      "emergency label",
			hours:     []entities.HourWindow{window("Emergency Hours", 3, 9, 0, 12, 0)},
			emergency: true,
		},
		{
			name: "malformed windows are ignored",
			hours: []entities.HourWindow{
				window("Emergency", 9, 9, 0, 23, 0),
				window("X", entities.Saturday, 25, 0, 26, 0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := services.CheckAvailability(tt.hours, mondayAt(12, 0))
			assert.Equal(t, tt.evening, a.HasEveningHours, "evening")
			assert.Equal(t, tt.weekend, a.HasWeekendHours, "weekend")
			assert.Equal(t, tt.emergency, a.HasEmergencyHours, "emergency")
		})
	}
}

func TestCheckAvailability_NoHours(t *testing.T) {
	a := services.CheckAvailability(nil, mondayAt(12, 0))
	assert.Equal(t, entities.Availability{}, a)
}

func TestAvailabilityService_AnnotateUsesReferenceInstant(t *testing.T) {
	svc := services.NewAvailabilityService(func() time.Time { return mondayAt(9, 0) })
	assert.Equal(t, mondayAt(9, 0), svc.Now())

	open := &entities.Business{DisplayName: "Open", Hours: []entities.HourWindow{window("X", entities.Monday, 17, 0, 20, 0)}}
	closed := &entities.Business{DisplayName: "Closed"}

	items := svc.Annotate([]*entities.Business{open, nil, closed}, mondayAt(18, 0))

	require.Len(t, items, 2)
	assert.Equal(t, "Open", items[0].DisplayName)
	assert.True(t, items[0].Availability.IsAvailableNow)
	assert.Equal(t, "Closed", items[1].DisplayName)
	assert.False(t, items[1].Availability.IsAvailableNow)

	assert.False(t, svc.Check(open.Hours).IsAvailableNow)
}

func TestNewAvailabilityService_DefaultsToWallClock(t *testing.T) {
	svc := services.NewAvailabilityService(nil)
	assert.WithinDuration(t, time.Now(), svc.Now(), time.Minute)
}
