package services_test

import (
	"testing"

	"github.com/lawyerhours/backend/internal/application/services"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         string
	}{
		{0, 0, "12AM"},
		{0, 30, "12:30AM"},
		{8, 30, "8:30AM"},
		{12, 0, "12PM"},
		{17, 0, "5PM"},
		{23, 59, "11:59PM"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, services.FormatTime(tt.hour, tt.minute))
	}
}

func TestFormatTimeRange(t *testing.T) {
	assert.Equal(t, "9AM - 5:30PM", services.FormatTimeRange(9, 0, 17, 30))
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "45 min", services.FormatCountdown(45))
	assert.Equal(t, "2h", services.FormatCountdown(120))
	assert.Equal(t, "1h 15m", services.FormatCountdown(75))
}

func TestScheduleLines(t *testing.T) {
	lines := services.ScheduleLines([]entities.HourWindow{
		window("CONSULTATION", entities.Monday, 17, 0, 20, 0),
		window("EMERGENCY_HOURS", entities.Sunday, 0, 0, 23, 59),
		window("X", 8, 9, 0, 10, 0),
		window("ONLINE", entities.Monday, 9, 0, 12, 0),
	})

	assert.Equal(t, []string{
		"Sunday: EMERGENCY HOURS 12AM - 11:59PM",
		"Monday: CONSULTATION 5PM - 8PM",
		"Monday: ONLINE 9AM - 12PM",
	}, lines)
}
