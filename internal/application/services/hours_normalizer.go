package services

import (
	"strings"

	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
)

const (
	// DefaultHoursType is used when a secondary hours block carries no type.
	DefaultHoursType = "CONSULTATION"

	// RegularHoursType marks windows derived from primary opening hours.
	RegularHoursType = "REGULAR"
)

// NormalizeSecondaryHours flattens typed secondary hours blocks into same-day windows.
func NormalizeSecondaryHours(blocks []providers.SecondaryHours) []entities.HourWindow {
	var windows []entities.HourWindow
	for _, block := range blocks {
		hoursType := strings.TrimSpace(block.Type)
		if hoursType == "" {
			hoursType = DefaultHoursType
		}
		windows = append(windows, NormalizePeriods(hoursType, block.Periods)...)
	}
	return windows
}

// NormalizeRegularHours applies the same split to primary opening hours.
// Only used when a place reports no secondary hours at all.
func NormalizeRegularHours(hours *providers.OpeningHours) []entities.HourWindow {
	if hours == nil {
		return nil
	}
	return NormalizePeriods(RegularHoursType, hours.Periods)
}

// NormalizePeriods splits every period into one window per day touched.
//
// A period without an open point is dropped. A period without a close time
// closes at 23:59 on its opening day. Periods with out of range values are
// dropped rather than guessed at.
func NormalizePeriods(hoursType string, periods []providers.Period) []entities.HourWindow {
	var windows []entities.HourWindow
	for _, period := range periods {
		windows = append(windows, splitPeriod(hoursType, period)...)
	}
	return windows
}

func splitPeriod(hoursType string, period providers.Period) []entities.HourWindow {
	if period.Open == nil {
		return nil
	}

	openDay := valueOr(period.Open.Day, 0)
	openHour := valueOr(period.Open.Hour, 0)
	openMinute := valueOr(period.Open.Minute, 0)
	if !validDay(openDay) || !validClock(openHour, openMinute) {
		return nil
	}

	closeDay := openDay
	closeHour, closeMinute := 23, 59
	if c := period.Close; c != nil {
		closeDay = valueOr(c.Day, openDay)
		if c.Hour != nil || c.Minute != nil {
			closeHour = valueOr(c.Hour, 0)
			closeMinute = valueOr(c.Minute, 0)
		}
	}
	if !validDay(closeDay) || !validClock(closeHour, closeMinute) {
		return nil
	}

	if openDay == closeDay {
		return []entities.HourWindow{newWindow(hoursType, openDay, openHour, openMinute, closeHour, closeMinute)}
	}

	windows := []entities.HourWindow{newWindow(hoursType, openDay, openHour, openMinute, 23, 59)}
	for day := nextDay(openDay); day != closeDay; day = nextDay(day) {
		windows = append(windows, newWindow(hoursType, day, 0, 0, 23, 59))
	}
	// A close at exactly midnight leaves nothing on the close day.
	if closeHour != 0 || closeMinute != 0 {
		windows = append(windows, newWindow(hoursType, closeDay, 0, 0, closeHour, closeMinute))
	}
	return windows
}

func newWindow(hoursType string, day, openHour, openMinute, closeHour, closeMinute int) entities.HourWindow {
	return entities.HourWindow{
		HoursType:   hoursType,
		DayOfWeek:   day,
		OpenHour:    openHour,
		OpenMinute:  openMinute,
		CloseHour:   closeHour,
		CloseMinute: closeMinute,
	}
}

func nextDay(day int) int {
	return (day + 1) % entities.DaysInWeek
}

func validDay(day int) bool {
	return day >= 0 && day < entities.DaysInWeek
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
