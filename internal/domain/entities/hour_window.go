package entities

import (
	"strings"
)

// Weekday indexes, 0 = Sunday.
const (
	Sunday     = 0
	Monday     = 1
	Friday     = 5
	Saturday   = 6
	DaysInWeek = 7

	MinutesPerDay = 24 * 60
)

// DayNames maps a day-of-week index to its English name.
var DayNames = [DaysInWeek]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// HourWindow is a same-day open/close span belonging to one business.
// Windows that crossed midnight upstream are split at ingestion so every
// record starts and ends on DayOfWeek.
type HourWindow struct {
	ID          int64  `json:"id,omitempty" db:"id"`
	BusinessID  int64  `json:"business_id,omitempty" db:"attorney_office_id"`
	HoursType   string `json:"hours_type" db:"hours_type"`
	DayOfWeek   int    `json:"day_of_week" db:"day_of_week"`
	OpenHour    int    `json:"open_hour" db:"open_hour"`
	OpenMinute  int    `json:"open_minute" db:"open_minute"`
	CloseHour   int    `json:"close_hour" db:"close_hour"`
	CloseMinute int    `json:"close_minute" db:"close_minute"`
}

// OpenMinuteOfDay returns the open time as minutes since midnight.
func (w HourWindow) OpenMinuteOfDay() int {
	return w.OpenHour*60 + w.OpenMinute
}

// CloseMinuteOfDay returns the close time as minutes since midnight.
func (w HourWindow) CloseMinuteOfDay() int {
	return w.CloseHour*60 + w.CloseMinute
}

// DurationMinutes is the span length; never negative. A 23:59 close stands
// for end of day, so split windows add up to the unsplit span.
func (w HourWindow) DurationMinutes() int {
	end := w.CloseMinuteOfDay()
	if w.CloseHour == 23 && w.CloseMinute == 59 {
		end = MinutesPerDay
	}
	d := end - w.OpenMinuteOfDay()
	if d < 0 {
		return 0
	}
	return d
}

// IsFullDay reports a 00:00-23:59 span.
func (w HourWindow) IsFullDay() bool {
	return w.OpenHour == 0 && w.OpenMinute == 0 && w.CloseHour == 23 && w.CloseMinute == 59
}

// IsWeekend reports a Saturday or Sunday window.
func (w HourWindow) IsWeekend() bool {
	return w.DayOfWeek == Sunday || w.DayOfWeek == Saturday
}

// IsWeekday reports a Monday-Friday window.
func (w HourWindow) IsWeekday() bool {
	return w.DayOfWeek >= Monday && w.DayOfWeek <= Friday
}

// Label is a presentation hint derived from day and hours. It does not
// drive the availability flags.
func (w HourWindow) Label() string {
	typeName := HumanizeHoursType(w.HoursType)
	switch {
	case w.CloseHour >= 22:
		return "Late Night " + typeName
	case w.IsWeekend():
		return "Weekend " + typeName
	case w.OpenHour >= 17:
		return "Evening " + typeName
	default:
		return typeName
	}
}

// HumanizeHoursType turns "DRIVE_THROUGH" style values into "Drive through".
func HumanizeHoursType(hoursType string) string {
	name := strings.ToLower(strings.ReplaceAll(hoursType, "_", " "))
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
