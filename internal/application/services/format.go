package services

import (
	"fmt"
	"strings"

	"github.com/lawyerhours/backend/internal/domain/entities"
)

// FormatTime renders 17:00 as "5PM" and 8:30 as "8:30AM".
func FormatTime(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour > 12:
		display = hour - 12
	}
	if minute > 0 {
		return fmt.Sprintf("%d:%02d%s", display, minute, period)
	}
	return fmt.Sprintf("%d%s", display, period)
}

// FormatTimeRange renders an open/close pair, e.g. "9AM - 5:30PM".
func FormatTimeRange(openHour, openMinute, closeHour, closeMinute int) string {
	return FormatTime(openHour, openMinute) + " - " + FormatTime(closeHour, closeMinute)
}

// FormatCountdown renders minutes as "45 min", "2h" or "1h 15m".
func FormatCountdown(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours, mins := minutes/60, minutes%60
	if mins > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dh", hours)
}

// ScheduleLines lists windows as "Monday: CONSULTATION 5PM - 8PM", Sunday first,
// keeping input order within a day.
func ScheduleLines(hours []entities.HourWindow) []string {
	var byDay [entities.DaysInWeek][]entities.HourWindow
	for _, w := range hours {
		if validDay(w.DayOfWeek) {
			byDay[w.DayOfWeek] = append(byDay[w.DayOfWeek], w)
		}
	}

	var lines []string
	for day, windows := range byDay {
		for _, w := range windows {
			lines = append(lines, fmt.Sprintf("%s: %s %s",
				entities.DayNames[day],
				strings.ReplaceAll(w.HoursType, "_", " "),
				FormatTimeRange(w.OpenHour, w.OpenMinute, w.CloseHour, w.CloseMinute),
			))
		}
	}
	return lines
}
