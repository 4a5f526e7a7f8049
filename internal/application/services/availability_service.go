package services

import (
	"strings"
	"time"

	"github.com/lawyerhours/backend/internal/domain/entities"
)

// Clock supplies the reference instant for availability checks.
type Clock func() time.Time

// CheckAvailability evaluates hour windows against now in a single pass.
//
// now is read as local wall-clock time of the business; no zone conversion
// happens here. Windows with out of range values are ignored instead of
// failing the whole computation.
func CheckAvailability(hours []entities.HourWindow, now time.Time) entities.Availability {
	var result entities.Availability

	today := int(now.Weekday())
	minuteOfDay := now.Hour()*60 + now.Minute()

	current := -1
	remaining := 0

	for i, w := range hours {
		if !wellFormed(w) {
			continue
		}

		if IsEveningWindow(w) {
			result.HasEveningHours = true
		}
		if w.IsWeekend() {
			result.HasWeekendHours = true
		}
		if IsEmergencyWindow(w) {
			result.HasEmergencyHours = true
		}

		if w.DayOfWeek != today {
			continue
		}
		opensAt, closesAt := w.OpenMinuteOfDay(), w.CloseMinuteOfDay()
		if minuteOfDay < opensAt || minuteOfDay >= closesAt {
			continue
		}
		if left := closesAt - minuteOfDay; current < 0 || left < remaining {
			current = i
			remaining = left
		}
	}

	if current >= 0 {
		w := hours[current]
		result.IsAvailableNow = true
		result.CurrentWindow = &entities.CurrentWindow{
			HoursType:   w.HoursType,
			CloseHour:   w.CloseHour,
			CloseMinute: w.CloseMinute,
			ClosesAt:    FormatTime(w.CloseHour, w.CloseMinute),
		}
		result.MinutesUntilClose = &remaining
	}

	return result
}

// IsEveningWindow reports a weekday window opening at 17:00 or later, or closing at 18:00 or later.
func IsEveningWindow(w entities.HourWindow) bool {
	return w.IsWeekday() && (w.OpenHour >= 17 || w.CloseHour >= 18)
}

// IsEmergencyWindow reports late-night, explicitly emergency or round-the-clock windows.
func IsEmergencyWindow(w entities.HourWindow) bool {
	return w.CloseHour >= 22 ||
		strings.Contains(strings.ToLower(w.HoursType), "emergency") ||
		w.IsFullDay()
}

func wellFormed(w entities.HourWindow) bool {
	return validDay(w.DayOfWeek) && validClock(w.OpenHour, w.OpenMinute) && validClock(w.CloseHour, w.CloseMinute)
}

// AvailabilityService binds CheckAvailability to a clock.
type AvailabilityService struct {
	clock Clock
}

// NewAvailabilityService creates an availability service; a nil clock means time.Now.
func NewAvailabilityService(clock Clock) *AvailabilityService {
	if clock == nil {
		clock = time.Now
	}
	return &AvailabilityService{clock: clock}
}

// Now returns the service's current reference instant.
func (s *AvailabilityService) Now() time.Time {
	return s.clock()
}

// Check evaluates hours at the clock's current instant.
func (s *AvailabilityService) Check(hours []entities.HourWindow) entities.Availability {
	return CheckAvailability(hours, s.clock())
}

// Annotate pairs each business with its availability at now, preserving order.
func (s *AvailabilityService) Annotate(businesses []*entities.Business, now time.Time) []entities.BusinessWithAvailability {
	out := make([]entities.BusinessWithAvailability, 0, len(businesses))
	for _, b := range businesses {
		if b == nil {
			continue
		}
		out = append(out, entities.BusinessWithAvailability{
			Business:     b,
			Availability: CheckAvailability(b.Hours, now),
		})
	}
	return out
}
