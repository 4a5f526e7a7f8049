package entities

// Availability is computed per business against a reference instant and never persisted.
type Availability struct {
	IsAvailableNow    bool           `json:"is_available_now"`
	CurrentWindow     *CurrentWindow `json:"current_window"`
	MinutesUntilClose *int           `json:"minutes_until_close"`
	HasEveningHours   bool           `json:"has_evening_hours"`
	HasWeekendHours   bool           `json:"has_weekend_hours"`
	HasEmergencyHours bool           `json:"has_emergency_hours"`
}

// CurrentWindow is the open window that closes soonest.
type CurrentWindow struct {
	HoursType   string `json:"hours_type"`
	CloseHour   int    `json:"close_hour"`
	CloseMinute int    `json:"close_minute"`
	ClosesAt    string `json:"closes_at"`
}

// BusinessWithAvailability pairs a stored business with its computed availability.
type BusinessWithAvailability struct {
	*Business
	Availability Availability `json:"availability"`
}
