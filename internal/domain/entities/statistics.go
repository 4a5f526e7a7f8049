package entities

// Stats is the lightweight roll-up used for every listing response.
type Stats struct {
	Total          int                        `json:"total"`
	AvailableNow   []BusinessWithAvailability `json:"available_now"`
	EveningCount   int                        `json:"evening_count"`
	WeekendCount   int                        `json:"weekend_count"`
	EmergencyCount int                        `json:"emergency_count"`
}

// DayAvailability is one cell of the weekday evening heatmap.
type DayAvailability struct {
	DayIndex           int    `json:"day_index"`
	DayName            string `json:"day_name"`
	EveningCount       int    `json:"evening_count"`
	LatestCloseHour    int    `json:"latest_close_hour"`
	LatestCloseDisplay string `json:"latest_close_display"`
}

// NeighborhoodCluster groups businesses sharing an address fragment or ZIP region.
type NeighborhoodCluster struct {
	Name             string `json:"name"`
	Count            int    `json:"count"`
	HasEvening       int    `json:"has_evening"`
	HasWeekend       int    `json:"has_weekend"`
	HasParking       int    `json:"has_parking"`
	HasAccessibility int    `json:"has_accessibility"`
}

// FieldCoverage counts businesses reporting a flag and those reporting it true.
type FieldCoverage struct {
	True     int `json:"true"`
	Reported int `json:"reported"`
}

// DetailedStats is the long-form analysis over a business collection.
type DetailedStats struct {
	Total          int `json:"total"`
	EveningCount   int `json:"evening_count"`
	WeekendCount   int `json:"weekend_count"`
	EmergencyCount int `json:"emergency_count"`

	// Payment
	AcceptsCreditCards   int `json:"accepts_credit_cards"`
	AcceptsDebitCards    int `json:"accepts_debit_cards"`
	CashOnly             int `json:"cash_only"`
	AcceptsNFC           int `json:"accepts_nfc"`
	PaymentDataAvailable int `json:"payment_data_available"`

	// Parking
	FreeParkingLot       int `json:"free_parking_lot"`
	PaidParkingLot       int `json:"paid_parking_lot"`
	FreeStreetParking    int `json:"free_street_parking"`
	ValetParking         int `json:"valet_parking"`
	FreeGarageParking    int `json:"free_garage_parking"`
	PaidGarageParking    int `json:"paid_garage_parking"`
	AnyFreeParking       int `json:"any_free_parking"`
	ParkingDataAvailable int `json:"parking_data_available"`

	// Accessibility
	WheelchairEntrance         int `json:"wheelchair_entrance"`
	WheelchairParking          int `json:"wheelchair_parking"`
	WheelchairRestroom         int `json:"wheelchair_restroom"`
	WheelchairSeating          int `json:"wheelchair_seating"`
	FullyAccessible            int `json:"fully_accessible"`
	AccessibilityDataAvailable int `json:"accessibility_data_available"`

	// Coverage holds per-field true/reported counts keyed by field name.
	Coverage map[string]FieldCoverage `json:"coverage"`

	DayByDayAvailability []DayAvailability `json:"day_by_day_availability"`
	BusiestEveningDay    string            `json:"busiest_evening_day"`
	LeastBusyEveningDay  string            `json:"least_busy_evening_day"`

	LatestAvailableHour    int    `json:"latest_available_hour"`
	LatestAvailableDisplay string `json:"latest_available_display"`
	LatestBusiness         string `json:"latest_business,omitempty"`

	SaturdayCount       int    `json:"saturday_count"`
	SundayCount         int    `json:"sunday_count"`
	EarliestWeekendOpen string `json:"earliest_weekend_open,omitempty"`
	// EarliestWeekendHour is -1 when no weekend window exists.
	EarliestWeekendHour int `json:"earliest_weekend_hour"`

	Neighborhoods []NeighborhoodCluster `json:"neighborhoods"`

	EmergencyWithFreeParking int `json:"emergency_with_free_parking"`
	WeekendWithAccessible    int `json:"weekend_with_accessible"`
	WithWebsite              int `json:"with_website"`
}

// CitySummary is one row of a state overview.
type CitySummary struct {
	City            *City `json:"city"`
	TotalBusinesses int   `json:"total_businesses"`
	EveningCount    int   `json:"evening_count"`
	WeekendCount    int   `json:"weekend_count"`
	EmergencyCount  int   `json:"emergency_count"`
}

// StateSummary aggregates every city of one state.
type StateSummary struct {
	StateSlug       string        `json:"state_slug"`
	Cities          []CitySummary `json:"cities"`
	TotalBusinesses int           `json:"total_businesses"`
	EveningCount    int           `json:"evening_count"`
	WeekendCount    int           `json:"weekend_count"`
	EmergencyCount  int           `json:"emergency_count"`
}
