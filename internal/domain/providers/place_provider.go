package providers

import (
	"context"
)

// PlaceProvider defines the interface for the external business listing source
type PlaceProvider interface {
	// SearchNearby returns up to MaxResults attorney offices inside the query circle
	SearchNearby(ctx context.Context, query NearbyQuery) ([]Place, error)
}

// NearbyQuery describes one circular search
type NearbyQuery struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	MaxResults   int
}

// Place is a provider record before normalization
type Place struct {
	ID                     string
	DisplayName            string
	FormattedAddress       string
	ShortAddress           string
	PrimaryType            string
	PrimaryTypeDisplayName string
	Types                  []string
	Latitude               float64
	Longitude              float64
	GoogleMapsURI          string
	WebsiteURI             string
	RegularHours           *OpeningHours
	SecondaryHours         []SecondaryHours
	Payment                *PaymentOptions
	Parking                *ParkingOptions
	Accessibility          *AccessibilityOptions
}

// OpeningHours is a list of weekly periods
type OpeningHours struct {
	Periods []Period
}

// SecondaryHours is a typed block of weekly periods (e.g. DRIVE_THROUGH, ONLINE_SERVICE_HOURS)
type SecondaryHours struct {
	Type    string
	Periods []Period
}

// Period spans from Open to Close; Close may be nil for unterminated periods
type Period struct {
	Open  *Point
	Close *Point
}

// Point is a weekly instant; any field may be missing upstream
type Point struct {
	Day    *int
	Hour   *int
	Minute *int
}

// PaymentOptions as reported by the provider
type PaymentOptions struct {
	AcceptsCreditCards *bool
	AcceptsDebitCards  *bool
	AcceptsCashOnly    *bool
	AcceptsNFC         *bool
}

// ParkingOptions as reported by the provider
type ParkingOptions struct {
	FreeParkingLot    *bool
	PaidParkingLot    *bool
	FreeStreetParking *bool
	ValetParking      *bool
	FreeGarageParking *bool
	PaidGarageParking *bool
}

// AccessibilityOptions as reported by the provider
type AccessibilityOptions struct {
	WheelchairAccessibleParking  *bool
	WheelchairAccessibleEntrance *bool
	WheelchairAccessibleRestroom *bool
	WheelchairAccessibleSeating  *bool
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// NewPoint builds a fully populated Point
func NewPoint(day, hour, minute int) *Point {
	return &Point{Day: IntPtr(day), Hour: IntPtr(hour), Minute: IntPtr(minute)}
}
