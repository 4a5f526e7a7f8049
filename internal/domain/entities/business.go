package entities

import (
	"time"
)

// GeneralPracticeArea is assigned when no specific practice area matched.
const GeneralPracticeArea = "general"

// Business represents an attorney office listed in the directory
type Business struct {
	ID                     int64        `json:"id" db:"id"`
	SourceID               string       `json:"source_id" db:"google_place_id"`
	CityID                 int64        `json:"city_id" db:"city_id"`
	DisplayName            string       `json:"display_name" db:"display_name"`
	FormattedAddress       string       `json:"formatted_address,omitempty" db:"formatted_address"`
	ShortAddress           string       `json:"short_address,omitempty" db:"short_address"`
	PrimaryType            string       `json:"primary_type,omitempty" db:"primary_type"`
	PrimaryTypeDisplayName string       `json:"primary_type_display_name,omitempty" db:"primary_type_display_name"`
	Location               Location     `json:"location" db:"-"`
	GoogleMapsURI          string       `json:"google_maps_uri,omitempty" db:"google_maps_uri"`
	WebsiteURI             string       `json:"website_uri,omitempty" db:"website_uri"`
	Amenities              Amenities    `json:"amenities" db:"-"`
	PracticeAreas          []string     `json:"practice_areas" db:"practice_areas"`
	LastAPIRefresh         time.Time    `json:"last_api_refresh" db:"last_api_refresh"`
	Hours                  []HourWindow `json:"hours" db:"-"`
	CreatedAt              time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at" db:"updated_at"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Amenities groups the tri-state amenity flags reported by the place provider.
// A nil pointer means the provider did not report the attribute.
type Amenities struct {
	Payment       PaymentOptions       `json:"payment"`
	Parking       ParkingOptions       `json:"parking"`
	Accessibility AccessibilityOptions `json:"accessibility"`
}

// PaymentOptions holds payment method flags
type PaymentOptions struct {
	AcceptsCreditCards *bool `json:"accepts_credit_cards,omitempty" db:"accepts_credit_cards"`
	AcceptsDebitCards  *bool `json:"accepts_debit_cards,omitempty" db:"accepts_debit_cards"`
	CashOnly           *bool `json:"cash_only,omitempty" db:"cash_only"`
	AcceptsNFC         *bool `json:"accepts_nfc,omitempty" db:"accepts_nfc"`
}

// ParkingOptions holds parking flags
type ParkingOptions struct {
	FreeParkingLot    *bool `json:"free_parking_lot,omitempty" db:"free_parking_lot"`
	PaidParkingLot    *bool `json:"paid_parking_lot,omitempty" db:"paid_parking_lot"`
	FreeStreetParking *bool `json:"free_street_parking,omitempty" db:"free_street_parking"`
	ValetParking      *bool `json:"valet_parking,omitempty" db:"valet_parking"`
	FreeGarageParking *bool `json:"free_garage_parking,omitempty" db:"free_garage_parking"`
	PaidGarageParking *bool `json:"paid_garage_parking,omitempty" db:"paid_garage_parking"`
}

// AccessibilityOptions holds wheelchair accessibility flags
type AccessibilityOptions struct {
	WheelchairAccessibleParking  *bool `json:"wheelchair_accessible_parking,omitempty" db:"wheelchair_accessible_parking"`
	WheelchairAccessibleEntrance *bool `json:"wheelchair_accessible_entrance,omitempty" db:"wheelchair_accessible_entrance"`
	WheelchairAccessibleRestroom *bool `json:"wheelchair_accessible_restroom,omitempty" db:"wheelchair_accessible_restroom"`
	WheelchairAccessibleSeating  *bool `json:"wheelchair_accessible_seating,omitempty" db:"wheelchair_accessible_seating"`
}

// Reported reports whether any payment flag is known.
func (p PaymentOptions) Reported() bool {
	return anyReported(p.AcceptsCreditCards, p.AcceptsDebitCards, p.CashOnly, p.AcceptsNFC)
}

// Reported reports whether any parking flag is known.
func (p ParkingOptions) Reported() bool {
	return anyReported(p.FreeParkingLot, p.PaidParkingLot, p.FreeStreetParking, p.ValetParking, p.FreeGarageParking, p.PaidGarageParking)
}

// AnyFreeParking is true when any free parking variant is confirmed.
func (p ParkingOptions) AnyFreeParking() bool {
	return IsTrue(p.FreeParkingLot) || IsTrue(p.FreeStreetParking) || IsTrue(p.FreeGarageParking)
}

// Reported reports whether any accessibility flag is known.
func (a AccessibilityOptions) Reported() bool {
	return anyReported(a.WheelchairAccessibleParking, a.WheelchairAccessibleEntrance, a.WheelchairAccessibleRestroom, a.WheelchairAccessibleSeating)
}

// FullyAccessible requires both an accessible entrance and accessible parking.
func (a AccessibilityOptions) FullyAccessible() bool {
	return IsTrue(a.WheelchairAccessibleEntrance) && IsTrue(a.WheelchairAccessibleParking)
}

// HasPracticeArea reports whether the business is tagged with slug.
func (b *Business) HasPracticeArea(slug string) bool {
	for _, area := range b.PracticeAreas {
		if area == slug {
			return true
		}
	}
	return false
}

// IsTrue treats an unreported flag as false.
func IsTrue(v *bool) bool {
	return v != nil && *v
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}

func anyReported(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return true
		}
	}
	return false
}
