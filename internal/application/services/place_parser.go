package services

import (
	"strings"
	"time"

	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
)

const unknownOfficeName = "Unknown Office"

// PlaceParser turns provider places into persistence-ready businesses.
type PlaceParser struct {
	classifier *PracticeAreaClassifier
}

// NewPlaceParser creates a parser using the given classifier.
func NewPlaceParser(classifier *PracticeAreaClassifier) *PlaceParser {
	return &PlaceParser{classifier: classifier}
}

// Parse converts one place. contextTags are practice areas already implied by
// the query that found the place.
func (p *PlaceParser) Parse(place providers.Place, cityID int64, refreshedAt time.Time, contextTags []string) (*entities.Business, error) {
	if strings.TrimSpace(place.ID) == "" {
		return nil, apperrors.NewValidationError("place has no id")
	}

	name := strings.TrimSpace(place.DisplayName)
	if name == "" {
		name = unknownOfficeName
	}

	hours := NormalizeSecondaryHours(place.SecondaryHours)
	if len(place.SecondaryHours) == 0 {
		hours = NormalizeRegularHours(place.RegularHours)
	}
	if hours == nil {
		hours = []entities.HourWindow{}
	}

	business := &entities.Business{
		SourceID:               place.ID,
		CityID:                 cityID,
		DisplayName:            name,
		FormattedAddress:       place.FormattedAddress,
		ShortAddress:           place.ShortAddress,
		PrimaryType:            place.PrimaryType,
		PrimaryTypeDisplayName: place.PrimaryTypeDisplayName,
		Location: entities.Location{
			Latitude:  place.Latitude,
			Longitude: place.Longitude,
		},
		GoogleMapsURI:  place.GoogleMapsURI,
		WebsiteURI:     place.WebsiteURI,
		Amenities:      amenitiesFromPlace(place),
		PracticeAreas:  p.classifier.ClassifyWithTags(contextTags, name, place.PrimaryTypeDisplayName),
		LastAPIRefresh: refreshedAt,
		Hours:          hours,
	}
	return business, nil
}

func amenitiesFromPlace(place providers.Place) entities.Amenities {
	var a entities.Amenities
	if pay := place.Payment; pay != nil {
		a.Payment = entities.PaymentOptions{
			AcceptsCreditCards: pay.AcceptsCreditCards,
			AcceptsDebitCards:  pay.AcceptsDebitCards,
			CashOnly:           pay.AcceptsCashOnly,
			AcceptsNFC:         pay.AcceptsNFC,
		}
	}
	if park := place.Parking; park != nil {
		a.Parking = entities.ParkingOptions{
			FreeParkingLot:    park.FreeParkingLot,
			PaidParkingLot:    park.PaidParkingLot,
			FreeStreetParking: park.FreeStreetParking,
			ValetParking:      park.ValetParking,
			FreeGarageParking: park.FreeGarageParking,
			PaidGarageParking: park.PaidGarageParking,
		}
	}
	if acc := place.Accessibility; acc != nil {
		a.Accessibility = entities.AccessibilityOptions{
			WheelchairAccessibleParking:  acc.WheelchairAccessibleParking,
			WheelchairAccessibleEntrance: acc.WheelchairAccessibleEntrance,
			WheelchairAccessibleRestroom: acc.WheelchairAccessibleRestroom,
			WheelchairAccessibleSeating:  acc.WheelchairAccessibleSeating,
		}
	}
	return a
}

// DedupePlaces keeps the first occurrence of every place id.
func DedupePlaces(places []providers.Place) []providers.Place {
	seen := make(map[string]bool, len(places))
	out := make([]providers.Place, 0, len(places))
	for _, place := range places {
		if place.ID != "" && seen[place.ID] {
			continue
		}
		seen[place.ID] = true
		out = append(out, place)
	}
	return out
}
