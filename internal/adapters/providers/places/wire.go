package places

import "github.com/lawyerhours/backend/internal/domain/providers"

type searchNearbyRequest struct {
	IncludedTypes       []string            `json:"includedTypes"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
	MaxResultCount      int                 `json:"maxResultCount,omitempty"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchNearbyResponse struct {
	Places []wirePlace `json:"places"`
}

type localizedText struct {
	Text string `json:"text"`
}

type wirePoint struct {
	Day    *int `json:"day"`
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
}

type wirePeriod struct {
	Open  *wirePoint `json:"open"`
	Close *wirePoint `json:"close"`
}

type wireOpeningHours struct {
	Periods            []wirePeriod `json:"periods"`
	SecondaryHoursType string       `json:"secondaryHoursType"`
}

type wirePlace struct {
	ID                           string             `json:"id"`
	DisplayName                  *localizedText     `json:"displayName"`
	FormattedAddress             string             `json:"formattedAddress"`
	ShortFormattedAddress        string             `json:"shortFormattedAddress"`
	PrimaryType                  string             `json:"primaryType"`
	PrimaryTypeDisplayName       *localizedText     `json:"primaryTypeDisplayName"`
	Types                        []string           `json:"types"`
	Location                     *latLng            `json:"location"`
	RegularOpeningHours          *wireOpeningHours  `json:"regularOpeningHours"`
	RegularSecondaryOpeningHours []wireOpeningHours `json:"regularSecondaryOpeningHours"`
	PaymentOptions               *struct {
		AcceptsCreditCards *bool `json:"acceptsCreditCards"`
		AcceptsDebitCards  *bool `json:"acceptsDebitCards"`
		AcceptsCashOnly    *bool `json:"acceptsCashOnly"`
		AcceptsNFC         *bool `json:"acceptsNfc"`
	} `json:"paymentOptions"`
	ParkingOptions *struct {
		FreeParkingLot    *bool `json:"freeParkingLot"`
		PaidParkingLot    *bool `json:"paidParkingLot"`
		FreeStreetParking *bool `json:"freeStreetParking"`
		ValetParking      *bool `json:"valetParking"`
		FreeGarageParking *bool `json:"freeGarageParking"`
		PaidGarageParking *bool `json:"paidGarageParking"`
	} `json:"parkingOptions"`
	AccessibilityOptions *struct {
		WheelchairAccessibleParking  *bool `json:"wheelchairAccessibleParking"`
		WheelchairAccessibleEntrance *bool `json:"wheelchairAccessibleEntrance"`
		WheelchairAccessibleRestroom *bool `json:"wheelchairAccessibleRestroom"`
		WheelchairAccessibleSeating  *bool `json:"wheelchairAccessibleSeating"`
	} `json:"accessibilityOptions"`
	GoogleMapsURI string `json:"googleMapsUri"`
	WebsiteURI    string `json:"websiteUri"`
}

func (w wirePlace) toPlace() providers.Place {
	place := providers.Place{
		ID:               w.ID,
		FormattedAddress: w.FormattedAddress,
		ShortAddress:     w.ShortFormattedAddress,
		PrimaryType:      w.PrimaryType,
		Types:            w.Types,
		GoogleMapsURI:    w.GoogleMapsURI,
		WebsiteURI:       w.WebsiteURI,
	}
	if w.DisplayName != nil {
		place.DisplayName = w.DisplayName.Text
	}
	if w.PrimaryTypeDisplayName != nil {
		place.PrimaryTypeDisplayName = w.PrimaryTypeDisplayName.Text
	}
	if w.Location != nil {
		place.Latitude = w.Location.Latitude
		place.Longitude = w.Location.Longitude
	}
	if w.RegularOpeningHours != nil {
		place.RegularHours = &providers.OpeningHours{Periods: convertPeriods(w.RegularOpeningHours.Periods)}
	}
	for _, block := range w.RegularSecondaryOpeningHours {
		place.SecondaryHours = append(place.SecondaryHours, providers.SecondaryHours{
			Type:    block.SecondaryHoursType,
			Periods: convertPeriods(block.Periods),
		})
	}
	if o := w.PaymentOptions; o != nil {
		place.Payment = &providers.PaymentOptions{
			AcceptsCreditCards: o.AcceptsCreditCards,
			AcceptsDebitCards:  o.AcceptsDebitCards,
			AcceptsCashOnly:    o.AcceptsCashOnly,
			AcceptsNFC:         o.AcceptsNFC,
		}
	}
	if o := w.ParkingOptions; o != nil {
		place.Parking = &providers.ParkingOptions{
			FreeParkingLot:    o.FreeParkingLot,
			PaidParkingLot:    o.PaidParkingLot,
			FreeStreetParking: o.FreeStreetParking,
			ValetParking:      o.ValetParking,
			FreeGarageParking: o.FreeGarageParking,
			PaidGarageParking: o.PaidGarageParking,
		}
	}
	if o := w.AccessibilityOptions; o != nil {
		place.Accessibility = &providers.AccessibilityOptions{
			WheelchairAccessibleParking:  o.WheelchairAccessibleParking,
			WheelchairAccessibleEntrance: o.WheelchairAccessibleEntrance,
			WheelchairAccessibleRestroom: o.WheelchairAccessibleRestroom,
			WheelchairAccessibleSeating:  o.WheelchairAccessibleSeating,
		}
	}
	return place
}

func convertPeriods(periods []wirePeriod) []providers.Period {
	out := make([]providers.Period, 0, len(periods))
	for _, p := range periods {
		out = append(out, providers.Period{Open: convertPoint(p.Open), Close: convertPoint(p.Close)})
	}
	return out
}

func convertPoint(p *wirePoint) *providers.Point {
	if p == nil {
		return nil
	}
	return &providers.Point{Day: p.Day, Hour: p.Hour, Minute: p.Minute}
}
