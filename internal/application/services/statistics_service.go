package services

import (
	"sort"

	"github.com/lawyerhours/backend/internal/domain/entities"
)

const maxNeighborhoods = 10

// Amenity coverage keys.
const (
	CoverageAcceptsCreditCards = "accepts_credit_cards"
	CoverageAcceptsDebitCards  = "accepts_debit_cards"
	CoverageCashOnly           = "cash_only"
	CoverageAcceptsNFC         = "accepts_nfc"
	CoverageFreeParkingLot     = "free_parking_lot"
	CoveragePaidParkingLot     = "paid_parking_lot"
	CoverageFreeStreetParking  = "free_street_parking"
	CoverageValetParking       = "valet_parking"
	CoverageFreeGarageParking  = "free_garage_parking"
	CoveragePaidGarageParking  = "paid_garage_parking"
	CoverageWheelchairParking  = "wheelchair_accessible_parking"
	CoverageWheelchairEntrance = "wheelchair_accessible_entrance"
	CoverageWheelchairRestroom = "wheelchair_accessible_restroom"
	CoverageWheelchairSeating  = "wheelchair_accessible_seating"
)

// ComputeStats is the lightweight roll-up. AvailableNow keeps input order.
func ComputeStats(items []entities.BusinessWithAvailability) entities.Stats {
	stats := entities.Stats{
		Total:        len(items),
		AvailableNow: []entities.BusinessWithAvailability{},
	}
	for _, item := range items {
		a := item.Availability
		if a.IsAvailableNow {
			stats.AvailableNow = append(stats.AvailableNow, item)
		}
		if a.HasEveningHours {
			stats.EveningCount++
		}
		if a.HasWeekendHours {
			stats.WeekendCount++
		}
		if a.HasEmergencyHours {
			stats.EmergencyCount++
		}
	}
	return stats
}

// StatisticsService computes the long-form analysis for a city listing.
type StatisticsService struct {
	neighborhoods NeighborhoodResolver
}

// NewStatisticsService creates a statistics service; neighborhoods may be nil.
func NewStatisticsService(neighborhoods NeighborhoodResolver) *StatisticsService {
	return &StatisticsService{neighborhoods: neighborhoods}
}

// ComputeDetailedStats walks the collection once for counts and once per
// business for its windows.
func (s *StatisticsService) ComputeDetailedStats(items []entities.BusinessWithAvailability, city entities.City) entities.DetailedStats {
	stats := entities.DetailedStats{
		Total:               len(items),
		Coverage:            make(map[string]entities.FieldCoverage),
		EarliestWeekendHour: -1,
	}

	var days [entities.DaysInWeek]entities.DayAvailability
	for i := range days {
		days[i] = entities.DayAvailability{DayIndex: i, DayName: entities.DayNames[i]}
	}

	clusters := make(map[string]*entities.NeighborhoodCluster)
	var clusterOrder []string

	latestFound := false

	for _, item := range items {
		if item.Business == nil {
			continue
		}
		b := item.Business
		a := item.Availability
		amenities := b.Amenities

		if a.HasEveningHours {
			stats.EveningCount++
		}
		if a.HasWeekendHours {
			stats.WeekendCount++
		}
		if a.HasEmergencyHours {
			stats.EmergencyCount++
		}

		countAmenities(&stats, amenities)

		if amenities.Parking.AnyFreeParking() {
			stats.AnyFreeParking++
		}
		if amenities.Accessibility.FullyAccessible() {
			stats.FullyAccessible++
		}
		if a.HasEmergencyHours && amenities.Parking.AnyFreeParking() {
			stats.EmergencyWithFreeParking++
		}
		if a.HasWeekendHours && entities.IsTrue(amenities.Accessibility.WheelchairAccessibleEntrance) {
			stats.WeekendWithAccessible++
		}
		if b.WebsiteURI != "" {
			stats.WithWebsite++
		}

		var eveningDay [entities.DaysInWeek]bool
		var openSaturday, openSunday bool
		for _, w := range b.Hours {
			if !wellFormed(w) {
				continue
			}
			if w.CloseHour >= 17 {
				eveningDay[w.DayOfWeek] = true
				if w.CloseHour > days[w.DayOfWeek].LatestCloseHour {
					days[w.DayOfWeek].LatestCloseHour = w.CloseHour
				}
			}
			if !latestFound || w.CloseHour > stats.LatestAvailableHour {
				latestFound = true
				stats.LatestAvailableHour = w.CloseHour
				stats.LatestBusiness = b.DisplayName
			}
			switch w.DayOfWeek {
			case entities.Saturday:
				openSaturday = true
			case entities.Sunday:
				openSunday = true
			}
			if w.IsWeekend() && (stats.EarliestWeekendHour < 0 || w.OpenHour < stats.EarliestWeekendHour) {
				stats.EarliestWeekendHour = w.OpenHour
			}
		}
		for day, ok := range eveningDay {
			if ok {
				days[day].EveningCount++
			}
		}
		if openSaturday {
			stats.SaturdayCount++
		}
		if openSunday {
			stats.SundayCount++
		}

		name := ExtractNeighborhood(b.FormattedAddress, city, s.neighborhoods)
		cluster, ok := clusters[name]
		if !ok {
			cluster = &entities.NeighborhoodCluster{Name: name}
			clusters[name] = cluster
			clusterOrder = append(clusterOrder, name)
		}
		cluster.Count++
		if a.HasEveningHours {
			cluster.HasEvening++
		}
		if a.HasWeekendHours {
			cluster.HasWeekend++
		}
		if amenities.Parking.AnyFreeParking() {
			cluster.HasParking++
		}
		if entities.IsTrue(amenities.Accessibility.WheelchairAccessibleEntrance) {
			cluster.HasAccessibility++
		}
	}

	for i := range days {
		if days[i].EveningCount > 0 {
			days[i].LatestCloseDisplay = FormatTime(days[i].LatestCloseHour, 0)
		}
	}
	stats.DayByDayAvailability = days[:]
	stats.BusiestEveningDay, stats.LeastBusyEveningDay = rankEveningDays(days)

	if latestFound {
		stats.LatestAvailableDisplay = FormatTime(stats.LatestAvailableHour, 0)
	}
	if stats.EarliestWeekendHour >= 0 {
		stats.EarliestWeekendOpen = FormatTime(stats.EarliestWeekendHour, 0)
	}

	stats.Neighborhoods = topClusters(clusters, clusterOrder)

	return stats
}

// rankEveningDays ranks Monday-Friday only; ties go to the earlier day.
func rankEveningDays(days [entities.DaysInWeek]entities.DayAvailability) (busiest, leastBusy string) {
	weekdays := make([]entities.DayAvailability, 0, 5)
	for day := entities.Monday; day <= entities.Friday; day++ {
		weekdays = append(weekdays, days[day])
	}

	sort.SliceStable(weekdays, func(i, j int) bool {
		return weekdays[i].EveningCount > weekdays[j].EveningCount
	})
	busiest = weekdays[0].DayName

	sort.SliceStable(weekdays, func(i, j int) bool {
		if weekdays[i].EveningCount != weekdays[j].EveningCount {
			return weekdays[i].EveningCount < weekdays[j].EveningCount
		}
		return weekdays[i].DayIndex < weekdays[j].DayIndex
	})
	leastBusy = weekdays[0].DayName
	return busiest, leastBusy
}

func topClusters(clusters map[string]*entities.NeighborhoodCluster, order []string) []entities.NeighborhoodCluster {
	out := make([]entities.NeighborhoodCluster, 0, len(order))
	for _, name := range order {
		out = append(out, *clusters[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > maxNeighborhoods {
		out = out[:maxNeighborhoods]
	}
	return out
}

func countAmenities(stats *entities.DetailedStats, a entities.Amenities) {
	if a.Payment.Reported() {
		stats.PaymentDataAvailable++
	}
	if a.Parking.Reported() {
		stats.ParkingDataAvailable++
	}
	if a.Accessibility.Reported() {
		stats.AccessibilityDataAvailable++
	}

	tally(stats, CoverageAcceptsCreditCards, a.Payment.AcceptsCreditCards, &stats.AcceptsCreditCards)
	tally(stats, CoverageAcceptsDebitCards, a.Payment.AcceptsDebitCards, &stats.AcceptsDebitCards)
	tally(stats, CoverageCashOnly, a.Payment.CashOnly, &stats.CashOnly)
	tally(stats, CoverageAcceptsNFC, a.Payment.AcceptsNFC, &stats.AcceptsNFC)

	tally(stats, CoverageFreeParkingLot, a.Parking.FreeParkingLot, &stats.FreeParkingLot)
	tally(stats, CoveragePaidParkingLot, a.Parking.PaidParkingLot, &stats.PaidParkingLot)
	tally(stats, CoverageFreeStreetParking, a.Parking.FreeStreetParking, &stats.FreeStreetParking)
	tally(stats, CoverageValetParking, a.Parking.ValetParking, &stats.ValetParking)
	tally(stats, CoverageFreeGarageParking, a.Parking.FreeGarageParking, &stats.FreeGarageParking)
	tally(stats, CoveragePaidGarageParking, a.Parking.PaidGarageParking, &stats.PaidGarageParking)

	tally(stats, CoverageWheelchairParking, a.Accessibility.WheelchairAccessibleParking, &stats.WheelchairParking)
	tally(stats, CoverageWheelchairEntrance, a.Accessibility.WheelchairAccessibleEntrance, &stats.WheelchairEntrance)
	tally(stats, CoverageWheelchairRestroom, a.Accessibility.WheelchairAccessibleRestroom, &stats.WheelchairRestroom)
	tally(stats, CoverageWheelchairSeating, a.Accessibility.WheelchairAccessibleSeating, &stats.WheelchairSeating)
}

func tally(stats *entities.DetailedStats, key string, value *bool, trueCount *int) {
	if value == nil {
		return
	}
	coverage := stats.Coverage[key]
	coverage.Reported++
	if *value {
		coverage.True++
		*trueCount++
	}
	stats.Coverage[key] = coverage
}
