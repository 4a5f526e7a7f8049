package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/repositories"
	"github.com/lawyerhours/backend/internal/infrastructure/clients/postgres"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
	apperrors "github.com/lawyerhours/backend/pkg/errors"
	"github.com/lib/pq"
)

const (
	businessTable = "attorney_offices"
	hoursTable    = "secondary_hours"
)

var businessColumns = []interface{}{
	"id", "google_place_id", "city_id", "display_name", "formatted_address", "short_address",
	"primary_type", "primary_type_display_name", "latitude", "longitude",
	"google_maps_uri", "website_uri",
	"accepts_credit_cards", "accepts_debit_cards", "cash_only", "accepts_nfc",
	"free_parking_lot", "paid_parking_lot", "free_street_parking", "valet_parking",
	"free_garage_parking", "paid_garage_parking",
	"wheelchair_accessible_parking", "wheelchair_accessible_entrance",
	"wheelchair_accessible_restroom", "wheelchair_accessible_seating",
	"practice_areas", "last_api_refresh", "created_at", "updated_at",
}

var hourColumns = []interface{}{
	"id", "attorney_office_id", "hours_type", "day_of_week",
	"open_hour", "open_minute", "close_hour", "close_minute",
}

// BusinessAdapter implements BusinessRepository on PostgreSQL
type BusinessAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewBusinessAdapter creates a new business adapter
func NewBusinessAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.BusinessRepository {
	return &BusinessAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

func (a *BusinessAdapter) record(business *entities.Business) goqu.Record {
	pay := business.Amenities.Payment
	park := business.Amenities.Parking
	acc := business.Amenities.Accessibility
	return goqu.Record{
		"google_place_id":                business.SourceID,
		"city_id":                        business.CityID,
		"display_name":                   business.DisplayName,
		"formatted_address":              nullString(business.FormattedAddress),
		"short_address":                  nullString(business.ShortAddress),
		"primary_type":                   nullString(business.PrimaryType),
		"primary_type_display_name":      nullString(business.PrimaryTypeDisplayName),
		"latitude":                       business.Location.Latitude,
		"longitude":                      business.Location.Longitude,
		"google_maps_uri":                nullString(business.GoogleMapsURI),
		"website_uri":                    nullString(business.WebsiteURI),
		"accepts_credit_cards":           nullBool(pay.AcceptsCreditCards),
		"accepts_debit_cards":            nullBool(pay.AcceptsDebitCards),
		"cash_only":                      nullBool(pay.CashOnly),
		"accepts_nfc":                    nullBool(pay.AcceptsNFC),
		"free_parking_lot":               nullBool(park.FreeParkingLot),
		"paid_parking_lot":               nullBool(park.PaidParkingLot),
		"free_street_parking":            nullBool(park.FreeStreetParking),
		"valet_parking":                  nullBool(park.ValetParking),
		"free_garage_parking":            nullBool(park.FreeGarageParking),
		"paid_garage_parking":            nullBool(park.PaidGarageParking),
		"wheelchair_accessible_parking":  nullBool(acc.WheelchairAccessibleParking),
		"wheelchair_accessible_entrance": nullBool(acc.WheelchairAccessibleEntrance),
		"wheelchair_accessible_restroom": nullBool(acc.WheelchairAccessibleRestroom),
		"wheelchair_accessible_seating":  nullBool(acc.WheelchairAccessibleSeating),
		"practice_areas":                 pq.Array(business.PracticeAreas),
		"last_api_refresh":               business.LastAPIRefresh,
		"updated_at":                     business.UpdatedAt,
	}
}

// Create inserts a business and its hour windows in one transaction
func (a *BusinessAdapter) Create(ctx context.Context, business *entities.Business) error {
	defer a.observe(ctx, "business.create", time.Now())

	if business.CreatedAt.IsZero() {
		business.CreatedAt = time.Now()
	}
	if business.UpdatedAt.IsZero() {
		business.UpdatedAt = business.CreatedAt
	}
	record := a.record(business)
	record["created_at"] = business.CreatedAt

	query, args, err := a.db.Insert(businessTable).Rows(record).Returning("id").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	return a.inTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&business.ID); err != nil {
			return apperrors.NewInternalError("failed to create business", err)
		}
		return a.insertHours(ctx, tx, business.ID, business.Hours)
	})
}

// Update overwrites the business and replaces its hours wholesale
func (a *BusinessAdapter) Update(ctx context.Context, business *entities.Business) error {
	defer a.observe(ctx, "business.update", time.Now())

	if business.UpdatedAt.IsZero() {
		business.UpdatedAt = time.Now()
	}

	query, args, err := a.db.Update(businessTable).
		Set(a.record(business)).
		Where(goqu.Ex{"id": business.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	deleteQuery, deleteArgs, err := a.db.Delete(hoursTable).
		Where(goqu.Ex{"attorney_office_id": business.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return a.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return apperrors.NewInternalError("failed to update business", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to get rows affected", err)
		}
		if rowsAffected == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("business with id %d not found", business.ID))
		}

		if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
			return apperrors.NewInternalError("failed to delete hours", err)
		}
		return a.insertHours(ctx, tx, business.ID, business.Hours)
	})
}

func (a *BusinessAdapter) insertHours(ctx context.Context, tx *sql.Tx, businessID int64, hours []entities.HourWindow) error {
	if len(hours) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(hours))
	for _, h := range hours {
		rows = append(rows, goqu.Record{
			"attorney_office_id": businessID,
			"hours_type":         h.HoursType,
			"day_of_week":        h.DayOfWeek,
			"open_hour":          h.OpenHour,
			"open_minute":        h.OpenMinute,
			"close_hour":         h.CloseHour,
			"close_minute":       h.CloseMinute,
		})
	}
	query, args, err := a.db.Insert(hoursTable).Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build hours insert query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert hours", err)
	}
	return nil
}

func (a *BusinessAdapter) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			observability.LoggerFromContext(ctx).Error().Err(rbErr).Msg("failed to roll back transaction")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}

// GetBySourceID retrieves a business and its hours by provider place id
func (a *BusinessAdapter) GetBySourceID(ctx context.Context, sourceID string) (*entities.Business, error) {
	defer a.observe(ctx, "business.get_by_source_id", time.Now())

	query, args, err := a.db.Select(businessColumns...).
		From(businessTable).
		Where(goqu.Ex{"google_place_id": sourceID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	business, err := scanBusiness(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("business with place id %s not found", sourceID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get business", err)
	}

	if err := a.attachHours(ctx, []*entities.Business{business}); err != nil {
		return nil, err
	}
	return business, nil
}

// ListByCity returns a city's businesses ordered by name, with hours loaded.
// The practice area filter requires an exact tag match.
func (a *BusinessAdapter) ListByCity(ctx context.Context, cityID int64, filter repositories.BusinessFilter) ([]*entities.Business, error) {
	defer a.observe(ctx, "business.list_by_city", time.Now())

	ds := a.db.Select(businessColumns...).
		From(businessTable).
		Where(goqu.Ex{"city_id": cityID})

	if filter.PracticeArea != "" {
		ds = ds.Where(goqu.L("practice_areas @> ?", pq.Array([]string{filter.PracticeArea})))
	}

	ds = ds.Order(goqu.I("display_name").Asc(), goqu.I("id").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list businesses", err)
	}
	defer rows.Close()

	businesses := []*entities.Business{}
	for rows.Next() {
		business, err := scanBusiness(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan business", err)
		}
		businesses = append(businesses, business)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate businesses", err)
	}

	if err := a.attachHours(ctx, businesses); err != nil {
		return nil, err
	}
	return businesses, nil
}

// attachHours loads the hour windows of all given businesses in one query.
func (a *BusinessAdapter) attachHours(ctx context.Context, businesses []*entities.Business) error {
	if len(businesses) == 0 {
		return nil
	}
	byID := make(map[int64]*entities.Business, len(businesses))
	ids := make([]int64, 0, len(businesses))
	for _, b := range businesses {
		b.Hours = []entities.HourWindow{}
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	query, args, err := a.db.Select(hourColumns...).
		From(hoursTable).
		Where(goqu.Ex{"attorney_office_id": ids}).
		Order(goqu.I("attorney_office_id").Asc(), goqu.I("day_of_week").Asc(), goqu.I("open_hour").Asc(), goqu.I("open_minute").Asc()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build hours query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to load hours", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h entities.HourWindow
		if err := rows.Scan(&h.ID, &h.BusinessID, &h.HoursType, &h.DayOfWeek,
			&h.OpenHour, &h.OpenMinute, &h.CloseHour, &h.CloseMinute); err != nil {
			return apperrors.NewInternalError("failed to scan hours", err)
		}
		if b, ok := byID[h.BusinessID]; ok {
			b.Hours = append(b.Hours, h)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to iterate hours", err)
	}
	return nil
}

// CountByCity counts businesses in a city
func (a *BusinessAdapter) CountByCity(ctx context.Context, cityID int64) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From(businessTable).
		Where(goqu.Ex{"city_id": cityID}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}
	return a.count(ctx, query, args)
}

// LatestRefresh returns the newest refresh time in a city, nil when empty
func (a *BusinessAdapter) LatestRefresh(ctx context.Context, cityID int64) (*time.Time, error) {
	query, args, err := a.db.Select(goqu.MAX("last_api_refresh")).
		From(businessTable).
		Where(goqu.Ex{"city_id": cityID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var latest sql.NullTime
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return nil, apperrors.NewInternalError("failed to get latest refresh", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// CountWithHours counts businesses owning at least one window; cityID 0 means all
func (a *BusinessAdapter) CountWithHours(ctx context.Context, cityID int64) (int, error) {
	ds := a.db.Select(goqu.COUNT(goqu.DISTINCT(goqu.I("h.attorney_office_id")))).
		From(goqu.T(hoursTable).As("h"))
	if cityID > 0 {
		ds = ds.Join(goqu.T(businessTable).As("o"), goqu.On(goqu.Ex{"o.id": goqu.I("h.attorney_office_id")})).
			Where(goqu.Ex{"o.city_id": cityID})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}
	return a.count(ctx, query, args)
}

// CountHourWindows counts every stored hour window
func (a *BusinessAdapter) CountHourWindows(ctx context.Context) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).From(hoursTable).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}
	return a.count(ctx, query, args)
}

func (a *BusinessAdapter) count(ctx context.Context, query string, args []interface{}) (int, error) {
	var n int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.NewInternalError("failed to count", err)
	}
	return n, nil
}

func (a *BusinessAdapter) observe(ctx context.Context, operation string, start time.Time) {
	observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBusiness(row rowScanner) (*entities.Business, error) {
	b := &entities.Business{}
	var formatted, short, primaryType, primaryTypeName, mapsURI, websiteURI sql.NullString
	var flags [14]sql.NullBool

	err := row.Scan(
		&b.ID, &b.SourceID, &b.CityID, &b.DisplayName, &formatted, &short,
		&primaryType, &primaryTypeName, &b.Location.Latitude, &b.Location.Longitude,
		&mapsURI, &websiteURI,
		&flags[0], &flags[1], &flags[2], &flags[3],
		&flags[4], &flags[5], &flags[6], &flags[7],
		&flags[8], &flags[9],
		&flags[10], &flags[11],
		&flags[12], &flags[13],
		pq.Array(&b.PracticeAreas), &b.LastAPIRefresh, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.FormattedAddress = formatted.String
	b.ShortAddress = short.String
	b.PrimaryType = primaryType.String
	b.PrimaryTypeDisplayName = primaryTypeName.String
	b.GoogleMapsURI = mapsURI.String
	b.WebsiteURI = websiteURI.String

	b.Amenities = entities.Amenities{
		Payment: entities.PaymentOptions{
			AcceptsCreditCards: boolPtr(flags[0]),
			AcceptsDebitCards:  boolPtr(flags[1]),
			CashOnly:           boolPtr(flags[2]),
			AcceptsNFC:         boolPtr(flags[3]),
		},
		Parking: entities.ParkingOptions{
			FreeParkingLot:    boolPtr(flags[4]),
			PaidParkingLot:    boolPtr(flags[5]),
			FreeStreetParking: boolPtr(flags[6]),
			ValetParking:      boolPtr(flags[7]),
			FreeGarageParking: boolPtr(flags[8]),
			PaidGarageParking: boolPtr(flags[9]),
		},
		Accessibility: entities.AccessibilityOptions{
			WheelchairAccessibleParking:  boolPtr(flags[10]),
			WheelchairAccessibleEntrance: boolPtr(flags[11]),
			WheelchairAccessibleRestroom: boolPtr(flags[12]),
			WheelchairAccessibleSeating:  boolPtr(flags[13]),
		},
	}
	if b.PracticeAreas == nil {
		b.PracticeAreas = []string{}
	}
	return b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func boolPtr(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return entities.BoolPtr(v.Bool)
}
