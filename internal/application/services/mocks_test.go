package services_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/domain/providers"
	"github.com/lawyerhours/backend/internal/domain/repositories"
	"github.com/stretchr/testify/mock"
)

// MockBusinessRepository is a testify mock of repositories.BusinessRepository.
type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) GetBySourceID(ctx context.Context, sourceID string) (*entities.Business, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Business), args.Error(1)
}

func (m *MockBusinessRepository) Create(ctx context.Context, business *entities.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) Update(ctx context.Context, business *entities.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) ListByCity(ctx context.Context, cityID int64, filter repositories.BusinessFilter) ([]*entities.Business, error) {
	args := m.Called(ctx, cityID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Business), args.Error(1)
}

func (m *MockBusinessRepository) CountByCity(ctx context.Context, cityID int64) (int, error) {
	args := m.Called(ctx, cityID)
	return args.Int(0), args.Error(1)
}

func (m *MockBusinessRepository) LatestRefresh(ctx context.Context, cityID int64) (*time.Time, error) {
	args := m.Called(ctx, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockBusinessRepository) CountWithHours(ctx context.Context, cityID int64) (int, error) {
	args := m.Called(ctx, cityID)
	return args.Int(0), args.Error(1)
}

func (m *MockBusinessRepository) CountHourWindows(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockCityRepository is a testify mock of repositories.CityRepository.
type MockCityRepository struct {
	mock.Mock
}

func (m *MockCityRepository) GetBySlug(ctx context.Context, slug string) (*entities.City, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.City), args.Error(1)
}

func (m *MockCityRepository) Create(ctx context.Context, city *entities.City) error {
	args := m.Called(ctx, city)
	return args.Error(0)
}

func (m *MockCityRepository) Upsert(ctx context.Context, city *entities.City) error {
	args := m.Called(ctx, city)
	return args.Error(0)
}

func (m *MockCityRepository) ListByState(ctx context.Context, stateSlug string) ([]*entities.City, error) {
	args := m.Called(ctx, stateSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.City), args.Error(1)
}

func (m *MockCityRepository) List(ctx context.Context) ([]*entities.City, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.City), args.Error(1)
}

// MockPlaceProvider is a testify mock of providers.PlaceProvider.
type MockPlaceProvider struct {
	mock.Mock
}

func (m *MockPlaceProvider) SearchNearby(ctx context.Context, query providers.NearbyQuery) ([]providers.Place, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]providers.Place), args.Error(1)
}

// MockCacheProvider keeps values in memory and records deleted patterns.
type MockCacheProvider struct {
	mu       sync.Mutex
	data     map[string][]byte
	patterns []string
	lockErr  error
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) SetIfAbsent(ctx context.Context, key string, value []byte, expirationSeconds int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockErr != nil {
		return false, m.lockErr
	}
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheProvider) DeletedPatterns() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.patterns...)
}

// MockEventBus records published events per channel.
type MockEventBus struct {
	mu        sync.Mutex
	published map[string][]entities.RefreshEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{published: make(map[string][]entities.RefreshEvent)}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.RefreshEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[channel] = append(m.published[channel], *event)
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.RefreshEvent, error) {
	return make(chan *entities.RefreshEvent), nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}

func (m *MockEventBus) Published(channel string) []entities.RefreshEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.RefreshEvent(nil), m.published[channel]...)
}

// fakeCatalog is a fixed in-memory catalog.
type fakeCatalog struct {
	cities []entities.City
	areas  []entities.PracticeArea
	zips   map[string]string
}

func (c *fakeCatalog) Cities() []entities.City {
	return append([]entities.City(nil), c.cities...)
}

func (c *fakeCatalog) CityBySlug(slug string) (entities.City, bool) {
	for _, city := range c.cities {
		if city.Slug == slug {
			return city, true
		}
	}
	return entities.City{}, false
}

func (c *fakeCatalog) CitiesByState(stateSlug string) []entities.City {
	var out []entities.City
	for _, city := range c.cities {
		if city.StateSlug == stateSlug {
			out = append(out, city)
		}
	}
	return out
}

func (c *fakeCatalog) PracticeAreaBySlug(slug string) (entities.PracticeArea, bool) {
	for _, area := range c.areas {
		if area.Slug == slug {
			return area, true
		}
	}
	return entities.PracticeArea{}, false
}

func (c *fakeCatalog) NeighborhoodForZIP(citySlug, zip string) (string, bool) {
	name, ok := c.zips[citySlug+":"+zip]
	return name, ok
}

var (
	austin = entities.City{
		Slug:       "austin-tx",
		Name:       "Austin",
		StateCode:  "TX",
		StateName:  "Texas",
		StateSlug:  "texas",
		Location:   entities.Location{Latitude: 30.2672, Longitude: -97.7431},
		Population: 961855,
	}
	dallas = entities.City{
		Slug:       "dallas-tx",
		Name:       "Dallas",
		StateCode:  "TX",
		StateName:  "Texas",
		StateSlug:  "texas",
		Location:   entities.Location{Latitude: 32.7767, Longitude: -96.7970},
		Population: 1304379,
	}
	boise = entities.City{
		Slug:       "boise-id",
		Name:       "Boise",
		StateCode:  "ID",
		StateName:  "Idaho",
		StateSlug:  "idaho",
		Location:   entities.Location{Latitude: 43.6150, Longitude: -116.2023},
		Population: 235684,
	}

	testAreas = []entities.PracticeArea{
		{Slug: "family-law", DisplayName: "Family Law", Keywords: []string{"divorce", "custody", "family"}},
		{Slug: "criminal-defense", DisplayName: "Criminal Defense", Keywords: []string{"criminal", "dui", "defense"}, Emergency: true},
		{Slug: "immigration", DisplayName: "Immigration", Keywords: []string{"immigration", "visa"}},
	}
)

func newTestCatalog() *fakeCatalog {
	return &fakeCatalog{
		cities: []entities.City{austin, dallas, boise},
		areas:  testAreas,
		zips:   map[string]string{"austin-tx:78704": "South Congress"},
	}
}

// mondayAt returns Monday 2024-01-15 at hour:minute.
func mondayAt(hour, minute int) time.Time {
	return time.Date(2024, time.January, 15, hour, minute, 0, 0, time.UTC)
}

func window(hoursType string, day, openHour, openMinute, closeHour, closeMinute int) entities.HourWindow {
	return entities.HourWindow{
		HoursType:   hoursType,
		DayOfWeek:   day,
		OpenHour:    openHour,
		OpenMinute:  openMinute,
		CloseHour:   closeHour,
		CloseMinute: closeMinute,
	}
}
