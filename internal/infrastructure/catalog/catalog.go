package catalog

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/lawyerhours/backend/internal/domain/entities"
)

//go:embed data/*.csv
var files embed.FS

// Catalog is the read-only reference data shipped with the binary:
// directory cities, the practice-area taxonomy and the ZIP neighborhood table.
// It is built once and shared; nothing mutates it after Load.
type Catalog struct {
	cities        []entities.City
	citiesBySlug  map[string]*entities.City
	practiceAreas []entities.PracticeArea
	areasBySlug   map[string]*entities.PracticeArea
	zipTable      map[string][]zipRow
}

// State is a distinct state present in the city list.
type State struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Code string `json:"code"`
}

type cityRow struct {
	Slug       string  `csv:"slug"`
	Name       string  `csv:"name"`
	StateCode  string  `csv:"state_code"`
	StateName  string  `csv:"state_name"`
	StateSlug  string  `csv:"state_slug"`
	Latitude   float64 `csv:"latitude"`
	Longitude  float64 `csv:"longitude"`
	Population int     `csv:"population"`
}

type practiceAreaRow struct {
	Slug        string   `csv:"slug"`
	DisplayName string   `csv:"display_name"`
	Keywords    keywords `csv:"keywords"`
	Urgency     string   `csv:"urgency"`
	Emergency   bool     `csv:"emergency"`
}

type zipRow struct {
	Prefix       string `csv:"zip_prefix"`
	CitySlug     string `csv:"city_slug"`
	Neighborhood string `csv:"neighborhood"`
}

// keywords is a pipe separated list in the CSV.
type keywords []string

func (k *keywords) UnmarshalText(text []byte) error {
	var out []string
	for _, part := range strings.Split(string(text), "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*k = out
	return nil
}

// Load parses the embedded CSV files.
func Load() (*Catalog, error) {
	var cityRows []cityRow
	if err := decode("data/cities.csv", &cityRows); err != nil {
		return nil, err
	}
	var areaRows []practiceAreaRow
	if err := decode("data/practice_areas.csv", &areaRows); err != nil {
		return nil, err
	}
	var zips []zipRow
	if err := decode("data/zip_neighborhoods.csv", &zips); err != nil {
		return nil, err
	}
	return build(cityRows, areaRows, zips)
}

// MustLoad is Load for process start-up, where bad embedded data is a build defect.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func decode(name string, v interface{}) error {
	data, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := csvutil.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func build(cityRows []cityRow, areaRows []practiceAreaRow, zips []zipRow) (*Catalog, error) {
	c := &Catalog{
		cities:        make([]entities.City, 0, len(cityRows)),
		citiesBySlug:  make(map[string]*entities.City, len(cityRows)),
		practiceAreas: make([]entities.PracticeArea, 0, len(areaRows)),
		areasBySlug:   make(map[string]*entities.PracticeArea, len(areaRows)),
		zipTable:      make(map[string][]zipRow),
	}

	for _, r := range cityRows {
		c.cities = append(c.cities, entities.City{
			Slug:       r.Slug,
			Name:       r.Name,
			StateCode:  r.StateCode,
			StateName:  r.StateName,
			StateSlug:  r.StateSlug,
			Location:   entities.Location{Latitude: r.Latitude, Longitude: r.Longitude},
			Population: r.Population,
		})
	}
	for i := range c.cities {
		slug := c.cities[i].Slug
		if _, dup := c.citiesBySlug[slug]; dup {
			return nil, fmt.Errorf("duplicate city slug %q", slug)
		}
		c.citiesBySlug[slug] = &c.cities[i]
	}

	for _, r := range areaRows {
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("practice area %q has no keywords", r.Slug)
		}
		c.practiceAreas = append(c.practiceAreas, entities.PracticeArea{
			Slug:        r.Slug,
			DisplayName: r.DisplayName,
			Keywords:    []string(r.Keywords),
			Urgency:     r.Urgency,
			Emergency:   r.Emergency,
		})
	}
	for i := range c.practiceAreas {
		c.areasBySlug[c.practiceAreas[i].Slug] = &c.practiceAreas[i]
	}

	for _, z := range zips {
		c.zipTable[z.Prefix] = append(c.zipTable[z.Prefix], z)
	}

	return c, nil
}

// Cities returns a copy of the city list in catalog order.
func (c *Catalog) Cities() []entities.City {
	out := make([]entities.City, len(c.cities))
	copy(out, c.cities)
	return out
}

// CityBySlug looks a city up by slug.
func (c *Catalog) CityBySlug(slug string) (entities.City, bool) {
	city, ok := c.citiesBySlug[slug]
	if !ok {
		return entities.City{}, false
	}
	return *city, true
}

// CitiesByState returns the cities of a state in catalog order.
func (c *Catalog) CitiesByState(stateSlug string) []entities.City {
	var out []entities.City
	for _, city := range c.cities {
		if city.StateSlug == stateSlug {
			out = append(out, city)
		}
	}
	return out
}

// States returns the distinct states sorted by name.
func (c *Catalog) States() []State {
	seen := make(map[string]bool)
	var out []State
	for _, city := range c.cities {
		if seen[city.StateSlug] {
			continue
		}
		seen[city.StateSlug] = true
		out = append(out, State{Name: city.StateName, Slug: city.StateSlug, Code: city.StateCode})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PracticeAreas returns a copy of the taxonomy.
func (c *Catalog) PracticeAreas() []entities.PracticeArea {
	out := make([]entities.PracticeArea, len(c.practiceAreas))
	copy(out, c.practiceAreas)
	return out
}

// PracticeAreaBySlug looks a practice area up by slug.
func (c *Catalog) PracticeAreaBySlug(slug string) (entities.PracticeArea, bool) {
	area, ok := c.areasBySlug[slug]
	if !ok {
		return entities.PracticeArea{}, false
	}
	return *area, true
}

// EmergencyPracticeAreas lists the slugs of areas flagged for after-hours help.
func (c *Catalog) EmergencyPracticeAreas() []string {
	var out []string
	for _, area := range c.practiceAreas {
		if area.Emergency {
			out = append(out, area.Slug)
		}
	}
	return out
}

// NeighborhoodForZIP resolves a ZIP code against the neighborhood table,
// longest prefix first. Rows bound to another city are ignored when citySlug is set.
func (c *Catalog) NeighborhoodForZIP(citySlug, zip string) (string, bool) {
	for n := len(zip); n >= 3; n-- {
		for _, row := range c.zipTable[zip[:n]] {
			if citySlug == "" || row.CitySlug == "" || row.CitySlug == citySlug {
				return row.Neighborhood, true
			}
		}
	}
	return "", false
}
