package globe

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/agnivade/levenshtein"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"golang.org/x/text/cases"
)

// CityRecord is one parsed row of the cities dataset.
type CityRecord struct {
	ID        int     // Row index in the raw source, rejected rows included
	Name      string  // City name
	Country   string  // Country as given by the dataset
	Latitude  float64 // Degrees, in [-90,90]
	Longitude float64 // Degrees, in [-180,180]
}

// Position returns the city's point on a sphere of the given radius.
func (c CityRecord) Position(radius float64) r3.Vector {
	return Project(c.Latitude, c.Longitude, radius)
}

// LatLng returns the city's position as an s2 LatLng.
func (c CityRecord) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.Latitude, c.Longitude)
}

// Geohash returns a short geohash label for the city.
func (c CityRecord) Geohash() string {
	h := geohash.Encode(c.Latitude, c.Longitude)
	if len(h) > geohashPrecision {
		h = h[:geohashPrecision]
	}
	return h
}

// geohashPrecision keeps labels at roughly city scale (~5km).
const geohashPrecision = 5

// cellLevel is the s2 level of the picking index. Level 4 cells are several
// degrees across, so a cell plus its neighbours always covers maxPickDistance.
const cellLevel = 4

// maxPickDistance bounds Nearest; clicks farther than this from any city
// select nothing.
const maxPickDistance = 1.5 * s1.Degree

// maxSuggestDistance caps the edit distance accepted by Suggest.
const maxSuggestDistance = 3

// maxSuggestInputLen limits query length before Levenshtein scoring.
const maxSuggestInputLen = 256

// maxSuggestions is the number of results Suggest returns at most.
const maxSuggestions = 5

// Catalog is the in-memory collection of parsed cities. It is the only owner of
// CityRecord storage; point clouds and markers are views recomputed from it.
type Catalog struct {
	Cities   []CityRecord // Accepted records in source order
	Rejected int          // Rows dropped during parsing

	byID      map[int]int
	cellIndex map[s2.CellID][]int
	countries map[string]string // interned country names
}

// NewCatalog builds a catalog from raw rows. Each row must hold at least
// name, country, latitude and longitude; rows that do not, or whose
// coordinates are not finite in-range numbers, are dropped. A record's ID is
// its index in rows, so IDs survive drops unchanged.
func NewCatalog(rows [][]string) *Catalog {
	c := &Catalog{
		Cities:    make([]CityRecord, 0, len(rows)),
		byID:      make(map[int]int, len(rows)),
		countries: make(map[string]string),
	}
	for i, row := range rows {
		rec, ok := parseRow(i, row)
		if !ok {
			c.Rejected++
			continue
		}
		rec.Country = c.internCountry(rec.Country)
		c.byID[rec.ID] = len(c.Cities)
		c.Cities = append(c.Cities, rec)
	}
	c.buildCellIndex()
	return c
}

// internCountry returns the shared copy of name. Every city of a country
// then points at one string instead of its own copy of the CSV field.
func (c *Catalog) internCountry(name string) string {
	if s, ok := c.countries[name]; ok {
		return s
	}
	c.countries[name] = name
	return name
}

func parseRow(id int, fields []string) (CityRecord, bool) {
	if len(fields) < 4 {
		return CityRecord{}, false
	}
	lat, ok := parseCoord(fields[2], 90)
	if !ok {
		return CityRecord{}, false
	}
	lon, ok := parseCoord(fields[3], 180)
	if !ok {
		return CityRecord{}, false
	}
	return CityRecord{
		ID:        id,
		Name:      fields[0],
		Country:   fields[1],
		Latitude:  lat,
		Longitude: lon,
	}, true
}

func parseCoord(s string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v < -limit || v > limit {
		return 0, false
	}
	return v, true
}

// Len returns the number of accepted records. A nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Cities)
}

// Countries returns the number of distinct countries in the catalog.
func (c *Catalog) Countries() int {
	if c == nil {
		return 0
	}
	return len(c.countries)
}

// Lookup finds a record by ID in the full catalog.
func (c *Catalog) Lookup(id int) (CityRecord, bool) {
	if c == nil {
		return CityRecord{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return CityRecord{}, false
	}
	return c.Cities[idx], true
}

// Filter returns the records whose name matches p, in catalog order.
func (c *Catalog) Filter(p FilterPredicate) []CityRecord {
	if c == nil {
		return nil
	}
	if p == "" {
		return slices.Clone(c.Cities)
	}
	match := p.matcher()
	var out []CityRecord
	for _, city := range c.Cities {
		if match(city.Name) {
			out = append(out, city)
		}
	}
	return out
}

// FilterPredicate is a case-insensitive substring match on a city name. The
// empty predicate matches every name.
type FilterPredicate string

// Match reports whether name contains the predicate, ignoring case.
func (p FilterPredicate) Match(name string) bool {
	return p.matcher()(name)
}

func (p FilterPredicate) matcher() func(string) bool {
	if p == "" {
		return func(string) bool { return true }
	}
	fold := cases.Fold()
	needle := fold.String(string(p))
	return func(name string) bool {
		return strings.Contains(fold.String(name), needle)
	}
}

// buildCellIndex creates an s2 cell index used by Nearest.
func (c *Catalog) buildCellIndex() {
	c.cellIndex = make(map[s2.CellID][]int)
	for i, city := range c.Cities {
		cell := s2.CellIDFromLatLng(city.LatLng()).Parent(cellLevel)
		c.cellIndex[cell] = append(c.cellIndex[cell], i)
	}
}

// cellAndNeighbors returns the given cell plus the cells around it.
func cellAndNeighbors(cell s2.CellID) []s2.CellID {
	cells := []s2.CellID{cell}
	seen := map[s2.CellID]bool{cell: true}
	for _, edge := range cell.EdgeNeighbors() {
		if !seen[edge] {
			cells = append(cells, edge)
			seen[edge] = true
		}
		for _, corner := range edge.EdgeNeighbors() {
			if !seen[corner] {
				cells = append(cells, corner)
				seen[corner] = true
			}
		}
	}
	return cells
}

// Nearest returns the city closest to (lat, lon) within maxPickDistance.
// Ties on distance go to the lower ID.
func (c *Catalog) Nearest(lat, lon float64) (CityRecord, bool) {
	if c.Len() == 0 || math.IsNaN(lat) || math.IsNaN(lon) ||
		math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return CityRecord{}, false
	}

	query := s2.LatLngFromDegrees(lat, lon).Normalized()
	queryCell := s2.CellIDFromLatLng(query).Parent(cellLevel)

	best := -1
	var bestDist s1.Angle
	for _, cell := range cellAndNeighbors(queryCell) {
		for _, idx := range c.cellIndex[cell] {
			d := query.Distance(c.Cities[idx].LatLng())
			if d > maxPickDistance {
				continue
			}
			if best < 0 || d < bestDist || (d == bestDist && c.Cities[idx].ID < c.Cities[best].ID) {
				best, bestDist = idx, d
			}
		}
	}
	if best < 0 {
		return CityRecord{}, false
	}
	return c.Cities[best], true
}

// Suggest returns up to five cities whose names are within maxDist edits of
// query, closest first. It is meant for "did you mean" hints when a filter
// matches nothing. maxDist is capped at 3; zero or less returns nil.
func (c *Catalog) Suggest(query string, maxDist int) []CityRecord {
	query = strings.TrimSpace(query)
	if c.Len() == 0 || query == "" || maxDist <= 0 {
		return nil
	}
	if maxDist > maxSuggestDistance {
		maxDist = maxSuggestDistance
	}
	if runes := []rune(query); len(runes) > maxSuggestInputLen {
		query = string(runes[:maxSuggestInputLen])
	}

	type scored struct {
		city CityRecord
		dist int
	}
	fold := cases.Fold()
	q := fold.String(query)
	var hits []scored
	for _, city := range c.Cities {
		d := levenshtein.ComputeDistance(q, fold.String(city.Name))
		if d <= maxDist {
			hits = append(hits, scored{city, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].city.ID < hits[j].city.ID
	})
	if len(hits) > maxSuggestions {
		hits = hits[:maxSuggestions]
	}
	out := make([]CityRecord, len(hits))
	for i, h := range hits {
		out[i] = h.city
	}
	return out
}
