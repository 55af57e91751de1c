package globe

import "github.com/golang/geo/r3"

// MarkerColor highlights the selected city; distinct from PointColor.
var MarkerColor = Yellow

// MarkerDotRadius is the radius of the dot at the marker tip.
const MarkerDotRadius = 0.01

// Selection holds at most one selected city ID. The zero value selects
// nothing. A selection only changes when a new one replaces it.
type Selection struct {
	id  int
	set bool
}

// NoSelection selects nothing.
var NoSelection = Selection{}

// Select returns a selection of the given city ID.
func Select(id int) Selection {
	return Selection{id: id, set: true}
}

// ID returns the selected ID and whether anything is selected.
func (s Selection) ID() (int, bool) {
	return s.id, s.set
}

// Marker is a radial tick over the selected city: a segment from Base to Tip
// and a dot at Tip.
type Marker struct {
	CityID    int
	Base      r3.Vector
	Tip       r3.Vector
	DotRadius float64
	Color     RGB
}

// BuildMarker resolves sel against the full catalog with the default
// calibration.
func BuildMarker(sel Selection, cat *Catalog) (Marker, bool) {
	return DefaultCalibration().BuildMarker(sel, cat)
}

// BuildMarker looks the selected ID up in the full, unfiltered catalog so a
// selection stays visible whatever the current filter is. An empty selection
// or an ID with no record yields no marker.
func (c Calibration) BuildMarker(sel Selection, cat *Catalog) (Marker, bool) {
	id, ok := sel.ID()
	if !ok {
		return Marker{}, false
	}
	city, ok := cat.Lookup(id)
	if !ok {
		return Marker{}, false
	}
	return Marker{
		CityID:    city.ID,
		Base:      c.Project(city.Latitude, city.Longitude, SurfaceRadius),
		Tip:       c.Project(city.Latitude, city.Longitude, MarkerRadius),
		DotRadius: MarkerDotRadius,
		Color:     MarkerColor,
	}, true
}
