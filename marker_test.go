package globe

import (
	. "gopkg.in/check.v1"
)

type MarkerSuite struct {
	catalog *Catalog
}

var _ = Suite(&MarkerSuite{})

func (s *MarkerSuite) SetUpTest(c *C) {
	s.catalog = NewCatalog(sampleRows())
}

func (s *MarkerSuite) TestNoSelectionDrawsNothing(c *C) {
	_, ok := BuildMarker(NoSelection, s.catalog)
	c.Assert(ok, Equals, false)

	_, set := NoSelection.ID()
	c.Assert(set, Equals, false)
}

func (s *MarkerSuite) TestStaleIDDrawsNothing(c *C) {
	// Row 0 is the header, so no record has ID 0.
	_, ok := BuildMarker(Select(0), s.catalog)
	c.Assert(ok, Equals, false)

	_, ok = BuildMarker(Select(999), s.catalog)
	c.Assert(ok, Equals, false)

	_, ok = BuildMarker(Select(2), nil)
	c.Assert(ok, Equals, false)
}

func (s *MarkerSuite) TestMarkerIgnoresFilter(c *C) {
	paris, ok := s.catalog.Lookup(2)
	c.Assert(ok, Equals, true)
	c.Assert(s.catalog.Filter("tokyo"), HasLen, 1)

	m, ok := BuildMarker(Select(paris.ID), s.catalog)
	c.Assert(ok, Equals, true)
	c.Assert(m.CityID, Equals, paris.ID)
}

func (s *MarkerSuite) TestMarkerGeometry(c *C) {
	city, _ := s.catalog.Lookup(5) // Sydney
	m, ok := BuildMarker(Select(city.ID), s.catalog)
	c.Assert(ok, Equals, true)

	c.Assert(m.Base.Norm(), ApproxEquals, SurfaceRadius, 1e-12)
	c.Assert(m.Tip.Norm(), ApproxEquals, MarkerRadius, 1e-12)
	// Base and tip lie on the same radial line.
	c.Assert(m.Base.Normalize().Distance(m.Tip.Normalize()), ApproxEquals, 0.0, 1e-12)
	c.Assert(m.Base.Distance(city.Position(SurfaceRadius)), ApproxEquals, 0.0, 1e-12)

	c.Assert(m.Color, Equals, MarkerColor)
	c.Assert(m.Color, Not(Equals), PointColor)
	c.Assert(m.DotRadius, Equals, MarkerDotRadius)
}
