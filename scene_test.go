package globe

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "gopkg.in/check.v1"
)

type ComposerSuite struct {
	metrics *Metrics
	comp    *Composer
}

var _ = Suite(&ComposerSuite{})

func (s *ComposerSuite) SetUpTest(c *C) {
	m, err := NewMetrics(prometheus.NewRegistry())
	c.Assert(err, IsNil)
	s.metrics = m
	s.comp = NewComposer(WithLogger(quietLogger()), WithMetrics(m))
}

func (s *ComposerSuite) loadSample() {
	s.comp.SetCatalog(NewCatalog(sampleRows()), nil)
}

func allToggles() Toggles {
	t := DefaultToggles()
	t.ShowCity = true
	return t
}

func (s *ComposerSuite) TestStartsLoading(c *C) {
	c.Assert(s.comp.Status(), Equals, CatalogLoading)
	c.Assert(s.comp.Catalog(), NotNil)
	c.Assert(s.comp.NoMatches(), Equals, false)

	scene := s.comp.Compose(DefaultToggles())
	c.Assert(scene.Cities.Points, NotNil)
	c.Assert(scene.Cities.Points.Len(), Equals, 0)
}

func (s *ComposerSuite) TestLoadedCatalog(c *C) {
	s.loadSample()

	c.Assert(s.comp.Status(), Equals, CatalogLoaded)
	c.Assert(s.comp.LoadErr(), IsNil)
	c.Assert(s.comp.Filtered(), HasLen, 9)
	c.Assert(s.comp.PointCloud().Len(), Equals, 9)
}

func (s *ComposerSuite) TestFailedLoad(c *C) {
	s.loadSample()
	err := s.comp.LoadCatalog(context.Background(), filepath.Join(c.MkDir(), "missing.csv"))

	c.Assert(IsLoadFailure(err), Equals, true)
	c.Assert(s.comp.Status(), Equals, CatalogLoadFailed)
	c.Assert(IsLoadFailure(s.comp.LoadErr()), Equals, true)
	c.Assert(s.comp.Catalog().Len(), Equals, 0)
	c.Assert(s.comp.PointCloud().Len(), Equals, 0)
	// An empty catalog is not the same as a filter that matches nothing.
	c.Assert(s.comp.NoMatches(), Equals, false)
}

func (s *ComposerSuite) TestSetCatalogNilWithoutError(c *C) {
	s.comp.SetCatalog(nil, nil)
	c.Assert(s.comp.Status(), Equals, CatalogLoadFailed)
	c.Assert(errors.Is(s.comp.LoadErr(), ErrLoadFailed), Equals, true)
}

func (s *ComposerSuite) TestNoMatches(c *C) {
	s.comp.SetCatalog(NewCatalog(nil), nil)
	s.comp.SetFilter("zzz")
	c.Assert(s.comp.NoMatches(), Equals, false)

	s.loadSample()
	c.Assert(s.comp.NoMatches(), Equals, true)
	c.Assert(s.comp.PointCloud().Len(), Equals, 0)

	s.comp.SetFilter("new")
	c.Assert(s.comp.NoMatches(), Equals, false)
	c.Assert(names(s.comp.Filtered()), DeepEquals, []string{"New York", "Newcastle"})
}

func (s *ComposerSuite) TestSetFilterRebuildsOnlyOnChange(c *C) {
	s.loadSample()
	c.Assert(testutil.ToFloat64(s.metrics.PointCloudRebuilds), Equals, 1.0)

	s.comp.SetFilter("rom")
	c.Assert(testutil.ToFloat64(s.metrics.PointCloudRebuilds), Equals, 2.0)
	c.Assert(testutil.ToFloat64(s.metrics.PointCloudPoints), Equals, 2.0)

	s.comp.SetFilter("rom")
	c.Assert(testutil.ToFloat64(s.metrics.PointCloudRebuilds), Equals, 2.0)

	s.comp.SetFilter("")
	c.Assert(testutil.ToFloat64(s.metrics.PointCloudRebuilds), Equals, 3.0)
	c.Assert(s.comp.Filter(), Equals, "")
	c.Assert(s.comp.PointCloud().Len(), Equals, 9)
}

func (s *ComposerSuite) TestPointCloudFollowsFilter(c *C) {
	s.loadSample()
	s.comp.SetFilter("ROM")

	pc := s.comp.PointCloud()
	c.Assert(pc.IDs, DeepEquals, []int{8, 9})
	for i, city := range s.comp.Filtered() {
		want := city.Position(PointRadius)
		c.Assert(pc.Position(i).Distance(want) < 1e-6, Equals, true)
	}
}

func (s *ComposerSuite) TestMarkerIgnoresFilter(c *C) {
	s.loadSample()
	paris, _ := s.comp.Catalog().Lookup(2)
	s.comp.OnCitySelect(paris)
	s.comp.SetFilter("tokyo")

	scene := s.comp.Compose(allToggles())
	c.Assert(scene.Cities.Points.Len(), Equals, 1)
	c.Assert(scene.Cities.Marker, NotNil)
	c.Assert(scene.Cities.Marker.CityID, Equals, 2)
}

func (s *ComposerSuite) TestStaleSelectionDrawsNoMarker(c *C) {
	s.loadSample()
	auckland, _ := s.comp.Catalog().Lookup(7)
	s.comp.OnCitySelect(auckland)

	// Reload without Auckland: the ID is kept but resolves to nothing.
	rows := sampleRows()
	rows[7] = []string{"Auckland", "New Zealand"}
	s.comp.SetCatalog(NewCatalog(rows), nil)

	id, ok := s.comp.Selection().ID()
	c.Assert(ok, Equals, true)
	c.Assert(id, Equals, 7)
	c.Assert(s.comp.Compose(allToggles()).Cities.Marker, IsNil)
}

func (s *ComposerSuite) TestMarkerHiddenByToggle(c *C) {
	s.loadSample()
	c.Assert(s.comp.SelectNearest(48.86, 2.35), Equals, true)

	scene := s.comp.Compose(DefaultToggles())
	c.Assert(scene.Cities.Marker, IsNil)

	scene = s.comp.Compose(allToggles())
	c.Assert(scene.Cities.Marker, NotNil)
}

func (s *ComposerSuite) TestTogglesReadEveryFrame(c *C) {
	s.loadSample()

	t := DefaultToggles()
	scene := s.comp.Compose(t)
	c.Assert(scene.Globe, NotNil)
	c.Assert(scene.Globe.Uniforms.ShowColorBox, Equals, true)
	c.Assert(scene.Globe.Uniforms.ShowCenters, Equals, true)
	c.Assert(scene.Globe.Uniforms.ShowPoliticalMap, Equals, true)

	t.ShowColorBox = false
	t.ShowPoliticalMap = false
	scene = s.comp.Compose(t)
	c.Assert(scene.Globe.Uniforms.ShowColorBox, Equals, false)
	c.Assert(scene.Globe.Uniforms.ShowCenters, Equals, true)
	c.Assert(scene.Globe.Uniforms.ShowPoliticalMap, Equals, false)

	c.Assert(testutil.ToFloat64(s.metrics.FramesComposed), Equals, 2.0)
}

func (s *ComposerSuite) TestLayerVisibility(c *C) {
	s.loadSample()

	t := DefaultToggles()
	t.ShowEarth = false
	t.ShowCities = false
	scene := s.comp.Compose(t)
	c.Assert(scene.Globe, IsNil)
	c.Assert(scene.Cities.Points, IsNil)
	// The axis indicator does not depend on the earth toggle.
	c.Assert(scene.Axis, NotNil)
	c.Assert(scene.Axis.Length, Equals, AxisLength)

	t.ShowAxis = false
	c.Assert(s.comp.Compose(t).Axis, IsNil)
}

func (s *ComposerSuite) TestUniformsCarryCalibration(c *C) {
	cal := Calibration{OffsetDegrees: -90}
	comp := NewComposer(WithLogger(quietLogger()), WithCalibration(cal), WithCentersRadius(0.2))
	comp.SetCatalog(NewCatalog(sampleRows()), nil)

	scene := comp.Compose(DefaultToggles())
	c.Assert(scene.Globe.Uniforms.PoliticalUVShift, ApproxEquals, 0.5, 1e-12)
	c.Assert(scene.Globe.Uniforms.CentersRadius, Equals, 0.2)
	c.Assert(scene.Cities.Yaw, Equals, CityLayerYaw)

	tokyo, _ := comp.Catalog().Lookup(1)
	want := cal.Project(tokyo.Latitude, tokyo.Longitude, PointRadius)
	c.Assert(scene.Cities.Points.Position(0).Distance(want) < 1e-6, Equals, true)
}

func (s *ComposerSuite) TestSelectNearest(c *C) {
	s.loadSample()

	c.Assert(s.comp.SelectNearest(51.4, -0.2), Equals, true)
	id, _ := s.comp.Selection().ID()
	c.Assert(id, Equals, 3)

	// A miss keeps the previous selection.
	c.Assert(s.comp.SelectNearest(0, -140), Equals, false)
	id, _ = s.comp.Selection().ID()
	c.Assert(id, Equals, 3)
}

func (s *ComposerSuite) TestSelectAtUndoesLayerYaw(c *C) {
	s.loadSample()
	sydney, _ := s.comp.Catalog().Lookup(5)

	// Where Sydney is drawn, not where it projects before the layer rotation.
	drawn := rotateY(sydney.Position(SurfaceRadius), CityLayerYaw)
	c.Assert(s.comp.SelectAt(drawn), Equals, true)
	id, _ := s.comp.Selection().ID()
	c.Assert(id, Equals, sydney.ID)
}

func (s *ComposerSuite) TestLoadTexturesKeepsPreviousOnFailure(c *C) {
	s.comp.SetTextures(SolidTexture(Blue), SolidTexture(Green))
	s.comp.LoadTextures(filepath.Join(c.MkDir(), "missing.png"), "")

	u := s.comp.Compose(DefaultToggles()).Globe.Uniforms
	c.Assert(u.Earth.Sample(UV{U: 0.5, V: 0.5}), Equals, Blue)
	c.Assert(u.Political.Sample(UV{U: 0.5, V: 0.5}), Equals, Green)
}

func (s *ComposerSuite) TestCatalogStatusString(c *C) {
	c.Check(CatalogLoading.String(), Equals, "loading")
	c.Check(CatalogLoaded.String(), Equals, "loaded")
	c.Check(CatalogLoadFailed.String(), Equals, "load failed")
	c.Check(CatalogStatus(42).String(), Equals, "unknown")
}
