package globe

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/golang/geo/r3"
)

// CityLayerYaw rotates the whole city layer about +Y relative to the globe.
const CityLayerYaw = math.Pi / 2

// Toggles are the user-facing switches, read as plain values every frame.
type Toggles struct {
	ShowAxis         bool
	ShowEarth        bool
	ShowPoliticalMap bool
	ShowCenters      bool
	ShowColorBox     bool
	ShowCities       bool // every filtered city as a point
	ShowCity         bool // the selected city's marker
}

// DefaultToggles enables every layer except the selection marker.
func DefaultToggles() Toggles {
	return Toggles{
		ShowAxis:         true,
		ShowEarth:        true,
		ShowPoliticalMap: true,
		ShowCenters:      true,
		ShowColorBox:     true,
		ShowCities:       true,
	}
}

// CatalogStatus tells an empty catalog that is still loading or failed to load
// apart from one that loaded and simply matches nothing.
type CatalogStatus int

const (
	CatalogLoading CatalogStatus = iota
	CatalogLoaded
	CatalogLoadFailed
)

func (s CatalogStatus) String() string {
	switch s {
	case CatalogLoading:
		return "loading"
	case CatalogLoaded:
		return "loaded"
	case CatalogLoadFailed:
		return "load failed"
	default:
		return "unknown"
	}
}

// GlobeNode is the textured sphere with this frame's uniforms.
type GlobeNode struct {
	Mesh     *SphereMesh
	Uniforms Uniforms
}

// AxisNode is the axis indicator.
type AxisNode struct {
	Length float64
}

// CityLayer groups the point cloud and the selection marker under one
// rotation about +Y. Nil members are not drawn.
type CityLayer struct {
	Yaw    float64
	Points *PointCloud
	Marker *Marker
}

// Scene is one frame's drawables. Nil nodes are hidden.
type Scene struct {
	Globe  *GlobeNode
	Axis   *AxisNode
	Cities CityLayer
}

// Composer owns the catalog, the filter, the point cloud and the selection,
// and assembles a Scene per frame. It is driven from a single render loop and
// is not safe for concurrent use.
type Composer struct {
	cfg  *Config
	log  *slog.Logger
	mesh *SphereMesh

	earth     Sampler
	political Sampler

	catalog  *Catalog
	status   CatalogStatus
	loadErr  error
	filter   FilterPredicate
	filtered []CityRecord
	cloud    PointCloud

	selection Selection
}

// NewComposer returns a composer in the loading state with no textures.
func NewComposer(opts ...Option) *Composer {
	cfg := newConfig(opts)
	return &Composer{
		cfg:     cfg,
		log:     cfg.Logger,
		mesh:    NewSphereMesh(SurfaceRadius, GlobeWidthSegments, GlobeHeightSegments),
		catalog: NewCatalog(nil),
		status:  CatalogLoading,
	}
}

// SetTextures installs the base and political textures. A nil texture
// leaves the corresponding slot unchanged.
func (c *Composer) SetTextures(earth, political *Texture) {
	if earth != nil {
		c.earth = earth
	}
	if political != nil {
		c.political = political
	}
}

// LoadTextures loads both textures from disk. A failure is logged and keeps
// whatever texture was installed before; it never fails the frame loop.
func (c *Composer) LoadTextures(earthPath, politicalPath string) {
	load := func(kind, path string) *Texture {
		if path == "" {
			return nil
		}
		t, err := LoadTexture(path)
		if err != nil {
			c.log.Warn("texture not loaded, keeping previous", "texture", kind, "path", path, "error", err)
			return nil
		}
		return t
	}
	c.SetTextures(load("earth", earthPath), load("political", politicalPath))
}

// LoadCatalog loads source and installs the result, failed or not.
func (c *Composer) LoadCatalog(ctx context.Context, source string) error {
	cat, err := LoadCatalog(ctx, source,
		WithLogger(c.cfg.Logger),
		WithMetrics(c.cfg.Metrics),
		WithHTTPClient(c.cfg.HTTPClient),
	)
	c.SetCatalog(cat, err)
	return err
}

// SetCatalog installs the outcome of a catalog load. A non-nil err empties
// the catalog and moves to CatalogLoadFailed. The filter is re-applied and
// the point cloud rebuilt.
func (c *Composer) SetCatalog(cat *Catalog, err error) {
	if err != nil || cat == nil {
		if err == nil {
			err = ErrLoadFailed
		}
		c.catalog = NewCatalog(nil)
		c.status = CatalogLoadFailed
		c.loadErr = err
	} else {
		c.catalog = cat
		c.status = CatalogLoaded
		c.loadErr = nil
	}

	if id, ok := c.selection.ID(); ok {
		if _, found := c.catalog.Lookup(id); !found {
			c.log.Debug("selected city not in catalog", "id", id)
		}
	}
	c.rebuild()
}

// Status reports the catalog lifecycle state.
func (c *Composer) Status() CatalogStatus {
	return c.status
}

// LoadErr returns the error of the last failed load, or nil.
func (c *Composer) LoadErr() error {
	return c.loadErr
}

// Catalog returns the full catalog. It is never nil.
func (c *Composer) Catalog() *Catalog {
	return c.catalog
}

// SetFilter updates the name filter and, when it changed, synchronously
// refilters and rebuilds the point cloud before returning.
func (c *Composer) SetFilter(text string) {
	p := FilterPredicate(text)
	if p == c.filter {
		return
	}
	c.filter = p
	c.rebuild()
}

// Filter returns the current filter text.
func (c *Composer) Filter() string {
	return string(c.filter)
}

// Filtered returns the cities matching the current filter.
func (c *Composer) Filtered() []CityRecord {
	return c.filtered
}

// NoMatches reports a loaded catalog whose filter matches nothing, as opposed
// to a catalog that has no data at all.
func (c *Composer) NoMatches() bool {
	return c.status == CatalogLoaded && c.catalog.Len() > 0 && len(c.filtered) == 0
}

// PointCloud returns the current point cloud.
func (c *Composer) PointCloud() PointCloud {
	return c.cloud
}

func (c *Composer) rebuild() {
	c.filtered = c.catalog.Filter(c.filter)
	c.cloud = c.cfg.Calibration.BuildPointCloud(c.filtered)
	c.cfg.Metrics.ObserveRebuild(c.cloud.Len())
	c.log.Debug("point cloud rebuilt", "points", c.cloud.Len(), "filter", string(c.filter))
}

// OnCitySelect records city as the selection. Only its ID is kept.
func (c *Composer) OnCitySelect(city CityRecord) {
	c.selection = Select(city.ID)
	c.log.Debug("city selected", "id", city.ID, "name", city.Name, "geohash", city.Geohash())
}

// Selection returns the current selection.
func (c *Composer) Selection() Selection {
	return c.selection
}

// SelectNearest selects the city nearest to (lat, lon), if any lies within
// picking distance, and reports whether the selection changed.
func (c *Composer) SelectNearest(lat, lon float64) bool {
	city, ok := c.catalog.Nearest(lat, lon)
	if !ok {
		return false
	}
	c.OnCitySelect(city)
	return true
}

// SelectAt selects the city nearest to the world-space surface point p, such
// as a Camera.Pick hit. The city layer rotation is undone before unprojecting.
func (c *Composer) SelectAt(p r3.Vector) bool {
	lat, lon := c.cfg.Calibration.Unproject(rotateY(p, -CityLayerYaw))
	return c.SelectNearest(lat, lon)
}

// Compose assembles the scene for one frame from t. The globe's ShaderState
// is rebuilt from t on every call, changed or not.
func (c *Composer) Compose(t Toggles) Scene {
	var s Scene

	if t.ShowEarth {
		s.Globe = &GlobeNode{
			Mesh: c.mesh,
			Uniforms: Uniforms{
				ShaderState: ShaderState{
					ShowPoliticalMap: t.ShowPoliticalMap,
					ShowCenters:      t.ShowCenters,
					ShowColorBox:     t.ShowColorBox,
					CentersRadius:    c.cfg.CentersRadius,
				},
				Earth:            c.earth,
				Political:        c.political,
				PoliticalUVShift: c.cfg.Calibration.PoliticalUVShift(),
			},
		}
	}

	if t.ShowAxis {
		s.Axis = &AxisNode{Length: AxisLength}
	}

	s.Cities.Yaw = CityLayerYaw
	if t.ShowCities {
		cloud := c.cloud
		s.Cities.Points = &cloud
	}
	if t.ShowCity {
		if m, ok := c.cfg.Calibration.BuildMarker(c.selection, c.catalog); ok {
			s.Cities.Marker = &m
		}
	}

	c.cfg.Metrics.IncFrames()
	return s
}

// IsLoadFailure reports whether err came from a whole-source catalog failure.
func IsLoadFailure(err error) bool {
	return errors.Is(err, ErrLoadFailed)
}
