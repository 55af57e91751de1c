package globe

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes catalog and scene counters to Prometheus. All methods are
// safe to call on a nil *Metrics.
type Metrics struct {
	CatalogRows         *prometheus.CounterVec
	CatalogLoadFailures prometheus.Counter
	PointCloudRebuilds  prometheus.Counter
	PointCloudPoints    prometheus.Gauge
	FramesComposed      prometheus.Counter
}

// NewMetrics registers the globe metrics against reg, or the default
// registerer when reg is nil. Re-registering against the same registry returns
// the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	rows, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_catalog_rows_total",
		Help: "Dataset rows seen by the catalog, by parse result.",
	}, []string{"result"}), "globe_catalog_rows_total")
	if err != nil {
		return nil, err
	}
	failures, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_catalog_load_failures_total",
		Help: "Catalog loads that failed as a whole.",
	}), "globe_catalog_load_failures_total")
	if err != nil {
		return nil, err
	}
	rebuilds, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_point_cloud_rebuilds_total",
		Help: "Full rebuilds of the city point cloud.",
	}), "globe_point_cloud_rebuilds_total")
	if err != nil {
		return nil, err
	}
	points, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_point_cloud_points",
		Help: "Points in the current city point cloud.",
	}), "globe_point_cloud_points")
	if err != nil {
		return nil, err
	}
	frames, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_frames_composed_total",
		Help: "Scenes assembled by the composer.",
	}), "globe_frames_composed_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		CatalogRows:         rows,
		CatalogLoadFailures: failures,
		PointCloudRebuilds:  rebuilds,
		PointCloudPoints:    points,
		FramesComposed:      frames,
	}, nil
}

// ObserveCatalog records the accepted and rejected row counts of a load.
func (m *Metrics) ObserveCatalog(c *Catalog) {
	if m == nil || c == nil {
		return
	}
	m.CatalogRows.WithLabelValues("accepted").Add(float64(len(c.Cities)))
	m.CatalogRows.WithLabelValues("rejected").Add(float64(c.Rejected))
}

// IncLoadFailures counts a whole-source load failure.
func (m *Metrics) IncLoadFailures() {
	if m == nil {
		return
	}
	m.CatalogLoadFailures.Inc()
}

// ObserveRebuild counts a point-cloud rebuild of n points.
func (m *Metrics) ObserveRebuild(n int) {
	if m == nil {
		return
	}
	m.PointCloudRebuilds.Inc()
	m.PointCloudPoints.Set(float64(n))
}

// IncFrames counts a composed frame.
func (m *Metrics) IncFrames() {
	if m == nil {
		return
	}
	m.FramesComposed.Inc()
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
