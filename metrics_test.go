package globe

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	b, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second NewMetrics: %v", err)
	}

	a.IncFrames()
	b.IncFrames()
	if got := testutil.ToFloat64(a.FramesComposed); got != 2 {
		t.Errorf("frames = %v, want 2 from a shared collector", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCatalog(NewCatalog(sampleRows()))
	m.IncLoadFailures()
	m.ObserveRebuild(10)
	m.IncFrames()
}

func TestMetrics_ObserveRebuild(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	m.ObserveRebuild(12)
	m.ObserveRebuild(3)
	if got := testutil.ToFloat64(m.PointCloudRebuilds); got != 2 {
		t.Errorf("rebuilds = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PointCloudPoints); got != 3 {
		t.Errorf("points = %v, want 3", got)
	}
}
