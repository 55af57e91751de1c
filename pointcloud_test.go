package globe

import (
	"testing"
)

func TestBuildPointCloud_MatchesFilteredCatalog(t *testing.T) {
	cat := NewCatalog(sampleRows())

	for _, filter := range []FilterPredicate{"", "new", "rom", "zzz"} {
		t.Run(string(filter), func(t *testing.T) {
			filtered := cat.Filter(filter)
			pc := BuildPointCloud(filtered)

			if pc.Len() != len(filtered) {
				t.Fatalf("point cloud has %d points, want %d", pc.Len(), len(filtered))
			}
			if len(pc.Positions) != 3*pc.Len() || len(pc.Colors) != 3*pc.Len() {
				t.Fatalf("buffer sizes %d/%d, want %d", len(pc.Positions), len(pc.Colors), 3*pc.Len())
			}
			for i, city := range filtered {
				if pc.IDs[i] != city.ID {
					t.Errorf("point %d has ID %d, want %d", i, pc.IDs[i], city.ID)
				}
				want := Project(city.Latitude, city.Longitude, PointRadius)
				if d := pc.Position(i).Distance(want); d > 1e-6 {
					t.Errorf("point %d (%s) is %g away from its projection", i, city.Name, d)
				}
				if pc.Color(i) != PointColor {
					t.Errorf("point %d color = %v, want %v", i, pc.Color(i), PointColor)
				}
			}
		})
	}
}

func TestBuildPointCloud_RebuildIsDeterministic(t *testing.T) {
	filtered := NewCatalog(sampleRows()).Filter("o")
	a := BuildPointCloud(filtered)
	b := BuildPointCloud(filtered)

	if a.Len() != b.Len() {
		t.Fatalf("rebuild changed length: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("rebuild changed position component %d", i)
		}
	}
}

func TestBuildPointCloud_PointsAboveSurface(t *testing.T) {
	pc := BuildPointCloud(NewCatalog(sampleRows()).Cities)
	for i := 0; i < pc.Len(); i++ {
		if n := pc.Position(i).Norm(); n < PointRadius-1e-6 || n > PointRadius+1e-6 {
			t.Errorf("point %d at radius %v, want %v", i, n, PointRadius)
		}
	}
}

func TestBuildPointCloud_Empty(t *testing.T) {
	pc := BuildPointCloud(nil)
	if pc.Len() != 0 || len(pc.Positions) != 0 {
		t.Errorf("empty input built %d points", pc.Len())
	}
}
