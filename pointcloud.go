package globe

import "github.com/golang/geo/r3"

// PointColor is the color of every city point.
var PointColor = Red

// PointSize is the world-space size of a city point.
const PointSize = 0.01

// PointCloud is a renderable buffer with one point per city. Positions and
// Colors are flat xyz / rgb triples, the layout a GPU vertex buffer expects.
// Color is a per-point attribute so points can be colored individually
// without changing the layout.
type PointCloud struct {
	Positions []float32
	Colors    []float32
	IDs       []int // City ID of each point
}

// BuildPointCloud projects each city to PointRadius with the default
// calibration.
func BuildPointCloud(cities []CityRecord) PointCloud {
	return DefaultCalibration().BuildPointCloud(cities)
}

// BuildPointCloud regenerates the whole buffer from cities, preserving their
// order. There is no incremental update: the cost is O(n) per call.
func (c Calibration) BuildPointCloud(cities []CityRecord) PointCloud {
	pc := PointCloud{
		Positions: make([]float32, 0, 3*len(cities)),
		Colors:    make([]float32, 0, 3*len(cities)),
		IDs:       make([]int, 0, len(cities)),
	}
	for _, city := range cities {
		p := c.Project(city.Latitude, city.Longitude, PointRadius)
		pc.Positions = append(pc.Positions, float32(p.X), float32(p.Y), float32(p.Z))
		pc.Colors = append(pc.Colors, float32(PointColor.R), float32(PointColor.G), float32(PointColor.B))
		pc.IDs = append(pc.IDs, city.ID)
	}
	return pc
}

// Len returns the number of points.
func (pc PointCloud) Len() int {
	return len(pc.IDs)
}

// Position returns point i.
func (pc PointCloud) Position(i int) r3.Vector {
	return r3.Vector{
		X: float64(pc.Positions[3*i]),
		Y: float64(pc.Positions[3*i+1]),
		Z: float64(pc.Positions[3*i+2]),
	}
}

// Color returns the color of point i.
func (pc PointCloud) Color(i int) RGB {
	return RGB{
		R: float64(pc.Colors[3*i]),
		G: float64(pc.Colors[3*i+1]),
		B: float64(pc.Colors[3*i+2]),
	}
}
