package globe

import (
	"math"

	"github.com/golang/geo/r3"
)

// Globe mesh tessellation.
const (
	GlobeWidthSegments  = 64
	GlobeHeightSegments = 64
)

// AxisLength is the length of each axis indicator segment.
const AxisLength = 1.5

// SphereMesh is an indexed triangle mesh of a UV sphere. Vertex i has
// Positions[i] and UVs[i]; every three Indices form a triangle.
//
// The parameterisation matches Calibration.Project: the vertex at
// (u, 1-v) lies at x = -r·cos(2πu)·sin(πv), y = r·cos(πv), z = r·sin(2πu)·sin(πv).
// The seam column is duplicated so UVs never wrap inside a triangle.
type SphereMesh struct {
	Positions []r3.Vector
	UVs       []UV
	Indices   []int
}

// NewSphereMesh tessellates a sphere. Segment counts below 3 and 2 are raised
// to those minimums.
func NewSphereMesh(radius float64, widthSegments, heightSegments int) *SphereMesh {
	widthSegments = max(3, widthSegments)
	heightSegments = max(2, heightSegments)

	m := &SphereMesh{}
	grid := make([][]int, heightSegments+1)

	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		grid[iy] = make([]int, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			sinTheta, cosTheta := math.Sincos(u * 2 * math.Pi)
			sinPhi, cosPhi := math.Sincos(v * math.Pi)

			grid[iy][ix] = len(m.Positions)
			m.Positions = append(m.Positions, r3.Vector{
				X: -radius * cosTheta * sinPhi,
				Y: radius * cosPhi,
				Z: radius * sinTheta * sinPhi,
			})
			m.UVs = append(m.UVs, UV{U: u, V: 1 - v})
		}
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			// The pole rows degenerate to a point, so they get one triangle per quad.
			if iy != 0 {
				m.Indices = append(m.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				m.Indices = append(m.Indices, b, c, d)
			}
		}
	}
	return m
}

// Triangles returns the number of triangles.
func (m *SphereMesh) Triangles() int {
	return len(m.Indices) / 3
}
