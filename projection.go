package globe

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// LongitudeOffsetDegrees rotates every longitude before it is mapped onto the
// sphere so that city positions line up with the base texture's
// pixel-to-longitude mapping. The political overlay UV shift is derived from
// this value; see Calibration.PoliticalUVShift.
const LongitudeOffsetDegrees = 300.0

// Radii used when placing things relative to the unit globe.
const (
	SurfaceRadius = 1.0  // globe mesh and marker base
	PointRadius   = 1.01 // city points, detached from the surface to avoid z-fighting
	MarkerRadius  = 1.1  // tip of the selection marker
)

// Calibration carries the longitude offset shared by city placement and the
// political overlay. Both consumers read it from here, never from separate
// constants.
type Calibration struct {
	OffsetDegrees float64
}

// DefaultCalibration returns the calibration matching the bundled textures.
func DefaultCalibration() Calibration {
	return Calibration{OffsetDegrees: LongitudeOffsetDegrees}
}

// PoliticalUVShift returns the horizontal UV shift applied when sampling the
// political overlay, in [0,1). A city at longitude L is drawn over mesh
// U = (L + offset + yaw)/360, where yaw is CityLayerYaw; the shift moves that
// to (L+180)/360, the equirectangular column of L. For the 300° offset it is
// 150/360.
func (c Calibration) PoliticalUVShift() float64 {
	yaw := (s1.Angle(CityLayerYaw) * s1.Radian).Degrees()
	return wrapUnit((180 - c.OffsetDegrees - yaw) / 360)
}

// Project maps a geographic position to a point on a sphere of the given
// radius, Y up. The result is always at distance |radius| from the origin.
//
// Longitude is used only through periodic trig, so any real value is accepted
// and lon, lon+360 map to the same point.
func (c Calibration) Project(lat, lon, radius float64) r3.Vector {
	phi := s1.Angle(90-lat) * s1.Degree
	theta := s1.Angle(lon+c.OffsetDegrees) * s1.Degree

	sinPhi, cosPhi := math.Sincos(phi.Radians())
	sinTheta, cosTheta := math.Sincos(theta.Radians())

	return r3.Vector{
		X: -radius * sinPhi * cosTheta,
		Y: radius * cosPhi,
		Z: radius * sinPhi * sinTheta,
	}
}

// Unproject is the inverse of Project. Longitude is returned in [-180,180).
// The zero vector maps to (0,0); at the poles longitude is arbitrary.
func (c Calibration) Unproject(p r3.Vector) (lat, lon float64) {
	r := p.Norm()
	if r == 0 {
		return 0, 0
	}
	cosPhi := math.Max(-1, math.Min(1, p.Y/r))
	phi := s1.Angle(math.Acos(cosPhi))
	theta := s1.Angle(math.Atan2(p.Z, -p.X))

	lat = 90 - phi.Degrees()
	lon = wrapLongitude(theta.Degrees() - c.OffsetDegrees)
	return lat, lon
}

// Project maps (lat, lon, radius) with the default calibration.
func Project(lat, lon, radius float64) r3.Vector {
	return DefaultCalibration().Project(lat, lon, radius)
}

// Unproject inverts Project with the default calibration.
func Unproject(p r3.Vector) (lat, lon float64) {
	return DefaultCalibration().Unproject(p)
}

// wrapUnit folds x into [0,1).
func wrapUnit(x float64) float64 {
	f := x - math.Floor(x)
	if f >= 1 {
		return 0
	}
	return f
}

// wrapLongitude folds a longitude into [-180,180).
func wrapLongitude(lon float64) float64 {
	return wrapUnit((lon+180)/360)*360 - 180
}
