package globe

import "github.com/golang/geo/r3"

// DefaultCentersRadius is the normalized distance from an axis unit vector
// inside which the center highlight replaces the face color.
const DefaultCentersRadius = 0.1

// CenterColor paints the six axis centers.
var CenterColor = Red

// Face colors of the implied cube, keyed by dominant axis and sign.
var (
	FacePosY = White
	FaceNegY = Black
	FacePosX = Green
	FaceNegX = Blue
	FacePosZ = Red
	FaceNegZ = Yellow
)

var axisDirections = [6]r3.Vector{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// ShaderState is the set of toggles pushed into the globe shader every frame.
type ShaderState struct {
	ShowPoliticalMap bool
	ShowCenters      bool
	ShowColorBox     bool
	CentersRadius    float64
}

// UV is a texture coordinate; V=1 is the top row of the image.
type UV struct {
	U, V float64
}

// Sampler returns the color of a texture at a UV.
type Sampler interface {
	Sample(uv UV) RGB
}

// Uniforms is everything the fragment stage reads besides the fragment
// itself. It is rebuilt each frame; the shader keeps nothing between calls.
type Uniforms struct {
	ShaderState
	Earth            Sampler // nil samples DefaultSurfaceColor
	Political        Sampler // nil skips the political blend
	PoliticalUVShift float64
}

// Fragment is the interpolated vertex output at one pixel.
type Fragment struct {
	Position r3.Vector // object-space surface position, not normalized
	UV       UV
}

// FaceColor classifies pos by its largest absolute component and that
// component's sign. Equal magnitudes resolve Y first, then X, then Z; a zero
// component counts as negative.
func FaceColor(pos r3.Vector) RGB {
	abs := pos.Abs()
	maxComp := max(abs.X, abs.Y, abs.Z)

	switch maxComp {
	case abs.Y:
		if pos.Y > 0 {
			return FacePosY
		}
		return FaceNegY
	case abs.X:
		if pos.X > 0 {
			return FacePosX
		}
		return FaceNegX
	default:
		if pos.Z > 0 {
			return FacePosZ
		}
		return FaceNegZ
	}
}

// ColorBox returns the face color of pos, replaced by CenterColor when
// showCenters is set and the normalized position lies within radius of one of
// the six axis unit vectors.
func ColorBox(pos r3.Vector, showCenters bool, radius float64) RGB {
	color := FaceColor(pos)
	if showCenters && nearAxisCenter(pos.Normalize(), radius) {
		return CenterColor
	}
	return color
}

func nearAxisCenter(n r3.Vector, radius float64) bool {
	for _, axis := range axisDirections {
		if n.Distance(axis) < radius {
			return true
		}
	}
	return false
}

// Shade computes the opaque color of one globe fragment. The order is fixed:
// color box (with center override), base texture, optional 50/50 color box
// blend, optional 50/50 political overlay blend.
func Shade(u Uniforms, f Fragment) RGB {
	colorBox := ColorBox(f.Position, u.ShowCenters, u.CentersRadius)
	earth := sample(u.Earth, f.UV)

	out := earth
	if u.ShowColorBox {
		out = Mix(colorBox, earth, 0.5)
	}

	if u.ShowPoliticalMap && u.Political != nil {
		shifted := UV{U: f.UV.U + u.PoliticalUVShift, V: f.UV.V}
		out = Mix(out, u.Political.Sample(shifted), 0.5)
	}
	return out
}

func sample(s Sampler, uv UV) RGB {
	if s == nil {
		return DefaultSurfaceColor
	}
	return s.Sample(uv)
}
