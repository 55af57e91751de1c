package globe

import (
	"image"
	"math"

	"github.com/golang/geo/r3"
)

// BackgroundColor fills pixels nothing is drawn on.
var BackgroundColor = Black

// Axis indicator colors.
var (
	AxisColorX = Red
	AxisColorY = Green
	AxisColorZ = Blue
)

// Camera is a perspective camera looking at Target.
type Camera struct {
	Position   r3.Vector
	Target     r3.Vector
	Up         r3.Vector
	FovDegrees float64 // vertical field of view
	Near       float64
}

// DefaultCamera looks at the globe from (0,0,3).
func DefaultCamera() Camera {
	return Camera{
		Position:   r3.Vector{Z: 3},
		Up:         r3.Vector{Y: 1},
		FovDegrees: 75,
		Near:       0.1,
	}
}

// OrbitCamera places the camera at distance from the origin, rotated by yaw
// about +Y and pitch toward +Y, both in radians. Pitch is clamped short of the
// poles.
func OrbitCamera(distance, yaw, pitch float64) Camera {
	const limit = math.Pi/2 - 0.01
	pitch = math.Max(-limit, math.Min(limit, pitch))

	sinYaw, cosYaw := math.Sincos(yaw)
	sinPitch, cosPitch := math.Sincos(pitch)

	cam := DefaultCamera()
	cam.Position = r3.Vector{
		X: distance * cosPitch * sinYaw,
		Y: distance * sinPitch,
		Z: distance * cosPitch * cosYaw,
	}
	return cam
}

// view is a camera resolved for a framebuffer size.
type view struct {
	eye, right, up, forward r3.Vector
	focal                   float64 // 1/tan(fov/2)
	aspect                  float64
	w, h                    float64
	near                    float64
}

func (c Camera) view(w, h int) view {
	forward := c.Target.Sub(c.Position).Normalize()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward)
	fov := c.FovDegrees * math.Pi / 180
	return view{
		eye:     c.Position,
		right:   right,
		up:      up,
		forward: forward,
		focal:   1 / math.Tan(fov/2),
		aspect:  float64(w) / float64(h),
		w:       float64(w),
		h:       float64(h),
		near:    c.Near,
	}
}

// project returns the screen position and view depth of p.
func (v view) project(p r3.Vector) (sx, sy, depth float64, ok bool) {
	d := p.Sub(v.eye)
	depth = d.Dot(v.forward)
	if depth < v.near {
		return 0, 0, 0, false
	}
	ndcX := d.Dot(v.right) * v.focal / (v.aspect * depth)
	ndcY := d.Dot(v.up) * v.focal / depth
	sx = (ndcX + 1) * v.w / 2
	sy = (1 - ndcY) * v.h / 2
	return sx, sy, depth, true
}

// ray returns the unit direction through screen position (sx, sy).
func (v view) ray(sx, sy float64) r3.Vector {
	ndcX := 2*sx/v.w - 1
	ndcY := 1 - 2*sy/v.h
	dir := v.forward.
		Add(v.right.Mul(ndcX * v.aspect / v.focal)).
		Add(v.up.Mul(ndcY / v.focal))
	return dir.Normalize()
}

// Pick casts a ray through the center of pixel (x, y) of a w×h viewport and
// returns the nearest intersection with the globe surface.
func (c Camera) Pick(x, y, w, h int) (r3.Vector, bool) {
	if w <= 0 || h <= 0 {
		return r3.Vector{}, false
	}
	v := c.view(w, h)
	dir := v.ray(float64(x)+0.5, float64(y)+0.5)

	o := v.eye
	b := o.Dot(dir)
	disc := b*b - (o.Dot(o) - SurfaceRadius*SurfaceRadius)
	if disc < 0 {
		return r3.Vector{}, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return r3.Vector{}, false
	}
	return o.Add(dir.Mul(t)), true
}

// Framebuffer is a color image with a depth buffer.
type Framebuffer struct {
	Image *image.RGBA
	depth []float64
}

// NewFramebuffer allocates a w×h framebuffer cleared to BackgroundColor.
func NewFramebuffer(w, h int) *Framebuffer {
	fb := &Framebuffer{
		Image: image.NewRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float64, w*h),
	}
	fb.Clear()
	return fb
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (w, h int) {
	b := fb.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Clear resets color to BackgroundColor and depth to infinity.
func (fb *Framebuffer) Clear() {
	bg := BackgroundColor.ToRGBA()
	pix := fb.Image.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}
	for i := range fb.depth {
		fb.depth[i] = math.Inf(1)
	}
}

// At returns the color at (x, y).
func (fb *Framebuffer) At(x, y int) RGB {
	return fromRGBA(fb.Image.RGBAAt(x, y))
}

// plot writes c at (x, y) when z passes the depth test.
func (fb *Framebuffer) plot(x, y int, z float64, c RGB) {
	w, h := fb.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	i := y*w + x
	if z >= fb.depth[i] {
		return
	}
	fb.depth[i] = z
	fb.Image.SetRGBA(x, y, c.ToRGBA())
}

// Render clears fb and draws scene as seen from cam.
func Render(scene Scene, cam Camera, fb *Framebuffer) {
	fb.Clear()
	w, h := fb.Size()
	if w == 0 || h == 0 {
		return
	}
	v := cam.view(w, h)

	if scene.Globe != nil {
		drawGlobe(fb, v, scene.Globe)
	}
	if scene.Axis != nil {
		l := scene.Axis.Length
		drawLine(fb, v, r3.Vector{}, r3.Vector{X: l}, AxisColorX)
		drawLine(fb, v, r3.Vector{}, r3.Vector{Y: l}, AxisColorY)
		drawLine(fb, v, r3.Vector{}, r3.Vector{Z: l}, AxisColorZ)
	}

	layer := scene.Cities
	if layer.Points != nil {
		pc := layer.Points
		for i := 0; i < pc.Len(); i++ {
			drawDisc(fb, v, rotateY(pc.Position(i), layer.Yaw), PointSize/2, pc.Color(i), true)
		}
	}
	if m := layer.Marker; m != nil {
		tip := rotateY(m.Tip, layer.Yaw)
		drawLine(fb, v, rotateY(m.Base, layer.Yaw), tip, m.Color)
		drawDisc(fb, v, tip, m.DotRadius, m.Color, false)
	}
}

// rotateY rotates p by angle radians about +Y, counter-clockwise seen from +Y.
func rotateY(p r3.Vector, angle float64) r3.Vector {
	if angle == 0 {
		return p
	}
	s, c := math.Sincos(angle)
	return r3.Vector{
		X: c*p.X + s*p.Z,
		Y: p.Y,
		Z: -s*p.X + c*p.Z,
	}
}

type screenVertex struct {
	x, y, z float64
	pos     r3.Vector
	uv      UV
}

func drawGlobe(fb *Framebuffer, v view, g *GlobeNode) {
	m := g.Mesh
	for t := 0; t+2 < len(m.Indices); t += 3 {
		var tri [3]screenVertex
		visible := true
		for k := 0; k < 3; k++ {
			idx := m.Indices[t+k]
			sx, sy, z, ok := v.project(m.Positions[idx])
			if !ok {
				visible = false
				break
			}
			tri[k] = screenVertex{x: sx, y: sy, z: z, pos: m.Positions[idx], uv: m.UVs[idx]}
		}
		if visible {
			fillTriangle(fb, tri, g.Uniforms)
		}
	}
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// fillTriangle rasterises one triangle with perspective-correct attribute
// interpolation and runs Shade per covered pixel center.
func fillTriangle(fb *Framebuffer, tri [3]screenVertex, u Uniforms) {
	a, b, c := tri[0], tri[1], tri[2]
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if math.Abs(area) < 1e-12 {
		return
	}

	w, h := fb.Size()
	minX := max(0, int(math.Floor(min(a.x, b.x, c.x))))
	maxX := min(w-1, int(math.Ceil(max(a.x, b.x, c.x))))
	minY := max(0, int(math.Floor(min(a.y, b.y, c.y))))
	maxY := min(h-1, int(math.Ceil(max(a.y, b.y, c.y))))

	for py := minY; py <= maxY; py++ {
		cy := float64(py) + 0.5
		for px := minX; px <= maxX; px++ {
			cx := float64(px) + 0.5
			w0 := edge(b.x, b.y, c.x, c.y, cx, cy) / area
			w1 := edge(c.x, c.y, a.x, a.y, cx, cy) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			// Interpolate attr/z linearly in screen space, then divide by 1/z.
			p0, p1, p2 := w0/a.z, w1/b.z, w2/c.z
			invZ := p0 + p1 + p2
			z := 1 / invZ
			p0, p1, p2 = p0*z, p1*z, p2*z

			frag := Fragment{
				Position: a.pos.Mul(p0).Add(b.pos.Mul(p1)).Add(c.pos.Mul(p2)),
				UV: UV{
					U: a.uv.U*p0 + b.uv.U*p1 + c.uv.U*p2,
					V: a.uv.V*p0 + b.uv.V*p1 + c.uv.V*p2,
				},
			}
			if i := py*w + px; z >= fb.depth[i] {
				continue
			}
			fb.plot(px, py, z, Shade(u, frag))
		}
	}
}

// drawLine draws a depth-tested segment one pixel wide.
func drawLine(fb *Framebuffer, v view, from, to r3.Vector, c RGB) {
	x0, y0, z0, ok0 := v.project(from)
	x1, y1, z1, ok1 := v.project(to)
	if !ok0 || !ok1 {
		return
	}
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps == 0 {
		fb.plot(int(math.Floor(x0)), int(math.Floor(y0)), z0, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		// Depth is interpolated in 1/z so it matches the triangles' depth.
		z := 1 / ((1-t)/z0 + t/z1)
		x := math.Floor(x0 + (x1-x0)*t)
		y := math.Floor(y0 + (y1-y0)*t)
		fb.plot(int(x), int(y), z, c)
	}
}

// drawDisc draws a screen-facing disc of world radius r centred on p. Square
// discs are used for city points; the marker dot is round. Both cover at
// least one pixel.
func drawDisc(fb *Framebuffer, v view, p r3.Vector, r float64, c RGB, square bool) {
	sx, sy, z, ok := v.project(p)
	if !ok {
		return
	}
	pr := r * v.focal * v.h / 2 / z
	reach := int(math.Ceil(pr - 0.5))
	cx, cy := int(math.Floor(sx)), int(math.Floor(sy))
	if reach <= 0 {
		fb.plot(cx, cy, z, c)
		return
	}
	for dy := -reach; dy <= reach; dy++ {
		for dx := -reach; dx <= reach; dx++ {
			if !square && float64(dx*dx+dy*dy) > pr*pr {
				continue
			}
			fb.plot(cx+dx, cy+dy, z, c)
		}
	}
}
