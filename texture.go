package globe

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
)

// DefaultSurfaceColor is sampled wherever no base texture is available.
var DefaultSurfaceColor = RGB{0.5, 0.5, 0.5}

// ErrTextureLoad wraps every texture open or decode failure.
var ErrTextureLoad = errors.New("texture load failed")

// Texture is an equirectangular raster sampled bilinearly. U wraps around,
// V clamps at the poles. A nil *Texture samples DefaultSurfaceColor.
type Texture struct {
	img *image.RGBA
}

// NewTexture copies img into a sampling-friendly layout.
func NewTexture(img image.Image) *Texture {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &Texture{img: rgba}
}

// SolidTexture returns a 1x1 texture of a single color.
func SolidTexture(c RGB) *Texture {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c.ToRGBA())
	return &Texture{img: img}
}

// LoadTexture decodes a JPEG or PNG file.
func LoadTexture(path string) (*Texture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrTextureLoad, path, err)
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrTextureLoad, path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrTextureLoad, path)
	}
	return NewTexture(img), nil
}

// Size returns the texture dimensions in pixels.
func (t *Texture) Size() (w, h int) {
	if t == nil {
		return 0, 0
	}
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Sample returns the bilinearly filtered color at uv.
func (t *Texture) Sample(uv UV) RGB {
	w, h := t.Size()
	if w == 0 || h == 0 {
		return DefaultSurfaceColor
	}

	x := wrapUnit(uv.U)*float64(w) - 0.5
	y := (1-uv.V)*float64(h) - 0.5

	x0 := math.Floor(x)
	y0 := math.Floor(y)
	fx := x - x0
	fy := y - y0

	ix0 := wrapIndex(int(x0), w)
	ix1 := wrapIndex(int(x0)+1, w)
	iy0 := clampIndex(int(y0), h)
	iy1 := clampIndex(int(y0)+1, h)

	top := Mix(t.at(ix0, iy0), t.at(ix1, iy0), fx)
	bottom := Mix(t.at(ix0, iy1), t.at(ix1, iy1), fx)
	return Mix(top, bottom, fy)
}

func (t *Texture) at(x, y int) RGB {
	return fromRGBA(t.img.RGBAAt(x, y))
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
