package colorizer

import (
	"fmt"
	"image"
	"image/color"
)

// RGB8 is an interleaved 8-bit RGB image in device range [0,255].
type RGB8 struct {
	W, H int
	Pix  []uint8 // len = W*H*3
}

// Lab8 is an interleaved perceptual image in device range.
// Channel 0 is L*·255/100, channels 1-2 are a*+128 and b*+128.
type Lab8 struct {
	W, H int
	Pix  []uint8 // len = W*H*3
}

// Lab64 is an interleaved perceptual image normalized to [0,1].
type Lab64 struct {
	W, H int
	Pix  []float64 // len = W*H*3
}

// Plane64 is a single normalized channel, usually the luminance of a Lab64.
type Plane64 struct {
	W, H int
	Pix  []float64 // len = W*H
}

func pixOffset(w, x, y int) int {
	return (y*w + x) * 3
}

func checkShape(w, h, n int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidInputShape, w, h)
	}
	if n != w*h*3 {
		return fmt.Errorf("%w: %dx%d image needs %d values for 3 channels, got %d",
			ErrInvalidInputShape, w, h, w*h*3, n)
	}
	return nil
}

// NewRGB8 wraps pix as a w×h RGB image. The slice is not copied.
func NewRGB8(w, h int, pix []uint8) (*RGB8, error) {
	if err := checkShape(w, h, len(pix)); err != nil {
		return nil, err
	}
	return &RGB8{W: w, H: h, Pix: pix}, nil
}

// RGB8FromImage copies any decoded image into an RGB8. Colours are
// un-premultiplied first, so alpha is dropped without darkening.
func RGB8FromImage(img image.Image) *RGB8 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := &RGB8{W: w, H: h, Pix: make([]uint8, w*h*3)}
	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			off := pixOffset(w, x, y)
			out.Pix[off] = c.R
			out.Pix[off+1] = c.G
			out.Pix[off+2] = c.B
		}
	}
	return out
}

func (m *RGB8) validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidInputShape)
	}
	return checkShape(m.W, m.H, len(m.Pix))
}

// Image returns an opaque *image.RGBA copy suitable for encoding.
func (m *RGB8) Image() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, m.W, m.H))
	for y := range m.H {
		for x := range m.W {
			off := pixOffset(m.W, x, y)
			out.SetRGBA(x, y, color.RGBA{m.Pix[off], m.Pix[off+1], m.Pix[off+2], 255})
		}
	}
	return out
}

// Normalize divides every element by 255.
func (m *Lab8) Normalize() *Lab64 {
	out := &Lab64{W: m.W, H: m.H, Pix: make([]float64, len(m.Pix))}
	for i, v := range m.Pix {
		out.Pix[i] = float64(v) / 255.0
	}
	return out
}

// Quantize multiplies every element by 255 and truncates to uint8, the
// inverse of Normalize. Values outside [0,255] wrap modulo 256 unless clamp
// is set, in which case they saturate first. Wrapping is only defined for
// |v*255| < 2^63.
func (m *Lab64) Quantize(clamp bool) *Lab8 {
	out := &Lab8{W: m.W, H: m.H, Pix: make([]uint8, len(m.Pix))}
	for i, v := range m.Pix {
		out.Pix[i] = truncate8(v, clamp)
	}
	return out
}

func truncate8(v float64, clamp bool) uint8 {
	s := v * 255
	if clamp {
		s = max(0, min(255, s))
	}
	return uint8(int64(s))
}

// Channel extracts channel c as a new plane.
func (m *Lab64) Channel(c int) *Plane64 {
	out := &Plane64{W: m.W, H: m.H, Pix: make([]float64, m.W*m.H)}
	for i := range out.Pix {
		out.Pix[i] = m.Pix[i*3+c]
	}
	return out
}

// Merge builds a perceptual image from a luminance plane and an interleaved
// two-channel chrominance buffer of the same spatial size.
func Merge(lum *Plane64, ab []float64) *Lab64 {
	out := &Lab64{W: lum.W, H: lum.H, Pix: make([]float64, lum.W*lum.H*3)}
	for i, l := range lum.Pix {
		out.Pix[i*3] = l
		out.Pix[i*3+1] = ab[i*2]
		out.Pix[i*3+2] = ab[i*2+1]
	}
	return out
}

// Chroma returns channels 1-2 interleaved.
func (m *Lab64) Chroma() []float64 {
	n := m.W * m.H
	out := make([]float64, n*2)
	for i := range n {
		out[i*2] = m.Pix[i*3+1]
		out[i*2+1] = m.Pix[i*3+2]
	}
	return out
}

func (p *Plane64) ColorModel() color.Model { return color.Gray16Model }

func (p *Plane64) Bounds() image.Rectangle { return image.Rect(0, 0, p.W, p.H) }

// At clamps the normalized value into a 16-bit gray, like a display would.
func (p *Plane64) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Bounds())) {
		return color.Gray16{}
	}
	v := max(0, min(1, p.Pix[y*p.W+x]))
	return color.Gray16{Y: uint16(v*0xffff + 0.5)}
}
