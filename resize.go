package colorizer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// areaKernel weighs each source pixel by the fraction of it that falls
// inside the destination footprint when one axis shrinks by s = src/dst > 1.
// x/image/draw evaluates it at t = distance/s and normalizes the weights.
func areaKernel(s float64) *draw.Kernel {
	return &draw.Kernel{
		Support: (s + 1) / (2 * s),
		At: func(t float64) float64 {
			return min(1, max(0, (s+1)/2-t*s))
		},
	}
}

func axisInterpolator(src, dst int) draw.Interpolator {
	if src > dst {
		return areaKernel(float64(src) / float64(dst))
	}
	return draw.BiLinear
}

// Resize scales m to size×size, one axis at a time: area averaging on an
// axis that shrinks, bilinear on one that grows. Aspect ratio is not kept.
func (m *Lab64) Resize(size int) *Lab64 {
	img := m.rgba64()
	img = scaleTo(img, size, m.H, axisInterpolator(m.W, size))
	img = scaleTo(img, size, size, axisInterpolator(m.H, size))
	return lab64FromRGBA64(img)
}

// scaleTo resamples src to w×h. The pass is skipped when nothing changes.
func scaleTo(src *image.RGBA64, w, h int, interp draw.Interpolator) *image.RGBA64 {
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return src
	}
	dst := image.NewRGBA64(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// rgba64 packs the three channels into R,G,B with an opaque alpha so the
// premultiplied scalers treat them as independent straight values.
func (m *Lab64) rgba64() *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, m.W, m.H))
	for y := range m.H {
		for x := range m.W {
			off := pixOffset(m.W, x, y)
			img.SetRGBA64(x, y, color.RGBA64{
				R: unit16(m.Pix[off]),
				G: unit16(m.Pix[off+1]),
				B: unit16(m.Pix[off+2]),
				A: 0xffff,
			})
		}
	}
	return img
}

func lab64FromRGBA64(img *image.RGBA64) *Lab64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &Lab64{W: w, H: h, Pix: make([]float64, w*h*3)}
	for y := range h {
		for x := range w {
			c := img.RGBA64At(b.Min.X+x, b.Min.Y+y)
			off := pixOffset(w, x, y)
			out.Pix[off] = float64(c.R) / 0xffff
			out.Pix[off+1] = float64(c.G) / 0xffff
			out.Pix[off+2] = float64(c.B) / 0xffff
		}
	}
	return out
}

func unit16(v float64) uint16 {
	return uint16(max(0, min(1, v))*0xffff + 0.5)
}
