package colorizer

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBToLab converts src to the perceptual space and normalizes it to [0,1].
// The colour conversion runs on device values first; normalizing before it
// would change the result.
func RGBToLab(src *RGB8) (*Lab64, error) {
	lab, err := RGBToLab8(src)
	if err != nil {
		return nil, err
	}
	return lab.Normalize(), nil
}

// RGBToLab8 converts src to the 8-bit perceptual encoding without scaling.
func RGBToLab8(src *RGB8) (*Lab8, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	out := &Lab8{W: src.W, H: src.H, Pix: make([]uint8, len(src.Pix))}
	for i := 0; i < len(src.Pix); i += 3 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = rgbToLab8(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
	}
	return out, nil
}

// LabToRGB converts a device-range perceptual image back to RGB. It does no
// range scaling: callers denormalize with Lab64.Quantize first.
func LabToRGB(src *Lab8) (*RGB8, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidInputShape)
	}
	if err := checkShape(src.W, src.H, len(src.Pix)); err != nil {
		return nil, err
	}
	out := &RGB8{W: src.W, H: src.H, Pix: make([]uint8, len(src.Pix))}
	for i := 0; i < len(src.Pix); i += 3 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = lab8ToRGB(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
	}
	return out, nil
}

// go-colorful keeps L in [0,1] and a,b in hundredths of the CIE units.
func rgbToLab8(r, g, b uint8) (uint8, uint8, uint8) {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	l, a, bb := c.Lab()
	return saturate8(l * 255), saturate8(a*100 + 128), saturate8(bb*100 + 128)
}

func lab8ToRGB(l, a, b uint8) (uint8, uint8, uint8) {
	c := colorful.Lab(
		float64(l)/255.0,
		(float64(a)-128)/100,
		(float64(b)-128)/100,
	)
	return c.Clamped().RGB255()
}

func saturate8(v float64) uint8 {
	return uint8(max(0, min(255, math.Round(v))))
}
