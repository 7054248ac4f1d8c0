package colorizer

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// PSNR compares two images normalized to [0,1]. Both are scaled to the
// 0-255 integer range, clipped and truncated before the standard peak
// signal-to-noise ratio with a peak of 255 is computed. Identical inputs give
// +Inf; inputs of different or zero length give NaN.
func PSNR(orig, pred []float32) float64 {
	if len(orig) != len(pred) || len(orig) == 0 {
		return math.NaN()
	}
	a := make([]float64, len(orig))
	b := make([]float64, len(pred))
	for i := range orig {
		a[i] = float64(truncate8(float64(orig[i]), true))
		b[i] = float64(truncate8(float64(pred[i]), true))
	}
	d := floats.Distance(a, b, 2)
	mse := d * d / float64(len(a))
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
