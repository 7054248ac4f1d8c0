package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/setanarut/colorizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *colorizer.RGB8 {
	img := &colorizer.RGB8{W: w, H: h, Pix: make([]uint8, w*h*3)}
	for y := range h {
		for x := range w {
			off := (y*w + x) * 3
			img.Pix[off] = uint8(40 + x*160/w)
			img.Pix[off+1] = uint8(80 + y*100/h)
			img.Pix[off+2] = uint8(200 - x*120/w)
		}
	}
	return img
}

func gray(w, h int) *colorizer.RGB8 {
	img := &colorizer.RGB8{W: w, H: h, Pix: make([]uint8, w*h*3)}
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

func TestCompareIdentical(t *testing.T) {
	t.Parallel()

	img := gradient(32, 24)
	s, err := Compare(img, img)
	require.NoError(t, err)
	assert.True(t, math.IsInf(s.PSNR, 1))
	assert.Equal(t, s.RefA, s.PredA)
	assert.Equal(t, s.RefB, s.PredB)
	assert.InDelta(t, 1, s.CorrA, 1e-9)
	assert.InDelta(t, 1, s.CorrB, 1e-9)
	assert.Greater(t, s.RefA.StdDev, 1.0)
	assert.Contains(t, s.String(), "psnr=+Inf")
}

func TestCompareAgainstGray(t *testing.T) {
	t.Parallel()

	s, err := Compare(gradient(32, 24), gray(32, 24))
	require.NoError(t, err)
	assert.False(t, math.IsInf(s.PSNR, 0))
	assert.Greater(t, s.PSNR, 0.0)
	assert.Zero(t, s.PredA.Mean)
	assert.Zero(t, s.PredA.StdDev)
	assert.Zero(t, s.PredB.Mean)
	assert.True(t, math.IsNaN(s.CorrA), "constant prediction has no correlation")
}

func TestCompareErrors(t *testing.T) {
	t.Parallel()

	_, err := Compare(gradient(8, 8), gradient(8, 4))
	assert.ErrorIs(t, err, ErrSizeMismatch)
	_, err = Compare(nil, gradient(8, 8))
	assert.ErrorIs(t, err, colorizer.ErrInvalidInputShape)
}

func TestWriteHistograms(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "run")
	_, err := WriteHistograms(dir, 16, gradient(40, 30), gradient(30, 40))
	assert.ErrorIs(t, err, ErrSizeMismatch)

	ref := gradient(40, 30)
	pred := gradient(40, 30)
	for i := range pred.Pix {
		pred.Pix[i] = uint8(int(pred.Pix[i])*3/4 + 32)
	}
	paths, err := WriteHistograms(dir, 16, ref, pred)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "chroma_a.png"), filepath.Join(dir, "chroma_b.png")}, paths)
	for _, p := range paths {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, fi.Size())
	}

	_, err = WriteHistograms(dir, 0, ref, pred)
	assert.Error(t, err)
}
