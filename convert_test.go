package colorizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGBToLab8KnownColors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		r, g, b uint8
		want    [3]uint8
	}{
		{"white", 255, 255, 255, [3]uint8{255, 128, 128}},
		{"black", 0, 0, 0, [3]uint8{0, 128, 128}},
		{"mid gray", 128, 128, 128, [3]uint8{137, 128, 128}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			lab, err := RGBToLab8(solidImage(1, 1, tc.r, tc.g, tc.b))
			require.NoError(t, err)
			assert.Equal(t, tc.want[:], lab.Pix)
		})
	}
}

func TestRGBToLab8ChromaSigns(t *testing.T) {
	t.Parallel()

	red, err := RGBToLab8(solidImage(1, 1, 255, 0, 0))
	require.NoError(t, err)
	assert.Greater(t, red.Pix[1], uint8(128), "red has positive a*")

	blue, err := RGBToLab8(solidImage(1, 1, 0, 0, 255))
	require.NoError(t, err)
	assert.Less(t, blue.Pix[2], uint8(128), "blue has negative b*")
}

func TestRGBToLabNormalized(t *testing.T) {
	t.Parallel()

	src := gradientImage(40, 30)
	lab8, err := RGBToLab8(src)
	require.NoError(t, err)
	lab, err := RGBToLab(src)
	require.NoError(t, err)

	require.Equal(t, src.W, lab.W)
	require.Equal(t, src.H, lab.H)
	require.Len(t, lab.Pix, len(src.Pix))
	for i, v := range lab.Pix {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
		require.Equal(t, float64(lab8.Pix[i])/255.0, v)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	src := gradientImage(64, 48)
	lab, err := RGBToLab(src)
	require.NoError(t, err)
	back, err := LabToRGB(lab.Quantize(false))
	require.NoError(t, err)

	require.Equal(t, src.W, back.W)
	require.Equal(t, src.H, back.H)
	for i := range src.Pix {
		if d := int(src.Pix[i]) - int(back.Pix[i]); d < -4 || d > 4 {
			t.Fatalf("value %d: got %d, want %d±4", i, back.Pix[i], src.Pix[i])
		}
	}
}

func TestLabToRGBNeutralAxis(t *testing.T) {
	t.Parallel()

	lab := &Lab8{W: 3, H: 1, Pix: []uint8{0, 128, 128, 255, 128, 128, 137, 128, 128}}
	rgb, err := LabToRGB(lab)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 255, 255, 255, 128, 128, 128}, rgb.Pix)
}

func TestConverterRejectsBadShapes(t *testing.T) {
	t.Parallel()

	_, err := RGBToLab(nil)
	assert.ErrorIs(t, err, ErrInvalidInputShape)
	_, err = RGBToLab(&RGB8{W: 2, H: 2, Pix: make([]uint8, 8)})
	assert.ErrorIs(t, err, ErrInvalidInputShape)
	_, err = LabToRGB(nil)
	assert.ErrorIs(t, err, ErrInvalidInputShape)
	_, err = LabToRGB(&Lab8{W: 2, H: 2, Pix: make([]uint8, 16)})
	assert.ErrorIs(t, err, ErrInvalidInputShape)
}

func TestQuantizeTruncates(t *testing.T) {
	t.Parallel()

	lab := &Lab64{W: 1, H: 2, Pix: []float64{10.9 / 255, 1.0, 0, -1.0 / 255, 1.5, 0.5}}

	assert.Equal(t, []uint8{10, 255, 0, 255, 126, 127}, lab.Quantize(false).Pix)
	assert.Equal(t, []uint8{10, 255, 0, 0, 255, 127}, lab.Quantize(true).Pix)
}
