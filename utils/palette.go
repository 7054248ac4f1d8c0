package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/setanarut/colorizer"
)

type PaletteMethod int

const (
	PaletteDominant PaletteMethod = iota
	PaletteKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParsePaletteMethod accepts the names printed by String.
func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "", "dominantcolor":
		return PaletteDominant, nil
	case "kmeans":
		return PaletteKMeans, nil
	}
	return 0, fmt.Errorf("unknown palette method %q", s)
}

// Palette is a small set of representative colours of an image.
type Palette []colorful.Color

// swatch is a candidate colour weighted by how much of the image it covers.
type swatch struct {
	c colorful.Color
	w float64
}

// kmeansSamples caps the pixels fed to k-means.
const kmeansSamples = 12000

// ExtractPalette picks k well separated colours of img. A failing k-means run
// falls back to the dominant colour method.
func ExtractPalette(img image.Image, k int, method PaletteMethod) (Palette, error) {
	if k <= 0 {
		return nil, fmt.Errorf("palette size must be positive, got %d", k)
	}
	if img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}
	if method == PaletteKMeans {
		cands, err := kmeansSwatches(img, k)
		if err == nil && len(cands) > 0 {
			return pickDiverse(cands, k), nil
		}
		colorizer.Logf("palette: kmeans failed (%v), using dominant colours", err)
	}
	return pickDiverse(dominantSwatches(img, k), k), nil
}

func dominantSwatches(img image.Image, k int) []swatch {
	found := dominantcolor.FindWeight(img, max(24, k*8))
	out := make([]swatch, 0, len(found))
	for _, f := range found {
		c, _ := colorful.MakeColor(f.RGBA)
		out = append(out, swatch{c: c.Clamped(), w: f.Weight})
	}
	if len(out) == 0 {
		out = append(out, swatch{c: colorful.Color{R: 0.5, G: 0.5, B: 0.5}, w: 1})
	}
	return out
}

func kmeansSwatches(img image.Image, k int) ([]swatch, error) {
	b := img.Bounds()
	step := 1
	if n := b.Dx() * b.Dy(); n > kmeansSamples {
		step = int(math.Sqrt(float64(n)/kmeansSamples)) + 1
	}
	var obs clusters.Observations
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			obs = append(obs, clusters.Coordinates{c.R, c.G, c.B})
		}
	}
	if len(obs) == 0 {
		return nil, errors.New("no opaque pixels")
	}
	cc, err := kmeans.New().Partition(obs, min(k*4, len(obs)))
	if err != nil {
		return nil, err
	}
	out := make([]swatch, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}
		out = append(out, swatch{c: col.Clamped(), w: float64(len(c.Observations))})
	}
	return out, nil
}

// pickDiverse starts from the heaviest swatch and then repeatedly adds the
// one farthest in Lab from everything chosen, favouring heavier swatches.
func pickDiverse(cands []swatch, k int) Palette {
	k = min(k, len(cands))
	heaviest := 0.0
	for _, s := range cands {
		heaviest = max(heaviest, s.w)
	}
	if heaviest <= 0 {
		heaviest = 1
	}
	start := 0
	for i, s := range cands {
		if s.w > cands[start].w {
			start = i
		}
	}
	used := make([]bool, len(cands))
	used[start] = true
	out := Palette{cands[start].c}
	for len(out) < k {
		best, bestScore := -1, -1.0
		for i, s := range cands {
			if used[i] {
				continue
			}
			near := math.Inf(1)
			for _, p := range out {
				near = min(near, s.c.DistanceLab(p))
			}
			score := near * (0.55 + 0.45*math.Sqrt(max(s.w, 0)/heaviest))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		out = append(out, cands[best].c)
	}
	return out
}

// SortByLightness orders the palette from darkest to lightest L*.
func (p Palette) SortByLightness() {
	slices.SortStableFunc(p, func(a, b colorful.Color) int {
		la, _, _ := a.Lab()
		lb, _, _ := b.Lab()
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})
}

// Drift is the mean CIEDE2000 distance from each colour of p to its nearest
// colour in q. Zero means every colour of p appears in q.
func (p Palette) Drift(q Palette) float64 {
	if len(p) == 0 || len(q) == 0 {
		return math.NaN()
	}
	total := 0.0
	for _, a := range p {
		near := math.Inf(1)
		for _, b := range q {
			near = min(near, a.DistanceCIEDE2000(b))
		}
		total += near
	}
	return total / float64(len(p))
}

// Strip renders palettes as rows of tile×tile squares.
func Strip(tile int, rows ...Palette) (*image.RGBA, error) {
	if tile <= 0 {
		tile = 64
	}
	width := 0
	for _, p := range rows {
		width = max(width, len(p))
	}
	if width == 0 {
		return nil, errors.New("empty palette")
	}
	img := image.NewRGBA(image.Rect(0, 0, width*tile, len(rows)*tile))
	for y, p := range rows {
		for x, c := range p {
			r, g, b := c.Clamped().RGB255()
			cell := image.Rect(x*tile, y*tile, (x+1)*tile, (y+1)*tile)
			draw.Draw(img, cell, image.NewUniform(color.RGBA{r, g, b, 255}), image.Point{}, draw.Src)
		}
	}
	return img, nil
}

// SavePalette writes palettes as a PNG strip, one row per palette.
func SavePalette(filename string, tile int, rows ...Palette) error {
	img, err := Strip(tile, rows...)
	if err != nil {
		return err
	}
	return SaveImage(img, filename)
}
