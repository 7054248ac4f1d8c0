// Package report compares a predicted colourization with its reference:
// summary statistics of the chrominance channels and overlaid histograms.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/setanarut/colorizer"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrSizeMismatch = errors.New("images differ in size")

// Channel summarizes one chrominance channel in CIE units (code - 128).
type Channel struct {
	Mean, StdDev float64
}

// Stats compares the chrominance of a prediction with its reference.
type Stats struct {
	// PSNR over the normalized a* and b* codes, the training metric.
	PSNR float64

	RefA, RefB   Channel
	PredA, PredB Channel

	// Pearson correlation per channel; NaN when a channel is constant.
	CorrA, CorrB float64
}

// chroma holds a* and b* in CIE units plus the normalized interleaved pairs.
type chroma struct {
	a, b []float64
	norm []float32
}

func split(img *colorizer.RGB8) (*chroma, error) {
	lab, err := colorizer.RGBToLab8(img)
	if err != nil {
		return nil, err
	}
	n := img.W * img.H
	c := &chroma{a: make([]float64, n), b: make([]float64, n), norm: make([]float32, 0, 2*n)}
	for i := range n {
		a, b := lab.Pix[i*3+1], lab.Pix[i*3+2]
		c.a[i] = float64(a) - 128
		c.b[i] = float64(b) - 128
		c.norm = append(c.norm, float32(a)/255, float32(b)/255)
	}
	return c, nil
}

func splitPair(ref, pred *colorizer.RGB8) (*chroma, *chroma, error) {
	r, err := split(ref)
	if err != nil {
		return nil, nil, fmt.Errorf("reference: %w", err)
	}
	p, err := split(pred)
	if err != nil {
		return nil, nil, fmt.Errorf("prediction: %w", err)
	}
	if ref.W != pred.W || ref.H != pred.H {
		return nil, nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, ref.W, ref.H, pred.W, pred.H)
	}
	return r, p, nil
}

func summarize(v []float64) Channel {
	m, s := stat.MeanStdDev(v, nil)
	return Channel{Mean: m, StdDev: s}
}

// Compare computes Stats for two images of the same size.
func Compare(ref, pred *colorizer.RGB8) (*Stats, error) {
	r, p, err := splitPair(ref, pred)
	if err != nil {
		return nil, err
	}
	return &Stats{
		PSNR:  colorizer.PSNR(r.norm, p.norm),
		RefA:  summarize(r.a),
		RefB:  summarize(r.b),
		PredA: summarize(p.a),
		PredB: summarize(p.b),
		CorrA: stat.Correlation(r.a, p.a, nil),
		CorrB: stat.Correlation(r.b, p.b, nil),
	}, nil
}

func (s *Stats) String() string {
	return fmt.Sprintf("psnr=%.2fdB a*: ref %.1f±%.1f pred %.1f±%.1f r=%.2f | b*: ref %.1f±%.1f pred %.1f±%.1f r=%.2f",
		s.PSNR,
		s.RefA.Mean, s.RefA.StdDev, s.PredA.Mean, s.PredA.StdDev, s.CorrA,
		s.RefB.Mean, s.RefB.StdDev, s.PredB.Mean, s.PredB.StdDev, s.CorrB)
}

var (
	refColor  = color.RGBA{R: 70, G: 110, B: 200, A: 140}
	predColor = color.RGBA{R: 220, G: 90, B: 40, A: 140}
)

// WriteHistograms saves chroma_a.png and chroma_b.png into dir, each
// overlaying the reference and predicted distributions of one channel.
// It returns the written paths.
func WriteHistograms(dir string, bins int, ref, pred *colorizer.RGB8) ([]string, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("bins must be positive, got %d", bins)
	}
	r, p, err := splitPair(ref, pred)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	channels := []struct {
		name      string
		ref, pred []float64
	}{
		{"a", r.a, p.a},
		{"b", r.b, p.b},
	}
	var paths []string
	for _, ch := range channels {
		path := filepath.Join(dir, "chroma_"+ch.name+".png")
		if err := histogram(path, ch.name+"*", bins, ch.ref, ch.pred); err != nil {
			return paths, fmt.Errorf("%s: %w", ch.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func histogram(path, label string, bins int, ref, pred []float64) error {
	p := plot.New()
	p.Title.Text = label + " distribution"
	p.X.Label.Text = label + " (CIE units)"
	p.Y.Label.Text = "Share of pixels"

	for _, series := range []struct {
		name string
		v    []float64
		c    color.Color
	}{
		{"Reference", ref, refColor},
		{"Predicted", pred, predColor},
	} {
		h, err := plotter.NewHist(plotter.Values(series.v), bins)
		if err != nil {
			return err
		}
		h.Normalize(1)
		h.FillColor = series.c
		h.LineStyle.Width = 0
		p.Add(h)
		p.Legend.Add(series.name, h)
	}
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
