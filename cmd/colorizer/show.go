package main

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/setanarut/colorizer"
	"github.com/setanarut/colorizer/config"
	"github.com/setanarut/colorizer/report"
	"github.com/setanarut/colorizer/utils"
)

const (
	captionBase      = "Base image"
	captionGray      = "Grayscale image"
	captionPredicted = "Predicted image"
)

type showOptions struct {
	onlyPredicted bool
	palette       bool
	report        bool
}

// show colorizes src and writes the captioned images into dir.
func show(c *colorizer.Colorizer, cfg *config.Config, src *colorizer.RGB8, dir string, opt showOptions) error {
	if opt.onlyPredicted {
		pred, err := c.Predict(src)
		if err != nil {
			return err
		}
		return save(pred.Image(), captionPredicted, filepath.Join(dir, "predicted.png"))
	}

	res, err := c.Reconstruct(src)
	if err != nil {
		return err
	}
	if err := save(res.Reference.Image(), captionBase, filepath.Join(dir, "base.png")); err != nil {
		return err
	}
	if err := save(res.Gray, captionGray, filepath.Join(dir, "grayscale.png")); err != nil {
		return err
	}
	if err := save(res.Predicted.Image(), captionPredicted, filepath.Join(dir, "predicted.png")); err != nil {
		return err
	}

	if opt.palette && cfg.GetPaletteSize() > 0 {
		if err := comparePalettes(cfg, res, filepath.Join(dir, "palette.png")); err != nil {
			return fmt.Errorf("palette: %w", err)
		}
	}
	if opt.report {
		stats, err := report.Compare(res.Reference, res.Predicted)
		if err != nil {
			return err
		}
		fmt.Printf("  %s\n", stats)
		if _, err := report.WriteHistograms(dir, cfg.GetHistogramBins(), res.Reference, res.Predicted); err != nil {
			return fmt.Errorf("histograms: %w", err)
		}
	}
	return nil
}

// comparePalettes writes reference and predicted palettes as two rows.
func comparePalettes(cfg *config.Config, res *colorizer.Result, path string) error {
	k, method := cfg.GetPaletteSize(), cfg.GetPaletteMethod()
	ref, err := utils.ExtractPalette(res.Reference.Image(), k, method)
	if err != nil {
		return err
	}
	pred, err := utils.ExtractPalette(res.Predicted.Image(), k, method)
	if err != nil {
		return err
	}
	ref.SortByLightness()
	pred.SortByLightness()
	if err := utils.SavePalette(path, 48, ref, pred); err != nil {
		return err
	}
	fmt.Printf("  Palette (%s, drift %.3f): %s\n", method, ref.Drift(pred), path)
	return nil
}

func save(img image.Image, caption, path string) error {
	if err := utils.SaveImage(img, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("  %s: %s\n", caption, path)
	return nil
}
