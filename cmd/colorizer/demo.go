package main

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/setanarut/colorizer"
	"github.com/setanarut/colorizer/config"
	"github.com/setanarut/colorizer/utils"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Colorize random photos from the sample directory",
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().IntP("count", "n", 0, fmt.Sprintf("Number of photos, 1-%d (default from config)", config.MaxDemoCount))
	demoCmd.Flags().String("dir", "", "Sample directory (overrides config)")
	demoCmd.Flags().Uint64("seed", 0, "Random seed, 0 picks one")
	demoCmd.Flags().StringP("output", "o", "", "Output directory (default <output_dir>/<run id>)")
	demoCmd.Flags().Bool("palette", false, "Also write reference and predicted palettes")
	demoCmd.Flags().Bool("report", false, "Also print chroma statistics and write histograms")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("count") {
		v, _ := cmd.Flags().GetInt("count")
		cfg.DemoCount = &v
	}
	if cmd.Flags().Changed("dir") {
		v, _ := cmd.Flags().GetString("dir")
		cfg.SampleDir = &v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	seed, _ := cmd.Flags().GetUint64("seed")
	if seed == 0 {
		seed = rand.Uint64()
	}
	outDir, _ := cmd.Flags().GetString("output")
	if outDir == "" {
		outDir = filepath.Join(cfg.GetOutputDir(), uuid.New().String())
	}
	palette, _ := cmd.Flags().GetBool("palette")
	rep, _ := cmd.Flags().GetBool("report")

	files, err := utils.ListImages(cfg.GetSampleDir(), cfg.GetExtensions())
	if err != nil {
		return err
	}
	picked, err := utils.SampleFiles(files, cfg.GetDemoCount(), rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return err
	}
	colorizer.Logf("demo: %d of %d photos from %s (seed %d)", len(picked), len(files), cfg.GetSampleDir(), seed)

	m, err := loadModel(cmd, cfg)
	if err != nil {
		return err
	}
	c, err := colorizer.New(m, cfg.Options())
	if err != nil {
		return err
	}

	for i, path := range picked {
		src, err := utils.ReadRGB(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		dir := filepath.Join(outDir, fmt.Sprintf("%02d_%s", i+1, name))
		fmt.Printf("[%d/%d] %s (%dx%d)\n", i+1, len(picked), path, src.W, src.H)
		if err := show(c, cfg, src, dir, showOptions{palette: palette, report: rep}); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	fmt.Printf("Output: %s\n", outDir)
	return nil
}
