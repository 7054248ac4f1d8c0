package main

import (
	"fmt"

	"github.com/setanarut/colorizer"
	"github.com/setanarut/colorizer/utils"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the model's metrics over the sample directory",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().String("dir", "", "Image directory (overrides config)")
	evaluateCmd.Flags().Int("limit", 0, "Evaluate at most this many files, 0 for all")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir := cfg.GetSampleDir()
	if cmd.Flags().Changed("dir") {
		dir, _ = cmd.Flags().GetString("dir")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	files, err := utils.ListImages(dir, cfg.GetExtensions())
	if err != nil {
		return err
	}
	if limit > 0 && limit < len(files) {
		files = files[:limit]
	}

	m, err := loadModel(cmd, cfg)
	if err != nil {
		return err
	}
	if len(m.Metrics()) == 0 {
		return fmt.Errorf("model %q has no compiled metrics", m.Name)
	}

	// 1. Prepare every image at network resolution.
	size := cfg.GetInputSize()
	planes := make([]*colorizer.Plane64, 0, len(files))
	labs := make([]*colorizer.Lab64, 0, len(files))
	for _, path := range files {
		src, err := utils.ReadRGB(path)
		if err != nil {
			return err
		}
		lab, err := colorizer.Prepare(src, size)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		planes = append(planes, lab.Channel(0))
		labs = append(labs, lab)
	}
	colorizer.Logf("evaluate: %d images from %s at %dx%d", len(files), dir, size, size)

	// 2. Score luminance -> chrominance against the true chrominance.
	scores, err := m.Evaluate(colorizer.LuminanceBatch(planes...), colorizer.ChromaBatch(labs...))
	if err != nil {
		return err
	}
	for _, name := range m.Metrics() {
		fmt.Printf("%s: %.4f\n", name, scores[name])
	}
	return nil
}
