package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/setanarut/colorizer"
	"github.com/setanarut/colorizer/utils"
	"github.com/spf13/cobra"
)

var colorizeCmd = &cobra.Command{
	Use:   "colorize",
	Short: "Colorize one image file",
	RunE:  runColorize,
}

func init() {
	colorizeCmd.Flags().StringP("input", "i", "", "Input JPEG or PNG file")
	colorizeCmd.Flags().StringP("output", "o", "", "Output directory (default <output_dir>/<run id>)")
	colorizeCmd.Flags().Bool("only-predicted", false, "Write only the predicted image")
	colorizeCmd.Flags().Bool("palette", false, "Also write reference and predicted palettes")
	colorizeCmd.Flags().Bool("report", false, "Also print chroma statistics and write histograms")
	colorizeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(colorizeCmd)
}

func runColorize(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outDir, _ := cmd.Flags().GetString("output")
	onlyPredicted, _ := cmd.Flags().GetBool("only-predicted")
	palette, _ := cmd.Flags().GetBool("palette")
	rep, _ := cmd.Flags().GetBool("report")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = filepath.Join(cfg.GetOutputDir(), uuid.New().String())
	}

	src, err := utils.ReadRGB(inputPath)
	if err != nil {
		return err
	}
	m, err := loadModel(cmd, cfg)
	if err != nil {
		return err
	}
	c, err := colorizer.New(m, cfg.Options())
	if err != nil {
		return err
	}

	fmt.Printf("%s (%dx%d)\n", inputPath, src.W, src.H)
	return show(c, cfg, src, outDir, showOptions{
		onlyPredicted: onlyPredicted,
		palette:       palette,
		report:        rep,
	})
}
