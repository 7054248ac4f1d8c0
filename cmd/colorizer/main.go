package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/setanarut/colorizer"
	"github.com/setanarut/colorizer/config"
	"github.com/setanarut/colorizer/model"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "colorizer",
	Short: "Colorize grayscale photographs with a CIELAB chrominance network",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			colorizer.SetLogger(nil)
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", config.DefaultConfigPath, "JSON config file")
	pf.String("model", "", "Model file or directory (overrides config)")
	pf.Bool("neutral", false, "Use the built-in neutral model instead of loading one")
	pf.Int("size", 0, "Network input size (overrides config)")
	pf.Bool("clamp", false, "Saturate predicted chrominance instead of wrapping")
	pf.BoolP("quiet", "q", false, "Suppress progress logging")
}

// loadConfig reads the config file and applies flag overrides. A missing
// default config file is not an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		if cmd.Flags().Changed("config") || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = config.DefaultConfig()
	}

	if cmd.Flags().Changed("model") {
		v, _ := cmd.Flags().GetString("model")
		cfg.ModelPath = &v
	}
	if cmd.Flags().Changed("size") {
		v, _ := cmd.Flags().GetInt("size")
		cfg.InputSize = &v
	}
	if cmd.Flags().Changed("clamp") {
		v, _ := cmd.Flags().GetBool("clamp")
		cfg.ClampChroma = &v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadModel(cmd *cobra.Command, cfg *config.Config) (*model.Model, error) {
	if neutral, _ := cmd.Flags().GetBool("neutral"); neutral {
		m := model.Neutral(cfg.GetInputSize())
		if err := m.Compile([]string{model.MetricPSNR}, model.DefaultObjects()); err != nil {
			return nil, err
		}
		colorizer.Logf("using neutral model at %dx%d", m.InputSize, m.InputSize)
		return m, nil
	}
	m, err := model.Load(cfg.GetModelPath(), model.DefaultObjects())
	if err != nil {
		return nil, err
	}
	if m.InputSize > 0 && m.InputSize != cfg.GetInputSize() {
		return nil, fmt.Errorf("model %q takes %d pixel input, config says %d", m.Name, m.InputSize, cfg.GetInputSize())
	}
	colorizer.Logf("loaded model %q from %s", m.Name, cfg.GetModelPath())
	return m, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
