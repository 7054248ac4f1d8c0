package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/colorizer"
	"github.com/setanarut/colorizer/utils"
)

// DefaultConfigPath is the canonical defaults file, relative to the repo root.
const DefaultConfigPath = "config/colorizer.defaults.json"

// MaxDemoCount bounds how many sample photos one demo run shows.
const MaxDemoCount = 10

const (
	defaultModelPath     = "models/colorizer"
	defaultSampleDir     = "test_dataset"
	defaultDemoCount     = 1
	defaultOutputDir     = "out"
	defaultPaletteSize   = 6
	defaultHistogramBins = 64
)

// Config holds the application settings. Unset fields fall back to the
// defaults returned by the Get* methods, so partial files are fine.
type Config struct {
	// Pipeline
	InputSize   *int    `json:"input_size,omitempty"`
	ModelPath   *string `json:"model_path,omitempty"` // model.json or its directory
	ClampChroma *bool   `json:"clamp_chroma,omitempty"`

	// Demo
	SampleDir  *string  `json:"sample_dir,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
	DemoCount  *int     `json:"demo_count,omitempty"`

	// Output
	OutputDir     *string `json:"output_dir,omitempty"`
	PaletteSize   *int    `json:"palette_size,omitempty"`
	PaletteMethod *string `json:"palette_method,omitempty"`
	HistogramBins *int    `json:"histogram_bins,omitempty"`
}

func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// DefaultConfig returns a Config with every field set.
func DefaultConfig() *Config {
	return &Config{
		InputSize:     ptrInt(colorizer.DefaultInputSize),
		ModelPath:     ptrString(defaultModelPath),
		ClampChroma:   ptrBool(false),
		SampleDir:     ptrString(defaultSampleDir),
		Extensions:    append([]string(nil), utils.DefaultExtensions...),
		DemoCount:     ptrInt(defaultDemoCount),
		OutputDir:     ptrString(defaultOutputDir),
		PaletteSize:   ptrInt(defaultPaletteSize),
		PaletteMethod: ptrString(utils.PaletteDominant.String()),
		HistogramBins: ptrInt(defaultHistogramBins),
	}
}

// Load reads a Config from a .json file of at most 1MB and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *Config) Validate() error {
	if c.InputSize != nil && *c.InputSize <= 0 {
		return fmt.Errorf("input_size must be positive, got %d", *c.InputSize)
	}
	if c.DemoCount != nil && (*c.DemoCount < 1 || *c.DemoCount > MaxDemoCount) {
		return fmt.Errorf("demo_count must be between 1 and %d, got %d", MaxDemoCount, *c.DemoCount)
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	if c.PaletteSize != nil && *c.PaletteSize < 0 {
		return fmt.Errorf("palette_size must be non-negative, got %d", *c.PaletteSize)
	}
	if c.PaletteMethod != nil {
		if _, err := utils.ParsePaletteMethod(*c.PaletteMethod); err != nil {
			return err
		}
	}
	if c.HistogramBins != nil && *c.HistogramBins <= 0 {
		return fmt.Errorf("histogram_bins must be positive, got %d", *c.HistogramBins)
	}
	return nil
}

func (c *Config) GetInputSize() int {
	if c.InputSize == nil {
		return colorizer.DefaultInputSize
	}
	return *c.InputSize
}

func (c *Config) GetModelPath() string {
	if c.ModelPath == nil {
		return defaultModelPath
	}
	return *c.ModelPath
}

func (c *Config) GetClampChroma() bool {
	return c.ClampChroma != nil && *c.ClampChroma
}

func (c *Config) GetSampleDir() string {
	if c.SampleDir == nil {
		return defaultSampleDir
	}
	return *c.SampleDir
}

func (c *Config) GetExtensions() []string {
	if len(c.Extensions) == 0 {
		return utils.DefaultExtensions
	}
	return c.Extensions
}

func (c *Config) GetDemoCount() int {
	if c.DemoCount == nil {
		return defaultDemoCount
	}
	return *c.DemoCount
}

func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil {
		return defaultOutputDir
	}
	return *c.OutputDir
}

// GetPaletteSize returns the palette size; zero disables palette strips.
func (c *Config) GetPaletteSize() int {
	if c.PaletteSize == nil {
		return defaultPaletteSize
	}
	return *c.PaletteSize
}

// GetPaletteMethod returns the parsed palette method, dominant colour on
// unknown names.
func (c *Config) GetPaletteMethod() utils.PaletteMethod {
	if c.PaletteMethod == nil {
		return utils.PaletteDominant
	}
	m, err := utils.ParsePaletteMethod(*c.PaletteMethod)
	if err != nil {
		return utils.PaletteDominant
	}
	return m
}

func (c *Config) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return defaultHistogramBins
	}
	return *c.HistogramBins
}

// Options returns the pipeline options the config describes.
func (c *Config) Options() colorizer.Options {
	return colorizer.Options{InputSize: c.GetInputSize(), ClampChroma: c.GetClampChroma()}
}
