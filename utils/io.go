package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/setanarut/colorizer"
)

// DefaultExtensions are the sample file types the demo picks from.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}

var ErrNoImages = errors.New("no images found")

// DecodeRGB decodes a JPEG or PNG stream into packed RGB. Alpha is dropped.
func DecodeRGB(r io.Reader) (*colorizer.RGB8, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return colorizer.RGB8FromImage(img), nil
}

// ReadRGB opens and decodes an image file.
func ReadRGB(path string) (*colorizer.RGB8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := DecodeRGB(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// ListImages returns the files directly inside dir whose extension is one of
// exts, compared case-insensitively, sorted by name. A nil exts means
// DefaultExtensions.
func ListImages(dir string, exts []string) ([]string, error) {
	if exts == nil {
		exts = DefaultExtensions
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.ContainsFunc(exts, func(x string) bool { return strings.EqualFold(x, ext) }) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	return files, nil
}

// SampleFiles draws n files uniformly with replacement, so the same file can
// come up more than once.
func SampleFiles(files []string, n int, rng *rand.Rand) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoImages
	}
	if n < 0 {
		return nil, fmt.Errorf("negative sample count %d", n)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = files[rng.IntN(len(files))]
	}
	return out, nil
}

// SaveImage writes img as PNG, creating parent directories.
func SaveImage(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
