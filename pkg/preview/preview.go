// Package preview renders split pieces as JPEG thumbnails for visual checks.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"dicomsplit/internal/models"
)

// DefaultQuality is the JPEG quality used when none is configured
const DefaultQuality = 90

// Writer saves one preview per (piece index, source file) under a root
// directory, as <dir>/<index+1>/<name>.jpg
type Writer struct {
	// dir is the preview root directory
	dir string

	// quality is the JPEG quality (1-100)
	quality int
}

// NewWriter creates a preview writer rooted at dir
func NewWriter(dir string, quality int) *Writer {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Writer{
		dir:     dir,
		quality: quality,
	}
}

// Path returns where the preview of piece index of the named file is written
func (w *Writer) Path(index int, name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return filepath.Join(w.dir, strconv.Itoa(index+1), base+".jpg")
}

// Save renders buf and writes it as a JPEG image
func (w *Writer) Save(buf models.PixelBuffer, index int, name string) error {
	img, err := Render(buf)
	if err != nil {
		return err
	}

	path := w.Path(index, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating preview directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: w.quality}); err != nil {
		file.Close()
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	return file.Close()
}

// Render maps the first sample of every pixel to 8-bit grey using a window
// of mean ± 2 standard deviations
func Render(buf models.PixelBuffer) (*image.Gray, error) {
	shape := buf.Shape()
	rows, cols := shape[0], shape[1]
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("cannot render empty %dx%d buffer", rows, cols)
	}

	values := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			values = append(values, float64(buf.Sample(y, x, 0)))
		}
	}

	low, high := Window(values)
	scale := 255 / (high - low)

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := (values[y*cols+x] - low) * scale
			img.SetGray(x, y, color.Gray{Y: uint8(math.Max(0, math.Min(255, v)))})
		}
	}
	return img, nil
}

// Window returns the display range for values. The range is never empty.
func Window(values []float64) (low, high float64) {
	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}
	low, high = mean-2*std, mean+2*std
	if high-low < 1 {
		low, high = mean-0.5, mean+0.5
	}
	return low, high
}
