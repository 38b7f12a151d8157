package models

import "fmt"

// Axis selects the in-plane dimension a slice is partitioned along.
// The numeric values match the index into a (rows, columns) Shape.
type Axis int

const (
	Rows Axis = iota
	Columns
)

// String returns the lower-case axis name
func (a Axis) String() string {
	switch a {
	case Rows:
		return "rows"
	case Columns:
		return "columns"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Valid reports whether a is Rows or Columns
func (a Axis) Valid() bool {
	return a == Rows || a == Columns
}

// Shape is a (rows, columns) pair. It is used both for buffer dimensions
// and for pixel index offsets into a buffer.
type Shape [2]int

// Geometry holds the image plane metadata needed to map pixel indices into
// patient space.
type Geometry struct {
	// Position is the patient-space coordinate of pixel (0, 0)
	Position [3]float64

	// Orientation is the row direction cosines followed by the column
	// direction cosines
	Orientation [6]float64

	// Spacing is (row spacing, column spacing) in mm
	Spacing [2]float64
}

// IdentifierPair is the SOP instance / series instance UID pair that names
// one image file and the series it belongs to.
type IdentifierPair struct {
	SOPInstanceUID    string `json:"sopInstanceUid" yaml:"sopInstanceUid"`
	SeriesInstanceUID string `json:"seriesInstanceUid" yaml:"seriesInstanceUid"`
}

// String renders the pair in the "SOP/Series" form accepted on the command line
func (p IdentifierPair) String() string {
	return p.SOPInstanceUID + "/" + p.SeriesInstanceUID
}

// PixelBuffer is a single 2D frame of samples stored row-major.
type PixelBuffer interface {
	// Shape returns (rows, columns)
	Shape() Shape

	// SamplesPerPixel returns the number of interleaved samples per pixel
	SamplesPerPixel() int

	// Sample returns sample s of the pixel at (row, col)
	Sample(row, col, s int) int

	// Crop returns a copy of the sub-rectangle [start, start+size)
	Crop(start, size Shape) (PixelBuffer, error)
}
