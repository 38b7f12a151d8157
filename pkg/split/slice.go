package split

import (
	"gonum.org/v1/gonum/mat"

	"dicomsplit/internal/models"
	"dicomsplit/pkg/geometry"
)

// PieceSize returns the shape shared by every piece: the axis length is
// divided by count and any remainder is dropped from the last piece.
func PieceSize(shape models.Shape, axis models.Axis, count int) models.Shape {
	size := shape
	size[axis] = shape[axis] / count
	return size
}

// SplitBuffer crops piece index out of buf. The returned offset is the
// piece's first pixel in buf; only the split axis is non-zero.
func SplitBuffer(buf models.PixelBuffer, axis models.Axis, size models.Shape, index int) (models.PixelBuffer, models.Shape, error) {
	var start models.Shape
	start[axis] = index * size[axis]

	cropped, err := buf.Crop(start, size)
	if err != nil {
		return nil, start, err
	}
	return cropped, start, nil
}

// positioner is the dataset mutation Reposition needs
type positioner interface {
	SetImagePosition(p [3]float64) error
}

// Reposition moves the dataset's Image Position (Patient) to the patient
// space point of start. A nil affine means the geometry was not available
// and the position is left untouched.
func Reposition(ds positioner, start models.Shape, affine mat.Matrix) error {
	if affine == nil {
		return nil
	}
	return ds.SetImagePosition(geometry.Transform(affine, start))
}
