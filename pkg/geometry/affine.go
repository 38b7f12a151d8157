// Package geometry maps pixel index offsets into DICOM patient space.
package geometry

import (
	"gonum.org/v1/gonum/mat"

	"dicomsplit/internal/models"
)

// Affine builds the 4x4 matrix that maps a (row, column, depth, 1) pixel
// offset to a patient-space (x, y, z, 1) point.
//
// The direction matrix F has the column direction cosines in its first
// column and the row direction cosines in its second, so moving down a row
// follows the column cosines and moving along a row follows the row
// cosines. Orientation is not checked for orthonormality.
func Affine(g models.Geometry) *mat.Dense {
	f := mat.NewDense(3, 2, []float64{
		g.Orientation[3], g.Orientation[0],
		g.Orientation[4], g.Orientation[1],
		g.Orientation[5], g.Orientation[2],
	})
	deltaR, deltaC := g.Spacing[0], g.Spacing[1]

	a := mat.NewDense(4, 4, nil)
	for r := 0; r < 3; r++ {
		a.Set(r, 0, f.At(r, 0)*deltaR)
		a.Set(r, 1, f.At(r, 1)*deltaC)
		a.Set(r, 2, 0)
		a.Set(r, 3, g.Position[r])
	}
	a.Set(3, 3, 1)
	return a
}

// Transform applies an affine from Affine to an in-plane pixel offset and
// returns the patient-space point.
func Transform(a mat.Matrix, offset models.Shape) [3]float64 {
	in := mat.NewVecDense(4, []float64{float64(offset[0]), float64(offset[1]), 0, 1})
	var out mat.VecDense
	out.MulVec(a, in)
	return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}
