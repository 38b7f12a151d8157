package geometry

import (
	"math"
	"testing"

	"dicomsplit/internal/models"
)

const tolerance = 1e-9

func almostEqual(a, b [3]float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tolerance {
			return false
		}
	}
	return true
}

// TestAffineLayout checks each matrix entry against the documented layout
func TestAffineLayout(t *testing.T) {
	g := models.Geometry{
		Position:    [3]float64{10, 20, 30},
		Orientation: [6]float64{1, 0, 0, 0, 1, 0},
		Spacing:     [2]float64{0.5, 0.25},
	}
	a := Affine(g)

	rows, cols := a.Dims()
	if rows != 4 || cols != 4 {
		t.Fatalf("Expected 4x4 matrix, got %dx%d", rows, cols)
	}

	expected := [4][4]float64{
		{0, 0.25, 0, 10},
		{0.5, 0, 0, 20},
		{0, 0, 0, 30},
		{0, 0, 0, 1},
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if math.Abs(a.At(r, c)-expected[r][c]) > tolerance {
				t.Errorf("A[%d][%d] = %f, expected %f", r, c, a.At(r, c), expected[r][c])
			}
		}
	}
}

// TestTransformOrigin verifies that offset (0, 0) maps to the image position
func TestTransformOrigin(t *testing.T) {
	g := models.Geometry{
		Position:    [3]float64{-120.5, 33, 7.25},
		Orientation: [6]float64{0, 1, 0, 0, 0, -1},
		Spacing:     [2]float64{0.8, 0.8},
	}

	got := Transform(Affine(g), models.Shape{0, 0})
	if !almostEqual(got, g.Position) {
		t.Errorf("Expected %v, got %v", g.Position, got)
	}
}

// TestTransformIdentityAxes walks along columns with identity orientation
func TestTransformIdentityAxes(t *testing.T) {
	g := models.Geometry{
		Orientation: [6]float64{1, 0, 0, 0, 1, 0},
		Spacing:     [2]float64{1, 1},
	}
	a := Affine(g)

	// Second of two pieces split along columns of a 64-column image
	got := Transform(a, models.Shape{0, 32})
	if !almostEqual(got, [3]float64{32, 0, 0}) {
		t.Errorf("Column offset: expected [32 0 0], got %v", got)
	}

	got = Transform(a, models.Shape{16, 0})
	if !almostEqual(got, [3]float64{0, 16, 0}) {
		t.Errorf("Row offset: expected [0 16 0], got %v", got)
	}
}

// TestTransformSagittal uses a sagittal plane with anisotropic spacing
func TestTransformSagittal(t *testing.T) {
	g := models.Geometry{
		Position:    [3]float64{5, -100, 100},
		Orientation: [6]float64{0, 1, 0, 0, 0, -1},
		Spacing:     [2]float64{2, 0.5},
	}

	got := Transform(Affine(g), models.Shape{10, 40})
	expected := [3]float64{5, -100 + 40*0.5, 100 - 10*2}
	if !almostEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
