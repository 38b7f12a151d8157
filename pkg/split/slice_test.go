package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicomsplit/internal/models"
	"dicomsplit/pkg/dicomio"
	"dicomsplit/pkg/geometry"
)

func rampBuffer(t *testing.T, rows, cols int) models.PixelBuffer {
	t.Helper()
	data := make([]uint16, rows*cols)
	for i := range data {
		data[i] = uint16(i)
	}
	buf, err := dicomio.NewBuffer[uint16](16, rows, cols, 1, data)
	require.NoError(t, err)
	return buf
}

func TestPieceSizeTruncates(t *testing.T) {
	assert.Equal(t, models.Shape{3, 10}, PieceSize(models.Shape{10, 10}, models.Rows, 3))
	assert.Equal(t, models.Shape{10, 5}, PieceSize(models.Shape{10, 10}, models.Columns, 2))
	assert.Equal(t, models.Shape{0, 4}, PieceSize(models.Shape{2, 4}, models.Rows, 3))
}

func TestSplitBufferRowsCoverage(t *testing.T) {
	for _, tc := range []struct{ rows, n int }{{12, 3}, {10, 3}, {7, 2}, {5, 5}} {
		buf := rampBuffer(t, tc.rows, 4)
		size := PieceSize(buf.Shape(), models.Rows, tc.n)

		total := 0
		for i := 0; i < tc.n; i++ {
			piece, start, err := SplitBuffer(buf, models.Rows, size, i)
			require.NoError(t, err)
			assert.Equal(t, models.Shape{i * size[0], 0}, start)
			assert.Equal(t, size, piece.Shape())
			total += piece.Shape()[0]

			// first sample of each piece is the first sample of its start row
			assert.Equal(t, start[0]*4, piece.Sample(0, 0, 0))
		}

		assert.Equal(t, tc.n*(tc.rows/tc.n), total)
		assert.LessOrEqual(t, total, tc.rows)
		assert.Equal(t, tc.rows%tc.n == 0, total == tc.rows)
	}
}

func TestSplitBufferColumns(t *testing.T) {
	buf := rampBuffer(t, 3, 7)
	size := PieceSize(buf.Shape(), models.Columns, 2)
	require.Equal(t, models.Shape{3, 3}, size)

	piece, start, err := SplitBuffer(buf, models.Columns, size, 1)
	require.NoError(t, err)
	assert.Equal(t, models.Shape{0, 3}, start)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.Equal(t, r*7+c+3, piece.Sample(r, c, 0))
		}
	}
}

type recordingPositioner struct {
	calls    int
	position [3]float64
}

func (p *recordingPositioner) SetImagePosition(pos [3]float64) error {
	p.calls++
	p.position = pos
	return nil
}

func TestRepositionWithoutGeometry(t *testing.T) {
	var p recordingPositioner
	require.NoError(t, Reposition(&p, models.Shape{0, 16}, nil))
	assert.Zero(t, p.calls)
}

func TestRepositionIdentityAxes(t *testing.T) {
	buf := rampBuffer(t, 8, 64)
	size := PieceSize(buf.Shape(), models.Columns, 2)
	_, start, err := SplitBuffer(buf, models.Columns, size, 1)
	require.NoError(t, err)

	affine := geometry.Affine(models.Geometry{
		Orientation: [6]float64{1, 0, 0, 0, 1, 0},
		Spacing:     [2]float64{1, 1},
	})

	var p recordingPositioner
	require.NoError(t, Reposition(&p, start, affine))
	assert.Equal(t, 1, p.calls)
	assert.InDeltaSlice(t, []float64{float64(size[1]), 0, 0}, p.position[:], 1e-9)
}
