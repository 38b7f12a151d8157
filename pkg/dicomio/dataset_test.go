package dicomio

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomsplit/internal/dicomtest"
	"dicomsplit/internal/models"
)

func writeSlice(t *testing.T, s dicomtest.Slice) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slice.dcm")
	dicomtest.Write(t, path, s)
	return path
}

func TestLoadAccessors(t *testing.T) {
	geom := &models.Geometry{
		Position:    [3]float64{-10.5, 20, 3.25},
		Orientation: [6]float64{1, 0, 0, 0, 1, 0},
		Spacing:     [2]float64{0.5, 0.75},
	}
	path := writeSlice(t, dicomtest.Slice{
		SOPInstanceUID:    "1.2.3.4",
		SeriesInstanceUID: "1.2.3",
		Rows:              4,
		Cols:              6,
		Geometry:          geom,
	})

	ds, err := Codec{}.Load(path)
	require.NoError(t, err)

	assert.Equal(t, models.IdentifierPair{SOPInstanceUID: "1.2.3.4", SeriesInstanceUID: "1.2.3"}, ds.Identifiers())

	dims := ds.Dimensions()
	require.True(t, dims.Present())
	assert.Equal(t, models.Shape{4, 6}, dims.OrElse(models.Shape{}))

	g := ds.Geometry()
	require.True(t, g.Present())
	assert.Equal(t, *geom, g.OrElse(models.Geometry{}))

	field, err := ds.PixelBuffer()
	require.NoError(t, err)
	require.True(t, field.Present())
	buf := field.OrElse(nil)
	assert.Equal(t, models.Shape{4, 6}, buf.Shape())
	assert.Equal(t, 1, buf.SamplesPerPixel())
	assert.Equal(t, int(dicomtest.PixelValue(2, 5, 6)), buf.Sample(2, 5, 0))
}

func TestLoadHeaderSkipsPixels(t *testing.T) {
	path := writeSlice(t, dicomtest.Slice{
		SOPInstanceUID:    "1.2.3.4",
		SeriesInstanceUID: "1.2.3",
		Rows:              4,
		Cols:              4,
	})

	ds, err := Codec{}.LoadHeader(path)
	require.NoError(t, err)

	dims := ds.Dimensions()
	assert.True(t, dims.Present())

	field, err := ds.PixelBuffer()
	require.NoError(t, err)
	assert.False(t, field.Present(), "header-only load should not expose pixels")
}

func TestMissingGeometryAndPixels(t *testing.T) {
	path := writeSlice(t, dicomtest.Slice{
		SOPInstanceUID:    "1.2.3.4",
		SeriesInstanceUID: "1.2.3",
		Rows:              4,
		Cols:              4,
		NoPixelData:       true,
	})

	ds, err := Codec{}.Load(path)
	require.NoError(t, err)

	g := ds.Geometry()
	assert.False(t, g.Present())

	field, err := ds.PixelBuffer()
	require.NoError(t, err)
	assert.False(t, field.Present())
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.dcm")
	dicomtest.WriteCorrupt(t, path)

	_, err := Codec{}.LoadHeader(path)
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = Codec{}.Load(path)
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Codec{}.Load(filepath.Join(t.TempDir(), "absent.dcm"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidFile)
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	path := writeSlice(t, dicomtest.Slice{
		SOPInstanceUID:    "1.2.3.4",
		SeriesInstanceUID: "1.2.3",
		Rows:              4,
		Cols:              6,
		Geometry:          dicomtest.DefaultGeometry(),
	})

	ds, err := Codec{}.Load(path)
	require.NoError(t, err)

	field, err := ds.PixelBuffer()
	require.NoError(t, err)
	buf := field.OrElse(nil)
	require.NotNil(t, buf)

	cropped, err := buf.Crop(models.Shape{0, 3}, models.Shape{4, 3})
	require.NoError(t, err)

	require.NoError(t, ds.SetPixelBuffer(cropped))
	require.NoError(t, ds.SetIdentifiers(models.IdentifierPair{SOPInstanceUID: "1.2.3.4.2", SeriesInstanceUID: "1.2.3.2"}))
	require.NoError(t, ds.SetImagePosition([3]float64{3, 0, 0}))

	out := filepath.Join(t.TempDir(), "out.dcm")
	require.NoError(t, Codec{}.Save(ds, out))

	reloaded, err := Codec{}.Load(out)
	require.NoError(t, err)

	assert.Equal(t, "1.2.3.4.2", reloaded.Identifiers().SOPInstanceUID)
	assert.Equal(t, "1.2.3.2", reloaded.Identifiers().SeriesInstanceUID)

	meta, err := reloaded.Raw().FindElementByTag(tag.MediaStorageSOPInstanceUID)
	require.NoError(t, err)
	values, ok := meta.Value.GetValue().([]string)
	require.True(t, ok)
	require.Len(t, values, 1)
	assert.Equal(t, "1.2.3.4.2", strings.TrimRight(values[0], " \x00"))

	dims := reloaded.Dimensions()
	assert.Equal(t, models.Shape{4, 3}, dims.OrElse(models.Shape{}))

	g := reloaded.Geometry()
	assert.Equal(t, [3]float64{3, 0, 0}, g.OrElse(models.Geometry{}).Position)

	field, err = reloaded.PixelBuffer()
	require.NoError(t, err)
	rb := field.OrElse(nil)
	require.NotNil(t, rb)
	for r := 0; r < 4; r++ {
		for c := 0; c < 3; c++ {
			assert.Equal(t, int(dicomtest.PixelValue(r, c+3, 6)), rb.Sample(r, c, 0), "sample (%d,%d)", r, c)
		}
	}
}

func TestCropBounds(t *testing.T) {
	buf, err := NewBuffer[uint8](8, 3, 4, 1, []uint8{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	})
	require.NoError(t, err)

	cropped, err := buf.Crop(models.Shape{1, 0}, models.Shape{2, 4})
	require.NoError(t, err)
	assert.Equal(t, models.Shape{2, 4}, cropped.Shape())
	assert.Equal(t, 4, cropped.Sample(0, 0, 0))
	assert.Equal(t, 11, cropped.Sample(1, 3, 0))

	_, err = buf.Crop(models.Shape{2, 0}, models.Shape{2, 4})
	assert.Error(t, err)
}

func TestCropInterleavedSamples(t *testing.T) {
	// 2x2 RGB
	buf, err := NewBuffer[uint8](8, 2, 2, 3, []uint8{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	})
	require.NoError(t, err)

	cropped, err := buf.Crop(models.Shape{0, 1}, models.Shape{2, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, cropped.SamplesPerPixel())
	assert.Equal(t, []int{4, 5, 6}, []int{cropped.Sample(0, 0, 0), cropped.Sample(0, 0, 1), cropped.Sample(0, 0, 2)})
	assert.Equal(t, []int{10, 11, 12}, []int{cropped.Sample(1, 0, 0), cropped.Sample(1, 0, 1), cropped.Sample(1, 0, 2)})
}

func TestNewBufferLengthMismatch(t *testing.T) {
	_, err := NewBuffer[uint16](16, 2, 2, 1, []uint16{1, 2, 3})
	assert.Error(t, err)
}

func TestFormatDecimalString(t *testing.T) {
	cases := map[float64]string{
		0:                   "0",
		-12.5:               "-12.5",
		123.456:             "123.456",
		0.3:                 "0.3",
		-123456.78901234567: "-123456.78901235",
	}
	for in, want := range cases {
		got := FormatDecimalString(in)
		assert.LessOrEqual(t, len(got), 16, "%v", in)
		assert.Equal(t, want, got, "%v", in)
	}
}

func TestPlanarColourRejected(t *testing.T) {
	path := writeSlice(t, dicomtest.Slice{
		SOPInstanceUID:    "1.2.3.4",
		SeriesInstanceUID: "1.2.3",
		Rows:              1,
		Cols:              2,
		SamplesPerPixel:   3,
		Planar:            true,
	})

	ds, err := Codec{}.Load(path)
	require.NoError(t, err)

	_, err = ds.PixelBuffer()
	assert.ErrorIs(t, err, ErrUnsupportedPixelData)
}

func TestInterleavedColourFileCrop(t *testing.T) {
	path := writeSlice(t, dicomtest.Slice{
		SOPInstanceUID:    "1.2.3.4",
		SeriesInstanceUID: "1.2.3",
		Rows:              1,
		Cols:              2,
		SamplesPerPixel:   3,
	})

	ds, err := Codec{}.Load(path)
	require.NoError(t, err)
	field, err := ds.PixelBuffer()
	require.NoError(t, err)
	buf := field.OrElse(nil)
	require.NotNil(t, buf)
	require.Equal(t, 3, buf.SamplesPerPixel())

	for col := 0; col < 2; col++ {
		piece, err := buf.Crop(models.Shape{0, col}, models.Shape{1, 1})
		require.NoError(t, err)
		for s := 0; s < 3; s++ {
			want := int(dicomtest.PixelValue(0, col, 2)) + 1000*s
			assert.Equal(t, want, piece.Sample(0, 0, s), "column %d sample %d", col, s)
		}
	}
}

func TestRawIsLiveDataset(t *testing.T) {
	path := writeSlice(t, dicomtest.Slice{SOPInstanceUID: "1.2.3.4", SeriesInstanceUID: "1.2.3", Rows: 2, Cols: 2})
	ds, err := Codec{}.Load(path)
	require.NoError(t, err)

	el, err := ds.Raw().FindElementByTag(tag.SOPInstanceUID)
	require.NoError(t, err)
	v, err := dicom.NewValue([]string{"9.9.9"})
	require.NoError(t, err)
	el.Value = v

	assert.Equal(t, "9.9.9", ds.Identifiers().SOPInstanceUID)
}
