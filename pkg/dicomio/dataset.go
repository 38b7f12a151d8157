// Package dicomio adapts github.com/suyashkumar/dicom datasets to the
// attribute accessors the splitter needs. Optional attributes are returned
// as optional.Field values so callers check presence instead of handling a
// missing-attribute error.
package dicomio

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/TBXark/optional-go"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomsplit/internal/models"
)

var (
	// ErrInvalidFile is returned when a file cannot be parsed as a DICOM container
	ErrInvalidFile = errors.New("not a valid DICOM file")

	// ErrUnsupportedPixelData is returned for pixel data that cannot be
	// cropped in memory: encapsulated (compressed) or multi-frame data.
	ErrUnsupportedPixelData = errors.New("unsupported pixel data")
)

// Dataset is one loaded DICOM file
type Dataset struct {
	raw dicom.Dataset
}

// New wraps an already parsed or constructed dataset
func New(raw dicom.Dataset) *Dataset {
	return &Dataset{raw: raw}
}

// Raw returns the underlying dataset
func (d *Dataset) Raw() *dicom.Dataset {
	return &d.raw
}

// Identifiers returns the SOP instance and series instance UIDs. Absent
// attributes are returned as empty strings.
func (d *Dataset) Identifiers() models.IdentifierPair {
	sop, _ := d.str(tag.SOPInstanceUID)
	series, _ := d.str(tag.SeriesInstanceUID)
	return models.IdentifierPair{SOPInstanceUID: sop, SeriesInstanceUID: series}
}

// SetIdentifiers overwrites the SOP instance and series instance UIDs. The
// file meta MediaStorageSOPInstanceUID follows the SOP instance UID when the
// dataset carries one.
func (d *Dataset) SetIdentifiers(p models.IdentifierPair) error {
	if err := d.set(tag.SOPInstanceUID, []string{p.SOPInstanceUID}); err != nil {
		return err
	}
	if err := d.set(tag.SeriesInstanceUID, []string{p.SeriesInstanceUID}); err != nil {
		return err
	}
	if _, err := d.raw.FindElementByTag(tag.MediaStorageSOPInstanceUID); err == nil {
		return d.set(tag.MediaStorageSOPInstanceUID, []string{p.SOPInstanceUID})
	}
	return nil
}

// Dimensions returns (Rows, Columns) when both attributes are present
func (d *Dataset) Dimensions() optional.Field[models.Shape] {
	rows, ok := d.integer(tag.Rows)
	if !ok {
		return optional.Field[models.Shape]{}
	}
	cols, ok := d.integer(tag.Columns)
	if !ok {
		return optional.Field[models.Shape]{}
	}
	return optional.NewField(models.Shape{rows, cols})
}

// Geometry returns Pixel Spacing, Image Position (Patient) and Image
// Orientation (Patient) when all three are present and numeric.
func (d *Dataset) Geometry() optional.Field[models.Geometry] {
	spacing, ok := d.floats(tag.PixelSpacing, 2)
	if !ok {
		return optional.Field[models.Geometry]{}
	}
	position, ok := d.floats(tag.ImagePositionPatient, 3)
	if !ok {
		return optional.Field[models.Geometry]{}
	}
	orientation, ok := d.floats(tag.ImageOrientationPatient, 6)
	if !ok {
		return optional.Field[models.Geometry]{}
	}

	var g models.Geometry
	copy(g.Spacing[:], spacing)
	copy(g.Position[:], position)
	copy(g.Orientation[:], orientation)
	return optional.NewField(g)
}

// SetImagePosition overwrites Image Position (Patient)
func (d *Dataset) SetImagePosition(p [3]float64) error {
	return d.set(tag.ImagePositionPatient, []string{
		FormatDecimalString(p[0]),
		FormatDecimalString(p[1]),
		FormatDecimalString(p[2]),
	})
}

// PixelBuffer returns the single native frame of the dataset. The field is
// absent when the dataset has no pixel data or was loaded header-only.
// Multi-sample pixels must be interleaved (Planar Configuration 0).
func (d *Dataset) PixelBuffer() (optional.Field[models.PixelBuffer], error) {
	none := optional.Field[models.PixelBuffer]{}

	el, err := d.raw.FindElementByTag(tag.PixelData)
	if err != nil {
		return none, nil
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || info.IntentionallySkipped || len(info.Frames) == 0 {
		return none, nil
	}
	if info.IsEncapsulated {
		return none, fmt.Errorf("%w: encapsulated transfer syntax", ErrUnsupportedPixelData)
	}
	if len(info.Frames) != 1 {
		return none, fmt.Errorf("%w: %d frames", ErrUnsupportedPixelData, len(info.Frames))
	}
	if spp, ok := d.integer(tag.SamplesPerPixel); ok && spp > 1 {
		// Planar data is read in file order, one colour plane after another
		if planar, ok := d.integer(tag.PlanarConfiguration); ok && planar == 1 {
			return none, fmt.Errorf("%w: planar configuration with %d samples per pixel", ErrUnsupportedPixelData, spp)
		}
	}
	f := info.Frames[0]
	if f.Encapsulated || f.NativeData == nil {
		return none, fmt.Errorf("%w: encapsulated frame", ErrUnsupportedPixelData)
	}

	buf, err := wrapNative(f.NativeData)
	if err != nil {
		return none, err
	}
	return optional.NewField(buf), nil
}

// SetPixelBuffer replaces the pixel data with buf and updates Rows and
// Columns to its shape. buf must come from this package.
func (d *Dataset) SetPixelBuffer(buf models.PixelBuffer) error {
	nb, ok := buf.(nativeHolder)
	if !ok {
		return fmt.Errorf("%w: buffer type %T", ErrUnsupportedPixelData, buf)
	}

	info := dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nb.native(),
			},
		},
	}
	if err := d.set(tag.PixelData, info); err != nil {
		return err
	}

	shape := buf.Shape()
	if err := d.set(tag.Rows, []int{shape[0]}); err != nil {
		return err
	}
	return d.set(tag.Columns, []int{shape[1]})
}

// str returns the first string value of t with padding removed
func (d *Dataset) str(t tag.Tag) (string, bool) {
	el, err := d.raw.FindElementByTag(t)
	if err != nil {
		return "", false
	}
	values, ok := el.Value.GetValue().([]string)
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimRight(values[0], " \x00"), true
}

func (d *Dataset) integer(t tag.Tag) (int, bool) {
	el, err := d.raw.FindElementByTag(t)
	if err != nil {
		return 0, false
	}
	values, ok := el.Value.GetValue().([]int)
	if !ok || len(values) == 0 {
		return 0, false
	}
	return values[0], true
}

// floats parses a decimal string attribute with exactly n values
func (d *Dataset) floats(t tag.Tag, n int) ([]float64, bool) {
	el, err := d.raw.FindElementByTag(t)
	if err != nil {
		return nil, false
	}
	values, ok := el.Value.GetValue().([]string)
	if !ok {
		return nil, false
	}

	// Some writers leave the backslash separators inside a single value
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, `\`)...)
	}
	if len(parts) != n {
		return nil, false
	}

	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.Trim(p, " \x00"), 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// set replaces the value of t, or inserts a new element in tag order
func (d *Dataset) set(t tag.Tag, data any) error {
	if el, err := d.raw.FindElementByTag(t); err == nil {
		v, err := dicom.NewValue(data)
		if err != nil {
			return fmt.Errorf("error setting %s: %w", t, err)
		}
		el.Value = v
		return nil
	}

	el, err := dicom.NewElement(t, data)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", t, err)
	}
	idx := sort.Search(len(d.raw.Elements), func(i int) bool {
		return tagLess(t, d.raw.Elements[i].Tag)
	})
	d.raw.Elements = append(d.raw.Elements, nil)
	copy(d.raw.Elements[idx+1:], d.raw.Elements[idx:])
	d.raw.Elements[idx] = el
	return nil
}

func tagLess(a, b tag.Tag) bool {
	if a.Group != b.Group {
		return a.Group < b.Group
	}
	return a.Element < b.Element
}

// FormatDecimalString renders v in at most 16 characters, the DS length limit
func FormatDecimalString(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if len(s) <= 16 {
		return s
	}
	for prec := 16; prec > 0; prec-- {
		s = strconv.FormatFloat(v, 'g', prec, 64)
		if len(s) <= 16 {
			return s
		}
	}
	return s
}
