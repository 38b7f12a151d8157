// Package dicomtest writes small synthetic single-slice DICOM files for tests.
package dicomtest

import (
	"fmt"
	"os"
	"sort"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomsplit/internal/models"
)

const (
	explicitVRLittleEndian = "1.2.840.10008.1.2.1"
	mrImageStorage         = "1.2.840.10008.5.1.4.1.1.4"
)

// Slice describes one synthetic MR slice
type Slice struct {
	SOPInstanceUID    string
	SeriesInstanceUID string
	Rows, Cols        int

	// Geometry is written when non-nil
	Geometry *models.Geometry

	// NoPixelData omits the pixel data element
	NoPixelData bool

	// SamplesPerPixel above 1 writes an RGB slice. Samples are generated
	// interleaved; Planar only sets Planar Configuration to 1.
	SamplesPerPixel int
	Planar          bool
}

// DefaultGeometry is an axial plane at the origin with 1 mm pixels
func DefaultGeometry() *models.Geometry {
	return &models.Geometry{
		Orientation: [6]float64{1, 0, 0, 0, 1, 0},
		Spacing:     [2]float64{1, 1},
	}
}

// PixelValue is the synthetic sample stored at (row, col). Sample s of a
// multi-sample pixel stores PixelValue + 1000*s.
func PixelValue(row, col, cols int) uint16 {
	return uint16(row*cols + col)
}

// attr is one attribute to add to a synthetic dataset
type attr struct {
	t    tag.Tag
	data any
}

// Build assembles the dataset for s
func Build(s Slice) (dicom.Dataset, error) {
	spp, photometric := 1, "MONOCHROME2"
	if s.SamplesPerPixel > 1 {
		spp, photometric = s.SamplesPerPixel, "RGB"
	}

	attrs := []attr{
		{tag.MediaStorageSOPClassUID, []string{mrImageStorage}},
		{tag.MediaStorageSOPInstanceUID, []string{s.SOPInstanceUID}},
		{tag.TransferSyntaxUID, []string{explicitVRLittleEndian}},
		{tag.SOPClassUID, []string{mrImageStorage}},
		{tag.Modality, []string{"MR"}},
		{tag.SamplesPerPixel, []int{spp}},
		{tag.PhotometricInterpretation, []string{photometric}},
		{tag.Rows, []int{s.Rows}},
		{tag.Columns, []int{s.Cols}},
		{tag.BitsAllocated, []int{16}},
		{tag.BitsStored, []int{16}},
		{tag.HighBit, []int{15}},
		{tag.PixelRepresentation, []int{0}},
	}
	// Empty UIDs are left out of the dataset
	if s.SOPInstanceUID != "" {
		attrs = append(attrs, attr{tag.SOPInstanceUID, []string{s.SOPInstanceUID}})
	}
	if s.SeriesInstanceUID != "" {
		attrs = append(attrs, attr{tag.SeriesInstanceUID, []string{s.SeriesInstanceUID}})
	}
	if spp > 1 {
		planar := 0
		if s.Planar {
			planar = 1
		}
		attrs = append(attrs, attr{tag.PlanarConfiguration, []int{planar}})
	}
	if g := s.Geometry; g != nil {
		attrs = append(attrs,
			attr{tag.ImagePositionPatient, formatFloats(g.Position[:])},
			attr{tag.ImageOrientationPatient, formatFloats(g.Orientation[:])},
			attr{tag.PixelSpacing, formatFloats(g.Spacing[:])},
		)
	}

	var elements []*dicom.Element
	add := func(t tag.Tag, data any) error {
		el, err := dicom.NewElement(t, data)
		if err != nil {
			return fmt.Errorf("element %s: %w", t, err)
		}
		elements = append(elements, el)
		return nil
	}
	for _, a := range attrs {
		if err := add(a.t, a.data); err != nil {
			return dicom.Dataset{}, err
		}
	}

	if !s.NoPixelData {
		nativeFrame := frame.NewNativeFrame[uint16](16, s.Rows, s.Cols, s.Rows*s.Cols, spp)
		if n := s.Rows * s.Cols * spp; len(nativeFrame.RawData) != n {
			nativeFrame.RawData = make([]uint16, n)
		}
		for i := range nativeFrame.RawData {
			pixel, sample := i/spp, i%spp
			nativeFrame.RawData[i] = PixelValue(pixel/s.Cols, pixel%s.Cols, s.Cols) + uint16(sample)*1000
		}
		info := dicom.PixelDataInfo{
			Frames: []*frame.Frame{
				{
					Encapsulated: false,
					NativeData:   nativeFrame,
				},
			},
		}
		if err := add(tag.PixelData, info); err != nil {
			return dicom.Dataset{}, err
		}
	}

	return dicom.Dataset{Elements: sortElements(elements)}, nil
}

// Write builds s and writes it to path
func Write(t testing.TB, path string, s Slice) {
	t.Helper()

	ds, err := Build(s)
	if err != nil {
		t.Fatalf("Failed to build dataset: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := dicom.Write(f, ds); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// WriteCorrupt writes a file that is not a DICOM container
func WriteCorrupt(t testing.TB, path string) {
	t.Helper()

	if err := os.WriteFile(path, []byte("this is not a DICOM file"), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func formatFloats(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%g", v)
	}
	return out
}

// sortElements orders elements by tag, as written files require
func sortElements(elements []*dicom.Element) []*dicom.Element {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i].Tag, elements[j].Tag
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Element < b.Element
	})
	return elements
}
