package dicomio

import (
	"fmt"

	"github.com/suyashkumar/dicom/pkg/frame"
	"golang.org/x/exp/constraints"

	"dicomsplit/internal/models"
)

// nativeHolder is implemented by buffers that can be written back as a
// native frame
type nativeHolder interface {
	native() frame.INativeFrame
}

// nativeBuffer exposes a frame.NativeFrame as a models.PixelBuffer
type nativeBuffer[I constraints.Integer] struct {
	f *frame.NativeFrame[I]
}

func wrapNative(f frame.INativeFrame) (models.PixelBuffer, error) {
	switch nf := f.(type) {
	case *frame.NativeFrame[uint8]:
		return &nativeBuffer[uint8]{f: nf}, nil
	case *frame.NativeFrame[uint16]:
		return &nativeBuffer[uint16]{f: nf}, nil
	case *frame.NativeFrame[uint32]:
		return &nativeBuffer[uint32]{f: nf}, nil
	case *frame.NativeFrame[int8]:
		return &nativeBuffer[int8]{f: nf}, nil
	case *frame.NativeFrame[int16]:
		return &nativeBuffer[int16]{f: nf}, nil
	case *frame.NativeFrame[int32]:
		return &nativeBuffer[int32]{f: nf}, nil
	default:
		return nil, fmt.Errorf("%w: native frame type %T", ErrUnsupportedPixelData, f)
	}
}

// NewBuffer builds a buffer from row-major samples. It is mainly useful for
// constructing datasets in memory.
func NewBuffer[I constraints.Integer](bitsPerSample, rows, cols, samplesPerPixel int, data []I) (models.PixelBuffer, error) {
	if len(data) != rows*cols*samplesPerPixel {
		return nil, fmt.Errorf("expected %d samples for %dx%dx%d, got %d",
			rows*cols*samplesPerPixel, rows, cols, samplesPerPixel, len(data))
	}
	f := newFrame[I](bitsPerSample, rows, cols, samplesPerPixel)
	copy(f.RawData, data)
	return &nativeBuffer[I]{f: f}, nil
}

func (b *nativeBuffer[I]) native() frame.INativeFrame {
	return b.f
}

func (b *nativeBuffer[I]) Shape() models.Shape {
	return models.Shape{b.f.Rows(), b.f.Cols()}
}

func (b *nativeBuffer[I]) SamplesPerPixel() int {
	if spp := b.f.SamplesPerPixel(); spp > 0 {
		return spp
	}
	return 1
}

func (b *nativeBuffer[I]) Sample(row, col, s int) int {
	spp := b.SamplesPerPixel()
	return int(b.f.RawData[(row*b.f.Cols()+col)*spp+s])
}

// Crop copies the rows [start[0], start[0]+size[0]) and columns
// [start[1], start[1]+size[1]) into a new frame with the same sample type.
func (b *nativeBuffer[I]) Crop(start, size models.Shape) (models.PixelBuffer, error) {
	shape := b.Shape()
	for axis := 0; axis < 2; axis++ {
		if start[axis] < 0 || size[axis] < 0 || start[axis]+size[axis] > shape[axis] {
			return nil, fmt.Errorf("crop [%d,%d)+[%d,%d) outside %dx%d buffer",
				start[0], start[1], size[0], size[1], shape[0], shape[1])
		}
	}

	spp := b.SamplesPerPixel()
	out := newFrame[I](b.f.BitsPerSample(), size[0], size[1], spp)
	rowLen := size[1] * spp
	for r := 0; r < size[0]; r++ {
		src := ((start[0]+r)*shape[1] + start[1]) * spp
		copy(out.RawData[r*rowLen:(r+1)*rowLen], b.f.RawData[src:src+rowLen])
	}
	return &nativeBuffer[I]{f: out}, nil
}

func newFrame[I constraints.Integer](bitsPerSample, rows, cols, samplesPerPixel int) *frame.NativeFrame[I] {
	f := frame.NewNativeFrame[I](bitsPerSample, rows, cols, rows*cols, samplesPerPixel)
	if n := rows * cols * samplesPerPixel; len(f.RawData) != n {
		f.RawData = make([]I, n)
	}
	return f
}
