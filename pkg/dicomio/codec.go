package dicomio

import (
	"fmt"
	"os"

	"github.com/suyashkumar/dicom"
)

// Codec loads and saves DICOM files on the local filesystem
type Codec struct{}

// LoadHeader parses path without reading pixel data
func (Codec) LoadHeader(path string) (*Dataset, error) {
	return parseFile(path, dicom.SkipPixelData())
}

// Load parses path including pixel data
func (Codec) Load(path string) (*Dataset, error) {
	return parseFile(path)
}

// Save writes ds to path, replacing any existing file
func (Codec) Save(ds *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dicom.Write(f, ds.raw, dicom.SkipVRVerification()); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Close()
}

// parseFile separates filesystem errors, which are returned as-is, from
// content errors, which are reported as ErrInvalidFile.
func parseFile(path string, opts ...dicom.ParseOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFile, path)
	}

	raw, err := dicom.Parse(f, info.Size(), nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFile, path, err)
	}
	return &Dataset{raw: raw}, nil
}
