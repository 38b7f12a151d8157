package split

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"os"
	"path/filepath"

	"github.com/TBXark/optional-go"

	"dicomsplit/internal/models"
	"dicomsplit/pkg/dicomio"
)

// WarningKind classifies a validator warning
type WarningKind string

const (
	WarningInvalidFile       WarningKind = "invalid-file"
	WarningDimensionMismatch WarningKind = "dimension-mismatch"
)

// Warning is a non-fatal problem found while scanning a directory
type Warning struct {
	Path string      `json:"path"`
	Kind WarningKind `json:"kind"`
}

// String renders the warning the way it is logged
func (w Warning) String() string {
	switch w.Kind {
	case WarningInvalidFile:
		return fmt.Sprintf("WARNING: %s is not a valid DICOM file", filepath.Base(w.Path))
	case WarningDimensionMismatch:
		return fmt.Sprintf("WARNING: %s has different dimensions", filepath.Base(w.Path))
	default:
		return fmt.Sprintf("WARNING: %s: %s", filepath.Base(w.Path), w.Kind)
	}
}

// HeaderLoader reads a file without its pixel data
type HeaderLoader interface {
	LoadHeader(path string) (*dicomio.Dataset, error)
}

// Scanner yields the loadable DICOM files of one directory. It reads every
// header as it goes, warning about unreadable files (which are skipped) and
// about files whose dimensions differ from the first file read (which are
// still yielded). A Scanner is single-pass: once iteration has consumed an
// entry it is never yielded again.
type Scanner struct {
	dir    string
	loader HeaderLoader
	logger *log.Logger

	started  bool
	entries  []os.DirEntry
	next     int
	expected optional.Field[models.Shape]
	warnings []Warning
}

// NewScanner creates a scanner over dir. A nil logger uses log.Default().
func NewScanner(dir string, loader HeaderLoader, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{
		dir:    dir,
		loader: loader,
		logger: logger,
	}
}

// All yields valid file paths in directory order. A non-nil error ends the
// sequence; it is only produced for failures other than an invalid file,
// such as an unreadable directory.
func (s *Scanner) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !s.started {
			s.started = true
			entries, err := os.ReadDir(s.dir)
			if err != nil {
				yield("", fmt.Errorf("error reading directory %s: %w", s.dir, err))
				return
			}
			s.entries = entries
		}

		for s.next < len(s.entries) {
			entry := s.entries[s.next]
			s.next++

			path := filepath.Join(s.dir, entry.Name())
			if entry.IsDir() {
				s.warn(path, WarningInvalidFile)
				continue
			}

			ds, err := s.loader.LoadHeader(path)
			if errors.Is(err, dicomio.ErrInvalidFile) {
				s.warn(path, WarningInvalidFile)
				continue
			}
			if err != nil {
				yield("", fmt.Errorf("error reading %s: %w", path, err))
				return
			}

			s.checkDimensions(path, ds)
			if !yield(path, nil) {
				return
			}
		}
	}
}

// Warnings returns the warnings emitted so far
func (s *Scanner) Warnings() []Warning {
	return s.warnings
}

// checkDimensions records the first (Rows, Columns) seen and warns when a
// later file differs. Files without dimensions are not compared.
func (s *Scanner) checkDimensions(path string, ds *dicomio.Dataset) {
	dims := ds.Dimensions()
	if !dims.Present() {
		return
	}
	shape := dims.OrElse(models.Shape{})

	if !s.expected.Present() {
		s.expected = optional.NewField(shape)
		return
	}
	if shape != s.expected.OrElse(models.Shape{}) {
		s.warn(path, WarningDimensionMismatch)
	}
}

func (s *Scanner) warn(path string, kind WarningKind) {
	w := Warning{Path: path, Kind: kind}
	s.warnings = append(s.warnings, w)
	s.logger.Println(w.String())
}
