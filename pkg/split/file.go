package split

import (
	"fmt"
	"log"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"dicomsplit/internal/models"
	"dicomsplit/pkg/dicomio"
	"dicomsplit/pkg/geometry"
	"dicomsplit/pkg/preview"
)

// Codec loads and saves datasets. dicomio.Codec is the filesystem
// implementation.
type Codec interface {
	LoadHeader(path string) (*dicomio.Dataset, error)
	Load(path string) (*dicomio.Dataset, error)
	Save(ds *dicomio.Dataset, path string) error
}

// Options configures a Splitter
type Options struct {
	// Codec defaults to dicomio.Codec
	Codec Codec

	// Logger receives warnings and progress; defaults to log.Default()
	Logger *log.Logger

	// Verbose logs one line per split file
	Verbose bool

	// ContinueOnError keeps processing the remaining files after a file
	// fails to load or write. By default the run stops at the first failure.
	ContinueOnError bool

	// Preview, when set, receives a rendering of every piece
	Preview *preview.Writer
}

// Splitter applies one Plan to files and directories
type Splitter struct {
	plan            Plan
	codec           Codec
	logger          *log.Logger
	verbose         bool
	continueOnError bool
	preview         *preview.Writer
}

// NewSplitter validates plan and returns a Splitter for it
func NewSplitter(plan Plan, opts Options) (*Splitter, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if opts.Codec == nil {
		opts.Codec = dicomio.Codec{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Splitter{
		plan:            plan,
		codec:           opts.Codec,
		logger:          opts.Logger,
		verbose:         opts.Verbose,
		continueOnError: opts.ContinueOnError,
		preview:         opts.Preview,
	}, nil
}

// Plan returns the plan the splitter applies
func (s *Splitter) Plan() Plan {
	return s.plan
}

// File splits one source file into destinations, writing
// destinations[i]/<basename> for every output index. The loaded dataset is
// mutated and written once per index in order. A failed write leaves the
// outputs of earlier indices in place.
func (s *Splitter) File(path string, destinations []string) error {
	if len(destinations) != s.plan.Count {
		return fmt.Errorf("%w: %d destinations for a %d-way split", ErrConfig, len(destinations), s.plan.Count)
	}

	ds, err := s.codec.Load(path)
	if err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}

	// Derived identifiers are built from the originals on every iteration
	original := ds.Identifiers()
	if s.plan.Pairs == nil && (original.SOPInstanceUID == "" || original.SeriesInstanceUID == "") {
		return fmt.Errorf("%w: %s", ErrMissingIdentifier, path)
	}

	var affine mat.Matrix
	if s.plan.RecomputeOrigin {
		geom := ds.Geometry()
		if geom.Present() {
			affine = geometry.Affine(geom.OrElse(models.Geometry{}))
		} else if s.verbose {
			s.logger.Printf("%s has no image geometry, origin left unchanged", filepath.Base(path))
		}
	}

	field, err := ds.PixelBuffer()
	if err != nil {
		return fmt.Errorf("error reading pixel data of %s: %w", path, err)
	}
	var (
		pixels models.PixelBuffer
		size   models.Shape
	)
	if field.Present() {
		pixels = field.OrElse(nil)
		size = PieceSize(pixels.Shape(), s.plan.Axis, s.plan.Count)
	} else if s.verbose {
		s.logger.Printf("%s has no pixel data, copying with new identifiers", filepath.Base(path))
	}

	name := filepath.Base(path)
	for i, dest := range destinations {
		if err := ds.SetIdentifiers(s.plan.Identifiers(i, original)); err != nil {
			return fmt.Errorf("error setting identifiers of %s: %w", path, err)
		}

		if pixels != nil {
			if err := s.splitPixels(ds, pixels, size, i, affine, name); err != nil {
				return fmt.Errorf("error splitting %s (piece %d): %w", path, i+1, err)
			}
		}

		out := filepath.Join(dest, name)
		if err := s.codec.Save(ds, out); err != nil {
			return fmt.Errorf("error writing %s: %w", out, err)
		}
	}
	return nil
}

// splitPixels crops piece i into ds and moves its origin when an affine is
// available
func (s *Splitter) splitPixels(ds *dicomio.Dataset, pixels models.PixelBuffer, size models.Shape, i int, affine mat.Matrix, name string) error {
	piece, start, err := SplitBuffer(pixels, s.plan.Axis, size, i)
	if err != nil {
		return err
	}
	if err := ds.SetPixelBuffer(piece); err != nil {
		return err
	}
	if err := Reposition(ds, start, affine); err != nil {
		return err
	}

	if s.preview != nil {
		if err := s.preview.Save(piece, i, name); err != nil {
			s.logger.Printf("Warning: failed to save preview of %s (piece %d): %v", name, i+1, err)
		}
	}
	return nil
}
