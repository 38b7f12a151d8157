package split

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Report summarises one directory split
type Report struct {
	// Source is the split directory
	Source string `json:"source"`

	// Plan is a one-line description of the applied plan
	Plan string `json:"plan"`

	// Destinations are the output directories in index order
	Destinations []string `json:"destinations"`

	// Files are the source files written to every destination
	Files []string `json:"files"`

	// Warnings are the validator warnings
	Warnings []Warning `json:"warnings,omitempty"`

	// Failed lists files that could not be split when running with
	// ContinueOnError
	Failed []FileError `json:"failed,omitempty"`
}

// FileError is a per-file failure recorded in a Report
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Destinations returns the output directory for each index: the source
// directory name, without trailing separators, suffixed with ".{i+1}".
func Destinations(dir string, count int) []string {
	base := strings.TrimRight(dir, "/"+string(os.PathSeparator))
	if base == "" {
		base = dir
	}
	dests := make([]string, count)
	for i := range dests {
		dests[i] = base + "." + strconv.Itoa(i+1)
	}
	return dests
}

// CreateDestinations creates every destination directory. Directories that
// already exist are accepted, so repeated runs reuse the same outputs.
// Creation order is not significant; every directory has been attempted
// when it returns, and file processing only starts afterwards.
func CreateDestinations(dests []string) error {
	var g errgroup.Group
	for _, dest := range dests {
		g.Go(func() error {
			err := os.Mkdir(dest, 0755)
			if err == nil {
				return nil
			}
			if !errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("error creating output directory: %w", err)
			}
			info, statErr := os.Stat(dest)
			if statErr != nil {
				return statErr
			}
			if !info.IsDir() {
				return fmt.Errorf("output path %s exists and is not a directory", dest)
			}
			return nil
		})
	}
	return g.Wait()
}

// Directory splits every valid DICOM file of dir. The destinations are
// created before any file is read, then files are processed one at a time
// in directory order.
func (s *Splitter) Directory(dir string) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	dests := Destinations(dir, s.plan.Count)
	if err := CreateDestinations(dests); err != nil {
		return nil, err
	}

	report := &Report{
		Source:       dir,
		Plan:         s.plan.String(),
		Destinations: dests,
	}

	scanner := NewScanner(dir, s.codec, s.logger)
	var failures []error
	for path, err := range scanner.All() {
		if err != nil {
			report.Warnings = scanner.Warnings()
			return report, err
		}

		if err := s.File(path, dests); err != nil {
			if !s.continueOnError {
				report.Warnings = scanner.Warnings()
				return report, err
			}
			s.logger.Printf("Warning: %v", err)
			report.Failed = append(report.Failed, FileError{Path: path, Error: err.Error()})
			failures = append(failures, err)
			continue
		}

		report.Files = append(report.Files, path)
		if s.verbose {
			s.logger.Printf("Split %s into %d volumes", filepath.Base(path), s.plan.Count)
		}
	}

	report.Warnings = scanner.Warnings()
	return report, errors.Join(failures...)
}
