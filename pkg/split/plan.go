// Package split partitions a directory of single-slice DICOM files into N
// sibling directories, each holding one rows- or columns-wise piece of every
// slice.
package split

import (
	"errors"
	"fmt"
	"strings"

	"dicomsplit/internal/models"
)

var (
	// ErrConfig reports a split configuration that cannot be resolved
	ErrConfig = errors.New("invalid split configuration")

	// ErrMissingIdentifier reports a source file without a SOP or series
	// instance UID to derive output identifiers from
	ErrMissingIdentifier = errors.New("missing SOP or series instance UID")
)

// Plan is the resolved configuration for one directory-wide split
type Plan struct {
	// Axis is the in-plane dimension that is partitioned
	Axis models.Axis

	// Count is the number of output volumes
	Count int

	// Pairs, when non-nil, assigns explicit identifiers per output index
	// and Count equals len(Pairs). When nil, identifiers are derived from
	// the source identifiers.
	Pairs []models.IdentifierPair

	// RecomputeOrigin moves Image Position (Patient) to the first pixel of
	// each piece
	RecomputeOrigin bool
}

// NewPlan resolves and validates a plan. When pairs are given and count is
// zero, the count is taken from the number of pairs.
func NewPlan(axis models.Axis, count int, pairs []models.IdentifierPair, recomputeOrigin bool) (Plan, error) {
	p := Plan{
		Axis:            axis,
		Count:           count,
		RecomputeOrigin: recomputeOrigin,
	}
	if len(pairs) > 0 {
		p.Pairs = pairs
		if p.Count == 0 {
			p.Count = len(pairs)
		}
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Validate checks the plan invariants
func (p Plan) Validate() error {
	if !p.Axis.Valid() {
		return fmt.Errorf("%w: unknown axis %d", ErrConfig, int(p.Axis))
	}
	if p.Pairs != nil {
		if len(p.Pairs) == 0 {
			return fmt.Errorf("%w: empty identifier pair list", ErrConfig)
		}
		if p.Count != len(p.Pairs) {
			return fmt.Errorf("%w: count %d does not match %d identifier pairs", ErrConfig, p.Count, len(p.Pairs))
		}
		return nil
	}
	if p.Count <= 0 {
		return fmt.Errorf("%w: split count must be positive, got %d", ErrConfig, p.Count)
	}
	return nil
}

// ParseAxis accepts "rows"/"row"/"0" and "columns"/"column"/"cols"/"1"
func ParseAxis(s string) (models.Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "row", "rows":
		return models.Rows, nil
	case "1", "col", "cols", "column", "columns":
		return models.Columns, nil
	default:
		return 0, fmt.Errorf("%w: invalid axis %q (must be rows or columns)", ErrConfig, s)
	}
}

// ParsePairs parses "SOP_UID/Series_UID" arguments. Every malformed argument
// is named in the returned error.
func ParsePairs(args []string) ([]models.IdentifierPair, error) {
	if len(args) == 0 {
		return nil, nil
	}

	pairs := make([]models.IdentifierPair, 0, len(args))
	var bad []string
	for _, arg := range args {
		parts := strings.Split(arg, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			bad = append(bad, arg)
			continue
		}
		pairs = append(pairs, models.IdentifierPair{SOPInstanceUID: parts[0], SeriesInstanceUID: parts[1]})
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("%w: malformed SOP/series UID pairs: %s", ErrConfig, strings.Join(bad, ", "))
	}
	return pairs, nil
}

// String summarises the plan for log output
func (p Plan) String() string {
	ids := "derived"
	if p.Pairs != nil {
		ids = "explicit"
	}
	return fmt.Sprintf("axis=%s count=%d identifiers=%s origin=%t",
		p.Axis, p.Count, ids, p.RecomputeOrigin)
}
