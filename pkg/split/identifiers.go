package split

import (
	"strconv"

	"dicomsplit/internal/models"
)

// Identifiers returns the identifiers output index i receives. Explicit
// pairs are used verbatim; otherwise they are derived from original.
// Uniqueness of explicit pairs is left to the caller.
func (p Plan) Identifiers(i int, original models.IdentifierPair) models.IdentifierPair {
	if p.Pairs != nil {
		return p.Pairs[i]
	}
	return Derive(i, original)
}

// Derive suffixes both original identifiers with ".{i+1}". Splitting output
// that was already split this way can collide with other derived UIDs.
func Derive(i int, original models.IdentifierPair) models.IdentifierPair {
	suffix := "." + strconv.Itoa(i+1)
	return models.IdentifierPair{
		SOPInstanceUID:    original.SOPInstanceUID + suffix,
		SeriesInstanceUID: original.SeriesInstanceUID + suffix,
	}
}
