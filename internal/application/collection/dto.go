package collection

import (
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
)

// MissingKeys lists location and item codes with no catalog entry
type MissingKeys struct {
	Materials []string `json:"missing_materials,omitempty"`
	Centros   []string `json:"missing_centros,omitempty"`
}

// Empty reports whether nothing is missing
func (m MissingKeys) Empty() bool {
	return len(m.Materials) == 0 && len(m.Centros) == 0
}

// MutationResult is returned by create and update
type MutationResult struct {
	Record shared.Record `json:"record"`
	MissingKeys
}

// ImportResult summarizes an import
type ImportResult struct {
	Added      int                    `json:"added"`
	Skipped    int                    `json:"skipped"`
	TotalAfter int                    `json:"total_after"`
	Errors     []spreadsheet.RowError `json:"errors,omitempty"`
	ErrorCount int                    `json:"error_count"`
	Truncated  bool                   `json:"errors_truncated,omitempty"`
	MissingKeys
}

// PendingResult lists the keys absent from the catalogs. Both lists are
// always present.
type PendingResult struct {
	Materials []string `json:"missing_materials"`
	Centros   []string `json:"missing_centros"`
}

// DeleteFilteredResult is returned by DeleteFiltered
type DeleteFilteredResult struct {
	Deleted   int `json:"deleted"`
	Remaining int `json:"remaining"`
}
