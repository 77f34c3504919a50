package spreadsheet

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	ErrCodeRequiredField = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeDuplicate     = "ERR_IMPORT_DUPLICATE"
	ErrCodeInvalidValue  = "ERR_IMPORT_INVALID_VALUE"
)

var (
	// ErrEmptyFile is returned when an upload has no content
	ErrEmptyFile = errors.New("file is empty")

	// ErrMissingHeader is returned when a sheet has no header row
	ErrMissingHeader = errors.New("file missing header row")

	// ErrUnsupportedFormat is returned for uploads that are neither xlsx, csv nor json
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// RowError reports a problem with one input row. Row is 1-based and counts
// the header as row 1.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection keeps the first maxErrors row errors and counts the rest.
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates an ErrorCollection; maxErrors <= 0 means 100
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add records err
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequiredError records a missing required field
func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(RowError{
		Row:     row,
		Column:  column,
		Code:    ErrCodeRequiredField,
		Message: fmt.Sprintf("field '%s' is required", column),
	})
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount counts every error added, kept or not
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// IsTruncated reports whether errors were dropped
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}
