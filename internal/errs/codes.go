// Package errs defines the error kinds shared across the dashboard and their
// stable API codes.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput marks a rejected argument: too few points, a bad horizon,
	// an inverted year range and similar.
	ErrInvalidInput = errors.New("invalid input")
	// ErrZeroBase is the divide-by-zero case of the growth calculators.
	ErrZeroBase = fmt.Errorf("%w: cannot divide by zero: growth undefined from a zero base", ErrInvalidInput)
	ErrNotFound = errors.New("not found")
	// ErrUpstream wraps any failure of the optional external rate source.
	ErrUpstream = errors.New("upstream data source failure")
	ErrExport   = errors.New("export failure")
)

// Code is a stable error code returned by the API.
type Code string

const (
	InputInvalid    Code = "INPUT_001"
	InputZeroBase   Code = "INPUT_002"
	NotFound        Code = "NOTFOUND_001"
	UpstreamFailed  Code = "UPSTREAM_001"
	ExportFailed    Code = "EXPORT_001"
	SystemInternal  Code = "SYSTEM_001"
	SystemRateLimit Code = "SYSTEM_002"
)

var messages = map[Code]string{
	InputInvalid:    "Invalid input",
	InputZeroBase:   "Cannot calculate percentage growth: the starting value is zero",
	NotFound:        "Resource not found",
	UpstreamFailed:  "Upstream data source unavailable",
	ExportFailed:    "Spreadsheet export failed",
	SystemInternal:  "An unexpected error occurred",
	SystemRateLimit: "Rate limit exceeded. Please try again later",
}

var statuses = map[Code]int{
	InputInvalid:    http.StatusBadRequest,
	InputZeroBase:   http.StatusBadRequest,
	NotFound:        http.StatusNotFound,
	UpstreamFailed:  http.StatusBadGateway,
	ExportFailed:    http.StatusInternalServerError,
	SystemInternal:  http.StatusInternalServerError,
	SystemRateLimit: http.StatusTooManyRequests,
}

// Message returns the default message for a code.
func Message(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// Status returns the HTTP status for a code.
func Status(code Code) int {
	if status, ok := statuses[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeOf classifies err. The zero-base kind is checked before the broader
// invalid-input kind it wraps.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrZeroBase):
		return InputZeroBase
	case errors.Is(err, ErrInvalidInput):
		return InputInvalid
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrUpstream):
		return UpstreamFailed
	case errors.Is(err, ErrExport):
		return ExportFailed
	}
	return SystemInternal
}

// Invalid builds an invalid-input error with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
