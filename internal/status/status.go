// Package status defines the error taxonomy shared by every docscan package.
//
// Failures are reported as wrapped sentinel errors so callers can branch with
// errors.Is, and CodeOf maps any error back to a stable Code for CLI exit
// codes, metrics labels and log records.
package status

import (
	"context"
	"errors"
)

var (
	// ErrFail is a generic failure reported by a back-end.
	ErrFail = errors.New("recognition failed")
	// ErrAllocationFailure means a pixel or working buffer could not be obtained.
	ErrAllocationFailure = errors.New("allocation failure")
	// ErrUnknownKey means a license key does not belong to the configured licensee,
	// or a keyed field lookup named a field that does not exist.
	ErrUnknownKey = errors.New("unknown key")
	// ErrInvalidArgument covers malformed geometry, bad parameters and nil inputs.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidLicenseKey means the license key is missing, malformed, forged or expired.
	ErrInvalidLicenseKey = errors.New("invalid license key")
	// ErrIndexOutOfRange is returned by indexed result access.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidState means an operation is not permitted in the recognizer's current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrCancelled means a recognition pass observed a cancellation request.
	ErrCancelled = errors.New("recognition cancelled")
	// ErrResourceNotFound means a resource-backed format could not load its resources.
	ErrResourceNotFound = errors.New("resource not found")
)

// Code is a stable numeric classification of an error.
type Code int

const (
	Success Code = iota
	Fail
	AllocationFailure
	UnknownKey
	InvalidArgument
	InvalidLicenseKey
	IndexOutOfRange
	InvalidState
	Cancelled
	ResourceNotFound
)

var codeNames = map[Code]string{
	Success:           "success",
	Fail:              "fail",
	AllocationFailure: "allocation_failure",
	UnknownKey:        "unknown_key",
	InvalidArgument:   "invalid_argument",
	InvalidLicenseKey: "invalid_license_key",
	IndexOutOfRange:   "index_out_of_range",
	InvalidState:      "invalid_state",
	Cancelled:         "cancelled",
	ResourceNotFound:  "resource_not_found",
}

// String returns the snake_case name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

var sentinels = []struct {
	err  error
	code Code
}{
	{ErrCancelled, Cancelled},
	{ErrInvalidState, InvalidState},
	{ErrInvalidArgument, InvalidArgument},
	{ErrAllocationFailure, AllocationFailure},
	{ErrInvalidLicenseKey, InvalidLicenseKey},
	{ErrUnknownKey, UnknownKey},
	{ErrIndexOutOfRange, IndexOutOfRange},
	{ErrResourceNotFound, ResourceNotFound},
	{ErrFail, Fail},
}

// CodeOf classifies err. A nil error is Success; context cancellation and
// deadline errors are reported as Cancelled; anything unrecognised is Fail.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cancelled
	}
	return Fail
}

// ExitCode maps an error to a process exit status for the CLI.
func ExitCode(err error) int {
	return int(CodeOf(err))
}
