// Package errors provides structured error types for famtree.
//
// Every failure a store, layout or storage operation can report carries a
// machine-readable [Code] so front-ends (CLI, HTTP, TUI) can decide how to
// surface it without string matching.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - STRUCTURAL_*: a mutation would break a graph invariant (self-parentage,
//     ancestry cycle, duplicate edge or spouse pair); never committed
//   - NOT_FOUND_*: an operation names an id absent from the store
//   - DUPLICATE_*: the record already exists
//   - INVALID_*: input or document validation failures
//   - LAYOUT_DEGRADED: non-fatal layout condition caused by cyclic imported data
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCycle, "%s is an ancestor of %s", child, parent)
//	if errors.IsStructural(err) {
//	    // report the rejection, the store is unchanged
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "save %s", location)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Structural violations, rejected by the validator
	ErrCodeSelfParent      Code = "STRUCTURAL_SELF_PARENT"
	ErrCodeCycle           Code = "STRUCTURAL_CYCLE"
	ErrCodeDuplicateEdge   Code = "STRUCTURAL_DUPLICATE_EDGE"
	ErrCodeDuplicateSpouse Code = "STRUCTURAL_DUPLICATE_SPOUSE"
	ErrCodeSelfSpouse      Code = "STRUCTURAL_SELF_SPOUSE"

	// Reference errors
	ErrCodePersonNotFound Code = "NOT_FOUND_PERSON"
	ErrCodeFamilyNotFound Code = "NOT_FOUND_FAMILY"
	ErrCodeEventNotFound  Code = "NOT_FOUND_EVENT"
	ErrCodeEdgeNotFound   Code = "NOT_FOUND_EDGE"
	ErrCodeLinkNotFound   Code = "NOT_FOUND_LINK"
	ErrCodeFileNotFound   Code = "NOT_FOUND_FILE"

	// Duplicates outside the structural graph
	ErrCodeDuplicateID     Code = "DUPLICATE_ID"
	ErrCodeDuplicateMember Code = "DUPLICATE_MEMBER"
	ErrCodeDuplicateLink   Code = "DUPLICATE_LINK"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Layout
	ErrCodeLayoutDegraded Code = "LAYOUT_DEGRADED"

	// Infrastructure
	ErrCodeStorage     Code = "STORAGE_ERROR"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

const (
	structuralPrefix = "STRUCTURAL_"
	notFoundPrefix   = "NOT_FOUND_"
	duplicatePrefix  = "DUPLICATE_"
	invalidPrefix    = "INVALID_"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsStructural reports whether err is a validator rejection.
func IsStructural(err error) bool { return hasPrefix(err, structuralPrefix) }

// IsReference reports whether err names an id that is not in the store.
func IsReference(err error) bool { return hasPrefix(err, notFoundPrefix) }

// IsDuplicate reports whether err rejects an already present record.
func IsDuplicate(err error) bool { return hasPrefix(err, duplicatePrefix) }

// IsInvalid reports whether err is an input or format validation failure.
func IsInvalid(err error) bool { return hasPrefix(err, invalidPrefix) }

func hasPrefix(err error, prefix string) bool {
	return strings.HasPrefix(string(GetCode(err)), prefix)
}
