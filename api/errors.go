// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy shared by every layer of hioload-bridge.

package api

import (
	"fmt"
	"strings"
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeOutOfBounds
	ErrCodeAllocationFailed
	ErrCodeExtractionFailed
	ErrCodeSerializationFailed
	ErrCodeBufferBusy
	ErrCodeReleased
	ErrCodeNotFound
	ErrCodeUnsupportedFormat
	ErrCodeParsing
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeOutOfBounds:
		return "out_of_bounds"
	case ErrCodeAllocationFailed:
		return "allocation_failed"
	case ErrCodeExtractionFailed:
		return "extraction_failed"
	case ErrCodeSerializationFailed:
		return "serialization_failed"
	case ErrCodeBufferBusy:
		return "buffer_busy"
	case ErrCodeReleased:
		return "released"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeUnsupportedFormat:
		return "unsupported_format"
	case ErrCodeParsing:
		return "parsing"
	default:
		return "internal"
	}
}

const errorPrefix = "bridge: "

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrInvalidArgument     = &Error{Code: ErrCodeInvalidArgument, Message: "invalid argument", Index: -1}
	ErrOutOfBounds         = &Error{Code: ErrCodeOutOfBounds, Message: "out of bounds", Index: -1}
	ErrAllocationFailed    = &Error{Code: ErrCodeAllocationFailed, Message: "allocation failed", Index: -1}
	ErrExtractionFailed    = &Error{Code: ErrCodeExtractionFailed, Message: "extraction failed", Index: -1}
	ErrSerializationFailed = &Error{Code: ErrCodeSerializationFailed, Message: "serialization failed", Index: -1}
	ErrBufferBusy          = &Error{Code: ErrCodeBufferBusy, Message: "buffer busy", Index: -1}
	ErrReleased            = &Error{Code: ErrCodeReleased, Message: "released", Index: -1}
	ErrNotFound            = &Error{Code: ErrCodeNotFound, Message: "not found", Index: -1}
	ErrUnsupportedFormat   = &Error{Code: ErrCodeUnsupportedFormat, Message: "unsupported format", Index: -1}
	ErrParsing             = &Error{Code: ErrCodeParsing, Message: "parsing error", Index: -1}
)

// Error represents a structured error with code and context.
// Index and MimeType identify the failing item of a batch; Index is -1
// when the error is not tied to a batch item.
type Error struct {
	Code     ErrorCode
	Message  string
	Context  map[string]any
	Index    int
	MimeType string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := formatErrorMessage(e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimPrefix(e.Cause.Error(), errorPrefix))
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Index:   -1,
	}
}

// Errorf creates a structured error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Wrap creates a structured error around cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	e := NewError(code, message)
	e.Cause = cause
	return e
}

// NewItemError reports the failure of one batch item. The message carries
// both the index and the MIME type so a failing batch is debuggable from the
// error text alone.
func NewItemError(index int, mimeType string, cause error) *Error {
	e := Wrap(ErrCodeExtractionFailed, fmt.Sprintf("extraction failed for item %d (%s)", index, mimeType), cause)
	e.Index = index
	e.MimeType = mimeType
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf returns the code of the outermost *Error in err's chain.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if err == nil {
		return ErrCodeOK
	}
	return ErrCodeInternal
}

func formatErrorMessage(message string) string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		trimmed = "unknown error"
	}
	if strings.HasPrefix(trimmed, errorPrefix) {
		return trimmed
	}
	return errorPrefix + trimmed
}
