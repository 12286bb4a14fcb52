// Package apperr is the single error-code/metadata/stack-trace design used
// across the service. The three call-failing categories a scheduler or the engine may
// legitimately return (ErrCodeInputValidation, ErrCodeDataInsufficiency,
// ErrCodeInternalInvariant) map 1:1 onto the taxonomy; everything else
// (candidate starvation, phenology misses, rejected instructions, deadline
// expiry) is reported through a result payload instead and never becomes
// one of these.
package apperr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Error codes for the three call-failing categories.
const (
	ErrCodeInputValidation   = "INPUT_VALIDATION"
	ErrCodeDataInsufficiency = "DATA_INSUFFICIENCY"
	ErrCodeInternalInvariant = "INTERNAL_INVARIANT_VIOLATION"
)

// Error codes for ambient (config/storage/transport) failures.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternalServer    = "INTERNAL_SERVER_ERROR"
	ErrCodeDatabaseOperation = "DATABASE_ERROR"
	ErrCodeRateLimited       = "RATE_LIMIT_EXCEEDED"
)

var validCodes = map[string]bool{
	ErrCodeInputValidation:   true,
	ErrCodeDataInsufficiency: true,
	ErrCodeInternalInvariant: true,
	ErrCodeValidation:        true,
	ErrCodeNotFound:          true,
	ErrCodeUnauthorized:      true,
	ErrCodeInternalServer:    true,
	ErrCodeDatabaseOperation: true,
	ErrCodeRateLimited:       true,
}

// appError carries a code, the wrapped error, optional metadata, and a
// short capture-site stack trace.
type appError struct {
	code       string
	err        error
	metadata   map[string]interface{}
	stackTrace []string
}

func (e *appError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %v", e.code, e.err)
	if len(e.metadata) > 0 {
		fmt.Fprintf(&b, " metadata=%+v", e.metadata)
	}
	return b.String()
}

func (e *appError) Unwrap() error {
	return e.err
}

func captureStack(skip int) []string {
	var trace []string
	for i := skip; i < skip+5; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		trace = append(trace, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
	}
	return trace
}

// New creates an error tagged with code. Unknown codes collapse to
// ErrCodeInternalServer rather than failing New itself.
func New(code, message string) error {
	if !validCodes[code] {
		code = ErrCodeInternalServer
	}
	return &appError{code: code, err: errors.New(message), stackTrace: captureStack(2)}
}

// NewWithMetadata is New plus caller-supplied structured context, kept for
// sites that want to attach request/field identifiers to the error.
func NewWithMetadata(code, message string, metadata map[string]interface{}) error {
	e := New(code, message).(*appError)
	e.metadata = metadata
	return e
}

// Wrap adds context to err while preserving its code, metadata, and stack.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *appError
	code := ErrCodeInternalServer
	var metadata map[string]interface{}
	var stack []string
	if errors.As(err, &ae) {
		code = ae.code
		metadata = ae.metadata
		stack = ae.stackTrace
	}
	return &appError{
		code:       code,
		err:        fmt.Errorf("%s: %w", message, err),
		metadata:   metadata,
		stackTrace: stack,
	}
}

// Code extracts the error code from err, falling back to
// ErrCodeInternalServer for plain errors never tagged through this package.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var ae *appError
	if errors.As(err, &ae) {
		return ae.code
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "[") {
		if idx := strings.Index(msg, "]"); idx > 0 {
			return msg[1:idx]
		}
	}
	return ErrCodeInternalServer
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}
