package extract

import (
	"errors"
	"fmt"
)

// Kind classifies an extraction failure.
type Kind string

const (
	KindUnsupportedFormat    Kind = "unsupported_format"
	KindEncodingUndetectable Kind = "encoding_undetectable"
	KindDecode               Kind = "decode_error"
	KindIO                   Kind = "io_error"
	KindContainerParse       Kind = "container_parse_error"
	KindConverter            Kind = "converter_failure"
	KindInternal             Kind = "internal_error"
)

// Error is the error returned by every stage of the extraction pipeline.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract %s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Path == "" || t.Path == e.Path)
}

// Message returns the cause without the path/kind prefix.
func (e *Error) Message() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
// A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ExitError reports a converter process that ran but exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("converter exited with status %d", e.Code)
	}
	return fmt.Sprintf("converter exited with status %d: %s", e.Code, e.Stderr)
}
