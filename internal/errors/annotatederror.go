// Package errors augments the standard library errors with slog annotations
// and source locations so failures carry enough context to log and recover.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
)

// AnnotatedError wraps an error with a message, optional [slog.Attr]
// annotations, and the source location where it was created.
type AnnotatedError struct {
	msg    string
	cause  error
	attrs  []slog.Attr
	source string
}

// New returns an error that formats as the given text. It delegates to the
// standard library and carries no annotations.
func New(text string) error {
	return stderrors.New(text)
}

// NewSentinel creates a root error suitable for use as a package-level
// sentinel. The source location of the caller is recorded.
func NewSentinel(msg string) error {
	return &AnnotatedError{msg: msg, source: callerSource()}
}

// Wrap annotates cause with a message and optional [slog.Attr]. The
// annotations surface in logs through [SlogError].
func Wrap(cause error, msg string, attrs ...slog.Attr) error {
	return &AnnotatedError{msg: msg, cause: cause, attrs: attrs, source: callerSource()}
}

// Error implements the error interface.
func (e *AnnotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

// Unwrap returns the wrapped error, or nil for sentinels.
func (e *AnnotatedError) Unwrap() error {
	return e.cause
}

// SlogError converts an error into a [slog.Attr] with the error message, the
// source location of the outermost annotated error, and all annotations
// gathered from the wrap chain grouped under "error.annotations".
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("<nil>")}
	}

	attrs := []slog.Attr{slog.String("message", err.Error())}

	var annotated *AnnotatedError
	if stderrors.As(err, &annotated) && annotated.source != "" {
		attrs = append(attrs, slog.String("source", annotated.source))
	}

	var annotations []slog.Attr
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if ae, ok := e.(*AnnotatedError); ok { //nolint:errorlint // walking the chain manually
			annotations = append(annotations, ae.attrs...)
		}
	}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Attr{Key: "annotations", Value: slog.GroupValue(annotations...)})
	}

	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

// callerSource resolves the file:line of the caller of NewSentinel or Wrap,
// skipping the frames of this package.
func callerSource() string {
	const skipFrames = 2 // callerSource and the constructor that called it
	_, file, line, ok := runtime.Caller(skipFrames)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// DecoratePanic converts a recovered panic value into an annotated error.
// Intended for deferred recover handlers at isolation boundaries.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	return &AnnotatedError{msg: fmt.Sprintf("panic: %v", recovered), source: callerSource()}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if any.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join wraps the given errors into a single error.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
