package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// AnnotatedError includes more context than a plain error that is useful for troubleshooting.
type AnnotatedError struct {
	// msg is the error message.
	msg string
	// pc is the program counter for the location of the error provided by runtime.Callers.
	pc uintptr
	// attrs are slog attributes that are added to the log event to provide more context for the error.
	attrs []slog.Attr
}

// New creates a new AnnotatedError with the given message and attributes.
func New(msg string, attrs ...slog.Attr) AnnotatedError {
	// Skip runtime.Callers, callerPC, newAnnotated and this function.
	return newAnnotated(4, msg, attrs) //nolint:mnd // see callerPC
}

func newAnnotated(skip int, msg string, attrs []slog.Attr) AnnotatedError {
	return AnnotatedError{
		msg:   msg,
		pc:    callerPC(skip),
		attrs: attrs,
	}
}

// callerPC returns the program counter skip frames up, counting runtime.Callers itself.
func callerPC(skip int) uintptr {
	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])
	return pcs[0]
}

// NewSentinel creates a plain error without other context that can be used as sentinel error that can be detected
// with errors.Is.
func NewSentinel(msg string) error {
	return errors.New(msg)
}

// Wrap annotates err with a message and attributes describing where and why it was passed on.
//
// The returned error matches err with [Is] and [As]. Wrapping a nil error returns nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return newAnnotated(4, msg, attrs).Wrap(err) //nolint:mnd // see callerPC
}

// Wrap is a convenience function for wrapping errors, e.g., adding context to a sentinel error.
func (err AnnotatedError) Wrap(inner error) error {
	return fmt.Errorf("%w: %w", err, inner)
}

// Error implements error interface.
func (err AnnotatedError) Error() string {
	return err.msg
}

// LogValue formats the error for useful logging.
func (err AnnotatedError) LogValue() slog.Value {
	// Retrieve the source location of the error so that developers can locate it faster.
	frames := runtime.CallersFrames([]uintptr{err.pc})
	source, _ := frames.Next()
	sourceAttr := slog.String("source", fmt.Sprintf("%s:%d", source.File, source.Line))

	attrs := append(
		[]slog.Attr{sourceAttr},
		err.attrs...,
	)

	return slog.GroupValue(attrs...)
}

// SlogError returns an "error" attribute with the full error message and the annotations of every
// [AnnotatedError] found in the error tree, outermost first.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	attrs := []slog.Attr{slog.String("message", err.Error())}
	var annotations []any
	walk(err, func(e error) {
		if annotated, ok := e.(AnnotatedError); ok { //nolint:errorlint // the tree is walked explicitly.
			annotations = append(annotations, annotated.LogValue())
		}
	})
	for i, annotation := range annotations {
		attrs = append(attrs, slog.Any(fmt.Sprintf("trace_%d", i), annotation))
	}
	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

func walk(err error, visit func(error)) {
	if err == nil {
		return
	}
	visit(err)
	switch e := err.(type) { //nolint:errorlint // the tree is walked explicitly.
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			walk(inner, visit)
		}
	case interface{ Unwrap() error }:
		walk(e.Unwrap(), visit)
	}
}

// As exposes stdlib errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is exposes stdlib errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap exposes stdlib errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join exposes stdlib errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
