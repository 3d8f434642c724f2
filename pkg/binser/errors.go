package binser

import (
	"errors"
	"fmt"
)

// Sentinel error kinds raised by the core. Callers match them with errors.Is.
var (
	// ErrInvalidPointer is raised when a non-zero serialized pointer value
	// cannot be resolved to any registered file.
	ErrInvalidPointer = errors.New("invalid pointer")

	// ErrPointer covers pointer arithmetic and anchor misuse.
	ErrPointer = errors.New("pointer error")

	// ErrDuplicateFile is raised when a file is registered under a key that
	// is already taken.
	ErrDuplicateFile = errors.New("duplicate file")

	// ErrUnknownFile is raised when a path or alias does not resolve to a
	// registered file.
	ErrUnknownFile = errors.New("unknown file")

	// ErrDisposed is raised by any operation after the context or file has
	// been closed.
	ErrDisposed = errors.New("context disposed")

	// ErrEndOfInput is raised on short reads past the end of a stream.
	ErrEndOfInput = errors.New("end of input")

	// ErrEncoding is raised on text encode/decode failure.
	ErrEncoding = errors.New("text encoding error")

	// ErrNotSupportedType is raised when a value outside the primitive set
	// reaches the serializer.
	ErrNotSupportedType = errors.New("type not supported by serializer")
)

// InvalidPointerError carries the unresolvable raw value and the site at
// which it was read.
type InvalidPointerError struct {
	Value uint64
	Site  Pointer
}

func (e *InvalidPointerError) Error() string {
	return fmt.Sprintf("invalid pointer value 0x%X at %s", e.Value, e.Site)
}

func (e *InvalidPointerError) Unwrap() error { return ErrInvalidPointer }

// newErrf wraps kind with a formatted message. A nil kind produces a plain
// formatted error.
func newErrf(kind error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if kind == nil {
		return errors.New(msg)
	}
	return fmt.Errorf("%w: %s", kind, msg)
}
