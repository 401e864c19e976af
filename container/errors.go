package container

import "fmt"

// ErrorKind categorizes container errors.
type ErrorKind uint8

const (
	// ErrCapacity indicates the container would exceed its size limit, or
	// a count does not fit its field.
	ErrCapacity ErrorKind = iota

	// ErrTruncated indicates a container shorter than its tables claim.
	ErrTruncated

	// ErrBadMagic indicates data that does not start with 'VP' or 'FP'.
	ErrBadMagic

	// ErrInternal indicates an emitter invariant violation.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrCapacity:
		return "Capacity"
	case ErrTruncated:
		return "Truncated"
	case ErrBadMagic:
		return "BadMagic"
	case ErrInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// EmitError is a container encoding or decoding error.
type EmitError struct {
	Kind    ErrorKind
	Message string

	// Offset is the byte offset involved, or -1.
	Offset int
}

// Error implements the error interface.
func (e *EmitError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("container %s at offset %#x: %s", e.Kind, e.Offset, e.Message)
	}
	return fmt.Sprintf("container %s: %s", e.Kind, e.Message)
}

func errorf(kind ErrorKind, offset int, format string, args ...interface{}) *EmitError {
	return &EmitError{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: offset}
}
