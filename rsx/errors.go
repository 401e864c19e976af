package rsx

import "fmt"

// ErrorKind categorizes instruction compiler errors.
type ErrorKind uint8

const (
	// ErrUndeclaredParameter indicates an operand names a constant or
	// input that no parameter declares.
	ErrUndeclaredParameter ErrorKind = iota

	// ErrTooManyInstructions indicates the program exceeds the hardware
	// instruction limit.
	ErrTooManyInstructions

	// ErrUnresolvedRelocation indicates a constant whose table entry could
	// not be bound to an instruction.
	ErrUnresolvedRelocation

	// ErrOperandConflict indicates an instruction reads more than one
	// distinct input or constant register.
	ErrOperandConflict

	// ErrRegisterRange indicates a register index outside the hardware
	// range, or a register file the instruction cannot address.
	ErrRegisterRange

	// ErrEmptyProgram indicates a program without instructions.
	ErrEmptyProgram

	// ErrUnsupported indicates an instruction form the target unit cannot
	// encode.
	ErrUnsupported

	// ErrInternal indicates an internal compiler error.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUndeclaredParameter:
		return "UndeclaredParameter"
	case ErrTooManyInstructions:
		return "TooManyInstructions"
	case ErrUnresolvedRelocation:
		return "UnresolvedRelocation"
	case ErrOperandConflict:
		return "OperandConflict"
	case ErrRegisterRange:
		return "RegisterRange"
	case ErrEmptyProgram:
		return "EmptyProgram"
	case ErrUnsupported:
		return "Unsupported"
	case ErrInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is an instruction compiler error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// Line is the source line of the offending instruction, or 0.
	Line int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("rsx %s at line %d: %s", e.Kind, e.Line, e.Message)
	}
	return fmt.Sprintf("rsx %s: %s", e.Kind, e.Message)
}

// NewError creates a new compiler error without line information.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func errorf(kind ErrorKind, line int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line}
}
