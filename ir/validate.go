package ir

import (
	"fmt"
)

// ValidationError represents a structural problem in a Program.
type ValidationError struct {
	Message string

	// Parameter is the offending parameter position, or -1.
	Parameter int

	// Line is the source line of the offending instruction, or 0.
	Line int
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Parameter >= 0 {
		return fmt.Sprintf("parameter %d: %s", e.Parameter, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Validate checks the structural invariants the compilers rely on:
// positive slot counts, one value row per constant slot, no values on
// attributes, no overlapping constant ranges, and instructions that carry
// an opcode. It does not judge shader semantics.
//
// Returns validation errors if any, or nil if the program is well formed.
func Validate(p *Program) ([]ValidationError, error) {
	if p == nil {
		return nil, fmt.Errorf("program is nil")
	}

	var errs []ValidationError
	add := func(param, line int, format string, args ...interface{}) {
		errs = append(errs, ValidationError{
			Message:   fmt.Sprintf(format, args...),
			Parameter: param,
			Line:      line,
		})
	}

	for i := range p.Parameters {
		param := &p.Parameters[i]
		if param.Count == 0 {
			add(i, 0, "%s has zero slot count", param)
		}
		switch param.Kind {
		case ParamConstant:
			if uint32(len(param.Values)) != param.Count {
				add(i, 0, "%s has %d value rows, want %d", param, len(param.Values), param.Count)
			}
		case ParamAttribute:
			if param.Values != nil {
				add(i, 0, "%s carries constant values", param)
			}
		default:
			add(i, 0, "unknown parameter kind %d", param.Kind)
		}
	}

	for i := range p.Parameters {
		a := &p.Parameters[i]
		if !a.IsConstant() {
			continue
		}
		for j := i + 1; j < len(p.Parameters); j++ {
			b := &p.Parameters[j]
			if b.IsConstant() && a.Index < b.Index+b.Count && b.Index < a.Index+a.Count {
				add(j, 0, "%s overlaps %s", b, a)
			}
		}
	}

	for i := range p.Instructions {
		in := &p.Instructions[i]
		if in.Op == "" {
			add(-1, in.Line, "instruction %d has no opcode", i)
		}
	}

	if len(errs) > 0 {
		return errs, nil
	}
	return nil, nil
}
