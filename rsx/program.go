package rsx

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/gogpu/rsxc/ir"
)

// Instruction is one 128-bit hardware instruction, or one inline constant
// data slot in a fragment program.
type Instruction struct {
	Words [4]uint32
}

// Relocation records an instruction whose constant reference was bound
// after encoding.
type Relocation struct {
	// Instruction is the position of the patched instruction (vertex) or
	// data slot (fragment).
	Instruction int

	// Target is the resolved constant slot (vertex) or the byte offset of
	// the data slot in the microcode (fragment).
	Target uint32

	// Param is the position of the referenced parameter.
	Param int
}

// ControlFlags is the fragment program control word.
type ControlFlags uint32

const (
	// ControlDepthReplace is set when the program writes depth.
	ControlDepthReplace ControlFlags = 0x0e

	// ControlKill is set when the program uses KIL.
	ControlKill ControlFlags = 0x80
)

// ConstantBinding maps a constant parameter's slots to constant table
// indices: vertex constant bank slots, or fragment microcode byte offsets.
type ConstantBinding struct {
	Param int
	Slots []uint32
}

// FragmentData records an inline constant data slot: Index is the constant
// register the preceding instruction reads, Offset the slot's position.
type FragmentData struct {
	Index  uint32
	Offset int
}

// Program is compiled microcode plus everything the emitter needs to
// describe it.
type Program struct {
	Kind         ir.ProgramKind
	Instructions []Instruction
	Relocations  []Relocation

	// InputMask has bit n set for each input register read. Fragment
	// containers have no field for it; it is reported to callers only.
	InputMask uint32

	// OutputMask has one bit per vertex output written (HPOS excluded).
	OutputMask uint32

	// RegisterCount is the fragment temp register count.
	RegisterCount uint32

	// Control is the fragment control word.
	Control ControlFlags

	// Attributes lists the positions of non-constant parameters in
	// declaration order.
	Attributes []int

	// Constants binds every constant parameter the container describes,
	// in declaration order.
	Constants []ConstantBinding

	// FragmentData lists the inline constant slots of a fragment program.
	FragmentData []FragmentData
}

// Binding returns the constant binding of parameter param, if any.
func (p *Program) Binding(param int) (ConstantBinding, bool) {
	for _, b := range p.Constants {
		if b.Param == param {
			return b, true
		}
	}
	return ConstantBinding{}, false
}

// Compile compiles an abstract program for its kind.
func Compile(p *ir.Program, opts Options) (*Program, error) {
	if p == nil {
		return nil, NewError(ErrInternal, "program is nil")
	}
	switch p.Kind {
	case ir.KindVertex:
		return CompileVertex(p, opts)
	case ir.KindFragment:
		return CompileFragment(p, opts)
	default:
		return nil, NewError(ErrInternal, fmt.Sprintf("unknown program kind %s", p.Kind))
	}
}

// attributes returns the positions of the non-constant parameters.
func attributes(params []ir.Parameter) []int {
	return lo.Filter(lo.Range(len(params)), func(i, _ int) bool {
		return !params[i].IsConstant()
	})
}
