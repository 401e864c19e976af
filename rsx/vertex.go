package rsx

import (
	"github.com/gogpu/rsxc/ir"
)

// CompileVertex encodes a vertex program. Constant parameters are packed
// into the constant bank in declaration order starting at slot 0, and
// every constant reference is bound through a relocation.
func CompileVertex(p *ir.Program, opts Options) (*Program, error) {
	opts = opts.withDefaults()
	if len(p.Instructions) == 0 {
		return nil, NewError(ErrEmptyProgram, "vertex program has no instructions")
	}
	if len(p.Instructions) > opts.MaxVertexInstructions {
		return nil, errorf(ErrTooManyInstructions, 0, "%d instructions, limit %d",
			len(p.Instructions), opts.MaxVertexInstructions)
	}

	c := &vertexCompiler{
		params: p.Parameters,
		out: &Program{
			Kind:         ir.KindVertex,
			Attributes:   attributes(p.Parameters),
			Instructions: make([]Instruction, 0, len(p.Instructions)),
		},
	}
	if err := c.allocateConstants(opts.MaxVertexConstants); err != nil {
		return nil, err
	}

	for i := range p.Instructions {
		w, err := c.encode(&p.Instructions[i])
		if err != nil {
			return nil, err
		}
		c.out.Instructions = append(c.out.Instructions, Instruction{Words: w})
	}
	c.out.Instructions[len(c.out.Instructions)-1].Words[3] |= vpLast

	for _, r := range c.out.Relocations {
		relocateVertex(&c.out.Instructions[r.Instruction].Words, r.Target)
	}
	return c.out, nil
}

type vertexCompiler struct {
	params []ir.Parameter
	out    *Program

	// slot[i] is the first bank slot of parameter i.
	slot map[int]uint32
}

func (c *vertexCompiler) allocateConstants(limit int) error {
	c.slot = make(map[int]uint32)
	var next uint32
	for i := range c.params {
		param := &c.params[i]
		if !param.IsConstant() {
			continue
		}
		slots := make([]uint32, param.Count)
		for k := range slots {
			slots[k] = next + uint32(k)
		}
		c.slot[i] = next
		c.out.Constants = append(c.out.Constants, ConstantBinding{Param: i, Slots: slots})
		next += param.Count
	}
	if next > uint32(limit) {
		return errorf(ErrRegisterRange, 0, "constants need %d slots, limit %d", next, limit)
	}
	return nil
}

// vertexOperands tracks the single input and constant an instruction may
// read.
type vertexOperands struct {
	input    int
	constant *ir.Register
}

func (c *vertexCompiler) encode(in *ir.Instruction) ([4]uint32, error) {
	var w [4]uint32
	w[0] = vpNoDestTemp<<vpVecDestTempShift | vpDefaultCond<<vpCondShift | vpDefaultCondSwz<<vpCondSwzShift
	w[3] = vpNoDest<<vpDestShift | vpNoDestTemp<<vpScaDestTempShift
	for slot := 0; slot < 3; slot++ {
		setVertexSource(&w, slot, vpUnusedSource)
	}

	vec, isVector := vectorOps[in.Op]
	sca, isScalar := scalarOps[in.Op]
	var slots []int
	switch {
	case isVector:
		w[1] |= vec.code << vpVecOpShift
		slots = vec.slots
	case isScalar:
		w[1] |= sca << vpScaOpShift
		slots = []int{2}
	default:
		return w, errorf(ErrUnsupported, in.Line, "%s has no vertex encoding", in.Op)
	}
	if len(in.Src) != len(slots) {
		return w, errorf(ErrInternal, in.Line, "%s has %d sources, want %d", in.Op, len(in.Src), len(slots))
	}

	ops := vertexOperands{input: -1}
	for i := range in.Src {
		src := in.Src[i]
		if in.Op == "SUB" && i == 1 {
			src.Negate = !src.Negate
		}
		if in.Op == "ABS" {
			src.Abs = true
		}
		enc, err := c.source(in, &w, src, &ops)
		if err != nil {
			return w, err
		}
		setVertexSource(&w, slots[i], enc)
		if src.Abs {
			w[0] |= vertexAbsBit(slots[i])
		}
	}

	if in.Dst != nil {
		if err := c.destination(in, &w, isScalar); err != nil {
			return w, err
		}
	}
	if in.Sat {
		w[0] |= vpSaturate
	}
	if in.CondUpdate {
		w[0] |= vpCondUpdate
	}
	return w, nil
}

func (c *vertexCompiler) source(in *ir.Instruction, w *[4]uint32, src ir.Source, ops *vertexOperands) (uint32, error) {
	reg := src.Reg
	var enc uint32

	switch reg.File {
	case ir.RegTemp:
		if reg.Half {
			return 0, errorf(ErrRegisterRange, in.Line, "half register H%d in vertex program", reg.Index)
		}
		if reg.Index < 0 || reg.Index >= MaxTemps {
			return 0, errorf(ErrRegisterRange, in.Line, "temp R%d out of range", reg.Index)
		}
		enc = vpRegTemp | uint32(reg.Index)<<vpTempShift

	case ir.RegInput:
		if reg.Index < 0 || reg.Index >= MaxVertexInputs {
			return 0, errorf(ErrRegisterRange, in.Line, "input v[%d] out of range", reg.Index)
		}
		if ir.FindAttribute(c.params, uint32(reg.Index)) < 0 {
			return 0, errorf(ErrUndeclaredParameter, in.Line, "input v[%d] is not declared", reg.Index)
		}
		if ops.input >= 0 && ops.input != reg.Index {
			return 0, errorf(ErrOperandConflict, in.Line, "%s reads inputs v[%d] and v[%d]", in.Op, ops.input, reg.Index)
		}
		ops.input = reg.Index
		w[1] |= uint32(reg.Index) << vpInputSrcShift
		c.out.InputMask |= 1 << uint(reg.Index)
		enc = vpRegInput

	case ir.RegConstant:
		if ops.constant != nil {
			if *ops.constant != reg {
				return 0, errorf(ErrOperandConflict, in.Line, "%s reads more than one constant", in.Op)
			}
		} else {
			if err := c.bindConstant(in, w, reg); err != nil {
				return 0, err
			}
			ops.constant = &reg
		}
		enc = vpRegConst

	default:
		return 0, errorf(ErrRegisterRange, in.Line, "%s cannot read a %s register", in.Op, reg.File)
	}

	enc |= vpSwizzle(src.Swizzle) << vpSwizzleShift
	if src.Negate {
		enc |= vpNegate
	}
	return enc, nil
}

// bindConstant records the relocation for a constant read and sets the
// relative addressing fields.
func (c *vertexCompiler) bindConstant(in *ir.Instruction, w *[4]uint32, reg ir.Register) error {
	if reg.Index < 0 {
		return errorf(ErrRegisterRange, in.Line, "constant c[%d] out of range", reg.Index)
	}
	param := ir.FindConstant(c.params, uint32(reg.Index))
	if param < 0 {
		return errorf(ErrUndeclaredParameter, in.Line, "constant c[%d] is not declared", reg.Index)
	}
	target := c.slot[param] + uint32(reg.Index) - c.params[param].Index

	c.out.Relocations = append(c.out.Relocations, Relocation{
		Instruction: len(c.out.Instructions),
		Target:      target,
		Param:       param,
	})

	if reg.Relative {
		if reg.Addr < 0 || reg.Addr > 1 {
			return errorf(ErrRegisterRange, in.Line, "address register A%d out of range", reg.Addr)
		}
		w[3] |= vpIndexConst
		w[0] |= uint32(reg.AddrComp&vpAddrSwzMask) << vpAddrSwzShift
		if reg.Addr == 1 {
			w[0] |= vpAddrRegSelect1
		}
	}
	return nil
}

func (c *vertexCompiler) destination(in *ir.Instruction, w *[4]uint32, scalar bool) error {
	dst := in.Dst
	mask := vpWriteMask(uint8(dst.Mask))
	writesAddress := in.Op == "ARL" || in.Op == "ARR" || in.Op == "ARA"

	maskShift := uint32(vpVecMaskShift)
	if scalar {
		maskShift = vpScaMaskShift
	}

	switch dst.Reg.File {
	case ir.RegTemp:
		if dst.Reg.Half {
			return errorf(ErrRegisterRange, in.Line, "half register H%d in vertex program", dst.Reg.Index)
		}
		if dst.Reg.Index < 0 || dst.Reg.Index >= MaxTemps {
			return errorf(ErrRegisterRange, in.Line, "temp R%d out of range", dst.Reg.Index)
		}
		if writesAddress {
			return errorf(ErrRegisterRange, in.Line, "%s writes an address register", in.Op)
		}
		idx := uint32(dst.Reg.Index)
		if scalar {
			w[3] = w[3]&^(vpScaDestTempMask<<vpScaDestTempShift) | idx<<vpScaDestTempShift
		} else {
			w[0] = w[0]&^(vpVecDestTempMask<<vpVecDestTempShift) | idx<<vpVecDestTempShift
		}

	case ir.RegOutput:
		if dst.Reg.Index < 0 || dst.Reg.Index > vpMaxOutput {
			return errorf(ErrRegisterRange, in.Line, "output %d out of range", dst.Reg.Index)
		}
		if writesAddress {
			return errorf(ErrRegisterRange, in.Line, "%s writes an address register", in.Op)
		}
		w[3] = w[3]&^(vpDestMask<<vpDestShift) | uint32(dst.Reg.Index)<<vpDestShift
		if scalar {
			w[0] |= vpScaResult
		} else {
			w[0] |= vpVecResult
		}
		c.out.OutputMask |= vertexOutputBit(dst.Reg.Index)

	case ir.RegAddress:
		if !writesAddress {
			return errorf(ErrRegisterRange, in.Line, "%s cannot write an address register", in.Op)
		}
		if dst.Reg.Index < 0 || dst.Reg.Index > 1 {
			return errorf(ErrRegisterRange, in.Line, "address register A%d out of range", dst.Reg.Index)
		}
		if dst.Reg.Index == 1 {
			w[0] |= vpAddrRegSelect1
		}

	default:
		return errorf(ErrRegisterRange, in.Line, "%s cannot write a %s register", in.Op, dst.Reg.File)
	}

	w[3] |= mask << maskShift
	return nil
}
