package rsx

import (
	"math"

	"github.com/gogpu/rsxc/ir"
)

// CompileFragment encodes a fragment program. Constants are inlined: each
// instruction that reads one is followed by a data slot holding the
// constant's values, recorded as FragmentData and patched by relocation.
func CompileFragment(p *ir.Program, opts Options) (*Program, error) {
	opts = opts.withDefaults()
	if len(p.Instructions) == 0 {
		return nil, NewError(ErrEmptyProgram, "fragment program has no instructions")
	}

	c := &fragmentCompiler{
		params: p.Parameters,
		out: &Program{
			Kind:       ir.KindFragment,
			Attributes: attributes(p.Parameters),
		},
		lastCode:  -1,
		registers: 2,
	}

	for i := range p.Instructions {
		in := &p.Instructions[i]
		if in.Op == "KIL" && len(in.Src) == 1 {
			// KIL src kills where any component of src is negative.
			test := ir.Instruction{
				Line:       in.Line,
				Op:         "MOV",
				CondUpdate: true,
				Precision:  in.Precision,
				Src:        in.Src,
			}
			if err := c.emit(&test, CondTR); err != nil {
				return nil, err
			}
			if err := c.emit(&ir.Instruction{Line: in.Line, Op: "KIL"}, CondLT); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.emit(in, CondTR); err != nil {
			return nil, err
		}
	}

	if n := len(c.out.Instructions); n > opts.MaxFragmentInstructions {
		return nil, errorf(ErrTooManyInstructions, 0, "%d instruction slots, limit %d", n, opts.MaxFragmentInstructions)
	}
	c.out.Instructions[c.lastCode].Words[0] |= fpProgramEnd
	c.out.RegisterCount = c.registers

	if err := c.relocate(); err != nil {
		return nil, err
	}
	if err := c.bindConstants(); err != nil {
		return nil, err
	}
	return c.out, nil
}

type fragmentCompiler struct {
	params []ir.Parameter
	out    *Program

	lastCode  int
	registers uint32
}

func (c *fragmentCompiler) emit(in *ir.Instruction, cond uint32) error {
	code, ok := fragmentOps[in.Op]
	if !ok {
		return errorf(ErrUnsupported, in.Line, "%s has no fragment encoding", in.Op)
	}

	var w [4]uint32
	w[0] = code<<fpOpcodeShift | uint32(in.Precision)&fpPrecisionMask<<fpPrecisionShift
	w[1] = cond<<fpCondShift | fpIdentitySwz<<fpCondSwzShift
	for slot := 0; slot < 3; slot++ {
		setFragmentSource(&w, slot, fpUnusedSource)
	}
	if in.Sat {
		w[0] |= fpOutSat
	}
	if in.CondUpdate {
		w[0] |= fpCondWrite
	}
	if in.Op == "KIL" {
		c.out.Control |= ControlKill
	}
	if in.HasTex {
		if in.TexUnit < 0 || in.TexUnit >= MaxTextureUnits {
			return errorf(ErrRegisterRange, in.Line, "texture unit %d out of range", in.TexUnit)
		}
		w[0] |= uint32(in.TexUnit) << fpTexUnitShift
	}

	if err := c.destination(in, &w); err != nil {
		return err
	}

	if len(in.Src) > 3 {
		return errorf(ErrInternal, in.Line, "%s has %d sources", in.Op, len(in.Src))
	}
	input := -1
	constant := -1
	param := -1
	for i := range in.Src {
		src := in.Src[i]
		if in.Op == "SUB" && i == 1 {
			src.Negate = !src.Negate
		}
		if in.Op == "ABS" {
			src.Abs = true
		}

		reg := src.Reg
		var enc uint32
		switch reg.File {
		case ir.RegTemp, ir.RegOutput:
			if reg.Index < 0 || reg.Index > fpMaxRegister {
				return errorf(ErrRegisterRange, in.Line, "register %d out of range", reg.Index)
			}
			enc = fpRegTemp | uint32(reg.Index)<<fpSrcShift
			if reg.Half {
				enc |= fpRegHalf
			}
		case ir.RegInput:
			if reg.Index < 0 || reg.Index > fpInputSrcMask {
				return errorf(ErrRegisterRange, in.Line, "input %d out of range", reg.Index)
			}
			if input >= 0 && input != reg.Index {
				return errorf(ErrOperandConflict, in.Line, "%s reads more than one input", in.Op)
			}
			input = reg.Index
			w[0] |= uint32(reg.Index) << fpInputSrcShift
			c.out.InputMask |= 1 << uint(reg.Index)
			enc = fpRegInput
		case ir.RegConstant:
			if reg.Relative {
				return errorf(ErrUnsupported, in.Line, "relative constant addressing in fragment program")
			}
			if constant >= 0 && constant != reg.Index {
				return errorf(ErrOperandConflict, in.Line, "%s reads more than one constant", in.Op)
			}
			if constant < 0 {
				if reg.Index < 0 {
					return errorf(ErrRegisterRange, in.Line, "constant c[%d] out of range", reg.Index)
				}
				param = ir.FindConstant(c.params, uint32(reg.Index))
				if param < 0 {
					return errorf(ErrUndeclaredParameter, in.Line, "constant c[%d] is not declared", reg.Index)
				}
			}
			constant = reg.Index
			enc = fpRegConst
		default:
			return errorf(ErrRegisterRange, in.Line, "%s cannot read a %s register", in.Op, reg.File)
		}

		enc |= fpSwizzle(src.Swizzle) << fpSwizzleShift
		if src.Negate {
			enc |= fpNegate
		}
		setFragmentSource(&w, i, enc)
		if src.Abs {
			word, bit := fpSourceAbs(i)
			w[word] |= bit
		}
	}

	for _, reg := range in.Reads() {
		if reg.File == ir.RegTemp || reg.File == ir.RegOutput {
			c.useRegister(reg)
		}
	}

	c.lastCode = len(c.out.Instructions)
	c.out.Instructions = append(c.out.Instructions, Instruction{Words: w})

	if constant >= 0 {
		slot := len(c.out.Instructions)
		c.out.Instructions = append(c.out.Instructions, Instruction{})
		c.out.FragmentData = append(c.out.FragmentData, FragmentData{Index: uint32(constant), Offset: slot})
		c.out.Relocations = append(c.out.Relocations, Relocation{
			Instruction: slot,
			Target:      uint32(slot) * 16,
			Param:       param,
		})
	}
	return nil
}

func (c *fragmentCompiler) destination(in *ir.Instruction, w *[4]uint32) error {
	dst := in.Dst
	if dst == nil {
		w[0] |= fpOutNone
		if in.CondUpdate {
			w[0] |= uint32(ir.MaskAll) << fpOutMaskShift
		}
		return nil
	}

	switch dst.Reg.File {
	case ir.RegTemp, ir.RegOutput:
	default:
		return errorf(ErrRegisterRange, in.Line, "%s cannot write a %s register", in.Op, dst.Reg.File)
	}
	if dst.Reg.Index < 0 || dst.Reg.Index > fpMaxRegister {
		return errorf(ErrRegisterRange, in.Line, "register %d out of range", dst.Reg.Index)
	}
	if dst.Reg.File == ir.RegOutput && dst.Reg.Index == ir.OutFragDepth {
		c.out.Control |= ControlDepthReplace
	}

	w[0] |= uint32(dst.Reg.Index) << fpOutRegShift
	if dst.Reg.Half {
		w[0] |= fpOutRegHalf
	}
	w[0] |= uint32(dst.Mask) & fpOutMaskMask << fpOutMaskShift
	c.useRegister(dst.Reg)
	return nil
}

// useRegister grows the register count to cover reg. Half registers pack
// two to a full register.
func (c *fragmentCompiler) useRegister(reg ir.Register) {
	n := uint32(reg.Index)
	if reg.Half {
		n /= 2
	}
	if n+1 > c.registers {
		c.registers = n + 1
	}
}

// relocate writes each referenced constant's values into its data slot.
func (c *fragmentCompiler) relocate() error {
	for i, r := range c.out.Relocations {
		data := c.out.FragmentData[i]
		param := &c.params[r.Param]
		row := data.Index - param.Index
		if int(row) >= len(param.Values) {
			return errorf(ErrInternal, 0, "%s has no values for c[%d]", param, data.Index)
		}
		values := param.Values[row]
		w := &c.out.Instructions[r.Instruction].Words
		for k := range values {
			w[k] = math.Float32bits(values[k])
		}
	}
	return nil
}

// bindConstants points every named constant's table entries at the first
// data slot that holds its first register.
func (c *fragmentCompiler) bindConstants() error {
	for i := range c.params {
		param := &c.params[i]
		if !param.IsConstant() || param.Internal {
			continue
		}
		first := -1
		for _, d := range c.out.FragmentData {
			if d.Index == param.Index {
				first = d.Offset
				break
			}
		}
		if first < 0 {
			return errorf(ErrUnresolvedRelocation, 0, "%s is never read", param)
		}
		slots := make([]uint32, param.Count)
		for k := range slots {
			slots[k] = uint32(first+k) * 16
		}
		c.out.Constants = append(c.out.Constants, ConstantBinding{Param: i, Slots: slots})
	}
	return nil
}
