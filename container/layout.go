package container

import (
	"math"

	"github.com/samber/lo"

	"github.com/gogpu/rsxc/ir"
	"github.com/gogpu/rsxc/rsx"
)

// Layout is the byte layout of a container, computed before any bytes are
// written.
type Layout struct {
	Header Header

	// AttributeRecords maps a parameter position to its attribute record
	// offset.
	AttributeRecords map[int]int

	// ConstantRecords maps a parameter position to the offset of its first
	// constant record.
	ConstantRecords map[int]int

	// NamesOffset is where the name table starts.
	NamesOffset int

	// Size is the total container size.
	Size int
}

// Resolve computes the container layout for a compiled program and the
// parameters it was compiled from.
func Resolve(prog *rsx.Program, params []ir.Parameter) (*Layout, error) {
	if prog == nil {
		return nil, errorf(ErrInternal, -1, "program is nil")
	}
	l := &Layout{
		AttributeRecords: make(map[int]int, len(prog.Attributes)),
		ConstantRecords:  make(map[int]int, len(prog.Constants)),
	}

	off := HeaderSize
	off += padding(off, 4)
	attribOff := off
	for _, p := range prog.Attributes {
		if p < 0 || p >= len(params) {
			return nil, errorf(ErrInternal, off, "attribute refers to parameter %d of %d", p, len(params))
		}
		l.AttributeRecords[p] = off
		off += AttributeRecordSize
	}

	off += padding(off, 4)
	constOff := off
	for _, b := range prog.Constants {
		if b.Param < 0 || b.Param >= len(params) {
			return nil, errorf(ErrInternal, off, "constant binding refers to parameter %d of %d", b.Param, len(params))
		}
		if params[b.Param].Count > math.MaxUint8 {
			return nil, errorf(ErrCapacity, off, "%s: count %d does not fit a record", &params[b.Param], params[b.Param].Count)
		}
		l.ConstantRecords[b.Param] = off
		off += ConstantRecordSize * len(b.Slots)
	}

	off += padding(off, 4)
	l.NamesOffset = off
	for i := range params {
		p := &params[i]
		if !p.Named() {
			continue
		}
		if !l.hasRecord(i) {
			return nil, errorf(ErrInternal, off, "%s has a name but no record", p)
		}
		off += len(p.Name) + 1
	}

	off += padding(off, 16)
	ucodeOff := off
	off += InstructionSize * len(prog.Instructions)
	l.Size = off

	numConst := lo.SumBy(prog.Constants, func(b rsx.ConstantBinding) int {
		return len(b.Slots)
	})
	for _, n := range []int{len(prog.Attributes), numConst, len(prog.Instructions)} {
		if n > math.MaxUint16 {
			return nil, errorf(ErrCapacity, -1, "table of %d entries does not fit the header", n)
		}
	}

	l.Header = Header{
		Magic:        prog.Kind.Magic(),
		AttribOffset: uint32(attribOff),
		NumAttrib:    uint16(len(prog.Attributes)),
		ConstOffset:  uint32(constOff),
		NumConst:     uint16(numConst),
		UcodeOffset:  uint32(ucodeOff),
		NumInsn:      uint16(len(prog.Instructions)),
	}
	if prog.Kind == ir.KindFragment {
		l.Header.InputMask = prog.RegisterCount
		l.Header.OutputMask = uint32(prog.Control)
	} else {
		l.Header.InputMask = prog.InputMask
		l.Header.OutputMask = prog.OutputMask
	}
	return l, nil
}

// hasRecord reports whether parameter i owns an attribute or constant
// record.
func (l *Layout) hasRecord(i int) bool {
	_, a := l.AttributeRecords[i]
	_, c := l.ConstantRecords[i]
	return a || c
}

// nameField returns the offset of the name_off field to patch for
// parameter i.
func (l *Layout) nameField(i int) (int, bool) {
	if off, ok := l.AttributeRecords[i]; ok {
		return off + recordNameField, true
	}
	if off, ok := l.ConstantRecords[i]; ok {
		return off + recordNameField, true
	}
	return 0, false
}
