package container

import (
	"encoding/binary"

	"github.com/gogpu/rsxc/ir"
)

// Record and header sizes in bytes.
const (
	HeaderSize          = 32
	AttributeRecordSize = 8
	ConstantRecordSize  = 28
	InstructionSize     = 16
)

// Record fields. Both record kinds lead with name_off so the name pass
// patches the offset the record was placed at.
const (
	recordNameField  = 0
	recordIndexField = 4
	constantCount    = 8
	constantType     = 9
	constantInternal = 10
	constantValues   = 12
)

// Header is the fixed 32-byte container header. For fragment programs
// InputMask carries the register count and OutputMask the control word.
type Header struct {
	Magic        uint16 `json:"magic"`
	StartInsn    uint16 `json:"start_insn"`
	ConstStart   uint16 `json:"const_start"`
	InputMask    uint32 `json:"input_mask"`
	OutputMask   uint32 `json:"output_mask"`
	AttribOffset uint32 `json:"attrib_off"`
	NumAttrib    uint16 `json:"num_attrib"`
	ConstOffset  uint32 `json:"const_off"`
	NumConst     uint16 `json:"num_const"`
	UcodeOffset  uint32 `json:"ucode_off"`
	NumInsn      uint16 `json:"num_insn"`
}

// Kind returns the program kind named by the magic, or false.
func (h *Header) Kind() (ir.ProgramKind, bool) {
	switch h.Magic {
	case ir.KindVertex.Magic():
		return ir.KindVertex, true
	case ir.KindFragment.Magic():
		return ir.KindFragment, true
	}
	return 0, false
}

func (h *Header) write(w *Writer) {
	w.U16(h.Magic)
	w.U16(h.StartInsn)
	w.U16(h.ConstStart)
	w.U32(h.InputMask)
	w.U32(h.OutputMask)
	w.U32(h.AttribOffset)
	w.U16(h.NumAttrib)
	w.U32(h.ConstOffset)
	w.U16(h.NumConst)
	w.U32(h.UcodeOffset)
	w.U16(h.NumInsn)
}

func readHeader(b []byte) Header {
	be := binary.BigEndian
	return Header{
		Magic:        be.Uint16(b[0:]),
		StartInsn:    be.Uint16(b[2:]),
		ConstStart:   be.Uint16(b[4:]),
		InputMask:    be.Uint32(b[6:]),
		OutputMask:   be.Uint32(b[10:]),
		AttribOffset: be.Uint32(b[14:]),
		NumAttrib:    be.Uint16(b[18:]),
		ConstOffset:  be.Uint32(b[20:]),
		NumConst:     be.Uint16(b[24:]),
		UcodeOffset:  be.Uint32(b[26:]),
		NumInsn:      be.Uint16(b[30:]),
	}
}
