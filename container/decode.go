package container

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/gogpu/rsxc/ir"
	"github.com/gogpu/rsxc/rsx"
)

// Attribute is a decoded attribute record.
type Attribute struct {
	Index      uint32 `json:"index"`
	Name       string `json:"name"`
	NameOffset uint32 `json:"name_off"`
}

// Constant is a decoded constant record.
type Constant struct {
	Count      uint8        `json:"count"`
	Type       ir.ParamType `json:"type"`
	Internal   bool         `json:"internal"`
	Index      uint32       `json:"index"`
	Name       string       `json:"name,omitempty"`
	NameOffset uint32       `json:"name_off"`
	Values     [4]float32   `json:"values"`
}

// Container is a decoded container. Microcode words are in natural order;
// fragment half-word swapping is undone.
type Container struct {
	Kind       ir.ProgramKind    `json:"kind"`
	Header     Header            `json:"header"`
	Attributes []Attribute       `json:"attributes"`
	Constants  []Constant        `json:"constants"`
	Microcode  []rsx.Instruction `json:"-"`
}

// Decode parses a container produced by Emit.
func Decode(data []byte) (*Container, error) {
	if len(data) < HeaderSize {
		return nil, errorf(ErrTruncated, len(data), "%d bytes is shorter than the header", len(data))
	}
	h := readHeader(data)
	kind, ok := h.Kind()
	if !ok {
		return nil, errorf(ErrBadMagic, 0, "unknown magic %#04x", h.Magic)
	}
	c := &Container{Kind: kind, Header: h}
	be := binary.BigEndian

	off := int(h.AttribOffset)
	if err := span(data, off, int(h.NumAttrib)*AttributeRecordSize, "attribute table"); err != nil {
		return nil, err
	}
	for i := 0; i < int(h.NumAttrib); i++ {
		rec := data[off+i*AttributeRecordSize:]
		a := Attribute{
			Index:      be.Uint32(rec[recordIndexField:]),
			NameOffset: be.Uint32(rec[recordNameField:]),
		}
		name, err := cstring(data, a.NameOffset)
		if err != nil {
			return nil, err
		}
		a.Name = name
		c.Attributes = append(c.Attributes, a)
	}

	off = int(h.ConstOffset)
	if err := span(data, off, int(h.NumConst)*ConstantRecordSize, "constant table"); err != nil {
		return nil, err
	}
	for i := 0; i < int(h.NumConst); i++ {
		rec := data[off+i*ConstantRecordSize:]
		k := Constant{
			Count:      rec[constantCount],
			Type:       ir.ParamType(rec[constantType]),
			Internal:   rec[constantInternal] != 0,
			Index:      be.Uint32(rec[recordIndexField:]),
			NameOffset: be.Uint32(rec[recordNameField:]),
		}
		for j := range k.Values {
			k.Values[j] = math.Float32frombits(be.Uint32(rec[constantValues+4*j:]))
		}
		name, err := cstring(data, k.NameOffset)
		if err != nil {
			return nil, err
		}
		k.Name = name
		c.Constants = append(c.Constants, k)
	}

	off = int(h.UcodeOffset)
	if err := span(data, off, int(h.NumInsn)*InstructionSize, "microcode"); err != nil {
		return nil, err
	}
	c.Microcode = make([]rsx.Instruction, h.NumInsn)
	for i := range c.Microcode {
		for j := range c.Microcode[i].Words {
			word := be.Uint32(data[off+i*InstructionSize+4*j:])
			if kind == ir.KindFragment {
				word = rsx.HalfSwap(word)
			}
			c.Microcode[i].Words[j] = word
		}
	}
	return c, nil
}

func span(data []byte, off, size int, what string) error {
	if off < 0 || off+size > len(data) {
		return errorf(ErrTruncated, off, "%s of %d bytes runs past the %d byte container", what, size, len(data))
	}
	return nil
}

// cstring reads a NUL-terminated name. Offset 0 means no name.
func cstring(data []byte, off uint32) (string, error) {
	if off == 0 {
		return "", nil
	}
	if int(off) >= len(data) {
		return "", errorf(ErrTruncated, int(off), "name offset past the end")
	}
	end := bytes.IndexByte(data[off:], 0)
	if end < 0 {
		return "", errorf(ErrTruncated, int(off), "unterminated name")
	}
	return string(data[off : int(off)+end]), nil
}
