package container

import (
	"github.com/gogpu/rsxc/ir"
	"github.com/gogpu/rsxc/rsx"
)

// Options configures container emission.
type Options struct {
	// MaxSize is the container size limit in bytes. Zero selects
	// DefaultCapacity.
	MaxSize int
}

// DefaultOptions returns the default emitter options.
func DefaultOptions() Options {
	return Options{MaxSize: DefaultCapacity}
}

// Emit serializes a compiled program into a big-endian container.
// params must be the parameter list the program was compiled from.
func Emit(prog *rsx.Program, params []ir.Parameter, opts Options) ([]byte, error) {
	l, err := Resolve(prog, params)
	if err != nil {
		return nil, err
	}
	limit := opts.MaxSize
	if limit <= 0 {
		limit = DefaultCapacity
	}
	if l.Size > limit {
		return nil, errorf(ErrCapacity, -1, "container of %d bytes exceeds the %d byte limit", l.Size, limit)
	}

	e := &emitter{
		w:      NewWriter(limit),
		prog:   prog,
		params: params,
		layout: l,
	}
	return e.emit()
}

type emitter struct {
	w      *Writer
	prog   *rsx.Program
	params []ir.Parameter
	layout *Layout
}

func (e *emitter) emit() ([]byte, error) {
	w := e.w
	e.layout.Header.write(w)

	w.Align(4)
	if err := e.expect(e.layout.Header.AttribOffset, "attribute table"); err != nil {
		return nil, err
	}
	for _, p := range e.prog.Attributes {
		w.U32(0)
		w.U32(e.params[p].Index)
	}

	w.Align(4)
	if err := e.expect(e.layout.Header.ConstOffset, "constant table"); err != nil {
		return nil, err
	}
	for _, b := range e.prog.Constants {
		e.constant(b)
	}

	w.Align(4)
	if err := e.expect(uint32(e.layout.NamesOffset), "name table"); err != nil {
		return nil, err
	}
	for i := range e.params {
		p := &e.params[i]
		if !p.Named() {
			continue
		}
		field, ok := e.layout.nameField(i)
		if !ok {
			return nil, errorf(ErrInternal, w.Len(), "%s has a name but no record", p)
		}
		w.PatchU32(field, uint32(w.Len()))
		w.CString(p.Name)
	}

	w.Align(16)
	if err := e.expect(e.layout.Header.UcodeOffset, "microcode"); err != nil {
		return nil, err
	}
	fragment := e.prog.Kind == ir.KindFragment
	for _, inst := range e.prog.Instructions {
		for _, word := range inst.Words {
			if fragment {
				word = rsx.HalfSwap(word)
			}
			w.U32(word)
		}
	}

	if err := w.Err(); err != nil {
		return nil, err
	}
	if w.Len() != e.layout.Size {
		return nil, errorf(ErrInternal, w.Len(), "wrote %d bytes, layout has %d", w.Len(), e.layout.Size)
	}
	return w.Bytes(), nil
}

// constant writes one record per slot of a constant binding.
func (e *emitter) constant(b rsx.ConstantBinding) {
	p := &e.params[b.Param]
	internal := uint8(0)
	if p.Internal {
		internal = 1
	}
	for k, index := range b.Slots {
		e.w.U32(0)
		e.w.U32(index)
		e.w.U8(uint8(p.Count))
		e.w.U8(uint8(p.Type))
		e.w.U8(internal)
		e.w.U8(0)
		var values [4]float32
		if k < len(p.Values) {
			values = p.Values[k]
		}
		for _, v := range values {
			e.w.F32(v)
		}
	}
}

// expect checks that a section starts where the layout placed it.
func (e *emitter) expect(offset uint32, section string) error {
	if err := e.w.Err(); err != nil {
		return err
	}
	if e.w.Len() != int(offset) {
		return errorf(ErrInternal, e.w.Len(), "%s at %#x, layout has %#x", section, e.w.Len(), offset)
	}
	return nil
}
