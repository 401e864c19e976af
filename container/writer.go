package container

import (
	"encoding/binary"
	"math"
)

// DefaultCapacity is the default container size limit (2 MiB).
const DefaultCapacity = 2 << 20

// Writer is a growable big-endian byte sink with alignment and
// back-patching. The first failure sticks: later writes are dropped and
// Err reports it.
type Writer struct {
	buf   []byte
	limit int
	err   error
}

// NewWriter creates a writer that refuses to grow past limit bytes. A
// non-positive limit selects DefaultCapacity.
func NewWriter(limit int) *Writer {
	if limit <= 0 {
		limit = DefaultCapacity
	}
	return &Writer{
		buf:   make([]byte, 0, 1024),
		limit: limit,
	}
}

// grow reports whether n more bytes fit.
func (w *Writer) grow(n int) bool {
	if w.err != nil {
		return false
	}
	if len(w.buf)+n > w.limit {
		w.err = errorf(ErrCapacity, len(w.buf), "writing %d bytes exceeds the %d byte limit", n, w.limit)
		return false
	}
	return true
}

// U8 appends a byte.
func (w *Writer) U8(v uint8) {
	if w.grow(1) {
		w.buf = append(w.buf, v)
	}
}

// U16 appends a big-endian 16-bit value.
func (w *Writer) U16(v uint16) {
	if w.grow(2) {
		w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	}
}

// U32 appends a big-endian 32-bit value.
func (w *Writer) U32(v uint32) {
	if w.grow(4) {
		w.buf = binary.BigEndian.AppendUint32(w.buf, v)
	}
}

// F32 appends the raw bits of a float.
func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

// CString appends s followed by a NUL byte.
func (w *Writer) CString(s string) {
	if w.grow(len(s) + 1) {
		w.buf = append(w.buf, s...)
		w.buf = append(w.buf, 0)
	}
}

// Align pads with zero bytes up to a multiple of n.
func (w *Writer) Align(n int) {
	pad := padding(len(w.buf), n)
	if pad > 0 && w.grow(pad) {
		w.buf = append(w.buf, make([]byte, pad)...)
	}
}

// PatchU32 overwrites a previously written 32-bit value.
func (w *Writer) PatchU32(offset int, v uint32) {
	if w.err != nil {
		return
	}
	if offset < 0 || offset+4 > len(w.buf) {
		w.err = errorf(ErrInternal, offset, "patch outside the %d bytes written", len(w.buf))
		return
	}
	binary.BigEndian.PutUint32(w.buf[offset:], v)
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error {
	return w.err
}

func padding(size, align int) int {
	if align <= 1 {
		return 0
	}
	return (align - size%align) % align
}
