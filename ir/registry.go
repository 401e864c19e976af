package ir

import (
	"math"
	"strconv"
)

// LiteralRegistry deduplicates inline literal vectors so that each
// distinct value is materialized as a single internal constant.
type LiteralRegistry struct {
	values [][4]float32
	index  map[string]int
	keyBuf []byte // reusable buffer for building keys
}

// NewLiteralRegistry creates an empty registry.
func NewLiteralRegistry() *LiteralRegistry {
	return &LiteralRegistry{
		index:  make(map[string]int, 8),
		keyBuf: make([]byte, 0, 48),
	}
}

// GetOrCreate returns the handle of an existing identical literal, or
// registers v and returns its new handle. Values are compared bit for bit,
// so 0 and -0 are distinct.
func (r *LiteralRegistry) GetOrCreate(v [4]float32) int {
	key := r.key(v)
	if h, ok := r.index[key]; ok {
		return h
	}
	h := len(r.values)
	r.values = append(r.values, v)
	r.index[key] = h
	return h
}

func (r *LiteralRegistry) key(v [4]float32) string {
	b := r.keyBuf[:0]
	for i, f := range v {
		if i > 0 {
			b = append(b, ':')
		}
		b = strconv.AppendUint(b, uint64(math.Float32bits(f)), 16)
	}
	r.keyBuf = b
	return string(b)
}

// Lookup returns the literal registered under handle h.
func (r *LiteralRegistry) Lookup(h int) ([4]float32, bool) {
	if h < 0 || h >= len(r.values) {
		return [4]float32{}, false
	}
	return r.values[h], true
}

// Values returns all literals in registration order.
func (r *LiteralRegistry) Values() [][4]float32 {
	return r.values
}

// Count returns the number of distinct literals.
func (r *LiteralRegistry) Count() int {
	return len(r.values)
}
