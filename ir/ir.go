package ir

import "fmt"

// ProgramKind selects the RSX programmable unit a program targets.
type ProgramKind uint8

const (
	KindVertex ProgramKind = iota
	KindFragment
)

// String returns the short name of the program kind.
func (k ProgramKind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ProgramKind(%d)", uint8(k))
	}
}

// MarshalText encodes the kind by name.
func (k ProgramKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Magic returns the two byte container tag for the kind ('VP' or 'FP').
func (k ProgramKind) Magic() uint16 {
	if k == KindFragment {
		return 'F'<<8 | 'P'
	}
	return 'V'<<8 | 'P'
}

// Program is the parser output: abstract instructions plus the declared
// parameters in source declaration order.
type Program struct {
	Kind         ProgramKind
	Instructions []Instruction
	Parameters   []Parameter
}

// ParamKind classifies a declared parameter.
type ParamKind uint8

const (
	// ParamAttribute is a per-vertex or per-fragment input, or a texture
	// sampler. Attributes land in the attribute table.
	ParamAttribute ParamKind = iota

	// ParamConstant is a uniform bound to constant storage.
	ParamConstant
)

// String returns the parameter kind name.
func (k ParamKind) String() string {
	if k == ParamConstant {
		return "constant"
	}
	return "attribute"
}

// ParamType is the declared type code stored in constant records.
type ParamType uint8

// Type codes match the runtime loader's table.
const (
	TypeFloat ParamType = iota
	TypeFloat2
	TypeFloat3
	TypeFloat4
	TypeFloat4x4
	TypeSampler1D
	TypeSampler2D
	TypeSampler3D
	TypeSamplerCube
	TypeSamplerRect
	TypeFloat3x3
	TypeFloat3x4
	TypeFloat4x3
	TypeBool

	TypeUnknown ParamType = 0xff
)

var typeNames = map[string]ParamType{
	"float":       TypeFloat,
	"float1":      TypeFloat,
	"half":        TypeFloat,
	"float2":      TypeFloat2,
	"half2":       TypeFloat2,
	"float3":      TypeFloat3,
	"half3":       TypeFloat3,
	"float4":      TypeFloat4,
	"half4":       TypeFloat4,
	"float4x4":    TypeFloat4x4,
	"half4x4":     TypeFloat4x4,
	"float3x3":    TypeFloat3x3,
	"float3x4":    TypeFloat3x4,
	"float4x3":    TypeFloat4x3,
	"sampler1D":   TypeSampler1D,
	"sampler2D":   TypeSampler2D,
	"sampler3D":   TypeSampler3D,
	"samplerCUBE": TypeSamplerCube,
	"samplerRECT": TypeSamplerRect,
	"bool":        TypeBool,
}

// LookupType maps a declared type name to its type code. Unknown names
// yield TypeUnknown.
func LookupType(name string) ParamType {
	if t, ok := typeNames[name]; ok {
		return t
	}
	return TypeUnknown
}

// Slots returns the number of 4-component registers a value of this type
// occupies when no explicit count is declared.
func (t ParamType) Slots() uint32 {
	switch t {
	case TypeFloat4x4, TypeFloat4x3:
		return 4
	case TypeFloat3x3, TypeFloat3x4:
		return 3
	default:
		return 1
	}
}

// IsSampler reports whether the type names a texture sampler.
func (t ParamType) IsSampler() bool {
	return t >= TypeSampler1D && t <= TypeSamplerRect
}

// Parameter is a declared shader input.
type Parameter struct {
	// Name is the source level name. Empty for compiler-synthesized values.
	Name string

	// Type is the declared type code.
	Type ParamType

	// Kind tells attributes from constants.
	Kind ParamKind

	// Index is the hardware input register, texture unit, or the first
	// constant register as written in the assembly.
	Index uint32

	// Count is the number of consecutive 4-component slots (always > 0).
	Count uint32

	// Internal marks compiler-synthesized parameters. They are never named
	// in the output container.
	Internal bool

	// Values holds Count rows of default values for constants; nil for
	// attributes.
	Values [][4]float32
}

// IsConstant reports whether p is bound to constant storage.
func (p *Parameter) IsConstant() bool {
	return p.Kind == ParamConstant
}

// Contains reports whether register index lies inside the parameter's
// slot range.
func (p *Parameter) Contains(index uint32) bool {
	return index >= p.Index && index < p.Index+p.Count
}

// Named reports whether the parameter contributes a name table entry.
func (p *Parameter) Named() bool {
	return p.Name != "" && !p.Internal
}

// String returns a short description used in diagnostics.
func (p *Parameter) String() string {
	name := p.Name
	if name == "" {
		name = "<internal>"
	}
	if p.IsConstant() {
		return fmt.Sprintf("%s %s c[%d]x%d", p.Kind, name, p.Index, p.Count)
	}
	return fmt.Sprintf("%s %s [%d]", p.Kind, name, p.Index)
}

// FindConstant returns the position of the constant parameter whose slot
// range contains index, or -1.
func FindConstant(params []Parameter, index uint32) int {
	for i := range params {
		if params[i].IsConstant() && params[i].Contains(index) {
			return i
		}
	}
	return -1
}

// FindAttribute returns the position of the attribute parameter declared
// at index, or -1. Samplers are not considered.
func FindAttribute(params []Parameter, index uint32) int {
	for i := range params {
		p := &params[i]
		if !p.IsConstant() && !p.Type.IsSampler() && p.Index == index {
			return i
		}
	}
	return -1
}
