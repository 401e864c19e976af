package ir

import "strings"

// RegisterFile identifies which hardware register bank an operand names.
type RegisterFile uint8

const (
	RegTemp RegisterFile = iota
	RegInput
	RegConstant
	RegOutput
	RegAddress
	RegTexture
)

// String returns the register file name.
func (f RegisterFile) String() string {
	switch f {
	case RegTemp:
		return "temp"
	case RegInput:
		return "input"
	case RegConstant:
		return "const"
	case RegOutput:
		return "output"
	case RegAddress:
		return "address"
	case RegTexture:
		return "texture"
	default:
		return "unknown"
	}
}

// Vertex program outputs (o[...] / result.*).
const (
	OutPosition = iota
	OutColor0
	OutColor1
	OutBackColor0
	OutBackColor1
	OutFog
	OutPointSize
	OutTexCoord0
)

// Fragment program inputs (f[...] / fragment.*), numbered as the hardware
// input selector.
const (
	InPosition  = 0
	InColor0    = 1
	InColor1    = 2
	InFog       = 3
	InTexCoord0 = 4
	InFacing    = 14
)

// Fragment outputs. Color target 0 and depth share the temp file with
// ordinary registers, so they are addressed as outputs by number and
// mapped to temps by the fragment compiler.
const (
	OutFragColor0 = 0
	OutFragDepth  = 1
)

// Register names one hardware register.
type Register struct {
	File  RegisterFile
	Index int

	// Half selects the 16-bit view of a temporary (H<n>).
	Half bool

	// Relative addressing for constants: c[A<Addr>.<AddrComp> + Index].
	Relative bool
	Addr     int
	AddrComp uint8
}

// Swizzle selects a source component for each destination lane.
type Swizzle [4]uint8

// IdentitySwizzle is .xyzw.
var IdentitySwizzle = Swizzle{0, 1, 2, 3}

const componentNames = "xyzw"

// String returns the swizzle in .xyzw notation without the dot.
func (s Swizzle) String() string {
	var b strings.Builder
	for _, c := range s {
		b.WriteByte(componentNames[c&3])
	}
	return b.String()
}

// ParseSwizzle parses 1 to 4 components of xyzw or rgba. A short swizzle
// repeats its last component.
func ParseSwizzle(s string) (Swizzle, bool) {
	if len(s) == 0 || len(s) > 4 {
		return Swizzle{}, false
	}
	var out Swizzle
	for i := 0; i < 4; i++ {
		ch := s[len(s)-1]
		if i < len(s) {
			ch = s[i]
		}
		c, ok := component(ch)
		if !ok {
			return Swizzle{}, false
		}
		out[i] = c
	}
	return out, true
}

func component(ch byte) (uint8, bool) {
	switch ch {
	case 'x', 'r':
		return 0, true
	case 'y', 'g':
		return 1, true
	case 'z', 'b':
		return 2, true
	case 'w', 'a':
		return 3, true
	}
	return 0, false
}

// WriteMask selects written destination lanes (bit 0 = x).
type WriteMask uint8

const (
	MaskX   WriteMask = 1 << 0
	MaskY   WriteMask = 1 << 1
	MaskZ   WriteMask = 1 << 2
	MaskW   WriteMask = 1 << 3
	MaskAll           = MaskX | MaskY | MaskZ | MaskW
)

// String returns the mask in xyzw notation.
func (m WriteMask) String() string {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		if m&(1<<i) != 0 {
			b.WriteByte(componentNames[i])
		}
	}
	return b.String()
}

// ParseWriteMask parses an ordered subset of xyzw (or rgba).
func ParseWriteMask(s string) (WriteMask, bool) {
	if len(s) == 0 || len(s) > 4 {
		return 0, false
	}
	var m WriteMask
	last := -1
	for i := 0; i < len(s); i++ {
		c, ok := component(s[i])
		if !ok || int(c) <= last {
			return 0, false
		}
		last = int(c)
		m |= 1 << c
	}
	return m, true
}

// Source is an instruction input operand.
type Source struct {
	Reg     Register
	Swizzle Swizzle
	Negate  bool
	Abs     bool
}

// Dest is an instruction destination operand.
type Dest struct {
	Reg  Register
	Mask WriteMask
}

// Precision is the fragment arithmetic precision selected by the R/H/X
// mnemonic suffix.
type Precision uint8

const (
	PrecisionFull Precision = iota
	PrecisionHalf
	PrecisionFixed
)

// TextureTarget is the sampler dimensionality of a texture instruction.
type TextureTarget uint8

const (
	Target1D TextureTarget = iota
	Target2D
	Target3D
	TargetCube
	TargetRect
)

// Instruction is one abstract assembly instruction.
type Instruction struct {
	// Line is the 1-based source line, kept for diagnostics.
	Line int

	// Op is the canonical mnemonic without suffixes.
	Op string

	Sat        bool
	CondUpdate bool
	Precision  Precision

	// Dst is nil for instructions without a destination (KIL, NOP).
	Dst *Dest
	Src []Source

	// TexUnit and TexTarget are set for texture instructions.
	TexUnit   int
	TexTarget TextureTarget
	HasTex    bool
}

// Reads returns the registers read by the instruction in operand order.
func (in *Instruction) Reads() []Register {
	regs := make([]Register, 0, len(in.Src))
	for _, s := range in.Src {
		regs = append(regs, s.Reg)
	}
	return regs
}
