package rsx

// Vertex instruction word layout. Each field is named by the word it lives
// in (D0..D3), its shift and its width mask.
const (
	// D0
	vpAddrSwzShift     = 0
	vpAddrSwzMask      = 0x3
	vpCondSwzShift     = 2
	vpCondSwzMask      = 0xFF
	vpCondShift        = 10
	vpCondMask         = 0x7
	vpCondTest         = 1 << 13
	vpCondUpdate       = 1 << 14
	vpVecDestTempShift = 15
	vpVecDestTempMask  = 0x3F
	vpSrc0Abs          = 1 << 22
	vpSrc1Abs          = 1 << 23
	vpSrc2Abs          = 1 << 24
	vpAddrRegSelect1   = 1 << 25
	vpSaturate         = 1 << 26
	vpIndexInput       = 1 << 27
	vpScaResult        = 1 << 28
	vpVecResult        = 1 << 30

	// D1
	vpSrc0HighShift = 0
	vpSrc0HighMask  = 0xFF
	vpInputSrcShift = 8
	vpInputSrcMask  = 0xF
	vpConstSrcShift = 12
	vpConstSrcMask  = 0x3FF
	vpVecOpShift    = 22
	vpVecOpMask     = 0x1F
	vpScaOpShift    = 27
	vpScaOpMask     = 0x1F

	// D2
	vpSrc2HighShift = 0
	vpSrc2HighMask  = 0x3F
	vpSrc1Shift     = 6
	vpSrc1Mask      = 0x1FFFF
	vpSrc0LowShift  = 23
	vpSrc0LowMask   = 0x1FF

	// D3
	vpLast             = 1 << 0
	vpIndexConst       = 1 << 1
	vpDestShift        = 2
	vpDestMask         = 0x1F
	vpScaDestTempShift = 7
	vpScaDestTempMask  = 0x3F
	vpVecMaskShift     = 13
	vpScaMaskShift     = 17
	vpWriteMaskMask    = 0xF
	vpSrc2LowShift     = 21
	vpSrc2LowMask      = 0x7FF

	vpNoDestTemp = 0x3F
	vpNoDest     = 0x1F
)

// Vertex source operand layout (17 bits).
const (
	vpRegTypeMask    = 0x3
	vpRegTemp        = 1
	vpRegInput       = 2
	vpRegConst       = 3
	vpTempShift      = 2
	vpTempMask       = 0x3F
	vpSwizzleShift   = 8
	vpSwizzleMask    = 0xFF
	vpNegate         = 1 << 16
	vpSrc0HighBits   = 9  // src0 bits held in D2
	vpSrc2HighBits   = 11 // src2 bits held in D3
	vpSourceBits     = 17
	vpIdentitySwz    = 0<<6 | 1<<4 | 2<<2 | 3
	vpUnusedSource   = vpRegTemp | vpIdentitySwz<<vpSwizzleShift
	vpDefaultCond    = CondTR
	vpDefaultCondSwz = vpIdentitySwz
)

// Vector unit opcodes.
const (
	vecNOP = 0x00
	vecMOV = 0x01
	vecMUL = 0x02
	vecADD = 0x03
	vecMAD = 0x04
	vecDP3 = 0x05
	vecDPH = 0x06
	vecDP4 = 0x07
	vecDST = 0x08
	vecMIN = 0x09
	vecMAX = 0x0A
	vecSLT = 0x0B
	vecSGE = 0x0C
	vecARL = 0x0D
	vecFRC = 0x0E
	vecFLR = 0x0F
	vecSEQ = 0x10
	vecSFL = 0x11
	vecSGT = 0x12
	vecSLE = 0x13
	vecSNE = 0x14
	vecSTR = 0x15
	vecSSG = 0x16
	vecARR = 0x17
	vecARA = 0x18
)

// Scalar unit opcodes.
const (
	scaNOP = 0x00
	scaMOV = 0x01
	scaRCP = 0x02
	scaRCC = 0x03
	scaRSQ = 0x04
	scaEXP = 0x05
	scaLOG = 0x06
	scaLIT = 0x07
	scaLG2 = 0x0D
	scaEX2 = 0x0E
	scaSIN = 0x0F
	scaCOS = 0x10
)

// Condition codes shared by both units.
const (
	CondFL = 0
	CondLT = 1
	CondEQ = 2
	CondLE = 3
	CondGT = 4
	CondNE = 5
	CondGE = 6
	CondTR = 7
)

// vecOp describes a vector unit opcode and which source slots its operands
// occupy.
type vecOp struct {
	code  uint32
	slots []int
}

var vectorOps = map[string]vecOp{
	"NOP": {vecNOP, nil},
	"MOV": {vecMOV, []int{0}},
	"ABS": {vecMOV, []int{0}},
	"MUL": {vecMUL, []int{0, 1}},
	"ADD": {vecADD, []int{0, 2}},
	"SUB": {vecADD, []int{0, 2}},
	"MAD": {vecMAD, []int{0, 1, 2}},
	"DP3": {vecDP3, []int{0, 1}},
	"DPH": {vecDPH, []int{0, 1}},
	"DP4": {vecDP4, []int{0, 1}},
	"DST": {vecDST, []int{0, 1}},
	"MIN": {vecMIN, []int{0, 1}},
	"MAX": {vecMAX, []int{0, 1}},
	"SLT": {vecSLT, []int{0, 1}},
	"SGE": {vecSGE, []int{0, 1}},
	"SEQ": {vecSEQ, []int{0, 1}},
	"SFL": {vecSFL, []int{0, 1}},
	"SGT": {vecSGT, []int{0, 1}},
	"SLE": {vecSLE, []int{0, 1}},
	"SNE": {vecSNE, []int{0, 1}},
	"STR": {vecSTR, []int{0, 1}},
	"SSG": {vecSSG, []int{0}},
	"FRC": {vecFRC, []int{0}},
	"FLR": {vecFLR, []int{0}},
	"ARL": {vecARL, []int{0}},
	"ARR": {vecARR, []int{0}},
	"ARA": {vecARA, []int{0}},
}

var scalarOps = map[string]uint32{
	"RCP": scaRCP,
	"RCC": scaRCC,
	"RSQ": scaRSQ,
	"EXP": scaEXP,
	"LOG": scaLOG,
	"LIT": scaLIT,
	"LG2": scaLG2,
	"EX2": scaEX2,
	"SIN": scaSIN,
	"COS": scaCOS,
}

var vectorNames = invert(vectorOps, func(op vecOp) uint32 { return op.code }, "ABS", "SUB")
var scalarNames = invert(scalarOps, func(code uint32) uint32 { return code })

// invert builds a code to mnemonic table, skipping pseudo ops that share
// an encoding.
func invert[T any](table map[string]T, code func(T) uint32, skip ...string) map[uint32]string {
	out := make(map[uint32]string, len(table))
	for name, v := range table {
		skipped := false
		for _, s := range skip {
			skipped = skipped || s == name
		}
		if !skipped {
			out[code(v)] = name
		}
	}
	return out
}

// Vertex output register numbers in the DEST field, and the output mask
// bit each one sets. HPOS has no mask bit.
var vertexOutputBits = map[int]uint32{
	1: 1 << 0, // COL0
	2: 1 << 1, // COL1
	3: 1 << 2, // BFC0
	4: 1 << 3, // BFC1
	5: 1 << 4, // FOGC
	6: 1 << 5, // PSIZ
}

const (
	vpOutTexCoord0    = 7
	vpOutTexCoordBit  = 14
	vpMaxOutput       = vpOutTexCoord0 + 7
	vpMaxConstantSlot = vpConstSrcMask
)

// vertexOutputBit returns the output mask bit for a DEST register number.
func vertexOutputBit(dest int) uint32 {
	if dest >= vpOutTexCoord0 {
		return 1 << (vpOutTexCoordBit + dest - vpOutTexCoord0)
	}
	return vertexOutputBits[dest]
}

// vpSwizzle packs a swizzle with x in the high bits.
func vpSwizzle(sw [4]uint8) uint32 {
	return uint32(sw[0]&3)<<6 | uint32(sw[1]&3)<<4 | uint32(sw[2]&3)<<2 | uint32(sw[3]&3)
}

func vpUnswizzle(v uint32) [4]uint8 {
	return [4]uint8{uint8(v>>6) & 3, uint8(v>>4) & 3, uint8(v>>2) & 3, uint8(v) & 3}
}

// vpWriteMask packs a write mask with x in the high bit.
func vpWriteMask(m uint8) uint32 {
	var out uint32
	for i := 0; i < 4; i++ {
		if m&(1<<i) != 0 {
			out |= 1 << (3 - i)
		}
	}
	return out
}

func vpUnmask(v uint32) uint8 {
	var out uint8
	for i := 0; i < 4; i++ {
		if v&(1<<(3-i)) != 0 {
			out |= 1 << i
		}
	}
	return out
}

// setVertexSource stores a 17-bit source operand into slot 0, 1 or 2.
func setVertexSource(w *[4]uint32, slot int, src uint32) {
	switch slot {
	case 0:
		w[1] = w[1]&^(vpSrc0HighMask<<vpSrc0HighShift) | (src>>vpSrc0HighBits)&vpSrc0HighMask<<vpSrc0HighShift
		w[2] = w[2]&^(vpSrc0LowMask<<vpSrc0LowShift) | (src&vpSrc0LowMask)<<vpSrc0LowShift
	case 1:
		w[2] = w[2]&^(vpSrc1Mask<<vpSrc1Shift) | (src&vpSrc1Mask)<<vpSrc1Shift
	case 2:
		w[2] = w[2]&^(vpSrc2HighMask<<vpSrc2HighShift) | (src>>vpSrc2HighBits)&vpSrc2HighMask<<vpSrc2HighShift
		w[3] = w[3]&^(vpSrc2LowMask<<vpSrc2LowShift) | (src&vpSrc2LowMask)<<vpSrc2LowShift
	}
}

// vertexSource extracts the 17-bit source operand in slot 0, 1 or 2.
func vertexSource(w [4]uint32, slot int) uint32 {
	switch slot {
	case 0:
		return (w[1]>>vpSrc0HighShift&vpSrc0HighMask)<<vpSrc0HighBits | w[2]>>vpSrc0LowShift&vpSrc0LowMask
	case 1:
		return w[2] >> vpSrc1Shift & vpSrc1Mask
	default:
		return (w[2]>>vpSrc2HighShift&vpSrc2HighMask)<<vpSrc2HighBits | w[3]>>vpSrc2LowShift&vpSrc2LowMask
	}
}

func vertexAbsBit(slot int) uint32 {
	switch slot {
	case 0:
		return vpSrc0Abs
	case 1:
		return vpSrc1Abs
	default:
		return vpSrc2Abs
	}
}

// relocateVertex points the CONST_SRC field at a resolved constant slot.
func relocateVertex(w *[4]uint32, slot uint32) {
	w[1] = w[1]&^(vpConstSrcMask<<vpConstSrcShift) | (slot&vpConstSrcMask)<<vpConstSrcShift
}
