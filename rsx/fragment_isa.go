package rsx

// Fragment instruction word layout.
const (
	// W0
	fpProgramEnd     = 1 << 0
	fpOutRegShift    = 1
	fpOutRegMask     = 0x3F
	fpOutRegHalf     = 1 << 7
	fpCondWrite      = 1 << 8
	fpOutMaskShift   = 9
	fpOutMaskMask    = 0xF
	fpInputSrcShift  = 13
	fpInputSrcMask   = 0xF
	fpTexUnitShift   = 17
	fpTexUnitMask    = 0xF
	fpPrecisionShift = 22
	fpPrecisionMask  = 0x3
	fpOpcodeShift    = 24
	fpOpcodeMask     = 0x3F
	fpOutNone        = 1 << 30
	fpOutSat         = 1 << 31

	// W1
	fpCondShift    = 18
	fpCondMask     = 0x7
	fpCondSwzShift = 21
	fpCondSwzMask  = 0xFF
	fpSrc0Abs      = 1 << 29

	// W2
	fpSrc1Abs        = 1 << 18
	fpDstScaleShift  = 28
	fpDstScaleMask   = 0x7
	fpIsBranch       = 1 << 31
	fpScaleNone      = 0
	fpRegisterFields = 0x3FFFF

	// W3
	fpSrc2Abs        = 1 << 18
	fpAddrIndexShift = 19
	fpIndexInput     = 1 << 30
)

// Fragment source register field (18 bits, low part of W1..W3).
const (
	fpRegTypeMask  = 0x3
	fpRegTemp      = 0
	fpRegInput     = 1
	fpRegConst     = 2
	fpSrcShift     = 2
	fpSrcMask      = 0x3F
	fpRegHalf      = 1 << 8
	fpSwizzleShift = 9
	fpSwizzleMask  = 0xFF
	fpNegate       = 1 << 17

	fpIdentitySwz  = 0 | 1<<2 | 2<<4 | 3<<6
	fpUnusedSource = fpRegTemp | fpIdentitySwz<<fpSwizzleShift
	fpMaxRegister  = fpSrcMask
)

// Fragment opcodes.
const (
	fpNOP   = 0x00
	fpMOV   = 0x01
	fpMUL   = 0x02
	fpADD   = 0x03
	fpMAD   = 0x04
	fpDP3   = 0x05
	fpDP4   = 0x06
	fpDST   = 0x07
	fpMIN   = 0x08
	fpMAX   = 0x09
	fpSLT   = 0x0A
	fpSGE   = 0x0B
	fpSLE   = 0x0C
	fpSGT   = 0x0D
	fpSNE   = 0x0E
	fpSEQ   = 0x0F
	fpFRC   = 0x10
	fpFLR   = 0x11
	fpKIL   = 0x12
	fpPK4B  = 0x13
	fpUP4B  = 0x14
	fpDDX   = 0x15
	fpDDY   = 0x16
	fpTEX   = 0x17
	fpTXP   = 0x18
	fpTXD   = 0x19
	fpRCP   = 0x1A
	fpRSQ   = 0x1B
	fpEX2   = 0x1C
	fpLG2   = 0x1D
	fpLIT   = 0x1E
	fpLRP   = 0x1F
	fpSTR   = 0x20
	fpSFL   = 0x21
	fpCOS   = 0x22
	fpSIN   = 0x23
	fpPK2H  = 0x24
	fpUP2H  = 0x25
	fpPOW   = 0x26
	fpPK4UB = 0x27
	fpUP4UB = 0x28
	fpPK2US = 0x29
	fpUP2US = 0x2A
	fpDP2A  = 0x2E
	fpTXL   = 0x2F
	fpTXB   = 0x31
	fpDP2   = 0x38
	fpNRM   = 0x39
	fpDIV   = 0x3A
)

var fragmentOps = map[string]uint32{
	"NOP":   fpNOP,
	"MOV":   fpMOV,
	"ABS":   fpMOV,
	"MUL":   fpMUL,
	"ADD":   fpADD,
	"SUB":   fpADD,
	"MAD":   fpMAD,
	"DP3":   fpDP3,
	"DP4":   fpDP4,
	"DST":   fpDST,
	"MIN":   fpMIN,
	"MAX":   fpMAX,
	"SLT":   fpSLT,
	"SGE":   fpSGE,
	"SLE":   fpSLE,
	"SGT":   fpSGT,
	"SNE":   fpSNE,
	"SEQ":   fpSEQ,
	"FRC":   fpFRC,
	"FLR":   fpFLR,
	"KIL":   fpKIL,
	"PK4B":  fpPK4B,
	"UP4B":  fpUP4B,
	"DDX":   fpDDX,
	"DDY":   fpDDY,
	"TEX":   fpTEX,
	"TXP":   fpTXP,
	"TXD":   fpTXD,
	"RCP":   fpRCP,
	"RSQ":   fpRSQ,
	"EX2":   fpEX2,
	"LG2":   fpLG2,
	"LIT":   fpLIT,
	"LRP":   fpLRP,
	"STR":   fpSTR,
	"SFL":   fpSFL,
	"COS":   fpCOS,
	"SIN":   fpSIN,
	"PK2H":  fpPK2H,
	"UP2H":  fpUP2H,
	"POW":   fpPOW,
	"PK4UB": fpPK4UB,
	"UP4UB": fpUP4UB,
	"PK2US": fpPK2US,
	"UP2US": fpUP2US,
	"DP2A":  fpDP2A,
	"TXL":   fpTXL,
	"TXB":   fpTXB,
	"DP2":   fpDP2,
	"NRM":   fpNRM,
	"DIV":   fpDIV,
}

var fragmentNames = invert(fragmentOps, func(code uint32) uint32 { return code }, "ABS", "SUB")

// fpSwizzle packs a swizzle with x in the low bits.
func fpSwizzle(sw [4]uint8) uint32 {
	return uint32(sw[0]&3) | uint32(sw[1]&3)<<2 | uint32(sw[2]&3)<<4 | uint32(sw[3]&3)<<6
}

func fpUnswizzle(v uint32) [4]uint8 {
	return [4]uint8{uint8(v) & 3, uint8(v>>2) & 3, uint8(v>>4) & 3, uint8(v>>6) & 3}
}

// fpSourceAbs returns the abs bit and the word of source slot 0, 1 or 2.
func fpSourceAbs(slot int) (word int, bit uint32) {
	switch slot {
	case 0:
		return 1, fpSrc0Abs
	case 1:
		return 2, fpSrc1Abs
	default:
		return 3, fpSrc2Abs
	}
}

// setFragmentSource stores an 18-bit register field into slot 0, 1 or 2.
func setFragmentSource(w *[4]uint32, slot int, src uint32) {
	word := slot + 1
	w[word] = w[word]&^fpRegisterFields | src&fpRegisterFields
}

func fragmentSource(w [4]uint32, slot int) uint32 {
	return w[slot+1] & fpRegisterFields
}

// HalfSwap exchanges the 16-bit halves of a fragment microcode word. The
// fragment unit fetches microcode with swapped half words.
func HalfSwap(v uint32) uint32 {
	return v<<16 | v>>16
}

// readsConstant reports whether any source of an encoded fragment
// instruction names a constant, meaning a data slot follows it.
func readsConstant(w [4]uint32) bool {
	op := w[0] >> fpOpcodeShift & fpOpcodeMask
	if op == fpNOP {
		return false
	}
	for slot := 0; slot < 3; slot++ {
		if fragmentSource(w, slot)&fpRegTypeMask == fpRegConst {
			return true
		}
	}
	return false
}
