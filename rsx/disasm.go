package rsx

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/rsxc/ir"
)

var vertexOutputNames = []string{
	"HPOS", "COL0", "COL1", "BFC0", "BFC1", "FOGC", "PSIZ",
	"TEX0", "TEX1", "TEX2", "TEX3", "TEX4", "TEX5", "TEX6", "TEX7",
}

var fragmentInputNames = map[uint32]string{
	0:  "WPOS",
	1:  "COL0",
	2:  "COL1",
	3:  "FOGC",
	14: "FACE",
}

var condNames = [...]string{"FL", "LT", "EQ", "LE", "GT", "NE", "GE", "TR"}

// fragmentArity is the source count of each fragment opcode.
var fragmentArity = map[uint32]int{
	fpNOP: 0, fpKIL: 0,
	fpMUL: 2, fpADD: 2, fpDP3: 2, fpDP4: 2, fpDST: 2, fpMIN: 2, fpMAX: 2,
	fpSLT: 2, fpSGE: 2, fpSLE: 2, fpSGT: 2, fpSNE: 2, fpSEQ: 2,
	fpSTR: 2, fpSFL: 2, fpPOW: 2, fpDP2: 2, fpDIV: 2,
	fpMAD: 3, fpLRP: 3, fpTXD: 3, fpDP2A: 3,
}

var fragmentTexture = map[uint32]bool{
	fpTEX: true, fpTXP: true, fpTXD: true, fpTXB: true, fpTXL: true,
}

// Disassemble renders microcode as assembly text, one instruction per
// line. Fragment words must already be in natural (unswapped) order.
func Disassemble(kind ir.ProgramKind, insts []Instruction) string {
	var sb strings.Builder
	if kind == ir.KindFragment {
		disassembleFragment(&sb, insts)
	} else {
		disassembleVertex(&sb, insts)
	}
	return sb.String()
}

// --- vertex ---

func disassembleVertex(sb *strings.Builder, insts []Instruction) {
	for i, inst := range insts {
		w := inst.Words
		vec := w[1] >> vpVecOpShift & vpVecOpMask
		sca := w[1] >> vpScaOpShift & vpScaOpMask

		fmt.Fprintf(sb, "%3d: ", i)
		switch {
		case vec == vecNOP && sca == scaNOP:
			sb.WriteString("NOP;")
		case vec != vecNOP:
			name := vectorNames[vec]
			if name == "" {
				name = fmt.Sprintf("VEC%#x", vec)
			}
			writeVertexOp(sb, w, name, vectorOps[name].slots, false)
			if sca != scaNOP {
				sb.WriteString(" + ")
				writeVertexOp(sb, w, scalarName(sca), []int{2}, true)
			}
		default:
			writeVertexOp(sb, w, scalarName(sca), []int{2}, true)
		}
		if w[3]&vpLast != 0 {
			sb.WriteString(" # last")
		}
		sb.WriteByte('\n')
	}
}

func scalarName(code uint32) string {
	if name, ok := scalarNames[code]; ok {
		return name
	}
	return fmt.Sprintf("SCA%#x", code)
}

func writeVertexOp(sb *strings.Builder, w [4]uint32, name string, slots []int, scalar bool) {
	sb.WriteString(name)
	if w[0]&vpCondUpdate != 0 {
		sb.WriteByte('C')
	}
	if w[0]&vpSaturate != 0 {
		sb.WriteString("_SAT")
	}
	sb.WriteByte(' ')

	maskShift, result, temp := uint32(vpVecMaskShift), w[0]&vpVecResult != 0, w[0]>>vpVecDestTempShift&vpVecDestTempMask
	if scalar {
		maskShift, result, temp = vpScaMaskShift, w[0]&vpScaResult != 0, w[3]>>vpScaDestTempShift&vpScaDestTempMask
	}
	mask := ir.WriteMask(vpUnmask(w[3] >> maskShift & vpWriteMaskMask))

	switch {
	case result:
		dest := w[3] >> vpDestShift & vpDestMask
		if int(dest) < len(vertexOutputNames) {
			fmt.Fprintf(sb, "o[%s]", vertexOutputNames[dest])
		} else {
			fmt.Fprintf(sb, "o[%d]", dest)
		}
	case temp != vpNoDestTemp:
		fmt.Fprintf(sb, "R%d", temp)
	default:
		addr := 0
		if w[0]&vpAddrRegSelect1 != 0 {
			addr = 1
		}
		fmt.Fprintf(sb, "A%d", addr)
	}
	if mask != ir.MaskAll {
		fmt.Fprintf(sb, ".%s", mask)
	}

	for _, slot := range slots {
		sb.WriteString(", ")
		writeVertexSource(sb, w, slot)
	}
	sb.WriteByte(';')
}

func writeVertexSource(sb *strings.Builder, w [4]uint32, slot int) {
	src := vertexSource(w, slot)
	var reg string
	switch src & vpRegTypeMask {
	case vpRegTemp:
		reg = fmt.Sprintf("R%d", src>>vpTempShift&vpTempMask)
	case vpRegInput:
		reg = fmt.Sprintf("v[%d]", w[1]>>vpInputSrcShift&vpInputSrcMask)
	case vpRegConst:
		index := w[1] >> vpConstSrcShift & vpConstSrcMask
		if w[3]&vpIndexConst != 0 {
			addr := 0
			if w[0]&vpAddrRegSelect1 != 0 {
				addr = 1
			}
			comp := "xyzw"[w[0]>>vpAddrSwzShift&vpAddrSwzMask]
			reg = fmt.Sprintf("c[A%d.%c+%d]", addr, comp, index)
		} else {
			reg = fmt.Sprintf("c[%d]", index)
		}
	default:
		reg = "?"
	}
	if sw := ir.Swizzle(vpUnswizzle(src >> vpSwizzleShift & vpSwizzleMask)); sw != ir.IdentitySwizzle {
		reg += "." + sw.String()
	}
	if w[0]&vertexAbsBit(slot) != 0 {
		reg = "|" + reg + "|"
	}
	if src&vpNegate != 0 {
		reg = "-" + reg
	}
	sb.WriteString(reg)
}

// --- fragment ---

func disassembleFragment(sb *strings.Builder, insts []Instruction) {
	for i := 0; i < len(insts); i++ {
		w := insts[i].Words
		var data *[4]uint32
		if readsConstant(w) && i+1 < len(insts) {
			data = &insts[i+1].Words
		}

		fmt.Fprintf(sb, "%3d: ", i)
		writeFragmentOp(sb, w, data)
		if w[0]&fpProgramEnd != 0 {
			sb.WriteString(" # end")
		}
		sb.WriteByte('\n')

		if data != nil {
			i++
			fmt.Fprintf(sb, "%3d: # data %s\n", i, literal(*data))
		}
	}
}

func writeFragmentOp(sb *strings.Builder, w [4]uint32, data *[4]uint32) {
	op := w[0] >> fpOpcodeShift & fpOpcodeMask
	name, ok := fragmentNames[op]
	if !ok {
		name = fmt.Sprintf("OP%#x", op)
	}
	sb.WriteString(name)
	if op != fpNOP && op != fpKIL {
		sb.WriteByte("RHX?"[w[0]>>fpPrecisionShift&fpPrecisionMask])
	}
	if w[0]&fpCondWrite != 0 {
		sb.WriteByte('C')
	}
	if w[0]&fpOutSat != 0 {
		sb.WriteString("_SAT")
	}

	if op == fpKIL {
		if cond := w[1] >> fpCondShift & fpCondMask; cond != CondTR {
			fmt.Fprintf(sb, " %s", condNames[cond])
		}
		sb.WriteByte(';')
		return
	}
	if op == fpNOP {
		sb.WriteByte(';')
		return
	}

	sb.WriteByte(' ')
	if w[0]&fpOutNone != 0 {
		sb.WriteString("RC")
	} else {
		prefix := "R"
		if w[0]&fpOutRegHalf != 0 {
			prefix = "H"
		}
		fmt.Fprintf(sb, "%s%d", prefix, w[0]>>fpOutRegShift&fpOutRegMask)
		if mask := ir.WriteMask(w[0] >> fpOutMaskShift & fpOutMaskMask); mask != ir.MaskAll {
			fmt.Fprintf(sb, ".%s", mask)
		}
	}

	arity, ok := fragmentArity[op]
	if !ok {
		arity = 1
	}
	for slot := 0; slot < arity; slot++ {
		sb.WriteString(", ")
		writeFragmentSource(sb, w, slot, data)
	}
	if fragmentTexture[op] {
		fmt.Fprintf(sb, ", TEX%d", w[0]>>fpTexUnitShift&fpTexUnitMask)
	}
	sb.WriteByte(';')
}

func writeFragmentSource(sb *strings.Builder, w [4]uint32, slot int, data *[4]uint32) {
	src := fragmentSource(w, slot)
	var reg string
	switch src & fpRegTypeMask {
	case fpRegTemp:
		prefix := "R"
		if src&fpRegHalf != 0 {
			prefix = "H"
		}
		reg = fmt.Sprintf("%s%d", prefix, src>>fpSrcShift&fpSrcMask)
	case fpRegInput:
		in := w[0] >> fpInputSrcShift & fpInputSrcMask
		if name, ok := fragmentInputNames[in]; ok {
			reg = fmt.Sprintf("f[%s]", name)
		} else {
			reg = fmt.Sprintf("f[TEX%d]", in-4)
		}
	case fpRegConst:
		if data != nil {
			reg = literal(*data)
		} else {
			reg = "{?}"
		}
	default:
		reg = "?"
	}
	if sw := ir.Swizzle(fpUnswizzle(src >> fpSwizzleShift & fpSwizzleMask)); sw != ir.IdentitySwizzle {
		reg += "." + sw.String()
	}
	if word, bit := fpSourceAbs(slot); w[word]&bit != 0 {
		reg = "|" + reg + "|"
	}
	if src&fpNegate != 0 {
		reg = "-" + reg
	}
	sb.WriteString(reg)
}

func literal(words [4]uint32) string {
	parts := make([]string, 4)
	for i, v := range words {
		parts[i] = fmt.Sprintf("%g", math.Float32frombits(v))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
