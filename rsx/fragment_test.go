package rsx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/rsxc/ir"
)

func fpOpcode(w [4]uint32) uint32 {
	return w[0] >> fpOpcodeShift & fpOpcodeMask
}

func floatWords(v ...float32) [4]uint32 {
	var out [4]uint32
	for i, f := range v {
		out[i] = math.Float32bits(f)
	}
	return out
}

func TestCompileFragmentDeclaredConstant(t *testing.T) {
	source := `!!FP1.0
#var float4 tint :  : c[0] : 0 : 1
#default tint = 1 0.5 0.25 1
MOVR result.color, c[0];
END
`
	out := mustCompile(t, ir.KindFragment, source)

	require.Len(t, out.Instructions, 2)
	w := out.Instructions[0].Words
	assert.Equal(t, uint32(fpMOV), fpOpcode(w))
	assert.NotZero(t, w[0]&fpProgramEnd)
	assert.Equal(t, uint32(0), w[0]>>fpOutRegShift&fpOutRegMask)
	assert.Equal(t, uint32(0xF), w[0]>>fpOutMaskShift&fpOutMaskMask)
	assert.Equal(t, uint32(fpRegConst), fragmentSource(w, 0)&fpRegTypeMask)
	assert.Equal(t, uint32(CondTR), w[1]>>fpCondShift&fpCondMask)

	assert.Equal(t, floatWords(1, 0.5, 0.25, 1), out.Instructions[1].Words)
	assert.Equal(t, []FragmentData{{Index: 0, Offset: 1}}, out.FragmentData)
	assert.Equal(t, []Relocation{{Instruction: 1, Target: 16, Param: 0}}, out.Relocations)
	assert.Equal(t, []ConstantBinding{{Param: 0, Slots: []uint32{16}}}, out.Constants)
	assert.Equal(t, uint32(2), out.RegisterCount)
	assert.Zero(t, out.Control)
}

func TestCompileFragmentLiterals(t *testing.T) {
	source := `!!FP1.0
MULR R0, f[COL0], {0.5, 0.5, 0.5, 1};
ADDR R2.x, R0, {1};
MOVR R0, R2;
`
	out := mustCompile(t, ir.KindFragment, source)

	require.Len(t, out.Instructions, 5)
	assert.Equal(t, floatWords(0.5, 0.5, 0.5, 1), out.Instructions[1].Words)
	assert.Equal(t, floatWords(1, 1, 1, 1), out.Instructions[3].Words)
	assert.Equal(t, []FragmentData{{Index: 0, Offset: 1}, {Index: 1, Offset: 3}}, out.FragmentData)

	// Literals are internal: they get data slots but no table entries.
	assert.Empty(t, out.Constants)

	for i, inst := range out.Instructions {
		end := inst.Words[0]&fpProgramEnd != 0
		assert.Equal(t, i == 4, end, "PROGRAM_END on slot %d", i)
	}

	mul := out.Instructions[0].Words
	assert.Equal(t, uint32(ir.InColor0), mul[0]>>fpInputSrcShift&fpInputSrcMask)
	assert.Equal(t, uint32(fpRegInput), fragmentSource(mul, 0)&fpRegTypeMask)
	assert.Equal(t, uint32(1<<ir.InColor0), out.InputMask)
	assert.Equal(t, uint32(3), out.RegisterCount)

	add := out.Instructions[2].Words
	assert.Equal(t, uint32(2), add[0]>>fpOutRegShift&fpOutRegMask)
	assert.Equal(t, uint32(ir.MaskX), add[0]>>fpOutMaskShift&fpOutMaskMask)
}

func TestCompileFragmentKill(t *testing.T) {
	out := mustCompile(t, ir.KindFragment, "!!FP1.0\nKIL -f[TEX0].x;\nKIL;\nMOVR R0, f[COL0];\n")

	require.Len(t, out.Instructions, 4)
	test := out.Instructions[0].Words
	assert.Equal(t, uint32(fpMOV), fpOpcode(test))
	assert.NotZero(t, test[0]&fpOutNone)
	assert.NotZero(t, test[0]&fpCondWrite)
	assert.Equal(t, uint32(0xF), test[0]>>fpOutMaskShift&fpOutMaskMask)
	assert.NotZero(t, fragmentSource(test, 0)&fpNegate)

	kil := out.Instructions[1].Words
	assert.Equal(t, uint32(fpKIL), fpOpcode(kil))
	assert.Equal(t, uint32(CondLT), kil[1]>>fpCondShift&fpCondMask)
	assert.NotZero(t, kil[0]&fpOutNone)

	bare := out.Instructions[2].Words
	assert.Equal(t, uint32(fpKIL), fpOpcode(bare))
	assert.Equal(t, uint32(CondTR), bare[1]>>fpCondShift&fpCondMask)

	assert.Equal(t, ControlKill, out.Control)
}

func TestCompileFragmentDepth(t *testing.T) {
	out := mustCompile(t, ir.KindFragment, "!!FP1.0\nMOVR result.depth, f[WPOS].z;\nMOVR result.color, f[COL0];\n")

	w := out.Instructions[0].Words
	assert.Equal(t, uint32(1), w[0]>>fpOutRegShift&fpOutRegMask)
	assert.Equal(t, uint32(ir.MaskZ), w[0]>>fpOutMaskShift&fpOutMaskMask)
	assert.Equal(t, ControlDepthReplace, out.Control)
	assert.Equal(t, uint32(2), out.RegisterCount)
}

func TestCompileFragmentMatrixBinding(t *testing.T) {
	source := `!!FP1.0
#var float4x4 m :  : c[4], 2 : 0 : 1
#default m = 1 2 3 4 5 6 7 8
DP4R R0.x, f[TEX0], c[4];
DP4R R0.y, f[TEX0], c[5];
`
	out := mustCompile(t, ir.KindFragment, source)

	require.Len(t, out.Instructions, 4)
	assert.Equal(t, floatWords(1, 2, 3, 4), out.Instructions[1].Words)
	assert.Equal(t, floatWords(5, 6, 7, 8), out.Instructions[3].Words)
	assert.Equal(t, []ConstantBinding{{Param: 0, Slots: []uint32{16, 32}}}, out.Constants)
	assert.Equal(t, []Relocation{
		{Instruction: 1, Target: 16, Param: 0},
		{Instruction: 3, Target: 48, Param: 0},
	}, out.Relocations)
}

func TestCompileFragmentTexture(t *testing.T) {
	out := mustCompile(t, ir.KindFragment, "!!FP1.0\nTEXH H2, f[TEX1], TEX3, 2D;\nMOVH H0, H2;\nMOVR R0, H5;\n")

	w := out.Instructions[0].Words
	assert.Equal(t, uint32(fpTEX), fpOpcode(w))
	assert.Equal(t, uint32(3), w[0]>>fpTexUnitShift&fpTexUnitMask)
	assert.Equal(t, uint32(ir.InTexCoord0+1), w[0]>>fpInputSrcShift&fpInputSrcMask)
	assert.Equal(t, uint32(ir.PrecisionHalf), w[0]>>fpPrecisionShift&fpPrecisionMask)
	assert.NotZero(t, w[0]&fpOutRegHalf)

	// H5 packs into R2.
	assert.Equal(t, uint32(3), out.RegisterCount)
}

func TestCompileFragmentModifiers(t *testing.T) {
	out := mustCompile(t, ir.KindFragment, "!!FP1.0\nSUBR_SAT R0, |R1|.w, R2;\nABSRC R3, -R4;\n")

	sub := out.Instructions[0].Words
	assert.Equal(t, uint32(fpADD), fpOpcode(sub))
	assert.NotZero(t, sub[0]&fpOutSat)
	assert.NotZero(t, sub[1]&fpSrc0Abs)
	assert.Equal(t, uint32(0xFF), fragmentSource(sub, 0)>>fpSwizzleShift&fpSwizzleMask)
	assert.NotZero(t, fragmentSource(sub, 1)&fpNegate)
	assert.Equal(t, uint32(2), fragmentSource(sub, 1)>>fpSrcShift&fpSrcMask)
	assert.Equal(t, uint32(fpUnusedSource), fragmentSource(sub, 2))

	abs := out.Instructions[1].Words
	assert.Equal(t, uint32(fpMOV), fpOpcode(abs))
	assert.NotZero(t, abs[1]&fpSrc0Abs)
	assert.NotZero(t, abs[0]&fpCondWrite)
	assert.NotZero(t, fragmentSource(abs, 0)&fpNegate)
	assert.Equal(t, uint32(5), out.RegisterCount)
}

func TestCompileFragmentErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		opts   Options
		kind   ErrorKind
	}{
		{"empty", "!!FP1.0\nEND\n", Options{}, ErrEmptyProgram},
		{"unread constant", "#var float4 k :  : c[3] : 0 : 1\nMOVR R0, f[COL0];", Options{}, ErrUnresolvedRelocation},
		{"undeclared constant", "MOVR R0, c[1];", Options{}, ErrUndeclaredParameter},
		{"two inputs", "ADDR R0, f[COL0], f[COL1];", Options{}, ErrOperandConflict},
		{"two constants", "ADDR R0, {1}, {2};", Options{}, ErrOperandConflict},
		{"register range", "MOVR R64, R0;", Options{}, ErrRegisterRange},
		{"texture unit", "TEX R0, f[TEX0], TEX16, 2D;", Options{}, ErrRegisterRange},
		{"slots", "MOVR R0, {1};\nMOVR R1, {2};", Options{MaxFragmentInstructions: 3}, ErrTooManyInstructions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileError(t, ir.KindFragment, tt.source, tt.opts)
			assert.Equal(t, tt.kind, err.Kind, err.Error())
		})
	}
}

func TestHalfSwap(t *testing.T) {
	assert.Equal(t, uint32(0x56781234), HalfSwap(0x12345678))
	assert.Equal(t, uint32(0x12345678), HalfSwap(HalfSwap(0x12345678)))
}
