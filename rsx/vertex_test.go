package rsx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/rsxc/asm"
	"github.com/gogpu/rsxc/ir"
)

const transformVP = `!!VP2.0
#var float4 position : $vin.POSITION : ATTR0 : 0 : 1
#var float4 color : $vin.COLOR0 : ATTR3 : 1 : 1
#var float4x4 mvp :  : c[0], 4 : 2 : 1
#const c[4] = 1 0 0 1
DP4 o[HPOS].x, c[0], v[0];
DP4 o[HPOS].y, c[1], v[0];
DP4 o[HPOS].z, c[2], v[0];
DP4 o[HPOS].w, c[3], v[0];
MUL o[COL0], v[3], c[4];
END
`

func compile(t *testing.T, kind ir.ProgramKind, source string, opts Options) (*Program, error) {
	t.Helper()
	program, err := asm.Parse(source, kind)
	require.NoError(t, err)
	return Compile(program, opts)
}

func mustCompile(t *testing.T, kind ir.ProgramKind, source string) *Program {
	t.Helper()
	out, err := compile(t, kind, source, DefaultOptions())
	require.NoError(t, err)
	return out
}

func compileError(t *testing.T, kind ir.ProgramKind, source string, opts Options) *Error {
	t.Helper()
	_, err := compile(t, kind, source, opts)
	require.Error(t, err)
	var cerr *Error
	require.True(t, errors.As(err, &cerr), "expected *rsx.Error, got %T", err)
	return cerr
}

func vpConstSrc(w [4]uint32) uint32 {
	return w[1] >> vpConstSrcShift & vpConstSrcMask
}

func TestCompileVertexTransform(t *testing.T) {
	out := mustCompile(t, ir.KindVertex, transformVP)

	require.Len(t, out.Instructions, 5)
	assert.Equal(t, ir.KindVertex, out.Kind)
	assert.Equal(t, uint32(1<<0|1<<3), out.InputMask)
	assert.Equal(t, uint32(1<<0), out.OutputMask)
	assert.Equal(t, []int{0, 1}, out.Attributes)

	require.Len(t, out.Constants, 2)
	assert.Equal(t, ConstantBinding{Param: 2, Slots: []uint32{0, 1, 2, 3}}, out.Constants[0])
	assert.Equal(t, ConstantBinding{Param: 3, Slots: []uint32{4}}, out.Constants[1])

	require.Len(t, out.Relocations, 5)
	for i, r := range out.Relocations {
		assert.Equal(t, i, r.Instruction)
		assert.Equal(t, uint32(i), r.Target)
		assert.Equal(t, uint32(i), vpConstSrc(out.Instructions[i].Words), "instruction %d", i)
	}
	assert.Equal(t, 2, out.Relocations[3].Param)
	assert.Equal(t, 3, out.Relocations[4].Param)

	for i, inst := range out.Instructions {
		assert.Equal(t, i == 4, inst.Words[3]&vpLast != 0, "LAST bit on instruction %d", i)
	}

	w := out.Instructions[0].Words
	assert.Equal(t, uint32(vecDP4), w[1]>>vpVecOpShift&vpVecOpMask)
	assert.Equal(t, uint32(scaNOP), w[1]>>vpScaOpShift&vpScaOpMask)
	assert.NotZero(t, w[0]&vpVecResult)
	assert.Equal(t, uint32(0), w[3]>>vpDestShift&vpDestMask)
	assert.Equal(t, uint32(0x8), w[3]>>vpVecMaskShift&vpWriteMaskMask)
	assert.Equal(t, uint32(vpNoDestTemp), w[0]>>vpVecDestTempShift&vpVecDestTempMask)
	assert.Equal(t, uint32(vpRegConst), vertexSource(w, 0)&vpRegTypeMask)
	assert.Equal(t, uint32(vpRegInput), vertexSource(w, 1)&vpRegTypeMask)
	assert.Equal(t, uint32(vpUnusedSource), vertexSource(w, 2))

	w = out.Instructions[3].Words
	assert.Equal(t, uint32(0x1), w[3]>>vpVecMaskShift&vpWriteMaskMask)

	w = out.Instructions[4].Words
	assert.Equal(t, uint32(3), w[1]>>vpInputSrcShift&vpInputSrcMask)
	assert.Equal(t, uint32(1), w[3]>>vpDestShift&vpDestMask)
}

func TestCompileVertexDeterministic(t *testing.T) {
	a := mustCompile(t, ir.KindVertex, transformVP)
	b := mustCompile(t, ir.KindVertex, transformVP)
	assert.Equal(t, a, b)
}

func TestCompileVertexConstantSlots(t *testing.T) {
	source := `!!VP2.0
#var float4 k :  : c[10] : 0 : 1
#var float3x3 m :  : c[2] : 1 : 1
MOV R0, c[3];
MOV R1, c[10];
`
	out := mustCompile(t, ir.KindVertex, source)

	assert.Equal(t, []ConstantBinding{
		{Param: 0, Slots: []uint32{0}},
		{Param: 1, Slots: []uint32{1, 2, 3}},
	}, out.Constants)
	assert.Equal(t, uint32(2), vpConstSrc(out.Instructions[0].Words))
	assert.Equal(t, uint32(0), vpConstSrc(out.Instructions[1].Words))
	assert.Equal(t, []Relocation{
		{Instruction: 0, Target: 2, Param: 1},
		{Instruction: 1, Target: 0, Param: 0},
	}, out.Relocations)

	binding, ok := out.Binding(1)
	require.True(t, ok)
	assert.Equal(t, []uint32{1, 2, 3}, binding.Slots)
	_, ok = out.Binding(7)
	assert.False(t, ok)
}

func TestCompileVertexPseudoOps(t *testing.T) {
	source := `!!VP2.0
SUB R0, R1, -R2.x;
ABS R3.xy, R4;
`
	out := mustCompile(t, ir.KindVertex, source)

	sub := out.Instructions[0].Words
	assert.Equal(t, uint32(vecADD), sub[1]>>vpVecOpShift&vpVecOpMask)
	src2 := vertexSource(sub, 2)
	assert.Zero(t, src2&vpNegate, "double negation cancels")
	assert.Equal(t, uint32(2), src2>>vpTempShift&vpTempMask)
	assert.Equal(t, ir.Swizzle{0, 0, 0, 0}, ir.Swizzle(vpUnswizzle(src2>>vpSwizzleShift&vpSwizzleMask)))
	assert.Equal(t, uint32(vpUnusedSource), vertexSource(sub, 1))

	abs := out.Instructions[1].Words
	assert.Equal(t, uint32(vecMOV), abs[1]>>vpVecOpShift&vpVecOpMask)
	assert.NotZero(t, abs[0]&vpSrc0Abs)
	assert.Equal(t, uint32(3), abs[0]>>vpVecDestTempShift&vpVecDestTempMask)
	assert.Equal(t, uint32(0xC), abs[3]>>vpVecMaskShift&vpWriteMaskMask)
	assert.Equal(t, uint32(vpNoDest), abs[3]>>vpDestShift&vpDestMask)
}

func TestCompileVertexScalarOp(t *testing.T) {
	out := mustCompile(t, ir.KindVertex, "RCP_SAT R1.x, -R0.w;\nEX2C o[FOGC].x, R1.x;")

	w := out.Instructions[0].Words
	assert.Equal(t, uint32(vecNOP), w[1]>>vpVecOpShift&vpVecOpMask)
	assert.Equal(t, uint32(scaRCP), w[1]>>vpScaOpShift&vpScaOpMask)
	assert.Equal(t, uint32(1), w[3]>>vpScaDestTempShift&vpScaDestTempMask)
	assert.Equal(t, uint32(0x8), w[3]>>vpScaMaskShift&vpWriteMaskMask)
	assert.Zero(t, w[3]>>vpVecMaskShift&vpWriteMaskMask)
	assert.Equal(t, uint32(vpNoDestTemp), w[0]>>vpVecDestTempShift&vpVecDestTempMask)
	assert.NotZero(t, w[0]&vpSaturate)

	src := vertexSource(w, 2)
	assert.NotZero(t, src&vpNegate)
	assert.Equal(t, ir.Swizzle{3, 3, 3, 3}, ir.Swizzle(vpUnswizzle(src>>vpSwizzleShift&vpSwizzleMask)))

	w = out.Instructions[1].Words
	assert.NotZero(t, w[0]&vpScaResult)
	assert.Zero(t, w[0]&vpVecResult)
	assert.NotZero(t, w[0]&vpCondUpdate)
	assert.Equal(t, uint32(ir.OutFog), w[3]>>vpDestShift&vpDestMask)
	assert.Equal(t, uint32(1<<4), out.OutputMask)
}

func TestCompileVertexOutputMask(t *testing.T) {
	source := `!!VP2.0
MOV o[HPOS], R0;
MOV o[COL1], R0;
MOV o[BFC0], R0;
MOV o[PSIZ].x, R0;
MOV o[TEX2], R0;
MOV o[TEX7], R0;
`
	out := mustCompile(t, ir.KindVertex, source)
	assert.Equal(t, uint32(1<<1|1<<2|1<<5|1<<16|1<<21), out.OutputMask)
	assert.Zero(t, out.InputMask)
}

func TestCompileVertexRelativeAddressing(t *testing.T) {
	source := `!!VP2.0
#var float4 bones[0] :  : c[0], 8 : 0 : 1
#var float4 index : $vin.BLENDINDICES : ATTR7 : 1 : 1
ARL A1.x, v[7].x;
MOV R0, c[A1.y+2];
`
	out := mustCompile(t, ir.KindVertex, source)

	arl := out.Instructions[0].Words
	assert.Equal(t, uint32(vecARL), arl[1]>>vpVecOpShift&vpVecOpMask)
	assert.NotZero(t, arl[0]&vpAddrRegSelect1)
	assert.Equal(t, uint32(vpNoDestTemp), arl[0]>>vpVecDestTempShift&vpVecDestTempMask)

	mov := out.Instructions[1].Words
	assert.NotZero(t, mov[3]&vpIndexConst)
	assert.NotZero(t, mov[0]&vpAddrRegSelect1)
	assert.Equal(t, uint32(1), mov[0]>>vpAddrSwzShift&vpAddrSwzMask)
	assert.Equal(t, uint32(2), vpConstSrc(mov))
	assert.Equal(t, uint32(1<<7), out.InputMask)
}

func TestCompileVertexErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		opts   Options
		kind   ErrorKind
	}{
		{"empty", "!!VP2.0\nEND\n", Options{}, ErrEmptyProgram},
		{"undeclared constant", "MOV R0, c[3];", Options{}, ErrUndeclaredParameter},
		{"undeclared input", "MOV R0, v[2];", Options{}, ErrUndeclaredParameter},
		{"two inputs", "#var float4 a : $vin.A : ATTR0 : 0 : 1\n#var float4 b : $vin.B : ATTR1 : 1 : 1\nADD R0, v[0], v[1];", Options{}, ErrOperandConflict},
		{"two constants", "#var float4 a :  : c[0] : 0 : 1\n#var float4 b :  : c[1] : 1 : 1\nMUL R0, c[0], c[1];", Options{}, ErrOperandConflict},
		{"half register", "MOV H0, R1;", Options{}, ErrRegisterRange},
		{"temp range", "MOV R32, R1;", Options{}, ErrRegisterRange},
		{"arl into temp", "ARL R0.x, R1.x;", Options{}, ErrRegisterRange},
		{"mov into address", "MOV A0.x, R1.x;", Options{}, ErrRegisterRange},
		{"output range", "MOV o[TEX9], R0;", Options{}, ErrRegisterRange},
		{"too many instructions", "MOV R0, R1;\nMOV R0, R1;\nMOV R0, R1;", Options{MaxVertexInstructions: 2}, ErrTooManyInstructions},
		{"constant bank", "#var float4x4 m :  : c[0], 4 : 0 : 1\nMOV R0, c[0];", Options{MaxVertexConstants: 3}, ErrRegisterRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileError(t, ir.KindVertex, tt.source, tt.opts)
			assert.Equal(t, tt.kind, err.Kind, err.Error())
		})
	}
}

func TestCompileVertexSameConstantTwice(t *testing.T) {
	out := mustCompile(t, ir.KindVertex, "#var float4 a :  : c[5] : 0 : 1\nMAD R0, c[5].x, R1, c[5].y;")
	require.Len(t, out.Relocations, 1)
	assert.Equal(t, uint32(0), out.Relocations[0].Target)
}

func TestCompileVertexDefaultsLimits(t *testing.T) {
	var lines string
	for i := 0; i < MaxVertexInstructions+1; i++ {
		lines += "MOV R0, R1;\n"
	}
	err := compileError(t, ir.KindVertex, lines, Options{})
	assert.Equal(t, ErrTooManyInstructions, err.Kind)
	assert.Contains(t, err.Error(), "limit 512")
}

func TestCompileNil(t *testing.T) {
	_, err := Compile(nil, DefaultOptions())
	require.Error(t, err)
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "UndeclaredParameter", ErrUndeclaredParameter.String())
	assert.Equal(t, "UnresolvedRelocation", ErrUnresolvedRelocation.String())
	assert.Equal(t, "Unknown", ErrorKind(200).String())

	err := errorf(ErrOperandConflict, 3, "x")
	assert.Equal(t, "rsx OperandConflict at line 3: x", err.Error())
	assert.Equal(t, "rsx Internal: y", NewError(ErrInternal, "y").Error())
}
