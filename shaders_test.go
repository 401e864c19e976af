package rsxc

import "github.com/gogpu/rsxc/ir"

// Shared test programs at different complexity levels.

const shaderSmallVertex = `!!VP2.0
#var float4 position : $vin.POSITION : ATTR0 : 0 : 1
MOV o[HPOS], v[0];
END
`

const shaderSmallFragment = `!!FP1.0
MOVR R0, f[COL0];
END
`

const shaderLitVertex = `!!VP2.0
#var float4 position : $vin.POSITION : ATTR0 : 0 : 1
#var float3 normal : $vin.NORMAL : ATTR2 : 1 : 1
#var float4x4 mvp :  : c[0], 4 : 2 : 1
#var float3 lightDir :  : c[4] : 3 : 1
#var float4 diffuse :  : c[5] : 4 : 1
#const c[6] = 0 0 0 1
DP4 o[HPOS].x, c[0], v[0];
DP4 o[HPOS].y, c[1], v[0];
DP4 o[HPOS].z, c[2], v[0];
DP4 o[HPOS].w, c[3], v[0];
DP3 R0.x, v[2], c[4];
MAX R0.x, R0.x, c[6].x;
MUL R1, c[5], R0.x;
ADD o[COL0], R1, c[6];
END
`

const shaderBumpFragment = `!!FP1.0
#var sampler2D diffuseMap :  : texunit 0 : 0 : 1
#var sampler2D normalMap :  : texunit 1 : 1 : 1
#var float3 lightDir :  : c[0] : 2 : 1
#var float4 lightColor :  : c[1] : 3 : 1
#default lightDir = 0.577 0.577 0.577
#default lightColor = 1 0.9 0.8 1
TEX R0, f[TEX0], TEX0, 2D;
TEX R1, f[TEX0], TEX1, 2D;
MULR R1.xyz, R1, {2};
SUBR R1.xyz, R1, {1};
DP3R_SAT R2.x, R1, c[0];
MULR R0.xyz, R0, R2.x;
MULR R0, R0, c[1];
MOVR R0.w, {1};
END
`

type shaderCase struct {
	name   string
	kind   ir.ProgramKind
	source string
}

var shadersByComplexity = []shaderCase{
	{"small_vertex", ir.KindVertex, shaderSmallVertex},
	{"small_fragment", ir.KindFragment, shaderSmallFragment},
	{"lit_vertex", ir.KindVertex, shaderLitVertex},
	{"bump_fragment", ir.KindFragment, shaderBumpFragment},
}
