// Package asm parses RSX vertex and fragment program assembly into the
// rsxc intermediate representation.
//
// The accepted dialect is the NV_vertex_program3 / NV_fragment_program2
// flavoured text emitted by cgc for the vp40 and fp40 profiles, which is
// also convenient to write by hand:
//
//	!!VP2.0
//	#var float4 position : $vin.POSITION : ATTR0 : 0 : 1
//	#var float4x4 mvp :  : c[0], 4 : 1 : 1
//	#const c[4] = 1 0 0 1
//	DP4 o[HPOS].x, c[0], v[0];
//	DP4 o[HPOS].y, c[1], v[0];
//	DP4 o[HPOS].z, c[2], v[0];
//	DP4 o[HPOS].w, c[3], v[0];
//	MOV o[COL0], c[4];
//	END
//
// Parameters come from the #var, #const and #default metadata lines and
// keep their declaration order. Declarations such as PARAM, TEMP or OPTION
// are accepted and ignored: register numbers in the instructions are
// already final.
//
// Parsing never recovers. The first problem is returned as a *ParseError
// carrying the line and column.
package asm
