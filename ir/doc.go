// Package ir defines the intermediate representation shared by the rsxc
// assembler front end and the RSX microcode compilers.
//
// A Program holds two ordered sequences produced by the parser:
//   - Instructions: abstract instructions (mnemonic, destination, sources)
//   - Parameters: declared attributes and constants, in source order
//
// # Translation Pipeline
//
// The pipeline is strictly forward:
//
//	Assembly text → ir.Program → rsx.Program → container bytes
//
// Nothing downstream mutates a Program. Byte offsets chosen by the emitter
// are returned as a separate layout instead of being written back into
// Parameter values.
//
// # Registers
//
// Operands name hardware registers directly. A Register carries the
// register file (temporary, input, constant, output, address, texture)
// and the index inside that file; the kind specific compilers decide how
// each file is encoded.
package ir
