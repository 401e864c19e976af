package asm

import (
	"strings"

	"github.com/gogpu/rsxc/ir"
)

// opcode describes the operand shape of a canonical mnemonic.
type opcode struct {
	srcs int
	dst  bool
	tex  bool // trailing texture unit and target operands
}

var vertexOpcodes = map[string]opcode{
	"NOP": {},
	"MOV": {srcs: 1, dst: true},
	"MUL": {srcs: 2, dst: true},
	"ADD": {srcs: 2, dst: true},
	"SUB": {srcs: 2, dst: true},
	"MAD": {srcs: 3, dst: true},
	"DP3": {srcs: 2, dst: true},
	"DPH": {srcs: 2, dst: true},
	"DP4": {srcs: 2, dst: true},
	"DST": {srcs: 2, dst: true},
	"MIN": {srcs: 2, dst: true},
	"MAX": {srcs: 2, dst: true},
	"SLT": {srcs: 2, dst: true},
	"SGE": {srcs: 2, dst: true},
	"SEQ": {srcs: 2, dst: true},
	"SFL": {srcs: 2, dst: true},
	"SGT": {srcs: 2, dst: true},
	"SLE": {srcs: 2, dst: true},
	"SNE": {srcs: 2, dst: true},
	"STR": {srcs: 2, dst: true},
	"SSG": {srcs: 1, dst: true},
	"FRC": {srcs: 1, dst: true},
	"FLR": {srcs: 1, dst: true},
	"ABS": {srcs: 1, dst: true},
	"ARL": {srcs: 1, dst: true},
	"ARR": {srcs: 1, dst: true},
	"ARA": {srcs: 1, dst: true},
	"RCP": {srcs: 1, dst: true},
	"RCC": {srcs: 1, dst: true},
	"RSQ": {srcs: 1, dst: true},
	"EXP": {srcs: 1, dst: true},
	"LOG": {srcs: 1, dst: true},
	"LIT": {srcs: 1, dst: true},
	"LG2": {srcs: 1, dst: true},
	"EX2": {srcs: 1, dst: true},
	"SIN": {srcs: 1, dst: true},
	"COS": {srcs: 1, dst: true},
}

var fragmentOpcodes = map[string]opcode{
	"NOP":   {},
	"KIL":   {},
	"MOV":   {srcs: 1, dst: true},
	"MUL":   {srcs: 2, dst: true},
	"ADD":   {srcs: 2, dst: true},
	"SUB":   {srcs: 2, dst: true},
	"MAD":   {srcs: 3, dst: true},
	"DP3":   {srcs: 2, dst: true},
	"DP4":   {srcs: 2, dst: true},
	"DST":   {srcs: 2, dst: true},
	"MIN":   {srcs: 2, dst: true},
	"MAX":   {srcs: 2, dst: true},
	"SLT":   {srcs: 2, dst: true},
	"SGE":   {srcs: 2, dst: true},
	"SLE":   {srcs: 2, dst: true},
	"SGT":   {srcs: 2, dst: true},
	"SNE":   {srcs: 2, dst: true},
	"SEQ":   {srcs: 2, dst: true},
	"FRC":   {srcs: 1, dst: true},
	"FLR":   {srcs: 1, dst: true},
	"ABS":   {srcs: 1, dst: true},
	"PK4B":  {srcs: 1, dst: true},
	"UP4B":  {srcs: 1, dst: true},
	"DDX":   {srcs: 1, dst: true},
	"DDY":   {srcs: 1, dst: true},
	"TEX":   {srcs: 1, dst: true, tex: true},
	"TXP":   {srcs: 1, dst: true, tex: true},
	"TXD":   {srcs: 3, dst: true, tex: true},
	"TXB":   {srcs: 1, dst: true, tex: true},
	"TXL":   {srcs: 1, dst: true, tex: true},
	"RCP":   {srcs: 1, dst: true},
	"RSQ":   {srcs: 1, dst: true},
	"EX2":   {srcs: 1, dst: true},
	"LG2":   {srcs: 1, dst: true},
	"LIT":   {srcs: 1, dst: true},
	"LRP":   {srcs: 3, dst: true},
	"STR":   {srcs: 2, dst: true},
	"SFL":   {srcs: 2, dst: true},
	"COS":   {srcs: 1, dst: true},
	"SIN":   {srcs: 1, dst: true},
	"PK2H":  {srcs: 1, dst: true},
	"UP2H":  {srcs: 1, dst: true},
	"POW":   {srcs: 2, dst: true},
	"PK4UB": {srcs: 1, dst: true},
	"UP4UB": {srcs: 1, dst: true},
	"PK2US": {srcs: 1, dst: true},
	"UP2US": {srcs: 1, dst: true},
	"DP2A":  {srcs: 3, dst: true},
	"DP2":   {srcs: 2, dst: true},
	"NRM":   {srcs: 1, dst: true},
	"DIV":   {srcs: 2, dst: true},
}

// mnemonic is a resolved instruction name with its suffix flags.
type mnemonic struct {
	op         string
	info       opcode
	sat        bool
	condUpdate bool
	precision  ir.Precision
}

// resolveMnemonic splits a raw mnemonic such as MOVR_SAT or MULHC into the
// canonical opcode and its suffixes. An exact table hit always wins, so
// opcodes ending in a suffix letter (RCC, FRC) resolve as themselves.
func resolveMnemonic(raw string, kind ir.ProgramKind) (mnemonic, bool) {
	table := vertexOpcodes
	if kind == ir.KindFragment {
		table = fragmentOpcodes
	}

	var m mnemonic
	name := strings.ToUpper(raw)
	if strings.HasSuffix(name, "_SAT") {
		m.sat = true
		name = strings.TrimSuffix(name, "_SAT")
	}

	if info, ok := table[name]; ok {
		m.op, m.info = name, info
		return m, true
	}
	if op, prec, ok := resolveBase(name, table, kind); ok {
		m.op, m.info, m.precision = op, table[op], prec
		return m, true
	}
	if strings.HasSuffix(name, "C") {
		if op, prec, ok := resolveBase(strings.TrimSuffix(name, "C"), table, kind); ok {
			m.op, m.info, m.precision, m.condUpdate = op, table[op], prec, true
			return m, true
		}
	}
	return mnemonic{}, false
}

func resolveBase(name string, table map[string]opcode, kind ir.ProgramKind) (string, ir.Precision, bool) {
	if _, ok := table[name]; ok {
		return name, ir.PrecisionFull, true
	}
	if kind != ir.KindFragment || len(name) < 2 {
		return "", 0, false
	}
	base := name[:len(name)-1]
	if _, ok := table[base]; !ok {
		return "", 0, false
	}
	switch name[len(name)-1] {
	case 'R':
		return base, ir.PrecisionFull, true
	case 'H':
		return base, ir.PrecisionHalf, true
	case 'X':
		return base, ir.PrecisionFixed, true
	}
	return "", 0, false
}

// operandCount returns the number of comma separated operands the
// instruction takes. KIL accepts zero or one.
func (o opcode) operandCount() int {
	n := o.srcs
	if o.dst {
		n++
	}
	if o.tex {
		n += 2
	}
	return n
}

// IsOpcode reports whether name is a known mnemonic (suffixes allowed)
// for the given program kind.
func IsOpcode(name string, kind ir.ProgramKind) bool {
	_, ok := resolveMnemonic(name, kind)
	return ok
}
