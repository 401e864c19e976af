package asm

import (
	"strconv"
	"strings"

	"github.com/gogpu/rsxc/ir"
)

// Vertex attribute semantics usable as #var resources.
var vertexSemantics = map[string]uint32{
	"POSITION":     0,
	"POSITION0":    0,
	"BLENDWEIGHT":  1,
	"NORMAL":       2,
	"COLOR":        3,
	"COLOR0":       3,
	"DIFFUSE":      3,
	"COLOR1":       4,
	"SPECULAR":     4,
	"FOGCOORD":     5,
	"PSIZE":        6,
	"BLENDINDICES": 7,
	"TANGENT":      14,
	"BINORMAL":     15,
}

var vertexOutputResources = map[string]bool{
	"HPOS": true, "COL0": true, "COL1": true, "BFC0": true, "BFC1": true,
	"FOGC": true, "PSIZ": true, "PSZ": true,
	"CLP0": true, "CLP1": true, "CLP2": true, "CLP3": true, "CLP4": true, "CLP5": true,
}

var fragmentOutputResources = map[string]bool{
	"COL": true, "COLR": true, "COLH": true, "DEPR": true, "DEPTH": true,
	"COLOR": true, "COLOR0": true, "COLOR1": true, "COLOR2": true, "COLOR3": true,
}

func (p *parser) directive(tok Token) error {
	name, rest := tok.Lexeme, ""
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name, rest = name[:i], strings.TrimSpace(name[i+1:])
	}

	switch name {
	case "var":
		return p.varDirective(tok, rest)
	case "const":
		return p.constDirective(tok, rest)
	case "default":
		return p.defaultDirective(tok, rest)
	}
	return nil
}

// varDirective handles
//
//	#var <type> <name> : <semantic> : <resource> : <argno> : <referenced>
func (p *parser) varDirective(tok Token, text string) error {
	fields := strings.Split(text, ":")
	if len(fields) < 5 {
		return p.errorf(tok, "malformed #var directive")
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	decl := strings.Fields(fields[0])
	if len(decl) != 2 {
		return p.errorf(tok, "malformed #var declaration %q", fields[0])
	}
	typ := ir.LookupType(decl[0])
	name := decl[1]
	semantic := fields[1]
	resource := fields[2]
	referenced := fields[len(fields)-1]

	if resource == "" || referenced == "0" || strings.HasPrefix(semantic, "$vout.") {
		return nil
	}

	upper := strings.ToUpper(resource)
	switch {
	case strings.HasPrefix(resource, "c["):
		return p.declareConstant(tok, name, typ, resource)
	case strings.HasPrefix(strings.ReplaceAll(upper, " ", ""), "TEXUNIT"):
		unit, ok := numbered(strings.ReplaceAll(upper, " ", ""), "TEXUNIT")
		if !ok {
			return p.errorf(tok, "invalid texture unit %q", resource)
		}
		p.declareAttribute(name, typ, uint32(unit))
		return nil
	}

	if p.kind == ir.KindVertex {
		if vertexOutputResources[upper] || isTexOutput(upper) {
			return nil
		}
		index, ok := vertexAttribute(upper)
		if !ok {
			return p.errorf(tok, "unknown vertex resource %q", resource)
		}
		p.declareAttribute(name, typ, index)
		return nil
	}

	if fragmentOutputResources[upper] {
		return nil
	}
	index, ok := fragmentInput(upper)
	if !ok {
		return p.errorf(tok, "unknown fragment resource %q", resource)
	}
	p.declareAttribute(name, typ, index)
	return nil
}

// isTexOutput matches vertex texture coordinate outputs (TEX0..TEX7).
func isTexOutput(res string) bool {
	_, ok := numbered(res, "TEX")
	return ok && !strings.HasPrefix(res, "TEXCOORD")
}

func vertexAttribute(res string) (uint32, bool) {
	if n, ok := numbered(res, "ATTR"); ok {
		return uint32(n), true
	}
	if strings.HasPrefix(res, "V[") && strings.HasSuffix(res, "]") {
		n, err := strconv.Atoi(res[2 : len(res)-1])
		return uint32(n), err == nil && n >= 0
	}
	if n, ok := numbered(res, "TEXCOORD"); ok && n < 8 {
		return uint32(8 + n), true
	}
	n, ok := vertexSemantics[res]
	return n, ok
}

func fragmentInput(res string) (uint32, bool) {
	if n, ok := fragmentInputs[res]; ok {
		return uint32(n), true
	}
	if n, ok := numbered(res, "TEX"); ok {
		return uint32(ir.InTexCoord0 + n), true
	}
	return 0, false
}

func (p *parser) declareAttribute(name string, typ ir.ParamType, index uint32) {
	p.prog.Parameters = append(p.prog.Parameters, ir.Parameter{
		Name:  name,
		Type:  typ,
		Kind:  ir.ParamAttribute,
		Index: index,
		Count: 1,
	})
}

// declareConstant handles the c[<n>] and c[<n>], <count> resources.
func (p *parser) declareConstant(tok Token, name string, typ ir.ParamType, resource string) error {
	reg, countText, hasCount := strings.Cut(resource, ",")
	index, err := p.constantIndex(tok, reg)
	if err != nil {
		return err
	}

	count := typ.Slots()
	if hasCount {
		n, err := strconv.Atoi(strings.TrimSpace(countText))
		if err != nil || n <= 0 {
			return p.errorf(tok, "invalid constant count in %q", resource)
		}
		count = uint32(n)
	}

	return p.addConstant(tok, ir.Parameter{
		Name:     name,
		Type:     typ,
		Kind:     ir.ParamConstant,
		Index:    index,
		Count:    count,
		Internal: strings.HasPrefix(name, "__"),
		Values:   make([][4]float32, count),
	})
}

// constDirective handles #const c[<n>] = v0 v1 v2 v3.
func (p *parser) constDirective(tok Token, text string) error {
	lhs, rhs, ok := strings.Cut(text, "=")
	if !ok {
		return p.errorf(tok, "malformed #const directive")
	}
	index, err := p.constantIndex(tok, lhs)
	if err != nil {
		return err
	}
	vals, err := p.values(tok, rhs)
	if err != nil {
		return err
	}
	if len(vals) == 0 || len(vals) > 4 {
		return p.errorf(tok, "#const needs 1 to 4 values, got %d", len(vals))
	}

	var row [4]float32
	copy(row[:], vals)
	return p.addConstant(tok, ir.Parameter{
		Type:     ir.TypeFloat4,
		Kind:     ir.ParamConstant,
		Index:    index,
		Count:    1,
		Internal: true,
		Values:   [][4]float32{row},
	})
}

// defaultDirective handles #default <name> = v..., filling the named
// constant's slots row by row.
func (p *parser) defaultDirective(tok Token, text string) error {
	lhs, rhs, ok := strings.Cut(text, "=")
	if !ok {
		return p.errorf(tok, "malformed #default directive")
	}
	name := strings.TrimSpace(lhs)

	target := -1
	for i := range p.prog.Parameters {
		param := &p.prog.Parameters[i]
		if param.IsConstant() && param.Name == name {
			target = i
		}
	}
	if target < 0 {
		return p.errorf(tok, "unknown #default target %q", name)
	}

	vals, err := p.values(tok, rhs)
	if err != nil {
		return err
	}
	param := &p.prog.Parameters[target]
	if len(vals) == 0 || len(vals) > int(param.Count)*4 {
		return p.errorf(tok, "#default %s: %d values for %d slots", name, len(vals), param.Count)
	}
	for i, v := range vals {
		param.Values[i/4][i%4] = v
	}
	return nil
}

func (p *parser) addConstant(tok Token, param ir.Parameter) error {
	for i := range p.prog.Parameters {
		other := &p.prog.Parameters[i]
		if !other.IsConstant() {
			continue
		}
		if param.Index < other.Index+other.Count && other.Index < param.Index+param.Count {
			return p.errorf(tok, "constant c[%d] overlaps %s", param.Index, other)
		}
	}
	p.prog.Parameters = append(p.prog.Parameters, param)
	return nil
}

func (p *parser) constantIndex(tok Token, text string) (uint32, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "c[") || !strings.HasSuffix(text, "]") {
		return 0, p.errorf(tok, "expected c[<n>], found %q", text)
	}
	n, err := strconv.Atoi(strings.TrimSpace(text[2 : len(text)-1]))
	if err != nil || n < 0 {
		return 0, p.errorf(tok, "invalid constant register %q", text)
	}
	return uint32(n), nil
}

func (p *parser) values(tok Token, text string) ([]float32, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	vals := make([]float32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, p.errorf(tok, "invalid value %q", f)
		}
		vals = append(vals, float32(v))
	}
	return vals, nil
}
