package asm

import (
	"strconv"
	"strings"

	"github.com/gogpu/rsxc/ir"
)

// segment is one dotted component of a register path, with its optional
// bracketed index: o[HPOS], vertex, texcoord[1], xyzw.
type segment struct {
	tok   Token
	name  string
	index *indexExpr
}

type indexExpr struct {
	tok Token

	// number is a literal index; name a symbolic one such as HPOS.
	number    int
	hasNumber bool
	name      string

	// c[A0.x + n]
	relative bool
	addr     int
	comp     uint8
}

var vertexOutputs = map[string]int{
	"HPOS": ir.OutPosition,
	"COL0": ir.OutColor0,
	"COL1": ir.OutColor1,
	"BFC0": ir.OutBackColor0,
	"BFC1": ir.OutBackColor1,
	"FOGC": ir.OutFog,
	"PSIZ": ir.OutPointSize,
	"PSZ":  ir.OutPointSize,
}

var vertexInputNames = map[string]int{
	"OPOS": 0,
	"WGHT": 1,
	"NRML": 2,
	"COL0": 3,
	"COL1": 4,
	"FOGC": 5,
}

var fragmentInputs = map[string]int{
	"WPOS": ir.InPosition,
	"COL0": ir.InColor0,
	"COL1": ir.InColor1,
	"FOGC": ir.InFog,
	"FACE": ir.InFacing,
}

// destination parses a write operand: a register path with an optional
// write mask.
func (p *parser) destination() (ir.Dest, error) {
	start := p.peek()
	segs, err := p.path()
	if err != nil {
		return ir.Dest{}, err
	}
	reg, used, err := p.register(segs)
	if err != nil {
		return ir.Dest{}, err
	}

	dst := ir.Dest{Reg: reg, Mask: ir.MaskAll}
	if p.kind == ir.KindFragment && reg.File == ir.RegOutput && reg.Index == ir.OutFragDepth {
		dst.Mask = ir.MaskZ
	}
	tail, err := p.tail(segs[used:])
	if err != nil {
		return ir.Dest{}, err
	}
	if tail != nil {
		mask, ok := ir.ParseWriteMask(tail.name)
		if !ok {
			return ir.Dest{}, p.errorf(tail.tok, "invalid write mask %q", tail.name)
		}
		dst.Mask = mask
	}

	switch reg.File {
	case ir.RegTemp, ir.RegOutput, ir.RegAddress:
	default:
		return ir.Dest{}, p.errorf(start, "cannot write to %s register", reg.File)
	}
	return dst, nil
}

// operand parses a read operand with its modifiers. Literal vectors are
// registered and their handle returned; handle is -1 otherwise.
func (p *parser) operand() (ir.Source, int, error) {
	src := ir.Source{Swizzle: ir.IdentitySwizzle}
	handle := -1

	src.Negate = p.match(TokenMinus)
	src.Abs = p.match(TokenPipe)

	swizzled := false
	if p.check(TokenLeftBrace) || p.check(TokenNumber) {
		values, err := p.literal()
		if err != nil {
			return src, -1, err
		}
		handle = p.literals.GetOrCreate(values)
		src.Reg = ir.Register{File: ir.RegConstant, Index: handle}
	} else {
		segs, err := p.path()
		if err != nil {
			return src, -1, err
		}
		reg, used, err := p.register(segs)
		if err != nil {
			return src, -1, err
		}
		if reg.File == ir.RegTexture {
			return src, -1, p.errorf(segs[0].tok, "texture unit used as a source operand")
		}
		src.Reg = reg
		tail, err := p.tail(segs[used:])
		if err != nil {
			return src, -1, err
		}
		if tail != nil {
			if src.Swizzle, err = p.swizzle(tail.tok, tail.name); err != nil {
				return src, -1, err
			}
			swizzled = true
		}
	}

	if !swizzled && p.check(TokenDot) {
		if err := p.trailingSwizzle(&src); err != nil {
			return src, -1, err
		}
		swizzled = true
	}
	if src.Abs {
		if _, err := p.expect(TokenPipe); err != nil {
			return src, -1, err
		}
	}
	if !swizzled && p.check(TokenDot) {
		if err := p.trailingSwizzle(&src); err != nil {
			return src, -1, err
		}
	}
	return src, handle, nil
}

func (p *parser) trailingSwizzle(src *ir.Source) error {
	p.advance()
	tok, err := p.expect(TokenIdent)
	if err != nil {
		return err
	}
	src.Swizzle, err = p.swizzle(tok, tok.Lexeme)
	return err
}

func (p *parser) swizzle(tok Token, text string) (ir.Swizzle, error) {
	sw, ok := ir.ParseSwizzle(text)
	if !ok {
		return ir.Swizzle{}, p.errorf(tok, "invalid swizzle %q", text)
	}
	return sw, nil
}

// literal parses {a, b, c, d} or a bare scalar. A single value fills all
// four lanes; otherwise missing lanes are 0 except w, which is 1.
func (p *parser) literal() ([4]float32, error) {
	var vals []float32
	if p.match(TokenLeftBrace) {
		for {
			v, err := p.float()
			if err != nil {
				return [4]float32{}, err
			}
			vals = append(vals, v)
			if !p.match(TokenComma) {
				break
			}
		}
		tok, err := p.expect(TokenRightBrace)
		if err != nil {
			return [4]float32{}, err
		}
		if len(vals) > 4 {
			return [4]float32{}, p.errorf(tok, "literal has %d components, at most 4 allowed", len(vals))
		}
	} else {
		v, err := p.float()
		if err != nil {
			return [4]float32{}, err
		}
		vals = append(vals, v)
	}

	if len(vals) == 1 {
		return [4]float32{vals[0], vals[0], vals[0], vals[0]}, nil
	}
	out := [4]float32{0, 0, 0, 1}
	copy(out[:], vals)
	return out, nil
}

func (p *parser) float() (float32, error) {
	neg := p.match(TokenMinus)
	if !neg {
		p.match(TokenPlus)
	}
	tok, err := p.expect(TokenNumber)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok.Lexeme, 32)
	if err != nil {
		return 0, p.errorf(tok, "invalid number %q", tok.Lexeme)
	}
	if neg {
		v = -v
	}
	return float32(v), nil
}

// path parses ident([index])?(.ident([index])?)*.
func (p *parser) path() ([]segment, error) {
	var segs []segment
	for {
		tok, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		seg := segment{tok: tok, name: tok.Lexeme}
		if p.match(TokenLeftBracket) {
			if seg.index, err = p.index(); err != nil {
				return nil, err
			}
		}
		segs = append(segs, seg)

		if !p.check(TokenDot) || p.peekAt(1).Kind != TokenIdent {
			return segs, nil
		}
		p.advance()
	}
}

// index parses the inside of [...] through the closing bracket.
func (p *parser) index() (*indexExpr, error) {
	tok := p.peek()
	idx := &indexExpr{tok: tok}

	switch tok.Kind {
	case TokenNumber:
		n, err := p.integer()
		if err != nil {
			return nil, err
		}
		idx.number, idx.hasNumber = n, true
	case TokenIdent:
		p.advance()
		if addr, ok := numbered(tok.Lexeme, "A"); ok && p.check(TokenDot) {
			p.advance()
			compTok, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			comp, ok := ir.ParseSwizzle(compTok.Lexeme)
			if !ok || len(compTok.Lexeme) != 1 {
				return nil, p.errorf(compTok, "invalid address component %q", compTok.Lexeme)
			}
			idx.relative, idx.addr, idx.comp = true, addr, comp[0]
			idx.hasNumber = true
			if p.check(TokenPlus) || p.check(TokenMinus) {
				neg := p.advance().Kind == TokenMinus
				n, err := p.integer()
				if err != nil {
					return nil, err
				}
				if neg {
					n = -n
				}
				idx.number = n
			}
		} else {
			idx.name = tok.Lexeme
		}
	default:
		return nil, p.errorf(tok, "expected register index, found %s", describe(tok))
	}

	if _, err := p.expect(TokenRightBracket); err != nil {
		return nil, err
	}
	return idx, nil
}

func (p *parser) integer() (int, error) {
	tok, err := p.expect(TokenNumber)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.Lexeme)
	if err != nil || n < 0 {
		return 0, p.errorf(tok, "expected non-negative integer, found %q", tok.Lexeme)
	}
	return n, nil
}

// tail returns the swizzle or mask segment left after a register path, if
// any. At most one plain segment may remain.
func (p *parser) tail(rest []segment) (*segment, error) {
	switch {
	case len(rest) == 0:
		return nil, nil
	case len(rest) == 1 && rest[0].index == nil:
		return &rest[0], nil
	default:
		return nil, p.errorf(rest[0].tok, "unexpected .%s in register name", rest[0].name)
	}
}

// register resolves the leading segments of a path to a hardware register
// and reports how many segments it consumed.
func (p *parser) register(segs []segment) (ir.Register, int, error) {
	root := segs[0]

	if n, ok := numbered(root.name, "R"); ok && root.index == nil {
		return ir.Register{File: ir.RegTemp, Index: n}, 1, nil
	}
	if n, ok := numbered(root.name, "H"); ok && root.index == nil {
		return ir.Register{File: ir.RegTemp, Index: n, Half: true}, 1, nil
	}
	if n, ok := numbered(root.name, "A"); ok && root.index == nil && p.kind == ir.KindVertex {
		return ir.Register{File: ir.RegAddress, Index: n}, 1, nil
	}

	switch root.name {
	case "c":
		reg, err := p.constant(root)
		return reg, 1, err
	case "v":
		if p.kind != ir.KindVertex {
			break
		}
		n, err := p.symbolic(root, vertexInputNames, "TEX", 8)
		return ir.Register{File: ir.RegInput, Index: n}, 1, err
	case "f":
		if p.kind != ir.KindFragment {
			break
		}
		n, err := p.symbolic(root, fragmentInputs, "TEX", ir.InTexCoord0)
		return ir.Register{File: ir.RegInput, Index: n}, 1, err
	case "o":
		if p.kind == ir.KindVertex {
			n, err := p.symbolic(root, vertexOutputs, "TEX", ir.OutTexCoord0)
			return ir.Register{File: ir.RegOutput, Index: n}, 1, err
		}
		return p.fragmentOutput(root)
	case "texture":
		n, err := p.numericIndex(root)
		return ir.Register{File: ir.RegTexture, Index: n}, 1, err
	case "vertex":
		if p.kind == ir.KindVertex {
			return p.vertexAttrib(segs)
		}
	case "fragment":
		if p.kind == ir.KindFragment {
			return p.fragmentAttrib(segs)
		}
	case "result":
		if p.kind == ir.KindVertex {
			return p.vertexResult(segs)
		}
		return p.fragmentResult(segs)
	}
	return ir.Register{}, 0, p.errorf(root.tok, "unknown %s register %q", p.kind, root.name)
}

func (p *parser) constant(seg segment) (ir.Register, error) {
	if seg.index == nil || !seg.index.hasNumber {
		return ir.Register{}, p.errorf(seg.tok, "constant register needs a numeric index")
	}
	idx := seg.index
	if idx.relative {
		if p.kind != ir.KindVertex {
			return ir.Register{}, p.errorf(idx.tok, "relative constant addressing in %s program", p.kind)
		}
		return ir.Register{
			File:     ir.RegConstant,
			Index:    idx.number,
			Relative: true,
			Addr:     idx.addr,
			AddrComp: idx.comp,
		}, nil
	}
	return ir.Register{File: ir.RegConstant, Index: idx.number}, nil
}

func (p *parser) numericIndex(seg segment) (int, error) {
	if seg.index == nil || !seg.index.hasNumber || seg.index.relative {
		return 0, p.errorf(seg.tok, "%s needs a numeric index", seg.name)
	}
	return seg.index.number, nil
}

// symbolic resolves [NAME], [TEXn] or [n] indices.
func (p *parser) symbolic(seg segment, names map[string]int, texPrefix string, texBase int) (int, error) {
	idx := seg.index
	if idx == nil || idx.relative {
		return 0, p.errorf(seg.tok, "%s needs an index", seg.name)
	}
	if idx.hasNumber {
		return idx.number, nil
	}
	name := strings.ToUpper(idx.name)
	if n, ok := names[name]; ok {
		return n, nil
	}
	if n, ok := numbered(name, texPrefix); ok {
		return texBase + n, nil
	}
	return 0, p.errorf(idx.tok, "unknown register %s[%s]", seg.name, idx.name)
}

func (p *parser) fragmentOutput(seg segment) (ir.Register, int, error) {
	if seg.index == nil || seg.index.hasNumber {
		return ir.Register{}, 0, p.errorf(seg.tok, "fragment output needs a name")
	}
	switch strings.ToUpper(seg.index.name) {
	case "COLR":
		return ir.Register{File: ir.RegOutput, Index: ir.OutFragColor0}, 1, nil
	case "COLH":
		return ir.Register{File: ir.RegOutput, Index: ir.OutFragColor0, Half: true}, 1, nil
	case "DEPR":
		return ir.Register{File: ir.RegOutput, Index: ir.OutFragDepth}, 1, nil
	}
	return ir.Register{}, 0, p.errorf(seg.index.tok, "unknown fragment output o[%s]", seg.index.name)
}

// member returns the name of segs[i], or "" past the end.
func member(segs []segment, i int) string {
	if i < len(segs) {
		return segs[i].name
	}
	return ""
}

func (p *parser) vertexAttrib(segs []segment) (ir.Register, int, error) {
	input := func(n, used int) (ir.Register, int, error) {
		return ir.Register{File: ir.RegInput, Index: n}, used, nil
	}
	if len(segs) < 2 {
		return ir.Register{}, 0, p.errorf(segs[0].tok, "incomplete vertex attribute")
	}
	seg := segs[1]
	switch seg.name {
	case "attrib":
		n, err := p.numericIndex(seg)
		return ir.Register{File: ir.RegInput, Index: n}, 2, err
	case "position":
		return input(0, 2)
	case "weight":
		return input(1, 2)
	case "normal":
		return input(2, 2)
	case "fogcoord":
		return input(5, 2)
	case "color":
		switch member(segs, 2) {
		case "primary":
			return input(3, 3)
		case "secondary":
			return input(4, 3)
		}
		return input(3, 2)
	case "texcoord":
		n, err := p.optionalIndex(seg)
		return ir.Register{File: ir.RegInput, Index: 8 + n}, 2, err
	}
	return ir.Register{}, 0, p.errorf(seg.tok, "unknown vertex attribute %q", seg.name)
}

func (p *parser) vertexResult(segs []segment) (ir.Register, int, error) {
	output := func(n, used int) (ir.Register, int, error) {
		return ir.Register{File: ir.RegOutput, Index: n}, used, nil
	}
	if len(segs) < 2 {
		return ir.Register{}, 0, p.errorf(segs[0].tok, "incomplete result binding")
	}
	seg := segs[1]
	switch seg.name {
	case "position":
		return output(ir.OutPosition, 2)
	case "fogcoord":
		return output(ir.OutFog, 2)
	case "pointsize":
		return output(ir.OutPointSize, 2)
	case "texcoord":
		n, err := p.optionalIndex(seg)
		return ir.Register{File: ir.RegOutput, Index: ir.OutTexCoord0 + n}, 2, err
	case "color":
		front, back := ir.OutColor0, ir.OutBackColor0
		used := 2
		switch member(segs, 2) {
		case "front":
			used = 3
		case "back":
			front, used = back, 3
		case "primary":
			return output(ir.OutColor0, 3)
		case "secondary":
			return output(ir.OutColor1, 3)
		}
		switch member(segs, used) {
		case "primary":
			return output(front, used+1)
		case "secondary":
			return output(front+1, used+1)
		}
		return output(front, used)
	}
	return ir.Register{}, 0, p.errorf(seg.tok, "unknown vertex result %q", seg.name)
}

func (p *parser) fragmentAttrib(segs []segment) (ir.Register, int, error) {
	input := func(n, used int) (ir.Register, int, error) {
		return ir.Register{File: ir.RegInput, Index: n}, used, nil
	}
	if len(segs) < 2 {
		return ir.Register{}, 0, p.errorf(segs[0].tok, "incomplete fragment attribute")
	}
	seg := segs[1]
	switch seg.name {
	case "position":
		return input(ir.InPosition, 2)
	case "fogcoord":
		return input(ir.InFog, 2)
	case "facing":
		return input(ir.InFacing, 2)
	case "color":
		switch member(segs, 2) {
		case "primary":
			return input(ir.InColor0, 3)
		case "secondary":
			return input(ir.InColor1, 3)
		}
		return input(ir.InColor0, 2)
	case "texcoord":
		n, err := p.optionalIndex(seg)
		return ir.Register{File: ir.RegInput, Index: ir.InTexCoord0 + n}, 2, err
	}
	return ir.Register{}, 0, p.errorf(seg.tok, "unknown fragment attribute %q", seg.name)
}

// fragmentResult maps result.color to R0, result.color[n] to R(n+1) and
// result.depth to R1. The output index is the temp it lands in.
func (p *parser) fragmentResult(segs []segment) (ir.Register, int, error) {
	if len(segs) < 2 {
		return ir.Register{}, 0, p.errorf(segs[0].tok, "incomplete result binding")
	}
	seg := segs[1]
	switch seg.name {
	case "depth":
		return ir.Register{File: ir.RegOutput, Index: ir.OutFragDepth}, 2, nil
	case "color":
		n, err := p.optionalIndex(seg)
		if err != nil {
			return ir.Register{}, 0, err
		}
		if n > 3 {
			return ir.Register{}, 0, p.errorf(seg.tok, "color output %d out of range", n)
		}
		if n > 0 {
			n++
		}
		return ir.Register{File: ir.RegOutput, Index: ir.OutFragColor0 + n}, 2, nil
	}
	return ir.Register{}, 0, p.errorf(seg.tok, "unknown fragment result %q", seg.name)
}

func (p *parser) optionalIndex(seg segment) (int, error) {
	if seg.index == nil {
		return 0, nil
	}
	return p.numericIndex(seg)
}

// textureUnit parses texture[n], TEXn or TEXUNITn.
func (p *parser) textureUnit() (int, error) {
	tok := p.peek()
	if tok.Kind == TokenIdent && tok.Lexeme != "texture" {
		p.advance()
		name := strings.ToUpper(tok.Lexeme)
		if n, ok := numbered(name, "TEXUNIT"); ok {
			return n, nil
		}
		if n, ok := numbered(name, "TEX"); ok {
			return n, nil
		}
		return 0, p.errorf(tok, "invalid texture unit %q", tok.Lexeme)
	}
	segs, err := p.path()
	if err != nil {
		return 0, err
	}
	if len(segs) != 1 {
		return 0, p.errorf(tok, "invalid texture unit")
	}
	reg, _, err := p.register(segs)
	if err != nil {
		return 0, err
	}
	return reg.Index, nil
}

var textureTargets = map[string]ir.TextureTarget{
	"1D":   ir.Target1D,
	"2D":   ir.Target2D,
	"3D":   ir.Target3D,
	"CUBE": ir.TargetCube,
	"RECT": ir.TargetRect,
}

func (p *parser) textureTarget() (ir.TextureTarget, error) {
	tok, err := p.expect(TokenIdent)
	if err != nil {
		return 0, err
	}
	if t, ok := textureTargets[strings.ToUpper(tok.Lexeme)]; ok {
		return t, nil
	}
	return 0, p.errorf(tok, "invalid texture target %q", tok.Lexeme)
}

// numbered parses names such as R12 or TEX3 into their number.
func numbered(name, prefix string) (int, bool) {
	if len(name) <= len(prefix) || !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	digits := name[len(prefix):]
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
