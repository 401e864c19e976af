package asm

import (
	"fmt"
	"strings"

	"github.com/gogpu/rsxc/ir"
)

// declarations are accepted and skipped up to their terminating ';'.
var declarations = map[string]bool{
	"OPTION":  true,
	"PARAM":   true,
	"TEMP":    true,
	"ATTRIB":  true,
	"OUTPUT":  true,
	"ADDRESS": true,
	"ALIAS":   true,
	"SHORT":   true,
	"LONG":    true,
}

// Parse parses program assembly of the given kind.
func Parse(source string, kind ir.ProgramKind) (*ir.Program, error) {
	lexer := NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}

	p := &parser{
		source:   source,
		tokens:   tokens,
		kind:     kind,
		prog:     &ir.Program{Kind: kind},
		literals: ir.NewLiteralRegistry(),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.prog, nil
}

// ParseVertex parses vertex program assembly.
func ParseVertex(source string) (*ir.Program, error) {
	return Parse(source, ir.KindVertex)
}

// ParseFragment parses fragment program assembly.
func ParseFragment(source string) (*ir.Program, error) {
	return Parse(source, ir.KindFragment)
}

// DetectKind inspects the program header. ok is false when the source has
// no recognizable header.
func DetectKind(source string) (kind ir.ProgramKind, ok bool) {
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "!!") {
			return headerKind(line)
		}
	}
	return ir.KindVertex, false
}

func headerKind(header string) (ir.ProgramKind, bool) {
	lower := strings.ToLower(header)
	switch {
	case strings.Contains(lower, "vp"):
		return ir.KindVertex, true
	case strings.Contains(lower, "fp"):
		return ir.KindFragment, true
	}
	return ir.KindVertex, false
}

// literalRef marks a source operand that names a literal vector. The
// operand index holds the registry handle until literals are placed.
type literalRef struct {
	inst, src int
	handle    int
}

type parser struct {
	source string
	tokens []Token
	pos    int
	kind   ir.ProgramKind
	prog   *ir.Program

	literals    *ir.LiteralRegistry
	literalRefs []literalRef

	sawCode bool
}

func (p *parser) parse() error {
loop:
	for !p.check(TokenEOF) {
		tok := p.peek()
		switch tok.Kind {
		case TokenHeader:
			p.advance()
			if err := p.header(tok); err != nil {
				return err
			}
		case TokenDirective:
			p.advance()
			if err := p.directive(tok); err != nil {
				return err
			}
		case TokenSemicolon:
			p.advance()
		case TokenIdent:
			word := strings.ToUpper(tok.Lexeme)
			if word == "END" {
				break loop
			}
			if declarations[word] {
				if err := p.skipStatement(); err != nil {
					return err
				}
				continue
			}
			if err := p.instruction(); err != nil {
				return err
			}
		default:
			return p.errorf(tok, "unexpected %s", tok.Kind)
		}
	}

	p.placeLiterals()
	return nil
}

func (p *parser) header(tok Token) error {
	kind, ok := headerKind(tok.Lexeme)
	if !ok {
		return p.errorf(tok, "unknown program header %q", tok.Lexeme)
	}
	if kind != p.kind {
		return p.errorf(tok, "%s header in %s program", kind, p.kind)
	}
	if p.sawCode {
		return p.errorf(tok, "program header after instructions")
	}
	return nil
}

// skipStatement consumes tokens through the next ';'.
func (p *parser) skipStatement() error {
	start := p.advance()
	for !p.check(TokenSemicolon) {
		if p.check(TokenEOF) || p.check(TokenDirective) || p.check(TokenHeader) {
			return p.errorf(start, "missing ';' after %s", start.Lexeme)
		}
		p.advance()
	}
	p.advance()
	return nil
}

func (p *parser) instruction() error {
	p.sawCode = true
	start := p.advance()

	if p.check(TokenColon) {
		return p.errorf(start, "labels are not supported")
	}

	m, ok := resolveMnemonic(start.Lexeme, p.kind)
	if !ok {
		return p.errorf(start, "unknown %s instruction %q", p.kind, start.Lexeme)
	}

	got, err := p.countOperands(start)
	if err != nil {
		return err
	}
	want := m.info.operandCount()
	if m.op == "KIL" {
		if got > 1 {
			return p.errorf(start, "%s expects at most 1 operand, got %d", m.op, got)
		}
		want = got
	}
	if got != want {
		return p.errorf(start, "%s expects %d operands, got %d", m.op, want, got)
	}

	inst := ir.Instruction{
		Line:       start.Line,
		Op:         m.op,
		Sat:        m.sat,
		CondUpdate: m.condUpdate,
		Precision:  m.precision,
	}

	for i := 0; i < got; i++ {
		if i > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return err
			}
		}
		switch {
		case i == 0 && m.info.dst:
			dst, err := p.destination()
			if err != nil {
				return err
			}
			inst.Dst = &dst
		case m.info.tex && i == got-2:
			unit, err := p.textureUnit()
			if err != nil {
				return err
			}
			inst.TexUnit, inst.HasTex = unit, true
		case m.info.tex && i == got-1:
			target, err := p.textureTarget()
			if err != nil {
				return err
			}
			inst.TexTarget = target
		default:
			src, handle, err := p.operand()
			if err != nil {
				return err
			}
			if handle >= 0 {
				p.literalRefs = append(p.literalRefs, literalRef{
					inst:   len(p.prog.Instructions),
					src:    len(inst.Src),
					handle: handle,
				})
			}
			inst.Src = append(inst.Src, src)
		}
	}
	if _, err := p.expect(TokenSemicolon); err != nil {
		return err
	}

	p.prog.Instructions = append(p.prog.Instructions, inst)
	return nil
}

// countOperands counts the comma separated operands between the cursor and
// the statement's ';' without consuming anything.
func (p *parser) countOperands(start Token) (int, error) {
	depth := 0
	count := 0
	empty := true
	for i := p.pos; i < len(p.tokens); i++ {
		tok := p.tokens[i]
		switch tok.Kind {
		case TokenSemicolon:
			if empty {
				return 0, nil
			}
			return count + 1, nil
		case TokenEOF, TokenDirective, TokenHeader:
			return 0, p.errorf(start, "missing ';' after %s", start.Lexeme)
		case TokenLeftBracket, TokenLeftBrace:
			depth++
		case TokenRightBracket, TokenRightBrace:
			depth--
		case TokenComma:
			if depth == 0 {
				count++
			}
		}
		empty = false
	}
	return 0, p.errorf(start, "missing ';' after %s", start.Lexeme)
}

// placeLiterals appends the collected literal vectors as internal constants
// after the highest declared constant register and rewrites the operands
// that referenced them.
func (p *parser) placeLiterals() {
	if p.literals.Count() == 0 {
		return
	}

	var base uint32
	for i := range p.prog.Parameters {
		param := &p.prog.Parameters[i]
		if param.IsConstant() && param.Index+param.Count > base {
			base = param.Index + param.Count
		}
	}

	for handle, values := range p.literals.Values() {
		p.prog.Parameters = append(p.prog.Parameters, ir.Parameter{
			Type:     ir.TypeFloat4,
			Kind:     ir.ParamConstant,
			Index:    base + uint32(handle),
			Count:    1,
			Internal: true,
			Values:   [][4]float32{values},
		})
	}
	for _, ref := range p.literalRefs {
		p.prog.Instructions[ref.inst].Src[ref.src].Reg.Index = int(base) + ref.handle
	}
}

// --- token helpers ---

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) check(kind TokenKind) bool {
	return p.tokens[p.pos].Kind == kind
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	tok := p.peek()
	return tok, p.errorf(tok, "expected %s, found %s", kind, describe(tok))
}

func (p *parser) errorf(tok Token, format string, args ...interface{}) error {
	return errorAt(tok, p.source, format, args...)
}

func describe(tok Token) string {
	if tok.Lexeme == "" {
		return tok.Kind.String()
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}
