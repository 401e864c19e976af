package asm

import "strings"

// directiveNames are the metadata comments that carry parameter
// declarations. Every other '#' line is a plain comment.
var directiveNames = []string{"var", "const", "default"}

// Lexer tokenizes program assembly.
type Lexer struct {
	source    string
	pos       int
	line      int
	column    int
	start     int
	lineStart bool // only whitespace seen since the last newline
	tokens    []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	est := len(source) / 4
	if est < 16 {
		est = 16
	}
	return &Lexer{
		source:    source,
		line:      1,
		column:    1,
		lineStart: true,
		tokens:    make([]Token, 0, est),
	}
}

// Tokenize returns all tokens from the source, terminated by TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})
	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	startCol := l.column
	atLineStart := l.lineStart
	c := l.advance()
	if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
		l.lineStart = false
	}

	switch c {
	case ' ', '\t', '\r':
	case '\n':
		l.line++
		l.column = 1
		l.lineStart = true
	case '#':
		l.skipLine()
		if atLineStart {
			text := strings.TrimSpace(l.source[l.start+1 : l.pos])
			if isDirective(text) {
				l.tokens = append(l.tokens, Token{Kind: TokenDirective, Lexeme: text, Line: l.line, Column: startCol})
			}
		}
	case '!':
		if l.peek() != '!' {
			return l.errorf(startCol, "unexpected character '!'")
		}
		l.skipLine()
		l.addToken(TokenHeader, startCol)
	case ',':
		l.addToken(TokenComma, startCol)
	case ';':
		l.addToken(TokenSemicolon, startCol)
	case ':':
		l.addToken(TokenColon, startCol)
	case '|':
		l.addToken(TokenPipe, startCol)
	case '+':
		l.addToken(TokenPlus, startCol)
	case '-':
		l.addToken(TokenMinus, startCol)
	case '=':
		l.addToken(TokenEqual, startCol)
	case '[':
		l.addToken(TokenLeftBracket, startCol)
	case ']':
		l.addToken(TokenRightBracket, startCol)
	case '{':
		l.addToken(TokenLeftBrace, startCol)
	case '}':
		l.addToken(TokenRightBrace, startCol)
	case '.':
		switch {
		case l.peek() == '.':
			l.advance()
			l.addToken(TokenDotDot, startCol)
		case isDigit(l.peek()):
			l.number(startCol)
		default:
			l.addToken(TokenDot, startCol)
		}
	default:
		switch {
		case isDigit(c):
			l.number(startCol)
		case isAlpha(c) || c == '_':
			l.identifier(startCol)
		default:
			return l.errorf(startCol, "unexpected character %q", c)
		}
	}
	return nil
}

// number scans an integer or float literal. A literal running straight
// into letters ("2D", "3D") is an identifier.
func (l *Lexer) number(startCol int) {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && l.peekNext() != '.' && !isAlpha(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if (l.peek() == 'e' || l.peek() == 'E') && (isDigit(l.peekNext()) || l.peekNext() == '+' || l.peekNext() == '-') {
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if isAlpha(l.peek()) || l.peek() == '_' {
		l.identifier(startCol)
		return
	}
	l.addToken(TokenNumber, startCol)
}

func (l *Lexer) identifier(startCol int) {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	l.addToken(TokenIdent, startCol)
}

func (l *Lexer) skipLine() {
	for l.peek() != '\n' && !l.isAtEnd() {
		l.advance()
	}
}

func (l *Lexer) addToken(kind TokenKind, col int) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: strings.TrimRight(l.source[l.start:l.pos], "\r"),
		Line:   l.line,
		Column: col,
	})
}

func (l *Lexer) errorf(col int, format string, args ...interface{}) error {
	return errorAt(Token{Line: l.line, Column: col}, l.source, format, args...)
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	l.column++
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDirective(text string) bool {
	for _, name := range directiveNames {
		if strings.HasPrefix(text, name) && len(text) > len(name) && (text[len(name)] == ' ' || text[len(name)] == '\t') {
			return true
		}
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
