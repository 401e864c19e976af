package asm

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	TokenIdent
	TokenNumber

	// Whole-line tokens
	TokenHeader    // !!VP2.0
	TokenDirective // #var ..., #const ..., #default ...

	TokenComma        // ,
	TokenSemicolon    // ;
	TokenColon        // :
	TokenDot          // .
	TokenDotDot       // ..
	TokenPipe         // |
	TokenPlus         // +
	TokenMinus        // -
	TokenEqual        // =
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenLeftBrace    // {
	TokenRightBrace   // }
)

var tokenNames = [...]string{
	TokenEOF:          "end of input",
	TokenIdent:        "identifier",
	TokenNumber:       "number",
	TokenHeader:       "program header",
	TokenDirective:    "directive",
	TokenComma:        "','",
	TokenSemicolon:    "';'",
	TokenColon:        "':'",
	TokenDot:          "'.'",
	TokenDotDot:       "'..'",
	TokenPipe:         "'|'",
	TokenPlus:         "'+'",
	TokenMinus:        "'-'",
	TokenEqual:        "'='",
	TokenLeftBracket:  "'['",
	TokenRightBracket: "']'",
	TokenLeftBrace:    "'{'",
	TokenRightBrace:   "'}'",
}

// String returns a human-readable token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return "unknown"
}

// Token is a lexical token with its 1-based position.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
}
