// Package revset implements the revision set language: parsing, alias
// expansion and symbol resolution, optimization and evaluation against a
// graph snapshot.
package revset

// TokenType represents the type of lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenIdent  // symbols, function names, integers
	TokenString // "quoted" or 'raw'

	// Delimiters
	TokenLParen // (
	TokenRParen // )
	TokenComma  // ,
	TokenColon  // :
	TokenAt     // @

	// Set operators
	TokenUnion     // |
	TokenIntersect // &
	TokenTilde     // ~

	// Graph operators
	TokenDagRange // ::
	TokenRange    // ..
	TokenMinus    // -
	TokenPlus     // +
)

// String returns the string representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIllegal:
		return "ILLEGAL"
	case TokenIdent:
		return "IDENT"
	case TokenString:
		return "STRING"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenAt:
		return "@"
	case TokenUnion:
		return "|"
	case TokenIntersect:
		return "&"
	case TokenTilde:
		return "~"
	case TokenDagRange:
		return "::"
	case TokenRange:
		return ".."
	case TokenMinus:
		return "-"
	case TokenPlus:
		return "+"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int // byte offset of the first character
	End     int // byte offset just past the token
}

// Span returns the input range the token covers.
func (t Token) Span() Span {
	return Span{Start: t.Pos, End: t.End}
}

// startsPrimary reports whether a token can begin an operand.
func (t TokenType) startsPrimary() bool {
	switch t {
	case TokenIdent, TokenString, TokenLParen, TokenAt:
		return true
	}
	return false
}
