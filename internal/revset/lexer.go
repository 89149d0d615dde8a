package revset

import (
	"strconv"
	"strings"
)

// Lexer tokenizes revset input.
type Lexer struct {
	input string
	pos   int  // current position in input
	ch    byte // current character under examination
}

// NewLexer creates a new lexer for the input string.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.pos - 1}
	if tok.Pos > len(l.input) {
		tok.Pos = len(l.input)
	}

	switch l.ch {
	case '(':
		tok.Type, tok.Literal = TokenLParen, "("
	case ')':
		tok.Type, tok.Literal = TokenRParen, ")"
	case ',':
		tok.Type, tok.Literal = TokenComma, ","
	case '@':
		tok.Type, tok.Literal = TokenAt, "@"
	case '|':
		tok.Type, tok.Literal = TokenUnion, "|"
	case '&':
		tok.Type, tok.Literal = TokenIntersect, "&"
	case '~':
		tok.Type, tok.Literal = TokenTilde, "~"
	case '-':
		tok.Type, tok.Literal = TokenMinus, "-"
	case '+':
		tok.Type, tok.Literal = TokenPlus, "+"
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			tok.Type, tok.Literal = TokenDagRange, "::"
		} else {
			tok.Type, tok.Literal = TokenColon, ":"
		}
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			tok.Type, tok.Literal = TokenRange, ".."
		} else {
			tok.Type, tok.Literal = TokenIllegal, "."
		}
	case '"':
		tok.Literal, tok.Type = l.readQuoted()
		tok.End = l.pos - 1
		return tok
	case '\'':
		tok.Literal, tok.Type = l.readRaw()
		tok.End = l.pos - 1
		return tok
	case 0:
		tok.Type = TokenEOF
		tok.End = tok.Pos
		return tok
	default:
		if isIdentPart(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = TokenIdent
			tok.End = l.pos - 1
			return tok
		}
		tok.Type, tok.Literal = TokenIllegal, string(l.ch)
	}

	l.readChar()
	tok.End = l.pos - 1
	return tok
}

// readChar reads the next character and advances position.
func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.pos]
	}
	l.pos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// skipWhitespace advances past whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readIdentifier reads runs of identifier characters joined by single '.',
// '-' or '+', so "feature-x" and "v1.2" are one symbol while "x-" and
// "x.." end before the operator.
func (l *Lexer) readIdentifier() string {
	start := l.pos - 1
	for {
		for isIdentPart(l.ch) {
			l.readChar()
		}
		if (l.ch == '.' || l.ch == '-' || l.ch == '+') && isIdentPart(l.peekChar()) {
			l.readChar()
			continue
		}
		return l.input[start : l.pos-1]
	}
}

// readQuoted reads a double-quoted string with backslash escapes.
func (l *Lexer) readQuoted() (string, TokenType) {
	var sb strings.Builder
	l.readChar() // skip opening quote
	for l.ch != '"' {
		switch l.ch {
		case 0:
			return "unterminated string", TokenIllegal
		case '\\':
			l.readChar()
			switch l.ch {
			case '"', '\\':
				sb.WriteByte(l.ch)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			case 'x':
				hex := l.input[l.pos : min(l.pos+2, len(l.input))]
				v, err := strconv.ParseUint(hex, 16, 8)
				if err != nil || len(hex) != 2 {
					return "invalid escape", TokenIllegal
				}
				sb.WriteByte(byte(v))
				l.readChar()
				l.readChar()
			default:
				return "invalid escape", TokenIllegal
			}
		default:
			sb.WriteByte(l.ch)
		}
		l.readChar()
	}
	l.readChar() // skip closing quote
	return sb.String(), TokenString
}

// readRaw reads a single-quoted string with no escapes.
func (l *Lexer) readRaw() (string, TokenType) {
	l.readChar() // skip opening quote
	start := l.pos - 1
	for l.ch != '\'' {
		if l.ch == 0 {
			return "unterminated string", TokenIllegal
		}
		l.readChar()
	}
	str := l.input[start : l.pos-1]
	l.readChar() // skip closing quote
	return str, TokenString
}

// isIdentPart reports whether c may appear in a symbol. Bytes of multi-byte
// UTF-8 sequences are accepted as-is.
func isIdentPart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '_' || c == '/' || c >= 0x80
}
