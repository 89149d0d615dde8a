package revset

// ParseContext supplies the names a parser accepts as function calls.
type ParseContext struct {
	Extensions *Extensions
	Aliases    *AliasTable
}

// Parser parses revset tokens into an expression tree.
type Parser struct {
	input   string
	lexer   *Lexer
	ctx     ParseContext
	diags   Diagnostics
	current Token
	peek    Token
}

// NewParser creates a parser for the input.
func NewParser(input string, ctx ParseContext) *Parser {
	if ctx.Extensions == nil {
		ctx.Extensions = DefaultExtensions()
	}
	p := &Parser{input: input, lexer: NewLexer(input), ctx: ctx}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses text into an expression. Warnings are returned even when
// parsing succeeds.
func Parse(text string, ctx ParseContext) (Expr, Diagnostics, error) {
	return NewParser(text, ctx).Parse()
}

// Parse parses the whole input.
func (p *Parser) Parse() (Expr, Diagnostics, error) {
	if p.current.Type == TokenEOF {
		return nil, p.diags, p.errorf(p.current.Span(), "expected expression, got end of input")
	}
	expr, err := p.parseUnion()
	if err != nil {
		return nil, p.diags, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.diags, p.unexpected()
	}
	return expr, p.diags, nil
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.current = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) errorf(at Span, format string, args ...any) *ParseError {
	return newParseError(p.input, at, format, args...)
}

func (p *Parser) unexpected() *ParseError {
	switch p.current.Type {
	case TokenEOF:
		return p.errorf(p.current.Span(), "unexpected end of input")
	case TokenIllegal:
		return p.errorf(p.current.Span(), "%s", illegalMessage(p.current))
	default:
		return p.errorf(p.current.Span(), "unexpected token %q", p.current.Literal)
	}
}

func illegalMessage(t Token) string {
	switch t.Literal {
	case "unterminated string", "invalid escape":
		return t.Literal
	}
	return "unexpected character " + t.Literal
}

// parseUnion parses '|'-separated terms.
// union = intersection { "|" intersection }
func (p *Parser) parseUnion() (Expr, error) {
	left, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenUnion {
		p.nextToken()
		right, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		left = &SetExpr{Span: join(left, right), Op: OpUnion, Left: left, Right: right}
	}
	return left, nil
}

// parseIntersection parses '&' and infix '~'.
// intersection = negation { ("&" | "~") negation }
func (p *Parser) parseIntersection() (Expr, error) {
	left, err := p.parseNegation()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenIntersect || p.current.Type == TokenTilde {
		op := OpIntersection
		if p.current.Type == TokenTilde {
			op = OpDifference
		}
		p.nextToken()
		right, err := p.parseNegation()
		if err != nil {
			return nil, err
		}
		left = &SetExpr{Span: join(left, right), Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseNegation parses prefix '~'.
// negation = "~" negation | range
func (p *Parser) parseNegation() (Expr, error) {
	if p.current.Type != TokenTilde {
		return p.parseRange()
	}
	start := p.current.Pos
	p.nextToken()
	operand, err := p.parseNegation()
	if err != nil {
		return nil, err
	}
	return &NegateExpr{Span: Span{start, operand.span().End}, Operand: operand}, nil
}

// parseRange parses the prefix, postfix, infix and bare forms of '::' and '..'.
// range = [postfix] ("::" | "..") [postfix] | postfix
func (p *Parser) parseRange() (Expr, error) {
	if p.current.Type == TokenDagRange || p.current.Type == TokenRange {
		op := p.current
		p.nextToken()
		if !p.current.Type.startsPrimary() {
			return call("all", op.Span()), nil
		}
		heads, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		// "..x" equals "::x": every commit in the graph is visible.
		return &GraphExpr{
			Span:       Span{op.Pos, heads.span().End},
			Op:         OpAncestors,
			Operand:    heads,
			Generation: AllGenerations,
		}, nil
	}

	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenDagRange && p.current.Type != TokenRange {
		return left, nil
	}

	op := p.current
	p.nextToken()
	if !p.current.Type.startsPrimary() {
		at := Span{left.span().Start, op.End}
		if op.Type == TokenDagRange {
			return &GraphExpr{Span: at, Op: OpDescendants, Operand: left, Generation: AllGenerations}, nil
		}
		return &RangeExpr{Span: at, Op: OpRange, Roots: left, Heads: call("visible_heads", op.Span())}, nil
	}

	right, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	kind := OpDagRange
	if op.Type == TokenRange {
		kind = OpRange
	}
	return &RangeExpr{Span: join(left, right), Op: kind, Roots: left, Heads: right}, nil
}

// parsePostfix parses trailing '-' (parents) and '+' (children).
// postfix = primary { "-" | "+" }
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenMinus || p.current.Type == TokenPlus {
		op := OpAncestors
		if p.current.Type == TokenPlus {
			op = OpDescendants
		}
		at := Span{expr.span().Start, p.current.End}
		p.nextToken()
		expr = &GraphExpr{Span: at, Op: op, Operand: expr, Generation: GenRange{Start: 1, End: 2}}
	}
	return expr, nil
}

// parsePrimary parses operands.
// primary = "(" union ")" | "@" | name "@" [name] | ident ":" name | ident "(" args ")" | name
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.current
	switch tok.Type {
	case TokenLParen:
		p.nextToken()
		expr, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenRParen {
			return nil, p.errorf(p.current.Span(), "expected ')', got %q", p.current.Literal)
		}
		p.nextToken()
		return expr, nil

	case TokenAt:
		p.nextToken()
		return &WorkingCopyExpr{Span: tok.Span()}, nil

	case TokenIdent:
		switch p.peek.Type {
		case TokenLParen:
			return p.parseCall()
		case TokenColon:
			return p.parsePattern()
		case TokenAt:
			return p.parseAt()
		}
		p.nextToken()
		return &SymbolExpr{Span: tok.Span(), Name: tok.Literal}, nil

	case TokenString:
		if p.peek.Type == TokenAt {
			return p.parseAt()
		}
		p.nextToken()
		return &SymbolExpr{Span: tok.Span(), Name: tok.Literal, Quoted: true}, nil
	}

	if tok.Type == TokenEOF {
		return nil, p.errorf(tok.Span(), "expected expression, got end of input")
	}
	if tok.Type == TokenIllegal {
		return nil, p.unexpected()
	}
	return nil, p.errorf(tok.Span(), "expected expression, got %q", tok.Literal)
}

// parseAt parses "name@remote" and "workspace@".
func (p *Parser) parseAt() (Expr, error) {
	name := p.current
	p.nextToken() // name
	at := p.current
	p.nextToken() // @

	if p.current.Type == TokenIdent || p.current.Type == TokenString {
		remote := p.current
		p.nextToken()
		return &RemoteSymbolExpr{Span: Span{name.Pos, remote.End}, Name: name.Literal, Remote: remote.Literal}, nil
	}
	return &WorkingCopyExpr{Span: Span{name.Pos, at.End}, Workspace: name.Literal}, nil
}

// parsePattern parses "kind:value".
func (p *Parser) parsePattern() (Expr, error) {
	kind := p.current
	p.nextToken() // kind
	p.nextToken() // :
	value := p.current
	if value.Type != TokenIdent && value.Type != TokenString {
		return nil, p.errorf(value.Span(), "expected string pattern value after %q", kind.Literal+":")
	}
	p.nextToken()
	return &PatternExpr{Span: Span{kind.Pos, value.End}, Kind: kind.Literal, Value: value.Literal}, nil
}

// parseCall parses a function call and checks the name and argument count.
func (p *Parser) parseCall() (Expr, error) {
	name := p.current
	p.nextToken() // name
	p.nextToken() // (

	var args []Expr
	for p.current.Type != TokenRParen {
		arg, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.current.Type == TokenComma {
			p.nextToken()
			continue
		}
		if p.current.Type != TokenRParen {
			return nil, p.errorf(p.current.Span(), "expected ',' or ')', got %q", p.current.Literal)
		}
	}
	closing := p.current
	p.nextToken()

	c := &CallExpr{Span: Span{name.Pos, closing.End}, Name: name.Literal, NameSpan: name.Span(), Args: args}
	if err := p.checkCall(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Parser) checkCall(c *CallExpr) error {
	if def, ok := p.ctx.Aliases.function(c.Name); ok {
		if len(c.Args) != len(def.Params) {
			return p.errorf(c.Span, "function %q: expected %d arguments", c.Name, len(def.Params))
		}
		return nil
	}

	if replacement, ok := p.ctx.Extensions.replacement(c.Name); ok {
		p.diags.warn(c.NameSpan, "%s() is deprecated; use %s() instead", c.Name, replacement)
		c.Name = replacement
	}
	fn, ok := p.ctx.Extensions.Lookup(c.Name)
	if !ok {
		return p.errorf(c.NameSpan, "function %q doesn't exist", c.Name)
	}
	if msg, ok := fn.checkArity(len(c.Args)); !ok {
		return p.errorf(c.Span, "function %q: %s", c.Name, msg)
	}
	return nil
}

func join(left, right Expr) Span {
	return Span{Start: left.span().Start, End: right.span().End}
}
