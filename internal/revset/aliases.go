package revset

import "sort"

// AliasDecl is one entry of the revset-aliases table: a declaration such as
// "trunk" or "mine_in(x)" and its body.
type AliasDecl struct {
	Decl string
	Body string
}

type aliasDef struct {
	Name   string
	Params []string // nil for symbol aliases
	Body   Expr
	Source string
}

func (d *aliasDef) key() string {
	if d.Params == nil {
		return d.Name
	}
	return d.Name + "()"
}

// AliasTable maps alias names to parsed bodies.
type AliasTable struct {
	symbols   map[string]*aliasDef
	functions map[string]*aliasDef
}

// NewAliasTable parses every declaration and body. Bodies may call
// function aliases declared anywhere in decls. The first failure is
// returned as an *AliasError.
func NewAliasTable(decls []AliasDecl, ext *Extensions) (*AliasTable, error) {
	if ext == nil {
		ext = DefaultExtensions()
	}
	t := &AliasTable{
		symbols:   make(map[string]*aliasDef),
		functions: make(map[string]*aliasDef),
	}

	defs := make([]*aliasDef, 0, len(decls))
	for _, d := range decls {
		def, err := parseAliasDecl(d.Decl)
		if err != nil {
			return nil, &AliasError{Name: d.Decl, Err: err}
		}
		def.Source = d.Body
		if def.Params == nil {
			t.symbols[def.Name] = def
		} else {
			t.functions[def.Name] = def
		}
		defs = append(defs, def)
	}

	ctx := ParseContext{Extensions: ext, Aliases: t}
	for i, def := range defs {
		body, _, err := Parse(def.Source, ctx)
		if err != nil {
			return nil, &AliasError{Name: decls[i].Decl, Err: err}
		}
		def.Body = body
	}
	return t, nil
}

// parseAliasDecl parses "name" or "name(param, ...)".
func parseAliasDecl(decl string) (*aliasDef, error) {
	l := NewLexer(decl)
	name := l.NextToken()
	if name.Type != TokenIdent {
		return nil, newParseError(decl, name.Span(), "expected alias name")
	}
	def := &aliasDef{Name: name.Literal}

	tok := l.NextToken()
	if tok.Type == TokenEOF {
		return def, nil
	}
	if tok.Type != TokenLParen {
		return nil, newParseError(decl, tok.Span(), "unexpected token %q in alias declaration", tok.Literal)
	}

	def.Params = []string{}
	seen := map[string]bool{}
	tok = l.NextToken()
	for tok.Type != TokenRParen {
		if tok.Type != TokenIdent {
			return nil, newParseError(decl, tok.Span(), "expected parameter name")
		}
		if seen[tok.Literal] {
			return nil, newParseError(decl, tok.Span(), "redundant parameter %q", tok.Literal)
		}
		seen[tok.Literal] = true
		def.Params = append(def.Params, tok.Literal)

		tok = l.NextToken()
		if tok.Type == TokenComma {
			tok = l.NextToken()
			continue
		}
		if tok.Type != TokenRParen {
			return nil, newParseError(decl, tok.Span(), "expected ',' or ')'")
		}
	}
	if tok = l.NextToken(); tok.Type != TokenEOF {
		return nil, newParseError(decl, tok.Span(), "unexpected token %q after alias declaration", tok.Literal)
	}
	return def, nil
}

func (t *AliasTable) symbol(name string) (*aliasDef, bool) {
	if t == nil {
		return nil, false
	}
	def, ok := t.symbols[name]
	return def, ok
}

func (t *AliasTable) function(name string) (*aliasDef, bool) {
	if t == nil {
		return nil, false
	}
	def, ok := t.functions[name]
	return def, ok
}

// Len returns the number of aliases.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.symbols) + len(t.functions)
}

// Names returns the alias declarations' names, function aliases with "()".
func (t *AliasTable) Names() []string {
	if t == nil {
		return nil
	}
	var names []string
	for _, def := range t.symbols {
		names = append(names, def.key())
	}
	for _, def := range t.functions {
		names = append(names, def.key())
	}
	sort.Strings(names)
	return names
}
