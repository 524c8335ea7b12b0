// Package parse turns a Token stream into an untyped AST (spec §4.2). The
// parser composes a fixed set of top-level grammars - one per declaration
// kind (currently import, fn) - with a single expression sub-parser. Each
// top-level grammar is self-contained: on error it reports a diagnostic and
// resynchronizes at the next top-level keyword without corrupting the rest
// of the parse.
package parse

import (
	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/lex"
	"github.com/BurntChromium/iona-lang/internal/source"
)

// Parser holds the mutable state of one parse: a token cursor, the arena
// nodes are allocated into, and the diagnostic engine errors are reported
// to.
type Parser struct {
	toks  *lex.Stream
	arena *ast.Arena
	diags *diag.Engine
	file  source.ID
}

// New returns a Parser over tokens (which must end in an EOF token, as
// produced by lex.Lexer.Lex), allocating nodes into arena and reporting
// problems to diags.
func New(tokens []lex.Token, arena *ast.Arena, diags *diag.Engine, file source.ID) *Parser {
	return &Parser{toks: lex.NewStream(tokens), arena: arena, diags: diags, file: file}
}

// ParseModule parses an entire source file as a Module: zero or more
// imports followed by zero or more function declarations, in any
// interleaving (import names are bound at module scope by the Scope
// Builder, not by the parser).
func (p *Parser) ParseModule() ast.NodeID {
	start := p.toks.Peek().Span
	var imports, fns []ast.NodeID

	p.skipSeparators()
	for p.toks.Peek().Kind != lex.EOF {
		tok := p.toks.Peek()
		switch {
		case tok.IsKeyword("from"):
			imports = append(imports, p.parseImport())
		case tok.IsKeyword("fn"):
			fns = append(fns, p.parseFnDecl())
		default:
			p.diags.Errorf(diag.CodeParse, tok.Span, "expected a declaration ('from' or 'fn'), found %s", describe(tok))
			p.resyncToTopLevel()
		}
		p.skipSeparators()
	}

	end := p.toks.Peek().Span
	return p.arena.Alloc(ast.Node{
		Kind:       ast.Module,
		Span:       spanBetween(start, end),
		Imports:    imports,
		Functions:  fns,
		SymbolID:   ast.NoSymbol,
		ReturnType: ast.InvalidNode,
	})
}

// parseImport parses `from <dotted.path> import <name> (, <name>)*`.
func (p *Parser) parseImport() ast.NodeID {
	start := p.toks.Next().Span // 'from'

	path, ok := p.parseDottedPath()
	if !ok {
		p.resyncToTopLevel()
		return ast.InvalidNode
	}

	if !p.expectKeyword("import") {
		p.resyncToTopLevel()
		return ast.InvalidNode
	}

	var names []string
	name, ok := p.expectIdentText()
	if !ok {
		p.resyncToTopLevel()
		return ast.InvalidNode
	}
	names = append(names, name)
	for p.toks.Peek().Is(",") {
		p.toks.Next()
		name, ok := p.expectIdentText()
		if !ok {
			break
		}
		names = append(names, name)
	}

	end := p.toks.Peek().Span
	node := p.arena.Alloc(ast.Node{
		Kind:       ast.Import,
		Span:       spanBetween(start, end),
		Name:       path,
		Names:      names,
		SymbolID:   ast.NoSymbol,
		ReturnType: ast.InvalidNode,
	})
	p.expectTerminator()
	return node
}

func (p *Parser) parseDottedPath() (string, bool) {
	first, ok := p.expectIdentText()
	if !ok {
		return "", false
	}
	path := first
	for p.toks.Peek().Is(".") {
		p.toks.Next()
		seg, ok := p.expectIdentText()
		if !ok {
			return "", false
		}
		path += "." + seg
	}
	return path, true
}

// parseFnDecl parses `fn name :: seg -> seg -> ... -> RetType { body }`.
func (p *Parser) parseFnDecl() ast.NodeID {
	start := p.toks.Next().Span // 'fn'

	name, ok := p.expectIdentText()
	if !ok {
		p.resyncToTopLevel()
		return ast.InvalidNode
	}

	if !p.expectPunct("::") {
		p.resyncToTopLevel()
		return ast.InvalidNode
	}

	params, retType := p.parseSignature()

	if !p.expectPunct("{") {
		p.resyncToTopLevel()
		return ast.InvalidNode
	}

	attrs := p.parseAttributes()
	body := p.parseStmtsUntilBrace()

	end := p.toks.Peek().Span
	p.expectPunct("}")

	return p.arena.Alloc(ast.Node{
		Kind:       ast.FnDecl,
		Span:       spanBetween(start, end),
		Name:       name,
		Params:     params,
		Attributes: attrs,
		Body:       body,
		ReturnType: retType,
		SymbolID:   ast.NoSymbol,
	})
}

// parseSignature parses the `p1 T1 -> p2 T2 -> ... -> Tret` arrow chain.
// Each segment but the last must be exactly "name type"; the last segment
// is the bare return type. A segment with only a name and no type is a
// parse error with the hint spec scenario 6 names.
func (p *Parser) parseSignature() (params []ast.NodeID, retType ast.NodeID) {
	var segments [][]lex.Token
	var cur []lex.Token
	for {
		tok := p.toks.Peek()
		if tok.Is("{") || tok.Kind == lex.EOF {
			segments = append(segments, cur)
			break
		}
		if tok.Is("->") {
			p.toks.Next()
			segments = append(segments, cur)
			cur = nil
			continue
		}
		cur = append(cur, p.toks.Next())
	}

	retType = ast.InvalidNode
	for i, seg := range segments {
		isLast := i == len(segments)-1
		if isLast {
			retType = p.segmentToType(seg)
			continue
		}
		params = append(params, p.segmentToParam(seg))
	}
	return params, retType
}

func (p *Parser) segmentToType(seg []lex.Token) ast.NodeID {
	if len(seg) == 0 {
		return ast.InvalidNode
	}
	tok := seg[0]
	return p.arena.Alloc(ast.Node{
		Kind: ast.Type, Span: tok.Span, Name: tok.Text,
		SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	})
}

func (p *Parser) segmentToParam(seg []lex.Token) ast.NodeID {
	idx := 0
	mut := false
	if idx < len(seg) && seg[idx].IsKeyword("mut") {
		mut = true
		idx++
	}

	if idx >= len(seg) {
		// whole segment was empty, or just 'mut': nothing to report a
		// useful span for beyond where the segment should have been.
		return ast.InvalidNode
	}

	nameTok := seg[idx]
	idx++

	if idx >= len(seg) {
		p.diags.Report(diag.Diagnostic{
			Severity:    diag.Error,
			Code:        diag.CodeParse,
			PrimarySpan: nameTok.Span,
			Message:     "argument '" + nameTok.Text + "' has no type information",
			Hint:        "add a type for this argument",
		})
		return p.arena.Alloc(ast.Node{
			Kind: ast.Param, Span: nameTok.Span, Name: nameTok.Text, Mut: mut,
			A: ast.InvalidNode, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
		})
	}

	typeTok := seg[idx]
	typeNode := p.arena.Alloc(ast.Node{
		Kind: ast.Type, Span: typeTok.Span, Name: typeTok.Text,
		SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	})

	return p.arena.Alloc(ast.Node{
		Kind: ast.Param, Span: spanBetween(nameTok.Span, typeTok.Span), Name: nameTok.Text, Mut: mut,
		A: typeNode, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	})
}

// parseAttributes parses the zero-or-more `#Kind :: payload` clauses that
// must appear before any statement in a function body preamble.
func (p *Parser) parseAttributes() []ast.NodeID {
	var attrs []ast.NodeID
	p.skipSeparators()
	for p.toks.Peek().Is("#") {
		attrs = append(attrs, p.parseAttribute())
		p.skipSeparators()
	}
	return attrs
}

func (p *Parser) parseAttribute() ast.NodeID {
	start := p.toks.Next().Span // '#'

	kindTok, ok := p.expectIdent()
	if !ok {
		p.resyncToStatement()
		return ast.InvalidNode
	}

	kind, deprecated, recognized := classifyAttribute(kindTok.Text)
	if !recognized {
		p.diags.Errorf(diag.CodeParse, kindTok.Span, "unknown attribute '#%s'", kindTok.Text)
	}
	if deprecated {
		p.diags.Report(diag.Diagnostic{
			Severity:    diag.Warning,
			Code:        diag.CodeDeprecatedAlias,
			PrimarySpan: kindTok.Span,
			Message:     "'#Requirements' is a deprecated spelling of '#Permissions'",
			Hint:        "use '#Permissions' instead",
		})
	}

	if !p.expectPunct("::") {
		p.resyncToStatement()
		return ast.InvalidNode
	}

	node := ast.Node{Kind: ast.Attribute, AttrKind: kind, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode, A: ast.InvalidNode}

	switch kind {
	case ast.AttrProperties, ast.AttrPermissions:
		var names []string
		for {
			tok := p.toks.Peek()
			if tok.Kind != lex.Ident {
				break
			}
			names = append(names, tok.Text)
			p.toks.Next()
		}
		node.Names = names
	default: // In, Out, Invariant
		pred := p.parseExpr(1)
		node.A = pred
		if !p.expectPunct("->") {
			p.resyncToStatement()
			return ast.InvalidNode
		}
		msgTok, ok := p.expectToken(lex.StrLit)
		if ok {
			node.Str = msgTok.StrVal
		}
	}

	end := p.toks.Peek().Span
	node.Span = spanBetween(start, end)
	id := p.arena.Alloc(node)
	p.expectTerminator()
	return id
}

func classifyAttribute(name string) (kind ast.AttributeKind, deprecated bool, recognized bool) {
	switch name {
	case "Properties":
		return ast.AttrProperties, false, true
	case "Permissions":
		return ast.AttrPermissions, false, true
	case "Requirements":
		return ast.AttrPermissions, true, true
	case "In":
		return ast.AttrIn, false, true
	case "Out":
		return ast.AttrOut, false, true
	case "Invariant":
		return ast.AttrInvariant, false, true
	}
	return ast.AttrProperties, false, false
}

// parseStmtsUntilBrace parses statements until the next token is '}' (not
// consumed) or EOF.
func (p *Parser) parseStmtsUntilBrace() []ast.NodeID {
	var stmts []ast.NodeID
	p.skipSeparators()
	for {
		tok := p.toks.Peek()
		if tok.Is("}") || tok.Kind == lex.EOF {
			break
		}
		stmts = append(stmts, p.parseStmt())
		p.skipSeparators()
	}
	return stmts
}

// parseBlock parses a brace-delimited statement list: `{ stmts }`.
func (p *Parser) parseBlock() []ast.NodeID {
	if !p.expectPunct("{") {
		return nil
	}
	stmts := p.parseStmtsUntilBrace()
	p.expectPunct("}")
	return stmts
}

func (p *Parser) parseStmt() ast.NodeID {
	tok := p.toks.Peek()
	switch {
	case tok.IsKeyword("let"):
		return p.parseLet()
	case tok.IsKeyword("set"):
		return p.parseSet()
	case tok.IsKeyword("return"):
		return p.parseReturn()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLet() ast.NodeID {
	start := p.toks.Next().Span // 'let'

	mut := false
	if p.toks.Peek().IsKeyword("mut") {
		mut = true
		p.toks.Next()
	}

	name, ok := p.expectIdentText()
	if !ok {
		p.resyncToStatement()
		return ast.InvalidNode
	}

	typeNode := ast.InvalidNode
	if p.toks.Peek().Is(":") {
		p.toks.Next()
		typeTok, ok := p.expectIdent()
		if ok {
			typeNode = p.arena.Alloc(ast.Node{Kind: ast.Type, Span: typeTok.Span, Name: typeTok.Text, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode})
		}
	}

	if !p.expectPunct("=") {
		p.resyncToStatement()
		return ast.InvalidNode
	}
	init := p.parseExpr(1)

	end := p.toks.Peek().Span
	id := p.arena.Alloc(ast.Node{
		Kind: ast.StmtLet, Span: spanBetween(start, end), Name: name, Mut: mut,
		A: init, B: typeNode, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	})
	p.expectTerminator()
	return id
}

func (p *Parser) parseSet() ast.NodeID {
	start := p.toks.Next().Span // 'set'

	target := p.parsePostfix()
	if !p.expectPunct("=") {
		p.resyncToStatement()
		return ast.InvalidNode
	}
	value := p.parseExpr(1)

	end := p.toks.Peek().Span
	id := p.arena.Alloc(ast.Node{
		Kind: ast.StmtSet, Span: spanBetween(start, end), A: target, B: value,
		SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	})
	p.expectTerminator()
	return id
}

func (p *Parser) parseReturn() ast.NodeID {
	start := p.toks.Next().Span // 'return'

	expr := ast.InvalidNode
	tok := p.toks.Peek()
	if !tok.Is("}") && tok.Kind != lex.Newline && !tok.Is(";") && tok.Kind != lex.EOF {
		expr = p.parseExpr(1)
	}

	end := p.toks.Peek().Span
	id := p.arena.Alloc(ast.Node{
		Kind: ast.StmtReturn, Span: spanBetween(start, end), A: expr,
		SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	})
	p.expectTerminator()
	return id
}

func (p *Parser) parseExprStmt() ast.NodeID {
	start := p.toks.Peek().Span
	expr := p.parseExpr(1)
	end := p.toks.Peek().Span
	id := p.arena.Alloc(ast.Node{
		Kind: ast.StmtExpr, Span: spanBetween(start, end), A: expr,
		SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	})
	p.expectTerminator()
	return id
}
