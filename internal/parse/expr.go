package parse

import (
	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/lex"
)

// binOps maps an operator lexeme to its left-binding power per the
// precedence table of spec §4.2. Operators not in this table (e.g. "->")
// simply end expression parsing, which is what lets a contract predicate
// stop cleanly before its "-> message" suffix.
var binOps = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
}

// parseExpr parses an expression via precedence climbing, consuming only
// operators whose binding power is at least minBP.
func (p *Parser) parseExpr(minBP int) ast.NodeID {
	left := p.parseUnary()

	for {
		tok := p.toks.Peek()
		if tok.Kind != lex.Punct {
			break
		}
		bp, ok := binOps[tok.Text]
		if !ok || bp < minBP {
			break
		}
		p.toks.Next()
		right := p.parseExpr(bp + 1) // left-associative: raise the floor by one
		left = p.arena.Alloc(ast.Node{
			Kind: ast.ExprBin, Span: spanBetween(p.spanOf(left), p.spanOf(right)),
			Str: tok.Text, A: left, B: right,
			SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
		})
	}

	return left
}

// parseUnary handles the prefix operators '-' and '!' (precedence 6),
// tighter than every binary operator but looser than call/index (7).
func (p *Parser) parseUnary() ast.NodeID {
	tok := p.toks.Peek()
	if tok.Is("-") || tok.Is("!") {
		p.toks.Next()
		operand := p.parseUnary()
		return p.arena.Alloc(ast.Node{
			Kind: ast.ExprPrefix, Span: spanBetween(tok.Span, p.spanOf(operand)),
			Str: tok.Text, A: operand,
			SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
		})
	}
	return p.parsePostfix()
}

// parsePostfix handles call (by juxtaposition) and index, precedence 7,
// the tightest level. A bare argument list continues only while the next
// token can start a primary that is not itself a prefix operator, so that
// "f -b" is never ambiguous between a call and a subtraction: pass a
// negated value as "f (-b)" instead.
func (p *Parser) parsePostfix() ast.NodeID {
	left := p.parsePrimary()

	for {
		if p.startsCallArg() {
			start := p.spanOf(left)
			var args []ast.NodeID
			for p.startsCallArg() {
				args = append(args, p.parsePrimary())
			}
			last := args[len(args)-1]
			left = p.arena.Alloc(ast.Node{
				Kind: ast.ExprCall, Span: spanBetween(start, p.spanOf(last)),
				A: left, Children: args,
				SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
			})
			continue
		}
		if p.toks.Peek().Is("[") {
			start := p.spanOf(left)
			p.toks.Next()
			idx := p.parseExpr(1)
			end := p.toks.Peek().Span
			p.expectPunct("]")
			left = p.arena.Alloc(ast.Node{
				Kind: ast.ExprIndex, Span: spanBetween(start, end), A: left, B: idx,
				SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
			})
			continue
		}
		break
	}

	return left
}

func (p *Parser) startsCallArg() bool {
	tok := p.toks.Peek()
	switch tok.Kind {
	case lex.Ident, lex.IntLit, lex.FloatLit, lex.StrLit:
		return true
	case lex.Punct:
		return tok.Text == "("
	}
	return false
}

func (p *Parser) parsePrimary() ast.NodeID {
	tok := p.toks.Peek()

	switch tok.Kind {
	case lex.IntLit:
		p.toks.Next()
		return p.arena.Alloc(ast.Node{Kind: ast.ExprLit, Span: tok.Span, LitKind: ast.LitInt, IntVal: tok.IntVal, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode})
	case lex.FloatLit:
		p.toks.Next()
		return p.arena.Alloc(ast.Node{Kind: ast.ExprLit, Span: tok.Span, LitKind: ast.LitFloat, FloatVal: tok.FloatVal, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode})
	case lex.StrLit:
		p.toks.Next()
		return p.arena.Alloc(ast.Node{Kind: ast.ExprLit, Span: tok.Span, LitKind: ast.LitStr, StrVal: tok.StrVal, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode})
	case lex.Ident:
		p.toks.Next()
		return p.arena.Alloc(ast.Node{Kind: ast.ExprVar, Span: tok.Span, Name: tok.Text, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode})
	case lex.Keyword:
		switch tok.Text {
		case "if":
			return p.parseIfExpr()
		case "match":
			return p.parseMatchExpr()
		}
	case lex.Punct:
		if tok.Text == "(" {
			p.toks.Next()
			e := p.parseExpr(1)
			p.expectPunct(")")
			return e
		}
	}

	p.diags.Errorf(diag.CodeParse, tok.Span, "expected an expression, found %s", describe(tok))
	p.resyncToStatement()
	return p.arena.Alloc(ast.Node{Kind: ast.ExprLit, Span: tok.Span, LitKind: ast.LitInt, ResolvedType: ast.ErrorType, SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode})
}

// parseIfExpr parses `if cond { then } [else { else }]`. The else branch is
// optional in every position: neither the parser nor the Semantic Analyzer
// rejects an If without else whose value is used; such an If has type void.
func (p *Parser) parseIfExpr() ast.NodeID {
	start := p.toks.Next().Span // 'if'
	cond := p.parseExpr(1)
	then := p.parseBlock()

	hasElse := false
	var elseBranch []ast.NodeID
	if p.toks.Peek().IsKeyword("else") {
		p.toks.Next()
		hasElse = true
		if p.toks.Peek().IsKeyword("if") {
			elseBranch = []ast.NodeID{p.parseIfExpr()}
		} else {
			elseBranch = p.parseBlock()
		}
	}

	end := p.toks.Peek().Span
	node := ast.Node{
		Kind: ast.ExprIf, Span: spanBetween(start, end), A: cond,
		Then: then, Else: elseBranch, HasElse: hasElse,
		SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	}
	return p.arena.Alloc(node)
}

// parseMatchExpr parses `match scrutinee { pattern [if guard] => expr ... }`.
func (p *Parser) parseMatchExpr() ast.NodeID {
	start := p.toks.Next().Span // 'match'
	scrutinee := p.parseExpr(1)

	if !p.expectPunct("{") {
		return scrutinee
	}

	var arms []ast.NodeID
	p.skipSeparators()
	for !p.toks.Peek().Is("}") && p.toks.Peek().Kind != lex.EOF {
		arms = append(arms, p.parseMatchArm())
		p.skipSeparators()
	}
	end := p.toks.Peek().Span
	p.expectPunct("}")

	return p.arena.Alloc(ast.Node{
		Kind: ast.ExprMatch, Span: spanBetween(start, end), A: scrutinee, Children: arms,
		SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	})
}

func (p *Parser) parseMatchArm() ast.NodeID {
	start := p.toks.Peek().Span
	pattern := p.parseUnary() // literals, identifiers (bindings/wildcard), or a negated literal

	guard := ast.InvalidNode
	if p.toks.Peek().IsKeyword("if") {
		p.toks.Next()
		guard = p.parseExpr(1)
	}

	if !p.expectPunct("=>") {
		p.resyncToStatement()
		return ast.InvalidNode
	}
	body := p.parseExpr(1)

	end := p.toks.Peek().Span
	id := p.arena.Alloc(ast.Node{
		Kind: ast.MatchArm, Span: spanBetween(start, end), A: pattern, B: guard, C: body,
		SymbolID: ast.NoSymbol, ReturnType: ast.InvalidNode,
	})
	p.expectTerminator()
	return id
}
