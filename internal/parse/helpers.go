package parse

import (
	"fmt"

	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/lex"
	"github.com/BurntChromium/iona-lang/internal/source"
)

func describe(tok lex.Token) string {
	if tok.Kind == lex.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", tok.Kind, tok.Text)
}

func spanBetween(a, b source.Span) source.Span {
	return source.Span{File: a.File, Lo: a.Lo, Hi: b.Hi}
}

func (p *Parser) spanOf(id ast.NodeID) source.Span {
	if id == ast.InvalidNode {
		return p.toks.Peek().Span
	}
	return p.arena.Get(id).Span
}

// expectPunct consumes the next token if it is the given punctuation,
// reporting a Parse diagnostic and leaving the cursor in place otherwise.
func (p *Parser) expectPunct(punct string) bool {
	tok := p.toks.Peek()
	if tok.Is(punct) {
		p.toks.Next()
		return true
	}
	p.diags.Errorf(diag.CodeParse, tok.Span, "expected '%s', found %s", punct, describe(tok))
	return false
}

func (p *Parser) expectKeyword(kw string) bool {
	tok := p.toks.Peek()
	if tok.IsKeyword(kw) {
		p.toks.Next()
		return true
	}
	p.diags.Errorf(diag.CodeParse, tok.Span, "expected '%s', found %s", kw, describe(tok))
	return false
}

func (p *Parser) expectIdent() (lex.Token, bool) {
	tok := p.toks.Peek()
	if tok.Kind == lex.Ident {
		p.toks.Next()
		return tok, true
	}
	p.diags.Errorf(diag.CodeParse, tok.Span, "expected an identifier, found %s", describe(tok))
	return tok, false
}

func (p *Parser) expectIdentText() (string, bool) {
	tok, ok := p.expectIdent()
	return tok.Text, ok
}

func (p *Parser) expectToken(kind lex.Kind) (lex.Token, bool) {
	tok := p.toks.Peek()
	if tok.Kind == kind {
		p.toks.Next()
		return tok, true
	}
	p.diags.Errorf(diag.CodeParse, tok.Span, "expected %s, found %s", kind, describe(tok))
	return tok, false
}

// expectTerminator consumes a Newline or ';' ending an attribute or
// statement. It is not an error to omit one directly before '}' or EOF,
// matching the line-oriented-within-declarations rule of spec §6.
func (p *Parser) expectTerminator() {
	tok := p.toks.Peek()
	if tok.Kind == lex.Newline || tok.Is(";") {
		p.toks.Next()
		return
	}
	if tok.Is("}") || tok.Kind == lex.EOF {
		return
	}
	p.diags.Errorf(diag.CodeParse, tok.Span, "expected end of statement, found %s", describe(tok))
}

// skipSeparators consumes any run of Newline/';'/Comment tokens.
func (p *Parser) skipSeparators() {
	for {
		tok := p.toks.Peek()
		if tok.Kind == lex.Newline || tok.Is(";") || tok.Kind == lex.Comment {
			p.toks.Next()
			continue
		}
		break
	}
}

// resyncToTopLevel discards tokens until the next 'from'/'fn' keyword or
// EOF, so a broken declaration doesn't take the rest of the module with it.
func (p *Parser) resyncToTopLevel() {
	for {
		tok := p.toks.Peek()
		if tok.Kind == lex.EOF || tok.IsKeyword("from") || tok.IsKeyword("fn") {
			return
		}
		p.toks.Next()
	}
}

// resyncToStatement discards tokens up to the next statement boundary: a
// Newline or ';' seen at bracket depth zero, or '}'/EOF.
func (p *Parser) resyncToStatement() {
	depth := 0
	for {
		tok := p.toks.Peek()
		switch {
		case tok.Kind == lex.EOF:
			return
		case tok.Is("{") || tok.Is("(") || tok.Is("["):
			depth++
		case tok.Is("}"):
			if depth == 0 {
				return
			}
			depth--
		case tok.Is(")") || tok.Is("]"):
			if depth > 0 {
				depth--
			}
		case (tok.Kind == lex.Newline || tok.Is(";")) && depth == 0:
			p.toks.Next()
			return
		}
		p.toks.Next()
	}
}
