package lex

import (
	"strconv"
	"strings"

	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/source"
)

// puncts is tried longest-first so that e.g. "->" is not lexed as "-"
// followed by a stray ">".
var puncts = []string{
	"::", "->", "=>", "==", "!=", "<=", ">=", "&&", "||",
	"=", "@", "#", "{", "}", "(", ")", "[", "]",
	"+", "-", "*", "/", "%", "<", ">", "!", ",", ".", ":", ";",
}

// Lexer is a single-pass, byte-driven tokenizer for one Source file. It
// never backtracks: every byte is visited exactly once.
type Lexer struct {
	file  *source.File
	diags *diag.Engine
	text  []byte
}

// New returns a Lexer over file, reporting Lex diagnostics to diags.
func New(file *source.File, diags *diag.Engine) *Lexer {
	return &Lexer{file: file, diags: diags, text: file.Text()}
}

// Lex runs the lexer to completion and returns every token, always ending
// in a single EOF token.
func (l *Lexer) Lex() []Token {
	var toks []Token
	i := 0
	n := len(l.text)

	for i < n {
		c := l.text[i]

		switch {
		case c == '\n':
			toks = append(toks, l.tok(Newline, "\n", i, i+1))
			i++

		case c == ' ' || c == '\t' || c == '\r':
			i++

		case c == '/' && i+1 < n && l.text[i+1] == '/':
			start := i
			for i < n && l.text[i] != '\n' {
				i++
			}
			toks = append(toks, l.tok(Comment, string(l.text[start:i]), start, i))

		case c == '/' && i+1 < n && l.text[i+1] == '*':
			start := i
			i += 2
			for i+1 < n && !(l.text[i] == '*' && l.text[i+1] == '/') {
				i++
			}
			if i+1 < n {
				i += 2
			} else {
				i = n
			}
			toks = append(toks, l.tok(Comment, string(l.text[start:i]), start, i))

		case c == '"':
			tok, next := l.lexString(i)
			toks = append(toks, tok)
			i = next

		case isIdentStart(c):
			start := i
			for i < n && isIdentCont(l.text[i]) {
				i++
			}
			text := string(l.text[start:i])
			kind := Ident
			if Keywords[text] {
				kind = Keyword
			}
			toks = append(toks, l.tok(kind, text, start, i))

		case isDigit(c):
			tok, next := l.lexNumber(i)
			toks = append(toks, tok)
			i = next

		default:
			if p, ok := matchPunct(l.text[i:]); ok {
				toks = append(toks, l.tok(Punct, p, i, i+len(p)))
				i += len(p)
			} else {
				span := l.span(i, i+1)
				l.diags.Errorf(diag.CodeLex, span, "unexpected character %q", string(c))
				i++
				// resynchronize at the next whitespace, per spec §4.1/§7
				for i < n && l.text[i] != ' ' && l.text[i] != '\t' && l.text[i] != '\n' {
					i++
				}
			}
		}
	}

	toks = append(toks, l.tok(EOF, "", n, n))
	return toks
}

func (l *Lexer) lexString(start int) (Token, int) {
	n := len(l.text)
	i := start + 1
	var sb strings.Builder
	closed := false

	for i < n {
		c := l.text[i]
		if c == '"' {
			i++
			closed = true
			break
		}
		if c == '\\' && i+1 < n {
			switch l.text[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(l.text[i+1])
			}
			i += 2
			continue
		}
		if c == '\n' {
			break
		}
		sb.WriteByte(c)
		i++
	}

	if !closed {
		span := l.span(start, i)
		l.diags.Errorf(diag.CodeLex, span, "unterminated string literal")
	}

	tok := l.tok(StrLit, string(l.text[start:i]), start, i)
	tok.StrVal = sb.String()
	return tok, i
}

func (l *Lexer) lexNumber(start int) (Token, int) {
	n := len(l.text)
	i := start
	for i < n && isDigit(l.text[i]) {
		i++
	}
	isFloat := false
	if i < n && l.text[i] == '.' && i+1 < n && isDigit(l.text[i+1]) {
		isFloat = true
		i++
		for i < n && isDigit(l.text[i]) {
			i++
		}
	}

	text := string(l.text[start:i])
	if isFloat {
		tok := l.tok(FloatLit, text, start, i)
		tok.FloatVal, _ = strconv.ParseFloat(text, 64)
		return tok, i
	}
	tok := l.tok(IntLit, text, start, i)
	tok.IntVal, _ = strconv.ParseInt(text, 10, 64)
	return tok, i
}

func (l *Lexer) span(lo, hi int) source.Span {
	return source.Span{File: l.file.ID(), Lo: lo, Hi: hi}
}

func (l *Lexer) tok(kind Kind, text string, lo, hi int) Token {
	return Token{Kind: kind, Text: text, Span: l.span(lo, hi)}
}

func matchPunct(rest []byte) (string, bool) {
	for _, p := range puncts {
		if len(p) <= len(rest) && string(rest[:len(p)]) == p {
			return p, true
		}
	}
	return "", false
}

func isIdentStart(c byte) bool {
	return c == '_' || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
