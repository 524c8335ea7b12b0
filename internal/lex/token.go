// Package lex turns a Source file's byte stream into a Token stream, per
// spec §4.1. The lexer is byte-driven, single-pass, and never backtracks.
package lex

import (
	"fmt"

	"github.com/BurntChromium/iona-lang/internal/source"
)

// Kind is the tag of the closed Token variant (spec §3).
type Kind int

const (
	Ident Kind = iota
	Keyword
	IntLit
	FloatLit
	StrLit
	Punct
	Newline
	Comment
	EOF
)

func (k Kind) String() string {
	switch k {
	case Ident:
		return "identifier"
	case Keyword:
		return "keyword"
	case IntLit:
		return "integer literal"
	case FloatLit:
		return "float literal"
	case StrLit:
		return "string literal"
	case Punct:
		return "punctuation"
	case Newline:
		return "newline"
	case Comment:
		return "comment"
	case EOF:
		return "end of input"
	}
	return "unknown"
}

// Keywords is the fixed keyword set of spec §4.1.
var Keywords = map[string]bool{
	"fn": true, "let": true, "set": true, "if": true, "else": true,
	"return": true, "match": true, "mut": true, "import": true, "from": true,
}

// Token is a tagged variant over the closed set described in spec §3. Text
// is always the raw lexeme; IntVal/FloatVal/StrVal carry the decoded literal
// value for the matching Kind.
type Token struct {
	Kind     Kind
	Text     string
	IntVal   int64
	FloatVal float64
	StrVal   string
	Span     source.Span
}

// Is reports whether the token is punctuation matching lexeme, e.g.
// tok.Is("->").
func (t Token) Is(punct string) bool {
	return t.Kind == Punct && t.Text == punct
}

// IsKeyword reports whether the token is the given keyword.
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == Keyword && t.Text == kw
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "<eof>"
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

// Stream is a forward-only, one-token-lookahead cursor over a Token slice,
// the same small interface as ictiobus's TokenStream.
type Stream struct {
	tokens []Token
	cur    int
}

// NewStream wraps tokens (which must end in an EOF token) in a Stream.
func NewStream(tokens []Token) *Stream {
	return &Stream{tokens: tokens}
}

// Peek returns the next token without consuming it.
func (s *Stream) Peek() Token {
	return s.tokens[s.cur]
}

// PeekAt returns the token n positions ahead of the cursor without
// consuming anything; PeekAt(0) is equivalent to Peek.
func (s *Stream) PeekAt(n int) Token {
	i := s.cur + n
	if i >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1]
	}
	return s.tokens[i]
}

// Next consumes and returns the next token.
func (s *Stream) Next() Token {
	t := s.tokens[s.cur]
	if s.cur < len(s.tokens)-1 {
		s.cur++
	}
	return t
}

// Mark returns a position that can be restored with Reset, for the
// parser's bounded lookahead when disambiguating a trailing return type.
func (s *Stream) Mark() int {
	return s.cur
}

// Reset rewinds the stream to a position previously returned by Mark.
func (s *Stream) Reset(mark int) {
	s.cur = mark
}
