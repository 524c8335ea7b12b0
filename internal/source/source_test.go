package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_File_LineCol(t *testing.T) {
	testCases := []struct {
		name       string
		text       string
		offset     int
		expectLine int
		expectCol  int
	}{
		{name: "start of file", text: "abc\ndef\n", offset: 0, expectLine: 1, expectCol: 1},
		{name: "mid first line", text: "abc\ndef\n", offset: 2, expectLine: 1, expectCol: 3},
		{name: "start of second line", text: "abc\ndef\n", offset: 4, expectLine: 2, expectCol: 1},
		{name: "single line, no trailing newline", text: "hello", offset: 4, expectLine: 1, expectCol: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFile("test.iona", []byte(tc.text))

			line, col := f.LineCol(tc.offset)

			assert.Equal(tc.expectLine, line)
			assert.Equal(tc.expectCol, col)
		})
	}
}

func Test_File_Line(t *testing.T) {
	assert := assert.New(t)

	f := newFile("test.iona", []byte("one\ntwo\nthree"))

	assert.Equal("one", f.Line(1))
	assert.Equal("two", f.Line(2))
	assert.Equal("three", f.Line(3))
	assert.Equal("", f.Line(4))
	assert.Equal("", f.Line(0))
}

func Test_Manager_Snippet(t *testing.T) {
	assert := assert.New(t)

	m := NewManager()
	f := m.AddFile("test.iona", []byte("fn add :: a int -> b int -> int {\n    return a + b\n}\n"))

	span := Span{File: f.ID(), Lo: 38, Hi: 44} // "return"

	before, line, after, lineNo, col, ok := m.Snippet(span)

	assert.True(ok)
	assert.Equal(2, lineNo)
	assert.Equal(5, col)
	assert.Equal("fn add :: a int -> b int -> int {", before)
	assert.Equal("    return a + b", line)
	assert.Equal("}", after)
}

func Test_File_Fingerprint_stable(t *testing.T) {
	assert := assert.New(t)

	a := newFile("a.iona", []byte("same text"))
	b := newFile("b.iona", []byte("same text"))

	assert.Equal(a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(a.ID(), b.ID())
}

func Test_Span_Before(t *testing.T) {
	assert := assert.New(t)

	m := NewManager()
	f := m.AddFile("test.iona", []byte("abc"))

	early := Span{File: f.ID(), Lo: 0, Hi: 1}
	late := Span{File: f.ID(), Lo: 2, Hi: 3}

	assert.True(early.Before(late))
	assert.False(late.Before(early))
}
