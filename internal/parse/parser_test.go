package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/lex"
	"github.com/BurntChromium/iona-lang/internal/source"
)

func parseModule(t *testing.T, text string) (*ast.Arena, ast.NodeID, *diag.Engine) {
	t.Helper()
	mgr := source.NewManager()
	f := mgr.AddFile("test.iona", []byte(text))
	diags := diag.NewEngine(mgr)
	toks := lex.New(f, diags).Lex()
	arena := ast.NewArena()
	p := New(toks, arena, diags, f.ID())
	mod := p.ParseModule()
	return arena, mod, diags
}

func Test_Parse_pure_add(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	arena, modID, diags := parseModule(t, `fn add :: a int -> b int -> int { #Properties :: Pure Export; return a + b }`)

	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	require.Len(mod.Functions, 1)

	fn := arena.Get(mod.Functions[0])
	assert.Equal("add", fn.Name)
	require.Len(fn.Params, 2)

	p0 := arena.Get(fn.Params[0])
	assert.Equal("a", p0.Name)
	assert.Equal("int", arena.Get(p0.A).Name)

	p1 := arena.Get(fn.Params[1])
	assert.Equal("b", p1.Name)
	assert.Equal("int", arena.Get(p1.A).Name)

	require.NotEqual(ast.InvalidNode, fn.ReturnType)
	assert.Equal("int", arena.Get(fn.ReturnType).Name)

	require.Len(fn.Attributes, 1)
	attr := arena.Get(fn.Attributes[0])
	assert.Equal(ast.AttrProperties, attr.AttrKind)
	assert.Equal([]string{"Pure", "Export"}, attr.Names)

	require.Len(fn.Body, 1)
	ret := arena.Get(fn.Body[0])
	assert.Equal(ast.StmtReturn, ret.Kind)
	bin := arena.Get(ret.A)
	assert.Equal(ast.ExprBin, bin.Kind)
	assert.Equal("+", bin.Str)
}

func Test_Parse_precondition(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	src := `fn div :: a int -> b int -> int { #Properties :: Pure Export; #In :: b != 0 -> "b must not be 0"; return a / b }`
	arena, modID, diags := parseModule(t, src)

	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	require.Len(fn.Attributes, 2)

	in := arena.Get(fn.Attributes[1])
	assert.Equal(ast.AttrIn, in.AttrKind)
	assert.Equal("b must not be 0", in.Str)

	pred := arena.Get(in.A)
	assert.Equal(ast.ExprBin, pred.Kind)
	assert.Equal("!=", pred.Str)
}

func Test_Parse_missing_param_type_scenario6(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	arena, modID, diags := parseModule(t, "fn add :: a -> b int -> int { return a + b }")

	require.True(diags.HasErrors())
	d := diags.Diagnostics()[0]
	assert.Equal(diag.CodeParse, d.Code)
	assert.Equal("argument 'a' has no type information", d.Message)
	assert.Equal("add a type for this argument", d.Hint)

	mod := arena.Get(modID)
	require.Len(mod.Functions, 1)
}

func Test_Parse_import(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	arena, modID, diags := parseModule(t, "from std.files import read_file, write_file\n")

	require.False(diags.HasErrors())
	mod := arena.Get(modID)
	require.Len(mod.Imports, 1)

	imp := arena.Get(mod.Imports[0])
	assert.Equal("std.files", imp.Name)
	assert.Equal([]string{"read_file", "write_file"}, imp.Names)
}

func Test_Parse_zero_arg_function(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, diags := parseModule(t, "fn answer :: int { return 42 }")
	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	assert.Empty(fn.Params)
	assert.Equal("int", arena.Get(fn.ReturnType).Name)
}

func Test_Parse_call_by_juxtaposition(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, diags := parseModule(t, "fn f :: a int -> int { return add a 1 }")
	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	ret := arena.Get(fn.Body[0])
	call := arena.Get(ret.A)
	require.Equal(ast.ExprCall, call.Kind)
	require.Len(call.Children, 2)
	assert.Equal(ast.ExprVar, arena.Get(call.A).Kind)
	assert.Equal("add", arena.Get(call.A).Name)
}

func Test_Parse_if_expression_both_branches(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, diags := parseModule(t, `fn f :: a int -> int {
		let mut x = 0
		if a > 0 {
			set x = 1
		} else {
			set x = -1
		}
		return x
	}`)
	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	require.Len(fn.Body, 3)

	ifStmt := arena.Get(fn.Body[1])
	require.Equal(ast.StmtExpr, ifStmt.Kind)
	ifExpr := arena.Get(ifStmt.A)
	assert.Equal(ast.ExprIf, ifExpr.Kind)
	assert.True(ifExpr.HasElse)
	assert.Len(ifExpr.Then, 1)
	assert.Len(ifExpr.Else, 1)
}

func Test_Parse_recovers_after_bad_declaration(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, diags := parseModule(t, "@@@ garbage\nfn good :: int { return 1 }")

	require.True(diags.HasErrors())
	mod := arena.Get(modID)
	require.Len(mod.Functions, 1)
	assert.Equal("good", arena.Get(mod.Functions[0]).Name)
}
