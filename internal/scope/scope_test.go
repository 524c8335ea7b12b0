package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/lex"
	"github.com/BurntChromium/iona-lang/internal/parse"
	"github.com/BurntChromium/iona-lang/internal/source"
)

func build(t *testing.T, text string) (*ast.Arena, ast.NodeID, *Scope, *Table, *diag.Engine) {
	t.Helper()
	mgr := source.NewManager()
	f := mgr.AddFile("test.iona", []byte(text))
	diags := diag.NewEngine(mgr)
	toks := lex.New(f, diags).Lex()
	arena := ast.NewArena()
	modID := parse.New(toks, arena, diags, f.ID()).ParseModule()
	root, table, _ := NewBuilder(arena, diags).Build(modID)
	return arena, modID, root, table, diags
}

func Test_Scope_params_bound_and_resolved(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, _, table, diags := build(t, `fn add :: a int -> b int -> int { return a + b }`)
	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])

	p0 := arena.Get(fn.Params[0])
	require.NotEqual(ast.NoSymbol, p0.SymbolID)
	sym := table.Get(SymbolID(p0.SymbolID))
	assert.Equal("a", sym.Name)
	assert.Equal(Param, sym.Kind)

	ret := arena.Get(fn.Body[0])
	bin := arena.Get(ret.A)
	left := arena.Get(bin.A)
	right := arena.Get(bin.B)
	assert.Equal(p0.SymbolID, left.SymbolID)

	p1 := arena.Get(fn.Params[1])
	assert.Equal(p1.SymbolID, right.SymbolID)
}

func Test_Scope_let_binds_and_resolves_in_same_block(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, _, _, diags := build(t, `fn f :: int {
		let x = 1
		return x
	}`)
	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	letStmt := arena.Get(fn.Body[0])
	require.NotEqual(ast.NoSymbol, letStmt.SymbolID)

	ret := arena.Get(fn.Body[1])
	v := arena.Get(ret.A)
	assert.Equal(letStmt.SymbolID, v.SymbolID)
}

func Test_Scope_redeclaration_in_same_scope_is_error(t *testing.T) {
	require := require.New(t)

	_, _, _, _, diags := build(t, `fn f :: int {
		let x = 1
		let x = 2
		return x
	}`)
	require.True(diags.HasErrors())
}

func Test_Scope_shadowing_in_nested_block_is_permitted(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, _, _, diags := build(t, `fn f :: a int -> int {
		let mut x = 0
		if a > 0 {
			let x = 99
			set x = x
		} else {
			set x = 1
		}
		return x
	}`)
	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	outerLet := arena.Get(fn.Body[0])

	ifStmt := arena.Get(fn.Body[1])
	ifExpr := arena.Get(ifStmt.A)
	thenBlock := ifExpr.Then

	innerLet := arena.Get(thenBlock[0])
	assert.NotEqual(outerLet.SymbolID, innerLet.SymbolID)

	innerSet := arena.Get(thenBlock[1])
	setTarget := arena.Get(innerSet.A)
	assert.Equal(innerLet.SymbolID, setTarget.SymbolID)

	elseBlock := ifExpr.Else
	elseSet := arena.Get(elseBlock[0])
	elseTarget := arena.Get(elseSet.A)
	assert.Equal(outerLet.SymbolID, elseTarget.SymbolID)
}

func Test_Scope_forward_reference_to_function_left_unresolved(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, _, _, diags := build(t, `fn f :: int { return g } fn g :: int { return 1 }`)
	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	ret := arena.Get(fn.Body[0])
	callee := arena.Get(ret.A)
	assert.Equal(ast.NoSymbol, callee.SymbolID)
}

func Test_Scope_import_names_bound_in_module_scope(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, root, table, diags := build(t, "from std.files import read_file\nfn f :: int { return 1 }")
	require.False(diags.HasErrors())

	id, ok := root.Lookup("read_file")
	require.True(ok)
	assert.Equal(ImportedName, table.Get(id).Kind)
}
