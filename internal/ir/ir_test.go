package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/decl"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/lex"
	"github.com/BurntChromium/iona-lang/internal/parse"
	"github.com/BurntChromium/iona-lang/internal/scope"
	"github.com/BurntChromium/iona-lang/internal/sema"
	"github.com/BurntChromium/iona-lang/internal/source"
	"github.com/BurntChromium/iona-lang/internal/stdmanifest"
)

func lower(t *testing.T, text string) (*Module, *diag.Engine) {
	t.Helper()
	mgr := source.NewManager()
	f := mgr.AddFile("test.iona", []byte(text))
	diags := diag.NewEngine(mgr)
	toks := lex.New(f, diags).Lex()
	arena := ast.NewArena()
	modID := parse.New(toks, arena, diags, f.ID()).ParseModule()
	root, table, pending := scope.NewBuilder(arena, diags).Build(modID)
	module := decl.NewCollector(arena, diags, table, root).Collect(modID)
	result := sema.NewAnalyzer(arena, diags, module, table, stdmanifest.Default()).Analyze(pending)
	return NewLowerer(arena, module, result).Lower(), diags
}

func Test_Lower_simple_function_produces_one_block(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mod, diags := lower(t, `fn add :: a int -> b int -> int {
		#Properties :: Pure Export
		return a + b
	}`)
	require.False(diags.HasErrors())
	require.Len(mod.Functions, 1)

	fn := mod.Functions[0]
	assert.Equal("add", fn.Name)
	assert.True(fn.Pure)
	assert.Empty(fn.Declared)
	assert.Empty(fn.Inferred)

	var sawBin, sawReturn bool
	for _, in := range fn.Body.Instrs {
		if in.Op == "bin" {
			sawBin = true
			assert.Equal([]string{"+", "a", "b"}, in.Args)
		}
		if in.Op == "return" {
			sawReturn = true
		}
	}
	assert.True(sawBin)
	assert.True(sawReturn)
}

func Test_Lower_if_produces_nested_then_else_blocks(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mod, diags := lower(t, `fn f :: a int -> int {
		if a > 0 {
			return 1
		} else {
			return 0
		}
		return 0
	}`)
	require.False(diags.HasErrors())
	fn := mod.Functions[0]

	var ifInstr *Instr
	for i := range fn.Body.Instrs {
		if fn.Body.Instrs[i].Op == "if" {
			ifInstr = &fn.Body.Instrs[i]
		}
	}
	require.NotNil(ifInstr)
	require.NotNil(ifInstr.Then)
	require.NotNil(ifInstr.Else)

	assert.Equal("return", ifInstr.Then.Instrs[len(ifInstr.Then.Instrs)-1].Op)
	assert.Equal("return", ifInstr.Else.Instrs[len(ifInstr.Else.Instrs)-1].Op)
}

func Test_Lower_discharged_precondition_emits_no_check(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mod, diags := lower(t, `
		fn div :: a int -> b int -> int {
			#In :: b != 0 -> "b must not be 0"
			return a / b
		}
		fn f :: int { return div 10 2 }
	`)
	require.False(diags.HasErrors())

	var f Function
	for _, fn := range mod.Functions {
		if fn.Name == "f" {
			f = fn
		}
	}
	require.Equal("discharged", f.Contracts[0].Outcome)
	for _, in := range f.Body.Instrs {
		assert.NotEqual("check", in.Op)
	}
}

func Test_Lower_runtime_check_precondition_emits_check_before_call(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mod, diags := lower(t, `
		fn div :: a int -> b int -> int {
			#In :: b != 0 -> "b must not be 0"
			return a / b
		}
		fn f :: x int -> int { return div 10 x }
	`)
	require.False(diags.HasErrors())

	var f Function
	for _, fn := range mod.Functions {
		if fn.Name == "f" {
			f = fn
		}
	}

	checkIdx, callIdx := -1, -1
	for i, in := range f.Body.Instrs {
		if in.Op == "check" {
			checkIdx = i
		}
		if in.Op == "call" {
			callIdx = i
		}
	}
	require.NotEqual(-1, checkIdx)
	require.NotEqual(-1, callIdx)
	assert.Less(checkIdx, callIdx)
}

func Test_Lower_permission_sets_attached(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mod, diags := lower(t, `
		from std.files import read_file
		fn read :: path str -> str {
			#Permissions :: ReadFile
			return read_file path
		}
	`)
	require.False(diags.HasErrors())
	fn := mod.Functions[0]
	assert.Equal([]string{"ReadFile"}, fn.Declared)
	assert.Equal([]string{"ReadFile"}, fn.Inferred)
}

func Test_Dump_renders_function_and_contract_lines(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mod, diags := lower(t, `fn add :: a int -> b int -> int { return a + b }`)
	require.False(diags.HasErrors())

	out := Dump(mod)
	assert.Contains(out, "fn add(")
	assert.Contains(out, "bin + a b")
}

func Test_Binary_roundtrip_preserves_structure(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mod, diags := lower(t, `fn f :: a int -> int {
		if a > 0 {
			return 1
		} else {
			return 0
		}
		return 0
	}`)
	require.False(diags.HasErrors())

	data := EncodeBinary(mod)
	require.NotEmpty(data)

	decoded, err := DecodeBinary(data)
	require.NoError(err)
	require.Len(decoded.Functions, 1)
	assert.Equal(mod.Functions[0].Name, decoded.Functions[0].Name)
	assert.Equal(len(mod.Functions[0].Body.Instrs), len(decoded.Functions[0].Body.Instrs))

	var origIf, decIf *Instr
	for i := range mod.Functions[0].Body.Instrs {
		if mod.Functions[0].Body.Instrs[i].Op == "if" {
			origIf = &mod.Functions[0].Body.Instrs[i]
		}
	}
	for i := range decoded.Functions[0].Body.Instrs {
		if decoded.Functions[0].Body.Instrs[i].Op == "if" {
			decIf = &decoded.Functions[0].Body.Instrs[i]
		}
	}
	require.NotNil(origIf)
	require.NotNil(decIf)
	assert.Equal(len(origIf.Then.Instrs), len(decIf.Then.Instrs))
	assert.Equal(len(origIf.Else.Instrs), len(decIf.Else.Instrs))
}
