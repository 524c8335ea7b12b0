package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/decl"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/lex"
	"github.com/BurntChromium/iona-lang/internal/parse"
	"github.com/BurntChromium/iona-lang/internal/perm"
	"github.com/BurntChromium/iona-lang/internal/scope"
	"github.com/BurntChromium/iona-lang/internal/source"
	"github.com/BurntChromium/iona-lang/internal/stdmanifest"
)

func analyze(t *testing.T, text string) (*ast.Arena, ast.NodeID, *decl.Module, *Result, *diag.Engine) {
	t.Helper()
	mgr := source.NewManager()
	f := mgr.AddFile("test.iona", []byte(text))
	diags := diag.NewEngine(mgr)
	toks := lex.New(f, diags).Lex()
	arena := ast.NewArena()
	modID := parse.New(toks, arena, diags, f.ID()).ParseModule()
	root, table, pending := scope.NewBuilder(arena, diags).Build(modID)
	module := decl.NewCollector(arena, diags, table, root).Collect(modID)
	result := NewAnalyzer(arena, diags, module, table, stdmanifest.Default()).Analyze(pending)
	return arena, modID, module, result, diags
}

func Test_Sema_forward_reference_resolves_in_phase_a(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, _, _, diags := analyze(t, `fn f :: int { return g } fn g :: int { return 1 }`)
	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	ret := arena.Get(fn.Body[0])
	callee := arena.Get(ret.A)
	assert.NotEqual(ast.NoSymbol, callee.SymbolID)
}

func Test_Sema_unresolved_name_becomes_sentinel_and_diagnostic(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, _, _, diags := analyze(t, `fn f :: int { return nope }`)
	require.True(diags.HasErrors())
	assert.Equal(diag.CodeNameNotFound, diags.Diagnostics()[0].Code)

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	ret := arena.Get(fn.Body[0])
	callee := arena.Get(ret.A)
	assert.NotEqual(ast.NoSymbol, callee.SymbolID) // sentinel, not NoSymbol
}

func Test_Sema_permission_result_is_populated(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, _, result, diags := analyze(t, `
		from std.files import read_file
		fn read :: path str -> str {
			#Permissions :: ReadFile
			return read_file path
		}
	`)
	require.False(diags.HasErrors())
	assert.True(result.Permissions.Declared["read"].Has(perm.ReadFile))
	assert.True(result.Permissions.Inferred["read"].Has(perm.ReadFile))
}

func Test_Sema_arithmetic_type_mismatch_reported(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, _, _, diags := analyze(t, `fn f :: a int -> b str -> int { return a + b }`)
	require.True(diags.HasErrors())
	assert.Equal(diag.CodeTypeMismatch, diags.Diagnostics()[0].Code)
}

func Test_Sema_return_type_mismatch_reported(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, _, _, diags := analyze(t, `fn f :: str { return 1 }`)
	require.True(diags.HasErrors())
	assert.Equal(diag.CodeTypeMismatch, diags.Diagnostics()[0].Code)
}

func Test_Sema_comparison_yields_bool(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arena, modID, _, _, diags := analyze(t, `fn f :: a int -> bool { return a > 0 }`)
	require.False(diags.HasErrors())

	mod := arena.Get(modID)
	fn := arena.Get(mod.Functions[0])
	ret := arena.Get(fn.Body[0])
	cmp := arena.Get(ret.A)
	assert.Equal("bool", cmp.ResolvedType)
}

func Test_Sema_if_branches_with_common_type_accepted(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, _, _, diags := analyze(t, `fn f :: a bool -> int {
		if a {
			return 1
		} else {
			return 1
		}
		return 0
	}`)
	require.False(diags.HasErrors())
	_ = assert
}

func Test_Sema_call_arity_mismatch_reported(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, _, _, diags := analyze(t, `
		fn add :: a int -> b int -> int { return a + b }
		fn f :: int { return add 1 }
	`)
	require.True(diags.HasErrors())
	assert.Equal(diag.CodeTypeMismatch, diags.Diagnostics()[0].Code)
}

func Test_Sema_call_argument_type_mismatch_reported(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, _, _, diags := analyze(t, `
		fn add :: a int -> b int -> int { return a + b }
		fn f :: int { return add 1 "x" }
	`)
	require.True(diags.HasErrors())
	assert.Equal(diag.CodeTypeMismatch, diags.Diagnostics()[0].Code)
}

// Test_Sema_precondition_discharged_statically covers a call site that
// satisfies a callee's precondition with a literal constant: no
// ContractFailure, and the lowered contract records a static discharge.
func Test_Sema_precondition_discharged_statically(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, _, result, diags := analyze(t, `
		fn div :: a int -> b int -> int {
			#In :: b != 0 -> "b must not be 0"
			return a / b
		}
		fn f :: int { return div 10 2 }
	`)
	require.False(diags.HasErrors())

	found := false
	for _, c := range result.Contracts {
		if c.Kind == ast.AttrIn && c.Outcome == Discharged {
			found = true
		}
	}
	assert.True(found)
}

// Test_Sema_precondition_statically_false_is_a_compile_error covers a call
// site passing a constant that violates the callee's precondition: this is
// a compile-time ContractFailure carrying the attribute's message.
func Test_Sema_precondition_statically_false_is_a_compile_error(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, _, result, diags := analyze(t, `
		fn div :: a int -> b int -> int {
			#In :: b != 0 -> "b must not be 0"
			return a / b
		}
		fn f :: int { return div 10 0 }
	`)
	require.True(diags.HasErrors())
	d := diags.Diagnostics()[0]
	assert.Equal(diag.CodeContractFailure, d.Code)
	assert.Equal("b must not be 0", d.Message)

	found := false
	for _, c := range result.Contracts {
		if c.Kind == ast.AttrIn && c.Outcome == StaticFailure {
			found = true
		}
	}
	assert.True(found)
}

// Test_Sema_precondition_unknown_becomes_runtime_check covers a call site
// passing a non-constant argument: neither discharged nor a compile error,
// deferred to a runtime check for internal/ir to materialize.
func Test_Sema_precondition_unknown_becomes_runtime_check(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, _, result, diags := analyze(t, `
		fn div :: a int -> b int -> int {
			#In :: b != 0 -> "b must not be 0"
			return a / b
		}
		fn f :: x int -> int { return div 10 x }
	`)
	require.False(diags.HasErrors())

	found := false
	for _, c := range result.Contracts {
		if c.Kind == ast.AttrIn && c.Outcome == RuntimeCheck {
			found = true
		}
	}
	assert.True(found)
}
