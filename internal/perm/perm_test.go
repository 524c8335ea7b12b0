package perm

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
	"github.com/BurntChromium/iona-lang/internal/source"
)

var testManifest = MapManifest{
	"read_file":  NewSet(ReadFile),
	"write_file": NewSet(WriteFile),
}

func infer(t *testing.T, text string) (*decl.Module, *Result, *diag.Engine) {
	t.Helper()
	mgr := source.NewManager()
	f := mgr.AddFile("test.iona", []byte(text))
	diags := diag.NewEngine(mgr)
	toks := lex.New(f, diags).Lex()
	arena := ast.NewArena()
	modID := parse.New(toks, arena, diags, f.ID()).ParseModule()
	root, table, _ := scope.NewBuilder(arena, diags).Build(modID)
	module := decl.NewCollector(arena, diags, table, root).Collect(modID)
	result := NewInferer(arena, diags, module, testManifest).Infer()
	return module, result, diags
}

func Test_Set_operations(t *testing.T) {
	assert := assert.New(t)

	a := NewSet(ReadFile, WriteFile)
	b := NewSet(ReadFile)

	assert.True(b.SubsetOf(a))
	assert.False(a.SubsetOf(b))
	assert.Equal(NewSet(WriteFile), a.Difference(b))
	assert.True(NewSet().Empty())
	assert.Equal("{ReadFile, WriteFile}", a.String())
}

func Test_Perm_pure_function_has_empty_inferred_set(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, result, diags := infer(t, `fn add :: a int -> b int -> int {
		#Properties :: Pure Export
		return a + b
	}`)
	require.False(diags.HasErrors())
	assert.True(result.Inferred["add"].Empty())
	assert.True(result.Declared["add"].Empty())
}

func Test_Perm_missing_permission_is_reported(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, result, diags := infer(t, `fn read :: path str -> str {
		#Properties :: Export
		return read_file path
	}`)
	require.True(diags.HasErrors())
	d := diags.Diagnostics()[0]
	assert.Equal(diag.CodePermissionMissing, d.Code)
	assert.True(result.Inferred["read"].Has(ReadFile))
}

func Test_Perm_declared_permission_satisfies_requirement(t *testing.T) {
	require := require.New(t)

	_, _, diags := infer(t, `fn read :: path str -> str {
		#Permissions :: ReadFile
		return read_file path
	}`)
	require.False(diags.HasErrors())
}

func Test_Perm_purity_violation_on_effectful_call(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, _, diags := infer(t, `fn bad :: path str -> str {
		#Properties :: Pure Export
		return write_file path
	}`)
	require.True(diags.HasErrors())
	found := false
	for _, d := range diags.Diagnostics() {
		if d.Code == diag.CodePurityViolated {
			found = true
		}
	}
	assert.True(found)
}

func Test_Perm_permission_propagates_through_local_callee(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, result, diags := infer(t, `
		fn low :: path str -> str {
			#Permissions :: ReadFile
			return read_file path
		}
		fn high :: path str -> str {
			#Permissions :: ReadFile
			return low path
		}
	`)
	require.False(diags.HasErrors())
	assert.True(result.Inferred["high"].Has(ReadFile))
}

func Test_Perm_undeclared_local_callee_is_tainted_and_propagates_to_caller(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	module, result, diags := infer(t, `
		fn low :: path str -> str {
			return read_file path
		}
		fn high :: path str -> str {
			#Permissions :: ReadFile
			return low path
		}
	`)
	require.True(diags.HasErrors())

	lowHasMissing := false
	for _, d := range diags.Diagnostics() {
		if d.Code == diag.CodePermissionMissing {
			lowHasMissing = true
		}
	}
	assert.True(lowHasMissing)
	assert.True(result.Inferred["high"].Has(ReadFile))
	_ = module
}

func Test_Perm_mutual_recursion_reaches_fixed_point(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	_, result, diags := infer(t, `
		fn ping :: n int -> int {
			#Permissions :: ReadFile
			if n > 0 {
				return pong n
			}
			return read_file "x"
		}
		fn pong :: n int -> int {
			return ping n
		}
	`)
	// "pong" has no #Permissions, so it is effect-tainted on its own (its
	// own PermissionMissing), but "ping" declares ReadFile and, since ping
	// and pong form one SCC, the fixed point must see ReadFile propagate
	// all the way around the cycle to pong too.
	require.True(diags.HasErrors())
	assert.True(result.Inferred["ping"].Has(ReadFile))
	assert.True(result.Inferred["pong"].Has(ReadFile))
}

func Test_Perm_invalid_permission_name_reported(t *testing.T) {
	require := require.New(t)

	_, _, diags := infer(t, `fn f :: int {
		#Permissions :: NotARealPermission
		return 1
	}`)
	require.True(diags.HasErrors())
}

func Test_Perm_report_renders_one_row_per_function(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	module, result, diags := infer(t, `fn add :: a int -> b int -> int {
		#Properties :: Pure Export
		return a + b
	}`)
	require.False(diags.HasErrors())

	out := Report(module, result, 80)
	assert.Contains(out, "add")
	assert.Contains(out, "{}")
}
