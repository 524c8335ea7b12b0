// Package sema is the Semantic Analyzer (spec §4.5): Phase A finishes
// identifier resolution left pending by the Scope Builder, Phase B infers
// and checks permissions via internal/perm, and Phase C synthesizes types
// bottom-up over each function body and lowers contracts at call sites.
package sema

import (
	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/decl"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/perm"
	"github.com/BurntChromium/iona-lang/internal/scope"
	"github.com/BurntChromium/iona-lang/internal/stdmanifest"
)

// Analyzer runs all three phases over one module.
type Analyzer struct {
	arena    *ast.Arena
	diags    *diag.Engine
	module   *decl.Module
	table    *scope.Table
	manifest *stdmanifest.Manifest

	contracts []LoweredContract
}

// NewAnalyzer returns an Analyzer over an already scope-built,
// declaration-collected module.
func NewAnalyzer(arena *ast.Arena, diags *diag.Engine, module *decl.Module, table *scope.Table, manifest *stdmanifest.Manifest) *Analyzer {
	return &Analyzer{arena: arena, diags: diags, module: module, table: table, manifest: manifest}
}

// Result bundles everything later stages (internal/ir) need out of
// semantic analysis.
type Result struct {
	Permissions *perm.Result
	Contracts   []LoweredContract
}

// Analyze runs Phase A, B and C in order and returns their combined output.
func (a *Analyzer) Analyze(pending []scope.PendingRef) *Result {
	a.resolvePending(pending)

	permResult := perm.NewInferer(a.arena, a.diags, a.module, a.manifest).Infer()

	for _, name := range a.module.Order {
		a.typeCheckFn(a.module.Functions[name])
	}
	for _, name := range a.module.Order {
		a.lowerFnContracts(a.module.Functions[name])
	}

	return &Result{Permissions: permResult, Contracts: a.contracts}
}

// resolvePending is Phase A's second half: every identifier the Scope
// Builder could not resolve (because it named a function, hoisted only
// afterward by internal/decl) is retried against the same scope chain,
// which by now has every function bound at module scope.
func (a *Analyzer) resolvePending(pending []scope.PendingRef) {
	for _, ref := range pending {
		n := a.arena.Get(ref.Node)
		if n.SymbolID != ast.NoSymbol {
			continue // resolved some other way already (shouldn't happen, but cheap to guard)
		}
		if sid, ok := ref.Scope.Lookup(n.Name); ok {
			n.SymbolID = int(sid)
		} else {
			a.diags.Errorf(diag.CodeNameNotFound, n.Span, "'%s' is not declared", n.Name)
			n.SymbolID = int(a.table.Sentinel())
		}
		a.arena.Set(ref.Node, n)
	}
}
