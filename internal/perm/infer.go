package perm

import (
	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/decl"
	"github.com/BurntChromium/iona-lang/internal/diag"
)

// Result is the outcome of inference: the declared set D(f) (validated from
// source) and the inferred set I(f) for every function in the module.
type Result struct {
	Declared map[string]Set
	Inferred map[string]Set

	// Failed marks every function that was reported PermissionMissing
	// (I(f) not subset of D(f)) or PurityViolated - internal/ir skips
	// emitting IR for these (spec §8 scenarios 4/5).
	Failed map[string]bool
}

// Inferer runs Semantic Analyzer Phase B (spec §4.5) over an already
// declaration-collected module.
type Inferer struct {
	arena    *ast.Arena
	diags    *diag.Engine
	module   *decl.Module
	manifest Manifest
}

// NewInferer returns an Inferer that reports PermissionMissing/
// PurityViolated (and invalid-permission-name) diagnostics to diags, and
// resolves stdlib intrinsics through manifest.
func NewInferer(arena *ast.Arena, diags *diag.Engine, module *decl.Module, manifest Manifest) *Inferer {
	return &Inferer{arena: arena, diags: diags, module: module, manifest: manifest}
}

// Infer computes D(f) and I(f) for every function, checks I(f) ⊆ D(f) and
// the Pure invariant, and reports diagnostics for any violation.
func (inf *Inferer) Infer() *Result {
	declared := make(map[string]Set, len(inf.module.Order))
	for _, name := range inf.module.Order {
		fn := inf.module.Functions[name]
		set, invalid := ParseSet(fn.DeclaredPermissions)
		for _, bad := range invalid {
			inf.diags.Errorf(diag.CodeParse, fn.Span, "'%s' is not a recognized permission", bad)
		}
		declared[name] = set
	}

	isLocal := func(name string) bool {
		_, ok := inf.module.Functions[name]
		return ok
	}

	graph := buildCallGraph(inf.arena, inf.module)
	sccs := sccTarjan(graph, inf.module.Order, isLocal)

	inferred := make(map[string]Set, len(inf.module.Order))
	for _, comp := range sccs {
		inf.resolveComponent(comp, graph, declared, inferred)
	}

	failed := make(map[string]bool)
	for _, name := range inf.module.Order {
		fn := inf.module.Functions[name]
		I := inferred[name]
		D := declared[name]

		if !I.SubsetOf(D) {
			missing := I.Difference(D)
			inf.diags.Errorf(diag.CodePermissionMissing, fn.Span,
				"function '%s' requires permissions %s but only declares %s", name, missing, D)
			failed[name] = true
		}
		if fn.Pure && !I.Empty() {
			inf.diags.Errorf(diag.CodePurityViolated, fn.Span,
				"function '%s' is declared Pure but performs %s", name, I)
			failed[name] = true
		}
	}

	return &Result{Declared: declared, Inferred: inferred, Failed: failed}
}

func (inf *Inferer) resolveComponent(comp []string, graph callGraph, declared, inferred map[string]Set) {
	inSCC := make(map[string]bool, len(comp))
	for _, name := range comp {
		inSCC[name] = true
		inferred[name] = NewSet()
	}

	selfRecursive := len(comp) > 1
	if len(comp) == 1 {
		for _, callee := range graph[comp[0]] {
			if callee == comp[0] {
				selfRecursive = true
			}
		}
	}

	if !selfRecursive {
		name := comp[0]
		inferred[name] = inf.effectOf(name, graph, inSCC, declared, inferred)
		return
	}

	// Fixed-point iteration: the lattice has height len(All), so that many
	// rounds (plus one to detect convergence) always suffices.
	for iter := 0; iter < len(All)+2; iter++ {
		changed := false
		for _, name := range comp {
			next := inf.effectOf(name, graph, inSCC, declared, inferred)
			if !next.Equal(inferred[name]) {
				inferred[name] = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

// effectOf computes one candidate value for I(name): the union of every
// callee's contribution. A callee in the same SCC contributes its current
// (possibly still-converging) inferred estimate; a callee with an explicit
// #Permissions declaration contributes its declared set; any other local
// callee contributes its already-finalized inferred set (guaranteed
// available because sccTarjan processes callees' components first); a
// stdlib callee contributes its manifest intrinsic; anything else
// (unresolved name) contributes nothing here - Semantic Phase A is
// responsible for reporting that it doesn't exist.
func (inf *Inferer) effectOf(name string, graph callGraph, inSCC map[string]bool, declared, inferred map[string]Set) Set {
	acc := NewSet()
	for _, callee := range graph[name] {
		if inSCC[callee] {
			acc = acc.Union(inferred[callee])
			continue
		}
		if fn, ok := inf.module.Functions[callee]; ok {
			if fn.PermissionsDeclared {
				acc = acc.Union(declared[callee])
			} else {
				acc = acc.Union(inferred[callee])
			}
			continue
		}
		if set, ok := inf.manifest.Intrinsic(callee); ok {
			acc = acc.Union(set)
		}
	}
	return acc
}
