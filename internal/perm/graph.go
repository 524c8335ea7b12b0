package perm

import (
	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/decl"
)

// Manifest supplies the intrinsic permission set of an imported
// standard-library symbol (spec §4.5 Phase B, "a table keyed by symbol id
// for imported standard-library items"). internal/stdmanifest implements
// this against the compiled-in/TOML-loaded manifest; tests use a plain map.
type Manifest interface {
	Intrinsic(name string) (Set, bool)
}

// MapManifest is the simplest Manifest: a fixed name->Set table.
type MapManifest map[string]Set

func (m MapManifest) Intrinsic(name string) (Set, bool) {
	s, ok := m[name]
	return s, ok
}

// callGraph maps a local function name to the names it calls directly
// (by juxtaposition), in first-occurrence order. Names may refer to other
// local functions, imported stdlib symbols, or be altogether unresolved -
// callers filter as needed.
type callGraph map[string][]string

func buildCallGraph(arena *ast.Arena, module *decl.Module) callGraph {
	g := make(callGraph, len(module.Order))
	for _, name := range module.Order {
		fn := module.Functions[name]
		var calls []string
		collectCallNames(arena, fn.Node, &calls)
		g[name] = calls
	}
	return g
}

// collectCallNames walks every statement reachable from fnNode's body (and
// its attribute predicates) collecting the callee name of each ExprCall
// whose callee is a bare identifier. Calls through a computed expression
// (e.g. the result of another call) are not tracked - spec §4.5's call
// graph is built from the direct syntactic call sites a body performs.
func collectCallNames(arena *ast.Arena, fnNode ast.NodeID, out *[]string) {
	fn := arena.Get(fnNode)
	for _, stmtID := range fn.Body {
		walkStmtForCalls(arena, stmtID, out)
	}
	for _, attrID := range fn.Attributes {
		attr := arena.Get(attrID)
		if attr.AttrKind == ast.AttrIn || attr.AttrKind == ast.AttrOut || attr.AttrKind == ast.AttrInvariant {
			walkExprForCalls(arena, attr.A, out)
		}
	}
}

func walkStmtForCalls(arena *ast.Arena, id ast.NodeID, out *[]string) {
	if id == ast.InvalidNode {
		return
	}
	stmt := arena.Get(id)
	switch stmt.Kind {
	case ast.StmtLet:
		walkExprForCalls(arena, stmt.A, out)
	case ast.StmtSet:
		walkExprForCalls(arena, stmt.A, out)
		walkExprForCalls(arena, stmt.B, out)
	case ast.StmtReturn, ast.StmtExpr:
		walkExprForCalls(arena, stmt.A, out)
	}
}

func walkExprForCalls(arena *ast.Arena, id ast.NodeID, out *[]string) {
	if id == ast.InvalidNode {
		return
	}
	n := arena.Get(id)
	switch n.Kind {
	case ast.ExprCall:
		callee := arena.Get(n.A)
		if callee.Kind == ast.ExprVar {
			*out = append(*out, callee.Name)
		} else {
			walkExprForCalls(arena, n.A, out)
		}
		for _, arg := range n.Children {
			walkExprForCalls(arena, arg, out)
		}
	case ast.ExprBin:
		walkExprForCalls(arena, n.A, out)
		walkExprForCalls(arena, n.B, out)
	case ast.ExprPrefix:
		walkExprForCalls(arena, n.A, out)
	case ast.ExprIndex:
		walkExprForCalls(arena, n.A, out)
		walkExprForCalls(arena, n.B, out)
	case ast.ExprIf:
		walkExprForCalls(arena, n.A, out)
		for _, s := range n.Then {
			walkStmtForCalls(arena, s, out)
		}
		for _, s := range n.Else {
			walkStmtForCalls(arena, s, out)
		}
	case ast.ExprMatch:
		walkExprForCalls(arena, n.A, out)
		for _, armID := range n.Children {
			arm := arena.Get(armID)
			walkExprForCalls(arena, arm.A, out)
			if arm.B != ast.InvalidNode {
				walkExprForCalls(arena, arm.B, out)
			}
			walkExprForCalls(arena, arm.C, out)
		}
	}
}

// sccTarjan computes the strongly connected components of g restricted to
// the nodes in order, emitting them callees-first: a component is appended
// only once every component reachable from it has already been appended, so
// by the time a caller's component is processed, every callee's component
// (and hence its inferred/declared permission set) is already finalized.
func sccTarjan(g callGraph, order []string, isLocal func(string) bool) [][]string {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var result [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if !isLocal(w) {
				continue
			}
			if _, seen := indices[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var comp []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			result = append(result, comp)
		}
	}

	for _, v := range order {
		if _, seen := indices[v]; !seen {
			strongconnect(v)
		}
	}
	return result
}
