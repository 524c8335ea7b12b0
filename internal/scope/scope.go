// Package scope builds the scope tree of spec §4.3: a preorder traversal
// over the AST that creates a child scope per function and per nested
// block, registers Param/let bindings, and resolves every locally-visible
// identifier reference to a SymbolId by walking the scope chain.
//
// It deliberately does NOT resolve references to other top-level
// functions: those names only become known once the Declaration Collector
// (the next stage) has hoisted every signature into the module symbol
// table, so that stage's output is what the Semantic Analyzer's Phase A
// (internal/sema) uses to finish resolution.
package scope

import (
	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/ionaerr"
	"github.com/BurntChromium/iona-lang/internal/source"
)

// SymbolID is a stable index into a Table.
type SymbolID int

// NoSymbol is the sentinel "unresolved" SymbolID.
const NoSymbol SymbolID = -1

// Kind is the closed set of symbol kinds spec §3 names.
type Kind int

const (
	Fn Kind = iota
	Param
	Local
	ImportedName
	// Unknown marks the sentinel symbol substituted for a name that never
	// resolved (spec §7: "substitutes a sentinel symbol so later phases can
	// continue").
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Fn:
		return "function"
	case Param:
		return "parameter"
	case Local:
		return "local"
	case ImportedName:
		return "import"
	case Unknown:
		return "unresolved"
	}
	return "unknown"
}

// Symbol is write-once after this stage, except Type, which the Semantic
// Analyzer fills in later (spec §3).
type Symbol struct {
	ID           SymbolID
	Name         string
	Kind         Kind
	DefiningSpan source.Span
	Node         ast.NodeID

	// Type is filled in by internal/sema's Phase C: a Param's declared
	// type immediately, a Local's type once its initializer is synthesized.
	// Empty until then; Fn, ImportedName and Unknown symbols keep it empty.
	Type string
}

// Table owns every Symbol created while building the scope tree. Later
// stages (decl, sema) extend it with more Fn symbols and fill in Type.
type Table struct {
	symbols  []Symbol
	sentinel SymbolID
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{sentinel: NoSymbol}
}

func (t *Table) alloc(sym Symbol) SymbolID {
	sym.ID = SymbolID(len(t.symbols))
	t.symbols = append(t.symbols, sym)
	return sym.ID
}

// Declare allocates sym in t and returns its new ID. Used by internal/decl
// to add function symbols to the same table the Scope Builder populated,
// once every signature in the module is known.
func (t *Table) Declare(sym Symbol) SymbolID {
	return t.alloc(sym)
}

// Set overwrites the symbol at id, used by internal/sema to fill in a Param
// or Local symbol's Type once it is computed.
func (t *Table) Set(id SymbolID, sym Symbol) {
	sym.ID = id
	t.symbols[id] = sym
}

// Sentinel returns the shared "unresolved name" symbol, allocating it on
// first use. internal/sema substitutes this SymbolID for any identifier
// that never resolves, so later stages can keep going without a nil check
// at every use site.
func (t *Table) Sentinel() SymbolID {
	if t.sentinel == NoSymbol {
		t.sentinel = t.alloc(Symbol{Name: "<unresolved>", Kind: Unknown})
	}
	return t.sentinel
}

// Get returns the symbol at id. id must have come from this Table; a
// foreign SymbolID is an internal-compiler-error (spec §7), not a
// recoverable one.
func (t *Table) Get(id SymbolID) Symbol {
	if int(id) < 0 || int(id) >= len(t.symbols) {
		panic(ionaerr.Internalf(nil, "scope: SymbolID %d out of range (table holds %d symbols)", id, len(t.symbols)))
	}
	return t.symbols[id]
}

// Len returns how many symbols have been allocated.
func (t *Table) Len() int {
	return len(t.symbols)
}

// All returns every symbol, in allocation order.
func (t *Table) All() []Symbol {
	return t.symbols
}

// Scope is one node of the scope forest: a set of bindings plus a parent
// to walk when a name isn't found locally. The module scope is the root.
type Scope struct {
	Parent   *Scope
	Bindings map[string]SymbolID
}

func newScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, Bindings: make(map[string]SymbolID)}
}

// Lookup walks from sc up through parents, returning the first binding
// found. Inner scopes shadow outer ones.
func (sc *Scope) Lookup(name string) (SymbolID, bool) {
	for cur := sc; cur != nil; cur = cur.Parent {
		if id, ok := cur.Bindings[name]; ok {
			return id, true
		}
	}
	return NoSymbol, false
}

// PendingRef is an identifier the Scope Builder could not resolve at build
// time - typically a reference to a function that hadn't been hoisted into
// module scope yet (internal/decl runs after this stage). internal/sema's
// Phase A retries each one now that decl has finished.
type PendingRef struct {
	Node  ast.NodeID
	Scope *Scope
}

// Builder runs the preorder traversal described above.
type Builder struct {
	arena   *ast.Arena
	diags   *diag.Engine
	table   *Table
	pending []PendingRef
}

// NewBuilder returns a Builder over arena, reporting redeclaration errors
// to diags.
func NewBuilder(arena *ast.Arena, diags *diag.Engine) *Builder {
	return &Builder{arena: arena, diags: diags, table: NewTable()}
}

// Build walks modID and returns the module's root scope, the symbol table
// of every Param/Local/import binding discovered (function symbols are
// added later, by internal/decl), and every reference left unresolved for
// Phase A to retry.
func (b *Builder) Build(modID ast.NodeID) (*Scope, *Table, []PendingRef) {
	root := newScope(nil)
	mod := b.arena.Get(modID)

	for _, impID := range mod.Imports {
		imp := b.arena.Get(impID)
		for _, name := range imp.Names {
			b.declare(root, name, ImportedName, imp.Span, impID)
		}
	}

	for _, fnID := range mod.Functions {
		b.buildFn(root, fnID)
	}

	return root, b.table, b.pending
}

// declare registers name in sc, reporting a redeclaration error (spec §4.3)
// if sc already binds it directly (shadowing a parent scope's binding is
// fine and is not reported here).
func (b *Builder) declare(sc *Scope, name string, kind Kind, span source.Span, node ast.NodeID) SymbolID {
	if existing, exists := sc.Bindings[name]; exists {
		b.diags.Errorf(diag.CodeParse, span, "'%s' is already declared in this scope", name)
		return existing
	}
	id := b.table.alloc(Symbol{Name: name, Kind: kind, DefiningSpan: span, Node: node})
	sc.Bindings[name] = id
	return id
}

func (b *Builder) buildFn(parent *Scope, fnID ast.NodeID) {
	fn := b.arena.Get(fnID)
	fnScope := newScope(parent)

	for _, paramID := range fn.Params {
		if paramID == ast.InvalidNode {
			continue
		}
		param := b.arena.Get(paramID)
		sid := b.declare(fnScope, param.Name, Param, param.Span, paramID)
		param.SymbolID = int(sid)
		b.arena.Set(paramID, param)
	}

	b.walkBlock(fnScope, fn.Body)

	// Contract predicates live on the FnDecl's Attributes, not in Body, but
	// reference the same parameter scope - e.g. #In's predicate over the
	// params. Resolve them here too.
	for _, attrID := range fn.Attributes {
		attr := b.arena.Get(attrID)
		if attr.AttrKind == ast.AttrIn || attr.AttrKind == ast.AttrOut || attr.AttrKind == ast.AttrInvariant {
			b.resolveExpr(fnScope, attr.A)
		}
	}
}

// walkBlock creates a child scope for one statement list (a function body
// or an if-branch) and resolves everything within it.
func (b *Builder) walkBlock(parent *Scope, stmts []ast.NodeID) *Scope {
	blockScope := newScope(parent)
	for _, stmtID := range stmts {
		if stmtID == ast.InvalidNode {
			continue
		}
		stmt := b.arena.Get(stmtID)
		switch stmt.Kind {
		case ast.StmtLet:
			b.resolveExpr(blockScope, stmt.A) // resolve init against the scope as of *before* this binding
			sid := b.declare(blockScope, stmt.Name, Local, stmt.Span, stmtID)
			stmt.SymbolID = int(sid)
			b.arena.Set(stmtID, stmt)
		case ast.StmtSet:
			b.resolveExpr(blockScope, stmt.A)
			b.resolveExpr(blockScope, stmt.B)
		case ast.StmtReturn:
			if stmt.A != ast.InvalidNode {
				b.resolveExpr(blockScope, stmt.A)
			}
		case ast.StmtExpr:
			b.resolveExpr(blockScope, stmt.A)
		}
	}
	return blockScope
}

// resolveExpr recurses through an expression, resolving every ExprVar (and
// an ExprCall's callee, when it is itself an ExprVar) it can find locally,
// and descending into nested blocks (If's Then/Else).
func (b *Builder) resolveExpr(sc *Scope, id ast.NodeID) {
	if id == ast.InvalidNode {
		return
	}
	n := b.arena.Get(id)

	switch n.Kind {
	case ast.ExprVar:
		if sid, ok := sc.Lookup(n.Name); ok {
			n.SymbolID = int(sid)
			b.arena.Set(id, n)
		} else {
			// may still be a forward-referenced function name: left for
			// internal/sema's Phase A to resolve against the now-complete
			// module symbol table.
			b.pending = append(b.pending, PendingRef{Node: id, Scope: sc})
		}

	case ast.ExprCall:
		b.resolveExpr(sc, n.A)
		for _, arg := range n.Children {
			b.resolveExpr(sc, arg)
		}

	case ast.ExprBin:
		b.resolveExpr(sc, n.A)
		b.resolveExpr(sc, n.B)

	case ast.ExprPrefix:
		b.resolveExpr(sc, n.A)

	case ast.ExprIndex:
		b.resolveExpr(sc, n.A)
		b.resolveExpr(sc, n.B)

	case ast.ExprIf:
		b.resolveExpr(sc, n.A)
		b.walkBlock(sc, n.Then)
		if n.HasElse {
			b.walkBlock(sc, n.Else)
		}

	case ast.ExprMatch:
		b.resolveExpr(sc, n.A)
		for _, armID := range n.Children {
			arm := b.arena.Get(armID)
			armScope := newScope(sc)

			// A bare identifier pattern is a binding for the arm, not a
			// reference - declare it as a Local in the arm's own scope
			// instead of resolving it against the outer one, so the guard
			// and body can refer to it. `_` is the wildcard: it binds
			// nothing and is never itself a reference, so it is left
			// unresolved rather than declared or queued as pending.
			pat := b.arena.Get(arm.A)
			switch {
			case pat.Kind == ast.ExprVar && pat.Name == "_":
				// wildcard: nothing to resolve or declare
			case pat.Kind == ast.ExprVar:
				sid := b.declare(armScope, pat.Name, Local, pat.Span, arm.A)
				pat.SymbolID = int(sid)
				b.arena.Set(arm.A, pat)
			default:
				b.resolveExpr(armScope, arm.A)
			}

			if arm.B != ast.InvalidNode {
				b.resolveExpr(armScope, arm.B)
			}
			b.resolveExpr(armScope, arm.C)
		}
	}
}
