// Package decl is the Declaration Collector (spec §4.4): a second pass over
// the module, run after the Scope Builder and before the Semantic Analyzer,
// that hoists every top-level function's signature, declared properties,
// declared permissions and contracts into a module-wide table. Hoisting
// first is what lets mutually recursive functions - and forward references
// in general - resolve without a second compile pass.
package decl

import (
	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/scope"
	"github.com/BurntChromium/iona-lang/internal/source"
)

// Param is one collected parameter: name plus its nominal type text (empty
// if the parser already reported a missing-type error for it).
type Param struct {
	Name string
	Type string
	Mut  bool
}

// Fn is everything known about a function before its body is analyzed.
type Fn struct {
	Name       string
	Node       ast.NodeID
	Span       source.Span
	SymbolID   scope.SymbolID
	Params     []Param
	ReturnType string

	Pure   bool
	Export bool

	// DeclaredPermissions are the raw names from #Permissions (or the
	// deprecated #Requirements alias), not yet validated against the
	// closed permission enumeration - that happens in internal/perm.
	DeclaredPermissions []string

	// PermissionsDeclared is true iff a #Permissions/#Requirements
	// attribute was present at all, even an empty one - distinct from
	// DeclaredPermissions being nil because a function never mentioning
	// permissions is not the same as one explicitly declaring none.
	PermissionsDeclared bool

	InContracts        []ast.NodeID // Attribute nodes, AttrKind == AttrIn
	OutContracts       []ast.NodeID // AttrKind == AttrOut
	InvariantContracts []ast.NodeID // AttrKind == AttrInvariant
}

// Module is the collected module symbol table: every function, keyed by
// name, plus declaration order for deterministic iteration (reports, SCC).
type Module struct {
	Functions map[string]*Fn
	Order     []string
}

// Lookup returns the Fn named name, if any.
func (m *Module) Lookup(name string) (*Fn, bool) {
	fn, ok := m.Functions[name]
	return fn, ok
}

// Collector runs the hoisting pass.
type Collector struct {
	arena *ast.Arena
	diags *diag.Engine
	table *scope.Table
	root  *scope.Scope
}

// NewCollector builds a Collector that adds Fn symbols to table and root
// (the scope tree the Scope Builder already produced), and reports
// collection-time diagnostics to diags.
func NewCollector(arena *ast.Arena, diags *diag.Engine, table *scope.Table, root *scope.Scope) *Collector {
	return &Collector{arena: arena, diags: diags, table: table, root: root}
}

// Collect walks modID's top-level functions and returns the module table.
func (c *Collector) Collect(modID ast.NodeID) *Module {
	mod := c.arena.Get(modID)
	module := &Module{Functions: make(map[string]*Fn, len(mod.Functions))}

	for _, fnID := range mod.Functions {
		node := c.arena.Get(fnID)
		if _, exists := module.Functions[node.Name]; exists {
			c.diags.Errorf(diag.CodeParse, node.Span, "function '%s' is already declared in this module", node.Name)
			continue
		}
		fn := c.collectOne(fnID)
		module.Functions[fn.Name] = fn
		module.Order = append(module.Order, fn.Name)
	}

	return module
}

func (c *Collector) collectOne(fnID ast.NodeID) *Fn {
	node := c.arena.Get(fnID)

	fn := &Fn{
		Name: node.Name,
		Node: fnID,
		Span: node.Span,
	}

	for _, paramID := range node.Params {
		if paramID == ast.InvalidNode {
			continue
		}
		p := c.arena.Get(paramID)
		typeName := ""
		if p.A != ast.InvalidNode {
			typeName = c.arena.Get(p.A).Name
		}
		fn.Params = append(fn.Params, Param{Name: p.Name, Type: typeName, Mut: p.Mut})
	}

	if node.ReturnType != ast.InvalidNode {
		fn.ReturnType = c.arena.Get(node.ReturnType).Name
	}

	for _, attrID := range node.Attributes {
		attr := c.arena.Get(attrID)
		switch attr.AttrKind {
		case ast.AttrProperties:
			for _, name := range attr.Names {
				switch name {
				case "Pure":
					fn.Pure = true
				case "Export":
					fn.Export = true
				}
			}
		case ast.AttrPermissions:
			fn.PermissionsDeclared = true
			fn.DeclaredPermissions = append(fn.DeclaredPermissions, attr.Names...)
		case ast.AttrIn:
			fn.InContracts = append(fn.InContracts, attrID)
		case ast.AttrOut:
			fn.OutContracts = append(fn.OutContracts, attrID)
		case ast.AttrInvariant:
			fn.InvariantContracts = append(fn.InvariantContracts, attrID)
		}
	}

	if fn.Pure && len(fn.DeclaredPermissions) > 0 {
		c.diags.Errorf(diag.CodePurityViolated, fn.Span,
			"function '%s' is declared Pure but also declares permissions %v", fn.Name, fn.DeclaredPermissions)
	}

	sid := c.table.Declare(scope.Symbol{Name: fn.Name, Kind: scope.Fn, DefiningSpan: fn.Span, Node: fnID})
	fn.SymbolID = sid
	c.root.Bindings[fn.Name] = sid

	node.SymbolID = int(sid)
	c.arena.Set(fnID, node)

	return fn
}
