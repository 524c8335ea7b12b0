// Package ast is the untyped syntax tree the Parser produces (spec §3/§4.2).
// Every node is arena-owned: cross-node references are stable NodeID
// indices rather than pointers, so a recursive function refers to itself as
// an index lookup instead of a pointer cycle (spec §9).
package ast

import (
	"github.com/BurntChromium/iona-lang/internal/ionaerr"
	"github.com/BurntChromium/iona-lang/internal/source"
)

// NodeID is a stable index into an Arena.
type NodeID int

// InvalidNode is the sentinel "no node" reference, used for optional
// children such as a Param's type slot (A) or a MatchArm's guard (B).
const InvalidNode NodeID = -1

// Kind tags the variant a Node holds. Operations over nodes are exhaustive
// switches over Kind (spec §9), never a type hierarchy.
type Kind int

const (
	Module Kind = iota
	Import
	FnDecl
	Param
	Attribute
	Type

	StmtLet
	StmtSet
	StmtReturn
	StmtExpr

	ExprLit
	ExprVar
	ExprCall
	ExprBin
	ExprPrefix
	ExprIf
	ExprMatch
	ExprIndex

	MatchArm
)

func (k Kind) String() string {
	names := [...]string{
		"Module", "Import", "FnDecl", "Param", "Attribute", "Type",
		"StmtLet", "StmtSet", "StmtReturn", "StmtExpr",
		"ExprLit", "ExprVar", "ExprCall", "ExprBin", "ExprPrefix", "ExprIf", "ExprMatch", "ExprIndex",
		"MatchArm",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// AttributeKind is the closed set of attribute clauses spec §3 names.
type AttributeKind int

const (
	AttrProperties AttributeKind = iota
	AttrPermissions
	AttrIn
	AttrOut
	AttrInvariant
)

func (k AttributeKind) String() string {
	switch k {
	case AttrProperties:
		return "Properties"
	case AttrPermissions:
		return "Permissions"
	case AttrIn:
		return "In"
	case AttrOut:
		return "Out"
	case AttrInvariant:
		return "Invariant"
	}
	return "Unknown"
}

// LitKind distinguishes the literal token kinds an ExprLit node may carry.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitStr
)

// Node is a single tagged variant in the tree. Only the fields relevant to
// Kind are populated; the rest are left zero. Field reuse across kinds is
// documented per field below (mirrors ictiobus's ParseTree: a terminal
// discriminant plus untyped children, generalized to a closed Kind set).
type Node struct {
	Kind Kind
	Span source.Span

	// Name holds: FnDecl/Param/ExprVar's identifier; Type's nominal name;
	// a single Import leaf name is instead stored in Names.
	Name string

	// Names holds: Import's imported name list.
	Names []string

	// Children holds ordered homogeneous lists: ExprCall's Args and
	// ExprMatch's Arms. Module, FnDecl and ExprIf keep their lists in the
	// named fields below instead (Imports/Functions, Params/Attributes/Body,
	// Then/Else), and MatchArm's Pattern is just an Expr stored in A.
	Children []NodeID

	// A, B, C are positional single-child slots, meaning depends on Kind:
	//   StmtLet:    A = init expr
	//   StmtSet:    A = target expr, B = value expr
	//   StmtReturn: A = expr (InvalidNode for a bare `return`)
	//   StmtExpr:   A = expr
	//   ExprBin:    A = left, B = right
	//   ExprPrefix: A = operand
	//   ExprIf:     A = cond (the branches live in Then/Else below)
	//   ExprMatch:  A = scrutinee
	//   ExprIndex:  A = base, B = index
	//   MatchArm:   A = pattern expr, B = guard expr (InvalidNode if absent), C = body expr
	//   Param:      A = type node (InvalidNode if the type annotation is missing - a parse error)
	//   Attribute:  A = predicate expr (In/Out/Invariant only)
	A, B, C NodeID

	// Str carries: ExprBin/ExprPrefix's operator text; Type's unused
	// extra tag; Attribute's message (In/Out/Invariant).
	Str string

	// LitKind/IntVal/FloatVal/StrVal carry an ExprLit's decoded value.
	LitKind  LitKind
	IntVal   int64
	FloatVal float64
	StrVal   string

	// Mut is Param/StmtLet's `mut` flag.
	Mut bool

	// AttrKind is Attribute's clause kind.
	AttrKind AttributeKind

	// FnDecl-only fields, broken out by name for readability instead of
	// overloading the generic slots above.
	Params     []NodeID // Param nodes
	Attributes []NodeID // Attribute nodes
	Body       []NodeID // statement nodes, in source order
	ReturnType NodeID   // Type node, InvalidNode if never resolved (parse error already reported)

	// Module-only fields.
	Imports   []NodeID
	Functions []NodeID

	// TypeArgs is Type's (currently always empty) parametric argument list;
	// first-class parametric types are deferred per spec §3.
	TypeArgs []NodeID

	// ExprIf-only fields: Then/Else are statement lists (the same grammar
	// as a function body, minus the attribute preamble); HasElse
	// distinguishes a present-but-empty else block `else {}` from no else
	// at all.
	Then    []NodeID
	Else    []NodeID
	HasElse bool

	// SymbolID is filled in by the Scope Builder (for binding sites: Param,
	// StmtLet, a match arm's binding pattern; and for every ExprVar reference
	// it can resolve locally), by the Declaration Collector (FnDecl), and by
	// Semantic Phase A (for the ExprVar references the Scope Builder left
	// pending). -1 means unresolved.
	SymbolID int

	// ResolvedType is filled in by Semantic Phase C's bottom-up type
	// synthesis; "" means not yet typed (or a statement, which has no type).
	// The sentinel "<error>" marks a node whose type could not be
	// determined, suppressing cascading TypeMismatch diagnostics.
	ResolvedType string
}

// ErrorType is the sentinel ResolvedType for an expression whose type could
// not be determined, used to suppress cascading diagnostics (spec §7).
const ErrorType = "<error>"

// NoSymbol is the sentinel SymbolID meaning "not yet resolved".
const NoSymbol = -1

// Arena owns every Node for one compilation unit. Nodes are never freed
// individually; the whole Arena is released as a unit when the unit's
// compilation ends (spec §5).
type Arena struct {
	nodes []Node
}

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc appends n and returns its stable ID. Callers constructing a Node by
// literal must set SymbolID: ast.NoSymbol and, for FnDecl, ReturnType:
// ast.InvalidNode explicitly - both are non-zero sentinels.
func (a *Arena) Alloc(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// Get returns the node at id. id must have come from this Arena; a
// foreign or stale NodeID is an internal-compiler-error (spec §7), not a
// recoverable diagnostic, since it means a later stage was handed a
// reference the earlier stages never produced.
func (a *Arena) Get(id NodeID) Node {
	if int(id) < 0 || int(id) >= len(a.nodes) {
		panic(ionaerr.Internalf(nil, "ast: NodeID %d out of range (arena holds %d nodes)", id, len(a.nodes)))
	}
	return a.nodes[id]
}

// Set overwrites the node at id, used by later stages to annotate a node
// (fill SymbolID, ResolvedType, ...) in place.
func (a *Arena) Set(id NodeID, n Node) {
	if int(id) < 0 || int(id) >= len(a.nodes) {
		panic(ionaerr.Internalf(nil, "ast: NodeID %d out of range (arena holds %d nodes)", id, len(a.nodes)))
	}
	a.nodes[id] = n
}

// Len returns the number of nodes allocated so far.
func (a *Arena) Len() int {
	return len(a.nodes)
}
