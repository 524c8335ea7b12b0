package ir

import (
	"fmt"
	"strconv"

	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/decl"
	"github.com/BurntChromium/iona-lang/internal/perm"
	"github.com/BurntChromium/iona-lang/internal/sema"
)

// Lowerer turns a scope-built, declaration-collected, semantically-analyzed
// module into flat IR. It consumes internal/sema's Result directly: the
// permission sets for each function's signature, and the per-site outcome
// of every contract internal/sema already evaluated.
type Lowerer struct {
	arena  *ast.Arena
	module *decl.Module
	result *sema.Result

	byCallSite map[ast.NodeID][]sema.LoweredContract
	byFnNode   map[ast.NodeID][]sema.LoweredContract
}

// NewLowerer returns a Lowerer over an analyzed module.
func NewLowerer(arena *ast.Arena, module *decl.Module, result *sema.Result) *Lowerer {
	l := &Lowerer{
		arena:      arena,
		module:     module,
		result:     result,
		byCallSite: make(map[ast.NodeID][]sema.LoweredContract),
		byFnNode:   make(map[ast.NodeID][]sema.LoweredContract),
	}
	for _, c := range result.Contracts {
		if c.Kind == ast.AttrIn {
			l.byCallSite[c.Site] = append(l.byCallSite[c.Site], c)
		} else {
			l.byFnNode[c.Site] = append(l.byFnNode[c.Site], c)
		}
	}
	return l
}

// Lower produces the IR module, one Function per entry of module.Order that
// sema cleared for lowering - skipFn excludes the rest (spec §8 scenarios
// 3/4/5: no IR for a function with a missing-permission/purity violation, or
// for a caller whose own call site statically violated a precondition).
func (l *Lowerer) Lower() *Module {
	mod := &Module{}
	for _, name := range l.module.Order {
		fn := l.module.Functions[name]
		if l.skipFn(fn) {
			continue
		}
		mod.Functions = append(mod.Functions, l.lowerFn(fn))
	}
	return mod
}

// skipFn reports whether fn should be omitted from the IR module entirely:
// sema already reported PermissionMissing/PurityViolated against it, or one
// of fn's own call sites had a statically-violated precondition.
func (l *Lowerer) skipFn(fn *decl.Fn) bool {
	if l.result.Permissions != nil && l.result.Permissions.Failed[fn.Name] {
		return true
	}
	node := l.arena.Get(fn.Node)
	for _, callID := range callSitesIn(l.arena, node.Body) {
		for _, c := range l.byCallSite[callID] {
			if c.Outcome == sema.StaticFailure {
				return true
			}
		}
	}
	return false
}

// callSitesIn collects every ExprCall node reachable from stmts, recursing
// into nested expressions and blocks the same way internal/scope's resolver
// walks the tree.
func callSitesIn(arena *ast.Arena, stmts []ast.NodeID) []ast.NodeID {
	var out []ast.NodeID
	var walkExpr func(id ast.NodeID)

	walkStmts := func(stmts []ast.NodeID) {
		for _, stmtID := range stmts {
			if stmtID == ast.InvalidNode {
				continue
			}
			stmt := arena.Get(stmtID)
			switch stmt.Kind {
			case ast.StmtLet, ast.StmtExpr:
				walkExpr(stmt.A)
			case ast.StmtSet:
				walkExpr(stmt.A)
				walkExpr(stmt.B)
			case ast.StmtReturn:
				walkExpr(stmt.A)
			}
		}
	}

	walkExpr = func(id ast.NodeID) {
		if id == ast.InvalidNode {
			return
		}
		n := arena.Get(id)
		switch n.Kind {
		case ast.ExprCall:
			out = append(out, id)
			walkExpr(n.A)
			for _, argID := range n.Children {
				walkExpr(argID)
			}
		case ast.ExprBin:
			walkExpr(n.A)
			walkExpr(n.B)
		case ast.ExprPrefix:
			walkExpr(n.A)
		case ast.ExprIndex:
			walkExpr(n.A)
			walkExpr(n.B)
		case ast.ExprIf:
			walkExpr(n.A)
			walkStmts(n.Then)
			if n.HasElse {
				walkStmts(n.Else)
			}
		case ast.ExprMatch:
			walkExpr(n.A)
			for _, armID := range n.Children {
				arm := arena.Get(armID)
				walkExpr(arm.A)
				if arm.B != ast.InvalidNode {
					walkExpr(arm.B)
				}
				walkExpr(arm.C)
			}
		}
	}

	walkStmts(stmts)
	return out
}

func outcomeText(o sema.Outcome) string {
	switch o {
	case sema.Discharged:
		return "discharged"
	case sema.StaticFailure:
		return "static_failure"
	default:
		return "runtime_check"
	}
}

func kindText(k ast.AttributeKind) string {
	switch k {
	case ast.AttrIn:
		return "In"
	case ast.AttrOut:
		return "Out"
	case ast.AttrInvariant:
		return "Invariant"
	}
	return "Unknown"
}

func toRecord(c sema.LoweredContract) ContractRecord {
	return ContractRecord{Kind: kindText(c.Kind), Message: c.Message, Outcome: outcomeText(c.Outcome)}
}

func permNames(s perm.Set) []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = string(p)
	}
	return out
}

// blockBuilder lowers one function's statements, threading a shared temp
// counter and SymbolID->register-name map across nested blocks (if/match
// branches). One blockBuilder handles exactly one function.
type blockBuilder struct {
	l      *Lowerer
	fn     *decl.Fn
	names  map[int]string
	temps  int
	instrs []Instr
	calls  []ContractRecord // In-contracts discovered at call sites in this function
}

func (b *blockBuilder) newReg() string {
	b.temps++
	return fmt.Sprintf("%%%d", b.temps)
}

func (b *blockBuilder) emit(in Instr) string {
	in.Dst = b.newReg()
	b.instrs = append(b.instrs, in)
	return in.Dst
}

// emitCheck appends a runtime check instruction for c, unless c was fully
// discharged at compile time (nothing left to check at run time).
func (b *blockBuilder) emitCheck(c sema.LoweredContract) {
	if c.Outcome == sema.Discharged {
		return
	}
	b.instrs = append(b.instrs, Instr{Op: "check", Args: []string{kindText(c.Kind), c.Message, outcomeText(c.Outcome)}})
}

func (l *Lowerer) lowerFn(fn *decl.Fn) Function {
	node := l.arena.Get(fn.Node)

	names := make(map[int]string, len(fn.Params))
	for i, paramID := range node.Params {
		if paramID == ast.InvalidNode || i >= len(fn.Params) {
			continue
		}
		p := l.arena.Get(paramID)
		names[p.SymbolID] = fn.Params[i].Name
	}

	b := &blockBuilder{l: l, fn: fn, names: names}

	// Invariants have no body position of their own in this grammar, so
	// they are checked once, at function entry.
	for _, c := range l.byFnNode[fn.Node] {
		if c.Kind == ast.AttrInvariant {
			b.emitCheck(c)
		}
	}
	b.lowerInto(node.Body)

	f := Function{
		Name:       fn.Name,
		ReturnType: orVoid(fn.ReturnType),
		Pure:       fn.Pure,
		Body:       Block{Instrs: b.instrs},
	}
	for _, p := range fn.Params {
		f.Params = append(f.Params, Param{Name: p.Name, Type: p.Type})
	}
	for _, c := range l.byFnNode[fn.Node] {
		f.Contracts = append(f.Contracts, toRecord(c))
	}
	f.Contracts = append(f.Contracts, b.calls...)

	if l.result.Permissions != nil {
		f.Declared = permNames(l.result.Permissions.Declared[fn.Name])
		f.Inferred = permNames(l.result.Permissions.Inferred[fn.Name])
	}

	return f
}

func orVoid(t string) string {
	if t == "" {
		return "void"
	}
	return t
}

// lowerInto lowers stmts into b's currently active instruction slice and
// returns the register the block would evaluate to if used as an
// expression (a trailing StmtExpr's value; "" - void - otherwise).
func (b *blockBuilder) lowerInto(stmts []ast.NodeID) string {
	result := ""
	for _, stmtID := range stmts {
		if stmtID == ast.InvalidNode {
			continue
		}
		stmt := b.l.arena.Get(stmtID)
		result = ""
		switch stmt.Kind {
		case ast.StmtLet:
			v := b.lowerExpr(stmt.A)
			reg := fmt.Sprintf("%s.%d", stmt.Name, stmt.SymbolID)
			b.instrs = append(b.instrs, Instr{Op: "let", Dst: reg, Type: b.l.arena.Get(stmt.A).ResolvedType, Args: []string{v}})
			b.names[stmt.SymbolID] = reg

		case ast.StmtSet:
			v := b.lowerExpr(stmt.B)
			target := b.l.arena.Get(stmt.A)
			reg, ok := b.names[target.SymbolID]
			if !ok {
				reg = fmt.Sprintf("sym.%d", target.SymbolID)
			}
			b.instrs = append(b.instrs, Instr{Op: "set", Dst: reg, Args: []string{v}})

		case ast.StmtReturn:
			for _, c := range b.l.byFnNode[b.fn.Node] {
				if c.Kind == ast.AttrOut {
					b.emitCheck(c)
				}
			}
			if stmt.A != ast.InvalidNode {
				v := b.lowerExpr(stmt.A)
				b.instrs = append(b.instrs, Instr{Op: "return", Args: []string{v}})
			} else {
				b.instrs = append(b.instrs, Instr{Op: "return"})
			}

		case ast.StmtExpr:
			result = b.lowerExpr(stmt.A)
			b.instrs = append(b.instrs, Instr{Op: "expr", Args: []string{result}})
		}
	}
	return result
}

func (b *blockBuilder) lowerNestedBlock(stmts []ast.NodeID) (Block, string) {
	saved := b.instrs
	b.instrs = nil
	result := b.lowerInto(stmts)
	blk := Block{Instrs: b.instrs}
	b.instrs = saved
	return blk, result
}

func litText(n ast.Node) string {
	switch n.LitKind {
	case ast.LitInt:
		return strconv.FormatInt(n.IntVal, 10)
	case ast.LitFloat:
		return strconv.FormatFloat(n.FloatVal, 'g', -1, 64)
	case ast.LitStr:
		return strconv.Quote(n.StrVal)
	}
	return ""
}

func (b *blockBuilder) lowerExpr(id ast.NodeID) string {
	if id == ast.InvalidNode {
		return ""
	}
	n := b.l.arena.Get(id)

	switch n.Kind {
	case ast.ExprLit:
		return b.emit(Instr{Op: "const", Type: n.ResolvedType, Args: []string{litText(n)}})

	case ast.ExprVar:
		if reg, ok := b.names[n.SymbolID]; ok {
			return reg
		}
		return b.emit(Instr{Op: "var", Type: n.ResolvedType, Args: []string{n.Name}})

	case ast.ExprBin:
		left := b.lowerExpr(n.A)
		right := b.lowerExpr(n.B)
		return b.emit(Instr{Op: "bin", Type: n.ResolvedType, Args: []string{n.Str, left, right}})

	case ast.ExprPrefix:
		operand := b.lowerExpr(n.A)
		return b.emit(Instr{Op: "unary", Type: n.ResolvedType, Args: []string{n.Str, operand}})

	case ast.ExprIndex:
		base := b.lowerExpr(n.A)
		index := b.lowerExpr(n.B)
		return b.emit(Instr{Op: "index", Type: n.ResolvedType, Args: []string{base, index}})

	case ast.ExprCall:
		return b.lowerCall(id, n)

	case ast.ExprIf:
		return b.lowerIf(n)

	case ast.ExprMatch:
		return b.lowerMatch(n)
	}
	return ""
}

func (b *blockBuilder) lowerCall(id ast.NodeID, n ast.Node) string {
	calleeNode := b.l.arena.Get(n.A)
	name := "<computed>"
	if calleeNode.Kind == ast.ExprVar {
		name = calleeNode.Name
	}
	args := make([]string, 0, len(n.Children)+1)
	args = append(args, name)
	for _, argID := range n.Children {
		args = append(args, b.lowerExpr(argID))
	}

	for _, c := range b.l.byCallSite[id] {
		b.calls = append(b.calls, toRecord(c))
		b.emitCheck(c)
	}

	return b.emit(Instr{Op: "call", Type: n.ResolvedType, Args: args})
}

func (b *blockBuilder) lowerIf(n ast.Node) string {
	cond := b.lowerExpr(n.A)
	thenBlk, _ := b.lowerNestedBlock(n.Then)
	var elseBlk *Block
	if n.HasElse {
		eb, _ := b.lowerNestedBlock(n.Else)
		elseBlk = &eb
	}
	reg := b.newReg()
	b.instrs = append(b.instrs, Instr{Op: "if", Dst: reg, Type: n.ResolvedType, Args: []string{cond}, Then: &thenBlk, Else: elseBlk})
	return reg
}

func (b *blockBuilder) lowerMatch(n ast.Node) string {
	scrut := b.lowerExpr(n.A)
	arms := make([]MatchArm, 0, len(n.Children))
	for _, armID := range n.Children {
		arm := b.l.arena.Get(armID)

		var patReg string
		pat := b.l.arena.Get(arm.A)
		if pat.Kind == ast.ExprVar && pat.SymbolID != ast.NoSymbol {
			// A binding pattern takes on the scrutinee's value directly;
			// register it under its SymbolID so the guard/body's references
			// to the same name resolve to this register instead of each
			// emitting their own unresolved "var" read.
			patReg = scrut
			b.names[pat.SymbolID] = scrut
		} else {
			patReg = b.lowerExpr(arm.A)
		}
		guardReg := ""
		if arm.B != ast.InvalidNode {
			guardReg = b.lowerExpr(arm.B)
		}
		bodyBlk, bodyResult := b.lowerSingleExprBlock(arm.C)
		arms = append(arms, MatchArm{Pattern: patReg, Guard: guardReg, Body: bodyBlk, Result: bodyResult})
	}
	reg := b.newReg()
	b.instrs = append(b.instrs, Instr{Op: "match", Dst: reg, Type: n.ResolvedType, Args: []string{scrut}, Arms: arms})
	return reg
}

// lowerSingleExprBlock lowers a single expression (a match arm's body,
// which the grammar gives as one expr rather than a statement list) into
// its own nested block, so an arm's Body has the same shape as If's
// branches.
func (b *blockBuilder) lowerSingleExprBlock(exprID ast.NodeID) (Block, string) {
	saved := b.instrs
	b.instrs = nil
	result := b.lowerExpr(exprID)
	b.instrs = append(b.instrs, Instr{Op: "expr", Args: []string{result}})
	blk := Block{Instrs: b.instrs}
	b.instrs = saved
	return blk, result
}
