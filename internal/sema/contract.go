package sema

import (
	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/decl"
	"github.com/BurntChromium/iona-lang/internal/diag"
)

// Outcome is the three-way result of attempting to statically evaluate a
// contract predicate at a call site (spec §4.5).
type Outcome int

const (
	// Discharged means the predicate evaluated to true at compile time: no
	// runtime check is needed.
	Discharged Outcome = iota
	// StaticFailure means the predicate evaluated to false at compile time:
	// a ContractFailure diagnostic has already been reported.
	StaticFailure
	// RuntimeCheck means the predicate could not be reduced to a constant:
	// internal/ir must materialize a runtime check.
	RuntimeCheck
)

// LoweredContract is one contract obligation after lowering, consumed by
// internal/ir to decide whether a runtime check node is needed.
type LoweredContract struct {
	// Site is the call node (for an In contract) or the declaring
	// function's node (for Out/Invariant, which have no single call site).
	Site    ast.NodeID
	Attr    ast.NodeID
	Kind    ast.AttributeKind
	Outcome Outcome
	Message string
}

// lowerCallContracts attempts to discharge each of callee's preconditions
// against one call site, substituting callee's parameter names with the
// argument expressions actually passed at call.
func (a *Analyzer) lowerCallContracts(callee *decl.Fn, call ast.Node, callID ast.NodeID) {
	if len(callee.InContracts) == 0 {
		return
	}
	subst := make(map[string]ast.NodeID, len(callee.Params))
	for i, p := range callee.Params {
		if i < len(call.Children) {
			subst[p.Name] = call.Children[i]
		}
	}
	for _, attrID := range callee.InContracts {
		attr := a.arena.Get(attrID)
		a.lowerOne(callID, attrID, ast.AttrIn, attr, subst)
	}
}

// lowerFnContracts lowers fn's postconditions and invariants. These have no
// per-call argument substitution available - they hold (or don't) in terms
// of fn's own body - so the evaluator only ever discharges one when its
// predicate is already a closed constant expression; anything mentioning a
// parameter resolves to "unknown" and becomes a runtime check.
func (a *Analyzer) lowerFnContracts(fn *decl.Fn) {
	for _, attrID := range fn.OutContracts {
		attr := a.arena.Get(attrID)
		a.lowerOne(fn.Node, attrID, ast.AttrOut, attr, nil)
	}
	for _, attrID := range fn.InvariantContracts {
		attr := a.arena.Get(attrID)
		a.lowerOne(fn.Node, attrID, ast.AttrInvariant, attr, nil)
	}
}

func (a *Analyzer) lowerOne(site ast.NodeID, attrID ast.NodeID, kind ast.AttributeKind, attr ast.Node, subst map[string]ast.NodeID) {
	value, known := evalPredicate(a.arena, attr.A, subst)
	lc := LoweredContract{Site: site, Attr: attrID, Kind: kind, Message: attr.Str}
	switch {
	case known && value:
		lc.Outcome = Discharged
	case known && !value:
		lc.Outcome = StaticFailure
		a.diags.Errorf(diag.CodeContractFailure, attr.Span, "%s", attr.Str)
	default:
		lc.Outcome = RuntimeCheck
	}
	a.contracts = append(a.contracts, lc)
}

// evalArgConst evaluates a call argument expression to a Go constant
// (int64, float64, string or bool) if it is a literal, or a literal under a
// single prefix operator. Anything else (a variable, a call, arithmetic on
// non-literals) is not constant-folded at this bound.
func evalArgConst(arena *ast.Arena, id ast.NodeID) (any, bool) {
	n := arena.Get(id)
	switch n.Kind {
	case ast.ExprLit:
		switch n.LitKind {
		case ast.LitInt:
			return n.IntVal, true
		case ast.LitFloat:
			return n.FloatVal, true
		case ast.LitStr:
			return n.StrVal, true
		}
	case ast.ExprPrefix:
		v, ok := evalArgConst(arena, n.A)
		if !ok {
			return nil, false
		}
		switch n.Str {
		case "-":
			switch x := v.(type) {
			case int64:
				return -x, true
			case float64:
				return -x, true
			}
		case "!":
			if b, ok := v.(bool); ok {
				return !b, true
			}
		}
	}
	return nil, false
}

// evalOperand evaluates one side of a comparison or arithmetic expression
// within a contract predicate: a literal, a reference to a substituted
// parameter (folded through evalArgConst), or a chain of arithmetic over
// such values.
func evalOperand(arena *ast.Arena, id ast.NodeID, subst map[string]ast.NodeID) (any, bool) {
	n := arena.Get(id)
	switch n.Kind {
	case ast.ExprLit:
		switch n.LitKind {
		case ast.LitInt:
			return n.IntVal, true
		case ast.LitFloat:
			return n.FloatVal, true
		case ast.LitStr:
			return n.StrVal, true
		}
	case ast.ExprVar:
		argID, ok := subst[n.Name]
		if !ok {
			return nil, false
		}
		return evalArgConst(arena, argID)
	case ast.ExprPrefix:
		if n.Str != "-" {
			return nil, false
		}
		v, ok := evalOperand(arena, n.A, subst)
		if !ok {
			return nil, false
		}
		switch x := v.(type) {
		case int64:
			return -x, true
		case float64:
			return -x, true
		}
	case ast.ExprBin:
		l, lok := evalOperand(arena, n.A, subst)
		r, rok := evalOperand(arena, n.B, subst)
		if !lok || !rok {
			return nil, false
		}
		return arithOp(n.Str, l, r)
	}
	return nil, false
}

func arithOp(op string, l, r any) (any, bool) {
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return nil, false
	}
	_, lInt := l.(int64)
	_, rInt := r.(int64)
	bothInt := lInt && rInt

	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return nil, false
		}
		result = lf / rf
	case "%":
		if !bothInt || r.(int64) == 0 {
			return nil, false
		}
		return l.(int64) % r.(int64), true
	default:
		return nil, false
	}
	if bothInt && op != "/" {
		return int64(result), true
	}
	return result, true
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// evalPredicate statically evaluates a boolean contract predicate against
// subst, returning (value, true) when it reduces to a constant and
// (false, false) when it can't - which spec §4.5 treats as "unknown" and
// defers to a runtime check.
func evalPredicate(arena *ast.Arena, id ast.NodeID, subst map[string]ast.NodeID) (bool, bool) {
	if id == ast.InvalidNode {
		return false, false
	}
	n := arena.Get(id)
	switch n.Kind {
	case ast.ExprPrefix:
		if n.Str != "!" {
			return false, false
		}
		v, ok := evalPredicate(arena, n.A, subst)
		if !ok {
			return false, false
		}
		return !v, true

	case ast.ExprVar:
		argID, ok := subst[n.Name]
		if !ok {
			return false, false
		}
		v, ok := evalArgConst(arena, argID)
		if !ok {
			return false, false
		}
		b, ok := v.(bool)
		return b, ok

	case ast.ExprBin:
		if isLogicalOp(n.Str) {
			l, lok := evalPredicate(arena, n.A, subst)
			r, rok := evalPredicate(arena, n.B, subst)
			if n.Str == "&&" {
				if lok && !l {
					return false, true // short-circuit: false && anything is false
				}
				if rok && !r {
					return false, true
				}
				if !lok || !rok {
					return false, false
				}
				return l && r, true
			}
			// "||"
			if lok && l {
				return true, true
			}
			if rok && r {
				return true, true
			}
			if !lok || !rok {
				return false, false
			}
			return l || r, true
		}
		if !isComparisonOp(n.Str) {
			return false, false
		}
		l, lok := evalOperand(arena, n.A, subst)
		r, rok := evalOperand(arena, n.B, subst)
		if !lok || !rok {
			return false, false
		}
		return compare(n.Str, l, r)
	}
	return false, false
}

func compare(op string, l, r any) (bool, bool) {
	if ls, ok := l.(string); ok {
		rs, ok2 := r.(string)
		if !ok2 {
			return false, false
		}
		switch op {
		case "==":
			return ls == rs, true
		case "!=":
			return ls != rs, true
		}
		return false, false
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return false, false
	}
	switch op {
	case "==":
		return lf == rf, true
	case "!=":
		return lf != rf, true
	case "<":
		return lf < rf, true
	case "<=":
		return lf <= rf, true
	case ">":
		return lf > rf, true
	case ">=":
		return lf >= rf, true
	}
	return false, false
}
