package sema

import (
	"github.com/BurntChromium/iona-lang/internal/ast"
	"github.com/BurntChromium/iona-lang/internal/decl"
	"github.com/BurntChromium/iona-lang/internal/diag"
	"github.com/BurntChromium/iona-lang/internal/scope"
)

func isNumeric(t string) bool {
	return t == "int" || t == "float"
}

func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func isLogicalOp(op string) bool {
	return op == "&&" || op == "||"
}

// typeCheckFn is Phase C for one function: param types are pushed into the
// symbol table, then the body is walked bottom-up, then the body's overall
// type is checked against the declared return type at every return site.
func (a *Analyzer) typeCheckFn(fn *decl.Fn) {
	node := a.arena.Get(fn.Node)

	for i, paramID := range node.Params {
		if paramID == ast.InvalidNode || i >= len(fn.Params) {
			continue
		}
		p := a.arena.Get(paramID)
		if p.SymbolID == ast.NoSymbol {
			continue
		}
		sym := a.table.Get(scope.SymbolID(p.SymbolID))
		sym.Type = fn.Params[i].Type
		a.table.Set(sym.ID, sym)
	}

	a.typeCheckBlock(node.Body, fn)
}

// typeCheckBlock type-checks every statement in stmts and returns the type
// the block would contribute if used as an expression: a trailing StmtExpr's
// type, or "void" otherwise (including after a StmtReturn, which diverges
// and so contributes no value to a joined branch type).
func (a *Analyzer) typeCheckBlock(stmts []ast.NodeID, fn *decl.Fn) string {
	result := "void"
	for _, stmtID := range stmts {
		if stmtID == ast.InvalidNode {
			continue
		}
		stmt := a.arena.Get(stmtID)
		result = "void"
		switch stmt.Kind {
		case ast.StmtLet:
			initType := a.typeCheckExpr(stmt.A, fn)
			if stmt.SymbolID != ast.NoSymbol {
				sym := a.table.Get(scope.SymbolID(stmt.SymbolID))
				sym.Type = initType
				a.table.Set(sym.ID, sym)
			}
		case ast.StmtSet:
			targetType := a.typeCheckExpr(stmt.A, fn)
			valueType := a.typeCheckExpr(stmt.B, fn)
			if targetType != ast.ErrorType && valueType != ast.ErrorType && targetType != valueType {
				a.diags.Errorf(diag.CodeTypeMismatch, stmt.Span,
					"cannot assign value of type %s to target of type %s", valueType, targetType)
			}
		case ast.StmtReturn:
			if stmt.A == ast.InvalidNode {
				if fn.ReturnType != "void" && fn.ReturnType != "" {
					a.diags.Errorf(diag.CodeTypeMismatch, stmt.Span,
						"'%s' must return a value of type %s", fn.Name, fn.ReturnType)
				}
				continue
			}
			retType := a.typeCheckExpr(stmt.A, fn)
			if retType != ast.ErrorType && fn.ReturnType != "" && retType != fn.ReturnType {
				a.diags.Errorf(diag.CodeTypeMismatch, stmt.Span,
					"'%s' returns %s, expected %s", fn.Name, retType, fn.ReturnType)
			}
		case ast.StmtExpr:
			result = a.typeCheckExpr(stmt.A, fn)
		}
	}
	return result
}

// typeCheckExpr synthesizes id's type bottom-up, stamping it onto the node
// as ResolvedType, and returns it.
func (a *Analyzer) typeCheckExpr(id ast.NodeID, fn *decl.Fn) string {
	if id == ast.InvalidNode {
		return ast.ErrorType
	}
	n := a.arena.Get(id)
	t := ast.ErrorType

	switch n.Kind {
	case ast.ExprLit:
		switch n.LitKind {
		case ast.LitInt:
			t = "int"
		case ast.LitFloat:
			t = "float"
		case ast.LitStr:
			t = "str"
		}

	case ast.ExprVar:
		if n.SymbolID == ast.NoSymbol {
			t = ast.ErrorType // NameNotFound already reported by Phase A
		} else {
			sym := a.table.Get(scope.SymbolID(n.SymbolID))
			if sym.Kind == scope.Unknown || sym.Type == "" {
				t = ast.ErrorType
			} else {
				t = sym.Type
			}
		}

	case ast.ExprBin:
		lt := a.typeCheckExpr(n.A, fn)
		rt := a.typeCheckExpr(n.B, fn)
		switch {
		case isComparisonOp(n.Str):
			if lt != ast.ErrorType && rt != ast.ErrorType && lt != rt {
				a.diags.Errorf(diag.CodeTypeMismatch, n.Span,
					"cannot compare %s with %s", lt, rt)
			} else {
				t = "bool"
			}
		case isLogicalOp(n.Str):
			if (lt != "bool" && lt != ast.ErrorType) || (rt != "bool" && rt != ast.ErrorType) {
				a.diags.Errorf(diag.CodeTypeMismatch, n.Span,
					"'%s' requires bool operands, got %s and %s", n.Str, lt, rt)
			} else {
				t = "bool"
			}
		default: // arithmetic
			if lt == ast.ErrorType || rt == ast.ErrorType {
				t = ast.ErrorType
			} else if lt != rt || !isNumeric(lt) {
				a.diags.Errorf(diag.CodeTypeMismatch, n.Span,
					"arithmetic requires matching numeric operands, got %s and %s", lt, rt)
			} else {
				t = lt
			}
		}

	case ast.ExprPrefix:
		ot := a.typeCheckExpr(n.A, fn)
		switch n.Str {
		case "!":
			if ot != "bool" && ot != ast.ErrorType {
				a.diags.Errorf(diag.CodeTypeMismatch, n.Span, "'!' requires a bool operand, got %s", ot)
			} else {
				t = "bool"
			}
		case "-":
			if ot != ast.ErrorType && !isNumeric(ot) {
				a.diags.Errorf(diag.CodeTypeMismatch, n.Span, "unary '-' requires a numeric operand, got %s", ot)
			} else {
				t = ot
			}
		}

	case ast.ExprIndex:
		a.typeCheckExpr(n.A, fn)
		a.typeCheckExpr(n.B, fn)
		t = ast.ErrorType // collection element types are not modeled

	case ast.ExprIf:
		condType := a.typeCheckExpr(n.A, fn)
		if condType != "bool" && condType != ast.ErrorType {
			a.diags.Errorf(diag.CodeTypeMismatch, n.Span, "if condition must be bool, got %s", condType)
		}
		thenType := a.typeCheckBlock(n.Then, fn)
		if n.HasElse {
			elseType := a.typeCheckBlock(n.Else, fn)
			if thenType != ast.ErrorType && elseType != ast.ErrorType && thenType != elseType {
				a.diags.Errorf(diag.CodeTypeMismatch, n.Span,
					"if branches have mismatched types: %s vs %s", thenType, elseType)
			} else {
				t = thenType
			}
		} else {
			t = "void"
		}

	case ast.ExprMatch:
		a.typeCheckExpr(n.A, fn)
		armType := "void"
		first := true
		for _, armID := range n.Children {
			arm := a.arena.Get(armID)
			a.typeCheckExpr(arm.A, fn)
			if arm.B != ast.InvalidNode {
				guardType := a.typeCheckExpr(arm.B, fn)
				if guardType != "bool" && guardType != ast.ErrorType {
					a.diags.Errorf(diag.CodeTypeMismatch, arm.Span, "match guard must be bool, got %s", guardType)
				}
			}
			bodyType := a.typeCheckExpr(arm.C, fn)
			if first {
				armType = bodyType
				first = false
			} else if armType != ast.ErrorType && bodyType != ast.ErrorType && armType != bodyType {
				a.diags.Errorf(diag.CodeTypeMismatch, arm.Span, "match arms have mismatched types: %s vs %s", armType, bodyType)
			}
		}
		t = armType

	case ast.ExprCall:
		t = a.typeCheckCall(id, n, fn)
	}

	n.ResolvedType = t
	a.arena.Set(id, n)
	return t
}

// typeCheckCall handles arity/type checking against either a local
// function's signature or a stdlib manifest entry, then lowers any
// preconditions the callee declares against this call site's arguments.
func (a *Analyzer) typeCheckCall(id ast.NodeID, n ast.Node, fn *decl.Fn) string {
	argTypes := make([]string, len(n.Children))
	for i, argID := range n.Children {
		argTypes[i] = a.typeCheckExpr(argID, fn)
	}

	calleeNode := a.arena.Get(n.A)
	if calleeNode.Kind != ast.ExprVar {
		return ast.ErrorType // calling a computed expression is not modeled
	}
	name := calleeNode.Name

	var paramTypes []string
	retType := ast.ErrorType
	haveSignature := false

	if callee, ok := a.module.Functions[name]; ok {
		haveSignature = true
		for _, p := range callee.Params {
			paramTypes = append(paramTypes, p.Type)
		}
		retType = callee.ReturnType
		a.lowerCallContracts(callee, n, id)
	} else if a.manifest != nil {
		if sig, ok := a.manifest.Signature(name); ok {
			haveSignature = true
			paramTypes = sig.Params
			retType = sig.Return
		}
	}

	if haveSignature {
		if len(argTypes) != len(paramTypes) {
			a.diags.Errorf(diag.CodeTypeMismatch, n.Span,
				"'%s' expects %d argument(s), got %d", name, len(paramTypes), len(argTypes))
		} else {
			for i := range argTypes {
				if argTypes[i] == ast.ErrorType || paramTypes[i] == "" {
					continue
				}
				if argTypes[i] != paramTypes[i] {
					argSpan := a.arena.Get(n.Children[i]).Span
					a.diags.Errorf(diag.CodeTypeMismatch, argSpan,
						"argument %d of '%s' has type %s, expected %s", i+1, name, argTypes[i], paramTypes[i])
				}
			}
		}
	}

	if retType == "" {
		retType = "void"
	}
	return retType
}
