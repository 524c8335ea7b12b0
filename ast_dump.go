package ionac

import (
	"fmt"
	"strings"

	"github.com/BurntChromium/iona-lang/internal/ast"
)

// DumpAST renders a unit's AST as an indented tree, for the --dump-ast
// debug report. It is a thin s-expression-flavored printout: enough to
// see shape and resolved types (spans are not printed), not a re-parseable
// format.
func DumpAST(u *Unit) string {
	var sb strings.Builder
	dumpNode(&sb, u.Arena, u.ModID, 0)
	return sb.String()
}

func dumpNode(sb *strings.Builder, arena *ast.Arena, id ast.NodeID, depth int) {
	if id == ast.InvalidNode {
		return
	}
	n := arena.Get(id)
	indent := strings.Repeat("  ", depth)

	label := n.Kind.String()
	switch n.Kind {
	case ast.FnDecl, ast.Param, ast.Type, ast.ExprVar:
		if n.Name != "" {
			label += " " + n.Name
		}
	case ast.ExprLit:
		label += " " + litLabel(n)
	case ast.ExprBin, ast.ExprPrefix:
		label += " " + n.Str
	case ast.Attribute:
		label += " " + n.AttrKind.String()
	}
	if n.ResolvedType != "" {
		label += " : " + n.ResolvedType
	}
	fmt.Fprintf(sb, "%s%s\n", indent, label)

	switch n.Kind {
	case ast.Module:
		for _, c := range n.Imports {
			dumpNode(sb, arena, c, depth+1)
		}
		for _, c := range n.Functions {
			dumpNode(sb, arena, c, depth+1)
		}
	case ast.FnDecl:
		for _, c := range n.Attributes {
			dumpNode(sb, arena, c, depth+1)
		}
		for _, c := range n.Params {
			dumpNode(sb, arena, c, depth+1)
		}
		dumpNode(sb, arena, n.ReturnType, depth+1)
		for _, c := range n.Body {
			dumpNode(sb, arena, c, depth+1)
		}
	case ast.Param:
		dumpNode(sb, arena, n.A, depth+1)
	case ast.Attribute:
		dumpNode(sb, arena, n.A, depth+1)
	case ast.StmtLet, ast.StmtExpr:
		dumpNode(sb, arena, n.A, depth+1)
	case ast.StmtSet:
		dumpNode(sb, arena, n.A, depth+1)
		dumpNode(sb, arena, n.B, depth+1)
	case ast.StmtReturn:
		dumpNode(sb, arena, n.A, depth+1)
	case ast.ExprBin:
		dumpNode(sb, arena, n.A, depth+1)
		dumpNode(sb, arena, n.B, depth+1)
	case ast.ExprPrefix:
		dumpNode(sb, arena, n.A, depth+1)
	case ast.ExprIndex:
		dumpNode(sb, arena, n.A, depth+1)
		dumpNode(sb, arena, n.B, depth+1)
	case ast.ExprCall:
		dumpNode(sb, arena, n.A, depth+1)
		for _, c := range n.Children {
			dumpNode(sb, arena, c, depth+1)
		}
	case ast.ExprIf:
		dumpNode(sb, arena, n.A, depth+1)
		for _, c := range n.Then {
			dumpNode(sb, arena, c, depth+1)
		}
		for _, c := range n.Else {
			dumpNode(sb, arena, c, depth+1)
		}
	case ast.ExprMatch:
		dumpNode(sb, arena, n.A, depth+1)
		for _, c := range n.Children {
			dumpNode(sb, arena, c, depth+1)
		}
	case ast.MatchArm:
		dumpNode(sb, arena, n.A, depth+1)
		if n.B != ast.InvalidNode {
			dumpNode(sb, arena, n.B, depth+1)
		}
		dumpNode(sb, arena, n.C, depth+1)
	}
}

func litLabel(n ast.Node) string {
	switch n.LitKind {
	case ast.LitInt:
		return fmt.Sprintf("%d", n.IntVal)
	case ast.LitFloat:
		return fmt.Sprintf("%g", n.FloatVal)
	case ast.LitStr:
		return fmt.Sprintf("%q", n.StrVal)
	}
	return ""
}
