// Package printer implements the Lox source code printer.
package printer

import (
	"math"
	"strconv"
	"strings"

	"github.com/rlox-lang/rlox/pkg/ast"
)

const indent = "  "

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpEqEq: 1, ast.OpNeq: 1,
	ast.OpGt: 2, ast.OpLt: 2, ast.OpGtEq: 2, ast.OpLtEq: 2,
	ast.OpAdd: 3, ast.OpSub: 3,
	ast.OpMul: 4, ast.OpDiv: 4,
}

func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	switch sub := child.(type) {
	case *ast.BinaryExpr:
		childPrec := precedence[sub.Op]
		parentPrec := precedence[parentOp]
		if childPrec < parentPrec {
			return true
		}
		// Left-associativity: same precedence on the right needs parens
		if childPrec == parentPrec && isRight {
			return true
		}
		return false
	case *ast.LogicalExpr, *ast.AssignExpr:
		return true
	}
	return false
}

// Print pretty-prints a Lox AST back to source code. The output is
// canonical and re-parses to the same tree modulo spans.
func Print(program *ast.Program) string {
	var lines []string
	for _, s := range program.Statements {
		lines = append(lines, printStmt(s, 0))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func printStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		return prefix + printExpr(stmt.Expr) + ";"
	case *ast.PrintStmt:
		return prefix + "print " + printExpr(stmt.Expr) + ";"
	case *ast.VarStmt:
		if stmt.Init == nil {
			return prefix + "var " + stmt.Name + ";"
		}
		return prefix + "var " + stmt.Name + " = " + printExpr(stmt.Init) + ";"
	case *ast.BlockStmt:
		return prefix + "{\n" + printBlock(stmt.Stmts, depth) + "\n" + prefix + "}"
	case *ast.IfStmt:
		out := prefix + "if (" + printExpr(stmt.Cond) + ") " + printBody(stmt.Then, depth)
		if stmt.Else != nil {
			out += " else " + printBody(stmt.Else, depth)
		}
		return out
	case *ast.WhileStmt:
		return prefix + "while (" + printExpr(stmt.Cond) + ") " + printBody(stmt.Body, depth)
	case *ast.BreakStmt:
		return prefix + "break;"
	case *ast.FunctionStmt:
		return prefix + "fun " + stmt.Name + printFunction(stmt.Fn, depth)
	case *ast.ReturnStmt:
		if stmt.Value == nil {
			return prefix + "return;"
		}
		return prefix + "return " + printExpr(stmt.Value) + ";"
	case *ast.ClassStmt:
		header := prefix + "class " + stmt.Name
		if stmt.Superclass != nil {
			header += " < " + stmt.Superclass.Name
		}
		if len(stmt.Methods) == 0 {
			return header + " {}"
		}
		methods := make([]string, len(stmt.Methods))
		inner := strings.Repeat(indent, depth+1)
		for i, m := range stmt.Methods {
			methods[i] = inner + m.Name + printFunction(m.Fn, depth+1)
		}
		return header + " {\n" + strings.Join(methods, "\n") + "\n" + prefix + "}"
	}
	return ""
}

// printBody renders an if/while body. Blocks stay inline with the header;
// any other statement goes on its own indented line.
func printBody(s ast.Stmt, depth int) string {
	if block, ok := s.(*ast.BlockStmt); ok {
		prefix := strings.Repeat(indent, depth)
		return "{\n" + printBlock(block.Stmts, depth) + "\n" + prefix + "}"
	}
	return strings.TrimLeft(printStmt(s, depth), " ")
}

func printBlock(stmts []ast.Stmt, depth int) string {
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = printStmt(s, depth+1)
	}
	return strings.Join(lines, "\n")
}

func printFunction(fn *ast.FunctionExpr, depth int) string {
	params := strings.Join(fn.Params, ", ")
	prefix := strings.Repeat(indent, depth)
	if len(fn.Body) == 0 {
		return "(" + params + ") {}"
	}
	return "(" + params + ") {\n" + printBlock(fn.Body, depth) + "\n" + prefix + "}"
}

func printExpr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.NumberLiteral:
		return printNumberLiteral(expr.Value)
	case *ast.StrLiteral:
		return "\"" + expr.Value + "\""
	case *ast.BoolLiteral:
		if expr.Value {
			return "true"
		}
		return "false"
	case *ast.NilLiteral:
		return "nil"
	case *ast.VariableExpr:
		return expr.Name
	case *ast.AssignExpr:
		return expr.Name + " = " + printExpr(expr.Value)
	case *ast.UnaryExpr:
		operandStr := printExpr(expr.Operand)
		switch expr.Operand.(type) {
		case *ast.BinaryExpr, *ast.LogicalExpr, *ast.AssignExpr:
			operandStr = "(" + operandStr + ")"
		}
		return string(expr.Op) + operandStr
	case *ast.BinaryExpr:
		leftStr := printExpr(expr.Left)
		rightStr := printExpr(expr.Right)
		if needsParens(expr.Left, expr.Op, false) {
			leftStr = "(" + leftStr + ")"
		}
		if needsParens(expr.Right, expr.Op, true) {
			rightStr = "(" + rightStr + ")"
		}
		return leftStr + " " + string(expr.Op) + " " + rightStr
	case *ast.LogicalExpr:
		return printExpr(expr.Left) + " " + string(expr.Op) + " " + printExpr(expr.Right)
	case *ast.GroupingExpr:
		return "(" + printExpr(expr.Inner) + ")"
	case *ast.CallExpr:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = printExpr(a)
		}
		return printExpr(expr.Callee) + "(" + strings.Join(args, ", ") + ")"
	case *ast.GetExpr:
		return printExpr(expr.Object) + "." + expr.Name
	case *ast.SetExpr:
		return printExpr(expr.Object) + "." + expr.Name + " = " + printExpr(expr.Value)
	case *ast.ThisExpr:
		return "this"
	case *ast.SuperExpr:
		return "super." + expr.Method
	case *ast.FunctionExpr:
		return "fun " + printFunction(expr, 0)
	}
	return ""
}

func printNumberLiteral(value float64) string {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}

	raw := strconv.FormatFloat(value, 'g', -1, 64)
	// Scientific notation does not lex, so expand it
	if strings.ContainsAny(raw, "eE") {
		return expandScientificNotation(raw)
	}
	return raw
}

func expandScientificNotation(value string) string {
	lower := strings.ToLower(value)
	parts := strings.SplitN(lower, "e", 2)
	if len(parts) != 2 {
		return value
	}

	mantissa := parts[0]
	exponent, err := strconv.Atoi(parts[1])
	if err != nil {
		return value
	}

	sign := ""
	digits := mantissa
	if strings.HasPrefix(digits, "-") {
		sign = "-"
		digits = digits[1:]
	} else if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}

	dotIdx := strings.Index(digits, ".")
	intPart := digits
	fracPart := ""
	if dotIdx >= 0 {
		intPart = digits[:dotIdx]
		fracPart = digits[dotIdx+1:]
	}

	compact := intPart + fracPart
	decimalIndex := len(intPart) + exponent

	if decimalIndex <= 0 {
		return sign + "0." + strings.Repeat("0", -decimalIndex) + compact
	}
	if decimalIndex >= len(compact) {
		return sign + compact + strings.Repeat("0", decimalIndex-len(compact))
	}
	return sign + compact[:decimalIndex] + "." + compact[decimalIndex:]
}
