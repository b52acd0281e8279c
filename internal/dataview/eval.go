package dataview

import (
	"fmt"
	"strconv"
	"strings"
)

// evaluator resolves field references against one note's flattened fields
// and evaluates WHERE/TABLE expression trees, porting the shape of the
// original's ExpressionEvaluator/FieldResolver pair (both lost from the
// distilled sources) as inferred from executor.py's call sites.
type evaluator struct {
	flat map[string]any
}

func newEvaluator(note Note) *evaluator {
	return &evaluator{flat: note.flatten()}
}

func (e *evaluator) evaluate(expr Expr) (any, error) {
	switch n := expr.(type) {
	case *Literal:
		return n.Value, nil
	case *FieldNode:
		v := e.flat[n.FieldName]
		return v, nil
	case *NotExpr:
		v, err := e.evaluate(n.Operand)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	case *LogicalExpr:
		return e.evaluateLogical(n)
	case *BinaryExpr:
		return e.evaluateBinary(n)
	case *CallExpr:
		return e.evaluateCall(n)
	}
	return nil, fmt.Errorf("dataview: unsupported expression %T", expr)
}

func (e *evaluator) evaluateLogical(n *LogicalExpr) (any, error) {
	left, err := e.evaluate(n.Left)
	if err != nil {
		return nil, err
	}
	if n.Op == TokenAnd {
		if !truthy(left) {
			return false, nil
		}
		right, err := e.evaluate(n.Right)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	}
	if truthy(left) {
		return true, nil
	}
	right, err := e.evaluate(n.Right)
	if err != nil {
		return nil, err
	}
	return truthy(right), nil
}

func (e *evaluator) evaluateBinary(n *BinaryExpr) (any, error) {
	left, err := e.evaluate(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.evaluate(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case TokenEquals:
		return valuesEqual(left, right), nil
	case TokenNotEquals:
		return !valuesEqual(left, right), nil
	case TokenLessThan, TokenGreaterThan, TokenLessEqual, TokenGreaterEqual:
		return compareOrdered(n.Op, left, right)
	}
	return nil, fmt.Errorf("dataview: unsupported comparison operator")
}

func (e *evaluator) evaluateCall(n *CallExpr) (any, error) {
	args := make([]any, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evaluate(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	switch strings.ToLower(n.Name) {
	case "length":
		if len(args) != 1 {
			return nil, fmt.Errorf("dataview: length() takes exactly one argument")
		}
		switch args[0].(type) {
		case nil, string, []any, []string:
		default:
			return nil, fmt.Errorf("dataview: length() of unsupported value %T", args[0])
		}
		return float64(valueLength(args[0])), nil
	case "lower":
		if len(args) != 1 {
			return nil, fmt.Errorf("dataview: lower() takes exactly one argument")
		}
		return strings.ToLower(fmt.Sprint(args[0])), nil
	case "upper":
		if len(args) != 1 {
			return nil, fmt.Errorf("dataview: upper() takes exactly one argument")
		}
		return strings.ToUpper(fmt.Sprint(args[0])), nil
	}
	return nil, fmt.Errorf("dataview: unknown function %q", n.Name)
}

func valueLength(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		return len(t)
	case []any:
		return len(t)
	case []string:
		return len(t)
	default:
		return 0
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	default:
		return true
	}
}

func valuesEqual(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareOrdered(op TokenType, a, b any) (bool, error) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch op {
		case TokenLessThan:
			return af < bf, nil
		case TokenGreaterThan:
			return af > bf, nil
		case TokenLessEqual:
			return af <= bf, nil
		case TokenGreaterEqual:
			return af >= bf, nil
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch op {
	case TokenLessThan:
		return as < bs, nil
	case TokenGreaterThan:
		return as > bs, nil
	case TokenLessEqual:
		return as <= bs, nil
	case TokenGreaterEqual:
		return as >= bs, nil
	}
	return false, fmt.Errorf("dataview: unsupported comparison operator")
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
