package action

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/errs"
)

// ExprHost evaluates a Transform action as a small pure-expression
// sublanguage over the current Scope, mirroring bootpeg's py_transform:
// there, an action is compiled as `lambda <captures>: <action>` and
// evaluated with Python's own expression grammar. Go has no runtime eval,
// so ExprHost instead parses the action with go/parser and interprets a
// deliberately narrow subset of Go expression syntax — identifiers,
// literals, arithmetic/comparison/boolean operators, and a small builtin
// function table. This keeps the action language "external" the way
// spec.md's Host boundary calls for: nothing here can run arbitrary code,
// mutate state, or block.
type ExprHost struct {
	// Builtins are additional callables available to actions, keyed by the
	// identifier used to call them. NewExprHost registers a default set; callers
	// may extend or override it.
	Builtins map[string]func(args []any) (any, error)
}

// NewExprHost returns an ExprHost preloaded with a small standard function
// table sufficient for the arithmetic/list-building actions spec.md's
// examples use.
func NewExprHost() *ExprHost {
	return &ExprHost{Builtins: defaultBuiltins()}
}

func (h *ExprHost) Eval(action clause.Token, scope Scope) (any, error) {
	src := strings.TrimSpace(string(action))
	if src == "" {
		return nil, errs.Wrap(errs.ErrAction, "empty action body")
	}
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrAction, "action %q: %v", src, err)
	}
	return h.eval(expr, scope)
}

func (h *ExprHost) builtins() map[string]func(args []any) (any, error) {
	if h.Builtins != nil {
		return h.Builtins
	}
	return defaultBuiltins()
}

func (h *ExprHost) eval(n ast.Expr, scope Scope) (any, error) {
	switch e := n.(type) {
	case *ast.ParenExpr:
		return h.eval(e.X, scope)

	case *ast.Ident:
		switch e.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nil":
			return nil, nil
		}
		v, ok := scope[e.Name]
		if !ok {
			return nil, errs.Wrapf(errs.ErrAction, "undefined capture %q", e.Name)
		}
		return v, nil

	case *ast.BasicLit:
		return literal(e)

	case *ast.UnaryExpr:
		x, err := h.eval(e.X, scope)
		if err != nil {
			return nil, err
		}
		return unary(e.Op, x)

	case *ast.BinaryExpr:
		x, err := h.eval(e.X, scope)
		if err != nil {
			return nil, err
		}
		y, err := h.eval(e.Y, scope)
		if err != nil {
			return nil, err
		}
		return binary(e.Op, x, y)

	case *ast.CallExpr:
		fn, ok := e.Fun.(*ast.Ident)
		if !ok {
			return nil, errs.Wrap(errs.ErrAction, "call target must be a builtin name")
		}
		call, ok := h.builtins()[fn.Name]
		if !ok {
			return nil, errs.Wrapf(errs.ErrAction, "unknown function %q", fn.Name)
		}
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			v, err := h.eval(a, scope)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return call(args)

	case *ast.CompositeLit:
		vals := make([]any, len(e.Elts))
		for i, el := range e.Elts {
			v, err := h.eval(el, scope)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return vals, nil

	default:
		return nil, errs.Wrapf(errs.ErrAction, "unsupported action expression %T", n)
	}
}

func literal(lit *ast.BasicLit) (any, error) {
	switch lit.Kind {
	case token.INT:
		v, err := strconv.ParseInt(lit.Value, 0, 64)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrAction, "bad int literal %q: %v", lit.Value, err)
		}
		return v, nil
	case token.FLOAT:
		v, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrAction, "bad float literal %q: %v", lit.Value, err)
		}
		return v, nil
	case token.STRING:
		v, err := strconv.Unquote(lit.Value)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrAction, "bad string literal %q: %v", lit.Value, err)
		}
		return v, nil
	case token.CHAR:
		v, _, _, err := strconv.UnquoteChar(strings.Trim(lit.Value, "'"), '\'')
		if err != nil {
			return nil, errs.Wrapf(errs.ErrAction, "bad char literal %q: %v", lit.Value, err)
		}
		return v, nil
	default:
		return nil, errs.Wrapf(errs.ErrAction, "unsupported literal kind %v", lit.Kind)
	}
}

func unary(op token.Token, x any) (any, error) {
	switch op {
	case token.SUB:
		switch v := x.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
	case token.NOT:
		if b, ok := x.(bool); ok {
			return !b, nil
		}
	}
	return nil, errs.Wrapf(errs.ErrAction, "unary %s not defined for %T", op, x)
}

func binary(op token.Token, x, y any) (any, error) {
	if op == token.ADD {
		if sx, ok := x.(string); ok {
			sy, ok := y.(string)
			if !ok {
				return nil, errs.Wrapf(errs.ErrAction, "cannot add string and %T", y)
			}
			return sx + sy, nil
		}
	}
	if op == token.LAND || op == token.LOR {
		bx, xok := x.(bool)
		by, yok := y.(bool)
		if !xok || !yok {
			return nil, errs.Wrap(errs.ErrAction, "&&/|| require boolean operands")
		}
		if op == token.LAND {
			return bx && by, nil
		}
		return bx || by, nil
	}

	fx, xIsNum, xIsInt := asFloat(x)
	fy, yIsNum, yIsInt := asFloat(y)
	if !xIsNum || !yIsNum {
		if op == token.EQL {
			return x == y, nil
		}
		if op == token.NEQ {
			return x != y, nil
		}
		return nil, errs.Wrapf(errs.ErrAction, "operator %s not defined for %T and %T", op, x, y)
	}

	switch op {
	case token.ADD, token.SUB, token.MUL, token.QUO, token.REM:
		result := arith(op, fx, fy)
		if xIsInt && yIsInt && op != token.QUO {
			return int64(result), nil
		}
		return result, nil
	case token.EQL:
		return fx == fy, nil
	case token.NEQ:
		return fx != fy, nil
	case token.LSS:
		return fx < fy, nil
	case token.LEQ:
		return fx <= fy, nil
	case token.GTR:
		return fx > fy, nil
	case token.GEQ:
		return fx >= fy, nil
	default:
		return nil, errs.Wrapf(errs.ErrAction, "unsupported operator %s", op)
	}
}

func arith(op token.Token, x, y float64) float64 {
	switch op {
	case token.ADD:
		return x + y
	case token.SUB:
		return x - y
	case token.MUL:
		return x * y
	case token.QUO:
		return x / y
	case token.REM:
		return float64(int64(x) % int64(y))
	default:
		return 0
	}
}

func asFloat(v any) (f float64, isNumber, isInt bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true, true
	case int:
		return float64(n), true, true
	case float64:
		return n, true, false
	default:
		return 0, false, false
	}
}

func defaultBuiltins() map[string]func(args []any) (any, error) {
	return map[string]func(args []any) (any, error){
		"concat": func(args []any) (any, error) {
			var b strings.Builder
			for _, a := range args {
				s, ok := a.(string)
				if !ok {
					return nil, errs.Wrapf(errs.ErrAction, "concat: %T is not a string", a)
				}
				b.WriteString(s)
			}
			return b.String(), nil
		},
		"join": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, errs.Wrap(errs.ErrAction, "join expects (list, separator)")
			}
			items, ok := args[0].([]any)
			if !ok {
				return nil, errs.Wrap(errs.ErrAction, "join expects a list as its first argument")
			}
			sep, ok := args[1].(string)
			if !ok {
				return nil, errs.Wrap(errs.ErrAction, "join expects a string separator")
			}
			parts := make([]string, len(items))
			for i, it := range items {
				s, ok := it.(string)
				if !ok {
					return nil, errs.Wrapf(errs.ErrAction, "join: element %d is not a string", i)
				}
				parts[i] = s
			}
			return strings.Join(parts, sep), nil
		},
		"len": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errs.Wrap(errs.ErrAction, "len expects one argument")
			}
			switch v := args[0].(type) {
			case string:
				return int64(len(v)), nil
			case []any:
				return int64(len(v)), nil
			default:
				return nil, errs.Wrapf(errs.ErrAction, "len: unsupported type %T", v)
			}
		},
		"atoi": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errs.Wrap(errs.ErrAction, "atoi expects one argument")
			}
			s, ok := args[0].(string)
			if !ok {
				return nil, errs.Wrapf(errs.ErrAction, "atoi: %T is not a string", args[0])
			}
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.Wrapf(errs.ErrAction, "atoi: %v", err)
			}
			return v, nil
		},
	}
}
