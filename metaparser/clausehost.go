package metaparser

import (
	"go/ast"
	"go/parser"
	gotoken "go/token"
	"strconv"
	"strings"

	"github.com/kip-lang/kip/action"
	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/errs"
)

// ClauseHost is the action.Host SeedGrammar's actions are written against:
// every action body is a small Go-expression rendering of the very
// clause-constructor calls package clause exports (e.g. "Rule(name,
// body)", "Choice(first, otherwise)"). Evaluating a .bpeg source through
// SeedGrammar with a ClauseHost therefore builds clause.Clause values
// directly, the same way bootpeg's boot parser evaluates its actions
// against its own clause classes.
type ClauseHost struct{}

func (ClauseHost) Eval(act clause.Token, scope action.Scope) (any, error) {
	src := strings.TrimSpace(string(act))
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrAction, "seed action %q: %v", src, err)
	}
	return evalClauseExpr(expr, scope)
}

func evalClauseExpr(n ast.Expr, scope action.Scope) (any, error) {
	switch e := n.(type) {
	case *ast.ParenExpr:
		return evalClauseExpr(e.X, scope)

	case *ast.Ident:
		switch e.Name {
		case "True":
			return true, nil
		case "False":
			return false, nil
		}
		v, ok := scope[e.Name]
		if !ok {
			return nil, errs.Wrapf(errs.ErrAction, "undefined capture %q", e.Name)
		}
		return v, nil

	case *ast.BasicLit:
		return clauseLiteral(e)

	case *ast.SliceExpr:
		return evalSlice(e, scope)

	case *ast.CallExpr:
		fn, ok := e.Fun.(*ast.Ident)
		if !ok {
			return nil, errs.Wrap(errs.ErrAction, "seed action call target must be a bare name")
		}
		builtin, ok := clauseBuiltins[fn.Name]
		if !ok {
			return nil, errs.Wrapf(errs.ErrAction, "unknown clause constructor %q", fn.Name)
		}
		args, err := evalClauseArgs(e.Args, scope)
		if err != nil {
			return nil, err
		}
		return builtin(args)

	default:
		return nil, errs.Wrapf(errs.ErrAction, "unsupported seed action expression %T", n)
	}
}

// evalClauseArgs evaluates a call's argument list, expanding a leading
// "*name" (parsed as a pointer-dereference expression, the closest Go
// syntax to a splat) into that capture's elements — mirroring
// "Grammar(*rules)" unpacking a variadic capture's list of results.
func evalClauseArgs(exprs []ast.Expr, scope action.Scope) ([]any, error) {
	var out []any
	for _, a := range exprs {
		if star, ok := a.(*ast.StarExpr); ok {
			v, err := evalClauseExpr(star.X, scope)
			if err != nil {
				return nil, err
			}
			items, ok := v.([]any)
			if !ok {
				return nil, errs.Wrap(errs.ErrAction, "spread argument must be a variadic capture")
			}
			out = append(out, items...)
			continue
		}
		v, err := evalClauseExpr(a, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func evalSlice(e *ast.SliceExpr, scope action.Scope) (any, error) {
	xv, err := evalClauseExpr(e.X, scope)
	if err != nil {
		return nil, err
	}
	s, ok := xv.(string)
	if !ok {
		return nil, errs.Wrapf(errs.ErrAction, "cannot slice %T", xv)
	}
	low, err := sliceBound(e.Low, 0, len(s))
	if err != nil {
		return nil, err
	}
	high, err := sliceBound(e.High, len(s), len(s))
	if err != nil {
		return nil, err
	}
	if low < 0 {
		low += len(s)
	}
	if high < 0 {
		high += len(s)
	}
	if low < 0 || high > len(s) || low > high {
		return nil, errs.Wrapf(errs.ErrAction, "slice bounds [%d:%d] out of range for length %d", low, high, len(s))
	}
	return s[low:high], nil
}

func sliceBound(e ast.Expr, def, length int) (int, error) {
	if e == nil {
		return def, nil
	}
	switch v := e.(type) {
	case *ast.BasicLit:
		return strconv.Atoi(v.Value)
	case *ast.UnaryExpr:
		if v.Op == gotoken.SUB {
			lit, ok := v.X.(*ast.BasicLit)
			if !ok {
				return 0, errs.Wrap(errs.ErrAction, "unsupported slice bound expression")
			}
			n, err := strconv.Atoi(lit.Value)
			if err != nil {
				return 0, err
			}
			return -n, nil
		}
	}
	return 0, errs.Wrap(errs.ErrAction, "unsupported slice bound expression")
}

func clauseLiteral(lit *ast.BasicLit) (any, error) {
	switch lit.Kind {
	case gotoken.STRING:
		return strconv.Unquote(lit.Value)
	case gotoken.CHAR:
		r, _, _, err := strconv.UnquoteChar(strings.Trim(lit.Value, "'"), '\'')
		if err != nil {
			return nil, err
		}
		return string(r), nil
	case gotoken.INT:
		v, err := strconv.Atoi(lit.Value)
		return v, err
	default:
		return nil, errs.Wrapf(errs.ErrAction, "unsupported literal kind %v", lit.Kind)
	}
}

func toClause(v any) (clause.Clause, error) {
	c, ok := v.(clause.Clause)
	if !ok {
		return clause.Clause{}, errs.Wrapf(errs.ErrAction, "expected a clause, got %T", v)
	}
	return c, nil
}

func toClauses(vs []any) ([]clause.Clause, error) {
	out := make([]clause.Clause, len(vs))
	for i, v := range vs {
		c, err := toClause(v)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errs.Wrapf(errs.ErrAction, "expected a string, got %T", v)
	}
	return s, nil
}

func toBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errs.Wrapf(errs.ErrAction, "expected a bool, got %T", v)
	}
	return b, nil
}

var clauseBuiltins = map[string]func(args []any) (any, error){
	"Empty": func(args []any) (any, error) { return clause.Empty(), nil },
	"Any": func(args []any) (any, error) {
		n, ok := args[0].(int)
		if !ok {
			return nil, errs.Wrap(errs.ErrAction, "Any expects an int argument")
		}
		return clause.Any(n), nil
	},
	"Value": func(args []any) (any, error) {
		s, err := toString(args[0])
		if err != nil {
			return nil, err
		}
		return clause.Value(s), nil
	},
	"Range": func(args []any) (any, error) {
		lo, err := toString(args[0])
		if err != nil {
			return nil, err
		}
		hi, err := toString(args[1])
		if err != nil {
			return nil, err
		}
		return clause.Range(lo, hi), nil
	},
	"Reference": func(args []any) (any, error) {
		name, err := toString(args[0])
		if err != nil {
			return nil, err
		}
		return clause.Reference(name), nil
	},
	"Sequence": func(args []any) (any, error) {
		cs, err := toClauses(args)
		if err != nil {
			return nil, err
		}
		return clause.Sequence(cs...), nil
	},
	"Choice": func(args []any) (any, error) {
		cs, err := toClauses(args)
		if err != nil {
			return nil, err
		}
		return clause.Choice(cs...), nil
	},
	"Repeat": func(args []any) (any, error) {
		c, err := toClause(args[0])
		if err != nil {
			return nil, err
		}
		return clause.Repeat(c), nil
	},
	"Not": func(args []any) (any, error) {
		c, err := toClause(args[0])
		if err != nil {
			return nil, err
		}
		return clause.Not(c), nil
	},
	"And": func(args []any) (any, error) {
		c, err := toClause(args[0])
		if err != nil {
			return nil, err
		}
		return clause.And(c), nil
	},
	"Entail": func(args []any) (any, error) {
		c, err := toClause(args[0])
		if err != nil {
			return nil, err
		}
		return clause.Entail(c), nil
	},
	"Capture": func(args []any) (any, error) {
		c, err := toClause(args[0])
		if err != nil {
			return nil, err
		}
		name, err := toString(args[1])
		if err != nil {
			return nil, err
		}
		variadic, err := toBool(args[2])
		if err != nil {
			return nil, err
		}
		return clause.Capture(c, name, variadic), nil
	},
	"Transform": func(args []any) (any, error) {
		c, err := toClause(args[0])
		if err != nil {
			return nil, err
		}
		act, err := toString(args[1])
		if err != nil {
			return nil, err
		}
		return clause.Transform(c, clause.Token(act)), nil
	},
	"Rule": func(args []any) (any, error) {
		name, err := toString(args[0])
		if err != nil {
			return nil, err
		}
		c, err := toClause(args[1])
		if err != nil {
			return nil, err
		}
		return clause.Rule(name, c), nil
	},
	"Grammar": func(args []any) (any, error) {
		cs, err := toClauses(args)
		if err != nil {
			return nil, err
		}
		return RawGrammar{Rules: cs}, nil
	},
}
