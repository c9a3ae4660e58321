// Package clause implements the Clause intermediate representation: the
// closed set of PEG operators that a Grammar wires into named rules.
//
// A Clause is a small immutable value, never mutated after construction.
// Recursion in the grammar is expressed only through Reference, resolved
// by name against a Grammar at parse time; the Clause tree itself is
// always acyclic, per the arena/name-indirection strategy described for
// this kind of IR.
package clause

import "fmt"

// Kind tags which PEG operator a Clause represents. The set is closed:
// adding a variant means updating every switch in this module and in
// package engine.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindAny
	KindValue
	KindRange
	KindReference
	KindSequence
	KindChoice
	KindRepeat
	KindNot
	KindAnd
	KindEntail
	KindCapture
	KindTransform
	KindRule
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindAny:
		return "Any"
	case KindValue:
		return "Value"
	case KindRange:
		return "Range"
	case KindReference:
		return "Reference"
	case KindSequence:
		return "Sequence"
	case KindChoice:
		return "Choice"
	case KindRepeat:
		return "Repeat"
	case KindNot:
		return "Not"
	case KindAnd:
		return "And"
	case KindEntail:
		return "Entail"
	case KindCapture:
		return "Capture"
	case KindTransform:
		return "Transform"
	case KindRule:
		return "Rule"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Token is the opaque payload a Transform clause carries. The core never
// interprets it; an action.Host evaluates it against captured bindings.
type Token string

// Clause is a single node of the PEG IR. Only the fields relevant to Kind
// are meaningful; constructors below are the supported way to build one.
//
// This is a tagged variant rather than an interface hierarchy: dispatch on
// Kind, not on Go's dynamic type, per the "closed sum type" guidance for
// this kind of grammar IR.
type Clause struct {
	Kind Kind

	// Any(N)
	N int

	// Value(S)
	S string

	// Range(Lo, Hi)
	Lo, Hi string

	// Reference(Name), Capture(Name), Rule(Name)
	Name string

	// Capture(Variadic)
	Variadic bool

	// Transform(Action)
	Action Token

	// Sequence/Choice hold Children directly; Repeat/Not/And/Entail/
	// Capture/Transform/Rule hold exactly one child in Children[0].
	Children []Clause
}

// Empty is the zero-width success clause "ε".
func Empty() Clause { return Clause{Kind: KindEmpty} }

// Any consumes exactly n input items.
func Any(n int) Clause {
	if n <= 0 {
		panic("clause: Any requires a positive length")
	}
	return Clause{Kind: KindAny, N: n}
}

// Value matches iff the input at the current position equals s exactly.
func Value(s string) Clause {
	if s == "" {
		return Empty()
	}
	return Clause{Kind: KindValue, S: s}
}

// Range matches one item x with lo <= x <= hi (single-rune bounds).
func Range(lo, hi string) Clause {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Clause{Kind: KindRange, Lo: lo, Hi: hi}
}

// Reference is an indirect lookup of a named rule in the enclosing Grammar.
func Reference(name string) Clause {
	return Clause{Kind: KindReference, Name: name}
}

// Sequence matches all children in order, n >= 1.
func Sequence(children ...Clause) Clause {
	if len(children) == 0 {
		return Empty()
	}
	if len(children) == 1 {
		return children[0]
	}
	return Clause{Kind: KindSequence, Children: children}
}

// Choice tries children in order; the first success wins, n >= 1.
func Choice(children ...Clause) Clause {
	if len(children) == 0 {
		return Empty()
	}
	if len(children) == 1 {
		return children[0]
	}
	return Clause{Kind: KindChoice, Children: children}
}

// Repeat is greedy one-or-more repetition of child.
func Repeat(child Clause) Clause {
	return Clause{Kind: KindRepeat, Children: []Clause{child}}
}

// Not is a zero-width negative predicate.
func Not(child Clause) Clause {
	return Clause{Kind: KindNot, Children: []Clause{child}}
}

// And is a zero-width positive predicate.
func And(child Clause) Clause {
	return Clause{Kind: KindAnd, Children: []Clause{child}}
}

// Entail commits to child: a later failure inside it is unrecoverable.
func Entail(child Clause) Clause {
	return Clause{Kind: KindEntail, Children: []Clause{child}}
}

// Capture binds child's result to name. variadic=false binds the single
// action result, or the matched text when there is none, and rejects more
// than one; variadic=true collects zero or more in order.
func Capture(child Clause, name string, variadic bool) Clause {
	return Clause{Kind: KindCapture, Name: name, Variadic: variadic, Children: []Clause{child}}
}

// Transform attaches an opaque action to child, evaluated only if the
// surrounding match succeeds.
func Transform(child Clause, action Token) Clause {
	return Clause{Kind: KindTransform, Action: action, Children: []Clause{child}}
}

// Rule names a top-level clause as an entry in a Grammar.
func Rule(name string, body Clause) Clause {
	return Clause{Kind: KindRule, Name: name, Children: []Clause{body}}
}

// Optional desugars `e?` to Choice(e, Empty()).
func Optional(child Clause) Clause {
	return Choice(child, Empty())
}

// ZeroOrMore desugars `e*` to Choice(Repeat(e), Empty()).
func ZeroOrMore(child Clause) Clause {
	return Choice(Repeat(child), Empty())
}

// Sub returns the single child of a unary clause (Repeat, Not, And,
// Entail, Capture, Transform, Rule). It panics for any other Kind.
func (c Clause) Sub() Clause {
	switch c.Kind {
	case KindRepeat, KindNot, KindAnd, KindEntail, KindCapture, KindTransform, KindRule:
		return c.Children[0]
	default:
		panic(fmt.Sprintf("clause: %s has no single child", c.Kind))
	}
}

// Equal reports whether two clauses are structurally identical, recursing
// through children. Used for arena interning and for the fixed-point
// comparison a bootstrap iteration relies on.
func Equal(a, b Clause) bool {
	if a.Kind != b.Kind || a.N != b.N || a.S != b.S || a.Lo != b.Lo || a.Hi != b.Hi ||
		a.Name != b.Name || a.Variadic != b.Variadic || a.Action != b.Action {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
