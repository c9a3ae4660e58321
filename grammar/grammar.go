// Package grammar wires a collection of named clauses into a coherent,
// validated namespace: a Grammar. Grammars are immutable once built; a new
// Grammar is produced by each bootstrap iteration rather than mutating an
// existing one.
package grammar

import (
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/errs"
)

// Grammar is a frozen mapping from rule name to top-level clause, plus a
// designated entry rule (conventionally named "top").
type Grammar struct {
	entry    string
	rules    map[string]clause.Clause // name -> body (Rule's sub-clause)
	order    []string                 // construction order, for stable iteration/rendering
	nullable map[string]bool
	arena    *clause.Arena
}

// New validates and freezes rules (each of Kind clause.KindRule) into a
// Grammar entered at entryName. It fails eagerly, before any parse runs,
// on a duplicate rule name or an unresolved reference — Grammar
// construction errors are never deferred to parse time.
func New(entryName string, rules ...clause.Clause) (*Grammar, error) {
	g := &Grammar{
		entry: entryName,
		rules: make(map[string]clause.Clause, len(rules)),
	}
	for _, r := range rules {
		if r.Kind != clause.KindRule {
			return nil, errs.Wrapf(errs.ErrGrammarMalformed, "not a rule: %s", r.Kind)
		}
		if _, dup := g.rules[r.Name]; dup {
			return nil, errs.Wrapf(errs.ErrGrammarMalformed, "duplicate rule name %q", r.Name)
		}
		g.rules[r.Name] = r.Sub()
		g.order = append(g.order, r.Name)
	}
	if _, ok := g.rules[entryName]; !ok {
		return nil, errs.Wrapf(errs.ErrGrammarMalformed, "entry rule %q not defined", entryName)
	}
	if err := g.validateReferences(); err != nil {
		return nil, err
	}
	g.nullable = g.computeNullable()

	roots := make([]clause.Clause, 0, len(g.order))
	for _, name := range g.order {
		roots = append(roots, g.rules[name])
	}
	g.arena = clause.NewArena(roots...)

	return g, nil
}

func (g *Grammar) validateReferences() error {
	var walk func(c clause.Clause) error
	walk = func(c clause.Clause) error {
		if c.Kind == clause.KindReference {
			if _, ok := g.rules[c.Name]; !ok {
				return errs.Wrapf(errs.ErrUnknownRule, "reference to %q", c.Name)
			}
			return nil
		}
		for _, child := range c.Children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range g.order {
		if err := walk(g.rules[name]); err != nil {
			return errs.Wrapf(err, "rule %q", name)
		}
	}
	return nil
}

// computeNullable finds the least fixed point of rule nullability: start
// with every rule assumed non-nullable, and repeatedly recompute each
// rule's nullability from the current assumptions until nothing changes.
// This always terminates because nullability only ever flips false->true.
func (g *Grammar) computeNullable() map[string]bool {
	nullable := make(map[string]bool, len(g.rules))
	for {
		changed := false
		for _, name := range g.order {
			was := nullable[name]
			now := clause.Nullable(g.rules[name], nullable)
			if now != was {
				nullable[name] = now
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return nullable
}

// Entry returns the designated top rule, as a clause.KindRule clause.
func (g *Grammar) Entry() clause.Clause {
	body, _ := g.Resolve(g.entry)
	return clause.Rule(g.entry, body)
}

// EntryName returns the name of the designated top rule.
func (g *Grammar) EntryName() string { return g.entry }

// Resolve returns the clause bound to name, or ErrUnknownRule.
func (g *Grammar) Resolve(name string) (clause.Clause, error) {
	body, ok := g.rules[name]
	if !ok {
		return clause.Clause{}, errs.Wrapf(errs.ErrUnknownRule, "rule %q", name)
	}
	return body, nil
}

// Nullable reports whether the named rule may match zero-width input.
func (g *Grammar) Nullable(name string) bool { return g.nullable[name] }

// RuleNames returns every rule name in construction order.
func (g *Grammar) RuleNames() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Arena returns the arena of interned clauses built from this grammar's
// rule bodies. Package engine does not use it: its memoization table is
// keyed by rule name and input position.
func (g *Grammar) Arena() *clause.Arena { return g.arena }

// LeftRecursive reports whether name participates in a left-recursive
// cycle: reachable from its own body via a chain of leftmost positions.
// The parsing engine does not need this to parse correctly (the
// grow-the-seed protocol applies uniformly to every reference), but it is
// useful bootstrap/debug diagnostics.
func (g *Grammar) LeftRecursive(name string) bool {
	closure := make(map[string][]string, len(g.order))
	for _, n := range g.order {
		closure[n] = clause.LeftmostRefs(g.rules[n], g.nullable)
	}
	return clause.Seeds(name, closure)
}

// EqualTo reports whether g and other are structurally identical: same
// entry, same rule names, and pairwise-equal rule bodies. Used to detect
// the bootstrap fixed point. Comparison is done with google/go-cmp rather
// than reflect.DeepEqual; every clause.Clause field is exported, and
// cmpopts.EquateEmpty treats nil and empty Children as equal.
func (g *Grammar) EqualTo(other *Grammar) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.entry != other.entry {
		return false
	}
	a := sortedNames(g.order)
	b := sortedNames(other.order)
	if !cmp.Equal(a, b) {
		return false
	}
	for _, name := range a {
		if !cmp.Equal(g.rules[name], other.rules[name], cmpopts.EquateEmpty()) {
			return false
		}
	}
	return true
}

func sortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
