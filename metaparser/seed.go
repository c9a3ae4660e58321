// Package metaparser builds the grammars that read grammar definitions:
// a minimal hand-built seed grammar for the line-oriented ".bpeg" dialect
// (SeedGrammar), and a self-contained recursive-descent reader for the
// canonical arrow/slash PEG dialect (ParseCanonical) used once the system
// is already bootstrapped. Both produce ordinary clause.Clause values —
// neither dialect is privileged by package engine or package grammar.
package metaparser

import (
	"strings"

	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/grammar"
)

// RawGrammar is what evaluating the seed grammar's "top" rule produces: the
// flat list of Rule clauses a .bpeg source defined, in file order, not yet
// validated or frozen into a *grammar.Grammar.
type RawGrammar struct {
	Rules []clause.Clause
}

func spaces() clause.Clause { return clause.Choice(clause.Value(" "), clause.Empty()) }

// neg matches one input item that is none of the given clauses, by
// sequencing a negative lookahead per clause ahead of an unconditional
// single-item consume.
func neg(clauses ...clause.Clause) clause.Clause {
	parts := make([]clause.Clause, 0, len(clauses)+1)
	for _, c := range clauses {
		parts = append(parts, clause.Not(c))
	}
	parts = append(parts, clause.Any(1))
	return clause.Sequence(parts...)
}

// field is one named (or, prefixed with "_", discarded) piece of an apply
// sequence. Field order is significant: it is the order the corresponding
// Sequence's children appear in, and thus the order captures are bound in.
type field struct {
	name string
	body clause.Clause
}

func cap(name string, body clause.Clause) field { return field{name: name, body: body} }

// apply builds a Transform whose sub-clause is a Sequence of the given
// fields, capturing every field whose name does not start with "_" under
// that name, and running action against the resulting scope.
func apply(action string, fields ...field) clause.Clause {
	parts := make([]clause.Clause, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f.name, "_") {
			parts = append(parts, f.body)
		} else {
			parts = append(parts, clause.Capture(f.body, f.name, false))
		}
	}
	return clause.Transform(clause.Sequence(parts...), clause.Token(action))
}

const identifierChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"

func identifierAtom() clause.Clause {
	alts := make([]clause.Clause, len(identifierChars))
	for i, ch := range identifierChars {
		alts[i] = clause.Value(string(ch))
	}
	return clause.Repeat(clause.Choice(alts...))
}

func quotedLiteral(quote string) clause.Clause {
	return clause.Sequence(clause.Value(quote), clause.Repeat(neg(clause.Value(quote))), clause.Entail(clause.Value(quote)))
}

// SeedGrammar is the minimal hand-built grammar capable of reading the
// ".bpeg" dialect's own textual form: a sequence of "name:" headed rules,
// each with one or more "| expr { action }" choices, blank lines and "#"
// comments allowed between them. Parsing a .bpeg source through it (via
// package engine, with a ClauseHost resolving its actions) produces a
// RawGrammar — the seed from which package bootstrap grows richer
// generations of the dialect.
func SeedGrammar() *grammar.Grammar {
	rules := []clause.Clause{
		clause.Rule("top",
			clause.Sequence(
				clause.Transform(
					clause.Capture(clause.Repeat(clause.Choice(clause.Reference("rule"), clause.Reference("end_line"))), "rules", true),
					"Grammar(*rules)",
				),
				clause.Not(clause.Any(1)),
			),
		),
		clause.Rule("end_line",
			clause.Sequence(
				spaces(),
				clause.Choice(clause.Sequence(clause.Value("#"), clause.Repeat(neg(clause.Value("\n")))), clause.Empty()),
				clause.Choice(clause.Value("\n"), clause.Not(clause.Any(1))),
			),
		),
		clause.Rule("identifier", identifierAtom()),
		clause.Rule("literal", clause.Choice(quotedLiteral(`"`), quotedLiteral(`'`))),
		clause.Rule("action_body",
			clause.Repeat(clause.Choice(
				neg(clause.Value("{"), clause.Value("}")),
				clause.Sequence(clause.Value("{"), clause.Reference("action_body"), clause.Entail(clause.Value("}"))),
			)),
		),
		clause.Rule("action",
			apply("body",
				cap("_h", clause.Value("{")),
				cap("body", clause.Reference("action_body")),
				cap("_t", clause.Entail(clause.Value("}"))),
			),
		),
		clause.Rule("rule_choice",
			clause.Choice(
				apply("Transform(expr, action)",
					cap("_h", clause.Value("| ")),
					cap("expr", clause.Reference("expr")),
					cap("_s", spaces()),
					cap("action", clause.Reference("action")),
				),
				clause.Sequence(clause.Value("| "), clause.Reference("expr")),
			),
		),
		clause.Rule("rule_body",
			clause.Choice(
				apply("Choice(first, otherwise)",
					cap("first", clause.Reference("rule_body")),
					cap("otherwise", clause.Sequence(clause.Value("    "), clause.Reference("rule_choice"), clause.Reference("end_line"))),
				),
				clause.Sequence(clause.Value("    "), clause.Reference("rule_choice"), clause.Reference("end_line")),
			),
		),
		clause.Rule("rule",
			apply("Rule(name, body)",
				cap("name", clause.Reference("identifier")),
				cap("_", clause.Sequence(clause.Value(":"), clause.Reference("end_line"))),
				cap("body", clause.Reference("rule_body")),
			),
		),
		clause.Rule("atom",
			clause.Choice(
				clause.Transform(clause.Choice(clause.Value(`""`), clause.Value(`''`)), "Empty()"),
				clause.Transform(clause.Value("."), "Any(1)"),
				clause.Transform(clause.Value(`\n`), `Value('\n')`),
				apply("Range(lower[1:-1], upper[1:-1])",
					cap("lower", clause.Reference("literal")),
					cap("_", clause.Sequence(spaces(), clause.Value("-"), spaces())),
					cap("upper", clause.Entail(clause.Reference("literal"))),
				),
				apply("Value(literal[1:-1])", cap("literal", clause.Reference("literal"))),
				apply("Reference(name)", cap("name", clause.Reference("identifier"))),
			),
		),
		clause.Rule("prefix",
			clause.Choice(
				apply("Not(expr)", cap("_", clause.Value("!")), cap("expr", clause.Entail(clause.Reference("prefix")))),
				clause.Sequence(clause.Value("("), spaces(), clause.Entail(clause.Sequence(clause.Reference("expr"), spaces(), clause.Value(")")))),
				apply("Choice(expr, Empty())",
					cap("expr", clause.Sequence(clause.Value("["), spaces(), clause.Entail(clause.Sequence(clause.Reference("expr"), spaces(), clause.Value("]"))))),
				),
				clause.Reference("atom"),
			),
		),
		clause.Rule("repeat",
			clause.Choice(
				apply("Repeat(expr)", cap("expr", clause.Reference("prefix")), cap("_", clause.Value("+"))),
				apply("Choice(Repeat(expr), Empty())", cap("expr", clause.Reference("prefix")), cap("_", clause.Value("*"))),
				clause.Reference("prefix"),
			),
		),
		clause.Rule("capture",
			clause.Choice(
				apply("Capture(expr, name, variadic)",
					cap("variadic", clause.Choice(clause.Transform(clause.Value("*"), "True"), clause.Transform(clause.Empty(), "False"))),
					cap("name", clause.Reference("identifier")),
					cap("_", clause.Value("=")),
					cap("expr", clause.Entail(clause.Reference("repeat"))),
				),
				clause.Reference("repeat"),
			),
		),
		clause.Rule("sequence",
			clause.Choice(
				apply("Sequence(head, tail)", cap("head", clause.Reference("sequence")), cap("_", spaces()), cap("tail", clause.Reference("capture"))),
				apply("Sequence(head, Entail(tail))",
					cap("head", clause.Reference("sequence")),
					cap("_", clause.Sequence(spaces(), clause.Value("~"), spaces())),
					cap("tail", clause.Entail(clause.Reference("sequence"))),
				),
				apply("Entail(seq)", cap("seq", clause.Sequence(clause.Value("~"), spaces(), clause.Entail(clause.Reference("sequence"))))),
				clause.Reference("capture"),
			),
		),
		clause.Rule("choice",
			clause.Choice(
				apply("Choice(first, otherwise)",
					cap("first", clause.Reference("choice")),
					cap("_", clause.Sequence(spaces(), clause.Value("|"), spaces())),
					cap("otherwise", clause.Entail(clause.Reference("sequence"))),
				),
				clause.Reference("sequence"),
			),
		),
		clause.Rule("expr", clause.Reference("choice")),
	}

	g, err := grammar.New("top", rules...)
	if err != nil {
		// SeedGrammar is fixed, hand-authored input; a validation error here
		// is a programming mistake in this file, not a runtime condition.
		panic("metaparser: seed grammar malformed: " + err.Error())
	}
	return g
}
