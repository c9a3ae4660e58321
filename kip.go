// Package kip is the toolkit's small external surface: build a Grammar
// from a canonical-dialect source, parse input against it, and evaluate
// the resulting Match with a chosen action.Host. Everything else — the
// clause IR, the engine, the two grammar dialects, the bootstrap loop — is
// reachable directly for callers that need more control than this facade
// offers.
package kip

import (
	"context"

	"github.com/kip-lang/kip/action"
	"github.com/kip-lang/kip/engine"
	"github.com/kip-lang/kip/grammar"
	"github.com/kip-lang/kip/match"
	"github.com/kip-lang/kip/metaparser"
)

// Grammar wraps a frozen grammar.Grammar with the source text it was read
// from, mainly so error messages and bootstrap tooling can quote it back.
type Grammar struct {
	inner  *grammar.Grammar
	Source string
}

// Compile reads a canonical-dialect ("name <- expr") source into a Grammar.
func Compile(source string) (*Grammar, error) {
	g, err := metaparser.ParseCanonical(source)
	if err != nil {
		return nil, err
	}
	return &Grammar{inner: g, Source: source}, nil
}

// CompileBPeg reads a ".bpeg" dialect source with reader (see package
// bootstrap for how to obtain one beyond metaparser.SeedGrammar) into a
// Grammar.
func CompileBPeg(ctx context.Context, reader *grammar.Grammar, source, entryName string) (*Grammar, error) {
	g, err := metaparser.ParseBPeg(ctx, reader, source, entryName)
	if err != nil {
		return nil, err
	}
	return &Grammar{inner: g, Source: source}, nil
}

// Inner exposes the underlying grammar.Grammar for callers that need
// package engine or package grammar directly (e.g. LeftRecursive queries,
// diagnostics, or driving bootstrap).
func (g *Grammar) Inner() *grammar.Grammar { return g.inner }

// Parse matches input against g and returns the raw structural Match tree,
// without resolving any captures or actions.
func (g *Grammar) Parse(ctx context.Context, input string) (match.Match, error) {
	return engine.Parse(ctx, g.inner, input, 0)
}

// Eval parses input against g and evaluates the resulting Match with host,
// returning the top-level action result exactly as action.Run does.
func (g *Grammar) Eval(ctx context.Context, input string, host action.Host) (any, error) {
	m, err := g.Parse(ctx, input)
	if err != nil {
		return nil, err
	}
	return action.Run(m, input, host)
}
