// Package bootstrap grows a full grammar from the minimal seed grammar
// package metaparser hand-builds, by repeatedly parsing a richer
// description of the ".bpeg" dialect with the current generation, until
// two successive generations are structurally equal. This mirrors
// bootpeg's own boot-from-a-minimal-parser strategy: the seed grammar only
// needs to be powerful enough to read a grammar description that is, in
// turn, powerful enough to describe itself.
package bootstrap

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kip-lang/kip/errs"
	"github.com/kip-lang/kip/grammar"
	"github.com/kip-lang/kip/metaparser"
)

// MaxIterations bounds the fixed-point search; a well-formed self
// description converges in two or three iterations in practice (one to
// read itself with the seed's limited syntax, one or two more to read
// itself with syntax the previous generation just gained).
const MaxIterations = 8

// Iterate grows generations of a Grammar by repeatedly parsing
// description (a .bpeg source that describes the dialect's own grammar,
// including whatever richer syntax the seed grammar cannot itself parse)
// with the current generation, starting from metaparser.SeedGrammar(),
// until EqualTo reports convergence or the iteration budget runs out.
func Iterate(ctx context.Context, description string, entryName string) (*grammar.Grammar, error) {
	gen := metaparser.SeedGrammar()
	log := logrus.WithField("component", "bootstrap")

	for i := 0; i < MaxIterations; i++ {
		next, err := metaparser.ParseBPeg(ctx, gen, description, entryName)
		if err != nil {
			return nil, errs.Wrapf(err, "bootstrap iteration %d", i)
		}
		log.WithFields(logrus.Fields{"iteration": i, "rules": len(next.RuleNames())}).Debug("bootstrap: generation parsed")
		if gen.EqualTo(next) {
			log.WithField("iterations", i+1).Info("bootstrap: converged")
			return next, nil
		}
		gen = next
	}
	return nil, errs.Wrapf(errs.ErrBootstrapDivergence, "no fixed point within %d iterations", MaxIterations)
}
