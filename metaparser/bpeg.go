package metaparser

import (
	"context"

	"github.com/kip-lang/kip/action"
	"github.com/kip-lang/kip/engine"
	"github.com/kip-lang/kip/errs"
	"github.com/kip-lang/kip/grammar"
)

// ParseBPeg reads a ".bpeg" dialect source with reader (typically
// SeedGrammar(), or a later bootstrap generation) and freezes the
// resulting rules into a Grammar entered at entryName. entryName defaults
// to the first rule's own name when empty, matching the dialect's
// convention of listing the entry rule first.
func ParseBPeg(ctx context.Context, reader *grammar.Grammar, source string, entryName string) (*grammar.Grammar, error) {
	m, err := engine.Parse(ctx, reader, source, 0)
	if err != nil {
		return nil, err
	}
	value, err := action.Run(m, source, ClauseHost{})
	if err != nil {
		return nil, err
	}
	raw, ok := value.(RawGrammar)
	if !ok {
		return nil, errs.Wrapf(errs.ErrGrammarMalformed, "bpeg source did not evaluate to a grammar (got %T)", value)
	}
	if len(raw.Rules) == 0 {
		return nil, errs.Wrap(errs.ErrGrammarMalformed, "bpeg source defined no rules")
	}
	if entryName == "" {
		entryName = raw.Rules[0].Name
	}
	return grammar.New(entryName, raw.Rules...)
}
