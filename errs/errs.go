// Package errs defines the error taxonomy shared by every core package:
// grammar construction, parsing, action evaluation, and bootstrap. It
// imports no other kip package, so every other package (which would
// otherwise form an import cycle through a shared root package) can import
// it directly.
package errs

import "github.com/pkg/errors"

// Sentinel causes, matched with errors.Is after a github.com/pkg/errors
// Wrap/Wrapf call attaches positional or rule-name context.
var (
	// ErrMatchFailed means the parse did not consume the entire input, or
	// some clause failed with no committed alternative to recover into.
	ErrMatchFailed = errors.New("kip: match failed")

	// ErrCommittedFailure means an Entail clause succeeded and a later
	// clause in the same context failed; no sibling Choice branch is
	// attempted after this.
	ErrCommittedFailure = errors.New("kip: committed failure")

	// ErrUnknownRule means a Reference clause named a rule absent from its
	// Grammar.
	ErrUnknownRule = errors.New("kip: unknown rule")

	// ErrCaptureArity means a non-variadic Capture's child produced more
	// than one action result (zero results bind the matched text instead),
	// or a whole parse produced more than one top-level result.
	ErrCaptureArity = errors.New("kip: capture arity mismatch")

	// ErrAction wraps a failure raised by a user action during evaluation.
	ErrAction = errors.New("kip: action error")

	// ErrBootstrapDivergence means the fixed-point loop failed to converge
	// within its iteration budget.
	ErrBootstrapDivergence = errors.New("kip: bootstrap did not converge")

	// ErrGrammarMalformed means Grammar construction found a duplicate
	// rule name or an unresolved reference before any parse ran.
	ErrGrammarMalformed = errors.New("kip: grammar malformed")
)

// Wrap annotates cause with msg using github.com/pkg/errors, preserving
// errors.Is/As compatibility with the sentinels above.
func Wrap(cause error, msg string) error {
	return errors.Wrap(cause, msg)
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(cause error, format string, args ...any) error {
	return errors.Wrapf(cause, format, args...)
}
