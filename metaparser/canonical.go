package metaparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/grammar"
)

// tokenDefinition pairs a token name with the regexp that recognizes it at
// the current lex position, tried in listed order — the same shape as the
// lexer this dialect's tooling is grounded on.
type tokenDefinition struct {
	name    string
	pattern *regexp.Regexp
}

func anchored(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + pattern + `)`)
}

var canonicalTokens = []tokenDefinition{
	{"Whitespace", anchored(`[ \t]+`)},
	{"Newline", anchored(`\r?\n`)},
	{"LineComment", anchored(`#[^\n]*`)},
	{"Arrow", anchored(`<-`)},
	{"Slash", anchored(`/`)},
	{"Amp", anchored(`&`)},
	{"Bang", anchored(`!`)},
	{"Tilde", anchored(`~`)},
	{"Question", anchored(`\?`)},
	{"Star", anchored(`\*`)},
	{"Plus", anchored(`\+`)},
	{"Equals", anchored(`=`)},
	{"Dot", anchored(`\.`)},
	{"LParen", anchored(`\(`)},
	{"RParen", anchored(`\)`)},
	{"LBrace", anchored(`\{`)},
	{"RBrace", anchored(`\}`)},
	{"LBracket", anchored(`\[`)},
	{"RBracket", anchored(`\]`)},
	{"Dash", anchored(`-`)},
	{"String", anchored(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)},
	{"Identifier", anchored(`[A-Za-z_][A-Za-z0-9_]*`)},
	// Char is a fallback single-character literal, tried last: it lets a
	// bare character class bound like "0" in "[0-9]" lex as an atom
	// without needing to be quoted.
	{"Char", anchored(`.`)},
}

type token struct {
	name     string
	contents string
}

func (t token) is(names ...string) bool {
	for _, n := range names {
		if t.name == n {
			return true
		}
	}
	return false
}

// lex tokenizes text against canonicalTokens in order, discarding
// whitespace, comments, and newlines (rule bodies are one line each in
// this dialect, but blank lines and trailing comments are insignificant).
func lex(text string) ([]token, error) {
	var tokens []token
	for len(text) > 0 {
		matched := false
		for _, def := range canonicalTokens {
			loc := def.pattern.FindStringIndex(text)
			if loc == nil || loc[0] != 0 {
				continue
			}
			matched = true
			contents := text[:loc[1]]
			text = text[loc[1]:]
			if def.name != "Whitespace" && def.name != "LineComment" && def.name != "Newline" {
				tokens = append(tokens, token{name: def.name, contents: contents})
			}
			break
		}
		if !matched {
			return nil, fmt.Errorf("metaparser: no token matches %q", text[:min(len(text), 20)])
		}
	}
	return tokens, nil
}

// canonicalParser is a recursive-descent reader over a flat token stream,
// grounded on the peekToken/popToken shape used to read parsley's own
// grammar files.
type canonicalParser struct {
	tokens []token
}

func (p *canonicalParser) atEOF() bool { return len(p.tokens) == 0 }

func (p *canonicalParser) peek() token {
	if p.atEOF() {
		return token{name: "EOF"}
	}
	return p.tokens[0]
}

func (p *canonicalParser) pop() token {
	t := p.tokens[0]
	p.tokens = p.tokens[1:]
	return t
}

func (p *canonicalParser) expect(name string) (token, error) {
	if p.peek().name != name {
		return token{}, fmt.Errorf("metaparser: expected %s, found %s %q", name, p.peek().name, p.peek().contents)
	}
	return p.pop(), nil
}

// ParseCanonical reads the arrow/slash PEG dialect — one "name <- expr"
// rule per line — into a Grammar entered at the first rule's name.
func ParseCanonical(source string) (*grammar.Grammar, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &canonicalParser{tokens: tokens}

	var rules []clause.Clause
	for !p.atEOF() {
		r, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("metaparser: canonical source defined no rules")
	}
	return grammar.New(rules[0].Name, rules...)
}

func (p *canonicalParser) parseRule() (clause.Clause, error) {
	name, err := p.expect("Identifier")
	if err != nil {
		return clause.Clause{}, err
	}
	if _, err := p.expect("Arrow"); err != nil {
		return clause.Clause{}, err
	}
	body, err := p.parseChoice()
	if err != nil {
		return clause.Clause{}, err
	}
	return clause.Rule(name.contents, body), nil
}

func (p *canonicalParser) parseChoice() (clause.Clause, error) {
	first, err := p.parseSequence()
	if err != nil {
		return clause.Clause{}, err
	}
	if first, err = maybeTransform(p, first); err != nil {
		return clause.Clause{}, err
	}
	alts := []clause.Clause{first}
	for p.peek().is("Slash") {
		p.pop()
		next, err := p.parseSequence()
		if err != nil {
			return clause.Clause{}, err
		}
		if next, err = maybeTransform(p, next); err != nil {
			return clause.Clause{}, err
		}
		alts = append(alts, next)
	}
	return clause.Choice(alts...), nil
}

func (p *canonicalParser) parseSequence() (clause.Clause, error) {
	var parts []clause.Clause
	for p.startsTerm() {
		if p.peek().is("Tilde") {
			p.pop()
			rest, err := p.parseSequence()
			if err != nil {
				return clause.Clause{}, err
			}
			parts = append(parts, clause.Entail(rest))
			break
		}
		term, err := p.parseCapture()
		if err != nil {
			return clause.Clause{}, err
		}
		parts = append(parts, term)
	}
	if len(parts) == 0 {
		return clause.Clause{}, fmt.Errorf("metaparser: expected a sequence, found %s %q", p.peek().name, p.peek().contents)
	}
	return clause.Sequence(parts...), nil
}

func (p *canonicalParser) startsTerm() bool {
	// An identifier followed by "<-" is the next rule's head, not a term.
	if p.peek().is("Identifier") && len(p.tokens) > 1 && p.tokens[1].is("Arrow") {
		return false
	}
	return p.peek().is("Identifier", "String", "Dot", "LParen", "LBracket", "Bang", "Amp", "Tilde", "Char")
}

func (p *canonicalParser) parseCapture() (clause.Clause, error) {
	if p.peek().is("Identifier") && looksLikeCapture(p.tokens) {
		name := p.pop()
		if _, err := p.expect("Equals"); err != nil {
			return clause.Clause{}, err
		}
		body, err := p.parseSuffix()
		if err != nil {
			return clause.Clause{}, err
		}
		return clause.Capture(body, name.contents, false), nil
	}
	if p.peek().is("Star") && len(p.tokens) > 2 && p.tokens[1].is("Identifier") && p.tokens[2].is("Equals") {
		p.pop()
		name := p.pop()
		p.pop() // Equals
		body, err := p.parseSuffix()
		if err != nil {
			return clause.Clause{}, err
		}
		return clause.Capture(body, name.contents, true), nil
	}
	return p.parseSuffix()
}

// looksLikeCapture reports whether the upcoming Identifier is immediately
// followed by "=" (a capture binding) rather than being an atom reference.
func looksLikeCapture(tokens []token) bool {
	return len(tokens) > 1 && tokens[1].is("Equals")
}

func (p *canonicalParser) parseSuffix() (clause.Clause, error) {
	prefix, err := p.parsePrefix()
	if err != nil {
		return clause.Clause{}, err
	}
	for {
		switch {
		case p.peek().is("Star"):
			p.pop()
			prefix = clause.ZeroOrMore(prefix)
		case p.peek().is("Plus"):
			p.pop()
			prefix = clause.Repeat(prefix)
		case p.peek().is("Question"):
			p.pop()
			prefix = clause.Optional(prefix)
		default:
			return prefix, nil
		}
	}
}

func maybeTransform(p *canonicalParser, c clause.Clause) (clause.Clause, error) {
	if !p.peek().is("LBrace") {
		return c, nil
	}
	act, err := p.parseAction()
	if err != nil {
		return clause.Clause{}, err
	}
	return clause.Transform(c, clause.Token(act)), nil
}

func (p *canonicalParser) parsePrefix() (clause.Clause, error) {
	switch {
	case p.peek().is("Bang"):
		p.pop()
		sub, err := p.parsePrefix()
		if err != nil {
			return clause.Clause{}, err
		}
		return clause.Not(sub), nil
	case p.peek().is("Amp"):
		p.pop()
		sub, err := p.parsePrefix()
		if err != nil {
			return clause.Clause{}, err
		}
		return clause.And(sub), nil
	default:
		return p.parseAtom()
	}
}

func (p *canonicalParser) parseAtom() (clause.Clause, error) {
	switch {
	case p.peek().is("Dot"):
		p.pop()
		return clause.Any(1), nil
	case p.peek().is("String"):
		t := p.pop()
		s, err := unquoteCanonical(t.contents)
		if err != nil {
			return clause.Clause{}, err
		}
		return clause.Value(s), nil
	case p.peek().is("LBracket"):
		return p.parseRange()
	case p.peek().is("LParen"):
		p.pop()
		inner, err := p.parseChoice()
		if err != nil {
			return clause.Clause{}, err
		}
		if _, err := p.expect("RParen"); err != nil {
			return clause.Clause{}, err
		}
		return inner, nil
	case p.peek().is("Identifier"):
		t := p.pop()
		return clause.Reference(t.contents), nil
	case p.peek().is("Char"):
		t := p.pop()
		return clause.Value(t.contents), nil
	default:
		return clause.Clause{}, fmt.Errorf("metaparser: unexpected token %s %q", p.peek().name, p.peek().contents)
	}
}

// parseRange reads "[lo-hi]" as a Range, or "[expr]" as an optional expr
// (Choice(expr, Empty())) when no "-" is present. No "::" form is
// recognised.
func (p *canonicalParser) parseRange() (clause.Clause, error) {
	if _, err := p.expect("LBracket"); err != nil {
		return clause.Clause{}, err
	}
	first, err := p.parseChoice()
	if err != nil {
		return clause.Clause{}, err
	}
	if p.peek().is("Dash") {
		p.pop()
		second, err := p.parseChoice()
		if err != nil {
			return clause.Clause{}, err
		}
		if _, err := p.expect("RBracket"); err != nil {
			return clause.Clause{}, err
		}
		return clause.Range(soleLiteral(first), soleLiteral(second)), nil
	}
	if _, err := p.expect("RBracket"); err != nil {
		return clause.Clause{}, err
	}
	return clause.Optional(first), nil
}

// soleLiteral extracts the literal string a bracket endpoint clause names,
// for the "[a-z]" shorthand where each side is written as a bare literal.
func soleLiteral(c clause.Clause) string {
	switch c.Kind {
	case clause.KindValue:
		return c.S
	case clause.KindReference:
		// A bare letter such as the "a" in "[a-z]" lexes as an Identifier.
		return c.Name
	}
	return ""
}

func (p *canonicalParser) parseAction() (string, error) {
	if _, err := p.expect("LBrace"); err != nil {
		return "", err
	}
	var parts []string
	depth := 1
	for depth > 0 {
		if p.atEOF() {
			return "", fmt.Errorf("metaparser: unterminated action, missing }")
		}
		t := p.pop()
		switch t.name {
		case "LBrace":
			depth++
			parts = append(parts, t.contents)
		case "RBrace":
			depth--
			if depth > 0 {
				parts = append(parts, t.contents)
			}
		default:
			parts = append(parts, t.contents)
		}
	}
	return strings.Join(parts, " "), nil
}

func unquoteCanonical(s string) (string, error) {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = `"` + strings.ReplaceAll(s[1:len(s)-1], `"`, `\"`) + `"`
	}
	return strconv.Unquote(s)
}
