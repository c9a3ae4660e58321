package clause

import (
	"fmt"
	"strconv"
	"strings"
)

// precedence mirrors bootpeg's bpeg unparser: higher binds tighter. Clauses
// with lower precedence than their parent are wrapped in parentheses when
// rendered as a child.
var precedence = map[Kind]int{
	KindValue:     4,
	KindRange:     4,
	KindAny:       4,
	KindEmpty:     4,
	KindReference: 4,
	KindNot:       3,
	KindAnd:       3,
	KindCapture:   3,
	KindRepeat:    2,
	KindSequence:  1,
	KindEntail:    1,
	KindChoice:    0,
	KindTransform: 0,
}

func wrapped(child, parent Clause) string {
	if precedence[child.Kind] < precedence[parent.Kind] {
		return "(" + Render(child) + ")"
	}
	return Render(child)
}

// Render produces the canonical PEG dialect textual form of a clause body
// (everything to the right of `name <-`; a Rule renders as the whole
// `name <- body` line). Arena uses it to build its deduplication keys.
func Render(c Clause) string {
	switch c.Kind {
	case KindEmpty:
		return `""`
	case KindAny:
		return strings.Repeat(".", c.N)
	case KindValue:
		return strconv.Quote(c.S)
	case KindRange:
		return fmt.Sprintf("[%s-%s]", c.Lo, c.Hi)
	case KindReference:
		return c.Name
	case KindSequence:
		parts := make([]string, len(c.Children))
		for i, child := range c.Children {
			parts[i] = wrapped(child, c)
		}
		return strings.Join(parts, " ")
	case KindChoice:
		parts := make([]string, len(c.Children))
		for i, child := range c.Children {
			parts[i] = wrapped(child, c)
		}
		return strings.Join(parts, " / ")
	case KindRepeat:
		return wrapped(c.Sub(), c) + "+"
	case KindNot:
		return "!" + wrapped(c.Sub(), c)
	case KindAnd:
		return "&" + wrapped(c.Sub(), c)
	case KindEntail:
		return "~ " + wrapped(c.Sub(), c)
	case KindCapture:
		prefix := ""
		if c.Variadic {
			prefix = "*"
		}
		return fmt.Sprintf("%s%s=%s", prefix, c.Name, wrapped(c.Sub(), c))
	case KindTransform:
		return fmt.Sprintf("%s { %s }", wrapped(c.Sub(), c), string(c.Action))
	case KindRule:
		return fmt.Sprintf("%s <- %s", c.Name, Render(c.Sub()))
	default:
		return fmt.Sprintf("<unrenderable %s>", c.Kind)
	}
}
