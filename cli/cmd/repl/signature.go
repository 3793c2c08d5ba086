package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/nib/lang"
)

// builtinParams names the parameters of builtins for signature hints.
// Operators not listed take two operands.
var builtinParams = map[string][]string{
	"not":  {"x"},
	"puts": {"value"},
	"len":  {"v"},
	"at":   {"collection", "key"},
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the application the cursor is in.
type functionCall struct {
	name     string // callee word
	argIndex int    // index of the argument being typed (0-based)
	inCall   bool   // true once the callee is followed by a blank
}

// detectFunctionCall finds the application being typed at cursor. The
// application starts after the innermost unclosed "(" or the last operator
// or "=" outside parentheses, and its first term must be a word.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))
	text := input[:cursor]

	start, depth := 0, 0

	for i := len(text) - 1; i >= 0 && start == 0; i-- {
		switch c := text[i]; {
		case c == ')':
			depth++
		case c == '(':
			if depth == 0 {
				start = i + 1
			} else {
				depth--
			}
		case depth == 0 && !isWordByte(c) && c != ' ' && c != '\t':
			start = i + 1
		}
	}

	terms, trailing := splitTerms(text[start:])
	if len(terms) == 0 || !isWordName(terms[0]) {
		return functionCall{}
	}

	args := len(terms) - 1
	if !trailing {
		// still typing the last term
		args--
	}

	if args < 0 {
		return functionCall{}
	}

	return functionCall{name: terms[0], argIndex: args, inCall: true}
}

// splitTerms splits s into blank-separated terms, keeping parenthesized
// groups whole. trailing reports whether s ends in a blank.
func splitTerms(s string) (terms []string, trailing bool) {
	depth, begin := 0, -1

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c == '(':
			if depth == 0 && begin < 0 {
				begin = i
			}

			depth++
		case c == ')':
			depth--
		case (c == ' ' || c == '\t') && depth == 0:
			if begin >= 0 {
				terms = append(terms, s[begin:i])
				begin = -1
			}

			continue
		default:
			if begin < 0 {
				begin = i
			}
		}
	}

	if begin >= 0 {
		terms = append(terms, s[begin:])
	}

	trailing = len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') && depth == 0

	return terms, trailing
}

// getSignature returns the parameter names of the function bound to name in
// scope.
func getSignature(scope *lang.Scope, name string) (params []string, ok bool) {
	value, found := scope.Lookup(name)
	if !found {
		return nil, false
	}

	switch fn := value.(type) {
	case *lang.Closure:
		return fn.Params(), true

	case *lang.Builtin:
		if params, ok := builtinParams[fn.Name]; ok {
			return params, true
		}

		return []string{"lhs", "rhs"}[:min(fn.Arity, 2)], true

	default:
		return nil, false
	}
}

// renderSignatureHint renders "name p1 p2" with the parameter at current
// highlighted. Arguments past the last parameter highlight nothing.
func renderSignatureHint(name string, params []string, current int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))

	if len(params) == 0 {
		b.WriteString(signatureStyle.Render(` \`))

		return b.String()
	}

	for i, param := range params {
		b.WriteString(signatureStyle.Render(" "))

		if i == current {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	return b.String()
}
