package lang

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Sexp returns the S-expression form of n, for example
// `(apply (word "+") (value 1) (value 12))`.
func Sexp(n Node) string {
	var sb strings.Builder

	writeSexp(&sb, n)

	return sb.String()
}

func writeSexp(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Value:
		sb.WriteString("(value ")
		sb.WriteString(formatNested(n.Literal))
		sb.WriteByte(')')

	case *Word:
		sb.WriteString("(word ")
		sb.WriteString(strconv.Quote(n.Name))
		sb.WriteByte(')')

	case *Apply:
		sb.WriteString("(apply ")
		writeSexp(sb, n.Callee)
		writeSexpList(sb, n.Args)
		sb.WriteByte(')')

	case *Assign:
		sb.WriteString("(assign ")
		writeSexp(sb, n.Value)

		for _, t := range n.Targets {
			sb.WriteByte(' ')
			sb.WriteString(strconv.Quote(t))
		}

		sb.WriteByte(')')

	case *Def:
		sb.WriteString("(def (")
		writeQuoted(sb, n.Params)
		sb.WriteByte(')')
		writeSexpList(sb, n.Body)
		sb.WriteByte(')')

	case *Lang:
		sb.WriteString("(lang ")
		sb.WriteString(strconv.Quote(n.Name))

		if len(n.Params) > 0 {
			sb.WriteByte(' ')
			writeQuoted(sb, n.Params)
		}

		sb.WriteByte(')')

	case *Sequence:
		sb.WriteString("(sequence")
		writeSexpList(sb, n.Nodes)
		sb.WriteByte(')')

	case *Array:
		sb.WriteString("(array")
		writeSexpList(sb, n.Elems)
		sb.WriteByte(')')

	case *Hash:
		sb.WriteString("(hash")

		for i, k := range n.Keys {
			sb.WriteString(" (")
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(' ')
			writeSexp(sb, n.Values[i])
			sb.WriteByte(')')
		}

		sb.WriteByte(')')

	case *macro:
		sb.WriteString("(macro ")
		sb.WriteString(strconv.Quote(n.name))
		sb.WriteByte(')')

	default:
		sb.WriteString("()")
	}
}

func writeSexpList(sb *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		sb.WriteByte(' ')
		writeSexp(sb, n)
	}
}

func writeQuoted(sb *strings.Builder, names []string) {
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(strconv.Quote(name))
	}
}

// Print writes the S-expression form of every statement, one per line.
func (p *Program) Print(w io.Writer) error {
	for _, n := range p.Nodes {
		if _, err := io.WriteString(w, Sexp(n)+"\n"); err != nil {
			return err
		}
	}

	return nil
}

// Format writes p as source text that parses back to an equivalent program.
//
// Some trees built by hand have no source form, such as a call of a string
// or a negative integer literal; these yield [ErrUnformattable].
func (p *Program) Format(w io.Writer) error {
	lines, err := formatStatements(p.Nodes)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}

	return nil
}

func formatStatements(nodes []Node) ([]string, error) {
	var lines []string

	for _, n := range nodes {
		var f lineFormatter

		head, err := f.statement(n)
		if err != nil {
			return nil, err
		}

		lines = append(lines, head)
		lines = append(lines, f.block...)
	}

	return lines, nil
}

// lineFormatter renders one source line and the block of its macro. A line
// holds at most one macro.
type lineFormatter struct {
	block    []string
	hasMacro bool
}

func unformattable(n Node, reason string) *Error {
	return ErrUnformattable.
		With(slog.String("node", Sexp(n)), slog.String("reason", reason))
}

func (f *lineFormatter) statement(n Node) (string, error) {
	switch n := n.(type) {
	case *Assign:
		return f.assign(n)

	case *Def:
		// A bare statement `\ f a` names a function, so two or more
		// parameters need parentheses.
		if len(n.Params) > 1 {
			s, err := f.macro(n)
			if err != nil {
				return "", err
			}

			return "(" + s + ")", nil
		}
	}

	return f.expr(n)
}

// expr renders n at assignment level.
func (f *lineFormatter) expr(n Node) (string, error) {
	switch n := n.(type) {
	case *Assign:
		return f.assign(n)

	case *Apply:
		return f.apply(n)

	case *Def, *Array, *Hash:
		return f.macro(n)

	case *Value:
		if _, ok := n.Literal.(string); ok {
			return f.macro(n)
		}
	}

	return f.term(n)
}

func (f *lineFormatter) assign(n *Assign) (string, error) {
	parts := make([]string, 0, len(n.Targets)+1)

	for _, t := range n.Targets {
		if !validName(t) {
			return "", unformattable(n, "invalid assignment target")
		}

		parts = append(parts, t)
	}

	var (
		value string
		err   error
	)

	if inner, ok := n.Value.(*Assign); ok {
		value, err = f.assign(inner)
		value = "(" + value + ")"
	} else {
		value, err = f.expr(n.Value)
	}

	if err != nil {
		return "", err
	}

	return strings.Join(append(parts, value), " = "), nil
}

func (f *lineFormatter) apply(n *Apply) (string, error) {
	if len(n.Args) == 0 {
		return f.call(n)
	}

	if op, lhs, rhs, ok := binary(n); ok {
		tier := operatorTier(op)

		l, err := f.operand(lhs, func(t int) bool { return t <= tier })
		if err != nil {
			return "", err
		}

		r, err := f.operand(rhs, func(t int) bool { return t < tier })
		if err != nil {
			return "", err
		}

		return l + " " + op + " " + r, nil
	}

	parts := make([]string, 0, len(n.Args)+1)

	for _, t := range append([]Node{n.Callee}, n.Args...) {
		s, err := f.term(t)
		if err != nil {
			return "", err
		}

		parts = append(parts, s)
	}

	return strings.Join(parts, " "), nil
}

// operand renders an operand of a binary operator. bare reports whether a
// binary operand of the given tier can appear without parentheses.
func (f *lineFormatter) operand(n Node, bare func(tier int) bool) (string, error) {
	switch n := n.(type) {
	case *Apply:
		if op, _, _, ok := binary(n); ok && !bare(operatorTier(op)) {
			return f.parens(n)
		}

		return f.apply(n)

	case *Assign:
		return f.parens(n)

	case *Def:
		if len(n.Params) > 0 {
			return f.parens(n)
		}
	}

	return f.expr(n)
}

// term renders n as a single term.
func (f *lineFormatter) term(n Node) (string, error) {
	switch n := n.(type) {
	case *Word:
		if !validName(n.Name) {
			return "", unformattable(n, "word is not an identifier")
		}

		return n.Name, nil

	case *Value:
		if _, ok := n.Literal.(string); ok {
			return f.parens(n)
		}

		return literal(n)

	case *Array, *Hash:
		return f.parens(n)

	case *Apply:
		if len(n.Args) == 0 {
			return f.call(n)
		}

		return f.parens(n)

	case *Assign:
		return f.parens(n)

	case *Def:
		if len(n.Params) > 0 {
			return f.parens(n)
		}
	}

	return "", unformattable(n, "not expressible as a term")
}

// call renders a zero-argument application as a parenthesized operandless
// node.
func (f *lineFormatter) call(n *Apply) (string, error) {
	var (
		inner string
		err   error
	)

	switch c := n.Callee.(type) {
	case *Word:
		inner, err = f.term(c)

	case *Value:
		inner, err = literal(c)

	case *Def:
		if len(c.Params) > 0 {
			return "", unformattable(n, "callee has operands")
		}

		inner, err = f.macro(c)

	case *Apply:
		if len(c.Args) > 0 {
			return "", unformattable(n, "callee has operands")
		}

		inner, err = f.call(c)

	default:
		return "", unformattable(n, "callee has operands")
	}

	if err != nil {
		return "", err
	}

	return "(" + inner + ")", nil
}

func (f *lineFormatter) parens(n Node) (string, error) {
	s, err := f.expr(n)
	if err != nil {
		return "", err
	}

	return "(" + s + ")", nil
}

// macro renders the macro token introducing n and records its block.
func (f *lineFormatter) macro(n Node) (string, error) {
	if f.hasMacro {
		return "", unformattable(n, "more than one block on a line")
	}

	var (
		head  string
		block []string
		err   error
	)

	switch n := n.(type) {
	case *Def:
		head = strings.TrimSpace(langFunc + " " + strings.Join(n.Params, " "))
		block, err = defBlock(n)

	case *Value:
		head = "%" + langString
		block, err = stringBlock(n)

	case *Array:
		head = "%" + langArray
		block, err = arrayBlock(n)

	case *Hash:
		head = "%" + langHash
		block, err = hashBlock(n)

	default:
		err = unformattable(n, "not a macro")
	}

	if err != nil {
		return "", err
	}

	if len(block) == 0 {
		block = []string{""}
	}

	f.hasMacro = true
	f.block = block

	return head, nil
}

func defBlock(n *Def) ([]string, error) {
	for _, p := range n.Params {
		if !validName(p) {
			return nil, unformattable(n, "parameter is not an identifier")
		}
	}

	if len(n.Body) == 0 {
		return nil, unformattable(n, "empty function body")
	}

	lines, err := formatStatements(n.Body)
	if err != nil {
		return nil, err
	}

	// A trailing blank line would be dropped from the enclosing block.
	if isBlank(lines[len(lines)-1]) {
		return nil, unformattable(n, "body ends with an empty block")
	}

	return indent(lines), nil
}

func stringBlock(n *Value) ([]string, error) {
	s, _ := n.Literal.(string)
	if s == "" {
		return nil, nil
	}

	lines := strings.Split(s, "\n")
	if strings.HasSuffix(s, "\r") || isBlank(lines[len(lines)-1]) {
		return nil, unformattable(n, "string ends with a blank line")
	}

	return indent(lines), nil
}

func arrayBlock(n *Array) ([]string, error) {
	var f lineFormatter

	lines := make([]string, 0, len(n.Elems))

	for _, elem := range n.Elems {
		s, err := f.term(elem)
		if err != nil {
			return nil, err
		}

		lines = append(lines, s)
	}

	if f.hasMacro {
		return nil, unformattable(n, "block inside array")
	}

	return indent(lines), nil
}

func hashBlock(n *Hash) ([]string, error) {
	lines := make([]string, 0, len(n.Keys))

	for i, key := range n.Keys {
		var f lineFormatter

		if !validName(key) {
			return nil, unformattable(n, "key is not an identifier")
		}

		s, err := f.expr(n.Values[i])
		if err != nil {
			return nil, err
		}

		if f.hasMacro {
			return nil, unformattable(n, "block inside hash")
		}

		lines = append(lines, key+": "+s)
	}

	return indent(lines), nil
}

func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l != "" {
			l = blockIndent + l
		}

		out[i] = l
	}

	return out
}

func literal(n *Value) (string, error) {
	switch v := n.Literal.(type) {
	case nil:
		return "nil", nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		if v < 0 {
			return "", unformattable(n, "negative integer")
		}

		return strconv.Itoa(v), nil
	}

	return "", unformattable(n, "not expressible as a term")
}

// validName reports whether s lexes as a single identifier.
func validName(s string) bool {
	if s == "" || !isWordStart(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return false
		}
	}

	switch s {
	case "true", "false", "nil":
		return false
	}

	return true
}

// operatorTier returns the index of op in the precedence ladder.
func operatorTier(op string) int {
	switch op {
	case "*", "/", "%":
		return 0
	case "+", "-":
		return 1
	case "&&":
		return 3
	case "||":
		return 4
	default:
		return 2
	}
}
