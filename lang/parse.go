package lang

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// Parse parses source text into a [Program].
//
// Every line is one statement. A line led by a macro (`\` or `%name`) takes
// the following lines indented by two spaces as its block.
func Parse(ctx context.Context, src string, opts ...Option) (*Program, error) {
	o := makeOptions(opts...)

	nodes, err := parseLines(ctx, o, splitLines(src))
	if err != nil {
		o.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.Int("source_bytes", len(src)),
		slog.Int("statement_count", len(nodes)),
	)

	return &Program{Nodes: nodes}, nil
}

// sourceLine is one line of input with its terminator still attached.
type sourceLine struct {
	text   string
	number int // 1-based line number in the original source
	indent int // columns of block indentation already stripped
}

func splitLines(src string) []sourceLine {
	if src == "" {
		return nil
	}

	texts := strings.SplitAfter(src, "\n")
	if texts[len(texts)-1] == "" {
		texts = texts[:len(texts)-1]
	}

	lines := make([]sourceLine, len(texts))
	for i, text := range texts {
		lines[i] = sourceLine{text: text, number: i + 1}
	}

	return lines
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// lineParser parses a single line. Its only state besides the cursor is the
// macro the line introduced, which is returned to the caller explicitly.
type lineParser struct {
	input   string
	pos     int
	line    sourceLine
	depth   int // parenthesis nesting
	pending *Lang
}

func newLineParser(l sourceLine) *lineParser {
	return &lineParser{
		input: strings.TrimRight(l.text, " \t\r\n"),
		line:  l,
	}
}

// parseLine parses one statement. The returned Lang, if any, is the macro
// the line introduced; it is also reachable from the returned node.
func parseLine(l sourceLine) (Node, *Lang, error) {
	p := newLineParser(l)
	p.blanks()

	node, err := p.assignment()
	if err != nil {
		return nil, nil, err
	}

	p.blanks()

	if !p.eof() {
		return nil, nil, p.unexpected()
	}

	return node, p.pending, nil
}

// assignment parses `=`-separated segments. Every segment but the last must
// be a bare word.
func (p *lineParser) assignment() (Node, error) {
	pos := p.position()

	first, err := p.binary(len(ladder) - 1)
	if err != nil {
		return nil, err
	}

	segments := []Node{first}

	for {
		mark := p.pos

		p.blanks()

		if !p.assignOperator() {
			p.pos = mark

			break
		}

		p.blanks()

		next, err := p.binary(len(ladder) - 1)
		if err != nil {
			return nil, err
		}

		segments = append(segments, next)
	}

	if len(segments) == 1 {
		return first, nil
	}

	last := len(segments) - 1
	targets := make([]string, last)

	for i, seg := range segments[:last] {
		w, ok := seg.(*Word)
		if !ok {
			return nil, ErrAssignTarget.WithPosition(seg.At()).
				With(slog.String("target", seg.Kind().String()))
		}

		targets[i] = w.Name
	}

	return &Assign{Value: segments[last], Targets: targets, Pos: pos}, nil
}

func (p *lineParser) assignOperator() bool {
	if p.peek() == '=' && p.peekAt(1) != '=' {
		p.pos++

		return true
	}

	return false
}

// operator recognizes one binary operator at the cursor.
type operator func(p *lineParser) (string, bool)

// ladder lists operator tiers from tightest to loosest binding.
var ladder = []operator{
	multiplicative,
	symbols("+", "-"),
	symbols("==", "!=", "<=", ">=", "<", ">"),
	symbols("&&"),
	symbols("||"),
}

// symbols matches the first listed operator found at the cursor, so longer
// operators must precede their prefixes.
func symbols(ops ...string) operator {
	return func(p *lineParser) (string, bool) {
		for _, op := range ops {
			if strings.HasPrefix(p.input[p.pos:], op) {
				p.pos += len(op)

				return op, true
			}
		}

		return "", false
	}
}

// multiplicative matches `*` and `/`, and `%` only when a blank follows;
// otherwise `%` introduces a macro.
func multiplicative(p *lineParser) (string, bool) {
	switch c := p.peek(); {
	case c == '*', c == '/':
		p.pos++

		return string(c), true
	case c == '%' && isBlankByte(p.peekAt(1)):
		p.pos++

		return "%", true
	}

	return "", false
}

// binary folds operands of tier around its operators, left-associatively.
func (p *lineParser) binary(tier int) (Node, error) {
	operand := func() (Node, error) {
		if tier == 0 {
			return p.run()
		}

		return p.binary(tier - 1)
	}

	lhs, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		mark := p.pos

		p.blanks()

		at := p.position()

		op, ok := ladder[tier](p)
		if !ok {
			p.pos = mark

			return lhs, nil
		}

		p.blanks()

		rhs, err := operand()
		if err != nil {
			return nil, err
		}

		lhs = &Apply{
			Callee: &Word{Name: op, Pos: at},
			Args:   []Node{lhs, rhs},
			Pos:    lhs.At(),
		}
	}
}

// run parses terms separated by blanks and folds them into an application,
// or into a macro when the first term is a macro token.
func (p *lineParser) run() (Node, error) {
	head, err := p.term()
	if err != nil {
		return nil, err
	}

	terms := []Node{head}

	for {
		mark := p.pos

		if p.blanks() == 0 || !p.startsTerm() {
			p.pos = mark

			break
		}

		next, err := p.term()
		if err != nil {
			return nil, err
		}

		terms = append(terms, next)
	}

	return p.fold(terms)
}

func (p *lineParser) fold(terms []Node) (Node, error) {
	if m, ok := terms[0].(*macro); ok {
		params := make([]string, 0, len(terms)-1)

		for _, t := range terms[1:] {
			w, ok := t.(*Word)
			if !ok {
				return nil, ErrInvalidDef.WithPosition(t.At()).
					With(slog.String("lang", m.name),
						slog.String("param", t.Kind().String()))
			}

			params = append(params, w.Name)
		}

		lang := &Lang{Name: m.name, Params: params, Pos: m.pos, nested: p.depth > 0}
		if p.pending != nil {
			return nil, ErrDuplicateLang.WithPosition(m.pos).
				With(slog.String("lang", p.pending.Name))
		}

		p.pending = lang

		return lang, nil
	}

	for _, t := range terms[1:] {
		if m, ok := t.(*macro); ok {
			return nil, ErrSyntax.WithPosition(m.pos).
				With(slog.String("reason", "macro must lead its term run"))
		}
	}

	if len(terms) == 1 {
		return terms[0], nil
	}

	return &Apply{Callee: terms[0], Args: terms[1:], Pos: terms[0].At()}, nil
}

// macro is a macro token. It never outlives [lineParser.fold].
type macro struct {
	name string
	pos  Position
}

func (*macro) Kind() Kind     { return KindLang }
func (m *macro) At() Position { return m.pos }

// term parses one atomic term: identifier, keyword literal, integer, macro
// token, or parenthesized expression.
func (p *lineParser) term() (Node, error) {
	pos := p.position()

	switch c := p.peek(); {
	case isWordStart(c):
		name := p.word()

		switch name {
		case "true":
			return &Value{Literal: true, Pos: pos}, nil
		case "false":
			return &Value{Literal: false, Pos: pos}, nil
		case "nil":
			return &Value{Literal: nil, Pos: pos}, nil
		}

		return &Word{Name: name, Pos: pos}, nil

	case isDigit(c):
		return p.integer()

	case c == '\\':
		p.pos++

		return &macro{name: `\`, pos: pos}, nil

	case c == '%' && isWordStart(p.peekAt(1)):
		p.pos++

		return &macro{name: p.word(), pos: pos}, nil

	case c == '(':
		return p.parenthesized()
	}

	return nil, p.unexpected()
}

func (p *lineParser) integer() (Node, error) {
	pos := p.position()
	start := p.pos

	for isDigit(p.peek()) {
		p.pos++
	}

	if isWordByte(p.peek()) {
		return nil, ErrSyntax.WithPosition(p.position()).
			With(slog.String("reason", "malformed integer"))
	}

	n, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil {
		return nil, ErrSyntax.WithPosition(pos).Wrap(err)
	}

	return &Value{Literal: n, Pos: pos}, nil
}

// parenthesized parses `(expr)`. An operandless expression becomes a
// zero-argument application of itself.
func (p *lineParser) parenthesized() (Node, error) {
	pos := p.position()

	p.pos++
	p.depth++

	inner, err := p.assignment()
	if err != nil {
		return nil, err
	}

	if p.peek() != ')' {
		return nil, p.unexpected()
	}

	p.pos++
	p.depth--

	if operandless(inner) {
		return &Apply{Callee: inner, Pos: pos}, nil
	}

	return inner, nil
}

func (p *lineParser) word() string {
	start := p.pos
	for isWordByte(p.peek()) {
		p.pos++
	}

	return p.input[start:p.pos]
}

// blanks skips spaces and tabs and returns how many were skipped.
func (p *lineParser) blanks() int {
	start := p.pos
	for isBlankByte(p.peek()) {
		p.pos++
	}

	return p.pos - start
}

func (p *lineParser) startsTerm() bool {
	switch c := p.peek(); {
	case isWordStart(c), isDigit(c), c == '(', c == '\\':
		return true
	case c == '%':
		return isWordStart(p.peekAt(1))
	}

	return false
}

func (p *lineParser) unexpected() *Error {
	if p.eof() {
		return ErrSyntax.WithPosition(p.position()).
			With(slog.String("reason", "unexpected end of line"))
	}

	return ErrSyntax.WithPosition(p.position()).
		With(slog.String("unexpected", string(p.peek())))
}

// Helper methods

func (p *lineParser) peek() byte { return p.peekAt(0) }

func (p *lineParser) peekAt(n int) byte {
	if p.pos+n >= len(p.input) {
		return 0
	}

	return p.input[p.pos+n]
}

func (p *lineParser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *lineParser) position() Position {
	return Position{
		Line:   p.line.number,
		Column: p.line.indent + p.pos + 1,
	}
}

func isBlankByte(c byte) bool { return c == ' ' || c == '\t' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool { return isWordStart(c) || isDigit(c) }
