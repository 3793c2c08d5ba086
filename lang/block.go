package lang

import (
	"context"
	"log/slog"
	"strings"
)

// blockIndent is the indentation that marks a line as part of the block of
// the preceding macro line.
const blockIndent = "  "

// Macro names.
const (
	langFunc   = `\`
	langString = "s"
	langArray  = "array"
	langHash   = "hash"
)

// parseLines parses lines into statements, resolving each macro line
// against the indented block that follows it.
func parseLines(ctx context.Context, o options, lines []sourceLine) ([]Node, error) {
	var nodes []Node

	for len(lines) > 0 {
		l := lines[0]
		lines = lines[1:]

		if isBlank(l.text) {
			continue
		}

		node, pending, err := parseLine(l)
		if err != nil {
			return nil, err
		}

		if pending != nil {
			if len(lines) == 0 {
				return nil, ErrEmptyLang.WithPosition(pending.Pos).
					With(slog.String("lang", pending.Name))
			}

			var block []sourceLine

			block, lines = captureBlock(lines)

			node, err = resolve(ctx, o, node, pending, block)
			if err != nil {
				return nil, err
			}
		}

		nodes = append(nodes, node)
	}

	return nodes, nil
}

// captureBlock splits off the leading run of lines that are blank or
// indented by [blockIndent], strips that indentation, and returns trailing
// blank lines to the remainder.
func captureBlock(lines []sourceLine) (block, rest []sourceLine) {
	n := 0
	for n < len(lines) &&
		(isBlank(lines[n].text) || strings.HasPrefix(lines[n].text, blockIndent)) {
		n++
	}

	for n > 0 && isBlank(lines[n-1].text) {
		n--
	}

	block = make([]sourceLine, n)
	for i, l := range lines[:n] {
		block[i] = sourceLine{
			text:   strings.TrimPrefix(l.text, blockIndent),
			number: l.number,
			indent: l.indent + len(blockIndent),
		}
	}

	return block, lines[n:]
}

// resolve expands the pending macro of a statement using its block and
// substitutes the expansion into the statement.
func resolve(
	ctx context.Context,
	o options,
	stmt Node,
	lang *Lang,
	block []sourceLine,
) (Node, error) {
	switch lang.Name {
	case langFunc, langString, langArray, langHash:
	default:
		return nil, ErrUnknownLang.WithPosition(lang.Pos).
			With(slog.String("lang", lang.Name))
	}

	// A bare macro statement may name the binding it creates: `\ f a` binds
	// a one-parameter function to f and `%s greeting` binds a string.
	var name string

	statement := stmt == Node(lang) && !lang.nested
	params := lang.Params

	switch {
	case lang.Name == langFunc:
		if statement && len(params) > 1 {
			name, params = params[0], params[1:]
		}

	case len(params) == 1 && statement:
		name, params = params[0], nil

	case len(params) > 0:
		return nil, ErrInvalidDef.WithPosition(lang.Pos).
			With(slog.String("lang", lang.Name),
				slog.Any("params", lang.Params))
	}

	var err error

	switch lang.Name {
	case langFunc:
		lang.Expansion, err = expandFunc(ctx, o, lang, params, block)
	case langString:
		lang.Expansion = expandString(lang, block)
	case langArray:
		lang.Expansion, err = expandArray(lang, block)
	case langHash:
		lang.Expansion, err = expandHash(lang, block)
	}

	if err != nil {
		return nil, err
	}

	o.logger.TraceContext(ctx, "lang resolved",
		slog.String("lang", lang.Name),
		slog.Int("line", lang.Pos.Line),
		slog.Int("block_lines", len(block)),
		slog.String("name", name),
	)

	node, err := substitute(stmt, lang)
	if err != nil {
		return nil, err
	}

	if name != "" {
		return &Assign{Value: node, Targets: []string{name}, Pos: lang.Pos}, nil
	}

	return node, nil
}

func expandFunc(
	ctx context.Context,
	o options,
	lang *Lang,
	params []string,
	block []sourceLine,
) (Node, error) {
	body, err := parseLines(ctx, o, block)
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, ErrEmptyBody.WithPosition(lang.Pos)
	}

	return &Def{Params: params, Body: body, Pos: lang.Pos}, nil
}

// expandString joins the block verbatim, minus one trailing line terminator.
func expandString(lang *Lang, block []sourceLine) Node {
	var sb strings.Builder
	for _, l := range block {
		sb.WriteString(l.text)
	}

	return &Value{Literal: chomp(sb.String()), Pos: lang.Pos}
}

func chomp(s string) string {
	if t, ok := strings.CutSuffix(s, "\r\n"); ok {
		return t
	}

	if t, ok := strings.CutSuffix(s, "\n"); ok {
		return t
	}

	return strings.TrimSuffix(s, "\r")
}

// expandArray reads blank-separated terms from every block line.
func expandArray(lang *Lang, block []sourceLine) (Node, error) {
	arr := &Array{Elems: []Node{}, Pos: lang.Pos}

	for _, l := range block {
		if isBlank(l.text) {
			continue
		}

		p := newLineParser(l)

		for {
			elem, err := p.term()
			if err != nil {
				return nil, ErrInvalidArray.WithPosition(p.position()).Wrap(err)
			}

			if _, ok := elem.(*macro); ok || p.pending != nil {
				return nil, ErrInvalidArray.WithPosition(elem.At()).
					With(slog.String("reason", "macro in array"))
			}

			arr.Elems = append(arr.Elems, elem)

			if p.blanks() == 0 || p.eof() {
				break
			}
		}

		if !p.eof() {
			return nil, ErrInvalidArray.WithPosition(p.position()).Wrap(p.unexpected())
		}
	}

	return arr, nil
}

// expandHash reads one `key: expression` entry from every block line.
func expandHash(lang *Lang, block []sourceLine) (Node, error) {
	hash := &Hash{Pos: lang.Pos}
	seen := make(map[string]bool)

	for _, l := range block {
		if isBlank(l.text) {
			continue
		}

		p := newLineParser(l)
		pos := p.position()

		if !isWordStart(p.peek()) {
			return nil, ErrInvalidHash.WithPosition(pos).
				With(slog.String("reason", "expected key"))
		}

		key := p.word()
		if p.peek() != ':' {
			return nil, ErrInvalidHash.WithPosition(p.position()).
				With(slog.String("reason", "expected ':' after key"))
		}

		p.pos++
		p.blanks()

		value, err := p.assignment()
		if err != nil {
			return nil, ErrInvalidHash.WithPosition(pos).Wrap(err)
		}

		if !p.eof() {
			return nil, ErrInvalidHash.WithPosition(pos).Wrap(p.unexpected())
		}

		if p.pending != nil {
			return nil, ErrInvalidHash.WithPosition(p.pending.Pos).
				With(slog.String("reason", "macro in hash"))
		}

		if seen[key] {
			return nil, ErrInvalidHash.WithPosition(pos).
				With(slog.String("reason", "duplicate key"),
					slog.String("key", key))
		}

		seen[key] = true
		hash.Keys = append(hash.Keys, key)
		hash.Values = append(hash.Values, value)
	}

	return hash, nil
}

// substitute replaces lang with its expansion wherever it occurs in n.
// Any other Lang left in the tree is a parser defect.
func substitute(n Node, lang *Lang) (Node, error) {
	var err error

	switch n := n.(type) {
	case *Lang:
		if n != lang || n.Expansion == nil {
			return nil, ErrInternalInvariant.WithPosition(n.Pos).
				With(slog.String("reason", "unresolved lang"),
					slog.String("lang", n.Name))
		}

		return n.Expansion, nil

	case *Apply:
		if n.Callee, err = substitute(n.Callee, lang); err != nil {
			return nil, err
		}

		for i, arg := range n.Args {
			if n.Args[i], err = substitute(arg, lang); err != nil {
				return nil, err
			}
		}

	case *Assign:
		if n.Value, err = substitute(n.Value, lang); err != nil {
			return nil, err
		}
	}

	return n, nil
}
