package repl

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ardnew/nib/lang"
	"github.com/ardnew/nib/log"
)

// session is the interpreter state behind a REPL. It accumulates the lines
// of an unfinished block and remembers the source of every statement that
// evaluated successfully, so the session can be edited and replayed.
type session struct {
	interp  *lang.Interpreter
	logger  log.Logger
	opts    []lang.Option
	out     *bytes.Buffer
	source  []string
	pending []string
}

// outcome is the result of one submitted line.
type outcome struct {
	value  any
	output string // text written by puts
	open   bool   // a block is still being read
}

func newSession(logger log.Logger, opts ...lang.Option) (*session, error) {
	s := &session{
		logger: logger,
		opts:   opts,
		out:    new(bytes.Buffer),
	}

	interp, err := lang.NewInterpreter(s.options()...)
	if err != nil {
		return nil, err
	}

	s.interp = interp

	return s, nil
}

func (s *session) options() []lang.Option {
	return append(
		[]lang.Option{lang.WithLogger(s.logger), lang.WithOutput(s.out)},
		s.opts...,
	)
}

// scope returns the root scope of the session.
func (s *session) scope() *lang.Scope { return s.interp.Scope() }

// open reports whether a block is being read.
func (s *session) open() bool { return len(s.pending) > 0 }

// submit feeds one input line. A line whose macro still needs its block
// opens continuation; a blank line closes it and evaluates everything read.
func (s *session) submit(ctx context.Context, line string) (outcome, error) {
	if s.open() {
		if strings.TrimSpace(line) != "" {
			s.pending = append(s.pending, line)

			return outcome{open: true}, nil
		}

		src := strings.Join(s.pending, "\n")
		s.pending = nil

		return s.eval(ctx, src)
	}

	if strings.TrimSpace(line) == "" {
		return outcome{}, nil
	}

	_, err := lang.Parse(ctx, line, lang.WithLogger(s.logger))
	if errors.Is(err, lang.ErrEmptyLang) {
		s.pending = []string{line}

		return outcome{open: true}, nil
	}

	return s.eval(ctx, line)
}

// cancel discards an unfinished block.
func (s *session) cancel() { s.pending = nil }

// eval evaluates src one top-level statement at a time. The source of every
// statement that completes is recorded, even when a later one fails, so a
// replay rebuilds the bindings the failure left behind.
func (s *session) eval(ctx context.Context, src string) (outcome, error) {
	defer s.out.Reset()

	prog, err := lang.Parse(ctx, src, lang.WithLogger(s.logger))
	if err != nil {
		return outcome{}, err
	}

	var value any

	for i, node := range prog.Nodes {
		value, err = s.interp.Evaluate(ctx, &lang.Program{Nodes: []lang.Node{node}})
		if err != nil {
			s.commit(ctx, statementsBefore(src, prog, i))

			return outcome{output: s.out.String()}, err
		}
	}

	s.commit(ctx, src)

	return outcome{value: value, output: s.out.String()}, nil
}

// commit records src as accepted source. Blank source is ignored.
func (s *session) commit(ctx context.Context, src string) {
	if strings.TrimSpace(src) == "" {
		return
	}

	s.source = append(s.source, src)

	s.logger.TraceContext(ctx, "repl source accepted",
		slog.Int("entries", len(s.source)),
	)
}

// statementsBefore returns the lines of src preceding statement i of prog.
func statementsBefore(src string, prog *lang.Program, i int) string {
	if i <= 0 || i >= prog.Len() {
		return ""
	}

	lines := strings.Split(src, "\n")
	end := min(prog.Nodes[i].At().Line-1, len(lines))

	return strings.TrimRight(strings.Join(lines[:end], "\n"), " \t\n")
}

// text returns the accepted source of the session in canonical form, or as
// entered if it cannot be rendered.
func (s *session) text(ctx context.Context) string {
	src := strings.Join(s.source, "\n")
	if src != "" {
		src += "\n"
	}

	prog, err := lang.Parse(ctx, src, lang.WithLogger(s.logger))
	if err != nil {
		return src
	}

	var buf bytes.Buffer
	if err := prog.Format(&buf); err != nil {
		return src
	}

	return buf.String()
}

// replay returns a new session that has evaluated src as a single program.
func (s *session) replay(ctx context.Context, src string) (*session, error) {
	next, err := newSession(s.logger, s.opts...)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(src) == "" {
		return next, nil
	}

	if _, err := next.eval(ctx, src); err != nil {
		return nil, err
	}

	return next, nil
}
