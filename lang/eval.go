package lang

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ardnew/nib/log"
)

// Interpreter evaluates programs in a persistent global scope. Bindings made
// by one call to [Interpreter.Run] are visible to the next.
//
// An Interpreter is not safe for concurrent use.
type Interpreter struct {
	builtins *Scope
	global   *Scope
	o        options
}

// NewInterpreter returns an interpreter whose global scope is a child of a
// scope holding the builtins.
func NewInterpreter(opts ...Option) (*Interpreter, error) {
	o := makeOptions(opts...)

	builtins := NewScope(nil)
	if err := installBuiltins(builtins, o.output); err != nil {
		return nil, err
	}

	return &Interpreter{
		builtins: builtins,
		global:   builtins.Spawn(),
		o:        o,
	}, nil
}

// Scope returns the global scope of the interpreter.
func (in *Interpreter) Scope() *Scope { return in.global }

// Run parses and evaluates src, returning the value of its last statement.
func (in *Interpreter) Run(ctx context.Context, src string) (any, error) {
	prog, err := Parse(ctx, src, WithLogger(in.o.logger))
	if err != nil {
		return nil, err
	}

	return in.Evaluate(ctx, prog)
}

// Evaluate evaluates a parsed program, returning the value of its last
// statement. An empty program evaluates to nil.
func (in *Interpreter) Evaluate(ctx context.Context, prog *Program) (any, error) {
	ev := &evaluator{ctx: ctx, o: in.o}

	result, err := ev.eval(prog.root(), in.global)

	if !ev.trace.empty() || ev.trace.broken {
		return nil, ErrInternalInvariant.
			With(slog.String("reason", "unbalanced evaluation trace"),
				slog.Int("depth", ev.trace.depth()))
	}

	if err != nil {
		in.o.logger.DebugContext(ctx, "evaluation failed", slog.Any("error", err))

		return nil, err
	}

	in.o.logger.TraceContext(ctx, "evaluation complete",
		slog.Int("statement_count", prog.Len()),
		slog.String("result", FormatValue(result)),
	)

	return result, nil
}

// Eval parses and evaluates src in a fresh interpreter.
func Eval(ctx context.Context, src string, opts ...Option) (any, error) {
	in, err := NewInterpreter(opts...)
	if err != nil {
		return nil, err
	}

	return in.Run(ctx, src)
}

// evaluator carries the state of one evaluation.
type evaluator struct {
	ctx   context.Context
	o     options
	trace trace
}

func (ev *evaluator) eval(n Node, s *Scope) (result any, err error) {
	ev.trace.push(n)
	defer ev.trace.pop(n)

	if ev.trace.depth() > ev.o.maxDepth {
		return nil, ev.fail(ErrMaxDepthExceeded.
			With(slog.Int("max_depth", ev.o.maxDepth)))
	}

	if err := ev.ctx.Err(); err != nil {
		return nil, ev.fail(WrapError(err))
	}

	result, err = ev.dispatch(n, s)
	if err != nil {
		return nil, ev.fail(err)
	}

	if ev.o.trace && ev.o.logger.Enabled(ev.ctx, log.LevelTrace) {
		ev.o.logger.TraceContext(ev.ctx, "eval",
			slog.Int("depth", ev.trace.depth()),
			slog.String("node", Sexp(n)),
			slog.String("result", FormatValue(result)),
		)
	}

	return result, nil
}

// fail attaches the current trace to err unless an inner frame already did.
func (ev *evaluator) fail(err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = WrapError(err)
	}

	return e.withTrace(ev.trace.snapshot())
}

func (ev *evaluator) dispatch(n Node, s *Scope) (any, error) {
	switch n := n.(type) {
	case *Value:
		return n.Literal, nil

	case *Word:
		v, ok := s.Lookup(n.Name)
		if !ok {
			return nil, ErrUnboundName.WithPosition(n.Pos).
				With(slog.String("name", n.Name))
		}

		return v, nil

	case *Apply:
		return ev.apply(n, s)

	case *Assign:
		v, err := ev.eval(n.Value, s)
		if err != nil {
			return nil, err
		}

		for _, target := range n.Targets {
			s.Assign(target, v)
		}

		return v, nil

	case *Def:
		return &Closure{def: n, scope: s}, nil

	case *Sequence:
		var result any

		for _, stmt := range n.Nodes {
			v, err := ev.eval(stmt, s)
			if err != nil {
				return nil, err
			}

			result = v
		}

		return result, nil

	case *Array:
		out := make([]any, len(n.Elems))

		for i, elem := range n.Elems {
			v, err := ev.eval(elem, s)
			if err != nil {
				return nil, err
			}

			out[i] = v
		}

		return out, nil

	case *Hash:
		out := make(map[string]any, len(n.Keys))

		for i, key := range n.Keys {
			v, err := ev.eval(n.Values[i], s)
			if err != nil {
				return nil, err
			}

			out[key] = v
		}

		return out, nil
	}

	return nil, unknownNode(n)
}

// apply evaluates the callee, then every argument left to right, then
// invokes the callee.
func (ev *evaluator) apply(n *Apply, s *Scope) (any, error) {
	callee, err := ev.eval(n.Callee, s)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(n.Args))

	for i, arg := range n.Args {
		if args[i], err = ev.eval(arg, s); err != nil {
			return nil, err
		}
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, ErrNotCallable.WithPosition(n.Pos).
			With(slog.String("value", FormatValue(callee)),
				slog.String("type", TypeName(callee)))
	}

	return fn.call(ev, args)
}

func unknownNode(n Node) *Error {
	if n == nil {
		return ErrUnknownNode.With(slog.String("node", "nil"))
	}

	return ErrUnknownNode.WithPosition(n.At()).
		With(slog.String("node", Sexp(n)))
}
