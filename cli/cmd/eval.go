package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/nib/lang"
	"github.com/ardnew/nib/log"
)

// Eval evaluates sources in order in a single interpreter, so later sources
// see the bindings of earlier ones.
type Eval struct {
	Expr     []string `help:"Evaluate an expression after all sources (repeatable)"          placeholder:"SRC" short:"e"`
	Print    bool     `help:"Print the value of the last statement"`
	Trace    bool     `help:"Log every evaluation step (requires --log-level=trace)"         short:"t"`
	MaxDepth int      `default:"10000"                                                    help:"Limit nested evaluation frames" name:"max-depth"`

	Sources []string `arg:"" help:"Source files to evaluate, '-' for stdin (default)" name:"source" optional:""`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	interp, err := lang.NewInterpreter(
		lang.WithLogger(log.Default()),
		lang.WithOutput(stdout(ctx)),
		lang.WithTrace(e.Trace),
		lang.WithMaxDepth(e.MaxDepth),
	)
	if err != nil {
		return err
	}

	var result any

	// Expressions alone do not read stdin.
	if len(e.Sources) > 0 || len(e.Expr) == 0 {
		sources, err := resolveSources(ctx, e.Sources)
		if err != nil {
			return err
		}

		for _, src := range sources {
			prog, err := parseSource(ctx, src)
			if err != nil {
				return err
			}

			result, err = interp.Evaluate(ctx, prog)
			if err != nil {
				return lang.WrapError(err).With(slog.String("source", src.Name))
			}
		}
	}

	for i, expr := range e.Expr {
		result, err = interp.Run(ctx, expr)
		if err != nil {
			return lang.WrapError(err).With(slog.Int("expr", i+1))
		}
	}

	if e.Print {
		_, err = fmt.Fprintln(stdout(ctx), lang.FormatValue(result))
	}

	return err
}

// parseSource reads and parses one source through the parse cache.
func parseSource(ctx context.Context, src Source) (*lang.Program, error) {
	r, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	prog, err := lang.ParseReader(ctx, r, lang.WithLogger(log.Default()))
	if err != nil {
		return nil, lang.WrapError(err).With(slog.String("source", src.Name))
	}

	log.DebugContext(ctx, "source parsed",
		slog.String("source", src.Name),
		slog.Int("statements", prog.Len()),
	)

	return prog, nil
}
