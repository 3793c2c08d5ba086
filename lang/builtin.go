package lang

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// operands is the environment of every compiled operator program.
// Interface-typed fields leave type checking to run time.
type operands struct {
	L any
	R any
}

// exprOperators maps operator words to the expr-lang source implementing
// them. Division is handled natively to keep integer semantics.
var exprOperators = map[string]string{
	"+":   "L + R",
	"-":   "L - R",
	"*":   "L * R",
	"%":   "L % R",
	"==":  "L == R",
	"!=":  "L != R",
	"<=":  "L <= R",
	">=":  "L >= R",
	"<":   "L < R",
	">":   "L > R",
	"&&":  "L && R",
	"||":  "L || R",
	"not": "!L",
}

// programs compiles every operator once per process.
var programs = sync.OnceValues(func() (map[string]*vm.Program, error) {
	compiled := make(map[string]*vm.Program, len(exprOperators))

	for name, source := range exprOperators {
		program, err := expr.Compile(source, expr.Env(operands{}))
		if err != nil {
			return nil, ErrBuiltin.
				With(slog.String("builtin", name), slog.String("expr", source)).
				Wrap(err)
		}

		compiled[name] = program
	}

	return compiled, nil
})

var (
	errDivideByZero = errors.New("integer division by zero")
	errOverflow     = errors.New("integer overflow")
)

// installBuiltins binds the host primitives in s.
//
// Integer division truncates toward zero and the remainder takes the sign
// of the dividend. Division or remainder by zero is an [ErrBuiltin], as is
// integer overflow.
func installBuiltins(s *Scope, output io.Writer) error {
	compiled, err := programs()
	if err != nil {
		return err
	}

	for name, program := range compiled {
		arity := 2
		if name == "not" {
			arity = 1
		}

		s.Define(name, &Builtin{
			Name:  name,
			Arity: arity,
			fn:    runProgram(name, program),
		})
	}

	s.Define("/", &Builtin{Name: "/", Arity: 2, fn: divide})
	s.Define("puts", &Builtin{Name: "puts", Arity: 1, fn: puts(output)})
	s.Define("len", &Builtin{Name: "len", Arity: 1, fn: length})
	s.Define("at", &Builtin{Name: "at", Arity: 2, fn: at})

	return nil
}

func runProgram(name string, program *vm.Program) func([]any) (any, error) {
	return func(args []any) (any, error) {
		env := operands{L: args[0]}
		if len(args) > 1 {
			env.R = args[1]
		}

		if name == "%" {
			if r, ok := env.R.(int); ok && r == 0 {
				return nil, builtinError(name, args, errDivideByZero)
			}
		}

		result, err := vm.Run(program, env)
		if err != nil {
			return nil, builtinError(name, args, err)
		}

		if overflowed(name, env.L, env.R, result) {
			return nil, builtinError(name, args, errOverflow)
		}

		return result, nil
	}
}

// overflowed reports whether the integer result of an arithmetic operator
// wrapped around.
func overflowed(name string, lhs, rhs, result any) bool {
	l, lok := lhs.(int)
	r, rok := rhs.(int)
	v, vok := result.(int)

	if !lok || !rok || !vok {
		return false
	}

	switch name {
	case "+":
		return (r > 0 && v < l) || (r < 0 && v > l)
	case "-":
		return (r > 0 && v > l) || (r < 0 && v < l)
	case "*":
		return l != 0 && (v/l != r || (l == -1 && r == math.MinInt))
	}

	return false
}

func divide(args []any) (any, error) {
	l, lok := args[0].(int)
	r, rok := args[1].(int)

	switch {
	case !lok || !rok:
		return nil, builtinError("/", args, fmt.Errorf(
			"invalid operation: %s / %s", TypeName(args[0]), TypeName(args[1])))
	case r == 0:
		return nil, builtinError("/", args, errDivideByZero)
	case l == math.MinInt && r == -1:
		return nil, builtinError("/", args, errOverflow)
	}

	return l / r, nil
}

func puts(w io.Writer) func([]any) (any, error) {
	return func(args []any) (any, error) {
		if _, err := fmt.Fprintln(w, FormatValue(args[0])); err != nil {
			return nil, builtinError("puts", args, err)
		}

		return args[0], nil
	}
}

func length(args []any) (any, error) {
	switch v := args[0].(type) {
	case string:
		return len(v), nil
	case []any:
		return len(v), nil
	case map[string]any:
		return len(v), nil
	}

	return nil, builtinError("len", args,
		fmt.Errorf("%s has no length", TypeName(args[0])))
}

func at(args []any) (any, error) {
	switch c := args[0].(type) {
	case []any:
		i, ok := args[1].(int)
		if !ok || i < 0 || i >= len(c) {
			return nil, builtinError("at", args,
				fmt.Errorf("index %s out of range [0,%d)", FormatValue(args[1]), len(c)))
		}

		return c[i], nil

	case map[string]any:
		k, ok := args[1].(string)
		if !ok {
			return nil, builtinError("at", args,
				fmt.Errorf("hash key must be string, got %s", TypeName(args[1])))
		}

		return c[k], nil
	}

	return nil, builtinError("at", args,
		fmt.Errorf("%s is not indexable", TypeName(args[0])))
}

func builtinError(name string, args []any, err error) *Error {
	attrs := make([]slog.Attr, 0, len(args)+1)
	attrs = append(attrs, slog.String("builtin", name))

	for i, arg := range args {
		attrs = append(attrs, slog.String(fmt.Sprintf("arg%d", i), FormatValue(arg)))
	}

	return ErrBuiltin.With(attrs...).Wrap(err)
}
