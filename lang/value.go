package lang

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Callable is a value that can be applied to arguments: a [*Closure] or a
// [*Builtin].
type Callable interface {
	call(ev *evaluator, args []any) (any, error)
}

// Closure is a function value: a [Def] together with the scope it was
// evaluated in.
type Closure struct {
	def   *Def
	scope *Scope
}

// Params returns the parameter names of the closure.
func (c *Closure) Params() []string { return slices.Clone(c.def.Params) }

// Body returns the statements of the closure body.
func (c *Closure) Body() []Node { return c.def.Body }

func (c *Closure) String() string {
	if len(c.def.Params) == 0 {
		return `<function \>`
	}

	return `<function \ ` + strings.Join(c.def.Params, " ") + ">"
}

// call binds args to parameters positionally in a fresh child of the
// defining scope. Missing arguments leave their parameters unbound; extra
// arguments are ignored.
func (c *Closure) call(ev *evaluator, args []any) (any, error) {
	local := c.scope.Spawn()

	for i, name := range c.def.Params {
		if i >= len(args) {
			break
		}

		local.Define(name, args[i])
	}

	var (
		result any
		err    error
	)

	for _, stmt := range c.def.Body {
		result, err = ev.eval(stmt, local)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Builtin is a function value implemented by the host.
type Builtin struct {
	Name  string
	Arity int

	fn func(args []any) (any, error)
}

func (b *Builtin) String() string { return "<builtin " + b.Name + ">" }

func (b *Builtin) call(_ *evaluator, args []any) (any, error) {
	if len(args) != b.Arity {
		return nil, ErrBuiltin.
			With(
				slog.String("builtin", b.Name),
				slog.Int("want_args", b.Arity),
				slog.Int("got_args", len(args)),
			).
			Wrap(fmt.Errorf("%s takes %d argument(s), got %d",
				b.Name, b.Arity, len(args)))
	}

	return b.fn(args)
}

// FormatValue returns the display form of an evaluation result.
// Strings are shown verbatim at the top level and quoted inside arrays and
// hashes.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return formatNested(v)
}

func formatNested(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"

	case bool:
		return strconv.FormatBool(val)

	case int:
		return strconv.Itoa(val)

	case string:
		return strconv.Quote(val)

	case []any:
		return formatSlice(val)

	case map[string]any:
		return formatMap(val)

	case fmt.Stringer:
		return val.String()

	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatSlice formats a slice as "[a, b, c]".
func formatSlice(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatNested(v)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// formatMap formats a map as "{k: v, ...}" with keys sorted.
func formatMap(m map[string]any) string {
	parts := make([]string, 0, len(m))

	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, k+": "+formatNested(m[k]))
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// TypeName returns the language-level type name of a runtime value.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case int:
		return "int"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "hash"
	case *Closure:
		return "function"
	case *Builtin:
		return "builtin"
	default:
		return fmt.Sprintf("%T", v)
	}
}
