package cmd

import (
	"context"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nib/lang"
	"github.com/ardnew/nib/log"
	"github.com/ardnew/nib/profile"
)

// Init writes a configuration file that binds every global flag to its
// current value.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// ignoredFlags are flag name prefixes never written to the config file.
var ignoredFlags = []string{"help", "version", profile.Tag}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	confPath := kongVar(ctx, ConfigIdentifier)
	if confPath == "" {
		return ErrWriteConfig.With(slog.String("reason", "config path undefined"))
	}

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}
	defer file.Close()

	prog := buildProgram(kongContextFrom(ctx))

	if err := prog.Format(file); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
		slog.Int("bindings", prog.Len()),
	)

	return nil
}

// buildProgram returns one assignment per global flag with a value. Hyphens
// in flag names become underscores, which the config loader maps back.
func buildProgram(ktx *kong.Context) *lang.Program {
	prog := new(lang.Program)
	if ktx == nil {
		return prog
	}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignoredFlags, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		value := flagNode(ktx.FlagValue(flag))
		if value == nil {
			continue
		}

		name := strings.ReplaceAll(flag.Name, "-", "_")
		prog.Nodes = append(prog.Nodes, lang.NewAssign(value, name))
	}

	return prog
}

// flagNode returns the expression producing value, or nil when the value is
// empty or has no nib representation.
func flagNode(value any) lang.Node {
	switch v := value.(type) {
	case bool:
		return lang.NewValue(v)

	case string:
		if v == "" || strings.ContainsAny(v, "\r\n") {
			return nil
		}

		return lang.NewValue(v)

	case int:
		return intNode(v)

	case int64:
		return intNode(int(v))

	case []int:
		if len(v) == 0 {
			return nil
		}

		elems := make([]lang.Node, len(v))
		for i, n := range v {
			if n < 0 {
				return nil
			}

			elems[i] = lang.NewValue(n)
		}

		return &lang.Array{Elems: elems}

	case []string:
		// kong splits a configured string on commas for slice flags.
		if len(v) == 0 || slices.ContainsFunc(v, func(s string) bool {
			return strings.ContainsAny(s, ",\r\n")
		}) {
			return nil
		}

		return lang.NewValue(strings.Join(v, ","))

	default:
		// Named string types such as the log level flag.
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
			return flagNode(rv.String())
		}

		return nil
	}
}

// intNode renders negative integers as a subtraction from zero.
func intNode(n int) lang.Node {
	if n < 0 {
		return lang.NewApply(lang.NewWord("-"), lang.NewValue(0), lang.NewValue(-n))
	}

	return lang.NewValue(n)
}
