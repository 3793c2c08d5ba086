package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nib/lang"
	"github.com/ardnew/nib/log"
)

// resolve returns a [kong.ConfigurationLoader] that evaluates a nib source
// file and exposes its top-level bindings as flag values.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config.nib")
//
// Bindings are converted as follows:
//   - Flag names with hyphens (e.g., "log-level") are written with
//     underscores (e.g., "log_level")
//   - Integers are passed to kong as decimal strings
//   - Strings and booleans are passed through
//   - Arrays become lists of the converted elements
//   - Functions, hashes and nil are ignored
//
// Example config file:
//
//	log_level = %s
//	  debug
//	log_format = %s
//	  text
//	log_pretty = false
//
// Command-line flags override config file values. A config file that fails
// to parse or evaluate is logged and otherwise ignored.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		prog, err := lang.ParseReader(ctx, r, lang.WithLogger(log.Default()))
		if err != nil {
			log.WarnContext(ctx, "config ignored", slog.Any("error", err))

			return config{}, nil
		}

		interp, err := lang.NewInterpreter(
			lang.WithLogger(log.Default()),
			lang.WithOutput(io.Discard),
		)
		if err != nil {
			return nil, err
		}

		if _, err := interp.Evaluate(ctx, prog); err != nil {
			log.WarnContext(ctx, "config ignored", slog.Any("error", err))

			return config{}, nil
		}

		return bindingsToConfig(interp.Scope().Bindings()), nil
	}
}

// config implements [kong.Resolver] for nib config files.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// nib names cannot contain hyphens, so flag names are tried in both forms.
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

// bindingsToConfig converts evaluated bindings to flag values.
func bindingsToConfig(bindings map[string]any) config {
	result := make(config, len(bindings))

	for name, value := range bindings {
		if v, ok := flagValue(value); ok {
			result[name] = v
		}
	}

	return result
}

func flagValue(value any) (any, bool) {
	switch v := value.(type) {
	case bool, string:
		return v, true

	case int:
		// Kong requires numbers as strings for parsing
		return strconv.Itoa(v), true

	case []any:
		list := make([]any, 0, len(v))

		for _, elem := range v {
			if e, ok := flagValue(elem); ok {
				list = append(list, e)
			}
		}

		return list, true

	default:
		return nil, false
	}
}
