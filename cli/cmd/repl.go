package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/nib/cli/cmd/repl"
	"github.com/ardnew/nib/lang"
	"github.com/ardnew/nib/log"
)

// Repl starts an interactive session.
type Repl struct {
	Trace    bool `help:"Log every evaluation step (requires --log-level=trace)" short:"t"`
	MaxDepth int  `default:"10000"                                              help:"Limit nested evaluation frames" name:"max-depth"`

	Sources []string `arg:"" help:"Source files evaluated before the first prompt" name:"source" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prelude, err := r.prelude(ctx)
	if err != nil {
		return err
	}

	cacheDir := kongVar(ctx, CacheIdentifier)
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o700); err != nil {
			log.WarnContext(ctx, "cache directory unavailable",
				slog.String("path", cacheDir),
				slog.Any("error", err),
			)
		}
	}

	return repl.Run(ctx, repl.Config{
		CacheDir: cacheDir,
		Logger:   log.Default(),
		Prelude:  prelude,
		Options: []lang.Option{
			lang.WithTrace(r.Trace),
			lang.WithMaxDepth(r.MaxDepth),
		},
	})
}

// prelude reads the content of every named source. Standard input belongs
// to the terminal and cannot be a prelude.
func (r *Repl) prelude(ctx context.Context) ([]string, error) {
	if len(r.Sources) == 0 {
		return nil, nil
	}

	sources, err := resolveSources(ctx, r.Sources)
	if err != nil {
		return nil, err
	}

	prelude := make([]string, 0, len(sources))

	for _, src := range sources {
		if src.Path == "" {
			return nil, ErrReadSource.With(slog.String("source", src.Name),
				slog.String("reason", "standard input is the terminal"))
		}

		data, err := readSource(src)
		if err != nil {
			return nil, err
		}

		prelude = append(prelude, data)
	}

	return prelude, nil
}

func readSource(src Source) (string, error) {
	rc, err := src.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", ErrReadSource.With(slog.String("source", src.Name)).Wrap(err)
	}

	return string(data), nil
}
