package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/nib/lang"
)

// Fmt parses sources and renders them without evaluating.
type Fmt struct {
	Source FmtSource `cmd:"" default:"withargs" help:"Render as normalized nib source (default)."`
	Sexp   FmtSexp   `cmd:""                    help:"Render as S-expressions."`
	JSON   FmtJSON   `cmd:""                    help:"Render as JSON."`
	YAML   FmtYAML   `cmd:""                    help:"Render as YAML."`
}

type fmtInput struct {
	Sources []string `arg:"" help:"Source files to render, '-' for stdin (default)" name:"source" optional:""`
}

// render parses every source and writes it with fn, one after another.
func (in fmtInput) render(
	ctx context.Context,
	format string,
	fn func(*lang.Program, io.Writer) error,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sources, err := resolveSources(ctx, in.Sources)
	if err != nil {
		return err
	}

	w := stdout(ctx)

	for _, src := range sources {
		prog, err := parseSource(ctx, src)
		if err != nil {
			return err
		}

		if err := fn(prog, w); err != nil {
			return ErrRender.
				With(slog.String("format", format), slog.String("source", src.Name)).
				Wrap(err)
		}
	}

	return nil
}

// FmtSource renders sources in canonical nib syntax.
type FmtSource struct {
	Input fmtInput `embed:""`
}

// Run executes the fmt source command.
func (f *FmtSource) Run(ctx context.Context) error {
	return f.Input.render(ctx, "source", (*lang.Program).Format)
}

// FmtSexp renders each statement as an S-expression.
type FmtSexp struct {
	Input fmtInput `embed:""`
}

// Run executes the fmt sexp command.
func (f *FmtSexp) Run(ctx context.Context) error {
	return f.Input.render(ctx, "sexp", (*lang.Program).Print)
}

// FmtJSON renders the tree as nested JSON arrays.
type FmtJSON struct {
	Indent int `default:"2" help:"Indent width, 0 for compact output" short:"i"`

	Input fmtInput `embed:""`
}

// Run executes the fmt json command.
func (f *FmtJSON) Run(ctx context.Context) error {
	return f.Input.render(ctx, "json", func(p *lang.Program, w io.Writer) error {
		return p.FormatJSON(ctx, w, f.Indent)
	})
}

// FmtYAML renders the tree as YAML sequences.
type FmtYAML struct {
	Indent int `default:"2" help:"Indent width, 0 for flow style" short:"i"`

	Input fmtInput `embed:""`
}

// Run executes the fmt yaml command.
func (f *FmtYAML) Run(ctx context.Context) error {
	return f.Input.render(ctx, "yaml", func(p *lang.Program, w io.Writer) error {
		return p.FormatYAML(ctx, w, f.Indent)
	})
}
