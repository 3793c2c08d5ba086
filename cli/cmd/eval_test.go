package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/alecthomas/kong"
	"github.com/aymanbagabas/go-udiff"

	"github.com/ardnew/nib/lang"
)

// kongContext returns a context carrying a kong context that writes to out
// and defines vars.
func kongContext(t *testing.T, out io.Writer, vars kong.Vars) context.Context {
	t.Helper()

	var cli struct{}

	parser, err := kong.New(&cli, kong.Writers(out, io.Discard), vars)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(t.Context(), ktx)
}

// TestEvalRun tests evaluation of sources and expressions.
func TestEvalRun(t *testing.T) {
	dir := t.TempDir()

	lib := writeFile(t, dir, "lib.nib", heredoc.Doc(`
		\ square x
		  x * x
		base = 3
	`))
	prog := writeFile(t, dir, "main.nib", heredoc.Doc(`
		puts (square base)
		greeting = %s
		  hello
	`))

	tests := []struct {
		name string
		eval Eval
		want string
	}{
		{
			name: "sources share bindings",
			eval: Eval{Sources: []string{lib, prog}, MaxDepth: 10000},
			want: "9\n",
		},
		{
			name: "print last value",
			eval: Eval{Sources: []string{lib, prog}, Print: true, MaxDepth: 10000},
			want: "9\nhello\n",
		},
		{
			name: "expressions after sources",
			eval: Eval{
				Sources:  []string{lib},
				Expr:     []string{"y = square 4", "y + base"},
				Print:    true,
				MaxDepth: 10000,
			},
			want: "19\n",
		},
		{
			name: "expressions alone",
			eval: Eval{Expr: []string{"puts (1 + 2)"}, MaxDepth: 10000},
			want: "3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			if err := tt.eval.Run(kongContext(t, &out, nil)); err != nil {
				t.Fatalf("Eval.Run() error = %v", err)
			}

			if out.String() != tt.want {
				t.Errorf("output mismatch:\n%s", udiff.Unified("want", "got", tt.want, out.String()))
			}
		})
	}
}

// TestEvalErrors tests that failures carry their origin.
func TestEvalErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		eval    Eval
		wantErr error
	}{
		{
			name:    "parse error",
			eval:    Eval{Sources: []string{writeFile(t, dir, "bad.nib", "1 +\n")}, MaxDepth: 10000},
			wantErr: lang.ErrSyntax,
		},
		{
			name:    "unbound name",
			eval:    Eval{Expr: []string{"nope"}, MaxDepth: 10000},
			wantErr: lang.ErrUnboundName,
		},
		{
			name:    "depth limit",
			eval:    Eval{Expr: []string{"\\ f x\n  f x\nf 1"}, MaxDepth: 50},
			wantErr: lang.ErrMaxDepthExceeded,
		},
		{
			name: "block does not span sources",
			eval: Eval{
				Sources: []string{
					writeFile(t, dir, "head.nib", "greeting = %s\n"),
					writeFile(t, dir, "tail.nib", "  hello\n"),
				},
				MaxDepth: 10000,
			},
			wantErr: lang.ErrEmptyLang,
		},
		{
			name:    "missing source",
			eval:    Eval{Sources: []string{"no-such-source"}, MaxDepth: 10000},
			wantErr: ErrSourceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.eval.Run(kongContext(t, io.Discard, nil))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Eval.Run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
