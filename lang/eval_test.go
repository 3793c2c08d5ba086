package lang

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/MakeNowJust/heredoc"

	"github.com/ardnew/nib/log"
)

func TestEval_Values(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"literal", "13", 13},
		{"addition", "1+12", 13},
		{"precedence", "1 + 3*2", 7},
		{"assignment yields value", "a = 13", 13},
		{"empty program", "", nil},
		{"truncating division", "(0 - 7) / 2", -3},
		{"remainder sign follows dividend", "(0 - 7) % 2", -1},
		{"division", "7 / 2", 3},
		{"remainder", "7 % 3", 1},
		{"comparison", "3 <= 3", true},
		{"logic", "1 < 2 && 2 < 1", false},
		{"not", "not (1 == 2)", true},
		{"or", "false || true", true},
		{"largest integer", "9223372036854775806 + 1", 9223372036854775807},
		{"negative product", "0 - 3037000499 * 3037000499", -9223372030926249001},
		{"nil literal", "nil", nil},
		{
			name:  "applied closure",
			input: "(\\ x) 3\n  x + 10",
			want:  13,
		},
		{
			name: "named function",
			input: heredoc.Doc(`
				a = 3
				\ f a
				  a + 1
				f a
			`),
			want: 4,
		},
		{
			name: "zero-argument call",
			input: heredoc.Doc(`
				f = \
				  42
				(f)
			`),
			want: 42,
		},
		{
			name: "closure captures definition scope",
			input: heredoc.Doc(`
				\ adder n
				  \ x
				    x + n
				add5 = adder 5
				add5 10
			`),
			want: 15,
		},
		{
			name: "missing argument left unbound",
			input: heredoc.Doc(`
				x = 100
				\ f a x
				  x
				f 1
			`),
			want: 100,
		},
		{
			name:  "string block",
			input: "%s\n  hi\n  there",
			want:  "hi\nthere",
		},
		{
			name: "array and length",
			input: heredoc.Doc(`
				xs = %array
				  1 2 (1 + 2)
				len xs
			`),
			want: 3,
		},
		{
			name: "hash lookup",
			input: heredoc.Doc(`
				h = %hash
				  port: 80 + 1
				at h (%s)
				  port
			`),
			want: 81,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(t.Context(), tt.input, WithOutput(nil))
			if err != nil {
				t.Fatalf("eval error: %v", err)
			}

			if !equalValue(got, tt.want) {
				t.Errorf("expected %s, got %s", FormatValue(tt.want), FormatValue(got))
			}
		})
	}
}

func TestEval_ClosureValue(t *testing.T) {
	in, err := NewInterpreter(WithOutput(nil))
	if err != nil {
		t.Fatalf("NewInterpreter failed: %v", err)
	}

	v, err := in.Run(t.Context(), "\\ x\n  x + 3")
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	fn, ok := v.(*Closure)
	if !ok {
		t.Fatalf("expected *Closure, got %T", v)
	}

	if got := fn.Params(); !slices.Equal(got, []string{"x"}) {
		t.Errorf("expected params [x], got %v", got)
	}

	in.Scope().Define("g", fn)

	got, err := in.Run(t.Context(), "g 10")
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if got != 13 {
		t.Errorf("expected 13, got %v", got)
	}
}

func TestEval_AssignChain(t *testing.T) {
	source := heredoc.Doc(`
		b = 1
		\ set v
		  a = b = v
		set 7
	`)

	in, err := NewInterpreter()
	if err != nil {
		t.Fatalf("NewInterpreter failed: %v", err)
	}

	if _, err := in.Run(t.Context(), source); err != nil {
		t.Fatalf("eval error: %v", err)
	}

	global := in.Scope().Bindings()

	if global["b"] != 7 {
		t.Errorf("expected outer b mutated to 7, got %v", global["b"])
	}

	if _, ok := global["a"]; ok {
		t.Error("expected a to be bound inside the call scope only")
	}
}

func TestEval_SharedAncestor(t *testing.T) {
	source := heredoc.Doc(`
		count = 0
		inc = \
		  count = count + 1
		(inc)
		(inc)
		count
	`)

	got, err := Eval(t.Context(), source)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
}

func TestEval_Persistent(t *testing.T) {
	in, err := NewInterpreter()
	if err != nil {
		t.Fatalf("NewInterpreter failed: %v", err)
	}

	if _, err := in.Run(t.Context(), "x = 5"); err != nil {
		t.Fatalf("eval error: %v", err)
	}

	got, err := in.Run(t.Context(), "x * 2")
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if got != 10 {
		t.Errorf("expected 10, got %v", got)
	}

	if _, ok := in.Scope().Parent().Lookup("+"); !ok {
		t.Error("expected builtins in the parent of the global scope")
	}
}

func TestEval_Puts(t *testing.T) {
	var out bytes.Buffer

	source := heredoc.Doc(`
		puts (1 + 2)
		s = %s
		  hello
		puts s
		puts (%array)
		  1 s
	`)

	got, err := Eval(t.Context(), source, WithOutput(&out))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	want := "3\nhello\n[1, \"hello\"]\n"
	if out.String() != want {
		t.Errorf("expected output %q, got %q", want, out.String())
	}

	if !equalValue(got, []any{1, "hello"}) {
		t.Errorf("expected puts to return its argument, got %s", FormatValue(got))
	}
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"unbound name", "x + 1", ErrUnboundName},
		{"not callable", "1 2", ErrNotCallable},
		{"zero-argument literal call", "(1)", ErrNotCallable},
		{"division by zero", "1 / 0", ErrBuiltin},
		{"remainder by zero", "1 % 0", ErrBuiltin},
		{"type mismatch", "1 + true", ErrBuiltin},
		{"builtin arity", "not 1 2", ErrBuiltin},
		{"not of nil", "not nil", ErrBuiltin},
		{"and of integers", "1 && 2", ErrBuiltin},
		{"or of nil", "nil || true", ErrBuiltin},
		{"addition overflow", "9223372036854775807 + 1", ErrBuiltin},
		{"subtraction overflow", "0 - 9223372036854775807 - 2", ErrBuiltin},
		{"multiplication overflow", "4294967296 * 4294967296", ErrBuiltin},
		{"division overflow", "(0 - 9223372036854775807 - 1) / (0 - 1)", ErrBuiltin},
		{"index out of range", "at (%array) 5\n  1", ErrBuiltin},
		{"parse error", "1 +", ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(t.Context(), tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEval_ErrorTrace(t *testing.T) {
	source := heredoc.Doc(`
		\ f a
		  a + missing
		f 1
	`)

	_, err := Eval(t.Context(), source)
	if !errors.Is(err, ErrUnboundName) {
		t.Fatalf("expected unbound name error, got %v", err)
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}

	pos, ok := e.Position()
	if !ok || pos.Line != 2 || pos.Column != 7 {
		t.Errorf("expected line 2, column 7; got %v (ok=%v)", pos, ok)
	}

	var frames []string

	for _, a := range e.LogValue().Group() {
		if a.Key == "trace" {
			frames, _ = a.Value.Any().([]string)
		}
	}

	want := []string{
		`(sequence (assign (def ("a") (apply (word "+") (word "a") (word "missing"))) "f") ` +
			`(apply (word "f") (value 1)))`,
		`(apply (word "f") (value 1))`,
		`(apply (word "+") (word "a") (word "missing"))`,
		`(word "missing")`,
	}

	if !slices.Equal(frames, want) {
		t.Errorf("unexpected trace:\nexpected %q\n     got %q", want, frames)
	}
}

func TestEval_UnknownNode(t *testing.T) {
	in, err := NewInterpreter()
	if err != nil {
		t.Fatalf("NewInterpreter failed: %v", err)
	}

	prog := &Program{Nodes: []Node{
		NewApply(NewWord("puts"), &Lang{Name: "s"}),
	}}

	_, err = in.Evaluate(t.Context(), prog)
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected unknown node error, got %v", err)
	}

	prog = &Program{Nodes: []Node{nil}}

	_, err = in.Evaluate(t.Context(), prog)
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected unknown node error for nil, got %v", err)
	}
}

func TestEval_MaxDepth(t *testing.T) {
	source := heredoc.Doc(`
		\ loop n
		  loop n
		loop 1
	`)

	_, err := Eval(t.Context(), source, WithMaxDepth(64))
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("expected max depth error, got %v", err)
	}
}

func TestEval_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Eval(ctx, "1 + 1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEval_TraceLogging(t *testing.T) {
	var logs bytes.Buffer

	logger := log.Make(&logs,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
	)

	_, err := Eval(t.Context(), "1 + 2", WithLogger(logger), WithTrace(true))
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	if !bytes.Contains(logs.Bytes(), []byte(`msg=eval`)) {
		t.Errorf("expected eval step records, got:\n%s", logs.String())
	}
}

func equalValue(a, b any) bool {
	return FormatValue(a) == FormatValue(b) && TypeName(a) == TypeName(b)
}
