package lang

import (
	"errors"
	"testing"

	"github.com/MakeNowJust/heredoc"
)

func TestParse_Sexp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "binary without blanks",
			input: "1+12",
			want:  []string{`(apply (word "+") (value 1) (value 12))`},
		},
		{
			name:  "single literal",
			input: "1",
			want:  []string{`(value 1)`},
		},
		{
			name:  "multiplicative binds tighter",
			input: "1 + 3*2",
			want: []string{
				`(apply (word "+") (value 1) (apply (word "*") (value 3) (value 2)))`,
			},
		},
		{
			name:  "left associative",
			input: "10 - 4 - 3",
			want: []string{
				`(apply (word "-") (apply (word "-") (value 10) (value 4)) (value 3))`,
			},
		},
		{
			name:  "juxtaposition binds tighter than operators",
			input: "a = b f + 3",
			want: []string{
				`(assign (apply (word "+") (apply (word "b") (word "f")) (value 3)) "a")`,
			},
		},
		{
			name:  "chained assignment",
			input: "a = b = 1",
			want:  []string{`(assign (value 1) "a" "b")`},
		},
		{
			name:  "comparison and logic",
			input: "a < b && c >= d || e",
			want: []string{
				`(apply (word "||") (apply (word "&&") ` +
					`(apply (word "<") (word "a") (word "b")) ` +
					`(apply (word ">=") (word "c") (word "d"))) (word "e"))`,
			},
		},
		{
			name:  "equality is not assignment",
			input: "a == b",
			want:  []string{`(apply (word "==") (word "a") (word "b"))`},
		},
		{
			name:  "remainder needs a blank",
			input: "a % b",
			want:  []string{`(apply (word "%") (word "a") (word "b"))`},
		},
		{
			name:  "keywords",
			input: "f true false nil",
			want: []string{
				`(apply (word "f") (value true) (value false) (value nil))`,
			},
		},
		{
			name:  "blank lines skipped",
			input: "\n1\n\n  \n2\n",
			want:  []string{`(value 1)`, `(value 2)`},
		},
		{
			name:  "application with parenthesized argument",
			input: "f (a + b) c",
			want: []string{
				`(apply (word "f") (apply (word "+") (word "a") (word "b")) (word "c"))`,
			},
		},
		{
			name:  "parenthesized assignment",
			input: "f (b = 33)",
			want:  []string{`(apply (word "f") (assign (value 33) "b"))`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			assertSexps(t, prog, tt.want)
		})
	}
}

func TestParse_Parentheses(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"word is called", "(f)", `(apply (word "f"))`},
		{"literal is called", "(1)", `(apply (value 1))`},
		{"application passes through", "(f a)", `(apply (word "f") (word "a"))`},
		{"operation passes through", "(a + b)", `(apply (word "+") (word "a") (word "b"))`},
		{"double around application", "((f a))", `(apply (word "f") (word "a"))`},
		{"double around operation", "((a + b))", `(apply (word "+") (word "a") (word "b"))`},
		{"double around word", "((f))", `(apply (apply (word "f")))`},
		{"call with arguments", "(f) a", `(apply (apply (word "f")) (word "a"))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			assertSexps(t, prog, []string{tt.want})
		})
	}
}

// Only a function macro is invoked by parentheses. Data blocks in
// parentheses are values, which is what lets a string, array, or hash block
// appear as an argument.
func TestParse_ParenthesizedBlocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"function is called", "(\\)\n  1", `(apply (def () (value 1)))`},
		{"string is a value", "(%s)\n  hi", `(value "hi")`},
		{"array is a value", "(%array)\n  1 2", `(array (value 1) (value 2))`},
		{"hash is a value", "(%hash)\n  k: 1", `(hash ("k" (value 1)))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			assertSexps(t, prog, []string{tt.want})
		})
	}

	t.Run("string evaluates", func(t *testing.T) {
		got, err := Eval(t.Context(), "x = (%s)\n  hi\nx")
		if err != nil {
			t.Fatalf("eval error: %v", err)
		}

		if got != "hi" {
			t.Errorf("x = %v, want %q", got, "hi")
		}
	})
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		line    int
		column  int
	}{
		{"dangling operator", "1 +", ErrSyntax, 1, 4},
		{"unclosed paren", "(a b", ErrSyntax, 1, 5},
		{"stray close paren", "a )", ErrSyntax, 1, 3},
		{"malformed integer", "12ab", ErrSyntax, 1, 3},
		{"literal target", "1 = 2", ErrAssignTarget, 1, 1},
		{"application target", "f x = 2", ErrAssignTarget, 1, 1},
		{"literal param", "\\ 1\n  2", ErrInvalidDef, 1, 3},
		{"two macros", "f = (\\ x) (\\ y)\n  1", ErrDuplicateLang, 1, 12},
		{"macro not leading", "f = g \\\n  1", ErrSyntax, 1, 7},
		{"second line error", "a = 1\nb = +", ErrSyntax, 2, 5},
		{"indented block error", "\\ x\n  x +", ErrSyntax, 2, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(t.Context(), tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}

			if !errors.Is(err, ErrParse) {
				t.Errorf("expected parse error kind, got %v", err)
			}

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %T", err)
			}

			pos, ok := e.Position()
			if !ok {
				t.Fatalf("expected position in %v", err)
			}

			if pos.Line != tt.line || pos.Column != tt.column {
				t.Errorf("expected line %d, column %d; got %s", tt.line, tt.column, pos)
			}
		})
	}
}

func TestParse_ErrorMessage(t *testing.T) {
	_, err := Parse(t.Context(), "1 +")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	want := "parse error: syntax error at line 1, column 4"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestParse_Program(t *testing.T) {
	source := heredoc.Doc(`
		a = 3
		\ f a
		  a + 1
		f a
	`)

	prog, err := Parse(t.Context(), source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	assertSexps(t, prog, []string{
		`(assign (value 3) "a")`,
		`(assign (def ("a") (apply (word "+") (word "a") (value 1))) "f")`,
		`(apply (word "f") (word "a"))`,
	})
}

func TestParse_Positions(t *testing.T) {
	source := heredoc.Doc(`
		x = 1
		\ f a
		  a + x
	`)

	prog, err := Parse(t.Context(), source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	assign, ok := prog.Nodes[1].(*Assign)
	if !ok {
		t.Fatalf("expected *Assign, got %T", prog.Nodes[1])
	}

	def, ok := assign.Value.(*Def)
	if !ok {
		t.Fatalf("expected *Def, got %T", assign.Value)
	}

	body, ok := def.Body[0].(*Apply)
	if !ok {
		t.Fatalf("expected *Apply, got %T", def.Body[0])
	}

	rhs := body.Args[1].At()
	if rhs.Line != 3 || rhs.Column != 7 {
		t.Errorf("expected line 3, column 7; got %s", rhs)
	}
}

func assertSexps(t *testing.T, prog *Program, want []string) {
	t.Helper()

	if prog.Len() != len(want) {
		t.Fatalf("expected %d statements, got %d", len(want), prog.Len())
	}

	for i, n := range prog.Nodes {
		if got := Sexp(n); got != want[i] {
			t.Errorf("statement %d:\nexpected %s\n     got %s", i, want[i], got)
		}
	}
}
