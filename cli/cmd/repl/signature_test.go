package repl

import (
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc"

	"github.com/ardnew/nib/lang"
	"github.com/ardnew/nib/log"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int // -1 means end of input
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{name: "bare word", input: "greeting", cursor: -1},
		{name: "callee then blank", input: "add ", cursor: -1, wantName: "add", wantInCall: true},
		{name: "typing first arg", input: "add 1", cursor: -1, wantName: "add", wantInCall: true},
		{name: "second arg", input: "add 1 ", cursor: -1, wantName: "add", wantIndex: 1, wantInCall: true},
		{name: "after assignment", input: "x = add 1 ", cursor: -1, wantName: "add", wantIndex: 1, wantInCall: true},
		{name: "inner call", input: "f (g 2 ", cursor: -1, wantName: "g", wantIndex: 1, wantInCall: true},
		{name: "closed group is one arg", input: "f (g 2) ", cursor: -1, wantName: "f", wantIndex: 1, wantInCall: true},
		{name: "after operator", input: "1 + ", cursor: -1},
		{name: "callee is literal", input: "3 add ", cursor: -1},
		{name: "callee is keyword", input: "true ", cursor: -1},
		{name: "cursor mid input", input: "add 1 2", cursor: 4, wantName: "add", wantInCall: true},
		{name: "empty", input: "", cursor: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor := tt.cursor
			if cursor < 0 {
				cursor = len(tt.input)
			}

			got := detectFunctionCall(tt.input, cursor)

			if got.inCall != tt.wantInCall {
				t.Fatalf("detectFunctionCall(%q, %d).inCall = %v, want %v",
					tt.input, cursor, got.inCall, tt.wantInCall)
			}

			if got.name != tt.wantName || got.argIndex != tt.wantIndex {
				t.Errorf("detectFunctionCall(%q, %d) = (%q, %d), want (%q, %d)",
					tt.input, cursor, got.name, got.argIndex, tt.wantName, tt.wantIndex)
			}
		})
	}
}

func TestSplitTerms(t *testing.T) {
	tests := []struct {
		input        string
		wantTerms    []string
		wantTrailing bool
	}{
		{"", nil, false},
		{"a b", []string{"a", "b"}, false},
		{"a  b ", []string{"a", "b"}, true},
		{"f (g 1) x", []string{"f", "(g 1)", "x"}, false},
		{"f (g 1 ", []string{"f", "(g 1 "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			terms, trailing := splitTerms(tt.input)
			if !slices.Equal(terms, tt.wantTerms) || trailing != tt.wantTrailing {
				t.Errorf("splitTerms(%q) = (%q, %v), want (%q, %v)",
					tt.input, terms, trailing, tt.wantTerms, tt.wantTrailing)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	interp, err := lang.NewInterpreter(
		lang.WithLogger(log.Make(io.Discard)),
		lang.WithOutput(nil),
	)
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}

	source := heredoc.Doc(`
		\ add a b
		  a + b
		answer = 42
		thunk = \
		  answer
	`)

	if _, err := interp.Run(t.Context(), source); err != nil {
		t.Fatalf("run: %v", err)
	}

	tests := []struct {
		name      string
		want      []string
		wantFound bool
	}{
		{"add", []string{"a", "b"}, true},
		{"thunk", []string{}, true},
		{"not", []string{"x"}, true},
		{"at", []string{"collection", "key"}, true},
		{"+", []string{"lhs", "rhs"}, true},
		{"answer", nil, false},
		{"missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := getSignature(interp.Scope(), tt.name)
			if found != tt.wantFound {
				t.Fatalf("getSignature(%q) found = %v, want %v", tt.name, found, tt.wantFound)
			}

			if len(got) != len(tt.want) || (len(got) > 0 && !slices.Equal(got, tt.want)) {
				t.Errorf("getSignature(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name    string
		params  []string
		current int
		want    []string
	}{
		{"no params", nil, 0, []string{"thunk", `\`}},
		{"first param", []string{"a", "b"}, 0, []string{"add", "a", "b"}},
		{"past last param", []string{"a"}, 3, []string{"f", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.want[0], tt.params, tt.current)
			for _, part := range tt.want {
				if !strings.Contains(got, part) {
					t.Errorf("renderSignatureHint() = %q, missing %q", got, part)
				}
			}
		})
	}
}
