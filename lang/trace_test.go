package lang

import (
	"slices"
	"testing"
)

func TestTrace_Balanced(t *testing.T) {
	var tr trace

	outer, inner := NewWord("f"), NewValue(1)

	tr.push(outer)
	tr.push(inner)

	if got := tr.snapshot(); !slices.Equal(got, []string{`(word "f")`, `(value 1)`}) {
		t.Errorf("snapshot() = %q", got)
	}

	tr.pop(inner)
	tr.pop(outer)

	if !tr.empty() || tr.broken {
		t.Errorf("empty = %v, broken = %v after balanced pops", tr.empty(), tr.broken)
	}
}

func TestTrace_Unbalanced(t *testing.T) {
	tests := []struct {
		name  string
		push  []Node
		pop   Node
		depth int
	}{
		{"mismatched node", []Node{NewWord("a")}, NewWord("b"), 0},
		{"pop of empty trace", nil, NewWord("a"), 0},
		{"pop of outer frame", []Node{NewWord("a"), NewWord("b")}, NewWord("a"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr trace

			for _, n := range tt.push {
				tr.push(n)
			}

			tr.pop(tt.pop)

			if !tr.broken {
				t.Error("unbalanced pop not recorded")
			}

			if tr.depth() != tt.depth {
				t.Errorf("depth() = %d, want %d", tr.depth(), tt.depth)
			}
		})
	}
}
