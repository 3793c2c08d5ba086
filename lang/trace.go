package lang

// trace is the stack of nodes currently being evaluated, innermost last.
type trace struct {
	frames []Node
	broken bool // a pop did not match its push
}

func (t *trace) push(n Node) { t.frames = append(t.frames, n) }

func (t *trace) pop(n Node) {
	last := len(t.frames) - 1
	if last < 0 || t.frames[last] != n {
		t.broken = true
	}

	if last >= 0 {
		t.frames = t.frames[:last]
	}
}

func (t *trace) depth() int { return len(t.frames) }

func (t *trace) empty() bool { return len(t.frames) == 0 }

// snapshot renders every frame, outermost first.
func (t *trace) snapshot() []string {
	out := make([]string, len(t.frames))
	for i, n := range t.frames {
		out[i] = Sexp(n)
	}

	return out
}
