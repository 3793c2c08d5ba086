package lang

//go:generate go tool stringer --linecomment --type Kind --output kind_string.go

// Kind identifies the variant of a [Node].
type Kind int

const (
	KindValue    Kind = iota // value
	KindWord                 // word
	KindApply                // apply
	KindAssign               // assign
	KindDef                  // def
	KindLang                 // lang
	KindSequence             // sequence
	KindArray                // array
	KindHash                 // hash
)

// Node is an element of a parsed program.
//
// The set of nodes is closed: [Value], [Word], [Apply], [Assign], [Def],
// [Sequence], [Array], and [Hash] appear in parsed programs. [Lang] exists
// only while a line's macro block is being resolved.
type Node interface {
	Kind() Kind
	At() Position
}

// Value is a literal: an int, bool, nil, or string.
type Value struct {
	Literal any
	Pos     Position
}

// Word is a reference to a name. Operators are words too.
type Word struct {
	Name string
	Pos  Position
}

// Apply invokes Callee with Args. Args may be empty.
type Apply struct {
	Callee Node
	Args   []Node
	Pos    Position
}

// Assign binds the value of Value to every name in Targets, in order.
type Assign struct {
	Value   Node
	Targets []string
	Pos     Position
}

// Def is a function literal.
type Def struct {
	Params []string
	Body   []Node
	Pos    Position
}

// Lang is a macro invocation awaiting its indented block.
type Lang struct {
	Name   string
	Params []string
	Pos    Position

	// Expansion is the node that replaces the macro once its block has been
	// resolved.
	Expansion Node

	nested bool // introduced inside parentheses
}

// Sequence is an ordered list of statements evaluated in one scope.
type Sequence struct {
	Nodes []Node
	Pos   Position
}

// Array is a list literal.
type Array struct {
	Elems []Node
	Pos   Position
}

// Hash is an ordered key/value literal. Keys are unique.
type Hash struct {
	Keys   []string
	Values []Node
	Pos    Position
}

func (*Value) Kind() Kind    { return KindValue }
func (*Word) Kind() Kind     { return KindWord }
func (*Apply) Kind() Kind    { return KindApply }
func (*Assign) Kind() Kind   { return KindAssign }
func (*Def) Kind() Kind      { return KindDef }
func (*Lang) Kind() Kind     { return KindLang }
func (*Sequence) Kind() Kind { return KindSequence }
func (*Array) Kind() Kind    { return KindArray }
func (*Hash) Kind() Kind     { return KindHash }

func (n *Value) At() Position    { return n.Pos }
func (n *Word) At() Position     { return n.Pos }
func (n *Apply) At() Position    { return n.Pos }
func (n *Assign) At() Position   { return n.Pos }
func (n *Def) At() Position      { return n.Pos }
func (n *Lang) At() Position     { return n.Pos }
func (n *Sequence) At() Position { return n.Pos }
func (n *Array) At() Position    { return n.Pos }
func (n *Hash) At() Position     { return n.Pos }

// NewValue returns a literal node.
func NewValue(literal any) *Value { return &Value{Literal: literal} }

// NewWord returns a name reference.
func NewWord(name string) *Word { return &Word{Name: name} }

// NewApply returns an invocation of callee with args.
func NewApply(callee Node, args ...Node) *Apply {
	return &Apply{Callee: callee, Args: args}
}

// NewAssign returns an assignment of value to each target.
func NewAssign(value Node, targets ...string) *Assign {
	return &Assign{Value: value, Targets: targets}
}

// NewDef returns a function literal.
func NewDef(params []string, body ...Node) *Def {
	return &Def{Params: params, Body: body}
}

// Program is the result of parsing source text: a list of top-level
// statements. A Program is immutable once returned by the parser and may be
// shared between goroutines.
type Program struct {
	Nodes []Node
}

// Len returns the number of top-level statements.
func (p *Program) Len() int { return len(p.Nodes) }

// root returns the program as a single evaluable node.
func (p *Program) root() *Sequence {
	var pos Position
	if len(p.Nodes) > 0 {
		pos = p.Nodes[0].At()
	}

	return &Sequence{Nodes: p.Nodes, Pos: pos}
}

// operandless reports whether n has no operands of its own. A parenthesized
// operandless node denotes a zero-argument invocation. Data blocks (`%s`,
// `%array`, `%hash`) are never invoked, so `(%s)` is a string argument.
func operandless(n Node) bool {
	switch n := n.(type) {
	case *Word, *Value:
		return true
	case *Apply:
		return len(n.Args) == 0
	case *Lang:
		return n.Name == langFunc && len(n.Params) == 0
	default:
		return false
	}
}

// binaryOperators lists the operator words produced by the precedence
// ladder.
var binaryOperators = map[string]bool{
	"*": true, "/": true, "%": true,
	"+": true, "-": true,
	"==": true, "!=": true, "<=": true, ">=": true, "<": true, ">": true,
	"&&": true, "||": true,
}

// binary returns the operator and operands of n if n is an application of a
// binary operator word to exactly two arguments.
func binary(n *Apply) (op string, lhs, rhs Node, ok bool) {
	w, isWord := n.Callee.(*Word)
	if !isWord || !binaryOperators[w.Name] || len(n.Args) != 2 {
		return "", nil, nil, false
	}

	return w.Name, n.Args[0], n.Args[1], true
}
