// Package lang implements nib, a small indentation-aware expression
// language.
//
// # Syntax
//
// Every line is one statement. Terms separated by blanks form an
// application: the first term is called with the rest as arguments.
// Binary operators bind looser than application, in this order from
// tightest to loosest:
//
//	*  /  %
//	+  -
//	==  !=  <=  >=  <  >
//	&&
//	||
//
// Assignment binds loosest of all and chains to the right, so
// `a = b = 1` binds both names. A parenthesized word or literal is a
// zero-argument call: `(f)` calls f, while `(f a)` is just `f a`.
//
// # Blocks
//
// A line led by a macro token takes the following lines indented by two
// spaces as its block:
//
//	add = \ a b
//	  a + b
//	add 1 12
//
// The backslash macro builds a function whose parameters are the words
// after it. As a bare statement with two or more words, the first word
// names the function:
//
//	\ add a b
//	  a + b
//
// `%s` takes its block as a verbatim string. `%array` takes blank-separated
// terms and `%hash` takes one `key: expression` entry per line.
//
// # Evaluation
//
// Scopes form a chain. Reads fall through to the parent scope; assignment
// updates the nearest scope that already binds the name and otherwise
// creates the binding locally. A function call runs in a fresh child of the
// scope the function was defined in.
//
// Errors carry the source position where known and, for evaluation errors,
// a "trace" attribute listing the S-expression of every active frame.
package lang
