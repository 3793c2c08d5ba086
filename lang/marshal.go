package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// ToNative converts n to nested slices mirroring its S-expression form,
// for example ["apply", ["word", "+"], ["value", 1], ["value", 12]].
func ToNative(n Node) any {
	switch n := n.(type) {
	case *Value:
		return []any{"value", n.Literal}

	case *Word:
		return []any{"word", n.Name}

	case *Apply:
		return append([]any{"apply", ToNative(n.Callee)}, nativeList(n.Args)...)

	case *Assign:
		out := []any{"assign", ToNative(n.Value)}
		for _, t := range n.Targets {
			out = append(out, t)
		}

		return out

	case *Def:
		params := make([]any, len(n.Params))
		for i, p := range n.Params {
			params[i] = p
		}

		return append([]any{"def", params}, nativeList(n.Body)...)

	case *Lang:
		out := []any{"lang", n.Name}
		for _, p := range n.Params {
			out = append(out, p)
		}

		return out

	case *Sequence:
		return append([]any{"sequence"}, nativeList(n.Nodes)...)

	case *Array:
		return append([]any{"array"}, nativeList(n.Elems)...)

	case *Hash:
		out := []any{"hash"}
		for i, k := range n.Keys {
			out = append(out, []any{k, ToNative(n.Values[i])})
		}

		return out
	}

	return nil
}

func nativeList(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = ToNative(n)
	}

	return out
}

// ToNative converts every statement of p with [ToNative].
func (p *Program) ToNative() []any { return nativeList(p.Nodes) }

// MarshalJSON implements json.Marshaler for Program.
func (p *Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToNative())
}

// FormatJSON writes the program as a JSON array of statements.
// An indent of zero selects the compact form.
func (p *Program) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(p, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(p)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the program as a YAML sequence of statements.
// An indent of zero selects flow style.
func (p *Program) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, p.ToNative(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
