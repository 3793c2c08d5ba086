package lang

import (
	"maps"
	"slices"
)

// Scope is one link of a chain of name bindings.
//
// Reads fall through to the parent when a name is not bound locally. Writes
// made with [Scope.Assign] update the nearest scope that already binds the
// name, so closures sharing an ancestor observe each other's updates.
// A binding to nil is a binding like any other.
type Scope struct {
	parent *Scope
	vars   map[string]any
}

// NewScope returns an empty scope whose reads fall through to parent, which
// may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]any)}
}

// Spawn returns a new child of s.
func (s *Scope) Spawn() *Scope { return NewScope(s) }

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Lookup returns the value bound to name in s or its nearest ancestor that
// binds it. The boolean reports whether any binding exists.
func (s *Scope) Lookup(name string) (any, bool) {
	for t := s; t != nil; t = t.parent {
		if v, ok := t.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Assign binds value to name in the nearest scope, s included, that already
// binds name. If none does, the binding is created in s.
func (s *Scope) Assign(name string, value any) {
	for t := s; t != nil; t = t.parent {
		if _, ok := t.vars[name]; ok {
			t.vars[name] = value

			return
		}
	}

	s.vars[name] = value
}

// Define binds value to name in s, shadowing any ancestor binding.
func (s *Scope) Define(name string, value any) {
	s.vars[name] = value
}

// Bindings returns a copy of the bindings held directly by s.
func (s *Scope) Bindings() map[string]any {
	return maps.Clone(s.vars)
}

// Names returns the sorted names visible from s.
func (s *Scope) Names() []string {
	seen := make(map[string]struct{})

	for t := s; t != nil; t = t.parent {
		for name := range t.vars {
			seen[name] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}
