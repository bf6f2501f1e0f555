// Package bindings implements variable bindings and the binding-set algebra
// that SPARQL solution modifiers and joins are built from: a Binding is one
// partial solution (a var -> term map held as a Go map; Vars lists the
// names in sorted order, the map itself is unordered); a BindingSet is an ordered
// sequence of solutions.
package bindings

import (
	"sort"
	"strings"

	"github.com/trigodb/trigo/pkg/rdf"
	"github.com/zeebo/xxh3"
)

// Binding is an immutable-by-convention partial mapping from variable names
// to terms. Callers that need to mutate a binding should Clone it first.
type Binding struct {
	vars map[string]rdf.Term
}

// Empty returns the binding with no variables bound — the join identity.
func Empty() *Binding {
	return &Binding{vars: make(map[string]rdf.Term)}
}

// New builds a Binding from an existing var -> term map, copying it.
func New(vars map[string]rdf.Term) *Binding {
	b := Empty()
	for k, v := range vars {
		b.vars[k] = v
	}
	return b
}

// Get returns the term bound to name, if any.
func (b *Binding) Get(name string) (rdf.Term, bool) {
	t, ok := b.vars[name]
	return t, ok
}

// Has reports whether name is bound.
func (b *Binding) Has(name string) bool {
	_, ok := b.vars[name]
	return ok
}

// Len returns the number of bound variables.
func (b *Binding) Len() int { return len(b.vars) }

// Vars returns the variable names bound in b, in sorted order.
func (b *Binding) Vars() []string {
	names := make([]string, 0, len(b.vars))
	for k := range b.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of b.
func (b *Binding) Clone() *Binding {
	out := Empty()
	for k, v := range b.vars {
		out.vars[k] = v
	}
	return out
}

// Bind returns a new binding equal to b with name additionally bound to
// term. It does not check for a pre-existing, conflicting binding — callers
// that need join semantics should use Merge.
func (b *Binding) Bind(name string, term rdf.Term) *Binding {
	out := b.Clone()
	out.vars[name] = term
	return out
}

// Compatible reports whether b and other agree on every variable they both
// bind: this is the SPARQL join condition.
func (b *Binding) Compatible(other *Binding) bool {
	small, big := b, other
	if len(big.vars) < len(small.vars) {
		small, big = big, small
	}
	for name, term := range small.vars {
		if otherTerm, ok := big.vars[name]; ok {
			if !term.Equals(otherTerm) {
				return false
			}
		}
	}
	return true
}

// Merge combines b and other into their union, assuming they are already
// Compatible. Merge returns nil if they are not compatible, mirroring the
// nested-loop join's merge-or-reject step.
func (b *Binding) Merge(other *Binding) *Binding {
	if !b.Compatible(other) {
		return nil
	}
	out := b.Clone()
	for name, term := range other.vars {
		out.vars[name] = term
	}
	return out
}

// Project returns a new binding containing only the variables in names.
func (b *Binding) Project(names []string) *Binding {
	out := Empty()
	for _, n := range names {
		if t, ok := b.vars[n]; ok {
			out.vars[n] = t
		}
	}
	return out
}

// Extend returns a new binding with name bound to term, overriding any
// existing binding for name (used by BIND/AS, which is allowed to rebind).
func (b *Binding) Extend(name string, term rdf.Term) *Binding {
	return b.Bind(name, term)
}

// Signature returns a stable, order-independent string uniquely
// identifying b's content, used for DISTINCT/dedup bookkeeping.
func (b *Binding) Signature() string {
	names := b.Vars()
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+"="+termSignature(b.vars[n]))
	}
	return strings.Join(parts, ";")
}

// Hash returns a 64-bit hash of Signature, suitable for map keys where exact
// equality is checked separately (collisions are possible and must be
// resolved by the caller via Signature or Equals).
func (b *Binding) Hash() uint64 {
	return xxh3.HashString(b.Signature())
}

// Equals reports whether b and other bind exactly the same variables to
// equal terms.
func (b *Binding) Equals(other *Binding) bool {
	if len(b.vars) != len(other.vars) {
		return false
	}
	for name, term := range b.vars {
		ot, ok := other.vars[name]
		if !ok || !term.Equals(ot) {
			return false
		}
	}
	return true
}

func termSignature(t rdf.Term) string {
	switch v := t.(type) {
	case *rdf.IRI:
		return "iri:" + *v.Value
	case *rdf.BlankNode:
		return "blank:" + v.String()
	case *rdf.Literal:
		sig := "lit:" + *v.Value
		if v.Language != nil {
			sig += "@" + *v.Language
		}
		if v.Datatype != nil {
			sig += "^^" + *v.Datatype.Value
		}
		return sig
	case *rdf.QuotedTriple:
		return "qt:" + v.String()
	case *rdf.Variable:
		return "var:" + *v.Name
	default:
		return "?:" + t.String()
	}
}
