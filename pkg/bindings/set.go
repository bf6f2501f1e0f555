package bindings

import "github.com/trigodb/trigo/pkg/rdf"

// BindingSet is an ordered sequence of Bindings — the intermediate result
// type that every solution-modifier and join operator consumes and
// produces.
type BindingSet struct {
	rows []*Binding
}

// NewSet wraps rows as a BindingSet without copying.
func NewSet(rows []*Binding) *BindingSet {
	return &BindingSet{rows: rows}
}

// Unit returns the single-row set containing only the empty binding — the
// join identity element: Join(Unit(), s) == s for any s.
func Unit() *BindingSet {
	return NewSet([]*Binding{Empty()})
}

// EmptySet returns the zero-row set — the union identity and the result of
// any join against an empty side.
func EmptySet() *BindingSet {
	return NewSet(nil)
}

// Rows returns the underlying slice of bindings, in order.
func (s *BindingSet) Rows() []*Binding { return s.rows }

// Len returns the number of rows.
func (s *BindingSet) Len() int { return len(s.rows) }

// Join computes the inner join of s and other: every compatible pair of
// rows, merged, in left-major / right-minor order (mirrors the nested-loop
// join iterator's traversal order).
func Join(left, right *BindingSet) *BindingSet {
	var out []*Binding
	for _, l := range left.rows {
		for _, r := range right.rows {
			if merged := l.Merge(r); merged != nil {
				out = append(out, merged)
			}
		}
	}
	return NewSet(out)
}

// LeftJoin computes the SPARQL OPTIONAL semantics: every left row is kept.
// Rows with at least one compatible right match are replaced by their
// merges; rows with none are kept unchanged.
func LeftJoin(left, right *BindingSet) *BindingSet {
	out := make([]*Binding, 0, len(left.rows))
	for _, l := range left.rows {
		matched := false
		for _, r := range right.rows {
			if merged := l.Merge(r); merged != nil {
				out = append(out, merged)
				matched = true
			}
		}
		if !matched {
			out = append(out, l)
		}
	}
	return NewSet(out)
}

// Minus computes SPARQL MINUS: left rows for which no right row is
// Compatible survive. Compatible with no shared variables is trivially
// true, so a right row with an empty domain excludes every left row.
func Minus(left, right *BindingSet) *BindingSet {
	out := make([]*Binding, 0, len(left.rows))
	for _, l := range left.rows {
		excluded := false
		for _, r := range right.rows {
			if l.Compatible(r) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, l)
		}
	}
	return NewSet(out)
}

// Union concatenates left then right, with no deduplication (SPARQL UNION
// is a bag union).
func Union(left, right *BindingSet) *BindingSet {
	out := make([]*Binding, 0, len(left.rows)+len(right.rows))
	out = append(out, left.rows...)
	out = append(out, right.rows...)
	return NewSet(out)
}

// Filter keeps only rows for which keep returns true, preserving order.
func Filter(s *BindingSet, keep func(*Binding) bool) *BindingSet {
	out := make([]*Binding, 0, len(s.rows))
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return NewSet(out)
}

// Distinct removes rows whose Signature has already been seen, preserving
// the order of first occurrence.
func Distinct(s *BindingSet) *BindingSet {
	seen := make(map[string]struct{}, len(s.rows))
	out := make([]*Binding, 0, len(s.rows))
	for _, r := range s.rows {
		sig := r.Signature()
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, r)
	}
	return NewSet(out)
}

// Slice applies OFFSET/LIMIT semantics: skip offset rows, then keep at most
// limit rows. A negative limit means unbounded.
func Slice(s *BindingSet, offset, limit int) *BindingSet {
	rows := s.rows
	if offset > 0 {
		if offset >= len(rows) {
			return EmptySet()
		}
		rows = rows[offset:]
	}
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]*Binding, len(rows))
	copy(out, rows)
	return NewSet(out)
}

// Project applies Binding.Project to every row.
func Project(s *BindingSet, names []string) *BindingSet {
	out := make([]*Binding, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Project(names)
	}
	return NewSet(out)
}

// Extend applies Binding.Extend to every row, using compute to derive the
// new variable's value. compute returning ok=false leaves the row unbound
// for that variable, matching BIND's unbound-on-error behavior.
func Extend(s *BindingSet, name string, compute func(*Binding) (term rdf.Term, ok bool)) *BindingSet {
	out := make([]*Binding, len(s.rows))
	for i, r := range s.rows {
		if term, ok := compute(r); ok {
			out[i] = r.Extend(name, term)
		} else {
			out[i] = r
		}
	}
	return NewSet(out)
}
