// Package planner analyzes a basic graph pattern's shape (star, cycle,
// chain) and decides a join strategy and join order for it, producing an
// algebra plan an executor can run.
package planner

import (
	"sort"

	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/rdf"
)

// VariableOrdering is the canonical variable order a WCOJ execution must
// use: every trie built over a BGP's patterns has to agree on this order
// for LeapFrog intersection to be meaningful.
type VariableOrdering struct {
	variables   []string
	frequencies map[string]int
	positions   map[string]int
}

// AnalyzeOrdering ranks every variable occurring in patterns by frequency
// (descending), breaking ties alphabetically for determinism.
func AnalyzeOrdering(patterns []algebra.TriplePattern) *VariableOrdering {
	freq := make(map[string]int)
	for _, p := range patterns {
		for _, name := range patternVarNames(p) {
			freq[name]++
		}
	}

	vars := make([]string, 0, len(freq))
	for v := range freq {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool {
		if freq[vars[i]] != freq[vars[j]] {
			return freq[vars[i]] > freq[vars[j]]
		}
		return vars[i] < vars[j]
	})

	positions := make(map[string]int, len(vars))
	for i, v := range vars {
		positions[v] = i
	}

	return &VariableOrdering{variables: vars, frequencies: freq, positions: positions}
}

// Variables returns the canonical variable order.
func (o *VariableOrdering) Variables() []string { return o.variables }

// Len is the number of distinct variables.
func (o *VariableOrdering) Len() int { return len(o.variables) }

// Frequency returns how many patterns var occurred in.
func (o *VariableOrdering) Frequency(name string) int { return o.frequencies[name] }

// Position returns var's index in the canonical order, or (-1, false) if it
// never occurred (e.g. a constant-only pattern).
func (o *VariableOrdering) Position(name string) (int, bool) {
	p, ok := o.positions[name]
	if !ok {
		return -1, false
	}
	return p, true
}

// patternVarNames returns the distinct variable names occurring in p's
// subject/predicate/object positions, in subject-predicate-object order.
func patternVarNames(p algebra.TriplePattern) []string {
	var out []string
	for _, t := range []rdf.Term{p.Subject, p.Predicate, p.Object} {
		v, ok := t.(*rdf.Variable)
		if !ok {
			continue
		}
		seen := false
		for _, name := range out {
			if name == *v.Name {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, *v.Name)
		}
	}
	return out
}
