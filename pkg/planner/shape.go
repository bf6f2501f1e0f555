package planner

import "github.com/trigodb/trigo/pkg/algebra"

// Shape is the structural category a set of triple patterns falls into,
// based on how they share variables.
type Shape int

const (
	ShapeChain Shape = iota
	ShapeStar
	ShapeCyclic
)

// AnalyzeShape classifies patterns as star, cyclic, or chain, per the
// following rules:
//   - star: at least one variable occurs in 3 or more patterns (a hub
//     variable every other pattern joins through).
//   - cyclic: the undirected graph of patterns-connected-by-shared-variable
//     contains a cycle.
//   - chain: neither of the above — a simple linear join sequence.
func AnalyzeShape(patterns []algebra.TriplePattern) (Shape, *VariableOrdering) {
	ordering := AnalyzeOrdering(patterns)

	for _, name := range ordering.Variables() {
		if ordering.Frequency(name) >= 3 {
			return ShapeStar, ordering
		}
	}

	if hasCycle(patterns) {
		return ShapeCyclic, ordering
	}

	return ShapeChain, ordering
}

// hasCycle builds the pattern-adjacency graph (patterns as nodes, an edge
// when two patterns share a variable) and checks it for a cycle via
// union-find: if adding an edge would connect two patterns already in the
// same component, that edge closes a cycle.
func hasCycle(patterns []algebra.TriplePattern) bool {
	n := len(patterns)
	if n < 3 {
		return false
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	varPatterns := make(map[string]map[int]bool)
	for i, p := range patterns {
		for _, name := range patternVarNames(p) {
			if varPatterns[name] == nil {
				varPatterns[name] = make(map[int]bool)
			}
			varPatterns[name][i] = true
		}
	}

	for _, memberSet := range varPatterns {
		members := make([]int, 0, len(memberSet))
		for i := range memberSet {
			members = append(members, i)
		}
		for i := 1; i < len(members); i++ {
			a, b := find(members[0]), find(members[i])
			if a == b {
				return true
			}
			parent[a] = b
		}
	}
	return false
}

// centerVariable returns the variable with the highest frequency, used as
// the star shape's hub for the strategy policy's center-frequency check.
func centerVariable(ordering *VariableOrdering) (string, int) {
	vars := ordering.Variables()
	if len(vars) == 0 {
		return "", 0
	}
	return vars[0], ordering.Frequency(vars[0])
}
