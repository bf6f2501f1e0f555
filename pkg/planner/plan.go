package planner

import (
	"sort"

	"github.com/trigodb/trigo/pkg/algebra"
	"github.com/trigodb/trigo/pkg/rdf"
)

// ChooseStrategy applies the shape-driven strategy policy:
//   - star with >= 4 patterns: WCOJ (a wide hub join benefits most from
//     worst-case-optimal multi-way intersection)
//   - star with 2-3 patterns: WCOJ only if there are >= 3 patterns AND the
//     hub variable's frequency is >= 3 (otherwise a plain nested loop over
//     so few patterns is cheaper to set up)
//   - cyclic: WCOJ (a cycle defeats any acyclic nested-loop order without
//     redundant work)
//   - chain (or anything else): NestedLoop
func ChooseStrategy(patterns []algebra.TriplePattern) algebra.JoinStrategy {
	shape, ordering := AnalyzeShape(patterns)

	switch shape {
	case ShapeStar:
		if len(patterns) >= 4 {
			return algebra.StrategyWCOJ
		}
		_, centerFreq := centerVariable(ordering)
		if len(patterns) >= 3 && centerFreq >= 3 {
			return algebra.StrategyWCOJ
		}
		return algebra.StrategyNestedLoop
	case ShapeCyclic:
		return algebra.StrategyWCOJ
	default:
		return algebra.StrategyNestedLoop
	}
}

// estimateSelectivity scores a pattern by how bound it is: a lower score
// means fewer expected matches and so higher priority in join order. Bound
// subjects are the most selective position, followed by predicate and
// object equally.
func estimateSelectivity(p algebra.TriplePattern) float64 {
	selectivity := 1.0
	if !rdf.IsVariable(p.Subject) {
		selectivity *= 0.01
	}
	if !rdf.IsVariable(p.Predicate) {
		selectivity *= 0.1
	}
	if !rdf.IsVariable(p.Object) {
		selectivity *= 0.1
	}
	return selectivity
}

// PlanBGP builds an executable algebra.Node for a basic graph pattern:
//  1. pick a join strategy from the pattern shape,
//  2. order patterns (connected-first, ascending estimated cardinality),
//  3. for WCOJ, emit one multi-way Join node carrying every pattern; for
//     NestedLoop, emit a left-deep chain of binary Join nodes in that order.
func PlanBGP(patterns []algebra.TriplePattern) algebra.Node {
	if len(patterns) == 0 {
		return nil
	}
	strategy := ChooseStrategy(patterns)
	ordered := orderPatterns(patterns)

	if strategy == algebra.StrategyWCOJ {
		return &algebra.Join{Strategy: algebra.StrategyWCOJ, Patterns: ordered}
	}

	var plan algebra.Node = &algebra.Scan{Pattern: ordered[0]}
	for i := 1; i < len(ordered); i++ {
		plan = &algebra.Join{
			Left:     plan,
			Right:    &algebra.Scan{Pattern: ordered[i]},
			Strategy: algebra.StrategyNestedLoop,
		}
	}
	return plan
}

// orderPatterns sorts patterns by ascending estimated selectivity (most
// selective/fewest-expected-matches first), then greedily reorders the
// remainder so that each subsequent pattern shares at least one variable
// with the patterns already placed whenever possible — this keeps a
// nested-loop join from ever degrading into an unconstrained cross
// product.
func orderPatterns(patterns []algebra.TriplePattern) []algebra.TriplePattern {
	remaining := make([]algebra.TriplePattern, len(patterns))
	copy(remaining, patterns)
	sort.SliceStable(remaining, func(i, j int) bool {
		return estimateSelectivity(remaining[i]) < estimateSelectivity(remaining[j])
	})

	ordered := []algebra.TriplePattern{remaining[0]}
	remaining = remaining[1:]
	placedVars := make(map[string]bool)
	for _, v := range patternVarNames(ordered[0]) {
		placedVars[v] = true
	}

	for len(remaining) > 0 {
		bestIdx := -1
		for i, p := range remaining {
			for _, v := range patternVarNames(p) {
				if placedVars[v] {
					bestIdx = i
					break
				}
			}
			if bestIdx != -1 {
				break
			}
		}
		if bestIdx == -1 {
			bestIdx = 0
		}
		next := remaining[bestIdx]
		ordered = append(ordered, next)
		for _, v := range patternVarNames(next) {
			placedVars[v] = true
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return ordered
}
